// Command seed populates the database with demo internship requests.
package main

import (
	"flag"
	"log"

	"interndesk/internal/config"
	"interndesk/internal/database"
	"interndesk/internal/seed"

	"github.com/joho/godotenv"
)

func main() {
	num := flag.Int("n", 25, "number of requests to create")
	clean := flag.Bool("clean", false, "delete existing requests first")
	dryRun := flag.Bool("dry-run", false, "build records without writing")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Env == "production" || cfg.Env == "prod" {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}

	if err := seed.Seed(db, seed.Options{
		NumRequests: *num,
		ShouldClean: *clean,
		DryRun:      *dryRun,
	}); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
}
