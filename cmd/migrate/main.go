// Command migrate applies or rolls back SQL schema migrations.
package main

import (
	"context"
	"flag"
	"log"

	"interndesk/internal/config"
	"interndesk/internal/database"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	rollback := flag.Int("rollback", 0, "roll back the migration with this version")
	status := flag.Bool("status", false, "print schema status and exit")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	dsn := "host=" + cfg.DBHost + " port=" + cfg.DBPort + " user=" + cfg.DBUser +
		" password=" + cfg.DBPassword + " dbname=" + cfg.DBName + " sslmode=" + cfg.DBSSLMode
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}

	ctx := context.Background()

	switch {
	case *status:
		st, err := database.GetSchemaStatus(ctx, db, cfg)
		if err != nil {
			log.Fatalf("Schema status failed: %v", err)
		}
		log.Printf("mode=%s env=%s applied=%v pending=%d", st.Mode, st.Environment, st.AppliedVersions, len(st.PendingMigrations))
	case *rollback > 0:
		if err := database.RollbackMigration(ctx, db, *rollback); err != nil {
			log.Fatalf("Rollback failed: %v", err)
		}
	default:
		if err := database.RunMigrations(ctx, db); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
	}
}
