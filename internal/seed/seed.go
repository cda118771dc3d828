// Package seed provides helpers to create demo internship requests for
// development and testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"interndesk/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options configures the seeder.
type Options struct {
	NumRequests int
	ShouldClean bool
	// DryRun builds records without writing to the database.
	DryRun bool
}

var branches = []string{
	"Computer Science", "Information Technology", "Electronics",
	"Mechanical", "Civil", "Electrical", "Other",
}

var years = []string{"1st", "2nd", "3rd", "4th"}

var durations = []string{"4 weeks", "6 weeks", "8 weeks", "3 months", "6 months"}

// Factory builds internship request records and persists them.
type Factory struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{
		db:   db,
		opts: opts,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// BuildRequest constructs a request without persisting it. Optional override
// functions may modify the generated record before saving.
func (f *Factory) BuildRequest(overrides ...func(*models.InternshipRequest)) *models.InternshipRequest {
	start := time.Now().AddDate(0, 0, f.rng.Intn(60)+7)
	end := start.AddDate(0, 0, f.rng.Intn(120)+28)

	branch := branches[f.rng.Intn(len(branches))]
	rec := &models.InternshipRequest{
		StudentName:    gofakeit.Name(),
		CollegeName:    fmt.Sprintf("%s Institute of Technology", gofakeit.City()),
		CollegeAddress: gofakeit.Address().Address,
		Email:          gofakeit.Email(),
		StudentYear:    years[f.rng.Intn(len(years))],
		Branch:         branch,
		StartDate:      start.Format("02-01-2006"),
		EndDate:        end.Format("02-01-2006"),
		Duration:       durations[f.rng.Intn(len(durations))],
		SubmissionDate: time.Now().Format("02-01-2006"),
		Status:         models.RequestStatusPending,
		PermissionPath: fmt.Sprintf("permission_letters/seed_%s.pdf", gofakeit.UUID()),
	}
	if branch == "Other" {
		rec.BranchOther = gofakeit.JobTitle()
	}

	// Realistic created_at spread over the last 90 days.
	daysBack := f.rng.Intn(90)
	rec.CreatedAt = time.Now().Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(f.rng.Intn(24))*time.Hour)

	for _, override := range overrides {
		override(rec)
	}
	return rec
}

// CreateRequest builds and persists a single request.
func (f *Factory) CreateRequest(overrides ...func(*models.InternshipRequest)) (*models.InternshipRequest, error) {
	rec := f.BuildRequest(overrides...)
	if f.opts.DryRun {
		log.Printf("[dry-run] CreateRequest: %s (%s)", rec.StudentName, rec.CollegeName)
		return rec, nil
	}
	if err := f.db.Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

// Seed populates the database with demo requests.
func Seed(db *gorm.DB, opts Options) error {
	if opts.NumRequests <= 0 {
		opts.NumRequests = 25
	}
	log.Printf("Seeding %d internship requests...", opts.NumRequests)

	if opts.ShouldClean && !opts.DryRun {
		if err := db.Exec("DELETE FROM internship_requests").Error; err != nil {
			log.Printf("Warning: could not clear existing requests: %v", err)
		}
	}

	f := NewFactory(db, opts)
	for i := 0; i < opts.NumRequests; i++ {
		if _, err := f.CreateRequest(); err != nil {
			return fmt.Errorf("seed request %d: %w", i, err)
		}
	}

	log.Println("Seeding complete")
	return nil
}
