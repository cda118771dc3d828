package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestStatus defines lifecycle states for internship requests.
type RequestStatus string

const (
	// RequestStatusPending indicates the request is awaiting review.
	RequestStatusPending RequestStatus = "pending"
	// RequestStatusApproved indicates the request was accepted and a letter was generated.
	RequestStatusApproved RequestStatus = "approved"
	// RequestStatusRejected indicates the request was denied.
	RequestStatusRejected RequestStatus = "rejected"
)

// NormalizeStatus lowercases a stored status value. Historical records may
// carry mixed-case or empty status fields; empty means pending.
func NormalizeStatus(raw string) RequestStatus {
	s := RequestStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case RequestStatusApproved, RequestStatusRejected:
		return s
	default:
		return RequestStatusPending
	}
}

// InternshipRequest is an applicant-submitted internship application and its
// workflow state. The ID is assigned by the store and never changes; LegacyRef
// carries the identifier used by records imported from the previous system.
type InternshipRequest struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`
	LegacyRef string `gorm:"size:64;index" json:"legacy_ref,omitempty"`

	StudentName    string `gorm:"size:200;not null" json:"student_name"`
	CollegeName    string `gorm:"size:200;not null" json:"college_name"`
	CollegeAddress string `gorm:"size:400" json:"college_address,omitempty"`
	Email          string `gorm:"size:200;not null" json:"email"`
	StudentYear    string `gorm:"size:40" json:"student_year,omitempty"`
	Branch         string `gorm:"size:120" json:"branch,omitempty"`
	BranchOther    string `gorm:"size:120" json:"branch_other,omitempty"`
	StartDate      string `gorm:"size:40;not null" json:"start_date"`
	EndDate        string `gorm:"size:40;not null" json:"end_date"`
	Duration       string `gorm:"size:80;not null" json:"duration"`
	SubmissionDate string `gorm:"size:40" json:"submission_date"`

	Status RequestStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`

	// PermissionPath is the uploaded supporting document, relative to the
	// upload root. Set once at submission.
	PermissionPath string `gorm:"size:400;not null" json:"permission_path"`
	// GeneratedLetterFilename is non-nil exactly while Status is approved.
	GeneratedLetterFilename *string    `gorm:"size:200" json:"generated_letter_filename,omitempty"`
	ApprovedAt              *time.Time `json:"approved_at,omitempty"`
	IssuedDate              *string    `gorm:"size:40" json:"issued_date,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns the opaque record identifier.
func (r *InternshipRequest) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// IsApproved reports whether the record is approved with a generated letter on file.
func (r *InternshipRequest) IsApproved() bool {
	return NormalizeStatus(string(r.Status)) == RequestStatusApproved &&
		r.GeneratedLetterFilename != nil && *r.GeneratedLetterFilename != ""
}

// Actor is the request-scoped identity performing an operation. Admin-gated
// lifecycle transitions take it explicitly instead of reading session state.
type Actor struct {
	Admin bool
	Name  string
}

// AdminActor returns an Actor with administrative rights.
func AdminActor(name string) Actor {
	return Actor{Admin: true, Name: name}
}
