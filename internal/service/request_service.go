// Package service implements business logic for the internship request workflow.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"path/filepath"
	"strings"
	"time"

	"interndesk/internal/cache"
	"interndesk/internal/letter"
	"interndesk/internal/middleware"
	"interndesk/internal/models"
	"interndesk/internal/observability"
	"interndesk/internal/repository"
	"interndesk/internal/storage"
)

// issuedDateLayout is the day-month-year format stamped on offer letters.
const issuedDateLayout = "02-01-2006"

const (
	defaultListLimit = 50
	maxUploadSizeMB  = 10
)

// SubmitInput carries an applicant's submission, including the uploaded
// permission document.
type SubmitInput struct {
	StudentName    string
	CollegeName    string
	CollegeAddress string
	Email          string
	StudentYear    string
	Branch         string
	BranchOther    string
	StartDate      string
	EndDate        string
	Duration       string

	Filename    string
	ContentType string
	Content     []byte
}

// LetterRef points at a generated letter on disk, ready for streaming.
type LetterRef struct {
	Filename string
	AbsPath  string
}

// RequestService coordinates the request lifecycle: submission, review
// transitions, and artifact access.
type RequestService struct {
	repo               repository.RequestRepository
	store              storage.Store
	renderer           letter.Renderer
	maxUploadSizeBytes int64
}

// NewRequestService creates a RequestService.
func NewRequestService(repo repository.RequestRepository, store storage.Store, renderer letter.Renderer, maxUploadSizeMBCfg int) *RequestService {
	if maxUploadSizeMBCfg <= 0 {
		maxUploadSizeMBCfg = maxUploadSizeMB
	}
	return &RequestService{
		repo:               repo,
		store:              store,
		renderer:           renderer,
		maxUploadSizeBytes: int64(maxUploadSizeMBCfg) * 1024 * 1024,
	}
}

// Submit validates a new application, persists the uploaded permission
// document, and creates the record in pending state.
func (s *RequestService) Submit(ctx context.Context, in SubmitInput) (*models.InternshipRequest, error) {
	ctx, span := observability.TraceLifecycleTransition(ctx, "submit", "")
	defer span.End()

	if err := validateSubmitInput(in); err != nil {
		middleware.LifecycleTransitions.WithLabelValues("submit", "rejected_input").Inc()
		return nil, err
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}
	if !storage.IsPDF(in.Content) {
		return nil, models.NewInvalidArtifactError("Permission document must be a PDF file")
	}

	relPath, err := s.store.SaveUpload(in.Filename, in.Content)
	if err != nil {
		middleware.LifecycleTransitions.WithLabelValues("submit", "error").Inc()
		return nil, err
	}

	rec := &models.InternshipRequest{
		StudentName:    strings.TrimSpace(in.StudentName),
		CollegeName:    strings.TrimSpace(in.CollegeName),
		CollegeAddress: strings.TrimSpace(in.CollegeAddress),
		Email:          strings.TrimSpace(in.Email),
		StudentYear:    strings.TrimSpace(in.StudentYear),
		Branch:         strings.TrimSpace(in.Branch),
		BranchOther:    strings.TrimSpace(in.BranchOther),
		StartDate:      strings.TrimSpace(in.StartDate),
		EndDate:        strings.TrimSpace(in.EndDate),
		Duration:       strings.TrimSpace(in.Duration),
		SubmissionDate: time.Now().Format(issuedDateLayout),
		Status:         models.RequestStatusPending,
		PermissionPath: relPath,
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		if cleanupErr := s.store.DeleteUpload(relPath); cleanupErr != nil {
			middleware.Logger.Warn("Failed to clean up upload after create failure",
				slog.String("path", relPath), slog.String("error", cleanupErr.Error()))
		}
		middleware.LifecycleTransitions.WithLabelValues("submit", "error").Inc()
		return nil, err
	}

	middleware.LifecycleTransitions.WithLabelValues("submit", "success").Inc()
	middleware.Logger.InfoContext(ctx, "Request submitted",
		slog.String("request_id", rec.ID),
		slog.String("college", rec.CollegeName))
	return rec, nil
}

// Approve transitions a request to approved, rendering and storing its offer
// letter first. Approving an already-approved request is a no-op. When the
// render or write fails the record keeps its pre-transition status.
func (s *RequestService) Approve(ctx context.Context, id string, actor models.Actor) (*models.InternshipRequest, error) {
	ctx, span := observability.TraceLifecycleTransition(ctx, "approve", id)
	defer span.End()

	if !actor.Admin {
		return nil, models.NewForbiddenError("Administrator access required")
	}

	rec, err := s.getByAnyID(ctx, id)
	if err != nil {
		return nil, err
	}

	if rec.IsApproved() {
		if _, ok := s.store.FindGenerated(storage.CandidateFilenames(rec)); ok {
			middleware.LifecycleTransitions.WithLabelValues("approve", "noop").Inc()
			return rec, nil
		}
		// Approved but the letter vanished from disk: regenerate below.
		middleware.Logger.WarnContext(ctx, "Approved request missing letter on disk, regenerating",
			slog.String("request_id", rec.ID))
	}

	issued := time.Now().Format(issuedDateLayout)
	content, err := s.renderer.Render(letter.DataFromRequest(rec, issued))
	if err != nil {
		middleware.LifecycleTransitions.WithLabelValues("approve", "render_error").Inc()
		observability.RecordErrorInContext(ctx, err)
		return nil, models.NewGenerationError(err)
	}

	filename := storage.GeneratedFilename(rec.ID)
	if err := s.store.SaveGenerated(filename, content); err != nil {
		middleware.LifecycleTransitions.WithLabelValues("approve", "storage_error").Inc()
		observability.RecordErrorInContext(ctx, err)
		return nil, models.NewGenerationError(err)
	}

	committed, err := s.repo.CommitApproval(ctx, rec.ID, filename, issued, time.Now())
	if err != nil {
		middleware.LifecycleTransitions.WithLabelValues("approve", "error").Inc()
		return nil, err
	}
	if !committed {
		// Lost a concurrent approval race. The letter file is shared by
		// filename, so the winner's state stands.
		middleware.LifecycleTransitions.WithLabelValues("approve", "noop").Inc()
	} else {
		middleware.LifecycleTransitions.WithLabelValues("approve", "success").Inc()
		middleware.Logger.InfoContext(ctx, "Request approved",
			slog.String("request_id", rec.ID),
			slog.String("actor", actor.Name),
			slog.String("letter", filename))
	}

	return s.repo.GetByID(ctx, rec.ID)
}

// Reject transitions a request to rejected and clears any generated letter
// state. A failed letter-file cleanup is logged but does not block the
// transition.
func (s *RequestService) Reject(ctx context.Context, id string, actor models.Actor) (*models.InternshipRequest, error) {
	ctx, span := observability.TraceLifecycleTransition(ctx, "reject", id)
	defer span.End()

	if !actor.Admin {
		return nil, models.NewForbiddenError("Administrator access required")
	}

	rec, err := s.getByAnyID(ctx, id)
	if err != nil {
		return nil, err
	}

	if models.NormalizeStatus(string(rec.Status)) == models.RequestStatusRejected {
		middleware.LifecycleTransitions.WithLabelValues("reject", "noop").Inc()
		return rec, nil
	}

	if name, ok := s.store.FindGenerated(storage.CandidateFilenames(rec)); ok {
		if _, delErr := s.store.DeleteGenerated(name); delErr != nil {
			middleware.Logger.WarnContext(ctx, "Failed to delete letter during rejection",
				slog.String("request_id", rec.ID),
				slog.String("letter", name),
				slog.String("error", delErr.Error()))
		}
	}

	err = s.repo.Update(ctx, rec.ID, map[string]interface{}{
		"status":                    models.RequestStatusRejected,
		"generated_letter_filename": nil,
		"issued_date":               nil,
		"approved_at":               nil,
	})
	if err != nil {
		middleware.LifecycleTransitions.WithLabelValues("reject", "error").Inc()
		return nil, err
	}

	middleware.LifecycleTransitions.WithLabelValues("reject", "success").Inc()
	middleware.Logger.InfoContext(ctx, "Request rejected",
		slog.String("request_id", rec.ID),
		slog.String("actor", actor.Name))
	return s.repo.GetByID(ctx, rec.ID)
}

// Get returns a single request by its identifier or legacy reference.
func (s *RequestService) Get(ctx context.Context, id string) (*models.InternshipRequest, error) {
	return s.getByAnyID(ctx, id)
}

// List returns requests ordered newest first. The default first page is
// served through the cache; other pages go straight to the store.
func (s *RequestService) List(ctx context.Context, limit, offset int) ([]models.InternshipRequest, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	if limit == defaultListLimit && offset == 0 {
		var requests []models.InternshipRequest
		err := cache.Aside(ctx, cache.RequestListKey, &requests, cache.RequestListTTL, func() error {
			loaded, loadErr := s.repo.List(ctx, limit, offset)
			if loadErr != nil {
				return loadErr
			}
			requests = loaded
			return nil
		})
		if err != nil {
			return nil, err
		}
		return requests, nil
	}

	return s.repo.List(ctx, limit, offset)
}

// PreviewLetter resolves the generated letter for inline viewing. Requests
// that are not approved have no viewable letter.
func (s *RequestService) PreviewLetter(ctx context.Context, id string) (*LetterRef, error) {
	return s.resolveLetter(ctx, id)
}

// DownloadLetter resolves the generated letter for download.
func (s *RequestService) DownloadLetter(ctx context.Context, id string) (*LetterRef, error) {
	return s.resolveLetter(ctx, id)
}

func (s *RequestService) resolveLetter(ctx context.Context, id string) (*LetterRef, error) {
	rec, err := s.getByAnyID(ctx, id)
	if err != nil {
		return nil, err
	}

	if models.NormalizeStatus(string(rec.Status)) != models.RequestStatusApproved {
		return nil, models.NewForbiddenError("Letter is available only for approved requests")
	}

	name, ok := s.store.FindGenerated(storage.CandidateFilenames(rec))
	if !ok {
		return nil, models.NewNotFoundError("Letter", rec.ID)
	}
	absPath, err := s.store.GeneratedPath(name)
	if err != nil {
		return nil, err
	}
	return &LetterRef{Filename: name, AbsPath: absPath}, nil
}

// OpenUpload resolves the permission document for an admin to review.
func (s *RequestService) OpenUpload(ctx context.Context, id string, actor models.Actor) (string, error) {
	if !actor.Admin {
		return "", models.NewForbiddenError("Administrator access required")
	}

	rec, err := s.getByAnyID(ctx, id)
	if err != nil {
		return "", err
	}
	if rec.PermissionPath == "" {
		return "", models.NewNotFoundError("Document", rec.ID)
	}

	relPath := storage.NormalizePermissionPath(rec.PermissionPath)
	return s.store.UploadPath(relPath)
}

// getByAnyID looks a record up by primary identifier first, then by the
// reference carried over from the previous system. The primary key wins when
// both would match.
func (s *RequestService) getByAnyID(ctx context.Context, id string) (*models.InternshipRequest, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, models.NewValidationError("Request identifier is required")
	}

	rec, err := s.repo.GetByID(ctx, id)
	if err == nil {
		return rec, nil
	}
	if appErr, ok := err.(*models.AppError); !ok || appErr.Code != models.CodeNotFound {
		return nil, err
	}

	return s.repo.GetByLegacyRef(ctx, id)
}

func validateSubmitInput(in SubmitInput) error {
	required := []struct {
		value string
		label string
	}{
		{in.StudentName, "Student name"},
		{in.CollegeName, "College name"},
		{in.Email, "Email"},
		{in.StartDate, "Start date"},
		{in.EndDate, "End date"},
		{in.Duration, "Duration"},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return models.NewValidationError(f.label + " is required")
		}
	}

	if _, err := mail.ParseAddress(strings.TrimSpace(in.Email)); err != nil {
		return models.NewValidationError("Invalid email address")
	}
	if len(in.Content) == 0 {
		return models.NewValidationError("Permission document is required")
	}

	// The declared type must be PDF too, not just the sniffed content.
	if !strings.EqualFold(filepath.Ext(in.Filename), ".pdf") {
		return models.NewInvalidArtifactError("Permission document must be a .pdf file")
	}
	switch in.ContentType {
	case "", "application/pdf", "application/octet-stream":
	default:
		return models.NewInvalidArtifactError("Permission document must be a PDF file")
	}
	return nil
}
