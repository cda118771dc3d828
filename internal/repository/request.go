// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"
	"time"

	"interndesk/internal/cache"
	"interndesk/internal/models"
	"interndesk/internal/observability"

	"gorm.io/gorm"
)

// RequestRepository defines persistence operations for internship requests.
type RequestRepository interface {
	Create(ctx context.Context, req *models.InternshipRequest) error
	GetByID(ctx context.Context, id string) (*models.InternshipRequest, error)
	GetByLegacyRef(ctx context.Context, ref string) (*models.InternshipRequest, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) error
	List(ctx context.Context, limit, offset int) ([]models.InternshipRequest, error)
	// CommitApproval flips a record to approved and stamps the letter metadata,
	// but only if it is not already approved. Returns false when another
	// approval won the race.
	CommitApproval(ctx context.Context, id, letterFilename, issuedDate string, approvedAt time.Time) (bool, error)
}

type requestRepository struct {
	db *gorm.DB
}

// NewRequestRepository returns a new RequestRepository implementation.
func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, req *models.InternshipRequest) error {
	ctx, span := observability.TraceRepositoryMethod(ctx, "Create", "internship_requests")
	defer span.End()

	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		span.RecordError(err)
		return models.NewInternalError(err)
	}
	cache.InvalidateRequestList(ctx)
	return nil
}

func (r *requestRepository) GetByID(ctx context.Context, id string) (*models.InternshipRequest, error) {
	var req models.InternshipRequest
	key := cache.RequestKey(id)

	err := cache.Aside(ctx, key, &req, cache.RequestTTL, func() error {
		if err := readDB(r.db).WithContext(ctx).Where("id = ?", id).First(&req).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Request", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) GetByLegacyRef(ctx context.Context, ref string) (*models.InternshipRequest, error) {
	var req models.InternshipRequest
	if err := readDB(r.db).WithContext(ctx).Where("legacy_ref = ?", ref).First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Request", ref)
		}
		return nil, models.NewInternalError(err)
	}
	return &req, nil
}

func (r *requestRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	ctx, span := observability.TraceRepositoryMethod(ctx, "Update", "internship_requests")
	defer span.End()

	result := r.db.WithContext(ctx).Model(&models.InternshipRequest{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		span.RecordError(result.Error)
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Request", id)
	}
	cache.InvalidateRequest(ctx, id)
	return nil
}

func (r *requestRepository) List(ctx context.Context, limit, offset int) ([]models.InternshipRequest, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	var requests []models.InternshipRequest
	if err := readDB(r.db).WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&requests).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return requests, nil
}

func (r *requestRepository) CommitApproval(ctx context.Context, id, letterFilename, issuedDate string, approvedAt time.Time) (bool, error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "CommitApproval", "internship_requests")
	defer span.End()

	result := r.db.WithContext(ctx).
		Model(&models.InternshipRequest{}).
		Where("id = ? AND status <> ?", id, models.RequestStatusApproved).
		Updates(map[string]interface{}{
			"status":                    models.RequestStatusApproved,
			"generated_letter_filename": letterFilename,
			"issued_date":               issuedDate,
			"approved_at":               approvedAt,
		})
	if result.Error != nil {
		span.RecordError(result.Error)
		return false, models.NewInternalError(result.Error)
	}
	cache.InvalidateRequest(ctx, id)
	return result.RowsAffected > 0, nil
}
