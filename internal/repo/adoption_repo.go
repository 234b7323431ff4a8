// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// AdoptionRequest model.
//
// The repository follows a "thin" approach: it performs persistence and
// simple query composition, leaving the lifecycle rules to the services
// package. The one concurrency-sensitive helper is RejectOtherPending,
// which scopes the cascade to a single pet and must run inside the same
// transaction as the availability flip (see services.AdoptionService).
//
// Error semantics:
//   - Missing rows surface as gorm.ErrRecordNotFound / ErrNotFound.
//   - Duplicate active requests rely on the ux_requests_active partial
//     unique index and surface as ErrDuplicate for the service layer to
//     translate into the specific conflict.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-adopt-backend/internal/domain"
)

// ErrDuplicate indicates that an insert violated a unique constraint
// (an active request for the same (user, pet) already exists, or a replay
// record for the same idempotency key).
var ErrDuplicate = errors.New("duplicate")

// isUniqueViolation detects unique-constraint failures from the pure-Go
// sqlite driver, which often reports them as plain-text errors rather than
// gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}

// CreateRequest inserts a new PENDING adoption request. The ux_requests_active
// index guards the no-duplicate-actives invariant even when two submits race
// past the service-level check; the loser receives ErrDuplicate.
func CreateRequest(ctx context.Context, db *gorm.DB, userID, petID, message string) (*domain.AdoptionRequest, error) {
	r := &domain.AdoptionRequest{
		ID:        uuid.NewString(),
		UserID:    userID,
		PetID:     petID,
		Status:    domain.StatusPending,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(r).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return r, nil
}

// GetRequest fetches a request by ID with its pet preloaded, or ErrNotFound.
func GetRequest(ctx context.Context, db *gorm.DB, id string) (*domain.AdoptionRequest, error) {
	var r domain.AdoptionRequest
	err := db.WithContext(ctx).Preload("Pet").Where("id = ?", id).First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// FindActiveRequest returns the request with status PENDING or ACCEPTED for
// the (userID, petID) pair, or ErrNotFound when the pair has no active
// request. At most one row can match (partial unique index).
func FindActiveRequest(ctx context.Context, db *gorm.DB, userID, petID string) (*domain.AdoptionRequest, error) {
	var r domain.AdoptionRequest
	err := db.WithContext(ctx).
		Where("user_id = ? AND pet_id = ? AND status IN ?", userID, petID, domain.ActiveStatuses).
		First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// UpdateRequestStatus sets the status of a single request and, when message
// is non-nil, overwrites the stored message with the resolver's comment.
// Returns ErrNotFound when no row was touched.
func UpdateRequestStatus(ctx context.Context, db *gorm.DB, id string, status domain.RequestStatus, message *string) error {
	cols := map[string]any{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	if message != nil {
		cols["message"] = *message
	}
	res := db.WithContext(ctx).
		Model(&domain.AdoptionRequest{}).
		Where("id = ?", id).
		Updates(cols)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return ErrDuplicate
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RejectOtherPending force-rejects every PENDING request for petID except
// acceptedID, stamping each with the system comment. It returns the IDs of
// the rejected rows so the caller can emit one activity event per sibling.
//
// Must be called inside the transaction that flipped the pet's availability;
// running it separately would allow the §cascade invariant to be observed
// half-applied.
func RejectOtherPending(ctx context.Context, db *gorm.DB, petID, acceptedID, systemComment string) ([]string, error) {
	var ids []string
	err := db.WithContext(ctx).
		Model(&domain.AdoptionRequest{}).
		Where("pet_id = ? AND status = ? AND id <> ?", petID, domain.StatusPending, acceptedID).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	err = db.WithContext(ctx).
		Model(&domain.AdoptionRequest{}).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"status":     domain.StatusRejected,
			"message":    systemComment,
			"updated_at": time.Now().UTC(),
		}).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// CountRequests returns the number of requests submitted by userID,
// optionally filtered by status.
func CountRequests(ctx context.Context, db *gorm.DB, userID string, status *domain.RequestStatus) (int64, error) {
	q := db.WithContext(ctx).Model(&domain.AdoptionRequest{}).Where("user_id = ?", userID)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	var total int64
	err := q.Count(&total).Error
	return total, err
}

// ListRequestsPage returns a page of requests submitted by userID with pets
// preloaded, newest first, optionally filtered by status.
func ListRequestsPage(ctx context.Context, db *gorm.DB, userID string, status *domain.RequestStatus, offset, limit int) ([]domain.AdoptionRequest, error) {
	q := db.WithContext(ctx).Preload("Pet").Where("user_id = ?", userID)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	var out []domain.AdoptionRequest
	err := q.Order("created_at desc").Offset(offset).Limit(limit).Find(&out).Error
	return out, err
}

// ListRequestsForPet returns every request targeting petID, newest first.
// Ownership checks belong to the service layer.
func ListRequestsForPet(ctx context.Context, db *gorm.DB, petID string) ([]domain.AdoptionRequest, error) {
	var out []domain.AdoptionRequest
	err := db.WithContext(ctx).
		Where("pet_id = ?", petID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}
