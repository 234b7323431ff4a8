// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// by the read endpoints. Each function is context-aware and safe to call
// from services or handlers.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-adopt-backend/internal/domain"
)

// StatusCounts maps request status to row count. Statuses with zero rows
// are filled in so clients always see all four keys.
type StatusCounts map[domain.RequestStatus]int64

// statusRow is the scan target for the grouped count query.
type statusRow struct {
	Status domain.RequestStatus
	N      int64
}

func fillZero(counts StatusCounts) StatusCounts {
	for _, s := range []domain.RequestStatus{
		domain.StatusPending, domain.StatusAccepted,
		domain.StatusRejected, domain.StatusCancelled,
	} {
		if _, ok := counts[s]; !ok {
			counts[s] = 0
		}
	}
	return counts
}

// RequestStatsByUser returns per-status counts of the requests userID has
// submitted. When the user has none, all counts are zero.
func RequestStatsByUser(ctx context.Context, db *gorm.DB, userID string) (StatusCounts, error) {
	var rows []statusRow
	err := db.WithContext(ctx).
		Model(&domain.AdoptionRequest{}).
		Select("status, COUNT(*) AS n").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := StatusCounts{}
	for _, r := range rows {
		counts[r.Status] = r.N
	}
	return fillZero(counts), nil
}

// RequestStatsByOwner returns per-status counts of the requests targeting
// pets owned by ownerID. When no requests exist, all counts are zero.
func RequestStatsByOwner(ctx context.Context, db *gorm.DB, ownerID string) (StatusCounts, error) {
	var rows []statusRow
	err := db.WithContext(ctx).
		Model(&domain.AdoptionRequest{}).
		Select("adoption_requests.status AS status, COUNT(*) AS n").
		Joins("JOIN pets ON pets.id = adoption_requests.pet_id").
		Where("pets.owner_id = ?", ownerID).
		Group("adoption_requests.status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := StatusCounts{}
	for _, r := range rows {
		counts[r.Status] = r.N
	}
	return fillZero(counts), nil
}
