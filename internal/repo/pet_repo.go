// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Pet model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a pet is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-adopt-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreatePet inserts a new listing owned by ownerID. The pet ID is a randomly
// generated UUID, CreatedAt is set to UTC, and the listing starts available.
func CreatePet(ctx context.Context, db *gorm.DB, ownerID, name, species, breed, description string) (*domain.Pet, error) {
	p := &domain.Pet{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Name:        name,
		Species:     species,
		Breed:       breed,
		Description: description,
		IsAvailable: true,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// GetPet fetches a single pet by ID, or ErrNotFound if missing.
func GetPet(ctx context.Context, db *gorm.DB, id string) (*domain.Pet, error) {
	var p domain.Pet
	if err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// CountPets returns the number of listings, optionally restricted to
// available ones. On DB error, it returns the error.
func CountPets(ctx context.Context, db *gorm.DB, availableOnly bool) (int64, error) {
	q := db.WithContext(ctx).Model(&domain.Pet{})
	if availableOnly {
		q = q.Where("is_available = ?", true)
	}
	var total int64
	err := q.Count(&total).Error
	return total, err
}

// ListPetsPage returns a paginated slice of listings ordered by creation
// time descending, optionally restricted to available ones. The caller is
// responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListPetsPage(ctx context.Context, db *gorm.DB, availableOnly bool, offset, limit int) ([]domain.Pet, error) {
	q := db.WithContext(ctx).Model(&domain.Pet{})
	if availableOnly {
		q = q.Where("is_available = ?", true)
	}
	var out []domain.Pet
	err := q.Order("created_at desc").Offset(offset).Limit(limit).Find(&out).Error
	return out, err
}

// ListAvailablePets returns every available listing, newest first. Used to
// build the in-memory search corpus; the marketplace catalogue is small
// enough that a full scan per search request is acceptable.
func ListAvailablePets(ctx context.Context, db *gorm.DB) ([]domain.Pet, error) {
	var out []domain.Pet
	err := db.WithContext(ctx).
		Where("is_available = ?", true).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// MarkPetUnavailable conditionally flips is_available from true to false.
//
// This is the pivot of the acceptance transaction: the WHERE clause makes
// the update a compare-and-swap, so of two concurrent acceptors exactly one
// observes RowsAffected == 1. It returns (true, nil) when this caller won
// the flag, (false, nil) when the pet was already unavailable, and a DB
// error otherwise. The pet must exist; callers load it first.
func MarkPetUnavailable(ctx context.Context, db *gorm.DB, petID string) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Pet{}).
		Where("id = ? AND is_available = ?", petID, true).
		Update("is_available", false)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
