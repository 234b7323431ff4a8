// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the Handlers aggregate and the narrow service interfaces
// it consumes. Handlers are transport-thin: they resolve the principal,
// validate/bind input, delegate to application services, and translate
// domain/service errors into HTTP results.
package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-adopt-backend/internal/auth"
	"github.com/tbourn/go-adopt-backend/internal/domain"
	"github.com/tbourn/go-adopt-backend/internal/repo"
)

// AdoptionService is the application-service contract for the request
// lifecycle. Implemented by services.AdoptionService.
type AdoptionService interface {
	Submit(ctx context.Context, p auth.Principal, petID, message string) (*domain.AdoptionRequest, error)
	ResolveAsOwner(ctx context.Context, p auth.Principal, requestID string, target domain.RequestStatus, comment *string) (*domain.AdoptionRequest, error)
	ResolveAsAdmin(ctx context.Context, p auth.Principal, requestID string, target domain.RequestStatus, comment *string) (*domain.AdoptionRequest, error)
	Get(ctx context.Context, p auth.Principal, requestID string) (*domain.AdoptionRequest, error)
	ListMine(ctx context.Context, p auth.Principal, status *domain.RequestStatus, page, pageSize int) ([]domain.AdoptionRequest, int64, error)
	ListForPet(ctx context.Context, p auth.Principal, petID string) ([]domain.AdoptionRequest, error)
	Stats(ctx context.Context, p auth.Principal) (repo.StatusCounts, error)
}

// PetService is the application-service contract for listings.
// Implemented by services.PetService.
type PetService interface {
	Create(ctx context.Context, p auth.Principal, name, species, breed, description string) (*domain.Pet, error)
	Get(ctx context.Context, id string) (*domain.Pet, error)
	ListPage(ctx context.Context, availableOnly bool, page, pageSize int) ([]domain.Pet, int64, error)
	Search(ctx context.Context, query string, k int) ([]domain.Pet, error)
}

// IdempotencyStore persists submit replay records. Implemented by a shim
// over the repo package (see router wiring).
type IdempotencyStore interface {
	Get(ctx context.Context, userID, key string, now time.Time) (*domain.Idempotency, error)
	Put(ctx context.Context, userID, petID, key, requestID string, status int, ttl time.Duration) error
}

// Handlers aggregates the HTTP handlers and their dependencies.
type Handlers struct {
	adoptions AdoptionService
	pets      PetService

	idem    IdempotencyStore // nil disables submit replay
	idemTTL time.Duration
}

// New constructs the Handlers aggregate.
func New(adoptions AdoptionService, pets PetService) *Handlers {
	return &Handlers{adoptions: adoptions, pets: pets}
}

// WithIdempotency enables replay of POST /adoptions via Idempotency-Key.
func (h *Handlers) WithIdempotency(store IdempotencyStore, ttl time.Duration) *Handlers {
	h.idem = store
	h.idemTTL = ttl
	return h
}

// principal resolves the authenticated principal or writes a 401 and
// reports false. Every write path and identity-scoped read path calls this
// first; the precondition ordering of the engine assumes it.
func principal(c *gin.Context) (auth.Principal, bool) {
	p, ok := auth.FromContext(c)
	if !ok {
		fail(c, 401, ErrCodeUnauthorized, "authentication required")
		return auth.Principal{}, false
	}
	return p, true
}
