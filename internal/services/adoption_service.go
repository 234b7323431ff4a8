// Package services – AdoptionService
//
// This file implements the AdoptionService, the lifecycle engine for
// adoption requests. It is the only component allowed to transition a
// request's status or toggle a pet's availability, and it owns the two
// race-sensitive paths:
//
//   - duplicate submit: the active-request check and the insert run in one
//     transaction, backed by the ux_requests_active partial unique index,
//     so a losing concurrent writer surfaces a conflict instead of a
//     duplicate row;
//   - double acceptance: accepting pivots on a conditional update of the
//     pet's availability flag. Exactly one concurrent acceptor flips the
//     flag; the loser aborts with ErrPetUnavailable and no partial effects,
//     because the flip, the status change, and the cascade rejection of
//     sibling PENDING requests share a single transaction.
//
// Activity events are emitted only after the transaction commits; a slow or
// failing activity sink can never roll back adoption state.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-adopt-backend/internal/activity"
	"github.com/tbourn/go-adopt-backend/internal/auth"
	"github.com/tbourn/go-adopt-backend/internal/domain"
	"github.com/tbourn/go-adopt-backend/internal/repo"
)

// SystemRejectComment is stamped on sibling requests rejected as part of an
// acceptance cascade, distinguishing them from manual rejections.
const SystemRejectComment = "rejected automatically: pet was adopted by another applicant"

// tracer instruments the race-sensitive transitions.
var tracer = otel.Tracer("github.com/tbourn/go-adopt-backend/internal/services")

// AdoptionService implements the adoption-request lifecycle. All state
// transitions run inside transactions on DB; Activity receives the resulting
// events post-commit.
type AdoptionService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Activity is the outbound audit/notification sink.
	Activity activity.Log
	// MaxPageSize caps page_size on list endpoints.
	MaxPageSize int
}

// NewAdoptionService constructs an AdoptionService.
func NewAdoptionService(db *gorm.DB, log activity.Log) *AdoptionService {
	return &AdoptionService{DB: db, Activity: log, MaxPageSize: 100}
}

// Submit creates a PENDING request from principal p for petID.
//
// Precondition order (each a distinct error): role check, non-empty message,
// pet exists, pet available, not the caller's own pet, no active request for
// the (caller, pet) pair. The availability flag is untouched until a later
// acceptance.
func (s *AdoptionService) Submit(ctx context.Context, p auth.Principal, petID, message string) (*domain.AdoptionRequest, error) {
	if err := Authorize(p, ActionSubmitRequest, Resource{}); err != nil {
		return nil, err
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	var (
		req *domain.AdoptionRequest
		pet *domain.Pet
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		pet, err = repo.GetPet(ctx, tx, petID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrPetNotFound
			}
			return err
		}
		if !pet.IsAvailable {
			return ErrPetUnavailable
		}
		if pet.OwnerID == p.ID {
			return ErrOwnPet
		}

		existing, err := repo.FindActiveRequest(ctx, tx, p.ID, petID)
		switch {
		case err == nil:
			if existing.Status == domain.StatusAccepted {
				return ErrAlreadyAdopted
			}
			return ErrAlreadyPending
		case !errors.Is(err, repo.ErrNotFound):
			return err
		}

		req, err = repo.CreateRequest(ctx, tx, p.ID, petID, message)
		if errors.Is(err, repo.ErrDuplicate) {
			// Lost a concurrent submit between the check and the insert.
			return ErrAlreadyPending
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, activity.Event{
		Type:       activity.EventRequested,
		RequestID:  req.ID,
		PetID:      pet.ID,
		PetOwnerID: pet.OwnerID,
		ActorID:    p.ID,
	})
	return req, nil
}

// ResolveAsOwner transitions a PENDING request targeting one of p's pets to
// ACCEPTED or REJECTED. Requests that do not exist or target another owner's
// pet both yield ErrRequestNotFound. A non-nil comment overwrites the
// request message.
func (s *AdoptionService) ResolveAsOwner(ctx context.Context, p auth.Principal, requestID string, target domain.RequestStatus, comment *string) (*domain.AdoptionRequest, error) {
	if err := Authorize(p, ActionResolveRequest, Resource{}); err != nil {
		return nil, err
	}
	if target != domain.StatusAccepted && target != domain.StatusRejected {
		return nil, ErrInvalidStatus
	}

	var cascaded []string
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := s.loadRequest(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if req.Pet == nil || req.Pet.OwnerID != p.ID {
			// Indistinguishable from "does not exist" on purpose.
			return ErrRequestNotFound
		}
		if req.Status != domain.StatusPending {
			return ErrNotPending
		}
		cascaded, err = s.applyResolution(ctx, tx, req, target, comment)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.finishResolution(ctx, p, requestID, target, cascaded)
}

// ResolveAsAdmin transitions any request to any of the four statuses,
// regardless of ownership. The admin path keeps the upstream behavior of
// allowing terminal requests to be re-resolved; setting ACCEPTED still has
// to win the availability flag, so the single-acceptance invariant holds
// even under administrative override.
func (s *AdoptionService) ResolveAsAdmin(ctx context.Context, p auth.Principal, requestID string, target domain.RequestStatus, comment *string) (*domain.AdoptionRequest, error) {
	if err := Authorize(p, ActionResolveAnyRequest, Resource{}); err != nil {
		return nil, err
	}
	if !target.Valid() {
		return nil, ErrInvalidStatus
	}

	var cascaded []string
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := s.loadRequest(ctx, tx, requestID)
		if err != nil {
			return err
		}
		cascaded, err = s.applyResolution(ctx, tx, req, target, comment)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.finishResolution(ctx, p, requestID, target, cascaded)
}

// loadRequest fetches a request with its pet inside tx, translating missing
// rows into ErrRequestNotFound.
func (s *AdoptionService) loadRequest(ctx context.Context, tx *gorm.DB, requestID string) (*domain.AdoptionRequest, error) {
	req, err := repo.GetRequest(ctx, tx, requestID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return req, nil
}

// applyResolution performs the status transition inside tx. For ACCEPTED it
// executes the atomic unit: win the availability flag, mark the request,
// force-reject sibling PENDING requests. Returning an error rolls the whole
// unit back; partial application is never committed.
func (s *AdoptionService) applyResolution(ctx context.Context, tx *gorm.DB, req *domain.AdoptionRequest, target domain.RequestStatus, comment *string) ([]string, error) {
	if target != domain.StatusAccepted {
		return nil, repo.UpdateRequestStatus(ctx, tx, req.ID, target, comment)
	}

	ctx, span := tracer.Start(ctx, "adoption.accept",
		trace.WithAttributes(
			attribute.String("adoption.request_id", req.ID),
			attribute.String("adoption.pet_id", req.PetID),
		))
	defer span.End()

	won, err := repo.MarkPetUnavailable(ctx, tx, req.PetID)
	if err != nil {
		return nil, err
	}
	if !won {
		// Another acceptance consumed the pet first.
		span.SetAttributes(attribute.Bool("adoption.lost_race", true))
		return nil, ErrPetUnavailable
	}
	if err := repo.UpdateRequestStatus(ctx, tx, req.ID, domain.StatusAccepted, comment); err != nil {
		return nil, err
	}
	cascaded, err := repo.RejectOtherPending(ctx, tx, req.PetID, req.ID, SystemRejectComment)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("adoption.cascaded", len(cascaded)))
	return cascaded, nil
}

// finishResolution reloads the committed request (with its pet snapshot) and
// emits activity events for the transition and any cascade.
func (s *AdoptionService) finishResolution(ctx context.Context, p auth.Principal, requestID string, target domain.RequestStatus, cascaded []string) (*domain.AdoptionRequest, error) {
	req, err := repo.GetRequest(ctx, s.DB, requestID)
	if err != nil {
		return nil, err
	}

	var evType string
	switch target {
	case domain.StatusAccepted:
		evType = activity.EventAccepted
	case domain.StatusRejected:
		evType = activity.EventRejected
	case domain.StatusCancelled:
		evType = activity.EventCancelled
	}
	ownerID := ""
	if req.Pet != nil {
		ownerID = req.Pet.OwnerID
	}
	if evType != "" {
		s.record(ctx, activity.Event{
			Type:       evType,
			RequestID:  req.ID,
			PetID:      req.PetID,
			PetOwnerID: ownerID,
			ActorID:    p.ID,
		})
	}
	for _, id := range cascaded {
		s.record(ctx, activity.Event{
			Type:       activity.EventRejected,
			RequestID:  id,
			PetID:      req.PetID,
			PetOwnerID: ownerID,
			ActorID:    p.ID,
			Auto:       true,
		})
	}
	return req, nil
}

// record emits an activity event, tolerating a nil sink (tests).
func (s *AdoptionService) record(ctx context.Context, ev activity.Event) {
	if s.Activity == nil {
		return
	}
	ev.At = time.Now().UTC()
	s.Activity.Record(ctx, ev)
}

// Get returns one of p's own submitted requests with its pet preloaded.
// Requests submitted by other users yield ErrRequestNotFound, mirroring the
// owner-path policy of not revealing foreign requests.
func (s *AdoptionService) Get(ctx context.Context, p auth.Principal, requestID string) (*domain.AdoptionRequest, error) {
	req, err := s.loadRequest(ctx, s.DB, requestID)
	if err != nil {
		return nil, err
	}
	if req.UserID != p.ID && p.Role != domain.RoleAdmin {
		return nil, ErrRequestNotFound
	}
	return req, nil
}

// ListMine returns a page of the requests p has submitted, newest first,
// optionally filtered by status, along with the total for pagination.
func (s *AdoptionService) ListMine(ctx context.Context, p auth.Principal, status *domain.RequestStatus, page, pageSize int) ([]domain.AdoptionRequest, int64, error) {
	if status != nil && !status.Valid() {
		return nil, 0, ErrInvalidStatus
	}
	offset, limit := pageWindow(page, pageSize, s.MaxPageSize)

	total, err := repo.CountRequests(ctx, s.DB, p.ID, status)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.AdoptionRequest{}, 0, nil
	}
	items, err := repo.ListRequestsPage(ctx, s.DB, p.ID, status, offset, limit)
	return items, total, err
}

// ListForPet returns every request targeting petID. Only the pet's owner and
// administrators may see them; other owners get ErrForbidden, a missing pet
// yields ErrPetNotFound.
func (s *AdoptionService) ListForPet(ctx context.Context, p auth.Principal, petID string) ([]domain.AdoptionRequest, error) {
	pet, err := repo.GetPet(ctx, s.DB, petID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrPetNotFound
		}
		return nil, err
	}
	if err := Authorize(p, ActionViewPetRequests, Resource{OwnerID: pet.OwnerID}); err != nil {
		return nil, err
	}
	return repo.ListRequestsForPet(ctx, s.DB, petID)
}

// Stats returns per-status request counts scoped to the principal: owners
// see the requests targeting their pets, everyone else sees the requests
// they submitted.
func (s *AdoptionService) Stats(ctx context.Context, p auth.Principal) (repo.StatusCounts, error) {
	if p.Role == domain.RoleOwner {
		return repo.RequestStatsByOwner(ctx, s.DB, p.ID)
	}
	return repo.RequestStatsByUser(ctx, s.DB, p.ID)
}

// pageWindow applies the shared pagination defaults and the max cap.
func pageWindow(page, pageSize, max int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if max > 0 && pageSize > max {
		pageSize = max
	}
	return (page - 1) * pageSize, pageSize
}
