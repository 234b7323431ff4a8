// Package services – authorization.
//
// Role checks used to be inlined per route; they are unified here into a
// single capability check taking (principal, action, resource) and returning
// allow/deny. Handlers and services ask Authorize instead of comparing roles.
//
// Ownership of individual requests is deliberately NOT decided here for the
// resolve paths: the engine folds ownership into its lookup query so that
// "not yours" and "does not exist" are indistinguishable to the caller.
package services

import (
	"github.com/tbourn/go-adopt-backend/internal/auth"
	"github.com/tbourn/go-adopt-backend/internal/domain"
)

// Action identifies a capability a principal may or may not hold.
type Action string

const (
	// ActionSubmitRequest submits an adoption request for a pet.
	ActionSubmitRequest Action = "adoption:submit"
	// ActionResolveRequest resolves a request targeting one's own pet.
	ActionResolveRequest Action = "adoption:resolve"
	// ActionResolveAnyRequest resolves any request (administrative override).
	ActionResolveAnyRequest Action = "adoption:resolve-any"
	// ActionCreatePet publishes a new listing.
	ActionCreatePet Action = "pet:create"
	// ActionViewPetRequests lists the requests targeting a pet.
	ActionViewPetRequests Action = "pet:view-requests"
)

// Resource carries the attributes of the object an action touches. The zero
// value means "no resource context" (pure role checks).
type Resource struct {
	// OwnerID is the owning user of the pet involved, when known.
	OwnerID string
}

// Authorize decides whether principal p may perform action on resource.
// It returns nil on allow and ErrForbidden on deny.
func Authorize(p auth.Principal, action Action, res Resource) error {
	switch action {
	case ActionSubmitRequest:
		// Administrators cannot adopt; adopters and owners can (owning a
		// different pet does not bar you from adopting someone else's).
		if p.Role == domain.RoleAdmin {
			return ErrForbidden
		}
		return nil

	case ActionResolveRequest:
		if p.Role != domain.RoleOwner {
			return ErrForbidden
		}
		return nil

	case ActionResolveAnyRequest:
		if p.Role != domain.RoleAdmin {
			return ErrForbidden
		}
		return nil

	case ActionCreatePet:
		if p.Role != domain.RoleOwner {
			return ErrForbidden
		}
		return nil

	case ActionViewPetRequests:
		if p.Role == domain.RoleAdmin {
			return nil
		}
		if p.Role == domain.RoleOwner && res.OwnerID != "" && res.OwnerID == p.ID {
			return nil
		}
		return ErrForbidden
	}
	return ErrForbidden
}
