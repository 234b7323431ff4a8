// Package services defines the business logic for pets and adoption
// requests. This file centralizes common service-level error values so that
// they can be consistently returned by service methods and checked by
// callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler/controller layer.
package services

import "errors"

// Authorization errors.
var (
	// ErrForbidden is returned when the acting principal's role is not
	// allowed to perform the operation (e.g., an administrator submitting
	// an adoption request, or a non-owner resolving one).
	ErrForbidden = errors.New("role not allowed for this operation")
)

// Pet-related errors.
var (
	// ErrPetNotFound indicates that the target pet does not exist.
	ErrPetNotFound = errors.New("pet not found")

	// ErrPetUnavailable is returned when the target pet is no longer
	// available, either at submit time or when a concurrent acceptance
	// consumed it first. It signals "someone else got there first", not a
	// system fault.
	ErrPetUnavailable = errors.New("pet is no longer available")

	// ErrOwnPet is returned when a user attempts to adopt a pet they
	// listed themselves.
	ErrOwnPet = errors.New("cannot adopt own pet")

	// ErrInvalidPet is returned when a listing payload is missing required
	// fields (name or species).
	ErrInvalidPet = errors.New("pet name and species are required")
)

// Request-related errors.
var (
	// ErrRequestNotFound indicates that the adoption request does not
	// exist or is not visible to the acting principal. Owners receive the
	// same error for "exists but belongs to someone else's pet" so the
	// existence of other owners' requests is not leaked.
	ErrRequestNotFound = errors.New("adoption request not found")

	// ErrEmptyMessage is returned when a submit carries no message after
	// trimming.
	ErrEmptyMessage = errors.New("message must not be empty")

	// ErrInvalidStatus is returned when a resolution targets a status
	// outside the caller's allowed set.
	ErrInvalidStatus = errors.New("invalid target status")

	// ErrNotPending is returned when an owner attempts to resolve a
	// request that already left PENDING. Terminal states are final for
	// owners; only administrators may overwrite them.
	ErrNotPending = errors.New("only pending requests may be modified")

	// ErrAlreadyPending is returned when the user already has a pending
	// request for the same pet.
	ErrAlreadyPending = errors.New("request already pending for this pet")

	// ErrAlreadyAdopted is returned when the user's previous request for
	// the same pet was accepted.
	ErrAlreadyAdopted = errors.New("pet already adopted by this user")
)
