// Package domain defines the persistence models for pets and adoption
// requests. These types are mapped with GORM and form the core data layer
// of the adoption marketplace.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Role is the authenticated role of an acting user.
type Role string

const (
	// RoleAdopter may submit adoption requests for other users' pets.
	RoleAdopter Role = "ADOPTER"
	// RoleOwner lists pets and resolves requests targeting them.
	RoleOwner Role = "OWNER"
	// RoleAdmin may resolve any request regardless of ownership.
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdopter, RoleOwner, RoleAdmin:
		return true
	}
	return false
}

// RequestStatus is the lifecycle state of an adoption request.
//
// PENDING is the only non-terminal state: once a request is accepted,
// rejected, or cancelled it never re-enters the pending pool (admins may
// still overwrite the stored status, see services.AdoptionService).
type RequestStatus string

const (
	StatusPending   RequestStatus = "PENDING"
	StatusAccepted  RequestStatus = "ACCEPTED"
	StatusRejected  RequestStatus = "REJECTED"
	StatusCancelled RequestStatus = "CANCELLED"
)

// Valid reports whether s is one of the four known statuses.
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Active reports whether s counts toward the one-active-request-per-
// (user, pet) constraint. A user with a pending or accepted request for a
// pet may not open another one.
func (s RequestStatus) Active() bool {
	return s == StatusPending || s == StatusAccepted
}

// ActiveStatuses is the set used by the partial unique index and the
// duplicate-submit queries. Order matters only for readability.
var ActiveStatuses = []RequestStatus{StatusPending, StatusAccepted}

// Pet represents an adoptable animal listed by an owner.
//
// IsAvailable is the shared flag the lifecycle engine guards: it is flipped
// to false exactly once, inside the transaction that accepts a request, and
// no other write path may flip it. Re-listing after a failed adoption is
// out of scope.
type Pet struct {
	ID          string         `json:"id"           gorm:"type:char(36);primaryKey"`
	OwnerID     string         `json:"owner_id"     gorm:"type:varchar(64);not null;index:idx_owner_pets"`
	Name        string         `json:"name"         gorm:"type:varchar(120);not null"`
	Species     string         `json:"species"      gorm:"type:varchar(64);not null"`
	Breed       string         `json:"breed"        gorm:"type:varchar(120)"`
	Description string         `json:"description"  gorm:"type:text"`
	IsAvailable bool           `json:"is_available" gorm:"not null;default:true;index"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-"            gorm:"index"`
}

// TableName returns the database table name for Pet.
func (Pet) TableName() string { return "pets" }

// AdoptionRequest represents one adopter's intent to adopt one pet.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - UserID: the requesting adopter (indexed).
//   - PetID: foreign key to the target pet (indexed).
//   - Status: PENDING | ACCEPTED | REJECTED | CANCELLED.
//   - Message: the adopter's free-text message; overwritten by the
//     resolver's comment when the request is resolved with one.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//
// Uniqueness of the (user_id, pet_id) pair over the active statuses is
// enforced by a partial unique index created in repo.AutoMigrate; GORM tags
// cannot express the WHERE clause.
type AdoptionRequest struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string         `json:"user_id"    gorm:"type:varchar(64);not null;index:idx_user_requests"`
	PetID     string         `json:"pet_id"     gorm:"type:char(36);not null;index:idx_pet_requests,priority:1"`
	Status    RequestStatus  `json:"status"     gorm:"type:varchar(16);not null;default:'PENDING';index:idx_pet_requests,priority:2;check:status IN ('PENDING','ACCEPTED','REJECTED','CANCELLED')"`
	Message   string         `json:"message"    gorm:"type:text;not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`

	// Pet is the target listing, preloaded on resolution responses so
	// callers see the post-transition availability snapshot.
	Pet *Pet `json:"pet,omitempty" gorm:"foreignKey:PetID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for AdoptionRequest.
func (AdoptionRequest) TableName() string { return "adoption_requests" }
