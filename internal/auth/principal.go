// Package auth resolves the acting principal for each request. The actual
// authentication system (session issuance, token verification) lives outside
// this service; this package only defines the resolver port and a
// header-based adapter suitable for deployments where an upstream gateway
// has already authenticated the caller.
package auth

import (
	"net/http"
	"strings"

	"github.com/tbourn/go-adopt-backend/internal/domain"
)

// Principal is the authenticated identity acting on a request.
type Principal struct {
	ID   string
	Role domain.Role
}

// Resolver yields the authenticated principal for an inbound request, or
// ok=false when the request carries no usable identity. Implementations
// must not write to the response; denial is handled by the handlers.
type Resolver interface {
	Resolve(r *http.Request) (Principal, bool)
}

// Header names trusted from the upstream authenticator.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

// HeaderResolver reads the principal from X-User-ID / X-User-Role headers.
// A missing or blank user id, or an unknown role, resolves to nothing.
type HeaderResolver struct {
	// DefaultRole is assumed when X-User-Role is absent but X-User-ID is
	// present. Zero value means "no default": both headers are required.
	DefaultRole domain.Role
}

// Resolve implements Resolver.
func (h HeaderResolver) Resolve(r *http.Request) (Principal, bool) {
	id := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if id == "" {
		return Principal{}, false
	}
	role := domain.Role(strings.ToUpper(strings.TrimSpace(r.Header.Get(HeaderUserRole))))
	if role == "" {
		role = h.DefaultRole
	}
	if !role.Valid() {
		return Principal{}, false
	}
	return Principal{ID: id, Role: role}, true
}
