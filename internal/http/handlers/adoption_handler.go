// Adoption HTTP handlers.
//
// This file exposes the REST endpoints for the adoption-request lifecycle:
//   - POST /adoptions                     (submit a request)
//   - GET  /adoptions                     (list own requests)
//   - GET  /adoptions/:id                 (fetch one of own requests)
//   - GET  /adoptions/stats               (per-status counts)
//   - PUT  /adoptions/:id/status         (owner resolution)
//   - PUT  /admin/adoptions/:id/status   (administrative resolution)
//   - GET  /pets/:id/adoptions           (requests targeting a pet)
//
// Handlers are transport-thin: they validate input, delegate to the
// lifecycle engine, and map service errors onto the HTTP taxonomy.
// Conflicts caused by races (pet consumed by a concurrent acceptance,
// duplicate submit) surface as 409 and are benign from the server's point
// of view.
package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-adopt-backend/internal/domain"
	"github.com/tbourn/go-adopt-backend/internal/http/middleware"
	"github.com/tbourn/go-adopt-backend/internal/services"
	"github.com/tbourn/go-adopt-backend/internal/utils"
)

// SubmitAdoptionRequest is the JSON payload for submitting a request.
type SubmitAdoptionRequest struct {
	// PetID is the target listing (UUID).
	PetID string `json:"pet_id" binding:"required" example:"fa4dfbe0-c3bf-47bd-b32f-d7de221cf43b"`
	// Message is the adopter's note to the owner; must be non-empty.
	Message string `json:"message" binding:"required" example:"We have a big garden and two kids who adore dogs."`
}

// ResolveAdoptionRequest is the JSON payload for resolving a request.
type ResolveAdoptionRequest struct {
	// Status is the target status. Owners may set ACCEPTED or REJECTED;
	// administrators may set any of the four statuses.
	Status string `json:"status" binding:"required" example:"ACCEPTED"`
	// Comment optionally replaces the request message with the resolver's note.
	Comment *string `json:"comment,omitempty" example:"Come by on Saturday!"`
}

// ListResponse is the standard paginated collection envelope.
type ListResponse struct {
	Items    any   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

// SubmitAdoption godoc
// @ID          submitAdoption
// @Summary     Submit an adoption request
// @Description Creates a PENDING adoption request for an available pet. Supports
// @Description safe retries via the Idempotency-Key header.
// @Tags        Adoptions
// @Accept      json
// @Produce     json
// @Param       X-User-ID    header  string true  "Acting user"
// @Param       X-User-Role  header  string true  "Acting role" Enums(ADOPTER, OWNER, ADMIN)
// @Param       body         body    handlers.SubmitAdoptionRequest true "Submit payload"
// @Success     200 {object} domain.AdoptionRequest
// @Failure     400 {object} handlers.ErrorResponse "Empty message"
// @Failure     401 {object} handlers.ErrorResponse "Not authenticated"
// @Failure     403 {object} handlers.ErrorResponse "Administrators cannot adopt"
// @Failure     404 {object} handlers.ErrorResponse "Pet not found"
// @Failure     409 {object} handlers.ErrorResponse "Unavailable, own pet, or duplicate request"
// @Router      /adoptions [post]
func (h *Handlers) SubmitAdoption(c *gin.Context) {
	p, okP := principal(c)
	if !okP {
		return
	}
	var req SubmitAdoptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "pet_id and message are required")
		return
	}

	// Serve a stored replay when the client retries with the same key.
	key, hasKey := middleware.GetIdempotencyKey(c)
	if hasKey && h.idem != nil && middleware.IsReplay(c) {
		if rec, err := h.idem.Get(c.Request.Context(), p.ID, key, time.Now().UTC()); err == nil && rec != nil {
			if prev, err := h.adoptions.Get(c.Request.Context(), p, rec.RequestID); err == nil {
				c.Header("Idempotency-Replayed", "true")
				ok(c, rec.Status, prev)
				return
			}
		}
	}

	out, err := h.adoptions.Submit(c.Request.Context(), p, req.PetID, req.Message)
	if err != nil {
		h.failSubmit(c, err)
		return
	}

	if hasKey && h.idem != nil {
		// Best effort: a failed replay record must not fail the submit.
		_ = h.idem.Put(c.Request.Context(), p.ID, req.PetID, key, out.ID, http.StatusOK, h.idemTTL)
	}
	middleware.ObserveAdoptionOutcome("submitted")
	ok(c, http.StatusOK, out)
}

// failSubmit maps submit errors onto the HTTP taxonomy.
func (h *Handlers) failSubmit(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrForbidden):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "administrators cannot adopt")
	case errors.Is(err, services.ErrEmptyMessage):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, services.ErrEmptyMessage.Error())
	case errors.Is(err, services.ErrPetNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, services.ErrPetNotFound.Error())
	case errors.Is(err, services.ErrPetUnavailable):
		middleware.ObserveAdoptionOutcome("conflict")
		fail(c, http.StatusConflict, ErrCodeConflict, "pet is no longer available")
	case errors.Is(err, services.ErrOwnPet):
		fail(c, http.StatusConflict, ErrCodeConflict, services.ErrOwnPet.Error())
	case errors.Is(err, services.ErrAlreadyAdopted):
		fail(c, http.StatusConflict, ErrCodeConflict, "already adopted")
	case errors.Is(err, services.ErrAlreadyPending):
		fail(c, http.StatusConflict, ErrCodeConflict, "already pending")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeSubmitFailed, err.Error())
	}
}

// ResolveAdoption godoc
// @ID          resolveAdoption
// @Summary     Resolve an adoption request (owner)
// @Description Accepts or rejects a PENDING request targeting one of the caller's
// @Description pets. Acceptance marks the pet unavailable and auto-rejects every
// @Description other pending request for it in the same transaction.
// @Tags        Adoptions
// @Accept      json
// @Produce     json
// @Param       X-User-ID    header  string true "Acting user"
// @Param       X-User-Role  header  string true "Acting role" Enums(OWNER)
// @Param       id           path    string true "Request ID (UUID)" format(uuid)
// @Param       body         body    handlers.ResolveAdoptionRequest true "Resolution payload"
// @Success     200 {object} domain.AdoptionRequest
// @Failure     400 {object} handlers.ErrorResponse "Bad status or request not pending"
// @Failure     401 {object} handlers.ErrorResponse "Not authenticated"
// @Failure     403 {object} handlers.ErrorResponse "Caller is not an owner"
// @Failure     404 {object} handlers.ErrorResponse "Unknown request or not the caller's pet"
// @Failure     409 {object} handlers.ErrorResponse "Pet already consumed by another acceptance"
// @Router      /adoptions/{id}/status [put]
func (h *Handlers) ResolveAdoption(c *gin.Context) {
	h.resolve(c, false)
}

// ResolveAdoptionAdmin godoc
// @ID          resolveAdoptionAdmin
// @Summary     Resolve an adoption request (admin)
// @Description Administrative override: resolves any request to any status,
// @Description including re-resolving terminal ones. Acceptance cascades exactly
// @Description as the owner path does.
// @Tags        Adoptions
// @Accept      json
// @Produce     json
// @Param       X-User-ID    header  string true "Acting user"
// @Param       X-User-Role  header  string true "Acting role" Enums(ADMIN)
// @Param       id           path    string true "Request ID (UUID)" format(uuid)
// @Param       body         body    handlers.ResolveAdoptionRequest true "Resolution payload"
// @Success     200 {object} domain.AdoptionRequest
// @Failure     400 {object} handlers.ErrorResponse "Invalid target status"
// @Failure     401 {object} handlers.ErrorResponse "Not authenticated"
// @Failure     403 {object} handlers.ErrorResponse "Caller is not an administrator"
// @Failure     404 {object} handlers.ErrorResponse "Unknown request"
// @Failure     409 {object} handlers.ErrorResponse "Pet already consumed by another acceptance"
// @Router      /admin/adoptions/{id}/status [put]
func (h *Handlers) ResolveAdoptionAdmin(c *gin.Context) {
	h.resolve(c, true)
}

// resolve implements both resolution endpoints; admin selects the broader
// status set and skips the ownership scope inside the engine.
func (h *Handlers) resolve(c *gin.Context, admin bool) {
	p, okP := principal(c)
	if !okP {
		return
	}
	var req ResolveAdoptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status is required")
		return
	}
	target := domain.RequestStatus(req.Status)
	id := c.Param("id")

	var (
		out *domain.AdoptionRequest
		err error
	)
	if admin {
		out, err = h.adoptions.ResolveAsAdmin(c.Request.Context(), p, id, target, req.Comment)
	} else {
		out, err = h.adoptions.ResolveAsOwner(c.Request.Context(), p, id, target, req.Comment)
	}
	if err != nil {
		switch {
		case errors.Is(err, services.ErrForbidden):
			fail(c, http.StatusForbidden, ErrCodeForbidden, services.ErrForbidden.Error())
		case errors.Is(err, services.ErrInvalidStatus):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, services.ErrInvalidStatus.Error())
		case errors.Is(err, services.ErrRequestNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, services.ErrRequestNotFound.Error())
		case errors.Is(err, services.ErrNotPending):
			fail(c, http.StatusBadRequest, ErrCodeInvalidState, services.ErrNotPending.Error())
		case errors.Is(err, services.ErrPetUnavailable):
			middleware.ObserveAdoptionOutcome("conflict")
			fail(c, http.StatusConflict, ErrCodeConflict, "pet is no longer available")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeResolveFailed, err.Error())
		}
		return
	}
	middleware.ObserveAdoptionOutcome(strings.ToLower(string(target)))
	ok(c, http.StatusOK, out)
}

// GetAdoption godoc
// @ID          getAdoption
// @Summary     Fetch one of the caller's adoption requests
// @Tags        Adoptions
// @Produce     json
// @Param       X-User-ID   header string true "Acting user"
// @Param       X-User-Role header string true "Acting role"
// @Param       id          path   string true "Request ID (UUID)" format(uuid)
// @Success     200 {object} domain.AdoptionRequest
// @Failure     401 {object} handlers.ErrorResponse
// @Failure     404 {object} handlers.ErrorResponse
// @Router      /adoptions/{id} [get]
func (h *Handlers) GetAdoption(c *gin.Context) {
	p, okP := principal(c)
	if !okP {
		return
	}
	out, err := h.adoptions.Get(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrRequestNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, services.ErrRequestNotFound.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, out)
}

// ListAdoptions godoc
// @ID          listAdoptions
// @Summary     List the caller's adoption requests
// @Description Paginated, newest first, optionally filtered by status.
// @Tags        Adoptions
// @Produce     json
// @Param       X-User-ID   header string true  "Acting user"
// @Param       X-User-Role header string true  "Acting role"
// @Param       status      query  string false "Filter by status" Enums(PENDING, ACCEPTED, REJECTED, CANCELLED)
// @Param       page        query  int    false "Page (1-based)"
// @Param       page_size   query  int    false "Page size"
// @Success     200 {object} handlers.ListResponse
// @Failure     400 {object} handlers.ErrorResponse "Unknown status filter"
// @Failure     401 {object} handlers.ErrorResponse
// @Router      /adoptions [get]
func (h *Handlers) ListAdoptions(c *gin.Context) {
	p, okP := principal(c)
	if !okP {
		return
	}
	var status *domain.RequestStatus
	if raw := c.Query("status"); raw != "" {
		st := domain.RequestStatus(raw)
		status = &st
	}
	page := utils.AtoiDefault(c.Query("page"), 1)
	pageSize := utils.AtoiDefault(c.Query("page_size"), 20)

	items, total, err := h.adoptions.ListMine(c.Request.Context(), p, status, page, pageSize)
	if err != nil {
		if errors.Is(err, services.ErrInvalidStatus) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, services.ErrInvalidStatus.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListResponse{Items: items, Total: total, Page: page, PageSize: pageSize})
}

// ListPetAdoptions godoc
// @ID          listPetAdoptions
// @Summary     List the requests targeting a pet
// @Description Visible to the pet's owner and to administrators only.
// @Tags        Adoptions
// @Produce     json
// @Param       X-User-ID   header string true "Acting user"
// @Param       X-User-Role header string true "Acting role" Enums(OWNER, ADMIN)
// @Param       id          path   string true "Pet ID (UUID)" format(uuid)
// @Success     200 {array}  domain.AdoptionRequest
// @Failure     401 {object} handlers.ErrorResponse
// @Failure     403 {object} handlers.ErrorResponse "Not the pet's owner"
// @Failure     404 {object} handlers.ErrorResponse "Pet not found"
// @Router      /pets/{id}/adoptions [get]
func (h *Handlers) ListPetAdoptions(c *gin.Context) {
	p, okP := principal(c)
	if !okP {
		return
	}
	items, err := h.adoptions.ListForPet(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPetNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, services.ErrPetNotFound.Error())
		case errors.Is(err, services.ErrForbidden):
			fail(c, http.StatusForbidden, ErrCodeForbidden, services.ErrForbidden.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, items)
}

// AdoptionStats godoc
// @ID          adoptionStats
// @Summary     Per-status request counts for the caller
// @Description Owners see requests targeting their pets; adopters see the
// @Description requests they submitted.
// @Tags        Adoptions
// @Produce     json
// @Param       X-User-ID   header string true "Acting user"
// @Param       X-User-Role header string true "Acting role"
// @Success     200 {object} map[string]int64
// @Failure     401 {object} handlers.ErrorResponse
// @Router      /adoptions/stats [get]
func (h *Handlers) AdoptionStats(c *gin.Context) {
	p, okP := principal(c)
	if !okP {
		return
	}
	counts, err := h.adoptions.Stats(c.Request.Context(), p)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, counts)
}
