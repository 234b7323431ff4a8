// Pet HTTP handlers.
//
// This file exposes the REST endpoints for pet listings:
//   - POST /pets      (publish a listing; owners only)
//   - GET  /pets      (browse the catalogue; optional keyword search via q=)
//   - GET  /pets/:id  (fetch one listing)
//
// Listings never change availability through these endpoints; the flag is
// owned by the adoption lifecycle engine.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-adopt-backend/internal/services"
	"github.com/tbourn/go-adopt-backend/internal/sysutil"
	"github.com/tbourn/go-adopt-backend/internal/utils"
)

// CreatePetRequest is the JSON payload for publishing a listing.
type CreatePetRequest struct {
	Name        string `json:"name" binding:"required" example:"Luna"`
	Species     string `json:"species" binding:"required" example:"dog"`
	Breed       string `json:"breed,omitempty" example:"border collie"`
	Description string `json:"description,omitempty" example:"Two years old, great with kids."`
}

// CreatePet godoc
// @ID          createPet
// @Summary     Publish a pet listing
// @Tags        Pets
// @Accept      json
// @Produce     json
// @Param       X-User-ID   header string true "Acting user"
// @Param       X-User-Role header string true "Acting role" Enums(OWNER)
// @Param       body        body   handlers.CreatePetRequest true "Listing payload"
// @Success     201 {object} domain.Pet
// @Failure     400 {object} handlers.ErrorResponse "Missing name or species"
// @Failure     401 {object} handlers.ErrorResponse
// @Failure     403 {object} handlers.ErrorResponse "Caller is not an owner"
// @Router      /pets [post]
func (h *Handlers) CreatePet(c *gin.Context) {
	p, okP := principal(c)
	if !okP {
		return
	}
	var req CreatePetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name and species are required")
		return
	}
	pet, err := h.pets.Create(c.Request.Context(), p, req.Name, req.Species, req.Breed, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrForbidden):
			fail(c, http.StatusForbidden, ErrCodeForbidden, services.ErrForbidden.Error())
		case errors.Is(err, services.ErrInvalidPet):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, services.ErrInvalidPet.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, pet)
}

// ListPets godoc
// @ID          listPets
// @Summary     Browse pet listings
// @Description Paginated catalogue of available pets. With q=, performs keyword
// @Description search over name, species, breed, and description instead.
// @Tags        Pets
// @Produce     json
// @Param       q             query string false "Keyword query"
// @Param       include_adopted query bool false "Include unavailable pets (browse only)"
// @Param       page          query int    false "Page (1-based)"
// @Param       page_size     query int    false "Page size"
// @Success     200 {object} handlers.ListResponse
// @Router      /pets [get]
func (h *Handlers) ListPets(c *gin.Context) {
	page := utils.AtoiDefault(c.Query("page"), 1)
	pageSize := utils.AtoiDefault(c.Query("page_size"), 20)

	if q := c.Query("q"); q != "" {
		items, err := h.pets.Search(c.Request.Context(), q, pageSize)
		if err != nil {
			fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
			return
		}
		ok(c, http.StatusOK, ListResponse{Items: items, Total: int64(len(items)), Page: 1, PageSize: pageSize})
		return
	}

	availableOnly := !sysutil.IsTruthy(c.Query("include_adopted"))
	items, total, err := h.pets.ListPage(c.Request.Context(), availableOnly, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListResponse{Items: items, Total: total, Page: page, PageSize: pageSize})
}

// GetPet godoc
// @ID          getPet
// @Summary     Fetch one pet listing
// @Tags        Pets
// @Produce     json
// @Param       id path string true "Pet ID (UUID)" format(uuid)
// @Success     200 {object} domain.Pet
// @Failure     404 {object} handlers.ErrorResponse
// @Router      /pets/{id} [get]
func (h *Handlers) GetPet(c *gin.Context) {
	pet, err := h.pets.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrPetNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, services.ErrPetNotFound.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, pet)
}
