// Package services – PetService
//
// This file implements the PetService, which manages pet listings. Listings
// are plain CRUD: creation and reads live here, while the one mutation with
// lifecycle meaning (flipping is_available) belongs exclusively to the
// AdoptionService transaction and is not exposed from this type.
package services

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/go-adopt-backend/internal/auth"
	"github.com/tbourn/go-adopt-backend/internal/domain"
	"github.com/tbourn/go-adopt-backend/internal/repo"
	"github.com/tbourn/go-adopt-backend/internal/search"
)

// PetService provides listing-level operations: publishing, browsing, and
// keyword search over available pets.
type PetService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB

	// NameMaxLen caps stored display names by rune length.
	NameMaxLen int
	// MaxPageSize caps page_size on list endpoints.
	MaxPageSize int
	// caser title-cases display names for consistent catalogue rendering.
	caser cases.Caser
}

// NewPetService constructs a PetService with sane defaults.
func NewPetService(db *gorm.DB) *PetService {
	return &PetService{
		DB:          db,
		NameMaxLen:  120,
		MaxPageSize: 100,
		caser:       cases.Title(language.English),
	}
}

// Create publishes a new listing owned by principal p. Name and species are
// required; the display name is whitespace-normalized and title-cased.
func (s *PetService) Create(ctx context.Context, p auth.Principal, name, species, breed, description string) (*domain.Pet, error) {
	if err := Authorize(p, ActionCreatePet, Resource{}); err != nil {
		return nil, err
	}
	name = s.normalizeName(name)
	species = strings.TrimSpace(species)
	if name == "" || species == "" {
		return nil, ErrInvalidPet
	}
	return repo.CreatePet(ctx, s.DB, p.ID, name,
		strings.ToLower(species), strings.TrimSpace(breed), strings.TrimSpace(description))
}

// Get returns a single listing by id.
func (s *PetService) Get(ctx context.Context, id string) (*domain.Pet, error) {
	pet, err := repo.GetPet(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrPetNotFound
		}
		return nil, err
	}
	return pet, nil
}

// ListPage returns a page of listings plus the total count. When
// availableOnly is true (the public catalogue default), adopted pets are
// hidden.
func (s *PetService) ListPage(ctx context.Context, availableOnly bool, page, pageSize int) ([]domain.Pet, int64, error) {
	offset, limit := pageWindow(page, pageSize, s.MaxPageSize)

	total, err := repo.CountPets(ctx, s.DB, availableOnly)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Pet{}, 0, nil
	}
	items, err := repo.ListPetsPage(ctx, s.DB, availableOnly, offset, limit)
	return items, total, err
}

// Search ranks available listings against a free-text query and returns at
// most k of them, best match first. An empty query returns no results.
func (s *PetService) Search(ctx context.Context, query string, k int) ([]domain.Pet, error) {
	pets, err := repo.ListAvailablePets(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	docs := make([]search.Document, len(pets))
	for i := range pets {
		docs[i] = search.Document{ID: pets[i].ID, Text: search.PetSummary(
			pets[i].Name, pets[i].Species, pets[i].Breed, pets[i].Description)}
	}
	idx := search.New(docs)

	byID := make(map[string]*domain.Pet, len(pets))
	for i := range pets {
		byID[pets[i].ID] = &pets[i]
	}
	out := make([]domain.Pet, 0, k)
	for _, res := range idx.TopK(query, k) {
		if p, ok := byID[res.ID]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

// normalizeName trims, collapses inner whitespace, title-cases, and clips
// the display name to NameMaxLen runes.
func (s *PetService) normalizeName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return ""
	}
	name = s.caser.String(name)
	r := []rune(name)
	if s.NameMaxLen > 0 && len(r) > s.NameMaxLen {
		return string(r[:s.NameMaxLen])
	}
	return name
}
