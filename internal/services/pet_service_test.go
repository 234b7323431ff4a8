package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tbourn/go-adopt-backend/internal/repo"
)

func TestPetCreate_Normalization(t *testing.T) {
	db := newTestDB(t)
	svc := NewPetService(db)
	owner := ownerOf("owner-1")

	pet, err := svc.Create(context.Background(), owner, "  luna   belle ", " DOG ", " border collie ", " sweet ")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if pet.Name != "Luna Belle" {
		t.Fatalf("name = %q; want title-cased and collapsed", pet.Name)
	}
	if pet.Species != "dog" {
		t.Fatalf("species = %q; want lowercased", pet.Species)
	}
	if pet.Breed != "border collie" || pet.Description != "sweet" {
		t.Fatalf("breed/description not trimmed: %q / %q", pet.Breed, pet.Description)
	}
	if pet.OwnerID != owner.ID || !pet.IsAvailable {
		t.Fatalf("unexpected listing: %+v", pet)
	}
}

func TestPetCreate_NameClipped(t *testing.T) {
	db := newTestDB(t)
	svc := NewPetService(db)
	svc.NameMaxLen = 5

	pet, err := svc.Create(context.Background(), ownerOf("o"), "abcdefghij", "dog", "", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len([]rune(pet.Name)) != 5 {
		t.Fatalf("name not clipped: %q", pet.Name)
	}
}

func TestPetCreate_Errors(t *testing.T) {
	db := newTestDB(t)
	svc := NewPetService(db)
	ctx := context.Background()

	if _, err := svc.Create(ctx, adopter, "Luna", "dog", "", ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("adopter creating listing: %v", err)
	}
	if _, err := svc.Create(ctx, admin, "Luna", "dog", "", ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("admin creating listing: %v", err)
	}
	if _, err := svc.Create(ctx, ownerOf("o"), "   ", "dog", "", ""); !errors.Is(err, ErrInvalidPet) {
		t.Fatalf("blank name: %v", err)
	}
	if _, err := svc.Create(ctx, ownerOf("o"), "Luna", "  ", "", ""); !errors.Is(err, ErrInvalidPet) {
		t.Fatalf("blank species: %v", err)
	}
}

func TestPetGet(t *testing.T) {
	db := newTestDB(t)
	svc := NewPetService(db)
	pet := seedPet(t, db, "o1", "Luna")

	got, err := svc.Get(context.Background(), pet.ID)
	if err != nil || got.ID != pet.ID {
		t.Fatalf("Get: %+v, %v", got, err)
	}
	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, ErrPetNotFound) {
		t.Fatalf("expected ErrPetNotFound, got %v", err)
	}
}

func TestPetListPage(t *testing.T) {
	db := newTestDB(t)
	svc := NewPetService(db)
	ctx := context.Background()

	a := seedPet(t, db, "o1", "A")
	seedPet(t, db, "o1", "B")
	if _, err := repo.MarkPetUnavailable(ctx, db, a.ID); err != nil {
		t.Fatalf("flip: %v", err)
	}

	items, total, err := svc.ListPage(ctx, true, 1, 10)
	if err != nil || total != 1 || len(items) != 1 || items[0].Name != "B" {
		t.Fatalf("available page: %+v/%d, %v", items, total, err)
	}
	items, total, err = svc.ListPage(ctx, false, 1, 10)
	if err != nil || total != 2 || len(items) != 2 {
		t.Fatalf("full page: %d/%d, %v", len(items), total, err)
	}
	// Beyond the last page: total stays, items empty.
	items, total, err = svc.ListPage(ctx, false, 5, 10)
	if err != nil || total != 2 || len(items) != 0 {
		t.Fatalf("far page: %d/%d, %v", len(items), total, err)
	}
}

func TestPetSearch(t *testing.T) {
	db := newTestDB(t)
	svc := NewPetService(db)
	ctx := context.Background()
	owner := ownerOf("o1")

	if _, err := svc.Create(ctx, owner, "Luna", "dog", "border collie", "loves herding and long walks"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := svc.Create(ctx, owner, "Milo", "cat", "siamese", "quiet indoor cat"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	adopted, err := svc.Create(ctx, owner, "Ghost", "dog", "husky", "retired sled dog")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := repo.MarkPetUnavailable(ctx, db, adopted.ID); err != nil {
		t.Fatalf("flip: %v", err)
	}

	out, err := svc.Search(ctx, "border collie dog", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(out) == 0 || out[0].Name != "Luna" {
		t.Fatalf("expected Luna first, got %+v", out)
	}
	for _, p := range out {
		if strings.EqualFold(p.Name, "Ghost") {
			t.Fatalf("adopted pet surfaced in search")
		}
	}

	// Unmatched and empty queries return nothing.
	if out, err := svc.Search(ctx, "zebra", 10); err != nil || len(out) != 0 {
		t.Fatalf("unmatched: %+v, %v", out, err)
	}
	if out, err := svc.Search(ctx, "   ", 10); err != nil || len(out) != 0 {
		t.Fatalf("empty query: %+v, %v", out, err)
	}
}
