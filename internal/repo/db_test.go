package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-adopt-backend/internal/domain"
)

// newTestDB opens an isolated in-memory database with the full schema,
// including the partial unique index from AutoMigrate.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repodb_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestOpenSQLite_CreatesAndMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adopt_test.db")

	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	// Schema is usable end to end.
	pet, err := CreatePet(context.Background(), db, "o1", "Luna", "dog", "", "")
	if err != nil {
		t.Fatalf("CreatePet on file db: %v", err)
	}
	if got, err := GetPet(context.Background(), db, pet.ID); err != nil || got.Name != "Luna" {
		t.Fatalf("GetPet: %v / %+v", err, got)
	}
}

func TestOpenSQLite_MissingParentDir(t *testing.T) {
	_, err := OpenSQLite(filepath.Join(t.TempDir(), "no-such-dir", "x.db"))
	if err == nil {
		t.Fatalf("expected error for missing parent directory")
	}
}

func TestAutoMigrate_PartialUniqueIndex(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	pet, err := CreatePet(ctx, db, "owner", "Rex", "dog", "", "")
	if err != nil {
		t.Fatalf("seed pet: %v", err)
	}

	// First active request for (u1, pet): fine.
	if _, err := CreateRequest(ctx, db, "u1", pet.ID, "hi"); err != nil {
		t.Fatalf("first CreateRequest: %v", err)
	}
	// Second active request for the same pair: blocked by the index.
	if _, err := CreateRequest(ctx, db, "u1", pet.ID, "again"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	// A terminal request does not occupy the slot: reject the first, then a
	// fresh active one must be allowed.
	var first domain.AdoptionRequest
	if err := db.Where("user_id = ? AND pet_id = ?", "u1", pet.ID).First(&first).Error; err != nil {
		t.Fatalf("load first: %v", err)
	}
	if err := UpdateRequestStatus(ctx, db, first.ID, domain.StatusRejected, nil); err != nil {
		t.Fatalf("reject first: %v", err)
	}
	if _, err := CreateRequest(ctx, db, "u1", pet.ID, "third time lucky"); err != nil {
		t.Fatalf("CreateRequest after terminal: %v", err)
	}
}

func Test_isUniqueViolation(t *testing.T) {
	if !isUniqueViolation(gorm.ErrDuplicatedKey) {
		t.Fatalf("gorm.ErrDuplicatedKey not detected")
	}
	if !isUniqueViolation(errors.New("UNIQUE constraint failed: adoption_requests.user_id")) {
		t.Fatalf("sqlite unique message not detected")
	}
	if !isUniqueViolation(errors.New("constraint failed: UNIQUE constraint failed (2067)")) {
		t.Fatalf("glebarez unique message not detected")
	}
	if isUniqueViolation(errors.New("no such table: pets")) {
		t.Fatalf("unrelated error misclassified")
	}
}
