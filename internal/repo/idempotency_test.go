package repo

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestIdempotency_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	rec, err := CreateIdempotency(ctx, db, "u1", "p1", "key-1", "r1", 200, time.Hour)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.ID == "" || rec.ExpiresAt.Before(now) {
		t.Fatalf("bad record: %+v", rec)
	}

	got, err := GetIdempotency(ctx, db, "u1", "key-1", now)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.RequestID != "r1" || got.Status != 200 || got.PetID != "p1" {
		t.Fatalf("unexpected record: %+v", got)
	}

	// Another user's identical key is a different slot.
	if _, err := GetIdempotency(ctx, db, "u2", "key-1", now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other user, got %v", err)
	}
}

func TestIdempotency_BlankKey(t *testing.T) {
	db := newTestDB(t)
	if _, err := GetIdempotency(context.Background(), db, "u1", "  ", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for blank key, got %v", err)
	}
}

func TestIdempotency_Expired(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := CreateIdempotency(ctx, db, "u1", "p1", "short", "r1", 200, time.Millisecond); err != nil {
		t.Fatalf("create: %v", err)
	}
	later := time.Now().UTC().Add(time.Second)
	if _, err := GetIdempotency(ctx, db, "u1", "short", later); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for expired record, got %v", err)
	}
}

func TestIdempotency_DuplicateKey(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := CreateIdempotency(ctx, db, "u1", "p1", "dup", "r1", 200, time.Hour); err != nil {
		t.Fatalf("first create: %v", err)
	}
	// Same (user, key), even for a different pet: the key is burned.
	_, err := CreateIdempotency(ctx, db, "u1", "p2", "dup", "r2", 200, time.Hour)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestPurgeExpiredIdempotency(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := CreateIdempotency(ctx, db, "u1", "p1", "old", "r1", 200, time.Millisecond); err != nil {
		t.Fatalf("create old: %v", err)
	}
	if _, err := CreateIdempotency(ctx, db, "u1", "p1", "fresh", "r2", 200, time.Hour); err != nil {
		t.Fatalf("create fresh: %v", err)
	}

	n, err := PurgeExpiredIdempotency(ctx, db, time.Now().UTC().Add(time.Second))
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 1 {
		t.Fatalf("purged %d rows; want 1", n)
	}
	if _, err := GetIdempotency(ctx, db, "u1", "fresh", time.Now().UTC()); err != nil {
		t.Fatalf("fresh record must survive: %v", err)
	}
}
