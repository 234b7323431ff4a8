package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-adopt-backend/internal/activity"
	"github.com/tbourn/go-adopt-backend/internal/auth"
	"github.com/tbourn/go-adopt-backend/internal/config"
	"github.com/tbourn/go-adopt-backend/internal/domain"
	"github.com/tbourn/go-adopt-backend/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:routerdb_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func testConfig() config.Config {
	return config.Config{
		GinMode:        gin.TestMode,
		APIBasePath:    "/api/v1",
		MaxPageSize:    100,
		RateRPS:        100,
		RateBurst:      100,
		IdempotencyTTL: time.Hour,
		OTEL:           config.OTELConfig{ServiceName: "go-adopt-backend-test"},
	}
}

func newTestEngine(t *testing.T, cfg config.Config) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	sink := activity.NewZerologSink(zerolog.New(io.Discard))
	r := gin.New()
	RegisterRoutes(r, db, auth.HeaderResolver{}, sink, cfg)
	return r, db
}

func TestRouter_Health(t *testing.T) {
	r, _ := newTestEngine(t, testConfig())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("body: %s", w.Body.String())
	}
}

func TestRouter_Metrics(t *testing.T) {
	r, _ := newTestEngine(t, testConfig())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "# HELP") {
		t.Fatalf("metrics exposition missing")
	}
}

func TestRouter_Fallbacks(t *testing.T) {
	r, _ := newTestEngine(t, testConfig())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/no/such/route", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown route: %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"not_found"`) {
		t.Fatalf("body: %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/health", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("wrong method: %d", w.Code)
	}
}

func TestRouter_CORS(t *testing.T) {
	t.Run("allow all by default", func(t *testing.T) {
		r, _ := newTestEngine(t, testConfig())

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://app.example.com")
		r.ServeHTTP(w, req)
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Fatalf("allow-origin = %q; want *", got)
		}
	})

	t.Run("allowlist", func(t *testing.T) {
		cfg := testConfig()
		cfg.CORS.AllowedOrigins = []string{"https://app.example.com"}
		r, _ := newTestEngine(t, cfg)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://app.example.com")
		r.ServeHTTP(w, req)
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
			t.Fatalf("allow-origin = %q", got)
		}

		w = httptest.NewRecorder()
		req = httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusForbidden {
			t.Fatalf("disallowed origin: %d", w.Code)
		}
	})
}

func TestRouter_RootBasePath(t *testing.T) {
	cfg := testConfig()
	cfg.APIBasePath = "/"
	r, _ := newTestEngine(t, cfg)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/pets", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d (body=%s)", w.Code, w.Body.String())
	}
}

// Full round trip through the real stack: submit, accept, observe the
// availability flip.
func TestRouter_SubmitAndAcceptEndToEnd(t *testing.T) {
	r, db := newTestEngine(t, testConfig())
	ctx := context.Background()

	pet, err := repo.CreatePet(ctx, db, "owner-1", "Luna", "dog", "collie", "sweet")
	if err != nil {
		t.Fatalf("seed pet: %v", err)
	}

	// Adopter submits.
	w := httptest.NewRecorder()
	body := fmt.Sprintf(`{"pet_id":%q,"message":"we have a garden"}`, pet.ID)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/adoptions", bytes.NewBufferString(body))
	req.Header.Set(auth.HeaderUserID, "adopter-1")
	req.Header.Set(auth.HeaderUserRole, "ADOPTER")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("submit: %d (body=%s)", w.Code, w.Body.String())
	}
	var submitted domain.AdoptionRequest
	if err := json.Unmarshal(w.Body.Bytes(), &submitted); err != nil {
		t.Fatalf("json: %v", err)
	}
	if submitted.Status != domain.StatusPending {
		t.Fatalf("status = %q", submitted.Status)
	}

	// Owner accepts.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/api/v1/adoptions/"+submitted.ID+"/status",
		bytes.NewBufferString(`{"status":"ACCEPTED"}`))
	req.Header.Set(auth.HeaderUserID, "owner-1")
	req.Header.Set(auth.HeaderUserRole, "OWNER")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("accept: %d (body=%s)", w.Code, w.Body.String())
	}

	// The pet is consumed.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/pets/"+pet.ID, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("get pet: %d", w.Code)
	}
	var got domain.Pet
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("json: %v", err)
	}
	if got.IsAvailable {
		t.Fatalf("pet still available after acceptance")
	}
}

func TestRouter_SubmitReplayWithIdempotencyKey(t *testing.T) {
	r, db := newTestEngine(t, testConfig())
	ctx := context.Background()

	pet, err := repo.CreatePet(ctx, db, "owner-1", "Milo", "cat", "", "")
	if err != nil {
		t.Fatalf("seed pet: %v", err)
	}

	post := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		body := fmt.Sprintf(`{"pet_id":%q,"message":"please"}`, pet.ID)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/adoptions", bytes.NewBufferString(body))
		req.Header.Set(auth.HeaderUserID, "adopter-1")
		req.Header.Set(auth.HeaderUserRole, "ADOPTER")
		req.Header.Set("Idempotency-Key", "submit-milo-1")
		r.ServeHTTP(w, req)
		return w
	}

	first := post()
	if first.Code != http.StatusOK {
		t.Fatalf("first submit: %d (body=%s)", first.Code, first.Body.String())
	}
	var a domain.AdoptionRequest
	if err := json.Unmarshal(first.Body.Bytes(), &a); err != nil {
		t.Fatalf("json: %v", err)
	}

	second := post()
	if second.Code != http.StatusOK {
		t.Fatalf("retry: %d (body=%s)", second.Code, second.Body.String())
	}
	if second.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatalf("retry not replayed")
	}
	var b domain.AdoptionRequest
	if err := json.Unmarshal(second.Body.Bytes(), &b); err != nil {
		t.Fatalf("json: %v", err)
	}
	if b.ID != a.ID {
		t.Fatalf("replay returned a different request: %q vs %q", b.ID, a.ID)
	}
}
