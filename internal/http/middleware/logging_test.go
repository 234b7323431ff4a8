package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// captureLogs swaps the global logger for the duration of the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func TestRequestID_Generates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		if rid, _ := c.Get(requestIDKey); rid == "" {
			t.Fatalf("request id missing from context")
		}
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Header().Get(requestIDHeader) == "" {
		t.Fatalf("response header not set")
	}
}

func TestRequestID_PropagatesIncoming(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "client-rid")
	r.ServeHTTP(w, req)
	if got := w.Header().Get(requestIDHeader); got != "client-rid" {
		t.Fatalf("request id = %q; want client-rid", got)
	}
}

func TestLogger_AccessLogFields(t *testing.T) {
	buf := captureLogs(t)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Logger(LogOptions{MaskHeaders: []string{"Authorization"}}))
	r.GET("/pets/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/pets/p-1?page=2", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	r.ServeHTTP(w, req)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line not JSON: %v (%s)", err, buf.String())
	}
	if line["method"] != "GET" || line["path"] != "/pets/:id" {
		t.Fatalf("route fields: %v", line)
	}
	if line["status"] != float64(http.StatusOK) {
		t.Fatalf("status field: %v", line["status"])
	}
	if line["hdr_authorization"] != "[masked]" {
		t.Fatalf("authorization not masked: %v", line)
	}
	if strings.Contains(buf.String(), "secret-token") {
		t.Fatalf("secret leaked into logs")
	}
}

func TestLogger_LevelByOutcome(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{"2xx info", http.StatusOK, "info"},
		{"4xx warn", http.StatusNotFound, "warn"},
		{"5xx error", http.StatusInternalServerError, "error"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			buf := captureLogs(t)

			gin.SetMode(gin.TestMode)
			r := gin.New()
			r.Use(Logger(LogOptions{}))
			r.GET("/", func(c *gin.Context) { c.Status(tc.status) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			var line map[string]any
			if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
				t.Fatalf("log line not JSON: %v", err)
			}
			if line["level"] != tc.wantLevel {
				t.Fatalf("level = %v; want %s", line["level"], tc.wantLevel)
			}
		})
	}
}

func TestRecovery_PanicTo500(t *testing.T) {
	captureLogs(t)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v (%s)", err, w.Body.String())
	}
	if body["code"] != "internal_error" || body["request_id"] == "" {
		t.Fatalf("body: %v", body)
	}
}

func TestLoggerFrom_Fallback(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if LoggerFrom(c) == nil {
		t.Fatalf("fallback logger is nil")
	}
	c.Set("logger", "not-a-logger")
	if LoggerFrom(c) == nil {
		t.Fatalf("mistyped logger must fall back, not crash")
	}
}

func Test_truncate(t *testing.T) {
	if got := truncate("abcdef", 4); got != "abcd…" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("abc", 4); got != "abc" {
		t.Fatalf("short string modified: %q", got)
	}
	if got := truncate("abc", 0); got != "abc" {
		t.Fatalf("max<=0 must disable truncation: %q", got)
	}
}
