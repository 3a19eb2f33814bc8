package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// captureLogs swaps the global logger for a buffer for the test's duration.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func redactRouter(opts RedactOptions) *gin.Engine {
	r := gin.New()
	r.Use(RedactingLogger(opts))
	r.POST("/hook", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRedactingLogger_MasksSensitiveHeaders(t *testing.T) {
	buf := captureLogs(t)
	r := redactRouter(RedactOptions{MaskHeaders: []string{"X-Api-Key"}})

	req := httptest.NewRequest(http.MethodPost, "/hook", nil)
	req.Header.Set("X-Shopify-Hmac-Sha256", "c2lnbmF0dXJl")
	req.Header.Set("Authorization", "Bearer secret-token")
	req.Header.Set("X-Api-Key", "k-12345")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	out := buf.String()
	for _, leaked := range []string{"c2lnbmF0dXJl", "secret-token", "k-12345"} {
		if strings.Contains(out, leaked) {
			t.Fatalf("sensitive value %q leaked: %s", leaked, out)
		}
	}
	if !strings.Contains(out, "[REDACTED]") {
		t.Fatalf("no masking applied: %s", out)
	}
}

func TestRedactingLogger_ScrubsQueryPII(t *testing.T) {
	buf := captureLogs(t)
	r := redactRouter(RedactOptions{})

	req := httptest.NewRequest(http.MethodPost, "/hook?email=jane@example.com&ref=0b9fb1c2-49a4-4a4b-8f69-1f0f2e4f2a11", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	out := buf.String()
	if strings.Contains(out, "jane@example.com") {
		t.Fatalf("email leaked: %s", out)
	}
	if strings.Contains(out, "0b9fb1c2-49a4-4a4b-8f69-1f0f2e4f2a11") {
		t.Fatalf("uuid leaked: %s", out)
	}
	if !strings.Contains(out, "[REDACTED:email]") || !strings.Contains(out, "[REDACTED:id]") {
		t.Fatalf("placeholders missing: %s", out)
	}
}

func TestRedactingLogger_LevelFollowsStatus(t *testing.T) {
	buf := captureLogs(t)
	r := gin.New()
	r.Use(RedactingLogger(RedactOptions{}))
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	if !strings.Contains(buf.String(), `"level":"warn"`) {
		t.Fatalf("4xx not logged at warn: %s", buf.String())
	}
}
