package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestID_GeneratesWhenMissing(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if rid := w.Header().Get(requestIDHeader); rid == "" {
		t.Fatal("no X-Request-ID on response")
	}
}

func TestRequestID_PropagatesIncoming(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	var seen string
	r.GET("/ping", func(c *gin.Context) {
		v, _ := c.Get(requestIDKey)
		seen, _ = v.(string)
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "rid-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Header().Get(requestIDHeader) != "rid-123" || seen != "rid-123" {
		t.Fatalf("request id not propagated: header=%q ctx=%q", w.Header().Get(requestIDHeader), seen)
	}
}

func TestRecovery_PanicBecomesJSON500(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"code":"internal_error"`) {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestLoggerFrom_FallbackWithoutMiddleware(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if LoggerFrom(c) == nil {
		t.Fatal("LoggerFrom returned nil")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 3); got != "abc…" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("abc", 10); got != "abc" {
		t.Fatalf("truncate short = %q", got)
	}
	if got := truncate("abc", 0); got != "abc" {
		t.Fatalf("truncate disabled = %q", got)
	}
}

func TestAsString(t *testing.T) {
	if asString("x") != "x" || asString(42) != "" || asString(nil) != "" {
		t.Fatal("asString conversions wrong")
	}
}
