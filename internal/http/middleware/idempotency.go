// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotency support for unsafe dashboard methods
// (e.g., POST /api/ecommerce/inventory-alerts). It validates an
// Idempotency-Key request header, optionally performs a lookup to detect
// previously completed requests, and annotates the request context so
// downstream handlers can:
//   - read the normalized key (GetIdempotencyKey)
//   - detect replayed requests (IsReplay)
//   - bypass rate limiting when a replay is served (via an internal flag)
//
// This is the operator-facing counterpart to the webhook pipeline's
// dedupe-by-webhook-id: webhook deliveries are deduplicated inside the
// service, dashboard mutations are deduplicated here at the transport edge.
//
// Design goals:
//   - Keep transport concerns (validation, context stashing) in middleware.
//   - Decouple persistence via a narrow IdempotencyLookup function type.
//   - Remain framework-agnostic beyond Gin's context.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the canonical request header that clients use to
// convey an idempotency key for unsafe operations (e.g., POST).
//
// The value is expected to be stable for a given semantic operation so that
// retries (network, client, or server initiated) can be safely deduplicated.
const HeaderIdempotencyKey = "Idempotency-Key"

// Context keys used internally to stash idempotency state.
// These keys are intentionally unexported and referenced via accessor helpers.
const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay" // bool: true when a stored replay exists
	ctxKeyRateBypass = "rate.bypass" // bool: true to skip rate limiting
)

// defaultKeyPattern is a conservative RFC7230-like token pattern.
var defaultKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the validated idempotency key stored in the Gin
// context by IdempotencyValidator. The second return value indicates presence.
//
// Handlers should prefer this function over reading the header directly.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether the middleware detected that this request would
// replay a previously completed operation (based on the provided scope/key).
//
// When true, handlers should short-circuit and re-serve the previously
// persisted result instead of repeating the mutation.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// IdempotencyOptions configures header validation behavior for
// IdempotencyValidator. TTL enforcement is intentionally out of scope here and
// should be implemented inside the provided lookup function.
type IdempotencyOptions struct {
	// Scope namespaces keys per operation (e.g. "alerts:create") so the same
	// client key cannot collide across unrelated endpoints.
	Scope string
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters. If nil, a conservative RFC7230-like
	// token pattern is used: ^[A-Za-z0-9._~\-:]+$
	Pattern *regexp.Regexp
}

// IdempotencyLookup answers whether a successful, still-valid result exists
// for (userID, scope, key) at the given time. Implementations typically
// consult a database record containing the previous resource ID and TTL
// window.
//
// Return exists=true when the prior response can be replayed; return an error
// only for lookup failures (which should not block normal processing).
type IdempotencyLookup func(ctx context.Context, userID, scope, key string, now time.Time) (exists bool, err error)

// IdempotencyValidator validates the Idempotency-Key header (if present),
// stashes it in the request context, and optionally checks for a prior
// completed request via the supplied lookup. When a replay is detected, it
// marks the context so downstream components can:
//   - detect replay via IsReplay
//   - bypass rate limiting (internal flag checked by RateLimiter.Handler)
//
// Behavior:
//   - Requests without the header pass through untouched; the header is
//     optional and its absence simply disables dedup for that request.
//   - A present but malformed key (too long, bad characters) is rejected with
//     400 before the handler runs.
//   - Lookup failures are logged by the caller's recovery path and treated as
//     "no replay": a retried mutation is better than a refused one.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pattern := opts.Pattern
	if pattern == nil {
		pattern = defaultKeyPattern
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}

		if len(key) > maxLen || !pattern.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get("X-Request-ID"),
				"code":       "invalid_idempotency_key",
				"message":    "Idempotency-Key header is malformed",
			})
			return
		}

		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			exists, err := lookup(c.Request.Context(), userIDFromCtx(c), opts.Scope, key, time.Now().UTC())
			if err == nil && exists {
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
			}
		}

		c.Next()
	}
}

// userIDFromCtx resolves the operator identity the same way handlers do:
// upstream auth middleware first, the X-User-ID header next, and finally the
// shared "dashboard" identity. Lookup and storage must agree on this value
// or replays are never detected.
func userIDFromCtx(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "dashboard"
}
