// Package shopify implements the Shopify-facing edge of the webhook
// pipeline. This file verifies webhook signatures.
//
// Shopify signs every webhook delivery by computing HMAC-SHA256 over the
// exact raw request body with the shared webhook secret and sending the
// base64-encoded digest in X-Shopify-Hmac-Sha256. Verification therefore
// must run on the raw bytes, before any JSON parsing, and must compare in
// constant time.
package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// ComputeHMAC returns the base64-encoded HMAC-SHA256 digest of body under
// secret, i.e. the value Shopify would place in the signature header.
func ComputeHMAC(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifyHMAC reports whether header is a valid signature for body under
// secret. An empty secret or header always fails: a connection without a
// secret cannot authenticate anything.
func VerifyHMAC(secret string, body []byte, header string) bool {
	header = strings.TrimSpace(header)
	if secret == "" || header == "" {
		return false
	}
	expected := ComputeHMAC(secret, body)
	return hmac.Equal([]byte(expected), []byte(header))
}
