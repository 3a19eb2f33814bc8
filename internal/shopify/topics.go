// Package shopify implements the Shopify-facing edge of the webhook
// pipeline: topic parsing, raw-body HMAC signature verification, and
// payload-to-mirror field mapping.
//
// This file handles webhook topic strings. Shopify topics are of the form
// "group/action" (e.g. "orders/create", "products/delete"); the group picks
// the mirrored entity and the action distinguishes upserts from deletes.
package shopify

import (
	"fmt"
	"strings"
)

// Webhook header names used by Shopify on every delivery.
const (
	HeaderTopic      = "X-Shopify-Topic"
	HeaderHmacSHA256 = "X-Shopify-Hmac-Sha256"
	HeaderShopDomain = "X-Shopify-Shop-Domain"
	HeaderWebhookID  = "X-Shopify-Webhook-Id"
	HeaderAPIVersion = "X-Shopify-Api-Version"
)

// Topic groups accepted by the ingestion endpoint.
const (
	GroupProducts    = "products"
	GroupCollections = "collections"
	GroupOrders      = "orders"
	GroupCarts       = "carts"
	GroupCheckouts   = "checkouts"
	GroupCustomers   = "customers"
)

// ErrUnknownTopic is returned when a topic string is malformed or its group
// is not one this pipeline mirrors.
var ErrUnknownTopic = fmt.Errorf("unknown webhook topic")

// knownGroups is the allowlist of topic groups the upserter dispatches on.
var knownGroups = map[string]struct{}{
	GroupProducts:    {},
	GroupCollections: {},
	GroupOrders:      {},
	GroupCarts:       {},
	GroupCheckouts:   {},
	GroupCustomers:   {},
}

// Topic is a parsed "group/action" webhook topic.
type Topic struct {
	Group  string
	Action string
}

// ParseTopic validates and splits a raw topic string. The group must be one
// of the mirrored entity groups; the action is kept verbatim (create, update,
// delete, paid, cancelled, ...) since dispatch only distinguishes deletes.
func ParseTopic(raw string) (Topic, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	group, action, ok := strings.Cut(raw, "/")
	if !ok || group == "" || action == "" {
		return Topic{}, fmt.Errorf("%w: %q", ErrUnknownTopic, raw)
	}
	if _, ok := knownGroups[group]; !ok {
		return Topic{}, fmt.Errorf("%w: %q", ErrUnknownTopic, raw)
	}
	return Topic{Group: group, Action: action}, nil
}

// String reassembles the canonical "group/action" form.
func (t Topic) String() string { return t.Group + "/" + t.Action }

// IsDelete reports whether this topic soft-deletes the mirrored row instead
// of upserting it.
func (t Topic) IsDelete() bool { return t.Action == "delete" }

// KnownGroup reports whether group is a mirrored topic group. The intake
// handler uses it to 404 unknown path segments before any body handling.
func KnownGroup(group string) bool {
	_, ok := knownGroups[strings.ToLower(strings.TrimSpace(group))]
	return ok
}
