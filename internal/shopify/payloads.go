// Package shopify implements the Shopify-facing edge of the webhook
// pipeline. This file maps webhook payloads onto the local mirror models.
//
// Mapping is an explicit allowlist, not a passthrough: each DTO below names
// the payload fields the mirror keeps and everything else is dropped at
// decode time. Payloads that lack a usable remote identifier or a parsable
// updated_at are rejected as mapping errors (logged status=error upstream,
// still acked with 200 so Shopify does not retry a permanently malformed
// delivery).
package shopify

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tbourn/go-shopify-backend/internal/domain"
)

// ErrInvalidPayload marks a payload that does not match the expected shape
// for its topic. It wraps all decode and field-validation failures in this
// file.
var ErrInvalidPayload = errors.New("invalid payload")

// nameCaser title-cases customer names for display; Und avoids
// locale-specific casing surprises (e.g. Turkish dotless i).
var nameCaser = cases.Title(language.Und)

// orderPayload is the allowlisted subset of an orders/* webhook body.
type orderPayload struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	TotalPrice        string `json:"total_price"`
	Currency          string `json:"currency"`
	FinancialStatus   string `json:"financial_status"`
	FulfillmentStatus string `json:"fulfillment_status"`
	UpdatedAt         string `json:"updated_at"`
	LineItems         []struct {
		ID int64 `json:"id"`
	} `json:"line_items"`
	Customer struct {
		ID int64 `json:"id"`
	} `json:"customer"`
}

// cartPayload is the allowlisted subset of a carts/* webhook body.
type cartPayload struct {
	Token      string `json:"token"`
	TotalPrice string `json:"total_price"`
	Currency   string `json:"currency"`
	UpdatedAt  string `json:"updated_at"`
	LineItems  []struct {
		ID int64 `json:"id"`
	} `json:"line_items"`
}

// checkoutPayload is the allowlisted subset of a checkouts/* webhook body.
type checkoutPayload struct {
	Token       string  `json:"token"`
	Email       string  `json:"email"`
	TotalPrice  string  `json:"total_price"`
	Currency    string  `json:"currency"`
	AbandonedAt string  `json:"abandoned_checkout_url"`
	CompletedAt *string `json:"completed_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// customerPayload is the allowlisted subset of a customers/* webhook body.
type customerPayload struct {
	ID            int64  `json:"id"`
	Email         string `json:"email"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	OrdersCount   int    `json:"orders_count"`
	TotalSpent    string `json:"total_spent"`
	VerifiedEmail bool   `json:"verified_email"`
	UpdatedAt     string `json:"updated_at"`
}

// productPayload is the allowlisted subset of a products/* webhook body.
// Variant inventory quantities are pointers so that "absent" (inventory not
// tracked) is distinguishable from an explicit zero.
type productPayload struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Handle    string `json:"handle"`
	Vendor    string `json:"vendor"`
	Status    string `json:"status"`
	UpdatedAt string `json:"updated_at"`
	Variants  []struct {
		ID                int64 `json:"id"`
		InventoryQuantity *int  `json:"inventory_quantity"`
	} `json:"variants"`
}

// collectionPayload is the allowlisted subset of a collections/* webhook body.
type collectionPayload struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Handle    string `json:"handle"`
	SortOrder string `json:"sort_order"`
	UpdatedAt string `json:"updated_at"`
}

// deletePayload is the minimal body Shopify sends on */delete topics.
type deletePayload struct {
	ID    int64  `json:"id"`
	Token string `json:"token"`
}

// MapOrder decodes an orders/* payload into a mirror Order for shopDomain.
func MapOrder(shopDomain string, body []byte) (*domain.Order, error) {
	var p orderPayload
	if err := decode(body, &p); err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, fmt.Errorf("%w: order id missing", ErrInvalidPayload)
	}
	updated, err := parseRemoteTime(p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &domain.Order{
		ShopDomain:        shopDomain,
		ShopifyID:         p.ID,
		Name:              p.Name,
		Email:             p.Email,
		TotalPrice:        p.TotalPrice,
		Currency:          p.Currency,
		FinancialStatus:   p.FinancialStatus,
		FulfillmentStatus: p.FulfillmentStatus,
		LineItemCount:     len(p.LineItems),
		CustomerShopifyID: p.Customer.ID,
		UpdatedAtShopify:  updated,
	}, nil
}

// MapCart decodes a carts/* payload into a mirror Cart for shopDomain.
func MapCart(shopDomain string, body []byte) (*domain.Cart, error) {
	var p cartPayload
	if err := decode(body, &p); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.Token) == "" {
		return nil, fmt.Errorf("%w: cart token missing", ErrInvalidPayload)
	}
	updated, err := parseRemoteTime(p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &domain.Cart{
		ShopDomain:       shopDomain,
		Token:            p.Token,
		TotalPrice:       p.TotalPrice,
		Currency:         p.Currency,
		LineItemCount:    len(p.LineItems),
		UpdatedAtShopify: updated,
	}, nil
}

// MapCheckout decodes a checkouts/* payload into a mirror Checkout.
func MapCheckout(shopDomain string, body []byte) (*domain.Checkout, error) {
	var p checkoutPayload
	if err := decode(body, &p); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.Token) == "" {
		return nil, fmt.Errorf("%w: checkout token missing", ErrInvalidPayload)
	}
	updated, err := parseRemoteTime(p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	out := &domain.Checkout{
		ShopDomain:       shopDomain,
		Token:            p.Token,
		Email:            p.Email,
		TotalPrice:       p.TotalPrice,
		Currency:         p.Currency,
		AbandonedURL:     p.AbandonedAt,
		UpdatedAtShopify: updated,
	}
	if p.CompletedAt != nil && *p.CompletedAt != "" {
		if t, err := parseRemoteTime(*p.CompletedAt); err == nil {
			out.CompletedAt = &t
		}
	}
	return out, nil
}

// MapCustomer decodes a customers/* payload into a mirror Customer.
// First and last names are folded into a single title-cased display name.
func MapCustomer(shopDomain string, body []byte) (*domain.Customer, error) {
	var p customerPayload
	if err := decode(body, &p); err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, fmt.Errorf("%w: customer id missing", ErrInvalidPayload)
	}
	updated, err := parseRemoteTime(p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &domain.Customer{
		ShopDomain:       shopDomain,
		ShopifyID:        p.ID,
		Email:            p.Email,
		DisplayName:      DisplayName(p.FirstName, p.LastName),
		OrdersCount:      p.OrdersCount,
		TotalSpent:       p.TotalSpent,
		VerifiedEmail:    p.VerifiedEmail,
		UpdatedAtShopify: updated,
	}, nil
}

// MapProduct decodes a products/* payload into a mirror Product.
// InventoryQuantity sums variant quantities; HasInventory records whether
// any variant actually reported one, so the alert evaluator can skip
// products whose inventory is not tracked.
func MapProduct(shopDomain string, body []byte) (*domain.Product, error) {
	var p productPayload
	if err := decode(body, &p); err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, fmt.Errorf("%w: product id missing", ErrInvalidPayload)
	}
	updated, err := parseRemoteTime(p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	total, tracked := 0, false
	for _, v := range p.Variants {
		if v.InventoryQuantity != nil {
			total += *v.InventoryQuantity
			tracked = true
		}
	}
	return &domain.Product{
		ShopDomain:        shopDomain,
		ShopifyID:         p.ID,
		Title:             strings.TrimSpace(p.Title),
		Handle:            p.Handle,
		Vendor:            p.Vendor,
		Status:            p.Status,
		VariantCount:      len(p.Variants),
		InventoryQuantity: total,
		HasInventory:      tracked,
		UpdatedAtShopify:  updated,
	}, nil
}

// MapCollection decodes a collections/* payload into a mirror Collection.
func MapCollection(shopDomain string, body []byte) (*domain.Collection, error) {
	var p collectionPayload
	if err := decode(body, &p); err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, fmt.Errorf("%w: collection id missing", ErrInvalidPayload)
	}
	updated, err := parseRemoteTime(p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &domain.Collection{
		ShopDomain:       shopDomain,
		ShopifyID:        p.ID,
		Title:            strings.TrimSpace(p.Title),
		Handle:           p.Handle,
		SortOrder:        p.SortOrder,
		UpdatedAtShopify: updated,
	}, nil
}

// FallbackDedupeKey synthesizes a replay-detection key for deliveries that
// arrive without an X-Shopify-Webhook-Id header, from the payload identity
// instead: topic, remote id (or token), and the updated_at instant. Two
// deliveries carrying the same key describe the same remote event. Reports
// ok=false when the payload lacks a usable id or timestamp; such deliveries
// cannot be deduplicated and are processed as-is.
func FallbackDedupeKey(t Topic, body []byte) (string, bool) {
	var p struct {
		ID        int64  `json:"id"`
		Token     string `json:"token"`
		UpdatedAt string `json:"updated_at"`
	}
	if json.Unmarshal(body, &p) != nil {
		return "", false
	}
	remote := strings.TrimSpace(p.Token)
	if t.Group != GroupCarts && t.Group != GroupCheckouts {
		if p.ID == 0 {
			return "", false
		}
		remote = strconv.FormatInt(p.ID, 10)
	}
	if remote == "" {
		return "", false
	}
	ts, err := parseRemoteTime(p.UpdatedAt)
	if err != nil {
		return "", false
	}
	return t.String() + ":" + remote + ":" + ts.Format(time.RFC3339), true
}

// RemoteID extracts the remote identifier from a payload for the given
// topic: the numeric id for id-keyed groups, the token for carts and
// checkouts. It is the only field delete payloads are required to carry.
func RemoteID(t Topic, body []byte) (string, error) {
	var p deletePayload
	if err := decode(body, &p); err != nil {
		return "", err
	}
	switch t.Group {
	case GroupCarts, GroupCheckouts:
		if strings.TrimSpace(p.Token) == "" {
			return "", fmt.Errorf("%w: token missing", ErrInvalidPayload)
		}
		return p.Token, nil
	default:
		if p.ID == 0 {
			return "", fmt.Errorf("%w: id missing", ErrInvalidPayload)
		}
		return strconv.FormatInt(p.ID, 10), nil
	}
}

// DisplayName joins and title-cases a customer's first and last names.
func DisplayName(first, last string) string {
	name := strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
	if name == "" {
		return ""
	}
	return nameCaser.String(strings.ToLower(name))
}

// decode unmarshals body strictly enough for our purposes and tags failures
// as mapping errors.
func decode(body []byte, into any) error {
	if err := json.Unmarshal(body, into); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

// parseRemoteTime parses Shopify's RFC3339 timestamps. A payload without a
// parsable updated_at cannot participate in last-write-wins ordering, so it
// is a mapping error.
func parseRemoteTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: updated_at missing", ErrInvalidPayload)
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad updated_at %q", ErrInvalidPayload, s)
	}
	return t.UTC(), nil
}
