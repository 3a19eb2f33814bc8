// Webhook ingestion HTTP handler.
//
// This file exposes the single inbound endpoint Shopify delivers to:
//   - POST /webhooks/shopify/{group}
//
// The handler is transport-thin: it captures the raw body and identifying
// headers, hands them to the webhook pipeline, and translates the pipeline's
// error class into the HTTP status that drives Shopify's retry behavior.
// Everything the sender needs to know is the status code; the JSON body is
// decoration for humans with curl.
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-shopify-backend/internal/domain"
	"github.com/tbourn/go-shopify-backend/internal/http/middleware"
	"github.com/tbourn/go-shopify-backend/internal/services"
	"github.com/tbourn/go-shopify-backend/internal/shopify"
)

//
// Service contracts (context-aware)
//

// WebhookProcessor runs one inbound delivery through the ingestion pipeline.
//
// Implementations must be safe for concurrent use; Shopify fans deliveries
// out in parallel and retries aggressively.
type WebhookProcessor interface {
	// Process verifies, deduplicates, applies, and logs one delivery.
	Process(ctx context.Context, in services.InboundDelivery) error
}

// AlertService defines inventory-alert CRUD operations consumed by HTTP
// handlers. Stock-driven transitions happen inside the pipeline, not here.
type AlertService interface {
	// Create registers an alert watching a product.
	Create(ctx context.Context, shopDomain string, productID int64, productTitle string, threshold int) (*domain.InventoryAlert, error)
	// Get fetches one alert by id.
	Get(ctx context.Context, id string) (*domain.InventoryAlert, error)
	// Update applies threshold/status edits.
	Update(ctx context.Context, id string, upd services.AlertUpdate) (*domain.InventoryAlert, error)
	// Delete removes an alert.
	Delete(ctx context.Context, id string) error
	// Overview returns alerts, stats, and recent trigger history.
	Overview(ctx context.Context) (*services.AlertOverview, error)
}

// DeliveryReader defines read access to the webhook delivery log.
type DeliveryReader interface {
	// List returns one page of delivery rows plus summary counters.
	List(ctx context.Context, status, topic string, page, pageSize int) (*services.DeliveryPage, error)
}

// ConnectionManager defines store connection lifecycle operations.
type ConnectionManager interface {
	// Connect registers a store and mints its webhook secret.
	Connect(ctx context.Context, storeURL, accessToken string) (*services.ConnectResult, error)
	// SetWebhooksEnabled toggles ingestion for a connected store.
	SetWebhooksEnabled(ctx context.Context, shopDomain string, enabled bool) error
	// Disconnect removes the connection and purges mirrored data.
	Disconnect(ctx context.Context, shopDomain string) error
}

// IdempotencyStore persists and recalls idempotency records so unsafe
// dashboard POSTs can be retried safely. A nil store disables replay.
type IdempotencyStore interface {
	// Find returns the unexpired record for (userID, scope, key), nil if none.
	Find(ctx context.Context, userID, scope, key string, now time.Time) (*domain.Idempotency, error)
	// Record stores a completed mutation's outcome under (userID, scope, key).
	Record(ctx context.Context, userID, scope, key, resourceID string, status int) error
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for webhooks, delivery logs, inventory
// alerts, and store connections. It depends on abstract service interfaces to
// keep transport concerns separate from business logic.
type Handlers struct {
	webhookSvc  WebhookProcessor
	alertSvc    AlertService
	deliverySvc DeliveryReader
	connSvc     ConnectionManager
	idemStore   IdempotencyStore
}

// New constructs and returns a Handlers instance bound to the given services.
func New(webhookSvc WebhookProcessor, alertSvc AlertService, deliverySvc DeliveryReader, connSvc ConnectionManager, idemStore IdempotencyStore) *Handlers {
	return &Handlers{webhookSvc: webhookSvc, alertSvc: alertSvc, deliverySvc: deliverySvc, connSvc: connSvc, idemStore: idemStore}
}

// userID extracts the operator identity from the Gin context (set by upstream
// middleware). If absent, it falls back to the "X-User-ID" header (tests use
// it), and finally to "dashboard". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "dashboard"
}

// ReceiveWebhook godoc
// @ID          receiveWebhook
// @Summary     Receive a Shopify webhook
// @Description Verifies the HMAC signature over the raw body, deduplicates by webhook id, applies the payload, and records the outcome. Non-2xx statuses cause Shopify to retry the delivery.
// @Tags        Webhooks
// @Accept      json
// @Produce     json
//
// @Param       group                   path    string  true  "Topic group (products, orders, carts, checkouts, customers, collections)"
// @Param       X-Shopify-Topic         header  string  true  "Webhook topic"          example(products/update)
// @Param       X-Shopify-Hmac-Sha256   header  string  true  "Base64 HMAC signature"
// @Param       X-Shopify-Shop-Domain   header  string  true  "Sending shop domain"    example(demo.myshopify.com)
// @Param       X-Shopify-Webhook-Id    header  string  false "Unique delivery id"
// @Param       X-Shopify-Api-Version   header  string  false "Shopify API version"    example(2024-01)
//
// @Success     200  {object}  map[string]string
// @Failure     400  {object}  handlers.ErrorResponse  "Unreadable body"
// @Failure     401  {object}  handlers.ErrorResponse  "Signature or shop rejected"
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown topic group"
// @Failure     500  {object}  handlers.ErrorResponse  "Storage failure (delivery will be retried)"
// @Router      /webhooks/shopify/{group} [post]
func (h *Handlers) ReceiveWebhook(c *gin.Context) {
	ctx := c.Request.Context()

	// Only mirrored topic groups are routable; anything else 404s before
	// any body handling.
	if !shopify.KnownGroup(c.Param("group")) {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "unknown webhook group")
		return
	}

	// The raw bytes are the unit of authentication; read them before any
	// parsing. The router caps the body size upstream.
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unreadable request body")
		return
	}

	in := services.InboundDelivery{
		ShopDomain: strings.ToLower(strings.TrimSpace(c.GetHeader(shopify.HeaderShopDomain))),
		Topic:      strings.ToLower(strings.TrimSpace(c.GetHeader(shopify.HeaderTopic))),
		WebhookID:  strings.TrimSpace(c.GetHeader(shopify.HeaderWebhookID)),
		APIVersion: strings.TrimSpace(c.GetHeader(shopify.HeaderAPIVersion)),
		Signature:  strings.TrimSpace(c.GetHeader(shopify.HeaderHmacSHA256)),
		Body:       body,
	}

	start := time.Now()
	err = h.webhookSvc.Process(ctx, in)
	middleware.ObserveDelivery(metricTopic(in.Topic), metricOutcome(err), time.Since(start))

	switch {
	case errors.Is(err, services.ErrUnknownShop):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "unknown shop domain")
	case errors.Is(err, services.ErrInvalidSignature):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "webhook signature verification failed")
	case errors.Is(err, services.ErrWebhooksDisabled):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "webhooks are disabled for this shop")
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeWebhookFailed, err.Error())
	default:
		ok(c, http.StatusOK, gin.H{"status": "received"})
	}
}

// metricTopic maps the raw topic header onto the bounded label set: parsed
// topics pass through, everything else collapses to "unknown".
func metricTopic(raw string) string {
	t, err := shopify.ParseTopic(raw)
	if err != nil {
		return "unknown"
	}
	return t.String()
}

// metricOutcome maps the pipeline's error class onto the outcome label.
func metricOutcome(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, services.ErrUnknownShop),
		errors.Is(err, services.ErrInvalidSignature),
		errors.Is(err, services.ErrWebhooksDisabled):
		return "rejected"
	default:
		return "error"
	}
}
