// Package services – WebhookService
//
// This file implements the inbound webhook pipeline: signature verification,
// delivery deduplication, payload-to-mirror upserts, inventory alert
// evaluation, and the append-only delivery log. Each delivery is processed
// synchronously within the request that receives it; the HTTP status is the
// only signal the sender sees.
//
// Response contract (Shopify retries on non-2xx):
//   - verified and processed, duplicate, stale, or permanently malformed
//     payload → nil (handler responds 200)
//   - authentication failure → ErrInvalidSignature / ErrUnknownShop /
//     ErrWebhooksDisabled (handler responds 401)
//   - storage failure → raw error (handler responds 500; the retry will
//     replay idempotently)
package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-shopify-backend/internal/domain"
	"github.com/tbourn/go-shopify-backend/internal/repo"
	"github.com/tbourn/go-shopify-backend/internal/shopify"
)

// InboundDelivery is one webhook POST as received at the edge: identifying
// headers plus the raw, unparsed body the signature covers.
type InboundDelivery struct {
	ShopDomain string
	Topic      string
	WebhookID  string
	APIVersion string
	Signature  string
	Body       []byte
}

// WebhookService runs the ingestion pipeline. It owns the ordering
// guarantee "verify before parse, dedupe before upsert" and writes exactly
// one WebhookDelivery row per call, whatever the outcome.
type WebhookService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Alerts evaluates inventory alerts after product stock upserts.
	Alerts *AlertService

	// DedupeWindow bounds the duplicate lookback (default 24h).
	DedupeWindow time.Duration
	// Timeout caps total processing per delivery; on expiry the delivery is
	// logged status=error and still acked (default 5s).
	Timeout time.Duration
	// MaxMessageLen truncates stored error messages (default 512).
	MaxMessageLen int
}

// NewWebhookService constructs a WebhookService with sane defaults.
func NewWebhookService(db *gorm.DB, alerts *AlertService) *WebhookService {
	return &WebhookService{
		DB:            db,
		Alerts:        alerts,
		DedupeWindow:  24 * time.Hour,
		Timeout:       5 * time.Second,
		MaxMessageLen: 512,
	}
}

// Process runs one delivery through the pipeline and returns the error
// class the handler maps to an HTTP status (see package contract above).
func (s *WebhookService) Process(ctx context.Context, in InboundDelivery) error {
	start := time.Now()

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Authenticate before anything touches the body. The raw bytes are what
	// the signature covers.
	conn, err := repo.GetConnectionByDomain(ctx, s.DB, in.ShopDomain)
	if errors.Is(err, repo.ErrNotFound) {
		s.log(ctx, in, in.WebhookID, "", domain.DeliveryStatusRejected, "no connection for shop", start)
		return ErrUnknownShop
	}
	if err != nil {
		s.log(ctx, in, in.WebhookID, "", domain.DeliveryStatusError, err.Error(), start)
		return err
	}
	if !shopify.VerifyHMAC(conn.WebhookSecret, in.Body, in.Signature) {
		s.log(ctx, in, in.WebhookID, "", domain.DeliveryStatusRejected, "hmac mismatch", start)
		return ErrInvalidSignature
	}
	if !conn.WebhooksEnabled {
		s.log(ctx, in, in.WebhookID, "", domain.DeliveryStatusRejected, "webhooks disabled", start)
		return ErrWebhooksDisabled
	}

	topic, err := shopify.ParseTopic(in.Topic)
	if err != nil {
		// Authenticated but unroutable: permanent condition, ack it so the
		// sender stops retrying, keep it visible for triage.
		s.log(ctx, in, in.WebhookID, "", domain.DeliveryStatusError, err.Error(), start)
		return nil
	}

	// Replay detection keys on the webhook id header; deliveries without one
	// fall back to the payload identity (topic, remote id, updated_at).
	dedupeKey := in.WebhookID
	if dedupeKey == "" {
		dedupeKey, _ = shopify.FallbackDedupeKey(topic, in.Body)
	}

	window := s.DedupeWindow
	if window <= 0 {
		window = 24 * time.Hour
	}
	dup, err := repo.HasSuccessfulDelivery(ctx, s.DB, in.ShopDomain, dedupeKey, start.Add(-window))
	if err != nil {
		s.log(ctx, in, dedupeKey, "", domain.DeliveryStatusError, err.Error(), start)
		return err
	}
	if dup {
		s.log(ctx, in, dedupeKey, "", domain.DeliveryStatusDuplicate, "already processed", start)
		return nil
	}

	resourceID, applied, err := s.dispatch(ctx, topic, in)
	if err != nil {
		if errors.Is(err, shopify.ErrInvalidPayload) {
			// Malformed forever; a retry storm helps nobody.
			s.log(ctx, in, dedupeKey, resourceID, domain.DeliveryStatusError, err.Error(), start)
			return nil
		}
		if errors.Is(err, context.DeadlineExceeded) {
			s.log(ctx, in, dedupeKey, resourceID, domain.DeliveryStatusError, "processing deadline exceeded", start)
			return nil
		}
		// Storage fault: propagate so the sender retries later.
		s.log(ctx, in, dedupeKey, resourceID, domain.DeliveryStatusError, err.Error(), start)
		return err
	}

	// Best-effort receipt bookkeeping; failure here must not fail a
	// processed delivery.
	_ = repo.TouchLastWebhook(ctx, s.DB, in.ShopDomain, start.UTC())

	msg := "processed"
	if !applied && !topic.IsDelete() {
		msg = "stale payload, no-op"
	}
	return s.log(ctx, in, dedupeKey, resourceID, domain.DeliveryStatusSuccess, msg, start)
}

// dispatch routes a verified, deduplicated delivery to its topic-specific
// mapper and upsert. It returns the remote resource id (for the log row)
// and whether the payload changed stored state.
func (s *WebhookService) dispatch(ctx context.Context, topic shopify.Topic, in InboundDelivery) (resourceID string, applied bool, err error) {
	if topic.IsDelete() {
		return s.dispatchDelete(ctx, topic, in)
	}

	switch topic.Group {
	case shopify.GroupOrders:
		o, mapErr := shopify.MapOrder(in.ShopDomain, in.Body)
		if mapErr != nil {
			return "", false, mapErr
		}
		applied, err = repo.UpsertOrder(ctx, s.DB, o)
		return strconv.FormatInt(o.ShopifyID, 10), applied, err

	case shopify.GroupCarts:
		c, mapErr := shopify.MapCart(in.ShopDomain, in.Body)
		if mapErr != nil {
			return "", false, mapErr
		}
		applied, err = repo.UpsertCart(ctx, s.DB, c)
		return c.Token, applied, err

	case shopify.GroupCheckouts:
		c, mapErr := shopify.MapCheckout(in.ShopDomain, in.Body)
		if mapErr != nil {
			return "", false, mapErr
		}
		applied, err = repo.UpsertCheckout(ctx, s.DB, c)
		return c.Token, applied, err

	case shopify.GroupCustomers:
		c, mapErr := shopify.MapCustomer(in.ShopDomain, in.Body)
		if mapErr != nil {
			return "", false, mapErr
		}
		applied, err = repo.UpsertCustomer(ctx, s.DB, c)
		return strconv.FormatInt(c.ShopifyID, 10), applied, err

	case shopify.GroupCollections:
		c, mapErr := shopify.MapCollection(in.ShopDomain, in.Body)
		if mapErr != nil {
			return "", false, mapErr
		}
		applied, err = repo.UpsertCollection(ctx, s.DB, c)
		return strconv.FormatInt(c.ShopifyID, 10), applied, err

	case shopify.GroupProducts:
		p, mapErr := shopify.MapProduct(in.ShopDomain, in.Body)
		if mapErr != nil {
			return "", false, mapErr
		}
		applied, err = repo.UpsertProduct(ctx, s.DB, p)
		id := strconv.FormatInt(p.ShopifyID, 10)
		if err != nil || !applied {
			return id, applied, err
		}
		// Evaluate alerts only after an applied upsert that actually carried
		// inventory data. Dedup upstream guarantees this runs once per
		// stock-bearing delivery.
		if p.HasInventory && s.Alerts != nil {
			if evalErr := s.Alerts.EvaluateStock(ctx, p.ShopDomain, p.ShopifyID, p.Title, p.InventoryQuantity); evalErr != nil {
				return id, applied, evalErr
			}
		}
		return id, applied, nil

	default:
		return "", false, fmt.Errorf("%w: %s", shopify.ErrUnknownTopic, topic)
	}
}

// dispatchDelete soft-deletes the mirror row named by a */delete payload.
func (s *WebhookService) dispatchDelete(ctx context.Context, topic shopify.Topic, in InboundDelivery) (string, bool, error) {
	remote, err := shopify.RemoteID(topic, in.Body)
	if err != nil {
		return "", false, err
	}

	switch topic.Group {
	case shopify.GroupCarts:
		return remote, true, repo.MarkCartDeleted(ctx, s.DB, in.ShopDomain, remote)
	case shopify.GroupCheckouts:
		return remote, true, repo.MarkCheckoutDeleted(ctx, s.DB, in.ShopDomain, remote)
	}

	id, err := strconv.ParseInt(remote, 10, 64)
	if err != nil {
		return remote, false, fmt.Errorf("%w: bad id %q", shopify.ErrInvalidPayload, remote)
	}
	switch topic.Group {
	case shopify.GroupOrders:
		return remote, true, repo.MarkOrderDeleted(ctx, s.DB, in.ShopDomain, id)
	case shopify.GroupCustomers:
		return remote, true, repo.MarkCustomerDeleted(ctx, s.DB, in.ShopDomain, id)
	case shopify.GroupProducts:
		return remote, true, repo.MarkProductDeleted(ctx, s.DB, in.ShopDomain, id)
	case shopify.GroupCollections:
		return remote, true, repo.MarkCollectionDeleted(ctx, s.DB, in.ShopDomain, id)
	default:
		return remote, false, fmt.Errorf("%w: %s", shopify.ErrUnknownTopic, topic)
	}
}

// log appends the delivery row for this attempt. It runs on a
// cancellation-immune context so outcomes are recorded even when the
// processing deadline has already expired.
func (s *WebhookService) log(ctx context.Context, in InboundDelivery, dedupeKey, resourceID, status, message string, start time.Time) error {
	maxLen := s.MaxMessageLen
	if maxLen <= 0 {
		maxLen = 512
	}
	if len(message) > maxLen {
		message = message[:maxLen]
	}
	_, err := repo.CreateDelivery(context.WithoutCancel(ctx), s.DB, &domain.WebhookDelivery{
		ShopDomain:       in.ShopDomain,
		Topic:            in.Topic,
		WebhookID:        in.WebhookID,
		DedupeKey:        dedupeKey,
		ResourceID:       resourceID,
		Status:           status,
		Message:          message,
		RawPayload:       string(in.Body),
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		APIVersion:       in.APIVersion,
		CreatedAt:        start.UTC(),
	})
	return err
}
