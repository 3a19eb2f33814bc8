// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// ShopConnection model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a connection is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-shopify-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateConnection inserts a new ShopConnection for shopDomain with the
// given store URL, optional access token, and webhook secret. ConnectedAt is
// set to UTC now. On unique violation (shop already connected) it returns
// ErrDuplicate.
func CreateConnection(ctx context.Context, db *gorm.DB, shopDomain, storeURL, accessToken, webhookSecret string) (*domain.ShopConnection, error) {
	now := time.Now().UTC()
	conn := &domain.ShopConnection{
		ID:            uuid.NewString(),
		ShopDomain:    shopDomain,
		StoreURL:      storeURL,
		AccessToken:   accessToken,
		WebhookSecret: webhookSecret,
		ConnectedAt:   now,
		CreatedAt:     now,
	}
	if err := db.WithContext(ctx).Create(conn).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return conn, nil
}

// GetConnectionByDomain fetches the connection for shopDomain, or
// ErrNotFound. This sits on the hot path of every inbound webhook (secret
// lookup for HMAC verification).
func GetConnectionByDomain(ctx context.Context, db *gorm.DB, shopDomain string) (*domain.ShopConnection, error) {
	var conn domain.ShopConnection
	err := db.WithContext(ctx).
		Where("shop_domain = ?", shopDomain).
		First(&conn).Error
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

// SetWebhooksEnabled flips the ingestion switch for shopDomain. Returns
// ErrNotFound when no such connection exists.
func SetWebhooksEnabled(ctx context.Context, db *gorm.DB, shopDomain string, enabled bool) error {
	res := db.WithContext(ctx).
		Model(&domain.ShopConnection{}).
		Where("shop_domain = ?", shopDomain).
		Update("webhooks_enabled", enabled)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// TouchLastWebhook records the receipt time of the latest accepted delivery.
// Missing connections are ignored: the delivery was already verified, and a
// concurrent disconnect should not turn it into an error.
func TouchLastWebhook(ctx context.Context, db *gorm.DB, shopDomain string, at time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.ShopConnection{}).
		Where("shop_domain = ?", shopDomain).
		Update("last_webhook_at", at).Error
}

// DeleteConnection soft-deletes the connection for shopDomain. Returns
// ErrNotFound when no such connection exists.
func DeleteConnection(ctx context.Context, db *gorm.DB, shopDomain string) error {
	res := db.WithContext(ctx).
		Where("shop_domain = ?", shopDomain).
		Delete(&domain.ShopConnection{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// PurgeShopData hard-deletes every mirrored commerce entity belonging to
// shopDomain. Called on store disconnect, the one case where mirrors are
// physically removed. The delivery log is left intact (append-only,
// administrative retention).
func PurgeShopData(ctx context.Context, db *gorm.DB, shopDomain string) error {
	models := []any{
		&domain.Order{},
		&domain.Cart{},
		&domain.Checkout{},
		&domain.Customer{},
		&domain.Product{},
		&domain.Collection{},
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range models {
			if err := tx.Unscoped().Where("shop_domain = ?", shopDomain).Delete(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
