// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the append-only
// WebhookDelivery log: the dedup lookup that guards the upsert path, the row
// writer every delivery attempt goes through, and the filtered/paginated
// queries behind the dashboard's webhook log viewer.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-shopify-backend/internal/domain"
)

// DeliverySummary aggregates delivery counts for the log viewer's stat cards.
type DeliverySummary struct {
	Total   int64 `json:"total"`
	Success int64 `json:"success"`
	Errors  int64 `json:"errors"`
	Today   int64 `json:"today"`
}

// CreateDelivery appends one WebhookDelivery row. Rows are immutable after
// this write; there is deliberately no update or delete counterpart.
func CreateDelivery(ctx context.Context, db *gorm.DB, d *domain.WebhookDelivery) (*domain.WebhookDelivery, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.DedupeKey == "" {
		d.DedupeKey = d.WebhookID
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	if err := db.WithContext(ctx).Create(d).Error; err != nil {
		return nil, err
	}
	return d, nil
}

// HasSuccessfulDelivery reports whether a status=success row already exists
// for (shopDomain, dedupeKey) created after the cutoff. The key is the
// webhook id header when Shopify sent one, otherwise the payload-derived
// fallback key. The cutoff bounds the scan to the dedup lookback window so
// the check stays an indexed range read no matter how large the log grows.
func HasSuccessfulDelivery(ctx context.Context, db *gorm.DB, shopDomain, dedupeKey string, cutoff time.Time) (bool, error) {
	if dedupeKey == "" {
		return false, nil
	}
	var rec domain.WebhookDelivery
	err := db.WithContext(ctx).
		Select("id").
		Where("shop_domain = ? AND dedupe_key = ? AND status = ? AND created_at > ?",
			shopDomain, dedupeKey, domain.DeliveryStatusSuccess, cutoff).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// deliveryFilter composes the optional status/topic filters shared by the
// list and count queries.
func deliveryFilter(db *gorm.DB, status, topic string) *gorm.DB {
	q := db.Model(&domain.WebhookDelivery{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if topic != "" {
		q = q.Where("topic = ?", topic)
	}
	return q
}

// CountDeliveries returns the number of rows matching the optional status
// and topic filters (empty string = no filter).
func CountDeliveries(ctx context.Context, db *gorm.DB, status, topic string) (int64, error) {
	var total int64
	err := deliveryFilter(db.WithContext(ctx), status, topic).Count(&total).Error
	return total, err
}

// ListDeliveriesPage returns a page of delivery rows matching the optional
// status and topic filters, most recent first. The dashboard shows a bounded
// "recent" list, so callers always paginate.
func ListDeliveriesPage(ctx context.Context, db *gorm.DB, status, topic string, offset, limit int) ([]domain.WebhookDelivery, error) {
	var out []domain.WebhookDelivery
	err := deliveryFilter(db.WithContext(ctx), status, topic).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// SummarizeDeliveries computes the stat-card aggregates: total rows,
// success rows, error rows, and rows created since local midnight (now's
// day, UTC).
func SummarizeDeliveries(ctx context.Context, db *gorm.DB, now time.Time) (DeliverySummary, error) {
	var s DeliverySummary
	// Fresh builder per count: gorm chain state is not reusable across
	// Count calls.
	model := func() *gorm.DB { return db.WithContext(ctx).Model(&domain.WebhookDelivery{}) }

	if err := model().Count(&s.Total).Error; err != nil {
		return s, err
	}
	if err := model().Where("status = ?", domain.DeliveryStatusSuccess).Count(&s.Success).Error; err != nil {
		return s, err
	}
	if err := model().Where("status = ?", domain.DeliveryStatusError).Count(&s.Errors).Error; err != nil {
		return s, err
	}
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if err := model().Where("created_at >= ?", midnight).Count(&s.Today).Error; err != nil {
		return s, err
	}
	return s, nil
}
