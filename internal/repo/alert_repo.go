// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for inventory
// alerts and their append-only trigger history.
//
// The status transition helpers are compare-and-swap updates: the WHERE
// clause pins the expected prior status and RowsAffected reports whether
// this caller won. Two webhooks racing the same downward crossing therefore
// produce exactly one triggered transition and one log row.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-shopify-backend/internal/domain"
)

// AlertStats aggregates alert counts per status for the dashboard's stat
// cards. The UI polls Triggered across refreshes to detect new alerts.
type AlertStats struct {
	Total     int64 `json:"total"`
	Active    int64 `json:"active"`
	Triggered int64 `json:"triggered"`
	Paused    int64 `json:"paused"`
}

// CreateAlert inserts a new InventoryAlert row for shopDomain watching
// productID with the given threshold. Status starts active and
// CurrentStock at the last known product stock (0 when unknown).
func CreateAlert(ctx context.Context, db *gorm.DB, shopDomain string, productID int64, productTitle string, threshold, currentStock int) (*domain.InventoryAlert, error) {
	a := &domain.InventoryAlert{
		ID:           uuid.NewString(),
		ShopDomain:   shopDomain,
		ProductID:    productID,
		ProductTitle: productTitle,
		Threshold:    threshold,
		CurrentStock: currentStock,
		Status:       domain.AlertStatusActive,
		CreatedAt:    time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

// GetAlert fetches a single alert by ID, or ErrNotFound.
func GetAlert(ctx context.Context, db *gorm.DB, id string) (*domain.InventoryAlert, error) {
	var a domain.InventoryAlert
	if err := db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAlerts returns all alerts, most recently created first.
func ListAlerts(ctx context.Context, db *gorm.DB) ([]domain.InventoryAlert, error) {
	var out []domain.InventoryAlert
	err := db.WithContext(ctx).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// ListAlertsByProduct returns every alert watching (shopDomain, productID),
// the fan-in set the evaluator walks after a product stock upsert.
func ListAlertsByProduct(ctx context.Context, db *gorm.DB, shopDomain string, productID int64) ([]domain.InventoryAlert, error) {
	var out []domain.InventoryAlert
	err := db.WithContext(ctx).
		Where("shop_domain = ? AND product_id = ?", shopDomain, productID).
		Find(&out).Error
	return out, err
}

// UpdateAlert applies the given column assignments to an alert (threshold
// and/or status edits from the dashboard). Returns ErrNotFound when the
// alert does not exist.
func UpdateAlert(ctx context.Context, db *gorm.DB, id string, assigns map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.InventoryAlert{}).
		Where("id = ?", id).
		Updates(assigns)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteAlert soft-deletes an alert. Returns ErrNotFound when it does not
// exist.
func DeleteAlert(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.InventoryAlert{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateAlertStock refreshes CurrentStock (and the denormalized title)
// without touching status. Used for paused alerts and for updates that do
// not cross the threshold.
func UpdateAlertStock(ctx context.Context, db *gorm.DB, id, productTitle string, stock int) error {
	return db.WithContext(ctx).
		Model(&domain.InventoryAlert{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"current_stock": stock,
			"product_title": productTitle,
		}).Error
}

// TriggerAlert atomically transitions an alert from active to triggered,
// records the new stock and trigger time, and appends the history row
// capturing previousStock. The CAS on status guarantees at most one caller
// logs a given crossing; it reports won=false when another writer got there
// first (or the alert is no longer active).
func TriggerAlert(ctx context.Context, db *gorm.DB, a *domain.InventoryAlert, productTitle string, previousStock, newStock int, at time.Time) (bool, error) {
	won := false
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.InventoryAlert{}).
			Where("id = ? AND status = ?", a.ID, domain.AlertStatusActive).
			Updates(map[string]any{
				"status":            domain.AlertStatusTriggered,
				"current_stock":     newStock,
				"product_title":     productTitle,
				"last_triggered_at": at,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		won = true
		log := &domain.InventoryAlertLog{
			ID:            uuid.NewString(),
			AlertID:       a.ID,
			ProductTitle:  productTitle,
			PreviousStock: previousStock,
			CurrentStock:  newStock,
			Threshold:     a.Threshold,
			TriggeredAt:   at,
		}
		return tx.Create(log).Error
	})
	return won, err
}

// ResolveAlert atomically transitions an alert from triggered back to
// active when stock recovers above threshold. No history row is written;
// only downward crossings are logged. Reports won=false when the alert was
// not in triggered state.
func ResolveAlert(ctx context.Context, db *gorm.DB, id, productTitle string, newStock int) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.InventoryAlert{}).
		Where("id = ? AND status = ?", id, domain.AlertStatusTriggered).
		Updates(map[string]any{
			"status":        domain.AlertStatusActive,
			"current_stock": newStock,
			"product_title": productTitle,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListAlertLogs returns the most recent trigger history rows, newest first.
func ListAlertLogs(ctx context.Context, db *gorm.DB, limit int) ([]domain.InventoryAlertLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []domain.InventoryAlertLog
	err := db.WithContext(ctx).
		Order("triggered_at desc").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountAlertLogs returns the number of history rows for a single alert.
func CountAlertLogs(ctx context.Context, db *gorm.DB, alertID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.InventoryAlertLog{}).
		Where("alert_id = ?", alertID).
		Count(&total).Error
	return total, err
}

// SummarizeAlerts computes per-status alert counts.
func SummarizeAlerts(ctx context.Context, db *gorm.DB) (AlertStats, error) {
	var s AlertStats
	model := func() *gorm.DB { return db.WithContext(ctx).Model(&domain.InventoryAlert{}) }

	if err := model().Count(&s.Total).Error; err != nil {
		return s, err
	}
	if err := model().Where("status = ?", domain.AlertStatusActive).Count(&s.Active).Error; err != nil {
		return s, err
	}
	if err := model().Where("status = ?", domain.AlertStatusTriggered).Count(&s.Triggered).Error; err != nil {
		return s, err
	}
	if err := model().Where("status = ?", domain.AlertStatusPaused).Count(&s.Paused).Error; err != nil {
		return s, err
	}
	return s, nil
}
