// Package domain defines the persistence models for Shopify store
// connections, inventory alerts, and their trigger history. These types are
// mapped with GORM and form the core data layer of the webhook backend.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Alert status values. An alert is level-triggered: every stock-bearing
// webhook re-evaluates it against the configured threshold.
const (
	AlertStatusActive    = "active"
	AlertStatusTriggered = "triggered"
	AlertStatusPaused    = "paused"
)

// ShopConnection represents a connected Shopify store (one per tenant).
// It is the source of the per-shop webhook secret used for HMAC
// verification, so lookups by ShopDomain sit on the hot path of every
// inbound delivery.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - ShopDomain: the "*.myshopify.com" tenant key; unique.
//   - StoreURL: storefront URL as entered by the operator.
//   - AccessToken: optional Admin API token; empty in webhook-only mode.
//   - WebhookSecret: shared secret for HMAC-SHA256 signature verification.
//   - WebhooksEnabled: master switch for inbound ingestion.
//   - LastWebhookAt: receipt time of the most recent accepted delivery.
//   - ConnectedAt: when the store was connected.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker (disconnect keeps the row for audit).
type ShopConnection struct {
	ID              string         `json:"id"               gorm:"type:char(36);primaryKey"`
	ShopDomain      string         `json:"shop_domain"      gorm:"type:varchar(255);not null;uniqueIndex:ux_conn_shop_domain"`
	StoreURL        string         `json:"store_url"        gorm:"type:varchar(255);not null"`
	AccessToken     string         `json:"-"                gorm:"type:varchar(255)"`
	WebhookSecret   string         `json:"-"                gorm:"type:varchar(255);not null"`
	WebhooksEnabled bool           `json:"webhooks_enabled" gorm:"not null;default:false"`
	LastWebhookAt   *time.Time     `json:"last_webhook_at,omitempty"`
	ConnectedAt     time.Time      `json:"connected_at"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-"                gorm:"index"`
}

// TableName returns the database table name for ShopConnection.
func (ShopConnection) TableName() string { return "shop_connections" }

// InventoryAlert is an operator-configured stock threshold watch on a single
// product. CurrentStock is kept fresh by the webhook pipeline whenever a
// product payload carries inventory data; Status transitions are driven by
// threshold crossings (active→triggered downward, triggered→active upward)
// except for paused alerts, which only receive stock bookkeeping.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - ShopDomain: owning tenant; indexed together with ProductID because the
//     evaluator fans in by product on every stock update.
//   - ProductID: remote (Shopify) product identifier.
//   - ProductTitle: denormalized title for display and log rows.
//   - Threshold: stock level at or below which the alert fires.
//   - CurrentStock: last observed stock quantity.
//   - Status: active | triggered | paused (enforced by DB constraint).
//   - LastTriggeredAt: time of the most recent downward crossing.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker.
type InventoryAlert struct {
	ID              string         `json:"id"                gorm:"type:char(36);primaryKey"`
	ShopDomain      string         `json:"shop_domain"       gorm:"type:varchar(255);not null;index:idx_alert_shop_product,priority:1"`
	ProductID       int64          `json:"product_id"        gorm:"not null;index:idx_alert_shop_product,priority:2"`
	ProductTitle    string         `json:"product_title"     gorm:"type:varchar(255);not null"`
	Threshold       int            `json:"threshold"         gorm:"not null"`
	CurrentStock    int            `json:"current_stock"     gorm:"not null;default:0"`
	Status          string         `json:"status"            gorm:"type:varchar(16);not null;default:'active';check:status IN ('active','triggered','paused')"`
	LastTriggeredAt *time.Time     `json:"last_triggered_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-"                 gorm:"index"`
}

// TableName returns the database table name for InventoryAlert.
func (InventoryAlert) TableName() string { return "inventory_alerts" }

// InventoryAlertLog records one downward threshold crossing. Rows are
// append-only: exactly one is written per active→triggered transition and
// none for recoveries or paused alerts.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - AlertID: foreign key to the owning alert (indexed).
//   - ProductTitle: title snapshot at trigger time.
//   - PreviousStock: stock value before the update that crossed the threshold.
//   - CurrentStock: stock value that crossed the threshold.
//   - Threshold: threshold in effect at trigger time.
//   - TriggeredAt: wall-clock trigger time.
//   - Alert: FK association, cascade-deleted with its alert.
type InventoryAlertLog struct {
	ID            string    `json:"id"             gorm:"type:char(36);primaryKey"`
	AlertID       string    `json:"alert_id"       gorm:"type:char(36);not null;index:idx_alert_logs_alert"`
	ProductTitle  string    `json:"product_title"  gorm:"type:varchar(255);not null"`
	PreviousStock int       `json:"previous_stock" gorm:"not null"`
	CurrentStock  int       `json:"current_stock"  gorm:"not null"`
	Threshold     int       `json:"threshold"      gorm:"not null"`
	TriggeredAt   time.Time `json:"triggered_at"   gorm:"index"`

	// Alert is the watch that fired. Log rows are cascade-deleted if the
	// alert is removed.
	Alert InventoryAlert `json:"-" gorm:"foreignKey:AlertID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for InventoryAlertLog.
func (InventoryAlertLog) TableName() string { return "inventory_alert_logs" }
