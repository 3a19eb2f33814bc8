// Package domain defines the core persistence models for the application.
// This file holds the append-only webhook delivery log consumed by the
// dashboard's webhook log viewer.
package domain

import "time"

// Delivery outcome values. Every inbound POST produces exactly one row with
// one of these statuses, regardless of how far it made it through the
// pipeline.
const (
	DeliveryStatusSuccess   = "success"
	DeliveryStatusError     = "error"
	DeliveryStatusRejected  = "rejected"
	DeliveryStatusDuplicate = "duplicate"
)

// WebhookDelivery records a single inbound delivery attempt from Shopify.
// Rows are immutable after write; the pipeline never updates or deletes
// them. DedupeKey identifies a delivery for replay detection: the webhook id
// header when present, otherwise a key synthesized from the payload (topic,
// remote id, updated_at). (shop_domain, dedupe_key) is unique among
// status=success rows, which is what makes replays idempotent: the
// deduplicator consults this table before any upsert happens.
type WebhookDelivery struct {
	ID               string    `json:"id"                 gorm:"type:char(36);primaryKey"`
	ShopDomain       string    `json:"shop_domain"        gorm:"type:varchar(255);not null;index:idx_delivery_dedupe,priority:1"`
	Topic            string    `json:"topic"              gorm:"type:varchar(64);not null;index"`
	WebhookID        string    `json:"webhook_id"         gorm:"type:varchar(64);not null"`
	DedupeKey        string    `json:"-"                  gorm:"type:varchar(255);not null;default:'';index:idx_delivery_dedupe,priority:2"`
	ResourceID       string    `json:"resource_id"        gorm:"type:varchar(64)"`
	Status           string    `json:"status"             gorm:"type:varchar(16);not null;index;check:status IN ('success','error','rejected','duplicate')"`
	Message          string    `json:"message"            gorm:"type:varchar(512)"`
	RawPayload       string    `json:"-"                  gorm:"type:text"`
	ProcessingTimeMs int64     `json:"processing_time_ms" gorm:"not null;default:0"`
	APIVersion       string    `json:"api_version"        gorm:"type:varchar(32)"`
	CreatedAt        time.Time `json:"created_at"         gorm:"index:idx_delivery_dedupe,priority:3"`
}

// TableName implements the GORM tabler interface.
func (WebhookDelivery) TableName() string { return "webhook_deliveries" }
