// Package services – DeliveryService
//
// This file exposes read-only queries over the append-only webhook delivery
// log for the dashboard's log viewer: filtered, paginated listings plus the
// stat-card summary.
package services

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-shopify-backend/internal/domain"
	"github.com/tbourn/go-shopify-backend/internal/repo"
)

// validStatuses is the filter allowlist; anything else is treated as "no
// filter" rather than an error, since the UI builds these from query params.
var validStatuses = map[string]struct{}{
	domain.DeliveryStatusSuccess:   {},
	domain.DeliveryStatusError:     {},
	domain.DeliveryStatusRejected:  {},
	domain.DeliveryStatusDuplicate: {},
}

// DeliveryPage is one page of the log viewer: rows, aggregate summary, and
// the total matching the active filters (for pagination).
type DeliveryPage struct {
	Logs    []domain.WebhookDelivery `json:"logs"`
	Summary repo.DeliverySummary     `json:"summary"`
	Total   int64                    `json:"-"`
}

// DeliveryService provides delivery-log reads.
type DeliveryService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// List returns one page of delivery rows matching the optional status and
// topic filters, newest first, along with the unfiltered summary counters.
func (s *DeliveryService) List(ctx context.Context, status, topic string, page, pageSize int) (*DeliveryPage, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if _, ok := validStatuses[status]; !ok {
		status = ""
	}
	topic = strings.ToLower(strings.TrimSpace(topic))

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountDeliveries(ctx, s.DB, status, topic)
	if err != nil {
		return nil, err
	}

	logs := []domain.WebhookDelivery{}
	if total > 0 {
		logs, err = repo.ListDeliveriesPage(ctx, s.DB, status, topic, offset, pageSize)
		if err != nil {
			return nil, err
		}
	}

	summary, err := repo.SummarizeDeliveries(ctx, s.DB, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	return &DeliveryPage{Logs: logs, Summary: summary, Total: total}, nil
}
