// Package services – AlertService
//
// This file implements inventory alerts: dashboard CRUD plus the evaluator
// the webhook pipeline calls after every applied product stock upsert.
//
// The evaluator is a level-triggered state machine per alert over
// {active, triggered, paused}: each stock update is compared against the
// threshold and the alert moves (or stays) accordingly. Transitions race
// against concurrent webhooks, so both directions are compare-and-swap
// updates in the repo layer: two deliveries observing the same crossing
// produce exactly one transition and one history row.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-shopify-backend/internal/domain"
	"github.com/tbourn/go-shopify-backend/internal/notify"
	"github.com/tbourn/go-shopify-backend/internal/repo"
)

// AlertUpdate carries the operator-editable alert fields; nil means leave
// unchanged.
type AlertUpdate struct {
	Threshold *int
	Status    *string
}

// AlertOverview is the full dashboard payload: alerts, per-status counts,
// and recent trigger history.
type AlertOverview struct {
	Alerts []domain.InventoryAlert    `json:"alerts"`
	Stats  repo.AlertStats            `json:"stats"`
	Logs   []domain.InventoryAlertLog `json:"logs"`
}

// AlertService provides alert CRUD and stock evaluation.
type AlertService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Notifier receives alert-raised events; nil disables notifications.
	Notifier notify.Notifier
	// HistoryLimit caps the trigger-history rows returned in overviews.
	HistoryLimit int
}

// NewAlertService constructs an AlertService with sane defaults.
func NewAlertService(db *gorm.DB, n notify.Notifier) *AlertService {
	return &AlertService{DB: db, Notifier: n, HistoryLimit: 50}
}

// Create registers a new alert watching productID for shopDomain. When the
// caller omits the product title, the mirrored product row (if any)
// supplies the title and the starting stock value.
func (s *AlertService) Create(ctx context.Context, shopDomain string, productID int64, productTitle string, threshold int) (*domain.InventoryAlert, error) {
	if productID == 0 {
		return nil, ErrInvalidProduct
	}
	if threshold < 0 {
		return nil, ErrInvalidThreshold
	}
	shopDomain = strings.ToLower(strings.TrimSpace(shopDomain))
	if shopDomain == "" {
		return nil, ErrInvalidShopDomain
	}

	productTitle = strings.TrimSpace(productTitle)
	stock := 0
	if p, err := repo.GetProduct(ctx, s.DB, shopDomain, productID); err == nil {
		if productTitle == "" {
			productTitle = p.Title
		}
		stock = p.InventoryQuantity
	}
	if productTitle == "" {
		productTitle = "Untitled product"
	}

	return repo.CreateAlert(ctx, s.DB, shopDomain, productID, productTitle, threshold, stock)
}

// Get fetches a single alert by id.
func (s *AlertService) Get(ctx context.Context, id string) (*domain.InventoryAlert, error) {
	a, err := repo.GetAlert(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrAlertNotFound
	}
	return a, err
}

// Update applies threshold and/or status edits. Operators may only set
// active or paused; triggered is owned by the evaluator. Un-pausing always
// lands on active; the next stock update re-triggers if the level still
// warrants it.
func (s *AlertService) Update(ctx context.Context, id string, upd AlertUpdate) (*domain.InventoryAlert, error) {
	assigns := map[string]any{}
	if upd.Threshold != nil {
		if *upd.Threshold < 0 {
			return nil, ErrInvalidThreshold
		}
		assigns["threshold"] = *upd.Threshold
	}
	if upd.Status != nil {
		status := strings.ToLower(strings.TrimSpace(*upd.Status))
		if status != domain.AlertStatusActive && status != domain.AlertStatusPaused {
			return nil, ErrInvalidAlertStatus
		}
		assigns["status"] = status
	}
	if len(assigns) > 0 {
		if err := repo.UpdateAlert(ctx, s.DB, id, assigns); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, ErrAlertNotFound
			}
			return nil, err
		}
	}
	return s.Get(ctx, id)
}

// Delete removes an alert (soft delete; history rows remain).
func (s *AlertService) Delete(ctx context.Context, id string) error {
	err := repo.DeleteAlert(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrAlertNotFound
	}
	return err
}

// Overview returns alerts, per-status stats, and recent trigger history in
// one shot for the dashboard page.
func (s *AlertService) Overview(ctx context.Context) (*AlertOverview, error) {
	alerts, err := repo.ListAlerts(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	stats, err := repo.SummarizeAlerts(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	limit := s.HistoryLimit
	if limit <= 0 {
		limit = 50
	}
	logs, err := repo.ListAlertLogs(ctx, s.DB, limit)
	if err != nil {
		return nil, err
	}
	return &AlertOverview{Alerts: alerts, Stats: stats, Logs: logs}, nil
}

// EvaluateStock runs the state machine for every alert watching
// (shopDomain, productID) after a stock update to newStock.
//
// Per alert:
//   - active  and newStock <= threshold → triggered, one history row, notify
//   - triggered and newStock >  threshold → active, no history row
//   - paused → stock bookkeeping only, never auto-transitions
//   - otherwise → stock bookkeeping
//
// Lost CAS races are silently skipped: the winning writer already recorded
// the crossing with its own stock value.
func (s *AlertService) EvaluateStock(ctx context.Context, shopDomain string, productID int64, productTitle string, newStock int) error {
	alerts, err := repo.ListAlertsByProduct(ctx, s.DB, shopDomain, productID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for i := range alerts {
		a := alerts[i]
		switch {
		case a.Status == domain.AlertStatusPaused:
			if err := repo.UpdateAlertStock(ctx, s.DB, a.ID, productTitle, newStock); err != nil {
				return err
			}

		case a.Status == domain.AlertStatusActive && newStock <= a.Threshold:
			won, err := repo.TriggerAlert(ctx, s.DB, &a, productTitle, a.CurrentStock, newStock, now)
			if err != nil {
				return err
			}
			if won && s.Notifier != nil {
				s.Notifier.AlertRaised(ctx, notify.AlertEvent{
					AlertID:       a.ID,
					ShopDomain:    a.ShopDomain,
					ProductID:     a.ProductID,
					ProductTitle:  productTitle,
					PreviousStock: a.CurrentStock,
					CurrentStock:  newStock,
					Threshold:     a.Threshold,
					TriggeredAt:   now,
				})
			}

		case a.Status == domain.AlertStatusTriggered && newStock > a.Threshold:
			if _, err := repo.ResolveAlert(ctx, s.DB, a.ID, productTitle, newStock); err != nil {
				return err
			}

		default:
			if err := repo.UpdateAlertStock(ctx, s.DB, a.ID, productTitle, newStock); err != nil {
				return err
			}
		}
	}
	return nil
}
