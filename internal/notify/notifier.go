// Package notify carries "alert raised" events out of the webhook pipeline.
//
// The evaluator publishes an AlertEvent on every active→triggered
// transition. Delivery is at-least-once from the consumer's point of view:
// the dashboard detects new alerts by comparing triggered counts across
// polls, so it tolerates both duplicates and drops. Notifier is the seam a
// real push channel (message queue, SSE broker) would implement; the
// in-process implementations below cover single-process deployments.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// AlertEvent describes one downward threshold crossing.
type AlertEvent struct {
	AlertID       string    `json:"alert_id"`
	ShopDomain    string    `json:"shop_domain"`
	ProductID     int64     `json:"product_id"`
	ProductTitle  string    `json:"product_title"`
	PreviousStock int       `json:"previous_stock"`
	CurrentStock  int       `json:"current_stock"`
	Threshold     int       `json:"threshold"`
	TriggeredAt   time.Time `json:"triggered_at"`
}

// Notifier receives alert-raised events. Implementations must not block the
// webhook request that publishes the event.
type Notifier interface {
	AlertRaised(ctx context.Context, ev AlertEvent)
}

// LogNotifier writes each event as a structured log line. It is the default
// sink: operators see crossings in the service logs even with no push
// channel configured.
type LogNotifier struct {
	Log zerolog.Logger
}

// AlertRaised implements Notifier.
func (n LogNotifier) AlertRaised(_ context.Context, ev AlertEvent) {
	n.Log.Warn().
		Str("alert_id", ev.AlertID).
		Str("shop_domain", ev.ShopDomain).
		Int64("product_id", ev.ProductID).
		Str("product_title", ev.ProductTitle).
		Int("previous_stock", ev.PreviousStock).
		Int("current_stock", ev.CurrentStock).
		Int("threshold", ev.Threshold).
		Msg("inventory alert raised")
}

// Fanout publishes events to a bounded in-process channel on top of an
// optional inner notifier. A full buffer drops the event rather than block
// the webhook response; consumers are poll-backed, so a drop costs nothing
// but immediacy.
type Fanout struct {
	inner Notifier
	ch    chan AlertEvent
	once  sync.Once
}

// NewFanout constructs a Fanout with the given buffer size (minimum 1)
// wrapping inner (which may be nil).
func NewFanout(inner Notifier, buffer int) *Fanout {
	if buffer < 1 {
		buffer = 1
	}
	return &Fanout{inner: inner, ch: make(chan AlertEvent, buffer)}
}

// AlertRaised implements Notifier. Never blocks.
func (f *Fanout) AlertRaised(ctx context.Context, ev AlertEvent) {
	if f.inner != nil {
		f.inner.AlertRaised(ctx, ev)
	}
	select {
	case f.ch <- ev:
	default:
	}
}

// Events returns the receive side of the fanout channel.
func (f *Fanout) Events() <-chan AlertEvent { return f.ch }

// Close closes the event channel. Safe to call more than once.
func (f *Fanout) Close() { f.once.Do(func() { close(f.ch) }) }
