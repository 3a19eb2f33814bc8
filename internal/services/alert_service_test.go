package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-shopify-backend/internal/domain"
	"github.com/tbourn/go-shopify-backend/internal/repo"
)

func TestAlertCreate_Validation(t *testing.T) {
	db := newTestDB(t)
	svc := NewAlertService(db, nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, testShop, 0, "Widget", 5); !errors.Is(err, ErrInvalidProduct) {
		t.Fatalf("zero product id: %v", err)
	}
	if _, err := svc.Create(ctx, testShop, 42, "Widget", -1); !errors.Is(err, ErrInvalidThreshold) {
		t.Fatalf("negative threshold: %v", err)
	}
	if _, err := svc.Create(ctx, "  ", 42, "Widget", 5); !errors.Is(err, ErrInvalidShopDomain) {
		t.Fatalf("blank shop: %v", err)
	}
}

func TestAlertCreate_FillsFromMirror(t *testing.T) {
	db := newTestDB(t)
	svc := NewAlertService(db, nil)
	ctx := context.Background()

	if _, err := repo.UpsertProduct(ctx, db, &domain.Product{
		ShopDomain:        testShop,
		ShopifyID:         42,
		Title:             "Widget",
		InventoryQuantity: 7,
		HasInventory:      true,
		UpdatedAtShopify:  time.Now().UTC(),
	}); err != nil {
		t.Fatalf("seed mirror: %v", err)
	}

	a, err := svc.Create(ctx, "DEMO.myshopify.com", 42, "", 5)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.ShopDomain != testShop || a.ProductTitle != "Widget" || a.CurrentStock != 7 {
		t.Fatalf("alert not filled from mirror: %+v", a)
	}

	// No mirror row: placeholder title, zero stock.
	b, err := svc.Create(ctx, testShop, 99, "", 5)
	if err != nil {
		t.Fatalf("Create without mirror: %v", err)
	}
	if b.ProductTitle != "Untitled product" || b.CurrentStock != 0 {
		t.Fatalf("fallback alert: %+v", b)
	}
}

func TestAlertUpdate_OperatorStatuses(t *testing.T) {
	db := newTestDB(t)
	svc := NewAlertService(db, nil)
	ctx := context.Background()

	a, err := svc.Create(ctx, testShop, 42, "Widget", 5)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	paused := domain.AlertStatusPaused
	got, err := svc.Update(ctx, a.ID, AlertUpdate{Status: &paused})
	if err != nil || got.Status != domain.AlertStatusPaused {
		t.Fatalf("pause: %+v, %v", got, err)
	}

	// The evaluator owns triggered; operators cannot set it.
	triggered := domain.AlertStatusTriggered
	if _, err := svc.Update(ctx, a.ID, AlertUpdate{Status: &triggered}); !errors.Is(err, ErrInvalidAlertStatus) {
		t.Fatalf("setting triggered: %v", err)
	}

	bad := -3
	if _, err := svc.Update(ctx, a.ID, AlertUpdate{Threshold: &bad}); !errors.Is(err, ErrInvalidThreshold) {
		t.Fatalf("negative threshold: %v", err)
	}

	nine := 9
	got, err = svc.Update(ctx, a.ID, AlertUpdate{Threshold: &nine})
	if err != nil || got.Threshold != 9 {
		t.Fatalf("threshold edit: %+v, %v", got, err)
	}

	if _, err := svc.Update(ctx, "nope", AlertUpdate{Threshold: &nine}); !errors.Is(err, ErrAlertNotFound) {
		t.Fatalf("unknown id: %v", err)
	}
}

func TestAlertDelete(t *testing.T) {
	db := newTestDB(t)
	svc := NewAlertService(db, nil)
	ctx := context.Background()

	a, _ := svc.Create(ctx, testShop, 42, "Widget", 5)
	if err := svc.Delete(ctx, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, a.ID); !errors.Is(err, ErrAlertNotFound) {
		t.Fatalf("second delete: %v", err)
	}
}

func TestEvaluateStock_Transitions(t *testing.T) {
	db := newTestDB(t)
	cap := &captureNotifier{}
	svc := NewAlertService(db, cap)
	ctx := context.Background()

	a, err := svc.Create(ctx, testShop, 42, "Widget", 5)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Above threshold: bookkeeping only.
	if err := svc.EvaluateStock(ctx, testShop, 42, "Widget", 9); err != nil {
		t.Fatalf("evaluate above: %v", err)
	}
	got, _ := svc.Get(ctx, a.ID)
	if got.Status != domain.AlertStatusActive || got.CurrentStock != 9 {
		t.Fatalf("after above-threshold update: %+v", got)
	}

	// Crossing: active -> triggered, one event.
	if err := svc.EvaluateStock(ctx, testShop, 42, "Widget", 5); err != nil {
		t.Fatalf("evaluate at threshold: %v", err)
	}
	got, _ = svc.Get(ctx, a.ID)
	if got.Status != domain.AlertStatusTriggered {
		t.Fatalf("at-threshold stock did not trigger: %+v", got)
	}
	if len(cap.events) != 1 {
		t.Fatalf("events = %d", len(cap.events))
	}

	// Still at or below threshold while triggered: no repeat event.
	if err := svc.EvaluateStock(ctx, testShop, 42, "Widget", 2); err != nil {
		t.Fatalf("evaluate while triggered: %v", err)
	}
	if len(cap.events) != 1 {
		t.Fatalf("re-notified while triggered: %d events", len(cap.events))
	}

	// Recovery: triggered -> active, silent.
	if err := svc.EvaluateStock(ctx, testShop, 42, "Widget", 8); err != nil {
		t.Fatalf("evaluate recovery: %v", err)
	}
	got, _ = svc.Get(ctx, a.ID)
	if got.Status != domain.AlertStatusActive || got.CurrentStock != 8 {
		t.Fatalf("after recovery: %+v", got)
	}
	if len(cap.events) != 1 {
		t.Fatalf("recovery notified: %d events", len(cap.events))
	}
}

func TestEvaluateStock_PausedOnlyBookkeeps(t *testing.T) {
	db := newTestDB(t)
	cap := &captureNotifier{}
	svc := NewAlertService(db, cap)
	ctx := context.Background()

	a, _ := svc.Create(ctx, testShop, 42, "Widget", 5)
	paused := domain.AlertStatusPaused
	if _, err := svc.Update(ctx, a.ID, AlertUpdate{Status: &paused}); err != nil {
		t.Fatalf("pause: %v", err)
	}

	if err := svc.EvaluateStock(ctx, testShop, 42, "Widget", 1); err != nil {
		t.Fatalf("evaluate paused: %v", err)
	}
	got, _ := svc.Get(ctx, a.ID)
	if got.Status != domain.AlertStatusPaused || got.CurrentStock != 1 {
		t.Fatalf("paused alert transitioned: %+v", got)
	}
	if len(cap.events) != 0 {
		t.Fatalf("paused alert notified: %d events", len(cap.events))
	}
}

func TestAlertOverview(t *testing.T) {
	db := newTestDB(t)
	svc := NewAlertService(db, nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, testShop, 1, "A", 5); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, testShop, 2, "B", 5); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.EvaluateStock(ctx, testShop, 1, "A", 2); err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	ov, err := svc.Overview(ctx)
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if len(ov.Alerts) != 2 || ov.Stats.Total != 2 || ov.Stats.Triggered != 1 || len(ov.Logs) != 1 {
		t.Fatalf("overview = alerts:%d stats:%+v logs:%d", len(ov.Alerts), ov.Stats, len(ov.Logs))
	}
}
