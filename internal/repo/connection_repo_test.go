package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-shopify-backend/internal/domain"
)

func TestCreateConnection_DuplicateShop(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	c, err := CreateConnection(ctx, db, "demo.myshopify.com", "https://demo.myshopify.com", "tok", "secret")
	if err != nil {
		t.Fatalf("CreateConnection: %v", err)
	}
	if c.ID == "" || c.ConnectedAt.IsZero() {
		t.Fatalf("connection not populated: %+v", c)
	}

	if _, err := CreateConnection(ctx, db, "demo.myshopify.com", "https://demo.myshopify.com", "tok2", "secret2"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestSetWebhooksEnabled(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	if _, err := CreateConnection(ctx, db, "demo.myshopify.com", "https://demo.myshopify.com", "", "secret"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := SetWebhooksEnabled(ctx, db, "demo.myshopify.com", false); err != nil {
		t.Fatalf("disable: %v", err)
	}
	conn, err := GetConnectionByDomain(ctx, db, "demo.myshopify.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if conn.WebhooksEnabled {
		t.Fatal("webhooks still enabled after disable")
	}

	if err := SetWebhooksEnabled(ctx, db, "ghost.myshopify.com", true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown shop, got %v", err)
	}
}

func TestTouchLastWebhook_MissingShopIsNoOp(t *testing.T) {
	db := newRepoDB(t)
	if err := TouchLastWebhook(context.Background(), db, "ghost.myshopify.com", time.Now().UTC()); err != nil {
		t.Fatalf("touch of unknown shop should not error: %v", err)
	}
}

func TestDeleteConnection(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	if _, err := CreateConnection(ctx, db, "demo.myshopify.com", "https://demo.myshopify.com", "", "secret"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := DeleteConnection(ctx, db, "demo.myshopify.com"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := GetConnectionByDomain(ctx, db, "demo.myshopify.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted connection still readable: %v", err)
	}
	if err := DeleteConnection(ctx, db, "demo.myshopify.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete should be ErrNotFound, got %v", err)
	}
}

func TestPurgeShopData_LeavesDeliveryLog(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	t0 := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

	if _, err := UpsertProduct(ctx, db, testProduct("demo.myshopify.com", 1, 10, t0)); err != nil {
		t.Fatalf("seed product: %v", err)
	}
	if _, err := UpsertOrder(ctx, db, &domain.Order{ShopDomain: "demo.myshopify.com", ShopifyID: 1001, UpdatedAtShopify: t0}); err != nil {
		t.Fatalf("seed order: %v", err)
	}
	if _, err := UpsertProduct(ctx, db, testProduct("other.myshopify.com", 2, 5, t0)); err != nil {
		t.Fatalf("seed other shop: %v", err)
	}
	if _, err := CreateDelivery(ctx, db, testDelivery("demo.myshopify.com", "wh-1", "products/update", domain.DeliveryStatusSuccess, t0)); err != nil {
		t.Fatalf("seed delivery: %v", err)
	}

	if err := PurgeShopData(ctx, db, "demo.myshopify.com"); err != nil {
		t.Fatalf("PurgeShopData: %v", err)
	}

	var n int64
	db.Unscoped().Model(&domain.Product{}).Where("shop_domain = ?", "demo.myshopify.com").Count(&n)
	if n != 0 {
		t.Fatalf("products not purged: %d rows remain", n)
	}
	db.Unscoped().Model(&domain.Order{}).Where("shop_domain = ?", "demo.myshopify.com").Count(&n)
	if n != 0 {
		t.Fatalf("orders not purged: %d rows remain", n)
	}

	// Other tenants untouched.
	if _, err := GetProduct(ctx, db, "other.myshopify.com", 2); err != nil {
		t.Fatalf("other shop's product purged: %v", err)
	}

	// Delivery log is administrative history and survives disconnect.
	total, err := CountDeliveries(ctx, db, "", "")
	if err != nil || total != 1 {
		t.Fatalf("delivery log after purge: %d rows, %v", total, err)
	}
}
