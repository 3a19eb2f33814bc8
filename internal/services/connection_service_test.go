package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-shopify-backend/internal/domain"
	"github.com/tbourn/go-shopify-backend/internal/repo"
)

func TestConnect(t *testing.T) {
	db := newTestDB(t)
	svc := &ConnectionService{DB: db}
	ctx := context.Background()

	res, err := svc.Connect(ctx, "https://Demo.myshopify.com/admin", " tok ")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if res.Connection.ShopDomain != "demo.myshopify.com" {
		t.Fatalf("shop domain = %q", res.Connection.ShopDomain)
	}
	if !res.Connection.WebhooksEnabled {
		t.Fatal("ingestion not enabled on connect")
	}
	// 256-bit secret, hex encoded, surfaced once in the connect response.
	if len(res.WebhookSecret) != 64 {
		t.Fatalf("secret length = %d", len(res.WebhookSecret))
	}
	if res.Connection.AccessToken != "tok" {
		t.Fatalf("access token = %q", res.Connection.AccessToken)
	}

	if _, err := svc.Connect(ctx, "demo.myshopify.com", ""); !errors.Is(err, ErrAlreadyConnected) {
		t.Fatalf("second connect: %v", err)
	}
}

func TestNormalizeShopDomain(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"demo.myshopify.com", "demo.myshopify.com", true},
		{"https://demo.myshopify.com", "demo.myshopify.com", true},
		{"https://Demo.MyShopify.com/admin/settings", "demo.myshopify.com", true},
		{"  demo.myshopify.com.  ", "demo.myshopify.com", true},
		{"", "", false},
		{"example.com", "", false},
		{"myshopify.com", "", false},
		{".myshopify.com", "", false},
		{"a.b.myshopify.com", "", false},
		{"https://", "", false},
	}
	for _, tc := range cases {
		got, err := NormalizeShopDomain(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("NormalizeShopDomain(%q) = %q, %v", tc.in, got, err)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidShopDomain) {
			t.Fatalf("NormalizeShopDomain(%q): expected ErrInvalidShopDomain, got %v", tc.in, err)
		}
	}
}

func TestSetWebhooksEnabled_Service(t *testing.T) {
	db := newTestDB(t)
	svc := &ConnectionService{DB: db}
	ctx := context.Background()

	if _, err := svc.Connect(ctx, testShop, ""); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := svc.SetWebhooksEnabled(ctx, testShop, false); err != nil {
		t.Fatalf("disable: %v", err)
	}
	conn, err := svc.Get(ctx, testShop)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if conn.WebhooksEnabled {
		t.Fatal("still enabled after disable")
	}

	if err := svc.SetWebhooksEnabled(ctx, "ghost.myshopify.com", true); !errors.Is(err, ErrConnectionNotFound) {
		t.Fatalf("unknown shop: %v", err)
	}
	if err := svc.SetWebhooksEnabled(ctx, "not-a-shop", true); !errors.Is(err, ErrInvalidShopDomain) {
		t.Fatalf("bad domain: %v", err)
	}
}

func TestDisconnect_PurgesMirrors(t *testing.T) {
	db := newTestDB(t)
	svc := &ConnectionService{DB: db}
	ctx := context.Background()

	if _, err := svc.Connect(ctx, testShop, ""); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if _, err := repo.UpsertProduct(ctx, db, &domain.Product{
		ShopDomain:       testShop,
		ShopifyID:        42,
		Title:            "Widget",
		UpdatedAtShopify: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("seed product: %v", err)
	}

	if err := svc.Disconnect(ctx, testShop); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if _, err := svc.Get(ctx, testShop); !errors.Is(err, ErrConnectionNotFound) {
		t.Fatalf("connection survived disconnect: %v", err)
	}
	var n int64
	db.Unscoped().Model(&domain.Product{}).Where("shop_domain = ?", testShop).Count(&n)
	if n != 0 {
		t.Fatalf("mirrors survived disconnect: %d rows", n)
	}

	if err := svc.Disconnect(ctx, testShop); !errors.Is(err, ErrConnectionNotFound) {
		t.Fatalf("second disconnect: %v", err)
	}
}
