// Package services – ConnectionService
//
// This file manages Shopify store connections: connecting a store (which
// mints the per-shop webhook secret the HMAC verifier depends on), toggling
// ingestion, and disconnecting (which purges the mirrored commerce data).
// Secret rotation is deliberately out of scope: rotate by disconnecting and
// reconnecting.
package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-shopify-backend/internal/domain"
	"github.com/tbourn/go-shopify-backend/internal/repo"
)

// ConnectionService provides connect/disconnect/toggle operations.
type ConnectionService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// ConnectResult is returned on a successful connect. The webhook secret is
// surfaced exactly once, here, so the operator can configure Shopify's
// webhook subscriptions; afterwards it lives only on the connection row.
type ConnectResult struct {
	Connection    *domain.ShopConnection `json:"connection"`
	WebhookSecret string                 `json:"webhook_secret"`
}

// Connect registers a store by URL (with or without scheme), generates its
// webhook secret, and enables ingestion. The shop domain must be a
// *.myshopify.com host.
func (s *ConnectionService) Connect(ctx context.Context, storeURL, accessToken string) (*ConnectResult, error) {
	shopDomain, err := NormalizeShopDomain(storeURL)
	if err != nil {
		return nil, err
	}

	secret, err := newWebhookSecret()
	if err != nil {
		return nil, err
	}

	conn, err := repo.CreateConnection(ctx, s.DB, shopDomain, storeURL, strings.TrimSpace(accessToken), secret)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrAlreadyConnected
		}
		return nil, err
	}
	if err := repo.SetWebhooksEnabled(ctx, s.DB, shopDomain, true); err != nil {
		return nil, err
	}
	conn.WebhooksEnabled = true

	return &ConnectResult{Connection: conn, WebhookSecret: secret}, nil
}

// Get fetches the connection for shopDomain.
func (s *ConnectionService) Get(ctx context.Context, shopDomain string) (*domain.ShopConnection, error) {
	shopDomain, err := NormalizeShopDomain(shopDomain)
	if err != nil {
		return nil, err
	}
	conn, err := repo.GetConnectionByDomain(ctx, s.DB, shopDomain)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrConnectionNotFound
	}
	return conn, err
}

// SetWebhooksEnabled toggles ingestion for shopDomain.
func (s *ConnectionService) SetWebhooksEnabled(ctx context.Context, shopDomain string, enabled bool) error {
	shopDomain, err := NormalizeShopDomain(shopDomain)
	if err != nil {
		return err
	}
	err = repo.SetWebhooksEnabled(ctx, s.DB, shopDomain, enabled)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrConnectionNotFound
	}
	return err
}

// Disconnect removes the connection and hard-deletes the shop's mirrored
// commerce entities. The webhook delivery log is retained.
func (s *ConnectionService) Disconnect(ctx context.Context, shopDomain string) error {
	shopDomain, err := NormalizeShopDomain(shopDomain)
	if err != nil {
		return err
	}
	if err := repo.DeleteConnection(ctx, s.DB, shopDomain); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrConnectionNotFound
		}
		return err
	}
	return repo.PurgeShopData(ctx, s.DB, shopDomain)
}

// NormalizeShopDomain extracts the canonical lowercase *.myshopify.com host
// from a store URL or bare domain.
func NormalizeShopDomain(raw string) (string, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return "", ErrInvalidShopDomain
	}
	host := raw
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			return "", fmt.Errorf("%w: %q", ErrInvalidShopDomain, raw)
		}
		host = u.Host
	}
	host = strings.TrimSuffix(strings.Split(host, "/")[0], ".")
	if !strings.HasSuffix(host, ".myshopify.com") || strings.Count(host, ".") != 2 {
		return "", fmt.Errorf("%w: %q", ErrInvalidShopDomain, raw)
	}
	if strings.TrimSuffix(host, ".myshopify.com") == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidShopDomain, raw)
	}
	return host, nil
}

// newWebhookSecret mints a 256-bit hex secret.
func newWebhookSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
