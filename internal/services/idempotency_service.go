// Package services – IdempotencyService
//
// This file backs safe retries of the dashboard's unsafe POST endpoints:
// handlers record the outcome of a mutation under the client's
// Idempotency-Key and re-serve it when the same key comes back within the
// configured TTL.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-shopify-backend/internal/domain"
	"github.com/tbourn/go-shopify-backend/internal/repo"
)

// IdempotencyService persists and recalls idempotency records keyed by
// (user, scope, key).
type IdempotencyService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// TTL bounds how long a recorded key stays replayable (default 24h).
	TTL time.Duration
}

// NewIdempotencyService constructs an IdempotencyService with the given TTL;
// non-positive values fall back to 24h.
func NewIdempotencyService(db *gorm.DB, ttl time.Duration) *IdempotencyService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyService{DB: db, TTL: ttl}
}

// Find returns the unexpired record for (userID, scope, key), or nil when
// none exists.
func (s *IdempotencyService) Find(ctx context.Context, userID, scope, key string, now time.Time) (*domain.Idempotency, error) {
	rec, err := repo.GetIdempotency(ctx, s.DB, userID, scope, key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	return rec, err
}

// Record stores the outcome of a completed mutation under (userID, scope,
// key) for the configured TTL. A concurrent duplicate insert is not an
// error; the first writer's record wins.
func (s *IdempotencyService) Record(ctx context.Context, userID, scope, key, resourceID string, status int) error {
	ttl := s.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	_, err := repo.CreateIdempotency(ctx, s.DB, userID, scope, key, resourceID, status, ttl)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	return err
}
