// Package services defines the business logic for webhook ingestion, shop
// connections, inventory alerts, and the delivery log. This file centralizes
// common service-level error values so that they can be consistently
// returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler/controller layer.
package services

import "errors"

// Webhook ingestion errors.
var (
	// ErrUnknownShop indicates that no connection exists for the shop domain
	// a delivery claims to come from. Without a connection there is no
	// secret, so the delivery cannot be authenticated (rejected, 401).
	ErrUnknownShop = errors.New("unknown shop domain")

	// ErrInvalidSignature indicates the HMAC signature did not match the raw
	// request body (rejected, 401).
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrWebhooksDisabled indicates the shop's ingestion switch is off;
	// deliveries are rejected until it is re-enabled.
	ErrWebhooksDisabled = errors.New("webhooks disabled for shop")
)

// Connection errors.
var (
	// ErrInvalidShopDomain is returned when a store URL does not yield a
	// usable *.myshopify.com shop domain.
	ErrInvalidShopDomain = errors.New("invalid shop domain")

	// ErrAlreadyConnected is returned when connecting a store that already
	// has a live connection.
	ErrAlreadyConnected = errors.New("store already connected")

	// ErrConnectionNotFound indicates that the requested connection does not
	// exist.
	ErrConnectionNotFound = errors.New("connection not found")
)

// Inventory alert errors.
var (
	// ErrAlertNotFound indicates that the requested alert does not exist.
	ErrAlertNotFound = errors.New("alert not found")

	// ErrInvalidThreshold is returned when an alert threshold is negative.
	ErrInvalidThreshold = errors.New("threshold must be zero or greater")

	// ErrInvalidAlertStatus is returned when a status edit is outside the
	// operator-settable set (active, paused). Triggered is pipeline-owned.
	ErrInvalidAlertStatus = errors.New("status must be active or paused")

	// ErrInvalidProduct is returned when an alert create request lacks a
	// product id.
	ErrInvalidProduct = errors.New("product id is required")
)
