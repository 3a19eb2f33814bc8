// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides idempotent upserts for the mirrored
// Shopify commerce entities.
//
// Concurrency contract: deliveries for the same remote resource may race, so
// every upsert is a conditional UPDATE guarded by updated_at_shopify and
// checked via RowsAffected. A payload that loses the timestamp comparison is
// a no-op (applied=false), which is what makes out-of-order delivery safe
// without row locks. Inserts that race resolve through the unique
// (shop_domain, remote key) index: the loser falls back to the conditional
// update path.
//
// */delete topics soft-delete rows, preserving referential history for
// reports and logs. A strictly newer upsert for a soft-deleted key
// resurrects it, since the remote end evidently considers the resource
// alive again.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-shopify-backend/internal/domain"
)

// upsertLWW performs the conditional-update-then-insert dance shared by all
// mirrored entities. assigns must contain every mutable column plus a
// "deleted_at": nil entry; where/args identify the row by its remote key.
// It returns applied=false when the stored row is at least as new as
// remoteUpdated.
func upsertLWW(ctx context.Context, db *gorm.DB, model any, create func(tx *gorm.DB) error, assigns map[string]any, remoteUpdated time.Time, where string, args ...any) (bool, error) {
	tx := db.WithContext(ctx)

	update := func() (int64, error) {
		res := tx.Model(model).Unscoped().
			Where(where, args...).
			Where("updated_at_shopify < ?", remoteUpdated).
			Updates(assigns)
		return res.RowsAffected, res.Error
	}

	n, err := update()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}

	// No row won the timestamp comparison: either the stored row is newer
	// (stale payload, no-op) or the row does not exist yet.
	var count int64
	if err := tx.Model(model).Unscoped().Where(where, args...).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	if err := create(tx); err != nil {
		if isUniqueViolation(err) {
			// Lost an insert race; the winner's row now gates the update.
			n, err = update()
			if err != nil {
				return false, err
			}
			return n > 0, nil
		}
		return false, err
	}
	return true, nil
}

// UpsertOrder inserts or last-write-wins-updates the mirror row for o,
// keyed by (shop_domain, shopify_id). Reports whether the payload was
// applied (false = stale no-op).
func UpsertOrder(ctx context.Context, db *gorm.DB, o *domain.Order) (bool, error) {
	assigns := map[string]any{
		"name":                o.Name,
		"email":               o.Email,
		"total_price":         o.TotalPrice,
		"currency":            o.Currency,
		"financial_status":    o.FinancialStatus,
		"fulfillment_status":  o.FulfillmentStatus,
		"line_item_count":     o.LineItemCount,
		"customer_shopify_id": o.CustomerShopifyID,
		"updated_at_shopify":  o.UpdatedAtShopify,
		"deleted_at":          nil,
	}
	create := func(tx *gorm.DB) error {
		o.ID = uuid.NewString()
		return tx.Create(o).Error
	}
	return upsertLWW(ctx, db, &domain.Order{}, create, assigns, o.UpdatedAtShopify,
		"shop_domain = ? AND shopify_id = ?", o.ShopDomain, o.ShopifyID)
}

// UpsertCart inserts or updates the mirror row for c, keyed by
// (shop_domain, token).
func UpsertCart(ctx context.Context, db *gorm.DB, c *domain.Cart) (bool, error) {
	assigns := map[string]any{
		"total_price":        c.TotalPrice,
		"currency":           c.Currency,
		"line_item_count":    c.LineItemCount,
		"updated_at_shopify": c.UpdatedAtShopify,
		"deleted_at":         nil,
	}
	create := func(tx *gorm.DB) error {
		c.ID = uuid.NewString()
		return tx.Create(c).Error
	}
	return upsertLWW(ctx, db, &domain.Cart{}, create, assigns, c.UpdatedAtShopify,
		"shop_domain = ? AND token = ?", c.ShopDomain, c.Token)
}

// UpsertCheckout inserts or updates the mirror row for c, keyed by
// (shop_domain, token).
func UpsertCheckout(ctx context.Context, db *gorm.DB, c *domain.Checkout) (bool, error) {
	assigns := map[string]any{
		"email":              c.Email,
		"total_price":        c.TotalPrice,
		"currency":           c.Currency,
		"abandoned_url":      c.AbandonedURL,
		"completed_at":       c.CompletedAt,
		"updated_at_shopify": c.UpdatedAtShopify,
		"deleted_at":         nil,
	}
	create := func(tx *gorm.DB) error {
		c.ID = uuid.NewString()
		return tx.Create(c).Error
	}
	return upsertLWW(ctx, db, &domain.Checkout{}, create, assigns, c.UpdatedAtShopify,
		"shop_domain = ? AND token = ?", c.ShopDomain, c.Token)
}

// UpsertCustomer inserts or updates the mirror row for c, keyed by
// (shop_domain, shopify_id).
func UpsertCustomer(ctx context.Context, db *gorm.DB, c *domain.Customer) (bool, error) {
	assigns := map[string]any{
		"email":              c.Email,
		"display_name":       c.DisplayName,
		"orders_count":       c.OrdersCount,
		"total_spent":        c.TotalSpent,
		"verified_email":     c.VerifiedEmail,
		"updated_at_shopify": c.UpdatedAtShopify,
		"deleted_at":         nil,
	}
	create := func(tx *gorm.DB) error {
		c.ID = uuid.NewString()
		return tx.Create(c).Error
	}
	return upsertLWW(ctx, db, &domain.Customer{}, create, assigns, c.UpdatedAtShopify,
		"shop_domain = ? AND shopify_id = ?", c.ShopDomain, c.ShopifyID)
}

// UpsertProduct inserts or updates the mirror row for p, keyed by
// (shop_domain, shopify_id). The caller feeds applied=true results with
// inventory data into the alert evaluator.
func UpsertProduct(ctx context.Context, db *gorm.DB, p *domain.Product) (bool, error) {
	assigns := map[string]any{
		"title":              p.Title,
		"handle":             p.Handle,
		"vendor":             p.Vendor,
		"status":             p.Status,
		"variant_count":      p.VariantCount,
		"inventory_quantity": p.InventoryQuantity,
		"has_inventory":      p.HasInventory,
		"updated_at_shopify": p.UpdatedAtShopify,
		"deleted_at":         nil,
	}
	create := func(tx *gorm.DB) error {
		p.ID = uuid.NewString()
		return tx.Create(p).Error
	}
	return upsertLWW(ctx, db, &domain.Product{}, create, assigns, p.UpdatedAtShopify,
		"shop_domain = ? AND shopify_id = ?", p.ShopDomain, p.ShopifyID)
}

// UpsertCollection inserts or updates the mirror row for c, keyed by
// (shop_domain, shopify_id).
func UpsertCollection(ctx context.Context, db *gorm.DB, c *domain.Collection) (bool, error) {
	assigns := map[string]any{
		"title":              c.Title,
		"handle":             c.Handle,
		"sort_order":         c.SortOrder,
		"updated_at_shopify": c.UpdatedAtShopify,
		"deleted_at":         nil,
	}
	create := func(tx *gorm.DB) error {
		c.ID = uuid.NewString()
		return tx.Create(c).Error
	}
	return upsertLWW(ctx, db, &domain.Collection{}, create, assigns, c.UpdatedAtShopify,
		"shop_domain = ? AND shopify_id = ?", c.ShopDomain, c.ShopifyID)
}

// markDeleted soft-deletes the row identified by where/args. A missing row
// is a successful no-op: delete webhooks may arrive for resources this
// mirror never saw.
func markDeleted(ctx context.Context, db *gorm.DB, model any, where string, args ...any) error {
	return db.WithContext(ctx).Where(where, args...).Delete(model).Error
}

// MarkOrderDeleted soft-deletes an order mirror row.
func MarkOrderDeleted(ctx context.Context, db *gorm.DB, shopDomain string, shopifyID int64) error {
	return markDeleted(ctx, db, &domain.Order{}, "shop_domain = ? AND shopify_id = ?", shopDomain, shopifyID)
}

// MarkCartDeleted soft-deletes a cart mirror row by token.
func MarkCartDeleted(ctx context.Context, db *gorm.DB, shopDomain, token string) error {
	return markDeleted(ctx, db, &domain.Cart{}, "shop_domain = ? AND token = ?", shopDomain, token)
}

// MarkCheckoutDeleted soft-deletes a checkout mirror row by token.
func MarkCheckoutDeleted(ctx context.Context, db *gorm.DB, shopDomain, token string) error {
	return markDeleted(ctx, db, &domain.Checkout{}, "shop_domain = ? AND token = ?", shopDomain, token)
}

// MarkCustomerDeleted soft-deletes a customer mirror row.
func MarkCustomerDeleted(ctx context.Context, db *gorm.DB, shopDomain string, shopifyID int64) error {
	return markDeleted(ctx, db, &domain.Customer{}, "shop_domain = ? AND shopify_id = ?", shopDomain, shopifyID)
}

// MarkProductDeleted soft-deletes a product mirror row.
func MarkProductDeleted(ctx context.Context, db *gorm.DB, shopDomain string, shopifyID int64) error {
	return markDeleted(ctx, db, &domain.Product{}, "shop_domain = ? AND shopify_id = ?", shopDomain, shopifyID)
}

// MarkCollectionDeleted soft-deletes a collection mirror row.
func MarkCollectionDeleted(ctx context.Context, db *gorm.DB, shopDomain string, shopifyID int64) error {
	return markDeleted(ctx, db, &domain.Collection{}, "shop_domain = ? AND shopify_id = ?", shopDomain, shopifyID)
}

// GetOrder fetches a non-deleted order mirror row by remote key, or
// ErrNotFound.
func GetOrder(ctx context.Context, db *gorm.DB, shopDomain string, shopifyID int64) (*domain.Order, error) {
	var o domain.Order
	err := db.WithContext(ctx).
		Where("shop_domain = ? AND shopify_id = ?", shopDomain, shopifyID).
		First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// GetProduct fetches a non-deleted product mirror row by remote key, or
// ErrNotFound.
func GetProduct(ctx context.Context, db *gorm.DB, shopDomain string, shopifyID int64) (*domain.Product, error) {
	var p domain.Product
	err := db.WithContext(ctx).
		Where("shop_domain = ? AND shopify_id = ?", shopDomain, shopifyID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}
