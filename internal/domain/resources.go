// Package domain defines the core persistence models for the application.
// This file holds the local mirrors of remote Shopify commerce entities.
//
// Every mirror row is keyed by (shop_domain, shopify_id), or the cart token
// for carts and checkouts, which Shopify identifies by token rather than a
// stable numeric id. Rows are upserted on webhook receipt with
// last-write-wins semantics on UpdatedAtShopify, soft-deleted on */delete
// topics, and purged only when the store disconnects.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Order mirrors a Shopify order. Monetary amounts are kept as the decimal
// strings Shopify sends; the dashboard formats them client-side.
type Order struct {
	ID                string         `json:"id"                 gorm:"type:char(36);primaryKey"`
	ShopDomain        string         `json:"shop_domain"        gorm:"type:varchar(255);not null;uniqueIndex:ux_orders_shop_remote,priority:1"`
	ShopifyID         int64          `json:"shopify_id"         gorm:"not null;uniqueIndex:ux_orders_shop_remote,priority:2"`
	Name              string         `json:"name"               gorm:"type:varchar(64)"`
	Email             string         `json:"email"              gorm:"type:varchar(255)"`
	TotalPrice        string         `json:"total_price"        gorm:"type:varchar(32)"`
	Currency          string         `json:"currency"           gorm:"type:varchar(8)"`
	FinancialStatus   string         `json:"financial_status"   gorm:"type:varchar(32)"`
	FulfillmentStatus string         `json:"fulfillment_status" gorm:"type:varchar(32)"`
	LineItemCount     int            `json:"line_item_count"    gorm:"not null;default:0"`
	CustomerShopifyID int64          `json:"customer_shopify_id"`
	UpdatedAtShopify  time.Time      `json:"updated_at_shopify" gorm:"not null;index"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `json:"-"                  gorm:"index"`
}

// TableName returns the database table name for Order.
func (Order) TableName() string { return "shopify_orders" }

// Cart mirrors an open Shopify cart, keyed by its token.
type Cart struct {
	ID               string         `json:"id"                 gorm:"type:char(36);primaryKey"`
	ShopDomain       string         `json:"shop_domain"        gorm:"type:varchar(255);not null;uniqueIndex:ux_carts_shop_token,priority:1"`
	Token            string         `json:"token"              gorm:"type:varchar(128);not null;uniqueIndex:ux_carts_shop_token,priority:2"`
	TotalPrice       string         `json:"total_price"        gorm:"type:varchar(32)"`
	Currency         string         `json:"currency"           gorm:"type:varchar(8)"`
	LineItemCount    int            `json:"line_item_count"    gorm:"not null;default:0"`
	UpdatedAtShopify time.Time      `json:"updated_at_shopify" gorm:"not null;index"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `json:"-"                  gorm:"index"`
}

// TableName returns the database table name for Cart.
func (Cart) TableName() string { return "shopify_carts" }

// Checkout mirrors an (often abandoned) Shopify checkout, keyed by token.
type Checkout struct {
	ID               string         `json:"id"                  gorm:"type:char(36);primaryKey"`
	ShopDomain       string         `json:"shop_domain"         gorm:"type:varchar(255);not null;uniqueIndex:ux_checkouts_shop_token,priority:1"`
	Token            string         `json:"token"               gorm:"type:varchar(128);not null;uniqueIndex:ux_checkouts_shop_token,priority:2"`
	Email            string         `json:"email"               gorm:"type:varchar(255)"`
	TotalPrice       string         `json:"total_price"         gorm:"type:varchar(32)"`
	Currency         string         `json:"currency"            gorm:"type:varchar(8)"`
	AbandonedURL     string         `json:"abandoned_url"       gorm:"type:varchar(1024)"`
	CompletedAt      *time.Time     `json:"completed_at,omitempty"`
	UpdatedAtShopify time.Time      `json:"updated_at_shopify"  gorm:"not null;index"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `json:"-"                   gorm:"index"`
}

// TableName returns the database table name for Checkout.
func (Checkout) TableName() string { return "shopify_checkouts" }

// Customer mirrors a Shopify customer record.
type Customer struct {
	ID               string         `json:"id"                 gorm:"type:char(36);primaryKey"`
	ShopDomain       string         `json:"shop_domain"        gorm:"type:varchar(255);not null;uniqueIndex:ux_customers_shop_remote,priority:1"`
	ShopifyID        int64          `json:"shopify_id"         gorm:"not null;uniqueIndex:ux_customers_shop_remote,priority:2"`
	Email            string         `json:"email"              gorm:"type:varchar(255);index"`
	DisplayName      string         `json:"display_name"       gorm:"type:varchar(255)"`
	OrdersCount      int            `json:"orders_count"       gorm:"not null;default:0"`
	TotalSpent       string         `json:"total_spent"        gorm:"type:varchar(32)"`
	VerifiedEmail    bool           `json:"verified_email"     gorm:"not null;default:false"`
	UpdatedAtShopify time.Time      `json:"updated_at_shopify" gorm:"not null;index"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `json:"-"                  gorm:"index"`
}

// TableName returns the database table name for Customer.
func (Customer) TableName() string { return "shopify_customers" }

// Product mirrors a Shopify product. InventoryQuantity is the sum across
// variants as reported by the most recent payload; it feeds the inventory
// alert evaluator.
type Product struct {
	ID                string         `json:"id"                 gorm:"type:char(36);primaryKey"`
	ShopDomain        string         `json:"shop_domain"        gorm:"type:varchar(255);not null;uniqueIndex:ux_products_shop_remote,priority:1"`
	ShopifyID         int64          `json:"shopify_id"         gorm:"not null;uniqueIndex:ux_products_shop_remote,priority:2"`
	Title             string         `json:"title"              gorm:"type:varchar(255);not null"`
	Handle            string         `json:"handle"             gorm:"type:varchar(255)"`
	Vendor            string         `json:"vendor"             gorm:"type:varchar(255)"`
	Status            string         `json:"status"             gorm:"type:varchar(32)"`
	VariantCount      int            `json:"variant_count"      gorm:"not null;default:0"`
	InventoryQuantity int            `json:"inventory_quantity" gorm:"not null;default:0"`
	HasInventory      bool           `json:"has_inventory"      gorm:"not null;default:false"`
	UpdatedAtShopify  time.Time      `json:"updated_at_shopify" gorm:"not null;index"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `json:"-"                  gorm:"index"`
}

// TableName returns the database table name for Product.
func (Product) TableName() string { return "shopify_products" }

// Collection mirrors a Shopify custom or smart collection.
type Collection struct {
	ID               string         `json:"id"                 gorm:"type:char(36);primaryKey"`
	ShopDomain       string         `json:"shop_domain"        gorm:"type:varchar(255);not null;uniqueIndex:ux_collections_shop_remote,priority:1"`
	ShopifyID        int64          `json:"shopify_id"         gorm:"not null;uniqueIndex:ux_collections_shop_remote,priority:2"`
	Title            string         `json:"title"              gorm:"type:varchar(255);not null"`
	Handle           string         `json:"handle"             gorm:"type:varchar(255)"`
	SortOrder        string         `json:"sort_order"         gorm:"type:varchar(32)"`
	UpdatedAtShopify time.Time      `json:"updated_at_shopify" gorm:"not null;index"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `json:"-"                  gorm:"index"`
}

// TableName returns the database table name for Collection.
func (Collection) TableName() string { return "shopify_collections" }
