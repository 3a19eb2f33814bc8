// Store connection HTTP handlers.
//
// This file exposes REST endpoints for the Shopify integration lifecycle:
//   - POST   /integrations/shopify/connect          (register a store)
//   - POST   /integrations/shopify/webhooks/enable  (toggle ingestion)
//   - DELETE /integrations/shopify/disconnect       (remove store + purge data)
//
// The connect response is the only place the webhook secret ever leaves the
// server; the router marks these routes no-store for that reason.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-shopify-backend/internal/services"
)

//
// DTOs
//

// ConnectShopRequest is the JSON payload for connecting a store.
type ConnectShopRequest struct {
	// StoreURL is the store address, with or without scheme.
	StoreURL string `json:"store_url" binding:"required" example:"https://demo.myshopify.com"`
	// AccessToken is the Admin API token used for future API calls.
	AccessToken string `json:"access_token" example:"shpat_xxx"`
}

// ToggleWebhooksRequest is the JSON payload for enabling or disabling
// webhook ingestion. Enabled defaults to true when omitted.
type ToggleWebhooksRequest struct {
	ShopDomain string `json:"shop_domain" binding:"required" example:"demo.myshopify.com"`
	Enabled    *bool  `json:"enabled" example:"true"`
}

// DisconnectShopRequest is the JSON payload for disconnecting a store.
type DisconnectShopRequest struct {
	ShopDomain string `json:"shop_domain" binding:"required" example:"demo.myshopify.com"`
}

// ConnectShop godoc
// @ID          connectShop
// @Summary     Connect a Shopify store
// @Description Registers the store, mints its webhook signing secret, and enables ingestion. The secret is returned exactly once; configure it in Shopify's webhook subscriptions.
// @Tags        Integrations
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.ConnectShopRequest  true  "Store credentials"
//
// @Success     201  {object}  services.ConnectResult
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid store URL"
// @Failure     409  {object}  handlers.ErrorResponse  "Store already connected"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /integrations/shopify/connect [post]
func (h *Handlers) ConnectShop(c *gin.Context) {
	var req ConnectShopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	res, err := h.connSvc.Connect(c.Request.Context(), req.StoreURL, req.AccessToken)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidShopDomain):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		case errors.Is(err, services.ErrAlreadyConnected):
			fail(c, http.StatusConflict, ErrCodeConflict, "shop already connected")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeConnectFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, res)
}

// ToggleWebhooks godoc
// @ID          toggleWebhooks
// @Summary     Enable or disable webhook ingestion
// @Description Toggles whether verified deliveries from the shop are processed. While disabled, deliveries are rejected with 401 and logged.
// @Tags        Integrations
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.ToggleWebhooksRequest  true  "Toggle payload"
//
// @Success     200  {object}  map[string]any
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Shop not connected"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /integrations/shopify/webhooks/enable [post]
func (h *Handlers) ToggleWebhooks(c *gin.Context) {
	var req ToggleWebhooksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	err := h.connSvc.SetWebhooksEnabled(c.Request.Context(), req.ShopDomain, enabled)
	switch {
	case errors.Is(err, services.ErrInvalidShopDomain):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrConnectionNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "shop not connected")
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	default:
		ok(c, http.StatusOK, gin.H{"shop_domain": req.ShopDomain, "webhooks_enabled": enabled})
	}
}

// DisconnectShop godoc
// @ID          disconnectShop
// @Summary     Disconnect a Shopify store
// @Description Removes the connection and hard-deletes the shop's mirrored commerce data. Delivery log rows are retained for audit.
// @Tags        Integrations
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.DisconnectShopRequest  true  "Disconnect payload"
//
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Shop not connected"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /integrations/shopify/disconnect [delete]
func (h *Handlers) DisconnectShop(c *gin.Context) {
	var req DisconnectShopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	err := h.connSvc.Disconnect(c.Request.Context(), req.ShopDomain)
	switch {
	case errors.Is(err, services.ErrInvalidShopDomain):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrConnectionNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "shop not connected")
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	default:
		noContent(c)
	}
}
