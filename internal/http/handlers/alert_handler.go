// Inventory alert HTTP handlers.
//
// This file exposes REST endpoints for inventory alert resources:
//   - GET    /ecommerce/inventory-alerts        (overview: alerts + stats + history)
//   - POST   /ecommerce/inventory-alerts        (create, idempotent via Idempotency-Key)
//   - PATCH  /ecommerce/inventory-alerts/{id}   (edit threshold / pause / resume)
//   - DELETE /ecommerce/inventory-alerts/{id}   (remove)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses. Alert state transitions driven
// by stock levels belong to the webhook pipeline and are not reachable here.
package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-shopify-backend/internal/services"
)

// idemScopeAlerts namespaces Idempotency-Key values for alert creation.
const idemScopeAlerts = "alerts:create"

//
// DTOs
//

// CreateAlertRequest is the JSON payload for creating an inventory alert.
type CreateAlertRequest struct {
	// ShopDomain names the connected store the alert belongs to.
	ShopDomain string `json:"shop_domain" binding:"required" example:"demo.myshopify.com"`
	// ProductID is the Shopify product id to watch.
	ProductID int64 `json:"product_id" binding:"required" example:"632910392"`
	// ProductTitle optionally overrides the mirrored product title.
	ProductTitle string `json:"product_title" example:"IPod Nano - 8GB"`
	// Threshold triggers the alert when stock falls to or below it.
	Threshold int `json:"threshold" binding:"gte=0" example:"5"`
}

// UpdateAlertRequest is the JSON payload for editing an alert. Omitted
// fields are left unchanged.
type UpdateAlertRequest struct {
	Threshold *int    `json:"threshold" example:"10"`
	Status    *string `json:"status" example:"paused"`
}

// GetInventoryAlerts godoc
// @ID          getInventoryAlerts
// @Summary     Inventory alert overview
// @Description Returns all alerts, per-status counts, and recent trigger history for the dashboard page.
// @Tags        Alerts
// @Produce     json
//
// @Success     200  {object} services.AlertOverview
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /ecommerce/inventory-alerts [get]
func (h *Handlers) GetInventoryAlerts(c *gin.Context) {
	overview, err := h.alertSvc.Overview(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, overview)
}

// CreateInventoryAlert godoc
// @ID          createInventoryAlert
// @Summary     Create an inventory alert
// @Description Registers an alert that fires when the product's stock falls to or below the threshold. Safe to retry with an Idempotency-Key header.
// @Tags        Alerts
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false "Client-chosen key for safe retries"
// @Param       body             body    handlers.CreateAlertRequest  true  "Create alert payload"
//
// @Success     200  {object}  domain.InventoryAlert  "Replay of a previous create"
// @Success     201  {object}  domain.InventoryAlert
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /ecommerce/inventory-alerts [post]
func (h *Handlers) CreateInventoryAlert(c *gin.Context) {
	ctx := c.Request.Context()

	var req CreateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	currentUser := userID(c)

	// Idempotency (replay path): re-serve the previously created alert.
	idemKey, _ := middlewareGetIdempotencyKey(c)
	if idemKey != "" && h.idemStore != nil {
		if rec, err := h.idemStore.Find(ctx, currentUser, idemScopeAlerts, idemKey, time.Now().UTC()); err == nil && rec != nil {
			if prev, err2 := h.alertSvc.Get(ctx, rec.ResourceID); err2 == nil {
				c.Header("Idempotency-Replayed", "true")
				ok(c, http.StatusOK, prev)
				return
			}
		}
	}

	a, err := h.alertSvc.Create(ctx, req.ShopDomain, req.ProductID, req.ProductTitle, req.Threshold)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidProduct),
			errors.Is(err, services.ErrInvalidThreshold),
			errors.Is(err, services.ErrInvalidShopDomain):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		}
		return
	}

	// Idempotency (store path): best effort, TTL owned by the store.
	if idemKey != "" && h.idemStore != nil {
		_ = h.idemStore.Record(ctx, currentUser, idemScopeAlerts, idemKey, a.ID, http.StatusCreated)
	}

	ok(c, http.StatusCreated, a)
}

// UpdateInventoryAlert godoc
// @ID          updateInventoryAlert
// @Summary     Edit an inventory alert
// @Description Updates the threshold and/or status of an alert. Operators may only set "active" or "paused"; "triggered" is owned by the pipeline.
// @Tags        Alerts
// @Accept      json
// @Produce     json
//
// @Param       id    path  string  true  "Alert ID (UUID)"  format(uuid)
// @Param       body  body  handlers.UpdateAlertRequest  true  "Fields to change"
//
// @Success     200  {object}  domain.InventoryAlert
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Alert not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /ecommerce/inventory-alerts/{id} [patch]
func (h *Handlers) UpdateInventoryAlert(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "alert id must be a UUID")
		return
	}

	var req UpdateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if req.Threshold == nil && req.Status == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "nothing to update")
		return
	}

	a, err := h.alertSvc.Update(c.Request.Context(), id, services.AlertUpdate{
		Threshold: req.Threshold,
		Status:    req.Status,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAlertNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "alert not found")
		case errors.Is(err, services.ErrInvalidThreshold),
			errors.Is(err, services.ErrInvalidAlertStatus):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, a)
}

// DeleteInventoryAlert godoc
// @ID          deleteInventoryAlert
// @Summary     Delete an inventory alert
// @Description Removes an alert. Its trigger history rows are retained.
// @Tags        Alerts
// @Produce     json
//
// @Param       id  path  string  true  "Alert ID (UUID)"  format(uuid)
//
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Alert not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /ecommerce/inventory-alerts/{id} [delete]
func (h *Handlers) DeleteInventoryAlert(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "alert id must be a UUID")
		return
	}

	err := h.alertSvc.Delete(c.Request.Context(), id)
	switch {
	case errors.Is(err, services.ErrAlertNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "alert not found")
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	default:
		noContent(c)
	}
}

// middlewareGetIdempotencyKey extracts an idempotency key if an upstream
// validator stashed one; falling back to the raw header keeps the handler
// usable in tests that skip the middleware.
func middlewareGetIdempotencyKey(c *gin.Context) (string, bool) {
	if v, okKey := c.Get("idem.key"); okKey {
		if s, okStr := v.(string); okStr && s != "" {
			return s, true
		}
	}
	if h := strings.TrimSpace(c.GetHeader("Idempotency-Key")); h != "" {
		return h, true
	}
	return "", false
}
