package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-shopify-backend/internal/repo"
	"github.com/tbourn/go-shopify-backend/internal/services"
	"github.com/tbourn/go-shopify-backend/internal/shopify"
)

const (
	testShop   = "demo.myshopify.com"
	testSecret = "handler-test-secret"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newHandlerEnv wires real services over a fresh in-memory database onto a
// bare router carrying the same routes the production router registers.
func newHandlerEnv(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	alertSvc := services.NewAlertService(db, nil)
	h := New(
		services.NewWebhookService(db, alertSvc),
		alertSvc,
		&services.DeliveryService{DB: db},
		&services.ConnectionService{DB: db},
		services.NewIdempotencyService(db, 24*time.Hour),
	)

	r := gin.New()
	api := r.Group("/api")
	api.POST("/webhooks/shopify/:group", h.ReceiveWebhook)
	api.GET("/webhooks/shopify/logs", h.ListWebhookLogs)
	api.GET("/ecommerce/inventory-alerts", h.GetInventoryAlerts)
	api.POST("/ecommerce/inventory-alerts", h.CreateInventoryAlert)
	api.PATCH("/ecommerce/inventory-alerts/:id", h.UpdateInventoryAlert)
	api.DELETE("/ecommerce/inventory-alerts/:id", h.DeleteInventoryAlert)
	api.POST("/integrations/shopify/connect", h.ConnectShop)
	api.POST("/integrations/shopify/webhooks/enable", h.ToggleWebhooks)
	api.DELETE("/integrations/shopify/disconnect", h.DisconnectShop)
	return r, db
}

// connectTestShop seeds an enabled connection with the shared test secret.
func connectTestShop(t *testing.T, db *gorm.DB) {
	t.Helper()
	ctx := context.Background()
	if _, err := repo.CreateConnection(ctx, db, testShop, "https://"+testShop, "", testSecret); err != nil {
		t.Fatalf("seed connection: %v", err)
	}
	if err := repo.SetWebhooksEnabled(ctx, db, testShop, true); err != nil {
		t.Fatalf("enable webhooks: %v", err)
	}
}

// doJSON performs a request with an optional JSON body and returns the recorder.
func doJSON(r *gin.Engine, method, path string, body any, hdr map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// postWebhook delivers a signed webhook body through the router.
func postWebhook(r *gin.Engine, group, topic, webhookID string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/shopify/"+group, bytes.NewReader(body))
	req.Header.Set(shopify.HeaderShopDomain, testShop)
	req.Header.Set(shopify.HeaderTopic, topic)
	req.Header.Set(shopify.HeaderWebhookID, webhookID)
	req.Header.Set(shopify.HeaderHmacSHA256, shopify.ComputeHMAC(testSecret, body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
