// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - The webhook intake must never be throttled or gzipped: Shopify treats
//     anything but a fast 2xx as a delivery failure and retries
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-shopify-backend/internal/config"
	"github.com/tbourn/go-shopify-backend/internal/http/handlers"
	"github.com/tbourn/go-shopify-backend/internal/http/middleware"
	"github.com/tbourn/go-shopify-backend/internal/notify"
	"github.com/tbourn/go-shopify-backend/internal/services"
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII and signature scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter (webhook payload cap)
//  6. Metrics
//  7. CORS and Security headers
//  8. Dashboard group only: idempotency validator, then rate limiter
//     (validator first so replays bypass the limiter), then gzip
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction (HMAC signature masked built-in)
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit, sized for webhook payloads
	r.Use(limitBody(cfg.Webhook.MaxBodyBytes))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI (opt-in; serves generated docs from the docs package)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← db/config
	alertSvc := services.NewAlertService(db, &notify.LogNotifier{Log: log.Logger})
	webhookSvc := services.NewWebhookService(db, alertSvc)
	webhookSvc.DedupeWindow = cfg.Webhook.DedupeWindow
	webhookSvc.Timeout = cfg.Webhook.ProcessTimeout
	webhookSvc.MaxMessageLen = cfg.Webhook.MaxMessageLen
	deliverySvc := &services.DeliveryService{DB: db}
	connSvc := &services.ConnectionService{DB: db}
	idemSvc := services.NewIdempotencyService(db, cfg.IdempotencyTTL)
	h := handlers.New(webhookSvc, alertSvc, deliverySvc, connSvc, idemSvc)

	api := groupWithPrefix(r, cfg.APIBasePath)

	// Webhook intake: no rate limiting, no gzip, no idempotency header
	// handling (the pipeline dedupes on X-Shopify-Webhook-Id, falling back
	// to the payload identity when the header is absent).
	api.POST("/webhooks/shopify/:group", h.ReceiveWebhook)

	// Dashboard endpoints: idempotency validation (before rate limiting so
	// replays bypass the bucket), per shop/IP token buckets, gzip on reads.
	dash := api.Group("",
		middleware.IdempotencyValidator(
			middleware.IdempotencyOptions{Scope: "alerts:create", MaxLen: 200},
			func(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
				rec, err := idemSvc.Find(ctx, userID, scope, key, now)
				return err == nil && rec != nil, nil
			},
		),
		middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByShopOrIP()).Handler(),
		gzip.Gzip(gzip.DefaultCompression),
	)
	{
		// Delivery log viewer
		dash.GET("/webhooks/shopify/logs", h.ListWebhookLogs)

		// Inventory alerts
		dash.GET("/ecommerce/inventory-alerts", h.GetInventoryAlerts)
		dash.POST("/ecommerce/inventory-alerts", h.CreateInventoryAlert)
		dash.PATCH("/ecommerce/inventory-alerts/:id", h.UpdateInventoryAlert)
		dash.DELETE("/ecommerce/inventory-alerts/:id", h.DeleteInventoryAlert)

		// Store connection lifecycle; responses may carry the webhook secret,
		// so these are never cacheable.
		integ := dash.Group("/integrations/shopify", noStore())
		integ.POST("/connect", h.ConnectShop)
		integ.POST("/webhooks/enable", h.ToggleWebhooks)
		integ.DELETE("/disconnect", h.DisconnectShop)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// noStore marks responses as uncacheable.
func noStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Cache-Control", "no-store")
		h.Set("Pragma", "no-cache")
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
