// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, identity, idempotency, and rate
// limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/roomie-mart-backend/docs"
	"github.com/tbourn/roomie-mart-backend/internal/config"
	"github.com/tbourn/roomie-mart-backend/internal/domain"
	"github.com/tbourn/roomie-mart-backend/internal/events"
	"github.com/tbourn/roomie-mart-backend/internal/http/handlers"
	"github.com/tbourn/roomie-mart-backend/internal/http/middleware"
	"github.com/tbourn/roomie-mart-backend/internal/repo"
	"github.com/tbourn/roomie-mart-backend/internal/services"
)

// Deps carries the infrastructure RegisterRoutes wires into the services.
type Deps struct {
	DB *gorm.DB
	// Events receives domain events; nil disables them.
	Events events.Publisher
	// Redis, when set, backs the shared rate limiter instead of the
	// in-memory one.
	Redis redis.Cmdable
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), identity,
// idempotency and rate limiting, CORS and security headers, health, metrics
// and docs endpoints, and then mounts the marketplace under API_BASE_PATH.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Gzip responses
//  8. CORS and Security headers
//  9. Identity: resolve the caller (bearer JWT or trusted header)
//  10. Idempotency validator (before rate limiter to allow bypass on replay)
//  11. Rate limiter (per user/IP, bypass on replay)
func RegisterRoutes(r *gin.Engine, d Deps, cfg config.Config) {
	db := d.DB
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{middleware.HeaderUserID},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Compress responses; bills and listings are text-heavy
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 8) CORS posture and security headers
	useCORS(r, cfg.CORS.AllowedOrigins)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:      cfg.Security.EnableHSTS,
		HSTSMaxAge:      cfg.Security.HSTSMaxAge,
		PrivatePrefixes: privatePrefixes(cfg.APIBasePath),
	}))

	// 9) Identity; verified profile claims refresh the display cache
	r.Use(middleware.Identity(middleware.IdentityOptions{
		Secret:      []byte(cfg.JWTSecret),
		AllowHeader: cfg.AuthAllowHeader,
		OnIdentity: func(ctx context.Context, c *middleware.Claims) error {
			return repo.UpsertUser(ctx, db, &domain.User{
				ID:     c.Subject,
				Name:   c.Name,
				Email:  c.Email,
				Phone:  c.Phone,
				Hostel: c.Hostel,
				Block:  c.Block,
				Room:   c.Room,
			})
		},
	}))

	// 10) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 11) Rate limiter per user/IP: shared when Redis is configured
	if d.Redis != nil {
		rl := middleware.NewSharedRateLimiter(middleware.RedisCounter{Client: d.Redis},
			cfg.RateRPS, cfg.RateBurst, cfg.Redis.Window, middleware.KeyByUserOrIP())
		r.Use(rl.Handler())
	} else {
		rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
		r.Use(rl.Handler())
	}

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API docs
	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/events
	notify := services.NewNotifier(db, d.Events, cfg.EventTopicPrefix)
	catalog := services.NewCatalogService(db)
	catalog.TitleMaxLen = cfg.TitleMaxLen
	orders := &services.OrderService{DB: db, Currency: cfg.BillCurrency}
	requests := services.NewRequestService(db, orders, notify)
	h := handlers.New(handlers.Deps{
		Catalog:        catalog,
		Requests:       requests,
		Payments:       &services.PaymentService{DB: db, Requests: requests, Notify: notify},
		Orders:         orders,
		Messages:       &services.MessagingService{DB: db, MaxContentRunes: 2000},
		Feedback:       &services.FeedbackService{DB: db},
		DB:             db,
		IdempotencyTTL: cfg.IdempotencyTTL,
		BasePath:       cfg.APIBasePath,
	})

	base := groupWithPrefix(r, cfg.APIBasePath)

	// Public catalog (identity optional)
	base.GET("/items", h.ListItems)
	base.GET("/items/search", h.SearchItems)
	base.GET("/items/:id", h.GetItem)
	base.GET("/sellers/:sellerId/feedback", h.ListSellerFeedback)

	api := base.Group("", middleware.RequireIdentity())
	{
		// Catalog owner operations
		api.GET("/items/mine", h.ListMyItems)
		api.POST("/items", h.CreateItem)
		api.PUT("/items/:id", h.UpdateItem)
		api.DELETE("/items/:id", h.DeleteItem)
		api.POST("/items/:id/mark_sold", h.MarkItemSold)

		// Requests
		api.POST("/requests/create/:itemId", h.CreateRequest)
		api.GET("/requests", h.ListIncomingRequests)
		api.GET("/requests/my_requests", h.ListMyRequests)
		api.GET("/requests/pending_count", h.PendingRequestCount)
		api.POST("/requests/accept/:requestId", h.AcceptRequest)
		api.POST("/requests/decline/:requestId", h.DeclineRequest)

		// Orders and payments
		api.POST("/orders/buy/:itemId", h.BuyItem)
		api.GET("/orders/pay/:requestId", h.CheckoutView)
		api.POST("/orders/pay/:requestId", h.PayRequest)
		api.GET("/orders/my_orders", h.ListMyOrders)
		api.GET("/orders/sales_history", h.ListSales)
		api.GET("/orders/:orderId", h.GetOrder)
		api.GET("/orders/:orderId/download", h.DownloadBill)
		api.POST("/orders/:orderId/feedback", h.LeaveFeedback)

		// Messages
		api.POST("/send_message", h.SendMessage)
		api.GET("/unread_count", h.UnreadCount)
		api.GET("/messages", h.Inbox)
		api.POST("/messages/:id/read", h.MarkMessageRead)
		api.GET("/conversation/:itemId/:otherUserId", h.Conversation)
	}
}

// useCORS installs gin-contrib/cors. With no allowlist every origin is
// allowed without credentials.
func useCORS(r *gin.Engine, origins []string) {
	allowHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", middleware.HeaderUserID, middleware.HeaderIdempotencyKey}
	exposeHeaders := []string{"X-Request-ID", "Content-Length", "Location", "ETag", "Idempotency-Replayed"}
	methods := []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}

	if len(origins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     methods,
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
		return
	}

	// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
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
		AllowOrigins:     origins,
		AllowMethods:     methods,
		AllowHeaders:     allowHeaders,
		ExposeHeaders:    exposeHeaders,
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
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

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
// privatePrefixes lists the route trees that serve one user's own data.
func privatePrefixes(base string) []string {
	base = strings.TrimSuffix(base, "/")
	out := []string{}
	for _, p := range []string{"/items/mine", "/requests", "/orders", "/messages", "/conversation", "/unread_count"} {
		out = append(out, base+p)
	}
	return out
}

func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
