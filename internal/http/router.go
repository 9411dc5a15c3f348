// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, idempotency, and rate limiting.
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
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbourn/go-assistant-backend/internal/config"
	"github.com/tbourn/go-assistant-backend/internal/http/handlers"
	"github.com/tbourn/go-assistant-backend/internal/http/middleware"
	"github.com/tbourn/go-assistant-backend/internal/services"
)

// corsHeaders are the request headers browsers may send cross-origin.
var corsHeaders = []string{
	"Origin", "Content-Type", "Accept", "Authorization",
	middleware.HeaderChannel, middleware.HeaderUserID, middleware.HeaderIdempotencyKey,
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. AccessLog: request-scoped logger, one scrubbed line per request
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Gzip responses
//  8. Identity headers
//  9. Idempotency validator (before rate limiter to allow bypass on replay)
//  10. Rate limiter (per sender or IP, bypass on replay)
//  11. CORS and Security headers
func RegisterRoutes(r *gin.Engine, suite *services.Suite, provider handlers.ProviderAdmin, cfg config.Config, log zerolog.Logger) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured access log with redaction
	r.Use(middleware.AccessLog(log, middleware.RedactOptions{}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Compress large list responses
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 8) Sender identity
	r.Use(middleware.Identity())

	// 9) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, channel, userID, key string, now time.Time) (bool, error) {
			return suite.Interactions.Seen(ctx, channel, userID, key, now), nil
		},
	))

	// 10) Token-bucket rate limiter per sender/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyBySenderOrIP())
	r.Use(rl.Handler())

	// 11) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "ETag", "Idempotency-Replayed", "Content-Length"},
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
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "ETag", "Idempotency-Replayed", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS: cfg.Security.EnableHSTS,
		HSTSMaxAge: cfg.Security.HSTSMaxAge,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	h := handlers.New(handlers.Deps{
		Accounts:        suite.Accounts,
		Assistant:       suite.Assistant,
		Interactions:    suite.Interactions,
		Records:         suite.Records,
		Provider:        provider,
		SummaryDays:     cfg.Assistant.RecentWindowDays,
		MaxMessageRunes: cfg.Assistant.MaxMessageRunes,
	})

	// Liveness/readiness
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/ready", h.Ready)

	// API docs
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Messages
		api.POST("/messages", h.PostMessage)
		api.GET("/messages", h.ListMessages)

		// Accounts
		api.POST("/accounts", h.RegisterAccount)
		api.GET("/accounts/me", h.GetMe)
		api.PATCH("/accounts/me", h.UpdateMe)

		// Records
		api.GET("/expenses", h.ListExpenses)
		api.GET("/reminders", h.ListReminders)
		api.POST("/reminders/:id/complete", h.CompleteReminder)
		api.GET("/summary", h.GetSummary)

		// Provider administration
		api.GET("/provider", h.GetProvider)
		api.PUT("/provider", h.SwitchProvider)
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

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
