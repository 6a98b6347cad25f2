// Package api wires together all HTTP routes for the event operations
// platform.
//
// Route grouping philosophy:
//   - /health, /ready, and /version are unauthenticated so load balancers
//     and deploy tooling can probe the service without credentials.
//   - /api/v1/auth/* is public but sits behind the stricter auth rate
//     limiter; everything else under /api/v1 requires authentication.
//   - /api/v1/admin/* additionally requires an admin-equivalent role.
//
// Authenticated routes run through the audit trail middleware, so every
// successful write lands in the audit log even when a handler does not
// record a domain-specific entry itself.
package api

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/eventlane/eventlane/internal/api/admin"
	"github.com/eventlane/eventlane/internal/api/events"
	"github.com/eventlane/eventlane/internal/api/session"
	"github.com/eventlane/eventlane/internal/api/sponsors"
	"github.com/eventlane/eventlane/internal/api/vendors"
	"github.com/eventlane/eventlane/internal/audit"
	"github.com/eventlane/eventlane/internal/config"
	"github.com/eventlane/eventlane/internal/db/repositories"
	"github.com/eventlane/eventlane/internal/jobs"
	"github.com/eventlane/eventlane/internal/middleware"
)

// BackgroundServices holds references to background jobs and resources that
// must be stopped during graceful shutdown. The caller (cmd/server) is
// responsible for calling Shutdown() when the process receives a termination
// signal.
type BackgroundServices struct {
	retentionSweeper *jobs.AuditRetentionSweeper
	rateLimiters     []middleware.Limiter
	shipper          *audit.MultiShipper
	redisClient      *redis.Client
}

// Shutdown stops all background goroutines. It should be called after the
// HTTP server has been shut down so that in-flight requests are drained
// first.
func (bg *BackgroundServices) Shutdown() {
	slog.Info("stopping background services")
	if bg.retentionSweeper != nil {
		bg.retentionSweeper.Stop()
	}
	for _, rl := range bg.rateLimiters {
		rl.Stop()
	}
	if bg.shipper != nil {
		if err := bg.shipper.Close(); err != nil {
			slog.Error("failed to close audit shippers", "error", err)
		}
	}
	if bg.redisClient != nil {
		if err := bg.redisClient.Close(); err != nil {
			slog.Error("failed to close redis client", "error", err)
		}
	}
	slog.Info("all background services stopped")
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, db *sql.DB) (*gin.Engine, *BackgroundServices) {
	router := gin.New()

	// Initialize repositories shared across middleware and jobs
	userRepo := repositories.NewUserRepository(db)
	apiKeyRepo := repositories.NewAPIKeyRepository(db)
	auditRepo := repositories.NewAuditRepository(db)

	// Wrap *sql.DB with sqlx for the stats rollup
	sqlxDB := sqlx.NewDb(db, "postgres")

	// Audit recorder with optional external shippers
	shipper, err := audit.NewMultiShipper(cfg.Audit.Shippers)
	if err != nil {
		log.Fatalf("Failed to initialize audit shippers: %v", err)
	}
	recorder := audit.NewRecorder(auditRepo, shipper)

	// Start the audit retention sweeper
	retentionSweeper := jobs.NewAuditRetentionSweeper(auditRepo, &cfg.Audit)
	go retentionSweeper.Start(context.Background())

	// Optional Redis backend for rate limiting; falls back to per-process
	// in-memory buckets when no address is configured.
	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		slog.Info("rate limiting backed by redis", "address", cfg.Redis.Address)
	}

	generalLimiter := middleware.NewLimiter(generalRateConfig(cfg), redisClient)
	authLimiter := middleware.NewLimiter(authRateConfig(cfg), redisClient)
	purchaseLimiter := middleware.NewLimiter(middleware.PurchaseRateLimitConfig(), redisClient)

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(LoggerMiddleware(cfg))
	router.Use(CORSMiddleware(cfg))
	router.Use(middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig()))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// Readiness check endpoint
	router.GET("/ready", readinessHandler(db))

	// API version
	router.GET("/version", versionHandler())

	// Initialize handlers
	sessionHandlers := session.NewHandlers(cfg, db, recorder)
	eventHandlers := events.NewHandlers(db, recorder)
	vendorHandlers := vendors.NewHandlers(db, recorder)
	sponsorHandlers := sponsors.NewHandlers(db, recorder)
	adminUserHandlers := admin.NewUserHandlers(db, recorder)
	adminAuditHandlers := admin.NewAuditHandlers(db)
	adminAPIKeyHandlers := admin.NewAPIKeyHandlers(db, recorder)
	adminSettingsHandlers := admin.NewSettingsHandlers(db, recorder)
	statsHandler := admin.NewStatsHandler(sqlxDB)

	apiV1 := router.Group("/api/v1")
	{
		// Public authentication endpoints (no auth required, but rate
		// limited more aggressively than the rest of the API)
		authGroup := apiV1.Group("/auth")
		if cfg.Security.RateLimiting.Enabled {
			authGroup.Use(middleware.RateLimitMiddleware(authLimiter, "auth", recorder))
		}
		{
			authGroup.POST("/signup", sessionHandlers.Signup)
			authGroup.POST("/login", sessionHandlers.Login)
			authGroup.POST("/password-reset/request", sessionHandlers.PasswordResetRequest)
			authGroup.POST("/password-reset/complete", sessionHandlers.PasswordResetComplete)
			authGroup.POST("/verify-email", sessionHandlers.VerifyEmail)
		}

		// Authenticated-only endpoints
		authenticatedGroup := apiV1.Group("")
		if cfg.Security.RateLimiting.Enabled {
			authenticatedGroup.Use(middleware.RateLimitMiddleware(generalLimiter, "general", recorder))
		}
		authenticatedGroup.Use(middleware.AuthMiddleware(userRepo, apiKeyRepo, recorder))
		authenticatedGroup.Use(middleware.AuditTrailMiddleware(recorder, &cfg.Audit))
		{
			authenticatedGroup.POST("/auth/logout", sessionHandlers.Logout)
			authenticatedGroup.GET("/auth/me", sessionHandlers.Me)

			// Events and their sub-resources. Ownership checks live in the
			// handlers: mutations require the organizer or an admin.
			eventsGroup := authenticatedGroup.Group("/events")
			{
				eventsGroup.POST("", eventHandlers.Create)
				eventsGroup.GET("", eventHandlers.List)
				eventsGroup.GET("/:id", eventHandlers.Get)
				eventsGroup.PUT("/:id", eventHandlers.Update)
				eventsGroup.DELETE("/:id", eventHandlers.Delete)
				eventsGroup.POST("/:id/transition", eventHandlers.Transition)
				eventsGroup.POST("/:id/publish", eventHandlers.Publish)

				eventsGroup.POST("/:id/vendors/:vendor_id", eventHandlers.AttachVendor)
				eventsGroup.DELETE("/:id/vendors/:vendor_id", eventHandlers.DetachVendor)
				eventsGroup.POST("/:id/sponsors/:sponsor_id", eventHandlers.AttachSponsor)
				eventsGroup.DELETE("/:id/sponsors/:sponsor_id", eventHandlers.DetachSponsor)

				eventsGroup.GET("/:id/volunteers", eventHandlers.ListEventVolunteers)
				eventsGroup.POST("/:id/volunteers/:volunteer_id", eventHandlers.AssignVolunteer)
				eventsGroup.DELETE("/:id/volunteers/:volunteer_id", eventHandlers.UnassignVolunteer)

				eventsGroup.POST("/:id/budget", eventHandlers.CreateBudgetItem)
				eventsGroup.GET("/:id/budget", eventHandlers.ListBudgetItems)
				eventsGroup.GET("/:id/budget/summary", eventHandlers.BudgetSummary)
				eventsGroup.PUT("/:id/budget/:item_id", eventHandlers.UpdateBudgetItem)
				eventsGroup.POST("/:id/budget/:item_id/transition", eventHandlers.TransitionBudgetItem)
				eventsGroup.DELETE("/:id/budget/:item_id", eventHandlers.DeleteBudgetItem)

				eventsGroup.POST("/:id/tickets", eventHandlers.CreateTicketType)
				eventsGroup.GET("/:id/tickets", eventHandlers.ListTicketTypes)
				eventsGroup.PUT("/:id/tickets/:ticket_id", eventHandlers.UpdateTicketType)
				eventsGroup.DELETE("/:id/tickets/:ticket_id", eventHandlers.DeleteTicketType)

				// Purchases carry their own stricter limiter to blunt
				// inventory-draining bursts.
				purchase := eventsGroup.Group("")
				if cfg.Security.RateLimiting.Enabled {
					purchase.Use(middleware.RateLimitMiddleware(purchaseLimiter, "purchase", recorder))
				}
				purchase.POST("/:id/tickets/:ticket_id/purchase", eventHandlers.PurchaseTickets)
			}

			// Vendor and sponsor registries
			vendorsGroup := authenticatedGroup.Group("/vendors")
			{
				vendorsGroup.POST("", vendorHandlers.Register)
				vendorsGroup.GET("", vendorHandlers.List)
				vendorsGroup.GET("/:id", vendorHandlers.Get)
				vendorsGroup.PUT("/:id", vendorHandlers.Update)
			}
			sponsorsGroup := authenticatedGroup.Group("/sponsors")
			{
				sponsorsGroup.POST("", sponsorHandlers.Register)
				sponsorsGroup.GET("", sponsorHandlers.List)
				sponsorsGroup.GET("/:id", sponsorHandlers.Get)
				sponsorsGroup.PUT("/:id", sponsorHandlers.Update)
			}

			// Volunteer signups
			authenticatedGroup.POST("/volunteers", eventHandlers.CreateVolunteer)
			authenticatedGroup.GET("/volunteers", eventHandlers.ListVolunteers)

			// Admin endpoints (admin or superadmin role)
			adminGroup := authenticatedGroup.Group("/admin")
			adminGroup.Use(middleware.RequireAdmin(recorder))
			{
				adminGroup.GET("/stats", statsHandler.Dashboard)

				adminGroup.GET("/users", adminUserHandlers.List)
				adminGroup.POST("/users", adminUserHandlers.Create)
				adminGroup.GET("/users/:id", adminUserHandlers.Get)
				adminGroup.DELETE("/users/:id", adminUserHandlers.Delete)
				adminGroup.PUT("/users/:id/role", adminUserHandlers.SetRole)
				adminGroup.POST("/users/:id/suspend", adminUserHandlers.Suspend)
				adminGroup.POST("/users/:id/unsuspend", adminUserHandlers.Unsuspend)

				adminGroup.GET("/audit", adminAuditHandlers.List)
				adminGroup.GET("/audit/stats", adminAuditHandlers.Stats)
				adminGroup.GET("/audit/security", adminAuditHandlers.SecurityEvents)

				adminGroup.POST("/apikeys", adminAPIKeyHandlers.Create)
				adminGroup.GET("/apikeys", adminAPIKeyHandlers.List)
				adminGroup.DELETE("/apikeys/:id", adminAPIKeyHandlers.Revoke)

				adminGroup.GET("/settings", adminSettingsHandlers.List)
				adminGroup.GET("/settings/:key", adminSettingsHandlers.Get)
				adminGroup.PUT("/settings/:key", adminSettingsHandlers.Set)
				adminGroup.DELETE("/settings/:key", adminSettingsHandlers.Delete)

				adminGroup.POST("/vendors/:id/approve", vendorHandlers.Approve)
				adminGroup.POST("/vendors/:id/reject", vendorHandlers.Reject)
				adminGroup.DELETE("/vendors/:id", vendorHandlers.Delete)
				adminGroup.POST("/sponsors/:id/approve", sponsorHandlers.Approve)
				adminGroup.POST("/sponsors/:id/reject", sponsorHandlers.Reject)
				adminGroup.DELETE("/sponsors/:id", sponsorHandlers.Delete)
			}
		}
	}

	return router, &BackgroundServices{
		retentionSweeper: retentionSweeper,
		rateLimiters:     []middleware.Limiter{generalLimiter, authLimiter, purchaseLimiter},
		shipper:          shipper,
		redisClient:      redisClient,
	}
}

// generalRateConfig applies the configured general limits over the defaults.
func generalRateConfig(cfg *config.Config) middleware.RateLimitConfig {
	rc := middleware.DefaultRateLimitConfig()
	if cfg.Security.RateLimiting.RequestsPerMinute > 0 {
		rc.RequestsPerMinute = cfg.Security.RateLimiting.RequestsPerMinute
	}
	if cfg.Security.RateLimiting.Burst > 0 {
		rc.BurstSize = cfg.Security.RateLimiting.Burst
	}
	return rc
}

// authRateConfig applies the configured auth limits over the defaults.
func authRateConfig(cfg *config.Config) middleware.RateLimitConfig {
	rc := middleware.AuthRateLimitConfig()
	if cfg.Security.RateLimiting.AuthRequestsPerMinute > 0 {
		rc.RequestsPerMinute = cfg.Security.RateLimiting.AuthRequestsPerMinute
	}
	if cfg.Security.RateLimiting.AuthBurst > 0 {
		rc.BurstSize = cfg.Security.RateLimiting.AuthBurst
	}
	return rc
}

// @Summary      Health check
// @Description  Returns the liveness of the service. Checks database connectivity.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status: healthy, time: RFC3339 timestamp"
// @Failure      503  {object}  map[string]interface{}  "status: unhealthy, error: database connection failed"
// @Router       /health [get]
// healthCheckHandler returns the health status of the service
func healthCheckHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// @Summary      Readiness check
// @Description  Returns whether the service is ready to accept traffic.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "ready: true, time: RFC3339 timestamp"
// @Failure      503  {object}  map[string]interface{}  "ready: false, error: database not ready"
// @Router       /ready [get]
// readinessHandler returns the readiness status of the service.
func readinessHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := gin.H{}

		if err := db.Ping(); err != nil {
			checks["database"] = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":  false,
				"checks": checks,
				"error":  "database not ready",
			})
			return
		}
		checks["database"] = "healthy"

		c.JSON(http.StatusOK, gin.H{
			"ready":  true,
			"checks": checks,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// @Summary      API version
// @Description  Returns the current API version.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "version, api_version"
// @Router       /version [get]
// versionHandler returns the API version
func versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":     "0.1.0",
			"api_version": "v1",
		})
	}
}

// LoggerMiddleware provides structured logging
func LoggerMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		if cfg.Logging.Format == "json" {
			logJSON(c, latency, path, query)
		} else {
			logText(c, latency, path, query)
		}
	}
}

// logJSON logs a request as a JSON-structured slog record.
func logJSON(c *gin.Context, latency time.Duration, path, query string) {
	requestID, _ := c.Get(middleware.RequestIDKey)
	slog.LogAttrs(
		c.Request.Context(),
		slog.LevelInfo,
		"http request",
		slog.String("method", c.Request.Method),
		slog.String("path", path),
		slog.String("query", query),
		slog.Int("status", c.Writer.Status()),
		slog.Int("size", c.Writer.Size()),
		slog.Duration("latency", latency),
		slog.String("ip", c.ClientIP()),
		slog.String("request_id", fmt.Sprintf("%v", requestID)),
		slog.String("user_agent", c.Request.UserAgent()),
	)
}

// logText logs a request as a human-readable slog text record.
func logText(c *gin.Context, latency time.Duration, path, query string) {
	// reuse the same structured output; slog will emit text format when the
	// global handler is a TextHandler (configured in telemetry.SetupLogger).
	logJSON(c, latency, path, query)
}

// CORSMiddleware handles CORS
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		allowed := false
		for _, allowedOrigin := range cfg.Security.CORS.AllowedOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed {
			if origin == "" {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
			}
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
