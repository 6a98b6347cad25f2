// ratelimit.go provides Gin middleware that enforces per-client token-bucket
// rate limits, returning 429 responses when the configured requests-per-minute
// threshold is exceeded. Two backends implement the Limiter interface: an
// in-memory bucket for single-instance deployments and a Redis-backed limiter
// (redis_rate GCRA) for multi-instance deployments that need a shared budget.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"

	"github.com/eventlane/eventlane/internal/audit"
	"github.com/eventlane/eventlane/internal/telemetry"
)

// RateLimitConfig holds configuration for one rate limit tier.
type RateLimitConfig struct {
	// RequestsPerMinute is the sustained rate allowed per client key.
	RequestsPerMinute int
	// BurstSize is the maximum burst of requests allowed.
	BurstSize int
	// CleanupInterval is how often the in-memory backend evicts idle entries.
	CleanupInterval time.Duration
}

// DefaultRateLimitConfig returns the general API tier.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 200, // Higher limit for authenticated API usage
		BurstSize:         50,  // Allow burst for pages that load multiple resources
		CleanupInterval:   5 * time.Minute,
	}
}

// AuthRateLimitConfig returns the stricter tier applied to login and signup
// endpoints to slow credential stuffing.
func AuthRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 10,
		BurstSize:         5,
		CleanupInterval:   5 * time.Minute,
	}
}

// PurchaseRateLimitConfig returns the tier for ticket purchase endpoints.
func PurchaseRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 30,
		BurstSize:         10,
		CleanupInterval:   5 * time.Minute,
	}
}

// Limiter is the backend contract used by RateLimitMiddleware.
type Limiter interface {
	// Allow reports whether a request under key may proceed and how many
	// tokens remain for that key.
	Allow(ctx context.Context, key string) (ok bool, remaining int)
	// Limit returns the sustained requests-per-minute for response headers.
	Limit() int
	// Stop releases any background resources held by the backend.
	Stop()
}

// ---------------------------------------------------------------------------
// In-memory backend
// ---------------------------------------------------------------------------

// rateLimitEntry tracks the token balance for a single client key.
type rateLimitEntry struct {
	tokens     float64
	lastUpdate time.Time
}

// MemoryLimiter implements a token bucket limiter local to this process.
type MemoryLimiter struct {
	config  RateLimitConfig
	entries map[string]*rateLimitEntry
	mu      sync.Mutex
	stopCh  chan struct{}
}

// NewMemoryLimiter creates an in-memory limiter with the given config and
// starts its cleanup goroutine.
func NewMemoryLimiter(config RateLimitConfig) *MemoryLimiter {
	ml := &MemoryLimiter{
		config:  config,
		entries: make(map[string]*rateLimitEntry),
		stopCh:  make(chan struct{}),
	}

	go ml.cleanup()

	return ml
}

// cleanup periodically evicts keys that have been idle long enough to have
// refilled to full burst anyway.
func (ml *MemoryLimiter) cleanup() {
	ticker := time.NewTicker(ml.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ml.mu.Lock()
			now := time.Now()
			for key, entry := range ml.entries {
				if now.Sub(entry.lastUpdate) > 10*time.Minute {
					delete(ml.entries, key)
				}
			}
			ml.mu.Unlock()
		case <-ml.stopCh:
			return
		}
	}
}

// Stop stops the cleanup goroutine.
func (ml *MemoryLimiter) Stop() {
	close(ml.stopCh)
}

// Limit returns the configured requests-per-minute.
func (ml *MemoryLimiter) Limit() int {
	return ml.config.RequestsPerMinute
}

// Allow consumes a token for key, refilling based on elapsed time.
func (ml *MemoryLimiter) Allow(_ context.Context, key string) (bool, int) {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	now := time.Now()
	entry, exists := ml.entries[key]

	if !exists {
		// New client starts with a full burst minus this request.
		ml.entries[key] = &rateLimitEntry{
			tokens:     float64(ml.config.BurstSize) - 1,
			lastUpdate: now,
		}
		return true, ml.config.BurstSize - 1
	}

	elapsed := now.Sub(entry.lastUpdate)
	refill := elapsed.Seconds() * float64(ml.config.RequestsPerMinute) / 60.0
	entry.tokens = min(float64(ml.config.BurstSize), entry.tokens+refill)
	entry.lastUpdate = now

	if entry.tokens >= 1 {
		entry.tokens--
		return true, int(entry.tokens)
	}

	return false, 0
}

// ---------------------------------------------------------------------------
// Redis backend
// ---------------------------------------------------------------------------

// RedisLimiter enforces a shared budget across instances using the GCRA
// limiter from redis_rate.
type RedisLimiter struct {
	limiter *redis_rate.Limiter
	limit   redis_rate.Limit
}

// NewRedisLimiter creates a limiter backed by the given Redis client.
func NewRedisLimiter(client *redis.Client, config RateLimitConfig) *RedisLimiter {
	return &RedisLimiter{
		limiter: redis_rate.NewLimiter(client),
		limit: redis_rate.Limit{
			Rate:   config.RequestsPerMinute,
			Period: time.Minute,
			Burst:  config.BurstSize,
		},
	}
}

// Allow checks the shared budget for key. Redis failures fail open: a broken
// limiter should degrade to unthrottled, not take the API down.
func (rl *RedisLimiter) Allow(ctx context.Context, key string) (bool, int) {
	res, err := rl.limiter.Allow(ctx, "ratelimit:"+key, rl.limit)
	if err != nil {
		slog.Error("redis rate limiter unavailable, allowing request", "error", err)
		return true, rl.limit.Burst
	}
	return res.Allowed > 0, res.Remaining
}

// Limit returns the configured requests-per-minute.
func (rl *RedisLimiter) Limit() int {
	return rl.limit.Rate
}

// Stop is a no-op; the Redis client is owned by the caller.
func (rl *RedisLimiter) Stop() {}

// NewLimiter selects the backend: Redis when a client is supplied, in-memory
// otherwise.
func NewLimiter(config RateLimitConfig, redisClient *redis.Client) Limiter {
	if redisClient != nil {
		return NewRedisLimiter(redisClient, config)
	}
	return NewMemoryLimiter(config)
}

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

// RateLimitMiddleware enforces the limiter per client key. A tripped limit
// returns 429, increments the trip counter under scope, and records a
// rate_limited audit entry with the blocked status.
func RateLimitMiddleware(limiter Limiter, scope string, recorder *audit.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := getRateLimitKey(c)

		ok, remaining := limiter.Allow(c.Request.Context(), key)
		if !ok {
			telemetry.RateLimitTripsTotal.WithLabelValues(scope).Inc()
			recordRateLimited(c, recorder, scope)

			c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": 60,
			})
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		c.Next()
	}
}

// recordRateLimited writes the blocked audit entry for a tripped limit.
func recordRateLimited(c *gin.Context, recorder *audit.Recorder, scope string) {
	if recorder == nil {
		return
	}
	entry := &audit.Entry{
		Action:    audit.ActionRateLimited,
		Resource:  audit.ResourceAuth,
		IPAddress: audit.ClientIP(c.Request),
		UserAgent: audit.UserAgent(c.Request),
		Endpoint:  c.Request.URL.Path,
		Status:    audit.StatusBlocked,
		Metadata: map[string]interface{}{
			"scope": scope,
		},
	}
	if caller, ok := GetCaller(c); ok {
		entry.UserID = caller.ID
		entry.UserEmail = caller.Email
	}
	_ = recorder.Record(entry)
}

// getRateLimitKey determines the key to use for rate limiting.
// Priority: user_id > api_key_id > IP address.
func getRateLimitKey(c *gin.Context) string {
	if userID, exists := c.Get("user_id"); exists {
		if id, ok := userID.(string); ok && id != "" {
			return "user:" + id
		}
	}

	if apiKeyID, exists := c.Get("api_key_id"); exists {
		if id, ok := apiKeyID.(string); ok && id != "" {
			return "apikey:" + id
		}
	}

	ip := c.ClientIP()
	if ip == "" {
		ip = c.Request.RemoteAddr
	}
	return "ip:" + ip
}
