// Package middleware provides Gin HTTP middleware for authentication, authorization,
// rate limiting, security headers, and the request audit trail.
//
// Middleware ordering matters and is enforced in router.go:
//
//	Security → RateLimit → Auth → Role gates → Audit → Handler
//
// Security headers run first so they appear on all responses including errors.
// Rate limiting runs before auth to block brute-force attacks before any DB work.
// Auth populates the caller identity; the role gates read from that context.
// The audit trail runs after the role gates so only authorized requests are
// recorded as successful actions.
package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eventlane/eventlane/internal/audit"
	"github.com/eventlane/eventlane/internal/auth"
	"github.com/eventlane/eventlane/internal/db/models"
	"github.com/eventlane/eventlane/internal/db/repositories"
	"github.com/eventlane/eventlane/internal/safego"
)

// CallerKey is the gin.Context key under which the *auth.Caller is stored.
const CallerKey = "caller"

// AuthMiddleware validates authentication (JWT or API key) and attaches the
// caller identity to the request context. Suspended accounts are rejected
// with 403 and an account_locked audit entry regardless of credential type.
func AuthMiddleware(userRepo *repositories.UserRepository, apiKeyRepo *repositories.APIKeyRepository, recorder *audit.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Missing or malformed authorization header",
			})
			return
		}

		// JWT validation is attempted first because it is entirely stateless —
		// a cryptographic check against the secret with no database round-trip.
		// API key validation always requires a DB query (prefix lookup + bcrypt
		// comparison), so JWT is the lower-latency path for browser sessions.
		if claims, err := auth.ValidateJWT(token); err == nil {
			user, err := userRepo.GetByID(c.Request.Context(), claims.UserID)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "Failed to load user",
				})
				return
			}
			if user == nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "User not found",
				})
				return
			}
			if rejectSuspended(c, recorder, user) {
				return
			}

			setCallerContext(c, user, "jwt", "")
			c.Next()
			return
		}

		// Try API key. Only the bcrypt hash is stored; the 10-character prefix
		// is kept plaintext alongside it so an indexed lookup can narrow the
		// candidate set before running the expensive bcrypt comparison. Without
		// the prefix every request would bcrypt-scan the whole api_keys table.
		keyPrefix := token
		if len(token) > auth.DisplayPrefixLength {
			keyPrefix = token[:auth.DisplayPrefixLength]
		}
		apiKey, err := authenticateAPIKey(c.Request.Context(), token, keyPrefix, apiKeyRepo)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Authentication failed",
			})
			return
		}

		if apiKey != nil {
			if apiKey.IsExpired(time.Now()) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "API key expired",
				})
				return
			}

			// Update last-used asynchronously. Last-used tracking is
			// best-effort; a synchronous write here would add DB latency to
			// every key-authenticated request.
			safego.Go(func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = apiKeyRepo.TouchLastUsed(ctx, apiKey.ID)
			})

			if apiKey.UserID == nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "API key is not bound to a user",
				})
				return
			}
			user, err := userRepo.GetByID(c.Request.Context(), *apiKey.UserID)
			if err != nil || user == nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "API key owner not found",
				})
				return
			}
			if rejectSuspended(c, recorder, user) {
				return
			}

			c.Set("api_key", apiKey)
			c.Set("api_key_id", apiKey.ID)
			setCallerContext(c, user, "api_key", apiKey.ID)
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid credentials",
		})
	}
}

// OptionalAuthMiddleware populates the caller context when valid credentials
// are presented but never rejects the request. Used on public listing routes
// where an authenticated caller sees additional fields.
func OptionalAuthMiddleware(userRepo *repositories.UserRepository, apiKeyRepo *repositories.APIKeyRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}

		if claims, err := auth.ValidateJWT(token); err == nil {
			user, err := userRepo.GetByID(c.Request.Context(), claims.UserID)
			if err == nil && user != nil && !user.IsSuspended() {
				setCallerContext(c, user, "jwt", "")
			}
			c.Next()
			return
		}

		keyPrefix := token
		if len(token) > auth.DisplayPrefixLength {
			keyPrefix = token[:auth.DisplayPrefixLength]
		}
		apiKey, _ := authenticateAPIKey(c.Request.Context(), token, keyPrefix, apiKeyRepo)
		if apiKey != nil && !apiKey.IsExpired(time.Now()) && apiKey.UserID != nil {
			user, _ := userRepo.GetByID(c.Request.Context(), *apiKey.UserID)
			if user != nil && !user.IsSuspended() {
				c.Set("api_key", apiKey)
				c.Set("api_key_id", apiKey.ID)
				setCallerContext(c, user, "api_key", apiKey.ID)
			}
		}

		c.Next()
	}
}

// bearerToken extracts and trims the Bearer credential from the Authorization
// header. Returns false when the header is absent, malformed, or empty.
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

// rejectSuspended aborts with 403 and records an account_locked entry when the
// account is suspended. Returns true if the request was aborted.
func rejectSuspended(c *gin.Context, recorder *audit.Recorder, user *models.User) bool {
	if !user.IsSuspended() {
		return false
	}

	if recorder != nil {
		reason := "account suspended"
		if user.SuspensionReason != nil && *user.SuspensionReason != "" {
			reason = *user.SuspensionReason
		}
		_ = recorder.Record(&audit.Entry{
			UserID:       user.ID,
			UserEmail:    user.Email,
			Action:       audit.ActionAccountLocked,
			Resource:     audit.ResourceAuth,
			IPAddress:    audit.ClientIP(c.Request),
			UserAgent:    audit.UserAgent(c.Request),
			Endpoint:     c.Request.URL.Path,
			Status:       audit.StatusBlocked,
			ErrorMessage: reason,
		})
	}

	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"error": "Account suspended",
	})
	return true
}

// setCallerContext stores the authenticated identity under the context keys
// read by the role gates, the rate limiter, and the audit trail.
func setCallerContext(c *gin.Context, user *models.User, authMethod, apiKeyID string) {
	c.Set("user", user)
	c.Set("user_id", user.ID)
	c.Set("auth_method", authMethod)
	c.Set(CallerKey, &auth.Caller{
		ID:       user.ID,
		Email:    user.Email,
		Role:     auth.Role(user.Role),
		Status:   user.Status,
		APIKeyID: apiKeyID,
	})
}

// authenticateAPIKey looks up candidate keys by prefix and bcrypt-validates
// the provided key against each. Returns nil when no candidate matches.
func authenticateAPIKey(ctx context.Context, providedKey, keyPrefix string, apiKeyRepo *repositories.APIKeyRepository) (*models.APIKey, error) {
	keys, err := apiKeyRepo.ListByPrefix(ctx, keyPrefix)
	if err != nil {
		return nil, err
	}

	for _, key := range keys {
		if auth.ValidateAPIKey(providedKey, key.KeyHash) {
			return key, nil
		}
	}

	return nil, nil
}

// GetCaller retrieves the authenticated caller from the gin context. The
// second return value is false for unauthenticated requests.
func GetCaller(c *gin.Context) (*auth.Caller, bool) {
	v, exists := c.Get(CallerKey)
	if !exists {
		return nil, false
	}
	caller, ok := v.(*auth.Caller)
	return caller, ok && caller != nil
}
