package admin

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eventlane/eventlane/internal/audit"
	"github.com/eventlane/eventlane/internal/auth"
	"github.com/eventlane/eventlane/internal/db/models"
	"github.com/eventlane/eventlane/internal/db/repositories"
	"github.com/eventlane/eventlane/internal/middleware"
)

// APIKeyHandlers bundles API key issuance and revocation. The raw key is
// returned exactly once from Create; only the bcrypt hash and display prefix
// are stored.
type APIKeyHandlers struct {
	apiKeyRepo *repositories.APIKeyRepository
	userRepo   *repositories.UserRepository
	recorder   *audit.Recorder
}

// NewAPIKeyHandlers creates the API key handlers.
func NewAPIKeyHandlers(db *sql.DB, recorder *audit.Recorder) *APIKeyHandlers {
	return &APIKeyHandlers{
		apiKeyRepo: repositories.NewAPIKeyRepository(db),
		userRepo:   repositories.NewUserRepository(db),
		recorder:   recorder,
	}
}

func (h *APIKeyHandlers) record(c *gin.Context, caller *auth.Caller, action audit.Action, keyID string, metadata map[string]interface{}) {
	_ = h.recorder.Record(&audit.Entry{
		UserID:     caller.ID,
		UserEmail:  caller.Email,
		Action:     action,
		Resource:   audit.ResourceAPIKey,
		ResourceID: keyID,
		IPAddress:  audit.ClientIP(c.Request),
		UserAgent:  audit.UserAgent(c.Request),
		Endpoint:   c.Request.URL.Path,
		Status:     audit.StatusSuccess,
		Metadata:   metadata,
	})
}

// CreateAPIKeyRequest is the request body for key issuance. The key is bound
// to the named user and inherits that user's role at request time.
type CreateAPIKeyRequest struct {
	UserID     string `json:"user_id" binding:"required"`
	Name       string `json:"name" binding:"required"`
	ExpiresInD int    `json:"expires_in_days"`
}

// @Summary      Create API key
// @Description  Issue a new API key bound to a user. The raw key appears only in this response; store it now.
// @Tags         Admin
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  CreateAPIKeyRequest  true  "Key parameters"
// @Success      201  {object}  map[string]interface{}  "key: raw key, api_key: models.APIKey"
// @Router       /api/v1/admin/apikeys [post]
func (h *APIKeyHandlers) Create(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req CreateAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	user, err := h.userRepo.GetByID(c.Request.Context(), req.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	rawKey, hash, prefix, err := auth.GenerateAPIKey()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate key"})
		return
	}

	key := &models.APIKey{
		UserID:    &user.ID,
		Name:      req.Name,
		KeyHash:   hash,
		KeyPrefix: prefix,
	}
	if req.ExpiresInD > 0 {
		expires := time.Now().AddDate(0, 0, req.ExpiresInD)
		key.ExpiresAt = &expires
	}
	if err := h.apiKeyRepo.Create(c.Request.Context(), key); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store key"})
		return
	}

	h.record(c, caller, audit.ActionAPIKeyCreated, key.ID, map[string]interface{}{
		"user_id": user.ID,
		"name":    key.Name,
	})
	c.JSON(http.StatusCreated, gin.H{
		"key":     rawKey,
		"api_key": key,
	})
}

// @Summary      List API keys
// @Description  List keys for a user. Only prefixes and metadata are returned, never key material.
// @Tags         Admin
// @Security     Bearer
// @Produce      json
// @Param        user_id  query  string  true  "User ID"
// @Success      200  {object}  map[string]interface{}  "api_keys: []models.APIKey"
// @Router       /api/v1/admin/apikeys [get]
func (h *APIKeyHandlers) List(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	keys, err := h.apiKeyRepo.ListByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list keys"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"api_keys": keys})
}

// @Summary      Revoke API key
// @Description  Revoke a key. Revocation is immediate and permanent; revoked keys fail authentication on the next request.
// @Tags         Admin
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "API key ID"
// @Success      200  {object}  map[string]interface{}  "ok: true"
// @Router       /api/v1/admin/apikeys/{id} [delete]
func (h *APIKeyHandlers) Revoke(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	key, err := h.apiKeyRepo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load key"})
		return
	}
	if key == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "API key not found"})
		return
	}

	if err := h.apiKeyRepo.Revoke(c.Request.Context(), key.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to revoke key"})
		return
	}

	h.record(c, caller, audit.ActionAPIKeyRevoked, key.ID, map[string]interface{}{
		"name": key.Name,
	})
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
