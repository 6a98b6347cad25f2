package admin

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventlane/eventlane/internal/audit"
	"github.com/eventlane/eventlane/internal/auth"
	"github.com/eventlane/eventlane/internal/db/models"
	"github.com/eventlane/eventlane/internal/db/repositories"
	"github.com/eventlane/eventlane/internal/middleware"
)

// SettingsHandlers bundles the platform settings endpoints. Settings are
// arbitrary JSON documents keyed by name; every write is audit-logged.
type SettingsHandlers struct {
	settingsRepo *repositories.SettingsRepository
	recorder     *audit.Recorder
}

// NewSettingsHandlers creates the settings handlers.
func NewSettingsHandlers(db *sql.DB, recorder *audit.Recorder) *SettingsHandlers {
	return &SettingsHandlers{
		settingsRepo: repositories.NewSettingsRepository(db),
		recorder:     recorder,
	}
}

func (h *SettingsHandlers) record(c *gin.Context, caller *auth.Caller, key string, metadata map[string]interface{}) {
	_ = h.recorder.Record(&audit.Entry{
		UserID:     caller.ID,
		UserEmail:  caller.Email,
		Action:     audit.ActionSettingsChanged,
		Resource:   audit.ResourceSettings,
		ResourceID: key,
		IPAddress:  audit.ClientIP(c.Request),
		UserAgent:  audit.UserAgent(c.Request),
		Endpoint:   c.Request.URL.Path,
		Status:     audit.StatusSuccess,
		Metadata:   metadata,
	})
}

// @Summary      List settings
// @Tags         Admin
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "settings: []models.Setting"
// @Router       /api/v1/admin/settings [get]
func (h *SettingsHandlers) List(c *gin.Context) {
	settings, err := h.settingsRepo.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list settings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// @Summary      Get setting
// @Tags         Admin
// @Security     Bearer
// @Produce      json
// @Param        key  path  string  true  "Setting key"
// @Success      200  {object}  map[string]interface{}  "setting: models.Setting"
// @Failure      404  {object}  map[string]interface{}  "Setting not found"
// @Router       /api/v1/admin/settings/{key} [get]
func (h *SettingsHandlers) Get(c *gin.Context) {
	setting, err := h.settingsRepo.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load setting"})
		return
	}
	if setting == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Setting not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"setting": setting})
}

// SetSettingRequest carries the new value document.
type SetSettingRequest struct {
	Value map[string]interface{} `json:"value" binding:"required"`
}

// @Summary      Set setting
// @Description  Create or replace a setting value. Upsert semantics.
// @Tags         Admin
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        key   path  string             true  "Setting key"
// @Param        body  body  SetSettingRequest  true  "Value document"
// @Success      200  {object}  map[string]interface{}  "setting: models.Setting"
// @Router       /api/v1/admin/settings/{key} [put]
func (h *SettingsHandlers) Set(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req SetSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	setting := &models.Setting{
		Key:       c.Param("key"),
		Value:     req.Value,
		UpdatedBy: &caller.ID,
	}
	if err := h.settingsRepo.Set(c.Request.Context(), setting); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store setting"})
		return
	}

	h.record(c, caller, setting.Key, map[string]interface{}{"operation": "set"})
	c.JSON(http.StatusOK, gin.H{"setting": setting})
}

// @Summary      Delete setting
// @Tags         Admin
// @Security     Bearer
// @Produce      json
// @Param        key  path  string  true  "Setting key"
// @Success      200  {object}  map[string]interface{}  "ok: true"
// @Router       /api/v1/admin/settings/{key} [delete]
func (h *SettingsHandlers) Delete(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	key := c.Param("key")
	if err := h.settingsRepo.Delete(c.Request.Context(), key); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete setting"})
		return
	}

	h.record(c, caller, key, map[string]interface{}{"operation": "delete"})
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
