package admin

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eventlane/eventlane/internal/db/repositories"
)

// AuditHandlers bundles the audit log query endpoints. The audit log is
// append-only; this surface is read-only and the only deletion path is the
// retention sweeper.
type AuditHandlers struct {
	auditRepo *repositories.AuditRepository
}

// NewAuditHandlers creates the audit query handlers.
func NewAuditHandlers(db *sql.DB) *AuditHandlers {
	return &AuditHandlers{auditRepo: repositories.NewAuditRepository(db)}
}

// @Summary      Query audit log
// @Description  List audit entries newest-first with optional filters. All filters are conjunctive.
// @Tags         Admin
// @Security     Bearer
// @Produce      json
// @Param        user_id     query  string  false  "Filter by acting user"
// @Param        action      query  string  false  "Filter by action"
// @Param        resource    query  string  false  "Filter by resource"
// @Param        status      query  string  false  "Filter by entry status"
// @Param        start_date  query  string  false  "RFC 3339 lower bound"
// @Param        end_date    query  string  false  "RFC 3339 upper bound"
// @Param        page        query  int     false  "Page number (default 1)"
// @Param        per_page    query  int     false  "Items per page, max 100 (default 20)"
// @Success      200  {object}  map[string]interface{}  "entries: []models.AuditLog, pagination: map"
// @Router       /api/v1/admin/audit [get]
func (h *AuditHandlers) List(c *gin.Context) {
	page, perPage := pagination(c)

	var filters repositories.AuditFilters
	if v := c.Query("user_id"); v != "" {
		filters.UserID = &v
	}
	if v := c.Query("action"); v != "" {
		filters.Action = &v
	}
	if v := c.Query("resource"); v != "" {
		filters.Resource = &v
	}
	if v := c.Query("status"); v != "" {
		filters.Status = &v
	}
	if v := c.Query("start_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start_date, want RFC 3339"})
			return
		}
		filters.StartDate = &t
	}
	if v := c.Query("end_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid end_date, want RFC 3339"})
			return
		}
		filters.EndDate = &t
	}

	entries, total, err := h.auditRepo.ListFiltered(c.Request.Context(), filters, perPage, (page-1)*perPage)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query audit log"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"pagination": gin.H{
			"page":     page,
			"per_page": perPage,
			"total":    total,
		},
	})
}

// @Summary      Audit stats
// @Description  Aggregate entry counts over a trailing window, grouped by status and action.
// @Tags         Admin
// @Security     Bearer
// @Produce      json
// @Param        hours  query  int  false  "Trailing window in hours (default 1)"
// @Success      200  {object}  map[string]interface{}  "stats: repositories.AuditStats"
// @Router       /api/v1/admin/audit/stats [get]
func (h *AuditHandlers) Stats(c *gin.Context) {
	hours, _ := strconv.Atoi(c.DefaultQuery("hours", "1"))
	if hours < 1 {
		hours = 1
	}

	stats, err := h.auditRepo.Stats(c.Request.Context(), hours)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute audit stats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats, "hours": hours})
}

// @Summary      Security events
// @Description  List recent blocked and failed entries: failed logins, lockouts, rate limit trips.
// @Tags         Admin
// @Security     Bearer
// @Produce      json
// @Param        hours  query  int  false  "Trailing window in hours (default 24)"
// @Param        limit  query  int  false  "Max entries (default 100, max 500)"
// @Success      200  {object}  map[string]interface{}  "entries: []models.AuditLog"
// @Router       /api/v1/admin/audit/security [get]
func (h *AuditHandlers) SecurityEvents(c *gin.Context) {
	// hours=0 is a valid empty window, so only fall back when the parameter
	// is absent or unparsable.
	hours := 24
	if v := c.Query("hours"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			hours = n
		}
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if limit < 1 || limit > 500 {
		limit = 100
	}

	entries, err := h.auditRepo.ListSecurityEvents(c.Request.Context(), hours, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list security events"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "hours": hours})
}
