package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

// StatsHandler serves the dashboard rollup. It leans on sqlx struct scanning
// to pull every counter in a single round trip of scalar subqueries.
type StatsHandler struct {
	db *sqlx.DB
}

// NewStatsHandler creates the stats handler.
func NewStatsHandler(db *sqlx.DB) *StatsHandler {
	return &StatsHandler{db: db}
}

// DashboardStats is the platform-wide rollup shown on the admin dashboard.
// Money values are in cents.
type DashboardStats struct {
	TotalEvents     int64 `db:"total_events" json:"total_events"`
	DraftEvents     int64 `db:"draft_events" json:"draft_events"`
	ActiveEvents    int64 `db:"active_events" json:"active_events"`
	CompletedEvents int64 `db:"completed_events" json:"completed_events"`
	PendingVendors  int64 `db:"pending_vendors" json:"pending_vendors"`
	PendingSponsors int64 `db:"pending_sponsors" json:"pending_sponsors"`
	TotalUsers      int64 `db:"total_users" json:"total_users"`
	SuspendedUsers  int64 `db:"suspended_users" json:"suspended_users"`
	TicketsSold     int64 `db:"tickets_sold" json:"tickets_sold"`
	TicketRevenue   int64 `db:"ticket_revenue_cents" json:"ticket_revenue_cents"`
	AuditEntries24h int64 `db:"audit_entries_24h" json:"audit_entries_24h"`
}

// @Summary      Dashboard stats
// @Description  Platform-wide counters for the admin dashboard, computed in a single query.
// @Tags         Admin
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "stats: DashboardStats"
// @Router       /api/v1/admin/stats [get]
func (h *StatsHandler) Dashboard(c *gin.Context) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM events) AS total_events,
			(SELECT COUNT(*) FROM events WHERE status = 'draft') AS draft_events,
			(SELECT COUNT(*) FROM events WHERE status = 'active') AS active_events,
			(SELECT COUNT(*) FROM events WHERE status = 'completed') AS completed_events,
			(SELECT COUNT(*) FROM vendors WHERE status = 'pending') AS pending_vendors,
			(SELECT COUNT(*) FROM sponsors WHERE status = 'pending') AS pending_sponsors,
			(SELECT COUNT(*) FROM users) AS total_users,
			(SELECT COUNT(*) FROM users WHERE status = 'suspended') AS suspended_users,
			(SELECT COALESCE(SUM(sold), 0) FROM ticket_types) AS tickets_sold,
			(SELECT COALESCE(SUM(sold * price_cents), 0) FROM ticket_types) AS ticket_revenue_cents,
			(SELECT COUNT(*) FROM audit_logs WHERE created_at > NOW() - INTERVAL '24 hours') AS audit_entries_24h
	`

	var stats DashboardStats
	if err := h.db.GetContext(c.Request.Context(), &stats, query); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
