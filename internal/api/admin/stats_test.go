package admin

import (
	"encoding/json"
	"net/http"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStatsRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h := NewStatsHandler(sqlx.NewDb(db, "postgres"))
	r := gin.New()
	r.GET("/admin/stats", h.Dashboard)
	return r, mock
}

func TestDashboardStats(t *testing.T) {
	r, mock := newStatsRouter(t)

	cols := []string{
		"total_events", "draft_events", "active_events", "completed_events",
		"pending_vendors", "pending_sponsors", "total_users", "suspended_users",
		"tickets_sold", "ticket_revenue_cents", "audit_entries_24h",
	}
	mock.ExpectQuery("SELECT").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			12, 3, 4, 5, 2, 1, 40, 1, 350, 875000, 98,
		))

	w := doJSON(t, r, http.MethodGet, "/admin/stats", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Stats DashboardStats `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(12), body.Stats.TotalEvents)
	assert.Equal(t, int64(2), body.Stats.PendingVendors)
	assert.Equal(t, int64(350), body.Stats.TicketsSold)
	assert.Equal(t, int64(875000), body.Stats.TicketRevenue)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardStats_QueryFailure(t *testing.T) {
	r, mock := newStatsRouter(t)

	mock.ExpectQuery("SELECT").WillReturnError(sqlmock.ErrCancelled)

	w := doJSON(t, r, http.MethodGet, "/admin/stats", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
