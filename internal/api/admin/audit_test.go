package admin

import (
	"database/sql/driver"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
)

var auditCols = []string{
	"id", "user_id", "user_email", "action", "resource", "resource_id",
	"ip_address", "user_agent", "endpoint", "metadata", "status", "error_message", "created_at",
}

func newAuditRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	h := NewAuditHandlers(db)
	r := gin.New()
	r.GET("/admin/audit", h.List)
	r.GET("/admin/audit/stats", h.Stats)
	r.GET("/admin/audit/security", h.SecurityEvents)
	return r, mock
}

func auditRow(action, status string) []driver.Value {
	return []driver.Value{
		"aud-1", "user-1", "user-1@example.com", action, "auth", "",
		"203.0.113.9", "curl/8.0", "/api/v1/auth/login", []byte(`{}`), status, nil, time.Now(),
	}
}

func TestAuditList_ActionFilter(t *testing.T) {
	r, mock := newAuditRouter(t)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("login_failed").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT (.+) FROM audit_logs").
		WillReturnRows(sqlmock.NewRows(auditCols).AddRow(auditRow("login_failed", "failure")...))

	w := doJSON(t, r, http.MethodGet, "/admin/audit?action=login_failed", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
	var body struct {
		Entries []struct {
			Action string `json:"action"`
		} `json:"entries"`
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Entries) != 1 || body.Entries[0].Action != "login_failed" {
		t.Errorf("entries = %+v, want one login_failed entry", body.Entries)
	}
	if body.Pagination.Total != 1 {
		t.Errorf("total = %d, want 1", body.Pagination.Total)
	}
}

func TestAuditList_RejectsBadDate(t *testing.T) {
	r, mock := newAuditRouter(t)

	w := doJSON(t, r, http.MethodGet, "/admin/audit?start_date=yesterday", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("bad date must be rejected before any query: %v", err)
	}
}

func TestAuditStats_Window(t *testing.T) {
	r, mock := newAuditRouter(t)

	mock.ExpectQuery("SELECT status, COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("success", 90).
			AddRow("failure", 10))
	mock.ExpectQuery("SELECT action, COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"action", "count"}).
			AddRow("login", 60).
			AddRow("login_failed", 10))

	w := doJSON(t, r, http.MethodGet, "/admin/audit/stats?hours=48", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
	var body struct {
		Hours int `json:"hours"`
		Stats struct {
			ByStatus map[string]int64 `json:"by_status"`
		} `json:"stats"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Hours != 48 {
		t.Errorf("hours = %d, want 48", body.Hours)
	}
	if body.Stats.ByStatus["failure"] != 10 {
		t.Errorf("by_status = %v, want failure: 10", body.Stats.ByStatus)
	}
}

func TestSecurityEvents(t *testing.T) {
	r, mock := newAuditRouter(t)

	mock.ExpectQuery("SELECT (.+) FROM audit_logs").
		WillReturnRows(sqlmock.NewRows(auditCols).
			AddRow(auditRow("rate_limited", "blocked")...).
			AddRow(auditRow("login_failed", "failure")...))

	w := doJSON(t, r, http.MethodGet, "/admin/audit/security", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
	var body struct {
		Entries []struct {
			Action string `json:"action"`
		} `json:"entries"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Entries) != 2 {
		t.Errorf("got %d entries, want 2", len(body.Entries))
	}
}

func TestSecurityEvents_ZeroWindow(t *testing.T) {
	r, mock := newAuditRouter(t)

	w := doJSON(t, r, http.MethodGet, "/admin/audit/security?hours=0", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
	var body struct {
		Entries []json.RawMessage `json:"entries"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Entries) != 0 {
		t.Errorf("got %d entries, want none for an empty window", len(body.Entries))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("an empty window must not query: %v", err)
	}
}
