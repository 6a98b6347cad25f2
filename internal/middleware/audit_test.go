package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"

	"github.com/eventlane/eventlane/internal/audit"
	"github.com/eventlane/eventlane/internal/config"
	"github.com/eventlane/eventlane/internal/db/repositories"
)

// newTrailRouter wires AuditTrailMiddleware over a sqlmock-backed recorder.
// The trail writes asynchronously, so assertions poll ExpectationsWereMet.
func newTrailRouter(t *testing.T, cfg *config.AuditConfig) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	rec := audit.NewRecorder(repositories.NewAuditRepository(db), nil)

	r := gin.New()
	r.Use(AuditTrailMiddleware(rec, cfg))
	r.POST("/api/v1/events", func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"ok": true})
	})
	r.GET("/api/v1/events", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.POST("/api/v1/broken", func(c *gin.Context) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "boom"})
	})
	return r, mock
}

func waitForExpectations(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if mock.ExpectationsWereMet() == nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("audit write never happened: %v", mock.ExpectationsWereMet())
}

func trailRequest(r *gin.Engine, method, path string) {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, nil)
	r.ServeHTTP(w, req)
}

func TestAuditTrail_RecordsSuccessfulWrite(t *testing.T) {
	r, mock := newTrailRouter(t, nil)
	mock.ExpectExec("INSERT INTO audit_logs").
		WillReturnResult(sqlmock.NewResult(1, 1))

	trailRequest(r, http.MethodPost, "/api/v1/events")
	waitForExpectations(t, mock)
}

func TestAuditTrail_SkipsReadsByDefault(t *testing.T) {
	r, mock := newTrailRouter(t, nil)
	mock.ExpectExec("INSERT INTO audit_logs").
		WillReturnResult(sqlmock.NewResult(1, 1))

	trailRequest(r, http.MethodGet, "/api/v1/events")

	time.Sleep(150 * time.Millisecond)
	if mock.ExpectationsWereMet() == nil {
		t.Error("GET request was recorded; reads should be skipped by default")
	}
}

func TestAuditTrail_RecordsReadsWhenConfigured(t *testing.T) {
	cfg := &config.AuditConfig{Enabled: true, LogReadOperations: true}
	r, mock := newTrailRouter(t, cfg)
	mock.ExpectExec("INSERT INTO audit_logs").
		WillReturnResult(sqlmock.NewResult(1, 1))

	trailRequest(r, http.MethodGet, "/api/v1/events")
	waitForExpectations(t, mock)
}

func TestAuditTrail_SkipsFailuresByDefault(t *testing.T) {
	r, mock := newTrailRouter(t, nil)
	mock.ExpectExec("INSERT INTO audit_logs").
		WillReturnResult(sqlmock.NewResult(1, 1))

	trailRequest(r, http.MethodPost, "/api/v1/broken")

	time.Sleep(150 * time.Millisecond)
	if mock.ExpectationsWereMet() == nil {
		t.Error("failed request was recorded; failures should be skipped by default")
	}
}

func TestAuditTrail_RecordsFailuresWhenConfigured(t *testing.T) {
	cfg := &config.AuditConfig{Enabled: true, LogFailedRequests: true}
	r, mock := newTrailRouter(t, cfg)
	mock.ExpectExec("INSERT INTO audit_logs").
		WillReturnResult(sqlmock.NewResult(1, 1))

	trailRequest(r, http.MethodPost, "/api/v1/broken")
	waitForExpectations(t, mock)
}

func TestAuditTrail_DisabledConfigSkipsEverything(t *testing.T) {
	cfg := &config.AuditConfig{Enabled: false, LogReadOperations: true, LogFailedRequests: true}
	r, mock := newTrailRouter(t, cfg)
	mock.ExpectExec("INSERT INTO audit_logs").
		WillReturnResult(sqlmock.NewResult(1, 1))

	trailRequest(r, http.MethodPost, "/api/v1/events")

	time.Sleep(150 * time.Millisecond)
	if mock.ExpectationsWereMet() == nil {
		t.Error("disabled audit config still recorded a request")
	}
}

// ---------------------------------------------------------------------------
// resourceForPath
// ---------------------------------------------------------------------------

func TestResourceForPath(t *testing.T) {
	tests := []struct {
		path string
		want audit.Resource
	}{
		{"/api/v1/events", audit.ResourceEvent},
		{"/api/v1/events/abc/publish", audit.ResourceEvent},
		{"/api/v1/vendors/abc/approve", audit.ResourceVendor},
		{"/api/v1/sponsors", audit.ResourceSponsor},
		{"/api/v1/admin/users/abc/suspend", audit.ResourceUser},
		{"/api/v1/apikeys", audit.ResourceAPIKey},
		{"/api/v1/admin/settings", audit.ResourceSettings},
		{"/api/v1/webhooks/test", audit.ResourceWebhook},
		{"/api/v1/auth/logout", audit.ResourceAuth},
		{"/api/v1/something-else", audit.ResourceAuth},
	}
	for _, tt := range tests {
		if got := resourceForPath(tt.path); got != tt.want {
			t.Errorf("resourceForPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
