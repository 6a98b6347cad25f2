package sponsors

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"

	"github.com/eventlane/eventlane/internal/audit"
	"github.com/eventlane/eventlane/internal/auth"
	"github.com/eventlane/eventlane/internal/db/repositories"
	"github.com/eventlane/eventlane/internal/middleware"
)

func TestMain(m *testing.M) {
	os.Setenv("EVO_JWT_SECRET", "test-jwt-secret-that-is-32-chars!!")
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

var sponsorCols = []string{
	"id", "name", "contact_email", "tier", "status", "created_by", "created_at", "updated_at",
}

func newSponsorRouter(t *testing.T, caller *auth.Caller) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	recorder := audit.NewRecorder(repositories.NewAuditRepository(db), nil)
	h := NewHandlers(db, recorder)

	r := gin.New()
	if caller != nil {
		r.Use(func(c *gin.Context) {
			c.Set(middleware.CallerKey, caller)
			c.Next()
		})
	}
	r.POST("/sponsors", h.Register)
	r.GET("/sponsors/:id", h.Get)
	r.POST("/admin/sponsors/:id/approve", h.Approve)
	r.POST("/admin/sponsors/:id/reject", h.Reject)
	return r, mock
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, _ := json.Marshal(body)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func adminCaller() *auth.Caller {
	return &auth.Caller{ID: "adm-1", Email: "adm@example.com", Role: auth.RoleAdmin, Status: "active"}
}

func sponsorRow(status string) *sqlmock.Rows {
	return sqlmock.NewRows(sponsorCols).AddRow(
		"spo-1", "BigCorp", "sponsor@bigcorp.example", "gold", status,
		nil, time.Now(), time.Now(),
	)
}

func TestRegisterSponsor_StartsPending(t *testing.T) {
	r, mock := newSponsorRouter(t, adminCaller())

	mock.ExpectExec("INSERT INTO sponsors").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(t, r, http.MethodPost, "/sponsors", map[string]string{
		"name":          "BigCorp",
		"contact_email": "sponsor@bigcorp.example",
		"tier":          "gold",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", w.Code, w.Body.String())
	}
	var body struct {
		Sponsor struct {
			Status string `json:"status"`
			Tier   string `json:"tier"`
		} `json:"sponsor"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Sponsor.Status != "pending" {
		t.Errorf("status = %q, want pending", body.Sponsor.Status)
	}
	if body.Sponsor.Tier != "gold" {
		t.Errorf("tier = %q, want gold", body.Sponsor.Tier)
	}
}

func TestRejectSponsor(t *testing.T) {
	r, mock := newSponsorRouter(t, adminCaller())

	mock.ExpectQuery("SELECT (.+) FROM sponsors WHERE id").
		WithArgs("spo-1").
		WillReturnRows(sponsorRow("pending"))
	mock.ExpectExec("UPDATE sponsors").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(t, r, http.MethodPost, "/admin/sponsors/spo-1/reject", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
	var body struct {
		Sponsor struct {
			Status string `json:"status"`
		} `json:"sponsor"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Sponsor.Status != "rejected" {
		t.Errorf("status = %q, want rejected", body.Sponsor.Status)
	}
}

func TestApproveSponsor_NoCaller(t *testing.T) {
	r, _ := newSponsorRouter(t, nil)

	w := doJSON(t, r, http.MethodPost, "/admin/sponsors/spo-1/approve", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestGetSponsor_NotFound(t *testing.T) {
	r, mock := newSponsorRouter(t, adminCaller())

	mock.ExpectQuery("SELECT (.+) FROM sponsors WHERE id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(sponsorCols))

	w := doJSON(t, r, http.MethodGet, "/sponsors/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
