package admin

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

var userCols = []string{
	"id", "email", "name", "password_hash", "role", "status", "suspension_reason",
	"email_verified", "verification_token", "reset_token", "reset_token_expires_at",
	"created_at", "updated_at",
}

func newUserRouter(t *testing.T, caller *auth.Caller) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	recorder := audit.NewRecorder(repositories.NewAuditRepository(db), nil)
	h := NewUserHandlers(db, recorder)

	r := gin.New()
	if caller != nil {
		r.Use(func(c *gin.Context) {
			c.Set(middleware.CallerKey, caller)
			c.Next()
		})
	}
	r.POST("/admin/users", h.Create)
	r.GET("/admin/users/:id", h.Get)
	r.PUT("/admin/users/:id/role", h.SetRole)
	r.POST("/admin/users/:id/suspend", h.Suspend)
	r.POST("/admin/users/:id/unsuspend", h.Unsuspend)
	r.DELETE("/admin/users/:id", h.Delete)
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

func userRow(id, role string) *sqlmock.Rows {
	return sqlmock.NewRows(userCols).AddRow(
		id, id+"@example.com", "Test User", "$2a$10$hash", role, "active", nil,
		true, nil, nil, nil, time.Now(), time.Now(),
	)
}

// ----------------------------------------------------------------------------
// Role changes
// ----------------------------------------------------------------------------

func TestSetRole_Assignable(t *testing.T) {
	r, mock := newUserRouter(t, adminCaller())

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id").
		WithArgs("user-1").
		WillReturnRows(userRow("user-1", "organizer"))
	mock.ExpectExec("UPDATE users SET role").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(t, r, http.MethodPut, "/admin/users/user-1/role", map[string]string{"role": "admin"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
	var body struct {
		User struct {
			Role string `json:"role"`
		} `json:"user"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.User.Role != "admin" {
		t.Errorf("role = %q, want admin", body.User.Role)
	}
}

func TestSetRole_SuperadminNotAssignable(t *testing.T) {
	r, mock := newUserRouter(t, adminCaller())

	w := doJSON(t, r, http.MethodPut, "/admin/users/user-1/role", map[string]string{"role": "superadmin"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("no SQL should run for a rejected role: %v", err)
	}
}

func TestSetRole_UnknownRole(t *testing.T) {
	r, _ := newUserRouter(t, adminCaller())

	w := doJSON(t, r, http.MethodPut, "/admin/users/user-1/role", map[string]string{"role": "wizard"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

// ----------------------------------------------------------------------------
// Suspension
// ----------------------------------------------------------------------------

func TestSuspendUser(t *testing.T) {
	r, mock := newUserRouter(t, adminCaller())

	mock.ExpectExec("UPDATE users").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(t, r, http.MethodPost, "/admin/users/user-1/suspend", map[string]string{"reason": "ToS violation"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
}

func TestSuspendUser_SelfRejected(t *testing.T) {
	r, mock := newUserRouter(t, adminCaller())

	w := doJSON(t, r, http.MethodPost, "/admin/users/adm-1/suspend", map[string]string{"reason": "oops"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("self-suspension must not touch the database: %v", err)
	}
}

func TestSuspendUser_RequiresReason(t *testing.T) {
	r, _ := newUserRouter(t, adminCaller())

	w := doJSON(t, r, http.MethodPost, "/admin/users/user-1/suspend", map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

// ----------------------------------------------------------------------------
// Deletion and creation
// ----------------------------------------------------------------------------

func TestDeleteUser_SelfRejected(t *testing.T) {
	r, _ := newUserRouter(t, adminCaller())

	w := doJSON(t, r, http.MethodDelete, "/admin/users/adm-1", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestCreateUser_WithRole(t *testing.T) {
	r, mock := newUserRouter(t, adminCaller())

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email").
		WithArgs("new@example.com").
		WillReturnRows(sqlmock.NewRows(userCols))
	mock.ExpectExec("INSERT INTO users").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(t, r, http.MethodPost, "/admin/users", map[string]string{
		"email":    "new@example.com",
		"name":     "New User",
		"password": "supersecret",
		"role":     "volunteer",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", w.Code, w.Body.String())
	}
	var body struct {
		User struct {
			Role          string `json:"role"`
			EmailVerified bool   `json:"email_verified"`
		} `json:"user"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.User.Role != "volunteer" {
		t.Errorf("role = %q, want volunteer", body.User.Role)
	}
	if !body.User.EmailVerified {
		t.Error("admin-created users should skip email verification")
	}
}

func TestCreateUser_SuperadminRejected(t *testing.T) {
	r, mock := newUserRouter(t, adminCaller())

	w := doJSON(t, r, http.MethodPost, "/admin/users", map[string]string{
		"email":    "root@example.com",
		"name":     "Root",
		"password": "supersecret",
		"role":     "superadmin",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("no SQL should run for a rejected role: %v", err)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	r, mock := newUserRouter(t, adminCaller())

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email").
		WithArgs("dup@example.com").
		WillReturnRows(userRow("user-9", "organizer"))

	w := doJSON(t, r, http.MethodPost, "/admin/users", map[string]string{
		"email":    "dup@example.com",
		"name":     "Dup",
		"password": "supersecret",
		"role":     "organizer",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}
}
