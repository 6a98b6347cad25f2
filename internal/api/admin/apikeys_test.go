package admin

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"

	"github.com/eventlane/eventlane/internal/audit"
	"github.com/eventlane/eventlane/internal/auth"
	"github.com/eventlane/eventlane/internal/db/repositories"
	"github.com/eventlane/eventlane/internal/middleware"
)

var apiKeyCols = []string{
	"id", "user_id", "name", "key_hash", "key_prefix", "expires_at", "last_used_at", "revoked_at", "created_at",
}

func newAPIKeyRouter(t *testing.T, caller *auth.Caller) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	recorder := audit.NewRecorder(repositories.NewAuditRepository(db), nil)
	h := NewAPIKeyHandlers(db, recorder)

	r := gin.New()
	if caller != nil {
		r.Use(func(c *gin.Context) {
			c.Set(middleware.CallerKey, caller)
			c.Next()
		})
	}
	r.POST("/admin/apikeys", h.Create)
	r.GET("/admin/apikeys", h.List)
	r.DELETE("/admin/apikeys/:id", h.Revoke)
	return r, mock
}

func TestCreateAPIKey_ReturnsRawKeyOnce(t *testing.T) {
	r, mock := newAPIKeyRouter(t, adminCaller())

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id").
		WithArgs("user-1").
		WillReturnRows(userRow("user-1", "organizer"))
	mock.ExpectExec("INSERT INTO api_keys").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(t, r, http.MethodPost, "/admin/apikeys", map[string]interface{}{
		"user_id": "user-1",
		"name":    "ci-pipeline",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", w.Code, w.Body.String())
	}

	var body struct {
		Key    string `json:"key"`
		APIKey struct {
			KeyPrefix string `json:"key_prefix"`
		} `json:"api_key"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Key == "" {
		t.Fatal("raw key missing from response")
	}
	if !strings.HasPrefix(body.Key, body.APIKey.KeyPrefix) {
		t.Errorf("display prefix %q does not match raw key %q", body.APIKey.KeyPrefix, body.Key)
	}
	if strings.Contains(w.Body.String(), `"key_hash"`) {
		t.Error("key hash must never be serialized")
	}
}

func TestCreateAPIKey_UnknownUser(t *testing.T) {
	r, mock := newAPIKeyRouter(t, adminCaller())

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(userCols))

	w := doJSON(t, r, http.MethodPost, "/admin/apikeys", map[string]interface{}{
		"user_id": "ghost",
		"name":    "orphan-key",
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestRevokeAPIKey(t *testing.T) {
	r, mock := newAPIKeyRouter(t, adminCaller())

	userID := "user-1"
	mock.ExpectQuery("SELECT (.+) FROM api_keys WHERE id").
		WithArgs("key-1").
		WillReturnRows(sqlmock.NewRows(apiKeyCols).AddRow(
			"key-1", &userID, "ci-pipeline", "$2a$10$hash", "evk_abc1", nil, nil, nil, time.Now(),
		))
	mock.ExpectExec("UPDATE api_keys SET revoked_at").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(t, r, http.MethodDelete, "/admin/apikeys/key-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
}

func TestListAPIKeys_RequiresUserID(t *testing.T) {
	r, _ := newAPIKeyRouter(t, adminCaller())

	w := doJSON(t, r, http.MethodGet, "/admin/apikeys", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
