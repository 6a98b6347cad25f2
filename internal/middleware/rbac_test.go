package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/eventlane/eventlane/internal/auth"
)

// newRoleRouter fakes an authenticated caller with the given role before the
// gate under test. An empty role means no caller is set at all.
func newRoleRouter(role auth.Role, gate gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if role != "" {
		r.Use(func(c *gin.Context) {
			c.Set(CallerKey, &auth.Caller{ID: "user-1", Email: "u@example.com", Role: role})
			c.Next()
		})
	}
	r.Use(gate)
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func roleRequest(r *gin.Engine) int {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name string
		role auth.Role
		want int
	}{
		{"no caller", "", http.StatusForbidden},
		{"organizer blocked", auth.RoleOrganizer, http.StatusForbidden},
		{"volunteer blocked", auth.RoleVolunteer, http.StatusForbidden},
		{"admin allowed", auth.RoleAdmin, http.StatusOK},
		{"superadmin allowed", auth.RoleSuperadmin, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRoleRouter(tt.role, RequireAdmin(nil))
			if got := roleRequest(r); got != tt.want {
				t.Errorf("status = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name     string
		role     auth.Role
		required auth.Role
		want     int
	}{
		{"no caller", "", auth.RoleOrganizer, http.StatusForbidden},
		{"organizer meets organizer", auth.RoleOrganizer, auth.RoleOrganizer, http.StatusOK},
		{"volunteer meets organizer via default level", auth.RoleVolunteer, auth.RoleOrganizer, http.StatusOK},
		{"organizer below admin", auth.RoleOrganizer, auth.RoleAdmin, http.StatusForbidden},
		{"admin meets admin", auth.RoleAdmin, auth.RoleAdmin, http.StatusOK},
		{"admin below superadmin", auth.RoleAdmin, auth.RoleSuperadmin, http.StatusForbidden},
		{"superadmin meets everything", auth.RoleSuperadmin, auth.RoleSuperadmin, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRoleRouter(tt.role, RequireRole(tt.required, nil))
			if got := roleRequest(r); got != tt.want {
				t.Errorf("status = %d, want %d", got, tt.want)
			}
		})
	}
}
