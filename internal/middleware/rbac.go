// rbac.go implements role-gate middleware.
//
// Roles are checked at request time from the freshly-loaded user row rather
// than trusted from the JWT claim. When an admin changes a user's role the
// change takes effect on the user's next request without needing to
// invalidate or reissue their token. Blocked attempts are recorded in the
// audit trail so privilege-probing shows up in the security events view.

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventlane/eventlane/internal/audit"
	"github.com/eventlane/eventlane/internal/auth"
)

// RequireAdmin allows only admin and superadmin callers.
func RequireAdmin(recorder *audit.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := GetCaller(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Insufficient permissions",
			})
			return
		}

		if !caller.IsAdmin() {
			recordBlocked(c, recorder, caller, "admin role required")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Admin access required",
			})
			return
		}

		c.Next()
	}
}

// RequireRole allows callers whose role is at or above the required level.
func RequireRole(required auth.Role, recorder *audit.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := GetCaller(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Insufficient permissions",
			})
			return
		}

		if !caller.Role.AtLeast(required) {
			recordBlocked(c, recorder, caller, "requires role "+string(required))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "Insufficient role",
				"details": "Required role: " + string(required),
			})
			return
		}

		c.Next()
	}
}

// recordBlocked writes a blocked admin_action entry for a failed role check.
func recordBlocked(c *gin.Context, recorder *audit.Recorder, caller *auth.Caller, reason string) {
	if recorder == nil {
		return
	}
	_ = recorder.Record(&audit.Entry{
		UserID:       caller.ID,
		UserEmail:    caller.Email,
		Action:       audit.ActionAdminAction,
		Resource:     audit.ResourceAuth,
		IPAddress:    audit.ClientIP(c.Request),
		UserAgent:    audit.UserAgent(c.Request),
		Endpoint:     c.Request.URL.Path,
		Status:       audit.StatusBlocked,
		ErrorMessage: reason,
		Metadata: map[string]interface{}{
			"caller_role": string(caller.Role),
		},
	})
}
