// Package admin implements the admin surface: user management, the audit
// log query endpoints, API key issuance, platform settings, and the
// dashboard stats rollup. Every route in this package sits behind the admin
// role gate; handlers here additionally audit each mutation.
package admin

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/eventlane/eventlane/internal/audit"
	"github.com/eventlane/eventlane/internal/auth"
	"github.com/eventlane/eventlane/internal/db/models"
	"github.com/eventlane/eventlane/internal/db/repositories"
	"github.com/eventlane/eventlane/internal/middleware"
)

// UserHandlers bundles the admin user management endpoints.
type UserHandlers struct {
	userRepo *repositories.UserRepository
	recorder *audit.Recorder
}

// NewUserHandlers creates the admin user handlers.
func NewUserHandlers(db *sql.DB, recorder *audit.Recorder) *UserHandlers {
	return &UserHandlers{
		userRepo: repositories.NewUserRepository(db),
		recorder: recorder,
	}
}

func (h *UserHandlers) record(c *gin.Context, caller *auth.Caller, action audit.Action, userID string, metadata map[string]interface{}) {
	_ = h.recorder.Record(&audit.Entry{
		UserID:     caller.ID,
		UserEmail:  caller.Email,
		Action:     action,
		Resource:   audit.ResourceUser,
		ResourceID: userID,
		IPAddress:  audit.ClientIP(c.Request),
		UserAgent:  audit.UserAgent(c.Request),
		Endpoint:   c.Request.URL.Path,
		Status:     audit.StatusSuccess,
		Metadata:   metadata,
	})
}

// @Summary      List users
// @Description  List users, or search by name/email fragment with the q parameter.
// @Tags         Admin
// @Security     Bearer
// @Produce      json
// @Param        q         query  string  false  "Search by name or email"
// @Param        page      query  int     false  "Page number (default 1)"
// @Param        per_page  query  int     false  "Items per page, max 100 (default 20)"
// @Success      200  {object}  map[string]interface{}  "users: []models.User"
// @Router       /api/v1/admin/users [get]
func (h *UserHandlers) List(c *gin.Context) {
	page, perPage := pagination(c)

	if q := c.Query("q"); q != "" {
		users, err := h.userRepo.Search(c.Request.Context(), q, perPage, (page-1)*perPage)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search users"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"users": users})
		return
	}

	users, total, err := h.userRepo.List(c.Request.Context(), perPage, (page-1)*perPage)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"pagination": gin.H{
			"page":     page,
			"per_page": perPage,
			"total":    total,
		},
	})
}

// @Summary      Get user
// @Tags         Admin
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "User ID"
// @Success      200  {object}  map[string]interface{}  "user: models.User"
// @Failure      404  {object}  map[string]interface{}  "User not found"
// @Router       /api/v1/admin/users/{id} [get]
func (h *UserHandlers) Get(c *gin.Context) {
	user, err := h.userRepo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// SetRoleRequest names the role to assign.
type SetRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// @Summary      Change user role
// @Description  Assign a new role. superadmin is not assignable through the API; it can only be set by direct database access.
// @Tags         Admin
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string          true  "User ID"
// @Param        body  body  SetRoleRequest  true  "New role"
// @Success      200  {object}  map[string]interface{}  "user: models.User"
// @Failure      400  {object}  map[string]interface{}  "Role is not assignable"
// @Router       /api/v1/admin/users/{id}/role [put]
func (h *UserHandlers) SetRole(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if !auth.IsAssignable(auth.Role(req.Role)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Role is not assignable: " + req.Role})
		return
	}

	user, err := h.userRepo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if err := h.userRepo.SetRole(c.Request.Context(), user.ID, req.Role); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to change role"})
		return
	}

	h.record(c, caller, audit.ActionRoleChanged, user.ID, map[string]interface{}{
		"from": user.Role,
		"to":   req.Role,
	})
	user.Role = req.Role
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// SuspendRequest carries the reason recorded against the suspension.
type SuspendRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// @Summary      Suspend user
// @Description  Suspend the account. Suspended users are rejected at authentication with 403 and an account_locked audit entry.
// @Tags         Admin
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string          true  "User ID"
// @Param        body  body  SuspendRequest  true  "Suspension reason"
// @Success      200  {object}  map[string]interface{}  "ok: true"
// @Router       /api/v1/admin/users/{id}/suspend [post]
func (h *UserHandlers) Suspend(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req SuspendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	userID := c.Param("id")
	if userID == caller.ID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot suspend your own account"})
		return
	}

	if err := h.userRepo.Suspend(c.Request.Context(), userID, req.Reason); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to suspend user"})
		return
	}

	h.record(c, caller, audit.ActionUserSuspended, userID, map[string]interface{}{
		"reason": req.Reason,
	})
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// @Summary      Unsuspend user
// @Tags         Admin
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "User ID"
// @Success      200  {object}  map[string]interface{}  "ok: true"
// @Router       /api/v1/admin/users/{id}/unsuspend [post]
func (h *UserHandlers) Unsuspend(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	userID := c.Param("id")
	if err := h.userRepo.Unsuspend(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unsuspend user"})
		return
	}

	h.record(c, caller, audit.ActionUserUnsuspended, userID, nil)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// @Summary      Delete user
// @Tags         Admin
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "User ID"
// @Success      200  {object}  map[string]interface{}  "ok: true"
// @Router       /api/v1/admin/users/{id} [delete]
func (h *UserHandlers) Delete(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	userID := c.Param("id")
	if userID == caller.ID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot delete your own account"})
		return
	}

	if err := h.userRepo.Delete(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}

	h.record(c, caller, audit.ActionUserDeleted, userID, nil)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// CreateUserRequest is the request body for admin user creation. Unlike
// signup, the admin picks the role and the account skips email verification.
type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required"`
}

// @Summary      Create user
// @Description  Create an account with a chosen role. The same assignability rule as role changes applies: superadmin cannot be granted through the API.
// @Tags         Admin
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  CreateUserRequest  true  "User"
// @Success      201  {object}  map[string]interface{}  "user: models.User"
// @Failure      409  {object}  map[string]interface{}  "Email already registered"
// @Router       /api/v1/admin/users [post]
func (h *UserHandlers) Create(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if !auth.IsAssignable(auth.Role(req.Role)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Role is not assignable: " + req.Role})
		return
	}

	existing, err := h.userRepo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check email"})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	user := &models.User{
		Email:         req.Email,
		Name:          req.Name,
		PasswordHash:  hash,
		Role:          req.Role,
		Status:        models.UserStatusActive,
		EmailVerified: true,
	}
	if err := h.userRepo.Create(c.Request.Context(), user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	h.record(c, caller, audit.ActionUserCreated, user.ID, map[string]interface{}{
		"role": user.Role,
	})
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

func pagination(c *gin.Context) (page, perPage int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return page, perPage
}
