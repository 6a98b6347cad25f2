// Package models - user.go defines the User model for platform accounts with
// role, suspension state, and the token columns used by the email verification
// and password reset flows.
package models

import "time"

// User statuses.
const (
	UserStatusActive    = "active"
	UserStatusSuspended = "suspended"
)

// User represents a user in the system
type User struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	Name             string     `json:"name"`
	PasswordHash     string     `json:"-"`
	Role             string     `json:"role"`
	Status           string     `json:"status"`
	SuspensionReason *string    `json:"suspension_reason,omitempty"`
	EmailVerified    bool       `json:"email_verified"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	// Verification and reset tokens are never serialised to API responses.
	VerificationToken   *string    `json:"-"`
	ResetToken          *string    `json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`
}

// IsSuspended returns true if the account has been suspended by an admin.
func (u *User) IsSuspended() bool {
	return u.Status == UserStatusSuspended
}
