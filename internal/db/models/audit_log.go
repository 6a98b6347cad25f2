// Package models - audit_log.go defines the AuditLog model for recording
// security-relevant events, capturing actor, action, affected resource, client
// context, and arbitrary metadata. Rows are append-only: there is no update
// path, and deletion happens only through the retention sweep.
package models

import "time"

// AuditLog represents an audit log entry for tracking user actions
type AuditLog struct {
	ID           string                 `json:"id"`
	UserID       *string                `json:"user_id,omitempty"` // Nullable for system and anonymous actions
	UserEmail    *string                `json:"user_email,omitempty"`
	Action       string                 `json:"action"`   // "login_failed", "event_published", "role_changed"
	Resource     string                 `json:"resource"` // "user", "event", "vendor", "auth"
	ResourceID   *string                `json:"resource_id,omitempty"`
	IPAddress    *string                `json:"ip_address,omitempty"`
	UserAgent    *string                `json:"user_agent,omitempty"`
	Endpoint     *string                `json:"endpoint,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"` // JSONB: additional context
	Status       string                 `json:"status"`             // success, failure, blocked
	ErrorMessage *string                `json:"error_message,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}
