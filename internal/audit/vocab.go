// Package audit handles structured audit log emission for security-relevant
// events such as authentication attempts, role changes, approvals, and
// suspicious activity. Audit logs are intentionally separate from application
// logs because they have different consumers and retention requirements —
// application logs are ephemeral debug output consumed by on-call engineers,
// while audit logs are immutable records consumed by security teams and may be
// subject to compliance retention policies measured in years. The package
// validates every entry against closed action/resource/status vocabularies at
// write time, and supports multiple simultaneous external destinations (file,
// webhook) via the Shipper interface so audit records can be routed to a SIEM
// or log aggregator independently of the application's own logging pipeline.
package audit

// Action identifies what happened. The set is closed: entries carrying an
// action outside this list are rejected at write time rather than polluting
// the log with free-form strings that dashboards cannot group on.
type Action string

// Authentication and account lifecycle actions.
const (
	ActionLogin                  Action = "login"
	ActionLoginFailed            Action = "login_failed"
	ActionLogout                 Action = "logout"
	ActionSignup                 Action = "signup"
	ActionPasswordResetRequested Action = "password_reset_requested"
	ActionPasswordResetCompleted Action = "password_reset_completed"
	ActionEmailVerified          Action = "email_verified"
)

// User administration actions.
const (
	ActionUserCreated     Action = "user_created"
	ActionUserUpdated     Action = "user_updated"
	ActionUserDeleted     Action = "user_deleted"
	ActionUserSuspended   Action = "user_suspended"
	ActionUserUnsuspended Action = "user_unsuspended"
	ActionRoleChanged     Action = "role_changed"
)

// Event lifecycle actions.
const (
	ActionEventCreated   Action = "event_created"
	ActionEventUpdated   Action = "event_updated"
	ActionEventDeleted   Action = "event_deleted"
	ActionEventPublished Action = "event_published"
)

// Vendor and sponsor approval actions.
const (
	ActionVendorApproved  Action = "vendor_approved"
	ActionVendorRejected  Action = "vendor_rejected"
	ActionSponsorApproved Action = "sponsor_approved"
	ActionSponsorRejected Action = "sponsor_rejected"
)

// API key and request-level actions.
const (
	ActionAPIKeyCreated Action = "api_key_created"
	ActionAPIKeyRevoked Action = "api_key_revoked"
	ActionAPIRequest    Action = "api_request"
)

// Administrative and security actions.
const (
	ActionAdminAction        Action = "admin_action"
	ActionSettingsChanged    Action = "settings_changed"
	ActionRateLimited        Action = "rate_limited"
	ActionAccountLocked      Action = "account_locked"
	ActionSuspiciousActivity Action = "suspicious_activity"
)

// Resource identifies what was acted upon.
type Resource string

// Known resources.
const (
	ResourceUser     Resource = "user"
	ResourceEvent    Resource = "event"
	ResourceVendor   Resource = "vendor"
	ResourceSponsor  Resource = "sponsor"
	ResourceAPIKey   Resource = "api_key"
	ResourceWebhook  Resource = "webhook"
	ResourceSettings Resource = "settings"
	ResourceAuth     Resource = "auth"
)

// Status records the outcome of the audited operation.
type Status string

// Known statuses.
const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusBlocked Status = "blocked"
)

var validActions = map[Action]struct{}{
	ActionLogin: {}, ActionLoginFailed: {}, ActionLogout: {}, ActionSignup: {},
	ActionPasswordResetRequested: {}, ActionPasswordResetCompleted: {}, ActionEmailVerified: {},
	ActionUserCreated: {}, ActionUserUpdated: {}, ActionUserDeleted: {},
	ActionUserSuspended: {}, ActionUserUnsuspended: {}, ActionRoleChanged: {},
	ActionEventCreated: {}, ActionEventUpdated: {}, ActionEventDeleted: {}, ActionEventPublished: {},
	ActionVendorApproved: {}, ActionVendorRejected: {},
	ActionSponsorApproved: {}, ActionSponsorRejected: {},
	ActionAPIKeyCreated: {}, ActionAPIKeyRevoked: {}, ActionAPIRequest: {},
	ActionAdminAction: {}, ActionSettingsChanged: {},
	ActionRateLimited: {}, ActionAccountLocked: {}, ActionSuspiciousActivity: {},
}

var validResources = map[Resource]struct{}{
	ResourceUser: {}, ResourceEvent: {}, ResourceVendor: {}, ResourceSponsor: {},
	ResourceAPIKey: {}, ResourceWebhook: {}, ResourceSettings: {}, ResourceAuth: {},
}

var validStatuses = map[Status]struct{}{
	StatusSuccess: {}, StatusFailure: {}, StatusBlocked: {},
}

// ValidAction reports whether a is in the closed action vocabulary.
func ValidAction(a Action) bool {
	_, ok := validActions[a]
	return ok
}

// ValidResource reports whether r is in the closed resource vocabulary.
func ValidResource(r Resource) bool {
	_, ok := validResources[r]
	return ok
}

// ValidStatus reports whether s is in the closed status vocabulary.
func ValidStatus(s Status) bool {
	_, ok := validStatuses[s]
	return ok
}
