// Package auth provides authentication and authorization primitives:
// JWT creation/verification, bcrypt password and API key hashing, and the
// role hierarchy used to gate administrative surfaces.
//
// Role checks are centralised here rather than re-written at call sites so
// that "is this caller an admin" has exactly one definition. See
// internal/middleware for the request-time gates built on these predicates.
package auth

// Role is a user role drawn from the platform's fixed hierarchy.
type Role string

// Known roles. Vendor and volunteer accounts exist in the schema but carry no
// elevated privileges; they share the default privilege level with organizer.
const (
	RoleSuperadmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleOrganizer  Role = "organizer"
	RoleVendor     Role = "vendor"
	RoleVolunteer  Role = "volunteer"
)

// roleLevels is the numeric privilege hierarchy. Roles not present (including
// the empty role) default to the base level.
var roleLevels = map[Role]int{
	RoleSuperadmin: 3,
	RoleAdmin:      2,
	RoleOrganizer:  1,
}

const defaultRoleLevel = 1

// Level returns the numeric privilege level for the role.
func (r Role) Level() int {
	if lvl, ok := roleLevels[r]; ok {
		return lvl
	}
	return defaultRoleLevel
}

// IsAdmin reports whether the role is admin-equivalent (admin or superadmin).
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperadmin
}

// AtLeast reports whether the role's privilege level meets or exceeds the
// required role's level.
func (r Role) AtLeast(required Role) bool {
	return r.Level() >= required.Level()
}

// IsAssignable reports whether role is one an admin may assign to a user.
// Superadmin is deliberately excluded: it can only be granted by direct
// database access, never through the API.
func IsAssignable(role Role) bool {
	switch role {
	case RoleAdmin, RoleOrganizer, RoleVendor, RoleVolunteer:
		return true
	}
	return false
}
