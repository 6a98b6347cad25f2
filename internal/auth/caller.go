package auth

// Caller identifies the authenticated principal attached to a request.
// It is stored on the gin context by the auth middleware and read by
// handlers for ownership and role checks.
type Caller struct {
	ID     string
	Email  string
	Role   Role
	Status string
	// APIKeyID is set when the request authenticated with an API key
	// rather than a session token.
	APIKeyID string
}

// IsAdmin reports whether the caller holds an admin-equivalent role.
func (c *Caller) IsAdmin() bool {
	return c.Role.IsAdmin()
}

// CanManage reports whether the caller may modify a resource owned by
// ownerID: owners always can, admins can manage anything.
func (c *Caller) CanManage(ownerID string) bool {
	return c.ID == ownerID || c.IsAdmin()
}
