package users

import (
	"errors"
	"strings"
)

// Role is the privilege level derived from an authenticated principal.
type Role string

const (
	// RoleAuthor may edit daily notes.
	RoleAuthor Role = "author"
	// RoleViewer is any signed-in caller other than the author.
	RoleViewer Role = "viewer"
	// RoleAnonymous is an unauthenticated caller.
	RoleAnonymous Role = "anonymous"
)

// ErrMissingAdminEmail indicates a role gate constructed without an
// allow-listed author.
var ErrMissingAdminEmail = errors.New("users: admin email required")

// RoleGate maps principal emails to roles. Authoring privilege is an exact
// match against the single allow-listed admin email; there is no role
// hierarchy beyond author and viewer.
type RoleGate struct {
	adminEmail string
}

// NewRoleGate constructs a gate for the configured admin email.
func NewRoleGate(adminEmail string) (*RoleGate, error) {
	trimmed := normalize(adminEmail)
	if trimmed == "" {
		return nil, ErrMissingAdminEmail
	}
	return &RoleGate{adminEmail: strings.ToLower(trimmed)}, nil
}

// RoleFor maps an email to its role. Emails are compared case-insensitively
// per RFC 5321's common deployment reality; an empty email is anonymous.
func (g *RoleGate) RoleFor(email string) Role {
	trimmed := normalize(email)
	if trimmed == "" {
		return RoleAnonymous
	}
	if strings.ToLower(trimmed) == g.adminEmail {
		return RoleAuthor
	}
	return RoleViewer
}

// IsAuthor reports whether the email carries authoring privilege.
func (g *RoleGate) IsAuthor(email string) bool {
	return g.RoleFor(email) == RoleAuthor
}
