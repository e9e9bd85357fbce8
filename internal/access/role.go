// Package access decides what a principal may do. It is the single source of
// truth for role-based authorization and has no storage dependencies.
package access

import (
	"strings"

	"charitydesk/internal/models"
)

// Role is the closed set of principal roles.
type Role int

const (
	// RoleNone is an unauthenticated visitor, and any principal whose role
	// could not be resolved.
	RoleNone Role = iota
	RoleGuest
	RoleEditor
	RoleAdmin
)

// Roles lists every role, lowest privilege first.
var Roles = []Role{RoleNone, RoleGuest, RoleEditor, RoleAdmin}

func (r Role) String() string {
	switch r {
	case RoleGuest:
		return models.RoleNameGuest
	case RoleEditor:
		return models.RoleNameEditor
	case RoleAdmin:
		return models.RoleNameAdmin
	default:
		return "none"
	}
}

// IsStaff reports whether the role belongs to the back office.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleEditor
}

// ParseRole maps a stored role name to a Role. Unknown or empty names resolve
// to RoleNone, never to an elevated role.
func ParseRole(name string) Role {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case models.RoleNameAdmin:
		return RoleAdmin
	case models.RoleNameEditor:
		return RoleEditor
	case models.RoleNameGuest:
		return RoleGuest
	default:
		return RoleNone
	}
}

// ParseAssignableRole parses a role that may be stored on a user account.
// RoleNone is not assignable.
func ParseAssignableRole(name string) (Role, bool) {
	r := ParseRole(name)
	return r, r != RoleNone
}

// Principal is the actor of a request. It is always passed explicitly.
type Principal struct {
	ID            uint
	Role          Role
	EmailVerified bool
}

// Anonymous is the principal of a request without valid credentials.
var Anonymous = Principal{Role: RoleNone}

// PrincipalFor builds the principal for a stored user. A nil user yields Anonymous.
func PrincipalFor(u *models.User) Principal {
	if u == nil {
		return Anonymous
	}
	return Principal{
		ID:            u.ID,
		Role:          ParseRole(u.Role),
		EmailVerified: u.EmailVerified(),
	}
}

// Authenticated reports whether the principal maps to an account with a known role.
func (p Principal) Authenticated() bool {
	return p.ID != 0 && p.Role != RoleNone
}
