package types

import (
	"errors"
	"fmt"
	"time"
)

// Role gates what a user may change.
type Role string

// Roles.
const (
	RoleViewer Role = "viewer"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
)

// ErrInvalidRole is returned by ParseRole for unknown role names.
var ErrInvalidRole = errors.New("invalid role")

// ParseRole converts a role name.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleViewer, RoleEditor, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
}

// CanEdit reports whether the role may change plan content.
func (r Role) CanEdit() bool {
	return r == RoleEditor || r == RoleAdmin
}

// IsAdmin reports whether the role may manage users.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// User is an account of the dashboard.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Project owns one set of plan sections.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
