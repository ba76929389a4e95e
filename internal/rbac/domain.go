package rbac

import (
	"strings"
	"time"
)

// SuperRoleName is the role name that bypasses permission checks.
const SuperRoleName = "admin"

// Role represents a high-level permission grouping. Permissions holds the
// actions granted to the role when it is loaded for authorization.
type Role struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Slug        string       `json:"slug"`
	IsSuperRole bool         `json:"isSuperRole"`
	Permissions []Permission `json:"permissions,omitempty"`
}

// IsSuper reports whether the role bypasses permission checks. Rows created
// before the flag existed are recognised by name.
func (r Role) IsSuper() bool {
	return r.IsSuperRole || strings.EqualFold(strings.TrimSpace(r.Name), SuperRoleName)
}

// Actions returns the normalised permission actions granted to the role.
func (r Role) Actions() []string {
	out := make([]string, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		out = append(out, NormalizeAction(p.Action))
	}
	return out
}

// Permission represents an atomic capability such as "create:post".
type Permission struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name,omitempty"`
	Action      string    `json:"action"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"isActive"`
	ResourceID  *int64    `json:"resourceId"`
	CreatedAt   time.Time `json:"createdAt,omitzero"`
	UpdatedAt   time.Time `json:"updatedAt,omitzero"`
	Roles       []RoleRef `json:"roles,omitempty"`
}

// RoleRef is a compact role reference listed on a permission detail.
type RoleRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// NormalizeAction lowercases and trims a permission action.
func NormalizeAction(action string) string {
	return strings.ToLower(strings.TrimSpace(action))
}
