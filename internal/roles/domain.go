package roles

import "time"

// Role represents a role for management together with the permissions and
// menus granted to it.
type Role struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	IsSuperRole bool            `json:"isSuperRole"`
	IsActive    bool            `json:"isActive"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	UserCount   int             `json:"userCount"`
	Permissions []PermissionRef `json:"permissions,omitempty"`
	Menus       []MenuRef       `json:"menus,omitempty"`
}

// PermissionRef is the permission summary embedded in a role.
type PermissionRef struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Action string `json:"action"`
}

// MenuRef is the menu summary embedded in a role.
type MenuRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// RoleInput is the payload accepted by create and edit. A nil Permissions or
// Menus slice leaves the current assignments untouched on edit; an empty one
// clears them.
type RoleInput struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Slug        string  `json:"slug" validate:"max=255"`
	Description string  `json:"description" validate:"max=1000"`
	IsActive    *bool   `json:"isActive"`
	Permissions []int64 `json:"permissions" validate:"omitempty,dive,gt=0"`
	Menus       []int64 `json:"menus" validate:"omitempty,dive,gt=0"`
}
