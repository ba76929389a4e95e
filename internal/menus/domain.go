package menus

import "time"

// Menu is a navigation entry shown to the roles it is assigned to.
type Menu struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Path      string    `json:"path,omitempty"`
	Icon      string    `json:"icon,omitempty"`
	ParentID  *int64    `json:"parentId"`
	IsActive  bool      `json:"isActive"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Roles     []RoleRef `json:"roles"`
}

// RoleRef is the role summary embedded in a menu.
type RoleRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// MenuInput is the payload accepted by create and edit. Roles replaces the
// assignments when present.
type MenuInput struct {
	Name     string  `json:"name" validate:"required,max=255"`
	Slug     string  `json:"slug" validate:"max=255"`
	Path     string  `json:"path" validate:"required,max=255"`
	Icon     string  `json:"icon" validate:"max=100"`
	ParentID *int64  `json:"parentId" validate:"omitempty,gt=0"`
	IsActive *bool   `json:"isActive"`
	Order    int     `json:"order" validate:"gte=0"`
	Roles    []int64 `json:"roles" validate:"omitempty,dive,gt=0"`
}

// Position moves one menu to a new sort order.
type Position struct {
	ID    int64 `json:"id" validate:"required,gt=0"`
	Order int   `json:"order" validate:"gte=0"`
}
