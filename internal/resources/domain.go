package resources

import "time"

// Resource is a securable area of the back office. Permissions may point at
// the resource they guard.
type Resource struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Permissions []string  `json:"permissions,omitempty"`
}

// ResourceInput is the payload accepted by create and edit.
type ResourceInput struct {
	Name        string `json:"name" validate:"required,max=255"`
	Slug        string `json:"slug" validate:"required,max=255"`
	Description string `json:"description" validate:"max=2000"`
	IsActive    *bool  `json:"isActive"`
}

// BulkDeleteInput lists resources removed in one statement.
type BulkDeleteInput struct {
	IDs []int64 `json:"ids" validate:"required,min=1,dive,gt=0"`
}
