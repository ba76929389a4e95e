package categories

import "time"

// Category groups posts. Categories form a tree through ParentID.
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	ParentID    *int64    `json:"parentId"`
	IsActive    bool      `json:"isActive"`
	PostCount   int       `json:"postCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Parent      *Ref      `json:"parent,omitempty"`
	Children    []Ref     `json:"children,omitempty"`
	RecentPosts []PostRef `json:"recentPosts,omitempty"`
}

// Ref is a compact category reference.
type Ref struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// PostRef is a compact post reference shown on a category detail.
type PostRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// Filter narrows a category listing.
type Filter struct {
	// TopLevel restricts the listing to categories without a parent.
	TopLevel bool
	ParentID int64
}

// CategoryInput is the payload accepted by create and update.
type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=2000"`
	ParentID    *int64 `json:"parentId" validate:"omitempty,gt=0"`
	IsActive    *bool  `json:"isActive"`
}
