package tags

import "time"

// Tag labels posts.
type Tag struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	PostCount   int       `json:"postCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	RecentPosts []PostRef `json:"recentPosts,omitempty"`
}

// PostRef is a compact post reference shown on a tag detail.
type PostRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// TagInput is the payload accepted by create and update.
type TagInput struct {
	Name string `json:"name" validate:"required,max=255"`
}
