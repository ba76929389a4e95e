package posts

import (
	"time"

	"github.com/google/uuid"
)

// Post statuses.
const (
	StatusDraft     = "DRAFT"
	StatusPublished = "PUBLISHED"
	StatusArchived  = "ARCHIVED"
)

// Price ranges a listing may advertise.
const (
	PriceLow    = "LOW"
	PriceMedium = "MEDIUM"
	PriceHigh   = "HIGH"
	PriceLuxury = "LUXURY"
)

// Sort orders accepted by List.
const (
	SortCreatedAt = "createdAt"
	SortViewCount = "viewCount"
)

// Post is an editorial entry describing a place.
type Post struct {
	ID           uuid.UUID   `json:"id"`
	Title        string      `json:"title"`
	Slug         string      `json:"slug"`
	Content      string      `json:"content"`
	Status       string      `json:"status"`
	Category     CategoryRef `json:"category"`
	Author       AuthorRef   `json:"author"`
	Tags         []TagRef    `json:"tags"`
	PriceRange   string      `json:"priceRange,omitempty"`
	Address      string      `json:"address,omitempty"`
	City         string      `json:"city,omitempty"`
	Country      string      `json:"country,omitempty"`
	Latitude     *float64    `json:"latitude"`
	Longitude    *float64    `json:"longitude"`
	Phone        string      `json:"phone,omitempty"`
	Website      string      `json:"website,omitempty"`
	OpeningHours string      `json:"openingHours,omitempty"`
	ViewCount    int64       `json:"viewCount"`
	PublishedAt  *time.Time  `json:"publishedAt"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// CategoryRef is the category summary embedded in a post.
type CategoryRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// AuthorRef is the author summary embedded in a post.
type AuthorRef struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// TagRef is the tag summary embedded in a post.
type TagRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Filter narrows a post listing.
type Filter struct {
	CategoryID    int64
	TagIDs        []int64
	City          string
	Country       string
	PriceRange    string
	Status        string
	Sort          string
	PublishedOnly bool
}

// PostInput is the payload accepted by create and update. A nil TagIDs on
// update keeps the current tags.
type PostInput struct {
	Title        string   `json:"title" validate:"required,max=500"`
	Content      string   `json:"content" validate:"required"`
	CategoryID   int64    `json:"categoryId" validate:"required,gt=0"`
	TagIDs       []int64  `json:"tagIds" validate:"omitempty,dive,gt=0"`
	Status       string   `json:"status" validate:"omitempty,oneof=DRAFT PUBLISHED ARCHIVED draft published archived"`
	PriceRange   string   `json:"priceRange" validate:"omitempty,oneof=LOW MEDIUM HIGH LUXURY"`
	Address      string   `json:"address" validate:"max=1000"`
	City         string   `json:"city" validate:"max=255"`
	Country      string   `json:"country" validate:"max=255"`
	Latitude     *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude    *float64 `json:"longitude" validate:"omitempty,longitude"`
	Phone        string   `json:"phone" validate:"max=255"`
	Website      string   `json:"website" validate:"omitempty,url"`
	OpeningHours string   `json:"openingHours" validate:"max=1000"`
}

// BulkDeleteInput lists posts removed in one transaction.
type BulkDeleteInput struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1"`
}
