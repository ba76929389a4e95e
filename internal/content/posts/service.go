package posts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/paisaid/paisaid-cms/internal/shared"
)

const (
	defaultNearbyKm    = 10
	nearbyLimit        = 10
	kmPerDegree        = 111.32
	defaultTrendWindow = "30d"
)

// RepositoryPort defines data access methods for posts.
type RepositoryPort interface {
	List(ctx context.Context, params shared.ListParams, filter Filter) ([]Post, int, error)
	Trending(ctx context.Context, params shared.ListParams, since *time.Time) ([]Post, int, error)
	Nearby(ctx context.Context, origin Post, deltaDegrees float64, limit int) ([]Post, error)
	Get(ctx context.Context, id uuid.UUID) (Post, error)
	GetBySlug(ctx context.Context, slug string) (Post, error)
	Create(ctx context.Context, p Post, tagIDs []int64) error
	Update(ctx context.Context, p Post, tagIDs []int64) error
	SetStatus(ctx context.Context, id uuid.UUID, status string, at time.Time) error
	IncrementViews(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	BulkDelete(ctx context.Context, ids []uuid.UUID) (int64, error)
}

// ViewRecorder counts a post view out of band.
type ViewRecorder interface {
	RecordView(ctx context.Context, postID uuid.UUID) error
}

// Service handles post business logic.
type Service struct {
	repo   RepositoryPort
	views  ViewRecorder
	audit  shared.AuditRecorder
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds Service instance. When views is nil, views are counted
// inline through the repository.
func NewService(repo RepositoryPort, views ViewRecorder, audit shared.AuditRecorder, logger *slog.Logger) *Service {
	if audit == nil {
		audit = shared.NopAudit{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, views: views, audit: audit, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// List returns a page of posts.
func (s *Service) List(ctx context.Context, params shared.ListParams, filter Filter) ([]Post, shared.PageMeta, error) {
	if filter.Sort != "" && filter.Sort != SortCreatedAt && filter.Sort != SortViewCount {
		return nil, shared.PageMeta{}, fmt.Errorf("%w: sort must be createdAt or viewCount", shared.ErrValidation)
	}
	filter.Status = strings.ToUpper(filter.Status)
	items, total, err := s.repo.List(ctx, params, filter)
	if err != nil {
		return nil, shared.PageMeta{}, fmt.Errorf("posts: list: %w", err)
	}
	return items, shared.NewPageMeta(params, total), nil
}

// Trending returns the most viewed published posts within a window of 7d,
// 30d or all. An empty window means 30d.
func (s *Service) Trending(ctx context.Context, params shared.ListParams, window string) ([]Post, shared.PageMeta, error) {
	if params.Limit == 0 {
		params.Limit = 10
	}
	if window == "" {
		window = defaultTrendWindow
	}
	var since *time.Time
	switch window {
	case "7d", "30d":
		days := 7
		if window == "30d" {
			days = 30
		}
		t := s.now().AddDate(0, 0, -days)
		since = &t
	case "all":
	default:
		return nil, shared.PageMeta{}, fmt.Errorf("%w: timeRange must be 7d, 30d or all", shared.ErrValidation)
	}
	items, total, err := s.repo.Trending(ctx, params, since)
	if err != nil {
		return nil, shared.PageMeta{}, fmt.Errorf("posts: trending: %w", err)
	}
	return items, shared.NewPageMeta(params, total), nil
}

// Lookup resolves a post by UUID or slug.
func (s *Service) Lookup(ctx context.Context, key string) (Post, error) {
	if id, err := uuid.Parse(key); err == nil {
		return s.repo.Get(ctx, id)
	}
	return s.repo.GetBySlug(ctx, key)
}

// Detail returns a post for display. Anonymous readers only see published
// posts and each of their reads counts as a view.
func (s *Service) Detail(ctx context.Context, key string, anonymous bool) (Post, error) {
	p, err := s.Lookup(ctx, key)
	if err != nil {
		return Post{}, err
	}
	if !anonymous {
		return p, nil
	}
	if p.Status != StatusPublished {
		return Post{}, fmt.Errorf("%w: post not found", shared.ErrNotFound)
	}
	s.recordView(ctx, p.ID)
	return p, nil
}

func (s *Service) recordView(ctx context.Context, id uuid.UUID) {
	var err error
	if s.views != nil {
		err = s.views.RecordView(ctx, id)
		if err != nil {
			s.logger.Debug("enqueue post view, counting inline", slog.String("post_id", id.String()), slog.Any("error", err))
			err = s.repo.IncrementViews(ctx, id)
		}
	} else {
		err = s.repo.IncrementViews(ctx, id)
	}
	if err != nil {
		s.logger.Warn("record post view", slog.String("post_id", id.String()), slog.Any("error", err))
	}
}

// CountView increments a post's view counter. The view worker calls it.
func (s *Service) CountView(ctx context.Context, id uuid.UUID) error {
	return s.repo.IncrementViews(ctx, id)
}

// Nearby returns up to ten published posts within distanceKm of the post.
func (s *Service) Nearby(ctx context.Context, key string, distanceKm float64) ([]Post, error) {
	if distanceKm <= 0 {
		distanceKm = defaultNearbyKm
	}
	origin, err := s.Lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.Nearby(ctx, origin, distanceKm/kmPerDegree, nearbyLimit)
	if err != nil {
		return nil, fmt.Errorf("posts: nearby: %w", err)
	}
	return items, nil
}

// Create inserts a post authored by actorID.
func (s *Service) Create(ctx context.Context, actorID int64, in PostInput) (Post, error) {
	if len(in.TagIDs) == 0 {
		return Post{}, fmt.Errorf("%w: at least one tag is required", shared.ErrValidation)
	}
	p, err := fromInput(in)
	if err != nil {
		return Post{}, err
	}
	if p.Status == "" {
		p.Status = StatusDraft
	}
	if p.PriceRange == "" {
		p.PriceRange = PriceHigh
	}
	p.ID = uuid.New()
	p.Author.ID = actorID
	p.CreatedAt = s.now()
	if p.Status == StatusPublished {
		at := p.CreatedAt
		p.PublishedAt = &at
	}
	if err := s.repo.Create(ctx, p, in.TagIDs); err != nil {
		return Post{}, err
	}
	s.record(ctx, actorID, "post.create", p.ID)
	return s.repo.Get(ctx, p.ID)
}

// Update rewrites a post. Publishing for the first time stamps publishedAt.
func (s *Service) Update(ctx context.Context, actorID int64, id uuid.UUID, in PostInput) (Post, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return Post{}, err
	}
	p, err := fromInput(in)
	if err != nil {
		return Post{}, err
	}
	p.ID = id
	p.UpdatedAt = s.now()
	if p.Status == "" {
		p.Status = existing.Status
	}
	p.PublishedAt = existing.PublishedAt
	if p.Status == StatusPublished && p.PublishedAt == nil {
		at := p.UpdatedAt
		p.PublishedAt = &at
	}
	if err := s.repo.Update(ctx, p, in.TagIDs); err != nil {
		return Post{}, err
	}
	s.record(ctx, actorID, "post.update", id)
	return s.repo.Get(ctx, id)
}

// Publish marks a post as published.
func (s *Service) Publish(ctx context.Context, actorID int64, id uuid.UUID) (Post, error) {
	return s.setStatus(ctx, actorID, id, StatusPublished, "post.publish")
}

// Archive marks a post as archived.
func (s *Service) Archive(ctx context.Context, actorID int64, id uuid.UUID) (Post, error) {
	return s.setStatus(ctx, actorID, id, StatusArchived, "post.archive")
}

func (s *Service) setStatus(ctx context.Context, actorID int64, id uuid.UUID, status, action string) (Post, error) {
	if err := s.repo.SetStatus(ctx, id, status, s.now()); err != nil {
		return Post{}, err
	}
	s.record(ctx, actorID, action, id)
	return s.repo.Get(ctx, id)
}

// Delete removes a post.
func (s *Service) Delete(ctx context.Context, actorID int64, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actorID, "post.delete", id)
	return nil
}

// BulkDelete removes the listed posts and returns how many were deleted.
func (s *Service) BulkDelete(ctx context.Context, actorID int64, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: ids must be a non-empty array", shared.ErrValidation)
	}
	deleted, err := s.repo.BulkDelete(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("posts: bulk delete: %w", err)
	}
	if deleted == 0 {
		return 0, fmt.Errorf("%w: no posts found to delete", shared.ErrNotFound)
	}
	for _, id := range ids {
		s.record(ctx, actorID, "post.bulk_delete", id)
	}
	return deleted, nil
}

func fromInput(in PostInput) (Post, error) {
	p := Post{
		Title:        strings.TrimSpace(in.Title),
		Content:      in.Content,
		Status:       strings.ToUpper(strings.TrimSpace(in.Status)),
		Category:     CategoryRef{ID: in.CategoryID},
		PriceRange:   strings.ToUpper(strings.TrimSpace(in.PriceRange)),
		Address:      strings.TrimSpace(in.Address),
		City:         strings.TrimSpace(in.City),
		Country:      strings.TrimSpace(in.Country),
		Latitude:     in.Latitude,
		Longitude:    in.Longitude,
		Phone:        strings.TrimSpace(in.Phone),
		Website:      strings.TrimSpace(in.Website),
		OpeningHours: strings.TrimSpace(in.OpeningHours),
	}
	if p.Title == "" {
		return Post{}, fmt.Errorf("%w: title is required", shared.ErrValidation)
	}
	if strings.TrimSpace(p.Content) == "" {
		return Post{}, fmt.Errorf("%w: content is required", shared.ErrValidation)
	}
	p.Slug = shared.Slugify(p.Title)
	if p.Slug == "" {
		return Post{}, fmt.Errorf("%w: title must contain letters or digits", shared.ErrValidation)
	}
	return p, nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, id uuid.UUID) {
	err := s.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: "post", EntityID: id.String()})
	if err != nil {
		s.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}
