package tags

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/paisaid/paisaid-cms/internal/shared"
)

// RepositoryPort defines data access methods for tags.
type RepositoryPort interface {
	List(ctx context.Context, params shared.ListParams) ([]Tag, int, error)
	Get(ctx context.Context, id int64, withPosts bool) (Tag, error)
	Create(ctx context.Context, t Tag) (int64, error)
	Update(ctx context.Context, t Tag) error
	Delete(ctx context.Context, id int64) error
}

// Service handles tag business logic.
type Service struct {
	repo   RepositoryPort
	audit  shared.AuditRecorder
	logger *slog.Logger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit shared.AuditRecorder, logger *slog.Logger) *Service {
	if audit == nil {
		audit = shared.NopAudit{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, logger: logger}
}

// List returns a page of tags.
func (s *Service) List(ctx context.Context, params shared.ListParams) ([]Tag, shared.PageMeta, error) {
	items, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, shared.PageMeta{}, fmt.Errorf("tags: list: %w", err)
	}
	return items, shared.NewPageMeta(params, total), nil
}

// Get returns a tag.
func (s *Service) Get(ctx context.Context, id int64, withPosts bool) (Tag, error) {
	return s.repo.Get(ctx, id, withPosts)
}

// Create inserts a tag.
func (s *Service) Create(ctx context.Context, actorID int64, in TagInput) (Tag, error) {
	t, err := fromInput(in)
	if err != nil {
		return Tag{}, err
	}
	id, err := s.repo.Create(ctx, t)
	if err != nil {
		return Tag{}, err
	}
	s.record(ctx, actorID, "tag.create", id)
	return s.repo.Get(ctx, id, false)
}

// Update renames a tag.
func (s *Service) Update(ctx context.Context, actorID, id int64, in TagInput) (Tag, error) {
	t, err := fromInput(in)
	if err != nil {
		return Tag{}, err
	}
	t.ID = id
	if err := s.repo.Update(ctx, t); err != nil {
		return Tag{}, err
	}
	s.record(ctx, actorID, "tag.update", id)
	return s.repo.Get(ctx, id, false)
}

// Delete removes a tag that no post references.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	t, err := s.repo.Get(ctx, id, false)
	if err != nil {
		return err
	}
	if t.PostCount > 0 {
		return fmt.Errorf("%w: cannot delete tag with associated posts", shared.ErrConflict)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actorID, "tag.delete", id)
	return nil
}

func fromInput(in TagInput) (Tag, error) {
	t := Tag{Name: strings.TrimSpace(in.Name)}
	if t.Name == "" {
		return Tag{}, fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	t.Slug = shared.Slugify(t.Name)
	if t.Slug == "" {
		return Tag{}, fmt.Errorf("%w: name must contain letters or digits", shared.ErrValidation)
	}
	return t, nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, id int64) {
	err := s.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: "tag", EntityID: strconv.FormatInt(id, 10)})
	if err != nil {
		s.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}
