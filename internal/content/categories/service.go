package categories

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/paisaid/paisaid-cms/internal/shared"
)

// RepositoryPort defines data access methods for categories.
type RepositoryPort interface {
	List(ctx context.Context, params shared.ListParams, filter Filter) ([]Category, int, error)
	Get(ctx context.Context, id int64, withPosts bool) (Category, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, c Category) (int64, error)
	Update(ctx context.Context, c Category) error
	Delete(ctx context.Context, id int64) error
}

// Service handles category business logic.
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

// List returns a page of categories.
func (s *Service) List(ctx context.Context, params shared.ListParams, filter Filter) ([]Category, shared.PageMeta, error) {
	items, total, err := s.repo.List(ctx, params, filter)
	if err != nil {
		return nil, shared.PageMeta{}, fmt.Errorf("categories: list: %w", err)
	}
	return items, shared.NewPageMeta(params, total), nil
}

// Get returns a category with its parent and children.
func (s *Service) Get(ctx context.Context, id int64, withPosts bool) (Category, error) {
	return s.repo.Get(ctx, id, withPosts)
}

// Create inserts a category under an optional existing parent.
func (s *Service) Create(ctx context.Context, actorID int64, in CategoryInput) (Category, error) {
	c, err := fromInput(in)
	if err != nil {
		return Category{}, err
	}
	if err := s.checkParent(ctx, c.ParentID); err != nil {
		return Category{}, err
	}
	id, err := s.repo.Create(ctx, c)
	if err != nil {
		return Category{}, err
	}
	s.record(ctx, actorID, "category.create", id)
	return s.repo.Get(ctx, id, false)
}

// Update rewrites a category. A category cannot be its own parent.
func (s *Service) Update(ctx context.Context, actorID, id int64, in CategoryInput) (Category, error) {
	c, err := fromInput(in)
	if err != nil {
		return Category{}, err
	}
	c.ID = id
	if c.ParentID != nil && *c.ParentID == id {
		return Category{}, fmt.Errorf("%w: category cannot be its own parent", shared.ErrValidation)
	}
	if err := s.checkParent(ctx, c.ParentID); err != nil {
		return Category{}, err
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return Category{}, err
	}
	s.record(ctx, actorID, "category.update", id)
	return s.repo.Get(ctx, id, false)
}

// Delete removes a category that has neither posts nor subcategories.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	c, err := s.repo.Get(ctx, id, false)
	if err != nil {
		return err
	}
	if c.PostCount > 0 {
		return fmt.Errorf("%w: cannot delete category with associated posts", shared.ErrConflict)
	}
	if len(c.Children) > 0 {
		return fmt.Errorf("%w: cannot delete category with subcategories", shared.ErrConflict)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actorID, "category.delete", id)
	return nil
}

func (s *Service) checkParent(ctx context.Context, parentID *int64) error {
	if parentID == nil {
		return nil
	}
	ok, err := s.repo.Exists(ctx, *parentID)
	if err != nil {
		return fmt.Errorf("categories: check parent: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: parent category not found", shared.ErrNotFound)
	}
	return nil
}

func fromInput(in CategoryInput) (Category, error) {
	c := Category{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		ParentID:    in.ParentID,
		IsActive:    in.IsActive == nil || *in.IsActive,
	}
	if c.Name == "" {
		return Category{}, fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	c.Slug = shared.Slugify(c.Name)
	if c.Slug == "" {
		return Category{}, fmt.Errorf("%w: name must contain letters or digits", shared.ErrValidation)
	}
	return c, nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, id int64) {
	err := s.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: "category", EntityID: strconv.FormatInt(id, 10)})
	if err != nil {
		s.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}
