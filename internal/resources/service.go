package resources

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/paisaid/paisaid-cms/internal/shared"
)

// RepositoryPort defines data access methods for resources.
type RepositoryPort interface {
	List(ctx context.Context, params shared.ListParams) ([]Resource, int, error)
	Get(ctx context.Context, id int64) (Resource, error)
	Create(ctx context.Context, res Resource) (int64, error)
	Update(ctx context.Context, res Resource) error
	Delete(ctx context.Context, id int64) error
	BulkDelete(ctx context.Context, ids []int64) (int64, error)
}

// Service handles resource business logic.
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

// List returns a page of resources.
func (s *Service) List(ctx context.Context, params shared.ListParams) ([]Resource, shared.PageMeta, error) {
	items, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, shared.PageMeta{}, fmt.Errorf("resources: list: %w", err)
	}
	return items, shared.NewPageMeta(params, total), nil
}

// Get returns a resource.
func (s *Service) Get(ctx context.Context, id int64) (Resource, error) {
	return s.repo.Get(ctx, id)
}

// Create inserts a resource. New resources are active unless told otherwise.
func (s *Service) Create(ctx context.Context, actorID int64, in ResourceInput) (Resource, error) {
	res, err := fromInput(in, true)
	if err != nil {
		return Resource{}, err
	}
	id, err := s.repo.Create(ctx, res)
	if err != nil {
		return Resource{}, err
	}
	s.record(ctx, actorID, "resource.create", id)
	return s.repo.Get(ctx, id)
}

// Update rewrites a resource. An omitted isActive keeps the current flag.
func (s *Service) Update(ctx context.Context, actorID, id int64, in ResourceInput) (Resource, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Resource{}, err
	}
	res, err := fromInput(in, current.IsActive)
	if err != nil {
		return Resource{}, err
	}
	res.ID = id
	if err := s.repo.Update(ctx, res); err != nil {
		return Resource{}, err
	}
	s.record(ctx, actorID, "resource.update", id)
	return s.repo.Get(ctx, id)
}

// Delete removes a resource.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actorID, "resource.delete", id)
	return nil
}

// BulkDelete removes the listed resources and returns how many were deleted.
func (s *Service) BulkDelete(ctx context.Context, actorID int64, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: ids must be a non-empty array", shared.ErrValidation)
	}
	deleted, err := s.repo.BulkDelete(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("resources: bulk delete: %w", err)
	}
	if deleted == 0 {
		return 0, fmt.Errorf("%w: one or more resources not found", shared.ErrNotFound)
	}
	for _, id := range ids {
		s.record(ctx, actorID, "resource.bulk_delete", id)
	}
	return deleted, nil
}

func fromInput(in ResourceInput, active bool) (Resource, error) {
	res := Resource{
		Name:        strings.TrimSpace(in.Name),
		Slug:        shared.Slugify(in.Slug),
		Description: strings.TrimSpace(in.Description),
		IsActive:    active,
	}
	if in.IsActive != nil {
		res.IsActive = *in.IsActive
	}
	if res.Name == "" {
		return Resource{}, fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	if res.Slug == "" {
		return Resource{}, fmt.Errorf("%w: slug must contain letters or digits", shared.ErrValidation)
	}
	return res, nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, id int64) {
	err := s.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: "resource", EntityID: strconv.FormatInt(id, 10)})
	if err != nil {
		s.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}
