package roles

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/paisaid/paisaid-cms/internal/rbac"
	"github.com/paisaid/paisaid-cms/internal/shared"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	List(ctx context.Context, params shared.ListParams) ([]Role, int, error)
	Get(ctx context.Context, id int64) (Role, error)
	Create(ctx context.Context, role Role, permissionIDs, menuIDs []int64) (int64, error)
	Update(ctx context.Context, role Role, permissionIDs, menuIDs []int64) error
	Delete(ctx context.Context, id int64) error
}

// Service handles role business logic.
type Service struct {
	repo   RepositoryPort
	cache  rbac.Invalidator
	audit  shared.AuditRecorder
	logger *slog.Logger
}

// NewService builds Service instance. cache may be nil.
func NewService(repo RepositoryPort, cache rbac.Invalidator, audit shared.AuditRecorder, logger *slog.Logger) *Service {
	if audit == nil {
		audit = shared.NopAudit{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, audit: audit, logger: logger}
}

// List returns a page of roles.
func (s *Service) List(ctx context.Context, params shared.ListParams) ([]Role, shared.PageMeta, error) {
	roles, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, shared.PageMeta{}, fmt.Errorf("roles: list: %w", err)
	}
	return roles, shared.NewPageMeta(params, total), nil
}

// Get returns a role with its assignments.
func (s *Service) Get(ctx context.Context, id int64) (Role, error) {
	return s.repo.Get(ctx, id)
}

// Create inserts a role. A role named admin becomes the super role.
func (s *Service) Create(ctx context.Context, actorID int64, in RoleInput) (Role, error) {
	role, err := fromInput(in)
	if err != nil {
		return Role{}, err
	}
	role.IsSuperRole = strings.EqualFold(role.Name, rbac.SuperRoleName)
	id, err := s.repo.Create(ctx, role, in.Permissions, in.Menus)
	if err != nil {
		return Role{}, err
	}
	s.afterWrite(ctx, actorID, "role.create", id)
	return s.repo.Get(ctx, id)
}

// Update rewrites a role and, when provided, replaces its assignments.
func (s *Service) Update(ctx context.Context, actorID, id int64, in RoleInput) (Role, error) {
	role, err := fromInput(in)
	if err != nil {
		return Role{}, err
	}
	role.ID = id
	if err := s.repo.Update(ctx, role, in.Permissions, in.Menus); err != nil {
		return Role{}, err
	}
	s.afterWrite(ctx, actorID, "role.update", id)
	return s.repo.Get(ctx, id)
}

// Delete removes a role. The super role cannot be deleted.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	role, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if role.IsSuperRole {
		return fmt.Errorf("%w: the super role cannot be deleted", shared.ErrConflict)
	}
	if role.UserCount > 0 {
		return fmt.Errorf("%w: role is still assigned to %d users", shared.ErrConflict, role.UserCount)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.afterWrite(ctx, actorID, "role.delete", id)
	return nil
}

func fromInput(in RoleInput) (Role, error) {
	role := Role{
		Name:        strings.TrimSpace(in.Name),
		Slug:        strings.TrimSpace(in.Slug),
		Description: strings.TrimSpace(in.Description),
		IsActive:    in.IsActive == nil || *in.IsActive,
	}
	if role.Name == "" {
		return Role{}, fmt.Errorf("%w: role name is required", shared.ErrValidation)
	}
	if role.Slug == "" {
		role.Slug = shared.Slugify(role.Name)
	}
	if role.Slug == "" {
		return Role{}, fmt.Errorf("%w: role slug is required", shared.ErrValidation)
	}
	return role, nil
}

func (s *Service) afterWrite(ctx context.Context, actorID int64, action string, id int64) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.Warn("rbac cache invalidate", slog.String("action", action), slog.Any("error", err))
		}
	}
	err := s.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: "role", EntityID: strconv.FormatInt(id, 10)})
	if err != nil {
		s.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}
