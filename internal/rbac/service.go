package rbac

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/paisaid/paisaid-cms/internal/shared"
)

// PermissionRepository persists the permission catalogue.
type PermissionRepository interface {
	ListPermissions(ctx context.Context, params shared.ListParams) ([]Permission, int, error)
	GetPermission(ctx context.Context, id int64) (Permission, error)
	CreatePermission(ctx context.Context, p Permission, roleIDs []int64) (Permission, error)
	UpdatePermission(ctx context.Context, p Permission, roleIDs []int64) (Permission, error)
	DeletePermission(ctx context.Context, id int64) error
	BulkDeletePermissions(ctx context.Context, ids []int64) (int64, error)
}

// Invalidator drops cached authorization data after role or permission writes.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type nopInvalidator struct{}

func (nopInvalidator) Invalidate(context.Context) error { return nil }

// Service manages the permission catalogue.
type Service struct {
	repo   PermissionRepository
	cache  Invalidator
	audit  shared.AuditRecorder
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(repo PermissionRepository, cache Invalidator, audit shared.AuditRecorder, logger *slog.Logger) *Service {
	if cache == nil {
		cache = nopInvalidator{}
	}
	if audit == nil {
		audit = shared.NopAudit{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, audit: audit, logger: logger}
}

// PermissionInput is the writable part of a permission. ResourceID links the
// permission to the resource it guards; a missing value clears the link.
// RoleIDs, when non-empty, replace the roles granted the permission.
type PermissionInput struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Action      string  `json:"action" validate:"required,max=100"`
	Description string  `json:"description" validate:"max=1000"`
	IsActive    *bool   `json:"isActive"`
	ResourceID  *int64  `json:"resourceId" validate:"omitempty,gt=0"`
	RoleIDs     []int64 `json:"roleIds" validate:"omitempty,dive,gt=0"`
}

// BulkDeleteInput lists permissions removed in one statement.
type BulkDeleteInput struct {
	IDs []int64 `json:"ids" validate:"required,min=1,dive,gt=0"`
}

func (in PermissionInput) toPermission() (Permission, error) {
	p := Permission{
		Name:        strings.TrimSpace(in.Name),
		Action:      NormalizeAction(in.Action),
		Description: strings.TrimSpace(in.Description),
		IsActive:    in.IsActive == nil || *in.IsActive,
		ResourceID:  in.ResourceID,
	}
	if p.Name == "" {
		return Permission{}, fmt.Errorf("%w: permission name is required", shared.ErrValidation)
	}
	if p.Action == "" {
		return Permission{}, fmt.Errorf("%w: permission action is required", shared.ErrValidation)
	}
	if strings.ContainsAny(p.Action, " \t") {
		return Permission{}, fmt.Errorf("%w: permission action must not contain spaces", shared.ErrValidation)
	}
	return p, nil
}

// List returns a page of permissions.
func (s *Service) List(ctx context.Context, params shared.ListParams) ([]Permission, shared.PageMeta, error) {
	perms, total, err := s.repo.ListPermissions(ctx, params)
	if err != nil {
		return nil, shared.PageMeta{}, fmt.Errorf("rbac: list permissions: %w", err)
	}
	return perms, shared.NewPageMeta(params, total), nil
}

// Get fetches a permission by ID.
func (s *Service) Get(ctx context.Context, id int64) (Permission, error) {
	return s.repo.GetPermission(ctx, id)
}

// Create validates and inserts a permission, granting it to roleIds.
func (s *Service) Create(ctx context.Context, actorID int64, in PermissionInput) (Permission, error) {
	p, err := in.toPermission()
	if err != nil {
		return Permission{}, err
	}
	created, err := s.repo.CreatePermission(ctx, p, dedupe(in.RoleIDs))
	if err != nil {
		return Permission{}, err
	}
	s.afterWrite(ctx, actorID, "permission.create", created.ID)
	return created, nil
}

// Update rewrites a permission. Role grants change only when roleIds is non-empty.
func (s *Service) Update(ctx context.Context, actorID, id int64, in PermissionInput) (Permission, error) {
	p, err := in.toPermission()
	if err != nil {
		return Permission{}, err
	}
	p.ID = id
	updated, err := s.repo.UpdatePermission(ctx, p, dedupe(in.RoleIDs))
	if err != nil {
		return Permission{}, err
	}
	s.afterWrite(ctx, actorID, "permission.update", id)
	return updated, nil
}

// Delete removes a permission.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	if err := s.repo.DeletePermission(ctx, id); err != nil {
		return err
	}
	s.afterWrite(ctx, actorID, "permission.delete", id)
	return nil
}

// BulkDelete removes the listed permissions and returns how many were deleted.
func (s *Service) BulkDelete(ctx context.Context, actorID int64, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: ids must be a non-empty array", shared.ErrValidation)
	}
	deleted, err := s.repo.BulkDeletePermissions(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("rbac: bulk delete permissions: %w", err)
	}
	if deleted == 0 {
		return 0, fmt.Errorf("%w: one or more permissions not found", shared.ErrNotFound)
	}
	s.afterWrite(ctx, actorID, "permission.bulk_delete", ids)
	return deleted, nil
}

func dedupe(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (s *Service) afterWrite(ctx context.Context, actorID int64, action string, id any) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("rbac cache invalidate", slog.String("action", action), slog.Any("error", err))
	}
	err := s.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: "permission", EntityID: fmt.Sprint(id)})
	if err != nil {
		s.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}
