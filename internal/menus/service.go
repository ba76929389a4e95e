package menus

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/paisaid/paisaid-cms/internal/shared"
)

// RepositoryPort defines data access methods for menus.
type RepositoryPort interface {
	List(ctx context.Context, params shared.ListParams) ([]Menu, int, error)
	Get(ctx context.Context, id int64) (Menu, error)
	Create(ctx context.Context, m Menu, roleIDs []int64) (int64, error)
	Update(ctx context.Context, m Menu, roleIDs []int64) error
	Delete(ctx context.Context, id int64) error
	Reorder(ctx context.Context, positions []Position) error
}

// Service handles menu business logic.
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

// List returns a page of menus ordered by sort order.
func (s *Service) List(ctx context.Context, params shared.ListParams) ([]Menu, shared.PageMeta, error) {
	menus, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, shared.PageMeta{}, fmt.Errorf("menus: list: %w", err)
	}
	return menus, shared.NewPageMeta(params, total), nil
}

// Get returns a menu.
func (s *Service) Get(ctx context.Context, id int64) (Menu, error) {
	return s.repo.Get(ctx, id)
}

// Create inserts a menu.
func (s *Service) Create(ctx context.Context, actorID int64, in MenuInput) (Menu, error) {
	m, err := fromInput(in)
	if err != nil {
		return Menu{}, err
	}
	id, err := s.repo.Create(ctx, m, in.Roles)
	if err != nil {
		return Menu{}, err
	}
	s.record(ctx, actorID, "menu.create", id)
	return s.repo.Get(ctx, id)
}

// Update rewrites a menu. A menu cannot be its own parent.
func (s *Service) Update(ctx context.Context, actorID, id int64, in MenuInput) (Menu, error) {
	m, err := fromInput(in)
	if err != nil {
		return Menu{}, err
	}
	if m.ParentID != nil && *m.ParentID == id {
		return Menu{}, fmt.Errorf("%w: a menu cannot be its own parent", shared.ErrValidation)
	}
	m.ID = id
	if err := s.repo.Update(ctx, m, in.Roles); err != nil {
		return Menu{}, err
	}
	s.record(ctx, actorID, "menu.update", id)
	return s.repo.Get(ctx, id)
}

// Delete removes a menu.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actorID, "menu.delete", id)
	return nil
}

// Reorder applies new sort positions atomically.
func (s *Service) Reorder(ctx context.Context, actorID int64, positions []Position) error {
	if len(positions) == 0 {
		return fmt.Errorf("%w: menus must be a non-empty list", shared.ErrValidation)
	}
	seen := make(map[int64]struct{}, len(positions))
	for _, p := range positions {
		if _, ok := seen[p.ID]; ok {
			return fmt.Errorf("%w: menu %d listed twice", shared.ErrValidation, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	if err := s.repo.Reorder(ctx, positions); err != nil {
		return err
	}
	s.record(ctx, actorID, "menu.reorder", 0)
	return nil
}

func fromInput(in MenuInput) (Menu, error) {
	m := Menu{
		Name:     strings.TrimSpace(in.Name),
		Slug:     strings.TrimSpace(in.Slug),
		Path:     strings.TrimSpace(in.Path),
		Icon:     strings.TrimSpace(in.Icon),
		ParentID: in.ParentID,
		IsActive: in.IsActive == nil || *in.IsActive,
		Order:    in.Order,
	}
	if m.Name == "" {
		return Menu{}, fmt.Errorf("%w: menu name is required", shared.ErrValidation)
	}
	if m.Path == "" {
		return Menu{}, fmt.Errorf("%w: menu path is required", shared.ErrValidation)
	}
	if m.Slug == "" {
		m.Slug = shared.Slugify(m.Name)
	}
	return m, nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, id int64) {
	err := s.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: "menu", EntityID: strconv.FormatInt(id, 10)})
	if err != nil {
		s.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}
