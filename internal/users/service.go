package users

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/paisaid/paisaid-cms/internal/rbac"
	"github.com/paisaid/paisaid-cms/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	List(ctx context.Context, params shared.ListParams) ([]User, int, error)
	Get(ctx context.Context, id int64) (User, error)
	RoleExists(ctx context.Context, roleID int64) (bool, error)
	Create(ctx context.Context, u User, passwordHash string) (int64, error)
	Update(ctx context.Context, u User, passwordHash string) error
	SetPassword(ctx context.Context, id int64, passwordHash string, at time.Time) error
	Delete(ctx context.Context, id int64) error
}

// Config tunes password handling.
type Config struct {
	DefaultPassword string
	HashCost        int
}

// Service handles user business logic.
type Service struct {
	repo   RepositoryPort
	cache  rbac.Invalidator
	audit  shared.AuditRecorder
	logger *slog.Logger
	cfg    Config
	now    func() time.Time
}

// NewService builds Service instance. Role changes invalidate cache, which may be nil.
func NewService(repo RepositoryPort, cache rbac.Invalidator, audit shared.AuditRecorder, logger *slog.Logger, cfg Config) *Service {
	if audit == nil {
		audit = shared.NopAudit{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.HashCost == 0 {
		cfg.HashCost = bcrypt.DefaultCost
	}
	return &Service{repo: repo, cache: cache, audit: audit, logger: logger, cfg: cfg, now: func() time.Time { return time.Now().UTC() }}
}

// List returns a page of users.
func (s *Service) List(ctx context.Context, params shared.ListParams) ([]User, shared.PageMeta, error) {
	users, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, shared.PageMeta{}, fmt.Errorf("users: list: %w", err)
	}
	return users, shared.NewPageMeta(params, total), nil
}

// Get returns a single user.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a user. A password is mandatory.
func (s *Service) Create(ctx context.Context, actorID int64, in UserInput) (User, error) {
	if in.Password == "" {
		return User{}, fmt.Errorf("%w: password is required", shared.ErrValidation)
	}
	u, err := s.fromInput(ctx, in)
	if err != nil {
		return User{}, err
	}
	hash, err := s.hash(in.Password)
	if err != nil {
		return User{}, err
	}
	id, err := s.repo.Create(ctx, u, hash)
	if err != nil {
		return User{}, err
	}
	s.record(ctx, actorID, "user.create", id)
	return s.repo.Get(ctx, id)
}

// Update rewrites a user's profile. An empty password keeps the current one.
func (s *Service) Update(ctx context.Context, actorID, id int64, in UserInput) (User, error) {
	before, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	u, err := s.fromInput(ctx, in)
	if err != nil {
		return User{}, err
	}
	u.ID = id
	hash := ""
	if in.Password != "" {
		if hash, err = s.hash(in.Password); err != nil {
			return User{}, err
		}
	}
	if err := s.repo.Update(ctx, u, hash); err != nil {
		return User{}, err
	}
	if before.Role.ID != u.Role.ID || before.IsActive != u.IsActive {
		s.invalidate(ctx, "user.update")
	}
	s.record(ctx, actorID, "user.update", id)
	return s.repo.Get(ctx, id)
}

// ResetPassword sets the user's password to the configured default.
func (s *Service) ResetPassword(ctx context.Context, actorID, id int64) error {
	if s.cfg.DefaultPassword == "" {
		return fmt.Errorf("users: default password is not configured")
	}
	hash, err := s.hash(s.cfg.DefaultPassword)
	if err != nil {
		return err
	}
	if err := s.repo.SetPassword(ctx, id, hash, s.now()); err != nil {
		return err
	}
	s.record(ctx, actorID, "user.reset_password", id)
	return nil
}

// Delete removes a user. Accounts cannot delete themselves.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	if actorID == id {
		return fmt.Errorf("%w: you cannot delete your own account", shared.ErrConflict)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, "user.delete")
	s.record(ctx, actorID, "user.delete", id)
	return nil
}

func (s *Service) fromInput(ctx context.Context, in UserInput) (User, error) {
	u := User{
		Username: strings.TrimSpace(in.Username),
		Name:     strings.TrimSpace(in.Name),
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:    strings.TrimSpace(in.Phone),
		Address:  strings.TrimSpace(in.Address),
		Gender:   strings.ToUpper(strings.TrimSpace(in.Gender)),
		IsActive: in.IsActive == nil || *in.IsActive,
		Role:     RoleRef{ID: in.RoleID},
	}
	if u.Username == "" {
		return User{}, fmt.Errorf("%w: username is required", shared.ErrValidation)
	}
	if u.Gender == "" {
		u.Gender = GenderOther
	}
	switch u.Gender {
	case GenderMale, GenderFemale, GenderOther:
	default:
		return User{}, fmt.Errorf("%w: gender must be one of MALE, FEMALE, OTHER", shared.ErrValidation)
	}
	if in.DOB != "" {
		dob, err := time.Parse(time.DateOnly, in.DOB)
		if err != nil {
			return User{}, fmt.Errorf("%w: dob must be YYYY-MM-DD", shared.ErrValidation)
		}
		u.DOB = &dob
	}
	ok, err := s.repo.RoleExists(ctx, in.RoleID)
	if err != nil {
		return User{}, fmt.Errorf("users: check role: %w", err)
	}
	if !ok {
		return User{}, fmt.Errorf("%w: role %d does not exist", shared.ErrValidation, in.RoleID)
	}
	return u, nil
}

func (s *Service) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.HashCost)
	if err != nil {
		return "", fmt.Errorf("users: hash password: %w", err)
	}
	return string(b), nil
}

func (s *Service) invalidate(ctx context.Context, action string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("rbac cache invalidate", slog.String("action", action), slog.Any("error", err))
	}
}

func (s *Service) record(ctx context.Context, actorID int64, action string, id int64) {
	err := s.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: "user", EntityID: strconv.FormatInt(id, 10)})
	if err != nil {
		s.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}
