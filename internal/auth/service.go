package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/paisaid/paisaid-cms/internal/shared"
)

// SignInResult bundles the issued tokens with the client profile.
type SignInResult struct {
	Profile SignInProfile
	Tokens  TokenPair
}

// Service implements the sign-in, refresh and sign-out flows.
type Service struct {
	repo   Repository
	codec  *TokenCodec
	audit  shared.AuditRecorder
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs a new Service.
func NewService(repo Repository, codec *TokenCodec, audit shared.AuditRecorder, logger *slog.Logger) *Service {
	if audit == nil {
		audit = shared.NopAudit{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, codec: codec, audit: audit, logger: logger, now: time.Now}
}

// Codec exposes the token codec used by the service.
func (s *Service) Codec() *TokenCodec {
	return s.codec
}

// SignIn checks credentials and issues a token pair.
func (s *Service) SignIn(ctx context.Context, username, password string) (SignInResult, error) {
	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return SignInResult{}, ErrUsernameNotFound
		}
		return SignInResult{}, fmt.Errorf("auth: find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return SignInResult{}, ErrPasswordIncorrect
	}

	tokens, err := s.codec.IssuePair(user.Principal())
	if err != nil {
		return SignInResult{}, err
	}
	menus, err := s.repo.ListRoleMenus(ctx, user.RoleID)
	if err != nil {
		return SignInResult{}, fmt.Errorf("auth: list role menus: %w", err)
	}
	s.record(ctx, user.ID, "auth.sign_in")

	return SignInResult{
		Profile: SignInProfile{
			Username:  user.Username,
			Name:      user.Name,
			Role:      user.RoleSlug,
			MenuItems: menus,
		},
		Tokens: tokens,
	}, nil
}

// Refresh mints a new token pair for a principal that presented a valid
// refresh token.
func (s *Service) Refresh(ctx context.Context, p shared.Principal) (TokenPair, error) {
	if !p.Valid() {
		return TokenPair{}, ErrTokenClaims
	}
	return s.codec.IssuePair(p)
}

// SignOut stamps the user's last activity. Callers must clear cookies even when
// this returns an error.
func (s *Service) SignOut(ctx context.Context, p shared.Principal) error {
	if p.UserID <= 0 {
		return nil
	}
	if err := s.repo.UpdateLastLogin(ctx, p.UserID, s.now().UTC()); err != nil {
		return fmt.Errorf("auth: update last login: %w", err)
	}
	s.record(ctx, p.UserID, "auth.sign_out")
	return nil
}

// Profile loads the account and the menus visible to its role. The super role
// sees every menu.
func (s *Service) Profile(ctx context.Context, userID int64) (*Profile, []MenuItem, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	var menus []MenuItem
	if user.IsSuperRole || strings.EqualFold(user.RoleName, "admin") {
		menus, err = s.repo.ListAllMenus(ctx)
	} else {
		menus, err = s.repo.ListRoleMenus(ctx, user.RoleID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("auth: list menus: %w", err)
	}
	profile := &Profile{
		ID:          user.ID,
		Username:    user.Username,
		Name:        user.Name,
		Email:       user.Email,
		IsActive:    user.IsActive,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
		Role:        ProfileRole{ID: user.RoleID, Name: user.RoleName},
	}
	return profile, menus, nil
}

func (s *Service) record(ctx context.Context, userID int64, action string) {
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  userID,
		Action:   action,
		Entity:   "user",
		EntityID: strconv.FormatInt(userID, 10),
	})
	if err != nil {
		s.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}
