package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/paisaid/paisaid-cms/internal/shared"
)

// TokenKind distinguishes the two token families.
type TokenKind string

const (
	// AccessToken authorizes individual API calls.
	AccessToken TokenKind = "access"
	// RefreshToken is only accepted when minting new access tokens.
	RefreshToken TokenKind = "refresh"
)

// TokenConfig holds key material and lifetimes for the codec.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// TokenPair is the result of a sign-in or refresh.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

type claims struct {
	UserID int64  `json:"userId"`
	RoleID int64  `json:"roleId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// signer owns the key material for exactly one token kind.
type signer struct {
	kind   TokenKind
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
	parser *jwt.Parser
}

func newSigner(kind TokenKind, secret string, ttl time.Duration, issuer string, now func() time.Time) *signer {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(now),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return &signer{
		kind:   kind,
		secret: []byte(secret),
		ttl:    ttl,
		issuer: issuer,
		now:    now,
		parser: jwt.NewParser(opts...),
	}
}

func (s *signer) sign(p shared.Principal) (string, time.Time, error) {
	issuedAt := s.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(s.ttl)
	c := claims{
		UserID: p.UserID,
		RoleID: p.RoleID,
		Role:   p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(p.UserID, 10),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign %s token: %w", s.kind, err)
	}
	return token, expiresAt, nil
}

func (s *signer) verify(raw string) (shared.Principal, error) {
	var c claims
	_, err := s.parser.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		// Signature checks run before claim validation, so an expired error
		// implies the token was genuinely issued with this secret.
		if errors.Is(err, jwt.ErrTokenExpired) {
			return shared.Principal{}, ErrTokenExpired
		}
		return shared.Principal{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	p := shared.Principal{UserID: c.UserID, RoleID: c.RoleID, Role: c.Role}
	if !p.Valid() {
		return shared.Principal{}, fmt.Errorf("%w: %w", ErrTokenInvalid, ErrTokenClaims)
	}
	return p, nil
}

// TokenCodec signs and verifies access and refresh tokens with separate keys.
type TokenCodec struct {
	access  *signer
	refresh *signer
}

// NewTokenCodec validates cfg and builds the two signers.
func NewTokenCodec(cfg TokenConfig) (*TokenCodec, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("auth: access and refresh secrets are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("auth: access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("auth: token lifetimes must be positive")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &TokenCodec{
		access:  newSigner(AccessToken, cfg.AccessSecret, cfg.AccessTTL, cfg.Issuer, now),
		refresh: newSigner(RefreshToken, cfg.RefreshSecret, cfg.RefreshTTL, cfg.Issuer, now),
	}, nil
}

func (c *TokenCodec) signerFor(kind TokenKind) (*signer, error) {
	switch kind {
	case AccessToken:
		return c.access, nil
	case RefreshToken:
		return c.refresh, nil
	default:
		return nil, fmt.Errorf("auth: unknown token kind %q", kind)
	}
}

// Issue signs a token of the given kind for p.
func (c *TokenCodec) Issue(p shared.Principal, kind TokenKind) (string, time.Time, error) {
	s, err := c.signerFor(kind)
	if err != nil {
		return "", time.Time{}, err
	}
	if !p.Valid() {
		return "", time.Time{}, fmt.Errorf("auth: issue %s token: %w", kind, ErrTokenClaims)
	}
	return s.sign(p)
}

// IssuePair signs a fresh access and refresh token for p.
func (c *TokenCodec) IssuePair(p shared.Principal) (TokenPair, error) {
	access, accessExp, err := c.Issue(p, AccessToken)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, refreshExp, err := c.Issue(p, RefreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Verify checks the token against the key material of kind. Failures are
// ErrTokenExpired or wrap ErrTokenInvalid.
func (c *TokenCodec) Verify(token string, kind TokenKind) (shared.Principal, error) {
	s, err := c.signerFor(kind)
	if err != nil {
		return shared.Principal{}, err
	}
	if token == "" {
		return shared.Principal{}, fmt.Errorf("%w: empty token", ErrTokenInvalid)
	}
	return s.verify(token)
}

// TTL returns the configured lifetime for kind.
func (c *TokenCodec) TTL(kind TokenKind) time.Duration {
	s, err := c.signerFor(kind)
	if err != nil {
		return 0
	}
	return s.ttl
}
