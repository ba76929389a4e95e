package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/paisaid/paisaid-cms/internal/platform/httpx"
	"github.com/paisaid/paisaid-cms/internal/shared"
)

// Rejection codes produced by the gate.
const (
	CodeNoToken        = "NO_TOKEN"
	CodeTokenExpired   = "TOKEN_EXPIRED"
	CodeInvalidToken   = "INVALID_TOKEN"
	CodeMalformedToken = "MALFORMED_TOKEN_CLAIMS"
)

var (
	errNoAccessToken  = httpx.NewError(http.StatusUnauthorized, CodeNoToken, "Unauthorized: No token provided")
	errAccessExpired  = httpx.NewError(http.StatusUnauthorized, CodeTokenExpired, "Unauthorized: Access token expired")
	errAccessInvalid  = httpx.NewError(http.StatusForbidden, CodeInvalidToken, "Forbidden: Invalid token")
	errAccessClaims   = httpx.NewError(http.StatusForbidden, CodeMalformedToken, "Forbidden: Malformed token claims")
	errNoRefreshToken = httpx.NewError(http.StatusUnauthorized, CodeNoToken, "Unauthorized: No refresh token provided")
	errRefreshExpired = httpx.NewError(http.StatusUnauthorized, CodeTokenExpired, "Unauthorized: Refresh token expired")
	errRefreshInvalid = httpx.NewError(http.StatusForbidden, CodeInvalidToken, "Forbidden: Invalid refresh token")
	errRefreshClaims  = httpx.NewError(http.StatusForbidden, CodeMalformedToken, "Forbidden: Malformed refresh token claims")
)

// Gate authenticates requests and stores the principal in the request context.
type Gate struct {
	codec   *TokenCodec
	cookies *CookieTransport
	logger  *slog.Logger
}

// NewGate constructs a Gate.
func NewGate(codec *TokenCodec, cookies *CookieTransport, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{codec: codec, cookies: cookies, logger: logger}
}

// accessToken prefers the cookie and falls back to a bearer header.
func (g *Gate) accessToken(r *http.Request) string {
	if token := g.cookies.Read(r, AccessCookieName); token != "" {
		return token
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Authenticate resolves the principal for r. Errors are *httpx.Error values
// ready to be written to the client.
func (g *Gate) Authenticate(r *http.Request) (shared.Principal, error) {
	token := g.accessToken(r)
	if token == "" {
		return shared.Principal{}, errNoAccessToken
	}
	return g.verify(r, token, AccessToken)
}

// AuthenticateRefresh resolves the principal from the refresh cookie only.
func (g *Gate) AuthenticateRefresh(r *http.Request) (shared.Principal, error) {
	token := g.cookies.Read(r, RefreshCookieName)
	if token == "" {
		return shared.Principal{}, errNoRefreshToken
	}
	return g.verify(r, token, RefreshToken)
}

func (g *Gate) verify(r *http.Request, token string, kind TokenKind) (shared.Principal, error) {
	p, err := g.codec.Verify(token, kind)
	if err == nil {
		return p, nil
	}
	g.logger.Debug("token rejected",
		slog.String("kind", string(kind)),
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	)
	refresh := kind == RefreshToken
	switch {
	case errors.Is(err, ErrTokenExpired):
		if refresh {
			return shared.Principal{}, errRefreshExpired
		}
		return shared.Principal{}, errAccessExpired
	case errors.Is(err, ErrTokenClaims):
		if refresh {
			return shared.Principal{}, errRefreshClaims
		}
		return shared.Principal{}, errAccessClaims
	default:
		if refresh {
			return shared.Principal{}, errRefreshInvalid
		}
		return shared.Principal{}, errAccessInvalid
	}
}

// Require rejects requests without a valid access token.
func (g *Gate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := g.Authenticate(r)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(r.Context(), p)))
	})
}

// Optional attaches a principal when a valid access token is present and
// otherwise lets the request through anonymously.
func (g *Gate) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := g.Authenticate(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(r.Context(), p)))
	})
}

// RequireRefresh rejects requests without a valid refresh cookie.
func (g *Gate) RequireRefresh(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := g.AuthenticateRefresh(r)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(r.Context(), p)))
	})
}
