package rbac

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/paisaid/paisaid-cms/internal/platform/httpx"
	"github.com/paisaid/paisaid-cms/internal/shared"
)

// Middleware wires RBAC authorization helpers for HTTP handlers. It must run
// after the authentication gate has stored a principal in the context.
type Middleware struct {
	Resolver *Resolver
	Logger   *slog.Logger
}

// RequireAll ensures the current user holds all required permissions.
func (m Middleware) RequireAll(perms ...string) func(http.Handler) http.Handler {
	return m.guard("require all", perms, m.Resolver.Authorize)
}

// RequireAny ensures the current user holds at least one of the required permissions.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	return m.guard("require any", perms, m.Resolver.AuthorizeAny)
}

type authorizeFunc func(ctx context.Context, p shared.Principal, required ...string) (Decision, error)

func (m Middleware) guard(op string, perms []string, authorize authorizeFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, _ := shared.PrincipalFromContext(r.Context())
			decision, err := authorize(r.Context(), p, perms...)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("rbac "+op, slog.Int64("user_id", p.UserID), slog.Any("error", err))
				}
				httpx.RespondError(w, err)
				return
			}
			if !decision.Allowed {
				httpx.Fail(w, http.StatusForbidden, decision.Message, decision.Code)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
