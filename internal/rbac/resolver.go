package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/paisaid/paisaid-cms/internal/shared"
)

// Deny codes returned to clients.
const (
	CodeNoRoleAssigned         = "FORBIDDEN_NO_ROLE_ASSIGNED"
	CodeRoleNotFound           = "FORBIDDEN_ROLE_NOT_FOUND"
	CodeInsufficientPermission = "FORBIDDEN_INSUFFICIENT_PERMISSION"
)

// Decision is the outcome of an authorization check. Code and Message are set
// only when the request is denied.
type Decision struct {
	Allowed bool
	Code    string
	Message string
}

var (
	allow          = Decision{Allowed: true}
	denyNoRole     = Decision{Code: CodeNoRoleAssigned, Message: "Forbidden: No role assigned"}
	denyNoRoleRow  = Decision{Code: CodeRoleNotFound, Message: "Forbidden: Role not found"}
	denyPermission = Decision{Code: CodeInsufficientPermission, Message: "Forbidden: Insufficient permissions"}
)

// RoleStore loads the role held by a user together with its permissions.
// Implementations return an error matching shared.ErrNotFound when the user
// has no role.
type RoleStore interface {
	FindRoleForUser(ctx context.Context, userID int64) (*Role, error)
}

// Resolver decides whether a principal holds a set of permissions.
type Resolver struct {
	store RoleStore
}

// NewResolver constructs a Resolver.
func NewResolver(store RoleStore) *Resolver {
	return &Resolver{store: store}
}

// Authorize grants access when the principal's role is the super role or
// holds every required action. An empty requirement denies.
func (r *Resolver) Authorize(ctx context.Context, p shared.Principal, required ...string) (Decision, error) {
	return r.decide(ctx, p, normalizeActions(required), containsAll)
}

// AuthorizeAny grants access when the role holds at least one required action.
func (r *Resolver) AuthorizeAny(ctx context.Context, p shared.Principal, required ...string) (Decision, error) {
	return r.decide(ctx, p, normalizeActions(required), containsAny)
}

func (r *Resolver) decide(ctx context.Context, p shared.Principal, required []string, match func(granted map[string]struct{}, required []string) bool) (Decision, error) {
	if !p.Valid() {
		return denyNoRole, nil
	}
	role, err := r.store.FindRoleForUser(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return denyNoRoleRow, nil
		}
		return Decision{}, fmt.Errorf("rbac: find role for user %d: %w", p.UserID, err)
	}
	if role == nil {
		return denyNoRoleRow, nil
	}
	if role.IsSuper() {
		return allow, nil
	}
	if len(required) == 0 {
		return denyPermission, nil
	}
	granted := make(map[string]struct{}, len(role.Permissions))
	for _, action := range role.Actions() {
		granted[action] = struct{}{}
	}
	if match(granted, required) {
		return allow, nil
	}
	return denyPermission, nil
}

func normalizeActions(actions []string) []string {
	seen := make(map[string]struct{}, len(actions))
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		a = NormalizeAction(a)
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}

func containsAll(granted map[string]struct{}, required []string) bool {
	for _, r := range required {
		if _, ok := granted[r]; !ok {
			return false
		}
	}
	return true
}

func containsAny(granted map[string]struct{}, required []string) bool {
	for _, r := range required {
		if _, ok := granted[r]; ok {
			return true
		}
	}
	return false
}
