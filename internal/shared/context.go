package shared

import "context"

// Principal is the authenticated actor derived from a verified access token.
type Principal struct {
	UserID int64  `json:"userId"`
	RoleID int64  `json:"roleId"`
	Role   string `json:"role"`
}

// Valid reports whether both identity claims are present.
func (p Principal) Valid() bool {
	return p.UserID > 0 && p.RoleID > 0
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}
