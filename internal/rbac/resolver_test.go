package rbac

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paisaid/paisaid-cms/internal/shared"
)

func TestAuthorizeAllOf(t *testing.T) {
	store := newMemStore()
	store.put(10, Role{ID: 2, Name: "Editor", Permissions: perms("create:post", "update:post", "manage:tags")})
	resolver := NewResolver(store)
	editor := shared.Principal{UserID: 10, RoleID: 2, Role: "editor"}
	ctx := context.Background()

	cases := []struct {
		name     string
		required []string
		allowed  bool
	}{
		{"single granted", []string{"create:post"}, true},
		{"subset", []string{"create:post", "update:post"}, true},
		{"exact set", []string{"create:post", "update:post", "manage:tags"}, true},
		{"case and space insensitive", []string{" CREATE:Post "}, true},
		{"one missing", []string{"create:post", "delete:post"}, false},
		{"none granted", []string{"manage:users"}, false},
		{"empty set denies", nil, false},
		{"blank entries only", []string{"", "  "}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := resolver.Authorize(ctx, editor, tc.required...)
			require.NoError(t, err)
			assert.Equal(t, tc.allowed, d.Allowed)
			if !tc.allowed {
				assert.Equal(t, CodeInsufficientPermission, d.Code)
				assert.Equal(t, "Forbidden: Insufficient permissions", d.Message)
			}
		})
	}
}

// Removing a permission from a role can never turn a deny into an allow.
func TestAuthorizeMonotonic(t *testing.T) {
	all := []string{"create:post", "update:post", "publish:post", "delete:post"}
	ctx := context.Background()
	p := shared.Principal{UserID: 1, RoleID: 1}

	for mask := 0; mask < 1<<len(all); mask++ {
		var granted []string
		for i, a := range all {
			if mask&(1<<i) != 0 {
				granted = append(granted, a)
			}
		}
		store := newMemStore()
		store.put(1, Role{ID: 1, Name: "writer", Permissions: perms(granted...)})
		resolver := NewResolver(store)

		for req := 1; req < 1<<len(all); req++ {
			var required []string
			subset := true
			for i, a := range all {
				if req&(1<<i) != 0 {
					required = append(required, a)
					if mask&(1<<i) == 0 {
						subset = false
					}
				}
			}
			d, err := resolver.Authorize(ctx, p, required...)
			require.NoError(t, err)
			assert.Equal(t, subset, d.Allowed, "granted=%v required=%v", granted, required)
		}
	}
}

func TestAuthorizeSuperRoleBypass(t *testing.T) {
	store := newMemStore()
	store.put(1, Role{ID: 1, Name: "Admin"})
	store.put(2, Role{ID: 9, Name: "Root", IsSuperRole: true})
	resolver := NewResolver(store)
	ctx := context.Background()

	for _, userID := range []int64{1, 2} {
		p := shared.Principal{UserID: userID, RoleID: 1}
		d, err := resolver.Authorize(ctx, p, "manage:everything", "delete:post")
		require.NoError(t, err)
		assert.True(t, d.Allowed)

		d, err = resolver.Authorize(ctx, p)
		require.NoError(t, err)
		assert.True(t, d.Allowed, "super role is allowed even with an empty requirement")
	}
}

func TestAuthorizeDenials(t *testing.T) {
	store := newMemStore()
	resolver := NewResolver(store)
	ctx := context.Background()

	d, err := resolver.Authorize(ctx, shared.Principal{UserID: 5}, "create:post")
	require.NoError(t, err)
	assert.Equal(t, CodeNoRoleAssigned, d.Code)
	assert.Zero(t, store.calls.Load(), "no store lookup without a role claim")

	d, err = resolver.Authorize(ctx, shared.Principal{UserID: 5, RoleID: 3}, "create:post")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, CodeRoleNotFound, d.Code)
	assert.Equal(t, "Forbidden: Role not found", d.Message)
}

func TestAuthorizeStoreError(t *testing.T) {
	store := newMemStore()
	store.err = errors.New("connection reset")
	resolver := NewResolver(store)

	d, err := resolver.Authorize(context.Background(), shared.Principal{UserID: 5, RoleID: 3}, "create:post")
	require.Error(t, err)
	assert.False(t, d.Allowed)
}

func TestAuthorizeAny(t *testing.T) {
	store := newMemStore()
	store.put(10, Role{ID: 2, Name: "viewer", Permissions: perms("read:user")})
	resolver := NewResolver(store)
	p := shared.Principal{UserID: 10, RoleID: 2}
	ctx := context.Background()

	d, err := resolver.AuthorizeAny(ctx, p, "read:user", "manage:users")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = resolver.AuthorizeAny(ctx, p, "manage:users")
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	d, err = resolver.AuthorizeAny(ctx, p)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
}
