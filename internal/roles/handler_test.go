package roles

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paisaid/paisaid-cms/internal/rbac"
	"github.com/paisaid/paisaid-cms/internal/shared"
)

type staticRoles map[int64]*rbac.Role

func (s staticRoles) FindRoleForUser(_ context.Context, userID int64) (*rbac.Role, error) {
	role, ok := s[userID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return role, nil
}

func newRolesRouter(t *testing.T, principal shared.Principal) (http.Handler, *fakeRepo) {
	t.Helper()
	store := staticRoles{
		1: {ID: 1, Name: "admin", IsSuperRole: true},
		2: {ID: 2, Name: "editor", Permissions: []rbac.Permission{{Action: "create:post"}}},
	}
	repo := newFakeRepo()
	h := NewHandler(nil, NewService(repo, nil, nil, nil), rbac.Middleware{Resolver: rbac.NewResolver(store)})

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(shared.ContextWithPrincipal(req.Context(), principal)))
		})
	})
	r.Route("/roles", h.MountRoutes)
	return r, repo
}

func TestRolesHandlerLifecycle(t *testing.T) {
	router, _ := newRolesRouter(t, shared.Principal{UserID: 1, RoleID: 1})

	do := func(method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
		var out map[string]any
		_ = json.Unmarshal(rec.Body.Bytes(), &out)
		return rec, out
	}

	rec, body := do(http.MethodPost, "/roles/create", `{"name":"Reviewer","permissions":[1,2]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	data := body["data"].(map[string]any)
	assert.Equal(t, "reviewer", data["slug"])

	rec, _ = do(http.MethodPost, "/roles/create", `{"name":"Bad","permissions":[0]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = do(http.MethodGet, "/roles/listing", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["data"], 1)

	rec, _ = do(http.MethodPut, "/roles/1/edit", `{"name":"Reviewer","description":"reads"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(http.MethodDelete, "/roles/1/delete", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body = do(http.MethodGet, "/roles/one/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Role not found", body["message"])
}

func TestRolesHandlerForbiddenWithoutManageRoles(t *testing.T) {
	router, _ := newRolesRouter(t, shared.Principal{UserID: 2, RoleID: 2})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/roles/listing", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
