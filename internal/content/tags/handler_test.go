package tags

import (
	"context"
	"encoding/json"
	"fmt"
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

type fakeRepo struct {
	items  map[int64]Tag
	nextID int64
}

func (f *fakeRepo) List(_ context.Context, params shared.ListParams) ([]Tag, int, error) {
	var out []Tag
	for id := int64(1); id <= f.nextID; id++ {
		if t, ok := f.items[id]; ok && strings.Contains(t.Name, params.Query) {
			out = append(out, t)
		}
	}
	return out, len(out), nil
}

func (f *fakeRepo) Get(_ context.Context, id int64, _ bool) (Tag, error) {
	t, ok := f.items[id]
	if !ok {
		return Tag{}, fmt.Errorf("%w: tag not found", shared.ErrNotFound)
	}
	return t, nil
}

func (f *fakeRepo) Create(_ context.Context, t Tag) (int64, error) {
	for _, existing := range f.items {
		if existing.Name == t.Name {
			return 0, fmt.Errorf("%w: tag already exists", shared.ErrDuplicate)
		}
	}
	f.nextID++
	t.ID = f.nextID
	f.items[t.ID] = t
	return t.ID, nil
}

func (f *fakeRepo) Update(_ context.Context, t Tag) error {
	existing, ok := f.items[t.ID]
	if !ok {
		return fmt.Errorf("%w: tag not found", shared.ErrNotFound)
	}
	t.PostCount = existing.PostCount
	f.items[t.ID] = t
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id int64) error {
	delete(f.items, id)
	return nil
}

type staticRoles map[int64]*rbac.Role

func (s staticRoles) FindRoleForUser(_ context.Context, userID int64) (*rbac.Role, error) {
	role, ok := s[userID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return role, nil
}

func newTagsRouter(t *testing.T) (http.Handler, *fakeRepo) {
	t.Helper()
	repo := &fakeRepo{items: map[int64]Tag{}}
	store := staticRoles{
		1: {ID: 1, Name: "editor", Permissions: []rbac.Permission{{Action: shared.PermManageTags}}},
		2: {ID: 2, Name: "writer", Permissions: []rbac.Permission{{Action: shared.PermCreatePost}}},
	}
	h := NewHandler(nil, NewService(repo, nil, nil), rbac.Middleware{Resolver: rbac.NewResolver(store)})

	withUser := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			id := int64(1)
			if req.Header.Get("X-Test-User") == "writer" {
				id = 2
			}
			p := shared.Principal{UserID: id, RoleID: id}
			next.ServeHTTP(w, req.WithContext(shared.ContextWithPrincipal(req.Context(), p)))
		})
	}

	r := chi.NewRouter()
	r.Route("/tags", func(r chi.Router) {
		h.MountRoutes(r)
		r.With(withUser).Group(h.MountAdminRoutes)
	})
	return r, repo
}

func TestTagsHandler(t *testing.T) {
	router, repo := newTagsRouter(t)

	do := func(user, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("X-Test-User", user)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		var out map[string]any
		_ = json.Unmarshal(rec.Body.Bytes(), &out)
		return rec, out
	}

	rec, body := do("editor", http.MethodPost, "/tags/create", `{"name":"Street Food"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "street-food", body["data"].(map[string]any)["slug"])

	rec, body = do("editor", http.MethodPost, "/tags/create", `{"name":"Street Food"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Tag already exists", body["message"])

	rec, _ = do("editor", http.MethodPost, "/tags/create", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do("writer", http.MethodPost, "/tags/create", `{"name":"Night Market"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body = do("", http.MethodGet, "/tags/?q=Street", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["data"], 1)
	meta := body["meta"].(map[string]any)
	assert.EqualValues(t, 1, meta["totalElements"])

	rec, _ = do("", http.MethodGet, "/tags/1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	inUse := repo.items[1]
	inUse.PostCount = 2
	repo.items[1] = inUse
	rec, body = do("editor", http.MethodDelete, "/tags/1/delete", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Cannot delete tag with associated posts", body["message"])

	inUse.PostCount = 0
	repo.items[1] = inUse
	rec, _ = do("editor", http.MethodDelete, "/tags/1/delete", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do("", http.MethodGet, "/tags/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
