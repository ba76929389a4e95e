package rbac

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

	"github.com/paisaid/paisaid-cms/internal/shared"
)

type memPermissions struct {
	items  map[int64]Permission
	roles  map[int64][]int64
	nextID int64
}

func newMemPermissions() *memPermissions {
	return &memPermissions{items: map[int64]Permission{}, roles: map[int64][]int64{}}
}

func (m *memPermissions) ListPermissions(_ context.Context, params shared.ListParams) ([]Permission, int, error) {
	out := make([]Permission, 0, len(m.items))
	for id := int64(1); id <= m.nextID; id++ {
		p, ok := m.items[id]
		if !ok {
			continue
		}
		if params.Query != "" && !strings.Contains(p.Action, params.Query) && !strings.Contains(p.Name, params.Query) {
			continue
		}
		out = append(out, p)
	}
	total := len(out)
	meta := shared.NewPageMeta(params, total)
	if meta.Limit > 0 {
		start := min(meta.Offset(), total)
		out = out[start:min(start+meta.Limit, total)]
	}
	return out, total, nil
}

func (m *memPermissions) GetPermission(_ context.Context, id int64) (Permission, error) {
	p, ok := m.items[id]
	if !ok {
		return Permission{}, fmt.Errorf("%w: permission not found", shared.ErrNotFound)
	}
	for _, roleID := range m.roles[id] {
		p.Roles = append(p.Roles, RoleRef{ID: roleID})
	}
	return p, nil
}

func (m *memPermissions) CreatePermission(_ context.Context, p Permission, roleIDs []int64) (Permission, error) {
	for _, existing := range m.items {
		if existing.Action == p.Action {
			return Permission{}, fmt.Errorf("%w: permission already exists", shared.ErrDuplicate)
		}
	}
	m.nextID++
	p.ID = m.nextID
	m.items[p.ID] = p
	m.roles[p.ID] = roleIDs
	return p, nil
}

func (m *memPermissions) UpdatePermission(_ context.Context, p Permission, roleIDs []int64) (Permission, error) {
	if _, ok := m.items[p.ID]; !ok {
		return Permission{}, fmt.Errorf("%w: permission not found", shared.ErrNotFound)
	}
	m.items[p.ID] = p
	if len(roleIDs) > 0 {
		m.roles[p.ID] = roleIDs
	}
	return p, nil
}

func (m *memPermissions) BulkDeletePermissions(_ context.Context, ids []int64) (int64, error) {
	var n int64
	for _, id := range ids {
		if _, ok := m.items[id]; ok {
			delete(m.items, id)
			delete(m.roles, id)
			n++
		}
	}
	return n, nil
}

func (m *memPermissions) DeletePermission(_ context.Context, id int64) error {
	if _, ok := m.items[id]; !ok {
		return fmt.Errorf("%w: permission not found", shared.ErrNotFound)
	}
	delete(m.items, id)
	return nil
}

type countingInvalidator struct{ n int }

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.n++
	return nil
}

type permissionsFixture struct {
	repo   *memPermissions
	cache  *countingInvalidator
	router http.Handler
}

func newPermissionsFixture(t *testing.T) permissionsFixture {
	t.Helper()
	store := newMemStore()
	store.put(1, Role{ID: 1, Name: "admin", IsSuperRole: true})
	store.put(2, Role{ID: 2, Name: "editor", Permissions: perms("create:post")})

	repo := newMemPermissions()
	cache := &countingInvalidator{}
	h := NewHandler(nil, NewService(repo, cache, nil, nil), Middleware{Resolver: NewResolver(store)})

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			var p shared.Principal
			fmt.Sscanf(req.Header.Get("X-Test-User"), "%d", &p.UserID)
			p.RoleID = p.UserID
			next.ServeHTTP(w, req.WithContext(shared.ContextWithPrincipal(req.Context(), p)))
		})
	})
	r.Route("/permissions", h.MountRoutes)
	return permissionsFixture{repo: repo, cache: cache, router: r}
}

func (f permissionsFixture) do(method, path, user, body string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("X-Test-User", user)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func TestPermissionsCRUD(t *testing.T) {
	f := newPermissionsFixture(t)

	rec, body := f.do(http.MethodPost, "/permissions/create", "1", `{"name":"Create post","action":" Create:Post "}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	data := body["data"].(map[string]any)
	assert.Equal(t, "create:post", data["action"])
	assert.Equal(t, true, data["isActive"])

	rec, _ = f.do(http.MethodPost, "/permissions/create", "1", `{"name":"Again","action":"create:post"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, body = f.do(http.MethodPost, "/permissions/create", "1", `{"name":"Bad","action":"create post"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", body["errorCode"])

	_, _ = f.do(http.MethodPost, "/permissions/create", "1", `{"name":"Publish","action":"publish:post"}`)
	rec, body = f.do(http.MethodGet, "/permissions/listing?page=2&limit=1", "1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	meta := body["meta"].(map[string]any)
	assert.Equal(t, float64(2), meta["totalElements"])
	assert.Equal(t, float64(2), meta["currentPage"])
	assert.Equal(t, float64(2), meta["totalPages"])
	assert.Len(t, body["data"], 1)

	rec, _ = f.do(http.MethodPut, "/permissions/1/edit", "1", `{"name":"Create posts","action":"create:post","isActive":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, f.repo.items[1].IsActive)

	rec, _ = f.do(http.MethodGet, "/permissions/one/1", "1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = f.do(http.MethodDelete, "/permissions/1/delete", "1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, body = f.do(http.MethodGet, "/permissions/one/1", "1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Permission not found", body["message"])

	// create, create, update, delete
	assert.Equal(t, 4, f.cache.n)
}

func TestPermissionsWithRoles(t *testing.T) {
	f := newPermissionsFixture(t)

	rec, body := f.do(http.MethodPost, "/permissions/create-with-roles", "1",
		`{"name":"Edit post","action":"edit:post","resourceId":3,"roleIds":[1,2,2]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	data := body["data"].(map[string]any)
	assert.Equal(t, float64(3), data["resourceId"])
	assert.Equal(t, []int64{1, 2}, f.repo.roles[1])

	rec, _ = f.do(http.MethodPut, "/permissions/1/edit-with-roles", "1", `{"name":"Edit post","action":"edit:post","roleIds":[]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Nil(t, f.repo.items[1].ResourceID)
	assert.Equal(t, []int64{1, 2}, f.repo.roles[1], "empty roleIds keeps the current grants")

	rec, _ = f.do(http.MethodPut, "/permissions/1/edit-with-roles", "1", `{"name":"Edit post","action":"edit:post","roleIds":[2]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int64{2}, f.repo.roles[1])

	rec, body = f.do(http.MethodGet, "/permissions/one/1", "1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["data"].(map[string]any)["roles"], 1)

	rec, body = f.do(http.MethodPost, "/permissions/create-with-roles", "1", `{"name":"Bad","action":"bad:role","roleIds":[0]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", body["errorCode"])
}

func TestPermissionsBulkDelete(t *testing.T) {
	f := newPermissionsFixture(t)
	for _, action := range []string{"a:post", "b:post", "c:post"} {
		rec, _ := f.do(http.MethodPost, "/permissions/create", "1", `{"name":"x","action":"`+action+`"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec, body := f.do(http.MethodDelete, "/permissions/bulk-delete", "1", `{"ids":[1,3,42]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, float64(2), body["data"].(map[string]any)["deletedCount"])
	assert.Len(t, f.repo.items, 1)

	rec, _ = f.do(http.MethodDelete, "/permissions/bulk-delete", "1", `{"ids":[1,3]}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = f.do(http.MethodDelete, "/permissions/bulk-delete", "1", `{"ids":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", body["errorCode"])

	// three creates and one bulk delete
	assert.Equal(t, 4, f.cache.n)
}

func TestPermissionsRequireManagePermission(t *testing.T) {
	f := newPermissionsFixture(t)
	rec, body := f.do(http.MethodGet, "/permissions/listing", "2", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, CodeInsufficientPermission, body["errorCode"])
}

func TestPermissionsBadID(t *testing.T) {
	f := newPermissionsFixture(t)
	rec, _ := f.do(http.MethodGet, "/permissions/one/abc", "1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
