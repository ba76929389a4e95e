package posts

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

// optionalUser attaches a principal when X-Test-User is set, like the
// optional access gate does for a valid cookie.
func optionalUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id int64
		switch r.Header.Get("X-Test-User") {
		case "editor":
			id = 1
		case "writer":
			id = 2
		default:
			next.ServeHTTP(w, r)
			return
		}
		p := shared.Principal{UserID: id, RoleID: id}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(r.Context(), p)))
	})
}

func newPostsRouter(t *testing.T, repo *memRepo, views ViewRecorder) http.Handler {
	t.Helper()
	store := staticRoles{
		1: {ID: 1, Name: "admin", IsSuperRole: true},
		2: {ID: 2, Name: "writer", Permissions: []rbac.Permission{{Action: shared.PermCreatePost}, {Action: shared.PermUpdatePost}}},
	}
	h := NewHandler(nil, newTestService(repo, views), rbac.Middleware{Resolver: rbac.NewResolver(store)})
	r := chi.NewRouter()
	r.Route("/posts", func(r chi.Router) {
		r.With(optionalUser).Group(h.MountRoutes)
		r.With(optionalUser).Group(h.MountAdminRoutes)
	})
	return r
}

func TestPostsHandler(t *testing.T) {
	repo := newMemRepo()
	views := &viewSpy{}
	router := newPostsRouter(t, repo, views)

	do := func(user, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		if user != "" {
			req.Header.Set("X-Test-User", user)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		var out map[string]any
		_ = json.Unmarshal(rec.Body.Bytes(), &out)
		return rec, out
	}

	rec, body := do("writer", http.MethodPost, "/posts/create", `{"title":"Night Market","content":"stalls","categoryId":1,"tagIds":[1]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	draftID := body["data"].(map[string]any)["id"].(string)

	rec, _ = do("writer", http.MethodPost, "/posts/create", `{"title":"Bad","content":"x","categoryId":1,"tagIds":[1],"website":"not a url"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do("editor", http.MethodPost, "/posts/create", `{"title":"River Walk","content":"banks","categoryId":1,"tagIds":[2],"status":"PUBLISHED"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, body = do("", http.MethodGet, "/posts/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["data"], 1)

	rec, body = do("writer", http.MethodGet, "/posts/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["data"], 2)

	rec, _ = do("", http.MethodGet, "/posts/night-market", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do("", http.MethodGet, "/posts/river-walk", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, views.count())

	rec, _ = do("writer", http.MethodPatch, "/posts/"+draftID+"/publish", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body = do("editor", http.MethodPatch, "/posts/"+draftID+"/publish", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, StatusPublished, body["data"].(map[string]any)["status"])

	rec, _ = do("editor", http.MethodPatch, "/posts/night-market/archive", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do("", http.MethodGet, "/posts/?categoryId=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do("", http.MethodDelete, "/posts/bulk-delete", `{"ids":["`+draftID+`"]}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body = do("editor", http.MethodDelete, "/posts/bulk-delete", `{"ids":["`+draftID+`"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 1, body["data"].(map[string]any)["deletedCount"])
}
