package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/paisaid/paisaid-cms/internal/audit"
	"github.com/paisaid/paisaid-cms/internal/auth"
	"github.com/paisaid/paisaid-cms/internal/content/categories"
	"github.com/paisaid/paisaid-cms/internal/content/posts"
	"github.com/paisaid/paisaid-cms/internal/content/tags"
	"github.com/paisaid/paisaid-cms/internal/master"
	"github.com/paisaid/paisaid-cms/internal/menus"
	"github.com/paisaid/paisaid-cms/internal/observability"
	"github.com/paisaid/paisaid-cms/internal/platform/httpx"
	"github.com/paisaid/paisaid-cms/internal/rbac"
	"github.com/paisaid/paisaid-cms/internal/resources"
	"github.com/paisaid/paisaid-cms/internal/roles"
	"github.com/paisaid/paisaid-cms/internal/users"
	"github.com/paisaid/paisaid-cms/jobs"
)

// APIPrefix is the mount point of every versioned endpoint.
const APIPrefix = "/api/v1"

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config
	Gate   *auth.Gate

	AuthHandler        *auth.Handler
	RolesHandler       *roles.Handler
	PermissionsHandler *rbac.Handler
	ResourcesHandler   *resources.Handler
	MenusHandler       *menus.Handler
	UsersHandler       *users.Handler
	AuditHandler       *audit.Handler
	CategoriesHandler  *categories.Handler
	TagsHandler        *tags.Handler
	PostsHandler       *posts.Handler
	MasterHandler      *master.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with the API defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httpx.Fail(w, http.StatusNotFound, "Route not found", "NOT_FOUND")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httpx.Fail(w, http.StatusMethodNotAllowed, "Method not allowed", "METHOD_NOT_ALLOWED")
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	r.Route(APIPrefix, func(r chi.Router) {
		if params.AuthHandler != nil {
			r.Route("/auth", params.AuthHandler.MountRoutes)
		}

		if params.MasterHandler != nil {
			r.Route("/master", params.MasterHandler.MountRoutes)
		}

		// Back-office resources always need an authenticated caller.
		r.Group(func(r chi.Router) {
			r.Use(params.Gate.Require)
			if params.RolesHandler != nil {
				r.Route("/roles", params.RolesHandler.MountRoutes)
			}
			if params.PermissionsHandler != nil {
				r.Route("/permissions", params.PermissionsHandler.MountRoutes)
			}
			if params.ResourcesHandler != nil {
				r.Route("/resources", params.ResourcesHandler.MountRoutes)
			}
			if params.MenusHandler != nil {
				r.Route("/menus", params.MenusHandler.MountRoutes)
			}
			if params.UsersHandler != nil {
				r.Route("/users", params.UsersHandler.MountRoutes)
			}
			if params.AuditHandler != nil {
				r.Route("/audit-logs", params.AuditHandler.MountRoutes)
			}
		})

		// Content is readable by anyone; writes pass the gate first.
		if params.CategoriesHandler != nil {
			r.Route("/categories", func(r chi.Router) {
				r.Group(params.CategoriesHandler.MountRoutes)
				r.With(params.Gate.Require).Group(params.CategoriesHandler.MountAdminRoutes)
			})
		}
		if params.TagsHandler != nil {
			r.Route("/tags", func(r chi.Router) {
				r.Group(params.TagsHandler.MountRoutes)
				r.With(params.Gate.Require).Group(params.TagsHandler.MountAdminRoutes)
			})
		}
		if params.PostsHandler != nil {
			r.Route("/posts", func(r chi.Router) {
				r.With(params.Gate.Optional).Group(params.PostsHandler.MountRoutes)
				r.With(params.Gate.Require).Group(params.PostsHandler.MountAdminRoutes)
			})
		}
	})

	return r
}
