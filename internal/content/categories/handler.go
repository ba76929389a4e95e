package categories

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/paisaid/paisaid-cms/internal/platform/httpx"
	"github.com/paisaid/paisaid-cms/internal/rbac"
	"github.com/paisaid/paisaid-cms/internal/shared"
)

// Handler exposes category endpoints. Reads are public.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, rbac: rbac, validator: validator.New()}
}

// MountRoutes registers public reads. Writes go through MountAdminRoutes
// because they need an authenticated principal.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listCategories)
	r.Get("/{id}", h.getCategory)
}

// MountAdminRoutes registers write routes behind manage:categories.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermManageCategories))
		r.Post("/create", h.createCategory)
		r.Put("/{id}/update", h.updateCategory)
		r.Delete("/{id}/delete", h.deleteCategory)
	})
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	var filter Filter
	switch raw := r.URL.Query().Get("parentId"); raw {
	case "":
	case "null":
		filter.TopLevel = true
	default:
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			httpx.Fail(w, http.StatusBadRequest, "Invalid parentId", "VALIDATION_FAILED")
			return
		}
		filter.ParentID = id
	}
	items, meta, err := h.service.List(r.Context(), shared.ParseListParams(r), filter)
	if err != nil {
		h.logger.Error("list categories", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Page(w, items, meta)
}

func (h *Handler) getCategory(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.Get(r.Context(), id, r.URL.Query().Get("includePosts") == "true")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, "", c)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var in CategoryInput
	if err := httpx.DecodeJSON(r, h.validator, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	c, err := h.service.Create(r.Context(), p.UserID, in)
	if err != nil {
		h.logger.Warn("create category", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, "Category created", c)
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in CategoryInput
	if err := httpx.DecodeJSON(r, h.validator, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	c, err := h.service.Update(r.Context(), p.UserID, id, in)
	if err != nil {
		h.logger.Warn("update category", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Category updated", c)
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	if err := h.service.Delete(r.Context(), p.UserID, id); err != nil {
		h.logger.Warn("delete category", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Category deleted", nil)
}
