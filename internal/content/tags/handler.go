package tags

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/paisaid/paisaid-cms/internal/platform/httpx"
	"github.com/paisaid/paisaid-cms/internal/rbac"
	"github.com/paisaid/paisaid-cms/internal/shared"
)

// Handler exposes tag endpoints. Reads are public.
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

// MountRoutes registers public reads.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listTags)
	r.Get("/{id}", h.getTag)
}

// MountAdminRoutes registers write routes behind manage:tags.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermManageTags))
		r.Post("/create", h.createTag)
		r.Put("/{id}/update", h.updateTag)
		r.Delete("/{id}/delete", h.deleteTag)
	})
}

func (h *Handler) listTags(w http.ResponseWriter, r *http.Request) {
	items, meta, err := h.service.List(r.Context(), shared.ParseListParams(r))
	if err != nil {
		h.logger.Error("list tags", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Page(w, items, meta)
}

func (h *Handler) getTag(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	t, err := h.service.Get(r.Context(), id, r.URL.Query().Get("includePosts") == "true")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, "", t)
}

func (h *Handler) createTag(w http.ResponseWriter, r *http.Request) {
	var in TagInput
	if err := httpx.DecodeJSON(r, h.validator, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	t, err := h.service.Create(r.Context(), p.UserID, in)
	if err != nil {
		h.logger.Warn("create tag", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, "Tag created", t)
}

func (h *Handler) updateTag(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in TagInput
	if err := httpx.DecodeJSON(r, h.validator, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	t, err := h.service.Update(r.Context(), p.UserID, id, in)
	if err != nil {
		h.logger.Warn("update tag", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Tag updated", t)
}

func (h *Handler) deleteTag(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	if err := h.service.Delete(r.Context(), p.UserID, id); err != nil {
		h.logger.Warn("delete tag", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Tag deleted", nil)
}
