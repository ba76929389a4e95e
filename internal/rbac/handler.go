package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/paisaid/paisaid-cms/internal/platform/httpx"
	"github.com/paisaid/paisaid-cms/internal/shared"
)

// Handler exposes the permission catalogue over JSON.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, rbac: rbac, validator: validator.New()}
}

// MountRoutes registers permission routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.rbac.RequireAll(shared.PermManagePermissions))
	r.Get("/listing", h.list)
	r.Get("/one/{id}", h.get)
	r.Post("/create", h.create)
	r.Post("/create-with-roles", h.create)
	r.Put("/{id}/edit", h.update)
	r.Put("/{id}/edit-with-roles", h.update)
	r.Delete("/{id}/delete", h.delete)
	r.Delete("/bulk-delete", h.bulkDelete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	perms, meta, err := h.service.List(r.Context(), shared.ParseListParams(r))
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Page(w, perms, meta)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	perm, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, "", perm)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in PermissionInput
	if err := httpx.DecodeJSON(r, h.validator, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	perm, err := h.service.Create(r.Context(), p.UserID, in)
	if err != nil {
		h.logger.Warn("create permission", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, "Permission created successfully", perm)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in PermissionInput
	if err := httpx.DecodeJSON(r, h.validator, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	perm, err := h.service.Update(r.Context(), p.UserID, id, in)
	if err != nil {
		h.logger.Warn("update permission", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Permission updated successfully", perm)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	if err := h.service.Delete(r.Context(), p.UserID, id); err != nil {
		h.logger.Warn("delete permission", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Permission deleted successfully", nil)
}

func (h *Handler) bulkDelete(w http.ResponseWriter, r *http.Request) {
	var in BulkDeleteInput
	if err := httpx.DecodeJSON(r, h.validator, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	deleted, err := h.service.BulkDelete(r.Context(), p.UserID, in.IDs)
	if err != nil {
		h.logger.Warn("bulk delete permissions", slog.Int("count", len(in.IDs)), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Permissions deleted successfully", map[string]int64{"deletedCount": deleted})
}
