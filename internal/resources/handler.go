package resources

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/paisaid/paisaid-cms/internal/platform/httpx"
	"github.com/paisaid/paisaid-cms/internal/rbac"
	"github.com/paisaid/paisaid-cms/internal/shared"
)

// Handler exposes the resource catalogue. Every route needs a principal.
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

// MountRoutes registers resource routes, one permission per verb.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireAll(shared.PermViewResource)).Get("/listing", h.list)
	r.With(h.rbac.RequireAll(shared.PermViewResource)).Get("/one/{id}", h.get)
	r.With(h.rbac.RequireAll(shared.PermCreateResource)).Post("/create", h.create)
	r.With(h.rbac.RequireAll(shared.PermUpdateResource)).Put("/{id}/edit", h.update)
	r.With(h.rbac.RequireAll(shared.PermDeleteResource)).Delete("/{id}/delete", h.delete)
	r.With(h.rbac.RequireAll(shared.PermDeleteResource)).Delete("/bulk-delete", h.bulkDelete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	items, meta, err := h.service.List(r.Context(), shared.ParseListParams(r))
	if err != nil {
		h.logger.Error("list resources", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Page(w, items, meta)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	res, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Resource retrieved successfully", res)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in ResourceInput
	if err := httpx.DecodeJSON(r, h.validator, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	res, err := h.service.Create(r.Context(), p.UserID, in)
	if err != nil {
		h.logger.Warn("create resource", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, "Resource created successfully", res)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in ResourceInput
	if err := httpx.DecodeJSON(r, h.validator, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	res, err := h.service.Update(r.Context(), p.UserID, id, in)
	if err != nil {
		h.logger.Warn("update resource", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Resource updated successfully", res)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	if err := h.service.Delete(r.Context(), p.UserID, id); err != nil {
		h.logger.Warn("delete resource", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Resource deleted successfully", nil)
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
		h.logger.Warn("bulk delete resources", slog.Int("count", len(in.IDs)), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Resources deleted successfully", map[string]int64{"deletedCount": deleted})
}
