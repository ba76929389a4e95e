package master

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/paisaid/paisaid-cms/internal/platform/httpx"
	"github.com/paisaid/paisaid-cms/internal/shared"
)

// Handler exposes provinces and districts. The routes are public.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers master data routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/provinces/list", h.listProvinces)
	r.Get("/districts/list", h.listDistricts)
}

func (h *Handler) listProvinces(w http.ResponseWriter, r *http.Request) {
	items, meta, err := h.service.ListProvinces(r.Context(), shared.ParseListParams(r))
	if err != nil {
		h.logger.Error("list provinces", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Page(w, items, meta)
}

func (h *Handler) listDistricts(w http.ResponseWriter, r *http.Request) {
	filter := DistrictFilter{ListParams: shared.ParseListParams(r)}
	if raw := r.URL.Query().Get("provinceId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			httpx.RespondError(w, fmt.Errorf("%w: invalid provinceId", shared.ErrValidation))
			return
		}
		filter.ProvinceID = id
	}
	items, meta, err := h.service.ListDistricts(r.Context(), filter)
	if err != nil {
		h.logger.Error("list districts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Page(w, items, meta)
}
