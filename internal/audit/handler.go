package audit

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/paisaid/paisaid-cms/internal/platform/httpx"
	"github.com/paisaid/paisaid-cms/internal/rbac"
	"github.com/paisaid/paisaid-cms/internal/shared"
)

const (
	defaultDateRange  = 7 * 24 * time.Hour
	maxDateRangeHours = 24 * 90
	exportRateLimit   = 10
)

// TimelineService defines the business contract for timeline data.
type TimelineService interface {
	Timeline(ctx context.Context, filters TimelineFilters) (Result, error)
	Export(ctx context.Context, filters TimelineFilters) ([]TimelineRow, error)
}

// Handler serves the audit timeline.
type Handler struct {
	logger  *slog.Logger
	service TimelineService
	rbac    rbac.Middleware
	now     func() time.Time
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service TimelineService, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, rbac: rbac, now: time.Now}
}

// MountRoutes registers the timeline and its CSV export.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.rbac.RequireAll(shared.PermReadAudit))
	r.Get("/", h.timeline)
	r.With(httprate.Limit(exportRateLimit, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			httpx.Fail(w, http.StatusTooManyRequests, "Too many export requests", "RATE_LIMITED")
		}),
	)).Get("/export.csv", h.export)
}

// rateLimitKey buckets exports per user and falls back to the client IP.
func rateLimitKey(r *http.Request) (string, error) {
	if p, ok := shared.PrincipalFromContext(r.Context()); ok {
		return "user:" + strconv.FormatInt(p.UserID, 10), nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	filters, err := h.parseFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.Timeline(r.Context(), filters)
	if err != nil {
		h.logger.Error("load audit timeline", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Envelope{Success: true, Data: result.Rows, Meta: result.Paging})
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	filters, err := h.parseFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	rows, err := h.service.Export(r.Context(), filters)
	if err != nil {
		h.logger.Error("export audit timeline", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	body, err := WriteCSV(rows)
	if err != nil {
		h.logger.Error("encode audit csv", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="audit-timeline.csv"`)
	if _, err := w.Write(body); err != nil {
		h.logger.Warn("write audit csv", slog.Any("error", err))
	}
}

func invalid(field string) error {
	return fmt.Errorf("%w: invalid %s", shared.ErrValidation, field)
}

// parseFilters reads from/to as dates. The window ends at the close of "to",
// defaults to the last seven days and may not exceed ninety.
func (h *Handler) parseFilters(r *http.Request) (TimelineFilters, error) {
	q := r.URL.Query()
	now := h.now().UTC()
	toStr := strings.TrimSpace(q.Get("to"))
	if toStr == "" {
		toStr = now.Format(time.DateOnly)
	}
	toDay, err := time.Parse(time.DateOnly, toStr)
	if err != nil {
		return TimelineFilters{}, invalid("to")
	}
	fromStr := strings.TrimSpace(q.Get("from"))
	if fromStr == "" {
		fromStr = toDay.Add(-defaultDateRange).Format(time.DateOnly)
	}
	fromDay, err := time.Parse(time.DateOnly, fromStr)
	if err != nil {
		return TimelineFilters{}, invalid("from")
	}
	if fromDay.After(toDay) || toDay.Sub(fromDay) > maxDateRangeHours*time.Hour {
		return TimelineFilters{}, invalid("range")
	}

	filters := TimelineFilters{
		From:   fromDay,
		To:     toDay.AddDate(0, 0, 1),
		Entity: strings.TrimSpace(q.Get("entity")),
		Action: strings.TrimSpace(q.Get("action")),
		Page:   1,
	}
	if v := strings.TrimSpace(q.Get("actorId")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return TimelineFilters{}, invalid("actorId")
		}
		filters.ActorID = id
	}
	if v := strings.TrimSpace(q.Get("page")); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page <= 0 {
			return TimelineFilters{}, invalid("page")
		}
		filters.Page = page
	}
	if v := strings.TrimSpace(q.Get("pageSize")); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size <= 0 {
			return TimelineFilters{}, invalid("pageSize")
		}
		filters.PageSize = min(size, MaxPageSize)
	}
	return filters, nil
}
