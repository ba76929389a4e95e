package posts

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/paisaid/paisaid-cms/internal/platform/httpx"
	"github.com/paisaid/paisaid-cms/internal/rbac"
	"github.com/paisaid/paisaid-cms/internal/shared"
)

// Handler exposes post endpoints.
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

// MountRoutes registers public reads. They expect an optional principal: an
// authenticated caller sees every status, an anonymous one only published
// posts.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listPosts)
	r.Get("/trending", h.trendingPosts)
	r.Get("/{key}", h.postDetail)
	r.Get("/{key}/nearby", h.nearbyPosts)
}

// MountAdminRoutes registers write routes. They expect an authenticated principal.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.With(h.rbac.RequireAll(shared.PermCreatePost)).Post("/create", h.createPost)
	r.With(h.rbac.RequireAll(shared.PermUpdatePost)).Put("/{key}/update", h.updatePost)
	r.With(h.rbac.RequireAll(shared.PermPublishPost)).Patch("/{key}/publish", h.publishPost)
	r.With(h.rbac.RequireAll(shared.PermPublishPost)).Patch("/{key}/archive", h.archivePost)
	r.With(h.rbac.RequireAll(shared.PermDeletePost)).Delete("/{key}/delete", h.deletePost)
	r.With(h.rbac.RequireAll(shared.PermDeletePost)).Delete("/bulk-delete", h.bulkDeletePosts)
}

func (h *Handler) listPosts(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if _, ok := shared.PrincipalFromContext(r.Context()); !ok {
		filter.PublishedOnly = true
	}
	items, meta, err := h.service.List(r.Context(), shared.ParseListParams(r), filter)
	if err != nil {
		h.logger.Error("list posts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Page(w, items, meta)
}

func parseFilter(r *http.Request) (Filter, error) {
	q := r.URL.Query()
	filter := Filter{
		City:       strings.TrimSpace(q.Get("city")),
		Country:    strings.TrimSpace(q.Get("country")),
		PriceRange: strings.ToUpper(strings.TrimSpace(q.Get("priceRange"))),
		Status:     strings.TrimSpace(q.Get("status")),
		Sort:       strings.TrimSpace(q.Get("sort")),
	}
	if raw := q.Get("categoryId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return Filter{}, fmt.Errorf("%w: invalid categoryId", shared.ErrValidation)
		}
		filter.CategoryID = id
	}
	if raw := q.Get("tagIds"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil || id <= 0 {
				return Filter{}, fmt.Errorf("%w: invalid tagIds", shared.ErrValidation)
			}
			filter.TagIDs = append(filter.TagIDs, id)
		}
	}
	return filter, nil
}

func (h *Handler) trendingPosts(w http.ResponseWriter, r *http.Request) {
	items, meta, err := h.service.Trending(r.Context(), shared.ParseListParams(r), r.URL.Query().Get("timeRange"))
	if err != nil {
		h.logger.Error("trending posts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Page(w, items, meta)
}

func (h *Handler) postDetail(w http.ResponseWriter, r *http.Request) {
	_, authenticated := shared.PrincipalFromContext(r.Context())
	p, err := h.service.Detail(r.Context(), chi.URLParam(r, "key"), !authenticated)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, "", p)
}

func (h *Handler) nearbyPosts(w http.ResponseWriter, r *http.Request) {
	var distance float64
	if raw := r.URL.Query().Get("distance"); raw != "" {
		d, err := strconv.ParseFloat(raw, 64)
		if err != nil || d <= 0 {
			httpx.Fail(w, http.StatusBadRequest, "Invalid distance", "VALIDATION_FAILED")
			return
		}
		distance = d
	}
	items, err := h.service.Nearby(r.Context(), chi.URLParam(r, "key"), distance)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, "", items)
}

func postID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "key"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid post id", shared.ErrValidation)
	}
	return id, nil
}

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) {
	var in PostInput
	if err := httpx.DecodeJSON(r, h.validator, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	post, err := h.service.Create(r.Context(), p.UserID, in)
	if err != nil {
		h.logger.Warn("create post", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, "Post created successfully", post)
}

func (h *Handler) updatePost(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in PostInput
	if err := httpx.DecodeJSON(r, h.validator, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	post, err := h.service.Update(r.Context(), p.UserID, id, in)
	if err != nil {
		h.logger.Warn("update post", slog.String("id", id.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Post updated successfully", post)
}

func (h *Handler) publishPost(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, h.service.Publish, "Post published")
}

func (h *Handler) archivePost(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, h.service.Archive, "Post archived")
}

func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request, apply func(context.Context, int64, uuid.UUID) (Post, error), message string) {
	id, err := postID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	post, err := apply(r.Context(), p.UserID, id)
	if err != nil {
		h.logger.Warn("change post status", slog.String("id", id.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, message, post)
}

func (h *Handler) deletePost(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	if err := h.service.Delete(r.Context(), p.UserID, id); err != nil {
		h.logger.Warn("delete post", slog.String("id", id.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Post deleted", nil)
}

func (h *Handler) bulkDeletePosts(w http.ResponseWriter, r *http.Request) {
	var in BulkDeleteInput
	if err := httpx.DecodeJSON(r, h.validator, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	deleted, err := h.service.BulkDelete(r.Context(), p.UserID, in.IDs)
	if err != nil {
		h.logger.Warn("bulk delete posts", slog.Int("count", len(in.IDs)), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Posts deleted successfully", map[string]int64{"deletedCount": deleted})
}
