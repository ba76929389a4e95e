package shared

import (
	"math"
	"net/http"
	"strconv"
	"strings"
)

// ListParams are the query parameters shared by list endpoints.
type ListParams struct {
	Page  int
	Limit int
	Query string
}

// ParseListParams reads page, limit and q from the request query string.
// Invalid or negative numbers are treated as absent.
func ParseListParams(r *http.Request) ListParams {
	q := r.URL.Query()
	return ListParams{
		Page:  nonNegative(q.Get("page")),
		Limit: nonNegative(q.Get("limit")),
		Query: strings.TrimSpace(q.Get("q")),
	}
}

func nonNegative(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// PageMeta is the pagination block returned with list responses.
type PageMeta struct {
	TotalElements int `json:"totalElements"`
	CurrentPage   int `json:"currentPage"`
	Limit         int `json:"limit"`
	TotalPages    int `json:"totalPages"`
}

// NewPageMeta computes pagination metadata. A zero limit means the listing is
// not paginated and fits on a single page. The requested page is clamped to
// [1, TotalPages].
func NewPageMeta(params ListParams, total int) PageMeta {
	totalPages := 1
	if params.Limit > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(params.Limit)))
	}
	page := 1
	if params.Page > 0 {
		page = max(1, min(params.Page, totalPages))
	}
	return PageMeta{TotalElements: total, CurrentPage: page, Limit: params.Limit, TotalPages: totalPages}
}

// Offset returns the row offset for the current page, or 0 when unpaginated.
func (m PageMeta) Offset() int {
	if m.Limit <= 0 {
		return 0
	}
	return (m.CurrentPage - 1) * m.Limit
}
