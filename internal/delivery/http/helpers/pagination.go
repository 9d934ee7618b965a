package helpers

import (
	"net/http"
	"strconv"

	"eventplatform/internal/domain"
)

// ParsePagination reads page and limit from the request query string,
// clamps them to valid ranges, and returns domain.PaginationParams.
// page_size is accepted as an alias of limit. Invalid or missing values
// fall back to defaults.
func ParsePagination(r *http.Request) domain.PaginationParams {
	q := r.URL.Query()
	page := domain.DefaultPage
	if s := q.Get("page"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 1 {
			page = min(v, domain.MaxPage)
		}
	}
	pageSize := domain.DefaultPageSize
	s := q.Get("limit")
	if s == "" {
		s = q.Get("page_size")
	}
	if s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 1 {
			pageSize = min(v, domain.MaxPageSize)
		}
	}
	return domain.PaginationParams{Page: page, PageSize: pageSize}
}

// PaginationMeta is the pagination metadata included in paginated list responses.
// swagger:model PaginationMeta
type PaginationMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPaginationMeta builds PaginationMeta from the current page, page size, and total count.
// TotalPages is computed as ceiling(total / pageSize); if pageSize is 0, TotalPages is 0.
func NewPaginationMeta(page, pageSize, total int) PaginationMeta {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return PaginationMeta{
		Page:       page,
		Limit:      pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}
