package domain

import "math"

// List page sizing shared by the HTTP layer and the services.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxPage keeps (MaxPage-1)*MaxPageSize inside an int32.
	MaxPage = math.MaxInt32 / MaxPageSize
)

// PaginationParams is a 1-based page request for event lists.
type PaginationParams struct {
	Page     int
	PageSize int
}

// Normalize fills in defaults and clamps both fields to their limits.
func (p PaginationParams) Normalize() PaginationParams {
	switch {
	case p.Page < 1:
		p.Page = DefaultPage
	case p.Page > MaxPage:
		p.Page = MaxPage
	}
	switch {
	case p.PageSize < 1:
		p.PageSize = DefaultPageSize
	case p.PageSize > MaxPageSize:
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset is the number of rows skipped before the page. It saturates at
// math.MaxInt instead of overflowing, so an absurd page yields an empty
// result rather than a negative offset.
func (p PaginationParams) Offset() int {
	if p.Page < 1 || p.PageSize < 1 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.PageSize {
		return math.MaxInt
	}
	return (p.Page - 1) * p.PageSize
}
