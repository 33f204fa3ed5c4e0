package helpers

import (
	"net/http"
	"strconv"
)

// Page size bounds for list endpoints.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageParams is the page and page_size pair of a list request. Page is 1-based.
type PageParams struct {
	Page     int
	PageSize int
}

// ParsePageParams reads page and page_size from the query string. Missing or
// malformed values fall back to page 1 and DefaultPageSize; page_size is capped
// at MaxPageSize.
func ParsePageParams(r *http.Request) PageParams {
	q := r.URL.Query()
	return PageParams{
		Page:     positiveInt(q.Get("page"), 1),
		PageSize: min(positiveInt(q.Get("page_size"), DefaultPageSize), MaxPageSize),
	}
}

func positiveInt(s string, fallback int) int {
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return fallback
	}
	return v
}

// PaginationMeta is the pagination block of list responses.
type PaginationMeta struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Paginate returns the slice of items on page p together with its metadata.
// A page past the end yields an empty, non-nil slice.
func Paginate[T any](items []T, p PageParams) ([]T, PaginationMeta) {
	total := len(items)
	meta := PaginationMeta{Page: p.Page, PageSize: p.PageSize, Total: total}
	if p.PageSize <= 0 {
		return []T{}, meta
	}
	meta.TotalPages = (total + p.PageSize - 1) / p.PageSize

	start := min((max(p.Page, 1)-1)*p.PageSize, total)
	end := min(start+p.PageSize, total)
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out, meta
}
