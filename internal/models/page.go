package models

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// PageInfo describes the slice of a listing returned.
type PageInfo struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// Page is a paginated listing.
type Page[T any] struct {
	Items    []T      `json:"items"`
	PageInfo PageInfo `json:"page_info"`
}

// NewPage builds a page, never serializing items as null.
func NewPage[T any](items []T, limit, offset, total int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, PageInfo: PageInfo{Limit: limit, Offset: offset, Total: total}}
}

// ClampPage applies the default and maximum limit and floors the offset.
func ClampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
