// Package pagination parses page/limit query parameters and shapes paginated results.
package pagination

import (
	"math"
	"net/url"
	"strconv"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params is a validated page request. Page is 1-based.
type Params struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Meta accompanies a page of results.
type Meta struct {
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	Total       int  `json:"total"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

// Page is one slice of a larger result set.
type Page[T any] struct {
	Items      []T  `json:"items"`
	Pagination Meta `json:"pagination"`
}

// Parse reads "page" and "limit", clamping page to >= 1 and limit to [1, MaxLimit].
// Missing or malformed values take the defaults.
func Parse(q url.Values) Params {
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Params{Page: page, Limit: limit}
}

// Offset is the number of items before the requested page. It saturates at math.MaxInt
// instead of overflowing for absurd page numbers.
func (p Params) Offset() int {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

// New wraps items that were already cut to p.
func New[T any](items []T, total int, p Params) Page[T] {
	totalPages := 0
	if p.Limit > 0 {
		totalPages = (total + p.Limit - 1) / p.Limit
	}
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items: items,
		Pagination: Meta{
			Page:        p.Page,
			Limit:       p.Limit,
			Total:       total,
			TotalPages:  totalPages,
			HasNextPage: p.Page < totalPages,
			HasPrevPage: p.Page > 1,
		},
	}
}

// Slice cuts the requested page out of a fully materialized result set.
func Slice[T any](all []T, p Params) Page[T] {
	start := p.Offset()
	if start < 0 || start > len(all) {
		start = len(all)
	}
	end := start + p.Limit
	if end > len(all) {
		end = len(all)
	}
	return New(all[start:end], len(all), p)
}
