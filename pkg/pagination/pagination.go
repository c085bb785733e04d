package pagination

import (
	"net/http"
	"strconv"
)

// Params holds pagination parameters extracted from query strings.
type Params struct {
	Page   int `json:"page"`
	Limit  int `json:"limit"`
	Offset int `json:"-"`
}

// DefaultParams returns sensible pagination defaults.
func DefaultParams() Params {
	return Params{
		Page:   1,
		Limit:  20,
		Offset: 0,
	}
}

// FromRequest extracts pagination parameters from the page and limit
// query parameters. Out-of-range values fall back to the defaults;
// limit is capped at 100.
func FromRequest(r *http.Request) Params {
	p := DefaultParams()

	if page := r.URL.Query().Get("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 0 {
			p.Page = v
		}
	}

	if limit := r.URL.Query().Get("limit"); limit != "" {
		if v, err := strconv.Atoi(limit); err == nil && v > 0 && v <= 100 {
			p.Limit = v
		}
	}

	p.Offset = (p.Page - 1) * p.Limit
	return p
}

// Result wraps a paginated response.
type Result[T any] struct {
	Data       []T  `json:"data"`
	TotalCount int  `json:"total_count"`
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// NewResult creates a paginated result.
func NewResult[T any](data []T, totalCount int, params Params) Result[T] {
	totalPages := totalCount / params.Limit
	if totalCount%params.Limit > 0 {
		totalPages++
	}

	return Result[T]{
		Data:       data,
		TotalCount: totalCount,
		Page:       params.Page,
		Limit:      params.Limit,
		TotalPages: totalPages,
		HasNext:    params.Page < totalPages,
		HasPrev:    params.Page > 1,
	}
}
