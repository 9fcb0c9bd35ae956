package listutil

import (
	"net/url"
	"strconv"
)

// PageParams carries pagination parameters parsed from a request.
type PageParams struct {
	Page    int // 1-indexed page number
	PerPage int // rows per page
}

// FilterParams carries search and filter parameters.
type FilterParams struct {
	Search  string            // free-text search query
	Filters map[string]string // exact-match filters (e.g. instrument=Vc)
}

// PageInfo carries pagination metadata returned alongside a page of rows.
type PageInfo struct {
	Page       int `json:"page"`       // current page (1-indexed)
	PerPage    int `json:"perPage"`    // rows per page
	Total      int `json:"total"`      // total matching rows
	TotalPages int `json:"totalPages"` // ceil(Total / PerPage), at least 1
}

// DefaultPerPage is used when a paged request names no page size.
const DefaultPerPage = 50

// MaxPerPage caps the page size a client may ask for.
const MaxPerPage = 200

// ParsePageParams extracts page and perPage from URL query values. The bool
// reports whether the client asked for paging at all.
// PRE: none
// POST: returned params have Page >= 1 and 1 <= PerPage <= MaxPerPage
func ParsePageParams(q url.Values) (PageParams, bool) {
	rawPage, rawPer := q.Get("page"), q.Get("perPage")
	page, _ := strconv.Atoi(rawPage)
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(rawPer)
	switch {
	case perPage < 1:
		perPage = DefaultPerPage
	case perPage > MaxPerPage:
		perPage = MaxPerPage
	}
	return PageParams{Page: page, PerPage: perPage}, rawPage != "" || rawPer != ""
}

// ParseFilterParams extracts search and named filters from URL query values.
// PRE: filterKeys lists the allowed filter parameter names
// POST: returns FilterParams with only recognised keys
func ParseFilterParams(q url.Values, filterKeys []string) FilterParams {
	fp := FilterParams{
		Search:  q.Get("q"),
		Filters: make(map[string]string),
	}
	for _, key := range filterKeys {
		if v := q.Get(key); v != "" {
			fp.Filters[key] = v
		}
	}
	return fp
}

// NewPageInfo computes pagination metadata.
// PRE: total >= 0
// POST: returns PageInfo with TotalPages computed; Page clamped to valid range
func NewPageInfo(page, perPage, total int) PageInfo {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	totalPages := (total + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return PageInfo{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Offset returns the SQL OFFSET for the current page.
// POST: Returns (Page-1) * PerPage
func (p PageInfo) Offset() int {
	return (p.Page - 1) * p.PerPage
}
