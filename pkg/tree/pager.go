package tree

import "fmt"

// Pager is the server-side paging position of one expanded listing.
type Pager struct {
	Page    int
	Total   int
	PerPage int
}

// TotalPages returns the page count, never less than 1.
func (p Pager) TotalPages() int {
	if p.PerPage <= 0 || p.Total <= 0 {
		return 1
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}

// Needed reports whether the listing spans more than one page.
func (p Pager) Needed() bool {
	return p.PerPage > 0 && p.Total > p.PerPage
}

// HasPrev reports whether a previous page exists.
func (p Pager) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a next page exists.
func (p Pager) HasNext() bool { return p.Page < p.TotalPages() }

// Clamp bounds a requested page to [1, TotalPages].
func (p Pager) Clamp(page int) int {
	if page < 1 {
		return 1
	}
	if max := p.TotalPages(); page > max {
		return max
	}
	return page
}

// Label renders the footer text, e.g. "Page 2 of 5".
func (p Pager) Label() string {
	return fmt.Sprintf("Page %d of %d", p.Clamp(p.Page), p.TotalPages())
}
