package model

// PageRequest is a 1-based page number and page size.
type PageRequest struct {
	Page  int
	Limit int
}

// Offset returns the row offset of the first item of the page.
func (p PageRequest) Offset() int { return (p.Page - 1) * p.Limit }

// Page is one slice of a larger result set together with the total
// number of matching rows.
type Page[T any] struct {
	Items []T
	Total int64
}
