// Package query turns a full in-memory list plus filter, sort and page
// parameters into the slice a view displays.
package query

import "slices"

// DefaultPageSize is the number of rows per page when none is configured
const DefaultPageSize = 30

// Order is a sort direction
type Order int

const (
	Asc Order = iota
	Desc
)

func (o Order) String() string {
	if o == Desc {
		return "desc"
	}
	return "asc"
}

// Sort is the active sort column and direction of a view
type Sort struct {
	Column string
	Order  Order
}

// Toggle returns the sort after the user selects column. Selecting the
// active column flips the direction; a new column starts ascending.
func (s Sort) Toggle(column string) Sort {
	if s.Column == column {
		if s.Order == Asc {
			return Sort{Column: column, Order: Desc}
		}
		return Sort{Column: column, Order: Asc}
	}
	return Sort{Column: column, Order: Asc}
}

// Spec describes one query over a list of T
type Spec[T any] struct {
	// Filters are AND-combined; nil entries are skipped.
	Filters  []func(T) bool
	Compare  func(a, b T) int
	Order    Order
	Page     int
	PageSize int
}

// Page is the visible slice plus totals over the filtered list
type Page[T any] struct {
	Items []T
	Total int
	Pages int
	Page  int
}

// Run filters, stably sorts and paginates items. items is not modified.
func Run[T any](items []T, spec Spec[T]) Page[T] {
	filtered := make([]T, 0, len(items))
	for _, it := range items {
		if keep(it, spec.Filters) {
			filtered = append(filtered, it)
		}
	}

	if spec.Compare != nil {
		cmp := spec.Compare
		if spec.Order == Desc {
			cmp = func(a, b T) int { return spec.Compare(b, a) }
		}
		slices.SortStableFunc(filtered, cmp)
	}

	size := spec.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	total := len(filtered)
	pages := (total + size - 1) / size
	page := ClampPage(spec.Page, pages)

	start := (page - 1) * size
	end := min(start+size, total)
	if start > total {
		start = total
	}

	return Page[T]{
		Items: filtered[start:end],
		Total: total,
		Pages: pages,
		Page:  page,
	}
}

// ClampPage bounds page to [1, max(1, pages)]. A page past the end snaps to the last page.
func ClampPage(page, pages int) int {
	if page > pages {
		page = pages
	}
	if page < 1 {
		page = 1
	}
	return page
}

func keep[T any](it T, filters []func(T) bool) bool {
	for _, f := range filters {
		if f != nil && !f(it) {
			return false
		}
	}
	return true
}
