package query

import (
	"net/url"
	"strings"
)

// KeySeparator delimits cache key segments.
const KeySeparator = "::"

// CategoryAll is the category filter value that matches every product.
const CategoryAll = "all"

// Status narrows the list to active or inactive products on the server side.
type Status string

const (
	StatusAll      Status = "all"
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Filters is the server-relevant filter/sort tuple. It deliberately excludes
// client-only state (search term, page index, page size): those never reach the
// remote API and must not partition the cache.
type Filters struct {
	Category string
	Status   Status
	Sort     SortSpec
}

// DefaultFilters returns the tuple used on first load and after a reset.
func DefaultFilters() Filters {
	return Filters{
		Category: CategoryAll,
		Status:   StatusAll,
		Sort:     DefaultSort(),
	}
}

// Normalize maps empty fields to their catch-all equivalents so that equal
// filter intents always build equal keys.
func (f Filters) Normalize() Filters {
	if f.Category == "" {
		f.Category = CategoryAll
	}
	switch f.Status {
	case StatusActive, StatusInactive:
	default:
		f.Status = StatusAll
	}
	f.Sort = f.Sort.Normalize()
	return f
}

// Key builds the deterministic cache key for this tuple. Field-wise equal
// tuples produce identical keys; tuples differing in any field produce
// different keys. The category segment is escaped so free-form category names
// cannot collide with the separator.
func (f Filters) Key() string {
	f = f.Normalize()
	parts := []string{
		"products",
		"cat=" + url.QueryEscape(strings.ToLower(f.Category)),
		"status=" + string(f.Status),
		"sort=" + string(f.Sort.Field) + "." + string(f.Sort.Dir),
	}
	return strings.Join(parts, KeySeparator)
}
