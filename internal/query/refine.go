package query

import (
	"sort"
	"strings"

	"github.com/ecomdash/backoffice/internal/catalog"
)

// Refine applies the free-text search and the sort to a fetched
// collection, producing the derived view the paginator slices. It is pure:
// the input slice is never mutated and identical inputs yield identical
// output. Debouncing the search term is the caller's concern.
func Refine(products []catalog.Product, term string, spec SortSpec) []catalog.Product {
	spec = spec.Normalize()

	out := make([]catalog.Product, 0, len(products))
	needle := strings.ToLower(strings.TrimSpace(term))
	for _, p := range products {
		if needle == "" || matches(p, needle) {
			out = append(out, p)
		}
	}

	// Stable sort: ties keep their fetched relative order, so pagination is
	// predictable across re-renders with unchanged inputs.
	sort.SliceStable(out, func(i, j int) bool {
		c := compare(out[i], out[j], spec.Field)
		if spec.Dir == Desc {
			return c > 0
		}
		return c < 0
	})

	return out
}

// matches reports whether any searchable text field contains the needle.
// Matching is case-insensitive substring over name, brand and category.
func matches(p catalog.Product, needle string) bool {
	for _, field := range []string{p.Name, p.Brand, p.Category} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func compare(a, b catalog.Product, field Field) int {
	switch field {
	case FieldName:
		return compareFold(a.Name, b.Name)
	case FieldBrand:
		return compareFold(a.Brand, b.Brand)
	case FieldCategory:
		return compareFold(a.Category, b.Category)
	case FieldPrice:
		switch {
		case a.Price < b.Price:
			return -1
		case a.Price > b.Price:
			return 1
		}
		return 0
	default: // FieldCreatedAt
		switch {
		case a.CreatedAt < b.CreatedAt:
			return -1
		case a.CreatedAt > b.CreatedAt:
			return 1
		}
		return 0
	}
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}
