package query

import "github.com/ecomdash/backoffice/internal/catalog"

// Paginate slices a refined collection into 1-based pages of pageSize items.
// It returns the requested page and the total page count. A page index beyond
// the last page yields an empty slice, not an error; clamping is the caller's
// job. An empty collection has zero pages.
func Paginate(products []catalog.Product, pageIndex, pageSize int) ([]catalog.Product, int) {
	if pageSize < 1 || len(products) == 0 {
		return []catalog.Product{}, 0
	}

	totalPages := (len(products) + pageSize - 1) / pageSize
	if pageIndex < 1 || pageIndex > totalPages {
		return []catalog.Product{}, totalPages
	}

	start := (pageIndex - 1) * pageSize
	end := start + pageSize
	if end > len(products) {
		end = len(products)
	}

	page := make([]catalog.Product, end-start)
	copy(page, products[start:end])
	return page, totalPages
}
