package session

import (
	"context"
	"sync"

	"github.com/ecomdash/backoffice/internal/catalog"
	"github.com/ecomdash/backoffice/internal/gateway"
	"github.com/ecomdash/backoffice/internal/logger"
)

// Mutations: each operation is exactly one remote request. On success the
// whole cache is invalidated — deletes and bulk operations can change totals
// for any filter combination, so every previously viewed key must refetch —
// and the active key is refetched eagerly. On failure the cache and the
// selection set are left untouched so the user can retry.

// Create adds a product.
func (l *List) Create(ctx context.Context, p catalog.Product) (*catalog.Product, error) {
	if err := l.beginMutation(); err != nil {
		return nil, err
	}
	defer l.endMutation()

	created, err := l.api.CreateProduct(ctx, p)
	if err != nil {
		return nil, err
	}
	l.invalidateAndRefetch(ctx)
	return created, nil
}

// Update modifies a product.
func (l *List) Update(ctx context.Context, id string, p catalog.Product) (*catalog.Product, error) {
	if err := l.beginMutation(); err != nil {
		return nil, err
	}
	defer l.endMutation()

	updated, err := l.api.UpdateProduct(ctx, id, p)
	if err != nil {
		return nil, err
	}
	l.invalidateAndRefetch(ctx)
	return updated, nil
}

// Delete removes a single product.
func (l *List) Delete(ctx context.Context, id string) error {
	if err := l.beginMutation(); err != nil {
		return err
	}
	defer l.endMutation()

	if err := l.api.DeleteProduct(ctx, id); err != nil {
		return err
	}
	l.invalidateAndRefetch(ctx)
	return nil
}

// Bulk runs one operation over the current selection in a single remote
// request. The selection is cleared only after success.
func (l *List) Bulk(ctx context.Context, operation string, discount *float64) error {
	if err := l.beginMutation(); err != nil {
		return err
	}
	defer l.endMutation()

	l.mu.Lock()
	ids := l.selection.IDs()
	l.mu.Unlock()

	if len(ids) == 0 {
		return &gateway.ValidationError{Message: "no products selected"}
	}

	bulk := catalog.BulkRequest{
		ProductIDs:         ids,
		Operation:          operation,
		DiscountPercentage: discount,
	}
	if err := l.api.BulkProducts(ctx, bulk); err != nil {
		return err
	}

	l.mu.Lock()
	l.selection.Clear()
	l.mu.Unlock()

	l.invalidateAndRefetch(ctx)
	return nil
}

// BatchUpdateOp is one item of a batch update.
type BatchUpdateOp struct {
	ID      string
	Product catalog.Product
}

// BatchReport records the outcome of a batch per item instead of collapsing
// it into a single boolean, so callers know exactly which updates failed.
type BatchReport struct {
	Succeeded []string          `json:"succeeded"`
	Failed    map[string]string `json:"failed"`
}

// OK reports whether every operation succeeded.
func (r BatchReport) OK() bool {
	return len(r.Failed) == 0
}

// BatchUpdate issues independent update requests concurrently and reports
// per-item results. The cache is invalidated once if anything succeeded.
func (l *List) BatchUpdate(ctx context.Context, ops []BatchUpdateOp) (BatchReport, error) {
	if err := l.beginMutation(); err != nil {
		return BatchReport{}, err
	}
	defer l.endMutation()

	report := BatchReport{Failed: make(map[string]string)}
	if len(ops) == 0 {
		return report, nil
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, op := range ops {
		wg.Add(1)
		go func(op BatchUpdateOp) {
			defer wg.Done()
			_, err := l.api.UpdateProduct(ctx, op.ID, op.Product)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed[op.ID] = err.Error()
				return
			}
			report.Succeeded = append(report.Succeeded, op.ID)
		}(op)
	}
	wg.Wait()

	if len(report.Succeeded) > 0 {
		l.invalidateAndRefetch(ctx)
	}
	return report, nil
}

func (l *List) beginMutation() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.mutating {
		return ErrMutationInFlight
	}
	l.mutating = true
	return nil
}

func (l *List) endMutation() {
	l.mu.Lock()
	l.mutating = false
	l.mu.Unlock()
}

// invalidateAndRefetch drops every cache entry, then refetches the active
// key. Invalidation strictly precedes the refetch so the new fetch can never
// read a stale entry or a pre-mutation flight as a shortcut. A refetch failure
// is logged, not returned: the mutation itself succeeded and the next View
// will retry.
func (l *List) invalidateAndRefetch(ctx context.Context) {
	l.invalidateAll()

	l.mu.Lock()
	f := l.filters
	l.mu.Unlock()

	if _, err := l.ensureFetched(ctx, f); err != nil {
		logger.WithComponent("session").Warnf("refetch after mutation failed for %s: %v", f.Key(), err)
	}
}
