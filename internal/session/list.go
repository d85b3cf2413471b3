package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ecomdash/backoffice/internal/cache"
	"github.com/ecomdash/backoffice/internal/catalog"
	"github.com/ecomdash/backoffice/internal/gateway"
	"github.com/ecomdash/backoffice/internal/logger"
	"github.com/ecomdash/backoffice/internal/query"
)

// ErrMutationInFlight is returned when a mutation is issued while another one
// is still running for this session.
var ErrMutationInFlight = errors.New("a mutation is already in flight")

// View is the derived, render-ready slice of the list: a pure function of the
// cached entry for the active key, the applied search term, the sort spec and
// the page state.
type View struct {
	Items      []catalog.Product `json:"items"`
	TotalPages int               `json:"totalPages"`
	TotalItems int               `json:"totalItems"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	Search     string            `json:"search"`
	Filters    query.Filters     `json:"-"`
	Category   string            `json:"category"`
	Status     string            `json:"status"`
	SortField  string            `json:"sortField"`
	SortDir    string            `json:"sortDir"`
	Selected   []string          `json:"selected"`
}

// fetchCall tracks one in-flight fetch so concurrent readers of the same key
// share a single remote request. epoch records the invalidation generation the
// fetch started under; a flight from an older generation carries pre-mutation
// data and must neither populate the cache nor satisfy readers that arrived
// after the invalidation.
type fetchCall struct {
	done  chan struct{}
	epoch uint64
	set   catalog.ResultSet
	err   error
}

// List is one admin user's product list session: it owns the filter/sort/
// search/page state, the selection set, and the composition of key builder,
// result cache, fetch gateway, refiner and paginator.
type List struct {
	mu sync.Mutex

	filters       query.Filters
	search        string // applied term; fed by the debouncer
	pendingSearch string
	page          int
	pageSize      int

	selection *Selection
	cache     cache.Store
	api       gateway.ProductAPI
	debounce  *debouncer

	inflight map[string]*fetchCall
	epoch    uint64
	mutating bool
}

// NewList creates a session with default filters and the given page size.
func NewList(store cache.Store, api gateway.ProductAPI, pageSize int, searchDebounce time.Duration) *List {
	if pageSize < 1 {
		pageSize = 10
	}
	return &List{
		filters:   query.DefaultFilters(),
		page:      1,
		pageSize:  pageSize,
		selection: NewSelection(),
		cache:     store,
		api:       api,
		debounce:  newDebouncer(searchDebounce),
		inflight:  make(map[string]*fetchCall),
	}
}

// SetFilters replaces the server-relevant filter tuple. A key change means a
// materially different result set, so the page index resets to 1.
func (l *List) SetFilters(f query.Filters) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f = f.Normalize()
	if f.Key() != l.filters.Key() {
		l.page = 1
	}
	l.filters = f
}

// Filters returns the active server-relevant tuple.
func (l *List) Filters() query.Filters {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filters
}

// SetSearch schedules the search term to be applied after the debounce
// interval. Rapid keystrokes collapse into the latest value only; the refiner
// never sees an intermediate term after a newer one was typed.
func (l *List) SetSearch(term string) {
	l.mu.Lock()
	l.pendingSearch = term
	l.mu.Unlock()

	l.debounce.Schedule(func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.search = l.pendingSearch
		l.page = 1
	})
}

// FlushSearch applies the pending search term immediately, bypassing any
// debounce still in flight.
func (l *List) FlushSearch() {
	l.debounce.Stop()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.search = l.pendingSearch
	l.page = 1
}

// SetSort reselects a sort column: the same field flips direction, a new
// field starts ascending. The sort is part of the cache key, so the page
// resets to 1.
func (l *List) SetSort(field query.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.filters.Sort = l.filters.Sort.Toggle(field)
	l.page = 1
}

// SetPage moves to the given 1-based page. Out-of-range pages are kept as
// requested and simply render empty; clamping is a UI affordance.
func (l *List) SetPage(n int) {
	if n < 1 {
		n = 1
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.page = n
}

// SetPageSize changes the page size and resets the page index to 1.
func (l *List) SetPageSize(n int) {
	if n < 1 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if n != l.pageSize {
		l.pageSize = n
		l.page = 1
	}
}

// Reset restores default filters, clears search and selection, and drops
// every cached entry.
func (l *List) Reset() {
	l.debounce.Stop()
	l.mu.Lock()
	l.filters = query.DefaultFilters()
	l.search = ""
	l.pendingSearch = ""
	l.page = 1
	l.selection.Clear()
	l.mu.Unlock()

	l.invalidateAll()
}

// View computes the current derived view, fetching from the remote on a cache
// miss. A failed fetch leaves any previous cache entry intact and returns the
// error for the UI to surface.
func (l *List) View(ctx context.Context) (View, error) {
	l.mu.Lock()
	f := l.filters
	term := l.search
	page, size := l.page, l.pageSize
	l.mu.Unlock()

	set, err := l.ensureFetched(ctx, f)
	if err != nil {
		return l.emptyView(f, term, page, size), err
	}

	refined := query.Refine(set.Products, term, f.Sort)
	items, totalPages := query.Paginate(refined, page, size)

	l.mu.Lock()
	selected := l.selection.IDs()
	l.mu.Unlock()

	return View{
		Items:      items,
		TotalPages: totalPages,
		TotalItems: len(refined),
		Page:       page,
		PageSize:   size,
		Search:     term,
		Filters:    f,
		Category:   f.Category,
		Status:     string(f.Status),
		SortField:  string(f.Sort.Field),
		SortDir:    string(f.Sort.Dir),
		Selected:   selected,
	}, nil
}

func (l *List) emptyView(f query.Filters, term string, page, size int) View {
	return View{
		Items:     []catalog.Product{},
		Page:      page,
		PageSize:  size,
		Search:    term,
		Filters:   f,
		Category:  f.Category,
		Status:    string(f.Status),
		SortField: string(f.Sort.Field),
		SortDir:   string(f.Sort.Dir),
		Selected:  []string{},
	}
}

// ensureFetched returns the cached result set for the tuple's key, issuing at
// most one remote fetch per key at a time. Concurrent callers for the same
// key wait on the in-flight fetch instead of issuing their own. A flight that
// started before an invalidation is stale: its result never reaches the cache,
// and callers arriving after the invalidation retry with a fresh fetch instead
// of joining it.
func (l *List) ensureFetched(ctx context.Context, f query.Filters) (catalog.ResultSet, error) {
	key := f.Key()

	for {
		l.mu.Lock()
		if set, ok := l.cache.Get(key); ok {
			l.mu.Unlock()
			return set, nil
		}
		if call, ok := l.inflight[key]; ok {
			stale := call.epoch != l.epoch
			l.mu.Unlock()
			if stale {
				select {
				case <-call.done:
					continue
				case <-ctx.Done():
					return catalog.ResultSet{}, ctx.Err()
				}
			}
			select {
			case <-call.done:
				return call.set, call.err
			case <-ctx.Done():
				return catalog.ResultSet{}, ctx.Err()
			}
		}
		call := &fetchCall{done: make(chan struct{}), epoch: l.epoch}
		l.inflight[key] = call
		l.mu.Unlock()

		set, err := l.api.ListProducts(ctx, f)

		// The freshness check and the Put share the critical section with
		// invalidateAll, so a stale result can never land after the wipe.
		l.mu.Lock()
		if l.inflight[key] == call {
			delete(l.inflight, key)
		}
		if err == nil && call.epoch == l.epoch {
			if putErr := l.cache.Put(key, set); putErr != nil {
				logger.WithComponent("session").Errorf("cache put failed for %s: %v", key, putErr)
			}
		}
		l.mu.Unlock()

		call.set, call.err = set, err
		close(call.done)
		return set, err
	}
}

// invalidateAll wipes the cache and advances the invalidation epoch in one
// critical section, orphaning every in-flight fetch.
func (l *List) invalidateAll() {
	l.mu.Lock()
	l.epoch++
	l.cache.InvalidateAll()
	l.mu.Unlock()
}

// ToggleSelect flips selection for the id and reports its new state.
func (l *List) ToggleSelect(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.selection.Toggle(id)
}

// SelectAll selects every entry of the currently refined view, not just the
// visible page and not the raw cache entry.
func (l *List) SelectAll(ctx context.Context) error {
	l.mu.Lock()
	f := l.filters
	term := l.search
	l.mu.Unlock()

	set, err := l.ensureFetched(ctx, f)
	if err != nil {
		return err
	}

	refined := query.Refine(set.Products, term, f.Sort)

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, p := range refined {
		l.selection.Add(p.ID)
	}
	return nil
}

// ClearSelection drops every selected id.
func (l *List) ClearSelection() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.selection.Clear()
}

// Selected returns the selected ids in stable order.
func (l *List) Selected() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.selection.IDs()
}

// Close releases timers owned by the session.
func (l *List) Close() {
	l.debounce.Stop()
}
