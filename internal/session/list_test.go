package session

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/ecomdash/backoffice/internal/cache"
	"github.com/ecomdash/backoffice/internal/catalog"
	"github.com/ecomdash/backoffice/internal/gateway"
	"github.com/ecomdash/backoffice/internal/query"
)

// fakeAPI is an in-memory stand-in for the remote commerce API with
// countable fetches.
type fakeAPI struct {
	mu        sync.Mutex
	products  []catalog.Product
	listCalls int
	listErr   error
	mutErr    error
	block     chan struct{} // when set, ListProducts waits on it
}

func (f *fakeAPI) ListProducts(ctx context.Context, q query.Filters) (catalog.ResultSet, error) {
	f.mu.Lock()
	f.listCalls++
	block := f.block
	err := f.listErr
	out := make([]catalog.Product, len(f.products))
	copy(out, f.products)
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if err != nil {
		return catalog.ResultSet{}, err
	}
	return catalog.ResultSet{Products: out, Meta: catalog.ListMeta{Total: len(out)}}, nil
}

func (f *fakeAPI) CreateProduct(ctx context.Context, p catalog.Product) (*catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutErr != nil {
		return nil, f.mutErr
	}
	f.products = append(f.products, p)
	return &p, nil
}

func (f *fakeAPI) UpdateProduct(ctx context.Context, id string, p catalog.Product) (*catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutErr != nil {
		return nil, f.mutErr
	}
	for i := range f.products {
		if f.products[i].ID == id {
			p.ID = id
			f.products[i] = p
			return &p, nil
		}
	}
	return nil, &gateway.MutationError{Status: 404, Message: "no such product"}
}

func (f *fakeAPI) DeleteProduct(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutErr != nil {
		return f.mutErr
	}
	f.removeLocked(id)
	return nil
}

func (f *fakeAPI) BulkProducts(ctx context.Context, bulk catalog.BulkRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutErr != nil {
		return f.mutErr
	}
	for _, id := range bulk.ProductIDs {
		switch bulk.Operation {
		case catalog.BulkDelete:
			f.removeLocked(id)
		}
	}
	return nil
}

func (f *fakeAPI) removeLocked(id string) {
	for i := range f.products {
		if f.products[i].ID == id {
			f.products = append(f.products[:i], f.products[i+1:]...)
			return
		}
	}
}

func (f *fakeAPI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

func testProducts(n int) []catalog.Product {
	out := make([]catalog.Product, n)
	for i := range out {
		out[i] = catalog.Product{
			ID:        fmt.Sprintf("p%d", i+1),
			Name:      fmt.Sprintf("product %d", i+1),
			CreatedAt: int64(i + 1),
		}
	}
	return out
}

func newTestList(t *testing.T, api gateway.ProductAPI, debounce time.Duration) *List {
	t.Helper()
	store, err := cache.NewResults(cache.Config{Capacity: 100, NumShards: 2, TTL: time.Minute, EvictionPercentage: 10})
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	return NewList(store, api, 10, debounce)
}

func TestView_CacheHitAvoidsRefetch(t *testing.T) {
	api := &fakeAPI{products: testProducts(3)}
	l := newTestList(t, api, 0)

	if _, err := l.View(context.Background()); err != nil {
		t.Fatalf("first view failed: %v", err)
	}
	if _, err := l.View(context.Background()); err != nil {
		t.Fatalf("second view failed: %v", err)
	}

	if api.calls() != 1 {
		t.Errorf("expected exactly one fetch for a repeated key, got %d", api.calls())
	}
}

func TestView_KeyChangeFetchesAndResetsPage(t *testing.T) {
	api := &fakeAPI{products: testProducts(30)}
	l := newTestList(t, api, 0)

	l.SetPage(3)
	if _, err := l.View(context.Background()); err != nil {
		t.Fatalf("view failed: %v", err)
	}

	l.SetFilters(query.Filters{Category: "shoes", Status: query.StatusActive, Sort: query.DefaultSort()})
	v, err := l.View(context.Background())
	if err != nil {
		t.Fatalf("view after filter change failed: %v", err)
	}

	if v.Page != 1 {
		t.Errorf("expected page reset to 1 on key change, got %d", v.Page)
	}
	if api.calls() != 2 {
		t.Errorf("expected a fetch per distinct key, got %d", api.calls())
	}
}

func TestView_SameFiltersKeepPage(t *testing.T) {
	api := &fakeAPI{products: testProducts(30)}
	l := newTestList(t, api, 0)

	l.SetPage(2)
	l.SetFilters(query.DefaultFilters()) // same key as the initial state
	v, err := l.View(context.Background())
	if err != nil {
		t.Fatalf("view failed: %v", err)
	}
	if v.Page != 2 {
		t.Errorf("same key should not reset the page, got %d", v.Page)
	}
}

func TestScenario_PriceAscWithPagination(t *testing.T) {
	api := &fakeAPI{products: []catalog.Product{
		{ID: "a", Name: "A", Price: 30},
		{ID: "b", Name: "B", Price: 10},
		{ID: "c", Name: "C", Price: 20},
	}}
	l := newTestList(t, api, 0)

	l.SetFilters(query.Filters{
		Category: query.CategoryAll,
		Status:   query.StatusActive,
		Sort:     query.SortSpec{Field: query.FieldPrice, Dir: query.Asc},
	})
	l.SetPageSize(2)

	v, err := l.View(context.Background())
	if err != nil {
		t.Fatalf("view failed: %v", err)
	}

	prices := []float64{v.Items[0].Price, v.Items[1].Price}
	if !reflect.DeepEqual(prices, []float64{10, 20}) {
		t.Errorf("expected page 1 to be [10 20], got %v", prices)
	}
	if v.TotalPages != 2 || v.TotalItems != 3 {
		t.Errorf("expected 2 pages over 3 items, got %d pages over %d items", v.TotalPages, v.TotalItems)
	}

	l.SetPage(2)
	v, _ = l.View(context.Background())
	if len(v.Items) != 1 || v.Items[0].Price != 30 {
		t.Errorf("expected page 2 to be [30], got %v", v.Items)
	}
}

func TestSearch_DebounceLastValueWins(t *testing.T) {
	api := &fakeAPI{products: []catalog.Product{
		{ID: "1", Name: "Runner", Brand: "Nike"},
		{ID: "2", Name: "Sandal", Brand: "Adidas"},
	}}
	l := newTestList(t, api, 30*time.Millisecond)

	l.SetSearch("adi")
	l.SetSearch("adid")
	l.SetSearch("nike")

	time.Sleep(100 * time.Millisecond)

	v, err := l.View(context.Background())
	if err != nil {
		t.Fatalf("view failed: %v", err)
	}
	if v.Search != "nike" {
		t.Errorf("expected only the latest term to apply, got %q", v.Search)
	}
	if v.TotalItems != 1 || v.Items[0].ID != "1" {
		t.Errorf("expected the nike product only, got %v", v.Items)
	}
}

func TestSearch_ZeroDebounceAppliesImmediately(t *testing.T) {
	api := &fakeAPI{products: []catalog.Product{
		{ID: "1", Name: "Runner", Brand: "Nike"},
		{ID: "2", Name: "Sandal", Brand: "Adidas"},
	}}
	l := newTestList(t, api, 0)

	l.SetSearch("adidas")
	v, err := l.View(context.Background())
	if err != nil {
		t.Fatalf("view failed: %v", err)
	}
	if v.TotalItems != 1 || v.Items[0].ID != "2" {
		t.Errorf("expected immediate search application, got %v", v.Items)
	}
}

func TestMutation_InvalidatesEveryKey(t *testing.T) {
	api := &fakeAPI{products: testProducts(5)}
	l := newTestList(t, api, 0)

	// Populate two distinct keys.
	if _, err := l.View(context.Background()); err != nil {
		t.Fatal(err)
	}
	l.SetFilters(query.Filters{Category: "shoes", Status: query.StatusAll, Sort: query.DefaultSort()})
	if _, err := l.View(context.Background()); err != nil {
		t.Fatal(err)
	}
	if api.calls() != 2 {
		t.Fatalf("expected 2 fetches to seed both keys, got %d", api.calls())
	}

	if err := l.Delete(context.Background(), "p1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	// Delete refetches the active key eagerly.
	if api.calls() != 3 {
		t.Errorf("expected an eager refetch of the active key, got %d fetches", api.calls())
	}

	// The other, unrelated key must also have been invalidated.
	l.SetFilters(query.DefaultFilters())
	if _, err := l.View(context.Background()); err != nil {
		t.Fatal(err)
	}
	if api.calls() != 4 {
		t.Errorf("expected previously cached key to refetch after mutation, got %d fetches", api.calls())
	}
}

func TestMutationFailure_LeavesCacheAndSelectionIntact(t *testing.T) {
	api := &fakeAPI{products: testProducts(3)}
	l := newTestList(t, api, 0)

	if _, err := l.View(context.Background()); err != nil {
		t.Fatal(err)
	}
	l.ToggleSelect("p1")
	l.ToggleSelect("p2")

	api.mu.Lock()
	api.mutErr = &gateway.MutationError{Status: 500, Message: "boom"}
	api.mu.Unlock()

	if err := l.Delete(context.Background(), "p1"); err == nil {
		t.Fatal("expected delete to fail")
	}

	if _, err := l.View(context.Background()); err != nil {
		t.Fatal(err)
	}
	if api.calls() != 1 {
		t.Errorf("failed mutation must not invalidate the cache, got %d fetches", api.calls())
	}
	if got := l.Selected(); len(got) != 2 {
		t.Errorf("failed mutation must keep the selection, got %v", got)
	}
}

func TestBulkDelete_ClearsSelectionAndShrinksView(t *testing.T) {
	api := &fakeAPI{products: testProducts(5)}
	l := newTestList(t, api, 0)

	if _, err := l.View(context.Background()); err != nil {
		t.Fatal(err)
	}
	l.ToggleSelect("p2")
	l.ToggleSelect("p4")

	if err := l.Bulk(context.Background(), catalog.BulkDelete, nil); err != nil {
		t.Fatalf("bulk delete failed: %v", err)
	}

	if got := l.Selected(); len(got) != 0 {
		t.Errorf("selection should be empty after a successful bulk mutation, got %v", got)
	}

	v, err := l.View(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if v.TotalItems != 3 {
		t.Errorf("expected 3 items after bulk delete of 2, got %d", v.TotalItems)
	}
}

func TestBulk_NoSelection(t *testing.T) {
	api := &fakeAPI{products: testProducts(3)}
	l := newTestList(t, api, 0)

	if err := l.Bulk(context.Background(), catalog.BulkDelete, nil); err == nil {
		t.Error("expected bulk with empty selection to fail")
	}
}

func TestMutation_InFlightGuard(t *testing.T) {
	api := &fakeAPI{products: testProducts(3)}
	l := newTestList(t, api, 0)

	// Hold the refetch inside the first mutation to keep it in flight.
	release := make(chan struct{})
	api.mu.Lock()
	api.block = release
	api.mu.Unlock()

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- l.Delete(context.Background(), "p1")
	}()

	// Wait until the first mutation reaches its refetch.
	deadline := time.After(2 * time.Second)
	for api.calls() == 0 {
		select {
		case <-deadline:
			t.Fatal("first mutation never started its refetch")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if err := l.Delete(context.Background(), "p2"); err != ErrMutationInFlight {
		t.Errorf("expected ErrMutationInFlight, got %v", err)
	}

	close(release)
	if err := <-firstDone; err != nil {
		t.Errorf("first delete failed: %v", err)
	}
}

func TestSelectAll_UsesRefinedView(t *testing.T) {
	api := &fakeAPI{products: []catalog.Product{
		{ID: "1", Name: "Runner", Brand: "Nike"},
		{ID: "2", Name: "Sandal", Brand: "Adidas"},
		{ID: "3", Name: "Court", Brand: "NIKE Air"},
	}}
	l := newTestList(t, api, 0)

	l.SetSearch("nike")
	if err := l.SelectAll(context.Background()); err != nil {
		t.Fatalf("select all failed: %v", err)
	}

	want := []string{"1", "3"}
	if got := l.Selected(); !reflect.DeepEqual(got, want) {
		t.Errorf("select all should cover the refined view only, got %v", got)
	}
}

func TestSelectAll_CoversAllPages(t *testing.T) {
	api := &fakeAPI{products: testProducts(25)}
	l := newTestList(t, api, 0)
	l.SetPageSize(10)

	if err := l.SelectAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := l.Selected(); len(got) != 25 {
		t.Errorf("select all should not be limited to the visible page, got %d ids", len(got))
	}
}

func TestSetPageSize_ResetsPage(t *testing.T) {
	api := &fakeAPI{products: testProducts(30)}
	l := newTestList(t, api, 0)

	l.SetPage(3)
	l.SetPageSize(5)

	v, err := l.View(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if v.Page != 1 {
		t.Errorf("page size change must reset page to 1, got %d", v.Page)
	}
	if v.PageSize != 5 {
		t.Errorf("expected page size 5, got %d", v.PageSize)
	}
}

func TestReset_ClearsStateAndCache(t *testing.T) {
	api := &fakeAPI{products: testProducts(5)}
	l := newTestList(t, api, 0)

	l.SetFilters(query.Filters{Category: "shoes", Status: query.StatusActive, Sort: query.DefaultSort()})
	l.SetSearch("run")
	l.ToggleSelect("p1")
	if _, err := l.View(context.Background()); err != nil {
		t.Fatal(err)
	}

	l.Reset()

	v, err := l.View(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if v.Search != "" || v.Category != query.CategoryAll || len(v.Selected) != 0 || v.Page != 1 {
		t.Errorf("reset did not restore defaults: %+v", v)
	}
	if api.calls() != 2 {
		t.Errorf("reset should invalidate the cache and force a refetch, got %d fetches", api.calls())
	}
}

func TestView_FetchFailureLeavesStaleEntryServeable(t *testing.T) {
	api := &fakeAPI{products: testProducts(3)}
	l := newTestList(t, api, 0)

	if _, err := l.View(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Break the remote; the cached entry must keep serving.
	api.mu.Lock()
	api.listErr = &gateway.FetchError{Status: 502, Message: "upstream down"}
	api.mu.Unlock()

	v, err := l.View(context.Background())
	if err != nil {
		t.Fatalf("cached key should not hit the broken remote: %v", err)
	}
	if v.TotalItems != 3 {
		t.Errorf("expected stale entry to serve 3 items, got %d", v.TotalItems)
	}
}

func waitForCalls(t *testing.T, api *fakeAPI, n int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for api.calls() < n {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %d fetches, got %d", n, api.calls())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestMutation_RefetchIgnoresPreMutationFlight(t *testing.T) {
	api := &fakeAPI{products: testProducts(3)}
	release := make(chan struct{})
	api.block = release
	l := newTestList(t, api, 0)

	// A view fetch is in flight when the delete lands.
	viewDone := make(chan struct{})
	go func() {
		_, _ = l.View(context.Background())
		close(viewDone)
	}()
	waitForCalls(t, api, 1)

	// Only the first flight is held; the refetch must run unhindered.
	api.mu.Lock()
	api.block = nil
	api.mu.Unlock()

	delDone := make(chan error, 1)
	go func() { delDone <- l.Delete(context.Background(), "p1") }()

	// Let the delete reach its refetch, then let the old flight complete
	// with its pre-delete snapshot.
	time.Sleep(30 * time.Millisecond)
	close(release)

	if err := <-delDone; err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	<-viewDone

	v, err := l.View(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if v.TotalItems != 2 {
		t.Errorf("expected 2 items after delete, got %d", v.TotalItems)
	}
	for _, p := range v.Items {
		if p.ID == "p1" {
			t.Error("deleted product still served from cache")
		}
	}
	if api.calls() != 2 {
		t.Errorf("expected the refetch to issue its own request instead of joining the old flight, got %d fetches", api.calls())
	}
}

func TestReset_DropsPreResetFlight(t *testing.T) {
	api := &fakeAPI{products: testProducts(3)}
	release := make(chan struct{})
	api.block = release
	l := newTestList(t, api, 0)

	viewDone := make(chan struct{})
	go func() {
		_, _ = l.View(context.Background())
		close(viewDone)
	}()
	waitForCalls(t, api, 1)

	api.mu.Lock()
	api.block = nil
	api.mu.Unlock()

	l.Reset()
	close(release)
	<-viewDone

	// The pre-reset flight must not have populated the cache.
	if _, err := l.View(context.Background()); err != nil {
		t.Fatal(err)
	}
	if api.calls() != 2 {
		t.Errorf("expected a fresh fetch after reset, got %d", api.calls())
	}
}

func TestView_SingleFlightPerKey(t *testing.T) {
	api := &fakeAPI{products: testProducts(3)}
	release := make(chan struct{})
	api.block = release

	l := newTestList(t, api, 0)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = l.View(context.Background())
		}()
	}

	// Give the goroutines time to pile up on the same key.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if api.calls() != 1 {
		t.Errorf("concurrent views of one key should share a single fetch, got %d", api.calls())
	}
}

func TestBatchUpdate_ReportsPartialFailure(t *testing.T) {
	api := &fakeAPI{products: testProducts(3)}
	l := newTestList(t, api, 0)

	report, err := l.BatchUpdate(context.Background(), []BatchUpdateOp{
		{ID: "p1", Product: catalog.Product{Name: "renamed 1"}},
		{ID: "missing", Product: catalog.Product{Name: "ghost"}},
		{ID: "p3", Product: catalog.Product{Name: "renamed 3"}},
	})
	if err != nil {
		t.Fatalf("batch update failed outright: %v", err)
	}

	if len(report.Succeeded) != 2 {
		t.Errorf("expected 2 successes, got %v", report.Succeeded)
	}
	if _, ok := report.Failed["missing"]; !ok {
		t.Errorf("expected per-item failure for 'missing', got %v", report.Failed)
	}
	if report.OK() {
		t.Error("report with failures must not be OK")
	}
}
