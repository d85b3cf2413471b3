package cache

import (
	"fmt"
	"time"

	"github.com/viccon/sturdyc"

	"github.com/ecomdash/backoffice/internal/catalog"
)

// Config sizes the underlying sturdyc store.
type Config struct {
	// Capacity is the maximum number of cached result sets.
	Capacity int

	// NumShards determines the number of cache shards for concurrent access.
	NumShards int

	// TTL is how long a cached result set stays serveable before it is
	// considered expired and a refetch is forced on next access.
	TTL time.Duration

	// EvictionPercentage is the share of entries evicted when the cache
	// reaches capacity. Must be between 1 and 100.
	EvictionPercentage int
}

// DefaultConfig returns sizing suitable for a single back-office session pool.
func DefaultConfig() Config {
	return Config{
		Capacity:           10000,
		NumShards:          64,
		TTL:                5 * time.Minute,
		EvictionPercentage: 10,
	}
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("cache capacity must be greater than 0, got %d", c.Capacity)
	}
	if c.NumShards <= 0 {
		return fmt.Errorf("cache shards must be greater than 0, got %d", c.NumShards)
	}
	if c.TTL <= 0 {
		return fmt.Errorf("cache ttl must be greater than 0, got %v", c.TTL)
	}
	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return fmt.Errorf("cache eviction percentage must be between 1 and 100, got %d", c.EvictionPercentage)
	}
	return nil
}

// Results maps a filter key to the result set fetched for it. Lookups never
// trigger a fetch; composing lookup-then-fetch is the session's job, one
// layer up. Entries are replaced wholesale and removed on invalidation.
type Results struct {
	client *sturdyc.Client[catalog.ResultSet]
}

// NewResults creates a result cache with the provided sizing.
func NewResults(cfg Config) (*Results, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client := sturdyc.New[catalog.ResultSet](cfg.Capacity, cfg.NumShards, cfg.TTL, cfg.EvictionPercentage)
	return &Results{client: client}, nil
}

// Get returns the cached result set for the key, if present. The returned set
// is a deep copy so callers can never corrupt the cached entry.
func (r *Results) Get(key string) (catalog.ResultSet, bool) {
	set, ok := r.client.Get(key)
	if !ok {
		return catalog.ResultSet{}, false
	}
	cloned, err := set.Clone()
	if err != nil {
		return catalog.ResultSet{}, false
	}
	return cloned, true
}

// Put stores the result set for the key, replacing any previous entry
// wholesale. Concurrent puts for the same key are last-write-wins.
func (r *Results) Put(key string, set catalog.ResultSet) error {
	cloned, err := set.Clone()
	if err != nil {
		return fmt.Errorf("clone result set: %w", err)
	}
	r.client.Set(key, cloned)
	return nil
}

// Invalidate removes the entry for the key; the next Get misses, forcing the
// caller to refetch.
func (r *Results) Invalidate(key string) {
	r.client.Delete(key)
}

// InvalidateAll removes every cached entry. Used after mutations (which can
// affect totals for any filter combination) and on global filter reset.
func (r *Results) InvalidateAll() {
	for _, key := range r.client.ScanKeys() {
		r.client.Delete(key)
	}
}

// Size returns the number of cached entries.
func (r *Results) Size() int {
	return len(r.client.ScanKeys())
}
