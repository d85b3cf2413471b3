package cache

import "github.com/ecomdash/backoffice/internal/catalog"

// Reader is the minimal cache API for read paths.
type Reader interface {
	Get(key string) (catalog.ResultSet, bool)
}

// Store is the cache contract the session layer depends on.
type Store interface {
	Reader
	Put(key string, set catalog.ResultSet) error
	Invalidate(key string)
	InvalidateAll()
}
