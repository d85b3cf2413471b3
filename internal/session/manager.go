package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/ecomdash/backoffice/internal/cache"
	"github.com/ecomdash/backoffice/internal/gateway"
	"github.com/ecomdash/backoffice/internal/logger"
)

// Manager owns the per-UI-session lists. Each session gets its own result
// cache, constructed on first use and torn down with the session on logout —
// caches are explicitly owned, never ambient globals.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*List

	api      gateway.ProductAPI
	cacheCfg cache.Config
	pageSize int
	debounce time.Duration
}

// NewManager creates a session manager.
func NewManager(api gateway.ProductAPI, cacheCfg cache.Config, pageSize int, searchDebounce time.Duration) (*Manager, error) {
	if api == nil {
		return nil, fmt.Errorf("product API is nil")
	}
	if err := cacheCfg.Validate(); err != nil {
		return nil, err
	}
	return &Manager{
		sessions: make(map[string]*List),
		api:      api,
		cacheCfg: cacheCfg,
		pageSize: pageSize,
		debounce: searchDebounce,
	}, nil
}

// Get returns the session for the id, if it exists.
func (m *Manager) Get(id string) (*List, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list, ok := m.sessions[id]
	return list, ok
}

// GetOrCreate returns the session for the id, creating it on first use.
func (m *Manager) GetOrCreate(id string) (*List, error) {
	if id == "" {
		return nil, fmt.Errorf("session id is required")
	}

	m.mu.RLock()
	list, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return list, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if list, ok := m.sessions[id]; ok {
		return list, nil
	}

	store, err := cache.NewResults(m.cacheCfg)
	if err != nil {
		return nil, err
	}
	list = NewList(store, m.api, m.pageSize, m.debounce)
	m.sessions[id] = list
	logger.WithComponent("session").Debugf("created session %s", id)
	return list, nil
}

// Drop tears down the session and its cache. Used on logout.
func (m *Manager) Drop(id string) {
	m.mu.Lock()
	list, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		list.Close()
		logger.WithComponent("session").Debugf("dropped session %s", id)
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
