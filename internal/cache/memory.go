package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"qrisk/internal/model"
)

// cleanupInterval is how often expired entries are swept.
const cleanupInterval = 10 * time.Minute

// Memory is an in-process TTL cache. Entries expire; they are never
// written anywhere.
type Memory struct {
	store *gocache.Cache
}

// NewMemory creates a memory cache with the given default TTL.
func NewMemory(defaultTTL time.Duration) *Memory {
	return &Memory{store: gocache.New(defaultTTL, cleanupInterval)}
}

// Get returns the cached assessment for key, if present and fresh.
func (m *Memory) Get(key string) (*model.RiskAssessment, bool) {
	v, ok := m.store.Get(key)
	if !ok {
		return nil, false
	}
	a, ok := v.(*model.RiskAssessment)
	return a, ok
}

// Set stores an assessment. A zero ttl uses the cache default.
func (m *Memory) Set(key string, a *model.RiskAssessment, ttl time.Duration) {
	m.store.Set(key, a, ttl)
}

// Delete drops one entry.
func (m *Memory) Delete(key string) {
	m.store.Delete(key)
}

// Clear drops every entry.
func (m *Memory) Clear() {
	m.store.Flush()
}
