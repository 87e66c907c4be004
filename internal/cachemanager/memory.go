package cachemanager

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/detax-ai/detax/internal/log"
)

const (
	DefaultExpiration      = 10 * time.Minute
	DefaultCleanupInterval = 30 * time.Minute
)

// Memory is a Cache backed by go-cache. Name tags its log lines.
type Memory[K ~string, V any] struct {
	name  string
	cache *gocache.Cache
}

// NewMemory creates an in-memory cache.
func NewMemory[K ~string, V any](name string, defaultExpiration, cleanupInterval time.Duration) *Memory[K, V] {
	return &Memory[K, V]{
		name:  name,
		cache: gocache.New(defaultExpiration, cleanupInterval),
	}
}

// Get returns the value stored under key.
func (m *Memory[K, V]) Get(key K) (V, bool) {
	var zero V

	raw, found := m.cache.Get(string(key))
	if !found {
		return zero, false
	}
	v, ok := raw.(V)
	if !ok {
		log.Error(log.CatCache, "Cached value has wrong type", "cache", m.name, "key", string(key))
		return zero, false
	}
	return v, true
}

// Set stores value under key. A zero ttl uses the default expiration.
func (m *Memory[K, V]) Set(key K, value V, ttl time.Duration) {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	m.cache.Set(string(key), value, ttl)
}

// Delete removes keys.
func (m *Memory[K, V]) Delete(keys ...K) {
	for _, k := range keys {
		m.cache.Delete(string(k))
	}
}

// Flush removes every entry.
func (m *Memory[K, V]) Flush() {
	m.cache.Flush()
	log.Debug(log.CatCache, "Cache flushed", "cache", m.name)
}

// Len counts stored entries, including expired ones not yet cleaned up.
func (m *Memory[K, V]) Len() int {
	return m.cache.ItemCount()
}
