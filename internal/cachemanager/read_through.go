package cachemanager

import (
	"context"
	"time"
)

// ReadThrough fills a Cache from a loader on miss. Failed loads are not
// cached.
type ReadThrough[K ~string, V any, I any] struct {
	cache  Cache[K, V]
	load   func(ctx context.Context, input I) (V, error)
	ttl    time.Duration
	bypass bool
}

// NewReadThrough wraps cache. When bypass is set every Get calls load.
func NewReadThrough[K ~string, V any, I any](
	cache Cache[K, V],
	load func(ctx context.Context, input I) (V, error),
	ttl time.Duration,
	bypass bool,
) *ReadThrough[K, V, I] {
	return &ReadThrough[K, V, I]{cache: cache, load: load, ttl: ttl, bypass: bypass}
}

// Get returns the cached value for key or loads it from input.
func (r *ReadThrough[K, V, I]) Get(ctx context.Context, key K, input I) (V, error) {
	if r.bypass {
		return r.load(ctx, input)
	}
	if v, ok := r.cache.Get(key); ok {
		return v, nil
	}

	v, err := r.load(ctx, input)
	if err != nil {
		return v, err
	}
	r.cache.Set(key, v, r.ttl)
	return v, nil
}

// Invalidate drops every cached value, e.g. after a theme change.
func (r *ReadThrough[K, V, I]) Invalidate() {
	r.cache.Flush()
}
