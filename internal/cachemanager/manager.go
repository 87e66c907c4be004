// Package cachemanager provides small keyed caches with per-entry expiry.
package cachemanager

import "time"

// Cache is a keyed store with per-entry expiry.
type Cache[K ~string, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V, ttl time.Duration)
	Delete(keys ...K)
	Flush()
	Len() int
}
