package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// TypedCache stores JSON-encoded values of type T on top of a Cacher.
type TypedCache[T any] struct {
	backend Cacher
	prefix  string
	ttl     time.Duration
}

// NewTypedCache creates a typed view over backend. Keys are namespaced by prefix.
func NewTypedCache[T any](backend Cacher, prefix string, ttl time.Duration) *TypedCache[T] {
	return &TypedCache[T]{backend: backend, prefix: prefix, ttl: ttl}
}

// Get returns the cached value for key. The boolean is false on a miss.
func (c *TypedCache[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T
	data, err := c.backend.Get(ctx, c.prefix+key)
	if errors.Is(err, ErrCacheMiss) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		// Undecodable entries read as misses; the next Set overwrites them.
		return zero, false, nil
	}
	return v, true, nil
}

// Set stores value under key.
func (c *TypedCache[T]) Set(ctx context.Context, key string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding cache value: %w", err)
	}
	return c.backend.Set(ctx, c.prefix+key, data, c.ttl)
}
