// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cache provides the byte-level cache backends (memory, Redis) used
// to memoise machine translations.
package cache

import (
	"context"
	"time"
)

// Cacher is a byte cache shared by concurrent translation calls.
type Cacher interface {
	// Get returns ErrCacheMiss for absent or expired keys.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value for ttl; a zero ttl means the backend default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Ping reports whether the backend can serve requests.
	Ping(ctx context.Context) error

	Stats() Stats
	Close() error
}

// Stats counts cache traffic since the backend was created.
type Stats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Sets    int64   `json:"sets"`
	Items   int     `json:"items"`
	HitRate float64 `json:"hit_rate"`
}

// Error is a sentinel cache error.
type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrCacheMiss   Error = "cache miss"
	ErrCacheClosed Error = "cache closed"
)

// counters is embedded by backends to track Stats.
type counters struct {
	hits, misses, sets int64
}

func (c counters) stats(items int) Stats {
	s := Stats{Hits: c.hits, Misses: c.misses, Sets: c.sets, Items: items}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total) * 100
	}
	return s
}
