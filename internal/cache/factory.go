// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"log/slog"
	"net/url"
	"time"
)

// Backend names.
const (
	TypeMemory = "memory"
	TypeRedis  = "redis"
)

// Config describes which backend to build.
type Config struct {
	RedisURL        string
	Prefix          string
	DefaultTTL      time.Duration
	MaxSize         int
	CleanupInterval time.Duration
}

// Type returns the backend the configuration selects.
func (c Config) Type() string {
	if c.RedisURL != "" {
		return TypeRedis
	}
	return TypeMemory
}

// NewCache builds the configured backend. When Redis is configured but
// unreachable, it logs a warning and falls back to an in-memory cache.
func NewCache(ctx context.Context, cfg Config, logger *slog.Logger) Cacher {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Type() == TypeRedis {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		rc, err := NewRedisCacheFromURL(pingCtx, cfg.RedisURL, cfg.Prefix, cfg.DefaultTTL)
		if err == nil {
			logger.Info("translation cache using redis", "url", SanitizeRedisURL(cfg.RedisURL))
			return rc
		}
		logger.Warn("redis unavailable, falling back to memory cache",
			"url", SanitizeRedisURL(cfg.RedisURL), "error", err)
	}

	cleanup := cfg.CleanupInterval
	if cleanup == 0 {
		cleanup = 10 * time.Minute
	}
	logger.Info("translation cache using memory", "max_size", cfg.MaxSize)
	return NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      cfg.DefaultTTL,
		MaxSize:         cfg.MaxSize,
		CleanupInterval: cleanup,
	})
}

// SanitizeRedisURL masks the password of a Redis URL for logging.
func SanitizeRedisURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "[invalid url]"
	}
	if u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "xxxxx")
		}
	}
	return u.String()
}

// Backend reports the backend name of c.
func Backend(c Cacher) string {
	if _, ok := c.(*RedisCache); ok {
		return TypeRedis
	}
	return TypeMemory
}
