// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/lapublica/contenidos/internal/util"
)

// Translation engines.
const (
	EngineDeepL  = "deepl"
	EngineOpenAI = "openai"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"LP_DB_PATH" envDefault:"./data/lapublica.db"`
	ServerHost string `env:"LP_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"LP_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"LP_ENV" envDefault:"development"`
	LogLevel   string `env:"LP_LOG_LEVEL" envDefault:"info"`

	// Community resolution
	DefaultLanguage string `env:"LP_DEFAULT_LANGUAGE" envDefault:"es"`
	DomainTemplate  string `env:"LP_DOMAIN_TEMPLATE" envDefault:"{community}.lapublica.es"`

	// Translation configuration
	TranslationEngine      string        `env:"LP_TRANSLATION_ENGINE" envDefault:"deepl"`
	DeepLAuthKey           string        `env:"LP_DEEPL_AUTH_KEY"`
	DeepLURL               string        `env:"LP_DEEPL_URL" envDefault:"https://api-free.deepl.com/v2/translate"`
	OpenAIAPIKey           string        `env:"LP_OPENAI_API_KEY"`
	OpenAIModel            string        `env:"LP_OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	OpenAIBaseURL          string        `env:"LP_OPENAI_BASE_URL"`
	TranslationTimeout     time.Duration `env:"LP_TRANSLATION_TIMEOUT" envDefault:"30s"`
	TranslationConcurrency int           `env:"LP_TRANSLATION_CONCURRENCY" envDefault:"4"`

	// Cache configuration
	RedisURL     string `env:"LP_REDIS_URL"`                            // Optional Redis URL for a shared translation cache
	CachePrefix  string `env:"LP_CACHE_PREFIX" envDefault:"lapublica:"` // Redis key prefix
	CacheTTL     int    `env:"LP_CACHE_TTL" envDefault:"86400"`         // Translation cache TTL in seconds
	CacheMaxSize int    `env:"LP_CACHE_MAX_SIZE" envDefault:"10000"`    // Max memory cache entries

	// API protection
	APIRateLimit float64 `env:"LP_API_RATE_LIMIT" envDefault:"10"` // Requests per second per key
	APIRateBurst int     `env:"LP_API_RATE_BURST" envDefault:"20"`

	// Event log retention; 0 disables the cleanup job
	EventRetentionDays int `env:"LP_EVENT_RETENTION_DAYS" envDefault:"90"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// CacheTTLDuration returns the translation cache TTL.
func (c Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// EventRetention returns how long events are kept, or 0 when cleanup is disabled.
func (c Config) EventRetention() time.Duration {
	return time.Duration(c.EventRetentionDays) * 24 * time.Hour
}

// TranslationConfigured reports whether the selected engine has a credential.
// Without one every translation falls back to the tagged passthrough.
func (c Config) TranslationConfigured() bool {
	switch c.TranslationEngine {
	case EngineOpenAI:
		return c.OpenAIAPIKey != ""
	default:
		return c.DeepLAuthKey != ""
	}
}

// SlogLevel maps LogLevel to a slog level.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate checks value ranges that the env tags cannot express.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.DBPath, validation.Required),
		validation.Field(&c.ServerPort, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "warning", "error")),
		validation.Field(&c.DefaultLanguage, validation.Required,
			validation.By(func(value any) error {
				if !util.IsValidLangCode(value.(string)) {
					return validation.NewError("validation_lang_code", "must be a two-letter lowercase language code")
				}
				return nil
			})),
		validation.Field(&c.DomainTemplate, validation.Required,
			validation.By(func(value any) error {
				if !strings.Contains(value.(string), "{community}") {
					return validation.NewError("validation_domain_template", "must contain {community}")
				}
				return nil
			})),
		validation.Field(&c.TranslationEngine, validation.Required, validation.In(EngineDeepL, EngineOpenAI)),
		validation.Field(&c.TranslationTimeout, validation.Min(time.Second)),
		validation.Field(&c.TranslationConcurrency, validation.Required, validation.Min(1), validation.Max(32)),
		validation.Field(&c.CacheTTL, validation.Min(0)),
		validation.Field(&c.CacheMaxSize, validation.Min(0)),
		validation.Field(&c.APIRateLimit, validation.Min(0.0)),
		validation.Field(&c.APIRateBurst, validation.Min(0)),
		validation.Field(&c.EventRetentionDays, validation.Min(0)),
	)
}

// Load parses environment variables and returns a validated Config struct.
func Load() (*Config, error) {
	return load(nil)
}

// load parses environ, or the process environment when environ is nil.
func load(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.TranslationEngine = strings.ToLower(strings.TrimSpace(cfg.TranslationEngine))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if !cfg.TranslationConfigured() {
		slog.Warn("no credential for translation engine; translations will use the tagged fallback",
			"engine", cfg.TranslationEngine)
	}

	return cfg, nil
}
