// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/lapublica/contenidos/internal/cache"
	"github.com/lapublica/contenidos/internal/community"
	"github.com/lapublica/contenidos/internal/config"
	"github.com/lapublica/contenidos/internal/handler"
	"github.com/lapublica/contenidos/internal/handler/api"
	"github.com/lapublica/contenidos/internal/logging"
	"github.com/lapublica/contenidos/internal/middleware"
	"github.com/lapublica/contenidos/internal/scheduler"
	"github.com/lapublica/contenidos/internal/service"
	"github.com/lapublica/contenidos/internal/store"
	"github.com/lapublica/contenidos/internal/translate"
	"github.com/lapublica/contenidos/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

// Per-IP limits are looser than per-key limits; they only slow down key guessing.
const ipRateMultiplier = 5

// keyRequest describes an API key to issue from the command line.
type keyRequest struct {
	name        string
	authorID    string
	authorEmail string
	permissions string
	expiresIn   time.Duration
}

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	var kr keyRequest
	flag.StringVar(&kr.name, "create-api-key", "", "Create an API key with this name, print it and exit")
	flag.StringVar(&kr.authorID, "author-id", "", "Author id bound to the new API key")
	flag.StringVar(&kr.authorEmail, "author-email", "", "Author email bound to the new API key")
	flag.StringVar(&kr.permissions, "permissions", "", "Comma-separated permissions (default: all)")
	flag.DurationVar(&kr.expiresIn, "expires-in", 0, "Lifetime of the new API key (default: no expiry)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "La Pública - multilingual content publishing service\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  LP_DB_PATH              SQLite database path (default: ./data/lapublica.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  LP_SERVER_PORT          Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  LP_ENV                  Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  LP_TRANSLATION_ENGINE   Translation engine: deepl|openai (default: deepl)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  LP_DEEPL_AUTH_KEY       DeepL API key\n")
		_, _ = fmt.Fprintf(os.Stderr, "  LP_OPENAI_API_KEY       OpenAI API key\n")
		_, _ = fmt.Fprintf(os.Stderr, "  LP_REDIS_URL            Redis URL for a shared translation cache (optional)\n")
	}

	flag.Parse()

	// Handle -h/-help flag
	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	versionInfo := &version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	// Handle -v/-version flag
	if *showVersion {
		_, _ = fmt.Println(versionInfo.String())
		os.Exit(0)
	}

	if err := run(versionInfo, kr); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(versionInfo *version.Info, kr keyRequest) error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := cfg.SlogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	apiKeys := service.NewAPIKeyService(db)
	if kr.name != "" {
		return createAPIKey(apiKeys, kr)
	}

	// Upgrade logger to also write WARN and ERROR logs to the event log
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	ctx := context.Background()

	translationCache := cache.NewCache(ctx, cache.Config{
		RedisURL:        cfg.RedisURL,
		Prefix:          cfg.CachePrefix,
		DefaultTTL:      cfg.CacheTTLDuration(),
		MaxSize:         cfg.CacheMaxSize,
		CleanupInterval: 10 * time.Minute,
	}, logger)
	defer func() { _ = translationCache.Close() }()

	provider, err := translate.NewProvider(translate.ProviderConfig{
		Engine: cfg.TranslationEngine,
		DeepL: translate.DeepLConfig{
			AuthKey: cfg.DeepLAuthKey,
			URL:     cfg.DeepLURL,
			Timeout: cfg.TranslationTimeout,
		},
		OpenAI: translate.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
			Timeout: cfg.TranslationTimeout,
		},
	})
	if err != nil {
		return fmt.Errorf("creating translation provider: %w", err)
	}
	gateway := translate.NewGateway(translate.Config{
		Provider: provider,
		Cache:    translationCache,
		CacheTTL: cfg.CacheTTLDuration(),
		Logger:   logger,
	})
	slog.Info("translation gateway ready", "engine", gateway.Engine())

	registry := community.NewRegistry(community.Config{
		DefaultLanguage: cfg.DefaultLanguage,
		DomainTemplate:  cfg.DomainTemplate,
	})

	events := service.NewEventService(db, logger)
	publisher := service.NewPublisher(service.PublisherConfig{
		DB:          db,
		Registry:    registry,
		Translator:  gateway,
		Events:      events,
		Logger:      logger,
		Concurrency: cfg.TranslationConcurrency,
	})

	sched := scheduler.New(scheduler.Config{
		Events:    events,
		Retention: cfg.EventRetention(),
		Logger:    logger,
	})
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	healthHandler := handler.NewHealthHandler(db, translationCache, versionInfo)
	apiHandler := api.NewHandler(publisher, registry, events, logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.GetHead)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))

	r.Get("/health", healthHandler.Health)
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)

	r.Mount("/api/v1", apiHandler.Router(api.RouterConfig{
		Keys:        apiKeys,
		Logger:      logger,
		RateLimit:   cfg.APIRateLimit,
		RateBurst:   cfg.APIRateBurst,
		IPRateLimit: cfg.APIRateLimit * ipRateMultiplier,
		IPRateBurst: cfg.APIRateBurst * ipRateMultiplier,
		Timeout:     cfg.TranslationTimeout + 30*time.Second,
	}))
	slog.Info("REST API v1 mounted at /api/v1")

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteAPIError(w, http.StatusNotFound, "Not found", nil)
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.TranslationTimeout + 60*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", versionInfo.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// createAPIKey issues a key and prints the raw value once.
func createAPIKey(keys *service.APIKeyService, kr keyRequest) error {
	var perms []string
	for _, p := range strings.Split(kr.permissions, ",") {
		if p = strings.TrimSpace(p); p != "" {
			perms = append(perms, p)
		}
	}

	in := service.CreateAPIKeyInput{
		Name:        kr.name,
		AuthorID:    kr.authorID,
		AuthorEmail: kr.authorEmail,
		Permissions: perms,
	}
	if kr.expiresIn > 0 {
		expires := time.Now().Add(kr.expiresIn)
		in.ExpiresAt = &expires
	}

	raw, key, err := keys.Create(context.Background(), in)
	if err != nil {
		return fmt.Errorf("creating api key: %w", err)
	}

	_, _ = fmt.Printf("API key %q created (id %d, prefix %s)\n", key.Name, key.ID, key.KeyPrefix)
	_, _ = fmt.Printf("Permissions: %s\n", strings.Join(key.GetPermissions(), ", "))
	_, _ = fmt.Printf("\n%s\n\nStore it now; it cannot be shown again.\n", raw)
	return nil
}
