// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lapublica/contenidos/internal/cache"
)

// Fixed confidence scores. Engines do not report a usable score, so a
// successful call is always ConfidenceEngine.
const (
	ConfidenceEngine   = 0.95
	ConfidenceFallback = 0.5
)

const cacheKeyPrefix = "tr:"

// Result is a single translated text.
type Result struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Engine     string  `json:"engine"`
	Fallback   bool    `json:"fallback"`
}

// Bundle is the set of fields translated together for one language.
type Bundle struct {
	Title   string
	Body    string
	Excerpt string
}

// BundleResult is a translated Bundle.
type BundleResult struct {
	Title   string
	Body    string
	Excerpt string

	// Confidence is the mean of the title and body confidences.
	// TODO: ExcerptConfidence is not part of the mean; confirm with product
	// whether it should be before changing the formula.
	Confidence        float64
	ExcerptConfidence float64

	// Engine is the provider name, or EngineFallback if any field fell back.
	Engine string
}

// Config holds gateway dependencies. Everything is passed explicitly; the
// gateway reads no environment state.
type Config struct {
	Provider Provider     // nil means always fall back
	Cache    cache.Cacher // optional
	CacheTTL time.Duration
	Logger   *slog.Logger
}

// Gateway translates text through a Provider and degrades to a tagged
// passthrough when the provider is missing or fails.
type Gateway struct {
	provider Provider
	cache    *cache.TypedCache[Result]
	logger   *slog.Logger
}

// NewGateway creates a gateway.
func NewGateway(cfg Config) *Gateway {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	g := &Gateway{
		provider: cfg.Provider,
		logger:   logger,
	}
	if cfg.Cache != nil {
		g.cache = cache.NewTypedCache[Result](cfg.Cache, cacheKeyPrefix, cfg.CacheTTL)
	}
	return g
}

// Engine returns the configured engine name, or EngineFallback.
func (g *Gateway) Engine() string {
	if g.provider == nil {
		return EngineFallback
	}
	return g.provider.Name()
}

// Translate renders text in targetLang. It never returns an error: any
// provider failure yields Fallback(text, targetLang).
func (g *Gateway) Translate(ctx context.Context, text, targetLang string) Result {
	if g.provider == nil {
		return Fallback(text, targetLang)
	}
	if strings.TrimSpace(text) == "" {
		return Result{Text: text, Confidence: ConfidenceEngine, Engine: g.provider.Name()}
	}

	key := cacheKey(g.provider.Name(), targetLang, text)
	if g.cache != nil {
		if r, ok, err := g.cache.Get(ctx, key); err == nil && ok {
			return r
		}
	}

	out, err := g.provider.Translate(ctx, text, targetLang)
	if err != nil {
		g.logger.Warn("translation failed, using fallback",
			"engine", g.provider.Name(),
			"lang", targetLang,
			"error", err)
		return Fallback(text, targetLang)
	}

	r := Result{
		Text:       out,
		Confidence: ConfidenceEngine,
		Engine:     g.provider.Name(),
	}
	if g.cache != nil {
		if err := g.cache.Set(ctx, key, r); err != nil {
			g.logger.Debug("translation cache set failed", "error", err)
		}
	}
	return r
}

// TranslateBundle translates title, body and excerpt concurrently. An empty
// excerpt is not sent to the provider.
func (g *Gateway) TranslateBundle(ctx context.Context, b Bundle, targetLang string) BundleResult {
	var title, body, excerpt Result

	// Translate never errors, so the group is only used to join.
	var eg errgroup.Group
	eg.Go(func() error {
		title = g.Translate(ctx, b.Title, targetLang)
		return nil
	})
	eg.Go(func() error {
		body = g.Translate(ctx, b.Body, targetLang)
		return nil
	})
	if b.Excerpt != "" {
		eg.Go(func() error {
			excerpt = g.Translate(ctx, b.Excerpt, targetLang)
			return nil
		})
	}
	_ = eg.Wait()

	engine := g.Engine()
	if title.Fallback || body.Fallback || excerpt.Fallback {
		engine = EngineFallback
	}

	return BundleResult{
		Title:             title.Text,
		Body:              body.Text,
		Excerpt:           excerpt.Text,
		Confidence:        (title.Confidence + body.Confidence) / 2,
		ExcerptConfidence: excerpt.Confidence,
		Engine:            engine,
	}
}

// Fallback returns the tagged passthrough for text, e.g. "[CA] Hola".
func Fallback(text, targetLang string) Result {
	return Result{
		Text:       "[" + strings.ToUpper(targetLang) + "] " + text,
		Confidence: ConfidenceFallback,
		Engine:     EngineFallback,
		Fallback:   true,
	}
}

func cacheKey(engine, lang, text string) string {
	sum := sha256.Sum256([]byte(engine + "|" + lang + "|" + text))
	return hex.EncodeToString(sum[:])
}
