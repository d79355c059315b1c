// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package translate wraps third-party machine translation engines behind a
// gateway that never fails: when no engine is configured or the engine
// errors, it degrades to a tagged passthrough.
package translate

import (
	"context"
	"errors"
	"fmt"
)

// Engine identifiers.
const (
	EngineDeepL    = "deepl"
	EngineOpenAI   = "openai"
	EngineFallback = "fallback"
)

// ErrEmptyResponse is returned by providers when the upstream answered
// successfully but carried no translation.
var ErrEmptyResponse = errors.New("translation response is empty")

// Provider translates text into a target language.
type Provider interface {
	// Name returns the engine identifier recorded on translation rows.
	Name() string

	// Translate returns text rendered in targetLang (ISO 639-1, lowercase).
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// ProviderConfig selects and configures the translation engine.
type ProviderConfig struct {
	Engine string // EngineDeepL or EngineOpenAI
	DeepL  DeepLConfig
	OpenAI OpenAIConfig
}

// NewProvider builds the configured engine. It returns a nil Provider when
// the selected engine has no credential, which makes the gateway use the
// fallback for every call.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	switch cfg.Engine {
	case EngineDeepL, "":
		if p := NewDeepLProvider(cfg.DeepL); p != nil {
			return p, nil
		}
		return nil, nil
	case EngineOpenAI:
		if p := NewOpenAIProvider(cfg.OpenAI); p != nil {
			return p, nil
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown translation engine %q", cfg.Engine)
	}
}
