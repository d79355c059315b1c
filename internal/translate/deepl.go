// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultDeepLURL is the DeepL free-tier endpoint.
const DefaultDeepLURL = "https://api-free.deepl.com/v2/translate"

const defaultHTTPTimeout = 30 * time.Second

// DeepLProvider calls the DeepL v2 translate endpoint.
type DeepLProvider struct {
	authKey string
	url     string
	client  *http.Client
}

// DeepLConfig configures a DeepLProvider.
type DeepLConfig struct {
	AuthKey string
	URL     string
	Timeout time.Duration
	Client  *http.Client
}

// NewDeepLProvider creates a DeepL provider. It returns nil when no auth key
// is configured so callers can pass the result straight to the gateway.
func NewDeepLProvider(cfg DeepLConfig) *DeepLProvider {
	if cfg.AuthKey == "" {
		return nil
	}
	if cfg.URL == "" {
		cfg.URL = DefaultDeepLURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultHTTPTimeout
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &DeepLProvider{
		authKey: cfg.AuthKey,
		url:     cfg.URL,
		client:  client,
	}
}

// Name implements Provider.
func (p *DeepLProvider) Name() string { return EngineDeepL }

// Translate implements Provider.
func (p *DeepLProvider) Translate(ctx context.Context, text, targetLang string) (string, error) {
	form := url.Values{}
	form.Set("auth_key", p.authKey)
	form.Set("text", text)
	form.Set("target_lang", strings.ToUpper(targetLang))
	if strings.ContainsRune(text, '<') {
		// Bodies and excerpts are sanitised HTML; keep DeepL off the markup.
		form.Set("tag_handling", "html")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("deepl call: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("deepl error (status %d): %s", resp.StatusCode, truncate(string(body), 200))
	}

	var result struct {
		Translations []struct {
			DetectedSourceLanguage string `json:"detected_source_language"`
			Text                   string `json:"text"`
		} `json:"translations"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("deepl decode: %w", err)
	}
	if len(result.Translations) == 0 {
		return "", ErrEmptyResponse
	}

	return result.Translations[0].Text, nil
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

var _ Provider = (*DeepLProvider)(nil)
