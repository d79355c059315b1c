// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// languageNames maps the codes used by the community table to the names
// the model is prompted with.
var languageNames = map[string]string{
	"ca": "Catalan",
	"es": "Spanish",
	"eu": "Basque",
	"gl": "Galician",
	"en": "English",
	"fr": "French",
	"oc": "Occitan",
}

// OpenAIProvider translates through an OpenAI-compatible chat completion API.
type OpenAIProvider struct {
	client openai.Client
	model  string
}

// OpenAIConfig configures an OpenAIProvider.
type OpenAIConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// NewOpenAIProvider creates an OpenAI provider. It returns nil when no API
// key is configured.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	if cfg.APIKey == "" {
		return nil
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultHTTPTimeout
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(cfg.Timeout),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
	}
}

// Name implements Provider.
func (p *OpenAIProvider) Name() string { return EngineOpenAI }

// Translate implements Provider.
func (p *OpenAIProvider) Translate(ctx context.Context, text, targetLang string) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt(targetLang)),
			openai.UserMessage(text),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}

func systemPrompt(targetLang string) string {
	name, ok := languageNames[targetLang]
	if !ok {
		name = strings.ToUpper(targetLang)
	}
	return "You are a professional translator for a public-sector news portal. " +
		"Translate the user's text into " + name + ". " +
		"Preserve HTML markup, links and proper nouns. " +
		"Reply with the translation only."
}

var _ Provider = (*OpenAIProvider)(nil)
