// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"golang.org/x/sync/errgroup"

	"github.com/lapublica/contenidos/internal/community"
	"github.com/lapublica/contenidos/internal/model"
	"github.com/lapublica/contenidos/internal/store"
	"github.com/lapublica/contenidos/internal/translate"
	"github.com/lapublica/contenidos/internal/util"
)

// DefaultTranslationConcurrency bounds parallel language translations per publish.
const DefaultTranslationConcurrency = 4

// ErrContentNotFound is returned when a content id does not exist.
var ErrContentNotFound = errors.New("content not found")

var (
	htmlSanitizer = bluemonday.UGCPolicy()
	textOnly      = bluemonday.StrictPolicy()
)

// Translator renders a content bundle into a target language. It must not
// fail: degraded results are reported through BundleResult.Engine.
type Translator interface {
	TranslateBundle(ctx context.Context, b translate.Bundle, targetLang string) translate.BundleResult
}

// PublishInput is a request to create master content and publish it to a
// set of communities. JSON names match the public API so validation errors
// point at request fields.
type PublishInput struct {
	Title          string         `json:"titulo"`
	Body           string         `json:"contenido"`
	Excerpt        string         `json:"extracto"`
	Kind           string         `json:"tipo"`
	OriginLanguage string         `json:"idiomaOrigen"`
	Communities    []string       `json:"comunidades"`
	PublishNow     bool           `json:"publicarInmediatamente"`
	Metadata       map[string]any `json:"metadatos"`
	AuthorID       string         `json:"autorId"`
	AuthorName     string         `json:"autorNombre"`

	// APIKeyID attributes the audit event; optional.
	APIKeyID *int64 `json:"-"`
}

// PublishedURL is one public URL produced by a publish call.
type PublishedURL struct {
	Community         string `json:"comunidad"`
	Language          string `json:"idioma"`
	Slug              string `json:"slug"`
	URL               string `json:"url"`
	MachineTranslated bool   `json:"traduccionAutomatica"`
}

// PublishResult summarises a publish call.
type PublishResult struct {
	ContentID           string         `json:"contenidoId"`
	TranslationsCreated int            `json:"traduccionesCreadas"`
	Publications        []PublishedURL `json:"publicaciones"`
}

// PublisherConfig holds Publisher dependencies.
type PublisherConfig struct {
	DB          *sql.DB
	Registry    *community.Registry
	Translator  Translator
	Events      *EventService // optional audit log
	Logger      *slog.Logger
	Concurrency int
	Now         func() time.Time
}

// Publisher creates master content, translates it into every language its
// target communities require and records one publication per community
// and language.
type Publisher struct {
	db          *sql.DB
	queries     *store.Queries
	registry    *community.Registry
	translator  Translator
	events      *EventService
	logger      *slog.Logger
	concurrency int
	now         func() time.Time
}

// NewPublisher creates a Publisher.
func NewPublisher(cfg PublisherConfig) *Publisher {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultTranslationConcurrency
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Publisher{
		db:          cfg.DB,
		queries:     store.New(cfg.DB),
		registry:    cfg.Registry,
		translator:  cfg.Translator,
		events:      cfg.Events,
		logger:      cfg.Logger,
		concurrency: cfg.Concurrency,
		now:         cfg.Now,
	}
}

// Publish validates in, translates it and writes the content, its
// translations and its publications in a single transaction. Invalid input
// returns a *ValidationError before anything is written. Translation
// failures never fail the call; storage failures roll back every row.
func (p *Publisher) Publish(ctx context.Context, in PublishInput) (*PublishResult, error) {
	in = normalizeInput(in)
	if err := validatePublishInput(in); err != nil {
		return nil, err
	}

	body, err := renderBody(in.Body, in.Metadata)
	if err != nil {
		return nil, fmt.Errorf("rendering body: %w", err)
	}
	if !hasVisibleText(body) {
		return nil, &ValidationError{Fields: map[string]string{"contenido": "must contain visible text"}}
	}
	excerpt := htmlSanitizer.Sanitize(in.Excerpt)

	for _, c := range in.Communities {
		if !p.registry.Known(c) {
			p.logger.Warn("publishing to unknown community, using default language",
				"community", c, "languages", p.registry.Languages(c))
		}
	}

	contentID := uuid.NewString()
	languages := p.registry.UnionLanguages(in.Communities)
	bundle := translate.Bundle{Title: in.Title, Body: body, Excerpt: excerpt}

	translations := p.translateAll(ctx, bundle, in.OriginLanguage, languages)

	slug := contentSlug(in.Title, contentID)
	now := p.now().UTC()
	state := model.ContentStateDraft
	var publishedAt sql.NullTime
	if in.PublishNow {
		state = model.ContentStatePublished
		publishedAt = sql.NullTime{Time: now, Valid: true}
	}

	result := &PublishResult{
		ContentID:    contentID,
		Publications: []PublishedURL{},
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := p.queries.WithTx(tx)

	_, err = qtx.CreateContent(ctx, store.CreateContentParams{
		ID:             contentID,
		Kind:           in.Kind,
		Title:          in.Title,
		Body:           body,
		Excerpt:        util.NullStringFromValue(excerpt),
		OriginLanguage: in.OriginLanguage,
		AuthorID:       in.AuthorID,
		AuthorName:     in.AuthorName,
		State:          state,
		Metadata:       model.MetadataToJSON(in.Metadata),
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return nil, fmt.Errorf("creating content: %w", err)
	}

	translationIDs := make(map[string]string, len(translations))
	for _, tr := range translations {
		id := model.TranslationKey(contentID, tr.language)
		_, err := qtx.CreateTranslation(ctx, store.CreateTranslationParams{
			ID:         id,
			ContentID:  contentID,
			Language:   tr.language,
			Title:      tr.result.Title,
			Body:       tr.result.Body,
			Excerpt:    util.NullStringFromValue(tr.result.Excerpt),
			Provenance: model.ProvenanceAutomatic,
			Engine:     tr.result.Engine,
			Confidence: tr.result.Confidence,
			CreatedAt:  now,
		})
		if err != nil {
			return nil, fmt.Errorf("creating %s translation: %w", tr.language, err)
		}
		translationIDs[tr.language] = id
	}

	for _, communityID := range in.Communities {
		for _, lang := range p.registry.Languages(communityID) {
			var translationID sql.NullString
			if lang != in.OriginLanguage {
				translationID = util.NullStringFromValue(translationIDs[lang])
			}
			url := p.registry.PublicURL(communityID, lang, slug)

			_, err := qtx.CreatePublication(ctx, store.CreatePublicationParams{
				ID:            uuid.NewString(),
				ContentID:     contentID,
				TranslationID: translationID,
				Community:     communityID,
				Language:      lang,
				Published:     in.PublishNow,
				PublishedAt:   publishedAt,
				Slug:          slug,
				Url:           url,
				CreatedAt:     now,
			})
			if err != nil {
				return nil, fmt.Errorf("creating publication %s/%s: %w", communityID, lang, err)
			}

			result.Publications = append(result.Publications, PublishedURL{
				Community:         communityID,
				Language:          lang,
				Slug:              slug,
				URL:               url,
				MachineTranslated: lang != in.OriginLanguage,
			})
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing publish: %w", err)
	}
	result.TranslationsCreated = len(translations)

	p.logger.Info("content published",
		"content_id", contentID,
		"kind", in.Kind,
		"state", state,
		"translations", result.TranslationsCreated,
		"publications", len(result.Publications))

	if p.events != nil {
		_ = p.events.LogContentEvent(ctx, model.EventLevelInfo, "Content published", in.APIKeyID, map[string]any{
			"content_id":   contentID,
			"title":        in.Title,
			"communities":  in.Communities,
			"translations": result.TranslationsCreated,
			"state":        state,
		})
		for _, tr := range translations {
			if tr.result.Engine == translate.EngineFallback {
				_ = p.events.LogWarning(ctx, model.EventCategoryTranslation,
					"Fallback translation stored", in.APIKeyID, map[string]any{
						"content_id": contentID,
						"language":   tr.language,
					})
			}
		}
	}

	return result, nil
}

type languageTranslation struct {
	language string
	result   translate.BundleResult
}

// translateAll translates bundle into every non-origin language, at most
// p.concurrency languages at a time. Results keep the order of languages.
func (p *Publisher) translateAll(ctx context.Context, bundle translate.Bundle, origin string, languages []string) []languageTranslation {
	targets := make([]string, 0, len(languages))
	for _, lang := range languages {
		if lang != origin {
			targets = append(targets, lang)
		}
	}

	out := make([]languageTranslation, len(targets))
	var eg errgroup.Group
	eg.SetLimit(p.concurrency)
	for i, lang := range targets {
		eg.Go(func() error {
			out[i] = languageTranslation{
				language: lang,
				result:   p.translator.TranslateBundle(ctx, bundle, lang),
			}
			return nil
		})
	}
	_ = eg.Wait()
	return out
}

// renderBody converts markdown bodies to HTML and sanitises the result.
func renderBody(body string, metadata map[string]any) (string, error) {
	if format, _ := metadata[model.MetadataFormat].(string); strings.EqualFold(format, model.FormatMarkdown) {
		var buf bytes.Buffer
		if err := goldmark.Convert([]byte(body), &buf); err != nil {
			return "", err
		}
		body = buf.String()
	}
	return htmlSanitizer.Sanitize(body), nil
}

// hasVisibleText reports whether rendered HTML still carries text once
// every tag is stripped.
func hasVisibleText(body string) bool {
	return strings.TrimSpace(html.UnescapeString(textOnly.Sanitize(body))) != ""
}

// contentSlug derives the URL slug shared by every publication of a content.
func contentSlug(title, contentID string) string {
	if slug := util.Slugify(title); slug != "" {
		return slug
	}
	if slug := util.TransliteratedSlug(title); slug != "" {
		return slug
	}
	return "contenido-" + contentID[:8]
}

func normalizeInput(in PublishInput) PublishInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Excerpt = strings.TrimSpace(in.Excerpt)
	in.Kind = strings.ToLower(strings.TrimSpace(in.Kind))
	in.OriginLanguage = strings.ToLower(strings.TrimSpace(in.OriginLanguage))
	in.AuthorID = strings.TrimSpace(in.AuthorID)

	seen := make(map[string]bool, len(in.Communities))
	communities := make([]string, 0, len(in.Communities))
	for _, c := range in.Communities {
		c = strings.ToLower(strings.TrimSpace(c))
		if seen[c] {
			continue
		}
		seen[c] = true
		communities = append(communities, c)
	}
	in.Communities = communities
	return in
}
