// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain models and types used throughout the application.
package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Content lifecycle states.
const (
	ContentStateDraft     = "draft"
	ContentStatePublished = "published"
)

// Content kinds accepted by the publishing API.
const (
	ContentKindNoticia = "noticia"
	ContentKindBlog    = "blog"
	ContentKindAnuncio = "anuncio"
	ContentKindOferta  = "oferta"
	ContentKindEvento  = "evento"
)

// ContentKinds returns all content kinds in display order.
func ContentKinds() []string {
	return []string{
		ContentKindNoticia,
		ContentKindBlog,
		ContentKindAnuncio,
		ContentKindOferta,
		ContentKindEvento,
	}
}

// IsContentKind reports whether kind is a known content kind.
func IsContentKind(kind string) bool {
	for _, k := range ContentKinds() {
		if k == kind {
			return true
		}
	}
	return false
}

// Translation provenance tags.
const (
	ProvenanceAutomatic = "automatic"
	ProvenanceHuman     = "human"
)

// MetadataFormat is the metadata key selecting the body format.
// A value of FormatMarkdown renders the body to HTML before storage.
const (
	MetadataFormat = "formato"
	FormatMarkdown = "markdown"
)

// Content is the master record of an authored item in its origin language.
type Content struct {
	ID             string         `json:"id"`
	Kind           string         `json:"kind"`
	Title          string         `json:"title"`
	Body           string         `json:"body"`
	Excerpt        string         `json:"excerpt,omitempty"`
	OriginLanguage string         `json:"origin_language"`
	AuthorID       string         `json:"author_id"`
	AuthorName     string         `json:"author_name"`
	State          string         `json:"state"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// IsPublished returns true if the content is in the published state.
func (c *Content) IsPublished() bool {
	return c.State == ContentStatePublished
}

// Translation is a stored rendering of a Content in a non-origin language.
type Translation struct {
	ID         string    `json:"id"`
	ContentID  string    `json:"content_id"`
	Language   string    `json:"language"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Excerpt    string    `json:"excerpt,omitempty"`
	Provenance string    `json:"provenance"`
	Engine     string    `json:"engine"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"created_at"`
}

// Publication binds a Content to one community site in one language.
// TranslationID is empty when Language equals the content's origin language.
type Publication struct {
	ID            string     `json:"id"`
	ContentID     string     `json:"content_id"`
	TranslationID string     `json:"translation_id,omitempty"`
	Community     string     `json:"community"`
	Language      string     `json:"language"`
	Published     bool       `json:"published"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	Slug          string     `json:"slug"`
	URL           string     `json:"url"`
	CreatedAt     time.Time  `json:"created_at"`
}

// TranslationKey returns the synthetic key of the translation row for a content and language.
func TranslationKey(contentID, language string) string {
	return fmt.Sprintf("content_%s_%s", contentID, language)
}

// MetadataToJSON converts content metadata to its stored JSON form.
func MetadataToJSON(metadata map[string]any) string {
	if len(metadata) == 0 {
		return "{}"
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// MetadataFromJSON parses stored metadata, returning nil for empty or invalid input.
func MetadataFromJSON(s string) map[string]any {
	if s == "" || s == "{}" {
		return nil
	}
	var metadata map[string]any
	if err := json.Unmarshal([]byte(s), &metadata); err != nil {
		return nil
	}
	return metadata
}
