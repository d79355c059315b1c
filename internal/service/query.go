// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lapublica/contenidos/internal/model"
	"github.com/lapublica/contenidos/internal/store"
	"github.com/lapublica/contenidos/internal/util"
)

// Listing limits.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// ListFilter selects a page of contents. Empty strings match everything.
type ListFilter struct {
	Kind   string
	State  string
	Limit  int
	Offset int
}

// Normalize applies the default and maximum limit and clamps the offset.
func (f ListFilter) Normalize() ListFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// ContentDetail is a content with its translations and publications.
type ContentDetail struct {
	model.Content
	Translations []model.Translation `json:"translations"`
	Publications []model.Publication `json:"publications"`
}

// ListResult is one page of contents plus the total matching the filter.
type ListResult struct {
	Items  []ContentDetail `json:"items"`
	Total  int64           `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// HasMore reports whether there are items after this page.
func (r *ListResult) HasMore() bool {
	return int64(r.Offset+len(r.Items)) < r.Total
}

// List returns contents newest first, with translations and publications
// loaded for the page in two extra queries.
func (p *Publisher) List(ctx context.Context, f ListFilter) (*ListResult, error) {
	f = f.Normalize()

	total, err := p.queries.CountContents(ctx, store.CountContentsParams{
		Kind:  f.Kind,
		State: f.State,
	})
	if err != nil {
		return nil, fmt.Errorf("counting contents: %w", err)
	}

	rows, err := p.queries.ListContents(ctx, store.ListContentsParams{
		Kind:   f.Kind,
		State:  f.State,
		Limit:  int64(f.Limit),
		Offset: int64(f.Offset),
	})
	if err != nil {
		return nil, fmt.Errorf("listing contents: %w", err)
	}

	result := &ListResult{
		Items:  make([]ContentDetail, 0, len(rows)),
		Total:  total,
		Limit:  f.Limit,
		Offset: f.Offset,
	}
	if len(rows) == 0 {
		return result, nil
	}

	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}

	trRows, err := p.queries.ListTranslationsForContents(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("listing translations: %w", err)
	}
	pubRows, err := p.queries.ListPublicationsForContents(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("listing publications: %w", err)
	}

	translations := make(map[string][]model.Translation)
	for _, t := range trRows {
		translations[t.ContentID] = append(translations[t.ContentID], translationFromRow(t))
	}
	publications := make(map[string][]model.Publication)
	for _, pub := range pubRows {
		publications[pub.ContentID] = append(publications[pub.ContentID], publicationFromRow(pub))
	}

	for _, r := range rows {
		result.Items = append(result.Items, newContentDetail(r, translations[r.ID], publications[r.ID]))
	}
	return result, nil
}

// Get returns one content with its translations and publications.
func (p *Publisher) Get(ctx context.Context, id string) (*ContentDetail, error) {
	row, err := p.queries.GetContent(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrContentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting content: %w", err)
	}

	trRows, err := p.queries.ListTranslationsByContent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("listing translations: %w", err)
	}
	pubRows, err := p.queries.ListPublicationsByContent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("listing publications: %w", err)
	}

	translations := make([]model.Translation, 0, len(trRows))
	for _, t := range trRows {
		translations = append(translations, translationFromRow(t))
	}
	publications := make([]model.Publication, 0, len(pubRows))
	for _, pub := range pubRows {
		publications = append(publications, publicationFromRow(pub))
	}

	detail := newContentDetail(row, translations, publications)
	return &detail, nil
}

func newContentDetail(r store.Content, translations []model.Translation, publications []model.Publication) ContentDetail {
	if translations == nil {
		translations = []model.Translation{}
	}
	if publications == nil {
		publications = []model.Publication{}
	}
	return ContentDetail{
		Content:      contentFromRow(r),
		Translations: translations,
		Publications: publications,
	}
}

func contentFromRow(r store.Content) model.Content {
	return model.Content{
		ID:             r.ID,
		Kind:           r.Kind,
		Title:          r.Title,
		Body:           r.Body,
		Excerpt:        r.Excerpt.String,
		OriginLanguage: r.OriginLanguage,
		AuthorID:       r.AuthorID,
		AuthorName:     r.AuthorName,
		State:          r.State,
		Metadata:       model.MetadataFromJSON(r.Metadata),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func translationFromRow(r store.Translation) model.Translation {
	return model.Translation{
		ID:         r.ID,
		ContentID:  r.ContentID,
		Language:   r.Language,
		Title:      r.Title,
		Body:       r.Body,
		Excerpt:    r.Excerpt.String,
		Provenance: r.Provenance,
		Engine:     r.Engine,
		Confidence: r.Confidence,
		CreatedAt:  r.CreatedAt,
	}
}

func publicationFromRow(r store.Publication) model.Publication {
	return model.Publication{
		ID:            r.ID,
		ContentID:     r.ContentID,
		TranslationID: r.TranslationID.String,
		Community:     r.Community,
		Language:      r.Language,
		Published:     r.Published,
		PublishedAt:   util.TimePtrFromNull(r.PublishedAt),
		Slug:          r.Slug,
		URL:           r.Url,
		CreatedAt:     r.CreatedAt,
	}
}
