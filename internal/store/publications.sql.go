package store

import (
	"context"
	"database/sql"
	"time"
)

const publicationColumns = `id, content_id, translation_id, community, language, published, published_at, slug, url, created_at`

const createPublication = `-- name: CreatePublication :one
INSERT INTO publications (
    id, content_id, translation_id, community, language, published, published_at, slug, url, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + publicationColumns

type CreatePublicationParams struct {
	ID            string         `json:"id"`
	ContentID     string         `json:"content_id"`
	TranslationID sql.NullString `json:"translation_id"`
	Community     string         `json:"community"`
	Language      string         `json:"language"`
	Published     bool           `json:"published"`
	PublishedAt   sql.NullTime   `json:"published_at"`
	Slug          string         `json:"slug"`
	Url           string         `json:"url"`
	CreatedAt     time.Time      `json:"created_at"`
}

func (q *Queries) CreatePublication(ctx context.Context, arg CreatePublicationParams) (Publication, error) {
	row := q.db.QueryRowContext(ctx, createPublication,
		arg.ID,
		arg.ContentID,
		arg.TranslationID,
		arg.Community,
		arg.Language,
		arg.Published,
		arg.PublishedAt,
		arg.Slug,
		arg.Url,
		arg.CreatedAt,
	)
	return scanPublication(row)
}

const listPublicationsByContent = `-- name: ListPublicationsByContent :many
SELECT ` + publicationColumns + ` FROM publications
WHERE content_id = ?
ORDER BY rowid`

func (q *Queries) ListPublicationsByContent(ctx context.Context, contentID string) ([]Publication, error) {
	rows, err := q.db.QueryContext(ctx, listPublicationsByContent, contentID)
	if err != nil {
		return nil, err
	}
	return collectPublications(rows)
}

const listPublicationsForContents = `-- name: ListPublicationsForContents :many
SELECT ` + publicationColumns + ` FROM publications
WHERE content_id IN (/*SLICE:content_ids*/?)
ORDER BY content_id, rowid`

func (q *Queries) ListPublicationsForContents(ctx context.Context, contentIds []string) ([]Publication, error) {
	query, args := expandSlice(listPublicationsForContents, "/*SLICE:content_ids*/?", contentIds)
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectPublications(rows)
}

func collectPublications(rows *sql.Rows) ([]Publication, error) {
	defer rows.Close()
	items := []Publication{}
	for rows.Next() {
		i, err := scanPublication(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanPublication(row rowScanner) (Publication, error) {
	var i Publication
	err := row.Scan(
		&i.ID,
		&i.ContentID,
		&i.TranslationID,
		&i.Community,
		&i.Language,
		&i.Published,
		&i.PublishedAt,
		&i.Slug,
		&i.Url,
		&i.CreatedAt,
	)
	return i, err
}
