package store

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

const translationColumns = `id, content_id, language, title, body, excerpt, provenance, engine, confidence, created_at`

const createTranslation = `-- name: CreateTranslation :one
INSERT INTO translations (
    id, content_id, language, title, body, excerpt, provenance, engine, confidence, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + translationColumns

type CreateTranslationParams struct {
	ID         string         `json:"id"`
	ContentID  string         `json:"content_id"`
	Language   string         `json:"language"`
	Title      string         `json:"title"`
	Body       string         `json:"body"`
	Excerpt    sql.NullString `json:"excerpt"`
	Provenance string         `json:"provenance"`
	Engine     string         `json:"engine"`
	Confidence float64        `json:"confidence"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (q *Queries) CreateTranslation(ctx context.Context, arg CreateTranslationParams) (Translation, error) {
	row := q.db.QueryRowContext(ctx, createTranslation,
		arg.ID,
		arg.ContentID,
		arg.Language,
		arg.Title,
		arg.Body,
		arg.Excerpt,
		arg.Provenance,
		arg.Engine,
		arg.Confidence,
		arg.CreatedAt,
	)
	return scanTranslation(row)
}

const listTranslationsByContent = `-- name: ListTranslationsByContent :many
SELECT ` + translationColumns + ` FROM translations
WHERE content_id = ?
ORDER BY language`

func (q *Queries) ListTranslationsByContent(ctx context.Context, contentID string) ([]Translation, error) {
	rows, err := q.db.QueryContext(ctx, listTranslationsByContent, contentID)
	if err != nil {
		return nil, err
	}
	return collectTranslations(rows)
}

const listTranslationsForContents = `-- name: ListTranslationsForContents :many
SELECT ` + translationColumns + ` FROM translations
WHERE content_id IN (/*SLICE:content_ids*/?)
ORDER BY content_id, language`

func (q *Queries) ListTranslationsForContents(ctx context.Context, contentIds []string) ([]Translation, error) {
	query, args := expandSlice(listTranslationsForContents, "/*SLICE:content_ids*/?", contentIds)
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectTranslations(rows)
}

const countTranslationsByContent = `-- name: CountTranslationsByContent :one
SELECT COUNT(*) FROM translations WHERE content_id = ?`

func (q *Queries) CountTranslationsByContent(ctx context.Context, contentID string) (int64, error) {
	row := q.db.QueryRowContext(ctx, countTranslationsByContent, contentID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

func collectTranslations(rows *sql.Rows) ([]Translation, error) {
	defer rows.Close()
	items := []Translation{}
	for rows.Next() {
		i, err := scanTranslation(rows)
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

func scanTranslation(row rowScanner) (Translation, error) {
	var i Translation
	err := row.Scan(
		&i.ID,
		&i.ContentID,
		&i.Language,
		&i.Title,
		&i.Body,
		&i.Excerpt,
		&i.Provenance,
		&i.Engine,
		&i.Confidence,
		&i.CreatedAt,
	)
	return i, err
}

// expandSlice replaces marker with one placeholder per value.
// An empty slice becomes NULL so the IN clause matches nothing.
func expandSlice(query, marker string, values []string) (string, []any) {
	if len(values) == 0 {
		return strings.Replace(query, marker, "NULL", 1), nil
	}
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	placeholders := strings.Repeat(",?", len(values))[1:]
	return strings.Replace(query, marker, placeholders, 1), args
}
