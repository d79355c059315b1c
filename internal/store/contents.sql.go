package store

import (
	"context"
	"database/sql"
	"time"
)

const contentColumns = `id, kind, title, body, excerpt, origin_language, author_id, author_name, state, metadata, created_at, updated_at`

const createContent = `-- name: CreateContent :one
INSERT INTO contents (
    id, kind, title, body, excerpt, origin_language, author_id, author_name, state, metadata, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + contentColumns

type CreateContentParams struct {
	ID             string         `json:"id"`
	Kind           string         `json:"kind"`
	Title          string         `json:"title"`
	Body           string         `json:"body"`
	Excerpt        sql.NullString `json:"excerpt"`
	OriginLanguage string         `json:"origin_language"`
	AuthorID       string         `json:"author_id"`
	AuthorName     string         `json:"author_name"`
	State          string         `json:"state"`
	Metadata       string         `json:"metadata"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (q *Queries) CreateContent(ctx context.Context, arg CreateContentParams) (Content, error) {
	row := q.db.QueryRowContext(ctx, createContent,
		arg.ID,
		arg.Kind,
		arg.Title,
		arg.Body,
		arg.Excerpt,
		arg.OriginLanguage,
		arg.AuthorID,
		arg.AuthorName,
		arg.State,
		arg.Metadata,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanContent(row)
}

const getContent = `-- name: GetContent :one
SELECT ` + contentColumns + ` FROM contents WHERE id = ?`

func (q *Queries) GetContent(ctx context.Context, id string) (Content, error) {
	row := q.db.QueryRowContext(ctx, getContent, id)
	return scanContent(row)
}

const listContents = `-- name: ListContents :many
SELECT ` + contentColumns + ` FROM contents
WHERE (? = '' OR kind = ?)
  AND (? = '' OR state = ?)
ORDER BY created_at DESC, rowid DESC
LIMIT ? OFFSET ?`

type ListContentsParams struct {
	Kind   string `json:"kind"`
	State  string `json:"state"`
	Limit  int64  `json:"limit"`
	Offset int64  `json:"offset"`
}

func (q *Queries) ListContents(ctx context.Context, arg ListContentsParams) ([]Content, error) {
	rows, err := q.db.QueryContext(ctx, listContents,
		arg.Kind, arg.Kind,
		arg.State, arg.State,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Content{}
	for rows.Next() {
		i, err := scanContent(rows)
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

const countContents = `-- name: CountContents :one
SELECT COUNT(*) FROM contents
WHERE (? = '' OR kind = ?)
  AND (? = '' OR state = ?)`

type CountContentsParams struct {
	Kind  string `json:"kind"`
	State string `json:"state"`
}

func (q *Queries) CountContents(ctx context.Context, arg CountContentsParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, countContents, arg.Kind, arg.Kind, arg.State, arg.State)
	var count int64
	err := row.Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContent(row rowScanner) (Content, error) {
	var i Content
	err := row.Scan(
		&i.ID,
		&i.Kind,
		&i.Title,
		&i.Body,
		&i.Excerpt,
		&i.OriginLanguage,
		&i.AuthorID,
		&i.AuthorName,
		&i.State,
		&i.Metadata,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
