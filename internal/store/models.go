package store

import (
	"database/sql"
	"time"
)

type ApiKey struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	KeyHash     string       `json:"key_hash"`
	KeyPrefix   string       `json:"key_prefix"`
	Permissions string       `json:"permissions"`
	AuthorID    string       `json:"author_id"`
	AuthorEmail string       `json:"author_email"`
	LastUsedAt  sql.NullTime `json:"last_used_at"`
	ExpiresAt   sql.NullTime `json:"expires_at"`
	IsActive    bool         `json:"is_active"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

type Content struct {
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

type Event struct {
	ID        int64         `json:"id"`
	Level     string        `json:"level"`
	Category  string        `json:"category"`
	Message   string        `json:"message"`
	ApiKeyID  sql.NullInt64 `json:"api_key_id"`
	Metadata  string        `json:"metadata"`
	CreatedAt time.Time     `json:"created_at"`
}

type Publication struct {
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

type Translation struct {
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
