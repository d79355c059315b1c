package model

import (
	"database/sql"
	"time"
)

// Audit event levels. Only warning and error records are mirrored from the
// application log; publish outcomes are written at info.
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Audit event categories.
const (
	EventCategoryAuth        = "auth"
	EventCategoryContent     = "content"
	EventCategoryTranslation = "translation"
	EventCategoryConfig      = "config"
	EventCategorySystem      = "system"
	EventCategoryCache       = "cache"
)

// Event is one entry of the audit log.
type Event struct {
	ID        int64          `json:"id"`
	Level     string         `json:"level"`
	Category  string         `json:"category"`
	Message   string         `json:"message"`
	APIKeyID  sql.NullInt64  `json:"-"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// ContentID returns the content the event refers to, or "".
func (e Event) ContentID() string {
	id, _ := e.Metadata["content_id"].(string)
	return id
}

// IsValidEventLevel reports whether level is one of the audit levels.
func IsValidEventLevel(level string) bool {
	switch level {
	case EventLevelInfo, EventLevelWarning, EventLevelError:
		return true
	}
	return false
}
