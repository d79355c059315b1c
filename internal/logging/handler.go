// Package logging provides a slog handler that mirrors WARN and ERROR
// records into the database-backed event log, so degraded translations and
// storage failures leave an audit trail next to the content they concern.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/lapublica/contenidos/internal/model"
	"github.com/lapublica/contenidos/internal/store"
)

// EventLogHandler is a slog.Handler that wraps another handler and also writes
// records at or above its level to the events table.
type EventLogHandler struct {
	inner   slog.Handler
	queries *store.Queries
	level   slog.Level
	attrs   []slog.Attr // attributes added through WithAttrs
	group   string
}

// NewEventLogHandler creates a handler forwarding WARN and above to the event log.
func NewEventLogHandler(inner slog.Handler, db *sql.DB) *EventLogHandler {
	return NewEventLogHandlerWithLevel(inner, db, slog.LevelWarn)
}

// NewEventLogHandlerWithLevel creates a new EventLogHandler with a custom minimum level.
func NewEventLogHandlerWithLevel(inner slog.Handler, db *sql.DB, level slog.Level) *EventLogHandler {
	return &EventLogHandler{
		inner:   inner,
		queries: store.New(db),
		level:   level,
	}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}

	if r.Level >= h.level {
		h.writeToEventLog(r)
	}

	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := h.clone()
	next.inner = h.inner.WithAttrs(attrs)
	if h.group != "" {
		next.attrs = append(next.attrs, slog.Attr{Key: h.group, Value: slog.GroupValue(attrs...)})
	} else {
		next.attrs = append(next.attrs, attrs...)
	}
	return next
}

// WithGroup implements slog.Handler.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	next := h.clone()
	next.inner = h.inner.WithGroup(name)
	if next.group != "" {
		next.group += "." + name
	} else {
		next.group = name
	}
	return next
}

func (h *EventLogHandler) clone() *EventLogHandler {
	return &EventLogHandler{
		inner:   h.inner,
		queries: h.queries,
		level:   h.level,
		attrs:   append([]slog.Attr(nil), h.attrs...),
		group:   h.group,
	}
}

// writeToEventLog stores r in the events table. A fresh context is used so
// records emitted while a request is being cancelled are still stored.
func (h *EventLogHandler) writeToEventLog(r slog.Record) {
	recAttrs := make([]slog.Attr, 0, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		recAttrs = append(recAttrs, a)
		return true
	})
	attrs := append(append([]slog.Attr(nil), h.attrs...), recAttrs...)

	createdAt := r.Time
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, _ = h.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     slogLevelToEventLevel(r.Level),
		Category:  extractCategory(r.Message, attrs),
		Message:   r.Message,
		ApiKeyID:  extractAPIKeyID(attrs),
		Metadata:  h.extractMetadata(recAttrs),
		CreatedAt: createdAt.UTC(),
	})
}

// slogLevelToEventLevel converts a slog.Level to an Event Log level.
func slogLevelToEventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.EventLevelError
	case level >= slog.LevelWarn:
		return model.EventLevelWarning
	default:
		return model.EventLevelInfo
	}
}

// extractCategory uses an explicit "category" attribute, or infers one
// from the message.
func extractCategory(message string, attrs []slog.Attr) string {
	for _, a := range attrs {
		if a.Key == "category" {
			return a.Value.String()
		}
	}

	msg := strings.ToLower(message)
	switch {
	case strings.Contains(msg, "translat"):
		return model.EventCategoryTranslation
	case strings.Contains(msg, "api key") || strings.Contains(msg, "auth"):
		return model.EventCategoryAuth
	case strings.Contains(msg, "content") || strings.Contains(msg, "publish"):
		return model.EventCategoryContent
	case strings.Contains(msg, "cache") || strings.Contains(msg, "redis"):
		return model.EventCategoryCache
	case strings.Contains(msg, "config"):
		return model.EventCategoryConfig
	default:
		return model.EventCategorySystem
	}
}

// extractAPIKeyID returns the "api_key_id" attribute when it is an integer.
func extractAPIKeyID(attrs []slog.Attr) sql.NullInt64 {
	for _, a := range attrs {
		if a.Key != "api_key_id" {
			continue
		}
		v := a.Value.Resolve()
		switch v.Kind() {
		case slog.KindInt64:
			return sql.NullInt64{Int64: v.Int64(), Valid: true}
		case slog.KindUint64:
			return sql.NullInt64{Int64: int64(v.Uint64()), Valid: true}
		}
	}
	return sql.NullInt64{}
}

// extractMetadata collects handler and record attributes into a JSON
// object. Values are stored as strings; groups are flattened with dotted keys.
func (h *EventLogHandler) extractMetadata(recAttrs []slog.Attr) string {
	if len(h.attrs)+len(recAttrs) == 0 {
		return "{}"
	}

	out := make(map[string]string, len(h.attrs)+len(recAttrs))
	for _, a := range h.attrs {
		flattenAttr(out, "", a)
	}
	prefix := ""
	if h.group != "" {
		prefix = h.group + "."
	}
	for _, a := range recAttrs {
		flattenAttr(out, prefix, a)
	}
	delete(out, "category")
	delete(out, prefix+"category")
	if len(out) == 0 {
		return "{}"
	}

	data, err := json.Marshal(out)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func flattenAttr(out map[string]string, prefix string, a slog.Attr) {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		for _, ga := range v.Group() {
			flattenAttr(out, prefix+a.Key+".", ga)
		}
		return
	}
	out[prefix+a.Key] = v.String()
}
