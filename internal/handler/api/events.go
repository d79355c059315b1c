package api

import (
	"net/http"

	"github.com/lapublica/contenidos/internal/model"
)

// ListEvents handles GET /eventos. It returns the audit log newest first;
// limit defaults to 50 and is capped at 500. The contenido parameter keeps
// only events about one content.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	if limit < 0 {
		WriteBadRequest(w, "Invalid limit parameter")
		return
	}

	events, err := h.events.RecentEvents(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list events", "error", err)
		WriteInternalError(w, "Failed to list events")
		return
	}

	if contentID := r.URL.Query().Get("contenido"); contentID != "" {
		filtered := make([]model.Event, 0, len(events))
		for _, e := range events {
			if e.ContentID() == contentID {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	WriteSuccess(w, events, nil)
}
