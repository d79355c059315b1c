// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lapublica/contenidos/internal/middleware"
	"github.com/lapublica/contenidos/internal/model"
	"github.com/lapublica/contenidos/internal/service"
)

// maxRequestBody bounds the JSON body of a publish request.
const maxRequestBody = 2 << 20

// CreateContentRequest represents the request body for creating content.
type CreateContentRequest struct {
	Titulo                 string         `json:"titulo"`
	Contenido              string         `json:"contenido"`
	Extracto               string         `json:"extracto,omitempty"`
	Tipo                   string         `json:"tipo"`
	IdiomaOrigen           string         `json:"idiomaOrigen"`
	Comunidades            []string       `json:"comunidades"`
	PublicarInmediatamente bool           `json:"publicarInmediatamente"`
	Metadatos              map[string]any `json:"metadatos,omitempty"`
	AutorNombre            string         `json:"autorNombre,omitempty"`
}

// CreateContent handles POST /api/v1/contenidos.
// The author is taken from the authenticated API key, never from the body.
func (h *Handler) CreateContent(w http.ResponseWriter, r *http.Request) {
	apiKey := middleware.GetAPIKey(r)
	if apiKey == nil {
		middleware.WriteAPIError(w, http.StatusUnauthorized, "API key required", nil)
		return
	}

	var req CreateContentRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body")
		return
	}

	authorName := req.AutorNombre
	if authorName == "" {
		authorName = apiKey.AuthorLabel()
	}
	keyID := apiKey.ID

	result, err := h.publisher.Publish(r.Context(), service.PublishInput{
		Title:          req.Titulo,
		Body:           req.Contenido,
		Excerpt:        req.Extracto,
		Kind:           req.Tipo,
		OriginLanguage: req.IdiomaOrigen,
		Communities:    req.Comunidades,
		PublishNow:     req.PublicarInmediatamente,
		Metadata:       req.Metadatos,
		AuthorID:       apiKey.AuthorID,
		AuthorName:     authorName,
		APIKeyID:       &keyID,
	})
	if err != nil {
		var ve *service.ValidationError
		if errors.As(err, &ve) {
			WriteValidationError(w, ve.Fields)
			return
		}
		h.logger.Error("failed to publish content", "error", err, "api_key_id", keyID)
		WriteInternalError(w, "Error al publicar el contenido")
		return
	}

	message := "Contenido guardado como borrador"
	if req.PublicarInmediatamente {
		message = "Contenido publicado en " + strconv.Itoa(len(result.Publications)) + " ubicaciones"
	}
	WriteCreated(w, result, message)
}

// ListContents handles GET /api/v1/contenidos.
// Query parameters: tipo, estado, limit, offset.
func (h *Handler) ListContents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := service.ListFilter{
		Kind:  q.Get("tipo"),
		State: q.Get("estado"),
	}
	if filter.Kind != "" && !model.IsContentKind(filter.Kind) {
		WriteBadRequest(w, "Unknown tipo: "+filter.Kind)
		return
	}
	if filter.State != "" && filter.State != model.ContentStateDraft && filter.State != model.ContentStatePublished {
		WriteBadRequest(w, "Unknown estado: "+filter.State)
		return
	}

	var ok bool
	if filter.Limit, ok = queryInt(w, r, "limit"); !ok {
		return
	}
	if filter.Offset, ok = queryInt(w, r, "offset"); !ok {
		return
	}

	result, err := h.publisher.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list contents", "error", err)
		WriteInternalError(w, "Failed to list contents")
		return
	}

	WriteSuccess(w, result.Items, &Pagination{
		Total:   result.Total,
		Limit:   result.Limit,
		Offset:  result.Offset,
		HasMore: result.HasMore(),
	})
}

// GetContent handles GET /api/v1/contenidos/{id}.
func (h *Handler) GetContent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	detail, err := h.publisher.Get(r.Context(), id)
	if errors.Is(err, service.ErrContentNotFound) {
		WriteNotFound(w, "Content not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to get content", "error", err, "content_id", id)
		WriteInternalError(w, "Failed to retrieve content")
		return
	}

	WriteSuccess(w, detail, nil)
}

// queryInt parses an optional integer query parameter. An empty value is 0;
// anything non-numeric writes a 400 and returns false.
func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		WriteBadRequest(w, "Invalid "+name+" parameter")
		return 0, false
	}
	return n, true
}
