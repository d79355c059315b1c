// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the REST handlers for publishing and listing content.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/lapublica/contenidos/internal/community"
	"github.com/lapublica/contenidos/internal/middleware"
	"github.com/lapublica/contenidos/internal/service"
)

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	publisher *service.Publisher
	registry  *community.Registry
	events    *service.EventService
	logger    *slog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(publisher *service.Publisher, registry *community.Registry, events *service.EventService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		publisher: publisher,
		registry:  registry,
		events:    events,
		logger:    logger,
	}
}

// Response is the standard API response wrapper.
type Response struct {
	Success    bool        `json:"success"`
	Data       any         `json:"data,omitempty"`
	Message    string      `json:"mensaje,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination describes the page of a list response.
type Pagination struct {
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	HasMore bool  `json:"hasMore"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any, pagination *Pagination) {
	WriteJSON(w, http.StatusOK, Response{
		Success:    true,
		Data:       data,
		Pagination: pagination,
	})
}

// WriteCreated writes a 201 Created JSON response.
func WriteCreated(w http.ResponseWriter, data any, message string) {
	WriteJSON(w, http.StatusCreated, Response{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string) {
	middleware.WriteAPIError(w, http.StatusBadRequest, message, nil)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	middleware.WriteAPIError(w, http.StatusNotFound, message, nil)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	middleware.WriteAPIError(w, http.StatusInternalServerError, message, nil)
}

// WriteValidationError writes a 422 Unprocessable Entity response with field errors.
func WriteValidationError(w http.ResponseWriter, fieldErrors map[string]string) {
	middleware.WriteAPIError(w, http.StatusUnprocessableEntity, "Datos de entrada no válidos", fieldErrors)
}

// ListCommunities handles GET /api/v1/comunidades.
func (h *Handler) ListCommunities(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, h.registry.Communities(), nil)
}
