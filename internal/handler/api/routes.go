// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lapublica/contenidos/internal/middleware"
	"github.com/lapublica/contenidos/internal/model"
)

// API routes, relative to the /api/v1 mount point.
const (
	RouteContents    = "/contenidos"
	RouteContentsID  = "/contenidos/{id}"
	RouteCommunities = "/comunidades"
	RouteEvents      = "/eventos"
)

// RouterConfig configures the API router.
type RouterConfig struct {
	Keys   middleware.KeyAuthenticator
	Logger *slog.Logger

	// RateLimit and RateBurst bound requests per API key; zero disables.
	RateLimit float64
	RateBurst int

	// IPRateLimit and IPRateBurst bound requests per client IP before
	// authentication; zero disables.
	IPRateLimit float64
	IPRateBurst int

	// Timeout caps each request, translation calls included; zero disables.
	Timeout time.Duration
}

// Router builds the /api/v1 router.
func (h *Handler) Router(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.IPRateLimit(cfg.IPRateLimit, cfg.IPRateBurst))
	if cfg.Timeout > 0 {
		r.Use(middleware.Timeout(cfg.Timeout))
	}
	r.Use(middleware.APIKeyAuth(cfg.Keys, cfg.Logger))
	r.Use(middleware.APIRateLimit(cfg.RateLimit, cfg.RateBurst))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteAPIError(w, http.StatusNotFound, "Not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteAPIError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequirePermission(model.PermissionContentRead))
		r.Get(RouteContents, h.ListContents)
		r.Get(RouteContentsID, h.GetContent)
		r.Get(RouteCommunities, h.ListCommunities)
	})

	r.With(middleware.RequirePermission(model.PermissionContentWrite)).
		Post(RouteContents, h.CreateContent)

	r.With(middleware.RequirePermission(model.PermissionEventsRead)).
		Get(RouteEvents, h.ListEvents)

	return r
}
