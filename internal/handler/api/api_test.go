// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lapublica/contenidos/internal/community"
	"github.com/lapublica/contenidos/internal/middleware"
	"github.com/lapublica/contenidos/internal/model"
	"github.com/lapublica/contenidos/internal/service"
	"github.com/lapublica/contenidos/internal/testutil"
	"github.com/lapublica/contenidos/internal/translate"
)

// testEnv is a fully wired API backed by a temporary database and a
// translation gateway without a provider, so every translation falls back.
type testEnv struct {
	router   http.Handler
	writeKey string
	readKey  string
}

func setupAPI(t *testing.T) *testEnv {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	logger := testutil.TestLoggerSilent()
	registry := community.NewRegistry(community.Config{})
	events := service.NewEventService(db, logger)
	publisher := service.NewPublisher(service.PublisherConfig{
		DB:         db,
		Registry:   registry,
		Translator: translate.NewGateway(translate.Config{Logger: logger}),
		Events:     events,
		Logger:     logger,
	})

	keys := service.NewAPIKeyService(db)
	writeKey, _, err := keys.Create(context.Background(), service.CreateAPIKeyInput{
		Name:        "editor",
		AuthorID:    "autor-42",
		AuthorEmail: "editora@lapublica.cat",
	})
	require.NoError(t, err)
	readKey, _, err := keys.Create(context.Background(), service.CreateAPIKeyInput{
		Name:        "lector",
		AuthorID:    "autor-7",
		Permissions: []string{model.PermissionContentRead},
	})
	require.NoError(t, err)

	h := NewHandler(publisher, registry, events, logger)
	r := chi.NewRouter()
	r.Mount("/api/v1", h.Router(RouterConfig{Keys: keys, Logger: logger}))

	return &testEnv{router: r, writeKey: writeKey, readKey: readKey}
}

func (e *testEnv) do(t *testing.T, method, path, key string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// createResponse mirrors the JSON shape of a successful publish.
type createResponse struct {
	Success bool                  `json:"success"`
	Data    service.PublishResult `json:"data"`
	Message string                `json:"mensaje"`
}

type listResponse struct {
	Success    bool                    `json:"success"`
	Data       []service.ContentDetail `json:"data"`
	Pagination Pagination              `json:"pagination"`
}

func publishBody(title string, communities ...string) map[string]any {
	return map[string]any{
		"titulo":                 title,
		"contenido":              "<p>Contingut de prova</p>",
		"tipo":                   model.ContentKindBlog,
		"idiomaOrigen":           "es",
		"comunidades":            communities,
		"publicarInmediatamente": true,
	}
}

func decodeAPIError(t *testing.T, w *httptest.ResponseRecorder) middleware.APIError {
	t.Helper()
	var resp middleware.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	assert.False(t, resp.Success)
	return resp
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusAccepted, map[string]string{"key": "value"})

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"key":"value"}`, w.Body.String())
}

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, []int{1, 2}, &Pagination{Total: 5, Limit: 2, Offset: 0, HasMore: true})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t,
		`{"success":true,"data":[1,2],"pagination":{"total":5,"limit":2,"offset":0,"hasMore":true}}`,
		w.Body.String())
}

func TestWriteCreated(t *testing.T) {
	w := httptest.NewRecorder()
	WriteCreated(w, map[string]string{"id": "x"}, "hecho")

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"id":"x"},"mensaje":"hecho"}`, w.Body.String())
}

func TestWriteValidationError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteValidationError(w, map[string]string{"titulo": "cannot be blank"})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decodeAPIError(t, w)
	assert.Equal(t, "cannot be blank", resp.Details["titulo"])
}

func TestCreateContent(t *testing.T) {
	env := setupAPI(t)

	w := env.do(t, http.MethodPost, "/api/v1/contenidos", env.writeKey,
		publishBody("Nova política pública", "cataluna", "madrid"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp createResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Data.ContentID)
	assert.Equal(t, 1, resp.Data.TranslationsCreated)
	assert.Equal(t, "Contenido publicado en 3 ubicaciones", resp.Message)

	urls := make(map[string]string)
	for _, p := range resp.Data.Publications {
		urls[p.Community+"/"+p.Language] = p.URL
	}
	assert.Equal(t, map[string]string{
		"cataluna/ca": "https://lapublica.cat/ca/blog/nova-politica-publica",
		"cataluna/es": "https://lapublica.cat/blog/nova-politica-publica",
		"madrid/es":   "https://madrid.lapublica.es/blog/nova-politica-publica",
	}, urls)

	// The author comes from the API key.
	w = env.do(t, http.MethodGet, "/api/v1/contenidos/"+resp.Data.ContentID, env.readKey, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var detail struct {
		Data service.ContentDetail `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, "autor-42", detail.Data.AuthorID)
	assert.Equal(t, "editora@lapublica.cat", detail.Data.AuthorName)
	assert.Equal(t, model.ContentStatePublished, detail.Data.State)
	require.Len(t, detail.Data.Translations, 1)
	assert.Equal(t, "[CA] Nova política pública", detail.Data.Translations[0].Title)
	assert.Len(t, detail.Data.Publications, 3)
}

func TestCreateContent_Draft(t *testing.T) {
	env := setupAPI(t)

	body := publishBody("Borrador", "madrid")
	body["publicarInmediatamente"] = false
	body["autorNombre"] = "Redacción"

	w := env.do(t, http.MethodPost, "/api/v1/contenidos", env.writeKey, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp createResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Contenido guardado como borrador", resp.Message)
	assert.Equal(t, 0, resp.Data.TranslationsCreated)
}

func TestCreateContent_InvalidJSON(t *testing.T) {
	env := setupAPI(t)

	w := env.do(t, http.MethodPost, "/api/v1/contenidos", env.writeKey, "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid JSON body", decodeAPIError(t, w).Error)
}

func TestCreateContent_ValidationError(t *testing.T) {
	env := setupAPI(t)

	body := publishBody("", "cataluna")
	body["tipo"] = "podcast"
	body["idiomaOrigen"] = "español"

	w := env.do(t, http.MethodPost, "/api/v1/contenidos", env.writeKey, body)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	resp := decodeAPIError(t, w)
	assert.Contains(t, resp.Details, "titulo")
	assert.Contains(t, resp.Details, "tipo")
	assert.Contains(t, resp.Details, "idiomaOrigen")

	// Nothing was written.
	w = env.do(t, http.MethodGet, "/api/v1/contenidos", env.readKey, nil)
	var list listResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Zero(t, list.Pagination.Total)
}

func TestCreateContent_BodyWithoutText(t *testing.T) {
	env := setupAPI(t)

	body := publishBody("Només script", "cataluna")
	body["contenido"] = "<script>alert(1)</script>"

	w := env.do(t, http.MethodPost, "/api/v1/contenidos", env.writeKey, body)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	assert.Contains(t, decodeAPIError(t, w).Details, "contenido")

	w = env.do(t, http.MethodGet, "/api/v1/contenidos", env.readKey, nil)
	var list listResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Zero(t, list.Pagination.Total)
}

func TestCreateContent_Auth(t *testing.T) {
	env := setupAPI(t)
	body := publishBody("Sin permiso", "madrid")

	w := env.do(t, http.MethodPost, "/api/v1/contenidos", "", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Missing Authorization header", decodeAPIError(t, w).Error)

	w = env.do(t, http.MethodPost, "/api/v1/contenidos", "wrong-key", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/contenidos", env.readKey, body)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateContent_WithoutKeyInContext(t *testing.T) {
	h := NewHandler(nil, community.NewRegistry(community.Config{}), nil, testutil.TestLoggerSilent())

	w := httptest.NewRecorder()
	h.CreateContent(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{}")))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListContents(t *testing.T) {
	env := setupAPI(t)

	for _, title := range []string{"Primero", "Segundo", "Tercero"} {
		w := env.do(t, http.MethodPost, "/api/v1/contenidos", env.writeKey, publishBody(title, "madrid"))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
	draft := publishBody("Cuarto", "madrid")
	draft["publicarInmediatamente"] = false
	draft["tipo"] = model.ContentKindNoticia
	require.Equal(t, http.StatusCreated,
		env.do(t, http.MethodPost, "/api/v1/contenidos", env.writeKey, draft).Code)

	t.Run("page", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/contenidos?limit=2&offset=1", env.readKey, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp listResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Len(t, resp.Data, 2)
		assert.Equal(t, Pagination{Total: 4, Limit: 2, Offset: 1, HasMore: true}, resp.Pagination)
		for _, item := range resp.Data {
			assert.Len(t, item.Publications, 1)
		}
	})

	t.Run("filters", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/contenidos?estado=draft&tipo=noticia", env.readKey, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp listResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 1)
		assert.Equal(t, "Cuarto", resp.Data[0].Title)
		assert.False(t, resp.Pagination.HasMore)
	})

	t.Run("defaults", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/contenidos?limit=1000&offset=-3", env.readKey, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp listResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, service.MaxListLimit, resp.Pagination.Limit)
		assert.Equal(t, 0, resp.Pagination.Offset)
	})

	t.Run("bad parameters", func(t *testing.T) {
		for _, q := range []string{"?limit=abc", "?offset=x", "?tipo=podcast", "?estado=archived"} {
			w := env.do(t, http.MethodGet, "/api/v1/contenidos"+q, env.readKey, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code, q)
		}
	})
}

func TestGetContent_NotFound(t *testing.T) {
	env := setupAPI(t)

	w := env.do(t, http.MethodGet, "/api/v1/contenidos/does-not-exist", env.readKey, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Content not found", decodeAPIError(t, w).Error)
}

func TestListCommunities(t *testing.T) {
	env := setupAPI(t)

	w := env.do(t, http.MethodGet, "/api/v1/comunidades", env.readKey, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool                  `json:"success"`
		Data    []community.Community `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data)
	assert.Equal(t, "cataluna", resp.Data[0].ID)
	assert.Equal(t, []string{"ca", "es"}, resp.Data[0].Languages)
}

func TestListEvents(t *testing.T) {
	env := setupAPI(t)

	var ids []string
	for _, title := range []string{"Primero", "Segundo"} {
		w := env.do(t, http.MethodPost, "/api/v1/contenidos", env.writeKey, publishBody(title, "cataluna"))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var resp createResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		ids = append(ids, resp.Data.ContentID)
	}

	type eventsResponse struct {
		Success bool          `json:"success"`
		Data    []model.Event `json:"data"`
	}

	w := env.do(t, http.MethodGet, "/api/v1/eventos", env.writeKey, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var all eventsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	// One publish event and one fallback translation event per content.
	assert.Len(t, all.Data, 4)

	w = env.do(t, http.MethodGet, "/api/v1/eventos?contenido="+ids[0], env.writeKey, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var one eventsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &one))
	require.Len(t, one.Data, 2)
	for _, e := range one.Data {
		assert.Equal(t, ids[0], e.ContentID())
	}

	w = env.do(t, http.MethodGet, "/api/v1/eventos?limit=1", env.writeKey, nil)
	var limited eventsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &limited))
	assert.Len(t, limited.Data, 1)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/v1/eventos?limit=-1", env.writeKey, nil).Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/api/v1/eventos", env.readKey, nil).Code)
}

func TestRouter_UnknownRoute(t *testing.T) {
	env := setupAPI(t)

	w := env.do(t, http.MethodGet, "/api/v1/nada", env.readKey, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	decodeAPIError(t, w)
}

func TestRouter_RateLimit(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	keys := service.NewAPIKeyService(db)
	raw, _, err := keys.Create(context.Background(), service.CreateAPIKeyInput{Name: "rl", AuthorID: "a"})
	require.NoError(t, err)

	h := NewHandler(nil, community.NewRegistry(community.Config{}), nil, testutil.TestLoggerSilent())
	r := chi.NewRouter()
	r.Mount("/api/v1", h.Router(RouterConfig{Keys: keys, RateLimit: 1, RateBurst: 1}))
	env := &testEnv{router: r}

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/v1/comunidades", raw, nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, env.do(t, http.MethodGet, "/api/v1/comunidades", raw, nil).Code)
}
