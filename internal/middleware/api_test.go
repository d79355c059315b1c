// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lapublica/contenidos/internal/model"
	"github.com/lapublica/contenidos/internal/service"
	"github.com/lapublica/contenidos/internal/store"
	"github.com/lapublica/contenidos/internal/testutil"
)

// setupTestDB creates an in-memory database with the schema applied.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	// A single connection keeps the in-memory database shared.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if err := store.Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

// simpleOKHandler returns an http.Handler that writes 200 OK.
var simpleOKHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

// executeAuthRequest creates a test request with an auth header and executes it.
func executeAuthRequest(handler http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/contenidos", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

// executeWithAPIKey creates a test request with an API key in context and executes it.
func executeWithAPIKey(handler http.Handler, apiKey model.APIKey) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/contenidos", nil)
	req = req.WithContext(WithAPIKey(req.Context(), apiKey))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

// createKey issues a key through the service and returns the raw value.
func createKey(t *testing.T, keys *service.APIKeyService, perms []string, expiresAt *time.Time) (string, *model.APIKey) {
	t.Helper()
	raw, key, err := keys.Create(context.Background(), service.CreateAPIKeyInput{
		Name:        "test",
		AuthorID:    "author-1",
		AuthorEmail: "autor@lapublica.cat",
		Permissions: perms,
		ExpiresAt:   expiresAt,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return raw, key
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) APIError {
	t.Helper()
	var body APIError
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not a JSON error envelope: %v (%s)", err, w.Body.String())
	}
	return body
}

func TestWriteAPIError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteAPIError(w, http.StatusUnprocessableEntity, "Datos inválidos", map[string]string{"titulo": "cannot be blank"})

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	body := decodeError(t, w)
	if body.Success {
		t.Error("success = true")
	}
	if body.Error != "Datos inválidos" {
		t.Errorf("error = %q", body.Error)
	}
	if body.Details["titulo"] != "cannot be blank" {
		t.Errorf("detalles = %v", body.Details)
	}
}

func TestAPIKeyAuth_Rejections(t *testing.T) {
	db := setupTestDB(t)
	keys := service.NewAPIKeyService(db)
	handler := APIKeyAuth(keys, testutil.TestLoggerSilent())(simpleOKHandler)

	past := time.Now().Add(-time.Hour)
	expired, _ := createKey(t, keys, nil, &past)
	inactive, inactiveKey := createKey(t, keys, nil, nil)
	if _, err := db.Exec(`UPDATE api_keys SET is_active = 0 WHERE id = ?`, inactiveKey.ID); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"missing header", "", "Missing Authorization header"},
		{"basic scheme", "Basic abc", "Invalid Authorization header format. Use: Bearer <api_key>"},
		{"no token", "Bearer", "Invalid Authorization header format. Use: Bearer <api_key>"},
		{"empty token", "Bearer  ", "API key is empty"},
		{"unknown key", "Bearer nope", "invalid API key"},
		{"expired key", "Bearer " + expired, "API key has expired"},
		{"inactive key", "Bearer " + inactive, "API key is inactive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := executeAuthRequest(handler, tt.header)
			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", w.Code)
			}
			if body := decodeError(t, w); body.Error != tt.want {
				t.Errorf("error = %q, want %q", body.Error, tt.want)
			}
		})
	}
}

func TestAPIKeyAuth_ValidKey(t *testing.T) {
	db := setupTestDB(t)
	keys := service.NewAPIKeyService(db)
	raw, issued := createKey(t, keys, []string{model.PermissionContentRead}, nil)

	var captured *model.APIKey
	handler := APIKeyAuth(keys, testutil.TestLoggerSilent())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetAPIKey(r)
		w.WriteHeader(http.StatusOK)
	}))

	w := executeAuthRequest(handler, "bearer "+raw)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", w.Code, w.Body.String())
	}
	if captured == nil {
		t.Fatal("API key not stored in context")
	}
	if captured.ID != issued.ID || captured.AuthorID != "author-1" || captured.AuthorEmail != "autor@lapublica.cat" {
		t.Errorf("captured = %+v", captured)
	}
}

type failingAuthenticator struct{}

func (failingAuthenticator) Authenticate(context.Context, string) (*model.APIKey, error) {
	return nil, sql.ErrConnDone
}
func (failingAuthenticator) Touch(context.Context, int64) error { return nil }

func TestAPIKeyAuth_StorageError(t *testing.T) {
	handler := APIKeyAuth(failingAuthenticator{}, testutil.TestLoggerSilent())(simpleOKHandler)

	w := executeAuthRequest(handler, "Bearer something")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestGetAPIKey_NoKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if GetAPIKey(req) != nil {
		t.Error("GetAPIKey returned a key for a bare request")
	}
}

func TestRequirePermission(t *testing.T) {
	handler := RequirePermission(model.PermissionContentWrite)(simpleOKHandler)

	t.Run("no key", func(t *testing.T) {
		w := executeAuthRequest(handler, "")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("has permission", func(t *testing.T) {
		key := model.APIKey{ID: 1, Permissions: model.PermissionsToJSON(model.AllPermissions())}
		if w := executeWithAPIKey(handler, key); w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})

	t.Run("lacks permission", func(t *testing.T) {
		key := model.APIKey{ID: 1, Permissions: `["contenidos:read"]`}
		w := executeWithAPIKey(handler, key)
		if w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", w.Code)
		}
		if body := decodeError(t, w); body.Error != "API key lacks required permission: contenidos:write" {
			t.Errorf("error = %q", body.Error)
		}
	})

	t.Run("empty permissions", func(t *testing.T) {
		if w := executeWithAPIKey(handler, model.APIKey{ID: 1, Permissions: "[]"}); w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})
}

func TestAPIRateLimit(t *testing.T) {
	handler := APIRateLimit(2, 2)(simpleOKHandler)

	for i := range 2 {
		if w := executeWithAPIKey(handler, model.APIKey{ID: 1}); w.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want 200", i, w.Code)
		}
	}

	w := executeWithAPIKey(handler, model.APIKey{ID: 1})
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", w.Code)
	}
	if body := decodeError(t, w); body.Success {
		t.Error("success = true on 429")
	}

	// Other keys have their own bucket.
	if w := executeWithAPIKey(handler, model.APIKey{ID: 2}); w.Code != http.StatusOK {
		t.Errorf("key 2 status = %d, want 200", w.Code)
	}

	// Requests without a key pass through.
	if w := executeAuthRequest(handler, ""); w.Code != http.StatusOK {
		t.Errorf("anonymous status = %d, want 200", w.Code)
	}
}

func TestAPIRateLimit_Disabled(t *testing.T) {
	handler := APIRateLimit(0, 0)(simpleOKHandler)
	for range 10 {
		if w := executeWithAPIKey(handler, model.APIKey{ID: 1}); w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
	}
}

func TestIPRateLimit(t *testing.T) {
	handler := IPRateLimit(1, 1)(simpleOKHandler)

	serve := func(remote string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	if code := serve("10.0.0.1:1234"); code != http.StatusOK {
		t.Errorf("first = %d, want 200", code)
	}
	if code := serve("10.0.0.1:5678"); code != http.StatusTooManyRequests {
		t.Errorf("second from same IP = %d, want 429", code)
	}
	if code := serve("10.0.0.2:1234"); code != http.StatusOK {
		t.Errorf("other IP = %d, want 200", code)
	}
}

func TestLimiterCacheResetsWhenFull(t *testing.T) {
	lc := newLimiterCache[int](1, 1)
	for i := range maxLimiters {
		lc.get(i)
	}
	lc.get(maxLimiters)
	if n := len(lc.limiters); n != 1 {
		t.Errorf("limiters = %d after reset, want 1", n)
	}
}
