// Package middleware provides HTTP middleware for API key authentication,
// permission checks, rate limiting and request hardening.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/lapublica/contenidos/internal/model"
	"github.com/lapublica/contenidos/internal/service"
)

// ContextKey is the type for request context keys set by this package.
type ContextKey string

// ContextKeyAPIKey is the context key for API key data.
const ContextKeyAPIKey ContextKey = "api_key"

// maxLimiters bounds the per-key limiter map before it is reset.
const maxLimiters = 10000

// APIError is the JSON error envelope returned by every API endpoint.
type APIError struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Details map[string]string `json:"detalles,omitempty"`
}

// WriteAPIError writes a JSON error response.
func WriteAPIError(w http.ResponseWriter, statusCode int, message string, details map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	_ = json.NewEncoder(w).Encode(APIError{
		Success: false,
		Error:   message,
		Details: details,
	})
}

// KeyAuthenticator resolves raw API keys.
type KeyAuthenticator interface {
	Authenticate(ctx context.Context, rawKey string) (*model.APIKey, error)
	Touch(ctx context.Context, id int64) error
}

// APIKeyAuth creates middleware that validates Bearer API keys and stores
// the resolved key in the request context.
func APIKeyAuth(keys KeyAuthenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				WriteAPIError(w, http.StatusUnauthorized, "Missing Authorization header", nil)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				WriteAPIError(w, http.StatusUnauthorized, "Invalid Authorization header format. Use: Bearer <api_key>", nil)
				return
			}

			rawKey := strings.TrimSpace(parts[1])
			if rawKey == "" {
				WriteAPIError(w, http.StatusUnauthorized, "API key is empty", nil)
				return
			}

			apiKey, err := keys.Authenticate(r.Context(), rawKey)
			switch {
			case err == nil:
			case errors.Is(err, service.ErrAPIKeyNotFound),
				errors.Is(err, service.ErrAPIKeyInactive),
				errors.Is(err, service.ErrAPIKeyExpired):
				logger.Warn("api key rejected", "reason", err.Error(), "ip", clientIP(r))
				WriteAPIError(w, http.StatusUnauthorized, err.Error(), nil)
				return
			default:
				logger.Error("failed to validate API key", "error", err)
				WriteAPIError(w, http.StatusInternalServerError, "Failed to validate API key", nil)
				return
			}

			touchAPIKey(keys, apiKey.ID)

			ctx := context.WithValue(r.Context(), ContextKeyAPIKey, *apiKey)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// touchAPIKey updates the last used timestamp in a background goroutine.
func touchAPIKey(keys KeyAuthenticator, id int64) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = keys.Touch(ctx, id)
	}()
}

// GetAPIKey retrieves the API key from the request context.
// Returns nil if no API key is in context.
func GetAPIKey(r *http.Request) *model.APIKey {
	apiKey, ok := r.Context().Value(ContextKeyAPIKey).(model.APIKey)
	if !ok {
		return nil
	}
	return &apiKey
}

// WithAPIKey returns a copy of ctx carrying apiKey.
func WithAPIKey(ctx context.Context, apiKey model.APIKey) context.Context {
	return context.WithValue(ctx, ContextKeyAPIKey, apiKey)
}

// RequirePermission creates middleware that requires a specific API permission.
// This should be used after APIKeyAuth middleware.
func RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := GetAPIKey(r)
			if apiKey == nil {
				WriteAPIError(w, http.StatusUnauthorized, "API key required", nil)
				return
			}

			if !apiKey.HasPermission(permission) {
				WriteAPIError(w, http.StatusForbidden, "API key lacks required permission: "+permission, nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// limiterCache is a generic rate limiter cache with double-check locking.
type limiterCache[K comparable] struct {
	limiters map[K]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
}

// newLimiterCache creates a new limiter cache.
func newLimiterCache[K comparable](rps float64, burst int) *limiterCache[K] {
	return &limiterCache[K]{
		limiters: make(map[K]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
	}
}

// get returns the rate limiter for a specific key, creating one if needed.
func (lc *limiterCache[K]) get(key K) *rate.Limiter {
	lc.mu.RLock()
	limiter, exists := lc.limiters[key]
	lc.mu.RUnlock()

	if exists {
		return limiter
	}

	lc.mu.Lock()
	defer lc.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists = lc.limiters[key]; exists {
		return limiter
	}

	if len(lc.limiters) >= maxLimiters {
		lc.limiters = make(map[K]*rate.Limiter)
	}
	limiter = rate.NewLimiter(lc.rate, lc.burst)
	lc.limiters[key] = limiter
	return limiter
}

// APIRateLimit creates middleware that rate limits requests per API key.
// rps is requests per second, burst is the maximum burst size. A zero rps
// disables limiting.
func APIRateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	if rps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	cache := newLimiterCache[int64](rps, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := GetAPIKey(r)
			if apiKey == nil {
				next.ServeHTTP(w, r)
				return
			}

			if !cache.get(apiKey.ID).Allow() {
				WriteAPIError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please slow down.", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// IPRateLimit creates middleware that rate limits requests per client IP.
// It runs before authentication to slow down key guessing.
func IPRateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	if rps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	cache := newLimiterCache[string](rps, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cache.get(clientIP(r)).Allow() {
				WriteAPIError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please slow down.", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP returns the request's remote host. Proxy headers are resolved
// upstream by chi's RealIP middleware.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
