// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/lapublica/contenidos/internal/model"
	"github.com/lapublica/contenidos/internal/store"
	"github.com/lapublica/contenidos/internal/util"
)

// API key lookup failures.
var (
	ErrAPIKeyNotFound = errors.New("invalid API key")
	ErrAPIKeyInactive = errors.New("API key is inactive")
	ErrAPIKeyExpired  = errors.New("API key has expired")
)

// APIKeyService issues and authenticates author API keys.
type APIKeyService struct {
	queries *store.Queries
}

// NewAPIKeyService creates a new APIKeyService.
func NewAPIKeyService(db *sql.DB) *APIKeyService {
	return &APIKeyService{queries: store.New(db)}
}

// CreateAPIKeyInput describes a key to issue.
type CreateAPIKeyInput struct {
	Name        string     `json:"name"`
	AuthorID    string     `json:"author_id"`
	AuthorEmail string     `json:"author_email"`
	Permissions []string   `json:"permissions"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// Create stores a new key and returns the raw key, which is not recoverable later.
func (s *APIKeyService) Create(ctx context.Context, in CreateAPIKeyInput) (string, *model.APIKey, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.AuthorID = strings.TrimSpace(in.AuthorID)
	if len(in.Permissions) == 0 {
		in.Permissions = model.AllPermissions()
	}

	err := validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&in.AuthorID, validation.Required),
		validation.Field(&in.AuthorEmail, is.EmailFormat),
		validation.Field(&in.Permissions, validation.Each(validation.In(permissionValues()...))),
	)
	if err != nil {
		return "", nil, err
	}

	rawKey, prefix, err := model.GenerateAPIKey()
	if err != nil {
		return "", nil, fmt.Errorf("generating key: %w", err)
	}

	now := time.Now().UTC()
	expires := util.NullTimeFromPtr(in.ExpiresAt)
	expires.Time = expires.Time.UTC()

	row, err := s.queries.CreateAPIKey(ctx, store.CreateAPIKeyParams{
		Name:        in.Name,
		KeyHash:     model.HashAPIKey(rawKey),
		KeyPrefix:   prefix,
		Permissions: model.PermissionsToJSON(in.Permissions),
		AuthorID:    in.AuthorID,
		AuthorEmail: in.AuthorEmail,
		ExpiresAt:   expires,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return "", nil, fmt.Errorf("creating api key: %w", err)
	}

	key := apiKeyFromRow(row)
	return rawKey, &key, nil
}

// Authenticate resolves a raw key to an active, unexpired APIKey.
func (s *APIKeyService) Authenticate(ctx context.Context, rawKey string) (*model.APIKey, error) {
	row, err := s.queries.GetAPIKeyByHash(ctx, model.HashAPIKey(rawKey))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAPIKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("looking up api key: %w", err)
	}

	key := apiKeyFromRow(row)
	if !key.IsActive {
		return nil, ErrAPIKeyInactive
	}
	if key.ExpiredAt(time.Now()) {
		return nil, ErrAPIKeyExpired
	}
	return &key, nil
}

// Touch records that a key was just used.
func (s *APIKeyService) Touch(ctx context.Context, id int64) error {
	return s.queries.UpdateAPIKeyLastUsed(ctx, store.UpdateAPIKeyLastUsedParams{
		LastUsedAt: sql.NullTime{Time: time.Now().UTC(), Valid: true},
		ID:         id,
	})
}

func apiKeyFromRow(r store.ApiKey) model.APIKey {
	return model.APIKey{
		ID:          r.ID,
		Name:        r.Name,
		KeyHash:     r.KeyHash,
		KeyPrefix:   r.KeyPrefix,
		Permissions: r.Permissions,
		AuthorID:    r.AuthorID,
		AuthorEmail: r.AuthorEmail,
		LastUsedAt:  r.LastUsedAt,
		ExpiresAt:   r.ExpiresAt,
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func permissionValues() []any {
	perms := model.AllPermissions()
	out := make([]any, len(perms))
	for i, p := range perms {
		out[i] = p
	}
	return out
}
