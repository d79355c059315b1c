// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"slices"
	"time"
)

// API permissions
const (
	PermissionContentRead  = "contenidos:read"
	PermissionContentWrite = "contenidos:write"
	PermissionEventsRead   = "eventos:read"
)

// Raw keys look like "lp_" followed by 43 URL-safe characters. The first
// APIKeyPrefixLength characters are stored in clear so an operator can tell
// keys apart without the secret.
const (
	apiKeyScheme       = "lp_"
	apiKeyEntropyBytes = 32
	APIKeyPrefixLength = len(apiKeyScheme) + 8
)

// APIKey represents an API authentication key issued to an author.
// AuthorID and AuthorEmail identify who publishes through the key.
type APIKey struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	KeyHash     string       `json:"-"`
	KeyPrefix   string       `json:"key_prefix"`
	Permissions string       `json:"-"` // JSON array stored as string
	AuthorID    string       `json:"author_id"`
	AuthorEmail string       `json:"author_email"`
	LastUsedAt  sql.NullTime `json:"last_used_at,omitempty"`
	ExpiresAt   sql.NullTime `json:"expires_at,omitempty"`
	IsActive    bool         `json:"is_active"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// GenerateAPIKey returns a fresh raw key and its display prefix.
func GenerateAPIKey() (rawKey, prefix string, err error) {
	secret := make([]byte, apiKeyEntropyBytes)
	if _, err := rand.Read(secret); err != nil {
		return "", "", err
	}
	rawKey = apiKeyScheme + base64.RawURLEncoding.EncodeToString(secret)
	return rawKey, rawKey[:APIKeyPrefixLength], nil
}

// HashAPIKey returns the hex SHA-256 digest stored in place of the raw key.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// GetPermissions decodes the stored permission list; malformed JSON grants nothing.
func (k *APIKey) GetPermissions() []string {
	var perms []string
	if err := json.Unmarshal([]byte(k.Permissions), &perms); err != nil || perms == nil {
		return []string{}
	}
	return perms
}

// HasPermission reports whether the key grants perm.
func (k *APIKey) HasPermission(perm string) bool {
	return slices.Contains(k.GetPermissions(), perm)
}

// ExpiredAt reports whether the key had expired at now. Keys without an
// expiry never expire.
func (k *APIKey) ExpiredAt(now time.Time) bool {
	return k.ExpiresAt.Valid && !now.Before(k.ExpiresAt.Time)
}

// AuthorLabel is the author name used when a publish request gives none.
func (k *APIKey) AuthorLabel() string {
	if k.AuthorEmail != "" {
		return k.AuthorEmail
	}
	return k.Name
}

// PermissionsToJSON encodes perms for storage.
func PermissionsToJSON(perms []string) string {
	if len(perms) == 0 {
		return "[]"
	}
	data, _ := json.Marshal(perms)
	return string(data)
}
