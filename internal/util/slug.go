// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util provides general-purpose utility functions including
// URL slug generation and validation with Unicode normalization support.
package util

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// nonSlugRun matches any run of characters outside [a-z0-9]
	nonSlugRun = regexp.MustCompile(`[^a-z0-9]+`)
	// langCode matches a two-letter lowercase language code
	langCode = regexp.MustCompile(`^[a-z]{2}$`)
)

// Slugify converts a string to a URL-friendly slug.
// It strips diacritics (NFD + combining mark removal), lowercases, collapses
// every run of characters outside [a-z0-9] into one hyphen and trims hyphens
// from both ends. Titles made only of symbols or non-Latin script yield "".
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)

	result = strings.ToLower(result)
	result = nonSlugRun.ReplaceAllString(result, "-")

	return strings.Trim(result, "-")
}

// TransliteratedSlug slugifies s after transliterating it to ASCII, so
// Cyrillic, Greek or CJK titles still produce a usable slug.
func TransliteratedSlug(s string) string {
	return Slugify(unidecode.Unidecode(s))
}

// IsValidSlug checks if a string is a valid slug format.
func IsValidSlug(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-') {
			return false
		}
	}

	if s[0] == '-' || s[len(s)-1] == '-' {
		return false
	}

	return !strings.Contains(s, "--")
}

// IsValidLangCode reports whether s is a two-letter lowercase language code.
func IsValidLangCode(s string) bool {
	return langCode.MatchString(s)
}
