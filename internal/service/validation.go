// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"errors"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/lapublica/contenidos/internal/model"
	"github.com/lapublica/contenidos/internal/util"
)

// Field limits for publish requests.
const (
	MaxTitleLength   = 255
	MaxExcerptLength = 500
	MaxCommunities   = 32
)

// ValidationError reports invalid publish input. Fields maps request field
// names to messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IsValidationError reports whether err is or wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func validatePublishInput(in PublishInput) error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.RuneLength(1, MaxTitleLength)),
		validation.Field(&in.Body, validation.Required),
		validation.Field(&in.Excerpt, validation.RuneLength(0, MaxExcerptLength)),
		validation.Field(&in.Kind, validation.Required, validation.In(contentKinds()...)),
		validation.Field(&in.OriginLanguage, validation.Required, validation.By(languageCode)),
		validation.Field(&in.Communities, validation.Required, validation.Length(1, MaxCommunities),
			validation.Each(validation.Required, validation.By(communitySlug))),
		validation.Field(&in.AuthorID, validation.Required),
	)
	if err == nil {
		return nil
	}

	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err
	}
	fields := make(map[string]string, len(errs))
	for field, fieldErr := range errs {
		fields[field] = fieldErr.Error()
	}
	return &ValidationError{Fields: fields}
}

func communitySlug(value any) error {
	s, _ := value.(string)
	if s != "" && !util.IsValidSlug(s) {
		return validation.NewError("validation_community_format", "must be a lowercase community identifier")
	}
	return nil
}

func languageCode(value any) error {
	s, _ := value.(string)
	if s != "" && !util.IsValidLangCode(s) {
		return validation.NewError("validation_lang_code", "must be a two-letter lowercase language code")
	}
	return nil
}

func contentKinds() []any {
	kinds := model.ContentKinds()
	out := make([]any, len(kinds))
	for i, k := range kinds {
		out[i] = k
	}
	return out
}
