// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "testing"

func TestIsContentKind(t *testing.T) {
	tests := []struct {
		kind string
		want bool
	}{
		{ContentKindNoticia, true},
		{ContentKindBlog, true},
		{ContentKindEvento, true},
		{"Noticia", false},
		{"", false},
		{"podcast", false},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			if got := IsContentKind(tt.kind); got != tt.want {
				t.Errorf("IsContentKind(%q) = %v, want %v", tt.kind, got, tt.want)
			}
		})
	}
}

func TestTranslationKey(t *testing.T) {
	got := TranslationKey("abc", "ca")
	if got != "content_abc_ca" {
		t.Errorf("TranslationKey() = %q, want %q", got, "content_abc_ca")
	}
}

func TestMetadataJSON(t *testing.T) {
	if got := MetadataToJSON(nil); got != "{}" {
		t.Errorf("MetadataToJSON(nil) = %q, want {}", got)
	}

	s := MetadataToJSON(map[string]any{"formato": "markdown"})
	m := MetadataFromJSON(s)
	if m["formato"] != "markdown" {
		t.Errorf("MetadataFromJSON(%q)[formato] = %v, want markdown", s, m["formato"])
	}

	if m := MetadataFromJSON("not json"); m != nil {
		t.Errorf("MetadataFromJSON(invalid) = %v, want nil", m)
	}
}

func TestContentIsPublished(t *testing.T) {
	c := &Content{State: ContentStatePublished}
	if !c.IsPublished() {
		t.Error("IsPublished() = false, want true")
	}
	c.State = ContentStateDraft
	if c.IsPublished() {
		t.Error("IsPublished() = true for draft")
	}
}
