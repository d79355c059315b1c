// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package community resolves the language set and public domain of each
// regional community and builds public URLs for published content.
package community

import (
	"strings"
)

// DefaultDomainTemplate is used for communities without a dedicated domain.
// The {community} placeholder is replaced by the community identifier.
const DefaultDomainTemplate = "{community}.lapublica.es"

// Community describes a regional tenant.
type Community struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Languages []string `json:"languages"`
	Domain    string   `json:"domain,omitempty"`
}

// defaultCommunities is the static community table.
// Every entry lists the platform default language (es).
var defaultCommunities = []Community{
	{ID: "cataluna", Name: "Catalunya", Languages: []string{"ca", "es"}, Domain: "lapublica.cat"},
	{ID: "valencia", Name: "Comunitat Valenciana", Languages: []string{"ca", "es"}},
	{ID: "baleares", Name: "Illes Balears", Languages: []string{"ca", "es"}},
	{ID: "galicia", Name: "Galicia", Languages: []string{"gl", "es"}, Domain: "lapublica.gal"},
	{ID: "pais-vasco", Name: "Euskadi", Languages: []string{"eu", "es"}, Domain: "lapublica.eus"},
	{ID: "navarra", Name: "Navarra", Languages: []string{"es", "eu"}},
	{ID: "madrid", Name: "Comunidad de Madrid", Languages: []string{"es"}},
	{ID: "andalucia", Name: "Andalucía", Languages: []string{"es"}},
	{ID: "aragon", Name: "Aragón", Languages: []string{"es"}},
	{ID: "asturias", Name: "Asturias", Languages: []string{"es"}},
	{ID: "canarias", Name: "Canarias", Languages: []string{"es"}},
	{ID: "cantabria", Name: "Cantabria", Languages: []string{"es"}},
	{ID: "castilla-la-mancha", Name: "Castilla-La Mancha", Languages: []string{"es"}},
	{ID: "castilla-y-leon", Name: "Castilla y León", Languages: []string{"es"}},
	{ID: "extremadura", Name: "Extremadura", Languages: []string{"es"}},
	{ID: "la-rioja", Name: "La Rioja", Languages: []string{"es"}},
	{ID: "murcia", Name: "Región de Murcia", Languages: []string{"es"}},
}

// Registry maps community identifiers to their languages and domains.
// A Registry is immutable after construction and safe for concurrent use.
type Registry struct {
	defaultLanguage string
	domainTemplate  string
	communities     []Community
	byID            map[string]Community
}

// Config configures a Registry.
type Config struct {
	// DefaultLanguage is the platform language; URLs in it carry no language prefix.
	DefaultLanguage string
	// DomainTemplate is used for communities without a dedicated domain.
	DomainTemplate string
	// Communities overrides the built-in community table when non-empty.
	Communities []Community
}

// NewRegistry creates a registry. Empty config fields fall back to "es",
// DefaultDomainTemplate and the built-in community table.
func NewRegistry(cfg Config) *Registry {
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = "es"
	}
	if cfg.DomainTemplate == "" {
		cfg.DomainTemplate = DefaultDomainTemplate
	}
	if len(cfg.Communities) == 0 {
		cfg.Communities = defaultCommunities
	}

	r := &Registry{
		defaultLanguage: cfg.DefaultLanguage,
		domainTemplate:  cfg.DomainTemplate,
		byID:            make(map[string]Community, len(cfg.Communities)),
	}
	for _, c := range cfg.Communities {
		c.Languages = dedupe(c.Languages)
		r.communities = append(r.communities, c)
		r.byID[c.ID] = c
	}
	return r
}

// DefaultLanguage returns the platform default language.
func (r *Registry) DefaultLanguage() string {
	return r.defaultLanguage
}

// Communities returns a copy of the community table.
func (r *Registry) Communities() []Community {
	out := make([]Community, len(r.communities))
	for i, c := range r.communities {
		c.Languages = append([]string(nil), c.Languages...)
		out[i] = c
	}
	return out
}

// Known reports whether id is a configured community.
func (r *Registry) Known(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// Languages returns the ordered, deduplicated languages required by a community.
// Unknown communities get the default language only.
func (r *Registry) Languages(id string) []string {
	c, ok := r.byID[id]
	if !ok || len(c.Languages) == 0 {
		return []string{r.defaultLanguage}
	}
	return append([]string(nil), c.Languages...)
}

// UnionLanguages returns the languages required across all communities,
// deduplicated in first-encounter order.
func (r *Registry) UnionLanguages(ids []string) []string {
	var all []string
	for _, id := range ids {
		all = append(all, r.Languages(id)...)
	}
	return dedupe(all)
}

// Domain returns the public host for a community.
func (r *Registry) Domain(id string) string {
	if c, ok := r.byID[id]; ok && c.Domain != "" {
		return c.Domain
	}
	return strings.ReplaceAll(r.domainTemplate, "{community}", id)
}

// PublicURL builds the public URL of a blog entry. The language prefix is
// omitted for the platform default language.
func (r *Registry) PublicURL(communityID, language, slug string) string {
	var sb strings.Builder
	sb.WriteString("https://")
	sb.WriteString(r.Domain(communityID))
	if language != r.defaultLanguage {
		sb.WriteString("/")
		sb.WriteString(language)
	}
	sb.WriteString("/blog/")
	sb.WriteString(slug)
	return sb.String()
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
