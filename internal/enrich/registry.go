// Package enrich maps template form fields to business-domain keys.
//
// Each template category carries a static table keyed by raw placeholder
// token (e.g. "{{poste}}") that tells downstream document-filling logic
// which domain value a field feeds. The tables are compiled in and
// immutable at runtime; categories without a table (including the default
// category) pass fields through untouched.
package enrich

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Mapping links one placeholder token to a business key.
type Mapping struct {
	BusinessKey string `yaml:"business_key"`
	Required    bool   `yaml:"required"`
}

// BusinessConfig is the placeholder-token table for one template category.
type BusinessConfig map[string]Mapping

// Registry holds the per-category business configs. It is injected into
// whatever needs enrichment rather than read from package-level state.
type Registry struct {
	configs map[string]BusinessConfig
}

// NewRegistry builds a registry from an explicit category table.
func NewRegistry(configs map[string]BusinessConfig) *Registry {
	if configs == nil {
		configs = map[string]BusinessConfig{}
	}
	return &Registry{configs: configs}
}

// Lookup returns the business config for a category. The second return
// value is false when the category has no table; the caller treats that
// as "no enrichment", not as an error.
func (r *Registry) Lookup(category string) (BusinessConfig, bool) {
	cfg, ok := r.configs[category]
	return cfg, ok
}

// Categories returns the configured category names, sorted.
func (r *Registry) Categories() []string {
	names := make([]string, 0, len(r.configs))
	for name := range r.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

//go:embed configs.yaml
var rawConfigs []byte

type configFile struct {
	Categories map[string]BusinessConfig `yaml:"categories"`
}

// DefaultRegistry returns the registry built from the compiled-in
// configuration tables. The embedded file is part of the build, so a
// decode failure is a programmer error and panics.
func DefaultRegistry() *Registry {
	var file configFile
	if err := yaml.Unmarshal(rawConfigs, &file); err != nil {
		panic(fmt.Sprintf("enrich: embedded configs.yaml is invalid: %v", err))
	}
	return NewRegistry(file.Categories)
}
