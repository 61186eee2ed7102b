package provider

import (
	"sort"
)

// Definition describes a registered provider implementation: which
// capability it fulfils, the config schema applied before persistence
// and an optional hook run after schema validation for cross-option
// checks.
type Definition struct {
	ID     string // e.g. "rsa-generated"
	Type   string // capability, e.g. "keys"
	Schema Schema

	// ValidateConfig, when set, runs against the normalized config
	// after the schema has been applied.
	ValidateConfig func(config map[string][]string) error
}

// Registry holds the known provider definitions keyed by provider type
// and id. The component store stays schema-agnostic and dispatches
// validation through the registry.
type Registry struct {
	byType map[string]map[string]*Definition
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		byType: make(map[string]map[string]*Definition),
	}
}

// Register adds a provider definition. Registering the same (type, id)
// pair twice replaces the earlier definition.
func (r *Registry) Register(def *Definition) {
	providers, ok := r.byType[def.Type]
	if !ok {
		providers = make(map[string]*Definition)
		r.byType[def.Type] = providers
	}
	providers[def.ID] = def
}

// Lookup returns the definition for a (providerType, providerID) pair,
// or nil when the provider is unknown.
func (r *Registry) Lookup(providerType, providerID string) *Definition {
	return r.byType[providerType][providerID]
}

// IDs returns the registered provider ids for a type, sorted.
func (r *Registry) IDs(providerType string) []string {
	providers := r.byType[providerType]
	ids := make([]string, 0, len(providers))
	for id := range providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
