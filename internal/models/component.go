package models

import (
	"time"

	"github.com/google/uuid"
)

// ComponentConfig holds a component's settings as a mapping from option
// name to an ordered list of values. Multi-valued options keep their
// insertion order. Stored as JSONB by the Postgres store.
type ComponentConfig map[string][]string

// First returns the first value for an option, or "" when the option is
// absent or empty.
func (c ComponentConfig) First(key string) string {
	if values, ok := c[key]; ok && len(values) > 0 {
		return values[0]
	}
	return ""
}

// Set replaces the values for an option with a single value.
func (c ComponentConfig) Set(key, value string) {
	c[key] = []string{value}
}

// Clone returns a deep copy of the config.
func (c ComponentConfig) Clone() ComponentConfig {
	if c == nil {
		return nil
	}
	clone := make(ComponentConfig, len(c))
	for key, values := range c {
		clone[key] = append([]string(nil), values...)
	}
	return clone
}

// Component is a generic, provider-typed configuration record scoped to
// an organization. The parent is either the owning organization or a
// top-level component of the same organization; components never cross
// tenant boundaries.
type Component struct {
	ID           uuid.UUID // UUIDv7
	OrgID        uuid.UUID
	ParentID     uuid.UUID // defaults to OrgID when unset
	Name         string
	ProviderID   string // concrete provider implementation, e.g. "rsa-generated"
	ProviderType string // capability the provider fulfils, e.g. "keys"
	Config       ComponentConfig
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
