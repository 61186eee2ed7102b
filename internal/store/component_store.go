package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/orgkeys/orgkeys/internal/models"
)

// Sentinel errors for component store operations
var (
	ErrComponentNotFound = errors.New("component not found")

	// ErrComponentExists is returned when a uniqueness constraint
	// rejects an insert. Today that only happens for the default
	// bootstrap components, which carry a partial unique index so two
	// racing bootstraps cannot both insert.
	ErrComponentExists = errors.New("component already exists")
)

// ListComponentsOptions filters component listings. Zero-value fields
// are ignored; set fields are ANDed. All queries are scoped to one
// organization.
type ListComponentsOptions struct {
	ParentID     uuid.UUID
	ProviderType string
}

// ComponentStore defines the interface for component storage. Every
// write is gated by structural and provider-schema validation, see
// ValidateComponent.
type ComponentStore interface {
	// Create validates the component, assigns a UUIDv7 id when unset,
	// defaults ParentID to the organization id, and persists it.
	// Returns a *provider.ValidationError when the parent does not
	// resolve inside the organization or the provider rejects the
	// config.
	Create(ctx context.Context, org *models.Organization, component *models.Component) (*models.Component, error)

	// Get retrieves a component by id, scoped to the organization.
	// Returns ErrComponentNotFound when absent or owned by another
	// organization.
	Get(ctx context.Context, org *models.Organization, componentID uuid.UUID) (*models.Component, error)

	// List returns the organization's components matching opts in
	// creation order. Unmatched filters yield an empty slice.
	List(ctx context.Context, org *models.Organization, opts ListComponentsOptions) ([]*models.Component, error)

	// Update replaces the component's mutable fields (name, parent,
	// config) wholesale and re-runs validation. The stored config is
	// replaced, never merged. Returns ErrComponentNotFound when the
	// component doesn't exist.
	Update(ctx context.Context, org *models.Organization, component *models.Component) error

	// Delete removes a component. Deleting an id that is already gone
	// is a no-op; children are not cascaded.
	Delete(ctx context.Context, org *models.Organization, componentID uuid.UUID) error

	// DeleteAll removes every component of the organization. Used by
	// the registry when cascading an organization delete.
	DeleteAll(ctx context.Context, org *models.Organization) error
}
