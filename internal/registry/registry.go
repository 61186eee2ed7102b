// Package registry implements the organization registry: tenant
// lifecycle on top of the organization and component stores, including
// default key provisioning on create and cascading delete.
package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/orgkeys/orgkeys/internal/keys"
	"github.com/orgkeys/orgkeys/internal/models"
	"github.com/orgkeys/orgkeys/internal/store"
)

// ErrMasterImmutable is returned when a caller tries to delete the
// master organization.
var ErrMasterImmutable = errors.New("the master organization cannot be deleted")

// Registry coordinates organization lifecycle. Every newly created
// organization gets its default key providers before it is handed back
// to the caller.
type Registry struct {
	organizations store.OrganizationStore
	components    store.ComponentStore
	defaults      *keys.DefaultProviders
}

// New creates a Registry.
func New(organizations store.OrganizationStore, components store.ComponentStore, defaults *keys.DefaultProviders) *Registry {
	return &Registry{
		organizations: organizations,
		components:    components,
		defaults:      defaults,
	}
}

// CreateOrganization creates a tenant with a fresh id and provisions
// its default key providers. Returns
// store.ErrOrganizationAlreadyExists when the name is taken; the
// registry is left unchanged in that case.
func (r *Registry) CreateOrganization(ctx context.Context, name, description string, orgType models.OrganizationType) (*models.Organization, error) {
	if orgType == "" {
		orgType = models.OrganizationTypeCommon
	}

	org := &models.Organization{
		ID:          uuid.Must(uuid.NewV7()),
		Name:        name,
		Description: description,
		Type:        orgType,
	}

	if err := r.organizations.Create(ctx, org); err != nil {
		return nil, err
	}

	if err := r.defaults.Create(ctx, org); err != nil {
		return nil, fmt.Errorf("failed to provision default key providers: %w", err)
	}

	log.Info().
		Str("org_id", org.ID.String()).
		Str("name", org.Name).
		Msg("Created organization")

	return org, nil
}

// GetOrganization retrieves an organization by id.
func (r *Registry) GetOrganization(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	return r.organizations.Get(ctx, orgID)
}

// GetOrganizationByName retrieves an organization by exact name.
func (r *Registry) GetOrganizationByName(ctx context.Context, name string) (*models.Organization, error) {
	return r.organizations.GetByName(ctx, name)
}

// UpdateOrganization replaces the organization's name, description,
// type and useMasterKeys flag.
func (r *Registry) UpdateOrganization(ctx context.Context, org *models.Organization) error {
	return r.organizations.Update(ctx, org)
}

// ListOrganizations returns organizations matching filterText windowed
// by offset/limit. Offset=-1 and Limit=-1 returns all.
func (r *Registry) ListOrganizations(ctx context.Context, filterText string, offset, limit int) ([]*models.Organization, error) {
	return r.organizations.List(ctx, store.ListOrganizationsOptions{
		FilterText: filterText,
		Offset:     offset,
		Limit:      limit,
	})
}

// SearchOrganizations is the page-oriented variant of
// ListOrganizations. page is 0-indexed; TotalSize counts every match
// regardless of the page bounds.
func (r *Registry) SearchOrganizations(ctx context.Context, filterText string, page, pageSize int) (*models.SearchResults[*models.Organization], error) {
	if page < 0 {
		page = 0
	}
	if pageSize <= 0 {
		pageSize = 10
	}

	total, err := r.organizations.Count(ctx, filterText)
	if err != nil {
		return nil, err
	}

	orgs, err := r.organizations.List(ctx, store.ListOrganizationsOptions{
		FilterText: filterText,
		Offset:     page * pageSize,
		Limit:      pageSize,
	})
	if err != nil {
		return nil, err
	}

	return &models.SearchResults[*models.Organization]{
		TotalSize: total,
		Models:    orgs,
	}, nil
}

// DeleteOrganization removes a tenant and all of its components. The
// master organization is deletion-protected and returns
// ErrMasterImmutable regardless of its component set.
func (r *Registry) DeleteOrganization(ctx context.Context, orgID uuid.UUID) error {
	org, err := r.organizations.Get(ctx, orgID)
	if err != nil {
		return err
	}

	if org.IsMaster() {
		return ErrMasterImmutable
	}

	if err := r.components.DeleteAll(ctx, org); err != nil {
		return fmt.Errorf("failed to cascade component deletion: %w", err)
	}

	if err := r.organizations.Delete(ctx, org.ID); err != nil {
		return err
	}

	log.Info().
		Str("org_id", org.ID.String()).
		Str("name", org.Name).
		Msg("Deleted organization and its components")

	return nil
}
