package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/orgkeys/orgkeys/internal/models"
)

// Sentinel errors for organization store operations
var (
	ErrOrganizationNotFound      = errors.New("organization not found")
	ErrOrganizationAlreadyExists = errors.New("organization already exists")
)

// ListAll is the sentinel for "return every row, unpaginated" when used
// as both Offset and Limit.
const ListAll = -1

// ListOrganizationsOptions specifies filtering and pagination for
// organization listings.
type ListOrganizationsOptions struct {
	// FilterText restricts results to organizations whose name or
	// description contains the text (case-insensitive). Empty means all.
	FilterText string

	// Offset/Limit window the result set. Offset=-1 and Limit=-1
	// returns all rows. Results are ordered by creation time then id so
	// consecutive pages are disjoint and exhaustive.
	Offset int
	Limit  int
}

// OrganizationStore defines the interface for organization storage.
// Organizations are tenants; each one roots a component hierarchy.
type OrganizationStore interface {
	// Create creates a new organization.
	// Returns ErrOrganizationAlreadyExists if the name is already taken
	// (case-sensitive exact match).
	Create(ctx context.Context, org *models.Organization) error

	// Get retrieves an organization by ID.
	// Returns ErrOrganizationNotFound if the organization doesn't exist.
	Get(ctx context.Context, orgID uuid.UUID) (*models.Organization, error)

	// GetByName retrieves an organization by exact name.
	// Returns ErrOrganizationNotFound if no organization has that name.
	GetByName(ctx context.Context, name string) (*models.Organization, error)

	// List returns organizations matching opts in a deterministic total
	// order. An unmatched filter yields an empty slice, not an error.
	List(ctx context.Context, opts ListOrganizationsOptions) ([]*models.Organization, error)

	// Count returns the number of organizations matching filterText,
	// ignoring pagination. Empty filterText counts every row.
	Count(ctx context.Context, filterText string) (int, error)

	// Update updates name, description, type and useMasterKeys.
	// Returns ErrOrganizationNotFound if the organization doesn't exist.
	Update(ctx context.Context, org *models.Organization) error

	// Delete deletes an organization by ID. Callers are responsible for
	// cascading component deletion first (the Postgres impl also has an
	// FK cascade as a backstop).
	// Returns ErrOrganizationNotFound if the organization doesn't exist.
	Delete(ctx context.Context, orgID uuid.UUID) error
}
