package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/orgkeys/orgkeys/internal/models"
	"github.com/orgkeys/orgkeys/internal/store"
)

// OrganizationStore implements store.OrganizationStore using PostgreSQL.
type OrganizationStore struct {
	pool *pgxpool.Pool
}

// NewOrganizationStore creates a new PostgreSQL-backed organization
// store. It shares the connection pool with the component store.
func NewOrganizationStore(pool *pgxpool.Pool) *OrganizationStore {
	return &OrganizationStore{
		pool: pool,
	}
}

const organizationColumns = `org_id, name, description, org_type, use_master_keys, created_at, updated_at`

// Create creates a new organization in the database.
func (s *OrganizationStore) Create(ctx context.Context, org *models.Organization) error {
	now := time.Now()
	if org.CreatedAt.IsZero() {
		org.CreatedAt = now
	}
	org.UpdatedAt = now

	query := `
		INSERT INTO organizations (
			org_id, name, description, org_type, use_master_keys, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
	`

	_, err := s.pool.Exec(ctx, query,
		org.ID,
		org.Name,
		org.Description,
		org.Type,
		org.UseMasterKeys,
		org.CreatedAt,
		org.UpdatedAt,
	)

	if err != nil {
		return mapPostgresError(err)
	}

	log.Debug().
		Str("org_id", org.ID.String()).
		Str("name", org.Name).
		Msg("Created organization")

	return nil
}

// Get retrieves an organization by ID.
func (s *OrganizationStore) Get(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE org_id = $1`
	return s.queryOne(ctx, query, orgID)
}

// GetByName retrieves an organization by exact name.
func (s *OrganizationStore) GetByName(ctx context.Context, name string) (*models.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE name = $1`
	return s.queryOne(ctx, query, name)
}

func (s *OrganizationStore) queryOne(ctx context.Context, query string, arg any) (*models.Organization, error) {
	var org models.Organization
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&org.ID,
		&org.Name,
		&org.Description,
		&org.Type,
		&org.UseMasterKeys,
		&org.CreatedAt,
		&org.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	return &org, nil
}

// List returns organizations matching opts ordered by creation time
// then id. Offset=-1 and Limit=-1 returns every matching row.
func (s *OrganizationStore) List(ctx context.Context, opts store.ListOrganizationsOptions) ([]*models.Organization, error) {
	query := `
		SELECT ` + organizationColumns + `
		FROM organizations
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%')
		ORDER BY created_at, org_id
	`
	args := []any{opts.FilterText}

	if !(opts.Offset == store.ListAll && opts.Limit == store.ListAll) {
		if opts.Offset < 0 || opts.Limit < 0 {
			return []*models.Organization{}, nil
		}
		query += ` OFFSET $2 LIMIT $3`
		args = append(args, opts.Offset, opts.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	orgs := []*models.Organization{}
	for rows.Next() {
		var org models.Organization
		err := rows.Scan(
			&org.ID,
			&org.Name,
			&org.Description,
			&org.Type,
			&org.UseMasterKeys,
			&org.CreatedAt,
			&org.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		orgs = append(orgs, &org)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating organizations: %w", err)
	}

	return orgs, nil
}

// Count returns the number of organizations matching filterText,
// ignoring pagination.
func (s *OrganizationStore) Count(ctx context.Context, filterText string) (int, error) {
	query := `
		SELECT count(*)
		FROM organizations
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%')
	`

	var count int
	if err := s.pool.QueryRow(ctx, query, filterText).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count organizations: %w", err)
	}

	return count, nil
}

// Update updates an existing organization.
func (s *OrganizationStore) Update(ctx context.Context, org *models.Organization) error {
	org.UpdatedAt = time.Now()

	query := `
		UPDATE organizations SET
			name = $2,
			description = $3,
			org_type = $4,
			use_master_keys = $5,
			updated_at = $6
		WHERE org_id = $1
	`

	result, err := s.pool.Exec(ctx, query,
		org.ID,
		org.Name,
		org.Description,
		org.Type,
		org.UseMasterKeys,
		org.UpdatedAt,
	)

	if err != nil {
		return mapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrOrganizationNotFound
	}

	log.Debug().
		Str("org_id", org.ID.String()).
		Msg("Updated organization")

	return nil
}

// Delete deletes an organization by ID. Components are cascade-deleted
// via the FK constraint; the registry also deletes them explicitly
// first so the behavior doesn't depend on the backend.
func (s *OrganizationStore) Delete(ctx context.Context, orgID uuid.UUID) error {
	query := `DELETE FROM organizations WHERE org_id = $1`

	result, err := s.pool.Exec(ctx, query, orgID)
	if err != nil {
		return fmt.Errorf("failed to delete organization: %w", err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrOrganizationNotFound
	}

	log.Info().
		Str("org_id", orgID.String()).
		Msg("Deleted organization")

	return nil
}
