package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/orgkeys/orgkeys/internal/models"
	"github.com/orgkeys/orgkeys/internal/provider"
	"github.com/orgkeys/orgkeys/internal/store"
)

// ComponentStore implements store.ComponentStore using PostgreSQL. The
// config mapping is stored as a JSONB column so the store stays
// schema-agnostic; provider schemas are enforced before persistence.
type ComponentStore struct {
	pool     *pgxpool.Pool
	registry *provider.Registry
}

// NewComponentStore creates a new PostgreSQL-backed component store
// validating writes against the given provider registry.
func NewComponentStore(pool *pgxpool.Pool, registry *provider.Registry) *ComponentStore {
	return &ComponentStore{
		pool:     pool,
		registry: registry,
	}
}

const componentColumns = `component_id, org_id, parent_id, name, provider_id, provider_type, config, created_at, updated_at`

// Create validates and persists a component, assigning a UUIDv7 id when
// unset.
func (s *ComponentStore) Create(ctx context.Context, org *models.Organization, component *models.Component) (*models.Component, error) {
	if err := store.ValidateComponent(ctx, s, s.registry, org, component); err != nil {
		return nil, err
	}

	if component.ID == uuid.Nil {
		component.ID = uuid.Must(uuid.NewV7())
	}

	now := time.Now()
	component.CreatedAt = now
	component.UpdatedAt = now

	config, err := json.Marshal(component.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal component config: %w", err)
	}

	query := `
		INSERT INTO components (
			component_id, org_id, parent_id, name, provider_id, provider_type, config, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
	`

	_, err = s.pool.Exec(ctx, query,
		component.ID,
		component.OrgID,
		component.ParentID,
		component.Name,
		component.ProviderID,
		component.ProviderType,
		config,
		component.CreatedAt,
		component.UpdatedAt,
	)

	if err != nil {
		return nil, mapPostgresError(err)
	}

	log.Debug().
		Str("component_id", component.ID.String()).
		Str("org_id", org.ID.String()).
		Str("provider_id", component.ProviderID).
		Msg("Created component")

	return component, nil
}

// Get retrieves a component by id, scoped to the organization.
func (s *ComponentStore) Get(ctx context.Context, org *models.Organization, componentID uuid.UUID) (*models.Component, error) {
	query := `SELECT ` + componentColumns + ` FROM components WHERE component_id = $1 AND org_id = $2`

	row := s.pool.QueryRow(ctx, query, componentID, org.ID)
	component, err := scanComponent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrComponentNotFound
		}
		return nil, fmt.Errorf("failed to get component: %w", err)
	}

	return component, nil
}

// List returns the organization's components matching opts in creation
// order.
func (s *ComponentStore) List(ctx context.Context, org *models.Organization, opts store.ListComponentsOptions) ([]*models.Component, error) {
	query := `
		SELECT ` + componentColumns + `
		FROM components
		WHERE org_id = $1
		  AND ($2::uuid IS NULL OR parent_id = $2)
		  AND ($3 = '' OR provider_type = $3)
		ORDER BY created_at, component_id
	`

	var parentID any
	if opts.ParentID != uuid.Nil {
		parentID = opts.ParentID
	}

	rows, err := s.pool.Query(ctx, query, org.ID, parentID, opts.ProviderType)
	if err != nil {
		return nil, fmt.Errorf("failed to list components: %w", err)
	}
	defer rows.Close()

	components := []*models.Component{}
	for rows.Next() {
		component, err := scanComponent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan component: %w", err)
		}
		components = append(components, component)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating components: %w", err)
	}

	return components, nil
}

// Update re-validates and replaces a component's mutable fields. The
// stored config is replaced wholesale, never merged.
func (s *ComponentStore) Update(ctx context.Context, org *models.Organization, component *models.Component) error {
	if _, err := s.Get(ctx, org, component.ID); err != nil {
		return err
	}

	if err := store.ValidateComponent(ctx, s, s.registry, org, component); err != nil {
		return err
	}

	component.UpdatedAt = time.Now()

	config, err := json.Marshal(component.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal component config: %w", err)
	}

	query := `
		UPDATE components SET
			parent_id = $3,
			name = $4,
			config = $5,
			updated_at = $6
		WHERE component_id = $1 AND org_id = $2
	`

	result, err := s.pool.Exec(ctx, query,
		component.ID,
		org.ID,
		component.ParentID,
		component.Name,
		config,
		component.UpdatedAt,
	)

	if err != nil {
		return mapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrComponentNotFound
	}

	log.Debug().
		Str("component_id", component.ID.String()).
		Str("org_id", org.ID.String()).
		Msg("Updated component")

	return nil
}

// Delete removes a component. Deleting an id that is already gone is a
// no-op, so retried deletes do not error.
func (s *ComponentStore) Delete(ctx context.Context, org *models.Organization, componentID uuid.UUID) error {
	query := `DELETE FROM components WHERE component_id = $1 AND org_id = $2`

	if _, err := s.pool.Exec(ctx, query, componentID, org.ID); err != nil {
		return fmt.Errorf("failed to delete component: %w", err)
	}

	return nil
}

// DeleteAll removes every component of the organization.
func (s *ComponentStore) DeleteAll(ctx context.Context, org *models.Organization) error {
	query := `DELETE FROM components WHERE org_id = $1`

	result, err := s.pool.Exec(ctx, query, org.ID)
	if err != nil {
		return fmt.Errorf("failed to delete components: %w", err)
	}

	log.Debug().
		Str("org_id", org.ID.String()).
		Int64("count", result.RowsAffected()).
		Msg("Deleted organization components")

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComponent(row rowScanner) (*models.Component, error) {
	var (
		component models.Component
		config    []byte
	)

	err := row.Scan(
		&component.ID,
		&component.OrgID,
		&component.ParentID,
		&component.Name,
		&component.ProviderID,
		&component.ProviderType,
		&config,
		&component.CreatedAt,
		&component.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(config, &component.Config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal component config: %w", err)
	}

	return &component, nil
}
