package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/orgkeys/orgkeys/internal/models"
	"github.com/orgkeys/orgkeys/internal/provider"
	"github.com/orgkeys/orgkeys/internal/store"
)

// ComponentStore implements store.ComponentStore using in-memory
// storage. This implementation is for testing only - data is lost on
// restart.
type ComponentStore struct {
	mu sync.RWMutex

	registry   *provider.Registry
	components map[uuid.UUID]*models.Component
}

// NewComponentStore creates a new in-memory component store validating
// writes against the given provider registry.
func NewComponentStore(registry *provider.Registry) *ComponentStore {
	return &ComponentStore{
		registry:   registry,
		components: make(map[uuid.UUID]*models.Component),
	}
}

// Create validates and persists a component, assigning a UUIDv7 id when
// unset.
func (s *ComponentStore) Create(ctx context.Context, org *models.Organization, component *models.Component) (*models.Component, error) {
	if err := store.ValidateComponent(ctx, s, s.registry, org, component); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if component.ID == uuid.Nil {
		component.ID = uuid.Must(uuid.NewV7())
	}

	now := time.Now()
	component.CreatedAt = now
	component.UpdatedAt = now

	clone := cloneComponent(component)
	s.components[component.ID] = clone

	result := cloneComponent(clone)
	return result, nil
}

// Get retrieves a component by id, scoped to the organization.
func (s *ComponentStore) Get(ctx context.Context, org *models.Organization, componentID uuid.UUID) (*models.Component, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	component, exists := s.components[componentID]
	if !exists || component.OrgID != org.ID {
		return nil, store.ErrComponentNotFound
	}

	return cloneComponent(component), nil
}

// List returns the organization's components matching opts in creation
// order.
func (s *ComponentStore) List(ctx context.Context, org *models.Organization, opts store.ListComponentsOptions) ([]*models.Component, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*models.Component{}
	for _, component := range s.components {
		if component.OrgID != org.ID {
			continue
		}
		if opts.ParentID != uuid.Nil && component.ParentID != opts.ParentID {
			continue
		}
		if opts.ProviderType != "" && component.ProviderType != opts.ProviderType {
			continue
		}
		result = append(result, cloneComponent(component))
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID.String() < result[j].ID.String()
	})

	return result, nil
}

// Update re-validates and replaces a component's mutable fields. The
// stored config is replaced wholesale.
func (s *ComponentStore) Update(ctx context.Context, org *models.Organization, component *models.Component) error {
	s.mu.RLock()
	existing, exists := s.components[component.ID]
	s.mu.RUnlock()

	if !exists || existing.OrgID != org.ID {
		return store.ErrComponentNotFound
	}

	if err := store.ValidateComponent(ctx, s, s.registry, org, component); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	component.CreatedAt = existing.CreatedAt
	component.UpdatedAt = time.Now()
	s.components[component.ID] = cloneComponent(component)

	return nil
}

// Delete removes a component. Deleting an absent id is a no-op.
func (s *ComponentStore) Delete(ctx context.Context, org *models.Organization, componentID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	component, exists := s.components[componentID]
	if !exists || component.OrgID != org.ID {
		return nil
	}

	delete(s.components, componentID)
	return nil
}

// DeleteAll removes every component of the organization.
func (s *ComponentStore) DeleteAll(ctx context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, component := range s.components {
		if component.OrgID == org.ID {
			delete(s.components, id)
		}
	}
	return nil
}

func cloneComponent(component *models.Component) *models.Component {
	clone := *component
	clone.Config = component.Config.Clone()
	return &clone
}
