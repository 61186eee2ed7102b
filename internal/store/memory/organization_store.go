package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/orgkeys/orgkeys/internal/models"
	"github.com/orgkeys/orgkeys/internal/store"
)

// OrganizationStore implements store.OrganizationStore using in-memory
// storage. This implementation is for testing only - data is lost on
// restart.
type OrganizationStore struct {
	mu sync.RWMutex

	organizations map[uuid.UUID]*models.Organization
}

// NewOrganizationStore creates a new in-memory organization store.
func NewOrganizationStore() *OrganizationStore {
	return &OrganizationStore{
		organizations: make(map[uuid.UUID]*models.Organization),
	}
}

// Create creates a new organization in memory.
func (s *OrganizationStore) Create(ctx context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.organizations {
		if existing.Name == org.Name {
			return store.ErrOrganizationAlreadyExists
		}
	}
	if _, exists := s.organizations[org.ID]; exists {
		return store.ErrOrganizationAlreadyExists
	}

	now := time.Now()
	if org.CreatedAt.IsZero() {
		org.CreatedAt = now
	}
	org.UpdatedAt = now

	// Clone to avoid external modifications
	clone := *org
	s.organizations[org.ID] = &clone

	return nil
}

// Get retrieves an organization by ID.
func (s *OrganizationStore) Get(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	org, exists := s.organizations[orgID]
	if !exists {
		return nil, store.ErrOrganizationNotFound
	}

	clone := *org
	return &clone, nil
}

// GetByName retrieves an organization by exact name.
func (s *OrganizationStore) GetByName(ctx context.Context, name string) (*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, org := range s.organizations {
		if org.Name == name {
			clone := *org
			return &clone, nil
		}
	}

	return nil, store.ErrOrganizationNotFound
}

// List returns organizations matching opts ordered by creation time
// then id.
func (s *OrganizationStore) List(ctx context.Context, opts store.ListOrganizationsOptions) ([]*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matching := s.matching(opts.FilterText)

	if opts.Offset == store.ListAll && opts.Limit == store.ListAll {
		return matching, nil
	}

	if opts.Offset < 0 || opts.Limit < 0 || opts.Offset >= len(matching) {
		return []*models.Organization{}, nil
	}

	end := opts.Offset + opts.Limit
	if end > len(matching) {
		end = len(matching)
	}
	return matching[opts.Offset:end], nil
}

// Count returns the number of organizations matching filterText.
func (s *OrganizationStore) Count(ctx context.Context, filterText string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.matching(filterText)), nil
}

// Update updates an existing organization.
func (s *OrganizationStore) Update(ctx context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.organizations[org.ID]
	if !exists {
		return store.ErrOrganizationNotFound
	}

	for _, other := range s.organizations {
		if other.ID != org.ID && other.Name == org.Name {
			return store.ErrOrganizationAlreadyExists
		}
	}

	org.CreatedAt = existing.CreatedAt
	org.UpdatedAt = time.Now()

	clone := *org
	s.organizations[org.ID] = &clone

	return nil
}

// Delete deletes an organization by ID.
// Note: the in-memory implementation doesn't cascade to components; the
// registry deletes components explicitly before calling this.
func (s *OrganizationStore) Delete(ctx context.Context, orgID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.organizations[orgID]; !exists {
		return store.ErrOrganizationNotFound
	}

	delete(s.organizations, orgID)

	return nil
}

// matching returns clones of the organizations matching filterText in
// (CreatedAt, ID) order. Callers must hold at least the read lock.
func (s *OrganizationStore) matching(filterText string) []*models.Organization {
	needle := strings.ToLower(filterText)

	var result []*models.Organization
	for _, org := range s.organizations {
		if needle != "" &&
			!strings.Contains(strings.ToLower(org.Name), needle) &&
			!strings.Contains(strings.ToLower(org.Description), needle) {
			continue
		}
		clone := *org
		result = append(result, &clone)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID.String() < result[j].ID.String()
	})

	return result
}
