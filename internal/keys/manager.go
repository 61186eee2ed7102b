package keys

import (
	"context"
	"errors"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/orgkeys/orgkeys/internal/models"
	"github.com/orgkeys/orgkeys/internal/store"
)

// ErrNoActiveKey is returned when no ACTIVE key exists for the
// requested algorithm.
var ErrNoActiveKey = errors.New("no active key for algorithm")

// Manager resolves an organization's key-provider components into key
// descriptors and selects the active key per algorithm.
type Manager struct {
	components store.ComponentStore
	providers  map[string]Provider
}

// NewManager creates a key manager over a component store and the
// registered key providers (see Register).
func NewManager(components store.ComponentStore, providers map[string]Provider) *Manager {
	return &Manager{
		components: components,
		providers:  providers,
	}
}

// Keys returns the organization's key descriptors in stored component
// order. A component whose config cannot be decoded (for example after
// a provider schema change) degrades to a bare descriptor instead of
// failing the listing; the failure is logged.
func (m *Manager) Keys(ctx context.Context, org *models.Organization) ([]KeyDescriptor, error) {
	components, err := m.components.List(ctx, org, store.ListComponentsOptions{
		ProviderType: ProviderType,
	})
	if err != nil {
		return nil, err
	}

	descriptors := make([]KeyDescriptor, 0, len(components))
	for _, component := range components {
		p, ok := m.providers[component.ProviderID]
		if !ok {
			log.Warn().
				Str("component_id", component.ID.String()).
				Str("provider_id", component.ProviderID).
				Msg("No key provider registered for component")
			descriptors = append(descriptors, bareDescriptor(component))
			continue
		}

		descriptor, err := p.Decode(component)
		if err != nil {
			log.Error().
				Err(err).
				Str("component_id", component.ID.String()).
				Str("org_id", org.ID.String()).
				Msg("Failed to decode key component, returning bare descriptor")
			descriptors = append(descriptors, bareDescriptor(component))
			continue
		}

		descriptors = append(descriptors, *descriptor)
	}

	return descriptors, nil
}

// ActiveKey returns the single key chosen for new signatures with the
// given algorithm, or ErrNoActiveKey.
func (m *Manager) ActiveKey(ctx context.Context, org *models.Organization, algorithm string) (*KeyDescriptor, error) {
	descriptors, err := m.Keys(ctx, org)
	if err != nil {
		return nil, err
	}

	var chosen *KeyDescriptor
	for i := range descriptors {
		d := &descriptors[i]
		if d.Algorithm != algorithm || !d.Status.IsActive() || d.Kid == "" {
			continue
		}
		if chosen == nil || wins(d, chosen) {
			chosen = d
		}
	}

	if chosen == nil {
		return nil, ErrNoActiveKey
	}
	return chosen, nil
}

// ActiveIndex builds the algorithm-to-kid index over a descriptor
// listing. Among ACTIVE descriptors of an algorithm the highest
// priority wins; ties break to the ascending kid so the choice is
// stable across calls. Algorithms with no ACTIVE descriptor have no
// entry.
func ActiveIndex(descriptors []KeyDescriptor) map[string]string {
	winners := make(map[string]*KeyDescriptor)
	for i := range descriptors {
		d := &descriptors[i]
		if !d.Status.IsActive() || d.Algorithm == "" || d.Kid == "" {
			continue
		}
		current, ok := winners[d.Algorithm]
		if !ok || wins(d, current) {
			winners[d.Algorithm] = d
		}
	}

	index := make(map[string]string, len(winners))
	for algorithm, d := range winners {
		index[algorithm] = d.Kid
	}
	return index
}

// wins reports whether a should be selected over b.
func wins(a, b *KeyDescriptor) bool {
	if a.ProviderPriority != b.ProviderPriority {
		return a.ProviderPriority > b.ProviderPriority
	}
	return a.Kid < b.Kid
}

// SortByPriority orders descriptors highest priority first, then by
// kid, for stable presentation.
func SortByPriority(descriptors []KeyDescriptor) {
	sort.SliceStable(descriptors, func(i, j int) bool {
		return wins(&descriptors[i], &descriptors[j])
	})
}

// bareDescriptor carries the metadata still derivable when a
// component's config cannot be decoded.
func bareDescriptor(component *models.Component) KeyDescriptor {
	return KeyDescriptor{
		ProviderID:       component.ID.String(),
		ProviderPriority: priorityOf(component.Config),
		Status:           statusOf(component.Config),
	}
}
