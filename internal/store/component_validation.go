package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/orgkeys/orgkeys/internal/models"
	"github.com/orgkeys/orgkeys/internal/provider"
)

// ValidateComponent runs the checks shared by every ComponentStore
// implementation before a create or update is persisted:
//
//   - the parent must be the organization itself or an existing
//     top-level component of the same organization (two-level tree,
//     components never nest deeper or cross tenants)
//   - the providerID must be registered for the declared providerType
//   - the provider's config schema is applied; the supplied config is
//     replaced with the normalized result (defaults filled in,
//     single-valued options truncated)
//
// It mutates component.ParentID (defaulting to the organization) and
// component.Config (normalized) on success.
func ValidateComponent(ctx context.Context, cs ComponentStore, registry *provider.Registry, org *models.Organization, component *models.Component) error {
	if component.ParentID == uuid.Nil {
		component.ParentID = org.ID
	}

	if component.ParentID != org.ID {
		parent, err := cs.Get(ctx, org, component.ParentID)
		if err != nil {
			if errors.Is(err, ErrComponentNotFound) {
				return provider.Errorf("parent %s does not exist in organization %s", component.ParentID, org.Name)
			}
			return err
		}
		if parent.ParentID != org.ID {
			return provider.Errorf("parent %s is not a top-level component", component.ParentID)
		}
		if parent.ID == component.ID {
			return provider.Errorf("component cannot be its own parent")
		}
	}

	def := registry.Lookup(component.ProviderType, component.ProviderID)
	if def == nil {
		return provider.Errorf("provider %q is not registered for type %q", component.ProviderID, component.ProviderType)
	}

	normalized, err := def.Schema.Apply(component.Config)
	if err != nil {
		return err
	}

	if def.ValidateConfig != nil {
		if err := def.ValidateConfig(normalized); err != nil {
			var verr *provider.ValidationError
			if errors.As(err, &verr) {
				return verr
			}
			return provider.Errorf("%v", err)
		}
	}

	component.OrgID = org.ID
	component.Config = normalized
	return nil
}
