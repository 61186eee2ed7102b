package keys

import (
	"github.com/orgkeys/orgkeys/internal/models"
)

// EnsureMaterial fills in key material for a key-provider component
// that was created without it, for example through the API with only
// tuning options supplied. Components of other provider types and
// components that already carry material pass through untouched.
func EnsureMaterial(providers map[string]Provider, org *models.Organization, component *models.Component) error {
	if component.ProviderType != ProviderType {
		return nil
	}

	p, ok := providers[component.ProviderID]
	if !ok {
		// Unknown providers are rejected later by store validation.
		return nil
	}

	config, err := p.Generate(org, component.Config)
	if err != nil {
		return err
	}

	component.Config = config
	return nil
}
