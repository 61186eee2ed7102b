package keys

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/orgkeys/orgkeys/internal/models"
	"github.com/orgkeys/orgkeys/internal/store"
)

// DefaultsConfig controls the key-provider components provisioned for a
// new organization. The zero value is usable; see ApplyDefaults.
type DefaultsConfig struct {
	// Priority assigned to the default components. Later additions by
	// administrators are expected to use higher values to take over.
	Priority int64 `yaml:"priority"`

	RSAKeySize   int    `yaml:"rsaKeySize"`
	RSAAlgorithm string `yaml:"rsaAlgorithm"`

	HMACSecretSize int    `yaml:"hmacSecretSize"`
	HMACAlgorithm  string `yaml:"hmacAlgorithm"`

	// ECDSACurve, when set, additionally provisions an ECDSA default on
	// that curve. Empty disables the ECDSA default.
	ECDSACurve string `yaml:"ecdsaCurve"`
}

// ApplyDefaults fills unset fields.
func (c *DefaultsConfig) ApplyDefaults() {
	if c.Priority == 0 {
		c.Priority = 100
	}
	if c.RSAKeySize == 0 {
		c.RSAKeySize = defaultRSAKeySize
	}
	if c.RSAAlgorithm == "" {
		c.RSAAlgorithm = "RS256"
	}
	if c.HMACSecretSize == 0 {
		c.HMACSecretSize = defaultHMACSecretSize
	}
	if c.HMACAlgorithm == "" {
		c.HMACAlgorithm = "HS256"
	}
}

// LoadDefaultsConfig reads a DefaultsConfig from a YAML file and applies
// defaults for unset fields.
func LoadDefaultsConfig(path string) (*DefaultsConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read defaults config: %w", err)
	}

	var cfg DefaultsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse defaults config: %w", err)
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// DefaultProviders provisions the default key-provider components for
// newly created organizations: one per algorithm family so the tenant
// can sign with both asymmetric and symmetric keys from day one.
type DefaultProviders struct {
	components store.ComponentStore
	providers  map[string]Provider
	cfg        DefaultsConfig
}

// NewDefaultProviders creates a bootstrapper. cfg fields left at zero
// take their defaults.
func NewDefaultProviders(components store.ComponentStore, providers map[string]Provider, cfg DefaultsConfig) *DefaultProviders {
	cfg.ApplyDefaults()
	return &DefaultProviders{
		components: components,
		providers:  providers,
		cfg:        cfg,
	}
}

// Create ensures the organization has at least one key-provider
// component. When any already exist the call is a no-op, so re-invoking
// it is safe. A racing duplicate insert is absorbed via the store's
// uniqueness constraint on default components.
func (d *DefaultProviders) Create(ctx context.Context, org *models.Organization) error {
	existing, err := d.components.List(ctx, org, store.ListComponentsOptions{
		ProviderType: ProviderType,
	})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	defaults := []struct {
		providerID string
		config     models.ComponentConfig
	}{
		{
			providerID: RSAProviderID,
			config: models.ComponentConfig{
				OptionKeySize:   []string{strconv.Itoa(d.cfg.RSAKeySize)},
				OptionAlgorithm: []string{d.cfg.RSAAlgorithm},
			},
		},
		{
			providerID: HMACProviderID,
			config: models.ComponentConfig{
				OptionSecretSize: []string{strconv.Itoa(d.cfg.HMACSecretSize)},
				OptionAlgorithm:  []string{d.cfg.HMACAlgorithm},
			},
		},
	}

	if d.cfg.ECDSACurve != "" {
		defaults = append(defaults, struct {
			providerID string
			config     models.ComponentConfig
		}{
			providerID: ECDSAProviderID,
			config: models.ComponentConfig{
				OptionCurve: []string{d.cfg.ECDSACurve},
			},
		})
	}

	for _, def := range defaults {
		p, ok := d.providers[def.providerID]
		if !ok {
			return fmt.Errorf("default key provider %q is not registered", def.providerID)
		}

		config := def.config
		config[OptionPriority] = []string{strconv.FormatInt(d.cfg.Priority, 10)}

		config, err := p.Generate(org, config)
		if err != nil {
			return fmt.Errorf("failed to generate default %s material: %w", def.providerID, err)
		}

		component := &models.Component{
			OrgID:        org.ID,
			ParentID:     org.ID,
			Name:         def.providerID,
			ProviderID:   def.providerID,
			ProviderType: ProviderType,
			Config:       config,
		}

		if _, err := d.components.Create(ctx, org, component); err != nil {
			if errors.Is(err, store.ErrComponentExists) {
				// A concurrent bootstrap won the insert.
				log.Debug().
					Str("org_id", org.ID.String()).
					Str("provider_id", def.providerID).
					Msg("Default key component already created concurrently")
				continue
			}
			return fmt.Errorf("failed to create default %s component: %w", def.providerID, err)
		}

		log.Info().
			Str("org_id", org.ID.String()).
			Str("provider_id", def.providerID).
			Msg("Provisioned default key component")
	}

	return nil
}
