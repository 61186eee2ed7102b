package keys

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/orgkeys/orgkeys/internal/models"
	"github.com/orgkeys/orgkeys/internal/provider"
)

// HMACProviderID identifies the generated-HMAC key provider.
const HMACProviderID = "hmac-generated"

const defaultHMACSecretSize = 64

// HMACProvider generates random HMAC secrets. Symmetric keys never
// expose public material; the kid is a fingerprint of the secret.
type HMACProvider struct{}

func (HMACProvider) ID() string { return HMACProviderID }

func (HMACProvider) Schema() provider.Schema {
	return provider.Schema(append(commonOptions(),
		provider.Option{
			Name:     OptionSecretSize,
			Default:  []string{"64"},
			Validate: provider.OneOf("32", "64", "128", "256"),
		},
		provider.Option{
			Name:     OptionAlgorithm,
			Default:  []string{"HS256"},
			Validate: provider.OneOf("HS256", "HS384", "HS512"),
		},
		provider.Option{Name: OptionSecret, Secret: true},
	))
}

// Generate creates a random secret of secretSize bytes, stored
// base64url-encoded. Existing material is left untouched.
func (p HMACProvider) Generate(org *models.Organization, config models.ComponentConfig) (models.ComponentConfig, error) {
	out := config.Clone()
	if out == nil {
		out = models.ComponentConfig{}
	}
	if out.First(OptionSecret) != "" {
		return out, nil
	}

	secret := make([]byte, intOption(out, OptionSecretSize, defaultHMACSecretSize))
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("failed to generate HMAC secret: %w", err)
	}

	out.Set(OptionSecret, base64.RawURLEncoding.EncodeToString(secret))
	return out, nil
}

// Decode rebuilds a key descriptor from a stored component. No public
// key or certificate is ever attached for symmetric keys.
func (p HMACProvider) Decode(component *models.Component) (*KeyDescriptor, error) {
	encoded := component.Config.First(OptionSecret)
	if encoded == "" {
		return nil, fmt.Errorf("component %s has no secret", component.ID)
	}

	secret, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode secret: %w", err)
	}

	return &KeyDescriptor{
		ProviderID:       component.ID.String(),
		ProviderPriority: priorityOf(component.Config),
		Kid:              Fingerprint(secret),
		Status:           statusOf(component.Config),
		Type:             KeyTypeOct,
		Algorithm:        component.Config.First(OptionAlgorithm),
		secret:           secret,
	}, nil
}
