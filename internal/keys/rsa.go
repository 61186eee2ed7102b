package keys

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"fmt"

	"github.com/orgkeys/orgkeys/internal/models"
	"github.com/orgkeys/orgkeys/internal/pki"
	"github.com/orgkeys/orgkeys/internal/provider"
)

// RSAProviderID identifies the generated-RSA key provider.
const RSAProviderID = "rsa-generated"

const defaultRSAKeySize = 2048

// RSAProvider generates RSA keypairs with a self-signed certificate and
// stores them PEM-encoded in the component config.
type RSAProvider struct{}

func (RSAProvider) ID() string { return RSAProviderID }

func (RSAProvider) Schema() provider.Schema {
	return provider.Schema(append(commonOptions(),
		provider.Option{
			Name:     OptionKeySize,
			Default:  []string{"2048"},
			Validate: provider.OneOf("2048", "3072", "4096"),
		},
		provider.Option{
			Name:     OptionAlgorithm,
			Default:  []string{"RS256"},
			Validate: provider.OneOf("RS256", "RS384", "RS512", "PS256", "PS384", "PS512"),
		},
		provider.Option{Name: OptionPrivateKey, Secret: true},
		provider.Option{Name: OptionCertificate},
	))
}

// Generate creates a fresh RSA keypair sized by the keySize option and a
// self-signed certificate, returning a copy of config with the material
// filled in. Existing material is left untouched.
func (p RSAProvider) Generate(org *models.Organization, config models.ComponentConfig) (models.ComponentConfig, error) {
	out := config.Clone()
	if out == nil {
		out = models.ComponentConfig{}
	}
	if out.First(OptionPrivateKey) != "" {
		return out, nil
	}

	keySize := intOption(out, OptionKeySize, defaultRSAKeySize)
	key, err := rsa.GenerateKey(rand.Reader, keySize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA key: %w", err)
	}

	privatePEM, err := pki.EncodePrivateKey(key)
	if err != nil {
		return nil, err
	}

	cert, err := pki.SelfSignedCertificate(org.Name, key)
	if err != nil {
		return nil, err
	}

	out.Set(OptionPrivateKey, privatePEM)
	out.Set(OptionCertificate, pki.EncodeCertificate(cert))
	return out, nil
}

// Decode rebuilds a key descriptor from a stored component.
func (p RSAProvider) Decode(component *models.Component) (*KeyDescriptor, error) {
	signer, err := pki.DecodePrivateKey(component.Config.First(OptionPrivateKey))
	if err != nil {
		return nil, err
	}

	rsaKey, ok := signer.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("component %s holds a %T, expected an RSA key", component.ID, signer)
	}

	publicDER, err := x509.MarshalPKIXPublicKey(&rsaKey.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}

	publicPEM, err := pki.EncodeKey(&rsaKey.PublicKey)
	if err != nil {
		return nil, err
	}

	return &KeyDescriptor{
		ProviderID:       component.ID.String(),
		ProviderPriority: priorityOf(component.Config),
		Kid:              Fingerprint(publicDER),
		Status:           statusOf(component.Config),
		Type:             KeyTypeRSA,
		Algorithm:        component.Config.First(OptionAlgorithm),
		PublicKey:        publicPEM,
		Certificate:      component.Config.First(OptionCertificate),
		signer:           rsaKey,
	}, nil
}
