package keys

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"fmt"

	"github.com/orgkeys/orgkeys/internal/models"
	"github.com/orgkeys/orgkeys/internal/pki"
	"github.com/orgkeys/orgkeys/internal/provider"
)

// ECDSAProviderID identifies the generated-ECDSA key provider.
const ECDSAProviderID = "ecdsa-generated"

// curveAlgorithms maps supported curves to the JWT algorithm they imply.
var curveAlgorithms = map[string]string{
	"P-256": "ES256",
	"P-384": "ES384",
	"P-521": "ES512",
}

// ECDSAProvider generates ECDSA keypairs. The signing algorithm is
// implied by the curve, so the schema has no algorithm option.
type ECDSAProvider struct{}

func (ECDSAProvider) ID() string { return ECDSAProviderID }

func (ECDSAProvider) Schema() provider.Schema {
	return provider.Schema(append(commonOptions(),
		provider.Option{
			Name:     OptionCurve,
			Default:  []string{"P-256"},
			Validate: provider.OneOf("P-256", "P-384", "P-521"),
		},
		provider.Option{Name: OptionPrivateKey, Secret: true},
		provider.Option{Name: OptionCertificate},
	))
}

func curveByName(name string) (elliptic.Curve, error) {
	switch name {
	case "P-256":
		return elliptic.P256(), nil
	case "P-384":
		return elliptic.P384(), nil
	case "P-521":
		return elliptic.P521(), nil
	default:
		return nil, fmt.Errorf("unsupported curve %q", name)
	}
}

// Generate creates a fresh ECDSA keypair on the configured curve and a
// self-signed certificate. Existing material is left untouched.
func (p ECDSAProvider) Generate(org *models.Organization, config models.ComponentConfig) (models.ComponentConfig, error) {
	out := config.Clone()
	if out == nil {
		out = models.ComponentConfig{}
	}
	if out.First(OptionPrivateKey) != "" {
		return out, nil
	}

	curveName := out.First(OptionCurve)
	if curveName == "" {
		curveName = "P-256"
		out.Set(OptionCurve, curveName)
	}

	curve, err := curveByName(curveName)
	if err != nil {
		return nil, err
	}

	key, err := ecdsa.GenerateKey(curve, rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ECDSA key: %w", err)
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
func (p ECDSAProvider) Decode(component *models.Component) (*KeyDescriptor, error) {
	signer, err := pki.DecodePrivateKey(component.Config.First(OptionPrivateKey))
	if err != nil {
		return nil, err
	}

	ecKey, ok := signer.(*ecdsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("component %s holds a %T, expected an ECDSA key", component.ID, signer)
	}

	algorithm, ok := curveAlgorithms[ecKey.Curve.Params().Name]
	if !ok {
		return nil, fmt.Errorf("component %s uses unsupported curve %q", component.ID, ecKey.Curve.Params().Name)
	}

	publicDER, err := x509.MarshalPKIXPublicKey(&ecKey.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}

	publicPEM, err := pki.EncodeKey(&ecKey.PublicKey)
	if err != nil {
		return nil, err
	}

	return &KeyDescriptor{
		ProviderID:       component.ID.String(),
		ProviderPriority: priorityOf(component.Config),
		Kid:              Fingerprint(publicDER),
		Status:           statusOf(component.Config),
		Type:             KeyTypeEC,
		Algorithm:        algorithm,
		PublicKey:        publicPEM,
		Certificate:      component.Config.First(OptionCertificate),
		signer:           ecKey,
	}, nil
}
