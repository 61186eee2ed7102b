package keys

import (
	"crypto"
	"crypto/sha256"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mr-tron/base58"
	"github.com/orgkeys/orgkeys/internal/models"
	"github.com/orgkeys/orgkeys/internal/provider"
)

// ProviderType is the capability key-provider components are registered
// under in the provider registry.
const ProviderType = "keys"

// Config option names shared by the key providers.
const (
	OptionPriority    = "priority"
	OptionEnabled     = "enabled"
	OptionActive      = "active"
	OptionAlgorithm   = "algorithm"
	OptionPrivateKey  = "privateKey"
	OptionCertificate = "certificate"
	OptionSecret      = "secret"
	OptionKeySize     = "keySize"
	OptionSecretSize  = "secretSize"
	OptionCurve       = "curve"
)

// KeyStatus describes whether a key may be used for new signatures.
type KeyStatus string

const (
	// StatusActive keys are candidates for new signing operations.
	StatusActive KeyStatus = "ACTIVE"
	// StatusPassive keys verify existing signatures but are never
	// selected for new ones.
	StatusPassive KeyStatus = "PASSIVE"
	// StatusDisabled keys are excluded from resolution entirely and
	// only appear in metadata listings.
	StatusDisabled KeyStatus = "DISABLED"
)

// IsActive reports whether the key may be chosen for new signing.
func (s KeyStatus) IsActive() bool {
	return s == StatusActive
}

// IsEnabled reports whether the key participates in verification.
func (s KeyStatus) IsEnabled() bool {
	return s == StatusActive || s == StatusPassive
}

// KeyType describes the cryptographic key family.
type KeyType string

const (
	KeyTypeRSA KeyType = "RSA"
	KeyTypeEC  KeyType = "EC"
	KeyTypeOct KeyType = "OCT" // symmetric
)

// KeyDescriptor is the resolved, presentable metadata of a signing key
// backed by a key-provider component. Private material is held in an
// unexported handle and never serialized.
type KeyDescriptor struct {
	ProviderID       string    `json:"providerId"`
	ProviderPriority int64     `json:"providerPriority"`
	Kid              string    `json:"kid,omitempty"`
	Status           KeyStatus `json:"status"`
	Type             KeyType   `json:"type,omitempty"`
	Algorithm        string    `json:"algorithm,omitempty"`
	PublicKey        string    `json:"publicKey,omitempty"`
	Certificate      string    `json:"certificate,omitempty"`

	signer crypto.Signer
	secret []byte
}

// Signer returns the private key handle for asymmetric keys, or nil.
func (k *KeyDescriptor) Signer() crypto.Signer {
	return k.signer
}

// Secret returns the raw secret for symmetric keys, or nil.
func (k *KeyDescriptor) Secret() []byte {
	return k.secret
}

// SigningMethod resolves the descriptor's algorithm to a JWT signing
// method, or nil when the algorithm is unknown.
func (k *KeyDescriptor) SigningMethod() jwt.SigningMethod {
	return jwt.GetSigningMethod(k.Algorithm)
}

// Provider is a concrete key-provider implementation. Generate fills a
// component config with fresh key material; Decode turns a stored
// component back into a descriptor.
type Provider interface {
	ID() string
	Schema() provider.Schema
	Generate(org *models.Organization, config models.ComponentConfig) (models.ComponentConfig, error)
	Decode(component *models.Component) (*KeyDescriptor, error)
}

// Fingerprint computes a key id from key material: the base58-encoded
// SHA-256 hash of the input bytes.
func Fingerprint(material []byte) string {
	hash := sha256.Sum256(material)
	return base58.Encode(hash[:])
}

// validAlgorithm rejects algorithm names jwt has no signing method for.
// This guards against typos that would otherwise surface much later, at
// signing time.
func validAlgorithm(values []string) error {
	for _, v := range values {
		if jwt.GetSigningMethod(v) == nil {
			return fmt.Errorf("no signing method registered for algorithm %q", v)
		}
	}
	return nil
}

// commonOptions returns the schema entries shared by every key provider.
func commonOptions() []provider.Option {
	return []provider.Option{
		{Name: OptionPriority, Default: []string{"0"}, Validate: provider.IsInt()},
		{Name: OptionEnabled, Default: []string{"true"}, Validate: provider.IsBool()},
		{Name: OptionActive, Default: []string{"true"}, Validate: provider.IsBool()},
	}
}

// Register wires the given providers into a provider registry under
// ProviderType and returns a lookup map used by the resolver.
func Register(registry *provider.Registry, providers ...Provider) map[string]Provider {
	byID := make(map[string]Provider, len(providers))
	for _, p := range providers {
		byID[p.ID()] = p
		registry.Register(&provider.Definition{
			ID:     p.ID(),
			Type:   ProviderType,
			Schema: p.Schema(),
		})
	}
	return byID
}
