package pki

import (
	"crypto"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"time"
)

// defaultCertificateLifetime matches the ten year validity the default
// key providers provision with.
const defaultCertificateLifetime = 10 * 365 * 24 * time.Hour

// SelfSignedCertificate creates a self-signed X.509 certificate for a
// keypair. The subject CN is the owning organization's name so the
// certificate is identifiable in key metadata listings.
func SelfSignedCertificate(subjectCN string, signer crypto.Signer) (*x509.Certificate, error) {
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, fmt.Errorf("failed to generate serial number: %w", err)
	}

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName: subjectCN,
		},
		NotBefore:             now.Add(-5 * time.Minute),
		NotAfter:              now.Add(defaultCertificateLifetime),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, signer.Public(), signer)
	if err != nil {
		return nil, fmt.Errorf("failed to create certificate: %w", err)
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created certificate: %w", err)
	}

	return cert, nil
}
