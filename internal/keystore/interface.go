// Package keystore loads private keys and certificates for the security
// pipelines
//
// Two backends are provided:
//
//   - File-based: PEM keys and certificates on disk (development only)
//   - PKCS#11: keys held in an HSM or smart card, behind the pkcs11
//     build tag
//
// A provider serves two kinds of material: the local aliases it holds a
// private key for, and the trusted peer certificates it only verifies
// and encrypts against.
package keystore

import (
	"crypto"
	"crypto/x509"
	"errors"
	"fmt"
)

// Common errors
var (
	ErrKeyNotFound  = errors.New("key not found")
	ErrCertNotFound = errors.New("certificate not found")
)

// Provider loads key material by alias
//
// Implementations must be safe for concurrent use.
type Provider interface {
	// Signer returns the private key registered under the alias. The
	// returned signer also implements crypto.Decrypter for RSA keys.
	Signer(alias string) (crypto.Signer, error)

	// Certificate returns the certificate belonging to a local alias
	Certificate(alias string) (*x509.Certificate, error)

	// TrustedCertificate returns a peer certificate from the trust store
	TrustedCertificate(alias string) (*x509.Certificate, error)

	// Close releases any resources held by the provider
	Close() error
}

// Config selects and configures a keystore backend
type Config struct {
	// Mode is "file" or "pkcs11"
	Mode string `yaml:"mode"`

	// KeyDir is the key directory for file mode
	KeyDir string `yaml:"keyDir"`

	// PKCS11 configures the HSM backend
	PKCS11 PKCS11Config `yaml:"pkcs11"`
}

// PKCS11Config holds configuration for the PKCS#11 provider
type PKCS11Config struct {
	// ModulePath is the path to the PKCS#11 library (.so/.dylib/.dll)
	ModulePath string `yaml:"modulePath"`

	// SlotLabel is the token label to search for
	SlotLabel string `yaml:"slotLabel"`

	// PIN is the user PIN for authentication
	PIN string `yaml:"pin"`
}

// NewProvider builds the provider selected by cfg.Mode
func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Mode {
	case "", "file":
		return NewFileProvider(cfg.KeyDir)
	case "pkcs11":
		return NewPKCS11Provider(&cfg.PKCS11)
	default:
		return nil, fmt.Errorf("unknown keystore mode: %q", cfg.Mode)
	}
}
