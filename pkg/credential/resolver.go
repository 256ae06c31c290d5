package credential

import (
	"crypto"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
)

var (
	// ErrUnknownIdentifier is returned when no credential is registered
	// for the requested identifier
	ErrUnknownIdentifier = errors.New("unknown credential identifier")
	// ErrUnsupportedUsage is returned when the credential exists but
	// cannot serve the requested usage
	ErrUnsupportedUsage = errors.New("credential cannot serve requested usage")
)

// Usage says what a resolved credential will be used for. The same
// identifier may be resolved under several usages while processing a
// single message.
type Usage int

const (
	// UsageTokenCredential is the password to embed in or validate
	// against a UsernameToken
	UsageTokenCredential Usage = iota
	// UsageSignUnlock is the private key material for signing
	UsageSignUnlock
	// UsageVerifyCert is the public certificate to verify a signature,
	// resolved by the signer's claimed identifier
	UsageVerifyCert
	// UsageEncryptCert is the recipient's public certificate
	UsageEncryptCert
	// UsageDecryptUnlock is the private key material for decryption
	UsageDecryptUnlock
)

func (u Usage) String() string {
	switch u {
	case UsageTokenCredential:
		return "TokenCredential"
	case UsageSignUnlock:
		return "SignUnlock"
	case UsageVerifyCert:
		return "VerifyCert"
	case UsageEncryptCert:
		return "EncryptCert"
	case UsageDecryptUnlock:
		return "DecryptUnlock"
	default:
		return fmt.Sprintf("Usage(%d)", int(u))
	}
}

// Material is the secret or key material a resolve produced. Exactly the
// fields relevant to the requested usage are populated.
type Material struct {
	Password    string
	Signer      crypto.Signer
	Decrypter   crypto.Decrypter
	Certificate *x509.Certificate
}

// Resolver performs read-only, usage-typed credential lookups against a
// store. Every request is logged with its identifier/usage pair so the
// multi-usage lookups in a single message stay visible.
type Resolver struct {
	store  *Store
	logger *slog.Logger
}

// NewResolver wraps a store. A nil logger falls back to slog.Default.
func NewResolver(store *Store, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: store, logger: logger}
}

// Resolve returns the material for the identifier under the given usage.
// It fails with ErrUnknownIdentifier when nothing is registered under the
// identifier, and ErrUnsupportedUsage when the credential cannot serve
// the usage (for example a certificate-only credential asked to sign).
func (r *Resolver) Resolve(identifier string, usage Usage) (*Material, error) {
	r.logger.Info("credential requested", "identifier", identifier, "usage", usage.String())

	cred, ok := r.store.Lookup(identifier)
	if !ok {
		r.logger.Warn("credential lookup failed", "identifier", identifier, "usage", usage.String())
		return nil, fmt.Errorf("%w: %s", ErrUnknownIdentifier, identifier)
	}

	switch usage {
	case UsageTokenCredential:
		if cred.Password == "" {
			return nil, unsupported(identifier, usage)
		}
		return &Material{Password: cred.Password}, nil

	case UsageSignUnlock:
		if cred.Key == nil || cred.Certificate == nil {
			return nil, unsupported(identifier, usage)
		}
		return &Material{Signer: cred.Key, Certificate: cred.Certificate}, nil

	case UsageVerifyCert, UsageEncryptCert:
		if cred.Certificate == nil {
			return nil, unsupported(identifier, usage)
		}
		return &Material{Certificate: cred.Certificate}, nil

	case UsageDecryptUnlock:
		if cred.Key == nil {
			return nil, unsupported(identifier, usage)
		}
		decrypter, ok := cred.Key.(crypto.Decrypter)
		if !ok {
			return nil, unsupported(identifier, usage)
		}
		return &Material{Decrypter: decrypter, Certificate: cred.Certificate}, nil

	default:
		return nil, fmt.Errorf("unhandled usage %s for %s", usage, identifier)
	}
}

func unsupported(identifier string, usage Usage) error {
	return fmt.Errorf("%w: %s for %s", ErrUnsupportedUsage, usage, identifier)
}
