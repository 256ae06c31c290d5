package credential

import (
	"crypto"
	"crypto/x509"
	"fmt"
	"sort"
)

// Credential binds an identity to its secret material. Any subset of the
// fields may be populated: a user entry carries only a password, a local
// key alias carries a private key and certificate, and a trusted peer
// carries a certificate alone.
type Credential struct {
	// Name is the logical identifier the credential is registered under
	Name string

	// Password is the shared secret for UsernameToken exchange ("" if none)
	Password string

	// Key is the private key for signing and decryption (nil for
	// verify/encrypt-only credentials)
	Key crypto.Signer

	// Certificate is the X.509 certificate: the credential's own when Key
	// is present, a trusted peer's otherwise
	Certificate *x509.Certificate
}

// Store is an immutable identifier -> credential mapping. It is built
// once at startup and only read afterwards, so concurrent lookups need
// no locking.
type Store struct {
	creds map[string]*Credential
}

// NewStore builds a store from the given credentials
func NewStore(creds ...*Credential) (*Store, error) {
	m := make(map[string]*Credential, len(creds))
	for _, c := range creds {
		if c.Name == "" {
			return nil, fmt.Errorf("credential with empty name")
		}
		if _, ok := m[c.Name]; ok {
			return nil, fmt.Errorf("duplicate credential: %s", c.Name)
		}
		m[c.Name] = c
	}
	return &Store{creds: m}, nil
}

// Lookup returns the credential registered under name
func (s *Store) Lookup(name string) (*Credential, bool) {
	c, ok := s.creds[name]
	return c, ok
}

// Names returns the registered identifiers, sorted
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.creds))
	for name := range s.creds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
