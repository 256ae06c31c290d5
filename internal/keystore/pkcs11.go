//go:build pkcs11

package keystore

import (
	"crypto"
	"crypto/x509"
	"fmt"
	"sync"

	"github.com/ThalesGroup/crypto11"
)

// PKCS11Provider implements Provider using a PKCS#11 token (HSM/smart card).
// Local keys are looked up by alias label; trusted peer certificates are
// expected on the token under a "trust-" label prefix.
type PKCS11Provider struct {
	ctx     *crypto11.Context
	mu      sync.RWMutex
	signers map[string]crypto.Signer
}

// NewPKCS11Provider creates a new PKCS#11 provider
func NewPKCS11Provider(cfg *PKCS11Config) (Provider, error) {
	config := &crypto11.Config{
		Path: cfg.ModulePath,
		Pin:  cfg.PIN,
	}
	if cfg.SlotLabel != "" {
		config.TokenLabel = cfg.SlotLabel
	}

	ctx, err := crypto11.Configure(config)
	if err != nil {
		return nil, fmt.Errorf("configuring PKCS#11: %w", err)
	}

	return &PKCS11Provider{
		ctx:     ctx,
		signers: make(map[string]crypto.Signer),
	}, nil
}

// Signer returns the token-resident private key for an alias
func (p *PKCS11Provider) Signer(alias string) (crypto.Signer, error) {
	p.mu.RLock()
	if signer, ok := p.signers[alias]; ok {
		p.mu.RUnlock()
		return signer, nil
	}
	p.mu.RUnlock()

	key, err := p.ctx.FindKeyPair(nil, []byte(alias))
	if err != nil {
		return nil, fmt.Errorf("finding key pair: %w", err)
	}
	if key == nil {
		return nil, ErrKeyNotFound
	}

	p.mu.Lock()
	p.signers[alias] = key
	p.mu.Unlock()
	return key, nil
}

// Certificate returns the certificate stored alongside a local key
func (p *PKCS11Provider) Certificate(alias string) (*x509.Certificate, error) {
	return p.findCertificate(alias)
}

// TrustedCertificate returns a peer certificate stored on the token
func (p *PKCS11Provider) TrustedCertificate(alias string) (*x509.Certificate, error) {
	return p.findCertificate("trust-" + alias)
}

// Close releases PKCS#11 resources
func (p *PKCS11Provider) Close() error {
	return p.ctx.Close()
}

func (p *PKCS11Provider) findCertificate(label string) (*x509.Certificate, error) {
	cert, err := p.ctx.FindCertificate(nil, []byte(label), nil)
	if err != nil {
		return nil, fmt.Errorf("finding certificate: %w", err)
	}
	if cert == nil {
		return nil, ErrCertNotFound
	}
	return cert, nil
}
