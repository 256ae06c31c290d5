package keystore

import (
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileProvider implements Provider using PEM files on disk
//
// This is intended for development and testing only. In production,
// use PKCS#11.
//
// Key files are expected at: {keyDir}/{alias}.key
// Certificate files at: {keyDir}/{alias}.crt
// Trusted peer certificates at: {keyDir}/trust/{alias}.crt
type FileProvider struct {
	keyDir string
	mu     sync.RWMutex
	keys   map[string]crypto.Signer
	certs  map[string]*x509.Certificate
}

// NewFileProvider creates a new file-based provider
func NewFileProvider(keyDir string) (*FileProvider, error) {
	info, err := os.Stat(keyDir)
	if err != nil {
		return nil, fmt.Errorf("checking key directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("key directory is not a directory: %s", keyDir)
	}

	return &FileProvider{
		keyDir: keyDir,
		keys:   make(map[string]crypto.Signer),
		certs:  make(map[string]*x509.Certificate),
	}, nil
}

// Signer returns the private key for a local alias
func (p *FileProvider) Signer(alias string) (crypto.Signer, error) {
	p.mu.RLock()
	if key, ok := p.keys[alias]; ok {
		p.mu.RUnlock()
		return key, nil
	}
	p.mu.RUnlock()

	keyPEM, err := os.ReadFile(filepath.Join(p.keyDir, alias+".key"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("reading key file: %w", err)
	}
	key, err := parsePrivateKey(keyPEM)
	if err != nil {
		return nil, fmt.Errorf("parsing private key %s: %w", alias, err)
	}

	p.mu.Lock()
	p.keys[alias] = key
	p.mu.Unlock()
	return key, nil
}

// Certificate returns the certificate for a local alias
func (p *FileProvider) Certificate(alias string) (*x509.Certificate, error) {
	return p.cachedCertificate(alias, filepath.Join(p.keyDir, alias+".crt"))
}

// TrustedCertificate returns a peer certificate from the trust directory
func (p *FileProvider) TrustedCertificate(alias string) (*x509.Certificate, error) {
	return p.cachedCertificate("trust/"+alias, filepath.Join(p.keyDir, "trust", alias+".crt"))
}

// Close drops the caches
func (p *FileProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = make(map[string]crypto.Signer)
	p.certs = make(map[string]*x509.Certificate)
	return nil
}

func (p *FileProvider) cachedCertificate(cacheKey, path string) (*x509.Certificate, error) {
	p.mu.RLock()
	if cert, ok := p.certs[cacheKey]; ok {
		p.mu.RUnlock()
		return cert, nil
	}
	p.mu.RUnlock()

	cert, err := loadCertificate(path)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.certs[cacheKey] = cert
	p.mu.Unlock()
	return cert, nil
}

func parsePrivateKey(pemData []byte) (crypto.Signer, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case "EC PRIVATE KEY":
		return x509.ParseECPrivateKey(block.Bytes)
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		signer, ok := key.(crypto.Signer)
		if !ok {
			return nil, fmt.Errorf("key is not a signer")
		}
		return signer, nil
	default:
		return nil, fmt.Errorf("unsupported key type: %s", block.Type)
	}
}

func loadCertificate(path string) (*x509.Certificate, error) {
	certPEM, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCertNotFound
		}
		return nil, fmt.Errorf("reading certificate file: %w", err)
	}

	block, _ := pem.Decode(certPEM)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}
	return x509.ParseCertificate(block.Bytes)
}
