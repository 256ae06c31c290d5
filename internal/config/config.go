// Package config handles configuration loading for the calculator service.
//
// Configuration is loaded from a YAML file with support for environment
// variable expansion (${VAR} or $VAR syntax), so token passwords and HSM
// PINs can be injected at runtime.
//
// # Example Configuration
//
//	server:
//	  port: 8080
//	  soapPath: /ws
//	  metrics:
//	    enabled: true
//	    path: /metrics
//
//	security:
//	  actions: "UsernameToken Signature Encrypt"
//	  localIdentity: server
//	  peerIdentity: client
//	  users:
//	    alice: ${ALICE_PASSWORD}
//
//	keystore:
//	  mode: file
//	  keyDir: ./keys
//
// See [Load] for loading configuration from a file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sirosfoundation/go-wscalc/internal/keystore"
	"github.com/sirosfoundation/go-wscalc/pkg/credential"
	"github.com/sirosfoundation/go-wscalc/pkg/wssec"
)

// Config is the root configuration structure
type Config struct {
	Server   ServerConfig    `yaml:"server"`
	Security SecurityConfig  `yaml:"security"`
	Keystore keystore.Config `yaml:"keystore"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port     int    `yaml:"port"`
	SOAPPath string `yaml:"soapPath"`
	Metrics  struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
}

// SecurityConfig holds the WS-Security policy and identities
type SecurityConfig struct {
	// Actions is the space-separated action list, e.g.
	// "UsernameToken Signature Encrypt"
	Actions string `yaml:"actions"`

	// LocalIdentity is the key alias whose private key this side holds
	LocalIdentity string `yaml:"localIdentity"`

	// PeerIdentity is the counterparty whose certificate is trusted
	PeerIdentity string `yaml:"peerIdentity"`

	// TokenUser is the UsernameToken principal for outbound messages
	// (client side); servers leave it empty
	TokenUser string `yaml:"tokenUser"`

	// Users maps token usernames to their passwords
	Users map[string]string `yaml:"users"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.SOAPPath == "" {
		c.Server.SOAPPath = "/ws"
	}
	if c.Server.Metrics.Path == "" {
		c.Server.Metrics.Path = "/metrics"
	}
	if c.Security.Actions == "" {
		c.Security.Actions = "UsernameToken Signature Encrypt"
	}
	if c.Keystore.Mode == "" {
		c.Keystore.Mode = "file"
	}
	if c.Keystore.KeyDir == "" {
		c.Keystore.KeyDir = "keys"
	}
}

func (c *Config) validate() error {
	if c.Security.LocalIdentity == "" {
		return fmt.Errorf("security.localIdentity is required")
	}
	if c.Security.PeerIdentity == "" {
		return fmt.Errorf("security.peerIdentity is required")
	}
	if _, err := wssec.ParsePolicy(c.Security.Actions); err != nil {
		return fmt.Errorf("security.actions: %w", err)
	}

	switch c.Keystore.Mode {
	case "file", "pkcs11":
	default:
		return fmt.Errorf("keystore.mode must be 'file' or 'pkcs11', got %q", c.Keystore.Mode)
	}
	if c.Keystore.Mode == "pkcs11" && c.Keystore.PKCS11.ModulePath == "" {
		return fmt.Errorf("keystore.pkcs11.modulePath is required when mode is 'pkcs11'")
	}
	return nil
}

// Policy parses the configured security actions
func (c *Config) Policy() wssec.Policy {
	// validated at load time
	p, _ := wssec.ParsePolicy(c.Security.Actions)
	return p
}

// Identity returns the pipeline identity derived from the configuration
func (c *Config) Identity() wssec.Identity {
	return wssec.Identity{
		Local:     c.Security.LocalIdentity,
		Peer:      c.Security.PeerIdentity,
		TokenUser: c.Security.TokenUser,
	}
}

// Credentials builds the credential store from the configured users and
// the keystore: the local identity gets its private key and certificate,
// the peer identity its trusted certificate, and each user its password.
// A user sharing a name with an identity merges into one credential.
func (c *Config) Credentials(ks keystore.Provider) (*credential.Store, error) {
	byName := make(map[string]*credential.Credential)

	for user, password := range c.Security.Users {
		byName[user] = &credential.Credential{Name: user, Password: password}
	}

	local := c.Security.LocalIdentity
	key, err := ks.Signer(local)
	if err != nil {
		return nil, fmt.Errorf("loading key for %s: %w", local, err)
	}
	cert, err := ks.Certificate(local)
	if err != nil {
		return nil, fmt.Errorf("loading certificate for %s: %w", local, err)
	}
	if existing, ok := byName[local]; ok {
		existing.Key = key
		existing.Certificate = cert
	} else {
		byName[local] = &credential.Credential{Name: local, Key: key, Certificate: cert}
	}

	peer := c.Security.PeerIdentity
	peerCert, err := ks.TrustedCertificate(peer)
	if err != nil {
		return nil, fmt.Errorf("loading trusted certificate for %s: %w", peer, err)
	}
	if existing, ok := byName[peer]; ok {
		existing.Certificate = peerCert
	} else {
		byName[peer] = &credential.Credential{Name: peer, Certificate: peerCert}
	}

	creds := make([]*credential.Credential, 0, len(byName))
	for _, cred := range byName {
		creds = append(creds, cred)
	}
	return credential.NewStore(creds...)
}
