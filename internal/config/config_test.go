package config

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirosfoundation/go-wscalc/internal/keystore"
	"github.com/sirosfoundation/go-wscalc/pkg/credential"
	"github.com/sirosfoundation/go-wscalc/pkg/wssec"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  soapPath: /calculator
security:
  actions: "UsernameToken Signature Encrypt"
  localIdentity: server
  peerIdentity: client
  users:
    alice: secret123
keystore:
  mode: file
  keyDir: /etc/wscalc/keys
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/calculator", cfg.Server.SOAPPath)
	assert.Equal(t, "server", cfg.Security.LocalIdentity)
	assert.Equal(t, "secret123", cfg.Security.Users["alice"])
	assert.True(t, cfg.Policy().Requires(wssec.ActionEncrypt))
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
security:
  localIdentity: server
  peerIdentity: client
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "/ws", cfg.Server.SOAPPath)
	assert.Equal(t, "/metrics", cfg.Server.Metrics.Path)
	assert.Equal(t, "file", cfg.Keystore.Mode)
	assert.Equal(t, "UsernameToken Signature Encrypt", cfg.Security.Actions)
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("WSCALC_TEST_PASSWORD", "from-env")
	path := writeConfig(t, `
security:
  localIdentity: server
  peerIdentity: client
  users:
    alice: ${WSCALC_TEST_PASSWORD}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Security.Users["alice"])
}

func TestLoad_MissingIdentity(t *testing.T) {
	path := writeConfig(t, `
security:
  peerIdentity: client
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "localIdentity")
}

func TestLoad_BadActions(t *testing.T) {
	path := writeConfig(t, `
security:
  actions: "UsernameToken Frobnicate"
  localIdentity: server
  peerIdentity: client
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "Frobnicate")
}

func TestLoad_PKCS11RequiresModulePath(t *testing.T) {
	path := writeConfig(t, `
security:
  localIdentity: server
  peerIdentity: client
keystore:
  mode: pkcs11
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "modulePath")
}

func TestCredentials(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "trust"), 0o755))
	writeKeyPair(t, dir, "server")
	writeKeyPair(t, filepath.Join(dir, "trust"), "client")
	require.NoError(t, os.Remove(filepath.Join(dir, "trust", "client.key")))

	ks, err := keystore.NewFileProvider(dir)
	require.NoError(t, err)
	defer ks.Close()

	cfg := &Config{}
	cfg.Security.LocalIdentity = "server"
	cfg.Security.PeerIdentity = "client"
	cfg.Security.Users = map[string]string{"alice": "secret123"}

	store, err := cfg.Credentials(ks)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "client", "server"}, store.Names())

	resolver := credential.NewResolver(store, nil)

	mat, err := resolver.Resolve("alice", credential.UsageTokenCredential)
	require.NoError(t, err)
	assert.Equal(t, "secret123", mat.Password)

	_, err = resolver.Resolve("server", credential.UsageSignUnlock)
	assert.NoError(t, err)

	_, err = resolver.Resolve("client", credential.UsageVerifyCert)
	assert.NoError(t, err)
	_, err = resolver.Resolve("client", credential.UsageDecryptUnlock)
	assert.ErrorIs(t, err, credential.ErrUnsupportedUsage)
}

func writeKeyPair(t *testing.T, dir, alias string) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: alias},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	require.NoError(t, os.WriteFile(filepath.Join(dir, alias+".key"), keyPEM, 0o600))
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	require.NoError(t, os.WriteFile(filepath.Join(dir, alias+".crt"), certPEM, 0o644))
}

func TestIdentity(t *testing.T) {
	cfg := &Config{}
	cfg.Security.LocalIdentity = "client"
	cfg.Security.PeerIdentity = "server"
	cfg.Security.TokenUser = "alice"

	id := cfg.Identity()
	assert.Equal(t, "client", id.Local)
	assert.Equal(t, "server", id.Peer)
	assert.Equal(t, "alice", id.TokenUser)
}
