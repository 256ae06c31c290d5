package main

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

func newKeygenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate development keys and certificates",
		Long: `Keygen creates a file keystore for each alias under the output
directory: a 2048-bit RSA key, a self-signed certificate, and a trust/
directory holding the certificates of the other aliases.

The layout matches what 'serve' and 'call' expect with keystore.mode
set to 'file' and keyDir pointing at the alias directory.`,
		RunE: runKeygen,
	}
	cmd.Flags().String("out", "keys", "Output directory")
	cmd.Flags().StringArray("alias", []string{"client", "server"}, "Key alias (repeatable)")
	cmd.Flags().Int("days", 365, "Certificate validity in days")
	return cmd
}

type generatedPair struct {
	keyPEM  []byte
	certPEM []byte
}

func runKeygen(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	out, _ := cmd.Flags().GetString("out")
	aliases, _ := cmd.Flags().GetStringArray("alias")
	days, _ := cmd.Flags().GetInt("days")
	if len(aliases) < 2 {
		return fmt.Errorf("need at least two aliases to build trust directories")
	}

	pairs := make(map[string]*generatedPair, len(aliases))
	for _, alias := range aliases {
		pair, err := generatePair(alias, days)
		if err != nil {
			return fmt.Errorf("generating key pair for %s: %w", alias, err)
		}
		pairs[alias] = pair
	}

	for _, alias := range aliases {
		dir := filepath.Join(out, alias)
		trustDir := filepath.Join(dir, "trust")
		if err := os.MkdirAll(trustDir, 0o755); err != nil {
			return err
		}

		pair := pairs[alias]
		if err := os.WriteFile(filepath.Join(dir, alias+".key"), pair.keyPEM, 0o600); err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, alias+".crt"), pair.certPEM, 0o644); err != nil {
			return err
		}

		// Everyone else's certificate goes into this alias's trust store
		for _, other := range aliases {
			if other == alias {
				continue
			}
			if err := os.WriteFile(filepath.Join(trustDir, other+".crt"), pairs[other].certPEM, 0o644); err != nil {
				return err
			}
		}

		logger.Info("wrote keystore", "alias", alias, "dir", dir)
	}
	return nil
}

func generatePair(alias string, days int) (*generatedPair, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, err
	}

	tmpl := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: alias},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().AddDate(0, 0, days),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		return nil, err
	}

	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, err
	}

	return &generatedPair{
		keyPEM:  pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER}),
		certPEM: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
	}, nil
}
