//go:build !pkcs11

package keystore

import "errors"

// ErrPKCS11NotSupported is returned when the binary was built without
// the pkcs11 build tag
var ErrPKCS11NotSupported = errors.New("PKCS#11 support not compiled in (build with -tags pkcs11)")

// NewPKCS11Provider is unavailable without the pkcs11 build tag
func NewPKCS11Provider(cfg *PKCS11Config) (Provider, error) {
	return nil, ErrPKCS11NotSupported
}
