// Copyright (c) 2025 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

package wssec

import (
	"fmt"
	"log/slog"

	"github.com/sirosfoundation/go-wscalc/pkg/credential"
	"github.com/sirosfoundation/go-wscalc/pkg/envelope"
)

// Identity names the credentials a pipeline works with. Local is the key
// alias whose private key signs and decrypts; Peer is the counterparty
// whose certificate encrypts and verifies. TokenUser is the UsernameToken
// principal, which is usually a user account rather than a key alias; it
// defaults to Local when empty.
type Identity struct {
	Local     string
	Peer      string
	TokenUser string
}

func (id Identity) tokenUser() string {
	if id.TokenUser != "" {
		return id.TokenUser
	}
	return id.Local
}

// Outbound secures envelopes before they go on the wire. Actions run in
// a fixed order - token, sign, encrypt - so the token is covered by the
// signature and the signed body is what gets encrypted.
type Outbound struct {
	resolver *credential.Resolver
	policy   Policy
	identity Identity
	logger   *slog.Logger
}

// NewOutbound builds the outbound pipeline. A nil logger falls back to
// slog.Default.
func NewOutbound(resolver *credential.Resolver, policy Policy, identity Identity, logger *slog.Logger) *Outbound {
	if logger == nil {
		logger = slog.Default()
	}
	return &Outbound{resolver: resolver, policy: policy, identity: identity, logger: logger}
}

// Secure applies the configured security actions to a clone of env. The
// input envelope is never modified, so a failed action cannot leave a
// half-secured message behind.
func (o *Outbound) Secure(env *envelope.Envelope) (*envelope.Envelope, error) {
	out := env.Clone()

	if o.policy.Requires(ActionUsernameToken) {
		user := o.identity.tokenUser()
		mat, err := o.resolver.Resolve(user, credential.UsageTokenCredential)
		if err != nil {
			return nil, fmt.Errorf("resolving token credential: %w", err)
		}
		attachUsernameToken(out, user, mat.Password)
	}

	if o.policy.Requires(ActionSignature) {
		mat, err := o.resolver.Resolve(o.identity.Local, credential.UsageSignUnlock)
		if err != nil {
			return nil, fmt.Errorf("resolving signing key: %w", err)
		}
		signed, err := signEnvelope(out, mat.Signer, mat.Certificate)
		if err != nil {
			return nil, fmt.Errorf("signing envelope: %w", err)
		}
		out = signed
	}

	if o.policy.Requires(ActionEncrypt) {
		mat, err := o.resolver.Resolve(o.identity.Peer, credential.UsageEncryptCert)
		if err != nil {
			return nil, fmt.Errorf("resolving encryption certificate: %w", err)
		}
		if err := encryptBody(out, mat.Certificate); err != nil {
			return nil, fmt.Errorf("encrypting body: %w", err)
		}
	}

	o.logger.Debug("message secured",
		"policy", o.policy.String(),
		"local", o.identity.Local,
		"peer", o.identity.Peer)
	return out, nil
}
