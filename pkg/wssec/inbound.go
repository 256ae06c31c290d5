// Copyright (c) 2025 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

package wssec

import (
	"crypto/subtle"
	"errors"
	"log/slog"

	"github.com/sirosfoundation/go-wscalc/pkg/credential"
	"github.com/sirosfoundation/go-wscalc/pkg/envelope"
)

// AuthResult is the outcome of inbound security processing
type AuthResult struct {
	// Identity is the authenticated UsernameToken principal, "" when the
	// policy does not require a token
	Identity string
	// Fault is set when any inbound action rejected the message
	Fault *Fault
}

// OK reports whether the message passed all required actions
func (r AuthResult) OK() bool {
	return r.Fault == nil
}

// Inbound unwraps and verifies envelopes coming off the wire, reversing
// the outbound order: decrypt, verify signature, validate token. The
// pipeline stops at the first action that rejects the message.
type Inbound struct {
	resolver *credential.Resolver
	policy   Policy
	identity Identity
	logger   *slog.Logger
}

// NewInbound builds the inbound pipeline. A nil logger falls back to
// slog.Default.
func NewInbound(resolver *credential.Resolver, policy Policy, identity Identity, logger *slog.Logger) *Inbound {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inbound{resolver: resolver, policy: policy, identity: identity, logger: logger}
}

// Unsecure processes a clone of env through the required inbound actions
// and returns the plaintext envelope with the Security header stripped.
// On rejection the returned envelope is nil and the result carries the
// fault; the input envelope is never modified either way.
func (i *Inbound) Unsecure(env *envelope.Envelope) (*envelope.Envelope, AuthResult) {
	in := env.Clone()

	if i.policy.Requires(ActionEncrypt) {
		if fault := i.decrypt(in); fault != nil {
			return nil, AuthResult{Fault: fault}
		}
	}

	if i.policy.Requires(ActionSignature) {
		if fault := i.verify(in); fault != nil {
			return nil, AuthResult{Fault: fault}
		}
	}

	var identity string
	if i.policy.Requires(ActionUsernameToken) {
		authenticated, fault := i.validateToken(in)
		if fault != nil {
			return nil, AuthResult{Fault: fault}
		}
		identity = authenticated
	}

	in.RemoveSecurityHeader()
	return in, AuthResult{Identity: identity}
}

func (i *Inbound) decrypt(env *envelope.Envelope) *Fault {
	if !isBodyEncrypted(env) {
		i.logger.Warn("message rejected: body not encrypted", "peer", i.identity.Peer)
		return NewFault(FaultDecryptionFailed, "message body is not encrypted")
	}

	mat, err := i.resolver.Resolve(i.identity.Local, credential.UsageDecryptUnlock)
	if err != nil {
		// Our own key being unavailable is a deployment problem, not
		// something the sender did wrong
		i.logger.Error("decryption key unavailable", "local", i.identity.Local, "error", err)
		return NewFault(FaultInternal, "decryption key unavailable")
	}

	if err := decryptBody(env, mat.Decrypter); err != nil {
		i.logger.Warn("message rejected: decryption failed", "peer", i.identity.Peer, "error", err)
		return NewFault(FaultDecryptionFailed, "unable to decrypt message body")
	}
	return nil
}

func (i *Inbound) verify(env *envelope.Envelope) *Fault {
	if !hasSignature(env) {
		i.logger.Warn("message rejected: signature missing", "peer", i.identity.Peer)
		return NewFault(FaultSignatureMissing, "message is not signed")
	}

	mat, err := i.resolver.Resolve(i.identity.Peer, credential.UsageVerifyCert)
	if err != nil {
		i.logger.Error("verification certificate unavailable", "peer", i.identity.Peer, "error", err)
		return NewFault(FaultInternal, "verification certificate unavailable")
	}

	if err := verifyEnvelope(env, mat.Certificate); err != nil {
		i.logger.Warn("message rejected: signature invalid", "peer", i.identity.Peer, "error", err)
		return NewFault(FaultSignatureInvalid, "signature validation failed")
	}
	return nil
}

func (i *Inbound) validateToken(env *envelope.Envelope) (string, *Fault) {
	token := findUsernameToken(env)
	if token == nil {
		i.logger.Warn("message rejected: UsernameToken missing")
		return "", NewFault(FaultAuthenticationFailed, "UsernameToken missing")
	}
	if token.PasswordType != passwordTextType {
		i.logger.Warn("message rejected: unsupported password type",
			"username", token.Username, "type", token.PasswordType)
		return "", NewFault(FaultAuthenticationFailed, "unsupported password type")
	}

	mat, err := i.resolver.Resolve(token.Username, credential.UsageTokenCredential)
	if err != nil {
		if errors.Is(err, credential.ErrUnknownIdentifier) || errors.Is(err, credential.ErrUnsupportedUsage) {
			i.logger.Warn("message rejected: unknown user", "username", token.Username)
			return "", NewFault(FaultAuthenticationFailed, "authentication failed")
		}
		i.logger.Error("token credential lookup failed", "username", token.Username, "error", err)
		return "", NewFault(FaultInternal, "credential lookup failed")
	}

	if subtle.ConstantTimeCompare([]byte(mat.Password), []byte(token.Password)) != 1 {
		i.logger.Warn("message rejected: password mismatch", "username", token.Username)
		return "", NewFault(FaultAuthenticationFailed, "authentication failed")
	}

	return token.Username, nil
}
