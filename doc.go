// Copyright (c) 2025 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package gowscalc is a pedagogical SOAP calculator service hardened with
WS-Security message-level security.

# Overview

go-wscalc exposes four arithmetic operations (add, subtract, multiply,
divide) over SOAP 1.1 and protects every exchange with the classic
WS-Security three-layer stack:

  - UsernameToken: "who are you?" - identity proved with username/password
  - XML Digital Signature: "was this tampered with?" - integrity and origin
  - XML Encryption: "can intermediaries read this?" - confidentiality

The interesting part is not the arithmetic. It is the secure envelope
processing pipeline: the fixed ordering of security actions, the
usage-typed credential lookup, and the decrypt-before-dispatch routing
problem (an encrypted body hides the operation name the router needs).

# Package Structure

	github.com/sirosfoundation/go-wscalc/pkg/envelope   - SOAP envelope codec
	github.com/sirosfoundation/go-wscalc/pkg/credential - credential store and key resolver
	github.com/sirosfoundation/go-wscalc/pkg/wssec      - outbound/inbound security pipelines
	github.com/sirosfoundation/go-wscalc/pkg/calc       - the four operations and their wire shapes
	github.com/sirosfoundation/go-wscalc/pkg/dispatch   - decrypt-then-route dispatcher
	github.com/sirosfoundation/go-wscalc/pkg/client     - secured SOAP client
	github.com/sirosfoundation/go-wscalc/internal/...   - keystore, config, HTTP server
	github.com/sirosfoundation/go-wscalc/cmd/wscalc     - CLI (serve, call, keygen)

# Specifications

  - WS-Security 1.1.1: https://docs.oasis-open.org/wss/v1.1/
  - XML Signature Syntax and Processing: https://www.w3.org/TR/xmldsig-core1/
  - XML Encryption Syntax and Processing: https://www.w3.org/TR/xmlenc-core1/

# A Deliberate Weakness

The UsernameToken is sent as cleartext PasswordText with no digest, nonce
or created timestamp, even under the full security policy. This mirrors
the demo this service teaches from and keeps the wire format easy to read;
do not copy that choice into production code.
*/
package gowscalc
