// Copyright (c) 2025 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package wssec implements the WS-Security message pipelines: UsernameToken
exchange, XML digital signatures and XML encryption over SOAP 1.1
envelopes, per WS-Security 1.1.1.

Outbound processing applies the configured actions in a fixed order -
attach token, sign, encrypt - so the token and timestamp are covered by
the signature and the signed body is what gets encrypted. Inbound
processing mirrors that order in reverse: decrypt, verify the signature,
then validate the token. Both pipelines work on a clone of the incoming
envelope, so a failure at any stage leaves the caller's envelope
untouched.

Signatures use exclusive canonicalization with RSA-SHA256 and reference
the timestamp and body through wsu:Id attributes; the signing certificate
travels as a BinarySecurityToken. Encryption wraps a fresh AES-128-GCM
content key with RSA-OAEP for the recipient and replaces the body
contents with an xenc:EncryptedData element, leaving the Body element
itself (and its wsu:Id) in place so the signature stays verifiable after
decryption.
*/
package wssec
