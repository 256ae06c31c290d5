// Copyright (c) 2025 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package envelope implements a SOAP 1.1 envelope codec on top of an etree DOM.

The codec deliberately stays DOM-based rather than struct-based: the
security pipelines need to splice signature, token and encryption elements
into the header and swap the body between cleartext and ciphertext without
disturbing the byte-exact subtrees a signature was computed over.

An envelope body is always in exactly one of two states: a cleartext
operation element, or a single xenc:EncryptedData blob. The security
pipelines transition between the two; nothing else touches the body.
*/
package envelope
