// Copyright (c) 2025 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package credential implements the credential store and the usage-typed
key resolver behind the WS-Security pipelines.

A single identifier is legitimately asked for material under several
different usages while one message is processed: the server resolves
"client" for signature verification and "alice" for the expected token
password; the client resolves its own alias once to unlock the signing
key and again for the token secret. Distinguishing those requests is the
whole point of the Usage type - the resolver matches it exhaustively, so
adding a usage is a compile-visible change rather than a silently ignored
default branch.

The store is immutable after construction and safe for concurrent reads.
*/
package credential
