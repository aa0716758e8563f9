// Copyright 2026 The WTTP Authors
// SPDX-License-Identifier: Apache-2.0

// Package datapoint implements the payable content-addressed chunk
// store that resource bodies live in.
//
// The engine proper treats the store as an external collaborator
// behind the [Registry] interface; this package supplies that
// interface plus two reference backends. [Memory] is the
// maps-and-mutex backend the engine's own tests run against. [SQLite]
// is a persistent backend on lib/sqlitepool that compresses payloads
// at rest (zstd or LZ4, selected by probing each chunk, with an
// incompressible fallback) and can additionally seal them with
// XChaCha20-Poly1305 under per-chunk keys derived from one master key.
//
// # Addresses
//
// A chunk's identity is [ComputeAddress]: a domain-keyed BLAKE3 hash
// of its raw bytes. Identical content always maps to the same address,
// so registration deduplicates by construction, and readers can verify
// integrity by rehashing what they read.
//
// # The payment model
//
// Registering new content is free and fixes the chunk's royalty at
// the store's per-byte rate times the chunk length. From then on the
// chunk belongs to its first publisher: anyone else registering the
// same bytes must attach at least the royalty, which is credited to
// the original publisher's balance. A publisher re-registering their
// own chunk pays nothing. Whatever remains of an attached payment
// after fees is credited to the payer's balance rather than returned;
// [Registry.Withdraw] drains balances.
//
// Batch registration draws every fee from one budget and is
// all-or-nothing: if the budget runs out at any chunk, nothing from
// the batch persists.
package datapoint
