// Copyright 2026 The WTTP Authors
// SPDX-License-Identifier: Apache-2.0

// Package storage implements the engine's versioned persistent store:
// a content-addressed header arena, per-path resource metadata, and
// chunked resource bodies whose content lives in an external
// [datapoint.Registry].
//
// # Headers
//
// Headers are immutable and deduplicated. [Tx.CreateOrGetHeader]
// validates the header, computes its canonical content address, and
// either returns the existing slot or inserts a new one — an "update"
// is always hash, look up or insert, repoint the metadata reference.
// Paths without an explicit header resolve to the store's default
// header, itself kept in the same arena.
//
// # Metadata and resources
//
// Each path owns one [ResourceMetadata] record and one ordered chunk
// list. Size, Version, and LastModified are server-computed on every
// mutation: [Tx.UpdateMetadata] honors only the caller's Properties
// and Header reference, so forged calculated fields never reach the
// store. Version starts at 1 when a path first gets a record and
// increments on every mutation until deletion removes the record.
//
// Chunk writes are index-addressed with explicit bounds checks:
// replace below the count, append at the count, range error above it.
// Chunk bytes are registered with the external registry before any
// local state is touched, and the registration fee is drawn from the
// payment attached to the call.
//
// # Transactions
//
// All access goes through a [Tx]:
//
//	tx := store.Begin()
//	defer tx.End(&err)
//
// Begin locks the store; End commits the staged mutations when *err is
// nil and discards them otherwise. Mutations stage copies, so a failed
// operation — validation, range, or payment — leaves prior state
// byte-for-byte untouched. The dispatcher opens exactly one
// transaction per protocol operation, which is what makes composite
// operations like PUT (delete + upload) atomic and single-versioned.
package storage
