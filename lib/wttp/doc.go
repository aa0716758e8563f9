// Copyright 2026 The WTTP Authors
// SPDX-License-Identifier: Apache-2.0

// Package wttp defines the protocol vocabulary shared by every engine
// subsystem: methods and method masks, response statuses, roles and
// accounts, resource headers with their content addresses, and the
// typed error taxonomy.
//
// # Method slots
//
// The protocol has nine fixed method slots, numbered 0-8:
//
//	HEAD, GET, POST, PUT, PATCH, DELETE, OPTIONS, LOCATE, DEFINE
//
// A slot number is used in two places: as a bit position in a
// [MethodMask] (which methods a header enables at all) and as an index
// into a header's origin list (which role may invoke each method).
// POST is reserved — the dispatcher implements no POST operation — but
// the slot participates in masks and origin lists like any other.
//
// # Roles
//
// Roles are opaque 256-bit identifiers with two reserved values:
// [AdminRole] (numeric zero) is universally privileged, and
// [PublicRole] (numeric max) is the default-allow pseudo-role whose
// explicit membership acts as a blacklist. All other role identifiers
// are derived from names via [RoleFromName] or supplied directly.
//
// # Content addressing
//
// Headers are content-addressed: [Header.Address] digests the
// canonical CBOR encoding of the header with a domain-keyed BLAKE3
// hash, so identical field values always resolve to the same stored
// slot. The same hashing scheme (with distinct domain keys) produces
// role identifiers and resource fingerprints elsewhere in the engine.
//
// # Errors
//
// Every failure an engine operation can surface is a [*Error] with a
// distinguishing [ErrorKind]. Callers map kinds to protocol statuses
// (403, 404, 405, 416, ...) without parsing message text:
//
//	var protoErr *wttp.Error
//	if errors.As(err, &protoErr) {
//	    status := protoErr.Status()
//	}
package wttp
