// Copyright 2026 The WTTP Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the engine's standard CBOR encoding
// configuration.
//
// The engine uses two serialization formats with a clear boundary:
//
//   - YAML/JSONC for operator-facing configuration files.
//   - CBOR for everything the engine itself produces: canonical bytes
//     fed into content addresses (header addresses, resource
//     fingerprints) and durable state (site snapshots, the datapoint
//     registry's payload column).
//
// This package provides the shared CBOR encoding and decoding modes so
// that every engine package encodes identically without duplicating
// configuration. The encoder uses Core Deterministic Encoding (RFC 8949
// §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items. Same logical data always produces identical
// bytes — two semantically equal headers must hash to the same address
// no matter which process encoded them.
//
// For buffer-oriented operations (addresses, snapshots):
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations (snapshot files):
//
//	encoder := codec.NewEncoder(w)
//	decoder := codec.NewDecoder(r)
//
// # Struct Tag Rules
//
// The struct tag on a type documents its serialization format:
//
//   - `cbor` tag: this type is ONLY ever serialized as CBOR. It will
//     never be marshaled to JSON or YAML. Examples: wttp.Header and its
//     parts (hashed into content addresses), storage metadata, site
//     snapshot records.
//   - `yaml` tag: this type is operator configuration, decoded from
//     YAML or JSONC and never re-encoded by the engine.
//
// Never mix `cbor` and `yaml` tags on the same type. The tag choice
// documents which side of the boundary a type lives on.
package codec
