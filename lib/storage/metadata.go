// Copyright 2026 The WTTP Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"time"

	"github.com/wttp-foundation/wttp/lib/wttp"
)

// Properties are the caller-controlled content attributes of a
// resource. Everything else on [ResourceMetadata] is server-computed.
type Properties struct {
	// MIMEType is the resource's media type, e.g. "text/html".
	MIMEType string `cbor:"mime_type"`

	// Charset is the character set, e.g. "utf-8".
	Charset string `cbor:"charset"`

	// Encoding is the content encoding, e.g. "gzip".
	Encoding string `cbor:"encoding"`

	// Language is the content language, e.g. "en".
	Language string `cbor:"language"`
}

// ResourceMetadata is the per-path record. Size is always the sum of
// the current chunk sizes; Version starts at 1 and increments once per
// successful mutating operation; LastModified is stamped from the
// store's clock. Header references a slot in the header arena, with
// the zero address meaning "use the store's default header".
type ResourceMetadata struct {
	Properties   Properties         `cbor:"properties"`
	Size         uint64             `cbor:"size"`
	Version      uint64             `cbor:"version"`
	LastModified time.Time          `cbor:"last_modified"`
	Header       wttp.HeaderAddress `cbor:"header"`
}

// ReadMetadata returns the path's record.
func (tx *Tx) ReadMetadata(path string) (ResourceMetadata, error) {
	rec := tx.recordAt(path)
	if rec == nil {
		return ResourceMetadata{}, notFoundError(path)
	}
	return rec.meta, nil
}

// UpdateMetadata writes the caller-controlled fields of a path's
// record: Properties and the Header reference. Size is preserved from
// the current record, Version becomes current+1, and LastModified is
// stamped now, regardless of what the payload carries. A path with no
// record gets one (Version 1). A non-zero Header reference must name a
// header already in the arena.
func (tx *Tx) UpdateMetadata(path string, payload ResourceMetadata) (ResourceMetadata, error) {
	if !payload.Header.IsZero() {
		if _, ok := tx.headerAt(payload.Header); !ok {
			return ResourceMetadata{}, &wttp.Error{
				Kind:   wttp.KindValidation,
				Path:   path,
				Detail: "header reference " + payload.Header.String() + " is not in the arena",
			}
		}
	}

	rec := tx.stageRecord(path)
	rec.meta.Properties = payload.Properties
	rec.meta.Header = payload.Header
	tx.bump(path, rec)
	return rec.meta, nil
}

// TouchMetadata bumps a record's Version and LastModified without
// touching anything else.
func (tx *Tx) TouchMetadata(path string) (ResourceMetadata, error) {
	if tx.recordAt(path) == nil {
		return ResourceMetadata{}, notFoundError(path)
	}
	rec := tx.stageRecord(path)
	tx.bump(path, rec)
	return rec.meta, nil
}

// DeleteMetadata removes the path's record entirely, chunk references
// included, and returns the record as it stood. A deleted path reads
// as version zero: not found.
func (tx *Tx) DeleteMetadata(path string) (ResourceMetadata, error) {
	rec := tx.recordAt(path)
	if rec == nil {
		return ResourceMetadata{}, notFoundError(path)
	}
	before := rec.meta
	if tx.records == nil {
		tx.records = make(map[string]*record)
	}
	tx.records[path] = nil
	return before, nil
}

func notFoundError(path string) error {
	return &wttp.Error{
		Kind:   wttp.KindNotFound,
		Path:   path,
		Detail: "no resource metadata",
	}
}
