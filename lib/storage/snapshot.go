// Copyright 2026 The WTTP Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"bytes"
	"fmt"
	"slices"
	"sort"

	"github.com/wttp-foundation/wttp/lib/datapoint"
	"github.com/wttp-foundation/wttp/lib/wttp"
)

// Snapshot is the store's full serializable state. Entries are sorted
// so the canonical encoding of the same state is byte-identical.
type Snapshot struct {
	Headers []HeaderEntry      `cbor:"headers"`
	Default wttp.HeaderAddress `cbor:"default"`
	Records []RecordEntry      `cbor:"records"`
}

// HeaderEntry pairs an arena slot with its address. The address is
// redundant with the header and is verified on restore.
type HeaderEntry struct {
	Address wttp.HeaderAddress `cbor:"address"`
	Header  wttp.Header        `cbor:"header"`
}

// RecordEntry is one path's record.
type RecordEntry struct {
	Path   string              `cbor:"path"`
	Meta   ResourceMetadata    `cbor:"meta"`
	Chunks []datapoint.Address `cbor:"chunks"`
}

// Snapshot captures the store's committed state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := Snapshot{Default: s.defaultHeader}
	for address, header := range s.headers {
		snapshot.Headers = append(snapshot.Headers, HeaderEntry{Address: address, Header: header})
	}
	sort.Slice(snapshot.Headers, func(i, j int) bool {
		return bytes.Compare(snapshot.Headers[i].Address[:], snapshot.Headers[j].Address[:]) < 0
	})
	for path, rec := range s.records {
		snapshot.Records = append(snapshot.Records, RecordEntry{
			Path:   path,
			Meta:   rec.meta,
			Chunks: slices.Clone(rec.chunks),
		})
	}
	sort.Slice(snapshot.Records, func(i, j int) bool {
		return snapshot.Records[i].Path < snapshot.Records[j].Path
	})
	return snapshot
}

// Restore replaces the store's state with the snapshot's. Every header
// address is recomputed and checked against the recorded one, the
// default must resolve in the restored arena, and so must every
// record's header reference. On error the store is left untouched.
func (s *Store) Restore(snapshot Snapshot) error {
	headers := make(map[wttp.HeaderAddress]wttp.Header, len(snapshot.Headers))
	for _, entry := range snapshot.Headers {
		address, err := entry.Header.Address()
		if err != nil {
			return fmt.Errorf("restoring header %s: %w", entry.Address, err)
		}
		if address != entry.Address {
			return fmt.Errorf("header address mismatch: recorded %s, computed %s", entry.Address, address)
		}
		if _, ok := headers[address]; ok {
			return fmt.Errorf("duplicate header %s", address)
		}
		headers[address] = entry.Header
	}
	if _, ok := headers[snapshot.Default]; !ok {
		return fmt.Errorf("default header %s is not in the snapshot arena", snapshot.Default)
	}

	records := make(map[string]*record, len(snapshot.Records))
	for _, entry := range snapshot.Records {
		if _, ok := records[entry.Path]; ok {
			return fmt.Errorf("duplicate record for path %q", entry.Path)
		}
		if ref := entry.Meta.Header; !ref.IsZero() {
			if _, ok := headers[ref]; !ok {
				return fmt.Errorf("record %q references header %s outside the snapshot arena", entry.Path, ref)
			}
		}
		records[entry.Path] = &record{
			meta:   entry.Meta,
			chunks: slices.Clone(entry.Chunks),
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.headers = headers
	s.defaultHeader = snapshot.Default
	s.records = records
	return nil
}
