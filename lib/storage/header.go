// Copyright 2026 The WTTP Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"github.com/wttp-foundation/wttp/lib/wttp"
)

// CreateOrGetHeader validates the header, computes its content
// address, and stores it when new. Idempotent: the same header always
// yields the same address and occupies one arena slot.
func (tx *Tx) CreateOrGetHeader(header wttp.Header) (wttp.HeaderAddress, error) {
	address, err := header.Address()
	if err != nil {
		return wttp.HeaderAddress{}, err
	}
	if _, ok := tx.headerAt(address); ok {
		return address, nil
	}
	if tx.headers == nil {
		tx.headers = make(map[wttp.HeaderAddress]wttp.Header)
	}
	tx.headers[address] = header
	return address, nil
}

// ReadHeader resolves the effective header for a path: the one its
// metadata references, or the store default when the path has no
// record or no explicit reference.
func (tx *Tx) ReadHeader(path string) wttp.Header {
	if rec := tx.recordAt(path); rec != nil && !rec.meta.Header.IsZero() {
		if header, ok := tx.headerAt(rec.meta.Header); ok {
			return header
		}
	}
	return tx.fallbackHeader()
}

// DefaultHeader returns the store's fallback header.
func (tx *Tx) DefaultHeader() wttp.Header { return tx.fallbackHeader() }

// SetDefaultHeader replaces the fallback header, storing it through
// the arena like any other.
func (tx *Tx) SetDefaultHeader(header wttp.Header) (wttp.HeaderAddress, error) {
	address, err := tx.CreateOrGetHeader(header)
	if err != nil {
		return wttp.HeaderAddress{}, err
	}
	tx.def = &address
	return address, nil
}

func (tx *Tx) fallbackHeader() wttp.Header {
	address := tx.store.defaultHeader
	if tx.def != nil {
		address = *tx.def
	}
	header, _ := tx.headerAt(address)
	return header
}
