// Copyright 2026 The WTTP Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"errors"
	"slices"
	"sync"

	"github.com/wttp-foundation/wttp/lib/clock"
	"github.com/wttp-foundation/wttp/lib/datapoint"
	"github.com/wttp-foundation/wttp/lib/wttp"
)

// Config carries the store's collaborators.
type Config struct {
	// Registry is the payable chunk store resource bodies live in.
	// Required.
	Registry datapoint.Registry

	// DefaultHeader is the fallback response policy for paths whose
	// metadata carries no header reference. It must validate and is
	// stored through the arena like any other header.
	DefaultHeader wttp.Header

	// Clock stamps LastModified. Nil means the system clock.
	Clock clock.Clock
}

// Store holds a site's resource state: the header arena, the default
// header, and the per-path records. A single mutex serializes
// transactions; all reads and writes go through Begin.
type Store struct {
	registry datapoint.Registry
	clock    clock.Clock

	mu            sync.Mutex
	headers       map[wttp.HeaderAddress]wttp.Header
	defaultHeader wttp.HeaderAddress
	records       map[string]*record
}

// record is the per-path state. Mutations happen only on a
// transaction's staged copy.
type record struct {
	meta   ResourceMetadata
	chunks []datapoint.Address
}

func (r *record) clone() *record {
	return &record{
		meta:   r.meta,
		chunks: slices.Clone(r.chunks),
	}
}

// New builds a store around the given registry and default header.
func New(cfg Config) (*Store, error) {
	if cfg.Registry == nil {
		return nil, errors.New("storage: a datapoint registry is required")
	}
	address, err := cfg.DefaultHeader.Address()
	if err != nil {
		return nil, err
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	return &Store{
		registry:      cfg.Registry,
		clock:         clk,
		headers:       map[wttp.HeaderAddress]wttp.Header{address: cfg.DefaultHeader},
		defaultHeader: address,
		records:       make(map[string]*record),
	}, nil
}

// Tx is one atomic unit of work against the store. Mutations stage on
// the transaction and reach the store only when End observes a nil
// error; reads see staged state layered over committed state.
type Tx struct {
	store *Store
	done  bool

	// records holds staged per-path state. A nil value is a deletion
	// tombstone.
	records map[string]*record

	// headers holds headers inserted during the transaction. The arena
	// is append-only, so there are no tombstones here.
	headers map[wttp.HeaderAddress]wttp.Header

	// def, when non-nil, is a staged default-header replacement.
	def *wttp.HeaderAddress
}

// Begin starts a transaction and locks the store until End is called.
func (s *Store) Begin() *Tx {
	s.mu.Lock()
	return &Tx{store: s}
}

// End finishes the transaction: staged mutations commit when *err is
// nil and are discarded otherwise. Call it exactly once, deferred,
// with a pointer to the operation's named error result:
//
//	tx := store.Begin()
//	defer tx.End(&err)
//
// Later calls are no-ops, so an explicit early End is also safe.
func (tx *Tx) End(err *error) {
	if tx.done {
		return
	}
	tx.done = true
	if *err == nil {
		tx.commit()
	}
	tx.store.mu.Unlock()
}

// commit folds the staged state into the store. Infallible: every
// fallible step ran before staging.
func (tx *Tx) commit() {
	s := tx.store
	for address, header := range tx.headers {
		s.headers[address] = header
	}
	if tx.def != nil {
		s.defaultHeader = *tx.def
	}
	for path, rec := range tx.records {
		if rec == nil {
			delete(s.records, path)
			continue
		}
		s.records[path] = rec
	}
}

// recordAt returns the record as the transaction sees it: the staged
// copy when one exists (nil meaning deleted), the committed record
// otherwise. Callers must not mutate a record they did not stage.
func (tx *Tx) recordAt(path string) *record {
	if rec, ok := tx.records[path]; ok {
		return rec
	}
	return tx.store.records[path]
}

// stageRecord returns a mutable staged copy of the path's record,
// creating a fresh one when the path has none or was deleted earlier
// in the transaction.
func (tx *Tx) stageRecord(path string) *record {
	if tx.records == nil {
		tx.records = make(map[string]*record)
	}
	if rec, ok := tx.records[path]; ok {
		if rec == nil {
			rec = &record{}
			tx.records[path] = rec
		}
		return rec
	}
	rec := &record{}
	if committed, ok := tx.store.records[path]; ok {
		rec = committed.clone()
	}
	tx.records[path] = rec
	return rec
}

// headerAt looks a header up in the staged layer, then the arena.
func (tx *Tx) headerAt(address wttp.HeaderAddress) (wttp.Header, bool) {
	if header, ok := tx.headers[address]; ok {
		return header, true
	}
	header, ok := tx.store.headers[address]
	return header, ok
}

// bump advances a staged record's version and stamps LastModified.
// The version is recomputed from the committed record, so a path's
// version advances exactly once per transaction no matter how many
// staged mutations touch it. That is what keeps composite operations
// like PUT single-versioned.
func (tx *Tx) bump(path string, rec *record) {
	var base uint64
	if committed, ok := tx.store.records[path]; ok {
		base = committed.meta.Version
	}
	rec.meta.Version = base + 1
	rec.meta.LastModified = tx.store.clock.Now()
}
