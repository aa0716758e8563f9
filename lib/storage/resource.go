// Copyright 2026 The WTTP Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"fmt"
	"slices"

	"github.com/zeebo/blake3"

	"github.com/wttp-foundation/wttp/lib/codec"
	"github.com/wttp-foundation/wttp/lib/datapoint"
	"github.com/wttp-foundation/wttp/lib/wttp"
)

// etagDomainKey separates resource fingerprints from every other
// BLAKE3 domain in the engine. ASCII name, zero padded.
var etagDomainKey = [32]byte{
	'w', 't', 't', 'p', '.', 'e', 't', 'a', 'g', '.', 'v', '1',
}

// CreateResource stores a resource's first chunk, forwarding the
// attached payment to the registry. It fails when the path already
// has content; metadata-only records (a path that has been DEFINEd but
// never written) are fine.
func (tx *Tx) CreateResource(ctx context.Context, path string, chunk []byte, payer wttp.Account, payment datapoint.Amount) (ResourceMetadata, error) {
	if rec := tx.recordAt(path); rec != nil && len(rec.chunks) > 0 {
		return ResourceMetadata{}, existsError(path)
	}
	registration, err := tx.store.registry.Register(ctx, payer, chunk, payment)
	if err != nil {
		return ResourceMetadata{}, err
	}
	rec := tx.stageRecord(path)
	rec.chunks = []datapoint.Address{registration.Address}
	rec.meta.Size = registration.Size
	tx.bump(path, rec)
	return rec.meta, nil
}

// UpdateResource writes one chunk at an index in [0, count]: an index
// below count replaces that chunk and recomputes the size from the
// replaced chunk's, count itself appends, and anything beyond fails
// with a range error before any payment moves.
func (tx *Tx) UpdateResource(ctx context.Context, path string, chunk []byte, index int, payer wttp.Account, payment datapoint.Amount) (ResourceMetadata, error) {
	var count int
	if current := tx.recordAt(path); current != nil {
		count = len(current.chunks)
	}
	if index < 0 || index > count {
		return ResourceMetadata{}, &wttp.Error{
			Kind:   wttp.KindRange,
			Path:   path,
			Detail: fmt.Sprintf("chunk index %d outside [0, %d]", index, count),
		}
	}
	var replaced uint64
	if index < count {
		size, err := tx.store.registry.Size(ctx, tx.recordAt(path).chunks[index])
		if err != nil {
			return ResourceMetadata{}, err
		}
		replaced = size
	}
	registration, err := tx.store.registry.Register(ctx, payer, chunk, payment)
	if err != nil {
		return ResourceMetadata{}, err
	}
	rec := tx.stageRecord(path)
	if index == len(rec.chunks) {
		rec.chunks = append(rec.chunks, registration.Address)
	} else {
		rec.chunks[index] = registration.Address
	}
	rec.meta.Size = rec.meta.Size - replaced + registration.Size
	tx.bump(path, rec)
	return rec.meta, nil
}

// UploadResource stores a whole chunk list at once, chunk i at index
// i, registering the batch from the single attached payment. Like
// CreateResource it requires the path to have no content yet.
func (tx *Tx) UploadResource(ctx context.Context, path string, chunks [][]byte, payer wttp.Account, payment datapoint.Amount) (ResourceMetadata, error) {
	if rec := tx.recordAt(path); rec != nil && len(rec.chunks) > 0 {
		return ResourceMetadata{}, existsError(path)
	}
	registrations, err := tx.store.registry.RegisterBatch(ctx, payer, chunks, payment)
	if err != nil {
		return ResourceMetadata{}, err
	}
	rec := tx.stageRecord(path)
	rec.chunks = make([]datapoint.Address, len(registrations))
	var size uint64
	for i, registration := range registrations {
		rec.chunks[i] = registration.Address
		size += registration.Size
	}
	rec.meta.Size = size
	tx.bump(path, rec)
	return rec.meta, nil
}

// ChunkWrite is one element of a patch: data to place at an index.
type ChunkWrite struct {
	Data  []byte
	Index int
}

// PatchResource applies an ordered write list as one unit. The data
// registers as a single batch drawing on one payment budget, then each
// write lands at its index with UpdateResource's append-or-replace
// placement. Indices are validated against the evolving chunk count
// before any payment moves, so a patch can append several chunks in
// sequence but can never leave a gap.
func (tx *Tx) PatchResource(ctx context.Context, path string, writes []ChunkWrite, payer wttp.Account, payment datapoint.Amount) (ResourceMetadata, error) {
	if len(writes) == 0 {
		return ResourceMetadata{}, &wttp.Error{
			Kind:   wttp.KindValidation,
			Path:   path,
			Detail: "empty write list",
		}
	}
	var count int
	if current := tx.recordAt(path); current != nil {
		count = len(current.chunks)
	}
	for i, write := range writes {
		if write.Index < 0 || write.Index > count {
			return ResourceMetadata{}, &wttp.Error{
				Kind:   wttp.KindRange,
				Path:   path,
				Detail: fmt.Sprintf("write %d: chunk index %d outside [0, %d]", i, write.Index, count),
			}
		}
		if write.Index == count {
			count++
		}
	}

	data := make([][]byte, len(writes))
	for i, write := range writes {
		data[i] = write.Data
	}
	registrations, err := tx.store.registry.RegisterBatch(ctx, payer, data, payment)
	if err != nil {
		return ResourceMetadata{}, err
	}

	rec := tx.stageRecord(path)
	sizes := make(map[datapoint.Address]uint64, len(registrations))
	for _, registration := range registrations {
		sizes[registration.Address] = registration.Size
	}
	for i, write := range writes {
		if write.Index == len(rec.chunks) {
			rec.chunks = append(rec.chunks, registrations[i].Address)
		} else {
			rec.chunks[write.Index] = registrations[i].Address
		}
	}
	var total uint64
	for _, address := range rec.chunks {
		size, ok := sizes[address]
		if !ok {
			size, err = tx.store.registry.Size(ctx, address)
			if err != nil {
				return ResourceMetadata{}, err
			}
			sizes[address] = size
		}
		total += size
	}
	rec.meta.Size = total
	tx.bump(path, rec)
	return rec.meta, nil
}

// DeleteResource clears the path's chunk references and zeroes its
// size, leaving the metadata record in place.
func (tx *Tx) DeleteResource(path string) (ResourceMetadata, error) {
	if tx.recordAt(path) == nil {
		return ResourceMetadata{}, notFoundError(path)
	}
	rec := tx.stageRecord(path)
	rec.chunks = nil
	rec.meta.Size = 0
	tx.bump(path, rec)
	return rec.meta, nil
}

// Chunks returns the path's ordered chunk addresses, nil when the path
// has no record or no content.
func (tx *Tx) Chunks(path string) []datapoint.Address {
	rec := tx.recordAt(path)
	if rec == nil {
		return nil
	}
	return slices.Clone(rec.chunks)
}

// ChunkCount returns the number of chunks stored at the path.
func (tx *Tx) ChunkCount(path string) int {
	rec := tx.recordAt(path)
	if rec == nil {
		return 0
	}
	return len(rec.chunks)
}

// Fingerprint computes the path's conditional-request fingerprint:
// a domain-keyed BLAKE3 hash over the canonical encoding of the path,
// its version, and its chunk addresses. The second return is false
// when the path has no record. Because every mutation bumps the
// version, the fingerprint changes exactly when the resource's
// observable state does.
func (tx *Tx) Fingerprint(path string) (wttp.ETag, bool) {
	rec := tx.recordAt(path)
	if rec == nil {
		return wttp.ETag{}, false
	}
	encoded, err := codec.Marshal(struct {
		Path    string              `cbor:"path"`
		Version uint64              `cbor:"version"`
		Chunks  []datapoint.Address `cbor:"chunks"`
	}{path, rec.meta.Version, rec.chunks})
	if err != nil {
		panic("storage: encoding fingerprint input failed: " + err.Error())
	}
	hasher, err := blake3.NewKeyed(etagDomainKey[:])
	if err != nil {
		panic("storage: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(encoded)
	var etag wttp.ETag
	hasher.Digest().Read(etag[:])
	return etag, true
}

func existsError(path string) error {
	return &wttp.Error{
		Kind:   wttp.KindValidation,
		Path:   path,
		Detail: "resource already exists",
	}
}
