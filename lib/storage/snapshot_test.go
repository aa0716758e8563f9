// Copyright 2026 The WTTP Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"bytes"
	"context"
	"testing"

	"github.com/wttp-foundation/wttp/lib/codec"
	"github.com/wttp-foundation/wttp/lib/datapoint"
	"github.com/wttp-foundation/wttp/lib/wttp"
)

// populatedStore builds a store with a custom header, an explicitly
// pinned path, a plain resource, and a replaced default.
func populatedStore(t *testing.T) *Store {
	t.Helper()
	store, _ := newTestStore(t)

	custom := wttp.DefaultHeader(siteAdmin)
	custom.Cache.Preset = wttp.CachePresetPermanent
	custom.Cache.Immutable = true

	write(t, store, func(tx *Tx) error {
		address, err := tx.CreateOrGetHeader(custom)
		if err != nil {
			return err
		}
		if _, err := tx.UploadResource(context.Background(), "/pinned", [][]byte{[]byte("alpha"), []byte("beta")}, publisher, 0); err != nil {
			return err
		}
		meta, err := tx.ReadMetadata("/pinned")
		if err != nil {
			return err
		}
		meta.Header = address
		if _, err := tx.UpdateMetadata("/pinned", meta); err != nil {
			return err
		}
		_, err = tx.CreateResource(context.Background(), "/plain", []byte("gamma"), publisher, 0)
		return err
	})
	return store
}

func TestSnapshotRoundTrip(t *testing.T) {
	store := populatedStore(t)

	encoded, err := codec.Marshal(store.Snapshot())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded Snapshot
	if err := codec.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	restored, _ := newTestStore(t)
	if err := restored.Restore(decoded); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	want := readMetadata(t, store, "/pinned")
	got := readMetadata(t, restored, "/pinned")
	if got.Version != want.Version || got.Size != want.Size || got.Header != want.Header {
		t.Errorf("restored metadata %+v, want %+v", got, want)
	}
	if !got.LastModified.Equal(want.LastModified) {
		t.Errorf("LastModified = %v, want %v", got.LastModified, want.LastModified)
	}

	var terr error
	tx := restored.Begin()
	defer tx.End(&terr)
	if !tx.ReadHeader("/pinned").Cache.Immutable {
		t.Error("pinned header lost its cache policy across the round trip")
	}
	chunks := tx.Chunks("/plain")
	if len(chunks) != 1 || chunks[0] != datapoint.ComputeAddress([]byte("gamma")) {
		t.Error("chunk addresses did not survive the round trip")
	}
	etag, ok := tx.Fingerprint("/pinned")
	if !ok {
		t.Fatal("no fingerprint after restore")
	}
	if etag != currentFingerprint(t, store, "/pinned") {
		t.Error("fingerprint differs across the round trip")
	}
}

func TestSnapshotDeterministic(t *testing.T) {
	store := populatedStore(t)

	first, err := codec.Marshal(store.Snapshot())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for i := 0; i < 8; i++ {
		again, err := codec.Marshal(store.Snapshot())
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("snapshot encoding differs on iteration %d", i)
		}
	}
}

func TestRestoreRejectsTamperedHeaderAddress(t *testing.T) {
	store := populatedStore(t)
	snapshot := store.Snapshot()
	snapshot.Headers[0].Address[0] ^= 0xFF

	restored, _ := newTestStore(t)
	if err := restored.Restore(snapshot); err == nil {
		t.Fatal("Restore accepted a header whose address does not match its content")
	}
}

func TestRestoreRejectsUnknownDefault(t *testing.T) {
	store := populatedStore(t)
	snapshot := store.Snapshot()
	snapshot.Default[0] ^= 0xFF

	restored, _ := newTestStore(t)
	if err := restored.Restore(snapshot); err == nil {
		t.Fatal("Restore accepted a default header missing from the arena")
	}
}

func TestRestoreRejectsDanglingHeaderRef(t *testing.T) {
	store := populatedStore(t)
	snapshot := store.Snapshot()
	for i := range snapshot.Records {
		if snapshot.Records[i].Path == "/plain" {
			snapshot.Records[i].Meta.Header[5] = 0x77
		}
	}

	restored, _ := newTestStore(t)
	if err := restored.Restore(snapshot); err == nil {
		t.Fatal("Restore accepted a record referencing a header outside the arena")
	}
}

func TestRestoreLeavesStoreUntouchedOnError(t *testing.T) {
	store := populatedStore(t)
	bad := store.Snapshot()
	bad.Default[0] ^= 0xFF

	if err := store.Restore(bad); err == nil {
		t.Fatal("Restore accepted a corrupt snapshot")
	}
	if meta := readMetadata(t, store, "/pinned"); meta.Size != 9 {
		t.Errorf("store state damaged by failed restore: Size = %d, want 9", meta.Size)
	}
}
