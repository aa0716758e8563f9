// Copyright 2026 The WTTP Authors
// SPDX-License-Identifier: Apache-2.0

package datapoint

import (
	"bytes"
	"context"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/wttp-foundation/wttp/lib/wttp"
)

func openSQLite(t *testing.T, path string, royaltyRate Amount, key []byte) *SQLite {
	t.Helper()
	registry, err := OpenSQLite(SQLiteConfig{
		Path:          path,
		RoyaltyRate:   royaltyRate,
		EncryptionKey: key,
	})
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	return registry
}

// readDatabaseFiles concatenates the database file and any WAL or shm
// siblings, for at-rest inspection.
func readDatabaseFiles(t *testing.T, path string) []byte {
	t.Helper()
	matches, err := filepath.Glob(path + "*")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	var combined []byte
	for _, match := range matches {
		data, err := os.ReadFile(match)
		if err != nil {
			t.Fatalf("reading %s: %v", match, err)
		}
		combined = append(combined, data...)
	}
	return combined
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "registry.db")
	chunk := []byte("0123456789") // royalty 20 at rate 2

	registry := openSQLite(t, path, 2, nil)
	if _, err := registry.Register(ctx, alice, chunk, 0); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := registry.Register(ctx, bob, chunk, 19); !wttp.IsPayment(err) {
		t.Fatalf("underpaid reuse: got %v, want payment error", err)
	}
	if _, err := registry.Register(ctx, bob, chunk, 20); err != nil {
		t.Fatalf("reuse: %v", err)
	}
	if err := registry.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := openSQLite(t, path, 2, nil)
	defer reopened.Close()

	read, err := reopened.Read(ctx, ComputeAddress(chunk))
	if err != nil {
		t.Fatalf("Read after reopen: %v", err)
	}
	if !bytes.Equal(read, chunk) {
		t.Errorf("Read = %q, want %q", read, chunk)
	}

	royalty, err := reopened.Royalty(ctx, ComputeAddress(chunk))
	if err != nil || royalty != 20 {
		t.Errorf("Royalty after reopen = %d, %v, want 20, nil", royalty, err)
	}
	requireBalance(t, reopened, alice, 20)

	// Publisher attribution survives the restart: re-registration by
	// the original publisher is still free.
	registration, err := reopened.Register(ctx, alice, chunk, 0)
	if err != nil {
		t.Fatalf("re-register after reopen: %v", err)
	}
	if !registration.Duplicate || registration.Paid != 0 {
		t.Errorf("re-registration after reopen = %+v, want free duplicate", registration)
	}
}

func TestSQLiteEncryptsPayloadsAtRest(t *testing.T) {
	ctx := context.Background()

	// Small enough to be stored inline in a single page, random
	// enough to defeat compression: the raw bytes would land in the
	// file verbatim without encryption.
	payload := make([]byte, 256)
	if _, err := rand.Read(payload); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}

	// Control: no encryption key, payload appears in the file.
	plainPath := filepath.Join(t.TempDir(), "plain.db")
	plain := openSQLite(t, plainPath, 1, nil)
	if _, err := plain.Register(ctx, alice, payload, 0); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := plain.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !bytes.Contains(readDatabaseFiles(t, plainPath), payload) {
		t.Fatal("control failed: plaintext payload not found in unencrypted database")
	}

	// Encrypted store: same payload must not appear anywhere on disk.
	sealedPath := filepath.Join(t.TempDir(), "sealed.db")
	key := testEncryptionKey(t)
	sealed := openSQLite(t, sealedPath, 1, key)
	if _, err := sealed.Register(ctx, alice, payload, 0); err != nil {
		t.Fatalf("Register: %v", err)
	}

	read, err := sealed.Read(ctx, ComputeAddress(payload))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(read, payload) {
		t.Error("encrypted round trip did not restore original bytes")
	}

	if err := sealed.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if bytes.Contains(readDatabaseFiles(t, sealedPath), payload) {
		t.Error("plaintext payload found in encrypted database")
	}

	// The key survives reopen.
	reopened := openSQLite(t, sealedPath, 1, key)
	defer reopened.Close()
	read, err = reopened.Read(ctx, ComputeAddress(payload))
	if err != nil {
		t.Fatalf("Read after reopen: %v", err)
	}
	if !bytes.Equal(read, payload) {
		t.Error("round trip after reopen did not restore original bytes")
	}
}

func TestSQLiteWrongKeyFailsRead(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "registry.db")
	payload := make([]byte, 128)
	if _, err := rand.Read(payload); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}

	registry := openSQLite(t, path, 1, testEncryptionKey(t))
	if _, err := registry.Register(ctx, alice, payload, 0); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := registry.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	wrongKey := openSQLite(t, path, 1, testEncryptionKey(t))
	if _, err := wrongKey.Read(ctx, ComputeAddress(payload)); err == nil {
		t.Error("Read with the wrong key succeeded")
	}
	wrongKey.Close()

	noKey := openSQLite(t, path, 1, nil)
	defer noKey.Close()
	if _, err := noKey.Read(ctx, ComputeAddress(payload)); err == nil {
		t.Error("Read without the key succeeded")
	}
}

func TestSQLiteRejectsBadKeyLength(t *testing.T) {
	_, err := OpenSQLite(SQLiteConfig{
		Path:          filepath.Join(t.TempDir(), "registry.db"),
		EncryptionKey: make([]byte, 16),
	})
	if err == nil {
		t.Fatal("16-byte key accepted")
	}
}

func TestSQLiteCompressesStoredPayloads(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "registry.db")
	chunk := bytes.Repeat([]byte("compressible page content. "), 400)

	registry := openSQLite(t, path, 1, nil)
	defer registry.Close()
	if _, err := registry.Register(ctx, alice, chunk, 0); err != nil {
		t.Fatalf("Register: %v", err)
	}

	address := ComputeAddress(chunk)
	conn, err := registry.pool.Take(ctx)
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	defer registry.pool.Put(conn)

	var (
		tag        CompressionTag
		storedSize int
	)
	err = sqlitex.Execute(conn, "SELECT compression, length(payload) FROM datapoints WHERE address = ?", &sqlitex.ExecOptions{
		Args: []any{address[:]},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			tag = CompressionTag(stmt.ColumnInt64(0))
			storedSize = stmt.ColumnInt(1)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("querying stored row: %v", err)
	}
	if tag != CompressionZstd {
		t.Errorf("stored compression = %v, want zstd", tag)
	}
	if storedSize >= len(chunk) {
		t.Errorf("stored payload %d bytes, input %d bytes", storedSize, len(chunk))
	}

	read, err := registry.Read(ctx, address)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(read, chunk) {
		t.Error("round trip did not restore original bytes")
	}
}
