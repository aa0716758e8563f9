// Copyright 2026 The WTTP Authors
// SPDX-License-Identifier: Apache-2.0

package datapoint

import (
	"context"
	"fmt"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/wttp-foundation/wttp/lib/sqlitepool"
	"github.com/wttp-foundation/wttp/lib/wttp"
)

// sqliteSchema creates the registry's two tables. Payloads are stored
// compressed (see compress.go) and, when the store is opened with an
// encryption key, sealed with XChaCha20-Poly1305 (see encrypt.go).
const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS datapoints (
		address     BLOB PRIMARY KEY,
		size        INTEGER NOT NULL,
		compression INTEGER NOT NULL,
		payload     BLOB NOT NULL,
		publisher   TEXT NOT NULL,
		royalty     INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS balances (
		account TEXT PRIMARY KEY,
		balance INTEGER NOT NULL
	);
`

// SQLiteConfig holds the parameters for opening a persistent registry.
type SQLiteConfig struct {
	// Path is the filesystem path to the database file. Required.
	Path string

	// PoolSize is the connection pool size. Defaults to 4 if zero or
	// negative.
	PoolSize int

	// RoyaltyRate is the per-byte reuse fee fixed for each newly
	// registered chunk. Zero makes every reuse free.
	RoyaltyRate Amount

	// EncryptionKey enables at-rest payload encryption when set. Must
	// be exactly EncryptionKeySize bytes. Balances and royalty
	// bookkeeping stay in the clear; only chunk payloads are sealed.
	EncryptionKey []byte

	// Logger receives operational messages. If nil, a no-op logger is
	// used.
	Logger *slog.Logger
}

// SQLite is a persistent Registry backed by a SQLite database. Every
// mutation runs in a single IMMEDIATE transaction, so a failed batch
// never leaves partial registrations or half-credited balances behind.
type SQLite struct {
	pool          *sqlitepool.Pool
	royaltyRate   Amount
	encryptionKey []byte
	logger        *slog.Logger
}

var _ Registry = (*SQLite)(nil)

// OpenSQLite opens (creating if needed) a persistent registry.
// The caller must call Close when done.
func OpenSQLite(cfg SQLiteConfig) (*SQLite, error) {
	if cfg.EncryptionKey != nil && len(cfg.EncryptionKey) != EncryptionKeySize {
		return nil, fmt.Errorf("datapoint: encryption key must be %d bytes, got %d",
			EncryptionKeySize, len(cfg.EncryptionKey))
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 4
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: poolSize,
		Logger:   logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, sqliteSchema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("datapoint: %w", err)
	}

	return &SQLite{
		pool:          pool,
		royaltyRate:   cfg.RoyaltyRate,
		encryptionKey: cfg.EncryptionKey,
		logger:        logger,
	}, nil
}

// Close closes the underlying connection pool. Blocks until all
// borrowed connections are returned.
func (s *SQLite) Close() error {
	return s.pool.Close()
}

// Register stores one chunk. See Registry.
func (s *SQLite) Register(ctx context.Context, publisher wttp.Account, data []byte, payment Amount) (Registration, error) {
	registrations, err := s.RegisterBatch(ctx, publisher, [][]byte{data}, payment)
	if err != nil {
		return Registration{}, err
	}
	return registrations[0], nil
}

// RegisterBatch stores chunks in order against a single budget, all
// inside one IMMEDIATE transaction. A fee shortfall or write failure
// anywhere rolls the whole batch back.
func (s *SQLite) RegisterBatch(ctx context.Context, publisher wttp.Account, chunks [][]byte, budget Amount) (registrations []Registration, err error) {
	if publisher.IsZero() {
		return nil, publisherError()
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("datapoint: register batch: %w", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return nil, fmt.Errorf("datapoint: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	remaining := budget
	registrations = make([]Registration, 0, len(chunks))

	for i, chunk := range chunks {
		address := ComputeAddress(chunk)

		// Inserts earlier in this transaction are visible here, so a
		// chunk repeated within the batch deduplicates against itself.
		row, err := s.lookupDatapoint(conn, address)
		if err != nil {
			return nil, err
		}

		switch {
		case row == nil:
			royalty := s.royaltyRate * Amount(len(chunk))
			if err := s.insertDatapoint(conn, address, chunk, publisher, royalty); err != nil {
				return nil, err
			}
			registrations = append(registrations, Registration{
				Address: address,
				Size:    uint64(len(chunk)),
				Royalty: royalty,
			})

		case row.publisher == publisher:
			registrations = append(registrations, Registration{
				Address:   address,
				Size:      row.size,
				Royalty:   row.royalty,
				Duplicate: true,
			})

		default:
			if remaining < row.royalty {
				return nil, shortfallError(i, address, row.royalty, remaining)
			}
			remaining -= row.royalty
			if err := s.credit(conn, row.publisher, row.royalty); err != nil {
				return nil, err
			}
			registrations = append(registrations, Registration{
				Address:   address,
				Size:      row.size,
				Royalty:   row.royalty,
				Paid:      row.royalty,
				Duplicate: true,
			})
		}
	}

	if remaining > 0 {
		if err := s.credit(conn, publisher, remaining); err != nil {
			return nil, err
		}
	}
	return registrations, nil
}

// Size returns a chunk's length. See Registry.
func (s *SQLite) Size(ctx context.Context, address Address) (uint64, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("datapoint: size: %w", err)
	}
	defer s.pool.Put(conn)

	var size uint64
	found := false
	err = sqlitex.Execute(conn, "SELECT size FROM datapoints WHERE address = ?", &sqlitex.ExecOptions{
		Args: []any{address[:]},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			size = uint64(stmt.ColumnInt64(0))
			found = true
			return nil
		},
	})
	if err != nil {
		return 0, fmt.Errorf("datapoint: size of %s: %w", address, err)
	}
	if !found {
		return 0, notFoundError(address)
	}
	return size, nil
}

// Read returns a chunk's bytes, decrypted and decompressed, after an
// integrity check against its address. See Registry.
func (s *SQLite) Read(ctx context.Context, address Address) ([]byte, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("datapoint: read: %w", err)
	}
	defer s.pool.Put(conn)

	var (
		found   bool
		size    int
		tag     CompressionTag
		payload []byte
	)
	err = sqlitex.Execute(conn, "SELECT size, compression, payload FROM datapoints WHERE address = ?", &sqlitex.ExecOptions{
		Args: []any{address[:]},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			found = true
			size = stmt.ColumnInt(0)
			tag = CompressionTag(stmt.ColumnInt64(1))
			payload = make([]byte, stmt.ColumnLen(2))
			stmt.ColumnBytes(2, payload)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("datapoint: read %s: %w", address, err)
	}
	if !found {
		return nil, notFoundError(address)
	}

	if s.encryptionKey != nil {
		payload, err = decryptPayload(s.encryptionKey, address, payload)
		if err != nil {
			return nil, fmt.Errorf("datapoint: read %s: %w", address, err)
		}
	}

	data, err := decompressPayload(payload, tag, size)
	if err != nil {
		return nil, fmt.Errorf("datapoint: read %s: %w", address, err)
	}
	if ComputeAddress(data) != address {
		return nil, fmt.Errorf("datapoint: read %s: payload integrity check failed", address)
	}
	return data, nil
}

// Royalty returns the reuse fee for an address. See Registry.
func (s *SQLite) Royalty(ctx context.Context, address Address) (Amount, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("datapoint: royalty: %w", err)
	}
	defer s.pool.Put(conn)

	var royalty Amount
	err = sqlitex.Execute(conn, "SELECT royalty FROM datapoints WHERE address = ?", &sqlitex.ExecOptions{
		Args: []any{address[:]},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			royalty = Amount(stmt.ColumnInt64(0))
			return nil
		},
	})
	if err != nil {
		return 0, fmt.Errorf("datapoint: royalty of %s: %w", address, err)
	}
	return royalty, nil
}

// Balance returns an account's accumulated credit. See Registry.
func (s *SQLite) Balance(ctx context.Context, account wttp.Account) (Amount, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("datapoint: balance: %w", err)
	}
	defer s.pool.Put(conn)

	balance, err := readBalance(conn, account)
	if err != nil {
		return 0, fmt.Errorf("datapoint: balance of %q: %w", account, err)
	}
	return balance, nil
}

// Withdraw deducts amount from an account's balance. See Registry.
func (s *SQLite) Withdraw(ctx context.Context, account wttp.Account, amount Amount) (err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("datapoint: withdraw: %w", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("datapoint: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	balance, err := readBalance(conn, account)
	if err != nil {
		return fmt.Errorf("datapoint: withdraw from %q: %w", account, err)
	}
	if amount > balance {
		return overdrawError(account, amount, balance)
	}

	err = sqlitex.Execute(conn, "UPDATE balances SET balance = ? WHERE account = ?", &sqlitex.ExecOptions{
		Args: []any{int64(balance - amount), string(account)},
	})
	if err != nil {
		return fmt.Errorf("datapoint: withdraw from %q: %w", account, err)
	}
	return nil
}

// datapointRow is the bookkeeping slice of a stored chunk.
type datapointRow struct {
	publisher wttp.Account
	royalty   Amount
	size      uint64
}

// lookupDatapoint returns a chunk's bookkeeping row, or nil when the
// address is unregistered.
func (s *SQLite) lookupDatapoint(conn *sqlite.Conn, address Address) (*datapointRow, error) {
	var row *datapointRow
	err := sqlitex.Execute(conn, "SELECT publisher, royalty, size FROM datapoints WHERE address = ?", &sqlitex.ExecOptions{
		Args: []any{address[:]},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			row = &datapointRow{
				publisher: wttp.Account(stmt.ColumnText(0)),
				royalty:   Amount(stmt.ColumnInt64(1)),
				size:      uint64(stmt.ColumnInt64(2)),
			}
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("datapoint: looking up %s: %w", address, err)
	}
	return row, nil
}

// insertDatapoint compresses (and, when configured, encrypts) a chunk
// and writes its row.
func (s *SQLite) insertDatapoint(conn *sqlite.Conn, address Address, data []byte, publisher wttp.Account, royalty Amount) error {
	payload, tag, err := compressPayload(data)
	if err != nil {
		return fmt.Errorf("datapoint: compressing %s: %w", address, err)
	}
	if s.encryptionKey != nil {
		payload, err = encryptPayload(s.encryptionKey, address, payload)
		if err != nil {
			return fmt.Errorf("datapoint: encrypting %s: %w", address, err)
		}
	}

	// COALESCE keeps an empty chunk's payload a zero-length blob even
	// if the binding layer turns an empty slice into NULL.
	err = sqlitex.Execute(conn,
		"INSERT INTO datapoints (address, size, compression, payload, publisher, royalty) VALUES (?, ?, ?, COALESCE(?, zeroblob(0)), ?, ?)",
		&sqlitex.ExecOptions{
			Args: []any{address[:], int64(len(data)), int64(tag), payload, string(publisher), int64(royalty)},
		})
	if err != nil {
		return fmt.Errorf("datapoint: inserting %s: %w", address, err)
	}
	return nil
}

// credit adds amount to an account's balance, creating the row on
// first credit.
func (s *SQLite) credit(conn *sqlite.Conn, account wttp.Account, amount Amount) error {
	err := sqlitex.Execute(conn,
		"INSERT INTO balances (account, balance) VALUES (?, ?) ON CONFLICT(account) DO UPDATE SET balance = balance + excluded.balance",
		&sqlitex.ExecOptions{
			Args: []any{string(account), int64(amount)},
		})
	if err != nil {
		return fmt.Errorf("datapoint: crediting %q: %w", account, err)
	}
	return nil
}

// readBalance returns an account's balance, zero when the row is
// absent.
func readBalance(conn *sqlite.Conn, account wttp.Account) (Amount, error) {
	var balance Amount
	err := sqlitex.Execute(conn, "SELECT balance FROM balances WHERE account = ?", &sqlitex.ExecOptions{
		Args: []any{string(account)},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			balance = Amount(stmt.ColumnInt64(0))
			return nil
		},
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}
