// Copyright 2026 The WTTP Authors
// SPDX-License-Identifier: Apache-2.0

package datapoint

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/wttp-foundation/wttp/lib/wttp"
)

const (
	alice = wttp.Account("alice")
	bob   = wttp.Account("bob")
)

// withRegistries runs a test against both reference backends.
func withRegistries(t *testing.T, royaltyRate Amount, run func(t *testing.T, registry Registry)) {
	t.Helper()

	t.Run("memory", func(t *testing.T) {
		run(t, NewMemory(royaltyRate))
	})

	t.Run("sqlite", func(t *testing.T) {
		registry, err := OpenSQLite(SQLiteConfig{
			Path:        filepath.Join(t.TempDir(), "registry.db"),
			RoyaltyRate: royaltyRate,
		})
		if err != nil {
			t.Fatalf("OpenSQLite: %v", err)
		}
		t.Cleanup(func() {
			if err := registry.Close(); err != nil {
				t.Errorf("Close: %v", err)
			}
		})
		run(t, registry)
	})
}

func requireBalance(t *testing.T, registry Registry, account wttp.Account, want Amount) {
	t.Helper()
	got, err := registry.Balance(context.Background(), account)
	if err != nil {
		t.Fatalf("Balance(%q): %v", account, err)
	}
	if got != want {
		t.Errorf("Balance(%q) = %d, want %d", account, got, want)
	}
}

func TestComputeAddress(t *testing.T) {
	data := []byte("hello, world")
	first := ComputeAddress(data)
	if first != ComputeAddress([]byte("hello, world")) {
		t.Error("identical content produced different addresses")
	}
	if first == ComputeAddress([]byte("hello, world!")) {
		t.Error("distinct content produced the same address")
	}
	if first.IsZero() {
		t.Error("address of non-empty content is zero")
	}
}

func TestRegisterNewChunk(t *testing.T) {
	withRegistries(t, 2, func(t *testing.T, registry Registry) {
		ctx := context.Background()
		data := []byte("0123456789")

		registration, err := registry.Register(ctx, alice, data, 0)
		if err != nil {
			t.Fatalf("Register: %v", err)
		}
		if registration.Address != ComputeAddress(data) {
			t.Error("registration address does not match computed address")
		}
		if registration.Size != 10 {
			t.Errorf("Size = %d, want 10", registration.Size)
		}
		if registration.Royalty != 20 {
			t.Errorf("Royalty = %d, want 20 (rate 2 x 10 bytes)", registration.Royalty)
		}
		if registration.Paid != 0 || registration.Duplicate {
			t.Errorf("new chunk: Paid = %d, Duplicate = %v", registration.Paid, registration.Duplicate)
		}

		size, err := registry.Size(ctx, registration.Address)
		if err != nil {
			t.Fatalf("Size: %v", err)
		}
		if size != 10 {
			t.Errorf("stored size = %d, want 10", size)
		}

		read, err := registry.Read(ctx, registration.Address)
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if !bytes.Equal(read, data) {
			t.Errorf("Read = %q, want %q", read, data)
		}

		royalty, err := registry.Royalty(ctx, registration.Address)
		if err != nil {
			t.Fatalf("Royalty: %v", err)
		}
		if royalty != 20 {
			t.Errorf("stored royalty = %d, want 20", royalty)
		}
	})
}

func TestRegisterIdempotentForPublisher(t *testing.T) {
	withRegistries(t, 2, func(t *testing.T, registry Registry) {
		ctx := context.Background()
		data := []byte("same bytes")

		if _, err := registry.Register(ctx, alice, data, 0); err != nil {
			t.Fatalf("first Register: %v", err)
		}
		registration, err := registry.Register(ctx, alice, data, 0)
		if err != nil {
			t.Fatalf("second Register: %v", err)
		}
		if !registration.Duplicate {
			t.Error("re-registration not reported as duplicate")
		}
		if registration.Paid != 0 {
			t.Errorf("own re-registration charged %d", registration.Paid)
		}
		requireBalance(t, registry, alice, 0)
	})
}

func TestRegisterExcessCreditsPublisher(t *testing.T) {
	withRegistries(t, 0, func(t *testing.T, registry Registry) {
		ctx := context.Background()
		if _, err := registry.Register(ctx, alice, []byte("chunk"), 7); err != nil {
			t.Fatalf("Register: %v", err)
		}
		// Nothing to pay for new content: the whole attached payment is
		// credited back.
		requireBalance(t, registry, alice, 7)
	})
}

func TestRegisterReuseRequiresRoyalty(t *testing.T) {
	withRegistries(t, 2, func(t *testing.T, registry Registry) {
		ctx := context.Background()
		data := []byte("0123456789") // royalty 20

		if _, err := registry.Register(ctx, alice, data, 0); err != nil {
			t.Fatalf("Register: %v", err)
		}

		// Short payment: rejected, no credit anywhere.
		_, err := registry.Register(ctx, bob, data, 19)
		if !wttp.IsPayment(err) {
			t.Fatalf("underpaid reuse = %v, want payment error", err)
		}
		requireBalance(t, registry, alice, 0)
		requireBalance(t, registry, bob, 0)

		// Exact payment: royalty flows to the original publisher.
		registration, err := registry.Register(ctx, bob, data, 20)
		if err != nil {
			t.Fatalf("paid reuse: %v", err)
		}
		if !registration.Duplicate || registration.Paid != 20 {
			t.Errorf("reuse registration = %+v, want duplicate with Paid 20", registration)
		}
		requireBalance(t, registry, alice, 20)
		requireBalance(t, registry, bob, 0)

		// Overpayment: excess credited to the payer.
		if _, err := registry.Register(ctx, bob, data, 25); err != nil {
			t.Fatalf("overpaid reuse: %v", err)
		}
		requireBalance(t, registry, alice, 40)
		requireBalance(t, registry, bob, 5)
	})
}

func TestRegisterRequiresPublisher(t *testing.T) {
	withRegistries(t, 1, func(t *testing.T, registry Registry) {
		_, err := registry.Register(context.Background(), "", []byte("x"), 0)
		if !wttp.IsValidation(err) {
			t.Errorf("Register without publisher = %v, want validation error", err)
		}
	})
}

func TestRegisterBatchBudgetFlow(t *testing.T) {
	withRegistries(t, 2, func(t *testing.T, registry Registry) {
		ctx := context.Background()
		chunk1 := []byte("abcd")   // royalty 8
		chunk2 := []byte("efghij") // royalty 12

		if _, err := registry.Register(ctx, alice, chunk1, 0); err != nil {
			t.Fatalf("Register chunk1: %v", err)
		}
		if _, err := registry.Register(ctx, alice, chunk2, 0); err != nil {
			t.Fatalf("Register chunk2: %v", err)
		}

		fresh := []byte("new content")
		registrations, err := registry.RegisterBatch(ctx, bob, [][]byte{chunk1, fresh, chunk2}, 25)
		if err != nil {
			t.Fatalf("RegisterBatch: %v", err)
		}
		if len(registrations) != 3 {
			t.Fatalf("got %d registrations, want 3", len(registrations))
		}
		if registrations[0].Paid != 8 || !registrations[0].Duplicate {
			t.Errorf("chunk1 registration = %+v", registrations[0])
		}
		if registrations[1].Paid != 0 || registrations[1].Duplicate {
			t.Errorf("fresh registration = %+v", registrations[1])
		}
		if registrations[2].Paid != 12 || !registrations[2].Duplicate {
			t.Errorf("chunk2 registration = %+v", registrations[2])
		}

		// Fees 8+12 drawn from the 25 budget; the 5 left over goes to
		// the payer.
		requireBalance(t, registry, alice, 20)
		requireBalance(t, registry, bob, 5)
	})
}

func TestRegisterBatchAllOrNothing(t *testing.T) {
	withRegistries(t, 2, func(t *testing.T, registry Registry) {
		ctx := context.Background()
		owned := []byte("0123456789") // royalty 20

		if _, err := registry.Register(ctx, alice, owned, 0); err != nil {
			t.Fatalf("Register: %v", err)
		}

		fresh := []byte("brand new bytes")
		_, err := registry.RegisterBatch(ctx, bob, [][]byte{fresh, owned}, 19)
		if !wttp.IsPayment(err) {
			t.Fatalf("underfunded batch = %v, want payment error", err)
		}

		// The fresh chunk preceding the shortfall must not persist.
		if _, err := registry.Size(ctx, ComputeAddress(fresh)); !wttp.IsNotFound(err) {
			t.Errorf("fresh chunk persisted after failed batch: Size err = %v", err)
		}
		requireBalance(t, registry, alice, 0)
		requireBalance(t, registry, bob, 0)
	})
}

func TestRegisterBatchDeduplicatesWithinBatch(t *testing.T) {
	withRegistries(t, 3, func(t *testing.T, registry Registry) {
		ctx := context.Background()
		chunk := []byte("twice")

		registrations, err := registry.RegisterBatch(ctx, alice, [][]byte{chunk, chunk}, 0)
		if err != nil {
			t.Fatalf("RegisterBatch: %v", err)
		}
		if len(registrations) != 2 {
			t.Fatalf("got %d registrations, want 2", len(registrations))
		}
		if registrations[0].Duplicate {
			t.Error("first occurrence reported as duplicate")
		}
		if !registrations[1].Duplicate || registrations[1].Paid != 0 {
			t.Errorf("second occurrence = %+v, want free duplicate", registrations[1])
		}
	})
}

func TestReadUnknownAddress(t *testing.T) {
	withRegistries(t, 1, func(t *testing.T, registry Registry) {
		ctx := context.Background()
		missing := ComputeAddress([]byte("never registered"))

		if _, err := registry.Read(ctx, missing); !wttp.IsNotFound(err) {
			t.Errorf("Read = %v, want not-found error", err)
		}
		if _, err := registry.Size(ctx, missing); !wttp.IsNotFound(err) {
			t.Errorf("Size = %v, want not-found error", err)
		}

		// Unregistered content is free to register, so its royalty
		// reads as zero rather than an error.
		royalty, err := registry.Royalty(ctx, missing)
		if err != nil || royalty != 0 {
			t.Errorf("Royalty = %d, %v, want 0, nil", royalty, err)
		}
	})
}

func TestWithdraw(t *testing.T) {
	withRegistries(t, 2, func(t *testing.T, registry Registry) {
		ctx := context.Background()
		data := []byte("0123456789") // royalty 20

		if _, err := registry.Register(ctx, alice, data, 0); err != nil {
			t.Fatalf("Register: %v", err)
		}
		if _, err := registry.Register(ctx, bob, data, 20); err != nil {
			t.Fatalf("reuse: %v", err)
		}
		requireBalance(t, registry, alice, 20)

		if err := registry.Withdraw(ctx, alice, 15); err != nil {
			t.Fatalf("Withdraw: %v", err)
		}
		requireBalance(t, registry, alice, 5)

		if err := registry.Withdraw(ctx, alice, 6); !wttp.IsPayment(err) {
			t.Fatalf("overdraw = %v, want payment error", err)
		}
		requireBalance(t, registry, alice, 5)

		if err := registry.Withdraw(ctx, alice, 5); err != nil {
			t.Fatalf("full Withdraw: %v", err)
		}
		requireBalance(t, registry, alice, 0)
	})
}

func TestEmptyChunk(t *testing.T) {
	withRegistries(t, 5, func(t *testing.T, registry Registry) {
		ctx := context.Background()

		registration, err := registry.Register(ctx, alice, nil, 0)
		if err != nil {
			t.Fatalf("Register(empty): %v", err)
		}
		if registration.Size != 0 || registration.Royalty != 0 {
			t.Errorf("empty chunk registration = %+v", registration)
		}

		read, err := registry.Read(ctx, registration.Address)
		if err != nil {
			t.Fatalf("Read(empty): %v", err)
		}
		if len(read) != 0 {
			t.Errorf("Read(empty) = %q", read)
		}
	})
}
