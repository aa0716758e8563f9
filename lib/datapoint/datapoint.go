// Copyright 2026 The WTTP Authors
// SPDX-License-Identifier: Apache-2.0

package datapoint

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/wttp-foundation/wttp/lib/wttp"
)

// addressDomainKey separates datapoint addresses from every other
// BLAKE3 domain in the engine. ASCII name, zero padded.
var addressDomainKey = [32]byte{
	'w', 't', 't', 'p', '.', 'd', 'a', 't', 'a', 'p', 'o', 'i', 'n', 't', '.', 'v', '1',
}

// Address is the content address of a datapoint: the domain-keyed
// BLAKE3 hash of its raw bytes. Identical content always yields the
// same address, which is what makes registration deduplicate.
type Address [32]byte

// ComputeAddress returns the address for a chunk of content. Pure
// function; safe to call before registering.
func ComputeAddress(data []byte) Address {
	hasher, err := blake3.NewKeyed(addressDomainKey[:])
	if err != nil {
		panic("datapoint: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var address Address
	hasher.Digest().Read(address[:])
	return address
}

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool { return a == Address{} }

func (a Address) String() string { return hex.EncodeToString(a[:]) }

// MarshalText encodes the address as lowercase hex.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText decodes a 64-character hex address.
func (a *Address) UnmarshalText(text []byte) error {
	if hex.DecodedLen(len(text)) != len(a) {
		return fmt.Errorf("datapoint address must be %d hex characters: got %d", hex.EncodedLen(len(a)), len(text))
	}
	_, err := hex.Decode(a[:], text)
	return err
}

// Amount is a quantity of payment units: attached payments, royalties,
// and publisher balances.
type Amount uint64

// DefaultRoyaltyRate is the per-byte reuse fee fixed at first
// registration when a backend is not configured with its own rate.
const DefaultRoyaltyRate Amount = 1

// Registration reports the outcome of registering one chunk.
type Registration struct {
	// Address is the chunk's content address.
	Address Address

	// Size is the chunk's length in bytes.
	Size uint64

	// Royalty is the reuse fee fixed when the chunk was first
	// registered. Later registrations by other publishers pay this
	// amount to the original publisher.
	Royalty Amount

	// Paid is the royalty charged for this call: zero for new content
	// and for a publisher re-registering their own chunk.
	Paid Amount

	// Duplicate reports whether the chunk already existed.
	Duplicate bool
}

// Registry is the payable content-addressed chunk store the engine
// stores resource bodies in. The engine treats it as an external
// collaborator; Memory and SQLite are reference implementations.
//
// Payments are attached value, not balance draws: the caller sends
// payment alongside the call, fees are taken from it, and everything
// left over is credited to an account's balance rather than returned.
// Registering new content is free and fixes the chunk's royalty at
// RoyaltyRate × len(data); re-registering a chunk someone else
// published requires payment of at least its royalty, which is
// credited to the original publisher.
type Registry interface {
	// Register stores one chunk. Idempotent: registering content that
	// already exists succeeds, free of charge for its own publisher,
	// for the fixed royalty otherwise. Unused payment is credited to
	// the publisher's balance. Insufficient payment fails with a
	// payment error and no state change.
	Register(ctx context.Context, publisher wttp.Account, data []byte, payment Amount) (Registration, error)

	// RegisterBatch stores chunks in order, drawing fees from a single
	// payment budget. All-or-nothing: a shortfall anywhere fails the
	// whole batch and nothing persists. Unused budget is credited to
	// the publisher's balance.
	RegisterBatch(ctx context.Context, publisher wttp.Account, chunks [][]byte, budget Amount) ([]Registration, error)

	// Size returns a registered chunk's length in bytes. Not-found
	// error when the address is unregistered.
	Size(ctx context.Context, address Address) (uint64, error)

	// Read returns a registered chunk's bytes. Not-found error when
	// the address is unregistered.
	Read(ctx context.Context, address Address) ([]byte, error)

	// Royalty returns the reuse fee for an address: what a different
	// publisher must pay to register the same content. Zero for
	// unregistered content, which is free to register.
	Royalty(ctx context.Context, address Address) (Amount, error)

	// Balance returns an account's accumulated credit. Zero for
	// accounts that never earned any.
	Balance(ctx context.Context, account wttp.Account) (Amount, error)

	// Withdraw deducts amount from an account's balance. Overdraw
	// fails with a payment error and no state change.
	Withdraw(ctx context.Context, account wttp.Account, amount Amount) error
}

// notFoundError builds the failure for an unregistered address.
func notFoundError(address Address) error {
	return &wttp.Error{
		Kind:   wttp.KindNotFound,
		Detail: fmt.Sprintf("datapoint %s not registered", address),
	}
}

// shortfallError builds the failure for an insufficient payment while
// registering chunk index of a batch.
func shortfallError(index int, address Address, royalty, remaining Amount) error {
	return &wttp.Error{
		Kind: wttp.KindPayment,
		Detail: fmt.Sprintf("chunk %d (%s): royalty %d exceeds remaining payment %d",
			index, address, royalty, remaining),
	}
}

// overdrawError builds the failure for withdrawing more than an
// account holds.
func overdrawError(account wttp.Account, amount, balance Amount) error {
	return &wttp.Error{
		Kind:   wttp.KindPayment,
		Detail: fmt.Sprintf("withdrawing %d exceeds balance %d of %q", amount, balance, account),
	}
}

// publisherError builds the failure for a registration without an
// account.
func publisherError() error {
	return &wttp.Error{
		Kind:   wttp.KindValidation,
		Detail: "registration requires a publisher account",
	}
}
