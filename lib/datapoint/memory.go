// Copyright 2026 The WTTP Authors
// SPDX-License-Identifier: Apache-2.0

package datapoint

import (
	"bytes"
	"context"
	"sync"

	"github.com/wttp-foundation/wttp/lib/wttp"
)

// Memory is an in-process Registry. It holds every chunk and balance
// in maps and is the backend engine tests run against.
//
// Memory is safe for concurrent use.
type Memory struct {
	mu          sync.Mutex
	royaltyRate Amount
	datapoints  map[Address]*memoryDatapoint
	balances    map[wttp.Account]Amount
}

type memoryDatapoint struct {
	data      []byte
	publisher wttp.Account
	royalty   Amount
}

var _ Registry = (*Memory)(nil)

// NewMemory returns an empty in-memory registry. royaltyRate is the
// per-byte fee fixed for each new chunk; zero makes every reuse free.
func NewMemory(royaltyRate Amount) *Memory {
	return &Memory{
		royaltyRate: royaltyRate,
		datapoints:  make(map[Address]*memoryDatapoint),
		balances:    make(map[wttp.Account]Amount),
	}
}

// Register stores one chunk. See Registry.
func (m *Memory) Register(ctx context.Context, publisher wttp.Account, data []byte, payment Amount) (Registration, error) {
	registrations, err := m.RegisterBatch(ctx, publisher, [][]byte{data}, payment)
	if err != nil {
		return Registration{}, err
	}
	return registrations[0], nil
}

// RegisterBatch stores chunks in order against a single budget. The
// batch is staged against a snapshot of current state and committed
// only once every chunk's fee has cleared, so a shortfall anywhere
// leaves the registry untouched.
func (m *Memory) RegisterBatch(ctx context.Context, publisher wttp.Account, chunks [][]byte, budget Amount) ([]Registration, error) {
	if publisher.IsZero() {
		return nil, publisherError()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	staged := make(map[Address]*memoryDatapoint)
	credits := make(map[wttp.Account]Amount)
	remaining := budget
	registrations := make([]Registration, 0, len(chunks))

	for i, chunk := range chunks {
		address := ComputeAddress(chunk)
		existing := m.datapoints[address]
		if existing == nil {
			// A chunk repeated within the batch deduplicates against
			// its own earlier staging.
			existing = staged[address]
		}

		switch {
		case existing == nil:
			royalty := m.royaltyRate * Amount(len(chunk))
			staged[address] = &memoryDatapoint{
				data:      bytes.Clone(chunk),
				publisher: publisher,
				royalty:   royalty,
			}
			registrations = append(registrations, Registration{
				Address: address,
				Size:    uint64(len(chunk)),
				Royalty: royalty,
			})

		case existing.publisher == publisher:
			registrations = append(registrations, Registration{
				Address:   address,
				Size:      uint64(len(existing.data)),
				Royalty:   existing.royalty,
				Duplicate: true,
			})

		default:
			if remaining < existing.royalty {
				return nil, shortfallError(i, address, existing.royalty, remaining)
			}
			remaining -= existing.royalty
			credits[existing.publisher] += existing.royalty
			registrations = append(registrations, Registration{
				Address:   address,
				Size:      uint64(len(existing.data)),
				Royalty:   existing.royalty,
				Paid:      existing.royalty,
				Duplicate: true,
			})
		}
	}

	for address, dp := range staged {
		m.datapoints[address] = dp
	}
	for account, credit := range credits {
		m.balances[account] += credit
	}
	if remaining > 0 {
		m.balances[publisher] += remaining
	}
	return registrations, nil
}

// Size returns a chunk's length. See Registry.
func (m *Memory) Size(ctx context.Context, address Address) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing := m.datapoints[address]
	if existing == nil {
		return 0, notFoundError(address)
	}
	return uint64(len(existing.data)), nil
}

// Read returns a chunk's bytes. See Registry.
func (m *Memory) Read(ctx context.Context, address Address) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing := m.datapoints[address]
	if existing == nil {
		return nil, notFoundError(address)
	}
	return bytes.Clone(existing.data), nil
}

// Royalty returns the reuse fee for an address. See Registry.
func (m *Memory) Royalty(ctx context.Context, address Address) (Amount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing := m.datapoints[address]
	if existing == nil {
		return 0, nil
	}
	return existing.royalty, nil
}

// Balance returns an account's accumulated credit. See Registry.
func (m *Memory) Balance(ctx context.Context, account wttp.Account) (Amount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[account], nil
}

// Withdraw deducts amount from an account's balance. See Registry.
func (m *Memory) Withdraw(ctx context.Context, account wttp.Account, amount Amount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	balance := m.balances[account]
	if amount > balance {
		return overdrawError(account, amount, balance)
	}
	m.balances[account] = balance - amount
	return nil
}
