// Copyright 2026 The WTTP Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for testability.
//
// Production code accepts a Clock interface parameter instead of
// calling time.Now or time.NewTicker directly. In production, Real()
// provides the standard library behavior. In tests, Fake() provides a
// deterministic clock that advances only when Advance is called —
// resource timestamps and conditional-request comparisons become
// exactly reproducible.
//
// # Wiring Pattern
//
// Add a Clock field to structs that use time:
//
//	type Site struct {
//	    clock clock.Clock
//	    // ...
//	}
//
// In production:
//
//	s := New(Config{Clock: clock.Real()})
//
// In tests:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	s := New(Config{Clock: c})
//	// ... mutate a resource, then ...
//	c.Advance(5 * time.Second) // later mutations get a later timestamp
//
// # FakeClock Synchronization
//
// When a goroutine calls NewTicker on a FakeClock, it registers a
// pending waiter. Use WaitForTimers to block until a specific number of
// waiters are registered before calling Advance. This eliminates the
// race between ticker registration and time advancement that plagues
// tests using time.Sleep for synchronization.
package clock
