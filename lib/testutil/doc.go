// Copyright 2026 The WTTP Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [RequireReceive] encapsulates the timeout safety valve pattern
// (select with time.After fallback) so that individual tests do not
// need direct time.After calls. Engine tests drive a fake clock; the
// real-clock wait here exists only to keep a broken background
// goroutine from hanging the suite.
//
// Helpers call t.Fatalf on failure rather than returning errors, since
// test setup failures are not recoverable.
//
// This package has no engine dependencies.
package testutil
