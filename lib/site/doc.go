// Copyright 2026 The WTTP Authors
// SPDX-License-Identifier: Apache-2.0

// Package site is the protocol dispatcher: the engine surface that
// turns method calls into storage and permission operations.
//
// # Evaluation order
//
// Every method resolves the path's effective header first, then runs
// the same two authorization checks: the method's bit in the header's
// mask, then the method slot's origin role. A cleared bit refuses
// everyone, admin-role holders included; a failed role check is the
// overridable half, since admin membership passes any role. Reads then
// proceed not-found, conditional match, redirect, content — in that
// order — so a conditional 304 is answered even when the header also
// carries a redirect, and a redirect wins over stored content.
//
// # Writes
//
// PUT replaces a resource wholesale, PATCH applies an ordered list of
// indexed chunk writes, DELETE removes content and metadata together,
// and DEFINE stores a header and repoints the path at it. Each runs
// inside one storage transaction, so a composite write either lands
// fully, with a single version advance, or not at all. PATCH registers
// its whole write list as one registry batch drawing on the request's
// single payment budget.
//
// DEFINE authorizes against the header in force before the new one
// applies. A header that clears its own DEFINE bit therefore locks the
// path's policy: nothing overrides a cleared bit. The only way out is
// DELETE, when the header leaves that bit set, since removing the
// record drops the path back to the site default.
//
// # State
//
// Save and Load serialize the whole engine (storage plus role tables)
// into a versioned image; Autosave rewrites it on a ticker. A single
// mutex totally orders public operations, matching the synchronous,
// serialized model the protocol assumes.
package site
