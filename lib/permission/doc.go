// Copyright 2026 The WTTP Authors
// SPDX-License-Identifier: Apache-2.0

// Package permission implements the engine's role system. It decides
// whether an account may act through a given role by evaluating two
// explicit tables:
//
//   - members: role → set of accounts holding it.
//   - admins: role → the role whose holders may grant and revoke it.
//     A role with no entry is administered by [wttp.AdminRole], which
//     encodes "the admin role is always its own admin".
//
// Two role identifiers are reserved and change the meaning of a check:
//
//   - [wttp.AdminRole] membership overrides every role check, including
//     checks against roles that were never created.
//   - [wttp.PublicRole] membership is inverted: accounts are public by
//     default, and explicit membership acts as a blacklist flag that
//     removes public access instead of granting it.
//
// [Index.HasRole] is a pure function over the tables — the override and
// the inversion are two branches of that one function, not scattered
// special cases. Mutations ([Index.Grant], [Index.Revoke],
// [Index.CreateResourceRole], [Index.ChangeAdminRole]) gate on the
// caller's standing in the relevant admin role and return typed results
// carrying the before/after values, which the dispatcher logs.
//
// # Site admin
//
// One configurable role identifier is registered as the "site admin"
// role. Its holders may create resource roles; each created role is
// administered by the site-admin role in force at creation time.
// [Index.ChangeAdminRole] swaps the register without migrating any
// membership: whoever already holds the new identifier becomes
// privileged immediately.
//
// The index serializes to a deterministic snapshot (see [Index.Snapshot]
// and [Index.Restore]) for the engine's durable save/load path.
package permission
