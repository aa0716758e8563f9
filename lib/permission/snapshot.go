// Copyright 2026 The WTTP Authors
// SPDX-License-Identifier: Apache-2.0

package permission

import (
	"bytes"
	"sort"

	"github.com/wttp-foundation/wttp/lib/wttp"
)

// Snapshot is a point-in-time copy of the role tables, shaped for
// deterministic CBOR encoding: roles and accounts are emitted in
// sorted order so identical index states always serialize to identical
// bytes.
type Snapshot struct {
	Members   []MemberEntry `cbor:"members"`
	Admins    []AdminEntry  `cbor:"admins"`
	SiteAdmin wttp.Role     `cbor:"site_admin"`
}

// MemberEntry lists the accounts explicitly holding one role.
type MemberEntry struct {
	Role     wttp.Role      `cbor:"role"`
	Accounts []wttp.Account `cbor:"accounts"`
}

// AdminEntry records one role's administering role.
type AdminEntry struct {
	Role  wttp.Role `cbor:"role"`
	Admin wttp.Role `cbor:"admin"`
}

// Snapshot copies the index's tables. Roles whose member set has
// drained to empty are omitted; they are indistinguishable from roles
// never granted.
func (idx *Index) Snapshot() Snapshot {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	snapshot := Snapshot{SiteAdmin: idx.siteAdmin}

	for role, set := range idx.members {
		if len(set) == 0 {
			continue
		}
		entry := MemberEntry{Role: role, Accounts: make([]wttp.Account, 0, len(set))}
		for account := range set {
			entry.Accounts = append(entry.Accounts, account)
		}
		sort.Slice(entry.Accounts, func(i, j int) bool { return entry.Accounts[i] < entry.Accounts[j] })
		snapshot.Members = append(snapshot.Members, entry)
	}
	sort.Slice(snapshot.Members, func(i, j int) bool {
		return bytes.Compare(snapshot.Members[i].Role[:], snapshot.Members[j].Role[:]) < 0
	})

	for role, admin := range idx.admins {
		snapshot.Admins = append(snapshot.Admins, AdminEntry{Role: role, Admin: admin})
	}
	sort.Slice(snapshot.Admins, func(i, j int) bool {
		return bytes.Compare(snapshot.Admins[i].Role[:], snapshot.Admins[j].Role[:]) < 0
	})

	return snapshot
}

// Restore replaces the index's tables with the snapshot's contents.
// The load path is trusted the same way NewIndex is: no caller gating
// applies.
func (idx *Index) Restore(snapshot Snapshot) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.members = make(map[wttp.Role]map[wttp.Account]struct{}, len(snapshot.Members))
	for _, entry := range snapshot.Members {
		if len(entry.Accounts) == 0 {
			continue
		}
		set := make(map[wttp.Account]struct{}, len(entry.Accounts))
		for _, account := range entry.Accounts {
			set[account] = struct{}{}
		}
		idx.members[entry.Role] = set
	}

	idx.admins = make(map[wttp.Role]wttp.Role, len(snapshot.Admins))
	for _, entry := range snapshot.Admins {
		idx.admins[entry.Role] = entry.Admin
	}

	idx.siteAdmin = snapshot.SiteAdmin
}
