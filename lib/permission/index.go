// Copyright 2026 The WTTP Authors
// SPDX-License-Identifier: Apache-2.0

package permission

import (
	"sort"
	"sync"

	"github.com/wttp-foundation/wttp/lib/wttp"
)

// Index holds the role tables and the site-admin register. Read
// operations (HasRole, Members, AdminOf, SiteAdmin) acquire a read
// lock; mutations acquire a write lock. The dispatcher serializes all
// protocol operations above this layer, so the lock here mostly guards
// direct Index use by tooling and tests.
type Index struct {
	mu sync.RWMutex

	// members maps each role to the accounts holding it. A role absent
	// from the map has no members; for PublicRole that means nobody is
	// blacklisted.
	members map[wttp.Role]map[wttp.Account]struct{}

	// admins maps each role to the role whose holders administer it.
	// A missing entry means AdminRole administers it.
	admins map[wttp.Role]wttp.Role

	// siteAdmin is the role identifier currently registered as the
	// site-admin role.
	siteAdmin wttp.Role
}

// NewIndex creates the role tables. owner, when non-zero, is seeded
// into AdminRole's membership — without a seed admin no account could
// ever pass the gates that mint further admins. siteAdmin registers the
// initial site-admin role; the zero value is AdminRole itself,
// collapsing the two.
func NewIndex(owner wttp.Account, siteAdmin wttp.Role) *Index {
	idx := &Index{
		members:   make(map[wttp.Role]map[wttp.Account]struct{}),
		admins:    make(map[wttp.Role]wttp.Role),
		siteAdmin: siteAdmin,
	}
	if !owner.IsZero() {
		idx.members[wttp.AdminRole] = map[wttp.Account]struct{}{owner: {}}
	}
	return idx
}

// HasRole reports whether actor may act through role.
//
// Evaluation:
//  1. The zero account never passes any check.
//  2. AdminRole membership passes every check, including checks
//     against roles that were never created.
//  3. PublicRole is inverted: explicit membership is a blacklist flag,
//     so the check passes exactly when the actor is NOT a member.
//  4. Any other role is a plain membership test.
func (idx *Index) HasRole(role wttp.Role, actor wttp.Account) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.hasRoleLocked(role, actor)
}

// hasRoleLocked is HasRole without locking. Caller must hold idx.mu.
func (idx *Index) hasRoleLocked(role wttp.Role, actor wttp.Account) bool {
	if actor.IsZero() {
		return false
	}
	if idx.memberLocked(wttp.AdminRole, actor) {
		return true
	}
	if role == wttp.PublicRole {
		return !idx.memberLocked(wttp.PublicRole, actor)
	}
	return idx.memberLocked(role, actor)
}

// memberLocked is the raw membership test, with no override or
// inversion applied. Caller must hold idx.mu.
func (idx *Index) memberLocked(role wttp.Role, actor wttp.Account) bool {
	_, ok := idx.members[role][actor]
	return ok
}

// adminOfLocked returns the role administering role. Caller must hold
// idx.mu.
func (idx *Index) adminOfLocked(role wttp.Role) wttp.Role {
	if admin, ok := idx.admins[role]; ok {
		return admin
	}
	return wttp.AdminRole
}

// Members returns the accounts explicitly holding role, sorted. For
// PublicRole this is the blacklist, not the set of public accounts.
func (idx *Index) Members(role wttp.Role) []wttp.Account {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	set := idx.members[role]
	if len(set) == 0 {
		return nil
	}
	accounts := make([]wttp.Account, 0, len(set))
	for account := range set {
		accounts = append(accounts, account)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i] < accounts[j] })
	return accounts
}

// AdminOf returns the role whose holders administer role. Roles never
// explicitly created report AdminRole.
func (idx *Index) AdminOf(role wttp.Role) wttp.Role {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.adminOfLocked(role)
}

// SiteAdmin returns the role identifier currently registered as the
// site-admin role.
func (idx *Index) SiteAdmin() wttp.Role {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.siteAdmin
}
