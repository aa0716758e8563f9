// Copyright 2026 The WTTP Authors
// SPDX-License-Identifier: Apache-2.0

package permission

import (
	"fmt"

	"github.com/wttp-foundation/wttp/lib/wttp"
)

// RoleGranted records a successful Grant. Changed is false when the
// account already held the role.
type RoleGranted struct {
	Role    wttp.Role
	Account wttp.Account
	Changed bool
}

// RoleRevoked records a successful Revoke. Changed is false when the
// account did not hold the role.
type RoleRevoked struct {
	Role    wttp.Role
	Account wttp.Account
	Changed bool
}

// RoleCreated records a successful CreateResourceRole. When the role
// identifier already existed, Repointed is true and PreviousAdmin
// carries the admin role it was moved from.
type RoleCreated struct {
	Role          wttp.Role
	Admin         wttp.Role
	PreviousAdmin wttp.Role
	Repointed     bool
}

// AdminRoleChanged records a successful ChangeAdminRole.
type AdminRoleChanged struct {
	Previous wttp.Role
	Current  wttp.Role
}

// Grant adds account to role's membership. The caller must hold the
// role administering role; AdminRole holders always qualify. Granting
// PublicRole membership blacklists the account (see HasRole).
func (idx *Index) Grant(caller wttp.Account, role wttp.Role, account wttp.Account) (RoleGranted, error) {
	if account.IsZero() {
		return RoleGranted{}, &wttp.Error{
			Kind:   wttp.KindValidation,
			Detail: "cannot grant a role to the empty account",
		}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if err := idx.requireAdminOfLocked(caller, role); err != nil {
		return RoleGranted{}, err
	}

	set := idx.members[role]
	if set == nil {
		set = make(map[wttp.Account]struct{})
		idx.members[role] = set
	}
	if _, held := set[account]; held {
		return RoleGranted{Role: role, Account: account}, nil
	}
	set[account] = struct{}{}
	return RoleGranted{Role: role, Account: account, Changed: true}, nil
}

// Revoke removes account from role's membership, gated like Grant.
// Revoking PublicRole membership un-blacklists the account.
func (idx *Index) Revoke(caller wttp.Account, role wttp.Role, account wttp.Account) (RoleRevoked, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if err := idx.requireAdminOfLocked(caller, role); err != nil {
		return RoleRevoked{}, err
	}

	set := idx.members[role]
	if _, held := set[account]; !held {
		return RoleRevoked{Role: role, Account: account}, nil
	}
	delete(set, account)
	return RoleRevoked{Role: role, Account: account, Changed: true}, nil
}

// RevokeAll removes account's public access by granting it PublicRole
// membership (the blacklist flag). Every other role the account holds
// is untouched; if the account holds AdminRole its access survives
// through the override.
func (idx *Index) RevokeAll(caller wttp.Account, account wttp.Account) (RoleGranted, error) {
	return idx.Grant(caller, wttp.PublicRole, account)
}

// CreateResourceRole registers role as a resource role administered by
// the current site-admin role. The caller must hold the site-admin
// role. AdminRole and the site-admin role itself are rejected: reusing
// either identifier would let a resource-role grant escalate into
// site-wide privileges. Re-creating an existing role repoints its
// admin role to the current site-admin role.
func (idx *Index) CreateResourceRole(caller wttp.Account, role wttp.Role) (RoleCreated, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if !idx.hasRoleLocked(idx.siteAdmin, caller) {
		return RoleCreated{}, &wttp.Error{
			Kind:   wttp.KindAuthorization,
			Detail: fmt.Sprintf("account %q does not hold the site-admin role", caller),
		}
	}
	if role == wttp.AdminRole {
		return RoleCreated{}, &wttp.Error{
			Kind:   wttp.KindValidation,
			Detail: "role identifier collides with the admin role",
		}
	}
	if role == idx.siteAdmin {
		return RoleCreated{}, &wttp.Error{
			Kind:   wttp.KindValidation,
			Detail: "role identifier collides with the site-admin role",
		}
	}

	previous, existed := idx.admins[role]
	idx.admins[role] = idx.siteAdmin

	result := RoleCreated{Role: role, Admin: idx.siteAdmin}
	if existed {
		result.PreviousAdmin = previous
		result.Repointed = true
	}
	return result, nil
}

// ChangeAdminRole reassigns which role identifier is registered as the
// site-admin role. The caller must hold AdminRole. No membership
// migrates: any account already holding the new identifier becomes
// privileged immediately. Setting AdminRole collapses the site-admin
// register into the admin role.
func (idx *Index) ChangeAdminRole(caller wttp.Account, role wttp.Role) (AdminRoleChanged, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if !idx.hasRoleLocked(wttp.AdminRole, caller) {
		return AdminRoleChanged{}, &wttp.Error{
			Kind:   wttp.KindAuthorization,
			Detail: fmt.Sprintf("account %q does not hold the admin role", caller),
		}
	}

	result := AdminRoleChanged{Previous: idx.siteAdmin, Current: role}
	idx.siteAdmin = role
	return result, nil
}

// requireAdminOfLocked verifies that caller holds the role
// administering role. Caller must hold idx.mu.
func (idx *Index) requireAdminOfLocked(caller wttp.Account, role wttp.Role) error {
	admin := idx.adminOfLocked(role)
	if idx.hasRoleLocked(admin, caller) {
		return nil
	}
	return &wttp.Error{
		Kind:   wttp.KindAuthorization,
		Detail: fmt.Sprintf("account %q does not administer role %s", caller, role),
	}
}
