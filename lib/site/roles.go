// Copyright 2026 The WTTP Authors
// SPDX-License-Identifier: Apache-2.0

package site

import (
	"github.com/wttp-foundation/wttp/lib/permission"
	"github.com/wttp-foundation/wttp/lib/wttp"
)

// GrantRole adds an account to a role. The actor must administer the
// role.
func (s *Site) GrantRole(actor wttp.Account, role wttp.Role, account wttp.Account) (permission.RoleGranted, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result, err := s.perms.Grant(actor, role, account)
	if err != nil {
		s.logger.Warn("grant refused",
			"actor", actor, "role", role, "account", account, "error", err)
		return permission.RoleGranted{}, err
	}
	s.logger.Info("role granted",
		"actor", actor, "role", result.Role, "account", result.Account, "changed", result.Changed)
	return result, nil
}

// RevokeRole removes an account from a role. The actor must administer
// the role.
func (s *Site) RevokeRole(actor wttp.Account, role wttp.Role, account wttp.Account) (permission.RoleRevoked, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result, err := s.perms.Revoke(actor, role, account)
	if err != nil {
		s.logger.Warn("revoke refused",
			"actor", actor, "role", role, "account", account, "error", err)
		return permission.RoleRevoked{}, err
	}
	s.logger.Info("role revoked",
		"actor", actor, "role", result.Role, "account", result.Account, "changed", result.Changed)
	return result, nil
}

// RevokeAllRoles blacklists an account by granting it the public role,
// which is evaluated inverted.
func (s *Site) RevokeAllRoles(actor wttp.Account, account wttp.Account) (permission.RoleGranted, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result, err := s.perms.RevokeAll(actor, account)
	if err != nil {
		s.logger.Warn("blacklist refused",
			"actor", actor, "account", account, "error", err)
		return permission.RoleGranted{}, err
	}
	s.logger.Info("account blacklisted",
		"actor", actor, "account", result.Account, "changed", result.Changed)
	return result, nil
}

// CreateResourceRole registers a role administered by the site-admin
// role. The actor must hold site-admin.
func (s *Site) CreateResourceRole(actor wttp.Account, role wttp.Role) (permission.RoleCreated, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result, err := s.perms.CreateResourceRole(actor, role)
	if err != nil {
		s.logger.Warn("resource role refused",
			"actor", actor, "role", role, "error", err)
		return permission.RoleCreated{}, err
	}
	s.logger.Info("resource role created",
		"actor", actor, "role", result.Role, "admin", result.Admin, "repointed", result.Repointed)
	return result, nil
}

// ChangeAdminRole repoints the site-admin register at a new role. The
// actor must hold the admin role; existing memberships do not migrate.
func (s *Site) ChangeAdminRole(actor wttp.Account, role wttp.Role) (permission.AdminRoleChanged, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result, err := s.perms.ChangeAdminRole(actor, role)
	if err != nil {
		s.logger.Warn("admin role change refused",
			"actor", actor, "role", role, "error", err)
		return permission.AdminRoleChanged{}, err
	}
	s.logger.Info("admin role changed",
		"actor", actor, "previous", result.Previous, "current", result.Current)
	return result, nil
}
