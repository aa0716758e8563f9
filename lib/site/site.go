// Copyright 2026 The WTTP Authors
// SPDX-License-Identifier: Apache-2.0

package site

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/wttp-foundation/wttp/lib/clock"
	"github.com/wttp-foundation/wttp/lib/datapoint"
	"github.com/wttp-foundation/wttp/lib/permission"
	"github.com/wttp-foundation/wttp/lib/storage"
	"github.com/wttp-foundation/wttp/lib/wttp"
)

// Config carries everything a site needs at construction.
type Config struct {
	// Owner is seeded into the admin role, so it passes every role
	// check and administers every role. Required.
	Owner wttp.Account

	// SiteAdminRole gates resource-role creation. The zero role means
	// RoleFromName("site-admin").
	SiteAdminRole wttp.Role

	// DefaultHeader is the response policy for paths without an
	// explicit header. The zero value means the conventional default:
	// reads public, writes held by the site-admin role, POST reserved.
	DefaultHeader wttp.Header

	// Registry stores resource bodies. Required.
	Registry datapoint.Registry

	// Clock stamps modification times and drives autosave. Nil means
	// the system clock.
	Clock clock.Clock

	// Logger receives operational logging. Nil discards it.
	Logger *slog.Logger
}

// Site is one engine instance serving one site's resources. A single
// mutex totally orders its public operations.
type Site struct {
	mu       sync.Mutex
	store    *storage.Store
	perms    *permission.Index
	registry datapoint.Registry
	clock    clock.Clock
	logger   *slog.Logger
}

// New builds a site. The owner lands in the admin role; the site-admin
// role and default header fall back to their conventional values.
func New(cfg Config) (*Site, error) {
	if cfg.Owner.IsZero() {
		return nil, errors.New("site: an owner account is required")
	}
	if cfg.Registry == nil {
		return nil, errors.New("site: a datapoint registry is required")
	}
	siteAdmin := cfg.SiteAdminRole
	if siteAdmin == wttp.AdminRole {
		siteAdmin = wttp.RoleFromName("site-admin")
	}
	header := cfg.DefaultHeader
	if len(header.CORS.Origins) == 0 {
		header = wttp.DefaultHeader(siteAdmin)
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	store, err := storage.New(storage.Config{
		Registry:      cfg.Registry,
		DefaultHeader: header,
		Clock:         clk,
	})
	if err != nil {
		return nil, fmt.Errorf("site: %w", err)
	}
	site := &Site{
		store:    store,
		perms:    permission.NewIndex(cfg.Owner, siteAdmin),
		registry: cfg.Registry,
		clock:    clk,
		logger:   logger,
	}
	site.logger.Info("site initialized",
		"owner", cfg.Owner,
		"site_admin_role", siteAdmin)
	return site, nil
}

// HasRole reports whether the account currently passes the role. Thin
// passthrough for callers that need the check outside a request.
func (s *Site) HasRole(role wttp.Role, account wttp.Account) bool {
	return s.perms.HasRole(role, account)
}

// authorize gates one method slot of a header: the bit in the method
// mask first, unconditionally, then the slot's origin role through the
// permission index. A cleared bit refuses everyone including admin
// role holders; the role check is the half admin membership overrides.
func (s *Site) authorize(method wttp.Method, path string, header wttp.Header, actor wttp.Account) error {
	if !header.CORS.Methods.Has(method) {
		return &wttp.Error{
			Kind:   wttp.KindMethodDisabled,
			Method: method.String(),
			Path:   path,
		}
	}
	if origin := header.CORS.Origins[method]; !s.perms.HasRole(origin, actor) {
		return &wttp.Error{
			Kind:   wttp.KindAuthorization,
			Method: method.String(),
			Path:   path,
			Detail: fmt.Sprintf("account %q does not hold role %s", actor, origin),
		}
	}
	return nil
}
