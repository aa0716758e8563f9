// Copyright 2026 The WTTP Authors
// SPDX-License-Identifier: Apache-2.0

package site

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/wttp-foundation/wttp/lib/config"
	"github.com/wttp-foundation/wttp/lib/datapoint"
)

// FromConfig builds a running site from a loaded configuration: the
// registry backend, the default header, and — when an image path is
// configured and the file exists — the engine's persisted state. The
// returned cleanup closes the registry backend; call it when the site
// is done with.
//
// Autosave is not started here because it needs the caller's context:
// when cfg.AutosaveInterval() is non-zero, run
//
//	go s.Autosave(ctx, cfg.Image.Path, cfg.AutosaveInterval())
func FromConfig(cfg *config.Config, logger *slog.Logger) (*Site, func() error, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	header, err := cfg.DefaultHeader.Header(cfg.SiteAdmin())
	if err != nil {
		return nil, nil, err
	}

	var registry datapoint.Registry
	cleanup := func() error { return nil }
	switch cfg.Registry.Backend {
	case "sqlite":
		backend, err := datapoint.OpenSQLite(datapoint.SQLiteConfig{
			Path:          cfg.Registry.SQLite.Path,
			PoolSize:      cfg.Registry.SQLite.PoolSize,
			RoyaltyRate:   datapoint.Amount(cfg.Registry.RoyaltyRate),
			EncryptionKey: cfg.EncryptionKey(),
			Logger:        logger,
		})
		if err != nil {
			return nil, nil, err
		}
		registry = backend
		cleanup = backend.Close
	default:
		registry = datapoint.NewMemory(datapoint.Amount(cfg.Registry.RoyaltyRate))
	}

	s, err := New(Config{
		Owner:         cfg.OwnerAccount(),
		SiteAdminRole: cfg.SiteAdmin(),
		DefaultHeader: header,
		Registry:      registry,
		Logger:        logger,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	if path := cfg.Image.Path; path != "" {
		if err := s.LoadFile(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			cleanup()
			return nil, nil, fmt.Errorf("loading site image: %w", err)
		}
	}

	return s, cleanup, nil
}
