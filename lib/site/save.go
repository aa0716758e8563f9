// Copyright 2026 The WTTP Authors
// SPDX-License-Identifier: Apache-2.0

package site

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/wttp-foundation/wttp/lib/codec"
	"github.com/wttp-foundation/wttp/lib/permission"
	"github.com/wttp-foundation/wttp/lib/storage"
)

// imageVersion identifies the persisted envelope layout.
const imageVersion = 1

// Image is the engine's full persisted state: the resource store and
// the role tables, under a versioned envelope.
type Image struct {
	Version    int                 `cbor:"version"`
	SavedAt    time.Time           `cbor:"saved_at"`
	Storage    storage.Snapshot    `cbor:"storage"`
	Permission permission.Snapshot `cbor:"permission"`
}

// Save writes the engine's state to w as canonical CBOR. Saving is a
// serialized operation like any other, so the image is a consistent
// cut.
func (s *Site) Save(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	image := Image{
		Version:    imageVersion,
		SavedAt:    s.clock.Now(),
		Storage:    s.store.Snapshot(),
		Permission: s.perms.Snapshot(),
	}
	if err := codec.NewEncoder(w).Encode(image); err != nil {
		return fmt.Errorf("encoding site image: %w", err)
	}
	return nil
}

// Load replaces the engine's state with a previously saved image. The
// storage snapshot is verified (recomputed header addresses, resolved
// references) before anything is replaced.
func (s *Site) Load(r io.Reader) error {
	var image Image
	if err := codec.NewDecoder(r).Decode(&image); err != nil {
		return fmt.Errorf("decoding site image: %w", err)
	}
	if image.Version != imageVersion {
		return fmt.Errorf("unsupported site image version %d", image.Version)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Restore(image.Storage); err != nil {
		return fmt.Errorf("restoring storage: %w", err)
	}
	s.perms.Restore(image.Permission)
	s.logger.Info("site image loaded", "saved_at", image.SavedAt)
	return nil
}

// SaveFile writes the engine's state to path atomically: a temporary
// file in the same directory, synced, then renamed over the target.
func (s *Site) SaveFile(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temporary image: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := s.Save(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing site image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing site image: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing site image: %w", err)
	}
	return nil
}

// LoadFile restores the engine's state from a file written by
// SaveFile.
func (s *Site) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening site image: %w", err)
	}
	defer f.Close()
	return s.Load(f)
}

// Autosave rewrites the image at path on every tick until ctx ends.
// A failed save logs and leaves the previous image in place; the loop
// keeps running.
func (s *Site) Autosave(ctx context.Context, path string, interval time.Duration) error {
	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.SaveFile(path); err != nil {
				s.logger.Error("autosave failed", "path", path, "error", err)
				continue
			}
			s.logger.Debug("autosave written", "path", path)
		}
	}
}
