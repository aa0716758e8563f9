// Copyright 2026 The WTTP Authors
// SPDX-License-Identifier: Apache-2.0

package site

import (
	"context"

	"github.com/wttp-foundation/wttp/lib/storage"
	"github.com/wttp-foundation/wttp/lib/wttp"
)

// Put replaces the entire resource: existing content is dropped, the
// request's chunk list and properties land in its place, and the
// version advances exactly once. The path's header reference is kept.
func (s *Site) Put(ctx context.Context, actor wttp.Account, req PutRequest) (WriteResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	tx := s.store.Begin()
	defer tx.End(&err)

	header := tx.ReadHeader(req.Path)
	if err = s.authorize(wttp.MethodPut, req.Path, header, actor); err != nil {
		s.logger.Warn("put refused", "path", req.Path, "actor", actor, "error", err)
		return WriteResponse{}, err
	}

	payload := storage.ResourceMetadata{Properties: req.Properties}
	if current, merr := tx.ReadMetadata(req.Path); merr == nil {
		payload.Header = current.Header
		if tx.ChunkCount(req.Path) > 0 {
			if _, err = tx.DeleteResource(req.Path); err != nil {
				return WriteResponse{}, err
			}
		}
	}
	if _, err = tx.UpdateMetadata(req.Path, payload); err != nil {
		return WriteResponse{}, err
	}
	meta, uerr := tx.UploadResource(ctx, req.Path, req.Chunks, actor, req.Payment)
	if uerr != nil {
		err = uerr
		return WriteResponse{}, err
	}
	etag, _ := tx.Fingerprint(req.Path)
	s.logger.Info("put",
		"path", req.Path,
		"actor", actor,
		"chunks", len(req.Chunks),
		"size", meta.Size,
		"version", meta.Version)
	return WriteResponse{Status: wttp.StatusOK, Metadata: meta, ETag: etag}, nil
}

// Patch applies the request's write list in order: replacements and
// appends by chunk index, registered as one batch against the single
// payment, landing atomically or not at all.
func (s *Site) Patch(ctx context.Context, actor wttp.Account, req PatchRequest) (WriteResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	tx := s.store.Begin()
	defer tx.End(&err)

	header := tx.ReadHeader(req.Path)
	if err = s.authorize(wttp.MethodPatch, req.Path, header, actor); err != nil {
		s.logger.Warn("patch refused", "path", req.Path, "actor", actor, "error", err)
		return WriteResponse{}, err
	}
	meta, perr := tx.PatchResource(ctx, req.Path, req.Writes, actor, req.Payment)
	if perr != nil {
		err = perr
		return WriteResponse{}, err
	}
	etag, _ := tx.Fingerprint(req.Path)
	s.logger.Info("patch",
		"path", req.Path,
		"actor", actor,
		"writes", len(req.Writes),
		"size", meta.Size,
		"version", meta.Version)
	return WriteResponse{Status: wttp.StatusOK, Metadata: meta, ETag: etag}, nil
}

// Delete removes the resource and its metadata together; the path
// reads as not-found afterwards. The response carries the record as it
// stood.
func (s *Site) Delete(ctx context.Context, actor wttp.Account, path string) (WriteResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	tx := s.store.Begin()
	defer tx.End(&err)

	header := tx.ReadHeader(path)
	if err = s.authorize(wttp.MethodDelete, path, header, actor); err != nil {
		s.logger.Warn("delete refused", "path", path, "actor", actor, "error", err)
		return WriteResponse{}, err
	}
	before, derr := tx.DeleteMetadata(path)
	if derr != nil {
		err = derr
		return WriteResponse{}, err
	}
	s.logger.Info("delete", "path", path, "actor", actor, "version", before.Version)
	return WriteResponse{Status: wttp.StatusOK, Metadata: before}, nil
}

// Define stores the header (deduplicated against the arena) and
// repoints the path's metadata at it. Authorization runs against the
// header in force before the new one applies.
func (s *Site) Define(ctx context.Context, actor wttp.Account, path string, header wttp.Header) (DefineResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	tx := s.store.Begin()
	defer tx.End(&err)

	current := tx.ReadHeader(path)
	if err = s.authorize(wttp.MethodDefine, path, current, actor); err != nil {
		s.logger.Warn("define refused", "path", path, "actor", actor, "error", err)
		return DefineResponse{}, err
	}
	address, aerr := tx.CreateOrGetHeader(header)
	if aerr != nil {
		err = aerr
		return DefineResponse{}, err
	}
	payload := storage.ResourceMetadata{Header: address}
	if meta, merr := tx.ReadMetadata(path); merr == nil {
		payload.Properties = meta.Properties
	}
	meta, uerr := tx.UpdateMetadata(path, payload)
	if uerr != nil {
		err = uerr
		return DefineResponse{}, err
	}
	if !header.CORS.Methods.Has(wttp.MethodDefine) {
		s.logger.Warn("new header clears its own define bit", "path", path)
	}
	s.logger.Info("define",
		"path", path,
		"actor", actor,
		"header", address,
		"version", meta.Version)
	return DefineResponse{Status: wttp.StatusOK, Address: address, Metadata: meta}, nil
}
