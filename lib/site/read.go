// Copyright 2026 The WTTP Authors
// SPDX-License-Identifier: Apache-2.0

package site

import (
	"context"

	"github.com/wttp-foundation/wttp/lib/storage"
	"github.com/wttp-foundation/wttp/lib/wttp"
)

// Options reports the method mask of the path's effective header. It
// is gated on its own slot exactly like every other method, and it
// never answers not-found: a path without metadata reports the default
// header's mask.
func (s *Site) Options(ctx context.Context, actor wttp.Account, path string) (OptionsResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	tx := s.store.Begin()
	defer tx.End(&err)

	header := tx.ReadHeader(path)
	if err = s.authorize(wttp.MethodOptions, path, header, actor); err != nil {
		return OptionsResponse{}, err
	}
	return OptionsResponse{Status: wttp.StatusNoContent, Allow: header.CORS.Methods}, nil
}

// Head answers a read without content: metadata, effective header,
// fingerprint, and the status the matching GET would carry.
func (s *Site) Head(ctx context.Context, actor wttp.Account, req HeadRequest) (HeadResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	tx := s.store.Begin()
	defer tx.End(&err)

	resp, err := s.head(tx, wttp.MethodHead, actor, req)
	return resp, err
}

// head is the shared read evaluation: authorize the slot, then
// not-found, conditional match, redirect, content — in that order.
func (s *Site) head(tx *storage.Tx, method wttp.Method, actor wttp.Account, req HeadRequest) (HeadResponse, error) {
	header := tx.ReadHeader(req.Path)
	if err := s.authorize(method, req.Path, header, actor); err != nil {
		return HeadResponse{}, err
	}
	meta, err := tx.ReadMetadata(req.Path)
	if err != nil {
		return HeadResponse{}, err
	}
	etag, _ := tx.Fingerprint(req.Path)
	resp := HeadResponse{Metadata: meta, Header: header, ETag: etag}
	switch {
	case conditionalMatch(req, meta, etag):
		resp.Status = wttp.StatusNotModified
	case header.Redirect.Code != 0:
		resp.Status = header.Redirect.Code
		resp.Location = header.Redirect.Location
	case meta.Size == 0:
		resp.Status = wttp.StatusNoContent
	default:
		resp.Status = wttp.StatusOK
	}
	return resp, nil
}

// conditionalMatch reports a 304: the supplied fingerprint equals the
// current one, or the resource has not been modified since the
// supplied instant.
func conditionalMatch(req HeadRequest, meta storage.ResourceMetadata, etag wttp.ETag) bool {
	if !req.IfNoneMatch.IsZero() && req.IfNoneMatch == etag {
		return true
	}
	if !req.IfModifiedSince.IsZero() && !meta.LastModified.After(req.IfModifiedSince) {
		return true
	}
	return false
}

// Get answers a read with content: the HEAD evaluation, then the chunk
// window the range resolves to, read back from the registry. A window
// with no bytes answers 204.
func (s *Site) Get(ctx context.Context, actor wttp.Account, req GetRequest) (GetResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	tx := s.store.Begin()
	defer tx.End(&err)

	head, err := s.head(tx, wttp.MethodGet, actor, req.Head)
	if err != nil {
		return GetResponse{}, err
	}
	resp := GetResponse{Head: head}
	if head.Status != wttp.StatusOK && head.Status != wttp.StatusNoContent {
		// 304 and redirects carry no body and skip range resolution.
		return resp, nil
	}

	chunks := tx.Chunks(req.Head.Path)
	start, end, rerr := req.Range.resolve(req.Head.Path, len(chunks))
	if rerr != nil {
		err = rerr
		return GetResponse{}, err
	}
	resp.Chunks = chunks[start:end]

	var body []byte
	for _, address := range resp.Chunks {
		data, derr := s.registry.Read(ctx, address)
		if derr != nil {
			err = derr
			return GetResponse{}, err
		}
		body = append(body, data...)
	}
	if len(body) == 0 {
		resp.Head.Status = wttp.StatusNoContent
		return resp, nil
	}
	resp.Head.Status = wttp.StatusOK
	resp.Body = body
	return resp, nil
}

// Locate returns a resolved reference to the resource: metadata plus
// ordered chunk addresses, no content transfer. A redirect header
// resolves to the redirect instead.
func (s *Site) Locate(ctx context.Context, actor wttp.Account, path string) (LocateResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	tx := s.store.Begin()
	defer tx.End(&err)

	header := tx.ReadHeader(path)
	if err = s.authorize(wttp.MethodLocate, path, header, actor); err != nil {
		return LocateResponse{}, err
	}
	meta, merr := tx.ReadMetadata(path)
	if merr != nil {
		err = merr
		return LocateResponse{}, err
	}
	if header.Redirect.Code != 0 {
		return LocateResponse{
			Status:   header.Redirect.Code,
			Metadata: meta,
			Location: header.Redirect.Location,
		}, nil
	}
	return LocateResponse{
		Status:   wttp.StatusOK,
		Metadata: meta,
		Chunks:   tx.Chunks(path),
	}, nil
}
