// Copyright 2026 The WTTP Authors
// SPDX-License-Identifier: Apache-2.0

package site

import (
	"fmt"
	"time"

	"github.com/wttp-foundation/wttp/lib/datapoint"
	"github.com/wttp-foundation/wttp/lib/storage"
	"github.com/wttp-foundation/wttp/lib/wttp"
)

// Range selects a window of a resource's chunks. Start is the first
// chunk index and End is exclusive; negative values count back from
// the chunk count, and an End of zero means "through the last chunk",
// so the zero Range selects everything.
type Range struct {
	Start int64
	End   int64
}

// resolve normalizes the range against a chunk count. Anything outside
// [0, count] after negative offsets are applied is a range error.
func (r Range) resolve(path string, count int) (start, end int, err error) {
	start64, end64 := r.Start, r.End
	if start64 < 0 {
		start64 += int64(count)
	}
	if end64 <= 0 {
		end64 += int64(count)
	}
	if start64 < 0 || end64 < start64 || end64 > int64(count) {
		return 0, 0, &wttp.Error{
			Kind:   wttp.KindRange,
			Path:   path,
			Detail: fmt.Sprintf("chunk range [%d, %d) outside %d chunks", r.Start, r.End, count),
		}
	}
	return int(start64), int(end64), nil
}

// HeadRequest carries a read's path and conditional fields. A zero
// IfNoneMatch or IfModifiedSince means the condition is absent.
type HeadRequest struct {
	Path            string
	IfModifiedSince time.Time
	IfNoneMatch     wttp.ETag
}

// GetRequest is a HEAD plus a chunk range.
type GetRequest struct {
	Head  HeadRequest
	Range Range
}

// PutRequest replaces a resource: content properties plus the full
// chunk list, with one payment covering every registration.
type PutRequest struct {
	Path       string
	Properties storage.Properties
	Chunks     [][]byte
	Payment    datapoint.Amount
}

// PatchRequest writes specific chunk indices. The write list applies
// in order and registers as one batch against the single payment.
type PatchRequest struct {
	Path    string
	Writes  []storage.ChunkWrite
	Payment datapoint.Amount
}

// OptionsResponse reports which method slots the effective header
// enables.
type OptionsResponse struct {
	Status wttp.Status
	Allow  wttp.MethodMask
}

// HeadResponse carries everything a read returns short of content.
// Location is set when Status is a redirect.
type HeadResponse struct {
	Status   wttp.Status
	Metadata storage.ResourceMetadata
	Header   wttp.Header
	ETag     wttp.ETag
	Location string
}

// GetResponse is a HEAD plus the resolved chunk window and its bytes.
// Body is nil when the status carries no content.
type GetResponse struct {
	Head   HeadResponse
	Chunks []datapoint.Address
	Body   []byte
}

// LocateResponse is a resolved reference to a resource: its metadata
// and ordered chunk addresses, without the content itself.
type LocateResponse struct {
	Status   wttp.Status
	Metadata storage.ResourceMetadata
	Chunks   []datapoint.Address
	Location string
}

// WriteResponse reports a successful mutation. For DELETE the metadata
// is the record as it stood before removal and the fingerprint is
// zero.
type WriteResponse struct {
	Status   wttp.Status
	Metadata storage.ResourceMetadata
	ETag     wttp.ETag
}

// DefineResponse reports a stored header and the repointed metadata.
type DefineResponse struct {
	Status   wttp.Status
	Address  wttp.HeaderAddress
	Metadata storage.ResourceMetadata
}
