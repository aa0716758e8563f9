// Copyright 2026 The WTTP Authors
// SPDX-License-Identifier: Apache-2.0

package wttp

import "fmt"

// Status is a protocol response status. The values mirror their HTTP
// namesakes; the engine uses only the subset below plus whatever 3xx
// code a header's redirect carries.
type Status uint16

const (
	// StatusOK signals a response carrying a body or metadata.
	StatusOK Status = 200

	// StatusNoContent signals success with an empty body: a zero-size
	// resource, or a successful OPTIONS probe.
	StatusNoContent Status = 204

	// StatusMovedPermanently is the conventional permanent redirect.
	StatusMovedPermanently Status = 301

	// StatusFound is the conventional temporary redirect.
	StatusFound Status = 302

	// StatusNotModified signals that a conditional request matched the
	// resource's current fingerprint or modification time.
	StatusNotModified Status = 304

	// StatusTemporaryRedirect redirects without allowing a method change.
	StatusTemporaryRedirect Status = 307

	// StatusPermanentRedirect is the permanent variant of 307.
	StatusPermanentRedirect Status = 308

	// StatusPaymentRequired signals insufficient attached payment for
	// a chunk registration.
	StatusPaymentRequired Status = 402

	// StatusForbidden signals that the method bit is set but the
	// actor fails the origin role check.
	StatusForbidden Status = 403

	// StatusNotFound signals no metadata or resource at the path.
	StatusNotFound Status = 404

	// StatusMethodNotAllowed signals that the method bit is not set in
	// the effective header, independent of the actor's roles.
	StatusMethodNotAllowed Status = 405

	// StatusRangeNotSatisfiable signals a chunk index or range outside
	// the resource's bounds.
	StatusRangeNotSatisfiable Status = 416
)

// IsRedirect reports whether s is a 3xx status other than 304.
func (s Status) IsRedirect() bool {
	return s >= 300 && s < 400 && s != StatusNotModified
}

// String returns "<code> <reason>" for the statuses the engine emits,
// or just the numeric code otherwise.
func (s Status) String() string {
	reason := ""
	switch s {
	case StatusOK:
		reason = "OK"
	case StatusNoContent:
		reason = "No Content"
	case StatusMovedPermanently:
		reason = "Moved Permanently"
	case StatusFound:
		reason = "Found"
	case StatusNotModified:
		reason = "Not Modified"
	case StatusTemporaryRedirect:
		reason = "Temporary Redirect"
	case StatusPermanentRedirect:
		reason = "Permanent Redirect"
	case StatusPaymentRequired:
		reason = "Payment Required"
	case StatusForbidden:
		reason = "Forbidden"
	case StatusNotFound:
		reason = "Not Found"
	case StatusMethodNotAllowed:
		reason = "Method Not Allowed"
	case StatusRangeNotSatisfiable:
		reason = "Range Not Satisfiable"
	default:
		return fmt.Sprintf("%d", uint16(s))
	}
	return fmt.Sprintf("%d %s", uint16(s), reason)
}
