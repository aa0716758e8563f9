// Copyright 2026 The WTTP Authors
// SPDX-License-Identifier: Apache-2.0

package wttp

import (
	"errors"
	"strings"
)

// ErrorKind classifies an engine failure. Every kind except
// KindValidation maps to a protocol status; validation failures are
// caller mistakes that never reach the wire.
type ErrorKind uint8

const (
	// KindAuthorization is a role check failure on an enabled method
	// slot. Admin membership overrides it.
	KindAuthorization ErrorKind = iota + 1

	// KindMethodDisabled is a cleared bit in the header's method mask.
	// Nothing overrides it, including admin membership.
	KindMethodDisabled

	// KindNotFound is a request against a path with no metadata.
	KindNotFound

	// KindRange is a chunk range that falls outside the resource after
	// negative offsets are resolved.
	KindRange

	// KindValidation is a structurally invalid argument: a malformed
	// header, a reserved role, an out-of-bounds update index.
	KindValidation

	// KindPayment is an insufficient balance or payment for a
	// registration that requires a royalty.
	KindPayment
)

var kindNames = [...]string{
	KindAuthorization:  "forbidden",
	KindMethodDisabled: "method disabled",
	KindNotFound:       "not found",
	KindRange:          "range not satisfiable",
	KindValidation:     "invalid",
	KindPayment:        "payment required",
}

func (k ErrorKind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}

// Status returns the protocol status the kind maps to, or zero for
// kinds that have none.
func (k ErrorKind) Status() Status {
	switch k {
	case KindAuthorization:
		return StatusForbidden
	case KindMethodDisabled:
		return StatusMethodNotAllowed
	case KindNotFound:
		return StatusNotFound
	case KindRange:
		return StatusRangeNotSatisfiable
	case KindPayment:
		return StatusPaymentRequired
	}
	return 0
}

// Error is the engine's failure type. Method and Path are filled when
// the failure occurred while dispatching a request; Err carries an
// underlying cause when one exists.
type Error struct {
	Kind   ErrorKind
	Method string
	Path   string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("wttp: ")
	b.WriteString(e.Kind.String())
	if e.Method != "" {
		b.WriteString(": ")
		b.WriteString(e.Method)
	}
	if e.Path != "" {
		if e.Method == "" {
			b.WriteString(":")
		}
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Status returns the protocol status for the failure, or zero when the
// kind carries none.
func (e *Error) Status() Status { return e.Kind.Status() }

func kindIs(err error, kind ErrorKind) bool {
	var werr *Error
	return errors.As(err, &werr) && werr.Kind == kind
}

// IsAuthorization reports whether err is a role check failure.
func IsAuthorization(err error) bool { return kindIs(err, KindAuthorization) }

// IsMethodDisabled reports whether err is a cleared method bit.
func IsMethodDisabled(err error) bool { return kindIs(err, KindMethodDisabled) }

// IsNotFound reports whether err is a missing resource.
func IsNotFound(err error) bool { return kindIs(err, KindNotFound) }

// IsRange reports whether err is an unsatisfiable chunk range.
func IsRange(err error) bool { return kindIs(err, KindRange) }

// IsValidation reports whether err is a malformed argument.
func IsValidation(err error) bool { return kindIs(err, KindValidation) }

// IsPayment reports whether err is an insufficient royalty payment.
func IsPayment(err error) bool { return kindIs(err, KindPayment) }
