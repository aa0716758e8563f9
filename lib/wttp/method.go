// Copyright 2026 The WTTP Authors
// SPDX-License-Identifier: Apache-2.0

package wttp

import (
	"fmt"
	"strings"
)

// Method identifies one of the nine fixed protocol method slots. The
// numeric value is a protocol constant: it is the bit position in a
// [MethodMask] and the index into a header's origin list. Changing
// these values breaks every stored header.
type Method uint8

const (
	// MethodHead returns resource metadata without content.
	MethodHead Method = 0

	// MethodGet returns resource metadata and content.
	MethodGet Method = 1

	// MethodPost is reserved. The slot exists in masks and origin
	// lists, but the dispatcher implements no POST operation.
	MethodPost Method = 2

	// MethodPut replaces an entire resource.
	MethodPut Method = 3

	// MethodPatch writes individual chunks of a resource.
	MethodPatch Method = 4

	// MethodDelete removes a resource and its metadata.
	MethodDelete Method = 5

	// MethodOptions probes which methods a path allows.
	MethodOptions Method = 6

	// MethodLocate resolves a resource to data point references
	// without transferring content.
	MethodLocate Method = 7

	// MethodDefine attaches a header to a path.
	MethodDefine Method = 8
)

// MethodCount is the number of protocol method slots.
const MethodCount = 9

var methodNames = [MethodCount]string{
	"HEAD", "GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "LOCATE", "DEFINE",
}

// Valid reports whether m is one of the nine protocol slots.
func (m Method) Valid() bool { return m < MethodCount }

// Bit returns the mask with only m's bit set. Panics if m is not a
// valid method — a mask for an out-of-range slot is never meaningful.
func (m Method) Bit() MethodMask {
	if !m.Valid() {
		panic(fmt.Sprintf("wttp: method slot %d out of range", m))
	}
	return 1 << m
}

// String returns the protocol name of the method ("HEAD", "GET", ...).
func (m Method) String() string {
	if !m.Valid() {
		return fmt.Sprintf("method(%d)", uint8(m))
	}
	return methodNames[m]
}

// ParseMethod parses a protocol method name. Matching is
// case-insensitive.
func ParseMethod(name string) (Method, error) {
	upper := strings.ToUpper(name)
	for i, candidate := range methodNames {
		if candidate == upper {
			return Method(i), nil
		}
	}
	return 0, fmt.Errorf("unknown method %q", name)
}

// MethodMask is a 9-bit set of enabled method slots. Bit i corresponds
// to Method(i).
type MethodMask uint16

// AllMethods has every method slot set, POST included.
const AllMethods MethodMask = (1 << MethodCount) - 1

// Has reports whether the mask enables m.
func (mask MethodMask) Has(m Method) bool {
	return m.Valid() && mask&m.Bit() != 0
}

// With returns the mask with the given methods added.
func (mask MethodMask) With(methods ...Method) MethodMask {
	for _, m := range methods {
		mask |= m.Bit()
	}
	return mask
}

// Without returns the mask with the given methods removed.
func (mask MethodMask) Without(methods ...Method) MethodMask {
	for _, m := range methods {
		mask &^= m.Bit()
	}
	return mask
}

// Valid reports whether the mask uses only the nine protocol bits.
func (mask MethodMask) Valid() bool { return mask&^AllMethods == 0 }

// Methods returns the enabled methods in slot order.
func (mask MethodMask) Methods() []Method {
	var methods []Method
	for m := Method(0); m < MethodCount; m++ {
		if mask.Has(m) {
			methods = append(methods, m)
		}
	}
	return methods
}

// String returns the enabled method names joined by ", ", the
// conventional Allow-list form. An empty mask renders as "(none)".
func (mask MethodMask) String() string {
	methods := mask.Methods()
	if len(methods) == 0 {
		return "(none)"
	}
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = m.String()
	}
	return strings.Join(names, ", ")
}

// MaskOf builds a mask from the given methods.
func MaskOf(methods ...Method) MethodMask {
	var mask MethodMask
	return mask.With(methods...)
}
