// Copyright 2026 The WTTP Authors
// SPDX-License-Identifier: Apache-2.0

package wttp

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/wttp-foundation/wttp/lib/codec"
)

// headerDomainKey separates header addresses from every other BLAKE3
// domain in the engine. ASCII name, zero padded.
var headerDomainKey = [32]byte{
	'w', 't', 't', 'p', '.', 'h', 'e', 'a', 'd', 'e', 'r', '.', 'v', '1',
}

// HeaderAddress is the content address of a stored header: the
// domain-keyed BLAKE3 hash of its canonical encoding. Two headers with
// the same semantics always carry the same address.
type HeaderAddress [32]byte

// IsZero reports whether the address is unset. The zero address is
// reserved to mean "use the site default header".
func (a HeaderAddress) IsZero() bool { return a == HeaderAddress{} }

func (a HeaderAddress) String() string { return hex.EncodeToString(a[:]) }

// MarshalText encodes the address as lowercase hex.
func (a HeaderAddress) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText decodes a 64-character hex address.
func (a *HeaderAddress) UnmarshalText(text []byte) error {
	if hex.DecodedLen(len(text)) != len(a) {
		return fmt.Errorf("header address must be %d hex characters: got %d", hex.EncodedLen(len(a)), len(text))
	}
	_, err := hex.Decode(a[:], text)
	return err
}

// Address computes the header's content address. The header must be
// valid; addressing an invalid header returns its validation error.
func (h *Header) Address() (HeaderAddress, error) {
	if err := h.Validate(); err != nil {
		return HeaderAddress{}, err
	}
	encoded, err := codec.Marshal(h)
	if err != nil {
		return HeaderAddress{}, fmt.Errorf("encoding header: %w", err)
	}
	hasher, err := blake3.NewKeyed(headerDomainKey[:])
	if err != nil {
		return HeaderAddress{}, fmt.Errorf("initializing header hasher: %w", err)
	}
	hasher.Write(encoded)
	var address HeaderAddress
	hasher.Digest().Read(address[:])
	return address, nil
}

// ETag is the fingerprint of a resource's observable state, used to
// answer conditional requests. It changes whenever the resource's
// metadata or content changes.
type ETag [32]byte

// IsZero reports whether the fingerprint is unset.
func (e ETag) IsZero() bool { return e == ETag{} }

func (e ETag) String() string { return hex.EncodeToString(e[:]) }
