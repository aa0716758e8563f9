// Copyright 2026 The WTTP Authors
// SPDX-License-Identifier: Apache-2.0

package wttp

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Role is an opaque 256-bit access-control identifier. Two values are
// reserved: [AdminRole] (numeric zero) and [PublicRole] (numeric max).
// Everything else is an ordinary role, typically derived from a
// human-readable name via [RoleFromName].
type Role [32]byte

// AdminRole is the universally privileged role: an account holding it
// passes every role check, including checks against roles that were
// never created. It is always its own admin.
var AdminRole = Role{}

// PublicRole is the default-allow pseudo-role. Accounts are public by
// default; explicit PublicRole membership acts as a blacklist flag and
// removes public access instead of granting it.
var PublicRole = Role{
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
}

// roleDomainKey is the BLAKE3 key for deriving role identifiers from
// names. Domain separation keeps name-derived roles from ever
// colliding with header addresses or data point addresses built from
// the same bytes. The key bytes are the ASCII domain name, zero-padded
// to 32 bytes; changing them changes every derived role identifier.
var roleDomainKey = [32]byte{
	'w', 't', 't', 'p', '.', 'r', 'o', 'l', 'e', '.', 'v', '1',
}

// RoleFromName derives a role identifier from a name by domain-keyed
// BLAKE3. The same name always produces the same role, and the hash
// cannot produce either reserved role value in practice.
func RoleFromName(name string) Role {
	hasher, err := blake3.NewKeyed(roleDomainKey[:])
	if err != nil {
		panic("wttp: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write([]byte(name))
	var role Role
	copy(role[:], hasher.Sum(nil))
	return role
}

// String returns "admin" or "public" for the reserved roles and the
// hex encoding otherwise.
func (r Role) String() string {
	switch r {
	case AdminRole:
		return "admin"
	case PublicRole:
		return "public"
	}
	return hex.EncodeToString(r[:])
}

// MarshalText encodes the role as 64 hex characters. Reserved roles
// are not special-cased here: encodings must be unambiguous and
// stable, so pretty names are reserved for String.
func (r Role) MarshalText() ([]byte, error) {
	encoded := make([]byte, hex.EncodedLen(len(r)))
	hex.Encode(encoded, r[:])
	return encoded, nil
}

// UnmarshalText parses a role from hex, or from the reserved names
// "admin" and "public". Role names from configuration files go through
// [RoleFromName] instead — this only decodes identifiers.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseRole parses "admin", "public", or a 64-character hex role
// identifier.
func ParseRole(s string) (Role, error) {
	switch s {
	case "admin":
		return AdminRole, nil
	case "public":
		return PublicRole, nil
	}
	var role Role
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return role, fmt.Errorf("parsing role identifier: %w", err)
	}
	if len(decoded) != 32 {
		return role, fmt.Errorf("role identifier is %d bytes, want 32", len(decoded))
	}
	copy(role[:], decoded)
	return role, nil
}

// Account is an opaque caller identity. The zero value means "no
// account": it never holds a role and never passes an access check.
type Account string

// IsZero reports whether the account is the empty identity.
func (a Account) IsZero() bool { return a == "" }
