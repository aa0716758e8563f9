// Copyright 2026 The WTTP Authors
// SPDX-License-Identifier: Apache-2.0

package wttp

import "fmt"

// CachePreset selects a canned cache-control policy for responses
// serving a resource. Presets are protocol constants stored inside
// content-addressed headers — changing a value changes every header
// address that uses it.
type CachePreset uint8

const (
	// CachePresetNone leaves caching entirely to Custom directives.
	CachePresetNone CachePreset = 0

	// CachePresetNoCache forces revalidation on every request.
	CachePresetNoCache CachePreset = 1

	// CachePresetDefault allows public caching for one hour.
	CachePresetDefault CachePreset = 2

	// CachePresetShort allows public caching for five minutes.
	CachePresetShort CachePreset = 3

	// CachePresetMedium allows public caching for one day.
	CachePresetMedium CachePreset = 4

	// CachePresetLong allows public caching for one week.
	CachePresetLong CachePreset = 5

	// CachePresetPermanent allows public caching for one year.
	CachePresetPermanent CachePreset = 6
)

// presetDirectives maps each preset to its cache-control value.
var presetDirectives = [...]string{
	CachePresetNone:      "",
	CachePresetNoCache:   "no-cache",
	CachePresetDefault:   "public, max-age=3600",
	CachePresetShort:     "public, max-age=300",
	CachePresetMedium:    "public, max-age=86400",
	CachePresetLong:      "public, max-age=604800",
	CachePresetPermanent: "public, max-age=31536000",
}

// Valid reports whether the preset is a known value.
func (p CachePreset) Valid() bool { return int(p) < len(presetDirectives) }

// CacheControl is the caching slice of a header. Custom, when set,
// overrides the preset's directives; Immutable appends the immutable
// directive either way.
type CacheControl struct {
	Immutable bool        `cbor:"immutable"`
	Preset    CachePreset `cbor:"preset"`
	Custom    string      `cbor:"custom"`
}

// Directives renders the cache-control value clients should apply.
func (c CacheControl) Directives() string {
	directives := c.Custom
	if directives == "" && c.Preset.Valid() {
		directives = presetDirectives[c.Preset]
	}
	if c.Immutable {
		if directives == "" {
			return "immutable"
		}
		return directives + ", immutable"
	}
	return directives
}

// CORSPreset annotates which canned origin layout a header was built
// from. The preset is descriptive; the Origins list is authoritative.
type CORSPreset uint8

const (
	// CORSPresetNone marks a hand-built origin list.
	CORSPresetNone CORSPreset = 0

	// CORSPresetPublic marks every slot open to the public role.
	CORSPresetPublic CORSPreset = 1

	// CORSPresetRestricted marks read slots public, write slots held
	// by a single administrative role.
	CORSPresetRestricted CORSPreset = 2

	// CORSPresetPrivate marks every slot held by a single
	// administrative role.
	CORSPresetPrivate CORSPreset = 3
)

// Valid reports whether the preset is a known value.
func (p CORSPreset) Valid() bool { return p <= CORSPresetPrivate }

// Origins returns the canned origin list for the preset, with admin
// filling the administrative slots. Returns false for CORSPresetNone,
// which carries no layout of its own.
func (p CORSPreset) Origins(admin Role) ([]Role, bool) {
	switch p {
	case CORSPresetPublic:
		return OriginsPublic(), true
	case CORSPresetRestricted:
		return OriginsReadPublic(admin), true
	case CORSPresetPrivate:
		return OriginsRestricted(admin), true
	}
	return nil, false
}

// CORSPolicy is the access-control slice of a header: which method
// slots are enabled at all, and which role each slot requires.
type CORSPolicy struct {
	// Methods enables method slots. A cleared bit is 405 for every
	// actor; the origin role is not consulted.
	Methods MethodMask `cbor:"methods"`

	// Origins holds one role per method slot, indexed by Method. The
	// list must have exactly MethodCount entries to be valid.
	Origins []Role `cbor:"origins"`

	// Preset records which canned layout produced Origins, if any.
	Preset CORSPreset `cbor:"preset"`

	// Custom carries a free-form CORS value for client tooling.
	Custom string `cbor:"custom"`
}

// Redirect short-circuits content resolution when Code is non-zero.
type Redirect struct {
	Code     Status `cbor:"code"`
	Location string `cbor:"location"`
}

// Header is the content-addressed response policy for a path: caching,
// per-method access control, and an optional redirect. Headers are
// immutable once stored — an update creates a new header and repoints
// the path's metadata.
type Header struct {
	Cache    CacheControl `cbor:"cache"`
	CORS     CORSPolicy   `cbor:"cors"`
	Redirect Redirect     `cbor:"redirect"`
}

// Validate checks the header's shape. A header is valid only if its
// origin list has exactly one role per method slot, its mask uses only
// protocol bits, its presets are known values, and its redirect — when
// present — carries a 3xx code and a location.
func (h *Header) Validate() error {
	if len(h.CORS.Origins) != MethodCount {
		return &Error{
			Kind:   KindValidation,
			Detail: fmt.Sprintf("cors origins must hold one role per method slot: got %d, want %d", len(h.CORS.Origins), MethodCount),
		}
	}
	if !h.CORS.Methods.Valid() {
		return &Error{
			Kind:   KindValidation,
			Detail: fmt.Sprintf("method mask %#x uses bits outside the %d protocol slots", uint16(h.CORS.Methods), MethodCount),
		}
	}
	if !h.CORS.Preset.Valid() {
		return &Error{
			Kind:   KindValidation,
			Detail: fmt.Sprintf("unknown cors preset %d", h.CORS.Preset),
		}
	}
	if !h.Cache.Preset.Valid() {
		return &Error{
			Kind:   KindValidation,
			Detail: fmt.Sprintf("unknown cache preset %d", h.Cache.Preset),
		}
	}
	if h.Redirect.Code != 0 {
		if !h.Redirect.Code.IsRedirect() {
			return &Error{
				Kind:   KindValidation,
				Detail: fmt.Sprintf("redirect code %d is not a 3xx status", h.Redirect.Code),
			}
		}
		if h.Redirect.Location == "" {
			return &Error{
				Kind:   KindValidation,
				Detail: "redirect code set without a location",
			}
		}
	}
	return nil
}

// OriginsPublic returns an origin list opening every slot to the
// public role.
func OriginsPublic() []Role {
	origins := make([]Role, MethodCount)
	for i := range origins {
		origins[i] = PublicRole
	}
	return origins
}

// OriginsRestricted returns an origin list requiring role on every
// slot.
func OriginsRestricted(role Role) []Role {
	origins := make([]Role, MethodCount)
	for i := range origins {
		origins[i] = role
	}
	return origins
}

// OriginsReadPublic returns an origin list with the read slots (HEAD,
// GET, OPTIONS, LOCATE) open to the public role and every writing slot
// requiring writer.
func OriginsReadPublic(writer Role) []Role {
	origins := OriginsRestricted(writer)
	origins[MethodHead] = PublicRole
	origins[MethodGet] = PublicRole
	origins[MethodOptions] = PublicRole
	origins[MethodLocate] = PublicRole
	return origins
}

// DefaultHeader builds the conventional fallback header for a site:
// reads public, writes restricted to admin, every slot enabled except
// the reserved POST, no redirect, no caching directives.
func DefaultHeader(admin Role) Header {
	return Header{
		CORS: CORSPolicy{
			Methods: AllMethods.Without(MethodPost),
			Origins: OriginsReadPublic(admin),
			Preset:  CORSPresetRestricted,
		},
	}
}
