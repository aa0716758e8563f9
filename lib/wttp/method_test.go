// Copyright 2026 The WTTP Authors
// SPDX-License-Identifier: Apache-2.0

package wttp

import "testing"

func TestMethodString(t *testing.T) {
	cases := []struct {
		method Method
		want   string
	}{
		{MethodHead, "HEAD"},
		{MethodGet, "GET"},
		{MethodPost, "POST"},
		{MethodPut, "PUT"},
		{MethodPatch, "PATCH"},
		{MethodDelete, "DELETE"},
		{MethodOptions, "OPTIONS"},
		{MethodLocate, "LOCATE"},
		{MethodDefine, "DEFINE"},
		{Method(9), "INVALID(9)"},
	}
	for _, tc := range cases {
		if got := tc.method.String(); got != tc.want {
			t.Errorf("Method(%d).String() = %q, want %q", tc.method, got, tc.want)
		}
	}
}

func TestParseMethod(t *testing.T) {
	for m := MethodHead; m < MethodCount; m++ {
		got, err := ParseMethod(m.String())
		if err != nil {
			t.Fatalf("ParseMethod(%q): %v", m.String(), err)
		}
		if got != m {
			t.Errorf("ParseMethod(%q) = %v, want %v", m.String(), got, m)
		}
	}
	if got, err := ParseMethod("locate"); err != nil || got != MethodLocate {
		t.Errorf("ParseMethod(\"locate\") = %v, %v, want LOCATE, nil", got, err)
	}
	if _, err := ParseMethod("TRACE"); err == nil {
		t.Error("ParseMethod(\"TRACE\") succeeded, want error")
	}
	if _, err := ParseMethod(""); err == nil {
		t.Error("ParseMethod(\"\") succeeded, want error")
	}
}

func TestMethodValid(t *testing.T) {
	if !MethodDefine.Valid() {
		t.Error("DEFINE reported invalid")
	}
	if Method(MethodCount).Valid() {
		t.Errorf("Method(%d) reported valid", MethodCount)
	}
}

func TestMethodBitPanicsOutOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Bit() on an out-of-range method did not panic")
		}
	}()
	Method(42).Bit()
}

func TestMethodMask(t *testing.T) {
	mask := MaskOf(MethodGet, MethodHead)
	if !mask.Has(MethodGet) || !mask.Has(MethodHead) {
		t.Fatalf("mask %v missing methods it was built from", mask)
	}
	if mask.Has(MethodDelete) {
		t.Errorf("mask %v has DELETE", mask)
	}

	mask = mask.With(MethodDelete)
	if !mask.Has(MethodDelete) {
		t.Error("With(DELETE) did not set the bit")
	}
	mask = mask.Without(MethodDelete)
	if mask.Has(MethodDelete) {
		t.Error("Without(DELETE) did not clear the bit")
	}

	// Setting a bit twice is a no-op, not an error.
	if mask.With(MethodGet) != mask {
		t.Error("With on an already-set bit changed the mask")
	}
}

func TestMethodMaskValid(t *testing.T) {
	if !AllMethods.Valid() {
		t.Error("AllMethods reported invalid")
	}
	if bad := MethodMask(1 << MethodCount); bad.Valid() {
		t.Errorf("mask %#x with a bit beyond the protocol slots reported valid", uint16(bad))
	}
}

func TestMethodMaskMethods(t *testing.T) {
	mask := MaskOf(MethodDefine, MethodHead, MethodPut)
	got := mask.Methods()
	want := []Method{MethodHead, MethodPut, MethodDefine}
	if len(got) != len(want) {
		t.Fatalf("Methods() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Methods() = %v, want %v (slot order)", got, want)
		}
	}
}

func TestMethodMaskString(t *testing.T) {
	if got := MaskOf(MethodGet, MethodHead).String(); got != "HEAD, GET" {
		t.Errorf("String() = %q, want %q", got, "HEAD, GET")
	}
	if got := MethodMask(0).String(); got != "(none)" {
		t.Errorf("empty mask String() = %q, want %q", got, "(none)")
	}
}
