// Copyright 2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"go/types"
)

// maxBoundLifetimes is the most bound lifetimes a function-pointer field
// may name. A field naming more is rejected at generation time rather than
// silently truncated.
const maxBoundLifetimes = 16

// verify runs every generator-time construction obligation over one
// package's scanned types, returning the first violation found. Unlike a
// [TypeLayout]'s runtime invariants (checked by internal/check against an
// already-built layout), these are obligations on the *source* a layout is
// generated from, and so can only be enforced here, before sabigen ever
// emits a literal.
func verify(scanned []*scannedType) error {
	for _, t := range scanned {
		if err := verifyTransparentSingleField(t); err != nil {
			return err
		}
		if err := verifyDiscriminantRepr(t); err != nil {
			return err
		}
		if err := verifyPrefixAlignment(t); err != nil {
			return err
		}
		if err := verifyBoundLifetimeCount(t); err != nil {
			return err
		}
	}
	return nil
}

// verifyTransparentSingleField enforces that a repr=transparent struct has
// exactly one non-zero-sized field (the "transparency target"), or every
// field is zero-sized. A transparent struct with two or more non-zero-sized
// fields has no well-defined single field to be transparent over, and the
// layout it would generate (whichever field childGetterExpr happened to
// pick) would silently disagree with the actual Rust/C ABI rule.
func verifyTransparentSingleField(t *scannedType) error {
	if t.Dir.Repr != "transparent" {
		return nil
	}

	nonZero := 0
	for _, f := range t.Fields {
		if t.Pkg.TypesSizes.Sizeof(f.GoType) != 0 {
			nonZero++
		}
	}
	if nonZero > 1 {
		return fmt.Errorf("sabigen: %s: repr=transparent struct has %d non-zero-sized fields, want at most 1", t.Name, nonZero)
	}
	return nil
}

// verifyDiscriminantRepr enforces that an enum's declared repr actually
// specifies discriminant storage. repr=transparent has no fixed
// discriminant width and legitimately applies only to single-field
// structs (see verifyTransparentSingleField); an enum can't adopt it.
func verifyDiscriminantRepr(t *scannedType) error {
	if t.Dir.Kind != "enum" {
		return nil
	}
	if t.Dir.Repr == "transparent" {
		return fmt.Errorf("sabigen: %s: enum cannot use repr=transparent, which has no discriminant storage", t.Name)
	}
	return nil
}

// verifyPrefixAlignment enforces that a prefix type's scanned alignment
// matches a previously committed align=N directive flag, catching the
// case a struct gained or lost a field (and so shifted its natural
// alignment) without the generated companion reference type's ABI being
// deliberately re-pinned. A prefix type with no align=N flag yet is
// exempt; align=N is this project's opt-in way of pinning the alignment a
// later regeneration is checked against, not a mandatory annotation.
func verifyPrefixAlignment(t *scannedType) error {
	if t.Dir.Kind != "prefix" {
		return nil
	}
	want, ok := t.Dir.Flags["align"]
	if !ok || want == "" {
		return nil
	}
	var wantAlign int64
	if _, err := fmt.Sscanf(want, "%d", &wantAlign); err != nil {
		return fmt.Errorf("sabigen: %s: align=%q is not an integer", t.Name, want)
	}
	if t.Align != wantAlign {
		return fmt.Errorf("sabigen: %s: prefix type's alignment changed to %d, committed align=%d", t.Name, t.Align, wantAlign)
	}
	return nil
}

// verifyBoundLifetimeCount enforces the bound-lifetime-count limit on any
// field shaped like a function pointer, counting each pointer-, slice-,
// map-, chan- or func-typed parameter or result as one potential bound
// lifetime (Go has no borrow checker to report an exact count, so this
// structural count stands in for one).
func verifyBoundLifetimeCount(t *scannedType) error {
	for _, f := range t.Fields {
		sig, ok := underlyingSignature(f.GoType)
		if !ok {
			continue
		}
		n := countPointerLike(sig.Params()) + countPointerLike(sig.Results())
		if n > maxBoundLifetimes {
			return fmt.Errorf("sabigen: %s.%s: function pointer field names %d bound lifetimes, want at most %d",
				t.Name, f.Name, n, maxBoundLifetimes)
		}
	}
	return nil
}

func underlyingSignature(t types.Type) (*types.Signature, bool) {
	if ptr, ok := t.(*types.Pointer); ok {
		t = ptr.Elem()
	}
	sig, ok := t.Underlying().(*types.Signature)
	return sig, ok
}

func countPointerLike(tup *types.Tuple) int {
	n := 0
	for i := range tup.Len() {
		switch tup.At(i).Type().(type) {
		case *types.Pointer, *types.Slice, *types.Map, *types.Chan, *types.Signature:
			n++
		}
	}
	return n
}
