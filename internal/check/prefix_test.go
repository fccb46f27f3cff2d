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

package check_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"buf.build/go/sabi/internal/check"
	"buf.build/go/sabi/internal/layout"
)

// TestPrefixExtension covers growing a prefix type by appending an
// optional suffix field: V1{a,b} (guaranteed) vs V2{a,b,c} (c optional).
// Both directions are compatible, and checking the same interface against
// a second, further-grown implementation against the same Globals also
// succeeds, since each check only ever compares the two layouts actually
// passed in.
func TestPrefixExtension(t *testing.T) {
	u8 := layout.PrimitiveLayout(layout.PrimUint8)
	u16 := layout.PrimitiveLayout(layout.PrimUint16)
	u32 := layout.PrimitiveLayout(layout.PrimUint32)

	v1 := newPrefix("Versioned", layout.ReprC, 16, 8, 2, 0, nil,
		field("a", u8), field("b", u16))
	v2 := newPrefix("Versioned", layout.ReprC, 16, 8, 2, 0,
		[]layout.MissingFieldPolicy{layout.PolicyOption, layout.PolicyOption, layout.PolicyOption},
		field("a", u8), field("b", u16), field("c", u32))
	v3 := newPrefix("Versioned", layout.ReprC, 16, 8, 2, 0,
		[]layout.MissingFieldPolicy{layout.PolicyOption, layout.PolicyOption, layout.PolicyOption, layout.PolicyOption},
		field("a", u8), field("b", u16), field("c", u32), field("d", u32))

	g := check.NewGlobals()

	require.Nil(t, check.Check(v1, v2, g), "growing the optional suffix must be compatible")
	require.Nil(t, check.Check(v2, v1, g), "an absent option-policy suffix field must be tolerated")

	// A second, independently-checked extension against the same Globals
	// must succeed on its own terms; neither check should be influenced by
	// the merge state the other left behind.
	require.Nil(t, check.Check(v1, v3, g))
}

// TestPrefixExtensionSuffixMustNotPanic covers the other half of an
// optional suffix field's contract: if the interface reads an absent
// suffix field with a panicking accessor, an implementation that omits
// that field is not safe to load against it.
func TestPrefixExtensionSuffixMustNotPanic(t *testing.T) {
	u8 := layout.PrimitiveLayout(layout.PrimUint8)
	u16 := layout.PrimitiveLayout(layout.PrimUint16)
	u32 := layout.PrimitiveLayout(layout.PrimUint32)

	iface := newPrefix("Versioned", layout.ReprC, 16, 8, 2,
		0, []layout.MissingFieldPolicy{layout.PolicyOption, layout.PolicyOption, layout.PolicyPanic},
		field("a", u8), field("b", u16), field("c", u32))
	impl := newPrefix("Versioned", layout.ReprC, 16, 8, 2, 0,
		nil, field("a", u8), field("b", u16))

	g := check.NewGlobals()
	errs := check.Check(iface, impl, g)
	require.True(t, containsKind(errs, check.MismatchedPrefixSize))
}

// TestPrefixSizeBreakage covers §4.5's rule that the guaranteed-prefix
// boundary may never shrink: an implementation that demotes a
// previously-guaranteed field to the optional suffix is breaking, even
// though the field is still present.
func TestPrefixSizeBreakage(t *testing.T) {
	u8 := layout.PrimitiveLayout(layout.PrimUint8)
	u16 := layout.PrimitiveLayout(layout.PrimUint16)
	u32 := layout.PrimitiveLayout(layout.PrimUint32)

	withLastPrefix := newPrefix("Versioned", layout.ReprC, 16, 8, 3, 0, nil,
		field("a", u8), field("b", u16), field("c", u32))
	movedLastPrefix := newPrefix("Versioned", layout.ReprC, 16, 8, 2, 0,
		[]layout.MissingFieldPolicy{layout.PolicyOption, layout.PolicyOption, layout.PolicyOption},
		field("a", u8), field("b", u16), field("c", u32))

	g := check.NewGlobals()
	errs := check.Check(withLastPrefix, movedLastPrefix, g)
	require.True(t, containsKind(errs, check.MismatchedPrefixSize))
}

// TestPrefixMissingGuaranteedField covers an implementation that drops a
// field from within the guaranteed prefix entirely, not merely demoting
// it to the suffix — always breaking regardless of missing-field policy.
func TestPrefixMissingGuaranteedField(t *testing.T) {
	u8 := layout.PrimitiveLayout(layout.PrimUint8)
	u16 := layout.PrimitiveLayout(layout.PrimUint16)

	iface := newPrefix("Versioned", layout.ReprC, 16, 8, 2, 0, nil,
		field("a", u8), field("b", u16))
	impl := newPrefix("Versioned", layout.ReprC, 8, 8, 1, 0, nil,
		field("a", u8))

	g := check.NewGlobals()
	errs := check.Check(iface, impl, g)
	require.True(t, containsKind(errs, check.MismatchedPrefixSize))
}

// TestPrefixAlignmentPreserved covers the plain shallow-check rule that a
// prefix type's declared alignment must be preserved exactly, same as any
// other data variant.
func TestPrefixAlignmentPreserved(t *testing.T) {
	u8 := layout.PrimitiveLayout(layout.PrimUint8)
	u16 := layout.PrimitiveLayout(layout.PrimUint16)

	iface := newPrefix("Versioned", layout.ReprC, 16, 8, 2, 0, nil,
		field("a", u8), field("b", u16))
	impl := newPrefix("Versioned", layout.ReprC, 16, 4, 2, 0, nil,
		field("a", u8), field("b", u16))

	g := check.NewGlobals()
	errs := check.Check(iface, impl, g)
	require.True(t, containsKind(errs, check.Alignment))
}

// TestPrefixConditionalityMustMatch covers §4.5's rule that a guaranteed
// prefix field's conditional-compilation status must agree between both
// sides, independent of whether the field's type itself matches.
func TestPrefixConditionalityMustMatch(t *testing.T) {
	u8 := layout.PrimitiveLayout(layout.PrimUint8)
	u16 := layout.PrimitiveLayout(layout.PrimUint16)

	iface := newPrefix("Versioned", layout.ReprC, 16, 8, 2, 0, nil,
		field("a", u8), field("b", u16))
	impl := newPrefix("Versioned", layout.ReprC, 16, 8, 2,
		layout.AccessibilityBitmap(0).Set(1), nil,
		field("a", u8), field("b", u16))

	g := check.NewGlobals()
	errs := check.Check(iface, impl, g)
	require.True(t, containsKind(errs, check.MismatchedPrefixConditionality))
}
