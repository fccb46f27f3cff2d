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
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buf.build/go/sabi/internal/check"
	"buf.build/go/sabi/internal/ffi"
	"buf.build/go/sabi/internal/layout"
	"buf.build/go/sabi/internal/tag"
)

func TestReflexivity(t *testing.T) {
	t.Parallel()

	u8 := layout.PrimitiveLayout(layout.PrimUint8)
	u32 := layout.PrimitiveLayout(layout.PrimUint32)
	s := newStruct("Point", layout.ReprC, 8, 4, field("x", u32), field("y", u8))

	errs := check.Check(s, s, check.NewGlobals())
	assert.Nil(t, errs)
}

func TestContainerSelfCompatibility(t *testing.T) {
	t.Parallel()

	elem := layout.PrimitiveLayout(layout.PrimInt64)
	vec := ffi.RVecLayout(elem)

	errs := check.Check(vec, ffi.RVecLayout(elem), check.NewGlobals())
	assert.Nil(t, errs)
}

func TestNameChangeDetected(t *testing.T) {
	t.Parallel()

	u8 := layout.PrimitiveLayout(layout.PrimUint8)
	iface := newStruct("Widget", layout.ReprC, 1, 1, field("flag", u8))
	impl := newStruct("Gadget", layout.ReprC, 1, 1, field("flag", u8))

	errs := check.Check(iface, impl, check.NewGlobals())
	require.NotNil(t, errs)
	assert.True(t, containsKind(errs, check.Name))
}

func TestFieldReorderingDetected(t *testing.T) {
	t.Parallel()

	u8 := layout.PrimitiveLayout(layout.PrimUint8)
	u32 := layout.PrimitiveLayout(layout.PrimUint32)

	iface := newStruct("Pair", layout.ReprC, 8, 4, field("a", u32), field("b", u8))
	impl := newStruct("Pair", layout.ReprC, 8, 4, field("b", u8), field("a", u32))

	errs := check.Check(iface, impl, check.NewGlobals())
	require.NotNil(t, errs)
	assert.True(t, containsKind(errs, check.UnexpectedField))
}

func TestSizeAlignmentOverrideDetected(t *testing.T) {
	t.Parallel()

	u8 := layout.PrimitiveLayout(layout.PrimUint8)
	iface := newStruct("Aligned", layout.ReprC, 1, 1, field("b", u8))
	impl := newStruct("Aligned", layout.ReprC, 4, 4, field("b", u8))

	errs := check.Check(iface, impl, check.NewGlobals())
	require.NotNil(t, errs)
	assert.True(t, containsKind(errs, check.Size))
	assert.True(t, containsKind(errs, check.Alignment))
}

func TestReprTransparentTransparency(t *testing.T) {
	t.Parallel()

	u32 := layout.PrimitiveLayout(layout.PrimUint32)
	zst := newStruct("Marker", layout.ReprC, 0, 1)

	t.Run("extra zero-sized field is compatible", func(t *testing.T) {
		t.Parallel()

		iface := newStruct("Transparent", layout.ReprTransparent, 4, 4, field("inner", u32))
		impl := newStruct("Transparent", layout.ReprTransparent, 4, 4,
			field("inner", u32), field("_marker", zst))

		errs := check.Check(iface, impl, check.NewGlobals())
		assert.Nil(t, errs)
	})

	t.Run("extra non-zero-sized field is incompatible", func(t *testing.T) {
		t.Parallel()

		u8 := layout.PrimitiveLayout(layout.PrimUint8)
		iface := newStruct("Transparent", layout.ReprTransparent, 4, 4, field("inner", u32))
		impl := newStruct("Transparent", layout.ReprTransparent, 8, 4,
			field("inner", u32), field("extra", u8))

		errs := check.Check(iface, impl, check.NewGlobals())
		require.NotNil(t, errs)
		assert.True(t, containsKind(errs, check.FieldCountMismatch))
	})
}

func TestFunctionPointerLifetimeBundling(t *testing.T) {
	t.Parallel()

	fnptr := layout.PrimitiveLayout(layout.PrimFuncPointer)
	// A single no-argument, no-return signature, identical on both sides;
	// ReturnType must be set to "no return" explicitly, since the zero
	// value of an int32 field collides with a valid Children index.
	sig := []layout.FunctionLayout{{ReturnType: -1}}

	t.Run("anonymous interface lifetime matches a named implementation lifetime", func(t *testing.T) {
		t.Parallel()

		iface := newStruct("Callback", layout.ReprC, 8, 8,
			funcField("get", fnptr, layout.NewInlineLifetimes(layout.LifetimeAnonymous), sig...))
		impl := newStruct("Callback", layout.ReprC, 8, 8,
			funcField("get", fnptr, layout.NewInlineLifetimes(layout.LifetimeParam0), sig...))

		errs := check.Check(iface, impl, check.NewGlobals())
		assert.Nil(t, errs)
	})

	t.Run("two distinct named lifetimes are incompatible", func(t *testing.T) {
		t.Parallel()

		iface := newStruct("Callback", layout.ReprC, 8, 8,
			funcField("get", fnptr, layout.NewInlineLifetimes(layout.LifetimeParam0), sig...))
		impl := newStruct("Callback", layout.ReprC, 8, 8,
			funcField("get", fnptr, layout.NewInlineLifetimes(layout.LifetimeParam1), sig...))

		errs := check.Check(iface, impl, check.NewGlobals())
		require.NotNil(t, errs)
		assert.True(t, containsKind(errs, check.FieldLifetimeMismatch))
	})
}

// newList builds a self-referential `List = { head: T, tail: *List }`
// fixture: tail's child getter closes over the list variable, which is
// only assigned after the getter is registered, the same indirection
// cmd/sabigen generates for a recursive type's function-pointer getter.
func newList(head *layout.TypeLayout) *layout.TypeLayout {
	var list *layout.TypeLayout
	vars := &layout.SharedVars{}
	nameRange := vars.PushString("List")

	headName := vars.PushString("head")
	headIdx := vars.PushChildren(func() *layout.TypeLayout { return head })
	tailName := vars.PushString("tail")
	tailIdx := vars.PushChildren(func() *layout.TypeLayout { return list })

	fields := vars.PushFields(
		layout.CompField{NameRange: headName, ChildIndex: int32(headIdx.Start()), Accessor: layout.AccessorDirect},
		layout.CompField{NameRange: tailName, ChildIndex: int32(tailIdx.Start()), Accessor: layout.AccessorDirect},
	)

	// The fingerprint folds in head's own identity (the way a generic
	// instantiation's fingerprint folds in its type argument's, e.g.
	// internal/ffi's combineFingerprints) so that List<uint8> and
	// List<uint16> are recognized as distinct declared types despite
	// sharing the name "List" and field list.
	fp := layout.Fingerprint("test/pkg", "List", layout.ReprC, []string{"head:" + head.Name(), "tail"})
	list = &layout.TypeLayout{
		Vars: vars,
		ID:   layout.NewUTypeId(nil, fp),
		Mono: layout.MonoLayout{
			NameRange:       nameRange,
			ModulePathRange: layout.NewSpan(0, 0),
			ReprAttr:        layout.ReprC,
			ReprSize:        head.Mono.ReprSize + 8,
			ReprAlign:       8,
			DataVariant:     layout.DataStruct,
			Fields:          fields,
		},
		Generic: layout.GenericLayout{DataVariant: layout.DataStruct},
	}
	return list
}

func TestCycleHandling(t *testing.T) {
	t.Parallel()

	t.Run("same list terminates with no error", func(t *testing.T) {
		t.Parallel()

		list := newList(layout.PrimitiveLayout(layout.PrimUint8))
		errs := check.Check(list, list, check.NewGlobals())
		assert.Nil(t, errs)
	})

	t.Run("independently built but identical lists terminate with no error", func(t *testing.T) {
		t.Parallel()

		a := newList(layout.PrimitiveLayout(layout.PrimUint8))
		b := newList(layout.PrimitiveLayout(layout.PrimUint8))
		errs := check.Check(a, b, check.NewGlobals())
		assert.Nil(t, errs)
	})

	t.Run("mismatched head type reports exactly one MismatchedPrimitive leaf, not infinite output", func(t *testing.T) {
		t.Parallel()

		a := newList(layout.PrimitiveLayout(layout.PrimUint8))
		b := newList(layout.PrimitiveLayout(layout.PrimUint16))

		errs := check.Check(a, b, check.NewGlobals())
		require.NotNil(t, errs)

		var mismatches int
		for _, n := range errs.Nodes {
			for _, l := range n.Leaves {
				if l.Kind == check.MismatchedPrimitive {
					mismatches++
					require.Len(t, n.Path, 1)
					assert.Equal(t, "head", n.Path[0].Name)
				}
			}
		}
		assert.Equal(t, 1, mismatches)
	})
}

// prefixStringCheck is a user-defined extra check exercising the
// CheckCompatibility extension point directly (scenario 5): it requires
// the interface side's associated string to be a prefix of the
// implementation side's.
type prefixStringCheck struct {
	s string
}

func (p *prefixStringCheck) Nested() []*layout.TypeLayout { return nil }

func (p *prefixStringCheck) CheckCompatibility(other check.ExtraCheck, _ *check.TypeChecker) error {
	o, ok := other.(*prefixStringCheck)
	if !ok {
		return fmt.Errorf("prefix-string check paired with incompatible extra check %T", other)
	}
	if !strings.HasPrefix(o.s, p.s) {
		return fmt.Errorf("associated string %q is not a prefix of %q", p.s, o.s)
	}
	return nil
}

func withExtraCheck(tl *layout.TypeLayout, ec layout.ExtraCheck) *layout.TypeLayout {
	clone := *tl
	clone.ExtraChecks = append(append([]layout.ExtraCheck(nil), tl.ExtraChecks...), ec)
	return &clone
}

func TestExtraChecksAgreement(t *testing.T) {
	t.Parallel()

	u8 := layout.PrimitiveLayout(layout.PrimUint8)
	base := newStruct("Tagged", layout.ReprC, 1, 1, field("b", u8))

	t.Run("implementation string extends interface string", func(t *testing.T) {
		t.Parallel()

		iface := withExtraCheck(base, &prefixStringCheck{s: "ab"})
		impl := withExtraCheck(base, &prefixStringCheck{s: "abcd"})

		errs := check.Check(iface, impl, check.NewGlobals())
		assert.Nil(t, errs)
	})

	t.Run("implementation string diverges from interface string", func(t *testing.T) {
		t.Parallel()

		iface := withExtraCheck(base, &prefixStringCheck{s: "abc"})
		impl := withExtraCheck(base, &prefixStringCheck{s: "abd"})

		errs := check.Check(iface, impl, check.NewGlobals())
		require.NotNil(t, errs)
		assert.True(t, containsKind(errs, check.ExtraCheckError))
	})
}

func TestTagCheckSubsetAgreement(t *testing.T) {
	t.Parallel()

	u8 := layout.PrimitiveLayout(layout.PrimUint8)
	base := newStruct("Tagged", layout.ReprC, 1, 1, field("b", u8))

	t.Run("interface tag is a subset of implementation tag", func(t *testing.T) {
		t.Parallel()

		iface := withExtraCheck(base, check.NewTagCheck(tag.FromSet("a")))
		impl := withExtraCheck(base, check.NewTagCheck(tag.FromSet("a", "b")))

		errs := check.Check(iface, impl, check.NewGlobals())
		assert.Nil(t, errs)
	})

	t.Run("interface tag requires a capability the implementation lacks", func(t *testing.T) {
		t.Parallel()

		iface := withExtraCheck(base, check.NewTagCheck(tag.FromSet("a", "c")))
		impl := withExtraCheck(base, check.NewTagCheck(tag.FromSet("a", "b")))

		errs := check.Check(iface, impl, check.NewGlobals())
		require.NotNil(t, errs)
		assert.True(t, containsKind(errs, check.ExtraCheckError))
	})
}
