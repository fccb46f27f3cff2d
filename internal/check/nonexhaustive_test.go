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

func discr(v int64) layout.Discriminant { return layout.Discriminant{Kind: layout.DiscrI32, Value: v} }

// TestExhaustiveEnumVariantAdditionIsBreaking covers the exhaustive half
// of §4.6: an exhaustive enum's variant count is fixed, so an
// implementation adding a variant is incompatible even though every
// originally-declared variant is unchanged.
func TestExhaustiveEnumVariantAdditionIsBreaking(t *testing.T) {
	iface := newEnum("Status", layout.ReprC, 4, 4, true, layout.NonExhaustiveInfo{},
		enumVariant{name: "A", discriminant: discr(0)},
		enumVariant{name: "B", discriminant: discr(1)},
	)
	impl := newEnum("Status", layout.ReprC, 4, 4, true, layout.NonExhaustiveInfo{},
		enumVariant{name: "A", discriminant: discr(0)},
		enumVariant{name: "B", discriminant: discr(1)},
		enumVariant{name: "C", discriminant: discr(2)},
	)

	g := check.NewGlobals()
	errs := check.Check(iface, impl, g)
	require.True(t, containsKind(errs, check.TooManyVariants))
}

// TestNonExhaustiveVariantGrowth covers scenario: an implementation of a
// non-exhaustive enum may add variants the interface doesn't know about;
// the reverse direction (interface declares a variant the implementation
// lacks) is always breaking, exhaustive or not.
func TestNonExhaustiveVariantGrowth(t *testing.T) {
	u8 := layout.PrimitiveLayout(layout.PrimUint8)
	storage := layout.NonExhaustiveInfo{StorageSize: 8, StorageAlign: 8}

	iface := newEnum("Event", layout.ReprC, 8, 8, false, storage,
		enumVariant{name: "A", discriminant: discr(0)},
		enumVariant{name: "B", discriminant: discr(1)},
	)
	impl := newEnum("Event", layout.ReprC, 8, 8, false, storage,
		enumVariant{name: "A", discriminant: discr(0)},
		enumVariant{name: "B", discriminant: discr(1)},
		enumVariant{name: "C", discriminant: discr(2), fields: []testField{field("", u8)}},
	)

	g := check.NewGlobals()
	require.Nil(t, check.Check(iface, impl, g), "implementation growing a non-exhaustive enum must be compatible")

	errs := check.Check(impl, iface, g)
	require.True(t, containsKind(errs, check.TooManyVariants), "interface requiring a variant the implementation lacks must fail")
}

// TestNonExhaustiveMissingVariantReported covers the per-variant lookup
// path directly: the interface's unmatched variant name is reported as
// UnexpectedVariant, distinct from the coarser TooManyVariants count
// check.
func TestNonExhaustiveMissingVariantReported(t *testing.T) {
	storage := layout.NonExhaustiveInfo{StorageSize: 8, StorageAlign: 8}

	iface := newEnum("Event", layout.ReprC, 8, 8, false, storage,
		enumVariant{name: "A", discriminant: discr(0)},
		enumVariant{name: "Z", discriminant: discr(9)},
	)
	impl := newEnum("Event", layout.ReprC, 8, 8, false, storage,
		enumVariant{name: "A", discriminant: discr(0)},
		enumVariant{name: "B", discriminant: discr(1)},
	)

	g := check.NewGlobals()
	errs := check.Check(iface, impl, g)
	require.True(t, containsKind(errs, check.UnexpectedVariant))
}

// TestEnumExhaustivenessMismatch covers the coarse exhaustive/non-exhaustive
// disagreement check that precedes anything variant-specific.
func TestEnumExhaustivenessMismatch(t *testing.T) {
	iface := newEnum("Status", layout.ReprC, 4, 4, true, layout.NonExhaustiveInfo{},
		enumVariant{name: "A", discriminant: discr(0)},
	)
	impl := newEnum("Status", layout.ReprC, 4, 4, false,
		layout.NonExhaustiveInfo{StorageSize: 4, StorageAlign: 4},
		enumVariant{name: "A", discriminant: discr(0)},
	)

	g := check.NewGlobals()
	errs := check.Check(iface, impl, g)
	require.True(t, containsKind(errs, check.MismatchedExhaustiveness))
}

// TestNonExhaustiveStorageOverflow covers §4.7's storage-bound check: an
// implementation whose non-exhaustive storage is smaller (or less
// aligned) than what the interface was built against is incompatible,
// since a future variant the interface doesn't know about could already
// have overflowed it.
func TestNonExhaustiveStorageOverflow(t *testing.T) {
	iface := newEnum("Event", layout.ReprC, 8, 8, false,
		layout.NonExhaustiveInfo{StorageSize: 64, StorageAlign: 8},
		enumVariant{name: "A", discriminant: discr(0)},
	)
	impl := newEnum("Event", layout.ReprC, 8, 8, false,
		layout.NonExhaustiveInfo{StorageSize: 16, StorageAlign: 8},
		enumVariant{name: "A", discriminant: discr(0)},
	)

	g := check.NewGlobals()
	errs := check.Check(iface, impl, g)
	require.True(t, containsKind(errs, check.IncompatibleWithNonExhaustive))
}

// TestEnumDiscriminantMismatch covers a same-name, same-position variant
// whose explicit discriminant value differs between the two sides.
func TestEnumDiscriminantMismatch(t *testing.T) {
	storage := layout.NonExhaustiveInfo{StorageSize: 8, StorageAlign: 8}
	iface := newEnum("Event", layout.ReprC, 8, 8, false, storage,
		enumVariant{name: "A", discriminant: discr(0)},
		enumVariant{name: "B", discriminant: discr(1)},
	)
	impl := newEnum("Event", layout.ReprC, 8, 8, false, storage,
		enumVariant{name: "A", discriminant: discr(0)},
		enumVariant{name: "B", discriminant: discr(5)},
	)

	g := check.NewGlobals()
	errs := check.Check(iface, impl, g)
	require.True(t, containsKind(errs, check.EnumDiscriminant))
}

// TestNonExhaustiveInterfaceDescriptorMerge covers §4.7's cross-Globals
// merge: a host declaring Clone+Debug checked against a library declaring
// only Clone checks out fine and leaves that union recorded in the Globals,
// and a later load on which both sides declare nothing drops capabilities
// the union already requires and is reported.
func TestNonExhaustiveInterfaceDescriptorMerge(t *testing.T) {
	storage := layout.NonExhaustiveInfo{StorageSize: 8, StorageAlign: 8}

	// withIface builds a library's declared view of the enum; salt makes
	// each one's fingerprint distinct from the others so the checker's
	// pairKey memoisation doesn't collapse these into a single cached
	// result (the shape and declared name are otherwise identical).
	withIface := func(d layout.InterfaceDescriptor, salt string) *layout.TypeLayout {
		s := storage
		s.Interface = d
		tl := newEnum("Event", layout.ReprC, 8, 8, false, s,
			enumVariant{name: "A", discriminant: discr(0)},
		)
		tl.ID = layout.NewUTypeId(nil, layout.Fingerprint("test/pkg", "Event", layout.ReprC, []string{"A", salt}))
		return tl
	}

	g := check.NewGlobals()

	// Every call's "interface" side shares the same salt ("host"), so each
	// check's merge lands in the same g.nonexhaustive bucket, the way two
	// successive loads checked against the same logical host-side
	// expectation would — even though the descriptor each call's iface
	// object happens to carry can itself vary from call to call.
	hostWithCloneDebug := withIface(layout.IfaceClone|layout.IfaceDebug, "host")
	libA := withIface(layout.IfaceClone, "libA")
	require.Nil(t, check.Check(hostWithCloneDebug, libA, g), "a narrower library declaration must still check out")

	// A later load whose own declared descriptor (on both sides) is
	// narrower than the accumulated union recorded above regresses it and
	// must be flagged.
	hostWithNothing := withIface(0, "host")
	libB := withIface(0, "libB")
	errs := check.Check(hostWithNothing, libB, g)
	require.True(t, containsKind(errs, check.TagError), "dropping a capability the accumulated union already required must be reported")
}
