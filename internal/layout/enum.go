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

package layout

// DiscriminantKind is the integer width and signedness an enum's tag is
// stored as, matching its ReprAttr.
type DiscriminantKind uint8

const (
	DiscrU8 DiscriminantKind = iota
	DiscrU16
	DiscrU32
	DiscrU64
	DiscrI8
	DiscrI16
	DiscrI32
	DiscrI64
	DiscrUSize
	DiscrISize
)

// Discriminant is one variant's explicit tag value, stored widened to
// int64/uint64 regardless of DiscriminantKind; the kind determines how
// comparisons and truncation checks are performed.
type Discriminant struct {
	Kind    DiscriminantKind
	Value   int64
	Unsigned bool
}

// MonoEnum is the generics-independent half of an enum's layout: variant
// names, discriminants, and whether the enum is exhaustive.
type MonoEnum struct {
	VariantNames Span // ';'-separated names, resolved via SharedVars string blob
	Discriminants Span // into SharedVars.Variants

	// PerVariantFieldCount holds one entry per variant giving how many of
	// FieldLayout's fields belong to it; variants are laid out
	// contiguously in declaration order within FieldLayout.
	PerVariantFieldCount []uint16

	// FieldLayout is every field of every variant concatenated, sliced
	// per-variant using PerVariantFieldCount.
	FieldLayout Span // into SharedVars.Fields

	IsExhaustive bool

	// NonExhaustive is valid when !IsExhaustive: the storage bound and
	// required-interface descriptor that a NonExhaustive[E,S,I]
	// instantiation of this enum must satisfy.
	NonExhaustive NonExhaustiveInfo
}

// NonExhaustiveInfo is the part of an enum's layout relevant only to
// non-exhaustive (open for extension) enums.
type NonExhaustiveInfo struct {
	StorageSize  uint64
	StorageAlign uint64

	// Interface is the set of operations (Clone, Debug, Serialize, ...) a
	// NonExhaustive value built from this enum promises to support. Two
	// libraries exchanging values of this enum must agree that one's
	// Interface is a subset of the other's, merged into the union by
	// [InterfaceDescriptor.Union] as additional libraries are loaded.
	Interface InterfaceDescriptor
}

// InterfaceDescriptor names the capabilities a NonExhaustive value exposes
// through its vtable. It is a simple bitset: sabi does not need to know the
// operations' semantics, only whether a capability is present on both
// sides of a compatibility check.
type InterfaceDescriptor uint32

const (
	IfaceClone InterfaceDescriptor = 1 << iota
	IfaceDebug
	IfaceDisplay
	IfaceSerialize
	IfaceDeserialize
	IfacePartialEq
	IfaceCmp
	IfaceHash
)

// Subset reports whether every capability in d is also present in other.
func (d InterfaceDescriptor) Subset(other InterfaceDescriptor) bool {
	return d&^other == 0
}

// Union returns the capabilities present in either descriptor, the merge
// rule used by the checker's Globals.nonexhaustive map when a second library's
// layout for the same enum is observed.
func (d InterfaceDescriptor) Union(other InterfaceDescriptor) InterfaceDescriptor {
	return d | other
}

// VariantNameList splits this enum's ';'-separated variant-name blob.
func (e MonoEnum) VariantNameList(vars *SharedVars) []string {
	return splitNames(vars.String(e.VariantNames))
}

// GenericEnum is the generics-dependent half of an enum's layout: nothing
// beyond what GenericLayout already carries is needed per-instantiation,
// but the type exists so that future per-instantiation enum data (e.g. a
// discriminant type depending on a const generic) has somewhere to live
// without reshaping MonoEnum.
type GenericEnum struct{}
