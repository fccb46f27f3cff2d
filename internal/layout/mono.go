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

// ReprAttr is a type's memory-representation attribute, the Go analogue of
// a `#[repr(...)]` attribute: what a compiler is and is not allowed to do
// to lay the type's fields out.
type ReprAttr uint8

const (
	// ReprC lays fields out in declaration order with platform-standard
	// padding, the same as a C struct. This is the only representation
	// sabi considers portable across separately-compiled binaries.
	ReprC ReprAttr = iota

	// ReprTransparent means the type has exactly one field contributing to
	// its layout (others must be zero-sized); the type is layout-identical
	// to that field.
	ReprTransparent

	// ReprCInt is ReprC with an explicit integer discriminant for an enum.
	ReprCInt

	// ReprInt is a bare integer-discriminant repr with no further layout
	// guarantees beyond the discriminant width.
	ReprInt

	// ReprPacked removes inter-field padding. May be combined with ReprC
	// by the generator; recorded here as its own variant because a packed
	// struct that isn't also ReprC has no stable cross-compiler layout.
	ReprPacked
)

func (r ReprAttr) String() string {
	switch r {
	case ReprC:
		return "C"
	case ReprTransparent:
		return "transparent"
	case ReprCInt:
		return "C+int"
	case ReprInt:
		return "int"
	case ReprPacked:
		return "packed"
	default:
		return "unknown"
	}
}

// DataVariant discriminates the shape of a type's data.
type DataVariant uint8

const (
	DataPrimitive DataVariant = iota
	DataOpaque
	DataStruct
	DataUnion
	DataEnum
	DataPrefix
)

func (d DataVariant) String() string {
	switch d {
	case DataPrimitive:
		return "primitive"
	case DataOpaque:
		return "opaque"
	case DataStruct:
		return "struct"
	case DataUnion:
		return "union"
	case DataEnum:
		return "enum"
	case DataPrefix:
		return "prefix"
	default:
		return "unknown"
	}
}

// Primitive enumerates the primitive kinds sabi's checker distinguishes.
// Two primitive fields must share a Primitive kind to be compatible, even
// if their underlying Go kinds have the same size (e.g. int32 and float32
// are never compatible despite both being 4 bytes).
type Primitive uint8

const (
	PrimInvalid Primitive = iota
	PrimBool
	PrimInt8
	PrimInt16
	PrimInt32
	PrimInt64
	PrimUint8
	PrimUint16
	PrimUint32
	PrimUint64
	PrimFloat32
	PrimFloat64
	PrimPointer
	PrimFuncPointer
)

// ItemInfo records where in source a type was declared, for diagnostics.
// It has no bearing on compatibility: two types with identical shapes but
// different ItemInfo are still compatible.
type ItemInfo struct {
	Package string
	Version string
	Line    int
}

// MonoLayout is the part of a TypeLayout that is independent of the type's
// instantiated generic arguments: its name, declaration site, repr
// attribute, and field shape. Two monomorphisations of the same generic
// type share one MonoLayout.
type MonoLayout struct {
	NameRange       Span
	ModulePathRange Span
	Item            ItemInfo

	ReprAttr   ReprAttr
	ReprSize   uint64
	ReprAlign  uint64
	DataVariant DataVariant

	// Primitive is valid only when DataVariant == DataPrimitive.
	Primitive Primitive

	// Fields is valid when DataVariant is DataStruct or DataUnion: a Span
	// into SharedVars.Fields.
	Fields Span

	// Enum is valid when DataVariant == DataEnum.
	Enum MonoEnum

	// Prefix is valid when DataVariant == DataPrefix.
	Prefix MonoPrefix
}

// Name returns the type's declared name, resolved against vars.
func (m *MonoLayout) Name(vars *SharedVars) string { return vars.String(m.NameRange) }

// ModulePath returns the type's declaring module path, resolved against vars.
func (m *MonoLayout) ModulePath(vars *SharedVars) string { return vars.String(m.ModulePathRange) }

// FieldList returns this layout's fields, valid for DataStruct/DataUnion.
func (m *MonoLayout) FieldList(vars *SharedVars) []CompField { return Slice(vars.Fields, m.Fields) }
