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

// LifetimeIndex identifies one lifetime parameter position on a field or
// function-pointer signature. Go has no lifetimes, but cross-binary
// pointer fields still carry an escape/aliasing class that must agree
// between an interface and its implementation (a field an interface
// promises is borrowed for the call's duration cannot be swapped for one
// the implementation only promises to keep alive until the next call).
// LifetimeIndex is sabi's stand-in for that promise.
type LifetimeIndex uint8

const (
	// LifetimeNone terminates an inline LifetimeRange; it never appears
	// as a "real" lifetime value.
	LifetimeNone LifetimeIndex = iota

	// LifetimeStatic is a pointer valid for the life of the program.
	LifetimeStatic

	// LifetimeAnonymous is an elided lifetime: it matches any single
	// lifetime on the other side, the same way Rust's elided `'_` does
	// inside a function-pointer signature.
	LifetimeAnonymous

	// LifetimeParam0..LifetimeParam6 name one of up to seven distinct
	// named lifetime parameters on the enclosing type or function.
	LifetimeParam0
	LifetimeParam1
	LifetimeParam2
	LifetimeParam3
	LifetimeParam4
	LifetimeParam5
	LifetimeParam6
)

// IsParam reports whether this is a LifetimeParamN index, and if so, n.
func (l LifetimeIndex) IsParam() (n int, ok bool) {
	if l < LifetimeParam0 {
		return 0, false
	}
	return int(l - LifetimeParam0), true
}

// maxInlineLifetimes is the number of LifetimeIndex values a LifetimeRange
// can store inline before it must spill into SharedVars.Lifetimes.
const maxInlineLifetimes = 3

// LifetimeRange is a small sequence of LifetimeIndex values: either up to
// three stored inline (packed into the struct itself, avoiding an
// allocation and a pool entry for the overwhelmingly common case of zero to
// a few lifetimes per field), or a Span into a SharedVars' Lifetimes pool
// for the rare field with more.
type LifetimeRange struct {
	// inline holds up to maxInlineLifetimes indices, terminated by
	// LifetimeNone if fewer than maxInlineLifetimes are used. A zero
	// LifetimeRange is empty.
	inline   [maxInlineLifetimes]LifetimeIndex
	spilled  bool
	overflow Span
}

// NewInlineLifetimes builds a LifetimeRange from at most three indices.
func NewInlineLifetimes(indices ...LifetimeIndex) LifetimeRange {
	if len(indices) > maxInlineLifetimes {
		panic("layout: too many inline lifetimes")
	}
	var r LifetimeRange
	copy(r.inline[:], indices)
	return r
}

// NewSpilledLifetimes builds a LifetimeRange backed by a SharedVars pool
// Span, for fields carrying more than maxInlineLifetimes lifetimes.
func NewSpilledLifetimes(s Span) LifetimeRange {
	return LifetimeRange{spilled: true, overflow: s}
}

// Indices returns this range's LifetimeIndex values in order.
func (r LifetimeRange) Indices(vars *SharedVars) []LifetimeIndex {
	if r.spilled {
		spilledRange := Slice(vars.Lifetimes, r.overflow)
		out := make([]LifetimeIndex, 0, len(spilledRange))
		for _, lr := range spilledRange {
			out = append(out, lr.Indices(vars)...)
		}
		return out
	}
	n := 0
	for n < maxInlineLifetimes && r.inline[n] != LifetimeNone {
		n++
	}
	return r.inline[:n]
}

// FieldAccessorKind distinguishes how a field's value is actually reached
// at runtime, independent of its declared type.
type FieldAccessorKind uint8

const (
	// AccessorDirect means the field is laid out at a fixed byte offset
	// and may be read with ordinary pointer arithmetic.
	AccessorDirect FieldAccessorKind = iota

	// AccessorMethod means the field is reached by calling a named
	// accessor method rather than by offset; NameRange in the owning
	// CompField holds the method name in this case instead of the field
	// name (a field cannot need both).
	AccessorMethod

	// AccessorOpaque means the field is reached only through reflection
	// machinery supplied by an extra check; used for erased trait-object
	// style fields that carry no statically-known accessor.
	AccessorOpaque
)

// CompField is a compact field record shared by struct, union, and
// function-parameter lists. Most of its data is indices into a
// SharedVars pool so that a field with no lifetimes and a direct accessor
// — the common case — costs only a handful of machine words.
type CompField struct {
	NameRange     Span
	Lifetimes     LifetimeRange
	ChildIndex    int32 // index into SharedVars.Children
	Accessor      FieldAccessorKind
	IsFuncPointer bool

	// Functions is valid when IsFuncPointer is true: a field may carry
	// zero or more attached function layouts (overload-like sets are rare
	// but the data model does not special-case a single function).
	Functions Span // into SharedVars.Functions
}

// FunctionList returns this field's attached function layouts, valid when
// IsFuncPointer is true.
func (f CompField) FunctionList(vars *SharedVars) []FunctionLayout {
	return Slice(vars.Functions, f.Functions)
}

// Name returns this field's declared name (or accessor method name, for
// AccessorMethod fields), resolved against vars.
func (f CompField) Name(vars *SharedVars) string { return vars.String(f.NameRange) }

// Child returns the TypeLayout of this field's declared type.
func (f CompField) Child(vars *SharedVars) *TypeLayout {
	getter := vars.Children[f.ChildIndex]
	return getter()
}
