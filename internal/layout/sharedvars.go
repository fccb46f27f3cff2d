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

import (
	"fmt"
	"math"

	"buf.build/go/sabi/internal/debug"
)

// Span is a packed (start, len) pair addressing a sub-slice of one of
// [SharedVars]'s pools, specialized to pools of arbitrary element type
// rather than raw bytes: the source pool is passed explicitly to
// [Slice] instead of being recovered via pointer arithmetic, since the
// pools here are ordinary Go slices owned by a SharedVars, not bytes
// relative to some unsafe source.
//
// The zero Span addresses an empty sub-slice, which lets a MonoLayout or
// GenericLayout with no fields of some kind omit the field entirely.
type Span uint64

// NewSpan packs a start offset and length into a Span.
func NewSpan(start, len int) Span {
	debug.Assert(start >= 0 && len >= 0 && start <= math.MaxUint32 && len <= math.MaxUint32,
		"span out of range: [%d:%d]", start, len)
	return Span(uint32(start)) | Span(uint32(len))<<32
}

// Start returns the start index of this span.
func (s Span) Start() int { return int(uint32(s)) }

// Len returns the length of this span.
func (s Span) Len() int { return int(s >> 32) }

// End returns the end index of this span.
func (s Span) End() int { return s.Start() + s.Len() }

// Format implements [fmt.Formatter].
func (s Span) Format(f fmt.State, verb rune) {
	debug.Fprintf("[%d:%d]", s.Start(), s.End()).Format(f, verb)
}

// Slice resolves a Span against one of SharedVars' pools.
func Slice[T any](pool []T, s Span) []T {
	if s.Len() == 0 {
		return nil
	}
	return pool[s.Start():s.End()]
}

// ChildGetter produces the [TypeLayout] of a generic parameter or const
// generic's type, lazily, so that recursive and mutually-recursive type
// graphs do not require eagerly materializing every reachable TypeLayout at
// registration time. The result should be stable across calls: callers may
// cache it.
type ChildGetter func() *TypeLayout

// SharedVars is a deduplicated pool of variable-length data shared by every
// [MonoLayout] and [GenericLayout] reachable from one [TypeLayout] root (and,
// in practice, by every TypeLayout compiled into the same provider binary by
// cmd/sabigen, since the generator emits one SharedVars per package).
//
// Fields of MonoLayout and GenericLayout reference into these pools with
// [Span]s instead of owning their own slices, so that e.g. a field name
// shared by a getter and a setter method is stored exactly once.
type SharedVars struct {
	// Strings holds every field name, type name, module path, and doc
	// string used by any MonoLayout sharing this pool, concatenated.
	Strings string

	// Lifetimes holds every [LifetimeRange] referenced by any [CompField]
	// or [FunctionLayout] sharing this pool.
	Lifetimes []LifetimeRange

	// Consts holds every const-generic value referenced by any
	// [GenericLayout] sharing this pool.
	Consts []ConstGeneric

	// Children holds every child-type getter referenced by any
	// [GenericLayout]'s type arguments, or by a [CompField]'s field type.
	Children []ChildGetter

	// Fields holds every [CompField] referenced by any MonoLayout's field
	// list.
	Fields []CompField

	// Variants holds every [Discriminant] referenced by any [MonoEnum].
	Variants []Discriminant

	// Functions holds every [FunctionLayout] attached to any [CompField]
	// with IsFuncPointer set.
	Functions []FunctionLayout
}

// String resolves a Span into this pool's string blob.
func (sv *SharedVars) String(s Span) string {
	if s.Len() == 0 {
		return ""
	}
	return sv.Strings[s.Start():s.End()]
}

// PushString appends a string to the pool, returning its Span. Repeated
// identical strings are not deduplicated here; cmd/sabigen is responsible
// for interning before emitting, the same way a protobuf compiler interns
// its symbol table.
func (sv *SharedVars) PushString(str string) Span {
	start := len(sv.Strings)
	sv.Strings += str
	return NewSpan(start, len(str))
}

// PushLifetimes appends a run of lifetime ranges, returning their Span.
func (sv *SharedVars) PushLifetimes(lts ...LifetimeRange) Span {
	start := len(sv.Lifetimes)
	sv.Lifetimes = append(sv.Lifetimes, lts...)
	return NewSpan(start, len(lts))
}

// PushConsts appends a run of const generics, returning their Span.
func (sv *SharedVars) PushConsts(consts ...ConstGeneric) Span {
	start := len(sv.Consts)
	sv.Consts = append(sv.Consts, consts...)
	return NewSpan(start, len(consts))
}

// PushChildren appends a run of child-type getters, returning their Span.
func (sv *SharedVars) PushChildren(getters ...ChildGetter) Span {
	start := len(sv.Children)
	sv.Children = append(sv.Children, getters...)
	return NewSpan(start, len(getters))
}

// PushFields appends a run of fields, returning their Span.
func (sv *SharedVars) PushFields(fields ...CompField) Span {
	start := len(sv.Fields)
	sv.Fields = append(sv.Fields, fields...)
	return NewSpan(start, len(fields))
}

// PushVariants appends a run of enum discriminants, returning their Span.
func (sv *SharedVars) PushVariants(variants ...Discriminant) Span {
	start := len(sv.Variants)
	sv.Variants = append(sv.Variants, variants...)
	return NewSpan(start, len(variants))
}

// PushFunctions appends a run of function layouts, returning their Span.
func (sv *SharedVars) PushFunctions(fns ...FunctionLayout) Span {
	start := len(sv.Functions)
	sv.Functions = append(sv.Functions, fns...)
	return NewSpan(start, len(fns))
}
