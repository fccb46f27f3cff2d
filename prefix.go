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

package sabi

import (
	"fmt"
	"unsafe"

	"buf.build/go/sabi/internal/layout"
	"buf.build/go/sabi/internal/unsafe2"
)

// WithMetadata packs a prefix type's leaked, static representation: an
// accessibility bitmap recording which of T's prefix fields are actually
// present in this build, a pointer to the type's layout, and T itself.
// Providers construct one per prefix-typed value they export and leak it
// into static memory; hosts only ever see it through a [PrefixRef].
type WithMetadata[T any] struct {
	Accessibility layout.AccessibilityBitmap
	Layout        *TypeLayout
	Value         T
}

// PrefixRef is a non-null pointer to a leaked WithMetadata[T] value. It is
// the cross-boundary reference type for every prefix-typed struct: a
// vtable, a capability record, or any struct a provider may extend with
// new trailing fields in a later version without breaking hosts built
// against an earlier one.
type PrefixRef[T any] struct {
	ptr *WithMetadata[T]
}

// NewPrefixRef wraps a leaked *WithMetadata[T]. Panics on a nil pointer:
// per the data model, a PrefixRef never owns or lazily-initializes its
// target, so there is no meaningful zero value.
func NewPrefixRef[T any](ptr *WithMetadata[T]) PrefixRef[T] {
	if ptr == nil {
		panic("sabi: NewPrefixRef called with a nil pointer")
	}
	return PrefixRef[T]{ptr: ptr}
}

// Layout returns the TypeLayout of the referenced prefix type.
func (r PrefixRef[T]) Layout() *TypeLayout { return r.ptr.Layout }

// Accessible reports whether field index i is present in this particular
// value, consulting the accessibility bitmap stamped in at construction
// time (not the type-level "may be conditional" bitmap on MonoPrefix,
// which only says a field is *allowed* to vary).
func (r PrefixRef[T]) Accessible(i int) bool { return r.ptr.Accessibility.IsSet(i) }

// Raw erases r's type parameter, for code — [Open], a root-module
// Construct func — that needs to pass a PrefixRef through a boundary with
// no type parameter of its own to spell. It carries no information Go's
// type system can check; the only legitimate next step for the result is
// [CastPrefixRef] back to the same T the value was built with.
func (r PrefixRef[T]) Raw() RawPrefixRef {
	return RawPrefixRef{ptr: unsafe.Pointer(r.ptr)}
}

// RawPrefixRef is a [PrefixRef] with its type parameter erased. It exists
// only to cross a boundary ([LayoutHeader.Construct], [Open]'s return
// value) that cannot itself be generic; it is never inspected directly.
type RawPrefixRef struct {
	ptr unsafe.Pointer
}

// CastPrefixRef reinterprets a RawPrefixRef as PrefixRef[T]. The caller is
// asserting that the value was originally produced by a Construct func
// returning PrefixRef[T].Raw() for this same T; sabi has no way to check
// that assertion itself; a checked cross-boundary handoff is exactly what
// [Open]'s ABI check upstream of this call is for.
func CastPrefixRef[T any](r RawPrefixRef) PrefixRef[T] {
	return PrefixRef[T]{ptr: (*WithMetadata[T])(r.ptr)}
}

// Field reads field index i of the underlying value T, reinterpreted at
// the given byte offset as type F, applying policy when the field is
// absent from this particular value. ok is false only under PolicyOption
// when the field is absent; under PolicyDefault a missing field yields def
// with ok true; under PolicyPanic a missing field panics naming fieldName.
//
// offset is the field's byte offset within T, supplied by generated
// accessor code rather than computed here, since F's offset within T is a
// property of the generated struct layout, not something this generic
// helper can recover from F and T alone.
func Field[T, F any](r PrefixRef[T], i, offset int, policy layout.MissingFieldPolicy, fieldName string, def F) (F, bool) {
	if r.Accessible(i) {
		base := unsafe2.Cast[byte](&r.ptr.Value)
		p := unsafe2.Cast[F](unsafe2.Add(base, offset))
		return *p, true
	}

	switch policy {
	case layout.PolicyDefault:
		return def, true
	case layout.PolicyPanic:
		panic(fmt.Sprintf("sabi: prefix field %q accessed but absent from this provider's build", fieldName))
	default: // PolicyOption
		var zero F
		return zero, false
	}
}
