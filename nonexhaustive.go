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

// NEVTable is the vtable a [NonExhaustive] value carries: the operations
// its interface descriptor declares implemented, plus enough type
// information to support a checked downcast back to the concrete enum.
//
// Only the operations Interface actually declares are meaningful; calling one not
// declared by the vtable's Interface is a programmer error the generated
// accessor code is expected to prevent statically. At this layer, an
// absent function pointer is simply nil.
type NEVTable[E any] struct {
	Interface layout.InterfaceDescriptor
	EnumID    UTypeId
	EnumInfo  *TypeLayout

	Drop      func(storage *E)
	Clone     func(storage *E) E
	Debug     func(storage *E) string
	Display   func(storage *E) string
	Serialize func(storage *E) ([]byte, error)
	Equal     func(a, b *E) bool
	Compare   func(a, b *E) int
	Hash      func(storage *E) uint64
}

// Supports reports whether this vtable declares op implemented.
func (v *NEVTable[E]) Supports(op layout.InterfaceDescriptor) bool {
	return v.Interface&op != 0
}

// NonExhaustive stores an enum-shaped value E in storage S together with a
// vtable whose Interface field names the operations it implements, so that a library built
// against an older version of E — one missing variants a newer provider
// has added — can still hold, pass around, and (per its declared
// interface) debug/clone/drop a value whose variant it doesn't recognize,
// without the enum type itself needing to grow a "foreign variant"
// variant.
//
// S must be at least as large and as aligned as every E this provider's
// version declares; callers that violate this invariant (by instantiating
// NonExhaustive over a storage too small for a particular E) get an
// explicit panic from New rather than silent corruption, since Go gives no
// compile-time way to enforce a cross-type size relationship.
type NonExhaustive[E, S any] struct {
	storage S
	vtable  *NEVTable[E]
}

// New constructs a NonExhaustive from a concrete enum value, given a
// vtable already specialized to E. It panics if E's size or alignment
// exceeds S's, the Go-native form of §4.7's "compile-time or debug-time
// assertion".
func New[E, S any](value E, vtable *NEVTable[E]) NonExhaustive[E, S] {
	checkStorageFits[E, S]()
	ne := NonExhaustive[E, S]{vtable: vtable}
	*unsafe2.Cast[E](&ne.storage) = value
	return ne
}

// Downcast attempts to recover the concrete E' this value was constructed
// from. It succeeds only if E' is identical to the type New was
// originally called with, checked by UTypeId rather than by Go's own type
// identity, since E and E' may be distinct Go types in the host and
// provider that happen to describe the same sabi type.
func Downcast[E, S, EPrime any](ne NonExhaustive[E, S], target UTypeId) (EPrime, error) {
	var zero EPrime
	if !ne.vtable.EnumID.Equal(target) {
		return zero, ErrUnknownVariant
	}
	return *unsafe2.Cast[EPrime](&ne.storage), nil
}

// Vtable exposes the underlying vtable, letting generated accessor code
// call only the operations the interface descriptor declares.
func (ne NonExhaustive[E, S]) Vtable() *NEVTable[E] { return ne.vtable }

// Drop releases ne's stored value through its vtable's drop function, if
// any was declared. A NonExhaustive with no declared Drop is assumed to
// need no cleanup beyond ordinary garbage collection.
func (ne NonExhaustive[E, S]) Drop() {
	if ne.vtable != nil && ne.vtable.Drop != nil {
		ne.vtable.Drop(unsafe2.Cast[E](&ne.storage))
	}
}

func checkStorageFits[E, S any]() {
	var e E
	var s S
	if unsafe.Sizeof(e) > unsafe.Sizeof(s) || unsafe.Alignof(e) > unsafe.Alignof(s) {
		panic(fmt.Sprintf("sabi: storage type too small or under-aligned for enum value: %T does not fit in %T", e, s))
	}
}
