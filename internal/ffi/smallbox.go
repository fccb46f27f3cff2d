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

package ffi

import (
	"sync"
	"unsafe"

	"buf.build/go/sabi/internal/arena"
	"buf.build/go/sabi/internal/layout"
)

// SmallBox holds a T inline inside Inline's storage when T fits there, and
// falls back to a heap allocation otherwise. Inline is never read as a
// value itself; only its size and alignment matter, the same way a fixed
// byte array is used purely as scratch space. This is a small-value
// optimization: a value that already fits in a few words needs no heap
// allocation.
type SmallBox[T, Inline any] struct {
	inline  Inline
	inlined bool
	heapPtr *T
}

// overflowArena backs every SmallBox instantiation whose T doesn't fit its
// Inline storage. A single shared arena is acceptable here because
// overflow is the cold path by construction (Inline is chosen by the
// caller specifically so the hot path avoids it); overflowMu serializes
// access since Arena itself assumes a single writer.
var (
	overflowArena arena.Arena
	overflowMu    sync.Mutex
)

// NewSmallBox stores value inline if it fits within Inline's size and
// alignment, or heap-allocates it otherwise.
func NewSmallBox[T, Inline any](value T) SmallBox[T, Inline] {
	var zeroInline Inline
	if unsafe.Sizeof(value) <= unsafe.Sizeof(zeroInline) && unsafe.Alignof(value) <= unsafe.Alignof(zeroInline) {
		var b SmallBox[T, Inline]
		*(*T)(unsafe.Pointer(&b.inline)) = value
		b.inlined = true
		return b
	}

	overflowMu.Lock()
	ptr := arena.New(&overflowArena, value)
	overflowMu.Unlock()
	return SmallBox[T, Inline]{heapPtr: ptr}
}

// IsInline reports whether b's value lives in its Inline storage rather
// than on the overflow arena.
func (b *SmallBox[T, Inline]) IsInline() bool { return b.inlined }

// Get returns a pointer to b's stored value, wherever it actually lives.
func (b *SmallBox[T, Inline]) Get() *T {
	if b.inlined {
		return (*T)(unsafe.Pointer(&b.inline))
	}
	return b.heapPtr
}

// SmallBoxLayout returns the canonical TypeLayout for SmallBox instantiated
// over the types elem and inline describe. Its representation is opaque:
// callers never need to reach into a SmallBox's bytes directly, only
// through Get, so no fields are compared; the checker compares its size,
// its alignment and its two type arguments.
func SmallBoxLayout(elem, inline *layout.TypeLayout) *layout.TypeLayout {
	fp := combineFingerprints("SmallBox", elem.ID.Fingerprint(), inline.ID.Fingerprint())
	return cachedLayout("SmallBox", fp, func() *layout.TypeLayout {
		vars := &layout.SharedVars{}
		nameRange := vars.PushString("SmallBox")
		children := vars.PushChildren(
			func() *layout.TypeLayout { return elem },
			func() *layout.TypeLayout { return inline },
		)

		size := inline.Mono.ReprSize + 8 // inline storage plus tag/pointer word
		align := inline.Mono.ReprAlign
		if align < 8 {
			align = 8
		}

		tl := layout.TypeLayout{
			Vars: vars,
			ID:   layout.NewUTypeId(nil, fp),
			Generic: layout.GenericLayout{
				ChildTypes:  children,
				DataVariant: layout.DataOpaque,
			},
			Mono: layout.MonoLayout{
				NameRange:       nameRange,
				ModulePathRange: layout.NewSpan(0, 0),
				ReprAttr:        layout.ReprC,
				ReprSize:        size,
				ReprAlign:       align,
				DataVariant:     layout.DataOpaque,
			},
		}
		return &tl
	})
}
