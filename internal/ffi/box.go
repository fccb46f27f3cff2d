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

import "buf.build/go/sabi/internal/layout"

// RBox is a single explicitly-laid-out heap pointer to a T, the container
// equivalent of a Rust Box<T> for use in a struct field that must own an
// indirection rather than an inline value, independent of Go's own
// pointer representation.
type RBox[T any] struct {
	ptr *T
}

// NewRBox heap-allocates value and returns an RBox owning it.
func NewRBox[T any](value T) RBox[T] {
	v := new(T)
	*v = value
	return RBox[T]{ptr: v}
}

// Get returns a pointer to b's boxed value.
func (b RBox[T]) Get() *T { return b.ptr }

// Into returns b's boxed value by copy.
func (b RBox[T]) Into() T { return *b.ptr }

// RBoxLayout returns the canonical TypeLayout for RBox instantiated over
// the type elem describes. A box is a bare pointer regardless of elem, so
// its own size and alignment never depend on elem's — only its identity
// does, since RBox[Foo] and RBox[Bar] must not compare equal.
func RBoxLayout(elem *layout.TypeLayout) *layout.TypeLayout {
	fp := combineFingerprints("RBox", elem.ID.Fingerprint())
	return cachedLayout("RBox", fp, func() *layout.TypeLayout {
		vars := &layout.SharedVars{}
		nameRange := vars.PushString("RBox")
		children := vars.PushChildren(func() *layout.TypeLayout { return elem })
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
				ReprSize:        8,
				ReprAlign:       8,
				DataVariant:     layout.DataOpaque,
			},
		}
		return &tl
	})
}
