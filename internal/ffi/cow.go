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

// RCow holds a T that may or may not be the field's sole owner. Rust's
// Cow<T> exists to defer a clone until the value is actually mutated; Go
// has no borrow checker forcing that distinction; RCow keeps the same
// field type either way so an interface can still declare "this field
// might be borrowed" without Go ever enforcing it, and owned is preserved
// purely as a documentation/intent marker checked only by convention.
type RCow[T any] struct {
	value T
	owned bool
}

// RBorrowed wraps value as a non-owning RCow.
func RBorrowed[T any](value T) RCow[T] { return RCow[T]{value: value, owned: false} }

// ROwned wraps value as an owning RCow.
func ROwned[T any](value T) RCow[T] { return RCow[T]{value: value, owned: true} }

// IsOwned reports whether c was constructed as owning its value.
func (c RCow[T]) IsOwned() bool { return c.owned }

// Get returns c's value.
func (c RCow[T]) Get() T { return c.value }

// RCowLayout returns the canonical TypeLayout for RCow instantiated over
// the type elem describes. Layout-wise RCow is just elem plus a tag, so it
// borrows elem's size rounded up to include that tag rather than
// inventing a separate representation.
func RCowLayout(elem *layout.TypeLayout) *layout.TypeLayout {
	fp := combineFingerprints("RCow", elem.ID.Fingerprint())
	return cachedLayout("RCow", fp, func() *layout.TypeLayout {
		vars := &layout.SharedVars{}
		nameRange := vars.PushString("RCow")
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
				ReprSize:        elem.Mono.ReprSize + elem.Mono.ReprAlign,
				ReprAlign:       elem.Mono.ReprAlign,
				DataVariant:     layout.DataOpaque,
			},
		}
		return &tl
	})
}
