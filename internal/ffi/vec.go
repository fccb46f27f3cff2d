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

// RVec is an explicitly-laid-out, owning, growable sequence of T, the
// container equivalent of Go's built-in slice for use in struct fields
// that cross a checked boundary.
type RVec[T any] struct {
	elems []T
}

// NewRVec wraps a Go slice as an RVec. elems is taken by reference, not
// copied.
func NewRVec[T any](elems []T) RVec[T] { return RVec[T]{elems: elems} }

// Slice returns v's elements as a Go slice.
func (v RVec[T]) Slice() []T { return v.elems }

// Len returns the number of elements in v.
func (v RVec[T]) Len() int { return len(v.elems) }

// Push appends value to v.
func (v *RVec[T]) Push(value T) { v.elems = append(v.elems, value) }

// RSlice is a non-owning, explicitly-laid-out view of a sequence of T: the
// container equivalent of a borrowed Go slice. It carries the same data as
// RVec but exists as a distinct type so an interface can require "a
// borrowed view is all I need" rather than implying ownership transfer.
type RSlice[T any] struct {
	elems []T
}

// NewRSlice wraps a Go slice as an RSlice.
func NewRSlice[T any](elems []T) RSlice[T] { return RSlice[T]{elems: elems} }

// Slice returns s's elements as a Go slice.
func (s RSlice[T]) Slice() []T { return s.elems }

// Len returns the number of elements in s.
func (s RSlice[T]) Len() int { return len(s.elems) }

// RVecLayout returns the canonical TypeLayout for RVec instantiated over
// the type elem describes, memoized by elem's fingerprint so that two
// fields typed RVec[Foo] always compare as the identical declared type.
func RVecLayout(elem *layout.TypeLayout) *layout.TypeLayout {
	return sequenceLayout("RVec", elem)
}

// RSliceLayout returns the canonical TypeLayout for RSlice instantiated
// over elem, analogous to [RVecLayout].
func RSliceLayout(elem *layout.TypeLayout) *layout.TypeLayout {
	return sequenceLayout("RSlice", elem)
}

func sequenceLayout(kind string, elem *layout.TypeLayout) *layout.TypeLayout {
	fp := combineFingerprints(kind, elem.ID.Fingerprint())
	return cachedLayout(kind, fp, func() *layout.TypeLayout {
		vars := &layout.SharedVars{}
		nameRange := vars.PushString(kind)
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
				ReprSize:        24,
				ReprAlign:       8,
				DataVariant:     layout.DataOpaque,
			},
		}
		return &tl
	})
}
