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

// ROption is an explicitly-laid-out, two-variant enum standing in for a
// value that may be absent across a checked boundary. Go's nil-ability
// doesn't cover value types, and a bare (T, bool) pair has no TypeLayout
// of its own to check, so ROption carries both the tag and an explicit
// enum layout.
type ROption[T any] struct {
	some  bool
	value T
}

// RSome wraps value as a present ROption.
func RSome[T any](value T) ROption[T] { return ROption[T]{some: true, value: value} }

// RNone returns an absent ROption.
func RNone[T any]() ROption[T] { return ROption[T]{} }

// IsRSome reports whether o holds a value.
func (o ROption[T]) IsRSome() bool { return o.some }

// IsRNone reports whether o is absent.
func (o ROption[T]) IsRNone() bool { return !o.some }

// AsPtr returns a pointer to o's value, or nil if o is absent.
func (o *ROption[T]) AsPtr() *T {
	if !o.some {
		return nil
	}
	return &o.value
}

// Unwrap returns o's value, panicking if o is absent.
func (o ROption[T]) Unwrap() T {
	if !o.some {
		panic("ffi: Unwrap called on an absent ROption")
	}
	return o.value
}

// UnwrapOr returns o's value, or def if o is absent.
func (o ROption[T]) UnwrapOr(def T) T {
	if o.some {
		return o.value
	}
	return def
}

// IntoOption converts o to the built-in (value, ok) idiom.
func (o ROption[T]) IntoOption() (T, bool) { return o.value, o.some }

const (
	roptionNoneVariant = 0
	roptionSomeVariant = 1
)

// ROptionLayout returns the canonical TypeLayout for ROption instantiated
// over the type elem describes.
func ROptionLayout(elem *layout.TypeLayout) *layout.TypeLayout {
	fp := combineFingerprints("ROption", elem.ID.Fingerprint())
	return cachedLayout("ROption", fp, func() *layout.TypeLayout {
		vars := &layout.SharedVars{}
		nameRange := vars.PushString("ROption")
		variantNames := vars.PushString("RNone;RSome")
		childTypes := vars.PushChildren(func() *layout.TypeLayout { return elem })
		fields := vars.PushFields(layout.CompField{
			ChildIndex: int32(childTypes.Start()),
			Accessor:   layout.AccessorDirect,
		})
		discriminants := vars.PushVariants(
			layout.Discriminant{Kind: layout.DiscrU8, Value: roptionNoneVariant},
			layout.Discriminant{Kind: layout.DiscrU8, Value: roptionSomeVariant},
		)

		tl := layout.TypeLayout{
			Vars: vars,
			ID:   layout.NewUTypeId(nil, fp),
			Generic: layout.GenericLayout{
				ChildTypes:  childTypes,
				DataVariant: layout.DataEnum,
			},
			Mono: layout.MonoLayout{
				NameRange:       nameRange,
				ModulePathRange: layout.NewSpan(0, 0),
				ReprAttr:        layout.ReprC,
				ReprSize:        elem.Mono.ReprSize + elem.Mono.ReprAlign,
				ReprAlign:       elem.Mono.ReprAlign,
				DataVariant:     layout.DataEnum,
				Enum: layout.MonoEnum{
					VariantNames:         variantNames,
					Discriminants:        discriminants,
					PerVariantFieldCount: []uint16{0, 1},
					FieldLayout:          fields,
					IsExhaustive:         true,
				},
			},
		}
		return &tl
	})
}
