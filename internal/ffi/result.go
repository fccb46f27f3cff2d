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

// RResult is an explicitly-laid-out, two-variant enum for an operation
// that either succeeds with a T or fails with an E, the container
// equivalent of a (T, error) return pair for use inside a checked struct
// field rather than a function's own return list.
type RResult[T, E any] struct {
	ok  bool
	val T
	err E
}

// ROk wraps value as a successful RResult.
func ROk[T, E any](value T) RResult[T, E] { return RResult[T, E]{ok: true, val: value} }

// RErr wraps err as a failed RResult.
func RErr[T, E any](err E) RResult[T, E] { return RResult[T, E]{err: err} }

// IsROk reports whether r holds a success value.
func (r RResult[T, E]) IsROk() bool { return r.ok }

// IsRErr reports whether r holds an error value.
func (r RResult[T, E]) IsRErr() bool { return !r.ok }

// Unwrap returns r's success value, panicking if r holds an error.
func (r RResult[T, E]) Unwrap() T {
	if !r.ok {
		panic("ffi: Unwrap called on a failed RResult")
	}
	return r.val
}

// UnwrapErr returns r's error value, panicking if r holds a success value.
func (r RResult[T, E]) UnwrapErr() E {
	if r.ok {
		panic("ffi: UnwrapErr called on a successful RResult")
	}
	return r.err
}

// IntoResult converts r to the built-in (value, error-ish) idiom: the
// returned T is its zero value when r is an error, and the returned bool
// reports whether r is a success.
func (r RResult[T, E]) IntoResult() (T, E, bool) { return r.val, r.err, r.ok }

const (
	rresultOkVariant  = 0
	rresultErrVariant = 1
)

// RResultLayout returns the canonical TypeLayout for RResult instantiated
// over the success type ok and the error type errType describe.
func RResultLayout(ok, errType *layout.TypeLayout) *layout.TypeLayout {
	fp := combineFingerprints("RResult", ok.ID.Fingerprint(), errType.ID.Fingerprint())
	return cachedLayout("RResult", fp, func() *layout.TypeLayout {
		vars := &layout.SharedVars{}
		nameRange := vars.PushString("RResult")
		variantNames := vars.PushString("ROk;RErr")
		childTypes := vars.PushChildren(
			func() *layout.TypeLayout { return ok },
			func() *layout.TypeLayout { return errType },
		)
		fields := vars.PushFields(
			layout.CompField{ChildIndex: int32(childTypes.Start()), Accessor: layout.AccessorDirect},
			layout.CompField{ChildIndex: int32(childTypes.Start() + 1), Accessor: layout.AccessorDirect},
		)
		discriminants := vars.PushVariants(
			layout.Discriminant{Kind: layout.DiscrU8, Value: rresultOkVariant},
			layout.Discriminant{Kind: layout.DiscrU8, Value: rresultErrVariant},
		)

		size := ok.Mono.ReprSize
		if errType.Mono.ReprSize > size {
			size = errType.Mono.ReprSize
		}
		align := ok.Mono.ReprAlign
		if errType.Mono.ReprAlign > align {
			align = errType.Mono.ReprAlign
		}

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
				ReprSize:        size + align,
				ReprAlign:       align,
				DataVariant:     layout.DataEnum,
				Enum: layout.MonoEnum{
					VariantNames:         variantNames,
					Discriminants:        discriminants,
					PerVariantFieldCount: []uint16{1, 1},
					FieldLayout:          fields,
					IsExhaustive:         true,
				},
			},
		}
		return &tl
	})
}
