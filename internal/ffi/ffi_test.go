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

package ffi_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buf.build/go/sabi/internal/check"
	"buf.build/go/sabi/internal/ffi"
	"buf.build/go/sabi/internal/layout"
)

func TestRString(t *testing.T) {
	t.Parallel()

	s := ffi.RString("hello")
	assert.Equal(t, "hello", s.String())
	assert.Same(t, ffi.RStringLayout(), ffi.RStringLayout())
}

func TestRVec(t *testing.T) {
	t.Parallel()

	v := ffi.NewRVec([]int{1, 2, 3})
	assert.Equal(t, 3, v.Len())
	v.Push(4)
	assert.Equal(t, []int{1, 2, 3, 4}, v.Slice())
}

func TestRVecLayoutIdentity(t *testing.T) {
	t.Parallel()

	a := ffi.RVecLayout(ffi.RStringLayout())
	b := ffi.RVecLayout(ffi.RStringLayout())
	assert.Same(t, a, b, "two RVec[RString] layouts should be the same instantiation")

	other := ffi.RSliceLayout(ffi.RStringLayout())
	assert.NotSame(t, a, other, "RVec and RSlice must not share an identity despite sharing an element type")
}

func TestRVecLayoutChecksElementType(t *testing.T) {
	t.Parallel()

	iface := ffi.RVecLayout(ffi.RStringLayout())
	impl := ffi.RVecLayout(intElemLayout(t))

	errs := check.Check(iface, impl, check.NewGlobals())
	require.NotNil(t, errs, "RVec[RString] must not be compatible with RVec[int]")
}

func TestROption(t *testing.T) {
	t.Parallel()

	some := ffi.RSome(42)
	assert.True(t, some.IsRSome())
	assert.False(t, some.IsRNone())
	assert.Equal(t, 42, some.Unwrap())

	none := ffi.RNone[int]()
	assert.True(t, none.IsRNone())
	assert.Equal(t, 7, none.UnwrapOr(7))
	assert.Panics(t, func() { none.Unwrap() })

	v, ok := some.IntoOption()
	assert.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestRResult(t *testing.T) {
	t.Parallel()

	ok := ffi.ROk[int, string](10)
	assert.True(t, ok.IsROk())
	assert.Equal(t, 10, ok.Unwrap())
	assert.Panics(t, func() { ok.UnwrapErr() })

	bad := ffi.RErr[int, string]("boom")
	assert.True(t, bad.IsRErr())
	assert.Equal(t, "boom", bad.UnwrapErr())
	assert.Panics(t, func() { bad.Unwrap() })
}

func TestRBox(t *testing.T) {
	t.Parallel()

	b := ffi.NewRBox("owned")
	assert.Equal(t, "owned", b.Into())
	*b.Get() = "mutated"
	assert.Equal(t, "mutated", b.Into())
}

func TestRCow(t *testing.T) {
	t.Parallel()

	borrowed := ffi.RBorrowed("shared")
	assert.False(t, borrowed.IsOwned())

	owned := ffi.ROwned("mine")
	assert.True(t, owned.IsOwned())
	assert.Equal(t, "mine", owned.Get())
}

func TestSmallBoxInline(t *testing.T) {
	t.Parallel()

	type inline [8]byte
	b := ffi.NewSmallBox[int32, inline](7)
	assert.True(t, b.IsInline())
	assert.EqualValues(t, 7, *b.Get())
}

func TestSmallBoxOverflow(t *testing.T) {
	t.Parallel()

	type inline [1]byte
	value := [32]byte{1, 2, 3}
	b := ffi.NewSmallBox[[32]byte, inline](value)
	assert.False(t, b.IsInline())
	assert.Equal(t, value, *b.Get())
}

func intElemLayout(t *testing.T) *layout.TypeLayout {
	t.Helper()
	return layout.PrimitiveLayout(layout.PrimInt64)
}
