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

// Package extern holds FFI-safe equivalents of platform or runtime
// primitives that have no stable cross-compiler representation of their
// own, starting with a mutex that can guard a value living inside a
// checked struct field.
package extern

import (
	"sync"
	"time"

	"buf.build/go/sabi/internal/layout"
)

// Mutex guards a T the way sync.Mutex guards nothing in particular: Lock
// returns a Guard rather than requiring a separately-declared value,
// matching the field-carries-the-lock shape a struct crossing a checked
// boundary needs instead of a bare sync.Mutex living beside the data it
// protects.
type Mutex[T any] struct {
	mu    sync.Mutex
	value T
}

// NewMutex constructs a Mutex wrapping value.
func NewMutex[T any](value T) *Mutex[T] {
	return &Mutex[T]{value: value}
}

// Guard is held while a Mutex's value is locked; Unlock releases it.
// Unlike a Rust RAII guard, nothing calls Unlock automatically -- the
// caller must do so, typically via defer.
type Guard[T any] struct {
	m *Mutex[T]
}

// Value returns a pointer to the guarded value. Valid only while the
// guard is held.
func (g Guard[T]) Value() *T { return &g.m.value }

// Unlock releases the mutex. Calling it twice, or after the mutex has
// already been unlocked by some other guard, panics the same way
// sync.Mutex.Unlock of an unlocked mutex does.
func (g Guard[T]) Unlock() { g.m.mu.Unlock() }

// Lock blocks until m is acquired, then returns a Guard over its value.
func (m *Mutex[T]) Lock() Guard[T] {
	m.mu.Lock()
	return Guard[T]{m: m}
}

// TryLock attempts to acquire m without blocking, returning ok=false if it
// is already held.
func (m *Mutex[T]) TryLock() (g Guard[T], ok bool) {
	if !m.mu.TryLock() {
		return Guard[T]{}, false
	}
	return Guard[T]{m: m}, true
}

// TryLockFor attempts to acquire m, polling until timeout elapses.
func (m *Mutex[T]) TryLockFor(timeout time.Duration) (g Guard[T], ok bool) {
	deadline := time.Now().Add(timeout)
	const pollInterval = 200 * time.Microsecond
	for {
		if g, ok := m.TryLock(); ok {
			return g, true
		}
		if time.Now().After(deadline) {
			return Guard[T]{}, false
		}
		time.Sleep(pollInterval)
	}
}

// MutexLayout returns the canonical TypeLayout for Mutex instantiated over
// the type elem describes. A Mutex is opaque: nothing outside this package
// reaches into its bytes, so no fields are compared; the checker compares
// its size, its alignment and its element type argument.
func MutexLayout(elem *layout.TypeLayout) *layout.TypeLayout {
	fp := combineFingerprint(elem.ID.Fingerprint())
	if v, ok := mutexLayoutCache.Load(fp); ok {
		return v.(*layout.TypeLayout)
	}

	vars := &layout.SharedVars{}
	nameRange := vars.PushString("Mutex")
	children := vars.PushChildren(func() *layout.TypeLayout { return elem })
	tl := &layout.TypeLayout{
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
			ReprSize:        elem.Mono.ReprSize + 8,
			ReprAlign:       max8(elem.Mono.ReprAlign),
			DataVariant:     layout.DataOpaque,
		},
	}
	actual, _ := mutexLayoutCache.LoadOrStore(fp, tl)
	return actual.(*layout.TypeLayout)
}

// mutexLayoutCache memoizes MutexLayout by element fingerprint so two
// Mutex[Foo] fields compare as the identical declared type, the same
// reason internal/ffi's container layouts are memoized.
var mutexLayoutCache sync.Map // map[[16]byte]*layout.TypeLayout

func max8(align uint64) uint64 {
	if align < 8 {
		return 8
	}
	return align
}

func combineFingerprint(elemFP [16]byte) [16]byte {
	return layout.Fingerprint("buf.build/go/sabi/internal/extern", "Mutex", layout.ReprC, []string{string(elemFP[:])})
}
