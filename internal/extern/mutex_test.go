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

package extern_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"buf.build/go/sabi/internal/extern"
	"buf.build/go/sabi/internal/layout"
)

func TestMutexLockUnlock(t *testing.T) {
	t.Parallel()

	m := extern.NewMutex(0)
	g := m.Lock()
	*g.Value() = 5
	g.Unlock()

	g = m.Lock()
	assert.Equal(t, 5, *g.Value())
	g.Unlock()
}

func TestMutexConcurrentIncrement(t *testing.T) {
	t.Parallel()

	m := extern.NewMutex(0)
	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g := m.Lock()
			*g.Value()++
			g.Unlock()
		}()
	}
	wg.Wait()

	g := m.Lock()
	defer g.Unlock()
	assert.Equal(t, 100, *g.Value())
}

func TestMutexTryLock(t *testing.T) {
	t.Parallel()

	m := extern.NewMutex("x")
	held := m.Lock()

	_, ok := m.TryLock()
	assert.False(t, ok, "TryLock must fail while already held")

	held.Unlock()

	g, ok := m.TryLock()
	assert.True(t, ok)
	g.Unlock()
}

func TestMutexTryLockFor(t *testing.T) {
	t.Parallel()

	m := extern.NewMutex(0)
	held := m.Lock()

	_, ok := m.TryLockFor(10 * time.Millisecond)
	assert.False(t, ok, "TryLockFor must time out while held")

	held.Unlock()

	g, ok := m.TryLockFor(10 * time.Millisecond)
	assert.True(t, ok)
	g.Unlock()
}

func TestMutexLayoutIdentity(t *testing.T) {
	t.Parallel()

	elem := layout.PrimitiveLayout(layout.PrimInt64)
	a := extern.MutexLayout(elem)
	b := extern.MutexLayout(elem)
	assert.Same(t, a, b, "two Mutex[int64] layouts should be the same instantiation")
}
