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

//go:build debug

package debug

import (
	"sync"

	"github.com/timandy/routine"
)

// logger is the subset of *testing.T that [Log] needs.
type logger interface {
	Log(args ...any)
}

var tlsLoggers = struct {
	mu sync.RWMutex
	m  map[int64]logger
}{m: make(map[int64]logger)}

// tls is the goroutine-local registry of test loggers, keyed by goroutine id
// via [routine.Goid]. It lets [Log] forward output to the running test's
// t.Log instead of stderr, without threading a *testing.T through every call.
var tls tlsAccessor

type tlsAccessor struct{}

// Get returns the logger registered for the calling goroutine, if any.
func (tlsAccessor) Get() logger {
	tlsLoggers.mu.RLock()
	defer tlsLoggers.mu.RUnlock()
	return tlsLoggers.m[routine.Goid()]
}

// SetT registers t as the logger for the calling goroutine's debug output,
// for the duration of the current test. Call the returned func to undo it.
func SetT(t logger) (unset func()) {
	id := routine.Goid()

	tlsLoggers.mu.Lock()
	tlsLoggers.m[id] = t
	tlsLoggers.mu.Unlock()

	return func() {
		tlsLoggers.mu.Lock()
		delete(tlsLoggers.m, id)
		tlsLoggers.mu.Unlock()
	}
}
