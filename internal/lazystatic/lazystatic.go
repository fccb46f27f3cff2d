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

// Package lazystatic provides a generic, once-initialized package-level
// value, for state that must exist exactly once per process (a registry, a
// default pool) but whose construction shouldn't run at package-init time,
// either because it's not free or because it depends on flags/environment
// not yet settled during init().
package lazystatic

import "sync"

// Ref is a lazily-constructed, process-wide singleton of T. The zero Ref is
// ready to use; declare one as a package-level var and call Get.
type Ref[T any] struct {
	once  sync.Once
	value T
}

// Get returns the singleton value, calling build to construct it the first
// time Get is called on this Ref. Concurrent callers block until the first
// caller's build returns.
func (r *Ref[T]) Get(build func() T) T {
	r.once.Do(func() { r.value = build() })
	return r.value
}
