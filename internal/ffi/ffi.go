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

// Package ffi provides explicitly-laid-out, generic container types for
// values that cross a checked library boundary: an RVec or ROption built
// over a user type carries a TypeLayout the same way a //sabi:layout
// struct generated by cmd/sabigen does, so that a field of interface type
// RVec[Foo] is checked against a field of implementation type RVec[Foo]
// the same structural way any other field is.
//
// cmd/sabigen only scans concrete, declared package types, so it cannot
// emit these layouts itself — every container type here builds and
// memoizes its own TypeLayout by hand, the same pattern
// internal/layout/primitives.go uses for primitive kinds.
package ffi

import (
	"sync"

	"buf.build/go/sabi/internal/layout"
)

// cacheKey identifies one container instantiation: a container kind name
// (e.g. "RVec") plus the structural fingerprint of its type argument(s).
type cacheKey struct {
	kind string
	fp   [16]byte
}

var layoutCache sync.Map // map[cacheKey]*layout.TypeLayout

// cachedLayout returns the memoized TypeLayout for one container
// instantiation, building it with build on first use. Every call for the
// same (kind, fp) pair returns the identical *TypeLayout, which matters
// because two fields of the same instantiated container type must
// compare as the same declared type during a check.
func cachedLayout(kind string, fp [16]byte, build func() *layout.TypeLayout) *layout.TypeLayout {
	key := cacheKey{kind, fp}
	if v, ok := layoutCache.Load(key); ok {
		return v.(*layout.TypeLayout)
	}
	v, _ := layoutCache.LoadOrStore(key, build())
	return v.(*layout.TypeLayout)
}

// combineFingerprints folds one or more element fingerprints into a
// single fingerprint for a container instantiated over them, using the
// same hash cmd/sabigen uses for declared types so a container's identity
// is just as stable across independently-compiled processes as any other
// type's.
func combineFingerprints(container string, fps ...[16]byte) [16]byte {
	names := make([]string, len(fps))
	for i, fp := range fps {
		names[i] = string(fp[:])
	}
	return layout.Fingerprint("buf.build/go/sabi/internal/ffi", container, layout.ReprC, names)
}
