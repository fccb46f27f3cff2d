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

package layout

import (
	"fmt"
	"reflect"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// UTypeId is a process-wide stable identifier for a Go type as seen by
// sabi, used as the hash-table key for the dedup and memoisation maps in
// CheckingGlobals.
//
// The original source identifies a monomorphised type by the address of a
// function pointer: each generic instantiation gets its own copy of that
// function, so the address is unique per instantiation for the life of the
// process. Go does not monomorphise generic instantiations into distinct
// code addresses the same way, so sabi derives a UTypeId from two
// independent sources instead: the reflect.Type identity (stable and
// comparable within one process by construction) and a blake2b-128
// fingerprint over the type's structural description (name, module path,
// repr, and its field names),
// which lets two UTypeIds computed in two different processes — the host
// and a freshly dlopen'd provider — agree when, and only when, they
// describe the same declared type.
type UTypeId struct {
	reflect reflect.Type
	fp      [16]byte
}

// NewUTypeId derives a UTypeId from a reflect.Type and a precomputed
// structural fingerprint. cmd/sabigen computes the fingerprint once, at
// generation time, by hashing the MonoLayout's name, module path, repr
// attributes, and field name list; TypeLayout values constructed at
// runtime (e.g. for FFI container types) may compute it on first use via
// [Fingerprint].
func NewUTypeId(t reflect.Type, fp [16]byte) UTypeId {
	return UTypeId{reflect: t, fp: fp}
}

// Equal reports whether two UTypeIds identify the same type. Two UTypeIds
// from the same process are equal iff their reflect.Types are identical;
// across processes (host vs. a loaded provider), only the fingerprint is
// meaningful, since reflect.Type pointers are never shared across an FFI
// boundary — so Equal treats a same-process match on either field as
// sufficient, but a cross-process comparison must go through Fingerprint
// equality alone (see (*TypeLayout).SameType).
func (u UTypeId) Equal(o UTypeId) bool {
	if u.reflect != nil && o.reflect != nil && u.reflect == o.reflect {
		return true
	}
	return u.fp == o.fp
}

// Fingerprint returns this UTypeId's structural fingerprint, the part
// that's meaningful across a dynamic-library boundary.
func (u UTypeId) Fingerprint() [16]byte { return u.fp }

func (u UTypeId) String() string {
	if u.reflect != nil {
		return fmt.Sprintf("%s#%x", u.reflect, u.fp[:4])
	}
	return fmt.Sprintf("#%x", u.fp[:4])
}

// Fingerprint computes a UTypeId structural fingerprint from a type's
// identity components. It is deterministic across processes built from the
// same source, which is the property sabi actually needs: two builds of
// the same package, compiled independently (host and provider), must
// derive the same fingerprint for the same declared type.
func Fingerprint(modulePath, name string, repr ReprAttr, fieldNames []string) [16]byte {
	h, err := blake2b.New(16, nil)
	if err != nil {
		// blake2b.New only errors on an invalid key/size, and both are
		// fixed constants here.
		panic(err)
	}
	fmt.Fprintf(h, "%s\x00%s\x00%d\x00", modulePath, name, repr)
	for _, f := range fieldNames {
		fmt.Fprintf(h, "%s\x00", f)
	}
	var out [16]byte
	copy(out[:], h.Sum(nil))
	return out
}

// idCache memoises Fingerprint+NewUTypeId for a given reflect.Type, so that
// repeated calls to a package-level typeLayoutOf[T]() helper do not rehash
// on every call.
var idCache sync.Map // map[reflect.Type]UTypeId

// CachedUTypeId returns a memoised UTypeId for t, computing it with build
// the first time t is seen.
func CachedUTypeId(t reflect.Type, build func() UTypeId) UTypeId {
	if v, ok := idCache.Load(t); ok {
		return v.(UTypeId)
	}
	v, _ := idCache.LoadOrStore(t, build())
	return v.(UTypeId)
}
