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

package sabi

import (
	"reflect"

	"buf.build/go/sabi/internal/lazystatic"
	"buf.build/go/sabi/internal/layout"
	"buf.build/go/sabi/internal/xsync"
)

// registry is this process's UTypeId -> *TypeLayout map: every type
// cmd/sabigen generated code for in this binary registers itself here at
// package-init time, via [RegisterLayout]. Built lazily, on the first
// RegisterLayout or LookupLayout call.
var registry lazystatic.Ref[*xsync.Map[[16]byte, *TypeLayout]]

func registryMap() *xsync.Map[[16]byte, *TypeLayout] {
	return registry.Get(func() *xsync.Map[[16]byte, *TypeLayout] {
		return new(xsync.Map[[16]byte, *TypeLayout])
	})
}

// RegisterLayout records tl under id in the process-global layout registry.
// Called from the init function of a cmd/sabigen-generated file; not meant
// to be called directly by hand-written code.
func RegisterLayout(id UTypeId, tl *TypeLayout) {
	registryMap().Store(id.Fingerprint(), tl)
}

// LookupLayout returns the TypeLayout registered under id in this process,
// if any. A provider's Construct function uses this to resolve a field's
// child TypeLayout by UTypeId without needing a direct Go import of the
// field's declaring package.
func LookupLayout(id UTypeId) (*TypeLayout, bool) {
	return registryMap().Load(id.Fingerprint())
}

// NewUTypeIdFor derives the UTypeId for Go type T from an already-built
// TypeLayout describing it, memoising the result per reflect.Type so that
// repeated calls (e.g. from multiple init funcs referencing the same
// generic instantiation) do not rehash.
func NewUTypeIdFor[T any](tl *TypeLayout) UTypeId {
	rt := reflect.TypeFor[T]()
	return layout.CachedUTypeId(rt, func() layout.UTypeId {
		var fieldNames []string
		if tl.Mono.DataVariant == layout.DataStruct || tl.Mono.DataVariant == layout.DataUnion || tl.Mono.DataVariant == layout.DataPrefix {
			for _, f := range tl.Mono.FieldList(tl.Vars) {
				fieldNames = append(fieldNames, f.Name(tl.Vars))
			}
		}
		fp := layout.Fingerprint(tl.ModulePath(), tl.Name(), tl.Mono.ReprAttr, fieldNames)
		return layout.NewUTypeId(rt, fp)
	})
}
