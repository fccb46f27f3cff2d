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

// primVars backs every canonical primitive TypeLayout. It holds nothing
// but their names: a primitive has no fields, no children, and no
// variants of its own, so every other pool stays empty.
var primVars = &SharedVars{}

const primModulePath = "buf.build/go/sabi/internal/layout"

type primSpec struct {
	name  string
	size  uint64
	align uint64
}

var primSpecs = map[Primitive]primSpec{
	PrimInvalid:     {"invalid", 0, 1},
	PrimBool:        {"bool", 1, 1},
	PrimInt8:        {"int8", 1, 1},
	PrimInt16:       {"int16", 2, 2},
	PrimInt32:       {"int32", 4, 4},
	PrimInt64:       {"int64", 8, 8},
	PrimUint8:       {"uint8", 1, 1},
	PrimUint16:      {"uint16", 2, 2},
	PrimUint32:      {"uint32", 4, 4},
	PrimUint64:      {"uint64", 8, 8},
	PrimFloat32:     {"float32", 4, 4},
	PrimFloat64:     {"float64", 8, 8},
	PrimPointer:     {"pointer", 8, 8},
	PrimFuncPointer: {"funcpointer", 8, 8},
}

// primLayouts holds one canonical, process-wide *TypeLayout per Primitive
// kind. Every CompField naming a primitive type points its ChildIndex at
// one of these through a [PrimitiveChildGetter], rather than each scanned
// field minting its own — there is exactly one "int32" regardless of how
// many struct fields across a provider happen to be int32.
var primLayouts = buildPrimLayouts()

func buildPrimLayouts() map[Primitive]*TypeLayout {
	out := make(map[Primitive]*TypeLayout, len(primSpecs))
	for p, spec := range primSpecs {
		nameRange := primVars.PushString(spec.name)
		out[p] = &TypeLayout{
			Vars: primVars,
			ID:   NewUTypeId(nil, Fingerprint(primModulePath, spec.name, ReprC, nil)),
			Mono: MonoLayout{
				NameRange:       nameRange,
				ModulePathRange: NewSpan(0, 0),
				ReprAttr:        ReprC,
				ReprSize:        spec.size,
				ReprAlign:       spec.align,
				DataVariant:     DataPrimitive,
				Primitive:       p,
			},
		}
	}
	return out
}

// PrimitiveLayout returns the canonical TypeLayout describing primitive
// kind p.
func PrimitiveLayout(p Primitive) *TypeLayout {
	if tl, ok := primLayouts[p]; ok {
		return tl
	}
	return primLayouts[PrimInvalid]
}

// PrimitiveChildGetter returns a [ChildGetter] resolving to p's canonical
// TypeLayout, suitable for a CompField's SharedVars.Children entry.
func PrimitiveChildGetter(p Primitive) ChildGetter {
	return func() *TypeLayout { return PrimitiveLayout(p) }
}
