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

package check_test

import (
	"strings"

	"buf.build/go/sabi/internal/check"
	"buf.build/go/sabi/internal/layout"
)

// testField describes one field for the struct/prefix/enum-variant
// builders below to push into a fresh SharedVars.
type testField struct {
	name        string
	child       *layout.TypeLayout
	lifetimes   layout.LifetimeRange
	funcPointer bool
	functions   []layout.FunctionLayout
}

func field(name string, child *layout.TypeLayout) testField {
	return testField{name: name, child: child}
}

func fieldWithLifetimes(name string, child *layout.TypeLayout, lts layout.LifetimeRange) testField {
	return testField{name: name, child: child, lifetimes: lts}
}

func funcField(name string, child *layout.TypeLayout, lts layout.LifetimeRange, fns ...layout.FunctionLayout) testField {
	return testField{name: name, child: child, lifetimes: lts, funcPointer: true, functions: fns}
}

func fieldNames(defs []testField) []string {
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.name
	}
	return names
}

// pushFields renders defs into vars, returning the resulting Fields span.
// Each field's child getter closes over a per-iteration local so that a
// self-referential def (child pointing back at the type under
// construction) captures the right, already-assigned variable.
func pushFields(vars *layout.SharedVars, defs []testField) layout.Span {
	fields := make([]layout.CompField, len(defs))
	for i, d := range defs {
		nameRange := vars.PushString(d.name)
		child := d.child
		childIdx := vars.PushChildren(func() *layout.TypeLayout { return child })
		cf := layout.CompField{
			NameRange:  nameRange,
			ChildIndex: int32(childIdx.Start()),
			Accessor:   layout.AccessorDirect,
			Lifetimes:  d.lifetimes,
		}
		if d.funcPointer {
			cf.IsFuncPointer = true
			cf.Functions = vars.PushFunctions(d.functions...)
		}
		fields[i] = cf
	}
	return vars.PushFields(fields...)
}

// newStruct builds a minimal DataStruct fixture TypeLayout.
func newStruct(name string, repr layout.ReprAttr, size, align uint64, defs ...testField) *layout.TypeLayout {
	vars := &layout.SharedVars{}
	nameRange := vars.PushString(name)
	fieldsSpan := pushFields(vars, defs)
	fp := layout.Fingerprint("test/pkg", name, repr, fieldNames(defs))
	return &layout.TypeLayout{
		Vars: vars,
		ID:   layout.NewUTypeId(nil, fp),
		Mono: layout.MonoLayout{
			NameRange:       nameRange,
			ModulePathRange: layout.NewSpan(0, 0),
			ReprAttr:        repr,
			ReprSize:        size,
			ReprAlign:       align,
			DataVariant:     layout.DataStruct,
			Fields:          fieldsSpan,
		},
		Generic: layout.GenericLayout{DataVariant: layout.DataStruct},
	}
}

// newStructNamed is newStruct but with an explicit module path, used where
// a test needs two fixtures with the same name but different packages.
func newStructNamed(modulePath, name string, repr layout.ReprAttr, size, align uint64, defs ...testField) *layout.TypeLayout {
	tl := newStruct(name, repr, size, align, defs...)
	tl.Mono.ModulePathRange = tl.Vars.PushString(modulePath)
	return tl
}

// enumVariant pairs a variant name with its discriminant and fields.
type enumVariant struct {
	name         string
	discriminant layout.Discriminant
	fields       []testField
}

// newEnum builds a minimal DataEnum fixture TypeLayout.
func newEnum(name string, repr layout.ReprAttr, size, align uint64, exhaustive bool, nonExhaustive layout.NonExhaustiveInfo, variants ...enumVariant) *layout.TypeLayout {
	vars := &layout.SharedVars{}
	nameRange := vars.PushString(name)

	names := make([]string, len(variants))
	discrs := make([]layout.Discriminant, len(variants))
	perCount := make([]uint16, len(variants))
	var allFields []layout.CompField
	for i, v := range variants {
		names[i] = v.name
		discrs[i] = v.discriminant
		perCount[i] = uint16(len(v.fields))
		for _, d := range v.fields {
			fnRange := vars.PushString(d.name)
			child := d.child
			childIdx := vars.PushChildren(func() *layout.TypeLayout { return child })
			allFields = append(allFields, layout.CompField{
				NameRange:  fnRange,
				ChildIndex: int32(childIdx.Start()),
				Accessor:   layout.AccessorDirect,
			})
		}
	}
	variantNames := vars.PushString(strings.Join(names, ";"))
	discrSpan := vars.PushVariants(discrs...)
	fieldsSpan := vars.PushFields(allFields...)

	fp := layout.Fingerprint("test/pkg", name, repr, names)
	return &layout.TypeLayout{
		Vars: vars,
		ID:   layout.NewUTypeId(nil, fp),
		Mono: layout.MonoLayout{
			NameRange:       nameRange,
			ModulePathRange: layout.NewSpan(0, 0),
			ReprAttr:        repr,
			ReprSize:        size,
			ReprAlign:       align,
			DataVariant:     layout.DataEnum,
			Enum: layout.MonoEnum{
				VariantNames:         variantNames,
				Discriminants:        discrSpan,
				PerVariantFieldCount: perCount,
				FieldLayout:          fieldsSpan,
				IsExhaustive:         exhaustive,
				NonExhaustive:        nonExhaustive,
			},
		},
		Generic: layout.GenericLayout{DataVariant: layout.DataEnum},
	}
}

// newPrefix builds a minimal DataPrefix fixture TypeLayout.
func newPrefix(
	name string, repr layout.ReprAttr, size, align uint64,
	firstNonPrefix int, conditional layout.AccessibilityBitmap, policies []layout.MissingFieldPolicy,
	defs ...testField,
) *layout.TypeLayout {
	vars := &layout.SharedVars{}
	nameRange := vars.PushString(name)
	fieldsSpan := pushFields(vars, defs)
	fp := layout.Fingerprint("test/pkg", name, repr, fieldNames(defs))
	return &layout.TypeLayout{
		Vars: vars,
		ID:   layout.NewUTypeId(nil, fp),
		Mono: layout.MonoLayout{
			NameRange:       nameRange,
			ModulePathRange: layout.NewSpan(0, 0),
			ReprAttr:        repr,
			ReprSize:        size,
			ReprAlign:       align,
			DataVariant:     layout.DataPrefix,
			Fields:          fieldsSpan,
			Prefix: layout.MonoPrefix{
				FirstNonPrefixFieldIndex: firstNonPrefix,
				ConditionalFields:        conditional,
				Policies:                 policies,
			},
		},
		Generic: layout.GenericLayout{DataVariant: layout.DataPrefix},
	}
}

// leafKinds flattens every leaf Kind reported across all nodes of errs, for
// tests that only care whether a particular Kind was reported somewhere.
func leafKinds(errs *check.Errors) []check.Kind {
	if errs == nil {
		return nil
	}
	var out []check.Kind
	for _, n := range errs.Nodes {
		for _, l := range n.Leaves {
			out = append(out, l.Kind)
		}
	}
	return out
}

func containsKind(errs *check.Errors, want check.Kind) bool {
	for _, k := range leafKinds(errs) {
		if k == want {
			return true
		}
	}
	return false
}
