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

package check

import (
	"fmt"

	"buf.build/go/sabi/internal/layout"
)

// checkData dispatches on DataVariant, implementing §4.3 step 5. It only
// runs when both sides agree on the variant's broad shape; a mismatch
// there (struct vs enum, say) is reported once and nothing underneath is
// compared, since there's no sensible positional correspondence left.
func checkData(iface, impl *layout.TypeLayout, g *Globals, r *reporter) {
	if iface.Mono.DataVariant != impl.Mono.DataVariant {
		r.report(TLDataDiscriminant, iface.Mono.DataVariant, impl.Mono.DataVariant, "")
		return
	}

	switch iface.Mono.DataVariant {
	case layout.DataPrimitive:
		if iface.Mono.Primitive != impl.Mono.Primitive {
			r.report(MismatchedPrimitive, iface.Mono.Primitive, impl.Mono.Primitive, "")
		}
	case layout.DataOpaque:
		// Size/alignment/non-zeroness, already checked in checkShallow,
		// are sufficient for an opaque type.
	case layout.DataStruct, layout.DataUnion:
		ifaceFields := iface.Mono.FieldList(iface.Vars)
		implFields := impl.Mono.FieldList(impl.Vars)
		if iface.Mono.ReprAttr == layout.ReprTransparent && impl.Mono.ReprAttr == layout.ReprTransparent {
			// A transparent struct's zero-sized fields (padding markers,
			// PhantomData-equivalents) carry no runtime meaning and need
			// not line up positionally or in count between the two sides;
			// only the single field actually contributing to the type's
			// layout — the transparency target — has to structurally
			// agree, per §8's "additional fields are zero-sized" rule.
			checkTransparentFields(ifaceFields, implFields, iface, impl, g, r)
			return
		}
		checkFields(ifaceFields, implFields, iface, impl, g, r)
	case layout.DataEnum:
		checkEnum(iface, impl, g, r)
	case layout.DataPrefix:
		checkPrefix(iface, impl, g, r)
	}
}

// checkFields walks two field lists positionally, per §4.3 step 5's
// Struct/Union rule: field count must match, and for each index, names
// (unless both anonymous), lifetimes, child type, and accessor kind must
// agree.
func checkFields(ifaceFields, implFields []layout.CompField, iface, impl *layout.TypeLayout, g *Globals, r *reporter) {
	if len(ifaceFields) != len(implFields) {
		r.report(FieldCountMismatch, len(ifaceFields), len(implFields), "")
		return
	}

	for i := range ifaceFields {
		fi, fo := ifaceFields[i], implFields[i]
		checkField(i, fi, fo, iface, impl, g, r)
	}
}

func checkField(index int, fi, fo layout.CompField, iface, impl *layout.TypeLayout, g *Globals, r *reporter) {
	ni, no := fi.Name(iface.Vars), fo.Name(impl.Vars)
	isTuplePos := ni == "" && no == ""

	pop := r.push(PathStep{Kind: PathField, Name: fieldPathName(ni, index)})
	defer pop()

	if !isTuplePos && ni != no {
		r.report(UnexpectedField, ni, no, "")
	}

	if fi.Accessor != fo.Accessor {
		r.report(UnexpectedField, fi.Accessor, fo.Accessor, "accessor kind differs for field "+fieldPathName(ni, index))
	}

	if !lifetimesCompatible(fi.Lifetimes, fo.Lifetimes, iface.Vars, impl.Vars) {
		r.report(FieldLifetimeMismatch, ni, no, "")
	}

	checkPair(fi.Child(iface.Vars), fo.Child(impl.Vars), g, r)

	if fi.IsFuncPointer || fo.IsFuncPointer {
		if fi.IsFuncPointer != fo.IsFuncPointer {
			r.report(FnQualifierMismatch, fi.IsFuncPointer, fo.IsFuncPointer, "is-function-pointer differs for field "+fieldPathName(ni, index))
			return
		}
		checkFunctions(fi.FunctionList(iface.Vars), fo.FunctionList(impl.Vars), iface, impl, g, r)
	}
}

// targetField pairs a field with its position in its owning field list.
type targetField struct {
	index int
	field layout.CompField
}

// nonZeroField locates the one field in fields whose child type has
// non-zero size, the transparency target a repr=transparent struct is
// structurally identical to. Returns ok=false if there isn't exactly one.
func nonZeroField(fields []layout.CompField, vars *layout.SharedVars) (targetField, bool) {
	found := -1
	for i, f := range fields {
		if f.Child(vars).Mono.ReprSize != 0 {
			if found != -1 {
				return targetField{}, false
			}
			found = i
		}
	}
	if found == -1 {
		return targetField{}, false
	}
	return targetField{index: found, field: fields[found]}, true
}

// checkTransparentFields implements the repr=transparent half of §4.3 step
// 5: each side's field list is reduced to its single non-zero-sized
// target field (ignoring how many zero-sized fields surround it, and in
// what order), and only those two targets are compared.
func checkTransparentFields(ifaceFields, implFields []layout.CompField, iface, impl *layout.TypeLayout, g *Globals, r *reporter) {
	it, iok := nonZeroField(ifaceFields, iface.Vars)
	ot, ook := nonZeroField(implFields, impl.Vars)
	if !iok || !ook {
		r.report(FieldCountMismatch, iok, ook, "repr=transparent struct must have exactly one non-zero-sized field")
		return
	}
	checkField(it.index, it.field, ot.field, iface, impl, g, r)
}

func fieldPathName(name string, index int) string {
	if name == "" {
		return fmt.Sprintf("#%d", index)
	}
	return name
}

// checkFunctions implements §4.3 step 6: for each field's attached
// function layouts, compare bound-lifetime counts, parameter counts, the
// unsafe qualifier, then zip-walk parameters and return.
func checkFunctions(ifaceFns, implFns []layout.FunctionLayout, iface, impl *layout.TypeLayout, g *Globals, r *reporter) {
	if len(ifaceFns) != len(implFns) {
		r.report(FieldCountMismatch, len(ifaceFns), len(implFns), "function count differs")
		return
	}

	for i := range ifaceFns {
		fi, fo := ifaceFns[i], implFns[i]
		name := fi.Name(iface.Vars)

		pop := r.push(PathStep{Kind: PathField, Name: name})

		if fi.IsUnsafe != fo.IsUnsafe {
			r.report(FnQualifierMismatch, fi.IsUnsafe, fo.IsUnsafe, "")
		}

		ifaceBound := layout.Slice(iface.Vars.Lifetimes, fi.BoundLifetimes)
		implBound := layout.Slice(impl.Vars.Lifetimes, fo.BoundLifetimes)
		if len(ifaceBound) > len(implBound) {
			r.report(FnLifetimeMismatch, len(ifaceBound), len(implBound), "interface declares more bound lifetimes")
		}

		ifaceParams := fi.Params(iface.Vars)
		implParams := fo.Params(impl.Vars)
		if len(ifaceParams) != len(implParams) {
			r.report(FieldCountMismatch, len(ifaceParams), len(implParams), "parameter count differs")
		} else {
			for p := range ifaceParams {
				ppop := r.push(PathStep{Kind: PathFnParam, Name: name, Index: p})
				checkPair(ifaceParams[p], implParams[p], g, r)
				ppop()
			}
		}

		if fi.HasReturn() != fo.HasReturn() {
			r.report(FnQualifierMismatch, fi.HasReturn(), fo.HasReturn(), "return presence differs")
		} else if fi.HasReturn() {
			rpop := r.push(PathStep{Kind: PathFnReturn, Name: name})
			checkPair(fi.Return(iface.Vars), fo.Return(impl.Vars), g, r)
			rpop()
		}

		pop()
	}
}
