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
	"buf.build/go/sabi/internal/layout"
)

// checkEnum implements §4.3 step 5's Enum rule and, for non-exhaustive
// enums, folds in §4.7's interface-descriptor merge.
func checkEnum(iface, impl *layout.TypeLayout, g *Globals, r *reporter) {
	ie, oe := iface.Mono.Enum, impl.Mono.Enum

	if ie.IsExhaustive != oe.IsExhaustive {
		r.report(MismatchedExhaustiveness, ie.IsExhaustive, oe.IsExhaustive, "")
		return
	}

	ifaceNames := ie.VariantNameList(iface.Vars)
	implNames := oe.VariantNameList(impl.Vars)

	if ie.IsExhaustive {
		if len(ifaceNames) != len(implNames) {
			r.report(TooManyVariants, len(ifaceNames), len(implNames), "")
			return
		}
		checkVariantsPositional(iface, impl, g, r, ifaceNames, implNames)
		return
	}

	// Non-exhaustive: the implementation may have more variants, but
	// every interface variant must appear, at the same discriminant,
	// structurally compatible.
	if len(implNames) < len(ifaceNames) {
		r.report(TooManyVariants, len(ifaceNames), len(implNames), "implementation has fewer variants than interface")
		return
	}

	implIndex := make(map[string]int, len(implNames))
	for i, n := range implNames {
		implIndex[n] = i
	}

	for i, name := range ifaceNames {
		j, ok := implIndex[name]
		if !ok {
			r.report(UnexpectedVariant, name, nil, "interface variant not present in implementation")
			continue
		}
		checkVariant(iface, impl, g, r, i, j, name)
	}

	if err := checkNonExhaustiveStorage(iface, impl); err != "" {
		r.report(IncompatibleWithNonExhaustive, "", "", err)
	}

	mergeNonExhaustiveInterfaces(iface, impl, g, r)
}

func checkVariantsPositional(iface, impl *layout.TypeLayout, g *Globals, r *reporter, ifaceNames, implNames []string) {
	for i := range ifaceNames {
		checkVariant(iface, impl, g, r, i, i, ifaceNames[i])
	}
	_ = implNames
}

func checkVariant(iface, impl *layout.TypeLayout, g *Globals, r *reporter, ifaceIdx, implIdx int, name string) {
	pop := r.push(PathStep{Kind: PathVariant, Name: name})
	defer pop()

	ie, oe := iface.Mono.Enum, impl.Mono.Enum

	ifaceDiscr := layout.Slice(iface.Vars.Variants, ie.Discriminants)
	implDiscr := layout.Slice(impl.Vars.Variants, oe.Discriminants)
	if ifaceIdx < len(ifaceDiscr) && implIdx < len(implDiscr) {
		di, do := ifaceDiscr[ifaceIdx], implDiscr[implIdx]
		if di.Value != do.Value || di.Unsigned != do.Unsigned {
			r.report(EnumDiscriminant, di.Value, do.Value, name)
		}
	}

	ifaceFields := variantFields(ie, iface.Vars, ifaceIdx)
	implFields := variantFields(oe, impl.Vars, implIdx)
	checkFields(ifaceFields, implFields, iface, impl, g, r)
}

// variantFields slices out the fields belonging to variant index idx from
// an enum's concatenated FieldLayout, using PerVariantFieldCount to find
// its bounds.
func variantFields(e layout.MonoEnum, vars *layout.SharedVars, idx int) []layout.CompField {
	all := layout.Slice(vars.Fields, e.FieldLayout)
	start := 0
	for i := 0; i < idx && i < len(e.PerVariantFieldCount); i++ {
		start += int(e.PerVariantFieldCount[i])
	}
	if idx >= len(e.PerVariantFieldCount) {
		return nil
	}
	n := int(e.PerVariantFieldCount[idx])
	if start+n > len(all) {
		return nil
	}
	return all[start : start+n]
}

// checkNonExhaustiveStorage compares the two sides' declared storage
// bounds: implementation storage that is smaller or less aligned than the
// interface's is incompatible, since a provider and host disagreeing on
// storage bounds is itself an ABI break. It does not compare any variant's
// size against the storage; the root package's New panics when a value
// does not fit its storage type.
func checkNonExhaustiveStorage(iface, impl *layout.TypeLayout) string {
	is := iface.Mono.Enum.NonExhaustive
	os := impl.Mono.Enum.NonExhaustive
	if os.StorageSize < is.StorageSize {
		return "implementation's non-exhaustive storage is smaller than the interface's"
	}
	if os.StorageAlign < is.StorageAlign {
		return "implementation's non-exhaustive storage alignment is weaker than the interface's"
	}
	return ""
}

// mergeNonExhaustiveInterfaces implements §4.7's cross-library interface
// merge: the checker records the union of both sides' declared interface
// descriptors, keyed by the enum's fingerprint, so a later load against
// the same enum is checked against the accumulated union rather than
// against just one prior library's view.
func mergeNonExhaustiveInterfaces(iface, impl *layout.TypeLayout, g *Globals, r *reporter) {
	key := iface.ID.Fingerprint()

	is := iface.Mono.Enum.NonExhaustive.Interface
	os := impl.Mono.Enum.NonExhaustive.Interface

	prev, _ := g.nonexhaustive.Load(key)
	union := prev.Union(is).Union(os)

	// A minor-version library is not permitted to drop a capability the
	// merged union already requires; see the Open Question decision in
	// DESIGN.md — removal is treated as breaking.
	if !prev.Subset(is.Union(os)) {
		r.report(TagError, prev, is.Union(os), "non-exhaustive interface descriptor dropped a previously required capability")
	}

	g.nonexhaustive.Store(key, union)
}
