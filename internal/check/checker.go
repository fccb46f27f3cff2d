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
	"time"

	"golang.org/x/mod/semver"

	"buf.build/go/sabi/internal/debug"
	"buf.build/go/sabi/internal/layout"
)

// Check decides whether impl (what a loaded provider actually offers) may
// safely stand in for iface (what the host expects), recording every
// structural mismatch found rather than stopping at the first one. A nil
// return means compatible.
func Check(iface, impl *layout.TypeLayout, g *Globals) *Errors {
	start := time.Now()
	defer func() { g.checkLatency.Record(time.Since(start).Seconds()) }()

	r := newReporter(iface.String(), impl.String())
	checkPair(iface, impl, g, r)
	return r.finish()
}

func checkPair(iface, impl *layout.TypeLayout, g *Globals, r *reporter) {
	// 1. Fast identity check.
	if iface == impl {
		return
	}

	key := pairKey{iface: iface.ID.Fingerprint(), impl: impl.ID.Fingerprint()}

	// 2. Interning + cycle detection.
	if state, ok := g.lookup(key); ok {
		if state == stateOK {
			return
		}
	}
	// A pair already open on this goroutine means the layout graph cycles
	// back on itself (a self-referential or mutually-recursive type reached
	// through a function-pointer child getter). Per §9's design note, an
	// in-progress pair is treated as tentatively ok rather than reported:
	// the cycle is broken here, and whatever actually differs between the
	// two sides was already caught (or will be) at the non-cyclic fields
	// that led here.
	reentrant, leave := g.enter(key)
	if reentrant {
		debug.Log(nil, "check.cycle", "%s vs %s: breaking cycle, tentatively ok", iface, impl)
		return
	}
	defer leave()

	// 3-7. The actual walk (shallow checks, generics, data-variant
	// dispatch, extra checks) runs once per pair even if several
	// goroutines ask for the same pair at the same time: singleflight
	// collapses them onto whichever goroutine gets there first, and every
	// caller (leader and followers alike) re-roots the resulting leaves at
	// its own current path before merging them in, since the same pair can
	// be reached through different field paths by different callers.
	keyStr := fmt.Sprintf("%x:%x", key.iface, key.impl)
	v, _, _ := g.group.Do(keyStr, func() (any, error) {
		g.pairs.Store(key, stateInProgress)
		debug.Log(nil, "check.pair", "%s vs %s", iface, impl)

		local := newReporter(iface.String(), impl.String())

		checkShallow(iface, impl, local)
		checkGenerics(iface, impl, g, local)
		checkData(iface, impl, g, local)
		// Function-pointer walk happens inside checkData/checkFields for
		// each field carrying FunctionLayouts.
		checkExtra(iface, impl, g, local)

		if len(local.nodes) == 0 {
			g.markOK(key)
		}
		return local.nodes, nil
	})

	for _, node := range v.([]*Error) {
		r.mergeNode(r.path, node)
	}
}

func checkShallow(iface, impl *layout.TypeLayout, r *reporter) {
	if iface.Name() != impl.Name() {
		r.report(Name, iface.Name(), impl.Name(), "")
	}
	if iface.ModulePath() != impl.ModulePath() {
		r.report(Package, iface.ModulePath(), impl.ModulePath(), "")
	}

	if iface.Mono.Item.Version != "" && impl.Mono.Item.Version != "" {
		if !versionsCompatible(iface.Mono.Item.Version, impl.Mono.Item.Version) {
			r.report(PackageVersion, iface.Mono.Item.Version, impl.Mono.Item.Version, "")
		}
	}

	if !reprCompatible(iface.Mono.ReprAttr, impl.Mono.ReprAttr) {
		r.report(ReprAttrMismatch, iface.Mono.ReprAttr, impl.Mono.ReprAttr, "")
	}

	if iface.Mono.ReprSize != impl.Mono.ReprSize {
		r.report(Size, iface.Mono.ReprSize, impl.Mono.ReprSize, "")
	}
	if iface.Mono.ReprAlign != impl.Mono.ReprAlign {
		r.report(Alignment, iface.Mono.ReprAlign, impl.Mono.ReprAlign, "")
	}

	if iface.Mono.DataVariant != layout.DataOpaque && impl.Mono.DataVariant != layout.DataOpaque {
		if nonZero(iface) != nonZero(impl) {
			r.report(NonZeroness, nonZero(iface), nonZero(impl), "")
		}
	}
}

// nonZero reports whether the checker's option-layout optimisation applies
// to this type: a pointer-shaped type whose all-zero bit pattern can never
// occur, letting an Option<T>-equivalent store "none" as all-zeroes instead
// of a separate tag. Only meaningful for non-Opaque data variants.
func nonZero(t *layout.TypeLayout) bool {
	return t.Mono.DataVariant == layout.DataPrimitive && t.Mono.Primitive == layout.PrimPointer
}

// versionsCompatible implements §4.3 step 3's semver rule: interface major
// equals implementation major; for ≥1.0, interface minor must be ≤
// implementation minor; below 1.0, minors must match exactly and only
// patch may differ.
func versionsCompatible(iface, impl string) bool {
	vi, vp := "v"+iface, "v"+impl
	if !semver.IsValid(vi) || !semver.IsValid(vp) {
		return iface == impl
	}

	if semver.Major(vi) != semver.Major(vp) {
		return false
	}

	if semver.Major(vi) == "v0" {
		return semver.MajorMinor(vi) == semver.MajorMinor(vp)
	}

	return semver.Compare(semver.MajorMinor(vi), semver.MajorMinor(vp)) <= 0
}

// reprCompatible implements §4.3 step 3's repr-attr rule: C accepts C,
// Transparent accepts Transparent, integer reprs must match exactly.
func reprCompatible(iface, impl layout.ReprAttr) bool {
	if iface == impl {
		return true
	}
	// A plain-int repr and its C+int counterpart are not freely
	// interchangeable: C+int additionally promises field layout beyond
	// the discriminant, so only an exact match is accepted here, matching
	// the source's "integer reprs must match exactly" rule.
	return false
}

func checkGenerics(iface, impl *layout.TypeLayout, g *Globals, r *reporter) {
	ifaceLts := countLifetimes(iface)
	implLts := countLifetimes(impl)
	if ifaceLts != implLts {
		r.report(GenericParamCount, fmt.Sprintf("%d lifetimes", ifaceLts), fmt.Sprintf("%d lifetimes", implLts), "")
	}

	ifaceArgs := iface.Generic.TypeArgs(iface.Vars)
	implArgs := impl.Generic.TypeArgs(impl.Vars)
	if len(ifaceArgs) != len(implArgs) {
		r.report(GenericParamCount, fmt.Sprintf("%d type params", len(ifaceArgs)), fmt.Sprintf("%d type params", len(implArgs)), "")
	} else {
		// A matching arity says nothing about the arguments themselves:
		// RVec[Foo] and RVec[Bar] both have exactly one type argument, so
		// each pair gets the same full structural check as any field.
		for i := range ifaceArgs {
			pop := r.push(PathStep{Kind: PathTypeArg, Index: i})
			checkPair(ifaceArgs[i], implArgs[i], g, r)
			pop()
		}
	}

	ifaceConsts := iface.Generic.ConstArgs(iface.Vars)
	implConsts := impl.Generic.ConstArgs(impl.Vars)
	if len(ifaceConsts) != len(implConsts) {
		r.report(GenericParamCount, fmt.Sprintf("%d const params", len(ifaceConsts)), fmt.Sprintf("%d const params", len(implConsts)), "")
		return
	}
	for i := range ifaceConsts {
		if !ifaceConsts[i].Equal(implConsts[i], iface.Vars) {
			r.report(MismatchedConstParam, i, i, fmt.Sprintf("const param %d differs", i))
		}
	}
}

func countLifetimes(t *layout.TypeLayout) int {
	return len(layout.Slice(t.Vars.Lifetimes, t.Generic.Lifetimes))
}
