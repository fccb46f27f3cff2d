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

import "buf.build/go/sabi/internal/layout"

// ExtraCheck is an opaque compatibility capability attached to a
// TypeLayout beyond sabi's built-in structural rules: a value-tagging
// check, the non-exhaustive interface-set check, or a user-supplied one.
//
// It is the check package's view of layout.ExtraCheck (which only
// declares Nested, to avoid an import cycle): an ExtraCheck additionally
// knows how to compare itself against a sibling from another library.
type ExtraCheck interface {
	layout.ExtraCheck

	// CheckCompatibility decides whether this (the interface side) extra
	// check accepts other (the implementation side). tc grants access to
	// the running checker so the implementation may request additional
	// layout comparisons through it.
	CheckCompatibility(other ExtraCheck, tc *TypeChecker) error
}

// Combiner is implemented by an ExtraCheck that can be merged with a
// sibling library's extra check for the same type, the way two libraries'
// non-exhaustive interface descriptors merge into their union. Extra
// checks that cannot meaningfully combine (most of them) do not implement
// this.
type Combiner interface {
	Combine(other ExtraCheck, tc *TypeChecker) (ExtraCheck, bool)
}

// TypeChecker is the capability an ExtraCheck receives while being asked
// to compare itself against a sibling: a narrow view of the running check
// that lets it request additional, nested comparisons without being able
// to restart or otherwise interfere with the outer walk.
type TypeChecker struct {
	g *Globals
	r *reporter

	// self guards against an extra check recursing into itself on the
	// exact pair it was invoked to compare; without it, checkPair would
	// find that pair already open on this goroutine and silently treat it
	// as tentatively ok.
	self pairKey
}

// Recheck asks the outer checker to additionally compare iface and impl,
// reporting any mismatches as nested errors at the current path. It
// refuses to recurse on the same pair that invoked this ExtraCheck, per
// §4.6's "must not recurse into themselves on the same pair" rule.
func (tc *TypeChecker) Recheck(iface, impl *layout.TypeLayout) error {
	key := pairKey{iface: iface.ID.Fingerprint(), impl: impl.ID.Fingerprint()}
	if key == tc.self {
		tc.r.report(ReentrantLayoutCheckingCall, iface, impl, "")
		return tc.r.finish()
	}
	before := len(tc.r.nodes)
	checkPair(iface, impl, tc.g, tc.r)
	if len(tc.r.nodes) > before {
		return tc.r.finish()
	}
	return nil
}

// extraCheckKey identifies one Combiner-capable extra check's accumulated
// merge state: the declaring type's fingerprint plus the check's position
// within TypeLayout.ExtraChecks, since a type may carry more than one.
type extraCheckKey struct {
	typeFP [16]byte
	index  int
}

// checkExtra implements §4.6: if the interface declares an extra check and
// the implementation does not, that is an error; if both do, invoke
// CheckCompatibility; if the implementation declares more extra checks
// than the interface, that is fine (a stricter library is not a breaking
// change for a looser interface). An extra check that also implements
// Combiner additionally folds into the union accumulated across every
// library checked against g, mirroring the non-exhaustive interface merge.
func checkExtra(iface, impl *layout.TypeLayout, g *Globals, r *reporter) {
	if len(iface.ExtraChecks) == 0 {
		return
	}
	if len(impl.ExtraChecks) == 0 {
		r.report(ExtraCheckError, len(iface.ExtraChecks), 0, "implementation declares no extra checks")
		return
	}

	key := pairKey{iface: iface.ID.Fingerprint(), impl: impl.ID.Fingerprint()}
	tc := &TypeChecker{g: g, r: r, self: key}

	for i, ec := range iface.ExtraChecks {
		mine, ok := ec.(ExtraCheck)
		if !ok {
			continue
		}

		ck := extraCheckKey{typeFP: iface.ID.Fingerprint(), index: i}
		if prev, ok := g.extraChecks.Load(ck); ok {
			mine = prev
		}

		matched := false
		var failures []error
		for _, oc := range impl.ExtraChecks {
			theirs, ok := oc.(ExtraCheck)
			if !ok {
				continue
			}
			if err := mine.CheckCompatibility(theirs, tc); err != nil {
				failures = append(failures, err)
				continue
			}
			matched = true

			if combiner, ok := mine.(Combiner); ok {
				if merged, ok := combiner.Combine(theirs, tc); ok {
					mine = merged
				}
			}
		}
		if !matched {
			for _, err := range failures {
				r.report(ExtraCheckError, "", "", err.Error())
			}
			r.report(ExtraCheckError, "extra check present", "no matching extra check", "")
			continue
		}

		if _, ok := mine.(Combiner); ok {
			g.extraChecks.Store(ck, mine)
		}
	}
}
