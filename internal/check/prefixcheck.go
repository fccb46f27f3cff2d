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
	"github.com/tiendc/go-deepcopy"

	"buf.build/go/sabi/internal/debug"
	"buf.build/go/sabi/internal/layout"
)

// mergedPrefix is the "most complete observed prefix layout" recorded in
// Globals.prefixes for one prefix type's fingerprint: the guaranteed field
// count and full field list of the implementation with the most fields
// seen so far. Field lists are not combined; a candidate with more fields
// replaces the record as a whole.
type mergedPrefix struct {
	FirstNonPrefixFieldIndex int
	Fields                   []layout.CompField
	FieldNames               []string
}

// checkPrefix implements §4.5: both sides must be prefix types; the
// implementation may only grow the guaranteed prefix or the field list,
// never shrink it; and shared prefix fields must match exactly. After the
// comparison the implementation's view is recorded in Globals.prefixes
// (see mergePrefixes). No check reads that record back: each check
// compares only the two layouts passed to it.
func checkPrefix(iface, impl *layout.TypeLayout, g *Globals, r *reporter) {
	ip, op := iface.Mono.Prefix, impl.Mono.Prefix

	if op.FirstNonPrefixFieldIndex < ip.FirstNonPrefixFieldIndex {
		r.report(MismatchedPrefixSize, ip.FirstNonPrefixFieldIndex, op.FirstNonPrefixFieldIndex, "")
		return
	}

	ifaceFields := iface.Mono.FieldList(iface.Vars)
	implFields := impl.Mono.FieldList(impl.Vars)

	// The guaranteed prefix must be present on both sides in full: an
	// implementation missing one of those fields is a hard break. A
	// missing *suffix* field (past FirstNonPrefixFieldIndex) is only a
	// break if the interface's accessor for it panics on absence — an
	// option- or default-policy suffix field is, by construction, safe to
	// read as absent, so the implementation is free to omit it.
	if len(implFields) < ip.FirstNonPrefixFieldIndex {
		r.report(MismatchedPrefixSize, len(ifaceFields), len(implFields), "implementation is missing a guaranteed prefix field")
		return
	}
	if len(implFields) < len(ifaceFields) {
		for i := len(implFields); i < len(ifaceFields); i++ {
			if i < len(ip.Policies) && ip.Policies[i] == layout.PolicyPanic {
				r.report(MismatchedPrefixSize, len(ifaceFields), len(implFields),
					fieldPathName(ifaceFields[i].Name(iface.Vars), i)+" is absent from the implementation but the interface reads it with a panicking policy")
				return
			}
		}
	}

	prefixShared := min(ip.FirstNonPrefixFieldIndex, len(ifaceFields))
	shared := min(len(ifaceFields), len(implFields))

	for i := 0; i < shared; i++ {
		fi, fo := ifaceFields[i], implFields[i]

		pop := r.push(PathStep{Kind: PathField, Name: fieldPathName(fi.Name(iface.Vars), i)})

		if i < prefixShared && ip.ConditionalFields.IsSet(i) != op.ConditionalFields.IsSet(i) {
			r.report(MismatchedPrefixConditionality, ip.ConditionalFields.IsSet(i), op.ConditionalFields.IsSet(i), fi.Name(iface.Vars))
		}

		if !lifetimesCompatible(fi.Lifetimes, fo.Lifetimes, iface.Vars, impl.Vars) {
			r.report(FieldLifetimeMismatch, fi.Name(iface.Vars), fo.Name(impl.Vars), "")
		}

		// A suffix field (beyond the guaranteed prefix) that the
		// interface does not declare under an option/default policy
		// could be read unsafely if a future implementation omits it;
		// the interface must mark it non-panicking.
		if i >= prefixShared {
			if i < len(ip.Policies) && ip.Policies[i] == layout.PolicyPanic {
				r.report(MismatchedPrefixConditionality, layout.PolicyOption, layout.PolicyPanic, fi.Name(iface.Vars)+" (suffix field must not panic on absence)")
			}
		}

		checkPair(fi.Child(iface.Vars), fo.Child(impl.Vars), g, r)

		pop()
	}

	mergePrefixes(iface, impl, g)
}

func mergePrefixes(iface, impl *layout.TypeLayout, g *Globals) {
	key := iface.ID.Fingerprint()

	implFields := impl.Mono.FieldList(impl.Vars)
	names := make([]string, len(implFields))
	for i, f := range implFields {
		names[i] = f.Name(impl.Vars)
	}

	candidate := &mergedPrefix{
		FirstNonPrefixFieldIndex: impl.Mono.Prefix.FirstNonPrefixFieldIndex,
		Fields:                   implFields,
		FieldNames:               names,
	}

	prev, ok := g.prefixes.Load(key)
	if !ok || len(candidate.Fields) > len(prev.Fields) {
		// go-deepcopy clones the winning candidate so the recorded
		// merger never aliases either input's SharedVars-backed slices,
		// which are owned by whichever TypeLayout happened to win this
		// round and may not outlive this check.
		var clone mergedPrefix
		if err := deepcopy.Copy(&clone, candidate); err != nil {
			debug.Log(nil, "check.prefix", "deepcopy failed, storing unclosed: %v", err)
			g.prefixes.Store(key, candidate)
			return
		}
		g.prefixes.Store(key, &clone)
	}
}
