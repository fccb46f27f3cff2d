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

package main

import (
	"fmt"
	"iter"
	"os"

	"buf.build/go/sabi/internal/scc"
)

// warnCycles reports (to stderr; it never fails generation) every strongly
// connected component of more than one type among the scanned set's direct
// field references. A cycle is not an error — mutually-recursive types are
// legitimate and checkPair's interning already makes the checker safe
// against them — but it is exactly the shape of type graph where a naive,
// eager ChildGetter would recurse forever, so it's worth flagging at
// generation time rather than only at first use.
func warnCycles(types []*scannedType) {
	byName := make(map[string]*scannedType, len(types))
	for _, t := range types {
		byName[t.Name] = t
	}

	deps := func(t *scannedType) iter.Seq[*scannedType] {
		return func(yield func(*scannedType) bool) {
			for _, f := range t.Fields {
				if f.ChildNamed == nil {
					continue
				}
				child, ok := byName[f.ChildNamed.Obj().Name()]
				if !ok {
					continue
				}
				if !yield(child) {
					return
				}
			}
		}
	}

	seen := map[string]bool{}
	for _, t := range types {
		if seen[t.Name] {
			continue
		}
		dag := scc.Sort(t, deps)
		for comp := range dag.Topological() {
			members := comp.Members()
			for _, m := range members {
				seen[m.Name] = true
			}
			if len(members) < 2 {
				continue
			}
			names := make([]string, len(members))
			for i, m := range members {
				names[i] = m.Name
			}
			fmt.Fprintf(os.Stderr, "sabigen: cyclic type reference: %v\n", names)
		}
	}
}
