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

// lifetimesCompatible implements §4.4: lifetimes are compared positionally
// after normalisation.
//
//   - A LifetimeParamN on the interface side must equal the same index on
//     the implementation side.
//   - LifetimeStatic matches LifetimeStatic only.
//   - LifetimeAnonymous matches any single lifetime in the same position
//     (it stands for an elided lifetime, which the caller supplies).
//   - LifetimeNone is a terminator and must match LifetimeNone.
//
// Differing-count lifetime lists are treated as incompatible. This is a
// deliberately undecided point: positional matching means a list of two
// anonymous lifetimes is never compatible with a list of three, even
// though in principle "anonymous" could be read as "however many the
// other side has". sabi does not attempt to resolve that fuzziness; see
// the design notes for why.
func lifetimesCompatible(a, b layout.LifetimeRange, varsA, varsB *layout.SharedVars) bool {
	ia := a.Indices(varsA)
	ib := b.Indices(varsB)
	if len(ia) != len(ib) {
		return false
	}
	for i := range ia {
		if !lifetimeIndexCompatible(ia[i], ib[i]) {
			return false
		}
	}
	return true
}

func lifetimeIndexCompatible(a, b layout.LifetimeIndex) bool {
	if a == layout.LifetimeAnonymous || b == layout.LifetimeAnonymous {
		return a != layout.LifetimeNone && b != layout.LifetimeNone
	}
	return a == b
}
