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

import "buf.build/go/sabi/internal/check"

// CheckingGlobals is the mutable context shared by every [Check] performed
// while loading one dynamic library: a memoisation table so recursive or
// widely-shared type graphs are only walked once, plus the cross-library
// merge state for prefix types and non-exhaustive enums. Construct one per
// load operation with [NewCheckingGlobals]; do not share one across
// unrelated loads.
type CheckingGlobals = check.Globals

// NewCheckingGlobals constructs an empty CheckingGlobals for one
// library-load operation.
func NewCheckingGlobals() *CheckingGlobals { return check.NewGlobals() }

// Check decides whether impl (what a loaded provider actually offers) may
// safely stand in for iface (what the host was compiled against). A nil
// error means compatible; otherwise the returned error is an
// *AbiInstabilityErrors describing every mismatch found.
func Check(iface, impl *TypeLayout, g *CheckingGlobals) error {
	errs := check.Check(iface, impl, g)
	if errs == nil {
		return nil
	}
	return errs
}
