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

// Package check implements sabi's ABI-compatibility checker: the decision
// procedure for whether a type described by one internal/layout.TypeLayout
// ("interface", the consumer's expectation) can be safely substituted by a
// value described by another ("implementation", what a loaded provider
// actually offers).
//
// The checker walks both layouts in lockstep, collecting structural
// mismatches into a tree of errors rooted at the top-level pair, and
// memoises every pair it has already resolved in a [Globals] so that two
// libraries exchanging the same recursive or widely-shared type graph do
// the work exactly once.
package check
