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

package layout

// TypeLayout is the root description of one type: the combination of a
// MonoLayout, a GenericLayout, the SharedVars pool both halves index into,
// and a stable UTypeId. It is static for the lifetime of the module that
// produced it and immutable after construction; cmd/sabigen emits one as a
// package-level value per exported type.
//
// Self-referential and mutually-recursive type graphs are only reachable
// through the function-pointer getters in SharedVars.Children, never
// through a direct *TypeLayout field, so a TypeLayout value itself can
// never structurally contain itself.
type TypeLayout struct {
	Mono    MonoLayout
	Generic GenericLayout
	Vars    *SharedVars
	ID      UTypeId

	// ExtraChecks holds any extra-check capabilities attached to this
	// type at generation time (see internal/check's ExtraChecks
	// interface). Most types have none.
	ExtraChecks []ExtraCheck
}

// ExtraCheck is implemented by types carrying an opaque, generator-attached
// compatibility capability beyond sabi's structural rules (a tag-subset
// check, the non-exhaustive interface-set check, or a user-defined one).
// It is declared here, rather than in internal/check, because a TypeLayout
// must be able to hold one without creating an import cycle between
// internal/layout and internal/check.
type ExtraCheck interface {
	// Nested returns any child TypeLayouts this check needs compared as
	// part of its own compatibility decision, beyond the ones already
	// reachable through ordinary field traversal.
	Nested() []*TypeLayout
}

// Name returns this type's declared name.
func (t *TypeLayout) Name() string { return t.Mono.Name(t.Vars) }

// ModulePath returns this type's declaring module path.
func (t *TypeLayout) ModulePath() string { return t.Mono.ModulePath(t.Vars) }

// SameType reports whether t and o describe the same declared type,
// independent of which process produced them — the cross-boundary
// definition of "identical type" that a prefix-reference downcast or a
// NonExhaustive downcast relies on.
func (t *TypeLayout) SameType(o *TypeLayout) bool {
	return t.ID.Fingerprint() == o.ID.Fingerprint()
}

func (t *TypeLayout) String() string {
	return t.ModulePath() + "." + t.Name()
}
