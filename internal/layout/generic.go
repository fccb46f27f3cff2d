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

// ConstKind discriminates the value stored in a ConstGeneric.
type ConstKind uint8

const (
	ConstInt ConstKind = iota
	ConstBool
	ConstString
)

// ConstGeneric is a const-generic argument's value, compared by the const's
// own notion of equality rather than structurally. Two TypeLayouts whose
// only difference is a const-generic argument's value are never compatible:
// const generics identify distinct types, the same way array length does
// for Go arrays.
type ConstGeneric struct {
	Kind       ConstKind
	IntValue   int64
	BoolValue  bool
	StringSpan Span
}

// Equal reports whether two const-generic values are the same constant.
func (c ConstGeneric) Equal(o ConstGeneric, vars *SharedVars) bool {
	if c.Kind != o.Kind {
		return false
	}
	switch c.Kind {
	case ConstInt:
		return c.IntValue == o.IntValue
	case ConstBool:
		return c.BoolValue == o.BoolValue
	case ConstString:
		return vars.String(c.StringSpan) == vars.String(o.StringSpan)
	default:
		return false
	}
}

// GenericLayout is the part of a TypeLayout that depends on the type's
// instantiated generic arguments: the layouts reachable through its type
// parameters, and its const-generic values. Lifetime *names* live in the
// MonoLayout; only the count of lifetime parameters is implied here, by
// len(Lifetimes).
type GenericLayout struct {
	// ChildTypes indexes this instantiation's type arguments, resolved
	// lazily via SharedVars.Children so that mutually-recursive generic
	// instantiations don't need to be fully built before being referenced.
	ChildTypes Span

	ConstGenerics Span // into SharedVars.Consts

	// Lifetimes enumerates this instantiation's lifetime parameters (by
	// position only; names are on the MonoLayout side).
	Lifetimes Span // into SharedVars.Lifetimes

	DataVariant DataVariant

	// Enum and Prefix mirror MonoLayout's data-dependent halves, valid
	// when DataVariant is DataEnum or DataPrefix respectively.
	Enum   GenericEnum
	Prefix GenericPrefix
}

// TypeArgs resolves this instantiation's type-argument layouts.
func (g GenericLayout) TypeArgs(vars *SharedVars) []*TypeLayout {
	getters := Slice(vars.Children, g.ChildTypes)
	out := make([]*TypeLayout, len(getters))
	for i, get := range getters {
		out[i] = get()
	}
	return out
}

// ConstArgs resolves this instantiation's const-generic values.
func (g GenericLayout) ConstArgs(vars *SharedVars) []ConstGeneric {
	return Slice(vars.Consts, g.ConstGenerics)
}
