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

// noReturnType marks FunctionLayout.ReturnType when a function has no
// return value, distinguishing it from index 0 in SharedVars.Children.
const noReturnType = -1

// FunctionLayout describes the signature of one function reachable through
// a CompField with IsFuncPointer set: a cross-boundary callback, a prefix
// vtable entry, or similar. Bound lifetimes are the function's own
// higher-ranked lifetime parameters (think a Go func value whose pointer
// arguments are only valid for the duration of that particular call,
// independent of the enclosing type's own lifetime parameters).
type FunctionLayout struct {
	NameRange Span

	// BoundLifetimes is this function's own lifetime parameter list,
	// distinct from the lifetime parameters of the type the function is
	// attached to.
	BoundLifetimes Span // into SharedVars.Lifetimes

	ParamNames      Span // into SharedVars' string blob, ';'-separated
	ParamTypes      Span // into SharedVars.Children
	ParamLifetimes  Span // into SharedVars.Lifetimes, one LifetimeRange-worth per param
	ReturnLifetimes LifetimeRange

	// ReturnType indexes into SharedVars.Children, or is noReturnType if
	// the function returns nothing.
	ReturnType int32

	IsUnsafe bool
}

// Name returns this function's declared name, resolved against vars.
func (f FunctionLayout) Name(vars *SharedVars) string { return vars.String(f.NameRange) }

// HasReturn reports whether this function declares a return type.
func (f FunctionLayout) HasReturn() bool { return f.ReturnType != noReturnType }

// Return resolves this function's return TypeLayout. Panics if !HasReturn.
func (f FunctionLayout) Return(vars *SharedVars) *TypeLayout {
	if !f.HasReturn() {
		panic("layout: function has no return type")
	}
	return vars.Children[f.ReturnType]()
}

// Params resolves this function's parameter TypeLayouts in order.
func (f FunctionLayout) Params(vars *SharedVars) []*TypeLayout {
	idxs := Slice(vars.Children, f.ParamTypes)
	out := make([]*TypeLayout, len(idxs))
	for i, getter := range idxs {
		out[i] = getter()
	}
	return out
}
