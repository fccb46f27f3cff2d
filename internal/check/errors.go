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
	"strings"

	"buf.build/go/sabi/internal/debug"
)

// Kind is a leaf taxonomy of ways two type layouts can fail to be
// compatible. Each Kind is reported with an ExpectedFound pair giving the
// two sides' differing values and a Path locating which field or
// function-pointer parameter the mismatch was found at.
type Kind uint16

const (
	_ Kind = iota
	Name
	Package
	PackageVersion
	Size
	Alignment
	ReprAttrMismatch
	NonZeroness
	GenericParamCount
	MismatchedConstParam
	TLDataDiscriminant
	MismatchedPrimitive
	FieldCountMismatch
	UnexpectedField
	FieldLifetimeMismatch
	FnLifetimeMismatch
	FnQualifierMismatch
	TooManyVariants
	UnexpectedVariant
	EnumDiscriminant
	MismatchedExhaustiveness
	MismatchedPrefixSize
	MismatchedPrefixConditionality
	IncompatibleWithNonExhaustive
	ExtraCheckError
	TagError
	CyclicTypeChecking
	ReentrantLayoutCheckingCall
)

var kindNames = map[Kind]string{
	Name:                            "Name",
	Package:                         "Package",
	PackageVersion:                  "PackageVersion",
	Size:                            "Size",
	Alignment:                       "Alignment",
	ReprAttrMismatch:                "ReprAttr",
	NonZeroness:                     "NonZeroness",
	GenericParamCount:               "GenericParamCount",
	MismatchedConstParam:            "MismatchedConstParam",
	TLDataDiscriminant:              "TLDataDiscriminant",
	MismatchedPrimitive:             "MismatchedPrimitive",
	FieldCountMismatch:              "FieldCountMismatch",
	UnexpectedField:                 "UnexpectedField",
	FieldLifetimeMismatch:           "FieldLifetimeMismatch",
	FnLifetimeMismatch:              "FnLifetimeMismatch",
	FnQualifierMismatch:             "FnQualifierMismatch",
	TooManyVariants:                 "TooManyVariants",
	UnexpectedVariant:               "UnexpectedVariant",
	EnumDiscriminant:                "EnumDiscriminant",
	MismatchedExhaustiveness:        "MismatchedExhaustiveness",
	MismatchedPrefixSize:            "MismatchedPrefixSize",
	MismatchedPrefixConditionality:  "MismatchedPrefixConditionality",
	IncompatibleWithNonExhaustive:   "IncompatibleWithNonExhaustive",
	ExtraCheckError:                 "ExtraCheckError",
	TagError:                        "TagError",
	CyclicTypeChecking:              "CyclicTypeChecking",
	ReentrantLayoutCheckingCall:     "ReentrantLayoutCheckingCall",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", uint16(k))
}

// ExpectedFound pairs the interface-side and implementation-side values
// that disagreed, both pretty-printed once at construction time so that a
// leaf error remains cheap to carry even when the underlying values are
// large layout trees.
type ExpectedFound struct {
	Expected string
	Found    string
}

func (ef ExpectedFound) String() string {
	return fmt.Sprintf("expected %s, found %s", ef.Expected, ef.Found)
}

// Leaf is one concrete incompatibility found at a particular position in
// the layout tree.
type Leaf struct {
	Kind Kind
	ExpectedFound
	// Detail carries a Kind-specific free-form message, such as the
	// offending key for a TagError or the field name for
	// MismatchedPrefixConditionality.
	Detail string
}

func (l Leaf) String() string {
	if l.Detail == "" {
		return fmt.Sprintf("%s: %s", l.Kind, l.ExpectedFound)
	}
	return fmt.Sprintf("%s: %s (%s)", l.Kind, l.ExpectedFound, l.Detail)
}

// PathKind discriminates what kind of step a Path segment represents.
type PathKind uint8

const (
	PathField PathKind = iota
	PathFnParam
	PathFnReturn
	PathVariant
	PathTypeArg
)

// PathStep is one segment of the walk from the checked pair's root down to
// the node a Leaf was found at.
type PathStep struct {
	Kind  PathKind
	Name  string // field/variant name, or function name for fn steps
	Index int    // parameter or type-argument index, meaningful only for PathFnParam and PathTypeArg
}

func (s PathStep) String() string {
	switch s.Kind {
	case PathFnParam:
		return fmt.Sprintf("%s(param %d)", s.Name, s.Index)
	case PathFnReturn:
		return fmt.Sprintf("%s(return)", s.Name)
	case PathVariant:
		return fmt.Sprintf("variant %s", s.Name)
	case PathTypeArg:
		return fmt.Sprintf("type arg %d", s.Index)
	default:
		return s.Name
	}
}

// Error is one node's worth of accumulated leaf errors: every Leaf found at
// exactly this Path, collected together rather than reported one at a
// time, so that a mismatched field with several simultaneous problems
// (wrong name and wrong size, say) doesn't require N separate checker
// passes to fully diagnose.
type Error struct {
	Path  []PathStep
	Leaves []Leaf
}

func (e *Error) add(leaf Leaf) { e.Leaves = append(e.Leaves, leaf) }

func (e *Error) String() string {
	var b strings.Builder
	if len(e.Path) == 0 {
		b.WriteString("<root>")
	} else {
		parts := make([]string, len(e.Path))
		for i, s := range e.Path {
			parts[i] = s.String()
		}
		b.WriteString(strings.Join(parts, "."))
	}
	b.WriteString(": ")
	for i, l := range e.Leaves {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(l.String())
	}
	return b.String()
}

// Errors is the top-level result of a failed [Check]: every node in the
// layout tree where at least one leaf mismatch was found, plus the names
// of the two top-level types being compared.
type Errors struct {
	Interface      string
	Implementation string
	Nodes          []*Error
}

func (e *Errors) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "sabi: %s is not ABI-compatible with %s:\n", e.Implementation, e.Interface)
	for _, n := range e.Nodes {
		fmt.Fprintf(&b, "  - %s\n", n)
	}
	return b.String()
}

// empty reports whether no mismatches were recorded, i.e. the check
// actually succeeded (used internally; a successful [Check] returns a nil
// *Errors, never a non-nil Errors with no Nodes).
func (e *Errors) empty() bool { return e == nil || len(e.Nodes) == 0 }

// reporter accumulates Error nodes during one checker walk.
type reporter struct {
	iface, impl string
	path        []PathStep
	nodes       []*Error

	// byPath indexes nodes by their full path so that two reports at the
	// same path merge into one *Error node even when a recursive child
	// check (a type argument, a field, a cyclic type re-entered via a
	// different route) reported somewhere else in between. Keying by
	// "whichever node was touched last" would miss that case.
	byPath map[string]*Error
}

func newReporter(iface, impl string) *reporter {
	return &reporter{iface: iface, impl: impl, byPath: make(map[string]*Error)}
}

func (r *reporter) push(step PathStep) (pop func()) {
	r.path = append(r.path, step)
	n := len(r.path)
	return func() { r.path = r.path[:n-1] }
}

// report records one leaf error at the current path. Multiple calls at the
// same path are merged into one *Error node, per §7's "collect all leaves
// at one node before unwinding" rule, regardless of what else was reported
// in between.
func (r *reporter) report(kind Kind, expected, found any, detail string) {
	leaf := Leaf{
		Kind:          kind,
		ExpectedFound: ExpectedFound{Expected: fmt.Sprint(expected), Found: fmt.Sprint(found)},
		Detail:        detail,
	}

	key := pathKey(r.path)
	if node, ok := r.byPath[key]; ok {
		node.add(leaf)
		return
	}

	node := &Error{Path: append([]PathStep(nil), r.path...)}
	node.add(leaf)
	r.byPath[key] = node
	r.nodes = append(r.nodes, node)

	debug.Log(nil, "check.report", "%s at %v", kind, r.path)
}

// mergeNode folds a previously-collected node's leaves into r, re-rooting
// its path at prefix first. Used to replay the leaves a singleflight-
// collapsed checkPair call collected under its own empty-rooted reporter
// into whichever caller's path actually reached that pair.
func (r *reporter) mergeNode(prefix []PathStep, node *Error) {
	full := make([]PathStep, 0, len(prefix)+len(node.Path))
	full = append(full, prefix...)
	full = append(full, node.Path...)

	key := pathKey(full)
	existing, ok := r.byPath[key]
	if !ok {
		existing = &Error{Path: full}
		r.byPath[key] = existing
		r.nodes = append(r.nodes, existing)
	}
	existing.Leaves = append(existing.Leaves, node.Leaves...)
}

// pathKey encodes a Path unambiguously as a map key: each step's fields
// are NUL/SOH-separated so that, say, a Name containing the separator
// can't be confused with an Index or a following step.
func pathKey(path []PathStep) string {
	var b strings.Builder
	for _, s := range path {
		fmt.Fprintf(&b, "%d\x00%s\x00%d\x01", s.Kind, s.Name, s.Index)
	}
	return b.String()
}

func (r *reporter) finish() *Errors {
	if len(r.nodes) == 0 {
		return nil
	}
	return &Errors{Interface: r.iface, Implementation: r.impl, Nodes: r.nodes}
}
