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

package tag

import "fmt"

// Kind discriminates the value a Tag holds.
type Kind uint8

const (
	Bool Kind = iota
	Int
	String
	Array
	Map
	Set
)

// Tag is a structured tagged-union value, the generalization of a
// single-purpose packed bitfield (a field presence flag, say) into a
// reusable comparison value a type can attach to its layout. Two Tags
// compare compatible when one is a pointwise subset of the other — for
// scalars, equality; for Array/Map/Set, subset of elements/entries.
type Tag struct {
	Kind   Kind
	Bool   bool
	Int    int64
	String string
	Array  []Tag
	Map    map[string]Tag
	Set    map[string]struct{}
}

func FromBool(b bool) Tag     { return Tag{Kind: Bool, Bool: b} }
func FromInt(i int64) Tag     { return Tag{Kind: Int, Int: i} }
func FromString(s string) Tag { return Tag{Kind: String, String: s} }

func FromArray(elems ...Tag) Tag { return Tag{Kind: Array, Array: elems} }

func FromMap(m map[string]Tag) Tag { return Tag{Kind: Map, Map: m} }

func FromSet(keys ...string) Tag {
	s := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return Tag{Kind: Set, Set: s}
}

// Subset reports whether t is a pointwise subset of other: every value t
// carries, other also carries, at least as permissively. Used by sabi's
// extra-check contract as "interface tag must be a subset of
// implementation tag".
func (t Tag) Subset(other Tag) bool {
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case Bool:
		return t.Bool == other.Bool || !t.Bool
	case Int:
		return t.Int == other.Int
	case String:
		return t.String == other.String
	case Array:
		if len(t.Array) != len(other.Array) {
			return false
		}
		for i := range t.Array {
			if !t.Array[i].Subset(other.Array[i]) {
				return false
			}
		}
		return true
	case Map:
		for k, v := range t.Map {
			ov, ok := other.Map[k]
			if !ok || !v.Subset(ov) {
				return false
			}
		}
		return true
	case Set:
		for k := range t.Set {
			if _, ok := other.Set[k]; !ok {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Union returns the most permissive tag that is still a superset of both t
// and other, used when merging the tag requirements observed across
// multiple libraries loaded against the same extra-checked type. A
// mismatched Kind or scalar value has no sensible merge, so the more
// recently observed side wins rather than panicking.
func (t Tag) Union(other Tag) Tag {
	if t.Kind != other.Kind {
		return other
	}
	switch t.Kind {
	case Bool:
		return Tag{Kind: Bool, Bool: t.Bool || other.Bool}
	case Int:
		if t.Int == other.Int {
			return t
		}
		return other
	case String:
		if t.String == other.String {
			return t
		}
		return other
	case Array:
		if len(t.Array) != len(other.Array) {
			return other
		}
		merged := make([]Tag, len(t.Array))
		for i := range t.Array {
			merged[i] = t.Array[i].Union(other.Array[i])
		}
		return Tag{Kind: Array, Array: merged}
	case Map:
		merged := make(map[string]Tag, len(t.Map))
		for k, v := range t.Map {
			merged[k] = v
		}
		for k, v := range other.Map {
			if existing, ok := merged[k]; ok {
				merged[k] = existing.Union(v)
			} else {
				merged[k] = v
			}
		}
		return Tag{Kind: Map, Map: merged}
	case Set:
		merged := make(map[string]struct{}, len(t.Set)+len(other.Set))
		for k := range t.Set {
			merged[k] = struct{}{}
		}
		for k := range other.Set {
			merged[k] = struct{}{}
		}
		return Tag{Kind: Set, Set: merged}
	default:
		return t
	}
}

// MismatchKey returns the first key at which t is not a subset of other,
// for use in a TagError's Detail. Returns "" if t.Subset(other).
func (t Tag) MismatchKey(other Tag) string {
	if t.Subset(other) {
		return ""
	}
	switch t.Kind {
	case Map:
		for k, v := range t.Map {
			if ov, ok := other.Map[k]; !ok || !v.Subset(ov) {
				return k
			}
		}
	case Set:
		for k := range t.Set {
			if _, ok := other.Set[k]; !ok {
				return k
			}
		}
	}
	return fmt.Sprintf("%v", t)
}
