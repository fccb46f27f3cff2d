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

import "math/bits"

// AccessibilityBitmap marks which prefix fields of a particular *value* are
// conditionally present, one bit per field index. It is the bitmap baked
// into a MonoPrefix at the type-declaration level (which fields *may* be
// conditional) as well as the bitmap stamped into a live WithMetadata value
// (which fields *are* actually present in that instance).
type AccessibilityBitmap uint64

// IsSet reports whether field i is marked in this bitmap.
func (b AccessibilityBitmap) IsSet(i int) bool {
	if i < 0 || i >= 64 {
		return false
	}
	return b&(1<<uint(i)) != 0
}

// Set returns a copy of b with field i marked present.
func (b AccessibilityBitmap) Set(i int) AccessibilityBitmap {
	return b | 1<<uint(i)
}

// Count returns the number of fields marked in this bitmap.
func (b AccessibilityBitmap) Count() int { return bits.OnesCount64(uint64(b)) }

// MissingFieldPolicy says what a prefix accessor does when asked for a
// field the accessibility bitmap marks absent.
type MissingFieldPolicy uint8

const (
	// PolicyOption returns a zero-value, ok=false pair.
	PolicyOption MissingFieldPolicy = iota
	// PolicyDefault returns a generator-supplied default value.
	PolicyDefault
	// PolicyPanic panics, naming the absent field.
	PolicyPanic
)

// MonoPrefix is the generics-independent half of a prefix type's layout:
// where the guaranteed prefix ends, and which prefix fields are allowed to
// be conditionally absent.
type MonoPrefix struct {
	// FirstNonPrefixFieldIndex partitions Fields (on the owning MonoLayout)
	// into a guaranteed prefix [0, FirstNonPrefixFieldIndex) and an
	// optional suffix [FirstNonPrefixFieldIndex, len(Fields)). An
	// implementation whose index is smaller than the interface's is a
	// breaking change (§MismatchedPrefixSize); a larger index, or fields
	// added after it in the suffix, is not.
	FirstNonPrefixFieldIndex int

	// ConditionalFields marks, within the guaranteed prefix, which fields
	// may be conditionally compiled out (e.g. behind a build tag) on some
	// builds of the provider. A field's conditional/unconditional status
	// here must match across interface and implementation.
	ConditionalFields AccessibilityBitmap

	// Policies holds one MissingFieldPolicy per field, in Fields order.
	Policies []MissingFieldPolicy
}

// GenericPrefix is the generics-dependent half of a prefix type's layout.
// A prefix type's field count is fixed at declaration (it does not vary
// per-instantiation beyond the ordinary generic substitution already
// captured by GenericLayout.ChildTypes), so this carries no extra data
// today; it exists to keep the Mono/Generic split uniform across all data
// variants.
type GenericPrefix struct{}

// WithMetadataHeader is the fixed-layout header a provider places at the
// start of a leaked, 'static WithMetadata[T,P] value: an accessibility
// bitmap recording which of T's prefix fields are actually present in this
// particular build, followed (at runtime, not in this struct) by a pointer
// to the type's TypeLayout and then T itself, word-aligned.
type WithMetadataHeader struct {
	Accessibility AccessibilityBitmap
	Layout        *TypeLayout
}
