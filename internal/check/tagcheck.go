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

	"buf.build/go/sabi/internal/layout"
	"buf.build/go/sabi/internal/tag"
)

// TagCheck is the core's canonical value-tagging extra check (§4.6a): it
// requires the interface side's Tag to be a pointwise subset of the
// implementation side's.
type TagCheck struct {
	Value  tag.Tag
	nested []*layout.TypeLayout
}

// NewTagCheck wraps a tag.Tag as a layout.ExtraCheck / check.ExtraCheck.
func NewTagCheck(v tag.Tag, nested ...*layout.TypeLayout) *TagCheck {
	return &TagCheck{Value: v, nested: nested}
}

// Nested implements layout.ExtraCheck.
func (t *TagCheck) Nested() []*layout.TypeLayout { return t.nested }

// CheckCompatibility implements ExtraCheck.
func (t *TagCheck) CheckCompatibility(other ExtraCheck, tc *TypeChecker) error {
	o, ok := other.(*TagCheck)
	if !ok {
		return fmt.Errorf("tag check paired with incompatible extra check %T", other)
	}
	if !t.Value.Subset(o.Value) {
		key := t.Value.MismatchKey(o.Value)
		return fmt.Errorf("tag mismatch at %q: interface tag %v is not a subset of implementation tag %v", key, t.Value, o.Value)
	}
	return nil
}

// Combine implements Combiner: a later library's TagCheck for the same
// type is folded into the union of every tag observed so far, the same
// way a non-exhaustive enum's interface descriptor accumulates across
// libraries rather than being replaced by the most recent one.
func (t *TagCheck) Combine(other ExtraCheck, tc *TypeChecker) (ExtraCheck, bool) {
	o, ok := other.(*TagCheck)
	if !ok {
		return nil, false
	}
	return &TagCheck{Value: t.Value.Union(o.Value), nested: t.nested}, true
}
