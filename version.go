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

import (
	"fmt"

	"golang.org/x/mod/semver"
)

// Version is a parsed semantic version, as declared by a provider's
// [LayoutHeader]. It wraps golang.org/x/mod/semver's string-based
// comparisons behind a small value type so callers don't pass the
// "v"-prefixed form semver.* expects around by hand.
type Version struct {
	raw string // always "v"-prefixed and valid, once constructed via ParseVersion
}

// ParseVersion parses s, which may or may not carry a leading "v", as
// semantic version. It returns an error wrapping [ErrInvalidVersion] if s
// is not valid semver.
func ParseVersion(s string) (Version, error) {
	v := s
	if len(v) == 0 || v[0] != 'v' {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}
	return Version{raw: v}, nil
}

// ErrInvalidVersion is wrapped by the error [ParseVersion] returns for a
// string that isn't valid semver.
var ErrInvalidVersion = fmt.Errorf("sabi: invalid version string")

// String returns the version without its "v" prefix, matching the form
// providers declare in their [LayoutHeader].
func (v Version) String() string {
	if v.raw == "" {
		return ""
	}
	return v.raw[1:]
}

// Major returns the version's major component, e.g. "1" for "v1.2.3".
func (v Version) Major() string { return semver.Major(v.raw)[1:] }

// CompatibleWith reports whether a provider declaring version impl may
// stand in for a host compiled against version iface (v itself), using
// the same same-major / interface-minor-≤-implementation-minor rule
// [Check] applies to a type's declared package version.
func (v Version) CompatibleWith(impl Version) bool {
	if semver.Major(v.raw) != semver.Major(impl.raw) {
		return false
	}
	if semver.Major(v.raw) == "v0" {
		return semver.MajorMinor(v.raw) == semver.MajorMinor(impl.raw)
	}
	return semver.Compare(semver.MajorMinor(v.raw), semver.MajorMinor(impl.raw)) <= 0
}

// Compare orders two versions per semver precedence rules.
func (v Version) Compare(o Version) int { return semver.Compare(v.raw, o.raw) }
