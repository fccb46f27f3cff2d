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

// checkConfig holds the resolved settings for one [Open] call.
type checkConfig struct {
	globals *CheckingGlobals

	// strictVersioning, when set, rejects a provider whose declared
	// version cannot be parsed as valid semver instead of skipping the
	// version check for it.
	strictVersioning bool

	// requireVersion, if non-nil, is checked against the provider's
	// declared LayoutHeader.Version with Version.CompatibleWith before
	// Open proceeds to the layout check at all.
	requireVersion *Version
}

// CheckOption configures one call to [Open].
type CheckOption func(*checkConfig)

// WithGlobals reuses an existing [CheckingGlobals] rather than allocating a
// fresh one, letting a host that loads many providers against the same
// interface share memoised pair results across loads.
func WithGlobals(g *CheckingGlobals) CheckOption {
	return func(c *checkConfig) { c.globals = g }
}

// WithStrictVersioning rejects providers whose declared version string
// does not parse as valid semver, rather than treating an unparseable
// version as automatically compatible.
func WithStrictVersioning() CheckOption {
	return func(c *checkConfig) { c.strictVersioning = true }
}

// WithRequiredVersion rejects providers whose declared version is not
// [Version.CompatibleWith] v, checked before the layout comparison runs.
func WithRequiredVersion(v Version) CheckOption {
	return func(c *checkConfig) { c.requireVersion = &v }
}

func buildCheckOptions(opts []CheckOption) *checkConfig {
	cfg := &checkConfig{globals: NewCheckingGlobals()}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
