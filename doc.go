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

// Package sabi lets a Go program load plugins built independently, without
// either side agreeing on a stable compiler ABI, by replacing the
// compiler's memory-layout guarantees with an explicit, runtime-checked
// layout description.
//
// A provider plugin exports, under a name derived from its package path
// and version, a [LayoutHeader] pointing at a root [TypeLayout]. A host
// loads the plugin, retrieves that header, and calls [Check] (or the
// higher-level [Load]) to compare the provider's root type against the
// interface type the host was compiled against. Only on success does the
// host dereference anything beyond the header.
//
// Two coupled extension mechanisms make this useful in practice instead of
// merely safe: [PrefixRef] lets a provider add fields to a struct in a
// later version without breaking hosts compiled against an earlier one,
// and [NonExhaustive] lets an enum-like sum type grow new variants across
// a version boundary without every downstream switch statement needing to
// change.
package sabi
