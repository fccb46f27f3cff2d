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

import "strings"

// NameSep separates entries within a single blob stored in a SharedVars
// string pool, e.g. a struct's field-name list or an enum's variant-name
// list. Field/variant names themselves can't contain it. Exported so
// cmd/sabigen joins variant-name blobs the same way this package splits
// them.
const NameSep = ";"

func splitNames(blob string) []string {
	if blob == "" {
		return nil
	}
	return strings.Split(blob, NameSep)
}

func joinNames(names []string) string {
	return strings.Join(names, NameSep)
}
