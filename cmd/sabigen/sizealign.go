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

package main

import (
	"fmt"

	"buf.build/go/sabi/internal/table"
)

// sizeAlign is a plain, pointer-free size/alignment pair, the only shape
// internal/table's V constraint (comparable, no embedded pointers) allows.
type sizeAlign struct {
	Size, Align int64
}

// sizeAlignTable is a build-once lookup from a package-local type index to
// its scanned size and alignment, built after every //sabi:layout type in a
// package has been scanned. resolveNonExhaustiveStorage looks up the
// sibling storage type a nonexhaustive=Name directive names here by index
// instead of re-deriving its size and alignment.
func buildSizeAlignTable(types []*scannedType) (arena []byte, tbl table.Table[sizeAlign]) {
	entries := make([]table.Entry[sizeAlign], len(types))
	for i, t := range types {
		entries[i] = table.Entry[sizeAlign]{
			Key:   int32(i),
			Value: sizeAlign{Size: t.Size, Align: t.Align},
		}
	}
	return table.New(nil, entries...)
}

// resolveNonExhaustiveStorage fills in StorageSize/StorageAlign for every
// type whose directive carries a nonexhaustive=Name flag, by looking up
// Name's scanned size and alignment in tbl (index i <-> types[i], the
// same indexing buildSizeAlignTable assigned). A bare "nonexhaustive"
// flag with no value leaves the storage bound unresolved, matching an
// enum whose non-exhaustive instantiations all use the enum's own size.
func resolveNonExhaustiveStorage(types []*scannedType, tbl table.Table[sizeAlign]) error {
	byName := make(map[string]int32, len(types))
	for i, t := range types {
		byName[t.Name] = int32(i)
	}

	for _, t := range types {
		name, ok := t.Dir.Flags["nonexhaustive"]
		if !ok || name == "" {
			continue
		}
		idx, ok := byName[name]
		if !ok {
			return fmt.Errorf("sabigen: %s: nonexhaustive storage type %q not found in this package", t.Name, name)
		}
		sa := tbl.Lookup(idx)
		if sa == nil {
			return fmt.Errorf("sabigen: %s: internal error resolving storage type %q", t.Name, name)
		}
		t.StorageSize, t.StorageAlign = sa.Size, sa.Align
	}
	return nil
}
