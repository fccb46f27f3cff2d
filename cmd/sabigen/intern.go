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
	"hash/fnv"
	"strings"

	"buf.build/go/sabi/internal/layout"
	"buf.build/go/sabi/internal/swiss"
)

// stringPool deduplicates the field, type, and variant names sabigen writes
// into one generated file's SharedVars.Strings blob. Names recur constantly
// across a package's types ("Value", "Next", "Len"...), and a naive
// generator would otherwise emit a fresh copy of each repeated name; pool
// instead recognizes a repeat by a linear scan over the entries interned so
// far (hash first, then the string) and reuses its existing [layout.Span].
// The build-once swisstable over those hashes is built only by index.
type stringPool struct {
	blob strings.Builder
	seen []poolEntry // insertion order; index builds a swiss table from it
}

type poolEntry struct {
	hash uint64
	str  string
	span layout.Span
}

func newStringPool() *stringPool {
	return &stringPool{}
}

// intern returns the Span for s within the pool's blob, reusing a previous
// span for an identical string rather than appending a duplicate.
func (p *stringPool) intern(s string) layout.Span {
	h := fnvHash(s)
	for _, e := range p.seen {
		if e.hash == h && e.str == s {
			return e.span
		}
	}

	start := p.blob.Len()
	p.blob.WriteString(s)
	span := layout.NewSpan(start, len(s))
	p.seen = append(p.seen, poolEntry{hash: h, str: s, span: span})
	return span
}

// string returns the accumulated string blob.
func (p *stringPool) string() string { return p.blob.String() }

// index builds the read-only swisstable lookup over every string interned
// so far, the same build-once-from-entries shape the teacher's own
// compiler uses for its symbol tables (compiler.go's writeTable).
func (p *stringPool) index() (arena []byte, table *swiss.Table[uint64, layout.Span]) {
	entries := make([]swiss.Entry[uint64, layout.Span], len(p.seen))
	for i, e := range p.seen {
		entries[i] = swiss.KV(e.hash, e.span)
	}
	return swiss.New[uint64, layout.Span](nil, nil, entries...)
}

// verify builds the pool's index and confirms every interned string still
// resolves to its own recorded span through it. intern's dedup loop is a
// linear scan over (hash, string) pairs, so it is immune to an fnv64a
// collision between two distinct names by construction; the table is
// keyed on hash alone, so this is the point a collision would actually
// surface, before the span it silently clobbered gets baked into
// generated output.
func (p *stringPool) verify() error {
	_, table := p.index()
	for _, e := range p.seen {
		got := table.Lookup(e.hash)
		if got == nil || *got != e.span {
			return fmt.Errorf("sabigen: hash collision interning %q", e.str)
		}
	}
	return nil
}

func fnvHash(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}
