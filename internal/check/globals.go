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
	"sync"

	"github.com/timandy/routine"
	"golang.org/x/sync/singleflight"

	"buf.build/go/sabi/internal/layout"
	"buf.build/go/sabi/internal/stats"
	"buf.build/go/sabi/internal/xsync"
)

// pairKey is the interning key for one (interface, implementation) check:
// a pair of structural fingerprints, the part of a UTypeId that is
// meaningful across a dynamic-library boundary.
type pairKey struct {
	iface, impl [16]byte
}

// pairState is what Globals remembers about a pair it has seen before.
type pairState uint8

const (
	stateInProgress pairState = iota
	stateOK
)

// Globals is the mutable context shared by every check performed while
// loading one dynamic library: the memoisation table that lets recursive
// and widely-shared type graphs be checked exactly once, plus the
// cross-library merge maps for prefix types and non-exhaustive enums.
//
// A Globals is not meant to be shared between unrelated library loads;
// each load operation constructs its own, the same way the source does.
// It is, however, safe to use from multiple goroutines checking
// independent pairs concurrently against the same Globals, since all of
// its internal maps are concurrency-safe.
type Globals struct {
	pairs xsync.Map[pairKey, pairState]

	// prefixes maps a prefix type's UTypeId fingerprint to the most
	// complete prefix layout observed for it so far, merged across every
	// library checked against this Globals. See prefixcheck.go.
	prefixes xsync.Map[[16]byte, *mergedPrefix]

	// nonexhaustive maps a non-exhaustive enum's UTypeId fingerprint to
	// the union interface descriptor observed for it so far. See
	// enumcheck.go.
	nonexhaustive xsync.Map[[16]byte, layout.InterfaceDescriptor]

	// extraChecks maps a Combiner-capable extra check to the merged value
	// accumulated across every library checked against this Globals, keyed
	// by the declaring type's fingerprint and the check's position within
	// TypeLayout.ExtraChecks (a type may carry more than one). See
	// extrachecks.go.
	extraChecks xsync.Map[extraCheckKey, ExtraCheck]

	// inProgress tracks which pairs the *calling goroutine* currently has
	// open, so that a pair reached again while it is still being resolved
	// (a cyclic type graph) is treated by checkPair as tentatively ok
	// instead of recursing forever. An extra check asking to recheck the
	// exact pair it was invoked for is reported as
	// ReentrantLayoutCheckingCall by TypeChecker.Recheck, not here.
	inProgress sync.Map // map[int64]map[pairKey]bool

	// group collapses concurrent identical checks: if two goroutines ask
	// Globals to check the same pair at the same time, only one actually
	// walks the layout tree.
	group singleflight.Group

	// checkLatency tracks the mean wall-clock cost of a top-level Check
	// call against this Globals, the one benchmarking concern a running
	// checker itself needs (how expensive loading this library's types
	// was), as opposed to a one-off `go test -bench` measurement.
	checkLatency stats.Mean
}

// MeanCheckLatency returns the mean duration, in seconds, of every
// top-level Check call made against g so far. Zero if none have completed.
func (g *Globals) MeanCheckLatency() float64 { return g.checkLatency.Get() }

// NewGlobals constructs an empty Globals for one library-load operation.
func NewGlobals() *Globals { return &Globals{} }

func goroutineID() int64 { return routine.Goid() }

// openPairs returns this goroutine's set of pairs currently being checked,
// creating it on first use.
func (g *Globals) openPairs() map[pairKey]bool {
	id := goroutineID()
	v, _ := g.inProgress.LoadOrStore(id, map[pairKey]bool{})
	return v.(map[pairKey]bool) //nolint:errcheck
}

// enter records that this goroutine is about to check k, returning whether
// it was already open on this goroutine (a genuine reentrant call) and a
// cleanup func to call once the check concludes.
func (g *Globals) enter(k pairKey) (reentrant bool, leave func()) {
	open := g.openPairs()
	if open[k] {
		return true, func() {}
	}
	open[k] = true
	return false, func() { delete(open, k) }
}

// lookup returns the memoised state for k, if any has been recorded by any
// goroutine using this Globals.
func (g *Globals) lookup(k pairKey) (pairState, bool) {
	return g.pairs.Load(k)
}

// markOK records k as checked and compatible. The cross-goroutine guard
// against walking the same pair twice at once is the singleflight group in
// checkPair, since two different goroutines legitimately checking the same
// pair concurrently is not a cycle.
func (g *Globals) markOK(k pairKey) { g.pairs.Store(k, stateOK) }
