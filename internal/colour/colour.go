// Package colour implements the DFS colour table (C5) and the root stack
// (C6) the sequential engines use to track live/dead product states and
// open SCC roots. Grounded on spec §4.4 directly; the iterative,
// explicit-stack shape follows katalvlaran-lvlath's graph/dfs.go.
//
// Every live key's canonical byte representation is hash-consed through
// internal/statepool's arena allocator (C1) rather than left to the Go
// string/map runtime: one MultiPool slot per distinct key width, reused
// across the table's whole lifetime, and released back to its bucket's
// free list the moment a state is no longer needed (table-sentinel mode
// never releases it, matching that mode's "never shrinks" live map).
package colour

import (
	"github.com/smilemakc/ltlcheck/internal/config"
	"github.com/smilemakc/ltlcheck/internal/statepool"
)

// Colour is a state's DFS status.
type Colour int

const (
	// Unknown means the state has never been visited.
	Unknown Colour = iota
	// Live means the state is on the current DFS live stack, at some
	// position.
	Live
	// Dead means the state's enclosing SCC has closed without reaching a
	// full mark-set and will never be revisited.
	Dead
)

// liveEntry is one Live key's bookkeeping: its DFS position plus the
// statepool slot backing its canonical byte copy.
type liveEntry struct {
	pos  int
	ptr  statepool.Ptr
	size int
}

// Table tracks every state's colour, keyed by the state's canonical hash-
// cons key (product.State.Key()). Two storage strategies are supported,
// selected by config.DeadStoreMode:
//
//   - table-sentinel: dead states stay in the same map, their position
//     replaced by a sentinel; the table never shrinks, trading memory for
//     a single map lookup per query.
//   - separate: dead states are moved into a dedicated set and dropped
//     from the live map, trading an extra map operation on the pop path
//     for a smaller live map during long runs with many closed SCCs.
type Table struct {
	mode config.DeadStoreMode
	pool *statepool.MultiPool
	live map[string]liveEntry
	dead map[string]bool
}

const deadSentinel = -1

// NewTable builds an empty colour table using the given dead-state storage
// strategy.
func NewTable(mode config.DeadStoreMode) *Table {
	return &Table{mode: mode, pool: statepool.NewMultiPool(), live: map[string]liveEntry{}, dead: map[string]bool{}}
}

// MarkLive records key as Live at DFS position pos, hash-consing its bytes
// into the pool on first sight.
func (t *Table) MarkLive(key string, pos int) {
	if e, ok := t.live[key]; ok {
		e.pos = pos
		t.live[key] = e
		return
	}
	size, ptr, slot := t.pool.Allocate(len(key))
	copy(slot, key)
	t.live[key] = liveEntry{pos: pos, ptr: ptr, size: size}
}

// MarkDead transitions key from Live to Dead.
func (t *Table) MarkDead(key string) {
	switch t.mode {
	case config.DeadStoreSeparate:
		if e, ok := t.live[key]; ok {
			t.pool.Deallocate(e.size, e.ptr)
		}
		delete(t.live, key)
		t.dead[key] = true
	default: // table-sentinel: the pool slot stays allocated, same as the map entry
		if e, ok := t.live[key]; ok {
			e.pos = deadSentinel
			t.live[key] = e
		}
		t.dead[key] = true
	}
}

// Colour reports key's current colour, and its live position (meaningful
// only when the returned colour is Live).
func (t *Table) Colour(key string) (Colour, int) {
	if t.dead[key] {
		return Dead, 0
	}
	if e, ok := t.live[key]; ok {
		return Live, e.pos
	}
	return Unknown, 0
}

// IsDead is a convenience wrapper around Colour for the common dead-short-
// cut check (§4.9 "Dead short-cut").
func (t *Table) IsDead(key string) bool {
	c, _ := t.Colour(key)
	return c == Dead
}

// LiveCount returns the number of states currently Live (on the DFS
// stack).
func (t *Table) LiveCount() int {
	n := 0
	for _, e := range t.live {
		if e.pos != deadSentinel {
			n++
		}
	}
	return n
}

// DeadCount returns the number of states recorded Dead, regardless of
// dead-store mode — §6's dead_store_size.
func (t *Table) DeadCount() int {
	return len(t.dead)
}
