// Package concurrent implements the lock-free shared state table and
// union-find (C9/C10) that the parallel engines (internal/parallel) share
// across worker goroutines. Grounded on
// original_source/src/fasttgbaalgos/ec/concur/sharedhashtable.hh (the
// shared visited-state table) and concur/unionfind.h (the union-find node
// layout: a parent pointer plus an accumulated mark-set per node), built
// on github.com/puzpuzpuz/xsync/v3's MapOf instead of the original's
// custom open-addressed hashtable.h, the teacher's own (until now
// transitive-only) dependency.
package concurrent

import "github.com/puzpuzpuz/xsync/v3"

// SharedTable is the lock-free "first discoverer wins" table every worker
// consults before exploring a state: whichever goroutine's FindOrPut call
// creates the entry owns the original expansion of that state, exactly as
// sharedhashtable.hh's find_or_put (backed by ht_cas_empty) decides which
// thread's clone survives.
type SharedTable struct {
	nodes *xsync.MapOf[string, *Node]
}

// NewSharedTable builds an empty shared table.
func NewSharedTable() *SharedTable {
	return &SharedTable{nodes: xsync.NewMapOf[string, *Node]()}
}

// FindOrPut returns the table's node for key, atomically creating a fresh
// singleton partition if key has never been seen before. created reports
// whether this call was the one that created it.
func (t *SharedTable) FindOrPut(key string) (node *Node, created bool) {
	candidate := newNode()
	actual, loaded := t.nodes.LoadOrStore(key, candidate)
	return actual, !loaded
}

// Lookup returns the existing node for key without creating one.
func (t *SharedTable) Lookup(key string) (*Node, bool) {
	return t.nodes.Load(key)
}

// Size reports the number of distinct states ever inserted.
func (t *SharedTable) Size() int {
	return t.nodes.Size()
}
