package concurrent

import (
	"sync/atomic"

	"github.com/smilemakc/ltlcheck/internal/markset"
)

// Node is one union-find element: a parent pointer, a union-by-rank hint,
// and the partition's accumulated acceptance marks, all atomic. Mirrors
// concur/unionfind.h's uf_node_t{parent, markset}, generalized with a
// rank field so Unite can CAS-link the smaller-rank root under the
// larger-rank one per spec §4.7, instead of unionfind.h's simpler
// always-link-left scheme.
type Node struct {
	parent atomic.Pointer[Node]
	rank   atomic.Uint32
	marks  atomic.Uint64
}

func newNode() *Node {
	n := &Node{}
	n.parent.Store(n)
	return n
}

// UnionFind is the lock-free union-find with marks (C9): a distinguished
// Dead node is the absorbing class every discovered-dead partition gets
// linked under, given infinite rank so it always survives a Unite. Find
// uses path halving (CAS each node's parent to its grandparent), Unite
// uses CAS-link-by-rank, matching spec §4.7's operation contract exactly.
type UnionFind struct {
	table    *SharedTable
	numMarks int
	dead     *Node
}

// NewUnionFind builds a union-find over table's nodes for an alphabet of
// numMarks acceptance marks.
func NewUnionFind(table *SharedTable, numMarks int) *UnionFind {
	dead := newNode()
	dead.rank.Store(^uint32(0))
	return &UnionFind{table: table, numMarks: numMarks, dead: dead}
}

// MakeSet returns the node for key, creating a fresh singleton partition
// the first time any worker sees key. inserted is true exactly once per
// key, per §4.7.
func (u *UnionFind) MakeSet(key string) (node *Node, inserted bool) {
	return u.table.FindOrPut(key)
}

// Find returns n's partition representative via path halving: each step
// replaces n's parent with its current grandparent and advances to that
// grandparent, so repeated calls converge the path toward flat without
// ever needing a second compression pass.
func (u *UnionFind) Find(n *Node) *Node {
	for {
		p := n.parent.Load()
		if p == n {
			return n
		}
		gp := p.parent.Load()
		n.parent.CompareAndSwap(p, gp)
		n = gp
	}
}

// Unite CAS-links the smaller-rank root under the larger-rank one,
// folding extraMarks and the absorbed root's own marks into the
// survivor's mark-set. Returns the resulting root and whether either
// side was already Dead at link time (fastBacktrack per §4.9.3: a
// worker seeing this may unwind its DFS immediately, since a Dead class
// can never participate in an accepting cycle).
func (u *UnionFind) Unite(a, b *Node, extraMarks markset.Set) (root *Node, fastBacktrack bool) {
	for {
		ra, rb := u.Find(a), u.Find(b)
		if ra == rb {
			u.addAcc(ra, uint64(extraMarks))
			return ra, ra == u.dead
		}

		fastBacktrack = ra == u.dead || rb == u.dead
		lo, hi := ra, rb
		if lo.rank.Load() > hi.rank.Load() {
			lo, hi = hi, lo
		}

		if !lo.parent.CompareAndSwap(lo, hi) {
			continue // another goroutine relinked one side first; recompute roots and retry
		}
		if hi != u.dead && lo.rank.Load() == hi.rank.Load() {
			hi.rank.Add(1)
		}
		u.addAcc(hi, uint64(extraMarks)|lo.marks.Load())
		return hi, fastBacktrack
	}
}

func (u *UnionFind) addAcc(n *Node, bits uint64) {
	for {
		old := n.marks.Load()
		if old|bits != old && !n.marks.CompareAndSwap(old, old|bits) {
			continue
		}
		if n.parent.Load() == n {
			return
		}
		n = u.Find(n) // n was linked under another root meanwhile; carry the bits up to it
	}
}

// AddMarks ORs marks into find(n)'s mark-set atomically.
func (u *UnionFind) AddMarks(n *Node, marks markset.Set) {
	u.addAcc(u.Find(n), uint64(marks))
}

// MarksOf reads find(n)'s accumulated mark-set.
func (u *UnionFind) MarksOf(n *Node) markset.Set {
	return markset.Set(u.Find(n).marks.Load())
}

// Full reports whether n's partition has accumulated the full mark
// alphabet — a confirmed accepting cycle.
func (u *UnionFind) Full(n *Node) bool {
	return u.MarksOf(n).IsFull(u.numMarks)
}

// MakeDead CAS-links find(n) under Dead. Idempotent.
func (u *UnionFind) MakeDead(n *Node) {
	for {
		r := u.Find(n)
		if r == u.dead {
			return
		}
		if r.parent.CompareAndSwap(r, u.dead) {
			return
		}
	}
}

// IsDead reports whether find(n) == Dead.
func (u *UnionFind) IsDead(n *Node) bool {
	return u.Find(n) == u.dead
}

// SamePartition reports whether a and b currently belong to the same
// partition.
func (u *UnionFind) SamePartition(a, b *Node) bool {
	return u.Find(a) == u.Find(b)
}
