package concurrent

import (
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
)

// stackNode is one entry of OpenSet's lock-free LIFO.
type stackNode struct {
	value string
	next  *stackNode
}

// OpenSet is the C10 multi-producer/multi-consumer set-queue used by
// reachability workers checking a terminal sub-automaton (§4.8, §4.10):
// Insert dedups a newly discovered state against every worker's view,
// TryGrab lets any worker pull an arbitrary not-yet-claimed one to
// expand. Grounded on
// original_source/.../concur/openset.hh's find_or_put/get_one; the
// dedup table is xsync.MapOf (as the union-find's table), and the grab
// queue is a classic lock-free Treiber stack instead of the original's
// custom open_set_t, since Go has no equivalent off-the-shelf structure
// in this pack.
type OpenSet struct {
	seen *xsync.MapOf[string, struct{}]
	top  atomic.Pointer[stackNode]
	size atomic.Int64
}

// NewOpenSet builds an empty open-set.
func NewOpenSet() *OpenSet {
	return &OpenSet{seen: xsync.NewMapOf[string, struct{}]()}
}

// Insert adds x, reporting whether it was new; a new element is also
// pushed onto the grab queue.
func (s *OpenSet) Insert(x string) bool {
	if _, loaded := s.seen.LoadOrStore(x, struct{}{}); loaded {
		return false
	}
	node := &stackNode{value: x}
	for {
		old := s.top.Load()
		node.next = old
		if s.top.CompareAndSwap(old, node) {
			s.size.Add(1)
			return true
		}
	}
}

// TryGrab pops an arbitrary queued element, or reports false if the
// queue is momentarily empty (a concurrent Insert may still refill it).
func (s *OpenSet) TryGrab() (string, bool) {
	for {
		old := s.top.Load()
		if old == nil {
			return "", false
		}
		if s.top.CompareAndSwap(old, old.next) {
			return old.value, true
		}
	}
}

// Size reports the total number of distinct elements ever inserted.
func (s *OpenSet) Size() int {
	return int(s.size.Load())
}
