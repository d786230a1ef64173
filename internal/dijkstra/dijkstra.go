// Package dijkstra implements the sequential Dijkstra emptiness engine
// (C8): the same iterative no-recursion DFS as internal/tarjan, but
// tracking SCC roots on an explicit root stack (internal/colour) instead
// of per-frame lowlinks. Grounded on spec §4.6 directly; by §8 T1 it must
// decide non-emptiness identically to internal/tarjan on any finite
// prefix, differing only in peak memory.
package dijkstra

import (
	"fmt"

	"github.com/smilemakc/ltlcheck/internal/colour"
	"github.com/smilemakc/ltlcheck/internal/config"
	"github.com/smilemakc/ltlcheck/internal/markset"
	"github.com/smilemakc/ltlcheck/internal/product"
)

// Result is the engine's verdict plus the statistics that feed §6's
// verdict/statistics record.
type Result struct {
	Found         bool
	StatesVisited int
	SCCsClosed    int
	MaxLiveDepth  int
	Transitions   int
	MaxDFSSize    int
	MaxRootStack  int
	Updates       int
	TrivialSCCs   int
	DeadStoreSize int
}

// frame is one entry of the explicit DFS stack: the state being explored
// and the cursor over its successors. Unlike Tarjan, no per-frame lowlink
// or mark-set is kept here — that bookkeeping lives entirely on the root
// stack.
type frame struct {
	state product.State
	key   string
	succs []product.Edge
	next  int
}

// Engine runs a single-threaded Dijkstra emptiness check over a product
// oracle.
type Engine struct {
	oracle   *product.Oracle
	numMarks int
	colours  *colour.Table
	roots    colour.RootStack
	live     []product.State
	position int
}

// New builds a Dijkstra engine over oracle, using the automaton's mark
// alphabet size and the root-stack/dead-store strategies from cfg.
func New(oracle *product.Oracle, numMarks int, cfg *config.EngineConfig) *Engine {
	return &Engine{
		oracle:   oracle,
		numMarks: numMarks,
		colours:  colour.NewTable(cfg.DeadStore),
		roots:    colour.NewRootStack(cfg.RootStack),
	}
}

// Run explores the product from its initial state and reports whether an
// accepting cycle was found.
func (e *Engine) Run() (Result, error) {
	init, err := e.oracle.Initial()
	if err != nil {
		return Result{}, fmt.Errorf("dijkstra: computing initial state: %w", err)
	}

	var stack []*frame
	res := Result{}

	push := func(s product.State, entryMarks markset.Set) (*frame, error) {
		succs, err := e.oracle.Successors(s)
		if err != nil {
			return nil, fmt.Errorf("dijkstra: successors of %s: %w", s.Key(), err)
		}
		key := s.Key()
		e.colours.MarkLive(key, e.position)
		e.roots.PushTrivial(e.position, entryMarks)
		f := &frame{state: s, key: key, succs: succs}
		e.position++
		e.live = append(e.live, s)
		res.StatesVisited++
		if len(e.live) > res.MaxLiveDepth {
			res.MaxLiveDepth = len(e.live)
		}
		return f, nil
	}

	root, err := push(init, markset.Empty())
	if err != nil {
		return Result{}, err
	}
	stack = append(stack, root)
	res.MaxDFSSize = len(stack)
	if e.roots.Len() > res.MaxRootStack {
		res.MaxRootStack = e.roots.Len()
	}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next >= len(top.succs) {
			closed, trivial, err := e.pop(top.key)
			if err != nil {
				return Result{}, err
			}
			if closed {
				res.SCCsClosed++
				if trivial {
					res.TrivialSCCs++
				}
			}
			stack = stack[:len(stack)-1]
			continue
		}

		edge := top.succs[top.next]
		top.next++
		res.Transitions++

		c, destPos := e.colours.Colour(edge.Dest.Key())
		switch c {
		case colour.Dead:
			continue
		case colour.Live:
			res.Updates++
			if e.merge(destPos, edge.Marks) {
				res.Found = true
				res.DeadStoreSize = e.colours.DeadCount()
				return res, nil
			}
			if e.roots.Len() > res.MaxRootStack {
				res.MaxRootStack = e.roots.Len()
			}
		case colour.Unknown:
			child, err := push(edge.Dest, edge.Marks)
			if err != nil {
				return Result{}, err
			}
			stack = append(stack, child)
			if len(stack) > res.MaxDFSSize {
				res.MaxDFSSize = len(stack)
			}
			if e.roots.Len() > res.MaxRootStack {
				res.MaxRootStack = e.roots.Len()
			}
		}
	}

	res.DeadStoreSize = e.colours.DeadCount()
	return res, nil
}

// merge implements §4.6's merge operation: a backedge to an already-Live
// state at destPos pops every root strictly above destPos, accumulating
// their marks and the edge's own marks, and folds the result into the
// root that remains on top (which already sits at or below destPos, by
// the invariant that every live position has a governing root). Grounded
// on original_source/src/fasttgbaalgos/ec/cou99.cc's merge, which ORs the
// accumulated marks into the surviving frame rather than replacing it.
// Reports whether the accumulated marks reached full.
func (e *Engine) merge(destPos int, edgeMarks markset.Set) bool {
	acc := edgeMarks
	for e.roots.TopRootPosition() > destPos {
		acc = acc.Union(e.roots.TopMarks())
		e.roots.Pop()
	}
	newMarks := e.roots.TopMarks().Union(acc)
	e.roots.SetTopMarks(newMarks)
	return newMarks.IsFull(e.numMarks)
}

// pop implements §4.6's pop: if the top root's position equals the
// closing state's own DFS position, that root and every live state above
// it become Dead.
func (e *Engine) pop(closingKey string) (closed, trivial bool, err error) {
	_, closingPos := e.colours.Colour(closingKey)
	if e.roots.Empty() || e.roots.TopRootPosition() != closingPos {
		return false, false, nil
	}

	n := 0
	for len(e.live) > 0 {
		top := e.live[len(e.live)-1]
		_, pos := e.colours.Colour(top.Key())
		if pos < closingPos {
			break
		}
		e.live = e.live[:len(e.live)-1]
		e.colours.MarkDead(top.Key())
		n++
	}
	e.roots.Pop()
	return true, n == 1, nil
}
