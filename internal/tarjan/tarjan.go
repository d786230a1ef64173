// Package tarjan implements the sequential Tarjan emptiness engine (C7): an
// iterative (no recursion — product graphs run to hundreds of millions of
// states) adaptation of Tarjan's SCC algorithm that halts as soon as an
// SCC's accumulated mark-set reaches full. Grounded on spec §4.5 directly;
// the explicit-frame, no-recursion DFS shape follows
// katalvlaran-lvlath/graph/dfs.go and the SCC sketch in
// other_examples/5fc96288_gavlooth-purple_go__pkg-memory-scc.go.go.
package tarjan

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
	Updates       int
	TrivialSCCs   int
	DeadStoreSize int
}

// frame is one entry of the explicit DFS stack: the product state it
// represents, the cursor over its successors, and the Tarjan bookkeeping
// (lowlink, accumulated marks, and the marks on the tree edge that pushed
// it, needed when it pops into its parent).
type frame struct {
	state      product.State
	key        string
	succs      []product.Edge
	next       int
	position   int
	lowlink    int
	marks      markset.Set
	parentEdge markset.Set
}

// Engine runs a single-threaded Tarjan emptiness check over a product
// oracle.
type Engine struct {
	oracle   *product.Oracle
	numMarks int
	colours  *colour.Table
	live     []product.State
	position int
}

// New builds a Tarjan engine over oracle, using the automaton's mark
// alphabet size and the dead-state storage strategy from cfg.
func New(oracle *product.Oracle, numMarks int, cfg *config.EngineConfig) *Engine {
	return &Engine{
		oracle:   oracle,
		numMarks: numMarks,
		colours:  colour.NewTable(cfg.DeadStore),
	}
}

// Run explores the product from its initial state and reports whether an
// accepting cycle (an SCC whose mark union reaches full) was found.
func (e *Engine) Run() (Result, error) {
	init, err := e.oracle.Initial()
	if err != nil {
		return Result{}, fmt.Errorf("tarjan: computing initial state: %w", err)
	}

	var stack []*frame
	res := Result{}

	push := func(s product.State) (*frame, error) {
		succs, err := e.oracle.Successors(s)
		if err != nil {
			return nil, fmt.Errorf("tarjan: successors of %s: %w", s.Key(), err)
		}
		key := s.Key()
		e.colours.MarkLive(key, e.position)
		f := &frame{state: s, key: key, succs: succs, position: e.position, lowlink: e.position}
		e.position++
		e.live = append(e.live, s)
		res.StatesVisited++
		if len(e.live) > res.MaxLiveDepth {
			res.MaxLiveDepth = len(e.live)
		}
		return f, nil
	}

	root, err := push(init)
	if err != nil {
		return Result{}, err
	}
	stack = append(stack, root)
	res.MaxDFSSize = len(stack)

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next >= len(top.succs) {
			closed, trivial, foundNow, err := e.pop(&stack)
			if err != nil {
				return Result{}, err
			}
			if closed {
				res.SCCsClosed++
				if trivial {
					res.TrivialSCCs++
				}
			}
			if foundNow {
				res.Found = true
				res.DeadStoreSize = e.colours.DeadCount()
				return res, nil
			}
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
			if destPos < top.lowlink {
				top.lowlink = destPos
			}
			top.marks = top.marks.Union(edge.Marks)
			if top.marks.IsFull(e.numMarks) {
				res.Found = true
				res.DeadStoreSize = e.colours.DeadCount()
				return res, nil
			}
		case colour.Unknown:
			child, err := push(edge.Dest)
			if err != nil {
				return Result{}, err
			}
			child.parentEdge = edge.Marks
			stack = append(stack, child)
			if len(stack) > res.MaxDFSSize {
				res.MaxDFSSize = len(stack)
			}
		}
	}

	res.DeadStoreSize = e.colours.DeadCount()
	return res, nil
}

// pop closes the top frame: either its SCC closes (lowlink == position,
// moving every live state down to that position into Dead), or its
// lowlink and accumulated marks (unioned with the marks on the tree edge
// that created it) propagate into its parent frame. Returns whether an
// SCC closed, and if so whether it was trivial (exactly one state, per
// §6's trivial_sccs; a one-state SCC with a self-loop counts as trivial).
func (e *Engine) pop(stack *[]*frame) (closed bool, trivial bool, found bool, err error) {
	s := *stack
	top := s[len(s)-1]
	*stack = s[:len(s)-1]

	if top.lowlink == top.position {
		// SCC closes: every live state at or above this position dies.
		n := 0
		for len(e.live) > top.position {
			dead := e.live[len(e.live)-1]
			e.live = e.live[:len(e.live)-1]
			e.colours.MarkDead(dead.Key())
			n++
		}
		return true, n == 1, false, nil
	}

	if len(*stack) == 0 {
		return false, false, false, fmt.Errorf("tarjan: non-trivial frame closing with no parent on the stack")
	}
	parent := (*stack)[len(*stack)-1]
	if top.lowlink < parent.lowlink {
		parent.lowlink = top.lowlink
	}
	parent.marks = parent.marks.Union(top.marks).Union(top.parentEdge)
	return false, false, parent.marks.IsFull(e.numMarks), nil
}
