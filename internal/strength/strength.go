// Package strength implements the C12 strength decomposer: classifies the
// property automaton's SCCs (terminal/weak/strong/non-accepting per §4.10)
// and derives the three pruned sub-automata the driver dispatches onto
// C11's algorithms. Grounded on spec §4.10 directly for the classification
// rules and the three-way dispatch table; the per-state strength tag
// itself mirrors
// original_source/src/fasttgbaalgos/ec/cou99strength.cc's
// get_strength/UNKNOWN_SCC cache, generalized from "one state at a time,
// strength precomputed by construction" to "classify the whole SCC graph
// up front" since this implementation has no upstream automaton builder to
// stamp strengths in. SCC discovery reuses the iterative, explicit-stack
// shape of internal/tarjan (no recursion, consistent house style) applied
// to the automaton graph alone — no model/product state is involved.
package strength

import (
	"fmt"
	"sort"

	"github.com/smilemakc/ltlcheck/internal/automaton"
)

// SCC is one strongly connected component of the automaton graph.
type SCC struct {
	Index    int
	Members  []int
	Strength automaton.Strength
}

// Classification is the per-state and per-SCC result of classifying an
// automaton's SCC graph.
type Classification struct {
	States  map[int]automaton.State // ID -> State with Strength/SCCIndex filled in
	SCCs    []SCC
	sccOf   map[int]int   // state ID -> SCC index
	condAdj map[int][]int // SCC index -> SCC indices reachable by one edge
}

// Classify computes the SCC graph of a (automaton-side only, marks-free of
// the model) and tags every state with its enclosing SCC's strength.
func Classify(a automaton.Automaton) (*Classification, error) {
	sccs, sccOf, err := tarjanSCCs(a)
	if err != nil {
		return nil, err
	}

	cond := map[int][]int{}
	seenEdge := map[[2]int]bool{}
	internalEdges := map[int][]automaton.Edge{} // SCC index -> edges with both endpoints inside it
	hasExternalEdge := map[int]bool{}           // SCC index -> some edge leaves it

	for _, st := range a.States() {
		edges, err := a.Successors(st.ID)
		if err != nil {
			return nil, fmt.Errorf("strength: successors of %d: %w", st.ID, err)
		}
		from := sccOf[st.ID]
		for _, e := range edges {
			to := sccOf[e.To]
			if to == from {
				internalEdges[from] = append(internalEdges[from], e)
				continue
			}
			hasExternalEdge[from] = true
			key := [2]int{from, to}
			if !seenEdge[key] {
				seenEdge[key] = true
				cond[from] = append(cond[from], to)
			}
		}
	}

	result := make([]SCC, len(sccs))
	for i, members := range sccs {
		result[i] = SCC{
			Index:    i,
			Members:  members,
			Strength: classifySCC(internalEdges[i], hasExternalEdge[i], a.NumMarks()),
		}
	}

	states := make(map[int]automaton.State, len(a.States()))
	for _, st := range a.States() {
		idx := sccOf[st.ID]
		st.SCCIndex = idx
		st.Strength = result[idx].Strength
		states[st.ID] = st
	}

	return &Classification{States: states, SCCs: result, sccOf: sccOf, condAdj: cond}, nil
}

// classifySCC applies §4.10's rules to one SCC's internal edges.
//
//   - Non-accepting: no internal edge carries any mark, so no run confined
//     to the SCC can ever be accepting.
//   - Terminal: the SCC is a sink (no edge leaves it) and every internal
//     edge carries the full mark-set. Whether the SCC's guards cover every
//     valuation is not checked.
//   - Weak: every internal edge carries either the full mark-set or none,
//     but the SCC is not terminal.
//   - Strong: some internal edge carries a partial (neither full nor
//     empty) mark-set.
func classifySCC(internal []automaton.Edge, hasExternalEdge bool, numMarks int) automaton.Strength {
	if len(internal) == 0 {
		return automaton.NonAccepting
	}

	anyMarked := false
	allFullOrEmpty := true
	allFull := true
	for _, e := range internal {
		if !e.Marks.IsEmpty() {
			anyMarked = true
		}
		if !e.Marks.IsFull(numMarks) {
			allFull = false
		}
		if !e.Marks.IsEmpty() && !e.Marks.IsFull(numMarks) {
			allFullOrEmpty = false
		}
	}
	if !anyMarked {
		return automaton.NonAccepting
	}
	if !allFullOrEmpty {
		return automaton.Strong
	}
	if !hasExternalEdge && allFull {
		return automaton.Terminal
	}
	return automaton.Weak
}

// tarjanSCCs computes the automaton's strongly connected components with
// an iterative (explicit-stack) Tarjan walk, returning each SCC as a
// member-ID slice and a state-ID -> SCC-index map.
func tarjanSCCs(a automaton.Automaton) ([][]int, map[int]int, error) {
	index := map[int]int{}
	lowlink := map[int]int{}
	onStack := map[int]bool{}
	var stack []int
	var sccs [][]int
	sccOf := map[int]int{}
	nextIndex := 0

	type visitFrame struct {
		v       int
		succs   []automaton.Edge
		next    int
	}

	ids := make([]int, 0, len(a.States()))
	for _, st := range a.States() {
		ids = append(ids, st.ID)
	}
	sort.Ints(ids)

	var visit func(start int) error
	visit = func(start int) error {
		var frames []*visitFrame
		push := func(v int) error {
			succs, err := a.Successors(v)
			if err != nil {
				return fmt.Errorf("strength: successors of %d: %w", v, err)
			}
			index[v] = nextIndex
			lowlink[v] = nextIndex
			nextIndex++
			stack = append(stack, v)
			onStack[v] = true
			frames = append(frames, &visitFrame{v: v, succs: succs})
			return nil
		}

		if _, visited := index[start]; visited {
			return nil
		}
		if err := push(start); err != nil {
			return err
		}

		for len(frames) > 0 {
			top := frames[len(frames)-1]
			if top.next >= len(top.succs) {
				frames = frames[:len(frames)-1]
				if lowlink[top.v] == index[top.v] {
					var members []int
					for {
						n := len(stack) - 1
						w := stack[n]
						stack = stack[:n]
						onStack[w] = false
						members = append(members, w)
						if w == top.v {
							break
						}
					}
					sccIdx := len(sccs)
					sccs = append(sccs, members)
					for _, m := range members {
						sccOf[m] = sccIdx
					}
				}
				if len(frames) > 0 {
					parent := frames[len(frames)-1]
					if lowlink[top.v] < lowlink[parent.v] {
						lowlink[parent.v] = lowlink[top.v]
					}
				}
				continue
			}

			edge := top.succs[top.next]
			top.next++
			w := edge.To
			if _, visited := index[w]; !visited {
				if err := push(w); err != nil {
					return err
				}
				continue
			}
			if onStack[w] && index[w] < lowlink[top.v] {
				lowlink[top.v] = index[w]
			}
		}
		return nil
	}

	for _, id := range ids {
		if err := visit(id); err != nil {
			return nil, nil, err
		}
	}

	return sccs, sccOf, nil
}

// Decomposition holds the three pruned sub-automata §4.10 dispatches onto
// C11's algorithms.
type Decomposition struct {
	// Terminal is nil if no terminal SCC is reachable from the initial
	// state — reachability-EC has nothing to check.
	Terminal *automaton.Explicit
	// Weak is nil if no weak or terminal SCC is reachable.
	Weak *automaton.Explicit
	// Strong is always present: it is the original automaton, states
	// re-tagged with their Strength/SCCIndex.
	Strong *automaton.Explicit
}

// Decompose classifies a and builds the pruned sub-automata of §4.10:
// terminal keeps only terminal SCCs and their ancestors back to the
// initial state; weak extends that to weak ∪ terminal; strong is the
// whole automaton (every SCC class can exhibit a cycle a full DFS-EC must
// catch, since it is the fallback when the others find nothing).
func Decompose(a automaton.Automaton) (*Decomposition, error) {
	c, err := Classify(a)
	if err != nil {
		return nil, err
	}

	reverse := map[int][]int{}
	for from, tos := range c.condAdj {
		for _, to := range tos {
			reverse[to] = append(reverse[to], from)
		}
	}

	ancestorsOf := func(target func(SCC) bool) map[int]bool {
		keep := map[int]bool{}
		var queue []int
		for _, scc := range c.SCCs {
			if target(scc) {
				keep[scc.Index] = true
				queue = append(queue, scc.Index)
			}
		}
		for len(queue) > 0 {
			idx := queue[0]
			queue = queue[1:]
			for _, pred := range reverse[idx] {
				if !keep[pred] {
					keep[pred] = true
					queue = append(queue, pred)
				}
			}
		}
		return keep
	}

	terminalSCCs := ancestorsOf(func(s SCC) bool { return s.Strength == automaton.Terminal })
	weakSCCs := ancestorsOf(func(s SCC) bool {
		return s.Strength == automaton.Terminal || s.Strength == automaton.Weak
	})

	// A sub-automaton is built only if the initial state's SCC is in its
	// keep-set, i.e. some target SCC is reachable from the initial state.
	initSCC, initKnown := c.sccOf[a.Initial()]
	var terminal, weak *automaton.Explicit
	if hasAnyTerminal(c.SCCs) && initKnown && terminalSCCs[initSCC] {
		terminal, err = prune(a, c, terminalSCCs)
		if err != nil {
			return nil, err
		}
	}
	if hasAnyWeakOrTerminal(c.SCCs) && initKnown && weakSCCs[initSCC] {
		weak, err = prune(a, c, weakSCCs)
		if err != nil {
			return nil, err
		}
	}

	strong, err := prune(a, c, nil) // nil keep-set => keep every SCC
	if err != nil {
		return nil, err
	}

	return &Decomposition{Terminal: terminal, Weak: weak, Strong: strong}, nil
}

func hasAnyTerminal(sccs []SCC) bool {
	for _, s := range sccs {
		if s.Strength == automaton.Terminal {
			return true
		}
	}
	return false
}

func hasAnyWeakOrTerminal(sccs []SCC) bool {
	for _, s := range sccs {
		if s.Strength == automaton.Weak || s.Strength == automaton.Terminal {
			return true
		}
	}
	return false
}

// prune builds a copy of a restricted to the SCCs in keep (nil keep means
// "every SCC"), dropping edges that would leave the kept state set.
func prune(a automaton.Automaton, c *Classification, keep map[int]bool) (*automaton.Explicit, error) {
	out := automaton.NewExplicit(a.Initial(), a.NumMarks())
	keptState := map[int]bool{}

	for _, st := range a.States() {
		tagged := c.States[st.ID]
		if keep != nil && !keep[c.sccOf[st.ID]] {
			continue
		}
		out.AddState(tagged)
		keptState[st.ID] = true
	}

	for id := range keptState {
		edges, err := a.Successors(id)
		if err != nil {
			return nil, fmt.Errorf("strength: successors of %d: %w", id, err)
		}
		for _, e := range edges {
			if !keptState[e.To] {
				continue
			}
			out.AddEdge(id, e.Guard, e.Marks, e.To)
		}
	}

	return out, nil
}
