// Package automaton defines the acceptance automaton side of the product
// (§3 "Automaton state") and a small explicit representation used by tests,
// the strength decomposer (C12), and the CLI.
package automaton

import (
	"fmt"

	"github.com/smilemakc/ltlcheck/internal/guard"
	"github.com/smilemakc/ltlcheck/internal/markset"
)

// Strength classifies an automaton state's enclosing SCC (§4.10, §3).
type Strength int

const (
	NonAccepting Strength = iota
	Strong
	Weak
	Terminal
)

func (s Strength) String() string {
	switch s {
	case Strong:
		return "strong"
	case Weak:
		return "weak"
	case Terminal:
		return "terminal"
	default:
		return "non-accepting"
	}
}

// State identifies an automaton state: an index into a finite set, carrying
// a strength tag and SCC index (§3).
type State struct {
	ID       int
	Strength Strength
	SCCIndex int
}

// Edge is one outgoing transition of the property automaton: a guard, an
// acceptance-mark set, and a destination state.
type Edge struct {
	Guard Guard
	Marks markset.Set
	To    int
}

// Guard aliases guard.Guard so automaton callers don't need to import the
// guard package directly for the common case.
type Guard = guard.Guard

// Automaton is the capability interface the core needs from "any
// automaton" (Design Notes §9: a single capability interface rather than
// open inheritance): initial state, successor enumeration, and per-state
// metadata.
type Automaton interface {
	Initial() int
	States() []State
	Successors(stateID int) ([]Edge, error)
	NumMarks() int
}

// Explicit is a finite, adjacency-list-backed Automaton: every state and
// edge is known up front. Used directly by tests and by the strength
// decomposer when it prunes a sub-automaton.
type Explicit struct {
	InitialState int
	StateList    []State
	Adjacency    map[int][]Edge
	MarkCount    int
}

// NewExplicit builds an empty explicit automaton over numMarks acceptance
// marks, rooted at initial.
func NewExplicit(initial, numMarks int) *Explicit {
	return &Explicit{InitialState: initial, Adjacency: map[int][]Edge{}, MarkCount: numMarks}
}

// AddState registers a state (idempotent on ID).
func (a *Explicit) AddState(s State) {
	for _, existing := range a.StateList {
		if existing.ID == s.ID {
			return
		}
	}
	a.StateList = append(a.StateList, s)
}

// AddEdge appends an edge from -> to carrying guard g and marks m.
func (a *Explicit) AddEdge(from int, g Guard, m markset.Set, to int) {
	a.Adjacency[from] = append(a.Adjacency[from], Edge{Guard: g, Marks: m, To: to})
}

// Initial implements Automaton.
func (a *Explicit) Initial() int { return a.InitialState }

// States implements Automaton.
func (a *Explicit) States() []State { return a.StateList }

// Successors implements Automaton.
func (a *Explicit) Successors(stateID int) ([]Edge, error) {
	if _, ok := a.Adjacency[stateID]; !ok {
		if !a.hasState(stateID) {
			return nil, fmt.Errorf("automaton: unknown state %d", stateID)
		}
	}
	return a.Adjacency[stateID], nil
}

// NumMarks implements Automaton.
func (a *Explicit) NumMarks() int { return a.MarkCount }

func (a *Explicit) hasState(id int) bool {
	for _, s := range a.StateList {
		if s.ID == id {
			return true
		}
	}
	return false
}

// StateByID returns the State record for id, if registered.
func (a *Explicit) StateByID(id int) (State, bool) {
	for _, s := range a.StateList {
		if s.ID == id {
			return s, true
		}
	}
	return State{}, false
}
