// Package product implements the synchronised Kripke x Automaton product
// (C3): product states, and a single Successors method for the
// Kripke x Automaton combinator, row-major over the Kripke side,
// restricted to guard-compatible pairs. There are no Kripke-only or
// automaton-only iterators.
package product

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/smilemakc/ltlcheck/internal/automaton"
	"github.com/smilemakc/ltlcheck/internal/markset"
	"github.com/smilemakc/ltlcheck/internal/model"
)

// State is a pair <model-state, automaton-state> (§3). Equality and hash
// are the coordinate-wise combinations.
type State struct {
	Model     model.State
	Automaton int
}

// Key returns a canonical string key suitable for a hash-cons table (the
// state pool, C1, canonicalises product states by this key so a state with
// the same content is created exactly once).
func (s State) Key() string {
	return fmt.Sprintf("%x|%d", s.Model.Bytes(), s.Automaton)
}

// Hash combines the model state's hash with the automaton state id.
func (s State) Hash() uint64 {
	h := xxhash.New()
	h.Write(s.Model.Bytes())
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(s.Automaton))
	h.Write(buf[:])
	return h.Sum64()
}

// Equal reports coordinate-wise equality.
func (s State) Equal(other State) bool {
	return s.Automaton == other.Automaton && s.Model.Equal(other.Model)
}

// Edge is the triple <guard, mark-set, destination> (§3 "Transition").
type Edge struct {
	Guard automaton.Guard
	Marks markset.Set
	Dest  State
}

// Oracle is the capability the iterator needs from each side of the
// product: expand a coordinate into its raw edges.
type Oracle struct {
	Model     *model.Oracle
	Automaton automaton.Automaton
}

// Successors computes the restricted Cartesian product at s: for every
// (i, j), the pair is defined iff L[i].Guard ∧ R[j].Guard ≠ ⊥, and in that
// case emits the conjoined guard and the union of marks (only the
// automaton side carries marks — the Kripke model has none, per §4.3).
// Iteration is row-major over the model side's successors.
func (o *Oracle) Successors(s State) ([]Edge, error) {
	left, err := o.Model.Successors(s.Model)
	if err != nil {
		return nil, err
	}
	right, err := o.Automaton.Successors(s.Automaton)
	if err != nil {
		return nil, fmt.Errorf("product: automaton successors at %d: %w", s.Automaton, err)
	}

	out := make([]Edge, 0, len(left)*len(right))
	for _, l := range left {
		for _, r := range right {
			combined := l.Guard.And(r.Guard)
			if combined.IsUnsatisfiable() {
				continue
			}
			out = append(out, Edge{
				Guard: combined,
				Marks: r.Marks,
				Dest:  State{Model: l.Dest, Automaton: r.To},
			})
		}
	}
	return out, nil
}

// Initial returns the product's initial state.
func (o *Oracle) Initial() (State, error) {
	m, err := o.Model.Initial()
	if err != nil {
		return State{}, err
	}
	return State{Model: m, Automaton: o.Automaton.Initial()}, nil
}
