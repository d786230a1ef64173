// Package testutil holds shared test doubles used across the emptiness
// checker's packages, following the teacher's hand-rolled-fake idiom
// (backend/testutil/mocks.go) rather than a mocking framework — the
// back-end and automaton interfaces this core consumes are small and
// stable enough that a generated mock buys nothing.
package testutil

import (
	"fmt"

	"github.com/smilemakc/ltlcheck/internal/model"
)

// StubEdge is one outgoing edge of a StubBackend state.
type StubEdge struct {
	Label string
	To    string
}

// StubBackend is a deterministic, in-memory model.Handle over a graph given
// as an adjacency list keyed by state name.
type StubBackend struct {
	Initial string
	Edges   map[string][]StubEdge
}

// NewStubBackend builds a StubBackend with an empty graph rooted at
// initial.
func NewStubBackend(initial string) *StubBackend {
	return &StubBackend{Initial: initial, Edges: map[string][]StubEdge{}}
}

// AddEdge appends an edge from -> to carrying label.
func (b *StubBackend) AddEdge(from, label, to string) *StubBackend {
	b.Edges[from] = append(b.Edges[from], StubEdge{Label: label, To: to})
	return b
}

// InitialState implements model.Handle.
func (b *StubBackend) InitialState() (model.State, error) {
	return model.NewState([]byte(b.Initial)), nil
}

// EnumerateSuccessors implements model.Handle.
func (b *StubBackend) EnumerateSuccessors(s model.State) ([]model.RawEdge, error) {
	name := string(s.Bytes())
	edges, ok := b.Edges[name]
	if !ok {
		return nil, nil
	}
	out := make([]model.RawEdge, 0, len(edges))
	for _, e := range edges {
		out = append(out, model.RawEdge{Label: e.Label, Dest: []byte(e.To)})
	}
	return out, nil
}

// FaultyBackend wraps a StubBackend and fails EnumerateSuccessors for a
// configured state name, to exercise §7's back-end runtime error path.
type FaultyBackend struct {
	*StubBackend
	FaultAt string
}

// EnumerateSuccessors implements model.Handle, injecting a fault.
func (b *FaultyBackend) EnumerateSuccessors(s model.State) ([]model.RawEdge, error) {
	if string(s.Bytes()) == b.FaultAt {
		return nil, fmt.Errorf("simulated evaluation of undefined variable at state %q", b.FaultAt)
	}
	return b.StubBackend.EnumerateSuccessors(s)
}
