package product

import (
	"testing"

	"github.com/smilemakc/ltlcheck/internal/automaton"
	"github.com/smilemakc/ltlcheck/internal/guard"
	"github.com/smilemakc/ltlcheck/internal/markset"
	"github.com/smilemakc/ltlcheck/internal/model"
	"github.com/smilemakc/ltlcheck/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func selfLoopAutomaton(t *testing.T) *automaton.Explicit {
	t.Helper()
	a := automaton.NewExplicit(0, 1)
	a.AddState(automaton.State{ID: 0})
	a.AddEdge(0, guard.True(), markset.Empty().With(0), 0)
	return a
}

func TestProductRestrictsByGuardSatisfiability(t *testing.T) {
	backend := testutil.NewStubBackend("s0").
		AddEdge("s0", "p", "s0").
		AddEdge("s0", "!p", "s1")

	a := automaton.NewExplicit(0, 1)
	a.AddState(automaton.State{ID: 0})
	a.AddEdge(0, mustGuard(t, "p"), markset.Empty(), 0)

	o := &Oracle{Model: model.NewOracle(backend), Automaton: a}
	init, err := o.Initial()
	require.NoError(t, err)

	edges, err := o.Successors(init)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, "s0", string(edges[0].Dest.Model.Bytes()))
}

func TestProductPropagatesAutomatonMarksOnly(t *testing.T) {
	backend := testutil.NewStubBackend("s0").AddEdge("s0", "true", "s0")
	a := selfLoopAutomaton(t)

	o := &Oracle{Model: model.NewOracle(backend), Automaton: a}
	init, err := o.Initial()
	require.NoError(t, err)

	edges, err := o.Successors(init)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.True(t, edges[0].Marks.IsFull(1))
}

func TestStateKeyAndHashStable(t *testing.T) {
	s1 := State{Model: model.NewState([]byte("s0")), Automaton: 3}
	s2 := State{Model: model.NewState([]byte("s0")), Automaton: 3}
	assert.Equal(t, s1.Key(), s2.Key())
	assert.Equal(t, s1.Hash(), s2.Hash())
	assert.True(t, s1.Equal(s2))
}

func mustGuard(t *testing.T, label string) guard.Guard {
	t.Helper()
	g, err := guard.ParseLabel(label)
	require.NoError(t, err)
	return g
}
