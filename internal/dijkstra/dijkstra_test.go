package dijkstra

import (
	"testing"

	"github.com/smilemakc/ltlcheck/internal/automaton"
	"github.com/smilemakc/ltlcheck/internal/config"
	"github.com/smilemakc/ltlcheck/internal/guard"
	"github.com/smilemakc/ltlcheck/internal/markset"
	"github.com/smilemakc/ltlcheck/internal/model"
	"github.com/smilemakc/ltlcheck/internal/product"
	"github.com/smilemakc/ltlcheck/testutil"
	"github.com/stretchr/testify/require"
)

func testConfig(rootStack config.RootStackMode) *config.EngineConfig {
	return &config.EngineConfig{DeadStore: config.DeadStoreTableSentinel, RootStack: rootStack}
}

func mustGuard(t *testing.T, label string) guard.Guard {
	t.Helper()
	g, err := guard.ParseLabel(label)
	require.NoError(t, err)
	return g
}

// TestEngineFindsSingleAcceptingSelfLoop mirrors the tarjan package's
// equivalent test (§8 T1: the two engines must agree on every finite
// prefix), for both root-stack encodings.
func TestEngineFindsSingleAcceptingSelfLoop(t *testing.T) {
	for _, mode := range []config.RootStackMode{config.RootStackDense, config.RootStackCompressed} {
		backend := testutil.NewStubBackend("s0").AddEdge("s0", "true", "s0")
		a := automaton.NewExplicit(0, 1)
		a.AddState(automaton.State{ID: 0})
		a.AddEdge(0, guard.True(), markset.Empty().With(0), 0)

		oracle := &product.Oracle{Model: model.NewOracle(backend), Automaton: a}
		eng := New(oracle, a.NumMarks(), testConfig(mode))

		res, err := eng.Run()
		require.NoError(t, err)
		require.True(t, res.Found, "root-stack mode %s", mode)
	}
}

func TestEngineRejectsGuardContradiction(t *testing.T) {
	for _, mode := range []config.RootStackMode{config.RootStackDense, config.RootStackCompressed} {
		backend := testutil.NewStubBackend("s0").AddEdge("s0", "p", "s0")
		a := automaton.NewExplicit(0, 1)
		a.AddState(automaton.State{ID: 0})
		a.AddEdge(0, mustGuard(t, "!p"), markset.Empty().With(0), 0)

		oracle := &product.Oracle{Model: model.NewOracle(backend), Automaton: a}
		eng := New(oracle, a.NumMarks(), testConfig(mode))

		res, err := eng.Run()
		require.NoError(t, err)
		require.False(t, res.Found, "root-stack mode %s", mode)
	}
}

func TestEngineRequiresBothMarksOnCycle(t *testing.T) {
	for _, mode := range []config.RootStackMode{config.RootStackDense, config.RootStackCompressed} {
		backend := testutil.NewStubBackend("s0").
			AddEdge("s0", "true", "s1").
			AddEdge("s1", "true", "s0")

		a := automaton.NewExplicit(0, 2)
		a.AddState(automaton.State{ID: 0})
		a.AddState(automaton.State{ID: 1})
		a.AddEdge(0, guard.True(), markset.Empty().With(0), 1)
		a.AddEdge(1, guard.True(), markset.Empty().With(1), 0)

		oracle := &product.Oracle{Model: model.NewOracle(backend), Automaton: a}
		eng := New(oracle, a.NumMarks(), testConfig(mode))

		res, err := eng.Run()
		require.NoError(t, err)
		require.True(t, res.Found, "root-stack mode %s", mode)
	}
}

func TestEngineRejectsNonAcceptingCycle(t *testing.T) {
	for _, mode := range []config.RootStackMode{config.RootStackDense, config.RootStackCompressed} {
		backend := testutil.NewStubBackend("s0").
			AddEdge("s0", "true", "s1").
			AddEdge("s1", "true", "s0")

		a := automaton.NewExplicit(0, 2)
		a.AddState(automaton.State{ID: 0})
		a.AddEdge(0, guard.True(), markset.Empty(), 0)

		oracle := &product.Oracle{Model: model.NewOracle(backend), Automaton: a}
		eng := New(oracle, a.NumMarks(), testConfig(mode))

		res, err := eng.Run()
		require.NoError(t, err)
		require.False(t, res.Found, "root-stack mode %s", mode)
	}
}

// TestEngineTracksBoundedMemoryCounters is T6: the engine must report
// genuine (non-zero) Transitions/MaxDFSSize/MaxRootStack counters and a
// DeadStoreSize that accounts for every visited state once the product
// is fully explored, not the zero-valued placeholders the Result struct
// starts from.
func TestEngineTracksBoundedMemoryCounters(t *testing.T) {
	backend := testutil.NewStubBackend("s0").
		AddEdge("s0", "true", "s1").
		AddEdge("s1", "true", "s0")

	a := automaton.NewExplicit(0, 1)
	a.AddState(automaton.State{ID: 0})
	a.AddEdge(0, guard.True(), markset.Empty(), 0) // no marks ever set

	oracle := &product.Oracle{Model: model.NewOracle(backend), Automaton: a}
	eng := New(oracle, a.NumMarks(), testConfig(config.RootStackDense))

	res, err := eng.Run()
	require.NoError(t, err)
	require.False(t, res.Found)

	require.Equal(t, 2, res.StatesVisited)
	require.Equal(t, 2, res.Transitions)
	require.Greater(t, res.MaxDFSSize, 0)
	require.Greater(t, res.MaxRootStack, 0)
	require.Equal(t, res.StatesVisited, res.DeadStoreSize, "a verified, fully-explored product ends with every state dead")
}
