package model

import (
	"testing"

	"github.com/smilemakc/ltlcheck/internal/config"
	"github.com/smilemakc/ltlcheck/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOracleSuccessors(t *testing.T) {
	backend := testutil.NewStubBackend("s0").
		AddEdge("s0", "true", "s1").
		AddEdge("s1", "x == 1", "s0")

	oracle := NewOracle(backend)
	init, err := oracle.Initial()
	require.NoError(t, err)
	assert.Equal(t, "s0", string(init.Bytes()))

	ts, err := oracle.Successors(init)
	require.NoError(t, err)
	require.Len(t, ts, 1)
	assert.Equal(t, "s1", string(ts[0].Dest.Bytes()))
	assert.False(t, ts[0].Guard.IsUnsatisfiable())
}

func TestOracleSurfacesBackendRuntimeError(t *testing.T) {
	faulty := &testutil.FaultyBackend{
		StubBackend: testutil.NewStubBackend("s0").AddEdge("s0", "true", "s1"),
		FaultAt:     "s0",
	}
	oracle := NewOracle(faulty)
	init, err := oracle.Initial()
	require.NoError(t, err)

	_, err = oracle.Successors(init)
	assert.Error(t, err)
}

func TestOracleDeadStateHasNoSuccessorsByDefault(t *testing.T) {
	backend := testutil.NewStubBackend("s0")
	oracle := NewOracle(backend)

	ts, err := oracle.Successors(NewState([]byte("s0")))
	require.NoError(t, err)
	assert.Empty(t, ts)
}

func TestOracleDeadStateSingletonTrueSelfLoops(t *testing.T) {
	backend := testutil.NewStubBackend("s0")
	oracle := NewOracle(backend).WithDeadMode(config.DeadSingletonTrue, "")

	ts, err := oracle.Successors(NewState([]byte("s0")))
	require.NoError(t, err)
	require.Len(t, ts, 1)
	assert.False(t, ts[0].Guard.IsUnsatisfiable())
	assert.True(t, ts[0].Dest.Equal(NewState([]byte("s0"))))
}

func TestOracleDeadStateSingletonAPUsesNamedGuard(t *testing.T) {
	backend := testutil.NewStubBackend("s0")
	oracle := NewOracle(backend).WithDeadMode(config.DeadSingletonAP, "dead_ap")

	ts, err := oracle.Successors(NewState([]byte("s0")))
	require.NoError(t, err)
	require.Len(t, ts, 1)
	assert.Equal(t, "dead_ap", ts[0].Guard.Raw)
}

func TestStateHashAndEqual(t *testing.T) {
	a := NewState([]byte("s0"))
	b := NewState([]byte("s0"))
	c := NewState([]byte("s1"))

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Hash(), b.Hash())
	assert.False(t, a.Equal(c))
}

func TestSwarmShuffleDeterministic(t *testing.T) {
	mk := func() []Transition {
		return []Transition{
			{Dest: NewState([]byte("a"))},
			{Dest: NewState([]byte("b"))},
			{Dest: NewState([]byte("c"))},
			{Dest: NewState([]byte("d"))},
		}
	}

	ts1 := mk()
	Shuffle(NewSwarmRand(7, 0), ts1)

	ts2 := mk()
	Shuffle(NewSwarmRand(7, 0), ts2)

	for i := range ts1 {
		assert.True(t, ts1[i].Dest.Equal(ts2[i].Dest))
	}
}
