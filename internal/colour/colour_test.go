package colour

import (
	"testing"

	"github.com/smilemakc/ltlcheck/internal/config"
	"github.com/smilemakc/ltlcheck/internal/markset"
	"github.com/stretchr/testify/assert"
)

func TestTableTransitionsLiveToDead(t *testing.T) {
	tb := NewTable(config.DeadStoreTableSentinel)
	c, _ := tb.Colour("s0")
	assert.Equal(t, Unknown, c)

	tb.MarkLive("s0", 3)
	c, pos := tb.Colour("s0")
	assert.Equal(t, Live, c)
	assert.Equal(t, 3, pos)

	tb.MarkDead("s0")
	c, _ = tb.Colour("s0")
	assert.Equal(t, Dead, c)
	assert.True(t, tb.IsDead("s0"))
}

func TestTableSeparateDeadStoreDropsFromLiveMap(t *testing.T) {
	tb := NewTable(config.DeadStoreSeparate)
	tb.MarkLive("s0", 0)
	tb.MarkDead("s0")
	assert.Equal(t, 0, tb.LiveCount())
	assert.True(t, tb.IsDead("s0"))
}

func TestDenseRootStackPushPop(t *testing.T) {
	s := NewDenseRootStack()
	s.PushTrivial(0, markset.Empty())
	s.PushTrivial(1, markset.Empty())
	s.PushTrivial(2, markset.Empty())
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 2, s.TopRootPosition())

	s.Pop()
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 1, s.TopRootPosition())
}

func TestCompressedRootStackMergesTrivialRuns(t *testing.T) {
	s := NewCompressedRootStack()
	s.PushTrivial(0, markset.Empty())
	s.PushTrivial(1, markset.Empty())
	s.PushTrivial(2, markset.Empty())
	assert.Equal(t, 1, s.Len(), "consecutive trivial pushes merge into one run")
	assert.Equal(t, 2, s.TopRootPosition(), "top of a trivial run is its highest, most recently pushed position")

	s.Pop()
	assert.Equal(t, 1, s.Len(), "popping a run of length >= 2 shrinks it instead of removing it")
	assert.Equal(t, 1, s.TopRootPosition())

	s.Pop()
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 0, s.TopRootPosition())

	s.Pop()
	assert.True(t, s.Empty())
}

func TestCompressedRootStackNonTrivialBreaksRun(t *testing.T) {
	s := NewCompressedRootStack()
	s.PushTrivial(0, markset.Empty())
	s.PushTrivial(1, markset.Empty())
	s.PushNonTrivial(0, markset.Full(1), 1)
	assert.Equal(t, 2, s.Len())
}

// TestCompressedRootStackMarkedTrivialPushStartsNewRun exercises the rule
// that a trivial push carrying a nonzero entry mark never merges into a
// neighbouring run, even one that would otherwise be contiguous — folding
// it in would let the run's shared mark-set silently speak for a position
// whose tree edge never actually carried that mark.
func TestCompressedRootStackMarkedTrivialPushStartsNewRun(t *testing.T) {
	s := NewCompressedRootStack()
	s.PushTrivial(0, markset.Empty())
	s.PushTrivial(1, markset.Empty())
	assert.Equal(t, 1, s.Len())

	s.PushTrivial(2, markset.Full(1).With(0))
	assert.Equal(t, 2, s.Len(), "a marked trivial push must start its own run")
	assert.Equal(t, 2, s.TopRootPosition())
	assert.False(t, s.TopMarks().IsEmpty())

	s.PushTrivial(3, markset.Empty())
	assert.Equal(t, 3, s.Len(), "an unmarked push after a marked run starts yet another run")
}
