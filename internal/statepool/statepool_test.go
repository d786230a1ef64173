package statepool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedPoolAllocateNeverPanics(t *testing.T) {
	p := NewFixedPool(16)
	ptrs := make([]Ptr, 0, 1000)
	for i := 0; i < 1000; i++ {
		ptr, slot := p.Allocate()
		require.Len(t, slot, 16)
		ptrs = append(ptrs, ptr)
	}
	assert.Equal(t, 1000, p.Live())
}

func TestFixedPoolReusesFreedSlots(t *testing.T) {
	p := NewFixedPool(8)
	ptr, slot := p.Allocate()
	slot[0] = 0xAB
	p.Deallocate(ptr)
	assert.Equal(t, 0, p.Live())

	ptr2, slot2 := p.Allocate()
	assert.Equal(t, 1, p.Live())
	assert.Equal(t, ptr, ptr2, "the sole freed slot should be reused before growing a new chunk")
	assert.Equal(t, byte(0), slot2[0], "reused slots must come back cleared")
}

func TestFixedPoolGrowsAcrossChunkBoundary(t *testing.T) {
	p := NewFixedPool(4)
	var last Ptr
	var lastBytes []byte
	for i := 0; i < initialChunkSlots+10; i++ {
		last, lastBytes = p.Allocate()
	}
	assert.Equal(t, initialChunkSlots+10, p.Live())
	require.Len(t, lastBytes, 4)
	_ = last
}

func TestMultiPoolBucketsBySize(t *testing.T) {
	p := NewMultiPool()
	size1, ptr1, slot1 := p.Allocate(4)
	size2, ptr2, slot2 := p.Allocate(12)
	require.Len(t, slot1, 4)
	require.Len(t, slot2, 12)
	assert.Equal(t, 2, p.Live())

	p.Deallocate(size1, ptr1)
	p.Deallocate(size2, ptr2)
	assert.Equal(t, 0, p.Live())
}
