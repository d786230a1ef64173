// Package statepool implements the bulk, arena-backed allocators product
// states are carried in (C1): a fixed-size pool for uncompressed states of
// uniform width, and a multi-size pool for the variable-width states a
// compression mode produces. Grounded on the chunked arena/free-list idiom
// in joeycumines-go-utilpkg's eventloop arena (arena.go) — here scaled from
// a single fixed-size ring to per-slot free lists with geometric chunk
// growth, since the pool must never wrap and overwrite a live state.
//
// Neither pool is safe for concurrent use: the spec calls for one pool per
// worker, so callers must not share a pool across goroutines.
package statepool

// Ptr is the pool's raw_ptr: an opaque handle to an allocated slot. It is
// only ever round-tripped through the pool it came from (FixedPool's
// Deallocate does not validate it; MultiPool's only checks that a bucket
// for the given size exists) — callers never need to know chunk layout.
type Ptr struct {
	chunk, offset int
}

// initialChunkSlots is the number of slots the first chunk of a FixedPool
// or size bucket holds; subsequent chunks double.
const initialChunkSlots = 256

// FixedPool allocates fixed-width byte slots with O(1) allocate/deallocate.
// Freed slots are kept on a LIFO free list, a slice of Ptrs.
type FixedPool struct {
	slotSize   int
	chunks     [][]byte
	chunkSlots []int
	free       []Ptr
	nextChunk  int
	live       int
}

// NewFixedPool builds a pool of slots slotSize bytes wide.
func NewFixedPool(slotSize int) *FixedPool {
	if slotSize < 1 {
		slotSize = 1
	}
	return &FixedPool{slotSize: slotSize, nextChunk: initialChunkSlots}
}

// Allocate returns a fresh slotSize-byte slot and the Ptr identifying it.
// Never fails: if the free list is empty, a new chunk is grown
// geometrically.
func (p *FixedPool) Allocate() (Ptr, []byte) {
	p.live++
	if n := len(p.free); n > 0 {
		ptr := p.free[n-1]
		p.free = p.free[:n-1]
		slot := p.slot(ptr)
		clear(slot)
		return ptr, slot
	}
	return p.grow()
}

// Deallocate returns a slot previously returned by Allocate to the free
// list. O(1) amortised; does not shrink the underlying chunks.
func (p *FixedPool) Deallocate(ptr Ptr) {
	p.live--
	p.free = append(p.free, ptr)
}

// Bytes dereferences ptr to the live slot it names.
func (p *FixedPool) Bytes(ptr Ptr) []byte { return p.slot(ptr) }

// Live returns the number of slots currently allocated (not on the free
// list).
func (p *FixedPool) Live() int { return p.live }

// SlotSize returns the fixed width of every slot in this pool.
func (p *FixedPool) SlotSize() int { return p.slotSize }

func (p *FixedPool) grow() (Ptr, []byte) {
	n := p.nextChunk
	p.nextChunk *= 2
	buf := make([]byte, n*p.slotSize)
	chunkIndex := len(p.chunks)
	p.chunks = append(p.chunks, buf)
	p.chunkSlots = append(p.chunkSlots, n)

	for i := n - 1; i >= 1; i-- {
		p.free = append(p.free, Ptr{chunk: chunkIndex, offset: i})
	}
	return Ptr{chunk: chunkIndex, offset: 0}, buf[0:p.slotSize]
}

func (p *FixedPool) slot(ptr Ptr) []byte {
	buf := p.chunks[ptr.chunk]
	start := ptr.offset * p.slotSize
	return buf[start : start+p.slotSize]
}

func clear(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// MultiPool allocates variable-width byte slots, bucketed by size: each
// distinct size requested gets its own FixedPool-style free list, so
// allocation and deallocation stay O(1) regardless of how many distinct
// widths are in flight (one bucket per width actually used, not per
// possible width). The slot header carrying the size (per spec §4.1) is
// the bucket key itself — callers must present the same n_bytes to
// Deallocate that they passed to Allocate, exactly as the contract
// requires.
type MultiPool struct {
	buckets map[int]*FixedPool
	live    int
}

// NewMultiPool builds an empty multi-size pool.
func NewMultiPool() *MultiPool {
	return &MultiPool{buckets: map[int]*FixedPool{}}
}

// Allocate returns a slot of exactly nBytes, plus the (bucket, Ptr) pair
// Deallocate needs to return it.
func (p *MultiPool) Allocate(nBytes int) (int, Ptr, []byte) {
	p.live++
	b := p.buckets[nBytes]
	if b == nil {
		b = NewFixedPool(nBytes)
		p.buckets[nBytes] = b
	}
	ptr, slot := b.Allocate()
	return nBytes, ptr, slot
}

// Deallocate returns a slot of size nBytes, identified by ptr, to its
// bucket's free list.
func (p *MultiPool) Deallocate(nBytes int, ptr Ptr) {
	p.live--
	b := p.buckets[nBytes]
	if b == nil {
		panic("statepool: MultiPool.Deallocate called with an unknown size bucket")
	}
	b.Deallocate(ptr)
}

// Live returns the number of slots currently allocated across every
// bucket.
func (p *MultiPool) Live() int { return p.live }
