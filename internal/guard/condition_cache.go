package guard

import (
	"container/list"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ConditionCache is a thread-safe LRU cache for compiled expr programs,
// adapted from the teacher's engine.ConditionCache: the cache key here is
// the skeletonized boolean label text built by skeletonize (atoms replaced
// by synthetic bool variables), not an edge condition string, since the
// same disjunctive label shape recurs across many product edges that share
// an automaton transition.
type ConditionCache struct {
	capacity int
	cache    map[string]*list.Element
	lruList  *list.List
	mu       sync.RWMutex
}

type cacheEntry struct {
	key     string
	program *vm.Program
}

// NewConditionCache creates a condition cache with the given capacity.
func NewConditionCache(capacity int) *ConditionCache {
	if capacity <= 0 {
		capacity = 100
	}
	return &ConditionCache{
		capacity: capacity,
		cache:    make(map[string]*list.Element),
		lruList:  list.New(),
	}
}

// Get retrieves a compiled program from the cache. It takes the write lock
// because a hit moves the entry to the front of the LRU list.
func (cc *ConditionCache) Get(key string) (*vm.Program, bool) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	if element, found := cc.cache[key]; found {
		cc.lruList.MoveToFront(element)
		entry := element.Value.(*cacheEntry)
		return entry.program, true
	}
	return nil, false
}

// Put stores a compiled program in the cache.
func (cc *ConditionCache) Put(key string, program *vm.Program) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	if element, found := cc.cache[key]; found {
		cc.lruList.MoveToFront(element)
		element.Value.(*cacheEntry).program = program
		return
	}

	entry := &cacheEntry{key: key, program: program}
	element := cc.lruList.PushFront(entry)
	cc.cache[key] = element

	if cc.lruList.Len() > cc.capacity {
		cc.evictOldest()
	}
}

// evictOldest removes the least recently used entry. Must be called with
// the lock held.
func (cc *ConditionCache) evictOldest() {
	oldest := cc.lruList.Back()
	if oldest != nil {
		cc.lruList.Remove(oldest)
		entry := oldest.Value.(*cacheEntry)
		delete(cc.cache, entry.key)
	}
}

// Len returns the current number of cached programs.
func (cc *ConditionCache) Len() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return cc.lruList.Len()
}

// CompileAndCache compiles a boolean expr program for key, or returns the
// cached one. env, when non-nil, types the compile-time environment the way
// the teacher's evaluator does; guard's own callers always compile against a
// dynamic map[string]bool environment supplied only at Run time, so they
// pass nil.
func (cc *ConditionCache) CompileAndCache(key string, env interface{}) (*vm.Program, error) {
	if program, found := cc.Get(key); found {
		return program, nil
	}

	opts := []expr.Option{expr.AsBool()}
	if env != nil {
		opts = append(opts, expr.Env(env))
	}
	program, err := expr.Compile(key, opts...)
	if err != nil {
		return nil, err
	}

	cc.Put(key, program)
	return program, nil
}
