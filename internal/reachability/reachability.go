// Package reachability implements the terminal sub-automaton's
// reachability-EC (§4.8's open-set, dispatched by §4.10's table): a
// terminal SCC is a complete sink whose every transition carries the
// full mark-set, so once any product state whose automaton coordinate
// belongs to a terminal SCC is reached, an accepting run exists — no SCC
// bookkeeping, root stack, or union-find is needed, only "has anyone
// reached one of these states yet". Grounded on
// original_source/src/fasttgbaalgos/ec/concur/openset.hh's
// find_or_put/get_one via internal/concurrent.OpenSet (C10), worker-pool
// shape reused from internal/parallel but stripped to what reachability
// actually needs.
package reachability

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/smilemakc/ltlcheck/internal/concurrent"
	"github.com/smilemakc/ltlcheck/internal/product"
)

// stateIndex recovers the product.State a worker needs to expand a key
// TryGrab handed back, since OpenSet itself only tracks deduplicated
// string keys.
type stateIndex struct {
	mu   sync.Mutex
	byID map[string]product.State
}

func newStateIndex() *stateIndex {
	return &stateIndex{byID: map[string]product.State{}}
}

func (s *stateIndex) put(key string, state product.State) {
	s.mu.Lock()
	s.byID[key] = state
	s.mu.Unlock()
}

func (s *stateIndex) get(key string) (product.State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.byID[key]
	return state, ok
}

// Result is the verdict plus the minimal statistics a reachability
// search produces.
type Result struct {
	Found       bool
	Inserted    int
	Transitions int
}

// Run searches oracle's product from its initial state for any state
// whose automaton coordinate is in terminalStates, using workers
// goroutines sharing one open-set. It returns as soon as one is found,
// the open-set is exhausted, or ctx is cancelled (a sibling terminal/weak/
// strong check found its own witness first).
func Run(ctx context.Context, oracle *product.Oracle, terminalStates map[int]bool, workers int) (Result, error) {
	if workers < 1 {
		workers = 1
	}

	init, err := oracle.Initial()
	if err != nil {
		return Result{}, fmt.Errorf("reachability: computing initial state: %w", err)
	}

	open := concurrent.NewOpenSet()
	states := newStateIndex()
	states.put(init.Key(), init)
	open.Insert(init.Key())

	var found atomic.Bool
	var pending atomic.Int64
	var transitions atomic.Int64
	pending.Add(1)

	if terminalStates[init.Automaton] {
		found.Store(true)
	}

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			return runWorker(ctx, oracle, terminalStates, open, states, &found, &pending, &transitions)
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	return Result{Found: found.Load(), Inserted: open.Size(), Transitions: int(transitions.Load())}, nil
}

// runWorker drains the shared open-set until a terminal witness is
// found, ctx is cancelled, or pending (the count of discovered-but-not-
// yet-fully-expanded states) reaches zero: that is the only safe point
// at which "no more work exists" can be concluded, since a grabbed item
// still being expanded keeps pending above zero until its successors
// have all been accounted for.
func runWorker(
	ctx context.Context,
	oracle *product.Oracle,
	terminalStates map[int]bool,
	open *concurrent.OpenSet,
	states *stateIndex,
	found *atomic.Bool,
	pending *atomic.Int64,
	transitions *atomic.Int64,
) error {
	for {
		if ctx.Err() != nil || found.Load() {
			return nil
		}

		key, ok := open.TryGrab()
		if !ok {
			if pending.Load() == 0 {
				return nil
			}
			time.Sleep(100 * time.Microsecond)
			continue
		}

		s, known := states.get(key)
		if !known {
			// Unreachable: every inserted key is stored before Insert is
			// called, so a successful grab always has a prior put.
			pending.Add(-1)
			continue
		}

		succs, err := oracle.Successors(s)
		if err != nil {
			return fmt.Errorf("reachability: successors of %s: %w", key, err)
		}
		for _, e := range succs {
			if found.Load() {
				return nil
			}
			transitions.Add(1)
			destKey := e.Dest.Key()
			states.put(destKey, e.Dest)
			if terminalStates[e.Dest.Automaton] {
				found.Store(true)
				return nil
			}
			if open.Insert(destKey) {
				pending.Add(1)
			}
		}
		pending.Add(-1)
	}
}
