// Package model adapts the external, dynamically-loaded model back-end's
// C-ABI function table (out of scope, consumed only) into the transition
// oracle the core actually uses (C2).
package model

import (
	"context"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/smilemakc/ltlcheck/internal/config"
	"github.com/smilemakc/ltlcheck/internal/guard"
	"github.com/smilemakc/ltlcheck/internal/retry"
)

// State is the opaque, byte-addressable value the model back-end produces.
// The core never inspects its fields, only hashes, compares, and clones it.
type State struct {
	bytes []byte
}

// NewState wraps a byte vector produced by the back-end.
func NewState(b []byte) State {
	return State{bytes: append([]byte(nil), b...)}
}

// Bytes exposes the raw byte representation.
func (s State) Bytes() []byte { return s.bytes }

// Hash returns a 64-bit hash of the state's byte content, used by the
// state pool's hash-cons table (C1) and the lock-free tables (C9/C10).
func (s State) Hash() uint64 {
	return xxhash.Sum64(s.bytes)
}

// Equal reports byte-for-byte equality.
func (s State) Equal(other State) bool {
	if len(s.bytes) != len(other.bytes) {
		return false
	}
	for i := range s.bytes {
		if s.bytes[i] != other.bytes[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of s.
func (s State) Clone() State {
	return NewState(s.bytes)
}

// Destroy releases s's resources. Go's GC reclaims the backing array once
// unreferenced; this method exists for parity with the back-end's
// reference-counted model states and to give callers a single place to
// hook instrumentation (e.g. counting destroyed states) without it costing
// anything when unused.
func (s State) Destroy() {}

// RawEdge is one successor the back-end's enumerate_successors callback
// reports for a given state: a textual label (interpreted into a Guard by
// the package-level label interpreter) and the destination state's bytes.
type RawEdge struct {
	Label string
	Dest  []byte
	Group int // back-end "group index", passed through unchanged
}

// Handle stands in for the back-end's function table (§6 "Model back-end
// ABI"): initial-state construction and successor enumeration. Variable
// naming/typing and read-dependency lookup are part of the real ABI but are
// not needed by anything this core does, so they are omitted here.
type Handle interface {
	InitialState() (State, error)
	EnumerateSuccessors(State) ([]RawEdge, error)
}

// Transition is the triple <guard, mark-set, destination> the oracle
// produces for a state; mark-set is always empty on the model side (the
// Kripke structure carries no acceptance marks — see §4.3).
type Transition struct {
	Guard guard.Guard
	Dest  State
}

// Oracle is a thin, restartable adapter over a Handle (C2).
type Oracle struct {
	backend Handle
	retry   *retry.Policy
	dead    config.DeadMode
	deadAP  string
}

// NewOracle builds an oracle over the given back-end handle with no retry
// (a back-end call either succeeds or the check fails, per §7) and no
// dead-state self-loop synthesis (§6's dead = none).
func NewOracle(backend Handle) *Oracle {
	return &Oracle{backend: backend, retry: retry.NoRetry(), dead: config.DeadNone}
}

// NewOracleWithRetry builds an oracle that retries a faulting back-end
// call under policy before surfacing it, per §7's back-end runtime error
// handling.
func NewOracleWithRetry(backend Handle, policy *retry.Policy) *Oracle {
	if policy == nil {
		policy = retry.NoRetry()
	}
	return &Oracle{backend: backend, retry: policy, dead: config.DeadNone}
}

// WithDeadMode configures how a model state with no successors is treated
// (§4.5/§6's "dead" option): never given a self-loop, given an
// unconditional true self-loop, or given a self-loop guarded by the named
// atomic proposition. ap is only consulted when mode is
// config.DeadSingletonAP.
func (o *Oracle) WithDeadMode(mode config.DeadMode, ap string) *Oracle {
	o.dead = mode
	o.deadAP = ap
	return o
}

// Initial returns the model's initial state.
func (o *Oracle) Initial() (State, error) {
	var s State
	err := o.retry.Do(context.Background(), func() error {
		var callErr error
		s, callErr = o.backend.InitialState()
		return callErr
	})
	if err != nil {
		return State{}, fmt.Errorf("model: back-end runtime error constructing initial state: %w", err)
	}
	return s, nil
}

// Successors materializes every outgoing transition of s by translating
// each raw edge's label through the guard interpreter. The back-end's
// callback-based enumeration is buffered into a vector here (per the
// Design Notes' "iterator suspension" discussion) so that swarm ordering
// (§6 `swarm = bool`) can shuffle it before the caller consumes it.
func (o *Oracle) Successors(s State) ([]Transition, error) {
	var raw []RawEdge
	err := o.retry.Do(context.Background(), func() error {
		var callErr error
		raw, callErr = o.backend.EnumerateSuccessors(s)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("model: back-end runtime error enumerating successors: %w", err)
	}

	if len(raw) == 0 {
		if t, ok := o.deadSelfLoop(s); ok {
			return []Transition{t}, nil
		}
		return nil, nil
	}

	out := make([]Transition, 0, len(raw))
	for _, e := range raw {
		g, err := guard.ParseLabel(e.Label)
		if err != nil {
			return nil, fmt.Errorf("model: unable to interpret edge label %q: %w", e.Label, err)
		}
		out = append(out, Transition{Guard: g, Dest: NewState(e.Dest)})
	}
	return out, nil
}

// deadSelfLoop synthesizes §4.5's implicit self-loop on a state with no
// successors, per o.dead. Successors calls it whenever the back-end reports
// zero successors; with dead == DeadNone (the default) it returns false
// and no self-loop is added.
func (o *Oracle) deadSelfLoop(s State) (Transition, bool) {
	switch o.dead {
	case config.DeadSingletonTrue:
		return Transition{Guard: guard.True(), Dest: s}, true
	case config.DeadSingletonAP:
		g, err := guard.ParseLabel(o.deadAP)
		if err != nil {
			return Transition{}, false
		}
		return Transition{Guard: g, Dest: s}, true
	default:
		return Transition{}, false
	}
}
