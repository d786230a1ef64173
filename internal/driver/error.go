// Package driver implements the C13 driver (§4.11): given a property
// automaton and a model handle, it builds the product, decomposes the
// automaton via C12, dispatches C11/the reachability search, and
// aggregates a verdict/statistics record (§6). Grounded on
// backend/internal/application/engine/execution_manager.go's
// load -> build -> dispatch -> aggregate shape. The driver itself does not
// recover panics; observer panics are recovered inside
// observer.ObserverManager.
package driver

import "fmt"

// ErrorKind names one of the four error kinds the driver reports; there is
// no kind for state-pool allocator exhaustion. The kind, not the
// message, is what callers branch on (a fatal pre-flight error vs. a
// mid-run verdict=error).
type ErrorKind string

const (
	// ErrConfiguration: unrecognised option or workers out of range.
	// Fatal, caught before any worker starts.
	ErrConfiguration ErrorKind = "configuration"
	// ErrBackendLoad: the model handle itself is unusable (nil, or its
	// initial-state construction fails before any worker starts). Fatal,
	// the engine aborts.
	ErrBackendLoad ErrorKind = "backend-load"
	// ErrBackendRuntime: successor enumeration faults mid-run. The owning
	// check returns the fault to the driver, which cancels every other
	// check and returns this kind with an empty stats.Record.
	ErrBackendRuntime ErrorKind = "backend-runtime"
	// ErrAtomicResolution: an automaton edge label could not be bound to
	// a model variable. Reported before DFS starts wherever detected;
	// the engine does not run.
	ErrAtomicResolution ErrorKind = "atomic-resolution"
)

// Error wraps an underlying error with the §7 kind that determines how
// the driver propagates it.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("driver: %s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}
