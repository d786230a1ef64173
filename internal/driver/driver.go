package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/smilemakc/ltlcheck/internal/automaton"
	"github.com/smilemakc/ltlcheck/internal/config"
	"github.com/smilemakc/ltlcheck/internal/dijkstra"
	"github.com/smilemakc/ltlcheck/internal/model"
	"github.com/smilemakc/ltlcheck/internal/observer"
	"github.com/smilemakc/ltlcheck/internal/parallel"
	"github.com/smilemakc/ltlcheck/internal/product"
	"github.com/smilemakc/ltlcheck/internal/reachability"
	"github.com/smilemakc/ltlcheck/internal/retry"
	"github.com/smilemakc/ltlcheck/internal/stats"
	"github.com/smilemakc/ltlcheck/internal/strength"
	"github.com/smilemakc/ltlcheck/internal/tarjan"
)

// backendRetryPolicy governs retries of a faulting back-end call (§7's
// back-end runtime error): a handful of short, exponentially-spaced
// attempts. Not part of §6's configuration table (no option there names a
// retry knob), so it is a fixed policy rather than a cfg field — the
// driver still gives every real back-end call genuine retry-before-
// surfacing behaviour instead of none at all.
var backendRetryPolicy = &retry.Policy{
	MaxAttempts:     3,
	InitialDelay:    5 * time.Millisecond,
	MaxDelay:        50 * time.Millisecond,
	BackoffStrategy: retry.BackoffExponential,
}

// subResult is one sub-automaton's contribution (terminal, weak, or
// strong) before the driver aggregates them into a stats.Record.
type subResult struct {
	label         string
	found         bool
	workers       []stats.WorkerStat
	states        int
	inserted      int
	transitions   int
	maxDFSSize    int
	maxLiveSize   int
	maxRootStack  int
	deadStoreSize int
	updates       int
	rootsPopped   int
	trivialSCCs   int
}

// Run executes one emptiness check: builds the product of backend and
// auto, classifies auto's SCCs (C12), dispatches §4.10's terminal/weak/
// strong checks concurrently, and returns the aggregated verdict and
// statistics (§6). obs may be nil.
func Run(ctx context.Context, backend model.Handle, auto automaton.Automaton, cfg *config.EngineConfig, obs *observer.ObserverManager) (stats.Record, error) {
	runID := uuid.New().String()
	start := time.Now()

	if err := cfg.Validate(); err != nil {
		return stats.Record{}, newError(ErrConfiguration, "invalid configuration: %w", err)
	}
	if backend == nil {
		return stats.Record{}, newError(ErrBackendLoad, "nil model back-end handle")
	}

	notify(ctx, obs, observer.Event{Type: observer.EventTypeCheckStarted, RunID: runID, Timestamp: start, Status: "running"})

	oracle := model.NewOracleWithRetry(backend, backendRetryPolicy).WithDeadMode(cfg.Dead, cfg.DeadAP)
	if _, err := oracle.Initial(); err != nil {
		notify(ctx, obs, failedEvent(runID, err))
		return stats.Record{}, newError(ErrBackendLoad, "constructing initial model state: %w", err)
	}

	decomp, err := strength.Decompose(auto)
	if err != nil {
		notify(ctx, obs, failedEvent(runID, err))
		return stats.Record{}, newError(ErrAtomicResolution, "classifying property automaton: %w", err)
	}

	checks := buildChecks(decomp, cfg.GlobalPolicy)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]subResult, len(checks))
	g, runCtx := errgroup.WithContext(runCtx)
	for i, c := range checks {
		i, c := i, c
		g.Go(func() error {
			res, err := runCheck(runCtx, oracle, c, cfg, runID, obs)
			if err != nil {
				return err
			}
			results[i] = res
			if res.found {
				cancel() // §4.9/§4.10: first positive result short-circuits its siblings
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		notify(ctx, obs, failedEvent(runID, err))
		return stats.Record{}, newError(ErrBackendRuntime, "%w", err)
	}

	rec := aggregate(results, start)
	notify(ctx, obs, observer.Event{
		Type: observer.EventTypeCheckCompleted, RunID: runID, Timestamp: time.Now(),
		Status: "completed",
	})
	return rec, nil
}

// checkJob describes one dispatched sub-check: which pruned automaton to
// run a product over, and with which algorithm.
type checkJob struct {
	label      string
	kind       jobKind
	auto       automaton.Automaton
	terminalOf map[int]bool // only for jobKindReachability
}

type jobKind int

const (
	jobKindReachability jobKind = iota // §4.8 open-set search (terminal)
	jobKindSCC                         // general SCC-EC, sequential or parallel (weak, strong)
)

// buildChecks turns a decomposition and a global policy into the set of
// concurrent sub-checks to run. Decomposed is the safe default: every
// reachable strength class is checked, so the result is always correct
// regardless of what classes the automaton actually contains. The
// narrower policies (reachability, weak-dfs, full-*) are expert
// overrides that skip classes the caller already knows don't apply to
// their automaton — §6 lists them as configuration the driver "honours",
// not as a promise every policy is safe for every automaton.
func buildChecks(decomp *strength.Decomposition, policy config.Policy) []checkJob {
	switch policy {
	case config.PolicyReachability:
		if decomp.Terminal == nil {
			return nil
		}
		return []checkJob{terminalJob(decomp.Terminal)}

	case config.PolicyWeakDFS:
		var jobs []checkJob
		if decomp.Terminal != nil {
			jobs = append(jobs, terminalJob(decomp.Terminal))
		}
		if decomp.Weak != nil {
			jobs = append(jobs, checkJob{label: "weak", kind: jobKindSCC, auto: decomp.Weak})
		}
		return jobs

	case config.PolicyFullTarjan, config.PolicyFullDijkstra, config.PolicyMixed:
		// Skip C12 scoping entirely: one general-purpose check over the
		// whole original automaton. The three Policy* values are handled
		// identically: the single-worker sequential engine is whichever
		// cfg.Engine selects inside runSequentialCheck, and at the
		// dispatch-scope level they all mean "don't decompose, check
		// everything at once".
		return []checkJob{{label: "full", kind: jobKindSCC, auto: decomp.Strong}}

	default: // config.PolicyDecomposed
		var jobs []checkJob
		if decomp.Terminal != nil {
			jobs = append(jobs, terminalJob(decomp.Terminal))
		}
		if decomp.Weak != nil {
			jobs = append(jobs, checkJob{label: "weak", kind: jobKindSCC, auto: decomp.Weak})
		}
		jobs = append(jobs, checkJob{label: "strong", kind: jobKindSCC, auto: decomp.Strong})
		return jobs
	}
}

func terminalJob(a automaton.Automaton) checkJob {
	terminalOf := map[int]bool{}
	for _, st := range a.States() {
		if st.Strength == automaton.Terminal {
			terminalOf[st.ID] = true
		}
	}
	return checkJob{label: "terminal", kind: jobKindReachability, auto: a, terminalOf: terminalOf}
}

func runCheck(ctx context.Context, modelOracle *model.Oracle, job checkJob, cfg *config.EngineConfig, runID string, obs *observer.ObserverManager) (subResult, error) {
	oracle := &product.Oracle{Model: modelOracle, Automaton: job.auto}

	switch job.kind {
	case jobKindReachability:
		res, err := reachability.Run(ctx, oracle, job.terminalOf, cfg.Workers)
		if err != nil {
			return subResult{}, fmt.Errorf("%s: %w", job.label, err)
		}
		return subResult{
			label: job.label, found: res.Found, inserted: res.Inserted,
			states: res.Inserted, transitions: res.Transitions,
			workers: []stats.WorkerStat{{Verdict: verdictOf(res.Found), States: res.Inserted, Inserted: res.Inserted, CSVTag: job.label}},
		}, nil

	default: // jobKindSCC
		if cfg.Workers <= 1 {
			return runSequentialCheck(job, cfg, oracle)
		}

		eng := parallel.New(oracle, job.auto.NumMarks(), cfg)
		flags := &parallel.Flags{}
		res, err := eng.Run(ctx, flags)
		if err != nil {
			return subResult{}, fmt.Errorf("%s: %w", job.label, err)
		}

		out := subResult{label: job.label, found: res.Found}
		for _, w := range res.Workers {
			out.states += w.StatesVisited
			out.transitions += w.Transitions
			out.updates += w.Updates
			out.rootsPopped += w.SCCsClosed
			out.trivialSCCs += w.TrivialSCCs
			out.deadStoreSize += w.DeadStoreSize
			if w.MaxDFSSize > out.maxDFSSize {
				out.maxDFSSize = w.MaxDFSSize
			}
			if w.MaxLiveSize > out.maxLiveSize {
				out.maxLiveSize = w.MaxLiveSize
			}
			workerID := w.WorkerID
			notify(ctx, obs, observer.Event{
				Type: observer.EventTypeWorkerStopped, RunID: runID, Timestamp: time.Now(),
				WorkerID: &workerID, Status: "completed",
			})
			out.workers = append(out.workers, stats.WorkerStat{
				Verdict: verdictOf(w.Found), States: w.StatesVisited, Inserted: w.StatesVisited,
				CSVTag: fmt.Sprintf("%s-%d", job.label, w.WorkerID),
			})
		}
		return out, nil
	}
}

func runSequentialCheck(job checkJob, cfg *config.EngineConfig, oracle *product.Oracle) (subResult, error) {
	numMarks := job.auto.NumMarks()

	out := subResult{label: job.label}
	switch cfg.Engine {
	case config.EngineDijkstra:
		eng := dijkstra.New(oracle, numMarks, cfg)
		res, err := eng.Run()
		if err != nil {
			return subResult{}, fmt.Errorf("%s: %w", job.label, err)
		}
		out.found = res.Found
		out.states = res.StatesVisited
		out.transitions = res.Transitions
		out.maxDFSSize = res.MaxDFSSize
		out.maxLiveSize = res.MaxLiveDepth
		out.maxRootStack = res.MaxRootStack
		out.updates = res.Updates
		out.rootsPopped = res.SCCsClosed
		out.trivialSCCs = res.TrivialSCCs
		out.deadStoreSize = res.DeadStoreSize
	default: // EngineTarjan, EngineMixed (single worker: mixed has nothing to alternate across)
		eng := tarjan.New(oracle, numMarks, cfg)
		res, err := eng.Run()
		if err != nil {
			return subResult{}, fmt.Errorf("%s: %w", job.label, err)
		}
		out.found = res.Found
		out.states = res.StatesVisited
		out.transitions = res.Transitions
		out.maxDFSSize = res.MaxDFSSize
		out.maxLiveSize = res.MaxLiveDepth
		out.updates = res.Updates
		out.rootsPopped = res.SCCsClosed
		out.trivialSCCs = res.TrivialSCCs
		out.deadStoreSize = res.DeadStoreSize
	}

	out.workers = []stats.WorkerStat{{Verdict: verdictOf(out.found), States: out.states, Inserted: out.states, CSVTag: job.label}}
	return out, nil
}

func aggregate(results []subResult, start time.Time) stats.Record {
	rec := stats.Record{Verdict: stats.VerdictVerified}
	rec.WallMs = time.Since(start).Milliseconds()

	for _, r := range results {
		if r.found {
			rec.Verdict = stats.VerdictViolated
		}
		rec.States += r.states
		rec.Transitions += r.transitions
		rec.Updates += r.updates
		rec.RootsPopped += r.rootsPopped
		rec.TrivialSCCs += r.trivialSCCs
		rec.DeadStoreSize += r.deadStoreSize
		if r.maxDFSSize > rec.MaxDFSSize {
			rec.MaxDFSSize = r.maxDFSSize
		}
		if r.maxLiveSize > rec.MaxLiveSize {
			rec.MaxLiveSize = r.maxLiveSize
		}
		if r.maxRootStack > rec.MaxRootStack {
			rec.MaxRootStack = r.maxRootStack
		}
		rec.PerWorker = append(rec.PerWorker, r.workers...)
	}
	return rec
}

func verdictOf(found bool) stats.Verdict {
	if found {
		return stats.VerdictViolated
	}
	return stats.VerdictVerified
}

func failedEvent(runID string, err error) observer.Event {
	return observer.Event{
		Type: observer.EventTypeCheckFailed, RunID: runID, Timestamp: time.Now(),
		Status: "failed", Error: err,
	}
}

func notify(ctx context.Context, obs *observer.ObserverManager, event observer.Event) {
	if obs == nil {
		return
	}
	obs.Notify(ctx, event)
}
