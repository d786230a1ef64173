// Package parallel implements the C11 parallel emptiness engines:
// cfg.Workers worker goroutines, each a local Dijkstra-style DFS
// (internal/dijkstra's shape, reused via internal/colour) over its own
// swarm-ordered view of the product, consulting one shared union-find
// (internal/concurrent, C9) for cross-worker dead short-cutting and
// accepting-cycle publication.
//
// Grounded on original_source/src/fasttgbaalgos/ec/cou99_uf_shared.cc's
// cou99_uf_shared_impl: each worker there keeps a private union-find for
// its own DFS bookkeeping and unites into a shared one only to publish
// marks/dead across threads. This package keeps that same two-tier shape
// but replaces the private per-worker union-find with the sequential
// engine's own colour.Table/colour.RootStack (already built, already
// tested, and cheaper than a second lock-free structure per worker since
// nothing outside the owning goroutine ever touches it), mirroring every
// local merge/dead decision into the one shared concurrent.UnionFind so
// other workers still benefit from §4.9's three cooperation points: dead
// short-cut, cross-thread cycle witness, and fast-backtrack.
package parallel

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"

	"github.com/smilemakc/ltlcheck/internal/colour"
	"github.com/smilemakc/ltlcheck/internal/concurrent"
	"github.com/smilemakc/ltlcheck/internal/config"
	"github.com/smilemakc/ltlcheck/internal/markset"
	"github.com/smilemakc/ltlcheck/internal/model"
	"github.com/smilemakc/ltlcheck/internal/product"
	"golang.org/x/sync/errgroup"
)

// Flags is the shared cancellation flag set of §4.9: one atomic.Bool read
// on every loop iteration of every worker in this Engine, set at most once
// (by whichever worker finds an accepting cycle first). Cross-check
// short-circuiting against the terminal/weak/strong sibling checks C13
// dispatches concurrently (§4.10) runs through the context passed to Run
// instead of a second flag set: the driver cancels that context directly,
// and runWorker's loop selects on ctx.Done() alongside Stop.
type Flags struct {
	Stop atomic.Bool
}

// WorkerResult is one worker's contribution to the run.
type WorkerResult struct {
	WorkerID      int
	Found         bool
	StatesVisited int
	SCCsClosed    int
	Transitions   int
	MaxDFSSize    int
	MaxLiveSize   int
	Updates       int
	TrivialSCCs   int
	DeadStoreSize int
}

// Result aggregates every worker's contribution.
type Result struct {
	Found   bool
	Workers []WorkerResult
}

// Engine runs the parallel SCC-emptiness check over a product oracle.
type Engine struct {
	oracle   *product.Oracle
	numMarks int
	cfg      *config.EngineConfig

	table *concurrent.SharedTable
	uf    *concurrent.UnionFind
}

// New builds a parallel engine over oracle, sharing one union-find across
// cfg.Workers goroutines.
func New(oracle *product.Oracle, numMarks int, cfg *config.EngineConfig) *Engine {
	table := concurrent.NewSharedTable()
	return &Engine{
		oracle:   oracle,
		numMarks: numMarks,
		cfg:      cfg,
		table:    table,
		uf:       concurrent.NewUnionFind(table, numMarks),
	}
}

// Run launches cfg.Workers goroutines and reports whether any of them
// found an accepting cycle, per §4.9's ordering guarantee: "stop" is set
// at most once, and every worker terminates before Run returns.
func (e *Engine) Run(ctx context.Context, flags *Flags) (Result, error) {
	g, ctx := errgroup.WithContext(ctx)
	results := make([]WorkerResult, e.cfg.Workers)

	for w := 0; w < e.cfg.Workers; w++ {
		w := w
		g.Go(func() error {
			res, err := e.runWorker(ctx, flags, w)
			if err != nil {
				return fmt.Errorf("parallel: worker %d: %w", w, err)
			}
			results[w] = res
			if res.Found {
				flags.Stop.Store(true)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	out := Result{Workers: results}
	for _, r := range results {
		if r.Found {
			out.Found = true
			break
		}
	}
	return out, nil
}

// workerFrame is one entry of a worker's private DFS stack, mirroring
// internal/dijkstra's frame but additionally tracking the shared
// union-find node for the state it holds, so local merges can be
// published to the shared structure without a second key lookup.
type workerFrame struct {
	key   string
	node  *concurrent.Node
	succs []product.Edge
	next  int
}

func (e *Engine) runWorker(ctx context.Context, flags *Flags, id int) (WorkerResult, error) {
	res := WorkerResult{WorkerID: id}

	colours := colour.NewTable(e.cfg.DeadStore)
	roots := colour.NewRootStack(e.cfg.RootStack)
	position := 0
	var live []string // keys in DFS push order, mirrors internal/dijkstra's live stack

	var rng *rand.Rand
	if e.cfg.Swarm {
		rng = model.NewSwarmRand(e.cfg.SwarmSeed, id)
	}

	push := func(s product.State, entryMarks markset.Set) (*workerFrame, bool, error) {
		key := s.Key()
		node, _ := e.uf.MakeSet(key)
		if e.uf.IsDead(node) {
			return nil, true, nil // dead short-cut: §4.9.1
		}

		succs, err := e.oracle.Successors(s)
		if err != nil {
			return nil, false, fmt.Errorf("successors of %s: %w", key, err)
		}
		if rng != nil {
			rng.Shuffle(len(succs), func(i, j int) { succs[i], succs[j] = succs[j], succs[i] })
		}

		colours.MarkLive(key, position)
		roots.PushTrivial(position, entryMarks)
		position++
		live = append(live, key)
		res.StatesVisited++
		if len(live) > res.MaxLiveSize {
			res.MaxLiveSize = len(live)
		}
		return &workerFrame{key: key, node: node, succs: succs}, false, nil
	}

	init, err := e.oracle.Initial()
	if err != nil {
		return res, err
	}
	root, skippedDead, err := push(init, markset.Empty())
	if err != nil {
		return res, err
	}
	if skippedDead {
		return res, nil
	}
	stack := []*workerFrame{root}
	res.MaxDFSSize = len(stack)

	for len(stack) > 0 {
		select {
		case <-ctx.Done():
			res.DeadStoreSize = colours.DeadCount()
			return res, nil // a sibling strength class already found a witness, §4.10
		default:
		}
		if flags.Stop.Load() {
			res.DeadStoreSize = colours.DeadCount()
			return res, nil // cooperative cancellation, §4.9/§5
		}

		top := stack[len(stack)-1]
		if top.next >= len(top.succs) {
			closed, trivial := e.closeRoot(colours, roots, &live, top.key)
			if closed {
				res.SCCsClosed++
				if trivial {
					res.TrivialSCCs++
				}
			}
			stack = stack[:len(stack)-1]
			continue
		}

		edge := top.succs[top.next]
		top.next++
		res.Transitions++

		destKey := edge.Dest.Key()
		c, destPos := colours.Colour(destKey)
		switch c {
		case colour.Dead:
			continue
		case colour.Live:
			res.Updates++
			destNode, _ := e.uf.MakeSet(destKey)
			full, fastBacktrack := e.merge(roots, destPos, edge.Marks, top.node, destNode)
			if fastBacktrack {
				// The shared union-find already knows this side is
				// Dead even though this worker's own colour table
				// doesn't yet; treat the edge as leading nowhere
				// rather than unwinding the live stack mid-merge.
				continue
			}
			if full {
				res.Found = true
				res.DeadStoreSize = colours.DeadCount()
				return res, nil
			}
		case colour.Unknown:
			child, skippedDead, err := push(edge.Dest, edge.Marks)
			if err != nil {
				return res, err
			}
			if skippedDead {
				continue
			}
			stack = append(stack, child)
			if len(stack) > res.MaxDFSSize {
				res.MaxDFSSize = len(stack)
			}
		}
	}

	res.DeadStoreSize = colours.DeadCount()
	return res, nil
}

// merge folds edgeMarks into destPos's root exactly as
// internal/dijkstra.Engine.merge does, and mirrors the same union into
// the shared union-find so other workers observe the merged partition's
// marks and, once full, the accepting-cycle witness.
func (e *Engine) merge(roots colour.RootStack, destPos int, edgeMarks markset.Set, fromNode, toNode *concurrent.Node) (full, fastBacktrack bool) {
	acc := edgeMarks
	for roots.TopRootPosition() > destPos {
		acc = acc.Union(roots.TopMarks())
		roots.Pop()
	}
	newMarks := roots.TopMarks().Union(acc)
	roots.SetTopMarks(newMarks)

	root, fastBacktrack := e.uf.Unite(fromNode, toNode, edgeMarks)
	if fastBacktrack {
		return false, true
	}
	return e.uf.Full(root) || newMarks.IsFull(e.numMarks), false
}

// closeRoot implements the local half of §4.6's pop plus the shared
// publication half of §4.9.1: once a root closes, every state in its SCC
// (every live key from the top of the stack down to the closing
// position) becomes Dead both locally and, via MakeDead, in the shared
// union-find, so every other worker's dead short-cut sees it on its very
// next check. merge unites only the two endpoints of each back-edge, so
// members reached by tree edges alone are not in that shared partition;
// MakeDead is therefore called for every member, just as every member key
// is marked Dead in the local colour table.
func (e *Engine) closeRoot(colours *colour.Table, roots colour.RootStack, live *[]string, closingKey string) (closed, trivial bool) {
	_, closingPos := colours.Colour(closingKey)
	if roots.Empty() || roots.TopRootPosition() != closingPos {
		return false, false
	}

	n := 0
	for len(*live) > 0 {
		topKey := (*live)[len(*live)-1]
		_, pos := colours.Colour(topKey)
		if pos < closingPos {
			break
		}
		*live = (*live)[:len(*live)-1]
		colours.MarkDead(topKey)
		node, _ := e.uf.MakeSet(topKey)
		e.uf.MakeDead(node)
		n++
	}
	roots.Pop()
	return true, n == 1
}
