package model

import "math/rand"

// NewSwarmRand returns a per-worker random source for swarm successor
// ordering (§6 `swarm = bool`). Seeding from a driver-level seed plus the
// worker index (never the global math/rand source) keeps T2's "fixed seed"
// determinism requirement: the same (seed, workerIndex) pair always
// produces the same enumeration order.
func NewSwarmRand(seed int64, workerIndex int) *rand.Rand {
	return rand.New(rand.NewSource(seed*1_000_003 + int64(workerIndex)))
}

// Shuffle reorders ts in place using rng. No engine calls it: the parallel
// engine shuffles its product edges itself with a NewSwarmRand source.
func Shuffle(rng *rand.Rand, ts []Transition) {
	rng.Shuffle(len(ts), func(i, j int) { ts[i], ts[j] = ts[j], ts[i] })
}
