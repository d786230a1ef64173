// Package config provides configuration management for the emptiness-check driver.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// CompressMode selects the state-compression codec applied by the state pool.
type CompressMode string

const (
	CompressNone     CompressMode = "none"
	CompressVariantA CompressMode = "variant-a"
	CompressVariantB CompressMode = "variant-b"
)

// DeadMode controls how self-loops on model dead states are treated.
type DeadMode string

const (
	DeadNone          DeadMode = "none"
	DeadSingletonTrue DeadMode = "singleton-true"
	DeadSingletonAP   DeadMode = "singleton-named"
)

// RootStackMode selects the root-stack encoding (C6).
type RootStackMode string

const (
	RootStackDense      RootStackMode = "dense"
	RootStackCompressed RootStackMode = "compressed"
)

// DeadStoreMode selects where dead states are recorded (C5).
type DeadStoreMode string

const (
	DeadStoreTableSentinel DeadStoreMode = "table-sentinel"
	DeadStoreSeparate      DeadStoreMode = "separate"
)

// SequentialEngine selects the per-worker sequential SCC algorithm.
type SequentialEngine string

const (
	EngineTarjan   SequentialEngine = "tarjan"
	EngineDijkstra SequentialEngine = "dijkstra"
	EngineMixed    SequentialEngine = "mixed"
)

// Policy selects the global scheduling policy (C11/C12 dispatch).
type Policy string

const (
	PolicyFullTarjan   Policy = "full-tarjan"
	PolicyFullDijkstra Policy = "full-dijkstra"
	PolicyMixed        Policy = "mixed"
	PolicyReachability Policy = "reachability"
	PolicyWeakDFS      Policy = "weak-dfs"
	PolicyDecomposed   Policy = "decomposed"
)

// EngineConfig holds every option the driver (C13) recognises, per spec §6.
type EngineConfig struct {
	Workers      int
	Compress     CompressMode
	Dead         DeadMode
	DeadAP       string // atomic proposition name, only meaningful when Dead == DeadSingletonAP
	RootStack    RootStackMode
	DeadStore    DeadStoreMode
	Engine       SequentialEngine
	GlobalPolicy Policy
	Swarm        bool
	SwarmSeed    int64
}

// Load loads the configuration from environment variables, falling back to
// the defaults below. A .env file in the working directory is honored if
// present.
func Load() (*EngineConfig, error) {
	godotenv.Load()

	cfg := &EngineConfig{
		Workers:      getEnvAsInt("LTLCHECK_WORKERS", 1),
		Compress:     CompressMode(getEnv("LTLCHECK_COMPRESS", string(CompressNone))),
		Dead:         DeadMode(getEnv("LTLCHECK_DEAD", string(DeadNone))),
		DeadAP:       getEnv("LTLCHECK_DEAD_AP", ""),
		RootStack:    RootStackMode(getEnv("LTLCHECK_ROOT_STACK", string(RootStackDense))),
		DeadStore:    DeadStoreMode(getEnv("LTLCHECK_DEAD_STORE", string(DeadStoreTableSentinel))),
		Engine:       SequentialEngine(getEnv("LTLCHECK_ENGINE", string(EngineTarjan))),
		GlobalPolicy: Policy(getEnv("LTLCHECK_POLICY", string(PolicyDecomposed))),
		Swarm:        getEnvAsBool("LTLCHECK_SWARM", false),
		SwarmSeed:    int64(getEnvAsInt("LTLCHECK_SWARM_SEED", 1)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that every option names a value this driver recognises.
// An unrecognised option is a Configuration error (§7): fatal, caught
// before any worker starts.
func (c *EngineConfig) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers out of range: %d (must be >= 1)", c.Workers)
	}

	validCompress := map[CompressMode]bool{CompressNone: true, CompressVariantA: true, CompressVariantB: true}
	if !validCompress[c.Compress] {
		return fmt.Errorf("invalid compress mode: %q", c.Compress)
	}

	validDead := map[DeadMode]bool{DeadNone: true, DeadSingletonTrue: true, DeadSingletonAP: true}
	if !validDead[c.Dead] {
		return fmt.Errorf("invalid dead mode: %q", c.Dead)
	}
	if c.Dead == DeadSingletonAP && c.DeadAP == "" {
		return fmt.Errorf("dead=singleton-named requires a non-empty atomic proposition name")
	}

	validRootStack := map[RootStackMode]bool{RootStackDense: true, RootStackCompressed: true}
	if !validRootStack[c.RootStack] {
		return fmt.Errorf("invalid root-stack mode: %q", c.RootStack)
	}

	validDeadStore := map[DeadStoreMode]bool{DeadStoreTableSentinel: true, DeadStoreSeparate: true}
	if !validDeadStore[c.DeadStore] {
		return fmt.Errorf("invalid dead-store mode: %q", c.DeadStore)
	}

	validEngine := map[SequentialEngine]bool{EngineTarjan: true, EngineDijkstra: true, EngineMixed: true}
	if !validEngine[c.Engine] {
		return fmt.Errorf("invalid engine: %q", c.Engine)
	}

	validPolicy := map[Policy]bool{
		PolicyFullTarjan: true, PolicyFullDijkstra: true, PolicyMixed: true,
		PolicyReachability: true, PolicyWeakDFS: true, PolicyDecomposed: true,
	}
	if !validPolicy[c.GlobalPolicy] {
		return fmt.Errorf("invalid policy: %q", c.GlobalPolicy)
	}

	return nil
}

// Helper functions for environment variables, following the same idiom
// across every driver-recognised option.

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsSlice follows the comma-separated-list parsing idiom used
// elsewhere in this driver's configuration surface; kept available for a
// future multi-AP dead-state list even though no current option needs it.
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	parts := strings.Split(valueStr, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}
