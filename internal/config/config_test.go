package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LTLCHECK_WORKERS", "")
	t.Setenv("LTLCHECK_POLICY", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, PolicyDecomposed, cfg.GlobalPolicy)
	assert.Equal(t, CompressNone, cfg.Compress)
	assert.Equal(t, RootStackDense, cfg.RootStack)
}

func TestValidateRejectsOutOfRangeWorkers(t *testing.T) {
	cfg := &EngineConfig{
		Workers: 0, Compress: CompressNone, Dead: DeadNone,
		RootStack: RootStackDense, DeadStore: DeadStoreTableSentinel,
		Engine: EngineTarjan, GlobalPolicy: PolicyDecomposed,
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workers out of range")
}

func TestValidateRejectsUnknownOption(t *testing.T) {
	cfg := &EngineConfig{
		Workers: 4, Compress: "bogus", Dead: DeadNone,
		RootStack: RootStackDense, DeadStore: DeadStoreTableSentinel,
		Engine: EngineTarjan, GlobalPolicy: PolicyDecomposed,
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid compress mode")
}

func TestValidateRequiresDeadAPName(t *testing.T) {
	cfg := &EngineConfig{
		Workers: 1, Compress: CompressNone, Dead: DeadSingletonAP, DeadAP: "",
		RootStack: RootStackDense, DeadStore: DeadStoreTableSentinel,
		Engine: EngineTarjan, GlobalPolicy: PolicyDecomposed,
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "singleton-named")
}
