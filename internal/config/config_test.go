package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finreach/rocagent/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	// No config file in the tempdir, no env overrides.
	chdirTemp(t)

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, config.DefaultRegion, cfg.Region)
	assert.Equal(t, "bedrock", cfg.Provider)
	assert.Equal(t, config.DefaultAgentName, cfg.Agent.Name)
	assert.Equal(t, config.DefaultModel, cfg.Agent.Model)
	assert.Equal(t, config.DefaultActionGroup, cfg.Agent.ActionGroup)
	assert.Equal(t, config.DefaultMaxTurns, cfg.Loop.MaxTurns)
	assert.False(t, cfg.Loop.Parallel)
	assert.Empty(t, cfg.Agent.ID)
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("ROC_REGION", "eu-west-1")
	t.Setenv("ROC_AGENT_ID", "AGENT1")
	t.Setenv("ROC_AGENT_ALIAS_ID", "ALIAS1")
	t.Setenv("ROC_LOOP_MAX_TURNS", "3")
	t.Setenv("ROC_LOOP_PARALLEL", "true")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "eu-west-1", cfg.Region)
	assert.Equal(t, "AGENT1", cfg.Agent.ID)
	assert.Equal(t, "ALIAS1", cfg.Agent.AliasID)
	assert.Equal(t, 3, cfg.Loop.MaxTurns)
	assert.True(t, cfg.Loop.Parallel)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "rocagent.yaml")
	doc := `
region: ap-southeast-2
provider: anthropic
agent:
  name: test-agent
loop:
  max_turns: 5
`
	require.NoError(t, os.WriteFile(p, []byte(doc), 0o644))

	cfg, err := config.Load(p)
	require.NoError(t, err)

	assert.Equal(t, "ap-southeast-2", cfg.Region)
	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, "test-agent", cfg.Agent.Name)
	assert.Equal(t, 5, cfg.Loop.MaxTurns)
	// Untouched keys keep their defaults.
	assert.Equal(t, config.DefaultModel, cfg.Agent.Model)
}

func TestLoad_MissingExplicitFileFails(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func chdirTemp(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
