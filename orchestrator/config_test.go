package orchestrator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRepoConfig_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadRepoConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, &RepoConfig{}, cfg)
}

func TestLoadRepoConfig_PopulatedOverrides(t *testing.T) {
	dir := t.TempDir()
	content := `models:
  researcher: opus
  coder: sonnet
detail_plan: true
review: true
show_thinking: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644))

	cfg, err := LoadRepoConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "opus", cfg.Models.Researcher)
	assert.Equal(t, "sonnet", cfg.Models.Coder)
	assert.Empty(t, cfg.Models.Planner)
	assert.True(t, cfg.DetailPlan)
	assert.True(t, cfg.Review)
	assert.True(t, cfg.ShowThinking)
	assert.False(t, cfg.ShowTools)
}

func TestLoadRepoConfig_MalformedFileIsError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("models: [not: a: map"), 0o644))

	_, err := LoadRepoConfig(dir)
	assert.Error(t, err)
}
