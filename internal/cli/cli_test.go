package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/agent-pipeline/internal/action"
	"github.com/rcliao/agent-pipeline/internal/config"
	"github.com/rcliao/agent-pipeline/internal/model"
)

func TestNewLogger(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "warn", "error"} {
		l, err := newLogger(lvl)
		require.NoError(t, err, lvl)
		assert.NotNil(t, l)
	}
	_, err := newLogger("loud")
	assert.Error(t, err)
}

func TestBuildAgentWithoutKeyDegrades(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	cfg = config.Default()
	cfg.DBPath = filepath.Join(t.TempDir(), "cli.db")

	s, err := openStore()
	require.NoError(t, err)
	defer s.Close()

	agent, err := buildAgent(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, []string{
		action.SendMessage, action.StoreData, action.RetrieveData, action.AnalyzeData,
	}, agent.Actions())

	env := agent.ProcessInput(context.Background(), "no backend configured", "text")
	require.False(t, env.Failed(), env.Error)
	assert.Equal(t, action.SendMessage, env.Decision.SelectedOption)
	assert.Contains(t, env.Perception.Metadata, model.MetaError)

	stats, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalMemories)
}

func TestRootFlagsOverrideConfig(t *testing.T) {
	t.Setenv("AGENT_PIPELINE_DB", "")
	t.Chdir(t.TempDir())
	db := filepath.Join(t.TempDir(), "flag.db")

	RootCmd.SetArgs([]string{"stats", "--db", db, "--log-level", "error"})
	require.NoError(t, RootCmd.Execute())
	assert.Equal(t, db, cfg.DBPath)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestRunFailureReturnsError(t *testing.T) {
	t.Setenv("AGENT_PIPELINE_DB", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Chdir(t.TempDir())
	db := filepath.Join(t.TempDir(), "run.db")

	RootCmd.SetArgs([]string{"run", "--db", db, "--log-level", "error", "--type", "hologram", "hello"})
	err := Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hologram")

	// The deferred Close ran, so the database can be reopened and holds nothing.
	s, err := openStore()
	require.NoError(t, err)
	defer s.Close()
	stats, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalMemories)
}
