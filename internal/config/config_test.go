package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"AGENT_PIPELINE_DB", "AGENT_PIPELINE_PROVIDER", "AGENT_PIPELINE_MODEL",
		"AGENT_PIPELINE_LOG_LEVEL", "GEMINI_API_KEY", "ANTHROPIC_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.Provider)
	assert.Equal(t, 5, cfg.RetrieveLimit)
	assert.Equal(t, 30, cfg.RetentionDays)
	assert.Equal(t, 30*time.Second, cfg.Timeouts.Reasoning.Duration)
	assert.Equal(t, 5*time.Second, cfg.Timeouts.Store.Duration)
	assert.Contains(t, cfg.DBPath, ".agent-pipeline")
}

func TestLoadFileWithSubstitution(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("TEST_PIPELINE_KEY", "secret")

	path := writeConfig(t, `{
		"provider": "anthropic",
		"api_key": "${TEST_PIPELINE_KEY}",
		"model": "${TEST_PIPELINE_MODEL:claude-test}",
		"db_path": "/tmp/x.db",
		"timeouts": {"reasoning": "2s", "action": "250ms"}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, "claude-test", cfg.Model)
	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
	assert.Equal(t, 2*time.Second, cfg.Timeouts.Reasoning.Duration)
	assert.Equal(t, 250*time.Millisecond, cfg.Timeouts.Action.Duration)
	assert.Equal(t, 5*time.Second, cfg.Timeouts.Store.Duration, "unset fields keep defaults")
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("AGENT_PIPELINE_DB", "/data/env.db")
	t.Setenv("GEMINI_API_KEY", "gem-key")

	cfg, err := Load(writeConfig(t, `{"db_path": "/data/file.db"}`))
	require.NoError(t, err)
	assert.Equal(t, "/data/env.db", cfg.DBPath)
	assert.Equal(t, "gem-key", cfg.APIKey)
}

func TestDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("AGENT_PIPELINE_MODEL=from-dotenv\n"), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Model)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `{"timeouts": {"store": "soon"}}`))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `{"provider": "openai"}`))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `{"retention_days": -1}`))
	assert.Error(t, err)
}
