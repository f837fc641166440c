package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, validateConfig(cfg))
	assert.Equal(t, ".lumenflow", cfg.StateDir)
	assert.Equal(t, "main", cfg.MainBranch)
}

func TestLoad_NoWorkspaceFile_UsesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().StateDir, cfg.StateDir)
}

func TestLoad_WorkspaceFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	content := "main_branch: trunk\nstate_dir: .beacon\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "trunk", cfg.MainBranch)
	assert.Equal(t, ".beacon", cfg.StateDir)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	content := "main_branch: trunk\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))

	t.Setenv("LUMENFLOW_MAIN_BRANCH", "develop")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "develop", cfg.MainBranch)
}

func TestValidateConfig_RejectsBadLockTimings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Lock.StaleMs = cfg.Lock.PollIntervalMs
	err := validateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lock.stale_ms")
}

func TestValidateConfig_RejectsUnknownEscalateBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Escalate.Backend = "carrier-pigeon"
	err := validateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escalate.backend")
}

func TestValidateConfig_RequiresWebhookURLForWebhookBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Escalate.Backend = "webhook"
	cfg.Escalate.WebhookURL = ""
	err := validateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escalate.webhook_url")
}
