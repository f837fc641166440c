// Package config loads and validates workspace configuration for lumenflow.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GateConfig describes one entry in the configurable gate chain (§4.6).
type GateConfig struct {
	Name       string `yaml:"name"`
	Command    string `yaml:"command"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// GatesConfig controls the gate chain as a whole.
type GatesConfig struct {
	Chain       []GateConfig `yaml:"chain"`
	FailFast    bool         `yaml:"fail_fast"`
	Parallel    bool         `yaml:"parallel"`
	MaxParallel int          `yaml:"max_parallel"`
}

// GitConfig controls git-adapter behavior.
type GitConfig struct {
	RequireRemote bool   `yaml:"require_remote"`
	DefaultRemote string `yaml:"default_remote"`
}

// LockConfig controls merge-lock timing (§4.7, §5).
type LockConfig struct {
	PollIntervalMs int `yaml:"poll_interval_ms"`
	WaitMs         int `yaml:"wait_ms"`
	StaleMs        int `yaml:"stale_ms"`
}

// EscalateConfig selects the escalation backend (§4.10).
type EscalateConfig struct {
	Backend    string `yaml:"backend"` // "terminal" | "slack" | "webhook" | ""
	WebhookURL string `yaml:"webhook_url"`
}

// Config holds all workspace configuration for a lumenflow-managed repository.
type Config struct {
	WuDir         string `yaml:"wu_dir"`
	BacklogPath   string `yaml:"backlog_path"`
	InitiativeDir string `yaml:"initiative_dir"`
	WorktreesDir  string `yaml:"worktrees_dir"`
	StateDir      string `yaml:"state_dir"`
	StampsDir     string `yaml:"stamps_dir"`
	LogDir        string `yaml:"log_dir"`
	MainBranch    string `yaml:"main_branch"`

	Git      GitConfig      `yaml:"git"`
	Gates    GatesConfig    `yaml:"gates"`
	Lock     LockConfig     `yaml:"lock"`
	Escalate EscalateConfig `yaml:"escalate"`

	LogLevel string `yaml:"log_level"`
}

// FileName is the name of the workspace config file, relative to repo root.
const FileName = ".lumenflow.yaml"

// Load resolves configuration in three layers: compiled-in defaults, the
// workspace config file (if present), then environment-variable overrides.
func Load(repoRoot string) (*Config, error) {
	cfg := DefaultConfig()

	path := filepath.Join(repoRoot, FileName)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	case os.IsNotExist(err):
		// no workspace file; defaults stand.
	default:
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
