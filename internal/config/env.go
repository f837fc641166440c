package config

import "os"

// envOverrides maps environment variables to config field setters, applied
// after the workspace file and before validation (§6 Environment variables).
var envOverrides = []struct {
	envVar string
	apply  func(*Config, string)
}{
	{
		envVar: "LUMENFLOW_LOG_DIR",
		apply: func(c *Config, v string) {
			c.LogDir = v
		},
	},
	{
		envVar: "LUMENFLOW_STATE_DIR",
		apply: func(c *Config, v string) {
			c.StateDir = v
		},
	},
	{
		envVar: "LUMENFLOW_MAIN_BRANCH",
		apply: func(c *Config, v string) {
			c.MainBranch = v
		},
	},
}

// applyEnvOverrides modifies config in place with environment variable values.
func applyEnvOverrides(cfg *Config) {
	for _, override := range envOverrides {
		if val := os.Getenv(override.envVar); val != "" {
			override.apply(cfg, val)
		}
	}
}

// CISuppressesAgentOutput reports whether the CI environment variable is
// set, which suppresses the Gate Runner's agent-mode compact output (§4.6).
func CISuppressesAgentOutput() bool {
	return os.Getenv("CI") != ""
}

// HomeDir returns LUMENFLOW_HOME if set, else the user's home directory.
func HomeDir() (string, error) {
	if v := os.Getenv("LUMENFLOW_HOME"); v != "" {
		return v, nil
	}
	return os.UserHomeDir()
}
