package config

import (
	"errors"
	"fmt"
)

// ValidationError contains details about what failed validation.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config.%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// validateConfig checks all config values for validity.
// Returns nil if valid, or joined errors for all validation failures.
func validateConfig(cfg *Config) error {
	var errs []error

	if cfg.MainBranch == "" {
		errs = append(errs, &ValidationError{
			Field: "main_branch", Value: cfg.MainBranch, Message: "must not be empty",
		})
	}

	if cfg.StateDir == "" {
		errs = append(errs, &ValidationError{
			Field: "state_dir", Value: cfg.StateDir, Message: "must not be empty",
		})
	}

	if cfg.Git.RequireRemote && cfg.Git.DefaultRemote == "" {
		errs = append(errs, &ValidationError{
			Field: "git.default_remote", Value: cfg.Git.DefaultRemote,
			Message: "must be set when git.require_remote is true",
		})
	}

	for i, gate := range cfg.Gates.Chain {
		if gate.Name == "" {
			errs = append(errs, &ValidationError{
				Field: fmt.Sprintf("gates.chain[%d].name", i), Value: gate.Name,
				Message: "must not be empty",
			})
		}
	}
	if cfg.Gates.Parallel && cfg.Gates.MaxParallel < 1 {
		errs = append(errs, &ValidationError{
			Field: "gates.max_parallel", Value: cfg.Gates.MaxParallel,
			Message: "must be at least 1 when gates.parallel is true",
		})
	}

	if cfg.Lock.PollIntervalMs < 1 {
		errs = append(errs, &ValidationError{
			Field: "lock.poll_interval_ms", Value: cfg.Lock.PollIntervalMs,
			Message: "must be at least 1",
		})
	}
	if cfg.Lock.WaitMs < cfg.Lock.PollIntervalMs {
		errs = append(errs, &ValidationError{
			Field: "lock.wait_ms", Value: cfg.Lock.WaitMs,
			Message: "must be >= lock.poll_interval_ms",
		})
	}
	if cfg.Lock.StaleMs <= cfg.Lock.PollIntervalMs {
		errs = append(errs, &ValidationError{
			Field: "lock.stale_ms", Value: cfg.Lock.StaleMs,
			Message: "must exceed lock.poll_interval_ms (see §5 ordering guarantees)",
		})
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.LogLevel] {
		errs = append(errs, &ValidationError{
			Field: "log_level", Value: cfg.LogLevel,
			Message: "must be one of: debug, info, warn, error",
		})
	}

	switch cfg.Escalate.Backend {
	case "", "terminal":
	case "slack", "webhook":
		if cfg.Escalate.WebhookURL == "" {
			errs = append(errs, &ValidationError{
				Field: "escalate.webhook_url", Value: cfg.Escalate.WebhookURL,
				Message: fmt.Sprintf("must be set when escalate.backend is %q", cfg.Escalate.Backend),
			})
		}
	default:
		errs = append(errs, &ValidationError{
			Field: "escalate.backend", Value: cfg.Escalate.Backend,
			Message: "must be one of: terminal, slack, webhook",
		})
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
