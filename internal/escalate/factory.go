package escalate

import "fmt"

// Config holds escalation configuration. Backend selects a single
// destination; the empty string defaults to terminal. Multi remains
// available to callers that want to fan out to several Escalators
// directly without going through FromConfig.
type Config struct {
	Backend    string
	WebhookURL string
}

// FromConfig creates an Escalator from configuration (§4.10).
func FromConfig(cfg Config) (Escalator, error) {
	switch cfg.Backend {
	case "", "terminal":
		return NewTerminal(), nil
	case "slack":
		if cfg.WebhookURL == "" {
			return nil, fmt.Errorf("slack backend requires webhook URL")
		}
		return NewSlack(cfg.WebhookURL), nil
	case "webhook":
		if cfg.WebhookURL == "" {
			return nil, fmt.Errorf("webhook backend requires URL")
		}
		return NewWebhook(cfg.WebhookURL), nil
	default:
		return nil, fmt.Errorf("unknown escalation backend: %s", cfg.Backend)
	}
}
