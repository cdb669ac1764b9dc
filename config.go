package procbatch

import (
	"fmt"

	"github.com/procbatch/procbatch/service/scheduler"
)

// Config is a serialisable representation of the cluster configuration. It
// can be populated from JSON, YAML, environment variables, etc. The
// zero-value is useful – all nested fields inherit their package defaults.
type Config struct {
	Scheduler scheduler.Config `json:"scheduler" yaml:"scheduler"`
}

// DefaultConfig returns a Config populated with the package defaults.
// Callers may modify the returned struct before passing it to New via
// WithConfig.
func DefaultConfig() *Config {
	return &Config{Scheduler: scheduler.DefaultConfig()}
}

// Validate returns an error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.Scheduler.PollInterval < 0 {
		return fmt.Errorf("scheduler.pollInterval must not be negative")
	}
	if c.Scheduler.SamplingInterval < 0 {
		return fmt.Errorf("scheduler.samplingInterval must not be negative")
	}
	if c.Scheduler.EventBuffer < 0 {
		return fmt.Errorf("scheduler.eventBuffer must not be negative")
	}
	return nil
}
