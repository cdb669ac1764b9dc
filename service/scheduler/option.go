package scheduler

import (
	"github.com/procbatch/procbatch/service/launcher"
	"github.com/procbatch/procbatch/service/messaging"
	"github.com/procbatch/procbatch/service/monitor"
)

// Option is a functional option for the scheduler service.
type Option func(*Service)

// WithLauncher replaces the process launcher, typically with a fake in
// tests.
func WithLauncher(l launcher.Launcher) Option {
	return func(s *Service) {
		s.launcher = l
	}
}

// WithSampler replaces the memory sampler used by per-job monitors.
func WithSampler(sampler monitor.Sampler) Option {
	return func(s *Service) {
		s.sampler = sampler
	}
}

// WithQueue replaces the completion event queue.
func WithQueue(queue messaging.Queue[Event]) Option {
	return func(s *Service) {
		s.events = queue
	}
}

// WithConfig overrides the whole configuration.
func WithConfig(config Config) Option {
	return func(s *Service) {
		s.config = config
	}
}
