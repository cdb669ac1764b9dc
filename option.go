package procbatch

import (
	"github.com/procbatch/procbatch/policy"
	"github.com/procbatch/procbatch/service/launcher"
	"github.com/procbatch/procbatch/service/messaging"
	"github.com/procbatch/procbatch/service/monitor"
	"github.com/procbatch/procbatch/service/scheduler"
	"github.com/procbatch/procbatch/tracing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option customises the Service
type Option func(s *Service)

// WithConfig sets the cluster configuration
func WithConfig(config *Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// WithLauncher sets the process launcher
func WithLauncher(l launcher.Launcher) Option {
	return func(s *Service) {
		s.launcher = l
	}
}

// WithSampler sets the memory sampler handed to per-job monitors
func WithSampler(sampler monitor.Sampler) Option {
	return func(s *Service) {
		s.sampler = sampler
	}
}

// WithQueue sets the completion event queue
func WithQueue(queue messaging.Queue[scheduler.Event]) Option {
	return func(s *Service) {
		s.queue = queue
	}
}

// WithPolicy sets the default admission policy applied to every drain that
// does not carry its own
func WithPolicy(p *policy.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// WithTracing enables OpenTelemetry tracing with a stdout/file exporter
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		s.tracingErr = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter enables OpenTelemetry tracing with a custom exporter
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		s.tracingErr = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
