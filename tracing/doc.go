// Package tracing wraps OpenTelemetry so that the scheduler can emit one span
// per drain and one span per job without the rest of the code importing the
// SDK directly.
package tracing
