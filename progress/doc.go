// Package progress keeps aggregated batch counters (jobs total, pending,
// running, completed, failed) for a single drain. The tracker travels in the
// drain context so that callers can observe scheduling progress without the
// scheduler depending on any presentation layer.
package progress
