// Package progress provides a lightweight tracker that keeps aggregated job
// counters (total, pending, running, completed, failed) for a single batch
// drain. The tracker instance lives in the drain context – every component
// that receives the context can atomically update the counters via the Delta
// helper without requiring a global registry.

package progress

import (
	"context"
	"sync"
	"time"
)

// Delta represents an incremental counter change emitted by the scheduler.
// The fields are signed and therefore can be either positive (increment) or
// negative (decrement).
type Delta struct {
	Total     int
	Pending   int
	Running   int
	Completed int
	Failed    int
}

// Tracker keeps aggregated job counters for one batch drain. It is safe for
// concurrent use.
type Tracker struct {
	// Identification – informative only, filled when the drain starts.
	BatchID   string
	StartedAt time.Time

	// Counters – modified via Update().
	TotalJobs     int
	PendingJobs   int
	RunningJobs   int
	CompletedJobs int
	FailedJobs    int

	sync.Mutex
	onChange func(Tracker)
}

// Update applies the supplied delta to the tracker. It is safe to call from
// multiple goroutines. If an onChange callback has been registered it will be
// invoked with a copy of the updated tracker outside the critical section so
// that the callback can perform slow operations (rendering, I/O) without
// blocking the scheduler.
func (t *Tracker) Update(d Delta) {
	if t == nil {
		return
	}

	t.Lock()

	t.TotalJobs += d.Total
	t.PendingJobs += d.Pending
	t.RunningJobs += d.Running
	t.CompletedJobs += d.Completed
	t.FailedJobs += d.Failed

	// Value-copy for the callback while still holding the lock to avoid
	// exposing partially updated counters.
	snapshot := *t
	cb := t.onChange

	t.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// Snapshot returns a copy of the tracker suitable for read-only inspection.
func (t *Tracker) Snapshot() Tracker {
	if t == nil {
		return Tracker{}
	}
	t.Lock()
	defer t.Unlock()
	return *t
}

// Done reports whether every tracked job has reached a terminal state.
func (t *Tracker) Done() bool {
	if t == nil {
		return true
	}
	t.Lock()
	defer t.Unlock()
	return t.TotalJobs > 0 && t.CompletedJobs+t.FailedJobs == t.TotalJobs
}

// OnChange registers a callback invoked after every successful Update.
// Passing nil disables the callback. Only one callback can be active;
// subsequent calls overwrite the previous value.
func (t *Tracker) OnChange(cb func(Tracker)) {
	if t == nil {
		return
	}
	t.Lock()
	t.onChange = cb
	t.Unlock()
}

// ----------------------------------------------------------------------------
// Context helpers
// ----------------------------------------------------------------------------

type trackerKeyT struct{}

var trackerKey trackerKeyT

// WithNewTracker creates a new Tracker, embeds it in a derived context and
// returns both. The caller may optionally pass an onChange callback that will
// be invoked after every counter update.
func WithNewTracker(ctx context.Context, batchID string, onChange func(Tracker)) (context.Context, *Tracker) {
	tracker := &Tracker{
		BatchID:   batchID,
		StartedAt: time.Now(),
		onChange:  onChange,
	}
	return context.WithValue(ctx, trackerKey, tracker), tracker
}

// FromContext returns the tracker attached to ctx, or nil when none exists.
func FromContext(ctx context.Context) *Tracker {
	if ctx == nil {
		return nil
	}
	if tracker, ok := ctx.Value(trackerKey).(*Tracker); ok {
		return tracker
	}
	return nil
}
