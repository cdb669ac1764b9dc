package monitor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultInterval is the sampling interval applied when the caller passes a
// non-positive one.
const DefaultInterval = 500 * time.Millisecond

// Monitor observes one running job for its whole lifetime. It starts its
// sampling loop on construction, keeps the largest value ever observed and
// stops itself once the sampler confirms every root process is gone. A job
// normally has one root process; a pipeline has one per stage, all sampled
// together since the stages are siblings rather than a single tree.
type Monitor struct {
	sampler  Sampler
	pids     []int
	interval time.Duration

	peak     atomic.Int64
	cancel   context.CancelFunc
	stopOnce sync.Once
	stopped  chan struct{}
}

// New starts monitoring the given root pids immediately.
func New(sampler Sampler, interval time.Duration, pids ...int) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &Monitor{
		sampler:  sampler,
		pids:     append([]int(nil), pids...),
		interval: interval,
		cancel:   cancel,
		stopped:  make(chan struct{}),
	}
	go m.loop(ctx)
	return m
}

func (m *Monitor) loop(ctx context.Context) {
	defer close(m.stopped)

	// One immediate sample so that jobs shorter than the interval still get
	// a peak reading.
	if done := m.sample(ctx); done {
		return
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if done := m.sample(ctx); done {
				return
			}
		}
	}
}

// sample takes one reading across all roots and folds the sum into the peak.
// It reports true once every root is confirmed gone; transient sampling
// failures only skip the affected root for this tick.
func (m *Monitor) sample(ctx context.Context) bool {
	var total int64
	gone := 0
	for _, pid := range m.pids {
		current, err := m.sampler.Sample(ctx, pid)
		if err != nil {
			if errors.Is(err, ErrProcessDone) {
				gone++
			}
			continue
		}
		total += current
	}
	if gone == len(m.pids) {
		return true
	}
	for {
		prev := m.peak.Load()
		if total <= prev || m.peak.CompareAndSwap(prev, total) {
			return false
		}
	}
}

// Stop halts the sampling loop and waits for it to exit, so that Peak is
// final when Stop returns. Stop is idempotent and also safe to call after
// the loop stopped itself.
func (m *Monitor) Stop() {
	m.stopOnce.Do(m.cancel)
	<-m.stopped
}

// Peak returns the largest memory reading observed so far, zero when no
// process was ever successfully sampled. It never decreases and may be
// called at any time, including after Stop.
func (m *Monitor) Peak() int64 {
	return m.peak.Load()
}
