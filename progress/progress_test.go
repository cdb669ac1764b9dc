package progress

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker_Update(t *testing.T) {
	ctx, tracker := WithNewTracker(context.Background(), "batch-1", nil)
	assert.Same(t, tracker, FromContext(ctx))

	tracker.Update(Delta{Total: 3, Pending: 3})
	tracker.Update(Delta{Pending: -1, Running: 1})
	tracker.Update(Delta{Running: -1, Completed: 1})

	snapshot := tracker.Snapshot()
	assert.Equal(t, 3, snapshot.TotalJobs)
	assert.Equal(t, 2, snapshot.PendingJobs)
	assert.Equal(t, 0, snapshot.RunningJobs)
	assert.Equal(t, 1, snapshot.CompletedJobs)
	assert.False(t, tracker.Done())

	tracker.Update(Delta{Pending: -2, Failed: 2})
	assert.True(t, tracker.Done())
}

func TestTracker_OnChange(t *testing.T) {
	var mu sync.Mutex
	var seen []int
	_, tracker := WithNewTracker(context.Background(), "batch-2", func(s Tracker) {
		mu.Lock()
		seen = append(seen, s.CompletedJobs)
		mu.Unlock()
	})
	tracker.Update(Delta{Total: 1, Completed: 1})
	tracker.Update(Delta{Total: 1, Completed: 1})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2}, seen)
}

func TestTracker_NilSafe(t *testing.T) {
	var tracker *Tracker
	tracker.Update(Delta{Total: 1})
	tracker.OnChange(nil)
	assert.True(t, tracker.Done())
	assert.Equal(t, Tracker{}, tracker.Snapshot())
	assert.Nil(t, FromContext(context.Background()))
}
