package ledger

import (
	"sync"
	"testing"

	"github.com/procbatch/procbatch/model"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	_, err := New(0, 1024)
	assert.Error(t, err)
	_, err = New(4, -1)
	assert.Error(t, err)

	l, err := New(4, 1024)
	assert.NoError(t, err)
	assert.Equal(t, 4, l.TotalCPU())
	assert.Equal(t, int64(1024), l.TotalMemory())
}

func TestLedger_TryReserve(t *testing.T) {
	l, err := New(4, 1000)
	assert.NoError(t, err)

	assert.True(t, l.TryReserve(2, 600))
	assert.True(t, l.TryReserve(2, 400))
	// No CPU left.
	assert.False(t, l.TryReserve(1, 0))

	l.Release(2, 600)
	// Memory exhausted even though CPU is free.
	assert.False(t, l.TryReserve(1, 700))
	assert.True(t, l.TryReserve(1, 600))

	usage := l.Snapshot()
	assert.Equal(t, 3, usage.ReservedCPU)
	assert.Equal(t, int64(1000), usage.ReservedMemory)
	assert.Equal(t, 1, usage.FreeCPU())
	assert.Equal(t, int64(0), usage.FreeMemory())
}

func TestLedger_UnlimitedMemoryReservesZero(t *testing.T) {
	l, _ := New(2, 100)
	assert.True(t, l.TryReserve(1, model.MemoryUnlimited))
	assert.Equal(t, int64(0), l.Snapshot().ReservedMemory)

	// Full memory still available to the next job.
	assert.True(t, l.TryReserve(1, 100))

	l.Release(1, model.MemoryUnlimited)
	assert.Equal(t, 1, l.Snapshot().ReservedCPU)
	assert.Equal(t, int64(100), l.Snapshot().ReservedMemory)
}

func TestLedger_ReleaseNeverGoesNegative(t *testing.T) {
	l, _ := New(2, 100)
	assert.True(t, l.TryReserve(1, 50))
	l.Release(1, 50)
	// Double release is a bug in the caller but must not corrupt the ledger.
	l.Release(1, 50)

	usage := l.Snapshot()
	assert.Equal(t, 0, usage.ReservedCPU)
	assert.Equal(t, int64(0), usage.ReservedMemory)
	assert.True(t, l.TryReserve(2, 100))
}

func TestLedger_Fits(t *testing.T) {
	l, _ := New(4, 1024)
	assert.True(t, l.TryReserve(4, 1024))
	// Fits ignores current reservations – it answers "could this ever run".
	assert.True(t, l.Fits(4, 1024))
	assert.True(t, l.Fits(1, model.MemoryUnlimited))
	assert.False(t, l.Fits(5, 0))
	assert.False(t, l.Fits(1, 2048))
}

func TestLedger_PeakCommitment(t *testing.T) {
	l, _ := New(8, 1000)
	assert.True(t, l.TryReserve(2, 300))
	assert.True(t, l.TryReserve(3, 500))
	l.Release(2, 300)
	assert.True(t, l.TryReserve(1, 100))

	usage := l.Snapshot()
	assert.Equal(t, 5, usage.PeakCPU)
	assert.Equal(t, int64(800), usage.PeakMemory)
}

// Two concurrent reservations must never both succeed when their combined
// requirement would overcommit capacity.
func TestLedger_ConcurrentReserve(t *testing.T) {
	const workers = 32
	l, _ := New(workers/2, int64(workers/2)*10)

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.TryReserve(1, 10) {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, workers/2, admitted)
	usage := l.Snapshot()
	assert.LessOrEqual(t, usage.ReservedCPU, usage.TotalCPU)
	assert.LessOrEqual(t, usage.ReservedMemory, usage.TotalMemory)
}
