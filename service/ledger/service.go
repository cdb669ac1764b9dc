package ledger

import (
	"fmt"
	"sync"

	"github.com/procbatch/procbatch/model"
)

// Usage is a point-in-time snapshot of the ledger, exposed for statistics and
// test instrumentation.
type Usage struct {
	TotalCPU       int
	ReservedCPU    int
	TotalMemory    int64
	ReservedMemory int64

	// PeakCPU and PeakMemory record the largest simultaneous commitment
	// observed since construction.
	PeakCPU    int
	PeakMemory int64
}

// FreeCPU returns the unreserved core count.
func (u Usage) FreeCPU() int { return u.TotalCPU - u.ReservedCPU }

// FreeMemory returns the unreserved byte count.
func (u Usage) FreeMemory() int64 { return u.TotalMemory - u.ReservedMemory }

// Ledger tracks the cluster's total capacity and the CPU/memory currently
// committed to running jobs. It is the only piece of state mutated by more
// than one concurrent actor, therefore every operation is linearizable: two
// concurrent TryReserve calls can never both succeed when their combined
// requirement would overcommit capacity.
type Ledger struct {
	mu             sync.Mutex
	totalCPU       int
	totalMemory    int64
	reservedCPU    int
	reservedMemory int64
	peakCPU        int
	peakMemory     int64
}

// New creates a ledger with fixed total capacity.
func New(totalCPU int, totalMemory int64) (*Ledger, error) {
	if totalCPU < 1 {
		return nil, fmt.Errorf("ledger total cpu must be >= 1, got %d", totalCPU)
	}
	if totalMemory < 0 {
		return nil, fmt.Errorf("ledger total memory must not be negative, got %d", totalMemory)
	}
	return &Ledger{totalCPU: totalCPU, totalMemory: totalMemory}, nil
}

// TotalCPU returns the fixed core capacity.
func (l *Ledger) TotalCPU() int { return l.totalCPU }

// TotalMemory returns the fixed memory capacity in bytes.
func (l *Ledger) TotalMemory() int64 { return l.totalMemory }

// TryReserve atomically reserves cpu cores and memory bytes if and only if
// both fit the remaining capacity; it never clamps a partial fit. A memory
// value of model.MemoryUnlimited reserves zero bytes – the job still holds
// its CPU reservation and still counts as running.
func (l *Ledger) TryReserve(cpu int, memory int64) bool {
	if memory == model.MemoryUnlimited {
		memory = 0
	}
	if cpu < 0 || memory < 0 {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.reservedCPU+cpu > l.totalCPU || l.reservedMemory+memory > l.totalMemory {
		return false
	}
	l.reservedCPU += cpu
	l.reservedMemory += memory
	if l.reservedCPU > l.peakCPU {
		l.peakCPU = l.reservedCPU
	}
	if l.reservedMemory > l.peakMemory {
		l.peakMemory = l.reservedMemory
	}
	return true
}

// Release returns a previous reservation to the pool. It is unconditional:
// releasing is always legal for amounts previously reserved. Reserved totals
// never go below zero – driving them there would mean a double release, which
// is a programming error, so the value is pinned instead of corrupting the
// ledger.
func (l *Ledger) Release(cpu int, memory int64) {
	if memory == model.MemoryUnlimited {
		memory = 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.reservedCPU -= cpu
	if l.reservedCPU < 0 {
		l.reservedCPU = 0
	}
	l.reservedMemory -= memory
	if l.reservedMemory < 0 {
		l.reservedMemory = 0
	}
}

// Fits reports whether the requirement could ever be satisfied by an empty
// cluster. Used by the scheduler to fail impossible jobs fast instead of
// waiting for the queue to stall.
func (l *Ledger) Fits(cpu int, memory int64) bool {
	if memory == model.MemoryUnlimited {
		memory = 0
	}
	return cpu <= l.totalCPU && memory <= l.totalMemory
}

// Snapshot returns the current usage.
func (l *Ledger) Snapshot() Usage {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Usage{
		TotalCPU:       l.totalCPU,
		ReservedCPU:    l.reservedCPU,
		TotalMemory:    l.totalMemory,
		ReservedMemory: l.reservedMemory,
		PeakCPU:        l.peakCPU,
		PeakMemory:     l.peakMemory,
	}
}
