package monitor

import (
	"context"
	"errors"
	"fmt"

	"github.com/shirou/gopsutil/v3/process"
)

// ErrProcessDone is returned by a Sampler once the sampled process is
// confirmed gone. Any other sampling error is transient: the monitor skips
// the tick and keeps going.
var ErrProcessDone = errors.New("process is done")

// Sampler measures the current resident memory of a process and all of its
// descendants, in bytes. Implementations are stateless and called repeatedly.
type Sampler interface {
	Sample(ctx context.Context, pid int) (int64, error)
}

// ProcessTreeSampler sums the RSS of a process tree using the operating
// system's process table.
type ProcessTreeSampler struct{}

// NewProcessTreeSampler returns the default sampler.
func NewProcessTreeSampler() *ProcessTreeSampler {
	return &ProcessTreeSampler{}
}

// Sample walks the process tree rooted at pid and returns the summed RSS.
// Children that disappear mid-walk are skipped rather than failing the
// sample.
func (s *ProcessTreeSampler) Sample(ctx context.Context, pid int) (int64, error) {
	proc, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return 0, fmt.Errorf("%w: pid %d", ErrProcessDone, pid)
	}
	if running, rErr := proc.IsRunningWithContext(ctx); rErr == nil && !running {
		return 0, fmt.Errorf("%w: pid %d", ErrProcessDone, pid)
	}

	visited := make(map[int32]bool)
	return s.treeRSS(ctx, proc, visited), nil
}

func (s *ProcessTreeSampler) treeRSS(ctx context.Context, proc *process.Process, visited map[int32]bool) int64 {
	if visited[proc.Pid] {
		return 0
	}
	visited[proc.Pid] = true

	var total int64
	if info, err := proc.MemoryInfoWithContext(ctx); err == nil && info != nil {
		total += int64(info.RSS)
	}
	children, err := proc.ChildrenWithContext(ctx)
	if err != nil {
		// No children, or the tree mutated under us.
		return total
	}
	for _, child := range children {
		total += s.treeRSS(ctx, child, visited)
	}
	return total
}
