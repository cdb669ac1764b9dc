package procbatch

import (
	"fmt"
	sysruntime "runtime"

	"github.com/procbatch/procbatch/model"
	"github.com/procbatch/procbatch/policy"
	"github.com/procbatch/procbatch/service/dao/batch"
	"github.com/procbatch/procbatch/service/launcher"
	"github.com/procbatch/procbatch/service/ledger"
	"github.com/procbatch/procbatch/service/messaging"
	"github.com/procbatch/procbatch/service/monitor"
	"github.com/procbatch/procbatch/service/scheduler"

	"github.com/shirou/gopsutil/v3/mem"
)

// NewJob starts a fluent job builder; it is re-exported here so that callers
// embedding the façade rarely need to import the model package directly.
func NewJob(cmd ...string) *model.Job {
	return model.NewJob(cmd...)
}

// Service represents a procbatch cluster
type Service struct {
	config     *Config
	ledger     *ledger.Ledger
	launcher   launcher.Launcher
	sampler    monitor.Sampler
	queue      messaging.Queue[scheduler.Event]
	policy     *policy.Policy
	runtime    *Runtime
	tracingErr error
}

// New creates a cluster with the given capacity. CPU accepts an int or a
// numeric string; memory accepts bytes as an int or a human-readable string
// such as "16G". Passing nil (or "auto") for either detects the machine's
// capacity: every core, and 90% of the memory currently available.
func New(cpu, memory interface{}, options ...Option) (*Service, error) {
	srv := &Service{}
	for _, option := range options {
		option(srv)
	}
	if srv.tracingErr != nil {
		return nil, srv.tracingErr
	}
	if srv.config == nil {
		srv.config = DefaultConfig()
	}
	if err := srv.config.Validate(); err != nil {
		return nil, err
	}

	totalCPU, totalMemory, err := detectCapacity(cpu, memory)
	if err != nil {
		return nil, err
	}
	if srv.ledger, err = ledger.New(totalCPU, totalMemory); err != nil {
		return nil, err
	}

	schedulerOptions := []scheduler.Option{scheduler.WithConfig(srv.config.Scheduler)}
	if srv.launcher != nil {
		schedulerOptions = append(schedulerOptions, scheduler.WithLauncher(srv.launcher))
	}
	if srv.sampler != nil {
		schedulerOptions = append(schedulerOptions, scheduler.WithSampler(srv.sampler))
	}
	if srv.queue != nil {
		schedulerOptions = append(schedulerOptions, scheduler.WithQueue(srv.queue))
	}
	srv.runtime = &Runtime{
		scheduler: scheduler.New(srv.ledger, schedulerOptions...),
		batches:   batch.New(),
		policy:    srv.policy,
	}
	return srv, nil
}

// Runtime returns the cluster runtime.
func (s *Service) Runtime() *Runtime {
	return s.runtime
}

// Capacity returns the fixed cluster capacity.
func (s *Service) Capacity() (cpu int, memory int64) {
	return s.ledger.TotalCPU(), s.ledger.TotalMemory()
}

func detectCapacity(cpu, memory interface{}) (int, int64, error) {
	totalCPU := sysruntime.NumCPU()
	if !isAuto(cpu) {
		parsed, err := model.ParseCPU(cpu)
		if err != nil {
			return 0, 0, err
		}
		totalCPU = parsed
	}

	var totalMemory int64
	if isAuto(memory) {
		stat, err := mem.VirtualMemory()
		if err != nil {
			return 0, 0, fmt.Errorf("failed to detect memory capacity: %w", err)
		}
		totalMemory = int64(stat.Available) / 10 * 9
	} else {
		parsed, err := model.ParseMemory(memory)
		if err != nil {
			return 0, 0, err
		}
		if parsed < 0 {
			return 0, 0, fmt.Errorf("cluster memory capacity must be bounded, got %v", memory)
		}
		totalMemory = parsed
	}
	return totalCPU, totalMemory, nil
}

func isAuto(value interface{}) bool {
	if value == nil {
		return true
	}
	text, ok := value.(string)
	return ok && (text == "" || text == "auto")
}
