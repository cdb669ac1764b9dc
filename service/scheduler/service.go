package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/procbatch/procbatch/internal/clock"
	"github.com/procbatch/procbatch/internal/idgen"
	"github.com/procbatch/procbatch/model"
	"github.com/procbatch/procbatch/policy"
	"github.com/procbatch/procbatch/progress"
	"github.com/procbatch/procbatch/service/dao/store"
	"github.com/procbatch/procbatch/service/launcher"
	"github.com/procbatch/procbatch/service/ledger"
	"github.com/procbatch/procbatch/service/messaging"
	"github.com/procbatch/procbatch/service/messaging/memory"
	"github.com/procbatch/procbatch/service/monitor"
	"github.com/procbatch/procbatch/tracing"
)

// Config holds the scheduler tuning knobs.
type Config struct {
	// PollInterval bounds how long the drain loop waits for the next
	// completion event before re-checking job deadlines.
	PollInterval time.Duration

	// SamplingInterval is handed to each admitted job's memory monitor.
	SamplingInterval time.Duration

	// EventBuffer sizes the completion event queue.
	EventBuffer int
}

// DefaultConfig returns the default scheduler configuration.
func DefaultConfig() Config {
	return Config{
		PollInterval:     100 * time.Millisecond,
		SamplingInterval: monitor.DefaultInterval,
		EventBuffer:      100,
	}
}

// Event is published by a job's waiter goroutine once its process exited.
type Event struct {
	ID       string
	ExitCode int
	Err      error
}

// runningJob is the scheduler's book-keeping for one admitted job. The
// reserved memory is frozen at admission and may differ from the spec's
// declaration: profiling admits with no memory reservation.
type runningJob struct {
	spec           *model.JobSpec
	handle         launcher.Handle
	monitor        *monitor.Monitor
	span           *tracing.Span
	startedAt      time.Time
	deadline       time.Time // zero when the job has no timeout
	timedOut       bool
	reservedMemory int64
}

// Service is the batch scheduler. Jobs accumulate via Submit and execute
// during Drain. At most one drain runs per service instance at a time;
// Submit stays legal while a drain is in flight.
type Service struct {
	config   Config
	ledger   *ledger.Ledger
	launcher launcher.Launcher
	sampler  monitor.Sampler
	events   messaging.Queue[Event]

	mu        sync.Mutex
	pending   []*model.JobSpec
	running   map[string]*runningJob
	completed []*model.JobResult
	failed    []*model.JobResult
	results   *store.MemoryStore[string, model.JobResult]
	seen      map[string]bool
	tracker   *progress.Tracker
	startedAt time.Time
	draining  bool
}

// New creates a scheduler bound to the given resource ledger.
func New(aLedger *ledger.Ledger, options ...Option) *Service {
	srv := &Service{
		config:  DefaultConfig(),
		ledger:  aLedger,
		running: make(map[string]*runningJob),
		results: store.NewMemoryStore[string, model.JobResult](func(r *model.JobResult) string { return r.ID }),
		seen:    make(map[string]bool),
	}
	for _, option := range options {
		option(srv)
	}
	if srv.launcher == nil {
		srv.launcher = launcher.New()
	}
	if srv.sampler == nil {
		srv.sampler = monitor.NewProcessTreeSampler()
	}
	if srv.events == nil {
		srv.events = memory.NewQueue[Event](srv.config.EventBuffer)
	}
	return srv
}

// Submit queues a job for the next (or the currently running) drain. An
// empty job ID is auto-generated; duplicate IDs are rejected so that every
// result stays addressable.
func (s *Service) Submit(spec *model.JobSpec) error {
	if spec == nil {
		return fmt.Errorf("job spec was empty")
	}
	spec = spec.Clone()
	if spec.ID == "" {
		spec.ID = "job-" + idgen.New()
	}
	if err := spec.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen[spec.ID] {
		return fmt.Errorf("job %q was already submitted", spec.ID)
	}
	s.seen[spec.ID] = true
	s.pending = append(s.pending, spec)
	s.tracker.Update(progress.Delta{Total: 1, Pending: 1})
	return nil
}

// Drain runs every queued job to completion and returns the batch outcome.
// Jobs are admitted in first-fit submission order whenever the ledger has
// room for their declared requirements; a job whose requirement exceeds the
// cluster's total capacity fails the drain with a ConfigurationError.
// Cancelling the context kills running jobs and fails the rest as
// cancelled.
func (s *Service) Drain(ctx context.Context) (*model.BatchResult, error) {
	return s.drain(ctx, false)
}

// Profile runs the queued jobs strictly one at a time so that each job's
// peak memory reading reflects the job alone. Profiling exists to measure
// jobs whose memory needs are not yet known, so only the CPU half of the
// requirement gates admission; declared memory is not reserved. Used to
// calibrate memory requirements before a real drain.
func (s *Service) Profile(ctx context.Context) (*model.BatchResult, error) {
	return s.drain(ctx, true)
}

func (s *Service) drain(ctx context.Context, profile bool) (*model.BatchResult, error) {
	s.mu.Lock()
	if s.draining {
		s.mu.Unlock()
		return nil, fmt.Errorf("drain already in progress")
	}
	s.draining = true
	s.startedAt = clock.Now()
	s.tracker = progress.FromContext(ctx)
	if s.tracker != nil {
		s.tracker.Update(progress.Delta{Total: len(s.pending), Pending: len(s.pending)})
	}
	admission := policy.FromContext(ctx)
	s.mu.Unlock()

	ctx, span := tracing.StartSpan(ctx, "batch.drain", "INTERNAL")
	var drainErr error
	defer func() {
		s.mu.Lock()
		s.draining = false
		// Drop the drain's tracker so a Submit between drains cannot fire a
		// stale callback.
		s.tracker = nil
		s.mu.Unlock()
		tracing.EndSpan(span, drainErr)
	}()

	for {
		s.killExpired()

		if err := s.admit(ctx, admission, profile); err != nil {
			s.abort(model.ErrorKindCancelled, "batch aborted: "+err.Error())
			drainErr = err
			return nil, err
		}

		s.mu.Lock()
		terminal := len(s.pending) == 0 && len(s.running) == 0
		stalled := len(s.running) == 0 && len(s.pending) > 0
		var next *model.JobSpec
		if stalled {
			next = s.pending[0]
		}
		s.mu.Unlock()
		if terminal {
			break
		}
		if stalled {
			// Unreachable when the ledger is consistent: an empty cluster
			// admits any job that passed the Fits check. Fail loudly rather
			// than spin forever.
			drainErr = &ConfigurationError{
				JobID:       next.ID,
				CPU:         next.CPU,
				Memory:      next.Memory,
				TotalCPU:    s.ledger.TotalCPU(),
				TotalMemory: s.ledger.TotalMemory(),
			}
			s.abort(model.ErrorKindCancelled, "batch aborted: "+drainErr.Error())
			return nil, drainErr
		}

		if err := s.wait(ctx); err != nil {
			s.abort(model.ErrorKindCancelled, "batch cancelled")
			drainErr = err
			return s.batchResult(), err
		}
	}
	return s.batchResult(), nil
}

// admit scans the pending queue in submission order and launches every job
// the ledger can take. Under the strict-order admission policy the scan
// stops at the first job that does not fit. In profile mode at most one job
// runs and its declared memory is ignored: the point of profiling is to
// measure jobs whose memory needs are unknown, so only CPU gates admission.
func (s *Service) admit(ctx context.Context, admission *policy.Policy, profile bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	remaining := s.pending[:0]
	var scanDone bool
	for i, spec := range s.pending {
		if scanDone || (profile && len(s.running) > 0) {
			remaining = append(remaining, s.pending[i:]...)
			break
		}
		reserve := spec.Memory
		if profile {
			reserve = model.MemoryUnlimited
		}
		if !s.ledger.Fits(spec.CPU, reserve) {
			s.pending = append(remaining, s.pending[i:]...)
			return &ConfigurationError{
				JobID:       spec.ID,
				CPU:         spec.CPU,
				Memory:      spec.Memory,
				TotalCPU:    s.ledger.TotalCPU(),
				TotalMemory: s.ledger.TotalMemory(),
			}
		}
		if !s.ledger.TryReserve(spec.CPU, reserve) {
			remaining = append(remaining, spec)
			if !admission.ScanContinues() {
				scanDone = true
			}
			continue
		}
		s.launch(ctx, spec, reserve)
	}
	s.pending = remaining
	return nil
}

// launch starts one admitted job; the caller holds both the lock and the
// job's ledger reservation, which is returned on a failed start.
func (s *Service) launch(ctx context.Context, spec *model.JobSpec, reservedMemory int64) {
	_, span := tracing.StartSpan(ctx, "job.run", "INTERNAL")
	span.WithAttributes(map[string]string{"job.id": spec.ID})

	handle, err := s.launcher.Launch(ctx, spec)
	if err != nil {
		s.ledger.Release(spec.CPU, reservedMemory)
		tracing.EndSpan(span, err)
		s.record(&model.JobResult{
			ID:         spec.ID,
			Cmd:        spec.Command(),
			Success:    false,
			ExitCode:   -1,
			Kind:       model.ErrorKindLaunch,
			Error:      err.Error(),
			CPU:        spec.CPU,
			StartedAt:  clock.Now(),
			FinishedAt: clock.Now(),
		}, progress.Delta{Pending: -1, Failed: 1})
		return
	}

	now := clock.Now()
	job := &runningJob{
		spec:           spec,
		handle:         handle,
		monitor:        monitor.New(s.sampler, s.config.SamplingInterval, handle.PIDs()...),
		span:           span,
		startedAt:      now,
		reservedMemory: reservedMemory,
	}
	if spec.Timeout > 0 {
		job.deadline = now.Add(spec.Timeout)
	}
	s.running[spec.ID] = job
	s.tracker.Update(progress.Delta{Pending: -1, Running: 1})

	go func() {
		code, waitErr := handle.Wait()
		// Background context: the completion must reach the drain loop even
		// while the drain's own context is being cancelled.
		if err := s.events.Publish(context.Background(), &Event{ID: spec.ID, ExitCode: code, Err: waitErr}); err != nil {
			log.Printf("failed to publish completion event for job %v: %v", spec.ID, err)
		}
	}()
}

// wait blocks for the next completion event, at most for one poll interval
// so that deadlines stay enforced, and settles every event already queued.
func (s *Service) wait(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, s.config.PollInterval)
	defer cancel()

	event, err := s.events.Consume(waitCtx)
	if err != nil {
		return ctx.Err() // nil on a plain poll timeout
	}
	s.settle(event)
	for s.events.Size() > 0 {
		if event, err = s.events.Consume(waitCtx); err != nil {
			break
		}
		s.settle(event)
	}
	return ctx.Err()
}

// settle finalises one exited job: stops its monitor, releases its
// reservation and files the result.
func (s *Service) settle(event *Event) {
	s.mu.Lock()
	job, ok := s.running[event.ID]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.running, event.ID)
	s.mu.Unlock()

	job.monitor.Stop()
	s.ledger.Release(job.spec.CPU, job.reservedMemory)
	stdout, stderr := job.handle.Output()

	finished := clock.Now()
	result := &model.JobResult{
		ID:         job.spec.ID,
		Cmd:        job.spec.Command(),
		ExitCode:   event.ExitCode,
		CPU:        job.spec.CPU,
		StartedAt:  job.startedAt,
		FinishedAt: finished,
		Runtime:    finished.Sub(job.startedAt),
		PeakMemory: job.monitor.Peak(),
		Stdout:     stdout,
		Stderr:     stderr,
	}
	switch {
	case job.timedOut:
		result.Kind = model.ErrorKindTimeout
		result.Error = fmt.Sprintf("job %q exceeded its %s timeout", job.spec.ID, job.spec.Timeout)
	case event.Err != nil:
		result.Kind = model.ErrorKindExit
		result.Error = event.Err.Error()
	case event.ExitCode != 0:
		result.Kind = model.ErrorKindExit
		result.Error = fmt.Sprintf("exit status %d", event.ExitCode)
	default:
		result.Success = true
	}
	var spanErr error
	if !result.Success {
		spanErr = errors.New(result.Error)
	}
	tracing.EndSpan(job.span, spanErr)

	s.mu.Lock()
	defer s.mu.Unlock()
	if result.Success {
		s.record(result, progress.Delta{Running: -1, Completed: 1})
	} else {
		s.record(result, progress.Delta{Running: -1, Failed: 1})
	}
}

// record files a terminal result; the caller holds the lock.
func (s *Service) record(result *model.JobResult, delta progress.Delta) {
	if result.Success {
		s.completed = append(s.completed, result)
	} else {
		s.failed = append(s.failed, result)
	}
	_ = s.results.Save(context.Background(), result)
	s.tracker.Update(delta)
}

// killExpired terminates every running job that outlived its deadline. The
// job is only marked here: its waiter observes the death and the regular
// settle path files the timeout result.
func (s *Service) killExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := clock.Now()
	for _, job := range s.running {
		if job.timedOut || job.deadline.IsZero() || now.Before(job.deadline) {
			continue
		}
		job.timedOut = true
		_ = job.handle.Kill()
	}
}

// abort tears the batch down: running jobs are killed and waited for,
// pending jobs are failed without starting, all with the given error kind.
func (s *Service) abort(kind model.ErrorKind, reason string) {
	s.mu.Lock()
	running := make([]*runningJob, 0, len(s.running))
	for _, job := range s.running {
		running = append(running, job)
	}
	s.running = make(map[string]*runningJob)
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, job := range running {
		_ = job.handle.Kill()
		_, _ = job.handle.Wait()
		job.monitor.Stop()
		s.ledger.Release(job.spec.CPU, job.reservedMemory)
		stdout, stderr := job.handle.Output()
		finished := clock.Now()
		result := &model.JobResult{
			ID:         job.spec.ID,
			Cmd:        job.spec.Command(),
			Success:    false,
			ExitCode:   -1,
			Kind:       kind,
			Error:      reason,
			CPU:        job.spec.CPU,
			StartedAt:  job.startedAt,
			FinishedAt: finished,
			Runtime:    finished.Sub(job.startedAt),
			PeakMemory: job.monitor.Peak(),
			Stdout:     stdout,
			Stderr:     stderr,
		}
		tracing.EndSpan(job.span, fmt.Errorf("%s", reason))
		s.mu.Lock()
		s.record(result, progress.Delta{Running: -1, Failed: 1})
		s.mu.Unlock()
	}
	for _, spec := range pending {
		s.mu.Lock()
		s.record(&model.JobResult{
			ID:       spec.ID,
			Cmd:      spec.Command(),
			Success:  false,
			ExitCode: -1,
			Kind:     kind,
			Error:    reason,
			CPU:      spec.CPU,
		}, progress.Delta{Pending: -1, Failed: 1})
		s.mu.Unlock()
	}

	// Settle stray completion events so a later drain starts clean.
	for s.events.Size() > 0 {
		drainCtx, cancel := context.WithTimeout(context.Background(), s.config.PollInterval)
		_, _ = s.events.Consume(drainCtx)
		cancel()
	}
}

// batchResult snapshots the terminal state of the drain.
func (s *Service) batchResult() *model.BatchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	usage := s.ledger.Snapshot()
	return &model.BatchResult{
		Completed:  append([]*model.JobResult(nil), s.completed...),
		Failed:     append([]*model.JobResult(nil), s.failed...),
		TotalJobs:  len(s.completed) + len(s.failed),
		StartedAt:  s.startedAt,
		Runtime:    clock.Now().Sub(s.startedAt),
		PeakCPU:    usage.PeakCPU,
		PeakMemory: usage.PeakMemory,
	}
}

// Result returns the terminal record of a single job, nil when the job is
// unknown or still running.
func (s *Service) Result(ctx context.Context, id string) (*model.JobResult, error) {
	return s.results.Load(ctx, id)
}

// Results returns every retained terminal record, in no particular order.
// Use the ordered collections on BatchResult for completion order.
func (s *Service) Results(ctx context.Context) ([]*model.JobResult, error) {
	return s.results.List(ctx)
}

// Discard drops the retained record of a finished job, freeing it for
// long-lived services that drain many batches.
func (s *Service) Discard(ctx context.Context, id string) error {
	return s.results.Delete(ctx, id)
}

// Stats reports a point-in-time view of the scheduler and its ledger.
func (s *Service) Stats() model.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	usage := s.ledger.Snapshot()
	stats := model.Stats{
		Pending:        len(s.pending),
		Running:        len(s.running),
		Completed:      len(s.completed),
		Failed:         len(s.failed),
		TotalCPU:       usage.TotalCPU,
		ReservedCPU:    usage.ReservedCPU,
		TotalMemory:    usage.TotalMemory,
		ReservedMemory: usage.ReservedMemory,
	}
	stats.Total = stats.Pending + stats.Running + stats.Completed + stats.Failed
	if !s.startedAt.IsZero() {
		stats.Runtime = clock.Now().Sub(s.startedAt)
	}
	return stats
}
