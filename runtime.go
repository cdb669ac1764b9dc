package procbatch

import (
	"context"

	"github.com/procbatch/procbatch/internal/idgen"
	"github.com/procbatch/procbatch/model"
	"github.com/procbatch/procbatch/policy"
	"github.com/procbatch/procbatch/progress"
	"github.com/procbatch/procbatch/service/dao/batch"
	"github.com/procbatch/procbatch/service/scheduler"
)

// Runtime represents a cluster runtime
type Runtime struct {
	scheduler *scheduler.Service
	batches   *batch.Service
	policy    *policy.Policy
}

// Add builds and submits a job.
func (r *Runtime) Add(job *model.Job) error {
	spec, err := job.Spec()
	if err != nil {
		return err
	}
	return r.scheduler.Submit(spec)
}

// Submit queues a job spec.
func (r *Runtime) Submit(spec *model.JobSpec) error {
	return r.scheduler.Submit(spec)
}

// SubmitAll queues every spec, stopping at the first rejection.
func (r *Runtime) SubmitAll(specs ...*model.JobSpec) error {
	for _, spec := range specs {
		if err := r.scheduler.Submit(spec); err != nil {
			return err
		}
	}
	return nil
}

// SubmitMap queues a job described by a loosely typed dictionary.
func (r *Runtime) SubmitMap(values map[string]interface{}) error {
	spec, err := model.FromMap(values)
	if err != nil {
		return err
	}
	return r.scheduler.Submit(spec)
}

// LoadBatch loads the batch definition at URL and queues every job it
// defines.
func (r *Runtime) LoadBatch(ctx context.Context, URL string) (*batch.Batch, error) {
	loaded, err := r.batches.Load(ctx, URL)
	if err != nil {
		return nil, err
	}
	if err := r.SubmitAll(loaded.Jobs...); err != nil {
		return nil, err
	}
	return loaded, nil
}

// Drain runs every queued job to completion.
func (r *Runtime) Drain(ctx context.Context) (*model.BatchResult, error) {
	return r.scheduler.Drain(r.drainContext(ctx))
}

// DrainWithProgress runs every queued job to completion, invoking onChange
// with a counters snapshot after every state transition.
func (r *Runtime) DrainWithProgress(ctx context.Context, onChange func(progress.Tracker)) (*model.BatchResult, error) {
	ctx, _ = progress.WithNewTracker(r.drainContext(ctx), "batch-"+idgen.New(), onChange)
	return r.scheduler.Drain(ctx)
}

// Profile runs the queued jobs strictly one at a time so that each peak
// memory reading reflects the job alone. Use Recommend on the outcome to
// turn the peaks into memory requirements for the real run.
func (r *Runtime) Profile(ctx context.Context) (*model.BatchResult, error) {
	return r.scheduler.Profile(r.drainContext(ctx))
}

// Result returns the terminal record of a single job, nil when the job is
// unknown or still running.
func (r *Runtime) Result(ctx context.Context, id string) (*model.JobResult, error) {
	return r.scheduler.Result(ctx, id)
}

// Results returns every retained terminal record, in no particular order.
func (r *Runtime) Results(ctx context.Context) ([]*model.JobResult, error) {
	return r.scheduler.Results(ctx)
}

// Discard drops the retained record of a finished job.
func (r *Runtime) Discard(ctx context.Context, id string) error {
	return r.scheduler.Discard(ctx, id)
}

// Stats reports a point-in-time view of the cluster.
func (r *Runtime) Stats() model.Stats {
	return r.scheduler.Stats()
}

func (r *Runtime) drainContext(ctx context.Context) context.Context {
	if r.policy != nil && policy.FromContext(ctx) == nil {
		ctx = policy.WithPolicy(ctx, r.policy)
	}
	return ctx
}

// Recommend derives a per-job memory requirement from the peaks observed
// during a profiling run: the peak plus 20% headroom, floored for very small
// jobs. Jobs that never produced a reading are omitted.
func Recommend(result *model.BatchResult) map[string]int64 {
	if result == nil {
		return nil
	}
	recommendations := make(map[string]int64)
	collect := func(results []*model.JobResult) {
		for _, jobResult := range results {
			if jobResult.PeakMemory > 0 {
				recommendations[jobResult.ID] = model.RecommendMemory(jobResult.PeakMemory)
			}
		}
	}
	collect(result.Completed)
	collect(result.Failed)
	return recommendations
}
