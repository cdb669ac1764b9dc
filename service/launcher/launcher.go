package launcher

import (
	"context"
	"fmt"
	"os"

	"github.com/procbatch/procbatch/model"
	"github.com/viant/afs"
)

// Handle is the running form of a launch unit. A single command and a
// multi-stage pipe chain implement it identically – the scheduler never
// branches on which kind it holds.
type Handle interface {
	// PIDs returns the root process IDs of the unit, for memory sampling.
	PIDs() []int

	// Wait blocks until the unit exits and returns its exit code. A non-zero
	// exit is not an error; the returned error reports infrastructure
	// failures only. Wait may be called from multiple goroutines; every call
	// observes the same outcome.
	Wait() (int, error)

	// Kill forcibly terminates the unit. Safe to call concurrently with
	// Wait and after exit.
	Kill() error

	// Output returns the captured stdout and stderr once Wait has returned.
	// When the spec redirected a stream, the corresponding value is the
	// destination URL rather than the content.
	Output() (stdout, stderr string)
}

// Launcher starts the launch unit described by a JobSpec.
type Launcher interface {
	Launch(ctx context.Context, spec *model.JobSpec) (Handle, error)
}

// Service is the default Launcher backed by os/exec. Captured output is held
// in memory unless the spec names redirection destinations, in which case it
// is uploaded through the storage service on completion.
type Service struct {
	fs afs.Service
}

// New creates a launcher.
func New() *Service {
	return &Service{fs: afs.New()}
}

// Launch starts the spec's command or pipeline.
func (s *Service) Launch(ctx context.Context, spec *model.JobSpec) (Handle, error) {
	if len(spec.Pipeline) > 0 {
		return s.launchPipeline(ctx, spec)
	}
	if len(spec.Cmd) == 0 {
		return nil, fmt.Errorf("job %q has no command", spec.ID)
	}
	return s.launchCommand(ctx, spec)
}

// environ merges the job's extra variables on top of the parent environment.
func environ(extra map[string]string) []string {
	if len(extra) == 0 {
		return nil // inherit as-is
	}
	env := os.Environ()
	for k, v := range extra {
		env = append(env, k+"="+v)
	}
	return env
}
