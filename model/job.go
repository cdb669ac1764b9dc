package model

import (
	"fmt"
	"time"
)

// MemoryUnlimited marks a job with no memory admission constraint. The job
// reserves zero bytes against the cluster ledger but is still monitored and
// still counts as a running job for liveness purposes.
const MemoryUnlimited int64 = -1

// JobSpec is the canonical, immutable description of a single job. Once a
// spec has been admitted the scheduler treats it as frozen – the reserved
// amounts equal the declared requirements even if the job later uses more or
// less.
type JobSpec struct {
	// ID uniquely identifies the job within a batch; auto-generated on
	// submission when empty.
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	// Cmd is the command to execute, argv style. Mutually exclusive with
	// Pipeline.
	Cmd []string `json:"cmd,omitempty" yaml:"cmd,omitempty"`

	// Pipeline holds the stages of a multi-stage pipe chain: each stage's
	// stdout feeds the next stage's stdin. The whole chain is launched,
	// waited on and killed as a single unit.
	Pipeline [][]string `json:"pipeline,omitempty" yaml:"pipeline,omitempty"`

	// CPU is the number of cores the job reserves. Must be >= 1.
	CPU int `json:"cpu,omitempty" yaml:"cpu,omitempty"`

	// Memory is the reservation in bytes, or MemoryUnlimited.
	Memory int64 `json:"memory,omitempty" yaml:"memory,omitempty"`

	// Dir is the working directory, inherited from the caller when empty.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`

	// Env holds additional environment variables for the job.
	Env map[string]string `json:"env,omitempty" yaml:"env,omitempty"`

	// Timeout forcibly terminates the job once exceeded; zero means none.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	// StdoutURL and StderrURL redirect captured output to the given
	// destinations (any URL the storage layer understands, plain paths
	// included). When empty the output is captured in memory and embedded
	// in the JobResult.
	StdoutURL string `json:"stdout,omitempty" yaml:"stdout,omitempty"`
	StderrURL string `json:"stderr,omitempty" yaml:"stderr,omitempty"`
}

// Command returns the command of the first stage for single-command jobs, or
// the first pipeline stage – used for display only.
func (s *JobSpec) Command() []string {
	if len(s.Cmd) > 0 {
		return s.Cmd
	}
	if len(s.Pipeline) > 0 {
		return s.Pipeline[0]
	}
	return nil
}

// Validate reports the first problem that would prevent the spec from being
// submitted. Capacity-related problems are deliberately not checked here –
// they are detected at scheduling time against the actual cluster capacity.
func (s *JobSpec) Validate() error {
	if len(s.Cmd) == 0 && len(s.Pipeline) == 0 {
		return fmt.Errorf("job %q has no command", s.ID)
	}
	if len(s.Cmd) > 0 && len(s.Pipeline) > 0 {
		return fmt.Errorf("job %q defines both cmd and pipeline", s.ID)
	}
	for i, stage := range s.Pipeline {
		if len(stage) == 0 {
			return fmt.Errorf("job %q pipeline stage %d is empty", s.ID, i)
		}
	}
	if s.CPU < 1 {
		return fmt.Errorf("job %q cpu requirement must be >= 1, got %d", s.ID, s.CPU)
	}
	if s.Memory < MemoryUnlimited {
		return fmt.Errorf("job %q memory requirement must be >= 0 or unlimited, got %d", s.ID, s.Memory)
	}
	if s.Timeout < 0 {
		return fmt.Errorf("job %q timeout must not be negative", s.ID)
	}
	return nil
}

// Clone returns a deep copy so that callers can keep mutating their spec
// after submission without affecting the queued copy.
func (s *JobSpec) Clone() *JobSpec {
	if s == nil {
		return nil
	}
	clone := *s
	if s.Cmd != nil {
		clone.Cmd = append([]string(nil), s.Cmd...)
	}
	if s.Pipeline != nil {
		clone.Pipeline = make([][]string, len(s.Pipeline))
		for i, stage := range s.Pipeline {
			clone.Pipeline[i] = append([]string(nil), stage...)
		}
	}
	if s.Env != nil {
		clone.Env = make(map[string]string, len(s.Env))
		for k, v := range s.Env {
			clone.Env[k] = v
		}
	}
	return &clone
}

// Job is a fluent builder producing a JobSpec. It accepts the loosely typed
// CPU/memory values ("16G", 4, nil) that callers tend to have at hand and
// normalises them when Spec is called.
type Job struct {
	cmd      []string
	pipeline [][]string
	cpu      interface{}
	memory   interface{}
	id       string
	dir      string
	env      map[string]string
	timeout  time.Duration
	stdout   string
	stderr   string
}

// NewJob starts a builder for a single-command job.
func NewJob(cmd ...string) *Job {
	return &Job{cmd: cmd}
}

// Pipe appends a pipeline stage; the first call converts the job into a
// pipeline whose initial stage is the command passed to NewJob.
func (j *Job) Pipe(cmd ...string) *Job {
	if len(j.pipeline) == 0 && len(j.cmd) > 0 {
		j.pipeline = append(j.pipeline, j.cmd)
		j.cmd = nil
	}
	j.pipeline = append(j.pipeline, cmd)
	return j
}

// CPU sets the core requirement; accepts an int or a numeric string.
func (j *Job) CPU(cores interface{}) *Job {
	j.cpu = cores
	return j
}

// Memory sets the memory requirement; accepts bytes as an int or a
// human-readable string such as "512M" or "16G".
func (j *Job) Memory(mem interface{}) *Job {
	j.memory = mem
	return j
}

// WorkingDir sets the working directory.
func (j *Job) WorkingDir(dir string) *Job {
	j.dir = dir
	return j
}

// Environment sets additional environment variables.
func (j *Job) Environment(env map[string]string) *Job {
	j.env = env
	return j
}

// WithTimeout sets the job timeout.
func (j *Job) WithTimeout(timeout time.Duration) *Job {
	j.timeout = timeout
	return j
}

// WithID sets a custom job identifier.
func (j *Job) WithID(id string) *Job {
	j.id = id
	return j
}

// RedirectStdout redirects captured stdout to the supplied destination URL.
func (j *Job) RedirectStdout(URL string) *Job {
	j.stdout = URL
	return j
}

// RedirectStderr redirects captured stderr to the supplied destination URL.
func (j *Job) RedirectStderr(URL string) *Job {
	j.stderr = URL
	return j
}

// Spec normalises the builder into a canonical JobSpec.
func (j *Job) Spec() (*JobSpec, error) {
	cpu, err := ParseCPU(j.cpu)
	if err != nil {
		return nil, err
	}
	memory, err := ParseMemory(j.memory)
	if err != nil {
		return nil, err
	}
	spec := &JobSpec{
		ID:        j.id,
		Cmd:       j.cmd,
		Pipeline:  j.pipeline,
		CPU:       cpu,
		Memory:    memory,
		Dir:       j.dir,
		Env:       j.env,
		Timeout:   j.timeout,
		StdoutURL: j.stdout,
		StderrURL: j.stderr,
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}
