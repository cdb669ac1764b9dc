package launcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/procbatch/procbatch/model"
	"github.com/viant/afs"
)

// pipelineHandle runs a sequence of commands with each stage's stdout
// connected to the next stage's stdin. Stages share a stderr capture;
// the exit code of the last stage decides success.
type pipelineHandle struct {
	fs     afs.Service
	stages []*exec.Cmd
	stdout *capture
	stderr *capture

	waitOnce sync.Once
	done     chan struct{}
	exitCode int
	waitErr  error
}

func (s *Service) launchPipeline(_ context.Context, spec *model.JobSpec) (Handle, error) {
	h := &pipelineHandle{
		fs:     s.fs,
		stdout: &capture{URL: spec.StdoutURL},
		stderr: &capture{URL: spec.StderrURL},
		done:   make(chan struct{}),
	}
	env := environ(spec.Env)
	for i, stage := range spec.Pipeline {
		cmd := exec.Command(stage[0], stage[1:]...)
		cmd.Dir = spec.Dir
		cmd.Env = env
		cmd.Stderr = h.stderr
		h.stages = append(h.stages, cmd)
		if i > 0 {
			pipe, err := h.stages[i-1].StdoutPipe()
			if err != nil {
				return nil, fmt.Errorf("failed to pipe job %q stage %d: %w", spec.ID, i, err)
			}
			cmd.Stdin = pipe
		}
	}
	h.stages[len(h.stages)-1].Stdout = h.stdout

	for i, cmd := range h.stages {
		if err := cmd.Start(); err != nil {
			for _, started := range h.stages[:i] {
				_ = started.Process.Kill()
			}
			return nil, fmt.Errorf("failed to launch job %q stage %d: %w", spec.ID, i, err)
		}
	}
	return h, nil
}

func (h *pipelineHandle) PIDs() []int {
	pids := make([]int, 0, len(h.stages))
	for _, cmd := range h.stages {
		pids = append(pids, cmd.Process.Pid)
	}
	return pids
}

func (h *pipelineHandle) Wait() (int, error) {
	h.waitOnce.Do(func() {
		defer close(h.done)
		// The last stage owns the exit code; waiting on it first drains
		// the pipeline end to end. Earlier stages are reaped afterwards
		// since Wait on a stage closes its StdoutPipe.
		last := len(h.stages) - 1
		h.exitCode, h.waitErr = waitExit(h.stages[last])
		for i := last - 1; i >= 0; i-- {
			if _, err := waitExit(h.stages[i]); err != nil && h.waitErr == nil {
				h.waitErr = err
			}
		}
		if err := h.stdout.flush(context.Background(), h.fs); err != nil && h.waitErr == nil {
			h.waitErr = err
		}
		if err := h.stderr.flush(context.Background(), h.fs); err != nil && h.waitErr == nil {
			h.waitErr = err
		}
	})
	<-h.done
	return h.exitCode, h.waitErr
}

func (h *pipelineHandle) Kill() error {
	var failed error
	for _, cmd := range h.stages {
		if cmd.Process == nil {
			continue
		}
		if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			failed = err
		}
	}
	return failed
}

func (h *pipelineHandle) Output() (string, string) {
	return h.stdout.value(), h.stderr.value()
}
