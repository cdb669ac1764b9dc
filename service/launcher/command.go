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

// commandHandle runs a single command.
type commandHandle struct {
	fs     afs.Service
	cmd    *exec.Cmd
	stdout *capture
	stderr *capture

	waitOnce sync.Once
	done     chan struct{}
	exitCode int
	waitErr  error
}

func (s *Service) launchCommand(_ context.Context, spec *model.JobSpec) (Handle, error) {
	cmd := exec.Command(spec.Cmd[0], spec.Cmd[1:]...)
	cmd.Dir = spec.Dir
	cmd.Env = environ(spec.Env)

	h := &commandHandle{
		fs:     s.fs,
		cmd:    cmd,
		stdout: &capture{URL: spec.StdoutURL},
		stderr: &capture{URL: spec.StderrURL},
		done:   make(chan struct{}),
	}
	cmd.Stdout = h.stdout
	cmd.Stderr = h.stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to launch job %q: %w", spec.ID, err)
	}
	return h, nil
}

func (h *commandHandle) PIDs() []int {
	return []int{h.cmd.Process.Pid}
}

func (h *commandHandle) Wait() (int, error) {
	h.waitOnce.Do(func() {
		defer close(h.done)
		h.exitCode, h.waitErr = waitExit(h.cmd)
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

func (h *commandHandle) Kill() error {
	if h.cmd.Process == nil {
		return nil
	}
	if err := h.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

func (h *commandHandle) Output() (string, string) {
	return h.stdout.value(), h.stderr.value()
}

// waitExit normalises cmd.Wait: a non-zero exit is reported through the code,
// not the error.
func waitExit(cmd *exec.Cmd) (int, error) {
	err := cmd.Wait()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}
