package model

import (
	"time"
)

// ErrorKind classifies why a job failed so that callers can distinguish a
// timeout kill from a natural non-zero exit without parsing error strings.
type ErrorKind string

const (
	// ErrorKindLaunch means the process never started (missing executable,
	// permission denied, invalid working directory).
	ErrorKindLaunch ErrorKind = "launch"
	// ErrorKindExit means the process ran and exited non-zero.
	ErrorKindExit ErrorKind = "exit"
	// ErrorKindTimeout means the job was killed after exceeding its declared
	// timeout.
	ErrorKindTimeout ErrorKind = "timeout"
	// ErrorKindCancelled means the batch was aborted while the job was
	// queued or running.
	ErrorKindCancelled ErrorKind = "cancelled"
)

// JobResult is the immutable record produced for every submitted job exactly
// once, whether it completed, failed, timed out or was cancelled.
type JobResult struct {
	ID       string    `json:"id"`
	Cmd      []string  `json:"cmd,omitempty"`
	Success  bool      `json:"success"`
	ExitCode int       `json:"exitCode"`
	Kind     ErrorKind `json:"errorKind,omitempty"`
	Error    string    `json:"error,omitempty"`

	CPU        int           `json:"cpu,omitempty"`
	StartedAt  time.Time     `json:"startedAt,omitempty"`
	FinishedAt time.Time     `json:"finishedAt,omitempty"`
	Runtime    time.Duration `json:"runtime,omitempty"`

	// PeakMemory is the largest process-tree RSS observed by the job's
	// monitor, zero when the job exited before the first sample.
	PeakMemory int64 `json:"peakMemory,omitempty"`

	// Stdout and Stderr hold the captured output, or the destination URL
	// when the spec requested redirection.
	Stdout string `json:"stdout,omitempty"`
	Stderr string `json:"stderr,omitempty"`
}

// BatchResult is returned by a drain: every submitted job appears in exactly
// one of the two ordered collections, in completion order.
type BatchResult struct {
	Completed []*JobResult `json:"completed,omitempty"`
	Failed    []*JobResult `json:"failed,omitempty"`

	TotalJobs int           `json:"totalJobs"`
	StartedAt time.Time     `json:"startedAt"`
	Runtime   time.Duration `json:"runtime"`

	// PeakCPU and PeakMemory report the largest simultaneous ledger
	// commitment observed across the run.
	PeakCPU    int   `json:"peakCpu"`
	PeakMemory int64 `json:"peakMemory"`
}

// Stats is a point-in-time snapshot of a cluster, available before, during
// and after a drain.
type Stats struct {
	Pending   int `json:"pending"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Total     int `json:"total"`

	TotalCPU       int   `json:"totalCpu"`
	ReservedCPU    int   `json:"reservedCpu"`
	TotalMemory    int64 `json:"totalMemory"`
	ReservedMemory int64 `json:"reservedMemory"`

	Runtime time.Duration `json:"runtime,omitempty"`
}
