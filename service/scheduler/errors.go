package scheduler

import (
	"fmt"

	"github.com/procbatch/procbatch/model"
)

// ConfigurationError reports a job whose declared requirement exceeds the
// cluster's total capacity. Such a job could never be admitted no matter how
// long the drain waited, so the drain fails fast instead of stalling.
type ConfigurationError struct {
	JobID       string
	CPU         int
	Memory      int64
	TotalCPU    int
	TotalMemory int64
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("job %q can never be scheduled: requires cpu=%d memory=%s, cluster capacity is cpu=%d memory=%s",
		e.JobID, e.CPU, model.FormatMemory(e.Memory), e.TotalCPU, model.FormatMemory(e.TotalMemory))
}
