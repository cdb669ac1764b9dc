// Package policy provides optional, declarative scheduling rules that can be
// attached to a drain via context. It is deliberately decoupled from the
// scheduler so that using it is entirely opt-in – drains that do not embed a
// Policy in their context keep the default first-fit behaviour.

package policy

import (
	"context"
	"strings"
)

// Admission modes recognised by the scheduler.
const (
	// AdmissionScanContinue scans the whole queue each cycle in submission
	// order and admits every job that fits, so a large job that does not fit
	// never blocks smaller jobs behind it. This is the default.
	AdmissionScanContinue = "scan-continue"

	// AdmissionStrictOrder stops the admission scan at the first job that
	// does not fit, trading throughput for strict submission ordering.
	AdmissionStrictOrder = "strict-order"
)

// Policy represents the scheduling settings for the current drain.
//
// A nil *Policy means "first-fit scan-and-continue" and is therefore the
// zero-cost default.
type Policy struct {
	Admission string // scan-continue / strict-order (default = scan-continue)
}

// ScanContinues reports whether the admission scan should keep evaluating
// queued jobs after one failed to fit.
func (p *Policy) ScanContinues() bool {
	if p == nil {
		return true
	}
	return strings.ToLower(p.Admission) != AdmissionStrictOrder
}

// ---------------------------------------------------------------------------
// Context helpers
// ---------------------------------------------------------------------------

type ctxKeyT struct{}

var ctxKey ctxKeyT

// WithPolicy embeds policy in ctx.
func WithPolicy(ctx context.Context, p *Policy) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey, p)
}

// FromContext extracts the policy, or nil when none was attached.
func FromContext(ctx context.Context) *Policy {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxKey).(*Policy); ok {
		return v
	}
	return nil
}
