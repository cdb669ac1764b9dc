// Package model defines the value types exchanged with the scheduling core:
// the canonical JobSpec consumed by the scheduler, the immutable JobResult and
// BatchResult records it produces, and the resource-spec parsing helpers used
// to normalise human-readable CPU/memory values before a job is submitted.
//
// The scheduler only ever sees the canonical JobSpec struct. The fluent Job
// builder and the map adapter are convenience layers that normalise their
// input into a JobSpec; they are not part of the scheduling core.
package model
