// Package monitor hosts the per-job memory monitors. Every running job owns
// one Monitor goroutine that periodically asks a Sampler for the resident
// memory of the job's process tree and retains the peak. The peak is written
// only by the job's own loop and read by the scheduler, so the only
// synchronisation needed is a monotonic atomic value.
package monitor
