// Package scheduler implements the memory-aware batch scheduler. Jobs are
// submitted with declared CPU and memory requirements, held in a pending
// queue and admitted in first-fit order whenever the resource ledger has
// capacity for them. Each admitted job runs as an external process watched
// by its own memory monitor; completion events flow back to the drain loop
// through a message queue published by per-job waiter goroutines.
package scheduler
