// Package ledger owns the shared capacity counters and is the only state in
// the engine mutated by more than one concurrent actor. All reservation and
// release operations are linearizable with respect to each other.
package ledger
