// Package engine implements the fall detection state machine.
//
// The Engine consumes samples in arrival order and moves between three
// phases: idle, free-falling and alert-pending. Raising an alert starts an
// escalation chain (call, then SMS) that a shake gesture or a remote request
// may cancel. Every read-modify-write of the phase, the timestamps and the
// escalation handle happens under one mutex. Side effects are queued under
// that mutex in transition order and run after it is released, one transition
// at a time, so a cancel can never be announced before the alert it cancels.
package engine
