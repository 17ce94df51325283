// Package fall contains core domain types for fall detection.
//
// It defines Sample (one accelerometer reading), the detection Thresholds,
// the MotionEvent and Phase enumerations, the Snapshot of engine state and
// the Incident records written to the journal.
package fall
