// Package escalation implements the delayed call-then-SMS chain that follows
// an unresolved fall alert.
//
// A Timer runs at most one chain at a time. Cancelling a chain before a
// deadline starts prevents that deadline and every later one; a deadline that
// has already started runs to completion but still stops the next one.
package escalation
