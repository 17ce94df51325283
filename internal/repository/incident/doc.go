// Package incident implements the incident journal.
//
// The SQLiteRepository appends every step of an alert (raised, cancelled,
// call placed, SMS sent, ...) to a SQLite database and lists recent events
// for the control API.
package incident
