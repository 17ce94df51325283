// Package notify defines the capability surface the fall engine uses to reach
// the user and the emergency contact.
//
// Sink is the interface the engine depends on. Console renders everything to
// the log and doubles as the fallback affordance; Notifier combines a speaker,
// a call/SMS dispatcher and a fallback into one Sink.
package notify
