// Package monitor runs a fall monitoring session.
//
// A session loads settings, assembles the notification sink, the incident
// journal, the detection engine and the sample source, serves the control API
// over gRPC and feeds samples to the engine until the context ends or the
// source closes.
package monitor
