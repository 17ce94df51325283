// Package client talks to a running fall monitor over gRPC.
//
// It wraps the monitor service stub with call timeouts and domain types, and
// provides the status, cancel and history commands used by fall-ctl.
package client
