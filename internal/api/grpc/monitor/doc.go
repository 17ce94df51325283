// Package monitor implements the gRPC transport for the fall monitor control API.
//
// The service is defined in api/proto/fallalarm/v1/monitor.proto. Its messages
// are protobuf well-known types (Empty and Struct), so the descriptor and the
// client stub are declared here instead of generated. The package
// exposes a server that calls into the detection engine and the incident
// journal, a thin client stub, and helpers to convert between Struct payloads
// and domain types.
package monitor
