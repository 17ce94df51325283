// Package logger wraps zap to provide:
//   - a global sugared logger with a console encoder,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing and a runtime-adjustable level,
//   - leveled helpers that take the logger from the context (InfoKV, ErrorKV, ...).
//
// Services receive a context and log through it, so names and key-value
// pairs attached upstream follow every message.
package logger
