// Package sampler delivers accelerometer samples to the fall engine.
//
// A Source pushes samples from a serial-attached accelerometer or from a
// recorded CSV file. Lines hold `ax,ay,az` or `t_ms,ax,ay,az`. A Pipe sits
// between the source and the engine: it keeps arrival order and, for live
// sensors, drops samples when the consumer falls behind instead of blocking
// the reader.
package sampler
