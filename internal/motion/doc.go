// Package motion turns raw accelerometer samples into semantic motion events.
//
// Classification is pure: the same sample and thresholds always give the
// same answer. Which events matter depends on the engine phase, so the
// package also exposes the individual predicates.
package motion
