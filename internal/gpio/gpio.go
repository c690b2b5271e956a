// Package gpio provides single-line GPIO access with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "time"

// EdgeEvent describes a rising transition on a watched line.
type EdgeEvent struct {
	// Tick is a microsecond timestamp on a wrapping 32-bit counter.
	// Only differences between ticks are meaningful.
	Tick uint32

	// Time is the wall-clock instant the event was delivered.
	Time time.Time
}

// Line is a single bidirectional GPIO line with rising-edge detection.
type Line interface {
	// SetInput releases the line to input mode so the sensor can drive it.
	SetInput() error

	// SetOutputLow drives the line low (used for the sensor trigger pulse).
	SetOutputLow() error

	// WatchRising registers a handler for rising-edge events and returns a
	// cancel function. After cancel returns no further events are delivered.
	// At most one handler may be registered at a time.
	WatchRising(handler func(EdgeEvent)) (cancel func(), err error)

	// Close releases GPIO resources.
	Close() error
}

// DefaultPin is the BCM pin number the sensor data line defaults to.
const DefaultPin = 4

// DefaultChip is the GPIO character device name on a Raspberry Pi.
const DefaultChip = "gpiochip0"
