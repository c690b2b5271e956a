//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealLine is not available on non-Linux platforms.
type RealLine struct{}

// NewRealLine returns an error on non-Linux platforms.
func NewRealLine(chipName string, pin int) (*RealLine, error) {
	return nil, errUnsupported
}

// SetInput is not implemented on non-Linux platforms.
func (l *RealLine) SetInput() error { return errUnsupported }

// SetOutputLow is not implemented on non-Linux platforms.
func (l *RealLine) SetOutputLow() error { return errUnsupported }

// WatchRising is not implemented on non-Linux platforms.
func (l *RealLine) WatchRising(handler func(EdgeEvent)) (func(), error) {
	return nil, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (l *RealLine) Close() error { return nil }
