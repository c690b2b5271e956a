//go:build linux

package gpio

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// RealLine drives a GPIO line on actual hardware using the Linux GPIO
// character device.
type RealLine struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line

	mu      sync.Mutex
	handler func(EdgeEvent)
}

// NewRealLine requests the given pin on the given chip as an input with
// rising-edge detection. The sensor's data line idles high via an external
// pull-up, so no bias is requested.
func NewRealLine(chipName string, pin int) (*RealLine, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	l := &RealLine{chip: chip}
	line, err := chip.RequestLine(pin,
		gpiocdev.AsInput,
		gpiocdev.WithRisingEdge,
		gpiocdev.WithEventHandler(l.onEvent))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request pin %d: %w", pin, err)
	}
	l.line = line

	return l, nil
}

func (l *RealLine) onEvent(evt gpiocdev.LineEvent) {
	if evt.Type != gpiocdev.LineEventRisingEdge {
		return
	}
	l.mu.Lock()
	handler := l.handler
	l.mu.Unlock()
	if handler == nil {
		return
	}

	// Kernel event timestamps are nanoseconds on a monotonic clock;
	// truncation to uint32 microseconds gives the wrapping tick counter.
	handler(EdgeEvent{
		Tick: uint32(evt.Timestamp / time.Microsecond),
		Time: time.Now(),
	})
}

// SetInput reconfigures the line to input mode with rising-edge detection.
func (l *RealLine) SetInput() error {
	if err := l.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithRisingEdge); err != nil {
		return fmt.Errorf("reconfigure pin as input: %w", err)
	}
	return nil
}

// SetOutputLow reconfigures the line as an output driven low.
func (l *RealLine) SetOutputLow() error {
	if err := l.line.Reconfigure(gpiocdev.AsOutput(0)); err != nil {
		return fmt.Errorf("reconfigure pin as output low: %w", err)
	}
	return nil
}

// WatchRising registers the edge handler. The kernel event stream is already
// flowing; this only connects it to the consumer.
func (l *RealLine) WatchRising(handler func(EdgeEvent)) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.handler != nil {
		return nil, errors.New("gpio: edge handler already registered")
	}
	l.handler = handler

	return func() {
		l.mu.Lock()
		l.handler = nil
		l.mu.Unlock()
	}, nil
}

// Close releases GPIO resources. The line is returned to input mode first so
// the sensor is not left driven low across restarts.
func (l *RealLine) Close() error {
	var errs []error

	if l.line != nil {
		if err := l.line.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin: %w", err))
		}
		if err := l.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line: %w", err))
		}
	}
	if l.chip != nil {
		if err := l.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
