package gpio

import (
	"sync"
	"time"
)

// FakeLine is a test double that records mode changes and lets tests inject
// rising-edge events. Safe for concurrent use, since real edge events arrive
// from a different goroutine than the read path.
type FakeLine struct {
	mu      sync.Mutex
	handler func(EdgeEvent)
	tick    uint32

	// InputCalls counts SetInput invocations.
	InputCalls int

	// OutputLowCalls counts SetOutputLow invocations.
	OutputLowCalls int

	// Closed tracks if Close was called.
	Closed bool

	// WatchErr, if set, will be returned by WatchRising.
	WatchErr error

	// InputErr, if set, will be returned by SetInput.
	InputErr error

	// OutputErr, if set, will be returned by SetOutputLow.
	OutputErr error
}

// NewFakeLine creates a FakeLine with the tick counter at zero.
func NewFakeLine() *FakeLine {
	return &FakeLine{}
}

// SetInput records the mode change.
func (f *FakeLine) SetInput() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.InputErr != nil {
		return f.InputErr
	}
	f.InputCalls++
	return nil
}

// SetOutputLow records the mode change.
func (f *FakeLine) SetOutputLow() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.OutputErr != nil {
		return f.OutputErr
	}
	f.OutputLowCalls++
	return nil
}

// WatchRising stores the handler. The returned cancel function removes it;
// edges injected after cancel are dropped.
func (f *FakeLine) WatchRising(handler func(EdgeEvent)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WatchErr != nil {
		return nil, f.WatchErr
	}
	f.handler = handler

	return func() {
		f.mu.Lock()
		f.handler = nil
		f.mu.Unlock()
	}, nil
}

// Close marks the line as closed.
func (f *FakeLine) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// Watching reports whether an edge handler is currently registered.
func (f *FakeLine) Watching() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handler != nil
}

// InjectRising delivers a rising edge at the given absolute tick.
func (f *FakeLine) InjectRising(tick uint32) {
	f.mu.Lock()
	f.tick = tick
	handler := f.handler
	f.mu.Unlock()
	if handler != nil {
		handler(EdgeEvent{Tick: tick, Time: time.Now()})
	}
}

// InjectIntervals delivers a sequence of rising edges separated by the given
// microsecond intervals, advancing from the current tick position.
func (f *FakeLine) InjectIntervals(intervals ...uint32) {
	for _, iv := range intervals {
		f.mu.Lock()
		tick := f.tick + iv
		f.mu.Unlock()
		f.InjectRising(tick)
	}
}
