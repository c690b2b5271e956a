package dht

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/expodht/dht-exporter/internal/gpio"
)

// DefaultReadTimeout bounds how long a read waits for a completed frame.
const DefaultReadTimeout = 250 * time.Millisecond

// Trigger pulse widths. DHT11-style sensors need the line held low for 18ms
// to start a transmission; DHTXX-style sensors respond to 1ms.
const (
	slowTriggerPulse = 18 * time.Millisecond
	fastTriggerPulse = time.Millisecond
)

// Sensor reads a DHT-family sensor attached to a single GPIO line.
// One Sensor instance owns one physical sensor.
//
// Decoder state is mutated only by the edge handler; the read path resets the
// pending reading before triggering and then waits on a completion channel.
// Both paths synchronize on an internal mutex, so the edge source may deliver
// events from any goroutine.
type Sensor struct {
	line      gpio.Line
	model     Model
	log       *zap.Logger
	onReading func(Reading)

	triggerPulse time.Duration
	readTimeout  time.Duration
	now          func() time.Time

	mu            sync.Mutex
	dec           *Decoder
	current       Reading
	newData       bool
	notifyPending bool

	// complete carries at most one pending completion signal.
	complete chan struct{}
}

// Option configures a Sensor.
type Option func(*Sensor)

// WithModel selects the sensor model. The default is ModelAuto.
func WithModel(m Model) Option {
	return func(s *Sensor) { s.model = m }
}

// WithLogger sets the diagnostics logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(s *Sensor) { s.log = log }
}

// WithReadingHandler registers an observer invoked once per completed
// reading. Timeouts are not observed here; they are the caller's own read
// outcome.
func WithReadingHandler(fn func(Reading)) Option {
	return func(s *Sensor) { s.onReading = fn }
}

// WithTriggerPulse overrides the model-dependent trigger pulse width.
func WithTriggerPulse(d time.Duration) Option {
	return func(s *Sensor) { s.triggerPulse = d }
}

// WithReadTimeout overrides the read window. The default is
// DefaultReadTimeout.
func WithReadTimeout(d time.Duration) Option {
	return func(s *Sensor) { s.readTimeout = d }
}

// WithClock overrides the wall clock used to stamp readings. For tests.
func WithClock(now func() time.Time) Option {
	return func(s *Sensor) { s.now = now }
}

// NewSensor creates a Sensor for the given line. Call Attach before Read.
func NewSensor(line gpio.Line, opts ...Option) *Sensor {
	s := &Sensor{
		line:        line,
		model:       ModelAuto,
		log:         zap.NewNop(),
		readTimeout: DefaultReadTimeout,
		now:         time.Now,
		complete:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.triggerPulse == 0 {
		if s.model == ModelDHTXX {
			s.triggerPulse = fastTriggerPulse
		} else {
			s.triggerPulse = slowTriggerPulse
		}
	}
	s.dec = NewDecoder(s.completeFrame)
	s.current = Reading{Status: StatusTimeout}
	return s
}

// Attach subscribes the sensor's decoder to the line's rising-edge stream.
// The returned detach function cancels the subscription; after it returns no
// further edge events reach the decoder and any in-flight frame is abandoned.
func (s *Sensor) Attach() (detach func(), err error) {
	cancel, err := s.line.WatchRising(s.handleEdge)
	if err != nil {
		return nil, fmt.Errorf("watch rising edges: %w", err)
	}
	s.log.Debug("attached to edge source", zap.String("model", s.model.String()))
	return cancel, nil
}

// Read triggers the sensor and waits up to the read timeout for a completed
// frame. If no frame completes, the returned reading carries StatusTimeout.
// The returned error is non-nil only for GPIO failures or context
// cancellation; decode problems are reported through Reading.Status.
func (s *Sensor) Read(ctx context.Context) (Reading, error) {
	if err := s.trigger(); err != nil {
		return Reading{}, err
	}

	timer := time.NewTimer(s.readTimeout)
	defer timer.Stop()

	select {
	case <-s.complete:
	case <-timer.C:
	case <-ctx.Done():
		s.mu.Lock()
		r := s.current
		s.mu.Unlock()
		return r, ctx.Err()
	}

	s.mu.Lock()
	r := s.current
	s.mu.Unlock()
	return r, nil
}

// Last returns the most recent reading and whether it was produced by a
// completed frame since the last trigger.
func (s *Sensor) Last() (Reading, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.newData
}

// trigger resets the pending reading and performs the trigger pulse: drive
// the line low for the model-dependent width, then release to input mode so
// the sensor can respond.
func (s *Sensor) trigger() error {
	s.mu.Lock()
	s.newData = false
	s.notifyPending = false
	s.current = Reading{Time: s.now(), Status: StatusTimeout}
	s.mu.Unlock()

	// Drop a completion signal left over from a frame that finished after a
	// previous read had already timed out.
	select {
	case <-s.complete:
	default:
	}

	if err := s.line.SetOutputLow(); err != nil {
		return fmt.Errorf("trigger pulse: %w", err)
	}
	time.Sleep(s.triggerPulse)
	if err := s.line.SetInput(); err != nil {
		return fmt.Errorf("release line: %w", err)
	}
	return nil
}

// handleEdge is the edge-event entry point. It drives the decoder and, when
// a frame completed on this edge, signals the waiting reader and fires the
// observer outside the lock.
func (s *Sensor) handleEdge(ev gpio.EdgeEvent) {
	s.mu.Lock()
	s.dec.OnRisingEdge(ev.Tick)
	var done *Reading
	if s.notifyPending {
		s.notifyPending = false
		r := s.current
		done = &r
	}
	s.mu.Unlock()

	if done == nil {
		return
	}

	select {
	case s.complete <- struct{}{}:
	default:
	}

	s.log.Debug("frame decoded",
		zap.String("status", done.Status.String()),
		zap.Float64("temperature", done.Temperature),
		zap.Float64("humidity", done.Humidity))

	if s.onReading != nil {
		s.onReading(*done)
	}
}

// completeFrame interprets a finished 40-bit frame. Called by the decoder
// with the sensor mutex held.
func (s *Sensor) completeFrame(code uint64) {
	status, t, h := Interpret(code, s.model)
	s.current.Status = status
	s.current.Temperature = t
	s.current.Humidity = h
	s.newData = true
	s.notifyPending = true
}
