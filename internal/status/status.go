// Package status provides a thread-safe status tracker for the exporter
// daemon. It is read by the HTTP handlers and embedded in MQTT lifecycle
// events.
package status

import (
	"sync"
	"time"

	"github.com/expodht/dht-exporter/internal/dht"
)

// Config contains daemon configuration for display.
type Config struct {
	Pin        int
	Model      string
	IntervalMs int64
	TimeoutMs  int64
	Broker     string
	HTTPAddr   string
}

// Counts tracks the number of reads per decode status since startup.
type Counts struct {
	Good        int
	BadChecksum int
	BadData     int
	Timeout     int
}

// Add increments the counter for the given status.
func (c *Counts) Add(s dht.Status) {
	switch s {
	case dht.StatusGood:
		c.Good++
	case dht.StatusBadChecksum:
		c.BadChecksum++
	case dht.StatusBadData:
		c.BadData++
	case dht.StatusTimeout:
		c.Timeout++
	}
}

// Total returns the total number of recorded reads.
func (c Counts) Total() int {
	return c.Good + c.BadChecksum + c.BadData + c.Timeout
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Last          dht.Reading
	HaveReading   bool
	Counts        Counts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Record stores the latest reading and bumps its status counter.
// Called from the poll loop after every read.
func (t *Tracker) Record(r dht.Reading) {
	t.mu.Lock()
	t.snap.Last = r
	t.snap.HaveReading = true
	t.snap.Counts.Add(r.Status)
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
