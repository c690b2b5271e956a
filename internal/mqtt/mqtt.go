// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/expodht/dht-exporter/internal/dht"
)

// Topic is the MQTT topic for sensor readings.
const Topic = "sensors/dht/reading"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "sensors/dht/system"

// Publisher publishes readings to MQTT.
type Publisher interface {
	// PublishReading sends a completed sensor reading to the broker.
	// Returns error if publishing fails (should not crash the process).
	PublishReading(r dht.Reading) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure for a reading.
type Payload struct {
	Sensor SensorPayload `json:"sensor"`
}

// SensorPayload contains the reading details.
type SensorPayload struct {
	Timestamp   string  `json:"timestamp"`
	Status      string  `json:"status"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
}

// FormatReadingPayload creates the JSON payload for a sensor reading.
func FormatReadingPayload(r dht.Reading) ([]byte, error) {
	payload := Payload{
		Sensor: SensorPayload{
			Timestamp:   r.Time.UTC().Format(time.RFC3339),
			Status:      r.Status.String(),
			Temperature: r.Temperature,
			Humidity:    r.Humidity,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status
// snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
