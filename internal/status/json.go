package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Reading       *ReadingJSON `json:"reading,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"read_counts"`
	Config        ConfigJSON   `json:"config"`
}

// ReadingJSON is the JSON representation of the last sensor reading.
type ReadingJSON struct {
	Timestamp   string  `json:"timestamp"`
	Status      string  `json:"status"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of per-status read counts.
type CountsJSON struct {
	Good        int `json:"good"`
	BadChecksum int `json:"bad_checksum"`
	BadData     int `json:"bad_data"`
	Timeout     int `json:"timeout"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Pin        int    `json:"pin"`
	Model      string `json:"model"`
	IntervalMs int64  `json:"interval_ms"`
	TimeoutMs  int64  `json:"timeout_ms"`
	Broker     string `json:"broker,omitempty"`
	HTTPAddr   string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Good:        snap.Counts.Good,
			BadChecksum: snap.Counts.BadChecksum,
			BadData:     snap.Counts.BadData,
			Timeout:     snap.Counts.Timeout,
		},
		Config: ConfigJSON{
			Pin:        snap.Config.Pin,
			Model:      snap.Config.Model,
			IntervalMs: snap.Config.IntervalMs,
			TimeoutMs:  snap.Config.TimeoutMs,
			Broker:     snap.Config.Broker,
			HTTPAddr:   snap.Config.HTTPAddr,
		},
	}

	if snap.HaveReading {
		inner.Reading = &ReadingJSON{
			Timestamp:   snap.Last.Time.UTC().Format(time.RFC3339),
			Status:      snap.Last.Status.String(),
			Temperature: snap.Last.Temperature,
			Humidity:    snap.Last.Humidity,
		}
	}

	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
