package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/expodht/dht-exporter/internal/dht"
)

func TestFormatReadingPayload(t *testing.T) {
	r := dht.Reading{
		Time:        time.Date(2026, 1, 1, 12, 30, 45, 0, time.UTC),
		Status:      dht.StatusGood,
		Temperature: 21.5,
		Humidity:    48.2,
	}

	data, err := FormatReadingPayload(r)
	if err != nil {
		t.Fatalf("FormatReadingPayload: %v", err)
	}

	var parsed Payload
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Sensor.Timestamp != "2026-01-01T12:30:45Z" {
		t.Errorf("timestamp = %q", parsed.Sensor.Timestamp)
	}
	if parsed.Sensor.Status != "GOOD" {
		t.Errorf("status = %q, want GOOD", parsed.Sensor.Status)
	}
	if parsed.Sensor.Temperature != 21.5 || parsed.Sensor.Humidity != 48.2 {
		t.Errorf("values = (%v, %v), want (21.5, 48.2)", parsed.Sensor.Temperature, parsed.Sensor.Humidity)
	}
}

func TestFormatReadingPayloadStatuses(t *testing.T) {
	statuses := map[dht.Status]string{
		dht.StatusGood:        "GOOD",
		dht.StatusBadChecksum: "BAD_CHECKSUM",
		dht.StatusBadData:     "BAD_DATA",
		dht.StatusTimeout:     "TIMEOUT",
	}
	for status, want := range statuses {
		data, err := FormatReadingPayload(dht.Reading{Status: status})
		if err != nil {
			t.Fatalf("status %v: %v", status, err)
		}
		var parsed Payload
		if err := json.Unmarshal(data, &parsed); err != nil {
			t.Fatalf("status %v: invalid JSON: %v", status, err)
		}
		if parsed.Sensor.Status != want {
			t.Errorf("status %v: got %q, want %q", status, parsed.Sensor.Status, want)
		}
	}
}

func TestFormatSystemPayload(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}

	data, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("FormatSystemPayload: %v", err)
	}

	var parsed SystemPayload
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.System.Event != "SHUTDOWN" {
		t.Errorf("event = %q, want SHUTDOWN", parsed.System.Event)
	}
	if parsed.System.Reason != "SIGTERM" {
		t.Errorf("reason = %q, want SIGTERM", parsed.System.Reason)
	}
	if parsed.System.Timestamp != "2026-01-01T12:00:00Z" {
		t.Errorf("timestamp = %q", parsed.System.Timestamp)
	}
}

func TestFormatSystemPayloadRaw(t *testing.T) {
	raw := []byte(`{"status":{"custom":true}}`)
	data, err := FormatSystemPayload(SystemEvent{Event: "STARTUP", RawPayload: raw})
	if err != nil {
		t.Fatalf("FormatSystemPayload: %v", err)
	}
	if string(data) != string(raw) {
		t.Errorf("expected raw payload returned directly, got %s", data)
	}
}

func TestFakePublisherRecords(t *testing.T) {
	f := NewFakePublisher()

	r := dht.Reading{Status: dht.StatusGood, Temperature: 20, Humidity: 40}
	if err := f.PublishReading(r); err != nil {
		t.Fatalf("PublishReading: %v", err)
	}
	if err := f.PublishSystem(SystemEvent{Event: "STARTUP"}); err != nil {
		t.Fatalf("PublishSystem: %v", err)
	}

	if len(f.Readings) != 1 || len(f.Payloads) != 1 {
		t.Errorf("expected 1 reading recorded, got %d/%d", len(f.Readings), len(f.Payloads))
	}
	if len(f.SystemEvents) != 1 || len(f.SystemPayloads) != 1 {
		t.Errorf("expected 1 system event recorded, got %d/%d", len(f.SystemEvents), len(f.SystemPayloads))
	}

	f.PublishError = errors.New("broker down")
	if err := f.PublishReading(r); err == nil {
		t.Error("expected injected publish error")
	}

	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !f.Closed {
		t.Error("expected Closed after Close")
	}

	f.Reset()
	if len(f.Readings) != 0 || f.Closed {
		t.Error("Reset did not clear state")
	}
}
