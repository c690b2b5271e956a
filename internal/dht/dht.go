// Package dht decodes the single-wire serial protocol spoken by DHT-family
// humidity/temperature sensors (DHT11, DHT21, DHT22, DHT33, DHT44).
// The decoding core is pure: the Decoder consumes rising-edge tick timestamps
// and Interpret turns completed 40-bit frames into readings. Only the Sensor
// type touches hardware, through the gpio.Line abstraction.
package dht

import (
	"fmt"
	"strings"
	"time"
)

// Status classifies the outcome of a single sensor read.
type Status int

const (
	// StatusGood is a checksum-valid reading with in-range values.
	StatusGood Status = iota
	// StatusBadChecksum means 40 bits arrived but the checksum byte mismatched.
	StatusBadChecksum
	// StatusBadData means the checksum matched but decoded values fall outside
	// the physically valid range for the selected model.
	StatusBadData
	// StatusTimeout means no complete frame arrived within the read window.
	StatusTimeout
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusGood:
		return "GOOD"
	case StatusBadChecksum:
		return "BAD_CHECKSUM"
	case StatusBadData:
		return "BAD_DATA"
	case StatusTimeout:
		return "TIMEOUT"
	}
	return "UNKNOWN"
}

// Model selects how the four data bytes of a frame are interpreted.
type Model int

const (
	// ModelAuto tries the DHTXX interpretation first and falls back to DHT11.
	ModelAuto Model = iota
	// ModelDHT11 is the integer encoding used by the DHT11.
	ModelDHT11
	// ModelDHTXX is the scaled sign-and-magnitude encoding used by the
	// DHT21/DHT22/DHT33/DHT44 family.
	ModelDHTXX
)

// String implements fmt.Stringer.
func (m Model) String() string {
	switch m {
	case ModelAuto:
		return "AUTO"
	case ModelDHT11:
		return "DHT11"
	case ModelDHTXX:
		return "DHTXX"
	}
	return "UNKNOWN"
}

// ParseModel converts a configuration string into a Model.
func ParseModel(s string) (Model, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "AUTO":
		return ModelAuto, nil
	case "DHT11":
		return ModelDHT11, nil
	case "DHTXX", "DHT21", "DHT22", "DHT33", "DHT44", "AM2302":
		return ModelDHTXX, nil
	}
	return ModelAuto, fmt.Errorf("unknown sensor model %q", s)
}

// Reading is the terminal output of a triggered sensor read.
// Temperature is degrees Celsius, Humidity is relative percent; both carry
// 0.1 resolution for DHTXX models and whole units for DHT11.
type Reading struct {
	// Time is the wall-clock instant the read was triggered.
	Time        time.Time
	Status      Status
	Temperature float64
	Humidity    float64
}
