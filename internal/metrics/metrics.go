// Package metrics exposes the exporter's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/expodht/dht-exporter/internal/dht"
)

// Metrics holds the collectors updated on every sensor read.
type Metrics struct {
	Temperature prometheus.Gauge
	Humidity    prometheus.Gauge
	Readings    *prometheus.CounterVec
	LastGood    prometheus.Gauge
}

// New registers the exporter's collectors with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Temperature: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dht_temperature_celsius",
			Help: "Temperature (Celsius) as read by the sensor.",
		}),
		Humidity: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dht_humidity_percent",
			Help: "Relative humidity as read by the sensor.",
		}),
		Readings: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dht_readings_total",
			Help: "Sensor read attempts by decode status.",
		}, []string{"status"}),
		LastGood: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dht_last_good_reading_timestamp_seconds",
			Help: "Unix timestamp of the last good reading.",
		}),
	}
}

// Observe records one completed read. Temperature and humidity gauges are
// only moved on good readings so a flaky sensor holds its last known values.
func (m *Metrics) Observe(r dht.Reading) {
	m.Readings.WithLabelValues(r.Status.String()).Inc()
	if r.Status != dht.StatusGood {
		return
	}
	m.Temperature.Set(r.Temperature)
	m.Humidity.Set(r.Humidity)
	m.LastGood.Set(float64(r.Time.Unix()))
}
