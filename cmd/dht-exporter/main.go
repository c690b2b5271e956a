// Command dht-exporter reads a DHT-family humidity/temperature sensor on a
// GPIO line and republishes readings as Prometheus gauges and MQTT messages.
package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/expodht/dht-exporter/internal/dht"
	"github.com/expodht/dht-exporter/internal/gpio"
	"github.com/expodht/dht-exporter/internal/metrics"
	"github.com/expodht/dht-exporter/internal/mqtt"
	"github.com/expodht/dht-exporter/internal/status"
	"github.com/expodht/dht-exporter/internal/web"
)

type config struct {
	chip     string
	pin      int
	model    string
	interval time.Duration
	timeout  time.Duration
	httpAddr string
	broker   string
	dummy    bool
}

// parseConfig builds the daemon configuration from flags, with environment
// variables as defaults (flags take precedence).
func parseConfig(args []string, getenv func(string) string) (config, error) {
	fs := pflag.NewFlagSet("dht-exporter", pflag.ContinueOnError)

	chip := fs.String("chip", gpio.DefaultChip, "GPIO character device name")
	pin := fs.Int("pin", gpio.DefaultPin, "BCM pin number of the sensor data line")
	model := fs.String("model", "auto", "Sensor model: auto, dht11 or dhtxx")
	interval := fs.Duration("interval", 10*time.Second, "Sensor polling interval")
	timeout := fs.Duration("timeout", dht.DefaultReadTimeout, "Per-read timeout")
	httpAddr := fs.String("http", ":9200", "HTTP listen address (empty to disable)")
	broker := fs.String("broker", "", "MQTT broker address (empty to disable)")
	dummy := fs.Bool("dummy", false, "Publish random readings without touching hardware")

	setFromEnv := func(name, env string) error {
		if v := getenv(env); v != "" {
			if err := fs.Set(name, v); err != nil {
				return fmt.Errorf("%s=%q: %w", env, v, err)
			}
		}
		return nil
	}
	if err := setFromEnv("chip", "GPIO_CHIP"); err != nil {
		return config{}, err
	}
	if err := setFromEnv("pin", "GPIO_PIN"); err != nil {
		return config{}, err
	}
	if err := setFromEnv("model", "DHT_MODEL"); err != nil {
		return config{}, err
	}
	if v := getenv("INTERVAL_SECONDS"); v != "" {
		if err := fs.Set("interval", v+"s"); err != nil {
			return config{}, fmt.Errorf("INTERVAL_SECONDS=%q: %w", v, err)
		}
	}
	if err := setFromEnv("http", "HTTP_ADDR"); err != nil {
		return config{}, err
	}
	if err := setFromEnv("broker", "MQTT_BROKER"); err != nil {
		return config{}, err
	}
	if getenv("DUMMY_MODE") != "" {
		fs.Set("dummy", "true")
	}

	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	return config{
		chip:     *chip,
		pin:      *pin,
		model:    *model,
		interval: *interval,
		timeout:  *timeout,
		httpAddr: *httpAddr,
		broker:   *broker,
		dummy:    *dummy,
	}, nil
}

func main() {
	cfg, err := parseConfig(os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("fatal", zap.Error(err))
	}
}

func run(cfg config, logger *zap.Logger) error {
	model, err := dht.ParseModel(cfg.model)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	tracker := status.NewTracker(time.Now(), status.Config{
		Pin:        cfg.pin,
		Model:      model.String(),
		IntervalMs: cfg.interval.Milliseconds(),
		TimeoutMs:  cfg.timeout.Milliseconds(),
		Broker:     cfg.broker,
		HTTPAddr:   cfg.httpAddr,
	})

	// Pick the read source: real sensor or dummy generator.
	var readSensor func(context.Context) (dht.Reading, error)
	if cfg.dummy {
		logger.Info("running in dummy mode, publishing random readings",
			zap.Duration("interval", cfg.interval))
		readSensor = dummyRead
	} else {
		line, err := gpio.NewRealLine(cfg.chip, cfg.pin)
		if err != nil {
			return fmt.Errorf("init gpio: %w", err)
		}
		defer line.Close()

		sensor := dht.NewSensor(line,
			dht.WithModel(model),
			dht.WithLogger(logger),
			dht.WithReadTimeout(cfg.timeout))
		detach, err := sensor.Attach()
		if err != nil {
			return fmt.Errorf("attach decoder: %w", err)
		}
		defer detach()
		readSensor = sensor.Read

		logger.Info("sensor attached",
			zap.String("chip", cfg.chip),
			zap.Int("pin", cfg.pin),
			zap.String("model", model.String()))
	}

	// Initialize MQTT if configured.
	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	if cfg.broker != "" {
		real := mqtt.NewRealPublisher(cfg.broker, "dht-exporter", logger)
		defer real.Close()
		publisher = real
		mqttStatus = real

		snap := tracker.Snapshot()
		startup := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
		}
		if err := publisher.PublishSystem(startup); err != nil {
			logger.Warn("failed to publish startup event", zap.Error(err))
		}
	}

	// Start HTTP status/metrics server.
	if cfg.httpAddr != "" {
		srv := web.New(cfg.httpAddr, tracker, reg)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("http server error", zap.Error(err))
			}
		}()
		defer srv.Shutdown(context.Background())
		logger.Info("http server listening", zap.String("addr", cfg.httpAddr))
	}

	ticker := time.NewTicker(cfg.interval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(readSensor, publisher, mqttStatus, tracker, m, logger, ticker.C, sigCh)
}

func runLoop(read func(context.Context) (dht.Reading, error), publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, m *metrics.Metrics, logger *zap.Logger, tick <-chan time.Time, sig <-chan os.Signal) error {
	ctx := context.Background()

	poll := func() {
		r, err := read(ctx)
		if err != nil {
			logger.Error("sensor read failed", zap.Error(err))
			return
		}

		logger.Info("reading",
			zap.String("status", r.Status.String()),
			zap.Float64("temperature", r.Temperature),
			zap.Float64("humidity", r.Humidity))

		m.Observe(r)
		tracker.Record(r)
		if mqttStatus != nil {
			tracker.SetMQTTConnected(mqttStatus.IsConnected())
		}
		if publisher != nil {
			if err := publisher.PublishReading(r); err != nil {
				// Don't crash on publish failure
				logger.Error("publish error", zap.Error(err))
			}
		}
	}

	poll()

	for {
		select {
		case s := <-sig:
			logger.Info("shutting down", zap.String("signal", s.String()))
			if publisher != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event := mqtt.SystemEvent{
					Timestamp:  snap.Now,
					Event:      "SHUTDOWN",
					Reason:     signalName(s),
					Retained:   true,
					RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", signalName(s)),
				}
				if err := publisher.PublishSystem(event); err != nil {
					logger.Warn("failed to publish shutdown event", zap.Error(err))
				}
			}
			return nil

		case <-tick:
			poll()
		}
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

// dummyRead mimics a sensor without hardware, for development machines.
func dummyRead(context.Context) (dht.Reading, error) {
	return dht.Reading{
		Time:        time.Now(),
		Status:      dht.StatusGood,
		Temperature: roundTo(15+rand.Float64()*15, 2),
		Humidity:    roundTo(15+rand.Float64()*15, 2),
	}, nil
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
