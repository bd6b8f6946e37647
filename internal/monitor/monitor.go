// Package monitor runs the polling/display pipeline: a producer goroutine
// polls the sensor chain on a fixed interval and a consumer encodes each
// reading and writes it to the device, reconnecting on failure.
package monitor

import (
	"context"
	"time"

	"github.com/fatkhur1960/ocypus-digital/internal/display"
	"github.com/fatkhur1960/ocypus-digital/internal/errors"
	"github.com/fatkhur1960/ocypus-digital/internal/logger"
	"github.com/fatkhur1960/ocypus-digital/internal/sensor"
)

const (
	// reconnectBackoff is the fixed sleep after a failed reconnect before the
	// consumer moves on to the next cycle. Not exponential, not jittered.
	reconnectBackoff = 5 * time.Second

	// readingBuffer decouples the producer from a consumer that is stuck in
	// reconnect backoff. Delivery order is preserved either way.
	readingBuffer = 16
)

// Config holds the validated monitoring parameters. Invariants
// (interval > 0, high > low) are enforced at configuration load time.
type Config struct {
	Unit          display.Unit
	Sensor        sensor.Kind
	Interval      time.Duration
	HighThreshold float64
	LowThreshold  float64
	Alerts        bool
}

// Alert classifies one threshold evaluation.
type Alert int

const (
	AlertNone Alert = iota
	AlertHigh
	AlertLow
)

// EvaluateThresholds compares a raw Celsius reading (never the converted
// display value) against the configured thresholds. Each tick is evaluated
// independently; there is no hysteresis and no alert deduplication.
func EvaluateThresholds(tempCelsius float64, cfg Config) Alert {
	if !cfg.Alerts {
		return AlertNone
	}

	if tempCelsius > cfg.HighThreshold {
		return AlertHigh
	}
	if tempCelsius < cfg.LowThreshold {
		return AlertLow
	}

	return AlertNone
}

// TemperatureReader yields Celsius readings for a sensor kind.
type TemperatureReader interface {
	Read(kind sensor.Kind) (float64, error)
}

// ReportSender owns the device handle and delivers encoded reports.
type ReportSender interface {
	Send(report [display.ReportLength]byte) error
	Reconnect() error
}

// Monitor couples a sensor reader with a report sender.
type Monitor struct {
	cfg     Config
	reader  TemperatureReader
	sender  ReportSender
	backoff time.Duration
	onAlert func(Alert, float64)
}

// New creates a Monitor for the given configuration and collaborators.
func New(cfg Config, reader TemperatureReader, sender ReportSender) *Monitor {
	return &Monitor{
		cfg:     cfg,
		reader:  reader,
		sender:  sender,
		backoff: reconnectBackoff,
	}
}

// Run polls and forwards readings until ctx is cancelled. The producer
// goroutine closes the reading channel on exit, which also ends the consumer.
func (m *Monitor) Run(ctx context.Context) error {
	if m.cfg.Interval <= 0 {
		return errors.WithData(errors.ErrInvalidInterval, m.cfg.Interval)
	}

	readings := make(chan float64, readingBuffer)
	go m.poll(ctx, readings)

	m.consume(ctx, readings)

	return nil
}

func (m *Monitor) poll(ctx context.Context, readings chan<- float64) {
	defer close(readings)

	logger.Info().
		Str("sensor", m.cfg.Sensor.String()).
		Dur("interval", m.cfg.Interval).
		Msg("Starting temperature monitoring")

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			temp, err := m.reader.Read(m.cfg.Sensor)
			if err != nil {
				// A fully failed chain skips this cycle; monitoring continues.
				logger.Warn().Err(err).Msg("failed to read temperature")
				continue
			}

			m.raise(EvaluateThresholds(temp, m.cfg), temp)

			select {
			case readings <- temp:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (m *Monitor) raise(alert Alert, tempCelsius float64) {
	if m.onAlert != nil {
		m.onAlert(alert, tempCelsius)
	}

	switch alert {
	case AlertHigh:
		logger.Warn().
			Float64("temperature", tempCelsius).
			Float64("threshold", m.cfg.HighThreshold).
			Msg("High temperature alert")
	case AlertLow:
		logger.Warn().
			Float64("temperature", tempCelsius).
			Float64("threshold", m.cfg.LowThreshold).
			Msg("Low temperature alert")
	case AlertNone:
	}
}

func (m *Monitor) consume(ctx context.Context, readings <-chan float64) {
	for {
		select {
		case <-ctx.Done():
			return
		case temp, ok := <-readings:
			if !ok {
				return
			}
			m.deliver(ctx, temp)
		}
	}
}

// deliver encodes and sends one reading. A failed send triggers one
// reconnect-and-retry; a failed retry drops the report, and a failed
// reconnect backs off before the next cycle. Reports are never queued across
// reconnects.
func (m *Monitor) deliver(ctx context.Context, tempCelsius float64) {
	report := display.EncodeReport(tempCelsius, m.cfg.Unit)

	err := m.sender.Send(report)
	if err == nil {
		m.logSent(tempCelsius)
		return
	}

	logger.Error().Err(err).Msg("device communication error")

	if rerr := m.sender.Reconnect(); rerr != nil {
		logger.Error().Err(rerr).Msg("reconnection failed")
		m.sleep(ctx, m.backoff)
		return
	}

	logger.Info().Msg("Successfully reconnected to device")

	if err := m.sender.Send(report); err != nil {
		logger.Warn().Err(err).Msg("retry failed, dropping report")
		return
	}
	m.logSent(tempCelsius)
}

func (m *Monitor) logSent(tempCelsius float64) {
	logger.Info().
		Str("unit", m.cfg.Unit.String()).
		Float64("temperature", display.Convert(tempCelsius, m.cfg.Unit)).
		Msg("Temperature sent")
}

func (m *Monitor) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
