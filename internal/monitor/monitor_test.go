package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fatkhur1960/ocypus-digital/internal/display"
	"github.com/fatkhur1960/ocypus-digital/internal/errors"
	"github.com/fatkhur1960/ocypus-digital/internal/sensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedReader struct {
	mu    sync.Mutex
	temps []float64
	next  int
}

func (r *scriptedReader) Read(sensor.Kind) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.next >= len(r.temps) {
		return 0, errors.New(sensor.ErrChainExhausted)
	}

	temp := r.temps[r.next]
	r.next++

	return temp, nil
}

type recordingSender struct {
	mu         sync.Mutex
	reports    [][display.ReportLength]byte
	sendErrs   []error
	reconErr   error
	reconnects int
	sent       chan struct{}
}

func (s *recordingSender) Send(report [display.ReportLength]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.sendErrs) > 0 {
		err := s.sendErrs[0]
		s.sendErrs = s.sendErrs[1:]
		if err != nil {
			return err
		}
	}

	s.reports = append(s.reports, report)
	if s.sent != nil {
		s.sent <- struct{}{}
	}

	return nil
}

func (s *recordingSender) Reconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconnects++

	return s.reconErr
}

func (s *recordingSender) recorded() [][display.ReportLength]byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([][display.ReportLength]byte(nil), s.reports...)
}

func testConfig() Config {
	return Config{
		Unit:          display.Celsius,
		Sensor:        sensor.KindCPU,
		Interval:      5 * time.Millisecond,
		HighThreshold: 80,
		LowThreshold:  20,
		Alerts:        true,
	}
}

func TestEvaluateThresholds(t *testing.T) {
	cfg := testConfig()

	assert.Equal(t, AlertHigh, EvaluateThresholds(85, cfg))
	assert.Equal(t, AlertLow, EvaluateThresholds(15, cfg))
	assert.Equal(t, AlertNone, EvaluateThresholds(50, cfg))

	// Boundary values raise nothing: the comparison is strict.
	assert.Equal(t, AlertNone, EvaluateThresholds(80, cfg))
	assert.Equal(t, AlertNone, EvaluateThresholds(20, cfg))

	cfg.Alerts = false
	assert.Equal(t, AlertNone, EvaluateThresholds(85, cfg))
	assert.Equal(t, AlertNone, EvaluateThresholds(15, cfg))
}

func TestRunInvalidInterval(t *testing.T) {
	cfg := testConfig()
	cfg.Interval = 0

	m := New(cfg, &scriptedReader{}, &recordingSender{})
	err := m.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrInvalidInterval))
}

func TestRunEndToEnd(t *testing.T) {
	reader := &scriptedReader{temps: []float64{70, 90, 10}}
	sender := &recordingSender{sent: make(chan struct{}, 8)}

	var (
		alertMu sync.Mutex
		alerts  []Alert
	)

	m := New(testConfig(), reader, sender)
	m.onAlert = func(a Alert, _ float64) {
		alertMu.Lock()
		defer alertMu.Unlock()
		alerts = append(alerts, a)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, m.Run(ctx))
	}()

	for i := 0; i < 3; i++ {
		select {
		case <-sender.sent:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for report %d", i+1)
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop after cancellation")
	}

	reports := sender.recorded()
	require.Len(t, reports, 3)
	assert.Equal(t, [3]byte{0, 7, 0}, [3]byte{reports[0][3], reports[0][4], reports[0][5]})
	assert.Equal(t, [3]byte{0, 9, 0}, [3]byte{reports[1][3], reports[1][4], reports[1][5]})
	assert.Equal(t, [3]byte{0, 1, 0}, [3]byte{reports[2][3], reports[2][4], reports[2][5]})

	alertMu.Lock()
	defer alertMu.Unlock()
	require.Len(t, alerts, 3)
	assert.Equal(t, []Alert{AlertNone, AlertHigh, AlertLow}, alerts)
}

func TestDeliverRetriesOnceAfterReconnect(t *testing.T) {
	sender := &recordingSender{
		sendErrs: []error{errors.New(display.ErrDeviceWrite)},
	}

	m := New(testConfig(), &scriptedReader{}, sender)
	m.deliver(context.Background(), 25)

	assert.Equal(t, 1, sender.reconnects)
	require.Len(t, sender.recorded(), 1, "retry after reconnect must deliver the same report")
}

func TestDeliverDropsReportWhenRetryFails(t *testing.T) {
	sender := &recordingSender{
		sendErrs: []error{
			errors.New(display.ErrDeviceWrite),
			errors.New(display.ErrDeviceWrite),
		},
	}

	m := New(testConfig(), &scriptedReader{}, sender)
	m.deliver(context.Background(), 25)

	assert.Equal(t, 1, sender.reconnects)
	assert.Empty(t, sender.recorded(), "a report that fails the retry is dropped")
}

func TestDeliverBacksOffWhenReconnectFails(t *testing.T) {
	sender := &recordingSender{
		sendErrs: []error{errors.New(display.ErrDeviceWrite)},
		reconErr: errors.New(display.ErrDeviceNotFound),
	}

	m := New(testConfig(), &scriptedReader{}, sender)
	m.backoff = time.Millisecond

	start := time.Now()
	m.deliver(context.Background(), 25)

	assert.Equal(t, 1, sender.reconnects)
	assert.Empty(t, sender.recorded())
	assert.GreaterOrEqual(t, time.Since(start), time.Millisecond)
}

func TestDeliverBackoffHonorsCancellation(t *testing.T) {
	sender := &recordingSender{
		sendErrs: []error{errors.New(display.ErrDeviceWrite)},
		reconErr: errors.New(display.ErrDeviceNotFound),
	}

	m := New(testConfig(), &scriptedReader{}, sender)
	m.backoff = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		m.deliver(ctx, 25)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("backoff sleep ignored context cancellation")
	}
}
