package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatkhur1960/ocypus-digital/internal/config"
	"github.com/fatkhur1960/ocypus-digital/internal/display"
	apperrors "github.com/fatkhur1960/ocypus-digital/internal/errors"
	"github.com/fatkhur1960/ocypus-digital/internal/sensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setArgs replaces os.Args for the duration of a test so the flag set does
// not see the go test arguments.
func setArgs(t *testing.T, args ...string) {
	t.Helper()
	oldArgs := os.Args
	os.Args = append([]string{"ocypusd"}, args...)
	t.Cleanup(func() { os.Args = oldArgs })
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ocypusd.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadFromFile(t *testing.T) {
	setArgs(t)
	path := writeConfig(t, `
unit = "f"
interval = 5
high-threshold = 75.0
low-threshold = 10.0
alerts = true
sensor = "gpu"
log-level = "debug"
`)
	t.Setenv("OCYPUSD_CONFIG", path)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "f", cfg.Unit)
	assert.Equal(t, display.Fahrenheit, cfg.TempUnit)
	assert.Equal(t, 5, cfg.Interval)
	assert.Equal(t, 5*time.Second, cfg.PollInterval())
	assert.InDelta(t, 75.0, cfg.HighThreshold, 0.001)
	assert.InDelta(t, 10.0, cfg.LowThreshold, 0.001)
	assert.True(t, cfg.Alerts)
	assert.Equal(t, sensor.KindGPU, cfg.SensorKind)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadDefaults(t *testing.T) {
	setArgs(t)
	t.Setenv("OCYPUSD_CONFIG", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.DefaultUnit, cfg.Unit)
	assert.Equal(t, display.Celsius, cfg.TempUnit)
	assert.Equal(t, config.DefaultInterval, cfg.Interval)
	assert.InDelta(t, config.DefaultHighThreshold, cfg.HighThreshold, 0.001)
	assert.InDelta(t, config.DefaultLowThreshold, cfg.LowThreshold, 0.001)
	assert.False(t, cfg.Alerts)
	assert.Equal(t, sensor.KindCPU, cfg.SensorKind)
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
}

func TestFlagsOverrideFile(t *testing.T) {
	setArgs(t, "--unit", "f", "--interval", "3")
	path := writeConfig(t, `
unit = "c"
interval = 10
`)
	t.Setenv("OCYPUSD_CONFIG", path)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, display.Fahrenheit, cfg.TempUnit)
	assert.Equal(t, 3, cfg.Interval)
}

func TestInvalidThresholdOrdering(t *testing.T) {
	setArgs(t)
	path := writeConfig(t, `
high-threshold = 10.0
low-threshold = 20.0
`)
	t.Setenv("OCYPUSD_CONFIG", path)

	_, err := config.Load()
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrInvalidThresholds))
}

func TestZeroIntervalRejected(t *testing.T) {
	setArgs(t, "--interval", "0")
	t.Setenv("OCYPUSD_CONFIG", "")

	_, err := config.Load()
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrInvalidInterval))
}

func TestInvalidUnitRejected(t *testing.T) {
	setArgs(t, "--unit", "x")
	t.Setenv("OCYPUSD_CONFIG", "")

	_, err := config.Load()
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrInvalidUnit))
}

func TestInvalidSensorRejected(t *testing.T) {
	setArgs(t, "--sensor", "disk")
	t.Setenv("OCYPUSD_CONFIG", "")

	_, err := config.Load()
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrInvalidSensor))
}

func TestInvalidLogLevelRejected(t *testing.T) {
	setArgs(t, "--log-level", "noisy")
	t.Setenv("OCYPUSD_CONFIG", "")

	_, err := config.Load()
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrInvalidLogLevel))
}

func TestInvalidConfigFileFormat(t *testing.T) {
	setArgs(t)
	path := writeConfig(t, "This is not a valid TOML file\n")
	t.Setenv("OCYPUSD_CONFIG", path)

	_, err := config.Load()
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrReadConfig))
}

func TestSeedsMissingExplicitConfigFile(t *testing.T) {
	setArgs(t)
	path := filepath.Join(t.TempDir(), "ocypusd.toml")
	t.Setenv("OCYPUSD_CONFIG", path)

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.DefaultInterval, cfg.Interval)

	_, err = os.Stat(path)
	assert.NoError(t, err, "a missing explicit config file is seeded with defaults")
}
