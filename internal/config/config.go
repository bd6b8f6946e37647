package config

import (
	"os"
	"time"

	"github.com/fatkhur1960/ocypus-digital/internal/display"
	"github.com/fatkhur1960/ocypus-digital/internal/errors"
	"github.com/fatkhur1960/ocypus-digital/internal/logger"
	"github.com/fatkhur1960/ocypus-digital/internal/sensor"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultUnit          = "c"
	DefaultInterval      = 1
	DefaultHighThreshold = 80.0
	DefaultLowThreshold  = 20.0
	DefaultSensor        = "cpu"
	DefaultLogLevel      = "info"

	configEnvVar = "OCYPUSD_CONFIG"
)

type Config struct {
	Unit          string  `mapstructure:"unit"`
	Interval      int     `mapstructure:"interval"`
	HighThreshold float64 `mapstructure:"high-threshold"`
	LowThreshold  float64 `mapstructure:"low-threshold"`
	Alerts        bool    `mapstructure:"alerts"`
	Sensor        string  `mapstructure:"sensor"`
	LogLevel      string  `mapstructure:"log-level"`
	LogFile       string  `mapstructure:"log-file"`
	Debug         bool    `mapstructure:"debug"`
	Verbose       bool    `mapstructure:"verbose"`

	// Resolved during validation.
	TempUnit   display.Unit `mapstructure:"-"`
	SensorKind sensor.Kind  `mapstructure:"-"`
}

// Load merges command line flags over an optional TOML configuration file
// and validates the result. The file is taken from --config or the
// OCYPUSD_CONFIG environment variable, falling back to an ocypusd.toml
// search in /etc and the working directory.
func Load() (*Config, error) {
	fs := pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)
	configFile := fs.StringP("config", "C", "", "Configuration file path")
	fs.StringP("unit", "u", DefaultUnit, "Temperature unit: 'c' for Celsius, 'f' for Fahrenheit")
	fs.IntP("interval", "i", DefaultInterval, "Temperature update interval in seconds")
	fs.Float64("high-threshold", DefaultHighThreshold, "High temperature threshold for alerts (Celsius)")
	fs.Float64("low-threshold", DefaultLowThreshold, "Low temperature threshold for alerts (Celsius)")
	fs.Bool("alerts", false, "Enable temperature threshold alerts")
	fs.StringP("sensor", "s", DefaultSensor, "Temperature sensor to use ('cpu', 'gpu')")
	fs.StringP("log-level", "l", DefaultLogLevel, "Log level (debug, info, warn, error)")
	fs.String("log-file", "", "Rotated log file path (empty disables file logging)")
	fs.Bool("debug", false, "Enable debugging mode")
	fs.Bool("verbose", false, "Enable verbose logging")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfig, err)
	}

	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfig, err)
	}

	path := *configFile
	if path == "" {
		path = os.Getenv(configEnvVar)
	}

	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			// Seed an explicitly requested but missing file with defaults.
			if werr := v.SafeWriteConfigAs(path); werr != nil {
				logger.Warn().Err(werr).Str("path", path).Msg("failed to create default config file")
			} else {
				logger.Info().Str("path", path).Msg("Created default config file")
			}
		}
		v.SetConfigFile(path)
		v.SetConfigType("toml")
	} else {
		v.SetConfigName("ocypusd")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrReadConfig, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration invariants and resolves the raw unit and
// sensor selectors into their typed forms. Violations surface here, once, at
// startup; never at runtime.
func (c *Config) Validate() error {
	unit, err := display.ParseUnit(c.Unit)
	if err != nil {
		return err
	}
	c.TempUnit = unit

	kind, err := sensor.ParseKind(c.Sensor)
	if err != nil {
		return err
	}
	c.SensorKind = kind

	if c.Interval <= 0 {
		return errors.WithData(errors.ErrInvalidInterval, c.Interval)
	}

	if c.HighThreshold <= c.LowThreshold {
		return errors.WithMessage(errors.ErrInvalidThresholds,
			"high threshold must be greater than low threshold")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return errors.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	return nil
}

// PollInterval returns the polling interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Interval) * time.Second
}
