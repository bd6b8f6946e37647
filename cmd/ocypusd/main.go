package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatkhur1960/ocypus-digital/internal/config"
	"github.com/fatkhur1960/ocypus-digital/internal/display"
	"github.com/fatkhur1960/ocypus-digital/internal/logger"
	"github.com/fatkhur1960/ocypus-digital/internal/monitor"
	"github.com/fatkhur1960/ocypus-digital/internal/pid"
	"github.com/fatkhur1960/ocypus-digital/internal/sensor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Debug, cfg.Verbose, logger.IsService(), cfg.LogFile)
	if !cfg.Debug && !cfg.Verbose {
		if err := logger.SetLogLevelByName(cfg.LogLevel); err != nil {
			fmt.Fprintf(os.Stderr, "invalid log level: %v\n", err)
			os.Exit(1)
		}
	}

	if err := pid.Write(); err != nil {
		logger.FatalWithCode(err).Msg("failed to write PID file")
	}
	defer pid.Remove()

	logger.Info().
		Str("unit", cfg.TempUnit.String()).
		Int("interval_s", cfg.Interval).
		Str("sensor", cfg.SensorKind.String()).
		Msg("Config loaded")
	if cfg.Alerts {
		logger.Info().
			Float64("high", cfg.HighThreshold).
			Float64("low", cfg.LowThreshold).
			Msg("Temperature alerts enabled")
	}

	dev, err := display.Open()
	if err != nil {
		logger.ErrorWithCode(err).Msg("failed to connect to device")
		pid.Remove()
		os.Exit(1)
	}
	defer dev.Close()

	reader := sensor.NewReader()
	if !reader.Available(cfg.SensorKind) {
		logger.Warn().
			Str("sensor", cfg.SensorKind.String()).
			Msg("sensor yielded no reading on first attempt; polling will keep retrying")
	}

	mon := monitor.New(monitor.Config{
		Unit:          cfg.TempUnit,
		Sensor:        cfg.SensorKind,
		Interval:      cfg.PollInterval(),
		HighThreshold: cfg.HighThreshold,
		LowThreshold:  cfg.LowThreshold,
		Alerts:        cfg.Alerts,
	}, reader, dev)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	if err := mon.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("error in monitor loop")
	}

	logger.Info().Msg("Exiting...")
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}
