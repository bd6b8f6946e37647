package sensor

import "github.com/fatkhur1960/ocypus-digital/internal/errors"

const (
	// Probe errors
	ErrUnavailable   = errors.ErrorCode("sensor_unavailable")
	ErrCommandFailed = errors.ErrorCode("sensor_command_failed")
	ErrNoMatch       = errors.ErrorCode("sensor_no_match")
	ErrParseFailed   = errors.ErrorCode("temperature_parse_failed")

	// Chain errors
	ErrChainExhausted = errors.ErrorCode("sensor_chain_exhausted")
)
