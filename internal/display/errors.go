package display

import "github.com/fatkhur1960/ocypus-digital/internal/errors"

const (
	// Connection errors
	ErrDeviceNotFound     = errors.ErrorCode("device_not_found")
	ErrDeviceOpen         = errors.ErrorCode("device_open_failed")
	ErrDeviceNotConnected = errors.ErrorCode("device_not_connected")

	// I/O errors
	ErrDeviceWrite = errors.ErrorCode("device_write_failed")
)
