// Package display encodes temperature reports for the Ocypus Iota digital
// display and owns the USB channel that delivers them.
package display

import (
	"math"
	"strings"

	"github.com/fatkhur1960/ocypus-digital/internal/errors"
)

// USB identity and report framing of the Ocypus Iota display family.
const (
	VendorID     = 0x1a2c
	ProductID    = 0x434d
	ReportID     = 0x07
	ReportLength = 64
)

// maxDisplayValue is the ceiling of the three-digit readout. Older firmware
// variants clamp Celsius input to 0-99 before conversion and the result to
// 0-212 with 0xff marker bytes at offsets 1-2; this implementation targets
// the richer 0-999 layout without markers.
const maxDisplayValue = 999

// Unit selects the display conversion; measurement stays Celsius throughout.
type Unit int

const (
	Celsius Unit = iota
	Fahrenheit
)

func (u Unit) String() string {
	if u == Fahrenheit {
		return "F"
	}

	return "C"
}

// ParseUnit parses a configuration unit selector ("c" or "f") into a Unit.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(s) {
	case "c":
		return Celsius, nil
	case "f":
		return Fahrenheit, nil
	default:
		return Celsius, errors.WithData(errors.ErrInvalidUnit, s)
	}
}

// Convert converts a Celsius value into the display unit.
func Convert(tempCelsius float64, unit Unit) float64 {
	if unit == Fahrenheit {
		return tempCelsius*9.0/5.0 + 32.0
	}

	return tempCelsius
}

// EncodeReport builds the fixed 64-byte report for one temperature value.
// The converted display value is clamped to [0, maxDisplayValue], truncated,
// and split into decimal digits at offsets 3/4/5; byte 0 carries the report
// id and every other byte stays zero. Out-of-range and non-finite input is
// absorbed by the clamp, so encoding never fails.
func EncodeReport(tempCelsius float64, unit Unit) [ReportLength]byte {
	var report [ReportLength]byte
	report[0] = ReportID

	value := Convert(tempCelsius, unit)
	if math.IsNaN(value) || value < 0 {
		value = 0
	} else if value > maxDisplayValue {
		value = maxDisplayValue
	}
	display := int(value)

	report[3] = byte(display / 100)
	report[4] = byte(display / 10 % 10)
	report[5] = byte(display % 10)

	return report
}
