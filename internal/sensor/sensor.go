// Package sensor reads host temperatures through an ordered fallback chain
// of external tools. Each probe shells out to one tool and extracts a Celsius
// value from its text output; the first probe that succeeds wins.
package sensor

import (
	"strings"

	"github.com/fatkhur1960/ocypus-digital/internal/errors"
)

// Kind selects which fallback chain a Reader uses.
type Kind int

const (
	KindCPU Kind = iota
	KindGPU
)

func (k Kind) String() string {
	switch k {
	case KindCPU:
		return "cpu"
	case KindGPU:
		return "gpu"
	default:
		return "unknown"
	}
}

// ParseKind parses a configuration sensor name into a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "cpu":
		return KindCPU, nil
	case "gpu":
		return KindGPU, nil
	default:
		return KindCPU, errors.WithData(errors.ErrInvalidSensor, s)
	}
}

// Reader dispatches temperature reads to the fallback chain for a Kind.
type Reader struct {
	cpu Chain
	gpu Chain
}

// NewReader creates a Reader with the default CPU and GPU chains.
func NewReader() *Reader {
	return &Reader{
		cpu: defaultCPUChain(),
		gpu: defaultGPUChain(),
	}
}

// Read returns the first successful Celsius reading from the chain for kind.
func (r *Reader) Read(kind Kind) (float64, error) {
	switch kind {
	case KindCPU:
		return r.cpu.Read()
	case KindGPU:
		return r.gpu.Read()
	default:
		return 0, errors.WithData(errors.ErrInvalidSensor, kind.String())
	}
}

// Available reports whether the chain for kind currently yields a reading.
// Intended for startup diagnostics only; it executes the external tools.
func (r *Reader) Available(kind Kind) bool {
	_, err := r.Read(kind)

	return err == nil
}
