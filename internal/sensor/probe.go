package sensor

import (
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/fatkhur1960/ocypus-digital/internal/errors"
	"github.com/fatkhur1960/ocypus-digital/internal/logger"
	"github.com/shirou/gopsutil/v3/host"
)

// Probe queries one external temperature source. Attempt re-executes the
// underlying tool on every call; probes never cache output.
type Probe interface {
	Name() string
	Attempt() (float64, error)
}

// Chain is an ordered list of probes tried until the first success.
type Chain []Probe

// Read returns the value of the first probe that succeeds. A probe failure
// (missing binary, non-zero exit, unparsable output) advances the chain; an
// exhausted chain reports a typed error, never a synthetic value.
func (c Chain) Read() (float64, error) {
	for _, p := range c {
		temp, err := p.Attempt()
		if err != nil {
			logger.Debug().Str("probe", p.Name()).Err(err).Msg("probe failed, trying next")
			continue
		}

		logger.Debug().Str("probe", p.Name()).Float64("temperature", temp).Msg("probe succeeded")

		return temp, nil
	}

	return 0, errors.New(ErrChainExhausted)
}

func defaultCPUChain() Chain {
	return Chain{
		&labelProbe{name: "coretemp-package", pattern: rePackageID},
		&labelProbe{name: "k10temp-tdie", pattern: reTdie},
		&labelProbe{name: "k10temp-tctl", pattern: reTctl},
		&labelProbe{name: "sensors-temp1", pattern: reTemp1},
		hostSensorsProbe{},
	}
}

func defaultGPUChain() Chain {
	return Chain{
		nvidiaSMIProbe{},
		amdSMIProbe{},
		rocmSMIProbe{},
		sensorsGPUProbe{},
	}
}

// runCommand executes an external tool and returns its standard output.
func runCommand(name string, args ...string) (string, error) {
	out, err := exec.Command(name, args...).Output()
	if err != nil {
		return "", errors.Wrap(ErrCommandFailed, err).WithMessage(name + " failed")
	}

	return string(out), nil
}

func parseTemp(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Wrap(ErrParseFailed, err).WithData(s)
	}

	return v, nil
}

// ExtractNumber scans s left to right and returns the first numeric run:
// digits plus at most one embedded decimal point after a digit has been seen.
// It tolerates leading prose and trailing units; false when no digit exists.
func ExtractNumber(s string) (string, bool) {
	var buf strings.Builder
	seenDigit := false

	for _, c := range s {
		if (c >= '0' && c <= '9') || (c == '.' && seenDigit) {
			buf.WriteRune(c)
			seenDigit = true
		} else if seenDigit {
			break
		}
	}

	if !seenDigit {
		return "", false
	}

	return buf.String(), true
}

// CPU sensor labels as printed by lm-sensors, e.g. "Package id 0:  +48.0°C".
var (
	rePackageID = regexp.MustCompile(`Package id 0:\s*\+([0-9]+(?:\.[0-9]+)?)°C`) // Intel package sensor
	reTdie      = regexp.MustCompile(`Tdie:\s*\+([0-9]+(?:\.[0-9]+)?)°C`)         // AMD die temp
	reTctl      = regexp.MustCompile(`Tctl:\s*\+([0-9]+(?:\.[0-9]+)?)°C`)         // AMD control temp
	reTemp1     = regexp.MustCompile(`temp1:\s*\+([0-9]+(?:\.[0-9]+)?)°C`)        // generic fallback
)

// labelProbe matches one labelled line of `sensors` output.
type labelProbe struct {
	name    string
	pattern *regexp.Regexp
}

func (p *labelProbe) Name() string { return p.name }

func (p *labelProbe) Attempt() (float64, error) {
	out, err := runCommand("sensors")
	if err != nil {
		return 0, err
	}

	m := p.pattern.FindStringSubmatch(out)
	if m == nil {
		return 0, errors.WithData(ErrNoMatch, p.name)
	}

	return parseTemp(m[1])
}

// hostSensorsProbe is the last CPU fallback: the kernel hwmon view exposed
// through gopsutil, for hosts without lm-sensors installed.
type hostSensorsProbe struct{}

func (hostSensorsProbe) Name() string { return "host-sensors" }

func (hostSensorsProbe) Attempt() (float64, error) {
	stats, err := host.SensorsTemperatures()
	if err != nil {
		return 0, errors.Wrap(ErrUnavailable, err)
	}

	for _, s := range stats {
		key := strings.ToLower(s.SensorKey)
		if strings.Contains(key, "coretemp") || strings.Contains(key, "k10temp") ||
			strings.Contains(key, "cpu_thermal") || strings.Contains(key, "package") {
			if s.Temperature > 0 {
				return s.Temperature, nil
			}
		}
	}

	return 0, errors.WithData(ErrNoMatch, "host-sensors")
}

// nvidiaSMIProbe queries nvidia-smi for a bare numeric GPU temperature.
type nvidiaSMIProbe struct{}

func (nvidiaSMIProbe) Name() string { return "nvidia-smi" }

func (nvidiaSMIProbe) Attempt() (float64, error) {
	out, err := runCommand("nvidia-smi",
		"--query-gpu=temperature.gpu",
		"--format=csv,noheader,nounits")
	if err != nil {
		return 0, err
	}

	line, _, _ := strings.Cut(out, "\n")
	line = strings.TrimSpace(line)
	if line == "" {
		return 0, errors.WithData(ErrNoMatch, "nvidia-smi")
	}

	return parseTemp(line)
}

// amdSMIProbe scans amd-smi metric output for the edge temperature line.
type amdSMIProbe struct{}

func (amdSMIProbe) Name() string { return "amd-smi" }

func (amdSMIProbe) Attempt() (float64, error) {
	out, err := runCommand("amd-smi", "metric", "--temperature")
	if err != nil {
		return 0, err
	}

	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(strings.ToLower(line), "edge") {
			continue
		}
		if num, ok := ExtractNumber(line); ok {
			return parseTemp(num)
		}
	}

	return 0, errors.WithData(ErrNoMatch, "amd-smi")
}

// rocmSMIProbe takes the first numeric run from legacy rocm-smi output.
type rocmSMIProbe struct{}

func (rocmSMIProbe) Name() string { return "rocm-smi" }

func (rocmSMIProbe) Attempt() (float64, error) {
	out, err := runCommand("rocm-smi", "--showtemp")
	if err != nil {
		return 0, err
	}

	for _, line := range strings.Split(out, "\n") {
		if num, ok := ExtractNumber(line); ok {
			return parseTemp(num)
		}
	}

	return 0, errors.WithData(ErrNoMatch, "rocm-smi")
}

// sensorsGPUProbe is the GPU fallback over generic `sensors` output.
type sensorsGPUProbe struct{}

func (sensorsGPUProbe) Name() string { return "sensors-gpu" }

func (sensorsGPUProbe) Attempt() (float64, error) {
	out, err := runCommand("sensors")
	if err != nil {
		return 0, err
	}

	for _, line := range strings.Split(out, "\n") {
		lower := strings.ToLower(line)
		if !strings.Contains(lower, "gpu") && !strings.Contains(lower, "edge") &&
			!strings.Contains(lower, "junction") {
			continue
		}
		if num, ok := ExtractNumber(line); ok {
			return parseTemp(num)
		}
	}

	return 0, errors.WithData(ErrNoMatch, "sensors-gpu")
}
