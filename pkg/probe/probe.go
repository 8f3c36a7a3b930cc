// Package probe runs the startup checks for the outputs and inputs a race
// depends on: audio device, speech engine, cue cache and GPS port.
package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"go.bug.st/serial"
)

const defaultTimeout = 5 * time.Second

// ErrSkipped marks a check for a subsystem that is switched off.
var ErrSkipped = errors.New("skipped")

// CheckFunc performs one check. It returns nil if the check passes.
type CheckFunc func(ctx context.Context) error

// Probe is a single startup check.
type Probe struct {
	Name     string
	Check    CheckFunc
	Critical bool          // a failure prevents startup
	Timeout  time.Duration // zero uses 5s
}

// Result holds the outcome of a single probe.
type Result struct {
	Probe    Probe
	Error    error
	Duration time.Duration
}

// Status is PASS, SKIP or FAIL.
func (r Result) Status() string {
	switch {
	case r.Error == nil:
		return "PASS"
	case errors.Is(r.Error, ErrSkipped):
		return "SKIP"
	default:
		return "FAIL"
	}
}

// Run executes the probes in order. Each check gets its own timeout.
func Run(ctx context.Context, probes []Probe) []Result {
	results := make([]Result, len(probes))

	for i, p := range probes {
		timeout := p.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		start := time.Now()
		checkCtx, cancel := context.WithTimeout(ctx, timeout)
		err := p.Check(checkCtx)
		cancel()

		results[i] = Result{
			Probe:    p,
			Error:    err,
			Duration: time.Since(start),
		}
	}

	return results
}

// AnalyzeResults logs a summary line per probe and returns the joined errors
// of failed critical probes.
func AnalyzeResults(results []Result) error {
	var criticalErrors []error

	slog.Info("Startup Checks Summary")

	for _, r := range results {
		status := r.Status()
		msg := fmt.Sprintf("[%s] %-20s (%v)", status, r.Probe.Name, r.Duration.Round(time.Millisecond))

		switch status {
		case "PASS", "SKIP":
			slog.Info(msg)
		default:
			slog.Error(msg, "error", r.Error)
			if r.Probe.Critical {
				criticalErrors = append(criticalErrors, fmt.Errorf("%s: %w", r.Probe.Name, r.Error))
			}
		}
	}

	return errors.Join(criticalErrors...)
}

// Degraded returns the names of non-critical probes that failed.
func Degraded(results []Result) []string {
	var names []string
	for _, r := range results {
		if r.Status() == "FAIL" && !r.Probe.Critical {
			names = append(names, r.Probe.Name)
		}
	}
	return names
}

// Writable checks that dir exists (creating it if needed) and accepts files.
func Writable(dir string) CheckFunc {
	return func(context.Context) error {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		f, err := os.CreateTemp(dir, ".probe-*")
		if err != nil {
			return err
		}
		name := f.Name()
		f.Close()
		return os.Remove(name)
	}
}

// portLister is replaced in tests.
var portLister = serial.GetPortsList

// SerialPort checks that port is one of the serial ports the OS reports.
// Paths are compared after cleaning so "/dev/ttyUSB0" and "/dev//ttyUSB0" match.
func SerialPort(port string) CheckFunc {
	return func(context.Context) error {
		ports, err := portLister()
		if err != nil {
			return fmt.Errorf("listing serial ports: %w", err)
		}
		want := filepath.Clean(port)
		if slices.ContainsFunc(ports, func(p string) bool { return filepath.Clean(p) == want }) {
			return nil
		}
		return fmt.Errorf("serial port %s not found (available: %v)", port, ports)
	}
}

// Skip returns a check that always reports ErrSkipped.
func Skip() CheckFunc {
	return func(context.Context) error { return ErrSkipped }
}
