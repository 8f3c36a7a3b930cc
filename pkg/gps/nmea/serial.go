package nmea

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"go.bug.st/serial"

	"sailtimer/pkg/gps"
)

const reopenDelay = 5 * time.Second

// Source reads NMEA sentences from a serial port.
type Source struct {
	port string
	baud int
	open func() (io.ReadCloser, error)
}

// NewSource creates a Source for the given port, e.g. "/dev/ttyUSB0" or "COM3".
func NewSource(port string, baud int) *Source {
	if baud <= 0 {
		baud = 4800
	}
	s := &Source{port: port, baud: baud}
	s.open = s.openSerial
	return s
}

func (s *Source) openSerial() (io.ReadCloser, error) {
	mode := &serial.Mode{
		BaudRate: s.baud,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(s.port, mode)
	if err != nil {
		return nil, classify(err)
	}
	return p, nil
}

// classify maps serial errors onto the gps error set.
func classify(err error) error {
	var pe *serial.PortError
	if errors.As(err, &pe) && pe.Code() == serial.PermissionDenied {
		return fmt.Errorf("%w: %v", gps.ErrPermissionDenied, err)
	}
	return fmt.Errorf("%w: %v", gps.ErrUnavailable, err)
}

// Subscribe implements gps.Source. The port is reopened after read errors
// until unsubscribe is called.
func (s *Source) Subscribe(onSample func(gps.Sample), onError func(error)) func() {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.loop(ctx, onSample, onError)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			wg.Wait()
		})
	}
}

func (s *Source) loop(ctx context.Context, onSample func(gps.Sample), onError func(error)) {
	for {
		rc, err := s.open()
		if err != nil {
			slog.Warn("GPS: Failed to open port", "port", s.port, "error", err)
			onError(err)
		} else {
			slog.Info("GPS: Port opened", "port", s.port, "baud", s.baud)
			// Closing the port unblocks the pending read on cancel.
			stop := context.AfterFunc(ctx, func() { rc.Close() })
			err = ReadSamples(rc, onSample)
			stop()
			rc.Close()
			if ctx.Err() != nil {
				return
			}
			slog.Warn("GPS: Port read ended", "port", s.port, "error", err)
			onError(fmt.Errorf("%w: %v", gps.ErrUnavailable, err))
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(reopenDelay):
		}
	}
}

// ReadSamples decodes sentences from r until it fails or ends. Corrupt lines
// are logged and skipped. It returns io.EOF at the end of input.
func ReadSamples(r io.Reader, onSample func(gps.Sample)) error {
	dec := NewDecoder()
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		sample, ok, err := dec.Decode(sc.Text())
		if err != nil {
			slog.Debug("GPS: Skipping sentence", "line", sc.Text(), "error", err)
			continue
		}
		if ok {
			onSample(sample)
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return io.EOF
}
