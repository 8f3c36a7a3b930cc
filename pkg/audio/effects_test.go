package audio

import (
	"testing"
)

type dummyStreamer struct {
	samples [][2]float64
	pos     int
}

func (s *dummyStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	if s.pos >= len(s.samples) {
		return 0, false
	}
	n = copy(samples, s.samples[s.pos:])
	s.pos += n
	return n, true
}

func (s *dummyStreamer) Err() error { return nil }

func constant(n int) *dummyStreamer {
	input := make([][2]float64, n)
	for i := range input {
		input[i] = [2]float64{1.0, 1.0}
	}
	return &dummyStreamer{samples: input}
}

func TestEnvelope_Stream(t *testing.T) {
	env := NewEnvelope(constant(100), 100, 10)

	output := make([][2]float64, 100)
	n, ok := env.Stream(output)
	if n != 100 || !ok {
		t.Fatalf("Stream() = %d, %v", n, ok)
	}

	if output[0][0] != 0 {
		t.Errorf("first sample should be silent, got %v", output[0][0])
	}
	if output[5][0] != 0.5 {
		t.Errorf("mid-ramp gain = %v, want 0.5", output[5][0])
	}
	if output[50][0] != 1 || output[50][1] != 1 {
		t.Errorf("body should pass through, got %v", output[50])
	}
	if output[99][0] >= output[95][0] {
		t.Errorf("tail should fade: %v then %v", output[95][0], output[99][0])
	}
}

func TestEnvelope_ChunkedMatchesWhole(t *testing.T) {
	whole := make([][2]float64, 64)
	NewEnvelope(constant(64), 64, 8).Stream(whole)

	env := NewEnvelope(constant(64), 64, 8)
	var chunked [][2]float64
	buf := make([][2]float64, 10)
	for {
		n, ok := env.Stream(buf)
		if !ok {
			break
		}
		chunked = append(chunked, buf[:n]...)
	}

	if len(chunked) != len(whole) {
		t.Fatalf("len = %d, want %d", len(chunked), len(whole))
	}
	for i := range whole {
		if whole[i] != chunked[i] {
			t.Fatalf("sample %d differs: %v vs %v", i, whole[i], chunked[i])
		}
	}
}

func TestEnvelope_RampClamped(t *testing.T) {
	env := NewEnvelope(constant(10), 10, 100)
	if env.ramp != 5 {
		t.Errorf("ramp = %d, want 5", env.ramp)
	}
	env = NewEnvelope(constant(10), 10, -1)
	if env.gain(0) != 1 {
		t.Error("zero ramp should be unity gain")
	}
}
