package audio

import (
	"fmt"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/generators"
)

// newToneStreamer builds a sine beep of the given length with soft edges.
func newToneStreamer(sr beep.SampleRate, frequencyHz float64, d time.Duration) (beep.Streamer, error) {
	if d <= 0 {
		return nil, fmt.Errorf("tone duration must be positive, got %v", d)
	}
	sine, err := generators.SineTone(sr, frequencyHz)
	if err != nil {
		return nil, fmt.Errorf("tone %.0fHz: %w", frequencyHz, err)
	}
	total := sr.N(d)
	return NewEnvelope(beep.Take(total, sine), total, rampSamples(sr)), nil
}
