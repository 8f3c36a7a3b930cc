package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep/v2"
)

// Envelope ramps a finite streamer in and out linearly so short tones
// start and stop without a click.
type Envelope struct {
	Streamer beep.Streamer
	total    int
	ramp     int
	pos      int
}

// NewEnvelope wraps s, which must produce exactly total samples.
// The ramp is clamped to half the length.
func NewEnvelope(s beep.Streamer, total int, ramp int) *Envelope {
	if ramp > total/2 {
		ramp = total / 2
	}
	if ramp < 0 {
		ramp = 0
	}
	return &Envelope{Streamer: s, total: total, ramp: ramp}
}

// Stream implements beep.Streamer.
func (e *Envelope) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = e.Streamer.Stream(samples)
	for i := 0; i < n; i++ {
		g := e.gain(e.pos)
		samples[i][0] *= g
		samples[i][1] *= g
		e.pos++
	}
	return n, ok
}

// Err implements beep.Streamer.
func (e *Envelope) Err() error {
	return e.Streamer.Err()
}

func (e *Envelope) gain(pos int) float64 {
	if e.ramp == 0 {
		return 1
	}
	if pos < e.ramp {
		return float64(pos) / float64(e.ramp)
	}
	if tail := e.total - pos; tail <= e.ramp {
		if tail < 0 {
			return 0
		}
		return float64(tail) / float64(e.ramp)
	}
	return 1
}

// rampSamples is the fade length used for tones.
func rampSamples(sr beep.SampleRate) int {
	return sr.N(5 * time.Millisecond)
}

// silentBelow is the linear volume under which output is muted outright.
const silentBelow = 0.01

// volumeToPower maps a linear 0..1 volume onto effects.Volume's base-2
// exponent: 1 is unity gain, 0.5 is half amplitude.
func volumeToPower(vol float64) float64 {
	if vol <= silentBelow {
		return -10
	}
	return math.Log2(vol)
}
