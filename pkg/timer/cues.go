package timer

import "time"

// Cue identifies a user action that is acknowledged with a tone.
type Cue string

const (
	CueStart    Cue = "start"
	CueStop     Cue = "stop"
	CueReset    Cue = "reset"
	CueAdd      Cue = "add"
	CueSubtract Cue = "subtract"
	CueSync     Cue = "sync"
)

// Tone is a short beep.
type Tone struct {
	FrequencyHz float64
	Duration    time.Duration
}

// DefaultTones gives each action a distinguishable beep.
func DefaultTones() map[Cue]Tone {
	return map[Cue]Tone{
		CueStart:    {FrequencyHz: 1000, Duration: 150 * time.Millisecond},
		CueStop:     {FrequencyHz: 600, Duration: 150 * time.Millisecond},
		CueReset:    {FrequencyHz: 400, Duration: 200 * time.Millisecond},
		CueAdd:      {FrequencyHz: 1200, Duration: 100 * time.Millisecond},
		CueSubtract: {FrequencyHz: 800, Duration: 100 * time.Millisecond},
		CueSync:     {FrequencyHz: 1000, Duration: 120 * time.Millisecond},
	}
}

// Speaker says text at the given rate (1.0 is normal speed).
// Implementations must return promptly and handle their own failures.
type Speaker interface {
	Speak(text string, rate float64)
}

// TonePlayer plays a beep. Same contract as Speaker.
type TonePlayer interface {
	PlayTone(frequencyHz float64, duration time.Duration)
}

type nopSpeaker struct{}

func (nopSpeaker) Speak(string, float64) {}

type nopTones struct{}

func (nopTones) PlayTone(float64, time.Duration) {}
