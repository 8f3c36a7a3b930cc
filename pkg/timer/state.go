package timer

import "fmt"

// Phase is the engine's coarse state.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseCountingDown Phase = "counting_down"
	PhaseElapsed      Phase = "elapsed"
)

// State is the race timer's data. IsRunning and IsStopwatchRunning are never both true.
type State struct {
	TimeLeft           int  `json:"time_left"`
	IsRunning          bool `json:"is_running"`
	StopwatchTime      int  `json:"stopwatch_time"`
	IsStopwatchRunning bool `json:"is_stopwatch_running"`
}

// Phase derives the coarse state from the flags.
func (s State) Phase() Phase {
	switch {
	case s.IsRunning:
		return PhaseCountingDown
	case s.IsStopwatchRunning:
		return PhaseElapsed
	default:
		return PhaseIdle
	}
}

// DisplaySeconds is the value a clock face shows: the countdown while any is left,
// the stopwatch after that.
func (s State) DisplaySeconds() int {
	if s.TimeLeft > 0 {
		return s.TimeLeft
	}
	return s.StopwatchTime
}

// Display formats DisplaySeconds.
func (s State) Display() string {
	if s.TimeLeft > 0 {
		return FormatCountdown(s.TimeLeft)
	}
	return FormatStopwatch(s.StopwatchTime)
}

// Snapshot is an immutable view handed to observers.
type Snapshot struct {
	State
	Phase   Phase  `json:"phase"`
	Display string `json:"display"`
	// Urgent is set during the last ten seconds of a running countdown.
	Urgent bool `json:"urgent"`
}

func newSnapshot(s State) Snapshot {
	return Snapshot{
		State:   s,
		Phase:   s.Phase(),
		Display: s.Display(),
		Urgent:  s.IsRunning && s.TimeLeft > 0 && s.TimeLeft <= 10,
	}
}

// FormatCountdown renders seconds as "M:SS".
func FormatCountdown(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// FormatStopwatch renders seconds as "H:MM:SS", or "M:SS" below one hour.
func FormatStopwatch(seconds int) string {
	hours := seconds / 3600
	mins := (seconds % 3600) / 60
	secs := seconds % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, mins, secs)
	}
	return fmt.Sprintf("%d:%02d", mins, secs)
}
