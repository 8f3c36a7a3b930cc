// Package timer implements the race-start countdown and the stopwatch that
// takes over when the countdown reaches zero.
package timer

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"sailtimer/pkg/announcement"
	"sailtimer/pkg/events"
	"sailtimer/pkg/logging"
)

// Options configures an Engine. Zero fields take the defaults.
type Options struct {
	Start     int // seconds after reset
	Max       int // upper bound for AddMinute and Sync
	Tick      time.Duration
	Rates     announcement.RatePolicy
	Tones     map[Cue]Tone
	Speaker   Speaker
	TonePlay  TonePlayer
	Scheduler Scheduler
}

// DefaultOptions returns the standard 5 minute start with a 15 minute cap.
func DefaultOptions() Options {
	return Options{
		Start: 300,
		Max:   900,
		Tick:  time.Second,
		Rates: announcement.DefaultRatePolicy(),
		Tones: DefaultTones(),
	}
}

// Engine owns the one TimerState of the process. All mutation goes through
// its methods; readers use Snapshot or Listen.
type Engine struct {
	mu    sync.Mutex
	state State
	opts  Options

	countdownCancel Cancel
	stopwatchCancel Cancel
	// Bumped whenever a schedule is cancelled so ticks already in flight are dropped.
	countdownGen uint64
	stopwatchGen uint64
	closed       bool

	feed *events.Feed[Snapshot]
}

// NewEngine creates an idle engine. A nil Scheduler panics; nil Speaker or
// TonePlayer silence the corresponding output.
func NewEngine(opts Options) *Engine {
	def := DefaultOptions()
	if opts.Start <= 0 {
		opts.Start = def.Start
	}
	if opts.Max <= 0 {
		opts.Max = def.Max
	}
	if opts.Tick <= 0 {
		opts.Tick = def.Tick
	}
	if opts.Rates == (announcement.RatePolicy{}) {
		opts.Rates = def.Rates
	}
	if opts.Tones == nil {
		opts.Tones = def.Tones
	}
	if opts.Speaker == nil {
		opts.Speaker = nopSpeaker{}
	}
	if opts.TonePlay == nil {
		opts.TonePlay = nopTones{}
	}
	if opts.Scheduler == nil {
		panic("timer: nil scheduler")
	}

	e := &Engine{
		state: State{TimeLeft: opts.Start},
		opts:  opts,
		feed:  events.NewFeed[Snapshot](true),
	}
	e.feed.Publish(newSnapshot(e.state))
	return e
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return newSnapshot(e.state)
}

// Listen registers fn for every state change and immediately replays the
// current state. The returned func unregisters it.
func (e *Engine) Listen(fn func(Snapshot)) func() {
	return e.feed.Listen(fn)
}

// Start begins counting down. It does nothing while running, at zero, after
// the stopwatch has taken over, or after Close.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.closed || e.state.IsRunning || e.state.IsStopwatchRunning || e.state.TimeLeft <= 0 {
		e.mu.Unlock()
		return
	}
	e.state.IsRunning = true
	e.startCountdownLocked()
	snap := newSnapshot(e.state)
	e.mu.Unlock()

	e.tone(CueStart)
	e.record("START", fmt.Sprintf("countdown started at %s", snap.Display))
	e.feed.Publish(snap)
}

// Stop pauses the countdown, keeping the remaining time.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.state.IsRunning {
		e.mu.Unlock()
		return
	}
	e.state.IsRunning = false
	e.cancelCountdownLocked()
	snap := newSnapshot(e.state)
	e.mu.Unlock()

	e.tone(CueStop)
	e.record("STOP", fmt.Sprintf("countdown paused at %s", snap.Display))
	e.feed.Publish(snap)
}

// Toggle is the single start/stop button.
func (e *Engine) Toggle() {
	e.mu.Lock()
	running := e.state.IsRunning
	e.mu.Unlock()

	if running {
		e.Stop()
	} else {
		e.Start()
	}
}

// Reset returns to the idle start value and stops both clocks.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.cancelCountdownLocked()
	e.cancelStopwatchLocked()
	e.state = State{TimeLeft: e.opts.Start}
	snap := newSnapshot(e.state)
	e.mu.Unlock()

	e.tone(CueReset)
	e.record("RESET", fmt.Sprintf("timer reset to %s", snap.Display))
	e.feed.Publish(snap)
}

// AddMinute adds 60 seconds, capped at the configured maximum.
func (e *Engine) AddMinute() {
	e.mu.Lock()
	before := e.state.TimeLeft
	e.state.TimeLeft = min(e.state.TimeLeft+60, e.opts.Max)
	snap := newSnapshot(e.state)
	e.mu.Unlock()

	e.tone(CueAdd)
	if snap.TimeLeft != before {
		e.record("ADJUST", fmt.Sprintf("+1 minute, now %s", FormatCountdown(snap.TimeLeft)))
	}
	e.feed.Publish(snap)
}

// SubtractMinute removes 60 seconds when more than a minute is left.
// Otherwise it is silent and changes nothing.
func (e *Engine) SubtractMinute() {
	e.mu.Lock()
	if e.state.TimeLeft <= 60 {
		e.mu.Unlock()
		return
	}
	e.state.TimeLeft -= 60
	snap := newSnapshot(e.state)
	e.mu.Unlock()

	e.tone(CueSubtract)
	e.record("ADJUST", fmt.Sprintf("-1 minute, now %s", FormatCountdown(snap.TimeLeft)))
	e.feed.Publish(snap)
}

// Sync rounds the countdown up to the next whole minute, capped at the maximum.
// Used when the committee's minute signal is heard.
func (e *Engine) Sync() {
	e.mu.Lock()
	before := e.state.TimeLeft
	rounded := (e.state.TimeLeft + 59) / 60 * 60
	e.state.TimeLeft = min(rounded, e.opts.Max)
	snap := newSnapshot(e.state)
	e.mu.Unlock()

	e.tone(CueSync)
	if snap.TimeLeft != before {
		e.record("SYNC", fmt.Sprintf("synced %s -> %s", FormatCountdown(before), FormatCountdown(snap.TimeLeft)))
	}
	e.feed.Publish(snap)
}

// Close cancels both schedules. The state is kept but Start no longer works.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.cancelCountdownLocked()
	e.cancelStopwatchLocked()
}

func (e *Engine) startCountdownLocked() {
	e.cancelCountdownLocked()
	gen := e.countdownGen
	e.countdownCancel = e.opts.Scheduler.ScheduleRepeating(e.opts.Tick, func() {
		e.countdownTick(gen)
	})
}

func (e *Engine) cancelCountdownLocked() {
	e.countdownGen++
	if e.countdownCancel != nil {
		e.countdownCancel()
		e.countdownCancel = nil
	}
}

func (e *Engine) startStopwatchLocked() {
	e.cancelStopwatchLocked()
	gen := e.stopwatchGen
	e.stopwatchCancel = e.opts.Scheduler.ScheduleRepeating(e.opts.Tick, func() {
		e.stopwatchTick(gen)
	})
}

func (e *Engine) cancelStopwatchLocked() {
	e.stopwatchGen++
	if e.stopwatchCancel != nil {
		e.stopwatchCancel()
		e.stopwatchCancel = nil
	}
}

func (e *Engine) countdownTick(gen uint64) {
	e.mu.Lock()
	if gen != e.countdownGen || !e.state.IsRunning || e.state.TimeLeft <= 0 {
		e.mu.Unlock()
		return
	}

	e.state.TimeLeft--
	remaining := e.state.TimeLeft
	if remaining == 0 {
		e.state.IsRunning = false
		e.state.IsStopwatchRunning = true
		e.cancelCountdownLocked()
		if !e.closed {
			e.startStopwatchLocked()
		}
	}
	snap := newSnapshot(e.state)
	e.mu.Unlock()

	logging.Trace("Timer: tick", "time_left", remaining)
	if a, ok := announcement.ForCountdown(remaining); ok {
		e.opts.Speaker.Speak(a.Text, e.opts.Rates.Rate(remaining))
	}
	if remaining == 0 {
		e.record("SAIL_FAST", "countdown complete, stopwatch running")
	}
	e.feed.Publish(snap)
}

func (e *Engine) stopwatchTick(gen uint64) {
	e.mu.Lock()
	if gen != e.stopwatchGen || !e.state.IsStopwatchRunning {
		e.mu.Unlock()
		return
	}
	e.state.StopwatchTime++
	snap := newSnapshot(e.state)
	e.mu.Unlock()

	e.feed.Publish(snap)
}

func (e *Engine) tone(c Cue) {
	t, ok := e.opts.Tones[c]
	if !ok {
		return
	}
	e.opts.TonePlay.PlayTone(t.FrequencyHz, t.Duration)
}

func (e *Engine) record(kind, msg string) {
	slog.Info("Timer: "+msg, "event", kind)
	logging.LogEvent(logging.Event{Type: kind, Message: msg})
}
