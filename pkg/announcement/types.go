// Package announcement decides what the race timer says out loud and how fast it says it.
package announcement

// Kind tags which rule produced an announcement.
type Kind string

const (
	KindSailFast   Kind = "SailFast"   // Countdown reached zero
	KindFinal      Kind = "Final"      // Last 15 seconds, every second
	KindLastMinute Kind = "LastMinute" // 5-second marks between 20 and 55
	KindFullMinute Kind = "FullMinute" // "3 minutes"
	KindQuarter    Kind = "Quarter"    // "2 30"
)

// SailFast is spoken when the countdown reaches zero.
const SailFast = "SAIL FAST"

// Announcement is one spoken cue.
type Announcement struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
	// Remaining is the countdown value the cue belongs to.
	Remaining int `json:"remaining"`
}
