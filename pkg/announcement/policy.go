package announcement

import "strconv"

// ForCountdown returns the cue for the value the countdown has just ticked to.
// At most one rule applies; they are checked in a fixed order and the first
// match wins, so 30 and 45 are announced as last-minute marks, never as quarters.
func ForCountdown(remaining int) (Announcement, bool) {
	switch {
	case remaining == 0:
		return Announcement{Kind: KindSailFast, Text: SailFast, Remaining: 0}, true
	case remaining >= 1 && remaining <= 15:
		return Announcement{Kind: KindFinal, Text: strconv.Itoa(remaining), Remaining: remaining}, true
	case remaining < 60 && isLastMinuteMark(remaining):
		return Announcement{Kind: KindLastMinute, Text: strconv.Itoa(remaining), Remaining: remaining}, true
	case remaining > 0 && remaining%60 == 0:
		return Announcement{Kind: KindFullMinute, Text: strconv.Itoa(remaining/60) + " minutes", Remaining: remaining}, true
	}

	minutes, seconds := remaining/60, remaining%60
	if remaining > 0 && (seconds == 15 || seconds == 30 || seconds == 45) {
		text := strconv.Itoa(minutes) + " " + strconv.Itoa(seconds)
		return Announcement{Kind: KindQuarter, Text: text, Remaining: remaining}, true
	}
	return Announcement{}, false
}

func isLastMinuteMark(n int) bool {
	return n >= 20 && n <= 55 && n%5 == 0
}

// RatePolicy picks the speech rate for a cue.
type RatePolicy struct {
	Normal float64
	Fast   float64
	// FastThreshold is the remaining time (inclusive) at and below which Fast is used.
	FastThreshold int
}

// DefaultRatePolicy speeds speech up for the final 15 seconds so numbers don't overlap.
func DefaultRatePolicy() RatePolicy {
	return RatePolicy{Normal: 0.8, Fast: 1.2, FastThreshold: 15}
}

// Rate returns the rate for speech spoken with remaining seconds on the clock.
func (p RatePolicy) Rate(remaining int) float64 {
	if remaining <= p.FastThreshold {
		return p.Fast
	}
	return p.Normal
}

// All returns every cue a countdown from max can produce, in the order they are spoken.
func All(max int) []Announcement {
	var out []Announcement
	for n := max; n >= 0; n-- {
		if a, ok := ForCountdown(n); ok {
			out = append(out, a)
		}
	}
	return out
}
