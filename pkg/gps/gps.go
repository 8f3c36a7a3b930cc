// Package gps defines the position fixes the VMG calculator consumes and the
// sources that deliver them.
package gps

import (
	"errors"
	"time"
)

// Errors reported through a Source's error callback. They are shown to the
// sailor and never stop the timer.
var (
	ErrPermissionDenied = errors.New("location permission denied")
	ErrUnavailable      = errors.New("position unavailable")
	ErrTimeout          = errors.New("position request timed out")
)

// Sample is one position fix. Speed and Heading are nil when the receiver
// did not report them.
type Sample struct {
	Speed     *float64  `json:"speed"`   // m/s
	Heading   *float64  `json:"heading"` // degrees true
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy"` // meters
	Time      time.Time `json:"time"`
}

// HasSpeed reports whether the fix carries a speed.
func (s Sample) HasSpeed() bool { return s.Speed != nil }

// HasHeading reports whether the fix carries a heading.
func (s Sample) HasHeading() bool { return s.Heading != nil }

// Source delivers fixes on its own goroutine until unsubscribed.
type Source interface {
	Subscribe(onSample func(Sample), onError func(error)) (unsubscribe func())
}

// Float returns a pointer to v, for building samples.
func Float(v float64) *float64 { return &v }
