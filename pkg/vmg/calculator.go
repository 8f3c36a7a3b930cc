// Package vmg tracks the course marks and computes velocity made good
// towards them from the latest GPS fix.
package vmg

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"sailtimer/pkg/events"
	"sailtimer/pkg/geo"
	"sailtimer/pkg/gps"
	"sailtimer/pkg/logging"
)

// Demo VMG assumes a close-hauled boat sailing 45 degrees off the wind.
const demoAngle = 45.0

// Options configures the fallbacks used when the fix lacks speed or heading.
type Options struct {
	FallbackSpeedKnots float64
	FallbackHeading    float64
}

// DefaultOptions returns 5 knots at 45 degrees.
func DefaultOptions() Options {
	return Options{FallbackSpeedKnots: 5.0, FallbackHeading: 45.0}
}

// Update is published to listeners after every change.
type Update struct {
	Result Result `json:"result"`
	OK     bool   `json:"ok"`
	Marks  Marks  `json:"marks"`
}

// Calculator owns the marks and the derived result. Every mutation recomputes
// synchronously before returning.
type Calculator struct {
	mu      sync.RWMutex
	opts    Options
	sample  *gps.Sample
	lastErr error
	marks   Marks
	result  Result
	ok      bool
	now     func() time.Time

	feed *events.Feed[Update]
}

// NewCalculator creates a Calculator without fix or marks.
func NewCalculator(opts Options) *Calculator {
	c := &Calculator{
		opts: opts,
		now:  time.Now,
		feed: events.NewFeed[Update](true),
	}
	c.feed.Publish(Update{})
	return c
}

// UpdateSample stores the latest fix and recomputes. A fix clears any
// previous GPS error.
func (c *Calculator) UpdateSample(s gps.Sample) {
	c.mu.Lock()
	c.sample = &s
	c.lastErr = nil
	u := c.recomputeLocked()
	c.mu.Unlock()

	logging.Trace("VMG: sample", "lat", s.Latitude, "lon", s.Longitude)
	c.feed.Publish(u)
}

// ReportError records a GPS error for display and notifies listeners.
// The last fix is kept.
func (c *Calculator) ReportError(err error) {
	c.mu.Lock()
	c.lastErr = err
	u := c.recomputeLocked()
	c.mu.Unlock()
	slog.Warn("VMG: GPS error", "error", err)
	c.feed.Publish(u)
}

// LastError returns the most recent GPS error, or nil after a good fix.
func (c *Calculator) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// SetLeewardMark drops the leeward mark at the current fix.
func (c *Calculator) SetLeewardMark() (Waypoint, error) {
	c.mu.Lock()
	if c.sample == nil {
		c.mu.Unlock()
		return Waypoint{}, ErrNoFix
	}
	wp := c.newWaypoint(KindLeeward, c.sample.Latitude, c.sample.Longitude)
	c.marks.Leeward = &wp
	u := c.recomputeLocked()
	c.mu.Unlock()

	c.record("MARK", fmt.Sprintf("leeward mark set at %.5f, %.5f", wp.Lat, wp.Lon))
	c.feed.Publish(u)
	return wp, nil
}

// SetWindwardMark places the windward mark distanceNm from the leeward mark
// along headingDeg.
func (c *Calculator) SetWindwardMark(distanceNm, headingDeg float64) (Waypoint, error) {
	if !isFinite(distanceNm) || !isFinite(headingDeg) {
		return Waypoint{}, ErrInvalidInput
	}

	c.mu.Lock()
	if c.marks.Leeward == nil {
		c.mu.Unlock()
		return Waypoint{}, ErrNoLeewardMark
	}
	lw := c.marks.Leeward
	p := geo.DestinationPoint(lw.Lat, lw.Lon, headingDeg, geo.NauticalMilesToKm(distanceNm))
	wp := c.newWaypoint(KindWindward, p.Lat, p.Lon)
	c.marks.Windward = &wp
	u := c.recomputeLocked()
	c.mu.Unlock()

	c.record("MARK", fmt.Sprintf("windward mark set %.2f nm at %.0f° (%.5f, %.5f)", distanceNm, headingDeg, wp.Lat, wp.Lon))
	c.feed.Publish(u)
	return wp, nil
}

// SetWindwardMarkInput parses user-entered distance and heading and calls
// SetWindwardMark.
func (c *Calculator) SetWindwardMarkInput(distance, heading string) (Waypoint, error) {
	d, err := strconv.ParseFloat(strings.TrimSpace(distance), 64)
	if err != nil {
		return Waypoint{}, fmt.Errorf("%w: distance %q", ErrInvalidInput, distance)
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(heading), 64)
	if err != nil {
		return Waypoint{}, fmt.Errorf("%w: heading %q", ErrInvalidInput, heading)
	}
	return c.SetWindwardMark(d, h)
}

// ResetMarks clears both marks and the result.
func (c *Calculator) ResetMarks() {
	c.mu.Lock()
	c.marks = Marks{}
	u := c.recomputeLocked()
	c.mu.Unlock()

	c.record("MARK", "marks cleared")
	c.feed.Publish(u)
}

// Result returns the current result. ok is false without a fix or marks.
func (c *Calculator) Result() (Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.result, c.ok
}

// Marks returns copies of the current marks.
func (c *Calculator) Marks() Marks {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyMarks(c.marks)
}

// Sample returns the latest fix.
func (c *Calculator) Sample() (gps.Sample, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.sample == nil {
		return gps.Sample{}, false
	}
	return *c.sample, true
}

// SailData projects the latest fix for display.
func (c *Calculator) SailData() SailData {
	c.mu.RLock()
	defer c.mu.RUnlock()

	d := SailData{Compass: "N/A", GPSStatus: GPSLimited, HeadingHint: noHeadingHint}
	if c.lastErr != nil {
		d.Error = c.lastErr.Error()
	}
	if c.sample == nil {
		return d
	}

	s := c.sample
	d.HasFix = true
	d.Latitude = s.Latitude
	d.Longitude = s.Longitude
	d.Accuracy = s.Accuracy
	if s.Speed != nil {
		knots := geo.MetersPerSecondToKnots(*s.Speed)
		d.SpeedKnots = &knots
		d.SpeedKmh = gps.Float(geo.MetersPerSecondToKmh(*s.Speed))
		d.SpeedMs = gps.Float(*s.Speed)
		d.DemoVMG = knots * math.Cos(demoAngle*math.Pi/180)
	}
	if s.Heading != nil {
		d.Heading = gps.Float(*s.Heading)
		d.Compass = geo.CompassDirection(*s.Heading)
		d.HeadingHint = ""
	}
	if s.Speed != nil || s.Heading != nil {
		d.GPSStatus = GPSActive
	}
	return d
}

// Listen registers fn for every change and replays the current state.
func (c *Calculator) Listen(fn func(Result, bool)) func() {
	return c.feed.Listen(func(u Update) { fn(u.Result, u.OK) })
}

// ListenUpdates is Listen with the marks included.
func (c *Calculator) ListenUpdates(fn func(Update)) func() {
	return c.feed.Listen(fn)
}

func (c *Calculator) recomputeLocked() Update {
	c.result, c.ok = compute(c.sample, c.marks, c.opts)
	return Update{Result: c.result, OK: c.ok, Marks: copyMarks(c.marks)}
}

// compute derives the result. It needs a fix and at least one mark.
func compute(s *gps.Sample, m Marks, opts Options) (Result, bool) {
	if s == nil || (m.Leeward == nil && m.Windward == nil) {
		return Result{}, false
	}

	speed := opts.FallbackSpeedKnots
	if s.Speed != nil {
		speed = geo.MetersPerSecondToKnots(*s.Speed)
	}
	heading := opts.FallbackHeading
	if s.Heading != nil {
		heading = *s.Heading
	}

	r := Result{CurrentSpeedKnots: speed, CurrentHeadingDegrees: heading}
	var dWind, dLee float64
	if w := m.Windward; w != nil {
		r.BearingToWindward = geo.BearingDegrees(s.Latitude, s.Longitude, w.Lat, w.Lon)
		r.VMGToWindward = geo.VMG(speed, heading, r.BearingToWindward)
		dWind = geo.HaversineDistanceKm(s.Latitude, s.Longitude, w.Lat, w.Lon)
		r.DistanceToWindwardNm = geo.KmToNauticalMiles(dWind)
	}
	if l := m.Leeward; l != nil {
		r.BearingToLeeward = geo.BearingDegrees(s.Latitude, s.Longitude, l.Lat, l.Lon)
		r.VMGToLeeward = geo.VMG(speed, heading, r.BearingToLeeward)
		dLee = geo.HaversineDistanceKm(s.Latitude, s.Longitude, l.Lat, l.Lon)
		r.DistanceToLeewardNm = geo.KmToNauticalMiles(dLee)
	}

	switch {
	case m.Windward != nil && m.Leeward != nil:
		r.CurrentLeg = LegLeeward
		if dWind < dLee {
			r.CurrentLeg = LegWindward
		}
	case m.Windward != nil:
		r.CurrentLeg = LegWindward
	default:
		r.CurrentLeg = LegLeeward
	}
	return r, true
}

func (c *Calculator) newWaypoint(kind Kind, lat, lon float64) Waypoint {
	name := "Leeward Mark"
	if kind == KindWindward {
		name = "Windward Mark"
	}
	return Waypoint{
		ID:        uuid.NewString(),
		Name:      name,
		Kind:      kind,
		Lat:       lat,
		Lon:       lon,
		Timestamp: c.now(),
	}
}

func (c *Calculator) record(kind, msg string) {
	slog.Info("VMG: "+msg, "event", kind)
	logging.LogEvent(logging.Event{Type: kind, Message: msg})
}

func copyMarks(m Marks) Marks {
	var out Marks
	if m.Leeward != nil {
		lw := *m.Leeward
		out.Leeward = &lw
	}
	if m.Windward != nil {
		ww := *m.Windward
		out.Windward = &ww
	}
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
