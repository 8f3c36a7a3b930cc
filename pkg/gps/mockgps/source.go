// Package mockgps simulates a boat beating to windward for demos and tests.
package mockgps

import (
	"math/rand"
	"sync"
	"time"

	"sailtimer/pkg/geo"
	"sailtimer/pkg/gps"
)

// Config holds the simulated boat's starting point and motion.
type Config struct {
	StartLat   float64
	StartLon   float64
	Heading    float64 // initial heading, degrees true
	SpeedKnots float64
	Interval   time.Duration
	Accuracy   float64       // meters
	TackEvery  time.Duration // zero sails a straight line
	TackAngle  float64       // heading change per tack, degrees
	Jitter     float64       // speed noise as a fraction of SpeedKnots
}

// Source implements gps.Source with a simulated boat.
type Source struct {
	mu        sync.Mutex
	cfg       Config
	pos       geo.Point
	heading   float64
	sinceTack time.Duration
	rng       *rand.Rand
	now       func() time.Time
}

// NewSource creates a simulated source. Zero values get sensible defaults.
func NewSource(cfg Config) *Source {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.TackAngle == 0 {
		cfg.TackAngle = 90
	}
	if cfg.Accuracy <= 0 {
		cfg.Accuracy = 5
	}
	return &Source{
		cfg:     cfg,
		pos:     geo.Point{Lat: cfg.StartLat, Lon: cfg.StartLon},
		heading: geo.NormalizeHeading(cfg.Heading),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		now:     time.Now,
	}
}

// Subscribe implements gps.Source. Each subscription runs its own loop and
// moves the shared boat.
func (s *Source) Subscribe(onSample func(gps.Sample), _ func(error)) func() {
	stopCh := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()

		onSample(s.current())
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				onSample(s.advance(s.cfg.Interval))
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stopCh)
			wg.Wait()
		})
	}
}

func (s *Source) current() gps.Sample {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sampleLocked(s.cfg.SpeedKnots)
}

// advance moves the boat by dt along its heading and tacks when due.
func (s *Source) advance(dt time.Duration) gps.Sample {
	s.mu.Lock()
	defer s.mu.Unlock()

	knots := s.cfg.SpeedKnots
	if s.cfg.Jitter > 0 {
		knots *= 1 + (s.rng.Float64()*2-1)*s.cfg.Jitter
	}
	if knots < 0 {
		knots = 0
	}

	distKm := geo.NauticalMilesToKm(knots * dt.Hours())
	if distKm > 0 {
		s.pos = geo.DestinationPoint(s.pos.Lat, s.pos.Lon, s.heading, distKm)
	}

	if s.cfg.TackEvery > 0 {
		s.sinceTack += dt
		if s.sinceTack >= s.cfg.TackEvery {
			s.sinceTack = 0
			s.cfg.TackAngle = -s.cfg.TackAngle
			s.heading = geo.NormalizeHeading(s.heading + s.cfg.TackAngle)
		}
	}
	return s.sampleLocked(knots)
}

func (s *Source) sampleLocked(knots float64) gps.Sample {
	return gps.Sample{
		Speed:     gps.Float(knots / geo.KnotsPerMeterPerSecond),
		Heading:   gps.Float(s.heading),
		Latitude:  s.pos.Lat,
		Longitude: s.pos.Lon,
		Accuracy:  s.cfg.Accuracy,
		Time:      s.now(),
	}
}
