package nmea

import (
	"errors"

	"sailtimer/pkg/geo"
	"sailtimer/pkg/gps"
)

// Nominal receiver error per unit of HDOP, in meters.
const uereMeters = 5.0

// Decoder turns a stream of sentences into samples. Receivers that send RMC
// produce one sample per RMC; GGA-only receivers produce one per GGA, with a
// course derived from the track since GGA carries none.
type Decoder struct {
	track   *geo.TrackBuffer
	hdop    float64
	haveRMC bool
}

// NewDecoder creates a Decoder.
func NewDecoder() *Decoder {
	return &Decoder{track: geo.NewTrackBuffer(5, 0.005)}
}

// Decode feeds one line. ok is false when the line produced no sample.
// Lines that are not RMC or GGA are ignored without error.
func (d *Decoder) Decode(line string) (gps.Sample, bool, error) {
	fix, err := Parse(line)
	if err != nil {
		if errors.Is(err, ErrUnsupported) {
			return gps.Sample{}, false, nil
		}
		return gps.Sample{}, false, err
	}

	switch fix.Type {
	case TypeGGA:
		if fix.HDOP > 0 {
			d.hdop = fix.HDOP
		}
		if d.haveRMC || !fix.Valid {
			return gps.Sample{}, false, nil
		}
		s := d.sample(fix)
		if course, ok := d.track.Push(geo.Point{Lat: fix.Latitude, Lon: fix.Longitude}); ok {
			s.Heading = gps.Float(course)
		}
		return s, true, nil

	case TypeRMC:
		d.haveRMC = true
		if !fix.Valid {
			return gps.Sample{}, false, nil
		}
		s := d.sample(fix)
		if fix.SpeedKnots != nil {
			s.Speed = gps.Float(*fix.SpeedKnots / geo.KnotsPerMeterPerSecond)
		}
		s.Heading = fix.Course
		return s, true, nil
	}
	return gps.Sample{}, false, nil
}

func (d *Decoder) sample(fix Fix) gps.Sample {
	return gps.Sample{
		Latitude:  fix.Latitude,
		Longitude: fix.Longitude,
		Accuracy:  d.hdop * uereMeters,
		Time:      fix.Time,
	}
}
