package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// MetersPerNauticalMile is the international nautical mile.
const MetersPerNauticalMile = 1852.0

// Duration wraps time.Duration so it reads and writes as "1m30s" in YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dur, err := ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Seconds returns the duration as whole seconds.
func (d Duration) Seconds() int {
	return int(time.Duration(d) / time.Second)
}

// ParseDuration parses a Go duration string. A bare number is taken as seconds.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration format: %s", s)
	}
	return dur, nil
}

// Distance represents a distance in meters.
type Distance float64

// NauticalMiles returns the distance in nautical miles.
func (d Distance) NauticalMiles() float64 {
	return float64(d) / MetersPerNauticalMile
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Distance) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		var f float64
		if errNum := value.Decode(&f); errNum == nil {
			*d = Distance(f)
			return nil
		}
		return err
	}

	dist, err := ParseDistance(s)
	if err != nil {
		return err
	}
	*d = Distance(dist)
	return nil
}

// MarshalYAML implements yaml.Marshaler. Distances are written in nautical miles.
func (d Distance) MarshalYAML() (interface{}, error) {
	return strconv.FormatFloat(d.NauticalMiles(), 'f', -1, 64) + "nm", nil
}

// distanceUnits is ordered so longer suffixes match before their tails ("nm" before "m").
var distanceUnits = []struct {
	suffix string
	meters float64
}{
	{"cables", MetersPerNauticalMile / 10},
	{"cable", MetersPerNauticalMile / 10},
	{"nmi", MetersPerNauticalMile},
	{"nm", MetersPerNauticalMile},
	{"km", 1000},
	{"ft", 0.3048},
	{"m", 1},
}

// ParseDistance parses "1.5nm", "3 cables", "800m", "2km" or "300ft" into
// meters. Units are case-insensitive and a bare number is taken as meters.
func ParseDistance(s string) (float64, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, nil
	}

	mult, numStr := 1.0, s
	for _, u := range distanceUnits {
		if strings.HasSuffix(s, u.suffix) {
			mult, numStr = u.meters, strings.TrimSuffix(s, u.suffix)
			break
		}
	}

	val, err := strconv.ParseFloat(strings.TrimSpace(numStr), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid distance number: %w", err)
	}
	if val < 0 {
		return 0, fmt.Errorf("distance %q must not be negative", s)
	}
	return val * mult, nil
}
