package geo

import (
	"math"
	"testing"
)

func TestCompassDirection(t *testing.T) {
	tests := []struct {
		heading float64
		want    string
	}{
		{0, "N"},
		{11.24, "N"},
		{11.25, "NNE"},
		{45, "NE"},
		{90, "E"},
		{180, "S"},
		{202.5, "SSW"},
		{315, "NW"},
		{348.74, "NNW"},
		{359, "N"},
		{-45, "NW"},
	}
	for _, tt := range tests {
		if got := CompassDirection(tt.heading); got != tt.want {
			t.Errorf("CompassDirection(%v) = %q, want %q", tt.heading, got, tt.want)
		}
	}
}

func TestConversions(t *testing.T) {
	if got := MetersPerSecondToKnots(1); math.Abs(got-1.94384) > 1e-9 {
		t.Errorf("knots = %v", got)
	}
	if got := MetersPerSecondToKmh(10); math.Abs(got-36) > 1e-9 {
		t.Errorf("km/h = %v", got)
	}
	if got := KmToNauticalMiles(NauticalMilesToKm(2.5)); math.Abs(got-2.5) > 1e-9 {
		t.Errorf("nm round trip = %v", got)
	}
}
