package geo

import "math"

var compassPoints = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// MetersPerSecondToKnots converts a GPS speed to knots.
func MetersPerSecondToKnots(v float64) float64 {
	return v * KnotsPerMeterPerSecond
}

// MetersPerSecondToKmh converts a GPS speed to km/h.
func MetersPerSecondToKmh(v float64) float64 {
	return v * 3.6
}

// NauticalMilesToKm converts nautical miles to kilometers.
func NauticalMilesToKm(nm float64) float64 {
	return nm * KmPerNauticalMile
}

// KmToNauticalMiles converts kilometers to nautical miles.
func KmToNauticalMiles(km float64) float64 {
	return km / KmPerNauticalMile
}

// CompassDirection returns the 16-point compass label for a heading.
func CompassDirection(heading float64) string {
	idx := int(math.Round(NormalizeHeading(heading)/22.5)) % 16
	return compassPoints[idx]
}
