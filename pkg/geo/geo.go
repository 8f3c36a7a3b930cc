// Package geo holds the spherical-earth math behind the VMG display:
// great-circle distance, initial bearing, forward projection and unit conversions.
package geo

import (
	"math"

	"github.com/paulmach/orb"
)

const (
	// EarthRadiusKm is the mean earth radius used by every formula here.
	EarthRadiusKm = 6371.0

	// KnotsPerMeterPerSecond converts m/s to knots.
	KnotsPerMeterPerSecond = 1.94384
	// KmPerNauticalMile converts nautical miles to kilometers.
	KmPerNauticalMile = 1.852
)

// Point represents a geographic coordinate in WGS84 degrees.
type Point struct {
	Lat float64
	Lon float64
}

// Orb returns the point in orb's [lon, lat] order.
func (p Point) Orb() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

func toRad(deg float64) float64 { return deg * (math.Pi / 180.0) }
func toDeg(rad float64) float64 { return rad * (180.0 / math.Pi) }

// HaversineDistanceKm returns the great-circle distance between two positions in kilometers.
func HaversineDistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(toRad(lat1))*math.Cos(toRad(lat2))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// DistanceKm is HaversineDistanceKm for Points.
func DistanceKm(p1, p2 Point) float64 {
	return HaversineDistanceKm(p1.Lat, p1.Lon, p2.Lat, p2.Lon)
}

// BearingDegrees returns the initial bearing from position 1 to position 2, in [0, 360).
func BearingDegrees(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := toRad(lat1)
	phi2 := toRad(lat2)
	dLon := toRad(lon2 - lon1)

	y := math.Sin(dLon) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) -
		math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLon)

	return NormalizeHeading(toDeg(math.Atan2(y, x)))
}

// Bearing is BearingDegrees for Points.
func Bearing(p1, p2 Point) float64 {
	return BearingDegrees(p1.Lat, p1.Lon, p2.Lat, p2.Lon)
}

// DestinationPoint projects from (lat, lon) along bearingDegrees for distanceKm
// and returns the resulting position.
func DestinationPoint(lat, lon, bearingDegrees, distanceKm float64) Point {
	phi1 := toRad(lat)
	lambda1 := toRad(lon)
	brng := toRad(bearingDegrees)
	delta := distanceKm / EarthRadiusKm

	phi2 := math.Asin(math.Sin(phi1)*math.Cos(delta) +
		math.Cos(phi1)*math.Sin(delta)*math.Cos(brng))
	lambda2 := lambda1 + math.Atan2(math.Sin(brng)*math.Sin(delta)*math.Cos(phi1),
		math.Cos(delta)-math.Sin(phi1)*math.Sin(phi2))

	return Point{
		Lat: toDeg(phi2),
		Lon: NormalizeAngle(toDeg(lambda2)),
	}
}

// AngularDifference returns the smallest angle between two headings, in [0, 180].
func AngularDifference(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	return math.Min(d, 360-d)
}

// VMG returns the component of speedKnots along targetBearingDegrees.
// Negative values mean the boat is moving away from the target.
func VMG(speedKnots, headingDegrees, targetBearingDegrees float64) float64 {
	return speedKnots * math.Cos(toRad(AngularDifference(headingDegrees, targetBearingDegrees)))
}

// NormalizeAngle normalizes an angle to the range [-180, 180].
func NormalizeAngle(angleDeg float64) float64 {
	for angleDeg > 180 {
		angleDeg -= 360
	}
	for angleDeg < -180 {
		angleDeg += 360
	}
	return angleDeg
}

// NormalizeHeading maps any angle into [0, 360).
func NormalizeHeading(deg float64) float64 {
	h := math.Mod(deg, 360)
	if h < 0 {
		h += 360
	}
	if h >= 360 {
		h = 0
	}
	return h
}
