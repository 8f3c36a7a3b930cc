package vmg

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"sailtimer/pkg/geo"
	"sailtimer/pkg/gps"
)

// Course exports the marks, the line between them and the boat as GeoJSON.
func (c *Calculator) Course() *geojson.FeatureCollection {
	marks := c.Marks()
	sample, hasFix := c.Sample()
	var boat *gps.Sample
	if hasFix {
		boat = &sample
	}
	return CourseGeoJSON(marks, boat)
}

// CourseGeoJSON builds a FeatureCollection with one feature per mark, a
// "course" line when both marks are set, and a "boat" point for the fix.
func CourseGeoJSON(m Marks, boat *gps.Sample) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, wp := range []*Waypoint{m.Leeward, m.Windward} {
		if wp == nil {
			continue
		}
		f := geojson.NewFeature(geo.Point{Lat: wp.Lat, Lon: wp.Lon}.Orb())
		f.ID = wp.ID
		f.Properties["type"] = "mark"
		f.Properties["kind"] = string(wp.Kind)
		f.Properties["name"] = wp.Name
		f.Properties["timestamp"] = wp.Timestamp
		fc.Append(f)
	}

	if m.Leeward != nil && m.Windward != nil {
		a := geo.Point{Lat: m.Leeward.Lat, Lon: m.Leeward.Lon}
		b := geo.Point{Lat: m.Windward.Lat, Lon: m.Windward.Lon}
		f := geojson.NewFeature(orb.LineString{a.Orb(), b.Orb()})
		f.Properties["type"] = "course"
		f.Properties["length_nm"] = geo.KmToNauticalMiles(geo.DistanceKm(a, b))
		f.Properties["bearing"] = geo.Bearing(a, b)
		fc.Append(f)
	}

	if boat != nil {
		f := geojson.NewFeature(geo.Point{Lat: boat.Latitude, Lon: boat.Longitude}.Orb())
		f.Properties["type"] = "boat"
		f.Properties["accuracy"] = boat.Accuracy
		if boat.Speed != nil {
			f.Properties["speed_knots"] = geo.MetersPerSecondToKnots(*boat.Speed)
		}
		if boat.Heading != nil {
			f.Properties["heading"] = *boat.Heading
		}
		fc.Append(f)
	}

	return fc
}
