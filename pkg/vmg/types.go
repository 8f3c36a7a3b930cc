package vmg

import (
	"errors"
	"time"
)

// Errors returned by mark operations. No mark is created when one is returned.
var (
	ErrNoFix         = errors.New("no gps fix")
	ErrNoLeewardMark = errors.New("leeward mark not set")
	ErrInvalidInput  = errors.New("invalid distance or heading")
)

// Kind identifies a course mark.
type Kind string

const (
	KindLeeward  Kind = "leeward"
	KindWindward Kind = "windward"
)

// Leg is the mark the boat is currently sailing towards.
type Leg string

const (
	LegNone     Leg = ""
	LegWindward Leg = "windward"
	LegLeeward  Leg = "leeward"
)

// Waypoint is a course mark set by the sailor.
type Waypoint struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Kind      Kind      `json:"kind"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Timestamp time.Time `json:"timestamp"`
}

// Marks holds the course. Either mark may be nil.
type Marks struct {
	Leeward  *Waypoint `json:"leeward,omitempty"`
	Windward *Waypoint `json:"windward,omitempty"`
}

// Result is the VMG picture for the latest sample. Per-mark fields are zero
// when that mark is not set.
type Result struct {
	VMGToWindward         float64 `json:"vmg_to_windward"`
	VMGToLeeward          float64 `json:"vmg_to_leeward"`
	CurrentLeg            Leg     `json:"current_leg"`
	CurrentSpeedKnots     float64 `json:"current_speed_knots"`
	CurrentHeadingDegrees float64 `json:"current_heading_degrees"`
	BearingToWindward     float64 `json:"bearing_to_windward"`
	BearingToLeeward      float64 `json:"bearing_to_leeward"`
	DistanceToWindwardNm  float64 `json:"distance_to_windward_nm"`
	DistanceToLeewardNm   float64 `json:"distance_to_leeward_nm"`
}

// SailData is the GPS display projection.
type SailData struct {
	HasFix     bool     `json:"has_fix"`
	SpeedKnots *float64 `json:"speed_knots"`
	SpeedKmh   *float64 `json:"speed_kmh"`
	SpeedMs    *float64 `json:"speed_ms"`
	Heading    *float64 `json:"heading"`
	Compass    string   `json:"compass"`
	Accuracy   float64  `json:"accuracy"`
	DemoVMG    float64  `json:"demo_vmg"`
	Latitude   float64  `json:"latitude"`
	Longitude  float64  `json:"longitude"`
	Error      string   `json:"error,omitempty"`

	// GPSStatus is GPSActive once the fix carries speed or heading.
	GPSStatus   string `json:"gps_status"`
	HeadingHint string `json:"heading_hint,omitempty"`
}

const (
	GPSActive  = "ACTIVE"
	GPSLimited = "LIMITED"

	noHeadingHint = "No heading data available"
)
