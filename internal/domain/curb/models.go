package curb

import (
	"time"

	"curb-service/internal/geometry"
)

// ZoneType enumerates the curb infrastructure categories a zone can carry.
type ZoneType string

const (
	ZoneParking       ZoneType = "parking"
	ZoneNoParking     ZoneType = "no_parking"
	ZoneBusLane       ZoneType = "bus_lane"
	ZoneBikeLane      ZoneType = "bike_lane"
	ZoneLoadingZone   ZoneType = "loading_zone"
	ZoneFireHydrant   ZoneType = "fire_hydrant"
	ZoneDoubleParking ZoneType = "double_parking"
	ZoneTravelLane    ZoneType = "travel_lane"
)

// AllZoneTypes lists every valid zone type; the rule policy must cover all of them.
var AllZoneTypes = []ZoneType{
	ZoneParking,
	ZoneNoParking,
	ZoneBusLane,
	ZoneBikeLane,
	ZoneLoadingZone,
	ZoneFireHydrant,
	ZoneDoubleParking,
	ZoneTravelLane,
}

// VehicleType enumerates detector class labels after mapping.
type VehicleType string

const (
	VehicleCar        VehicleType = "car"
	VehicleTruck      VehicleType = "truck"
	VehicleBus        VehicleType = "bus"
	VehicleMotorcycle VehicleType = "motorcycle"
	VehicleBicycle    VehicleType = "bicycle"
	VehicleCommercial VehicleType = "commercial"
)

var AllVehicleTypes = []VehicleType{
	VehicleCar,
	VehicleTruck,
	VehicleBus,
	VehicleMotorcycle,
	VehicleBicycle,
	VehicleCommercial,
}

// Borough enumerates the five NYC boroughs used for analytics grouping.
type Borough string

const (
	BoroughManhattan    Borough = "manhattan"
	BoroughBrooklyn     Borough = "brooklyn"
	BoroughQueens       Borough = "queens"
	BoroughBronx        Borough = "bronx"
	BoroughStatenIsland Borough = "staten_island"
)

// Verdict is the legality outcome of a single observation. "uncertain" is a
// first-class outcome, never an error.
type Verdict string

const (
	VerdictLegal     Verdict = "legal"
	VerdictIllegal   Verdict = "illegal"
	VerdictUncertain Verdict = "uncertain"
)

// Color is the display hint derived from a verdict.
type Color string

const (
	ColorGreen  Color = "green"
	ColorRed    Color = "red"
	ColorYellow Color = "yellow"
)

// ColorForVerdict maps a verdict to its display color. Pure; no other inputs.
func ColorForVerdict(v Verdict) Color {
	switch v {
	case VerdictLegal:
		return ColorGreen
	case VerdictIllegal:
		return ColorRed
	default:
		return ColorYellow
	}
}

// TimeWindow is a daily restriction window in minutes since midnight UTC.
// End is exclusive and must be after Start; windows do not wrap midnight.
type TimeWindow struct {
	StartMinute int `json:"start_minute"`
	EndMinute   int `json:"end_minute"`
}

// Contains reports whether the time of day of t (UTC) falls inside the window.
func (w TimeWindow) Contains(t time.Time) bool {
	utc := t.UTC()
	minute := utc.Hour()*60 + utc.Minute()
	return minute >= w.StartMinute && minute < w.EndMinute
}

// Zone is a polygonal curb region, either user-drawn or produced by the lane
// auto-segmentation step; both arrive structurally identical.
type Zone struct {
	ID                string        `json:"zone_id"`
	Type              ZoneType      `json:"zone_type"`
	Polygon           geometry.Ring `json:"polygon"`
	Label             string        `json:"label,omitempty"`
	Overnight         *TimeWindow   `json:"overnight_window,omitempty"`
	DwellLimitSeconds *int          `json:"dwell_limit_seconds,omitempty"`
}

// BoundingBox is a detector pixel-space box. Invariant: XMin<XMax, YMin<YMax.
type BoundingBox struct {
	XMin float64 `json:"x_min"`
	YMin float64 `json:"y_min"`
	XMax float64 `json:"x_max"`
	YMax float64 `json:"y_max"`
}

// Area returns the box area; non-positive for degenerate boxes.
func (b BoundingBox) Area() float64 {
	return (b.XMax - b.XMin) * (b.YMax - b.YMin)
}

// Ring returns the box as a closed clockwise ring for clipping.
func (b BoundingBox) Ring() geometry.Ring {
	return geometry.Ring{
		{X: b.XMin, Y: b.YMin},
		{X: b.XMax, Y: b.YMin},
		{X: b.XMax, Y: b.YMax},
		{X: b.XMin, Y: b.YMax},
	}
}

// VehicleDetection is one detector output for a frame. Read-only input.
type VehicleDetection struct {
	DetectionID string      `json:"detection_id"`
	BBox        BoundingBox `json:"bbox"`
	VehicleType VehicleType `json:"vehicle_type"`
	Confidence  float64     `json:"confidence"`
	// Externally supplied temporal signals; not computed here.
	DwellSeconds   int  `json:"dwell_seconds,omitempty"`
	IsDoubleParked bool `json:"is_double_parked,omitempty"`
}

// VehicleObservation is a detection after spatial assignment to at most one
// zone. Created by the assignor; immutable thereafter.
type VehicleObservation struct {
	Detection       VehicleDetection `json:"detection"`
	AssignedZone    *Zone            `json:"assigned_zone,omitempty"`
	OverlapFraction float64          `json:"overlap_fraction"`
	TimestampUTC    time.Time        `json:"timestamp_utc"`
}

// LegalityDecision is the rules-engine output for one observation.
type LegalityDecision struct {
	DetectionID string      `json:"detection_id"`
	ZoneID      string      `json:"zone_id,omitempty"`
	ZoneType    ZoneType    `json:"zone_type,omitempty"`
	VehicleType VehicleType `json:"vehicle_type"`
	Borough     Borough     `json:"borough,omitempty"`
	Verdict     Verdict     `json:"verdict"`
	Reason      string      `json:"reason"`
	Color       Color       `json:"color"`
}

// FrameContext is per-frame metadata passed through unchanged into decisions
// and analytics grouping.
type FrameContext struct {
	FrameID      string    `json:"frame_id"`
	CameraID     string    `json:"camera_id"`
	TimestampUTC time.Time `json:"timestamp_utc"`
	Borough      Borough   `json:"borough"`
	SegmentID    string    `json:"segment_id"`
}

// AnalyticsSnapshot is the aggregate summary for one evaluated batch.
// Not mutated after creation; Merge produces a new snapshot.
type AnalyticsSnapshot struct {
	Occupancy                 map[string]int      `json:"occupancy"`
	Violations                map[string]int      `json:"violations"`
	ViolationsByZoneType      map[ZoneType]int    `json:"violations_by_zone_type"`
	ViolationsByVehicleType   map[VehicleType]int `json:"violations_by_vehicle_type"`
	ViolationsByBorough       map[Borough]int     `json:"violations_by_borough"`
	ObservationsByVehicleType map[VehicleType]int `json:"observations_by_vehicle_type"`
	ObservationsTotal         int                 `json:"observations_total"`
	ViolationsTotal           int                 `json:"violations_total"`
	ViolationRate             float64             `json:"violation_rate"`
}
