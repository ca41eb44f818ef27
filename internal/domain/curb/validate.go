package curb

import (
	"errors"
	"fmt"
	"time"

	"curb-service/internal/geometry"
)

var (
	// ErrValidation marks structurally invalid input: bad geometry, unknown
	// enum values, out-of-range confidence. Legality outcomes are never
	// expressed as errors.
	ErrValidation = errors.New("validation error")
)

// validZoneTypes is derived once from AllZoneTypes for membership checks.
var validZoneTypes = func() map[ZoneType]struct{} {
	m := make(map[ZoneType]struct{}, len(AllZoneTypes))
	for _, zt := range AllZoneTypes {
		m[zt] = struct{}{}
	}
	return m
}()

var validVehicleTypes = func() map[VehicleType]struct{} {
	m := make(map[VehicleType]struct{}, len(AllVehicleTypes))
	for _, vt := range AllVehicleTypes {
		m[vt] = struct{}{}
	}
	return m
}()

// NewZone validates and constructs a Zone. It rejects unknown zone types,
// polygons with fewer than 3 distinct points, and polygons with zero area.
func NewZone(id string, zoneType ZoneType, polygon geometry.Ring) (Zone, error) {
	if id == "" {
		return Zone{}, fmt.Errorf("%w: zone id is required", ErrValidation)
	}
	if _, ok := validZoneTypes[zoneType]; !ok {
		return Zone{}, fmt.Errorf("%w: zone %s: unknown zone_type %q", ErrValidation, id, zoneType)
	}
	if err := ValidatePolygon(polygon); err != nil {
		return Zone{}, fmt.Errorf("zone %s: %w", id, err)
	}
	return Zone{ID: id, Type: zoneType, Polygon: polygon}, nil
}

// ValidateZone checks an already-constructed zone, e.g. one bound from a
// request body that bypassed NewZone.
func ValidateZone(z Zone) error {
	if z.ID == "" {
		return fmt.Errorf("%w: zone id is required", ErrValidation)
	}
	if _, ok := validZoneTypes[z.Type]; !ok {
		return fmt.Errorf("%w: unknown zone_type %q", ErrValidation, z.Type)
	}
	return ValidatePolygon(z.Polygon)
}

// ValidatePolygon checks the zone-polygon invariants: at least 3 distinct
// vertices and strictly positive area.
func ValidatePolygon(polygon geometry.Ring) error {
	distinct := make(map[geometry.Point]struct{}, len(polygon))
	for _, p := range polygon {
		distinct[p] = struct{}{}
	}
	if len(distinct) < 3 {
		return fmt.Errorf("%w: polygon needs at least 3 distinct points, got %d", ErrValidation, len(distinct))
	}
	if polygon.Area() <= 0 {
		return fmt.Errorf("%w: polygon has non-positive area", ErrValidation)
	}
	return nil
}

// NewDetection validates and constructs a VehicleDetection.
func NewDetection(id string, bbox BoundingBox, vehicleType VehicleType, confidence float64) (VehicleDetection, error) {
	if bbox.XMin >= bbox.XMax || bbox.YMin >= bbox.YMax {
		return VehicleDetection{}, fmt.Errorf("%w: detection %s: degenerate bounding box", ErrValidation, id)
	}
	if _, ok := validVehicleTypes[vehicleType]; !ok {
		return VehicleDetection{}, fmt.Errorf("%w: detection %s: unknown vehicle_type %q", ErrValidation, id, vehicleType)
	}
	if confidence < 0 || confidence > 1 {
		return VehicleDetection{}, fmt.Errorf("%w: detection %s: confidence %.3f out of [0,1]", ErrValidation, id, confidence)
	}
	return VehicleDetection{
		DetectionID: id,
		BBox:        bbox,
		VehicleType: vehicleType,
		Confidence:  confidence,
	}, nil
}

// NewTimeWindow parses a "HH:MM"–"HH:MM" pair into a TimeWindow. The end must
// be strictly after the start; windows wrapping midnight are rejected.
func NewTimeWindow(start, end string) (TimeWindow, error) {
	startMin, err := parseClock(start)
	if err != nil {
		return TimeWindow{}, err
	}
	endMin, err := parseClock(end)
	if err != nil {
		return TimeWindow{}, err
	}
	if endMin <= startMin {
		return TimeWindow{}, fmt.Errorf("%w: window end %s not after start %s", ErrValidation, end, start)
	}
	return TimeWindow{StartMinute: startMin, EndMinute: endMin}, nil
}

func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid clock time %q", ErrValidation, s)
	}
	return t.Hour()*60 + t.Minute(), nil
}
