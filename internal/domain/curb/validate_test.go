package curb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curb-service/internal/geometry"
)

func TestNewZone(t *testing.T) {
	polygon := geometry.Ring{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}}

	zone, err := NewZone("z1", ZoneParking, polygon)
	require.NoError(t, err)
	assert.Equal(t, "z1", zone.ID)
	assert.Equal(t, ZoneParking, zone.Type)
}

func TestNewZoneRejectsBadInput(t *testing.T) {
	goodPolygon := geometry.Ring{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}}

	tests := []struct {
		name     string
		id       string
		zoneType ZoneType
		polygon  geometry.Ring
	}{
		{"missing id", "", ZoneParking, goodPolygon},
		{"unknown zone type", "z1", ZoneType("sidewalk"), goodPolygon},
		{"too few points", "z1", ZoneParking, geometry.Ring{{X: 0, Y: 0}, {X: 1, Y: 1}}},
		{"duplicate points", "z1", ZoneParking, geometry.Ring{{X: 0, Y: 0}, {X: 0, Y: 0}, {X: 1, Y: 1}}},
		{"zero area", "z1", ZoneParking, geometry.Ring{{X: 0, Y: 0}, {X: 5, Y: 5}, {X: 10, Y: 10}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewZone(tt.id, tt.zoneType, tt.polygon)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestNewDetection(t *testing.T) {
	bbox := BoundingBox{XMin: 150, YMin: 350, XMax: 250, YMax: 450}

	det, err := NewDetection("d1", bbox, VehicleCar, 0.9)
	require.NoError(t, err)
	assert.Equal(t, VehicleCar, det.VehicleType)
	assert.InDelta(t, 10000.0, det.BBox.Area(), 1e-9)
}

func TestNewDetectionRejectsBadInput(t *testing.T) {
	good := BoundingBox{XMin: 0, YMin: 0, XMax: 10, YMax: 10}

	tests := []struct {
		name        string
		bbox        BoundingBox
		vehicleType VehicleType
		confidence  float64
	}{
		{"inverted x", BoundingBox{XMin: 10, YMin: 0, XMax: 0, YMax: 10}, VehicleCar, 0.9},
		{"zero height", BoundingBox{XMin: 0, YMin: 5, XMax: 10, YMax: 5}, VehicleCar, 0.9},
		{"unknown vehicle type", good, VehicleType("tram"), 0.9},
		{"confidence above one", good, VehicleCar, 1.1},
		{"negative confidence", good, VehicleCar, -0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDetection("d1", tt.bbox, tt.vehicleType, tt.confidence)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestNewTimeWindow(t *testing.T) {
	window, err := NewTimeWindow("02:00", "06:00")
	require.NoError(t, err)
	assert.Equal(t, 120, window.StartMinute)
	assert.Equal(t, 360, window.EndMinute)

	inside := time.Date(2026, 1, 15, 3, 0, 0, 0, time.UTC)
	outside := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	assert.True(t, window.Contains(inside))
	assert.False(t, window.Contains(outside))

	// End is exclusive, start inclusive.
	assert.True(t, window.Contains(time.Date(2026, 1, 15, 2, 0, 0, 0, time.UTC)))
	assert.False(t, window.Contains(time.Date(2026, 1, 15, 6, 0, 0, 0, time.UTC)))
}

func TestNewTimeWindowRejectsMalformed(t *testing.T) {
	_, err := NewTimeWindow("06:00", "02:00")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewTimeWindow("02:00", "02:00")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewTimeWindow("25:00", "26:00")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestColorForVerdict(t *testing.T) {
	assert.Equal(t, ColorGreen, ColorForVerdict(VerdictLegal))
	assert.Equal(t, ColorRed, ColorForVerdict(VerdictIllegal))
	assert.Equal(t, ColorYellow, ColorForVerdict(VerdictUncertain))
}
