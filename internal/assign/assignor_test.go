package assign

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curb-service/internal/domain/curb"
	"curb-service/internal/geometry"
)

var frameTime = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

func zone(id string, zt curb.ZoneType, ring geometry.Ring) curb.Zone {
	return curb.Zone{ID: id, Type: zt, Polygon: ring}
}

func rect(x0, y0, x1, y1 float64) geometry.Ring {
	return geometry.Ring{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
}

func detection(id string, x0, y0, x1, y1 float64) curb.VehicleDetection {
	return curb.VehicleDetection{
		DetectionID: id,
		BBox:        curb.BoundingBox{XMin: x0, YMin: y0, XMax: x1, YMax: y1},
		VehicleType: curb.VehicleCar,
		Confidence:  0.9,
	}
}

func TestAssignInsideZone(t *testing.T) {
	a := NewAssignor(0.10)
	zones := []curb.Zone{zone("z1", curb.ZoneParking, rect(100, 300, 500, 500))}

	result := a.Assign([]curb.VehicleDetection{detection("d1", 150, 350, 250, 450)}, zones, frameTime)

	require.Len(t, result.Observations, 1)
	obs := result.Observations[0]
	require.NotNil(t, obs.AssignedZone)
	assert.Equal(t, "z1", obs.AssignedZone.ID)
	assert.InDelta(t, 1.0, obs.OverlapFraction, 1e-9)
	assert.Equal(t, frameTime, obs.TimestampUTC)
}

func TestAssignOutsideAllZones(t *testing.T) {
	a := NewAssignor(0.10)
	zones := []curb.Zone{zone("z1", curb.ZoneParking, rect(100, 300, 500, 500))}

	result := a.Assign([]curb.VehicleDetection{detection("d1", 600, 600, 700, 700)}, zones, frameTime)

	// Unzoned detections stay in the observation list with no assignment.
	require.Len(t, result.Observations, 1)
	assert.Nil(t, result.Observations[0].AssignedZone)
	assert.Zero(t, result.Observations[0].OverlapFraction)
}

func TestAssignBelowThresholdStaysUnzoned(t *testing.T) {
	a := NewAssignor(0.10)
	zones := []curb.Zone{zone("z1", curb.ZoneParking, rect(0, 0, 100, 100))}

	// 100x100 bbox with only a 5x100 sliver inside the zone: 5% overlap.
	result := a.Assign([]curb.VehicleDetection{detection("d1", 95, 0, 195, 100)}, zones, frameTime)

	require.Len(t, result.Observations, 1)
	assert.Nil(t, result.Observations[0].AssignedZone)
}

func TestAssignGreatestOverlapWins(t *testing.T) {
	a := NewAssignor(0.10)
	zones := []curb.Zone{
		zone("small", curb.ZoneBusLane, rect(0, 0, 60, 100)),
		zone("large", curb.ZoneParking, rect(0, 0, 100, 100)),
	}

	result := a.Assign([]curb.VehicleDetection{detection("d1", 0, 0, 100, 100)}, zones, frameTime)

	require.Len(t, result.Observations, 1)
	require.NotNil(t, result.Observations[0].AssignedZone)
	assert.Equal(t, "large", result.Observations[0].AssignedZone.ID)
}

func TestAssignTieBreaksToFirstListed(t *testing.T) {
	a := NewAssignor(0.10)
	ring := rect(0, 0, 100, 100)
	zones := []curb.Zone{
		zone("first", curb.ZoneParking, ring),
		zone("second", curb.ZoneNoParking, ring),
	}
	detections := []curb.VehicleDetection{detection("d1", 20, 20, 80, 80)}

	// Equal overlap must resolve identically across repeated runs.
	for i := 0; i < 25; i++ {
		result := a.Assign(detections, zones, frameTime)
		require.Len(t, result.Observations, 1)
		require.NotNil(t, result.Observations[0].AssignedZone)
		assert.Equal(t, "first", result.Observations[0].AssignedZone.ID)
	}
}

func TestAssignRejectsInvalidZones(t *testing.T) {
	a := NewAssignor(0.10)
	zones := []curb.Zone{
		zone("bad_points", curb.ZoneParking, geometry.Ring{{X: 0, Y: 0}, {X: 1, Y: 1}}),
		zone("bad_area", curb.ZoneParking, geometry.Ring{{X: 0, Y: 0}, {X: 5, Y: 5}, {X: 10, Y: 10}}),
		zone("bad_type", curb.ZoneType("sidewalk"), rect(0, 0, 100, 100)),
		zone("good", curb.ZoneParking, rect(0, 0, 100, 100)),
	}

	result := a.Assign([]curb.VehicleDetection{detection("d1", 20, 20, 80, 80)}, zones, frameTime)

	require.Len(t, result.RejectedZones, 3)
	rejected := make([]string, 0, 3)
	for _, ze := range result.RejectedZones {
		rejected = append(rejected, ze.ZoneID)
		assert.ErrorIs(t, ze.Err, curb.ErrValidation)
	}
	assert.ElementsMatch(t, []string{"bad_points", "bad_area", "bad_type"}, rejected)

	// The rest of the batch still processes against the valid zone.
	require.Len(t, result.Observations, 1)
	require.NotNil(t, result.Observations[0].AssignedZone)
	assert.Equal(t, "good", result.Observations[0].AssignedZone.ID)
}

func TestAssignDropsDegenerateDetections(t *testing.T) {
	a := NewAssignor(0.10)
	zones := []curb.Zone{zone("z1", curb.ZoneParking, rect(0, 0, 100, 100))}
	detections := []curb.VehicleDetection{
		detection("inverted", 80, 80, 20, 20),
		detection("flat", 20, 50, 80, 50),
		detection("good", 20, 20, 80, 80),
	}

	result := a.Assign(detections, zones, frameTime)

	require.Len(t, result.Warnings, 2)
	assert.Equal(t, 0, result.Warnings[0].Index)
	assert.Equal(t, "inverted", result.Warnings[0].DetectionID)
	assert.Equal(t, 1, result.Warnings[1].Index)

	require.Len(t, result.Observations, 1)
	assert.Equal(t, "good", result.Observations[0].Detection.DetectionID)
}

func TestAssignConvexZoneContainment(t *testing.T) {
	a := NewAssignor(0.10)
	diamond := geometry.Ring{{X: 50, Y: 0}, {X: 100, Y: 50}, {X: 50, Y: 100}, {X: 0, Y: 50}}
	zones := []curb.Zone{zone("diamond", curb.ZoneParking, diamond)}

	// Small box at the centre: fully interior.
	inside := a.Assign([]curb.VehicleDetection{detection("d1", 45, 45, 55, 55)}, zones, frameTime)
	require.NotNil(t, inside.Observations[0].AssignedZone)

	// Box in the corner of the bounding square, outside the diamond.
	outside := a.Assign([]curb.VehicleDetection{detection("d2", 0, 0, 10, 10)}, zones, frameTime)
	assert.Nil(t, outside.Observations[0].AssignedZone)
}
