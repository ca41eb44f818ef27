package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"curb-service/internal/domain/curb"
)

func decision(zoneID string, zt curb.ZoneType, vt curb.VehicleType, verdict curb.Verdict, borough curb.Borough) curb.LegalityDecision {
	return curb.LegalityDecision{
		DetectionID: "d",
		ZoneID:      zoneID,
		ZoneType:    zt,
		VehicleType: vt,
		Borough:     borough,
		Verdict:     verdict,
		Color:       curb.ColorForVerdict(verdict),
	}
}

func sampleBatch() []curb.LegalityDecision {
	return []curb.LegalityDecision{
		decision("z1", curb.ZoneParking, curb.VehicleCar, curb.VerdictLegal, curb.BoroughManhattan),
		decision("z1", curb.ZoneParking, curb.VehicleTruck, curb.VerdictIllegal, curb.BoroughManhattan),
		decision("z2", curb.ZoneBusLane, curb.VehicleCar, curb.VerdictIllegal, curb.BoroughBrooklyn),
		decision("z2", curb.ZoneBusLane, curb.VehicleBus, curb.VerdictLegal, curb.BoroughBrooklyn),
		decision("", "", curb.VehicleMotorcycle, curb.VerdictUncertain, curb.BoroughQueens),
	}
}

func TestAggregateCounts(t *testing.T) {
	snapshot := Aggregate(sampleBatch())

	assert.Equal(t, 5, snapshot.ObservationsTotal)
	assert.Equal(t, 2, snapshot.ViolationsTotal)
	assert.InDelta(t, 0.4, snapshot.ViolationRate, 1e-9)

	assert.Equal(t, 2, snapshot.Occupancy["z1"])
	assert.Equal(t, 2, snapshot.Occupancy["z2"])
	assert.NotContains(t, snapshot.Occupancy, "")

	assert.Equal(t, 1, snapshot.Violations["z1"])
	assert.Equal(t, 1, snapshot.Violations["z2"])
	assert.Equal(t, 1, snapshot.ViolationsByZoneType[curb.ZoneParking])
	assert.Equal(t, 1, snapshot.ViolationsByZoneType[curb.ZoneBusLane])
	assert.Equal(t, 1, snapshot.ViolationsByVehicleType[curb.VehicleTruck])
	assert.Equal(t, 1, snapshot.ViolationsByVehicleType[curb.VehicleCar])
	assert.Equal(t, 1, snapshot.ViolationsByBorough[curb.BoroughManhattan])
	assert.Equal(t, 1, snapshot.ViolationsByBorough[curb.BoroughBrooklyn])

	assert.Equal(t, 2, snapshot.ObservationsByVehicleType[curb.VehicleCar])
	assert.Equal(t, 1, snapshot.ObservationsByVehicleType[curb.VehicleMotorcycle])
}

func TestAggregateUncertainNeverCountsAsViolation(t *testing.T) {
	decisions := []curb.LegalityDecision{
		decision("z1", curb.ZoneParking, curb.VehicleCar, curb.VerdictUncertain, curb.BoroughBronx),
		decision("", "", curb.VehicleCar, curb.VerdictUncertain, curb.BoroughBronx),
	}

	snapshot := Aggregate(decisions)

	assert.Equal(t, 2, snapshot.ObservationsTotal)
	assert.Equal(t, 0, snapshot.ViolationsTotal)
	assert.Equal(t, 1, snapshot.Occupancy["z1"])
	assert.Empty(t, snapshot.Violations)
	assert.Zero(t, snapshot.ViolationRate)
}

func TestAggregateEmptyBatch(t *testing.T) {
	snapshot := Aggregate(nil)

	assert.Equal(t, 0, snapshot.ObservationsTotal)
	assert.Equal(t, 0, snapshot.ViolationsTotal)
	// Division guarded by max(1, total).
	assert.Zero(t, snapshot.ViolationRate)
}

// aggregate(A ∪ B) must equal Merge(aggregate(A), aggregate(B)) field by
// field, with the rate matching within floating tolerance.
func TestAggregateAdditivity(t *testing.T) {
	batchA := sampleBatch()
	batchB := []curb.LegalityDecision{
		decision("z3", curb.ZoneBikeLane, curb.VehicleCar, curb.VerdictIllegal, curb.BoroughStatenIsland),
		decision("z1", curb.ZoneParking, curb.VehicleCar, curb.VerdictLegal, curb.BoroughManhattan),
		decision("z4", curb.ZoneFireHydrant, curb.VehicleCommercial, curb.VerdictIllegal, curb.BoroughQueens),
	}

	combined := Aggregate(append(append([]curb.LegalityDecision{}, batchA...), batchB...))
	merged := Merge(Aggregate(batchA), Aggregate(batchB))

	assert.Equal(t, combined.ObservationsTotal, merged.ObservationsTotal)
	assert.Equal(t, combined.ViolationsTotal, merged.ViolationsTotal)
	assert.Equal(t, combined.Occupancy, merged.Occupancy)
	assert.Equal(t, combined.Violations, merged.Violations)
	assert.Equal(t, combined.ViolationsByZoneType, merged.ViolationsByZoneType)
	assert.Equal(t, combined.ViolationsByVehicleType, merged.ViolationsByVehicleType)
	assert.Equal(t, combined.ViolationsByBorough, merged.ViolationsByBorough)
	assert.Equal(t, combined.ObservationsByVehicleType, merged.ObservationsByVehicleType)
	assert.InDelta(t, combined.ViolationRate, merged.ViolationRate, 1e-9)
}

func TestMergeCommutative(t *testing.T) {
	a := Aggregate(sampleBatch())
	b := Aggregate([]curb.LegalityDecision{
		decision("z9", curb.ZoneTravelLane, curb.VehicleBus, curb.VerdictIllegal, curb.BoroughBronx),
	})

	assert.Equal(t, Merge(a, b), Merge(b, a))
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	a := Aggregate(sampleBatch())
	before := a.Occupancy["z1"]

	_ = Merge(a, a)
	assert.Equal(t, before, a.Occupancy["z1"])
}
