// Package assign maps vehicle detections onto curb zones by polygon overlap.
package assign

import (
	"fmt"
	"time"

	"curb-service/internal/domain/curb"
	"curb-service/internal/geometry"
)

// ZoneError records a structurally invalid zone that was rejected from the
// batch. The rest of the batch still processes.
type ZoneError struct {
	ZoneID string `json:"zone_id"`
	Err    error  `json:"-"`
	Detail string `json:"detail"`
}

func (e ZoneError) Error() string {
	return fmt.Sprintf("zone %s rejected: %v", e.ZoneID, e.Err)
}

// DetectionWarning records a malformed detection dropped from the observation
// list. Dropping is non-fatal; the caller sees which input was rejected.
type DetectionWarning struct {
	Index       int    `json:"index"`
	DetectionID string `json:"detection_id"`
	Detail      string `json:"detail"`
}

// Result is the assignor output: the observation list plus everything that
// was rejected or dropped along the way.
type Result struct {
	Observations  []curb.VehicleObservation
	RejectedZones []ZoneError
	Warnings      []DetectionWarning
}

// Assignor assigns detections to zones using intersection-area overlap.
type Assignor struct {
	overlapThreshold float64
}

// NewAssignor returns an assignor with the given minimum overlap fraction.
// Detections whose best overlap does not exceed the threshold stay unzoned,
// which guards against incidental edge-touching.
func NewAssignor(overlapThreshold float64) *Assignor {
	return &Assignor{overlapThreshold: overlapThreshold}
}

// Assign maps each detection to at most one zone. The zone with the greatest
// overlap fraction wins; exact ties break to the first-listed zone. Zone
// validity is checked up front so a bad polygon rejects only that zone.
func (a *Assignor) Assign(detections []curb.VehicleDetection, zones []curb.Zone, timestamp time.Time) Result {
	result := Result{
		Observations: make([]curb.VehicleObservation, 0, len(detections)),
	}

	valid := make([]*curb.Zone, 0, len(zones))
	for i := range zones {
		if err := curb.ValidateZone(zones[i]); err != nil {
			result.RejectedZones = append(result.RejectedZones, ZoneError{
				ZoneID: zones[i].ID,
				Err:    err,
				Detail: err.Error(),
			})
			continue
		}
		valid = append(valid, &zones[i])
	}

	for i, det := range detections {
		area := det.BBox.Area()
		if det.BBox.XMin >= det.BBox.XMax || det.BBox.YMin >= det.BBox.YMax || area <= 0 {
			result.Warnings = append(result.Warnings, DetectionWarning{
				Index:       i,
				DetectionID: det.DetectionID,
				Detail:      "degenerate bounding box",
			})
			continue
		}

		bboxRing := det.BBox.Ring()
		var best *curb.Zone
		bestFraction := 0.0
		for _, zone := range valid {
			fraction := geometry.IntersectionArea(zone.Polygon, bboxRing) / area
			if fraction <= a.overlapThreshold {
				continue
			}
			// Strict greater-than keeps the first-listed zone on exact ties.
			if fraction > bestFraction {
				best = zone
				bestFraction = fraction
			}
		}

		obs := curb.VehicleObservation{
			Detection:    det,
			TimestampUTC: timestamp,
		}
		if best != nil {
			obs.AssignedZone = best
			obs.OverlapFraction = bestFraction
		}
		result.Observations = append(result.Observations, obs)
	}

	return result
}
