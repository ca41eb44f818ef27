// Package analytics folds legality decisions into occupancy and violation
// summaries. Aggregation is a commutative, associative fold: the snapshot of
// a union of disjoint batches equals the element-wise sum of their snapshots.
package analytics

import "curb-service/internal/domain/curb"

// Aggregate folds a decision batch into a fresh snapshot. Unzoned and
// uncertain observations count toward occupancy totals but never toward
// violation counts.
func Aggregate(decisions []curb.LegalityDecision) curb.AnalyticsSnapshot {
	snapshot := emptySnapshot()

	for _, d := range decisions {
		snapshot.ObservationsTotal++
		snapshot.ObservationsByVehicleType[d.VehicleType]++
		if d.ZoneID != "" {
			snapshot.Occupancy[d.ZoneID]++
		}
		if d.Verdict != curb.VerdictIllegal {
			continue
		}
		snapshot.ViolationsTotal++
		if d.ZoneID != "" {
			snapshot.Violations[d.ZoneID]++
		}
		if d.ZoneType != "" {
			snapshot.ViolationsByZoneType[d.ZoneType]++
		}
		snapshot.ViolationsByVehicleType[d.VehicleType]++
		if d.Borough != "" {
			snapshot.ViolationsByBorough[d.Borough]++
		}
	}

	snapshot.ViolationRate = rate(snapshot.ViolationsTotal, snapshot.ObservationsTotal)
	return snapshot
}

// Merge returns the element-wise sum of two snapshots, recomputing the
// violation rate from the summed totals. Neither input is mutated.
func Merge(a, b curb.AnalyticsSnapshot) curb.AnalyticsSnapshot {
	out := emptySnapshot()

	for _, s := range []curb.AnalyticsSnapshot{a, b} {
		for k, v := range s.Occupancy {
			out.Occupancy[k] += v
		}
		for k, v := range s.Violations {
			out.Violations[k] += v
		}
		for k, v := range s.ViolationsByZoneType {
			out.ViolationsByZoneType[k] += v
		}
		for k, v := range s.ViolationsByVehicleType {
			out.ViolationsByVehicleType[k] += v
		}
		for k, v := range s.ViolationsByBorough {
			out.ViolationsByBorough[k] += v
		}
		for k, v := range s.ObservationsByVehicleType {
			out.ObservationsByVehicleType[k] += v
		}
		out.ObservationsTotal += s.ObservationsTotal
		out.ViolationsTotal += s.ViolationsTotal
	}

	out.ViolationRate = rate(out.ViolationsTotal, out.ObservationsTotal)
	return out
}

// rate divides by max(1, total) so empty batches report a zero rate instead
// of dividing by zero.
func rate(violations, total int) float64 {
	if total < 1 {
		total = 1
	}
	return float64(violations) / float64(total)
}

func emptySnapshot() curb.AnalyticsSnapshot {
	return curb.AnalyticsSnapshot{
		Occupancy:                 make(map[string]int),
		Violations:                make(map[string]int),
		ViolationsByZoneType:      make(map[curb.ZoneType]int),
		ViolationsByVehicleType:   make(map[curb.VehicleType]int),
		ViolationsByBorough:       make(map[curb.Borough]int),
		ObservationsByVehicleType: make(map[curb.VehicleType]int),
	}
}
