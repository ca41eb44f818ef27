package rules

import "curb-service/internal/domain/curb"

// Reason codes carried on decisions. Machine-readable; the rendering layer
// shows them verbatim.
const (
	ReasonAlwaysIllegalZone    = "always_illegal_zone"
	ReasonNoStandingTravelLane = "no_standing_travel_lane"
	ReasonNonBusInBusLane      = "non_bus_in_bus_lane"
	ReasonAuthorizedBus        = "authorized_bus"
	ReasonMotorVehicleBikeLane = "motor_vehicle_in_bike_lane"
	ReasonAuthorizedBicycle    = "authorized_bicycle"
	ReasonNonCommercialLoading = "non_commercial_in_loading_zone"
	ReasonAuthorizedCommercial = "authorized_commercial"
	ReasonDoubleParked         = "double_parked"
	ReasonOvernightRestriction = "overnight_restriction"
	ReasonDwellExceeded        = "dwell_exceeded"
	ReasonStandardParking      = "standard_parking"
	ReasonUnzonedDetection     = "unzoned_detection"
	ReasonLowConfidence        = "low_confidence_detection"
)

// Evaluator applies a RuleTable to zone-assigned observations. Evaluation is
// pure and deterministic: only the observation's own timestamp is consulted,
// never the wall clock.
type Evaluator struct {
	table *RuleTable
}

// NewEvaluator returns an evaluator over the given immutable rule table.
func NewEvaluator(table *RuleTable) *Evaluator {
	return &Evaluator{table: table}
}

// Evaluate produces the legality decision for one observation. Precedence is
// fixed in this order regardless of policy file ordering: absolute zone rules
// dominate conditional ones, and the confidence gate overrides everything
// because the underlying classification itself is unreliable.
func (e *Evaluator) Evaluate(obs curb.VehicleObservation, frame curb.FrameContext) curb.LegalityDecision {
	verdict, reason := e.verdictFor(obs)

	if obs.Detection.Confidence < e.table.ConfidenceThreshold {
		verdict, reason = curb.VerdictUncertain, ReasonLowConfidence
	}

	decision := curb.LegalityDecision{
		DetectionID: obs.Detection.DetectionID,
		VehicleType: obs.Detection.VehicleType,
		Borough:     frame.Borough,
		Verdict:     verdict,
		Reason:      reason,
		Color:       curb.ColorForVerdict(verdict),
	}
	if obs.AssignedZone != nil {
		decision.ZoneID = obs.AssignedZone.ID
		decision.ZoneType = obs.AssignedZone.Type
	}
	return decision
}

func (e *Evaluator) verdictFor(obs curb.VehicleObservation) (curb.Verdict, string) {
	zone := obs.AssignedZone
	if zone == nil {
		return curb.VerdictUncertain, ReasonUnzonedDetection
	}

	rule, ok := e.table.Rule(zone.Type)
	if !ok {
		// Loading guarantees coverage of every zone type; an unknown type on
		// a zone is caught by validation before evaluation.
		return curb.VerdictUncertain, ReasonUnzonedDetection
	}

	vt := obs.Detection.VehicleType

	switch {
	case rule.AlwaysIllegal:
		return curb.VerdictIllegal, ReasonAlwaysIllegalZone

	case zone.Type == curb.ZoneTravelLane:
		return curb.VerdictIllegal, ReasonNoStandingTravelLane

	case zone.Type == curb.ZoneBusLane:
		if rule.Permits(vt) {
			return curb.VerdictLegal, ReasonAuthorizedBus
		}
		return curb.VerdictIllegal, ReasonNonBusInBusLane

	case zone.Type == curb.ZoneBikeLane:
		if rule.Permits(vt) {
			return curb.VerdictLegal, ReasonAuthorizedBicycle
		}
		return curb.VerdictIllegal, ReasonMotorVehicleBikeLane

	case zone.Type == curb.ZoneLoadingZone:
		if rule.Permits(vt) {
			return curb.VerdictLegal, ReasonAuthorizedCommercial
		}
		return curb.VerdictIllegal, ReasonNonCommercialLoading

	case zone.Type == curb.ZoneParking:
		return e.parkingVerdict(obs, zone, rule)
	}

	// Remaining zone types without an absolute flag behave as parking.
	return e.parkingVerdict(obs, zone, rule)
}

// parkingVerdict layers the temporal parking exceptions: double parking, the
// overnight restriction window, then the dwell limit. Zone-level metadata
// overrides the policy default for that zone type.
func (e *Evaluator) parkingVerdict(obs curb.VehicleObservation, zone *curb.Zone, rule ZoneRule) (curb.Verdict, string) {
	if obs.Detection.IsDoubleParked {
		return curb.VerdictIllegal, ReasonDoubleParked
	}

	window := rule.Overnight
	if zone.Overnight != nil {
		window = zone.Overnight
	}
	if window != nil && !obs.TimestampUTC.IsZero() && window.Contains(obs.TimestampUTC) {
		return curb.VerdictIllegal, ReasonOvernightRestriction
	}

	limit := rule.DwellLimitSeconds
	if zone.DwellLimitSeconds != nil {
		limit = zone.DwellLimitSeconds
	}
	if limit != nil && obs.Detection.DwellSeconds > *limit {
		return curb.VerdictIllegal, ReasonDwellExceeded
	}

	return curb.VerdictLegal, ReasonStandardParking
}
