// Package rules holds the legality policy table and the evaluator that
// applies it to zone-assigned vehicle observations.
package rules

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"curb-service/internal/domain/curb"
)

// ErrConfig marks a malformed or incomplete rule policy. Policy problems are
// fatal at startup; there is no partial load.
var ErrConfig = errors.New("rule policy config error")

const (
	DefaultConfidenceThreshold = 0.35
	DefaultOverlapThreshold    = 0.10
)

// ZoneRule is the validated policy for one zone type.
type ZoneRule struct {
	AlwaysIllegal     bool
	Permitted         map[curb.VehicleType]struct{}
	Overnight         *curb.TimeWindow
	DwellLimitSeconds *int
}

// Permits reports whether the rule allows the given vehicle type. Rules with
// no permitted list permit every vehicle type.
func (r ZoneRule) Permits(vt curb.VehicleType) bool {
	if len(r.Permitted) == 0 {
		return true
	}
	_, ok := r.Permitted[vt]
	return ok
}

// RuleTable is the immutable, loaded-once legality policy. It is shared
// read-only across concurrent evaluations and never mutated after load.
type RuleTable struct {
	rules               map[curb.ZoneType]ZoneRule
	ConfidenceThreshold float64
	OverlapThreshold    float64
}

// Rule returns the policy entry for a zone type. Loading guarantees every
// valid zone type has an entry.
func (t *RuleTable) Rule(zt curb.ZoneType) (ZoneRule, bool) {
	r, ok := t.rules[zt]
	return r, ok
}

// policyFile mirrors the on-disk YAML layout.
type policyFile struct {
	ConfidenceThreshold *float64                 `yaml:"confidence_threshold"`
	OverlapThreshold    *float64                 `yaml:"overlap_threshold"`
	ZoneRules           map[string]zoneRuleEntry `yaml:"zone_rules"`
}

type zoneRuleEntry struct {
	AlwaysIllegal     bool             `yaml:"always_illegal"`
	PermittedVehicles []string         `yaml:"permitted_vehicles"`
	OvernightWindow   *timeWindowEntry `yaml:"overnight_window"`
	DwellLimitSeconds *int             `yaml:"dwell_limit_seconds"`
}

type timeWindowEntry struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// LoadPolicy reads and validates the rule policy YAML at path. Any missing
// zone type, unknown vehicle type, malformed window, or out-of-range value
// fails the load; the process must not start on a partial policy.
//
// The document is decoded directly rather than through viper: viper's
// flattened key store drops map entries whose value is an empty map, and
// `travel_lane: {}` is a valid rule entry.
func LoadPolicy(path string) (*RuleTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrConfig, path, err)
	}

	var file policyFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrConfig, path, err)
	}
	return buildTable(file)
}

func buildTable(file policyFile) (*RuleTable, error) {
	table := &RuleTable{
		rules:               make(map[curb.ZoneType]ZoneRule, len(curb.AllZoneTypes)),
		ConfidenceThreshold: DefaultConfidenceThreshold,
		OverlapThreshold:    DefaultOverlapThreshold,
	}

	if file.ConfidenceThreshold != nil {
		if *file.ConfidenceThreshold < 0 || *file.ConfidenceThreshold > 1 {
			return nil, fmt.Errorf("%w: confidence_threshold %.3f out of [0,1]", ErrConfig, *file.ConfidenceThreshold)
		}
		table.ConfidenceThreshold = *file.ConfidenceThreshold
	}
	if file.OverlapThreshold != nil {
		if *file.OverlapThreshold < 0 || *file.OverlapThreshold > 1 {
			return nil, fmt.Errorf("%w: overlap_threshold %.3f out of [0,1]", ErrConfig, *file.OverlapThreshold)
		}
		table.OverlapThreshold = *file.OverlapThreshold
	}

	for _, zt := range curb.AllZoneTypes {
		entry, ok := file.ZoneRules[string(zt)]
		if !ok {
			return nil, fmt.Errorf("%w: zone_rules missing required zone type %q", ErrConfig, zt)
		}
		rule, err := buildRule(zt, entry)
		if err != nil {
			return nil, err
		}
		table.rules[zt] = rule
	}

	for name := range file.ZoneRules {
		if _, err := zoneTypeOf(name); err != nil {
			return nil, fmt.Errorf("%w: zone_rules has unknown zone type %q", ErrConfig, name)
		}
	}

	return table, nil
}

func buildRule(zt curb.ZoneType, entry zoneRuleEntry) (ZoneRule, error) {
	rule := ZoneRule{AlwaysIllegal: entry.AlwaysIllegal}

	if len(entry.PermittedVehicles) > 0 {
		rule.Permitted = make(map[curb.VehicleType]struct{}, len(entry.PermittedVehicles))
		for _, name := range entry.PermittedVehicles {
			vt, err := vehicleTypeOf(name)
			if err != nil {
				return ZoneRule{}, fmt.Errorf("%w: zone type %q: %v", ErrConfig, zt, err)
			}
			rule.Permitted[vt] = struct{}{}
		}
	}

	if entry.OvernightWindow != nil {
		window, err := curb.NewTimeWindow(entry.OvernightWindow.Start, entry.OvernightWindow.End)
		if err != nil {
			return ZoneRule{}, fmt.Errorf("%w: zone type %q overnight_window: %v", ErrConfig, zt, err)
		}
		rule.Overnight = &window
	}

	if entry.DwellLimitSeconds != nil {
		if *entry.DwellLimitSeconds < 0 {
			return ZoneRule{}, fmt.Errorf("%w: zone type %q: negative dwell_limit_seconds", ErrConfig, zt)
		}
		rule.DwellLimitSeconds = entry.DwellLimitSeconds
	}

	return rule, nil
}

func zoneTypeOf(name string) (curb.ZoneType, error) {
	for _, zt := range curb.AllZoneTypes {
		if string(zt) == name {
			return zt, nil
		}
	}
	return "", fmt.Errorf("unknown zone type %q", name)
}

func vehicleTypeOf(name string) (curb.VehicleType, error) {
	for _, vt := range curb.AllVehicleTypes {
		if string(vt) == name {
			return vt, nil
		}
	}
	return "", fmt.Errorf("unknown vehicle type %q", name)
}
