// Package zoning defines the structured rule model produced by ordinance
// parsing and consumed by compliance evaluation.
package zoning

import (
	"sort"
	"time"
)

// UsePermission classifies how a district treats a particular use.
type UsePermission string

const (
	UseByRight     UsePermission = "by_right"
	UseConditional UsePermission = "conditional"
	UseProhibited  UsePermission = "prohibited"
	UseUnlisted    UsePermission = "unlisted"
)

// AllowedUses lists a district's use treatment. Uses are stored in the
// normalized lowercase form the parser emits.
type AllowedUses struct {
	ByRight     []string `json:"by_right"`
	Conditional []string `json:"conditional"`
	Prohibited  []string `json:"prohibited"`
}

// Classify returns how the district treats the given (normalized) use.
func (a AllowedUses) Classify(use string) UsePermission {
	if containsUse(a.ByRight, use) {
		return UseByRight
	}
	if containsUse(a.Conditional, use) {
		return UseConditional
	}
	if containsUse(a.Prohibited, use) {
		return UseProhibited
	}
	return UseUnlisted
}

func containsUse(uses []string, use string) bool {
	for _, u := range uses {
		if u == use {
			return true
		}
	}
	return false
}

// Setbacks holds required minimum setbacks in feet. Nil means the ordinance
// sets no standard for that side.
type Setbacks struct {
	FrontFt  *float64 `json:"front_ft,omitempty"`
	SideFt   *float64 `json:"side_ft,omitempty"`
	RearFt   *float64 `json:"rear_ft,omitempty"`
	CornerFt *float64 `json:"corner_ft,omitempty"`
}

// DimensionalStandards holds the numeric limits for a district. Nil fields
// mean the ordinance imposes no such standard; checks against them are
// skipped entirely.
type DimensionalStandards struct {
	MinLotSizeSqFt    *float64 `json:"min_lot_size_sqft,omitempty"`
	MinLotWidthFt     *float64 `json:"min_lot_width_ft,omitempty"`
	MaxHeightFt       *float64 `json:"max_height_ft,omitempty"`
	MaxStories        *int     `json:"max_stories,omitempty"`
	MaxLotCoveragePct *float64 `json:"max_lot_coverage_pct,omitempty"`
	Setbacks          Setbacks `json:"setbacks"`
	MaxDensityPerAcre *float64 `json:"max_density_per_acre,omitempty"`
	ParkingPerUnit    *float64 `json:"parking_per_unit,omitempty"`
}

// DistrictRules is the parsed rule set for one zoning district.
type DistrictRules struct {
	Code      string               `json:"code"`
	Name      string               `json:"name,omitempty"`
	FormBased bool                 `json:"form_based,omitempty"`
	Uses      AllowedUses          `json:"uses"`
	Standards DimensionalStandards `json:"standards"`

	// AmbiguityCount is the number of hedging phrases the parser found in
	// this district's ordinance text. Carried inside the rule set so it
	// survives the cache round-trip.
	AmbiguityCount int `json:"ambiguity_count,omitempty"`

	// Sections are the ordinance section references this district's rules
	// were extracted from.
	Sections []string `json:"sections,omitempty"`
}

// RuleSet is the parsed zoning code for one jurisdiction. Produced only by
// the ordinance parser; never hand-edited.
type RuleSet struct {
	Jurisdiction string                   `json:"jurisdiction"`
	Districts    map[string]DistrictRules `json:"districts"`
	UpdatedAt    time.Time                `json:"updated_at,omitempty"`
}

// District returns the rules for a district code, if present.
func (rs *RuleSet) District(code string) (DistrictRules, bool) {
	d, ok := rs.Districts[code]
	return d, ok
}

// SectionRefs collects the ordinance section references across all districts,
// sorted so callers see a stable order.
func (rs *RuleSet) SectionRefs() []string {
	var refs []string
	seen := make(map[string]struct{})
	for _, d := range rs.Districts {
		for _, s := range d.Sections {
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			refs = append(refs, s)
		}
	}
	sort.Strings(refs)
	return refs
}
