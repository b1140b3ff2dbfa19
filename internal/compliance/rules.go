package compliance

import (
	"fmt"

	"zonecheck/internal/property"
	"zonecheck/internal/zoning"
	"zonecheck/internal/zoning/ordinance"
)

// Evaluation is the outcome of running every rule check for one property
// against one district's rules.
type Evaluation struct {
	Violations       []Violation
	RequiresVariance bool

	// MissingFields names the property attributes that were unknown, each of
	// which skipped a check and costs confidence.
	MissingFields []string
}

// EvaluateProperty applies every rule category and returns the full
// violation list. This is pure domain logic - no I/O, no side effects.
// Checks are never short-circuited: the caller gets every violation, not
// just the first. A check whose property attribute is unknown is skipped
// and the attribute reported as missing; skipping is neither a pass nor a
// fail.
func EvaluateProperty(record property.Record, rules zoning.DistrictRules, formBased bool) Evaluation {
	var eval Evaluation
	formBased = formBased || rules.FormBased
	ref := codeReference(rules)

	evaluateUse(&eval, record, rules, ref)

	// Dimensional checks. Severity policy: setbacks are MAJOR; height, lot
	// size and parking are MAJOR; form-based districts downgrade every
	// dimensional violation to MINOR regardless of magnitude.
	dims := []struct {
		field    string
		actual   *float64
		required *float64
		vtype    ViolationType
		check    func(actual, required float64) bool
		describe func(actual, required float64) (desc, current, want string)
	}{
		{
			field: "front_setback_ft", actual: record.FrontSetbackFt, required: rules.Standards.Setbacks.FrontFt,
			vtype: ViolationSetback, check: atLeast,
			describe: minDescriber("front setback", "ft"),
		},
		{
			field: "side_setback_ft", actual: record.SideSetbackFt, required: rules.Standards.Setbacks.SideFt,
			vtype: ViolationSetback, check: atLeast,
			describe: minDescriber("side setback", "ft"),
		},
		{
			field: "rear_setback_ft", actual: record.RearSetbackFt, required: rules.Standards.Setbacks.RearFt,
			vtype: ViolationSetback, check: atLeast,
			describe: minDescriber("rear setback", "ft"),
		},
		{
			field: "corner_setback_ft", actual: record.CornerSetbackFt, required: rules.Standards.Setbacks.CornerFt,
			vtype: ViolationSetback, check: atLeast,
			describe: minDescriber("corner setback", "ft"),
		},
		{
			field: "height_ft", actual: record.HeightFt, required: rules.Standards.MaxHeightFt,
			vtype: ViolationHeight, check: atMost,
			describe: maxDescriber("building height", "ft"),
		},
		{
			field: "lot_size_sqft", actual: record.LotSizeSqFt, required: rules.Standards.MinLotSizeSqFt,
			vtype: ViolationLotSize, check: atLeast,
			describe: minDescriber("lot size", "sq ft"),
		},
		{
			field: "lot_width_ft", actual: record.LotWidthFt, required: rules.Standards.MinLotWidthFt,
			vtype: ViolationLotSize, check: atLeast,
			describe: minDescriber("lot width", "ft"),
		},
		{
			field: "lot_coverage_pct", actual: record.LotCoveragePct, required: rules.Standards.MaxLotCoveragePct,
			vtype: ViolationLotSize, check: atMost,
			describe: maxDescriber("lot coverage", "%"),
		},
		{
			field: "parking_spaces", actual: record.ParkingSpaces, required: rules.Standards.ParkingPerUnit,
			vtype: ViolationParking, check: atLeast,
			describe: minDescriber("parking spaces", "spaces"),
		},
		{
			field: "density_per_acre", actual: record.DensityPerAcre, required: rules.Standards.MaxDensityPerAcre,
			vtype: ViolationDensity, check: atMost,
			describe: maxDescriber("density", "units/acre"),
		},
	}

	for _, dim := range dims {
		if dim.required == nil {
			// The ordinance sets no standard; nothing to check.
			continue
		}
		if dim.actual == nil {
			eval.MissingFields = append(eval.MissingFields, dim.field)
			continue
		}
		if dim.check(*dim.actual, *dim.required) {
			continue
		}
		severity := SeverityMajor
		if formBased {
			severity = SeverityMinor
		}
		desc, current, want := dim.describe(*dim.actual, *dim.required)
		eval.Violations = append(eval.Violations, Violation{
			Type:          dim.vtype,
			Severity:      severity,
			Description:   desc,
			CodeReference: ref,
			CurrentValue:  current,
			RequiredValue: want,
		})
	}

	// Stories are checked separately since the attribute is integral.
	if rules.Standards.MaxStories != nil {
		if record.Stories == nil {
			eval.MissingFields = append(eval.MissingFields, "stories")
		} else if *record.Stories > *rules.Standards.MaxStories {
			severity := SeverityMajor
			if formBased {
				severity = SeverityMinor
			}
			eval.Violations = append(eval.Violations, Violation{
				Type:          ViolationHeight,
				Severity:      severity,
				Description:   fmt.Sprintf("building has %d stories, maximum is %d", *record.Stories, *rules.Standards.MaxStories),
				CodeReference: ref,
				CurrentValue:  fmt.Sprintf("%d stories", *record.Stories),
				RequiredValue: fmt.Sprintf("max %d stories", *rules.Standards.MaxStories),
			})
		}
	}

	return eval
}

func evaluateUse(eval *Evaluation, record property.Record, rules zoning.DistrictRules, ref string) {
	use := ordinance.NormalizeUse(record.EvaluatedUse())
	if use == "" {
		eval.MissingFields = append(eval.MissingFields, "use")
		return
	}

	switch rules.Uses.Classify(use) {
	case zoning.UseByRight:
		// Permitted outright.
	case zoning.UseConditional:
		// Not a violation, but the use needs discretionary approval.
		eval.RequiresVariance = true
	case zoning.UseProhibited:
		eval.Violations = append(eval.Violations, Violation{
			Type:          ViolationUse,
			Severity:      SeverityCritical,
			Description:   fmt.Sprintf("use %q is prohibited in district %s", use, rules.Code),
			CodeReference: ref,
			CurrentValue:  use,
			RequiredValue: "a permitted or conditional use",
		})
	case zoning.UseUnlisted:
		eval.Violations = append(eval.Violations, Violation{
			Type:          ViolationUse,
			Severity:      SeverityCritical,
			Description:   fmt.Sprintf("use %q is not an allowed use in district %s", use, rules.Code),
			CodeReference: ref,
			CurrentValue:  use,
			RequiredValue: "a permitted or conditional use",
		})
	}
}

func atLeast(actual, required float64) bool { return actual >= required }
func atMost(actual, required float64) bool  { return actual <= required }

func minDescriber(label, unit string) func(actual, required float64) (string, string, string) {
	return func(actual, required float64) (string, string, string) {
		return fmt.Sprintf("%s of %g %s is below the required minimum of %g %s", label, actual, unit, required, unit),
			fmt.Sprintf("%g %s", actual, unit),
			fmt.Sprintf("min %g %s", required, unit)
	}
}

func maxDescriber(label, unit string) func(actual, required float64) (string, string, string) {
	return func(actual, required float64) (string, string, string) {
		return fmt.Sprintf("%s of %g %s exceeds the maximum of %g %s", label, actual, unit, required, unit),
			fmt.Sprintf("%g %s", actual, unit),
			fmt.Sprintf("max %g %s", required, unit)
	}
}

func codeReference(rules zoning.DistrictRules) string {
	if len(rules.Sections) > 0 {
		return rules.Sections[0]
	}
	return ""
}
