package compliance

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"zonecheck/internal/property"
	"zonecheck/internal/zoning"
)

func intPtr(v int) *int { return &v }

func fullStandardsRules() zoning.DistrictRules {
	return zoning.DistrictRules{
		Code: "R-1",
		Uses: zoning.AllowedUses{
			ByRight:     []string{"single family residential"},
			Conditional: []string{"home daycare"},
			Prohibited:  []string{"industrial"},
		},
		Standards: zoning.DimensionalStandards{
			MinLotSizeSqFt:    floatPtr(6000),
			MinLotWidthFt:     floatPtr(50),
			MaxHeightFt:       floatPtr(35),
			MaxStories:        intPtr(2),
			MaxLotCoveragePct: floatPtr(40),
			Setbacks: zoning.Setbacks{
				FrontFt: floatPtr(25),
				SideFt:  floatPtr(10),
				RearFt:  floatPtr(20),
			},
			ParkingPerUnit: floatPtr(2),
		},
		Sections: []string{"§4.01", "§4.02"},
	}
}

func conformingRecord() property.Record {
	return property.Record{
		ID:             "prop-1",
		District:       "R-1",
		CurrentUse:     "Single Family Residential",
		LotSizeSqFt:    floatPtr(8000),
		LotWidthFt:     floatPtr(60),
		HeightFt:       floatPtr(28),
		Stories:        intPtr(2),
		LotCoveragePct: floatPtr(30),
		FrontSetbackFt: floatPtr(30),
		SideSetbackFt:  floatPtr(12),
		RearSetbackFt:  floatPtr(25),
		ParkingSpaces:  floatPtr(2),
	}
}

type RulesSuite struct {
	suite.Suite
}

func TestRulesSuite(t *testing.T) {
	suite.Run(t, new(RulesSuite))
}

func (s *RulesSuite) TestConformingProperty() {
	eval := EvaluateProperty(conformingRecord(), fullStandardsRules(), false)

	s.Empty(eval.Violations)
	s.False(eval.RequiresVariance)
	s.Empty(eval.MissingFields)
}

func (s *RulesSuite) TestEveryViolationReported() {
	record := conformingRecord()
	record.LotSizeSqFt = floatPtr(4000)
	record.HeightFt = floatPtr(40)
	record.FrontSetbackFt = floatPtr(10)
	record.ProposedUse = "Industrial"

	eval := EvaluateProperty(record, fullStandardsRules(), false)

	s.Len(eval.Violations, 4, "checks never short-circuit on the first failure")

	types := map[ViolationType]int{}
	for _, v := range eval.Violations {
		types[v.Type]++
	}
	s.Equal(1, types[ViolationUse])
	s.Equal(1, types[ViolationLotSize])
	s.Equal(1, types[ViolationHeight])
	s.Equal(1, types[ViolationSetback])
}

func (s *RulesSuite) TestUseClassification() {
	cases := []struct {
		name         string
		use          string
		violations   int
		severity     Severity
		needVariance bool
	}{
		{name: "by right", use: "single family residential", violations: 0},
		{name: "by right denormalized", use: "Single-Family_Residential", violations: 0},
		{name: "conditional", use: "home daycare", violations: 0, needVariance: true},
		{name: "prohibited", use: "industrial", violations: 1, severity: SeverityCritical},
		{name: "unlisted", use: "helipad", violations: 1, severity: SeverityCritical},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			record := conformingRecord()
			record.CurrentUse = tc.use

			eval := EvaluateProperty(record, fullStandardsRules(), false)

			s.Len(eval.Violations, tc.violations)
			s.Equal(tc.needVariance, eval.RequiresVariance)
			if tc.violations > 0 {
				s.Equal(ViolationUse, eval.Violations[0].Type)
				s.Equal(tc.severity, eval.Violations[0].Severity)
			}
		})
	}
}

func (s *RulesSuite) TestUnknownAttributesSkipChecks() {
	record := conformingRecord()
	record.HeightFt = nil
	record.ParkingSpaces = nil
	record.Stories = nil

	eval := EvaluateProperty(record, fullStandardsRules(), false)

	s.Empty(eval.Violations, "a skipped check is neither a pass nor a fail")
	s.ElementsMatch([]string{"height_ft", "parking_spaces", "stories"}, eval.MissingFields)
}

func (s *RulesSuite) TestNoStandardMeansNoCheck() {
	rules := fullStandardsRules()
	rules.Standards = zoning.DimensionalStandards{}

	record := conformingRecord()
	record.HeightFt = floatPtr(500)

	eval := EvaluateProperty(record, rules, false)

	s.Empty(eval.Violations)
	s.Empty(eval.MissingFields, "absent standards are not missing property data")
}

func (s *RulesSuite) TestStoriesViolationMapsToHeight() {
	record := conformingRecord()
	record.Stories = intPtr(4)

	eval := EvaluateProperty(record, fullStandardsRules(), false)

	s.Require().Len(eval.Violations, 1)
	s.Equal(ViolationHeight, eval.Violations[0].Type)
	s.Equal(SeverityMajor, eval.Violations[0].Severity)
}

func (s *RulesSuite) TestFormBasedDowngradesDimensional() {
	record := conformingRecord()
	record.HeightFt = floatPtr(50)
	record.FrontSetbackFt = floatPtr(5)
	record.ProposedUse = "Industrial"

	eval := EvaluateProperty(record, fullStandardsRules(), true)

	s.Require().Len(eval.Violations, 3)
	for _, v := range eval.Violations {
		if v.Type == ViolationUse {
			s.Equal(SeverityCritical, v.Severity, "use violations keep their severity in form-based districts")
			continue
		}
		s.Equal(SeverityMinor, v.Severity)
	}
}

func (s *RulesSuite) TestFormBasedFlagOnRules() {
	rules := fullStandardsRules()
	rules.FormBased = true

	record := conformingRecord()
	record.HeightFt = floatPtr(50)

	eval := EvaluateProperty(record, rules, false)

	s.Require().Len(eval.Violations, 1)
	s.Equal(SeverityMinor, eval.Violations[0].Severity)
}

func (s *RulesSuite) TestCodeReferenceFromSections() {
	record := conformingRecord()
	record.HeightFt = floatPtr(50)

	eval := EvaluateProperty(record, fullStandardsRules(), false)

	s.Require().Len(eval.Violations, 1)
	s.Equal("§4.01", eval.Violations[0].CodeReference)
}

func (s *RulesSuite) TestProposedUseTakesPrecedence() {
	record := conformingRecord()
	record.CurrentUse = "industrial"
	record.ProposedUse = "single family residential"

	eval := EvaluateProperty(record, fullStandardsRules(), false)

	s.Empty(eval.Violations, "the proposed use is what gets judged")
}

func (s *RulesSuite) TestDeterministic() {
	record := conformingRecord()
	record.LotSizeSqFt = floatPtr(4000)
	record.HeightFt = nil

	first := EvaluateProperty(record, fullStandardsRules(), false)
	second := EvaluateProperty(record, fullStandardsRules(), false)

	s.Equal(first, second)
}
