package ordinance

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/suite"
)

const sampleOrdinance = `
ZONING CODE OF SPRINGFIELD

SEC. 4.01 - DISTRICT R-1 (Single-Family Residential)
PERMITTED USES: Single-Family Dwelling, Park
CONDITIONAL USES: School, Church
PROHIBITED USES: Industrial
MIN LOT SIZE: 7,200
MIN LOT WIDTH: 60
MAX HEIGHT: 35
MAX STORIES: 2
MAX LOT COVERAGE: 40
FRONT SETBACK: 25
SIDE SETBACK: 7.5
REAR SETBACK: 20
MAX DENSITY: 6
PARKING: 2

SEC. 4.02 - DISTRICT C-2 (General Commercial)
PERMITTED USES: Retail, Office, Restaurant
CONDITIONAL USES: Drive-Through
PROHIBITED USES: Heavy Industrial
MAX HEIGHT: 50
FRONT SETBACK: 10
Outdoor seating may be permitted at the discretion of the zoning administrator.

SEC. 4.03 - DISTRICT FB-1 (Form-Based Mixed Use)
PERMITTED USES: Mixed-Use, Retail, Residential
MAX HEIGHT: 60
`

type ParserSuite struct {
	suite.Suite
	parser *Parser
}

func TestParserSuite(t *testing.T) {
	suite.Run(t, new(ParserSuite))
}

func (s *ParserSuite) SetupTest() {
	s.parser = NewParser()
}

func (s *ParserSuite) TestParseDistricts() {
	rs, err := s.parser.Parse(sampleOrdinance, "springfield")
	s.Require().NoError(err)
	s.Equal("springfield", rs.Jurisdiction)
	s.Len(rs.Districts, 3)

	r1, ok := rs.District("R-1")
	s.Require().True(ok)
	s.Equal("Single-Family Residential", r1.Name)
	s.Equal([]string{"single family dwelling", "park"}, r1.Uses.ByRight)
	s.Equal([]string{"school", "church"}, r1.Uses.Conditional)
	s.Equal([]string{"industrial"}, r1.Uses.Prohibited)

	s.Require().NotNil(r1.Standards.MinLotSizeSqFt)
	s.InDelta(7200, *r1.Standards.MinLotSizeSqFt, 0.001)
	s.Require().NotNil(r1.Standards.Setbacks.FrontFt)
	s.InDelta(25, *r1.Standards.Setbacks.FrontFt, 0.001)
	s.Require().NotNil(r1.Standards.Setbacks.SideFt)
	s.InDelta(7.5, *r1.Standards.Setbacks.SideFt, 0.001)
	s.Require().NotNil(r1.Standards.MaxStories)
	s.Equal(2, *r1.Standards.MaxStories)
	s.Nil(r1.Standards.Setbacks.CornerFt)
	s.Equal([]string{"§4.01"}, r1.Sections)
	s.False(r1.FormBased)
}

func (s *ParserSuite) TestAmbiguitySignal() {
	rs, err := s.parser.Parse(sampleOrdinance, "springfield")
	s.Require().NoError(err)

	r1, _ := rs.District("R-1")
	s.Zero(r1.AmbiguityCount, "R-1 text carries no hedging language")

	c2, _ := rs.District("C-2")
	s.Equal(2, c2.AmbiguityCount, "C-2 hedges twice: 'may be permitted' and 'at the discretion of'")
}

func (s *ParserSuite) TestFormBasedFlag() {
	rs, err := s.parser.Parse(sampleOrdinance, "springfield")
	s.Require().NoError(err)

	fb, ok := rs.District("FB-1")
	s.Require().True(ok)
	s.True(fb.FormBased)
}

func (s *ParserSuite) TestDeterminism() {
	first, err := s.parser.Parse(sampleOrdinance, "springfield")
	s.Require().NoError(err)
	second, err := s.parser.Parse(sampleOrdinance, "springfield")
	s.Require().NoError(err)
	s.Equal(first, second)
	s.Equal(first.SectionRefs(), second.SectionRefs())
}

func (s *ParserSuite) TestParseFailures() {
	s.Run("no district sections", func() {
		_, err := s.parser.Parse("this is prose with no structure at all", "springfield")
		s.Require().ErrorIs(err, ErrParseFailed)
	})

	s.Run("empty input", func() {
		_, err := s.parser.Parse("", "springfield")
		s.Require().ErrorIs(err, ErrParseFailed)
	})

	s.Run("district without use lists", func() {
		raw := "DISTRICT R-1 (Residential)\nMAX HEIGHT: 35\n"
		_, err := s.parser.Parse(raw, "springfield")
		s.Require().ErrorIs(err, ErrParseFailed)
	})

	s.Run("duplicate district", func() {
		raw := "DISTRICT R-1\nPERMITTED USES: park\n\nDISTRICT R-1\nPERMITTED USES: school\n"
		_, err := s.parser.Parse(raw, "springfield")
		s.Require().ErrorIs(err, ErrParseFailed)
	})

	s.Run("lot coverage over 100 percent", func() {
		raw := "DISTRICT R-1\nPERMITTED USES: park\nMAX LOT COVERAGE: 140\n"
		_, err := s.parser.Parse(raw, "springfield")
		s.Require().ErrorIs(err, ErrParseFailed)
	})
}

func TestNormalizeUse(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Single-Family Dwelling", "single family dwelling"},
		{"single_family_dwelling", "single family dwelling"},
		{"  Retail  ", "retail"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeUse(tt.in); got != tt.want {
			t.Errorf("NormalizeUse(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// FuzzParse checks the parser's two hard guarantees on arbitrary text: it
// never panics, and identical input always yields an identical outcome.
func FuzzParse(f *testing.F) {
	f.Add(sampleOrdinance)
	f.Add("DISTRICT R-1\nPERMITTED USES: park")
	f.Add("SEC. 1.1 - DISTRICT C-2\nPERMITTED USES: retail\nMAX HEIGHT: -5")
	f.Add("no districts here at all")
	f.Add("DISTRICT R-1\nPERMITTED USES: park\nMAX LOT COVERAGE: 140")

	f.Fuzz(func(t *testing.T, raw string) {
		p := NewParser()

		first, err1 := p.Parse(raw, "springfield")
		second, err2 := p.Parse(raw, "springfield")

		if (err1 == nil) != (err2 == nil) {
			t.Fatalf("nondeterministic parse outcome: %v vs %v", err1, err2)
		}
		if err1 != nil {
			if !errors.Is(err1, ErrParseFailed) {
				t.Fatalf("parse failures must carry ErrParseFailed, got %v", err1)
			}
			return
		}
		if !reflect.DeepEqual(first, second) {
			t.Fatal("identical input produced different rule sets")
		}
	})
}
