// Package ordinance turns raw ordinance text into structured zoning rules.
//
// Extraction is deterministic: identical input always yields an identical
// RuleSet and ambiguity signal. Anything the section grammar cannot account
// for is rejected as a parse failure, never repaired or guessed at.
package ordinance

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"zonecheck/internal/zoning"
)

// ErrParseFailed marks ordinance text whose structure could not be
// recognized or whose extracted values fail schema validation.
var ErrParseFailed = errors.New("ordinance parse failed")

var (
	districtHeaderRe = regexp.MustCompile(`(?mi)^\s*(?:SEC(?:TION)?\.?\s+([\d.\-]+)\s*[-–:.]?\s*)?DISTRICT\s+([A-Z]{1,3}-?\d*[A-Z]?)\s*(?:\(([^)]*)\))?\s*$`)

	usesRe = map[string]*regexp.Regexp{
		"by_right":    regexp.MustCompile(`(?mi)^\s*PERMITTED USES?\s*:\s*(.+)$`),
		"conditional": regexp.MustCompile(`(?mi)^\s*CONDITIONAL USES?\s*:\s*(.+)$`),
		"prohibited":  regexp.MustCompile(`(?mi)^\s*PROHIBITED USES?\s*:\s*(.+)$`),
	}

	numericRes = map[string]*regexp.Regexp{
		"min_lot_size":     regexp.MustCompile(`(?mi)^\s*MIN(?:IMUM)?\.?\s+LOT\s+(?:SIZE|AREA)\s*:\s*([\d,.]+)`),
		"min_lot_width":    regexp.MustCompile(`(?mi)^\s*MIN(?:IMUM)?\.?\s+LOT\s+WIDTH\s*:\s*([\d,.]+)`),
		"max_height":       regexp.MustCompile(`(?mi)^\s*MAX(?:IMUM)?\.?\s+(?:BUILDING\s+)?HEIGHT\s*:\s*([\d,.]+)`),
		"max_stories":      regexp.MustCompile(`(?mi)^\s*MAX(?:IMUM)?\.?\s+STORIES\s*:\s*(\d+)`),
		"max_lot_coverage": regexp.MustCompile(`(?mi)^\s*MAX(?:IMUM)?\.?\s+LOT\s+COVERAGE\s*:\s*([\d,.]+)`),
		"front_setback":    regexp.MustCompile(`(?mi)^\s*FRONT\s+SETBACK\s*:\s*([\d,.]+)`),
		"side_setback":     regexp.MustCompile(`(?mi)^\s*SIDE\s+SETBACK\s*:\s*([\d,.]+)`),
		"rear_setback":     regexp.MustCompile(`(?mi)^\s*REAR\s+SETBACK\s*:\s*([\d,.]+)`),
		"corner_setback":   regexp.MustCompile(`(?mi)^\s*CORNER\s+SETBACK\s*:\s*([\d,.]+)`),
		"max_density":      regexp.MustCompile(`(?mi)^\s*MAX(?:IMUM)?\.?\s+DENSITY\s*:\s*([\d,.]+)`),
		"parking":          regexp.MustCompile(`(?mi)^\s*PARKING\s*:\s*([\d,.]+)`),
	}

	formBasedRe = regexp.MustCompile(`(?i)FORM[\s-]BASED`)

	// Hedging phrases that weaken a standard into discretion. Counted per
	// district and fed to the confidence scorer.
	hedgingPhrases = []string{
		"may be permitted",
		"may be allowed",
		"at the discretion of",
		"as determined by",
		"subject to review",
		"subject to approval",
		"upon review",
	}
)

// Parser extracts rule sets from ordinance text.
type Parser struct{}

// NewParser returns the deterministic text parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse extracts a RuleSet for the jurisdiction from raw ordinance text.
// Fails with ErrParseFailed when no district sections are recognized or the
// extracted rules do not validate.
func (p *Parser) Parse(raw string, jurisdiction string) (*zoning.RuleSet, error) {
	headers := districtHeaderRe.FindAllStringSubmatchIndex(raw, -1)
	if len(headers) == 0 {
		return nil, fmt.Errorf("%w: no district sections found", ErrParseFailed)
	}

	rs := &zoning.RuleSet{
		Jurisdiction: jurisdiction,
		Districts:    make(map[string]zoning.DistrictRules, len(headers)),
	}

	for i, loc := range headers {
		end := len(raw)
		if i+1 < len(headers) {
			end = headers[i+1][0]
		}
		block := raw[loc[1]:end]

		section := submatch(raw, loc, 1)
		code := strings.ToUpper(submatch(raw, loc, 2))
		name := strings.TrimSpace(submatch(raw, loc, 3))

		district, err := p.parseDistrict(code, name, section, block)
		if err != nil {
			return nil, err
		}
		if _, dup := rs.Districts[code]; dup {
			return nil, fmt.Errorf("%w: duplicate district %s", ErrParseFailed, code)
		}
		rs.Districts[code] = district
	}

	if err := validate(rs); err != nil {
		return nil, err
	}
	return rs, nil
}

func (p *Parser) parseDistrict(code, name, section, block string) (zoning.DistrictRules, error) {
	d := zoning.DistrictRules{
		Code:      code,
		Name:      name,
		FormBased: formBasedRe.MatchString(name) || formBasedRe.MatchString(block),
	}
	if section != "" {
		d.Sections = []string{"§" + section}
	}

	for field, re := range usesRe {
		m := re.FindStringSubmatch(block)
		if m == nil {
			continue
		}
		uses := splitUses(m[1])
		switch field {
		case "by_right":
			d.Uses.ByRight = uses
		case "conditional":
			d.Uses.Conditional = uses
		case "prohibited":
			d.Uses.Prohibited = uses
		}
	}

	for field, re := range numericRes {
		m := re.FindStringSubmatch(block)
		if m == nil {
			continue
		}
		value, err := parseNumber(m[1])
		if err != nil {
			return d, fmt.Errorf("%w: district %s: bad %s value %q", ErrParseFailed, code, field, m[1])
		}
		switch field {
		case "min_lot_size":
			d.Standards.MinLotSizeSqFt = &value
		case "min_lot_width":
			d.Standards.MinLotWidthFt = &value
		case "max_height":
			d.Standards.MaxHeightFt = &value
		case "max_stories":
			stories := int(value)
			d.Standards.MaxStories = &stories
		case "max_lot_coverage":
			d.Standards.MaxLotCoveragePct = &value
		case "front_setback":
			d.Standards.Setbacks.FrontFt = &value
		case "side_setback":
			d.Standards.Setbacks.SideFt = &value
		case "rear_setback":
			d.Standards.Setbacks.RearFt = &value
		case "corner_setback":
			d.Standards.Setbacks.CornerFt = &value
		case "max_density":
			d.Standards.MaxDensityPerAcre = &value
		case "parking":
			d.Standards.ParkingPerUnit = &value
		}
	}

	d.AmbiguityCount = countHedging(block)
	return d, nil
}

// validate rejects rule sets that do not satisfy the schema. Extraction
// methods that post-process LLM output plug in here too: malformed results
// fail, they are never passed through.
func validate(rs *zoning.RuleSet) error {
	for code, d := range rs.Districts {
		if len(d.Uses.ByRight) == 0 && len(d.Uses.Conditional) == 0 && len(d.Uses.Prohibited) == 0 {
			return fmt.Errorf("%w: district %s has no use lists", ErrParseFailed, code)
		}
		for field, v := range map[string]*float64{
			"min lot size":     d.Standards.MinLotSizeSqFt,
			"min lot width":    d.Standards.MinLotWidthFt,
			"max height":       d.Standards.MaxHeightFt,
			"max lot coverage": d.Standards.MaxLotCoveragePct,
			"front setback":    d.Standards.Setbacks.FrontFt,
			"side setback":     d.Standards.Setbacks.SideFt,
			"rear setback":     d.Standards.Setbacks.RearFt,
			"corner setback":   d.Standards.Setbacks.CornerFt,
			"max density":      d.Standards.MaxDensityPerAcre,
			"parking":          d.Standards.ParkingPerUnit,
		} {
			if v != nil && *v < 0 {
				return fmt.Errorf("%w: district %s has negative %s", ErrParseFailed, code, field)
			}
		}
		if d.Standards.MaxLotCoveragePct != nil && *d.Standards.MaxLotCoveragePct > 100 {
			return fmt.Errorf("%w: district %s has lot coverage over 100%%", ErrParseFailed, code)
		}
		if d.Standards.MaxStories != nil && *d.Standards.MaxStories < 0 {
			return fmt.Errorf("%w: district %s has negative max stories", ErrParseFailed, code)
		}
	}
	return nil
}

func countHedging(block string) int {
	lower := strings.ToLower(block)
	count := 0
	for _, phrase := range hedgingPhrases {
		count += strings.Count(lower, phrase)
	}
	return count
}

func splitUses(list string) []string {
	parts := strings.Split(list, ",")
	uses := make([]string, 0, len(parts))
	for _, p := range parts {
		u := NormalizeUse(p)
		if u != "" {
			uses = append(uses, u)
		}
	}
	return uses
}

// NormalizeUse lowercases a use label and collapses separators so property
// uses and ordinance uses compare cleanly.
func NormalizeUse(use string) string {
	u := strings.ToLower(strings.TrimSpace(use))
	u = strings.ReplaceAll(u, "-", " ")
	u = strings.ReplaceAll(u, "_", " ")
	return strings.Join(strings.Fields(u), " ")
}

func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 64)
}

func submatch(raw string, loc []int, n int) string {
	start, end := loc[2*n], loc[2*n+1]
	if start < 0 {
		return ""
	}
	return raw[start:end]
}
