// Package compliance decides whether a property's use complies with its
// jurisdiction's zoning code. The orchestrator sequences cache lookup,
// fetch+parse, evaluation, and confidence scoring; the rules and the scorer
// are pure functions so the numeric contracts stay independently testable.
package compliance

import (
	"fmt"
	"time"

	"zonecheck/internal/jurisdiction"
	dErrors "zonecheck/pkg/domain-errors"
)

// Status is the overall compliance verdict.
type Status string

const (
	StatusCompliant    Status = "COMPLIANT"
	StatusNonCompliant Status = "NON_COMPLIANT"
	StatusUnknown      Status = "UNKNOWN"
	StatusManualReview Status = "MANUAL_REVIEW"
)

// DataSource records where the rule set that backed a result came from.
type DataSource string

const (
	// SourceFresh: rules fetched and parsed during this request.
	SourceFresh DataSource = "fresh"
	// SourceCache: a cache entry within its TTL.
	SourceCache DataSource = "cache"
	// SourceExpiredCache: a cache entry past its TTL, used because a fresh
	// fetch or parse failed.
	SourceExpiredCache DataSource = "expired_cache"
	// SourceManualReview: no rule data was available at all.
	SourceManualReview DataSource = "manual_review"
)

// ViolationType categorizes a violation. Stories map to height and lot
// coverage maps to lot_size so the category set stays closed for consumers.
type ViolationType string

const (
	ViolationUse     ViolationType = "use"
	ViolationSetback ViolationType = "setback"
	ViolationHeight  ViolationType = "height"
	ViolationLotSize ViolationType = "lot_size"
	ViolationParking ViolationType = "parking"
	ViolationDensity ViolationType = "density"
)

// Severity ranks a violation.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityMajor    Severity = "MAJOR"
	SeverityMinor    Severity = "MINOR"
)

// Violation is one specific way the property fails the district's rules.
type Violation struct {
	Type          ViolationType `json:"type"`
	Severity      Severity      `json:"severity"`
	Description   string        `json:"description"`
	CodeReference string        `json:"code_reference,omitempty"`
	CurrentValue  string        `json:"current_value,omitempty"`
	RequiredValue string        `json:"required_value,omitempty"`
}

// CheckRequest is the engine's invocation contract input.
type CheckRequest struct {
	PropertyID    string
	Address       string
	Jurisdiction  string
	ParcelID      string
	PropertyType  string
	CurrentUse    string
	ProposedUse   string
	District      string
	CorrelationID string
}

// Validate enforces the request invariants the engine cannot degrade around.
func (r CheckRequest) Validate() error {
	if r.PropertyID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "property_id is required")
	}
	if r.Jurisdiction == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "jurisdiction is required")
	}
	return nil
}

// Result is the engine's invocation contract output. Every code path
// produces one; the engine never raises to its caller.
type Result struct {
	Success              bool                 `json:"success"`
	Status               Status               `json:"compliance_status"`
	ZoningDistrict       string               `json:"zoning_district,omitempty"`
	AllowedUses          []string             `json:"allowed_uses,omitempty"`
	Violations           []Violation          `json:"violations"`
	Confidence           int                  `json:"confidence_score"`
	RequiresVariance     bool                 `json:"requires_variance"`
	OrdinanceSections    []string             `json:"ordinance_sections,omitempty"`
	OrdinanceLastUpdated *time.Time           `json:"ordinance_last_updated,omitempty"`
	DataSource           DataSource           `json:"data_source"`
	CacheHit             bool                 `json:"cache_hit"`
	ExecutionTimeMS      int64                `json:"execution_time_ms"`
	CostUSD              float64              `json:"cost_usd"`
	Jurisdiction         *jurisdiction.Config `json:"jurisdiction_config,omitempty"`
}

// Invariants checks the structural contracts every result must satisfy.
// Violating any of these is a programming error, so the service asserts them
// in tests rather than at runtime.
func (r *Result) Invariants() error {
	if r.Confidence < 0 || r.Confidence > 100 {
		return fmt.Errorf("confidence %d outside [0,100]", r.Confidence)
	}
	if (len(r.Violations) == 0) != (r.Status == StatusCompliant) && r.Status != StatusManualReview && r.Status != StatusUnknown {
		return fmt.Errorf("violations/status mismatch: %d violations with status %s", len(r.Violations), r.Status)
	}
	if (r.Status == StatusManualReview) != (r.Confidence == 0) {
		return fmt.Errorf("manual review/confidence mismatch: status %s with confidence %d", r.Status, r.Confidence)
	}
	return nil
}
