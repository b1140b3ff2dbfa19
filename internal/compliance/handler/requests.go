package handler

import (
	dErrors "zonecheck/pkg/domain-errors"
)

// checkComplianceRequest is the wire shape of a compliance check. Dimensional
// property data is not accepted here; it comes from the property store so
// callers cannot fabricate measurements.
type checkComplianceRequest struct {
	PropertyID    string `json:"property_id"`
	Address       string `json:"address,omitempty"`
	Jurisdiction  string `json:"jurisdiction"`
	ParcelID      string `json:"parcel_id,omitempty"`
	District      string `json:"district,omitempty"`
	PropertyType  string `json:"property_type,omitempty"`
	CurrentUse    string `json:"current_use,omitempty"`
	ProposedUse   string `json:"proposed_use,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// Validate enforces the required request fields.
func (r checkComplianceRequest) Validate() error {
	if r.PropertyID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "property_id is required")
	}
	if r.Jurisdiction == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "jurisdiction is required")
	}
	return nil
}
