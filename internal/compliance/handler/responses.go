package handler

// jurisdictionSummary is the public view of one supported jurisdiction.
// TTL and source URL stay internal.
type jurisdictionSummary struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name,omitempty"`
	DistrictCodes      []string `json:"district_codes"`
	FormBasedDistricts []string `json:"form_based_districts,omitempty"`
}

type listJurisdictionsResponse struct {
	Jurisdictions []jurisdictionSummary `json:"jurisdictions"`
}
