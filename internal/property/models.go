// Package property holds parcel records and the store port the compliance
// engine reads them from.
package property

// Record is what is known about one property. Dimensional fields are
// pointers: nil means the attribute is unknown, which skips the matching
// compliance check and reduces confidence instead.
type Record struct {
	ID           string `json:"id"`
	Address      string `json:"address,omitempty"`
	ParcelID     string `json:"parcel_id,omitempty"`
	Jurisdiction string `json:"jurisdiction"`
	District     string `json:"district"`
	PropertyType string `json:"property_type,omitempty"`
	CurrentUse   string `json:"current_use,omitempty"`
	ProposedUse  string `json:"proposed_use,omitempty"`

	LotSizeSqFt     *float64 `json:"lot_size_sqft,omitempty"`
	LotWidthFt      *float64 `json:"lot_width_ft,omitempty"`
	HeightFt        *float64 `json:"height_ft,omitempty"`
	Stories         *int     `json:"stories,omitempty"`
	LotCoveragePct  *float64 `json:"lot_coverage_pct,omitempty"`
	FrontSetbackFt  *float64 `json:"front_setback_ft,omitempty"`
	SideSetbackFt   *float64 `json:"side_setback_ft,omitempty"`
	RearSetbackFt   *float64 `json:"rear_setback_ft,omitempty"`
	CornerSetbackFt *float64 `json:"corner_setback_ft,omitempty"`
	ParkingSpaces   *float64 `json:"parking_spaces,omitempty"`
	DensityPerAcre  *float64 `json:"density_per_acre,omitempty"`

	// Edge-case flags; any of these reduces confidence.
	OverlayDistrict bool `json:"overlay_district,omitempty"`
	Grandfathered   bool `json:"grandfathered,omitempty"`
}

// EvaluatedUse returns the use a compliance check should judge: the proposed
// use when one is given, otherwise the current use.
func (r Record) EvaluatedUse() string {
	if r.ProposedUse != "" {
		return r.ProposedUse
	}
	return r.CurrentUse
}

// HasEdgeCase reports whether any edge-case flag is set.
func (r Record) HasEdgeCase() bool {
	return r.OverlayDistrict || r.Grandfathered
}
