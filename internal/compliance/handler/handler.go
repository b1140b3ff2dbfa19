// Package handler exposes the compliance engine over HTTP.
package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"zonecheck/internal/compliance"
	"zonecheck/internal/jurisdiction"
	dErrors "zonecheck/pkg/domain-errors"
	"zonecheck/pkg/platform/httputil"
	"zonecheck/pkg/requestcontext"
)

// Checker is the engine surface the handler drives. Satisfied by
// *compliance.Service; tests substitute fakes.
type Checker interface {
	Check(ctx context.Context, req compliance.CheckRequest) *compliance.Result
}

// Handler serves the compliance API.
type Handler struct {
	checker  Checker
	registry *jurisdiction.Registry
	logger   *slog.Logger
}

// New constructs the handler. Checker and registry are required.
func New(checker Checker, registry *jurisdiction.Registry, logger *slog.Logger) (*Handler, error) {
	if checker == nil {
		return nil, fmt.Errorf("compliance checker is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("jurisdiction registry is required")
	}
	return &Handler{checker: checker, registry: registry, logger: logger}, nil
}

// Register mounts the API routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/compliance/check", h.checkCompliance)
	r.Get("/jurisdictions", h.listJurisdictions)
}

func (h *Handler) checkCompliance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[checkComplianceRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	cfg, found := h.registry.Get(req.Jurisdiction)
	if !found {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("jurisdiction %q is not supported", req.Jurisdiction)))
		return
	}
	if req.District != "" && !cfg.HasDistrict(req.District) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("district %q is not a zoning district of %s", req.District, cfg.ID)))
		return
	}

	correlationID := req.CorrelationID
	if correlationID == "" {
		correlationID = requestcontext.CorrelationID(ctx)
	}

	result := h.checker.Check(ctx, compliance.CheckRequest{
		PropertyID:    req.PropertyID,
		Address:       req.Address,
		Jurisdiction:  req.Jurisdiction,
		ParcelID:      req.ParcelID,
		PropertyType:  req.PropertyType,
		CurrentUse:    req.CurrentUse,
		ProposedUse:   req.ProposedUse,
		District:      req.District,
		CorrelationID: correlationID,
	})

	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) listJurisdictions(w http.ResponseWriter, _ *http.Request) {
	configs := h.registry.List()
	out := make([]jurisdictionSummary, 0, len(configs))
	for _, cfg := range configs {
		out = append(out, jurisdictionSummary{
			ID:                 cfg.ID,
			Name:               cfg.Name,
			DistrictCodes:      cfg.DistrictCodes,
			FormBasedDistricts: cfg.FormBasedDistricts,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, listJurisdictionsResponse{Jurisdictions: out})
}
