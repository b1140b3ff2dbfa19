package compliance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"zonecheck/internal/compliance/audit"
	"zonecheck/internal/compliance/metrics"
	"zonecheck/internal/jurisdiction"
	"zonecheck/internal/property"
	"zonecheck/internal/ruleset/cache"
	"zonecheck/internal/zoning"
	"zonecheck/internal/zoning/ordinance"
	"zonecheck/pkg/platform/sentinel"
	"zonecheck/pkg/requestcontext"
)

// Parser turns raw ordinance text into a rule set. Satisfied by
// ordinance.Parser; tests substitute fakes.
type Parser interface {
	Parse(raw string, jurisdiction string) (*zoning.RuleSet, error)
}

// Service is the compliance orchestrator. It sequences cache lookup,
// fetch+parse, evaluation, and scoring, and guarantees that every request
// gets a valid Result: failures degrade the data source and confidence, they
// never surface as errors.
type Service struct {
	registry   *jurisdiction.Registry
	cache      cache.Store
	fetcher    ordinance.Fetcher
	parser     Parser
	properties property.Store

	weights        Weights
	fetchWaitBound time.Duration
	fetchCostUSD   float64

	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   *audit.Publisher
	tracer  trace.Tracer

	// flights collapses concurrent fetches per jurisdiction: at most one
	// in-flight fetch per key, everyone else waits or falls back.
	flights singleflight.Group
}

// Option configures optional service dependencies.
type Option func(*Service)

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithAudit attaches the decision audit publisher.
func WithAudit(publisher *audit.Publisher) Option {
	return func(s *Service) { s.audit = publisher }
}

// WithPropertyStore attaches an upstream property record store.
func WithPropertyStore(store property.Store) Option {
	return func(s *Service) { s.properties = store }
}

// WithWeights overrides the confidence penalty configuration.
func WithWeights(w Weights) Option {
	return func(s *Service) { s.weights = w }
}

// WithFetchWaitBound bounds how long a caller waits on another caller's
// in-flight fetch before falling back to stale cache.
func WithFetchWaitBound(d time.Duration) Option {
	return func(s *Service) { s.fetchWaitBound = d }
}

// WithFetchCost sets the accounted cost of one ordinance fetch.
func WithFetchCost(usd float64) Option {
	return func(s *Service) { s.fetchCostUSD = usd }
}

// New constructs the orchestrator. Registry, cache, fetcher, and parser are
// required; everything else is optional.
func New(registry *jurisdiction.Registry, store cache.Store, fetcher ordinance.Fetcher, parser Parser, opts ...Option) (*Service, error) {
	if registry == nil {
		return nil, fmt.Errorf("jurisdiction registry is required")
	}
	if store == nil {
		return nil, fmt.Errorf("ruleset cache is required")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("ordinance fetcher is required")
	}
	if parser == nil {
		return nil, fmt.Errorf("ordinance parser is required")
	}

	svc := &Service{
		registry:       registry,
		cache:          store,
		fetcher:        fetcher,
		parser:         parser,
		weights:        DefaultWeights(),
		fetchWaitBound: 30 * time.Second,
		tracer:         otel.Tracer("zonecheck/compliance"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Check runs one compliance decision end to end. It never returns an error:
// every failure path converges on a valid Result.
func (s *Service) Check(ctx context.Context, req CheckRequest) *Result {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "compliance.check",
		trace.WithAttributes(
			attribute.String("jurisdiction", req.Jurisdiction),
			attribute.String("property_id", req.PropertyID),
		))
	defer span.End()

	if err := req.Validate(); err != nil {
		result := s.manualReview(req, nil, start, err.Error())
		s.finish(ctx, span, req, result)
		return result
	}

	cfg, ok := s.registry.Get(req.Jurisdiction)
	if !ok {
		// Callers validate against the registry up front; reaching here
		// still must not raise.
		result := s.manualReview(req, nil, start, "unknown jurisdiction")
		s.finish(ctx, span, req, result)
		return result
	}

	record := s.resolveProperty(ctx, req)

	outcome := s.resolveRuleSet(ctx, cfg)
	if outcome == nil {
		result := s.manualReview(req, &cfg, start, "no rule data available")
		s.finish(ctx, span, req, result)
		return result
	}

	result := s.evaluate(ctx, cfg, record, outcome)
	result.ExecutionTimeMS = time.Since(start).Milliseconds()
	s.finish(ctx, span, req, result)
	return result
}

// rulesetOutcome is the terminal state of the rule-resolution half of the
// state machine: which rules to use and where they came from.
type rulesetOutcome struct {
	entry   *cache.Entry
	source  DataSource
	age     time.Duration
	fetched bool
}

// resolveRuleSet walks CHECK_CACHE -> NEED_FETCH -> {FETCHED, FETCH_FAILED}
// -> {STALE_CACHE_FALLBACK, NO_DATA}. A nil return is the NO_DATA terminal.
func (s *Service) resolveRuleSet(ctx context.Context, cfg jurisdiction.Config) *rulesetOutcome {
	now := requestcontext.Now(ctx)
	ttl := s.registry.TTL(cfg.ID)

	stale, err := s.cache.Get(ctx, cfg.ID)
	switch {
	case err == nil:
		age := stale.Age(now)
		if age <= ttl {
			s.metrics.IncrementCacheLookup("hit")
			return &rulesetOutcome{entry: stale, source: SourceCache, age: age}
		}
		s.metrics.IncrementCacheLookup("stale")
	case errors.Is(err, sentinel.ErrNotFound):
		stale = nil
		s.metrics.IncrementCacheLookup("miss")
	default:
		// Store failures are reported, then treated as a miss: a broken
		// cache must not take the engine down with it.
		stale = nil
		s.metrics.IncrementCacheLookup("error")
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "ruleset cache read failed",
				"jurisdiction", cfg.ID,
				"error", err,
			)
		}
	}

	entry, err := s.fetchShared(ctx, cfg)
	if err == nil {
		return &rulesetOutcome{entry: entry, source: SourceFresh, fetched: true}
	}

	if s.logger != nil {
		s.logger.WarnContext(ctx, "ordinance refresh failed",
			"jurisdiction", cfg.ID,
			"error", err,
		)
	}

	if stale == nil {
		// Another request may have populated the cache while we waited on
		// the flight; one last read before giving up.
		if retry, rerr := s.cache.Get(ctx, cfg.ID); rerr == nil {
			stale = retry
		}
	}
	if stale != nil {
		s.metrics.IncrementExpiredCacheFallback(cfg.ID)
		return &rulesetOutcome{entry: stale, source: SourceExpiredCache, age: stale.Age(now)}
	}
	return nil
}

// fetchShared collapses concurrent fetches for one jurisdiction into a
// single flight. Callers wait at most fetchWaitBound; a timed-out wait is
// treated exactly like a fetch failure.
func (s *Service) fetchShared(ctx context.Context, cfg jurisdiction.Config) (*cache.Entry, error) {
	// The flight outlives any single caller; detach it from this request's
	// cancellation so late waiters still benefit from the result.
	flightCtx := context.WithoutCancel(ctx)

	ch := s.flights.DoChan(cfg.ID, func() (any, error) {
		return s.fetchAndStore(flightCtx, cfg)
	})

	timer := time.NewTimer(s.fetchWaitBound)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*cache.Entry), nil
	case <-timer.C:
		return nil, fmt.Errorf("%w: waited %s on in-flight fetch", ordinance.ErrFetchTimeout, s.fetchWaitBound)
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ordinance.ErrFetchTimeout, ctx.Err())
	}
}

func (s *Service) fetchAndStore(ctx context.Context, cfg jurisdiction.Config) (*cache.Entry, error) {
	ctx, span := s.tracer.Start(ctx, "compliance.fetch_ordinance",
		trace.WithAttributes(attribute.String("jurisdiction", cfg.ID)))
	defer span.End()
	start := time.Now()

	raw, err := s.fetcher.Fetch(ctx, cfg.OrdinanceURL)
	if err != nil {
		s.metrics.IncrementFetchFailure(failureReason(err))
		return nil, err
	}

	rs, err := s.parser.Parse(raw, cfg.ID)
	if err != nil {
		s.metrics.IncrementFetchFailure("parse")
		return nil, err
	}

	fetchedAt := time.Now()
	if err := s.cache.Put(ctx, cfg.ID, *rs, fetchedAt); err != nil {
		// The fresh rules are still good for this request; the write
		// failure is reported and the next request fetches again.
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "ruleset cache write failed",
				"jurisdiction", cfg.ID,
				"error", err,
			)
		}
	}

	s.metrics.ObserveFetchLatency(time.Since(start))
	return &cache.Entry{Jurisdiction: cfg.ID, RuleSet: *rs, FetchedAt: fetchedAt}, nil
}

// evaluate runs the pure rule checks and scoring against resolved rules and
// assembles the result.
func (s *Service) evaluate(ctx context.Context, cfg jurisdiction.Config, record property.Record, outcome *rulesetOutcome) *Result {
	_, span := s.tracer.Start(ctx, "compliance.evaluate")
	defer span.End()
	start := time.Now()

	result := &Result{
		Success:        true,
		ZoningDistrict: record.District,
		Violations:     []Violation{},
		DataSource:     outcome.source,
		CacheHit:       outcome.source == SourceCache || outcome.source == SourceExpiredCache,
		Jurisdiction:   &cfg,
	}
	if outcome.fetched {
		result.CostUSD = s.fetchCostUSD
	}
	fetchedAt := outcome.entry.FetchedAt
	result.OrdinanceLastUpdated = &fetchedAt

	rules, ok := outcome.entry.RuleSet.District(record.District)
	if !ok {
		// Rule data exists but does not cover this district. The verdict
		// is unknowable without fabricating rules, which the engine never
		// does.
		result.Status = StatusUnknown
		result.OrdinanceSections = outcome.entry.RuleSet.SectionRefs()
		score := ScoreConfidence(s.weights, outcome.age, 0, 0, record.HasEdgeCase())
		result.Confidence = reserveZero(score)
		s.metrics.ObserveEvaluateLatency(time.Since(start))
		return result
	}

	eval := EvaluateProperty(record, rules, cfg.IsFormBased(record.District))

	result.Violations = eval.Violations
	if result.Violations == nil {
		result.Violations = []Violation{}
	}
	result.RequiresVariance = eval.RequiresVariance
	result.AllowedUses = append(append([]string{}, rules.Uses.ByRight...), rules.Uses.Conditional...)
	result.OrdinanceSections = rules.Sections
	if len(result.OrdinanceSections) == 0 {
		result.OrdinanceSections = outcome.entry.RuleSet.SectionRefs()
	}

	if len(result.Violations) > 0 {
		result.Status = StatusNonCompliant
	} else {
		result.Status = StatusCompliant
	}

	score := ScoreConfidence(s.weights, outcome.age, rules.AmbiguityCount, len(eval.MissingFields), record.HasEdgeCase())
	result.Confidence = reserveZero(score)

	s.metrics.ObserveEvaluateLatency(time.Since(start))
	return result
}

// reserveZero keeps confidence 0 exclusive to manual-review results, so the
// "manual review iff zero confidence" contract holds on every path.
func reserveZero(score int) int {
	if score <= 0 {
		return 1
	}
	return score
}

func (s *Service) manualReview(req CheckRequest, cfg *jurisdiction.Config, start time.Time, reason string) *Result {
	if s.logger != nil {
		s.logger.Warn("compliance check requires manual review",
			"property_id", req.PropertyID,
			"jurisdiction", req.Jurisdiction,
			"reason", reason,
		)
	}
	return &Result{
		Success:         true,
		Status:          StatusManualReview,
		Violations:      []Violation{},
		Confidence:      0,
		DataSource:      SourceManualReview,
		Jurisdiction:    cfg,
		ExecutionTimeMS: time.Since(start).Milliseconds(),
	}
}

// resolveProperty merges the upstream property record, when one exists, with
// the request's own fields. Request fields win: the caller may be asking
// about a proposed state that differs from the stored record. The merged
// record leaves here normalized: district codes in the parser's uppercase
// form, property type defaulted.
func (s *Service) resolveProperty(ctx context.Context, req CheckRequest) property.Record {
	record := property.Record{
		ID:           req.PropertyID,
		Address:      req.Address,
		ParcelID:     req.ParcelID,
		Jurisdiction: req.Jurisdiction,
		District:     req.District,
		PropertyType: req.PropertyType,
		CurrentUse:   req.CurrentUse,
		ProposedUse:  req.ProposedUse,
	}

	if s.properties != nil {
		stored, err := s.properties.Get(ctx, req.PropertyID)
		switch {
		case err == nil:
			merged := *stored
			if record.District != "" {
				merged.District = record.District
			}
			if record.CurrentUse != "" {
				merged.CurrentUse = record.CurrentUse
			}
			if record.ProposedUse != "" {
				merged.ProposedUse = record.ProposedUse
			}
			if record.PropertyType != "" {
				merged.PropertyType = record.PropertyType
			}
			if record.Address != "" {
				merged.Address = record.Address
			}
			if record.ParcelID != "" {
				merged.ParcelID = record.ParcelID
			}
			merged.Jurisdiction = record.Jurisdiction
			record = merged
		case !errors.Is(err, sentinel.ErrNotFound):
			if s.logger != nil {
				s.logger.WarnContext(ctx, "property store lookup failed",
					"property_id", req.PropertyID,
					"error", err,
				)
			}
		}
	}

	if record.PropertyType == "" {
		record.PropertyType = "residential"
	}
	// The registry accepts district codes case-insensitively; the parser
	// emits them uppercased. Normalize so the rule lookup agrees with both.
	record.District = strings.ToUpper(strings.TrimSpace(record.District))
	return record
}

func (s *Service) finish(ctx context.Context, span trace.Span, req CheckRequest, result *Result) {
	span.SetAttributes(
		attribute.String("status", string(result.Status)),
		attribute.String("data_source", string(result.DataSource)),
		attribute.Int("confidence", result.Confidence),
	)

	s.metrics.IncrementOutcome(string(result.Status), string(result.DataSource))
	s.metrics.ObserveConfidence(result.Confidence)

	s.audit.Emit(audit.Event{
		CorrelationID: req.CorrelationID,
		PropertyID:    req.PropertyID,
		Jurisdiction:  req.Jurisdiction,
		District:      result.ZoningDistrict,
		Status:        string(result.Status),
		Confidence:    result.Confidence,
		DataSource:    string(result.DataSource),
		Violations:    len(result.Violations),
		At:            time.Now(),
	})

	if s.logger != nil {
		s.logger.InfoContext(ctx, "compliance check completed",
			"request_id", requestcontext.RequestID(ctx),
			"correlation_id", req.CorrelationID,
			"property_id", req.PropertyID,
			"jurisdiction", req.Jurisdiction,
			"status", result.Status,
			"data_source", result.DataSource,
			"confidence", result.Confidence,
			"violations", len(result.Violations),
			"duration_ms", result.ExecutionTimeMS,
		)
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ordinance.ErrFetchTimeout):
		return "timeout"
	case errors.Is(err, ordinance.ErrParseFailed):
		return "parse"
	default:
		return "fetch"
	}
}
