package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/domain"
	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/observability"
	"golang.org/x/sync/errgroup"
)

// ReasonDisabled is the degradation reason recorded for an optional provider
// that was not configured.
const ReasonDisabled = "disabled"

// Providers holds the adapters an Engine dispatches to. Geocoding and
// Demographics are required; a nil optional adapter disables that provider and
// its section is always substituted.
type Providers struct {
	Geocoding        domain.Adapter
	Demographics     domain.Adapter
	PointsOfInterest domain.Adapter
	Climate          domain.Adapter
}

// Engine runs one property analysis: geocode, resolve the jurisdiction, fan out
// to the remaining providers and merge their results into a FusedReport.
// It holds no per-analysis state and is safe for concurrent use.
type Engine struct {
	geocoder domain.Adapter
	resolver *domain.Resolver
	dispatch []slot
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// slot is one fan-out position. adapter is nil for a disabled optional provider.
type slot struct {
	provider string
	section  domain.Section
	adapter  domain.Adapter
}

// NewEngine wires the providers into an Engine. The fan-out order is
// demographics, points of interest, climate, and fixes the order of the
// report's data sources.
func NewEngine(p Providers, resolver *domain.Resolver, logger *slog.Logger, metrics *observability.Metrics) (*Engine, error) {
	if p.Geocoding == nil {
		return nil, errors.New("engine: geocoding provider is required")
	}
	if p.Demographics == nil {
		return nil, errors.New("engine: demographics provider is required")
	}
	if resolver == nil {
		return nil, errors.New("engine: jurisdiction resolver is required")
	}

	e := &Engine{
		geocoder: p.Geocoding,
		resolver: resolver,
		logger:   logger,
		metrics:  metrics,
		dispatch: []slot{
			{provider: domain.ProviderDemographics, section: domain.SectionDemographics, adapter: p.Demographics},
			{provider: domain.ProviderPointsOfInterest, section: domain.SectionAmenities, adapter: p.PointsOfInterest},
			{provider: domain.ProviderClimate, section: domain.SectionRisk, adapter: p.Climate},
		},
	}
	for _, s := range e.dispatch {
		metrics.SetProviderEnabled(s.provider, s.adapter != nil)
	}
	metrics.SetProviderEnabled(domain.ProviderGeocoding, true)
	return e, nil
}

// Analyze is an alias for Run.
func (e *Engine) Analyze(ctx context.Context, address string) (domain.FusedReport, error) {
	return e.Run(ctx, address)
}

// Run analyzes one address. The returned error is fatal (see domain.IsFatal);
// optional provider failures are absorbed into the report's degradations.
func (e *Engine) Run(ctx context.Context, address string) (domain.FusedReport, error) {
	start := time.Now()
	report, err := e.run(ctx, address)
	e.metrics.AnalysisDuration.Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		e.metrics.Analyses.WithLabelValues("failed").Inc()
		e.logger.Warn("analysis failed", "address", address, "error", err)
	case report.Partial():
		e.metrics.Analyses.WithLabelValues("degraded").Inc()
	default:
		e.metrics.Analyses.WithLabelValues("complete").Inc()
	}
	return report, err
}

func (e *Engine) run(ctx context.Context, address string) (domain.FusedReport, error) {
	normalized, err := domain.NormalizeAddress(address)
	if err != nil {
		return domain.FusedReport{}, err
	}

	geo := e.call(ctx, e.geocoder, domain.Request{Address: normalized})
	if !geo.Available() {
		return domain.FusedReport{}, &domain.EssentialProviderError{Provider: domain.ProviderGeocoding, Reason: geo.Reason}
	}
	loc, ok := geo.Payload.(domain.Location)
	if !ok {
		return domain.FusedReport{}, &domain.EssentialProviderError{
			Provider: domain.ProviderGeocoding,
			Reason:   fmt.Sprintf("unexpected payload %T", geo.Payload),
		}
	}

	match, err := e.resolver.Resolve(ctx, loc.Components)
	if err != nil {
		return domain.FusedReport{}, err
	}

	req := domain.Request{Address: normalized, Coordinates: loc.Coordinates, Jurisdiction: match}
	results, err := e.fanOut(ctx, req)
	if err != nil {
		return domain.FusedReport{}, err
	}

	report := domain.FusedReport{
		Address:      normalized,
		Jurisdiction: match,
		Location:     domain.Sourced[domain.Location]{Value: loc, Source: geo.Source, Reason: geo.Reason},
		DataSources:  []string{geo.Source},
	}
	for i, s := range e.dispatch {
		source, err := e.merge(&report, s, results[i], loc)
		if err != nil {
			return domain.FusedReport{}, err
		}
		report.DataSources = append(report.DataSources, source)
	}

	if err := report.Validate(); err != nil {
		return domain.FusedReport{}, fmt.Errorf("fused report: %w", err)
	}
	return report, nil
}

// fanOut calls every enabled dispatch adapter concurrently. Results are stored by
// dispatch index so the merge order never depends on completion order. An
// essential failure cancels the remaining calls.
func (e *Engine) fanOut(ctx context.Context, req domain.Request) ([]domain.ProviderResult, error) {
	results := make([]domain.ProviderResult, len(e.dispatch))
	g, gctx := errgroup.WithContext(ctx)

	for i, s := range e.dispatch {
		if s.adapter == nil {
			results[i] = domain.Unavailable(ReasonDisabled)
			continue
		}
		g.Go(func() error {
			res := e.call(gctx, s.adapter, req)
			results[i] = res
			if !res.Available() && s.adapter.Criticality() == domain.Essential {
				return &domain.EssentialProviderError{Provider: s.provider, Reason: res.Reason}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// merge places one provider result into its report section, applying the
// substitute for an unavailable optional provider. The result's reason stays on
// the section for Degraded and substituted results alike. It returns the
// section's source label.
func (e *Engine) merge(report *domain.FusedReport, s slot, res domain.ProviderResult, loc domain.Location) (string, error) {
	payload, source, estimated := res.Payload, res.Source, false

	if res.Status == domain.StatusDegraded {
		e.logger.Info("section degraded", "provider", s.provider, "source", source, "reason", res.Reason)
	}

	if !res.Available() {
		sub, label, ok := domain.Substitute(s.section, loc)
		if !ok {
			return "", &domain.EssentialProviderError{Provider: s.provider, Reason: res.Reason}
		}
		payload, source, estimated = sub, label, true
		report.Degradations = append(report.Degradations, domain.OptionalProviderDegradedError{
			Provider: s.provider,
			Reason:   res.Reason,
		})
		e.metrics.Degradations.WithLabelValues(s.provider).Inc()
		e.logger.Info("section substituted", "provider", s.provider, "reason", res.Reason)
	}

	switch v := payload.(type) {
	case domain.Demographics:
		report.Demographics = domain.Sourced[domain.Demographics]{Value: v, Source: source, Estimated: estimated, Reason: res.Reason}
	case domain.Amenities:
		report.Amenities = domain.Sourced[domain.Amenities]{Value: v, Source: source, Estimated: estimated, Reason: res.Reason}
	case domain.ClimateRisk:
		report.Risk = domain.Sourced[domain.ClimateRisk]{Value: v, Source: source, Estimated: estimated, Reason: res.Reason}
	default:
		return "", fmt.Errorf("provider %s returned unexpected payload %T", s.provider, payload)
	}
	return source, nil
}

// call runs one adapter and records its outcome.
func (e *Engine) call(ctx context.Context, a domain.Adapter, req domain.Request) domain.ProviderResult {
	start := time.Now()
	res := a.Fetch(ctx, req)
	e.metrics.ObserveProvider(a.Name(), res.Status.String(), time.Since(start))
	return res
}

// CheckReadiness reports whether the essential providers are wired. Adapters
// that know their credential state expose Configured.
func (e *Engine) CheckReadiness(_ context.Context) error {
	type configurable interface{ Configured() bool }
	for _, a := range []domain.Adapter{e.geocoder, e.dispatch[0].adapter} {
		if c, ok := a.(configurable); ok && !c.Configured() {
			return fmt.Errorf("%s provider has no credential configured", a.Name())
		}
	}
	return nil
}
