package domain

import (
	"context"
	"log/slog"
	"regexp"
)

// stateZipRe matches a two-letter state code immediately preceding a ZIP code,
// e.g. "Catharpin, VA 20143" -> "VA".
var stateZipRe = regexp.MustCompile(`\b([A-Z]{2})\s+\d{5}(?:-\d{4})?\b`)

// Granularity says whether demographic figures describe a county or a whole state.
type Granularity string

const (
	GranularityCounty Granularity = "county"
	GranularityState  Granularity = "state"
)

// Confidence values assigned to a JurisdictionMatch.
const (
	ConfidenceCounty = 1.0
	ConfidenceState  = 0.5
)

// JurisdictionMatch is the (state, county) pair that keys demographic lookups.
// State fields are always set; county fields may be empty, in which case
// downstream adapters work at state granularity.
type JurisdictionMatch struct {
	StateName         string  `json:"state_name"`
	StateAbbreviation string  `json:"state_abbreviation"`
	StateFIPS         string  `json:"state_fips"`
	CountyName        string  `json:"county_name,omitempty"`
	CountyFIPS        string  `json:"county_fips,omitempty"`
	Confidence        float64 `json:"confidence"`
}

// Granularity is county when a county code was resolved, state otherwise.
func (j JurisdictionMatch) Granularity() Granularity {
	if j.CountyFIPS != "" {
		return GranularityCounty
	}
	return GranularityState
}

// CountyDirectory lists every county of a state. The demographics provider implements it.
type CountyDirectory interface {
	ListCounties(ctx context.Context, stateFIPS string) ([]County, error)
}

// ResolveState picks the first non-empty state signal from components and validates it.
func ResolveState(components AddressComponents) (State, error) {
	candidate := stateCandidate(components)
	if candidate == "" {
		return State{}, ErrUnresolvedJurisdiction
	}
	s, ok := LookupState(candidate)
	if !ok {
		return State{}, &UnknownStateError{Value: candidate}
	}
	return s, nil
}

func stateCandidate(components AddressComponents) string {
	if v := components.Get(ComponentAdminLevel1); v != "" {
		return v
	}
	if v := components.Get(ComponentState); v != "" {
		return v
	}
	// Last match wins: the ZIP code trails a formatted address.
	m := stateZipRe.FindAllStringSubmatch(components.Get(ComponentFormattedAddress), -1)
	if len(m) == 0 {
		return ""
	}
	return m[len(m)-1][1]
}

func countyCandidate(components AddressComponents) string {
	for _, key := range []string{ComponentAdminLevel2, ComponentCounty} {
		if v := NormalizeCountyName(components.Get(key)); v != "" {
			return v
		}
	}
	return ""
}

// Resolver converts geocoded address components into a JurisdictionMatch.
type Resolver struct {
	counties CountyDirectory
	logger   *slog.Logger
}

// NewResolver creates a Resolver. A nil directory limits matches to state granularity.
func NewResolver(counties CountyDirectory, logger *slog.Logger) *Resolver {
	return &Resolver{counties: counties, logger: logger}
}

// Resolve returns the jurisdiction for components. Only the state is required:
// a missing county, a roster failure, or an ambiguous or unknown county all yield a
// state-granularity match that keeps the normalized county name for display.
func (r *Resolver) Resolve(ctx context.Context, components AddressComponents) (JurisdictionMatch, error) {
	state, err := ResolveState(components)
	if err != nil {
		return JurisdictionMatch{}, err
	}

	match := JurisdictionMatch{
		StateName:         state.Name,
		StateAbbreviation: state.Abbreviation,
		StateFIPS:         state.FIPS,
		CountyName:        countyCandidate(components),
		Confidence:        ConfidenceState,
	}
	if match.CountyName == "" || r.counties == nil {
		return match, nil
	}

	roster, err := r.counties.ListCounties(ctx, state.FIPS)
	if err != nil {
		r.logger.Warn("county roster lookup failed, using state granularity",
			"state", state.Abbreviation,
			"county", match.CountyName,
			"error", err,
		)
		return match, nil
	}

	county, err := MatchCounty(roster, match.CountyName)
	if err != nil {
		r.logger.Warn("county not resolved, using state granularity",
			"state", state.Abbreviation,
			"county", match.CountyName,
			"error", err,
		)
		return match, nil
	}

	match.CountyFIPS = county.FIPS
	match.Confidence = ConfidenceCounty
	return match, nil
}
