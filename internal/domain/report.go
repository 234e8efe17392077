package domain

import (
	"fmt"
	"strings"
)

// Sourced pairs a report section with the label of the source that produced it.
// Estimated marks values substituted by the degradation policy. Reason is set
// whenever the section is less than a full success: the provider's reason for a
// Degraded result, or the failure that triggered a substitute.
type Sourced[T any] struct {
	Value     T      `json:"value"`
	Source    string `json:"source"`
	Estimated bool   `json:"estimated"`
	Reason    string `json:"reason,omitempty"`
}

// FusedReport is the merged output of one analysis.
type FusedReport struct {
	Address      string                          `json:"address"`
	Jurisdiction JurisdictionMatch               `json:"jurisdiction"`
	Location     Sourced[Location]               `json:"location"`
	Demographics Sourced[Demographics]           `json:"demographics"`
	Amenities    Sourced[Amenities]              `json:"amenities"`
	Risk         Sourced[ClimateRisk]            `json:"risk"`
	DataSources  []string                        `json:"data_sources"`
	Degradations []OptionalProviderDegradedError `json:"degradations,omitempty"`
}

// Validate checks the provenance invariant: every section names its source, and
// every substituted section says so in its label.
func (r FusedReport) Validate() error {
	sections := []struct {
		name      Section
		source    string
		estimated bool
	}{
		{SectionLocation, r.Location.Source, r.Location.Estimated},
		{SectionDemographics, r.Demographics.Source, r.Demographics.Estimated},
		{SectionAmenities, r.Amenities.Source, r.Amenities.Estimated},
		{SectionRisk, r.Risk.Source, r.Risk.Estimated},
	}
	for _, s := range sections {
		if s.source == "" {
			return fmt.Errorf("section %s has no source", s.name)
		}
		if s.estimated != IsFallbackSource(s.source) {
			return fmt.Errorf("section %s: estimated=%t disagrees with source %q", s.name, s.estimated, s.source)
		}
	}
	return nil
}

// Partial reports whether any section is degraded or substituted.
func (r FusedReport) Partial() bool {
	return len(r.Degradations) > 0 ||
		r.Location.Reason != "" ||
		r.Demographics.Reason != "" ||
		r.Amenities.Reason != "" ||
		r.Risk.Reason != ""
}

// IsFallbackSource reports whether a source label marks substituted data.
func IsFallbackSource(source string) bool {
	s := strings.ToLower(source)
	return strings.Contains(s, "unavailable") || strings.Contains(s, "conservative estimate")
}
