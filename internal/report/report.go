// Package report turns a fused analysis into its published forms: the
// structured Report served over JSON or YAML, and a plain-text rendering.
package report

import (
	"time"

	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/domain"
)

// Report is the published shape of one analysis.
type Report struct {
	Address      string                                 `json:"address"`
	Jurisdiction domain.JurisdictionMatch               `json:"jurisdiction"`
	Granularity  domain.Granularity                     `json:"granularity"`
	Location     domain.Sourced[domain.Location]        `json:"location"`
	Demographics domain.Sourced[domain.Demographics]    `json:"demographics"`
	Amenities    domain.Sourced[domain.Amenities]       `json:"amenities"`
	Risk         domain.Sourced[domain.ClimateRisk]     `json:"risk"`
	DataSources  []string                               `json:"data_sources"`
	Degradations []domain.OptionalProviderDegradedError `json:"degradations"`
	GeneratedAt  time.Time                              `json:"generated_at"`
}

// Format builds the Report for r. Data sources keep their first-seen order with
// duplicates removed; degradations are never nil so they encode as a list.
func Format(r domain.FusedReport) Report {
	degradations := r.Degradations
	if degradations == nil {
		degradations = []domain.OptionalProviderDegradedError{}
	}
	return Report{
		Address:      r.Address,
		Jurisdiction: r.Jurisdiction,
		Granularity:  r.Demographics.Value.Granularity,
		Location:     r.Location,
		Demographics: r.Demographics,
		Amenities:    r.Amenities,
		Risk:         r.Risk,
		DataSources:  dedupe(r.DataSources),
		Degradations: degradations,
		GeneratedAt:  domain.Now(),
	}
}

// Partial reports whether any section is degraded or substituted.
func (r Report) Partial() bool {
	return len(r.Degradations) > 0 ||
		r.Location.Reason != "" ||
		r.Demographics.Reason != "" ||
		r.Amenities.Reason != "" ||
		r.Risk.Reason != ""
}

// Estimated reports whether any section carries substituted data.
func (r Report) Estimated() bool {
	return r.Location.Estimated || r.Demographics.Estimated || r.Amenities.Estimated || r.Risk.Estimated
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
