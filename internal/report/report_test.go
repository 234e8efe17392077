package report

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func freezeClock(t *testing.T) clockwork.Clock {
	t.Helper()
	fake := clockwork.NewFakeClockAt(time.Date(2024, time.April, 26, 15, 10, 0, 0, time.UTC))
	domain.SetClock(fake)
	t.Cleanup(func() { domain.SetClock(nil) })
	return fake
}

func catharpinReport() domain.FusedReport {
	loc := domain.Location{
		FormattedAddress: "3650 Dunigan Ct, Catharpin, VA 20143, USA",
		Coordinates:      domain.Coordinates{Lat: 38.8462, Lon: -77.5636},
		Neighborhood:     "Catharpin",
	}
	return domain.FusedReport{
		Address: "3650 Dunigan Ct, Catharpin, VA 20143",
		Jurisdiction: domain.JurisdictionMatch{
			StateName: "Virginia", StateAbbreviation: "VA", StateFIPS: "51",
			CountyName: "prince william", CountyFIPS: "153", Confidence: domain.ConfidenceCounty,
		},
		Location: domain.Sourced[domain.Location]{Value: loc, Source: "Google Maps Geocoding API"},
		Demographics: domain.Sourced[domain.Demographics]{
			Value: domain.Demographics{
				Granularity:          domain.GranularityCounty,
				AreaName:             "Prince William County, Virginia",
				Population:           482204,
				MedianIncome:         123193,
				MedianHomeValue:      468000,
				EmploymentRate:       96.5,
				EducationRate:        26.1,
				IncomeToHousingRatio: 3.8,
			},
			Source: "US Census Bureau ACS 5-Year (county level)",
		},
		Amenities: domain.Sourced[domain.Amenities]{
			Value:     domain.FallbackAmenities(loc),
			Source:    domain.AmenitiesFallbackSource,
			Estimated: true,
		},
		Risk: domain.Sourced[domain.ClimateRisk]{
			Value:     domain.FallbackClimateRisk(),
			Source:    domain.ClimateFallbackSource,
			Estimated: true,
		},
		DataSources: []string{
			"Google Maps Geocoding API",
			"US Census Bureau ACS 5-Year (county level)",
			domain.AmenitiesFallbackSource,
			domain.ClimateFallbackSource,
			"Google Maps Geocoding API",
		},
		Degradations: []domain.OptionalProviderDegradedError{
			{Provider: domain.ProviderPointsOfInterest, Reason: domain.ReasonTimeout},
			{Provider: domain.ProviderClimate, Reason: "disabled"},
		},
	}
}

func TestFormat(t *testing.T) {
	fake := freezeClock(t)

	rep := Format(catharpinReport())

	assert.Equal(t, []string{
		"Google Maps Geocoding API",
		"US Census Bureau ACS 5-Year (county level)",
		domain.AmenitiesFallbackSource,
		domain.ClimateFallbackSource,
	}, rep.DataSources)
	assert.Equal(t, domain.GranularityCounty, rep.Granularity)
	assert.Equal(t, fake.Now(), rep.GeneratedAt)
	assert.Len(t, rep.Degradations, 2)
	assert.True(t, rep.Estimated())
}

func TestFormat_NoDegradationsEncodesEmptyList(t *testing.T) {
	freezeClock(t)
	fused := catharpinReport()
	fused.Degradations = nil

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, Format(fused), FormatJSON))

	var fields map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fields))
	assert.Equal(t, []any{}, fields["degradations"])
	assert.Equal(t, "2024-04-26T15:10:00Z", fields["generated_at"])
}

func TestEncode_JSONSectionsCarryProvenance(t *testing.T) {
	freezeClock(t)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, Format(catharpinReport()), "JSON"))

	type section struct {
		Source    string `json:"source"`
		Estimated bool   `json:"estimated"`
	}
	var decoded struct {
		Location  section `json:"location"`
		Amenities section `json:"amenities"`
		Risk      section `json:"risk"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.False(t, decoded.Location.Estimated)
	assert.True(t, decoded.Amenities.Estimated)
	assert.Equal(t, domain.ClimateFallbackSource, decoded.Risk.Source)
}

func TestEncode_YAML(t *testing.T) {
	freezeClock(t)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, Format(catharpinReport()), FormatYAML))
	out := buf.String()

	assert.Contains(t, out, "\ndata_sources:\n")

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "3650 Dunigan Ct, Catharpin, VA 20143", decoded["address"])
	jurisdiction, ok := decoded["jurisdiction"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "153", jurisdiction["county_fips"], "numeric-looking strings stay strings")
	assert.Equal(t, "51", jurisdiction["state_fips"])
}

func TestEncode_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := Encode(&buf, Report{}, "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xml")
}

func TestRenderText(t *testing.T) {
	freezeClock(t)

	out := RenderText(Format(catharpinReport()))

	assert.Contains(t, out, "PROPERTY RESEARCH - 3650 Dunigan Ct, Catharpin, VA 20143")
	assert.Contains(t, out, "MARKET ANALYSIS - 3650 Dunigan Ct, Catharpin, VA 20143")
	assert.Contains(t, out, "RISK ASSESSMENT - 3650 Dunigan Ct, Catharpin, VA 20143")
	assert.Contains(t, out, "Jurisdiction:      Prince William County, VA")
	assert.Contains(t, out, "Population:        482,204 residents")
	assert.Contains(t, out, "Median home value: $468,000")
	assert.Contains(t, out, "Area score:        7.5/10 (estimated)")
	assert.Contains(t, out, "Climate grade:      B (Moderate) (estimated)")
	assert.Contains(t, out, "Source: "+domain.ClimateFallbackSource)
	assert.Contains(t, out, "NOTES")
	assert.NotContains(t, out, "Dining:", "substituted amenities have no counts")
}

func TestRenderText_NoNotesWithoutDegradations(t *testing.T) {
	fused := catharpinReport()
	fused.Degradations = nil
	assert.NotContains(t, RenderText(Format(fused)), "NOTES")
}

func TestJurisdiction(t *testing.T) {
	assert.Equal(t, "Prince William County, VA", Jurisdiction(domain.JurisdictionMatch{
		StateName: "Virginia", StateAbbreviation: "VA", CountyName: "prince william", CountyFIPS: "153",
	}))
	assert.Equal(t, "Fairfax City, VA", Jurisdiction(domain.JurisdictionMatch{
		StateName: "Virginia", StateAbbreviation: "VA", CountyName: "fairfax city", CountyFIPS: "600",
	}))
	assert.Equal(t, "Virginia", Jurisdiction(domain.JurisdictionMatch{
		StateName: "Virginia", StateAbbreviation: "VA", CountyName: "prince",
	}))
}

func TestRenderText_NotesDegradedSection(t *testing.T) {
	fused := catharpinReport()
	fused.Degradations = nil
	fused.Demographics.Source = "US Census Bureau ACS 5-Year (state level)"
	fused.Demographics.Reason = "county data unavailable: timeout"

	out := RenderText(Format(fused))

	assert.Contains(t, out, "NOTES")
	assert.Contains(t, out, "Demographics from US Census Bureau ACS 5-Year (state level) (county data unavailable: timeout).")
}

func TestEncode_JSONCarriesDegradedReason(t *testing.T) {
	freezeClock(t)
	fused := catharpinReport()
	fused.Demographics.Reason = "county data unavailable: census returned status 500"

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, Format(fused), FormatJSON))

	var decoded struct {
		Demographics struct {
			Reason string `json:"reason"`
		} `json:"demographics"`
		Location map[string]any `json:"location"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "county data unavailable: census returned status 500", decoded.Demographics.Reason)
	assert.NotContains(t, decoded.Location, "reason", "full successes omit the reason")
}

func TestRenderText_DensityReplacesSubScores(t *testing.T) {
	fused := catharpinReport()
	fused.Amenities = domain.Sourced[domain.Amenities]{
		Value: domain.Amenities{
			Overall: 8,
			Density: "High",
			Counts:  &domain.AmenityCounts{Restaurants: 20, Schools: 4, Healthcare: 3, Services: 10},
		},
		Source: "Google Places API (nearby search)",
		Reason: "nominatim: address not found by Nominatim",
	}

	out := RenderText(Format(fused))

	assert.Contains(t, out, "Amenity density:   High")
	assert.Contains(t, out, "Area score:        8.0/10\n")
	assert.NotContains(t, out, "Walkability:")
	assert.Contains(t, out, "Dining:            20 restaurants")
	assert.Contains(t, out, "Amenities from Google Places API (nearby search) (nominatim: address not found by Nominatim).")
}
