package domain

// Substitute scores used when the points-of-interest provider is unavailable (0–10 scale).
const (
	FallbackWalkability = 7.5
	FallbackTransit     = 7.0
	FallbackLifestyle   = 8.0
	FallbackLocation    = 7.5
)

// Source labels for substituted sections.
const (
	AmenitiesFallbackSource = "Geocoding provider (points-of-interest provider unavailable)"
	ClimateFallbackSource   = "Conservative estimate (climate provider unavailable)"
)

// FallbackAmenities is the amenities section used when the points-of-interest
// provider is unavailable. Only the coordinates come from the analysis (the
// geocoded location); the scores are the same for every address.
func FallbackAmenities(loc Location) Amenities {
	return Amenities{
		Coordinates: loc.Coordinates,
		Walkability: FallbackWalkability,
		Transit:     FallbackTransit,
		Lifestyle:   FallbackLifestyle,
		Overall:     FallbackLocation,
	}
}

// FallbackClimateRisk is the risk section used when the climate provider is unavailable.
func FallbackClimateRisk() ClimateRisk {
	return ClimateRisk{
		Flood: RiskScore{
			Score:       5.0,
			Level:       "Moderate",
			Description: "Flood risk not assessed; moderate risk assumed. Check local flood zone maps.",
		},
		Temperature: RiskScore{
			Score:       5.0,
			Level:       "Moderate",
			Description: "Temperature extremes not assessed; moderate climate control needs assumed.",
		},
		Precipitation: RiskScore{
			Score:       4.0,
			Level:       "Low-Moderate",
			Description: "Precipitation patterns not assessed; standard water management assumed.",
		},
		Overall: RiskScore{
			Score: 4.7,
			Level: "Moderate",
		},
		Grade: "B",
		Recommendations: []string{
			"Climate data unavailable: review local flood zone and climate records before investing",
		},
	}
}

// Substitute returns the placeholder payload and source label for an optional
// section whose provider is unavailable. It depends only on which section failed;
// loc is used solely to carry the geocoded coordinates into the amenities section.
// ok is false for sections that have no substitute (essential data).
func Substitute(section Section, loc Location) (payload Payload, source string, ok bool) {
	switch section {
	case SectionAmenities:
		return FallbackAmenities(loc), AmenitiesFallbackSource, true
	case SectionRisk:
		return FallbackClimateRisk(), ClimateFallbackSource, true
	default:
		return nil, "", false
	}
}

// SectionForProvider maps a provider name to the report section it fills.
func SectionForProvider(provider string) (Section, bool) {
	switch provider {
	case ProviderGeocoding:
		return SectionLocation, true
	case ProviderDemographics:
		return SectionDemographics, true
	case ProviderPointsOfInterest:
		return SectionAmenities, true
	case ProviderClimate:
		return SectionRisk, true
	default:
		return "", false
	}
}
