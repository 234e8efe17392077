package domain

// Section names a part of the fused report.
type Section string

const (
	SectionLocation     Section = "location"
	SectionDemographics Section = "demographics"
	SectionAmenities    Section = "amenities"
	SectionRisk         Section = "risk"
)

// Payload is implemented by every adapter output type.
type Payload interface {
	Section() Section
}

// Location is the geocoding payload.
type Location struct {
	FormattedAddress string            `json:"formatted_address"`
	Coordinates      Coordinates       `json:"coordinates"`
	Components       AddressComponents `json:"components,omitempty"`
	PlaceID          string            `json:"place_id,omitempty"`
	LocationType     string            `json:"location_type,omitempty"` // rooftop, range, centroid, approximate
	Neighborhood     string            `json:"neighborhood,omitempty"`
}

func (Location) Section() Section { return SectionLocation }

// Demographics is the census payload for one county or one state.
type Demographics struct {
	Granularity          Granularity `json:"granularity"`
	AreaName             string      `json:"area_name"`
	Population           int         `json:"population"`
	MedianIncome         int         `json:"median_income"`
	MedianHomeValue      int         `json:"median_home_value"`
	MedianRent           int         `json:"median_rent,omitempty"`   // omitted when not reported
	EmploymentRate       float64     `json:"employment_rate"`         // % of labor force employed
	EducationRate        float64     `json:"education_rate"`          // % holding a bachelor's or higher
	IncomeToHousingRatio float64     `json:"income_to_housing_ratio"` // median home value / median income
}

func (Demographics) Section() Section { return SectionDemographics }

// AmenityCounts counts nearby points of interest by category.
type AmenityCounts struct {
	Restaurants int `json:"restaurants"`
	Schools     int `json:"schools"`
	Healthcare  int `json:"healthcare"`
	Services    int `json:"services"`
	Transit     int `json:"transit"`
	Recreation  int `json:"recreation"`
}

// Amenities is the points-of-interest payload. Scores are on a 0–10 scale.
// Density is set instead of the walkability, transit and lifestyle scores when
// the source only supports an overall score.
type Amenities struct {
	Coordinates Coordinates    `json:"coordinates"`
	Walkability float64        `json:"walkability"`
	Transit     float64        `json:"transit"`
	Lifestyle   float64        `json:"lifestyle"`
	Overall     float64        `json:"overall"`
	Density     string         `json:"density,omitempty"` // High, Moderate or Low
	Counts      *AmenityCounts `json:"counts,omitempty"`  // nil when substituted
	Highlights  []string       `json:"highlights,omitempty"`
}

func (Amenities) Section() Section { return SectionAmenities }

// RiskScore is one climate risk category on a 0–10 scale.
type RiskScore struct {
	Score       float64 `json:"score"`
	Level       string  `json:"level"`
	Description string  `json:"description,omitempty"`
}

// ClimateRisk is the climate payload.
type ClimateRisk struct {
	Flood           RiskScore `json:"flood"`
	Temperature     RiskScore `json:"temperature"`
	Precipitation   RiskScore `json:"precipitation"`
	Overall         RiskScore `json:"overall"`
	Grade           string    `json:"grade"`
	Recommendations []string  `json:"recommendations,omitempty"`
}

func (ClimateRisk) Section() Section { return SectionRisk }
