package openmeteo

import (
	"math"

	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/domain"
)

// Assess scores climate risk. Category scores are computed on 0–100 and reported
// on 0–10; higher means riskier.
func Assess(coords domain.Coordinates, w Weather) domain.ClimateRisk {
	flood := floodRisk(coords)
	temp := temperatureRisk(w)
	precip := precipitationRisk(w)
	overall := math.Round((flood+temp+precip)/3*10) / 10

	return domain.ClimateRisk{
		Flood: domain.RiskScore{
			Score:       tenth(flood),
			Level:       level(flood),
			Description: floodDescription(flood),
		},
		Temperature: domain.RiskScore{
			Score:       tenth(temp),
			Level:       level(temp),
			Description: temperatureDescription(temp),
		},
		Precipitation: domain.RiskScore{
			Score:       tenth(precip),
			Level:       level(precip),
			Description: precipitationDescription(precip),
		},
		Overall: domain.RiskScore{
			Score: tenth(overall),
			Level: level(overall),
		},
		Grade:           grade(overall),
		Recommendations: recommendations(overall),
	}
}

// floodRisk is a coarse regional prior: Gulf latitudes and the New York harbor
// score higher, northern states lower.
func floodRisk(c domain.Coordinates) float64 {
	switch {
	case c.Lat > 25 && c.Lat < 30:
		return 45
	case math.Abs(c.Lat-40.7) < 2 && math.Abs(c.Lon+74) < 2:
		return 35
	case c.Lat > 45:
		return 15
	default:
		return 25
	}
}

func temperatureRisk(w Weather) float64 {
	var risk float64
	switch {
	case w.AvgHigh > 95 || w.AvgHigh < 32:
		risk += 30
	case w.AvgHigh > 85 || w.AvgHigh < 40:
		risk += 15
	}
	switch {
	case w.AvgLow < 10 || w.AvgLow > 80:
		risk += 20
	case w.AvgLow < 25 || w.AvgLow > 75:
		risk += 10
	}
	return math.Min(risk, 100)
}

// precipitationRisk penalizes both a very wet week and a near-dry one.
func precipitationRisk(w Weather) float64 {
	switch p := w.TotalPrecipitation; {
	case p > 50:
		return 40
	case p > 30:
		return 25
	case p < 2:
		return 35
	default:
		return 15
	}
}

func level(score float64) string {
	switch {
	case score >= 70:
		return "High"
	case score >= 40:
		return "Moderate"
	case score >= 20:
		return "Low"
	default:
		return "Very Low"
	}
}

func grade(score float64) string {
	switch {
	case score >= 80:
		return "D"
	case score >= 60:
		return "C"
	case score >= 40:
		return "B"
	default:
		return "A"
	}
}

func floodDescription(score float64) string {
	switch {
	case score >= 50:
		return "High flood risk area. Consider flood insurance and elevation."
	case score >= 30:
		return "Moderate flood risk. Monitor local flood zones and drainage."
	default:
		return "Low flood risk. Standard precautions sufficient."
	}
}

func temperatureDescription(score float64) string {
	switch {
	case score >= 40:
		return "Extreme temperature variations. Higher HVAC costs expected."
	case score >= 20:
		return "Moderate temperature ranges. Standard climate control needs."
	default:
		return "Mild climate conditions. Energy efficient location."
	}
}

func precipitationDescription(score float64) string {
	switch {
	case score >= 40:
		return "Extreme precipitation patterns. Enhanced drainage recommended."
	case score >= 20:
		return "Variable precipitation. Standard water management sufficient."
	default:
		return "Stable precipitation patterns. Low water-related risks."
	}
}

func recommendations(overall float64) []string {
	switch {
	case overall >= 50:
		return []string{
			"Consider climate-resilient building materials",
			"Install comprehensive drainage systems",
			"Invest in efficient HVAC systems",
			"Review insurance coverage for climate risks",
		}
	case overall >= 30:
		return []string{
			"Monitor local climate trends",
			"Ensure adequate drainage",
			"Consider energy-efficient upgrades",
		}
	default:
		return []string{
			"Location has favorable climate conditions",
			"Consider sustainable landscaping",
			"Monitor long-term climate trends",
		}
	}
}

func tenth(v float64) float64 {
	return math.Round(v) / 10
}
