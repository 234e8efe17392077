package report

import (
	"strings"

	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	printer = message.NewPrinter(language.AmericanEnglish)
	titler  = cases.Title(language.AmericanEnglish)
)

// RenderText renders the property research, market analysis and risk
// assessment blocks, separated by blank lines.
func RenderText(r Report) string {
	blocks := []string{
		propertyResearch(r),
		marketAnalysis(r),
		riskAssessment(r),
	}
	if r.Partial() {
		blocks = append(blocks, degradationNotes(r))
	}
	return strings.Join(blocks, "\n\n") + "\n"
}

func propertyResearch(r Report) string {
	var b strings.Builder
	loc := r.Location.Value
	demo := r.Demographics.Value
	am := r.Amenities.Value

	line(&b, "PROPERTY RESEARCH - %s", r.Address)
	b.WriteString("\n")
	line(&b, "Location:          %.6f, %.6f", loc.Coordinates.Lat, loc.Coordinates.Lon)
	line(&b, "Jurisdiction:      %s", Jurisdiction(r.Jurisdiction))
	if loc.Neighborhood != "" {
		line(&b, "Neighborhood:      %s", loc.Neighborhood)
	}
	line(&b, "Population:        %d residents", demo.Population)
	line(&b, "Median income:     $%d", demo.MedianIncome)
	line(&b, "Median home value: $%d", demo.MedianHomeValue)
	line(&b, "Education:         %.1f%% bachelor's or higher", demo.EducationRate)
	line(&b, "Employment:        %.1f%%", demo.EmploymentRate)
	b.WriteString("\n")
	line(&b, "Area score:        %.1f/10%s", am.Overall, estimatedMark(r.Amenities.Estimated))
	if am.Density != "" {
		line(&b, "Amenity density:   %s", am.Density)
	} else {
		line(&b, "Walkability:       %.1f/10", am.Walkability)
		line(&b, "Transit access:    %.1f/10", am.Transit)
		line(&b, "Lifestyle:         %.1f/10", am.Lifestyle)
	}
	if c := am.Counts; c != nil {
		line(&b, "Dining:            %d restaurants", c.Restaurants)
		line(&b, "Schools:           %d educational facilities", c.Schools)
		line(&b, "Healthcare:        %d medical facilities", c.Healthcare)
	}
	for _, h := range am.Highlights {
		line(&b, "  - %s", h)
	}
	b.WriteString("\n")
	line(&b, "Data sources: %s", strings.Join(r.DataSources, ", "))
	return strings.TrimRight(b.String(), "\n")
}

func marketAnalysis(r Report) string {
	var b strings.Builder
	demo := r.Demographics.Value

	line(&b, "MARKET ANALYSIS - %s", r.Address)
	b.WriteString("\n")
	line(&b, "Area:                  %s", demo.AreaName)
	line(&b, "Median home value:     $%d", demo.MedianHomeValue)
	line(&b, "Median income:         $%d", demo.MedianIncome)
	if demo.MedianRent > 0 {
		line(&b, "Median rent:           $%d/month", demo.MedianRent)
	}
	line(&b, "Price-to-income ratio: %.1f", demo.IncomeToHousingRatio)
	line(&b, "Population:            %d", demo.Population)
	line(&b, "Employment:            %.1f%%", demo.EmploymentRate)
	line(&b, "Education:             %.1f%% bachelor's or higher", demo.EducationRate)
	b.WriteString("\n")
	line(&b, "Source: %s", r.Demographics.Source)
	return strings.TrimRight(b.String(), "\n")
}

func riskAssessment(r Report) string {
	var b strings.Builder
	risk := r.Risk.Value

	line(&b, "RISK ASSESSMENT - %s", r.Address)
	b.WriteString("\n")
	line(&b, "Climate grade:      %s (%s)%s", risk.Grade, risk.Overall.Level, estimatedMark(r.Risk.Estimated))
	line(&b, "Overall risk:       %.1f/10", risk.Overall.Score)
	riskLine(&b, "Flood risk:        ", risk.Flood)
	riskLine(&b, "Temperature risk:  ", risk.Temperature)
	riskLine(&b, "Precipitation risk:", risk.Precipitation)
	if len(risk.Recommendations) > 0 {
		b.WriteString("\nRecommendations:\n")
		for _, rec := range risk.Recommendations {
			line(&b, "  - %s", rec)
		}
	}
	b.WriteString("\n")
	line(&b, "Source: %s", r.Risk.Source)
	return strings.TrimRight(b.String(), "\n")
}

func degradationNotes(r Report) string {
	var b strings.Builder
	b.WriteString("NOTES\n\n")
	// Substituted sections are covered by the degradations below.
	sections := []struct {
		name      string
		source    string
		reason    string
		estimated bool
	}{
		{"Location", r.Location.Source, r.Location.Reason, r.Location.Estimated},
		{"Demographics", r.Demographics.Source, r.Demographics.Reason, r.Demographics.Estimated},
		{"Amenities", r.Amenities.Source, r.Amenities.Reason, r.Amenities.Estimated},
		{"Climate", r.Risk.Source, r.Risk.Reason, r.Risk.Estimated},
	}
	for _, s := range sections {
		if s.reason != "" && !s.estimated {
			line(&b, "%s from %s (%s).", s.name, s.source, s.reason)
		}
	}
	for _, d := range r.Degradations {
		line(&b, "%s provider unavailable (%s); estimated values shown.", titler.String(d.Provider), d.Reason)
	}
	return strings.TrimRight(b.String(), "\n")
}

func riskLine(b *strings.Builder, label string, s domain.RiskScore) {
	line(b, "%s %.1f/10 %s", label, s.Score, s.Level)
	if s.Description != "" {
		line(b, "                    %s", s.Description)
	}
}

// Jurisdiction renders "Prince William County, VA" or "Virginia" at state granularity.
func Jurisdiction(j domain.JurisdictionMatch) string {
	if j.Granularity() == domain.GranularityCounty && j.CountyName != "" {
		name := titler.String(j.CountyName)
		if !strings.HasSuffix(name, " City") {
			name += " County"
		}
		return name + ", " + j.StateAbbreviation
	}
	return j.StateName
}

func estimatedMark(estimated bool) string {
	if estimated {
		return " (estimated)"
	}
	return ""
}

func line(b *strings.Builder, format string, args ...any) {
	b.WriteString(printer.Sprintf(format, args...))
	b.WriteString("\n")
}
