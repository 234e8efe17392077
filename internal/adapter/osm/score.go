package osm

import (
	"fmt"
	"math"

	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/domain"
)

// Score turns amenity counts into the 0–10 location scores and highlights.
func Score(coords domain.Coordinates, counts domain.AmenityCounts) domain.Amenities {
	walk := walkability(counts)
	transit := transitAccess(counts)
	lifestyle := lifestyleQuality(counts)

	return domain.Amenities{
		Coordinates: coords,
		Walkability: tenth(walk),
		Transit:     tenth(transit),
		Lifestyle:   tenth(lifestyle),
		Overall:     tenth(float64(walk+transit+lifestyle) / 3),
		Counts:      &counts,
		Highlights:  highlights(counts),
	}
}

// walkability is 0–100, weighted by category with a cap per category.
func walkability(c domain.AmenityCounts) int {
	score := min(c.Restaurants*3, 25) +
		min(c.Services*2, 20) +
		min(c.Schools*5, 15) +
		min(c.Healthcare*5, 15) +
		min(c.Recreation*3, 15) +
		min(c.Transit*2, 10)
	return min(score, 100)
}

func transitAccess(c domain.AmenityCounts) int {
	switch {
	case c.Transit >= 5:
		return 90
	case c.Transit >= 3:
		return 75
	case c.Transit >= 1:
		return 60
	default:
		return 30
	}
}

// lifestyleQuality is variety (max 60) plus everyday convenience (max 40).
func lifestyleQuality(c domain.AmenityCounts) int {
	variety := min((c.Restaurants+c.Recreation+c.Services)*2, 60)
	convenience := min(c.Services*5, 40)
	return min(variety+convenience, 100)
}

func highlights(c domain.AmenityCounts) []string {
	var out []string

	switch {
	case c.Restaurants >= 10:
		out = append(out, fmt.Sprintf("Vibrant dining scene with %d+ restaurants nearby", c.Restaurants))
	case c.Restaurants >= 5:
		out = append(out, fmt.Sprintf("Good dining options with %d restaurants", c.Restaurants))
	}

	switch {
	case c.Schools >= 3:
		out = append(out, fmt.Sprintf("Excellent educational access with %d schools", c.Schools))
	case c.Schools >= 1:
		out = append(out, "Educational facilities available")
	}

	if c.Healthcare >= 2 {
		out = append(out, fmt.Sprintf("Good healthcare access with %d facilities", c.Healthcare))
	}

	switch {
	case c.Transit >= 5:
		out = append(out, fmt.Sprintf("Excellent public transportation with %d stops", c.Transit))
	case c.Transit >= 2:
		out = append(out, fmt.Sprintf("Good transit access with %d stops", c.Transit))
	}

	if c.Recreation >= 5 {
		out = append(out, fmt.Sprintf("Great recreation options with %d parks/facilities", c.Recreation))
	}

	if len(out) == 0 {
		out = append(out, "Quiet residential area")
	}
	return out
}

// tenth rescales a 0–100 score to 0–10 with one decimal.
func tenth[T int | float64](v T) float64 {
	return math.Round(float64(v)) / 10
}
