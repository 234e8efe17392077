package google

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/domain"
)

const (
	defaultPlacesURL = "https://maps.googleapis.com/maps/api/place/nearbysearch/json"

	// PlacesSource labels amenity data produced by the nearby search.
	PlacesSource = "Google Places API (nearby search)"

	// maxPlacesPerType is the size of one nearby search page.
	maxPlacesPerType = 20
)

// placeQuery is one category searched around the property.
type placeQuery struct {
	placeType string
	radius    int
}

var areaQueries = []placeQuery{
	{"restaurant", 800},
	{"school", 1500},
	{"hospital", 2000},
	{"shopping_mall", 1500},
}

// AmenitySource returns the label for AreaAmenities results.
func (c *Client) AmenitySource() string { return PlacesSource }

// AreaAmenities counts restaurants, schools, hospitals and shopping centers around
// coords and scores the area. Transit is not searched, so only Overall is scored.
func (c *Client) AreaAmenities(ctx context.Context, coords domain.Coordinates) (domain.Amenities, error) {
	if !c.Configured() {
		return domain.Amenities{}, eris.New("google: places search requires a configured credential")
	}

	found := make([]int, len(areaQueries))
	g, gctx := errgroup.WithContext(ctx)
	for i, q := range areaQueries {
		g.Go(func() error {
			n, err := c.NearbyPlaces(gctx, coords, q.placeType, q.radius)
			found[i] = n
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return domain.Amenities{}, err
	}

	return AreaScore(coords, domain.AmenityCounts{
		Restaurants: found[0],
		Schools:     found[1],
		Healthcare:  found[2],
		Services:    found[3],
	}), nil
}

// NearbyPlaces returns how many places of placeType lie within radius meters,
// capped at one result page.
func (c *Client) NearbyPlaces(ctx context.Context, coords domain.Coordinates, placeType string, radius int) (int, error) {
	params := url.Values{
		"location": {strconv.FormatFloat(coords.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(coords.Lon, 'f', -1, 64)},
		"radius":   {strconv.Itoa(radius)},
		"type":     {placeType},
		"key":      {c.apiKey},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.placesURL+"?"+params.Encode(), nil)
	if err != nil {
		return 0, eris.Wrap(err, "google: build places request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, eris.Wrapf(err, "google: places request for %s", placeType)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return 0, eris.Errorf("google: places returned status %d", resp.StatusCode)
	}

	var pr placesResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return 0, eris.Wrap(err, "google: parse places response")
	}

	switch pr.Status {
	case "OK", "ZERO_RESULTS":
	case "REQUEST_DENIED":
		return 0, eris.Errorf("google: places request denied: %s", pr.ErrorMessage)
	default:
		return 0, eris.Errorf("google: places status %s", pr.Status)
	}
	return min(len(pr.Results), maxPlacesPerType), nil
}

// AreaScore weights the four searched categories into a whole 1–10 score:
// restaurants up to 3 points, schools 2.5, hospitals 2, shopping 2.5.
func AreaScore(coords domain.Coordinates, counts domain.AmenityCounts) domain.Amenities {
	total := math.Min(float64(counts.Restaurants)*0.2, 3.0) +
		math.Min(float64(counts.Schools)*0.3, 2.5) +
		math.Min(float64(counts.Healthcare)*0.4, 2.0) +
		math.Min(float64(counts.Services)*0.3, 2.5)
	score := max(math.Min(math.RoundToEven(total), 10), 1)

	return domain.Amenities{
		Coordinates: coords,
		Overall:     score,
		Density:     density(score),
		Counts:      &counts,
	}
}

func density(score float64) string {
	switch {
	case score >= 7:
		return "High"
	case score >= 4:
		return "Moderate"
	default:
		return "Low"
	}
}

type placesResponse struct {
	Results []struct {
		Name    string `json:"name"`
		PlaceID string `json:"place_id"`
	} `json:"results"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}
