// Package osm implements the optional points-of-interest provider on OpenStreetMap:
// Nominatim locates the address and Overpass counts amenities around it.
package osm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/domain"
)

const (
	defaultNominatimURL = "https://nominatim.openstreetmap.org"
	defaultOverpassURL  = "https://overpass-api.de/api/interpreter"

	// Source labels amenity data produced by this adapter.
	Source = "OpenStreetMap (Nominatim + Overpass)"

	// searchRadiusMeters bounds the Overpass amenity query.
	searchRadiusMeters = 1000

	reasonNotFound = "address not found by Nominatim"
)

// NearbySearch scores amenities around coordinates the geocoder already
// resolved. Client uses it when Nominatim cannot locate the address.
type NearbySearch interface {
	AreaAmenities(ctx context.Context, coords domain.Coordinates) (domain.Amenities, error)
	AmenitySource() string
}

// Client implements domain.Adapter for points of interest.
type Client struct {
	httpClient   *http.Client
	nominatimURL string
	overpassURL  string
	userAgent    string
	limiter      *rate.Limiter // Nominatim usage policy: at most 1 request per second
	timeout      time.Duration
	fallback     NearbySearch
	logger       *slog.Logger
}

// NewClient creates an OpenStreetMap client. userAgent identifies the application
// to Nominatim, which rejects anonymous traffic.
func NewClient(userAgent string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient:   &http.Client{},
		nominatimURL: defaultNominatimURL,
		overpassURL:  defaultOverpassURL,
		userAgent:    userAgent,
		limiter:      rate.NewLimiter(rate.Every(time.Second), 1),
		timeout:      timeout,
		logger:       logger,
	}
}

func (c *Client) Name() string                    { return domain.ProviderPointsOfInterest }
func (c *Client) Criticality() domain.Criticality { return domain.Optional }

// Fetch locates req.Address and scores the amenities within 1 km. When Nominatim
// cannot locate the address and a fallback search is set, the geocoder's
// coordinates are searched instead and the result is Degraded.
func (c *Client) Fetch(ctx context.Context, req domain.Request) domain.ProviderResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	coords, err := c.Locate(ctx, req.Address)
	if err != nil {
		if c.fallback != nil && !req.Coordinates.IsZero() && ctx.Err() == nil {
			return c.fetchNearby(ctx, req.Coordinates, err)
		}
		return c.unavailable(ctx, err)
	}

	counts, err := c.Amenities(ctx, coords)
	if err != nil {
		return c.unavailable(ctx, err)
	}
	return domain.Success(Score(coords, counts), Source)
}

// WithFallback sets the search used when Nominatim cannot locate an address.
func (c *Client) WithFallback(f NearbySearch) *Client {
	c.fallback = f
	return c
}

func (c *Client) fetchNearby(ctx context.Context, coords domain.Coordinates, locateErr error) domain.ProviderResult {
	locateReason := domain.ReasonFromError(locateErr)
	amenities, err := c.fallback.AreaAmenities(ctx, coords)
	if err != nil {
		c.logger.Warn("nearby search fallback failed",
			"provider", c.Name(),
			"source", c.fallback.AmenitySource(),
			"error", err,
		)
		return c.unavailable(ctx, locateErr)
	}
	return domain.Degraded(amenities, c.fallback.AmenitySource(), "nominatim: "+locateReason)
}

func (c *Client) unavailable(ctx context.Context, err error) domain.ProviderResult {
	reason := domain.ReasonFromError(err)
	if ctx.Err() != nil {
		reason = domain.ReasonFromError(ctx.Err())
	}
	c.logger.Warn("osm amenities failed", "provider", c.Name(), "reason", reason, "error", err)
	return domain.Unavailable(reason)
}

// Locate geocodes an address with Nominatim.
func (c *Client) Locate(ctx context.Context, address string) (domain.Coordinates, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.Coordinates{}, eris.Wrap(err, "osm: nominatim rate limit")
	}

	params := url.Values{
		"q":            {address},
		"format":       {"jsonv2"},
		"limit":        {"1"},
		"countrycodes": {"us"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.nominatimURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return domain.Coordinates{}, eris.Wrap(err, "osm: build nominatim request")
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Coordinates{}, eris.Wrap(err, "osm: nominatim request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return domain.Coordinates{}, eris.Errorf("osm: nominatim returned status %d", resp.StatusCode)
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return domain.Coordinates{}, eris.Wrap(err, "osm: parse nominatim response")
	}
	if len(places) == 0 {
		return domain.Coordinates{}, eris.New(reasonNotFound)
	}

	lat, errLat := strconv.ParseFloat(places[0].Lat, 64)
	lon, errLon := strconv.ParseFloat(places[0].Lon, 64)
	if errLat != nil || errLon != nil {
		return domain.Coordinates{}, eris.Errorf("osm: nominatim returned bad coordinates %q,%q", places[0].Lat, places[0].Lon)
	}
	return domain.Coordinates{Lat: lat, Lon: lon}, nil
}

// Amenities counts the categorized points of interest around coords.
func (c *Client) Amenities(ctx context.Context, coords domain.Coordinates) (domain.AmenityCounts, error) {
	form := url.Values{"data": {overpassQuery(coords, searchRadiusMeters)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.overpassURL, strings.NewReader(form.Encode()))
	if err != nil {
		return domain.AmenityCounts{}, eris.Wrap(err, "osm: build overpass request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.AmenityCounts{}, eris.Wrap(err, "osm: overpass request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return domain.AmenityCounts{}, eris.Errorf("osm: overpass returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var or overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&or); err != nil {
		return domain.AmenityCounts{}, eris.Wrap(err, "osm: parse overpass response")
	}

	var counts domain.AmenityCounts
	for _, el := range or.Elements {
		categorize(&counts, el.Tags)
	}
	return counts, nil
}

func overpassQuery(c domain.Coordinates, radius int) string {
	around := fmt.Sprintf("(around:%d,%f,%f)", radius, c.Lat, c.Lon)
	return "[out:json][timeout:25];(" +
		`node["amenity"~"^(restaurant|cafe|bar|fast_food|school|university|hospital|clinic|pharmacy|bank|atm|supermarket|convenience|shopping_mall|park|library|gym|fuel)$"]` + around + ";" +
		`node["public_transport"~"^(platform|station|stop_position)$"]` + around + ";" +
		`node["shop"~"^(supermarket|convenience|mall|department_store)$"]` + around + ";" +
		`node["leisure"~"^(park|playground|sports_centre|fitness_centre|swimming_pool)$"]` + around + ";" +
		");out body;"
}

// categorize adds one element to its first matching category. Elements matching
// none (a library, a gym) are ignored.
func categorize(counts *domain.AmenityCounts, tags map[string]string) {
	amenity, shop := tags["amenity"], tags["shop"]
	leisure, transport := tags["leisure"], tags["public_transport"]

	switch {
	case oneOf(amenity, "restaurant", "cafe", "bar", "fast_food"):
		counts.Restaurants++
	case oneOf(amenity, "school", "university"):
		counts.Schools++
	case oneOf(amenity, "hospital", "clinic", "pharmacy"):
		counts.Healthcare++
	case oneOf(amenity, "bank", "atm") || oneOf(shop, "supermarket", "convenience", "mall", "department_store"):
		counts.Services++
	case transport != "" || amenity == "fuel":
		counts.Transit++
	case leisure != "" || amenity == "park":
		counts.Recreation++
	}
}

func oneOf(v string, options ...string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}

// OSM API response types.

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

type overpassElement struct {
	Type string            `json:"type"`
	ID   int64             `json:"id"`
	Lat  float64           `json:"lat"`
	Lon  float64           `json:"lon"`
	Tags map[string]string `json:"tags"`
}
