// Package mapbox implements an alternate geocoding provider on the Mapbox
// Geocoding v5 API.
package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/domain"
)

const (
	defaultBaseURL = "https://api.mapbox.com/geocoding/v5/mapbox.places"

	// Source labels location data produced by this adapter.
	Source = "Mapbox Geocoding API"

	reasonNoCredential = "geocoding provider requires a configured credential"
	reasonNotFound     = "address not found"
)

// Client implements domain.Adapter for geocoding using Mapbox.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	logger     *slog.Logger
}

// NewClient creates a Mapbox geocoding client.
func NewClient(token string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		token:      token,
		httpClient: &http.Client{},
		baseURL:    defaultBaseURL,
		timeout:    timeout,
		logger:     logger,
	}
}

func (c *Client) Name() string                    { return domain.ProviderGeocoding }
func (c *Client) Criticality() domain.Criticality { return domain.Essential }

// Configured reports whether an access token is set.
func (c *Client) Configured() bool { return c.token != "" }

// Fetch geocodes req.Address.
func (c *Client) Fetch(ctx context.Context, req domain.Request) domain.ProviderResult {
	if !c.Configured() {
		return domain.Unavailable(reasonNoCredential)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	loc, err := c.ForwardGeocode(ctx, req.Address)
	if err != nil {
		reason := domain.ReasonFromError(err)
		if ctx.Err() != nil {
			reason = domain.ReasonFromError(ctx.Err())
		}
		c.logger.Warn("mapbox geocode failed", "provider", c.Name(), "reason", reason, "error", err)
		return domain.Unavailable(reason)
	}
	return domain.Success(loc, Source)
}

// ForwardGeocode converts a one-line US address to a location.
func (c *Client) ForwardGeocode(ctx context.Context, address string) (domain.Location, error) {
	u := fmt.Sprintf("%s/%s.json", c.baseURL, url.PathEscape(address))
	params := url.Values{
		"access_token": {c.token},
		"limit":        {"1"},
		"country":      {"us"},
		"types":        {"address,postcode,place"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u+"?"+params.Encode(), nil)
	if err != nil {
		return domain.Location{}, eris.Wrap(err, "mapbox: build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Location{}, eris.Wrap(err, "mapbox: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Location{}, eris.Errorf("mapbox: returned status %d: %s", resp.StatusCode, body)
	}

	var mr response
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return domain.Location{}, eris.Wrap(err, "mapbox: decode response")
	}
	if len(mr.Features) == 0 {
		return domain.Location{}, eris.New(reasonNotFound)
	}
	return toLocation(mr.Features[0]), nil
}

// toLocation copies a feature into the generic component vocabulary. Mapbox names
// the state "region" and the county "district"; those land under the generic
// state and county keys rather than Google's administrative levels.
func toLocation(f feature) domain.Location {
	components := domain.AddressComponents{
		domain.ComponentFormattedAddress: f.PlaceName,
	}
	if f.Address != "" {
		components[domain.ComponentStreet] = f.Address + " " + f.Text
	}

	var neighborhood, locality string
	for _, ctxItem := range f.Context {
		kind, _, _ := strings.Cut(ctxItem.ID, ".")
		switch kind {
		case "region":
			components[domain.ComponentState] = ctxItem.Text
		case "district":
			components[domain.ComponentCounty] = ctxItem.Text
		case "place":
			components[domain.ComponentLocality] = ctxItem.Text
			locality = ctxItem.Text
		case "neighborhood":
			components[domain.ComponentNeighborhood] = ctxItem.Text
			neighborhood = ctxItem.Text
		case "postcode":
			components[domain.ComponentPostalCode] = ctxItem.Text
		case "country":
			components[domain.ComponentCountry] = strings.ToUpper(ctxItem.ShortCode)
		}
	}
	if neighborhood == "" {
		neighborhood = locality
	}

	loc := domain.Location{
		FormattedAddress: f.PlaceName,
		Components:       components,
		PlaceID:          f.ID,
		LocationType:     accuracyQuality(f.Properties.Accuracy),
		Neighborhood:     neighborhood,
	}
	// Mapbox uses lon,lat order.
	if len(f.Center) == 2 {
		loc.Coordinates = domain.Coordinates{Lat: f.Center[1], Lon: f.Center[0]}
	}
	return loc
}

// accuracyQuality maps the address accuracy property onto the shared quality vocabulary.
func accuracyQuality(accuracy string) string {
	switch accuracy {
	case "rooftop", "parcel", "point":
		return "rooftop"
	case "interpolated":
		return "range"
	case "street", "intersection":
		return "centroid"
	default:
		return "approximate"
	}
}

// Mapbox API response types.

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	ID         string        `json:"id"`
	Center     []float64     `json:"center"` // [lon, lat]
	PlaceName  string        `json:"place_name"`
	Text       string        `json:"text"`
	Address    string        `json:"address"`
	Relevance  float64       `json:"relevance"`
	Properties properties    `json:"properties"`
	Context    []contextItem `json:"context"`
}

type properties struct {
	Accuracy string `json:"accuracy"`
}

type contextItem struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	ShortCode string `json:"short_code"`
}
