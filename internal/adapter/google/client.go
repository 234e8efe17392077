// Package google implements the essential geocoding provider on the Google Maps
// Geocoding API, and a Places nearby search that scores amenities when
// OpenStreetMap cannot locate an address.
package google

import (
	"context"
	"encoding/json"
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
	defaultBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"

	// Source labels location data produced by this adapter.
	Source = "Google Maps Geocoding API"

	reasonNoCredential = "geocoding provider requires a configured credential"
	reasonNotFound     = "address not found"
)

// Client implements domain.Adapter for geocoding.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	placesURL  string
	timeout    time.Duration
	logger     *slog.Logger
}

// NewClient creates a Google geocoding client. An empty apiKey yields a client whose
// every Fetch is Unavailable.
func NewClient(apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{},
		baseURL:    defaultBaseURL,
		placesURL:  defaultPlacesURL,
		timeout:    timeout,
		logger:     logger,
	}
}

func (c *Client) Name() string                    { return domain.ProviderGeocoding }
func (c *Client) Criticality() domain.Criticality { return domain.Essential }

// Configured reports whether an API key is set.
func (c *Client) Configured() bool { return c.apiKey != "" }

// Fetch geocodes req.Address.
func (c *Client) Fetch(ctx context.Context, req domain.Request) domain.ProviderResult {
	if !c.Configured() {
		return domain.Unavailable(reasonNoCredential)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	loc, err := c.Geocode(ctx, req.Address)
	if err != nil {
		reason := domain.ReasonFromError(err)
		if ctx.Err() != nil {
			reason = domain.ReasonFromError(ctx.Err())
		}
		c.logger.Warn("google geocode failed", "provider", c.Name(), "reason", reason, "error", err)
		return domain.Unavailable(reason)
	}
	return domain.Success(loc, Source)
}

// Geocode resolves one address to its first Google result.
func (c *Client) Geocode(ctx context.Context, address string) (domain.Location, error) {
	params := url.Values{
		"address": {address},
		"key":     {c.apiKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.Location{}, eris.Wrap(err, "google: build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Location{}, eris.Wrap(err, "google: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return domain.Location{}, eris.Errorf("google: returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Location{}, eris.Wrap(err, "google: read body")
	}

	var gr geocodeResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return domain.Location{}, eris.Wrap(err, "google: parse response")
	}

	switch gr.Status {
	case "OK":
	case "ZERO_RESULTS":
		return domain.Location{}, eris.New(reasonNotFound)
	case "REQUEST_DENIED":
		return domain.Location{}, eris.Errorf("google: request denied: %s", gr.ErrorMessage)
	default:
		return domain.Location{}, eris.Errorf("google: status %s", gr.Status)
	}
	if len(gr.Results) == 0 {
		return domain.Location{}, eris.New(reasonNotFound)
	}

	return toLocation(gr.Results[0]), nil
}

func toLocation(r result) domain.Location {
	parsed := make(map[string]string, len(r.AddressComponents))
	for _, ac := range r.AddressComponents {
		for _, t := range ac.Types {
			if _, seen := parsed[t]; seen {
				continue
			}
			if t == "country" {
				parsed[t] = ac.ShortName
			} else {
				parsed[t] = ac.LongName
			}
		}
	}

	components := domain.AddressComponents{
		domain.ComponentFormattedAddress: r.FormattedAddress,
	}
	set := func(key, value string) {
		if value = strings.TrimSpace(value); value != "" {
			components[key] = value
		}
	}
	set(domain.ComponentStreet, parsed["street_number"]+" "+parsed["route"])
	set(domain.ComponentNeighborhood, parsed["neighborhood"])
	set(domain.ComponentLocality, parsed["locality"])
	set(domain.ComponentAdminLevel1, parsed["administrative_area_level_1"])
	set(domain.ComponentAdminLevel2, parsed["administrative_area_level_2"])
	set(domain.ComponentPostalCode, parsed["postal_code"])
	set(domain.ComponentCountry, parsed["country"])

	neighborhood := firstNonEmpty(parsed["neighborhood"], parsed["sublocality"], parsed["locality"])

	return domain.Location{
		FormattedAddress: r.FormattedAddress,
		Coordinates: domain.Coordinates{
			Lat: r.Geometry.Location.Lat,
			Lon: r.Geometry.Location.Lng,
		},
		Components:   components,
		PlaceID:      r.PlaceID,
		LocationType: locationQuality(r.Geometry.LocationType),
		Neighborhood: neighborhood,
	}
}

// locationQuality maps Google's location_type onto the shared quality vocabulary.
func locationQuality(locType string) string {
	switch strings.ToUpper(locType) {
	case "ROOFTOP":
		return "rooftop"
	case "RANGE_INTERPOLATED":
		return "range"
	case "GEOMETRIC_CENTER":
		return "centroid"
	default:
		return "approximate"
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Google API response types.

type geocodeResponse struct {
	Results      []result `json:"results"`
	Status       string   `json:"status"`
	ErrorMessage string   `json:"error_message"`
}

type result struct {
	AddressComponents []addressComponent `json:"address_components"`
	FormattedAddress  string             `json:"formatted_address"`
	Geometry          struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
		LocationType string `json:"location_type"`
	} `json:"geometry"`
	PlaceID string `json:"place_id"`
}

type addressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}
