// Package openmeteo implements the optional climate provider on the Open-Meteo
// forecast API.
package openmeteo

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/domain"
)

const (
	defaultBaseURL = "https://api.open-meteo.com/v1/forecast"

	// Source labels risk data produced by this adapter.
	Source = "Open-Meteo Forecast API"

	forecastDays = 7
)

// Weather summarizes a seven-day forecast. Temperatures are °F, precipitation mm.
type Weather struct {
	CurrentTemp        float64
	Humidity           float64
	AvgHigh            float64
	AvgLow             float64
	TotalPrecipitation float64
}

// Client implements domain.Adapter for climate risk.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	logger     *slog.Logger
}

// NewClient creates an Open-Meteo client. The API needs no credential.
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{},
		baseURL:    defaultBaseURL,
		timeout:    timeout,
		logger:     logger,
	}
}

func (c *Client) Name() string                    { return domain.ProviderClimate }
func (c *Client) Criticality() domain.Criticality { return domain.Optional }

// Fetch assesses climate risk at the geocoded coordinates.
func (c *Client) Fetch(ctx context.Context, req domain.Request) domain.ProviderResult {
	if req.Coordinates.IsZero() {
		return domain.Unavailable("no coordinates to assess")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	w, err := c.Forecast(ctx, req.Coordinates)
	if err != nil {
		reason := domain.ReasonFromError(err)
		if ctx.Err() != nil {
			reason = domain.ReasonFromError(ctx.Err())
		}
		c.logger.Warn("open-meteo forecast failed", "provider", c.Name(), "reason", reason, "error", err)
		return domain.Unavailable(reason)
	}
	return domain.Success(Assess(req.Coordinates, w), Source)
}

// Forecast fetches current conditions and a seven-day daily forecast.
func (c *Client) Forecast(ctx context.Context, coords domain.Coordinates) (Weather, error) {
	params := url.Values{
		"latitude":         {strconv.FormatFloat(coords.Lat, 'f', 4, 64)},
		"longitude":        {strconv.FormatFloat(coords.Lon, 'f', 4, 64)},
		"current":          {"temperature_2m,relative_humidity_2m,precipitation,weather_code"},
		"daily":            {"temperature_2m_max,temperature_2m_min,precipitation_sum"},
		"temperature_unit": {"fahrenheit"},
		"forecast_days":    {strconv.Itoa(forecastDays)},
		"timezone":         {"auto"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Weather{}, eris.Wrap(err, "open-meteo: build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Weather{}, eris.Wrap(err, "open-meteo: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	var fr forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&fr); err != nil {
		return Weather{}, eris.Wrapf(err, "open-meteo: parse response (status %d)", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK || fr.Error {
		return Weather{}, eris.Errorf("open-meteo: returned status %d: %s", resp.StatusCode, fr.Reason)
	}
	if len(fr.Daily.TemperatureMax) == 0 || len(fr.Daily.TemperatureMin) == 0 {
		return Weather{}, eris.New("open-meteo: forecast has no daily data")
	}

	return Weather{
		CurrentTemp:        fr.Current.Temperature,
		Humidity:           fr.Current.Humidity,
		AvgHigh:            mean(fr.Daily.TemperatureMax),
		AvgLow:             mean(fr.Daily.TemperatureMin),
		TotalPrecipitation: sum(fr.Daily.PrecipitationSum),
	}, nil
}

func sum(values []*float64) float64 {
	var total float64
	for _, v := range values {
		if v != nil {
			total += *v
		}
	}
	return total
}

func mean(values []*float64) float64 {
	var total float64
	var n int
	for _, v := range values {
		if v != nil {
			total += *v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

// Open-Meteo API response types.

type forecastResponse struct {
	Error   bool   `json:"error"`
	Reason  string `json:"reason"`
	Current struct {
		Temperature   float64 `json:"temperature_2m"`
		Humidity      float64 `json:"relative_humidity_2m"`
		Precipitation float64 `json:"precipitation"`
		WeatherCode   int     `json:"weather_code"`
	} `json:"current"`
	Daily struct {
		Time             []string   `json:"time"`
		TemperatureMax   []*float64 `json:"temperature_2m_max"`
		TemperatureMin   []*float64 `json:"temperature_2m_min"`
		PrecipitationSum []*float64 `json:"precipitation_sum"`
	} `json:"daily"`
}
