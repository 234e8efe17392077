// Package census implements the essential demographics provider and the county
// directory on the US Census Bureau ACS 5-year API.
package census

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/domain"
)

const (
	defaultBaseURL = "https://api.census.gov/data"

	reasonNoCredential = "demographics provider requires a configured credential"
)

// ErrNoCredential is returned by ListCounties when no API key is configured.
var ErrNoCredential = errors.New(reasonNoCredential)

// ACS 5-year variables.
const (
	varPopulation   = "B01003_001E"
	varIncome       = "B19013_001E"
	varHomeValue    = "B25077_001E"
	varRent         = "B25064_001E"
	varLaborForce   = "B23025_002E"
	varUnemployed   = "B23025_005E"
	varBachelors    = "B15003_022E"
	varMasters      = "B15003_023E"
	varProfessional = "B15003_024E"
	varDoctorate    = "B15003_025E"
)

var acsVariables = []string{
	"NAME",
	varPopulation,
	varIncome,
	varHomeValue,
	varRent,
	varLaborForce,
	varUnemployed,
	varBachelors,
	varMasters,
	varProfessional,
	varDoctorate,
}

// SourceLabel names the ACS dataset and the granularity of its figures.
func SourceLabel(g domain.Granularity) string {
	return fmt.Sprintf("US Census Bureau ACS 5-Year (%s level)", g)
}

// Client implements domain.Adapter for demographics and domain.CountyDirectory.
type Client struct {
	apiKey     string
	year       int
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	logger     *slog.Logger
}

// NewClient creates a Census client for the given ACS release year.
func NewClient(apiKey string, year int, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		apiKey:     apiKey,
		year:       year,
		httpClient: &http.Client{},
		baseURL:    defaultBaseURL,
		timeout:    timeout,
		logger:     logger,
	}
}

func (c *Client) Name() string                    { return domain.ProviderDemographics }
func (c *Client) Criticality() domain.Criticality { return domain.Essential }

// Configured reports whether an API key is set.
func (c *Client) Configured() bool { return c.apiKey != "" }

// Fetch returns demographics for req.Jurisdiction. County figures are tried first
// when a county code is known; if only the state query succeeds the result is
// Degraded at state granularity.
func (c *Client) Fetch(ctx context.Context, req domain.Request) domain.ProviderResult {
	if !c.Configured() {
		return domain.Unavailable(reasonNoCredential)
	}
	j := req.Jurisdiction
	if j.StateFIPS == "" {
		return domain.Unavailable("no state jurisdiction to query")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if j.Granularity() == domain.GranularityCounty {
		d, err := c.CountyDemographics(ctx, j.StateFIPS, j.CountyFIPS)
		if err == nil {
			return domain.Success(d, SourceLabel(domain.GranularityCounty))
		}
		countyReason := c.reason(ctx, err)
		c.logger.Warn("county demographics failed, trying state",
			"provider", c.Name(),
			"state_fips", j.StateFIPS,
			"county_fips", j.CountyFIPS,
			"reason", countyReason,
		)

		d, err = c.StateDemographics(ctx, j.StateFIPS)
		if err != nil {
			return c.unavailable(ctx, err)
		}
		return domain.Degraded(d, SourceLabel(domain.GranularityState), "county data unavailable: "+countyReason)
	}

	d, err := c.StateDemographics(ctx, j.StateFIPS)
	if err != nil {
		return c.unavailable(ctx, err)
	}
	return domain.Success(d, SourceLabel(domain.GranularityState))
}

func (c *Client) unavailable(ctx context.Context, err error) domain.ProviderResult {
	reason := c.reason(ctx, err)
	c.logger.Warn("census demographics failed", "provider", c.Name(), "reason", reason, "error", err)
	return domain.Unavailable(reason)
}

func (c *Client) reason(ctx context.Context, err error) string {
	if ctx.Err() != nil {
		return domain.ReasonFromError(ctx.Err())
	}
	return domain.ReasonFromError(err)
}

// CountyDemographics queries one county.
func (c *Client) CountyDemographics(ctx context.Context, stateFIPS, countyFIPS string) (domain.Demographics, error) {
	rows, err := c.query(ctx, url.Values{
		"get": {strings.Join(acsVariables, ",")},
		"for": {"county:" + countyFIPS},
		"in":  {"state:" + stateFIPS},
	})
	if err != nil {
		return domain.Demographics{}, err
	}
	return parseDemographics(rows, domain.GranularityCounty)
}

// StateDemographics queries a whole state.
func (c *Client) StateDemographics(ctx context.Context, stateFIPS string) (domain.Demographics, error) {
	rows, err := c.query(ctx, url.Values{
		"get": {strings.Join(acsVariables, ",")},
		"for": {"state:" + stateFIPS},
	})
	if err != nil {
		return domain.Demographics{}, err
	}
	return parseDemographics(rows, domain.GranularityState)
}

// ListCounties returns the county roster of a state. Rows come back as
// [NAME, state, county].
func (c *Client) ListCounties(ctx context.Context, stateFIPS string) ([]domain.County, error) {
	if !c.Configured() {
		return nil, ErrNoCredential
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	rows, err := c.query(ctx, url.Values{
		"get": {"NAME"},
		"for": {"county:*"},
		"in":  {"state:" + stateFIPS},
	})
	if err != nil {
		return nil, eris.Wrapf(err, "census: list counties for state %s", stateFIPS)
	}

	counties := make([]domain.County, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) < 3 || row[0] == nil || row[2] == nil {
			continue
		}
		counties = append(counties, domain.County{Name: *row[0], StateFIPS: stateFIPS, FIPS: *row[2]})
	}
	return counties, nil
}

// query runs one ACS request and returns the header row followed by at least one data row.
func (c *Client) query(ctx context.Context, params url.Values) ([][]*string, error) {
	params.Set("key", c.apiKey)
	reqURL := fmt.Sprintf("%s/%d/acs/acs5?%s", c.baseURL, c.year, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "census: build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "census: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, eris.Errorf("census: returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var rows [][]*string
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, eris.Wrap(err, "census: parse response")
	}
	if len(rows) < 2 {
		return nil, eris.New("census: no data rows returned")
	}
	return rows, nil
}

// parseDemographics validates the first data row and derives the rates.
func parseDemographics(rows [][]*string, g domain.Granularity) (domain.Demographics, error) {
	header, values := rows[0], rows[1]
	raw := make(map[string]string, len(header))
	for i, h := range header {
		if h == nil || i >= len(values) || values[i] == nil {
			continue
		}
		raw[*h] = *values[i]
	}

	population, ok := positive(raw, varPopulation)
	if !ok {
		return domain.Demographics{}, missingField("population", g)
	}
	income, ok := positive(raw, varIncome)
	if !ok {
		return domain.Demographics{}, missingField("median income", g)
	}
	homeValue, ok := positive(raw, varHomeValue)
	if !ok {
		return domain.Demographics{}, missingField("median home value", g)
	}
	laborForce, ok := positive(raw, varLaborForce)
	if !ok {
		return domain.Demographics{}, missingField("labor force", g)
	}
	unemployed, ok := count(raw, varUnemployed)
	if !ok {
		return domain.Demographics{}, missingField("unemployment", g)
	}
	rent, _ := positive(raw, varRent)

	var higherEd int
	for _, v := range []string{varBachelors, varMasters, varProfessional, varDoctorate} {
		n, _ := count(raw, v)
		higherEd += n
	}

	return domain.Demographics{
		Granularity:          g,
		AreaName:             raw["NAME"],
		Population:           population,
		MedianIncome:         income,
		MedianHomeValue:      homeValue,
		MedianRent:           rent,
		EmploymentRate:       round1(float64(laborForce-unemployed) / float64(laborForce) * 100),
		EducationRate:        math.Min(round1(float64(higherEd)/float64(population)*100), 100),
		IncomeToHousingRatio: round1(float64(homeValue) / float64(income)),
	}, nil
}

// count parses a non-negative integer. The ACS encodes "not available" as large
// negative sentinels such as -666666666.
func count(raw map[string]string, key string) (int, bool) {
	s, ok := raw[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func positive(raw map[string]string, key string) (int, bool) {
	n, ok := count(raw, key)
	return n, ok && n > 0
}

func missingField(field string, g domain.Granularity) error {
	return eris.Errorf("census: %s not reported (%s level)", field, g)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
