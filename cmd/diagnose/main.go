// Command diagnose walks one address through each stage of an analysis
// against the live providers and reports which stage breaks. It checks
// credentials, geocoding, jurisdiction resolution, the county FIPS lookup
// and demographics, in that order; later stages are skipped once an earlier
// one fails.
//
// Usage:
//
//	go run ./cmd/diagnose -address "3650 Dunigan Ct, Catharpin, VA 20143"
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/adapter/census"
	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/adapter/google"
	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/adapter/mapbox"
	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/config"
	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/domain"
	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/observability"
)

// phase tracks pass/fail for a diagnostic stage.
type phase struct {
	name    string
	details []string
	errors  []string
	skipped bool
}

func (p *phase) infof(format string, args ...any) {
	p.details = append(p.details, fmt.Sprintf(format, args...))
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 && !p.skipped }

func main() {
	address := flag.String("address", "", "street address to diagnose")
	flag.Parse()

	if strings.TrimSpace(*address) == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		os.Exit(1)
	}

	if code := run(context.Background(), cfg, *address); code != 0 {
		os.Exit(code)
	}
}

func run(ctx context.Context, cfg *config.Config, address string) int {
	logger := observability.NewCLILogger(cfg)

	fmt.Println("=== Property Lookup Diagnostics ===")
	fmt.Printf("Address: %s\n", address)
	fmt.Printf("Geocoder: %s\n", cfg.Geocoder)

	var geocoder domain.Adapter
	if cfg.Geocoder == config.GeocoderMapbox {
		geocoder = mapbox.NewClient(cfg.MapboxToken, cfg.GeocodingTimeout, logger)
	} else {
		geocoder = google.NewClient(cfg.GoogleMapsAPIKey, cfg.GeocodingTimeout, logger)
	}
	demographics := census.NewClient(cfg.CensusAPIKey, cfg.CensusYear, cfg.CensusTimeout, logger)

	d := &diagnosis{
		address:      address,
		geocoder:     geocoder,
		demographics: demographics,
		resolver:     domain.NewResolver(demographics, logger),
	}
	phases := []*phase{
		d.checkCredentials(cfg),
		d.checkGeocoding(ctx),
		d.checkJurisdiction(ctx),
		d.checkCountyFIPS(ctx),
		d.checkDemographics(ctx),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		switch {
		case p.skipped:
			status = "\033[33mSKIP\033[0m"
			allPassed = false
		case !p.passed():
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-24s %s\n", p.name, status)
	}

	for _, p := range phases {
		if len(p.details) == 0 && len(p.errors) == 0 {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for _, line := range p.details {
			fmt.Printf("  %s\n", line)
		}
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll stages passed.")
		return 0
	}
	fmt.Println("\nDiagnosis FAILED.")
	return 1
}

// diagnosis carries results from one stage to the next. A zero value for a
// later stage's input means the stage that produces it failed.
type diagnosis struct {
	address      string
	geocoder     domain.Adapter
	demographics *census.Client
	resolver     *domain.Resolver

	location     *domain.Location
	jurisdiction *domain.JurisdictionMatch
}

func (d *diagnosis) checkCredentials(cfg *config.Config) *phase {
	p := &phase{name: "Credentials"}
	for _, name := range cfg.MissingCredentials() {
		p.errorf("%s is not set", name)
	}
	p.infof("points of interest enabled: %t", cfg.POIEnabled)
	p.infof("climate enabled: %t", cfg.ClimateEnabled)
	return p
}

func (d *diagnosis) checkGeocoding(ctx context.Context) *phase {
	p := &phase{name: "Geocoding"}
	normalized, err := domain.NormalizeAddress(d.address)
	if err != nil {
		p.errorf("%v", err)
		return p
	}

	res := d.geocoder.Fetch(ctx, domain.Request{Address: normalized})
	if !res.Available() {
		p.errorf("%s unavailable: %s", d.geocoder.Name(), res.Reason)
		return p
	}
	loc, ok := res.Payload.(domain.Location)
	if !ok {
		p.errorf("unexpected payload %T", res.Payload)
		return p
	}
	d.location = &loc

	p.infof("source: %s", res.Source)
	p.infof("formatted: %s", loc.FormattedAddress)
	p.infof("coordinates: %.6f, %.6f", loc.Coordinates.Lat, loc.Coordinates.Lon)
	for _, kind := range []string{domain.ComponentAdminLevel1, domain.ComponentAdminLevel2, domain.ComponentState, domain.ComponentCounty} {
		if v := loc.Components.Get(kind); v != "" {
			p.infof("%s: %s", kind, v)
		}
	}
	return p
}

func (d *diagnosis) checkJurisdiction(ctx context.Context) *phase {
	p := &phase{name: "Jurisdiction"}
	if d.location == nil {
		p.skipped = true
		return p
	}

	state, err := domain.ResolveState(d.location.Components)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	p.infof("state: %s (%s), FIPS %s", state.Name, state.Abbreviation, state.FIPS)

	match, err := d.resolver.Resolve(ctx, d.location.Components)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	d.jurisdiction = &match
	if match.CountyName != "" {
		p.infof("county name: %s", match.CountyName)
	}
	p.infof("confidence: %.1f (%s)", match.Confidence, match.Granularity())
	return p
}

func (d *diagnosis) checkCountyFIPS(ctx context.Context) *phase {
	p := &phase{name: "County FIPS"}
	if d.jurisdiction == nil {
		p.skipped = true
		return p
	}
	j := d.jurisdiction
	if j.CountyName == "" {
		p.errorf("geocoder returned no county for this address")
		return p
	}

	roster, err := d.demographics.ListCounties(ctx, j.StateFIPS)
	if err != nil {
		p.errorf("list counties for state %s: %v", j.StateFIPS, err)
		return p
	}
	p.infof("roster: %d counties", len(roster))

	county, err := domain.MatchCounty(roster, j.CountyName)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	p.infof("matched: %s (FIPS %s)", county.Name, county.FIPS)
	return p
}

func (d *diagnosis) checkDemographics(ctx context.Context) *phase {
	p := &phase{name: "Demographics"}
	if d.jurisdiction == nil {
		p.skipped = true
		return p
	}

	res := d.demographics.Fetch(ctx, domain.Request{
		Address:      d.address,
		Jurisdiction: *d.jurisdiction,
	})
	if !res.Available() {
		p.errorf("%s unavailable: %s", d.demographics.Name(), res.Reason)
		return p
	}
	demo, ok := res.Payload.(domain.Demographics)
	if !ok {
		p.errorf("unexpected payload %T", res.Payload)
		return p
	}

	p.infof("source: %s", res.Source)
	p.infof("area: %s", demo.AreaName)
	p.infof("population: %d", demo.Population)
	p.infof("median income: $%d", demo.MedianIncome)
	p.infof("median home value: $%d", demo.MedianHomeValue)
	if res.Status == domain.StatusDegraded {
		p.errorf("degraded to %s granularity: %s", demo.Granularity, res.Reason)
	}
	return p
}
