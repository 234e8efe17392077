package main

import (
	"fmt"
	"log/slog"

	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/adapter/census"
	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/adapter/google"
	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/adapter/mapbox"
	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/adapter/openmeteo"
	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/adapter/osm"
	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/config"
	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/domain"
	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/observability"
	"github.com/TristanSnyder/Property-Intelligence-Platform/internal/pipeline"
)

// newEngine builds the fusion engine from cfg. Optional providers are left nil
// when disabled so the engine records them as degraded on every run.
func newEngine(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*pipeline.Engine, error) {
	if missing := cfg.MissingCredentials(); len(missing) > 0 {
		logger.Warn("essential provider credentials missing", "variables", missing)
	}

	var providers pipeline.Providers
	switch cfg.Geocoder {
	case config.GeocoderMapbox:
		providers.Geocoding = mapbox.NewClient(cfg.MapboxToken, cfg.GeocodingTimeout, logger)
	default:
		providers.Geocoding = google.NewClient(cfg.GoogleMapsAPIKey, cfg.GeocodingTimeout, logger)
	}

	demographics := census.NewClient(cfg.CensusAPIKey, cfg.CensusYear, cfg.CensusTimeout, logger)
	providers.Demographics = demographics
	counties := census.NewCachedCountyDirectory(demographics, cfg.CountyCacheSize, metrics)

	if cfg.POIEnabled {
		poi := osm.NewClient(cfg.NominatimUserAgent, cfg.POITimeout, logger)
		if cfg.GoogleMapsAPIKey != "" {
			poi.WithFallback(google.NewClient(cfg.GoogleMapsAPIKey, cfg.POITimeout, logger))
		}
		providers.PointsOfInterest = poi
	} else {
		logger.Info("points of interest provider disabled")
	}
	if cfg.ClimateEnabled {
		providers.Climate = openmeteo.NewClient(cfg.ClimateTimeout, logger)
	} else {
		logger.Info("climate provider disabled")
	}

	engine, err := pipeline.NewEngine(providers, domain.NewResolver(counties, logger), logger, metrics)
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}
	logger.Info("engine ready",
		"geocoder", cfg.Geocoder,
		"census_year", cfg.CensusYear,
		"poi_enabled", cfg.POIEnabled,
		"places_fallback", cfg.POIEnabled && cfg.GoogleMapsAPIKey != "",
		"climate_enabled", cfg.ClimateEnabled,
	)
	return engine, nil
}
