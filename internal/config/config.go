package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Geocoder backends selectable with GEOCODER.
const (
	GeocoderGoogle = "google"
	GeocoderMapbox = "mapbox"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Geocoding (essential).
	Geocoder         string
	GoogleMapsAPIKey string
	MapboxToken      string
	GeocodingTimeout time.Duration

	// Demographics (essential).
	CensusAPIKey    string
	CensusYear      int
	CensusTimeout   time.Duration
	CountyCacheSize int

	// Points of interest (optional).
	POIEnabled         bool
	POITimeout         time.Duration
	NominatimUserAgent string

	// Climate (optional).
	ClimateEnabled bool
	ClimateTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	geocodingTimeout, err := parseTimeout("GEOCODING_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	censusTimeout, err := parseTimeout("CENSUS_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	poiTimeout, err := parseTimeout("POI_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	climateTimeout, err := parseTimeout("CLIMATE_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	censusYear, err := parsePositiveInt("CENSUS_YEAR", 2022)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parsePositiveInt("COUNTY_CACHE_SIZE", 64)
	if err != nil {
		return nil, err
	}

	poiEnabled, err := parseBool("POI_ENABLED", true)
	if err != nil {
		return nil, err
	}
	climateEnabled, err := parseBool("CLIMATE_ENABLED", true)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "analysis-requests"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "analysis-outcomes"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "property-intelligence"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		Geocoder:         strings.ToLower(sharedcfg.EnvOrDefault("GEOCODER", GeocoderGoogle)),
		GoogleMapsAPIKey: os.Getenv("GOOGLE_MAPS_API_KEY"),
		MapboxToken:      os.Getenv("MAPBOX_TOKEN"),
		GeocodingTimeout: geocodingTimeout,

		CensusAPIKey:    os.Getenv("CENSUS_API_KEY"),
		CensusYear:      censusYear,
		CensusTimeout:   censusTimeout,
		CountyCacheSize: cacheSize,

		POIEnabled:         poiEnabled,
		POITimeout:         poiTimeout,
		NominatimUserAgent: sharedcfg.EnvOrDefault("NOMINATIM_USER_AGENT", "property-intelligence/1.0"),

		ClimateEnabled: climateEnabled,
		ClimateTimeout: climateTimeout,
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.Geocoder != GeocoderGoogle && cfg.Geocoder != GeocoderMapbox {
		return nil, fmt.Errorf("invalid GEOCODER %q: must be %q or %q", cfg.Geocoder, GeocoderGoogle, GeocoderMapbox)
	}
	if cfg.POIEnabled && cfg.NominatimUserAgent == "" {
		return nil, errors.New("POI_ENABLED is true but NOMINATIM_USER_AGENT is empty")
	}

	return cfg, nil
}

// GeocodingCredential returns the key for the selected geocoder.
func (c *Config) GeocodingCredential() string {
	if c.Geocoder == GeocoderMapbox {
		return c.MapboxToken
	}
	return c.GoogleMapsAPIKey
}

// MissingCredentials lists the essential-provider variables that are unset.
func (c *Config) MissingCredentials() []string {
	var missing []string
	if c.GeocodingCredential() == "" {
		if c.Geocoder == GeocoderMapbox {
			missing = append(missing, "MAPBOX_TOKEN")
		} else {
			missing = append(missing, "GOOGLE_MAPS_API_KEY")
		}
	}
	if c.CensusAPIKey == "" {
		missing = append(missing, "CENSUS_API_KEY")
	}
	return missing
}

func parseTimeout(name, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(name, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return d, nil
}

func parsePositiveInt(name string, fallback int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", name)
	}
	return n, nil
}

func parseBool(name string, fallback bool) (bool, error) {
	s := os.Getenv(name)
	if s == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: must be true or false", name)
	}
	return b, nil
}
