package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// TrackedLocation is a point the scheduler keeps warm in the cache.
type TrackedLocation struct {
	Name string
	Lat  float64
	Lon  float64
}

type AppConfig struct {
	// NASA Earthdata bearer token for CMR granule search. Optional:
	// without it the catalog is queried anonymously in degraded mode.
	EarthdataToken string

	// AppEEARS session credentials for the area extraction workflow.
	AppeearsUser     string
	AppeearsPassword string

	// Upstream base URLs, overridable for tests and staging.
	CMRBaseURL      string
	PowerBaseURL    string
	AppeearsBaseURL string

	// Retry policy shared by both provider adapters.
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration

	// Area task polling budget.
	PollInterval time.Duration
	MaxPolls     int

	// Domain constants carried over from the original system. Their
	// accuracy is unverified; they are configuration, not derivation.
	RootDepthCM  float64 // assumed root depth for irrigation math
	WetnessScale float64 // root-zone wetness -> volumetric moisture

	// Seasonal fallback region profile (see providers.SeasonalEstimator).
	SeasonalRegion string

	// RefreshInterval controls how often the scheduler re-warms the
	// cache; RefreshWindowDays is the trailing window it fetches.
	RefreshInterval   time.Duration
	RefreshWindowDays int
	Locations         []TrackedLocation

	CachePath   string
	HTTPTimeout time.Duration
	Port        string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.EarthdataToken = os.Getenv("NASA_EARTHDATA_TOKEN")
	cfg.AppeearsUser = os.Getenv("APPEEARS_USER")
	cfg.AppeearsPassword = os.Getenv("APPEEARS_PASSWORD")

	cfg.CMRBaseURL = getenvDefault("CMR_BASE_URL", "https://cmr.earthdata.nasa.gov")
	cfg.PowerBaseURL = getenvDefault("POWER_BASE_URL", "https://power.larc.nasa.gov")
	cfg.AppeearsBaseURL = getenvDefault("APPEEARS_BASE_URL", "https://appeears.earthdatacloud.nasa.gov/api")

	cfg.MaxAttempts = getenvInt("PROVIDER_MAX_ATTEMPTS", 3)

	baseDelay, err := getenvDuration("PROVIDER_BASE_DELAY", "500ms")
	if err != nil {
		return nil, err
	}
	cfg.BaseDelay = baseDelay

	maxDelay, err := getenvDuration("PROVIDER_MAX_DELAY", "5s")
	if err != nil {
		return nil, err
	}
	cfg.MaxDelay = maxDelay

	pollInterval, err := getenvDuration("TASK_POLL_INTERVAL", "10s")
	if err != nil {
		return nil, err
	}
	cfg.PollInterval = pollInterval
	cfg.MaxPolls = getenvInt("TASK_MAX_POLLS", 60)

	cfg.RootDepthCM = getenvFloat("ROOT_DEPTH_CM", 30)
	cfg.WetnessScale = getenvFloat("WETNESS_SCALE", 0.4)
	cfg.SeasonalRegion = getenvDefault("SEASONAL_REGION", "bangladesh-monsoon")

	refreshInterval, err := getenvDuration("REFRESH_INTERVAL", "6h")
	if err != nil {
		return nil, err
	}
	cfg.RefreshInterval = refreshInterval
	cfg.RefreshWindowDays = getenvInt("REFRESH_WINDOW_DAYS", 30)

	locs, err := loadTrackedLocations()
	if err != nil {
		return nil, err
	}
	cfg.Locations = locs

	cfg.CachePath = getenvDefault("CACHE_PATH", "data/earthdata.db")

	httpTimeout, err := getenvDuration("HTTP_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	cfg.HTTPTimeout = httpTimeout
	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

// loadTrackedLocations parses TRACKED_LOCATIONS, a comma-separated list
// of name:lat:lon triples, e.g. "dhaka:23.81:90.41,khulna:22.82:89.55".
func loadTrackedLocations() ([]TrackedLocation, error) {
	raw := os.Getenv("TRACKED_LOCATIONS")
	if raw == "" {
		return nil, nil
	}

	var locs []TrackedLocation
	for _, entry := range strings.Split(raw, ",") {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid TRACKED_LOCATIONS entry %q; want name:lat:lon", entry)
		}
		lat, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude in TRACKED_LOCATIONS entry %q: %w", entry, err)
		}
		lon, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude in TRACKED_LOCATIONS entry %q: %w", entry, err)
		}
		locs = append(locs, TrackedLocation{Name: parts[0], Lat: lat, Lon: lon})
	}

	return locs, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	s := getenvDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
