// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Provider names accepted by GEOCODER and ROUTER.
const (
	ProviderORS      = "ors"
	ProviderGoogle   = "google"
	ProviderOSRM     = "osrm"
	ProviderStraight = "straight"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// DatabaseURL is the Postgres connection string for the persistent
	// geocode cache. Optional: without it only the in-process cache is used.
	DatabaseURL string

	// RedisAddr enables the shared route cache when set (host:port).
	RedisAddr     string
	RouteCacheTTL time.Duration

	// GeocodeCacheTTL bounds how long a geocode stays in the in-process cache.
	GeocodeCacheTTL time.Duration

	// NATSURL enables trip-planned events when set.
	NATSURL string

	// Geocoder is "ors" (default) or "google".
	Geocoder string
	// Router is "osrm" (default), "google" or "straight" (offline).
	Router string

	ORSAPIKey        string
	ORSURL           string
	GoogleMapsAPIKey string
	OSRMURL          string

	// UpstreamTimeout bounds all geocoding and routing for one request.
	UpstreamTimeout time.Duration

	// AverageSpeedKmh converts distance to driving time. Defaults to 88.
	AverageSpeedKmh float64

	// PublicBaseURL prefixes the download URLs of rendered log sheets.
	PublicBaseURL string
	// LogTTL is how long a rendered log sheet stays downloadable.
	LogTTL time.Duration

	// MaxBodyBytes caps request bodies. Defaults to 64 KiB.
	MaxBodyBytes int64

	// CarrierName is printed on every log sheet.
	CarrierName string
}

// Load reads configuration from environment variables and returns a Config.
// An optional .env file in the working directory is loaded first; variables
// already set in the environment win.
// Returns an error listing any required variables that are not set, or the
// first value that cannot be parsed.
func Load() (Config, error) {
	_ = godotenv.Load()

	port := getEnv("PORT", "8080")
	cfg := Config{
		Port:             port,
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		CORSOrigins:      splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		NATSURL:          os.Getenv("NATS_URL"),
		Geocoder:         strings.ToLower(getEnv("GEOCODER", ProviderORS)),
		Router:           strings.ToLower(getEnv("ROUTER", ProviderOSRM)),
		ORSAPIKey:        os.Getenv("ORS_API_KEY"),
		ORSURL:           os.Getenv("ORS_URL"),
		GoogleMapsAPIKey: os.Getenv("GOOGLE_MAPS_API_KEY"),
		OSRMURL:          os.Getenv("OSRM_URL"),
		PublicBaseURL:    strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:"+port), "/"),
		CarrierName:      os.Getenv("CARRIER_NAME"),
	}

	var err error
	if cfg.UpstreamTimeout, err = getDuration("UPSTREAM_TIMEOUT", 20*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.RouteCacheTTL, err = getDuration("ROUTE_CACHE_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.GeocodeCacheTTL, err = getDuration("GEOCODE_CACHE_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.LogTTL, err = getDuration("LOG_TTL", time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.AverageSpeedKmh, err = getFloat("AVERAGE_SPEED_KMH", 88); err != nil {
		return Config{}, err
	}
	if cfg.MaxBodyBytes, err = getInt("MAX_BODY_BYTES", 64<<10); err != nil {
		return Config{}, err
	}

	switch cfg.Geocoder {
	case ProviderORS, ProviderGoogle:
	default:
		return Config{}, fmt.Errorf("GEOCODER must be %q or %q, got %q", ProviderORS, ProviderGoogle, cfg.Geocoder)
	}
	switch cfg.Router {
	case ProviderOSRM, ProviderGoogle, ProviderStraight:
	default:
		return Config{}, fmt.Errorf("ROUTER must be %q, %q or %q, got %q", ProviderOSRM, ProviderGoogle, ProviderStraight, cfg.Router)
	}

	var missing []string
	if cfg.Geocoder == ProviderORS && cfg.ORSAPIKey == "" {
		missing = append(missing, "ORS_API_KEY")
	}
	if (cfg.Geocoder == ProviderGoogle || cfg.Router == ProviderGoogle) && cfg.GoogleMapsAPIKey == "" {
		missing = append(missing, "GOOGLE_MAPS_API_KEY")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || !(f > 0) {
		return 0, fmt.Errorf("%s: must be a positive number, got %q", key, v)
	}
	return f, nil
}

func getInt(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s: must be a positive integer, got %q", key, v)
	}
	return n, nil
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
