package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
	"golang.org/x/text/language"
)

// DefaultWUBaseURL is the Weather Underground PWS history endpoint.
const DefaultWUBaseURL = "https://api.weather.com/v2/pws/history/all"

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Weather Underground upstream.
	WUAPIKey  string
	WUBaseURL string
	WUTimeout time.Duration

	// Upstream response cache. A zero TTL disables caching.
	CacheSize int
	CacheTTL  time.Duration

	// Presentation.
	DisplayTimezone string
	DisplayLocale   string

	// Optional Kafka sink for normalized observations.
	KafkaBrokers []string
	KafkaTopic   string
	KafkaEnabled bool
}

// Load reads configuration from environment variables, applying defaults where
// unset. A .env file in the working directory is loaded first when present;
// variables already set in the environment win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	wuTimeout, err := parsePositiveDuration("WU_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	cacheTTL, err := time.ParseDuration(sharedcfg.EnvOrDefault("WU_CACHE_TTL", "10m"))
	if err != nil || cacheTTL < 0 {
		return nil, errors.New("invalid WU_CACHE_TTL")
	}

	cacheSize, err := parseCacheSize()
	if err != nil {
		return nil, err
	}

	var brokers []string
	if raw := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); raw != "" {
		brokers = sharedcfg.ParseBrokers(raw)
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		WUAPIKey:  strings.TrimSpace(os.Getenv("WU_API_KEY")),
		WUBaseURL: sharedcfg.EnvOrDefault("WU_BASE_URL", DefaultWUBaseURL),
		WUTimeout: wuTimeout,

		CacheSize: cacheSize,
		CacheTTL:  cacheTTL,

		DisplayTimezone: sharedcfg.EnvOrDefault("DISPLAY_TIMEZONE", "Europe/Madrid"),
		DisplayLocale:   sharedcfg.EnvOrDefault("DISPLAY_LOCALE", "es"),

		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "normalized-observations"),
		KafkaEnabled: len(brokers) > 0,
	}

	if _, err := time.LoadLocation(cfg.DisplayTimezone); err != nil {
		return nil, fmt.Errorf("invalid DISPLAY_TIMEZONE: %w", err)
	}
	if _, err := language.Parse(cfg.DisplayLocale); err != nil {
		return nil, fmt.Errorf("invalid DISPLAY_LOCALE: %w", err)
	}
	if cfg.WUBaseURL == "" {
		return nil, errors.New("WU_BASE_URL is required")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseCacheSize() (int, error) {
	s := sharedcfg.EnvOrDefault("WU_CACHE_SIZE", "256")
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid WU_CACHE_SIZE")
	}
	return n, nil
}
