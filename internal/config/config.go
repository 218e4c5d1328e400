package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// DefaultHadUKPBaseURL is the Met Office directory holding the daily regional series.
const DefaultHadUKPBaseURL = "https://www.metoffice.gov.uk/hadobs/hadukp/data/daily/"

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// HadUKP source configuration. A non-empty HadUKPDataDir replaces the HTTP source.
	HadUKPBaseURL string
	HadUKPDataDir string
	HadUKPTimeout time.Duration

	// CacheTTL of zero keeps loaded batches for the life of the process.
	CacheTTL    time.Duration
	CacheSize   int
	WarmOnStart bool

	// Kafka sink configuration.
	PublishEnabled bool
	KafkaBrokers   []string
	KafkaSinkTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	hadukpTimeout, err := parsePositiveDuration("HADUKP_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	cacheTTL, err := time.ParseDuration(sharedcfg.EnvOrDefault("CACHE_TTL", "0s"))
	if err != nil || cacheTTL < 0 {
		return nil, errors.New("invalid CACHE_TTL")
	}

	cacheSize, err := strconv.Atoi(sharedcfg.EnvOrDefault("CACHE_SIZE", "16"))
	if err != nil || cacheSize <= 0 {
		return nil, errors.New("invalid CACHE_SIZE")
	}

	warmOnStart, err := parseBool("WARM_ON_START", "true")
	if err != nil {
		return nil, err
	}

	publishEnabled, err := parseBool("PUBLISH_ENABLED", "false")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		HadUKPBaseURL: sharedcfg.EnvOrDefault("HADUKP_BASE_URL", DefaultHadUKPBaseURL),
		HadUKPDataDir: sharedcfg.EnvOrDefault("HADUKP_DATA_DIR", ""),
		HadUKPTimeout: hadukpTimeout,

		CacheTTL:    cacheTTL,
		CacheSize:   cacheSize,
		WarmOnStart: warmOnStart,

		PublishEnabled: publishEnabled,
		KafkaBrokers:   sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "precipitation-anomalies"),
	}

	if cfg.HadUKPDataDir == "" && !strings.HasPrefix(cfg.HadUKPBaseURL, "http") {
		return nil, errors.New("HADUKP_BASE_URL must be an http(s) URL")
	}
	if cfg.PublishEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when PUBLISH_ENABLED is true")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required when PUBLISH_ENABLED is true")
		}
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

func parseBool(key, def string) (bool, error) {
	b, err := strconv.ParseBool(sharedcfg.EnvOrDefault(key, def))
	if err != nil {
		return false, fmt.Errorf("invalid %s", key)
	}
	return b, nil
}
