package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all engine settings, populated from environment variables.
type Config struct {
	// Warehouse (envelope/track source and region tracking tables).
	WarehouseDSN string

	// Kafka report publishing. Publishing is disabled when no brokers are set.
	KafkaBrokers     []string
	KafkaReportTopic string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Root directory for materialized views, reports, and state flags.
	DataDir string

	// Zonal value provider and facility location APIs.
	ZonalBaseURL     string
	SchoolAPIBaseURL string
	HealthAPIBaseURL string
	FetchTimeout     time.Duration

	// Pipeline defaults.
	DefaultRegions []string
	ZoomLevel      int
	LookbackDays   int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := parseDuration("FETCH_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	zoom, err := parseInt("ZOOM_LEVEL", 14)
	if err != nil {
		return nil, err
	}
	lookback, err := parseInt("LOOKBACK_DAYS", 9)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		WarehouseDSN:     os.Getenv("WAREHOUSE_DSN"),
		KafkaBrokers:     splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
		KafkaReportTopic: envOrDefault("KAFKA_REPORT_TOPIC", "impact-reports"),
		HTTPAddr:         envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		LogFormat:        envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:  shutdownTimeout,
		DataDir:          envOrDefault("DATA_DIR", "data"),
		ZonalBaseURL:     os.Getenv("ZONAL_BASE_URL"),
		SchoolAPIBaseURL: os.Getenv("SCHOOL_API_BASE_URL"),
		HealthAPIBaseURL: os.Getenv("HEALTH_API_BASE_URL"),
		FetchTimeout:     fetchTimeout,
		DefaultRegions:   parseRegions(envOrDefault("DEFAULT_REGIONS", "ATG,JAM,BLZ,NIC,DOM,DMA,GRD,MSR,KNA,LCA,VCT,AIA,VGB")),
		ZoomLevel:        zoom,
		LookbackDays:     lookback,
	}

	if cfg.DataDir == "" {
		return nil, errors.New("DATA_DIR is required")
	}
	if cfg.ZoomLevel <= 0 {
		return nil, errors.New("ZOOM_LEVEL must be positive")
	}
	if cfg.LookbackDays <= 0 {
		return nil, errors.New("LOOKBACK_DAYS must be positive")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaReportTopic == "" {
		return nil, errors.New("KAFKA_REPORT_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// PublishEnabled reports whether generated reports should be published to Kafka.
func (c *Config) PublishEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	s := envOrDefault(key, fallback)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

// parseRegions splits a comma-separated ISO3 region code list, uppercasing entries.
func parseRegions(s string) []string {
	regions := splitNonEmpty(s)
	for i := range regions {
		regions[i] = strings.ToUpper(regions[i])
	}
	return regions
}

func splitNonEmpty(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
