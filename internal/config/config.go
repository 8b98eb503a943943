package config

import (
	"errors"
	"net/url"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/canopy-commissioning/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaEnabled     bool
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

	// Report construction.
	FreeAreaFraction float64
	ShareBaseURL     string
	MaxRequestBytes  int64
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

	fraction, err := parseFreeAreaFraction()
	if err != nil {
		return nil, err
	}

	maxBytes, err := parseMaxRequestBytes()
	if err != nil {
		return nil, err
	}

	kafkaEnabled := true
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		KafkaEnabled:       kafkaEnabled,
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "raw-commissioning-projects"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "commissioning-report-contexts"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "canopy-commissioning"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		FreeAreaFraction: fraction,
		ShareBaseURL:     sharedcfg.EnvOrDefault("SHARE_BASE_URL", "http://localhost:8535"),
		MaxRequestBytes:  maxBytes,
	}

	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaSourceTopic == "" {
			return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required")
		}
	}
	if u, err := url.Parse(cfg.ShareBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.New("invalid SHARE_BASE_URL")
	}

	return cfg, nil
}

// BuildOptions returns the report builder options for this configuration.
func (c *Config) BuildOptions() domain.BuildOptions {
	return domain.BuildOptions{FreeAreaFraction: c.FreeAreaFraction}
}

func parseFreeAreaFraction() (float64, error) {
	s := os.Getenv("FREE_AREA_FRACTION")
	if s == "" {
		return domain.DefaultFreeAreaFraction, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 || f > 1 {
		return 0, errors.New("invalid FREE_AREA_FRACTION: must be in (0, 1]")
	}
	return f, nil
}

func parseMaxRequestBytes() (int64, error) {
	s := os.Getenv("MAX_REQUEST_BYTES")
	if s == "" {
		return 1 << 20, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid MAX_REQUEST_BYTES")
	}
	return n, nil
}
