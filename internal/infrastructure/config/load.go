package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads a local .env (if any), the YAML file at path on top of the
// defaults, then the environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.parseDurations(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) parseDurations() error {
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"server.read_timeout", c.Server.ReadTimeoutStr, &c.Server.ReadTimeout},
		{"server.write_timeout", c.Server.WriteTimeoutStr, &c.Server.WriteTimeout},
		{"server.shutdown_timeout", c.Server.ShutdownTimeoutStr, &c.Server.ShutdownTimeout},
		{"postgresql.conn_max_lifetime", c.PostgreSQL.ConnMaxLifetimeStr, &c.PostgreSQL.ConnMaxLifetime},
		{"finnhub.timeout", c.Finnhub.TimeoutStr, &c.Finnhub.Timeout},
		{"feed.poll_interval", c.Feed.PollIntervalStr, &c.Feed.PollInterval},
		{"feed.request_timeout", c.Feed.RequestTimeoutStr, &c.Feed.RequestTimeout},
		{"feed.scroll_duration", c.Feed.ScrollDurationStr, &c.Feed.ScrollDuration},
		{"analysis.timeout", c.Analysis.TimeoutStr, &c.Analysis.Timeout},
		{"data_retention.redis_ttl", c.DataRetention.RedisTTLStr, &c.DataRetention.RedisTTL},
		{"data_retention.aggregation_interval", c.DataRetention.AggregationIntervalStr, &c.DataRetention.AggregationInterval},
	}
	for _, f := range fields {
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	// PostgreSQL
	if v := os.Getenv("POSTGRES_HOST"); v != "" {
		cfg.PostgreSQL.Host = v
	}
	if v := os.Getenv("POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.PostgreSQL.Port = port
		}
	}
	if v := os.Getenv("POSTGRES_USER"); v != "" {
		cfg.PostgreSQL.User = v
	}
	if v := os.Getenv("POSTGRES_PASSWORD"); v != "" {
		cfg.PostgreSQL.Password = v
	}
	if v := os.Getenv("POSTGRES_DB"); v != "" {
		cfg.PostgreSQL.Database = v
	}

	// Redis
	if v := os.Getenv("REDIS_HOST"); v != "" {
		cfg.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Redis.Port = port
		}
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}

	// Providers
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		cfg.Finnhub.APIKey = v
	}
	if v := os.Getenv("ANALYSIS_BASE_URL"); v != "" {
		cfg.Analysis.BaseURL = v
	}

	// Feed
	if v := os.Getenv("FEED_SYMBOLS"); v != "" {
		var symbols []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
				symbols = append(symbols, s)
			}
		}
		cfg.Feed.Symbols = symbols
	}
	if v := os.Getenv("FEED_MODE"); v != "" {
		cfg.Feed.Mode = v
	}

	// Telemetry
	if v := os.Getenv("OTEL_TRACES_EXPORTER"); v != "" {
		cfg.Telemetry.Exporter = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.Telemetry.Endpoint = v
	}

	// Server
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
}
