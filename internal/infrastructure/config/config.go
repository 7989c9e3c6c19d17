package config

import (
	"errors"
	"fmt"
	"time"
)

// Durations are written as strings in the file ("10s") and parsed into the
// matching time.Duration field by Load.
type Config struct {
	Server struct {
		Port               int           `yaml:"port"`
		ReadTimeoutStr     string        `yaml:"read_timeout"`
		WriteTimeoutStr    string        `yaml:"write_timeout"`
		ShutdownTimeoutStr string        `yaml:"shutdown_timeout"`
		ReadTimeout        time.Duration `yaml:"-"`
		WriteTimeout       time.Duration `yaml:"-"`
		ShutdownTimeout    time.Duration `yaml:"-"`
	} `yaml:"server"`

	PostgreSQL struct {
		Host               string        `yaml:"host"`
		Port               int           `yaml:"port"`
		User               string        `yaml:"user"`
		Password           string        `yaml:"password"`
		Database           string        `yaml:"database"`
		SSLMode            string        `yaml:"sslmode"`
		MaxOpenConns       int           `yaml:"max_open_conns"`
		MaxIdleConns       int           `yaml:"max_idle_conns"`
		ConnMaxLifetimeStr string        `yaml:"conn_max_lifetime"`
		ConnMaxLifetime    time.Duration `yaml:"-"`
	} `yaml:"postgresql"`

	Redis struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Finnhub struct {
		BaseURL    string        `yaml:"base_url"`
		APIKey     string        `yaml:"api_key"`
		TimeoutStr string        `yaml:"timeout"`
		Timeout    time.Duration `yaml:"-"`
	} `yaml:"finnhub"`

	Feed struct {
		Symbols           []string      `yaml:"symbols"`
		Mode              string        `yaml:"mode"`
		Seed              int64         `yaml:"seed"`
		PollIntervalStr   string        `yaml:"poll_interval"`
		RequestTimeoutStr string        `yaml:"request_timeout"`
		ScrollDurationStr string        `yaml:"scroll_duration"`
		PollInterval      time.Duration `yaml:"-"`
		RequestTimeout    time.Duration `yaml:"-"`
		ScrollDuration    time.Duration `yaml:"-"`
	} `yaml:"feed"`

	Analysis struct {
		BaseURL    string        `yaml:"base_url"`
		TimeoutStr string        `yaml:"timeout"`
		Timeout    time.Duration `yaml:"-"`
	} `yaml:"analysis"`

	Workers struct {
		Count         int `yaml:"count"`
		ArchiveBuffer int `yaml:"archive_buffer"`
	} `yaml:"workers"`

	DataRetention struct {
		RedisTTLStr            string        `yaml:"redis_ttl"`
		AggregationIntervalStr string        `yaml:"aggregation_interval"`
		RedisTTL               time.Duration `yaml:"-"`
		AggregationInterval    time.Duration `yaml:"-"`
	} `yaml:"data_retention"`

	Telemetry struct {
		Exporter    string  `yaml:"exporter"`
		Endpoint    string  `yaml:"endpoint"`
		SampleRatio float64 `yaml:"sample_ratio"`
	} `yaml:"telemetry"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// DefaultSymbols is the ticker's list when neither the file nor the
// environment names one.
var DefaultSymbols = []string{
	"AAPL", "GOOGL", "AMZN", "MSFT", "TSLA", "META", "NVDA", "AMD", "INTC", "JPM",
	"BAC", "WMT", "DIS", "NFLX", "CRM", "ORCL", "SAP", "XOM", "CVX", "PFE",
}

func Default() *Config {
	var c Config
	c.Server.Port = 8080
	c.Server.ReadTimeoutStr = "10s"
	c.Server.WriteTimeoutStr = "90s"
	c.Server.ShutdownTimeoutStr = "30s"

	c.PostgreSQL.Host = "localhost"
	c.PostgreSQL.Port = 5432
	c.PostgreSQL.User = "quotefeed"
	c.PostgreSQL.Database = "quotefeed"
	c.PostgreSQL.SSLMode = "disable"
	c.PostgreSQL.MaxOpenConns = 10
	c.PostgreSQL.MaxIdleConns = 5
	c.PostgreSQL.ConnMaxLifetimeStr = "30m"

	c.Redis.Host = "localhost"
	c.Redis.Port = 6379

	c.Finnhub.TimeoutStr = "10s"

	c.Feed.Symbols = append([]string(nil), DefaultSymbols...)
	c.Feed.Mode = "live"
	c.Feed.PollIntervalStr = "10s"
	c.Feed.RequestTimeoutStr = "5s"
	c.Feed.ScrollDurationStr = "120s"

	c.Analysis.TimeoutStr = "60s"

	c.Workers.Count = 4
	c.Workers.ArchiveBuffer = 16

	c.DataRetention.RedisTTLStr = "60s"
	c.DataRetention.AggregationIntervalStr = "60s"

	c.Telemetry.Exporter = "none"
	c.Telemetry.SampleRatio = 1

	c.Logging.Level = "info"
	c.Logging.Format = "json"
	return &c
}

func (c *Config) Validate() error {
	var errs []error
	if len(c.Feed.Symbols) == 0 {
		errs = append(errs, errors.New("feed.symbols must not be empty"))
	}
	if c.Feed.PollInterval <= 0 {
		errs = append(errs, errors.New("feed.poll_interval must be positive"))
	}
	if c.Feed.RequestTimeout <= 0 || c.Feed.RequestTimeout >= c.Feed.PollInterval {
		errs = append(errs, fmt.Errorf("feed.request_timeout (%s) must be positive and shorter than feed.poll_interval (%s)", c.Feed.RequestTimeout, c.Feed.PollInterval))
	}
	if c.Feed.ScrollDuration <= 0 {
		errs = append(errs, errors.New("feed.scroll_duration must be positive"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d is out of range", c.Server.Port))
	}
	return errors.Join(errs...)
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host, c.PostgreSQL.Port, c.PostgreSQL.User,
		c.PostgreSQL.Password, c.PostgreSQL.Database, c.PostgreSQL.SSLMode,
	)
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
