package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Scraper  ScraperConfig  `yaml:"scraper"`
	Database DatabaseConfig `yaml:"database"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
	AccessLogPath   string  `yaml:"access_log"`
	ErrorLogPath    string  `yaml:"error_log"`
}

// ScraperConfig holds the scraper-related configuration.
type ScraperConfig struct {
	Enabled           bool          `yaml:"enabled"`
	BaseURL           string        `yaml:"base_url"`
	LocationID        string        `yaml:"location_id"`
	IntervalSeconds   int           `yaml:"interval_seconds"`
	Interval          time.Duration `yaml:"-"` // Ignored by YAML parser
	RequestTimeoutSec int           `yaml:"request_timeout_seconds"`
	RequestTimeout    time.Duration `yaml:"-"`
	MaxRoomFetches    int           `yaml:"max_room_fetches"`
	HTTPProxy         string        `yaml:"http_proxy"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// Load reads the configuration from the given path. A handful of values can
// be overridden through the environment (DATABASE_DSN, LOCATION_ID) so that
// deployments can keep credentials out of the config file.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if loc := os.Getenv("LOCATION_ID"); loc != "" {
		cfg.Scraper.LocationID = loc
	}

	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 15
	}

	if cfg.Scraper.IntervalSeconds <= 0 {
		cfg.Scraper.IntervalSeconds = 60
	}
	cfg.Scraper.Interval = time.Duration(cfg.Scraper.IntervalSeconds) * time.Second

	if cfg.Scraper.RequestTimeoutSec <= 0 {
		cfg.Scraper.RequestTimeoutSec = 10
	}
	cfg.Scraper.RequestTimeout = time.Duration(cfg.Scraper.RequestTimeoutSec) * time.Second

	if cfg.Scraper.MaxRoomFetches <= 0 {
		cfg.Scraper.MaxRoomFetches = 8
	}

	return &cfg, nil
}
