// Package config loads the service configuration from YAML with environment
// overrides for the values operators usually change per deployment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port     string `yaml:"port"`
	DBPath   string `yaml:"db_path"`
	LogLevel string `yaml:"log_level"`
	// LogFormat is "console" or "json".
	LogFormat string `yaml:"log_format"`

	// ReportingCurrency is the currency every normalized amount is converted into.
	ReportingCurrency string `yaml:"reporting_currency"`

	Rates RatesConfig `yaml:"rates"`

	Import ImportConfig `yaml:"import"`

	// VATOverrides replaces or extends the built-in per-country VAT profiles.
	VATOverrides []VATOverride `yaml:"vat_overrides"`

	// SeedVehiclesPath is a JSON fleet snapshot loaded into an empty database.
	SeedVehiclesPath string `yaml:"seed_vehicles_path"`
}

type RatesConfig struct {
	// BaseURL hosts the rate feed: <base>/nbrfxrates.xml for the current
	// rates and <base>/files/xml/years/nbrfxrates<YYYY>.xml per year.
	BaseURL string `yaml:"base_url"`
	// FeedBase is the currency the feed quotes its values in.
	FeedBase    string        `yaml:"feed_base"`
	Timeout     time.Duration `yaml:"timeout"`
	LatestTTL   time.Duration `yaml:"latest_ttl"`
	YearsCached int           `yaml:"years_cached"`
}

type ImportConfig struct {
	ChunkSize int `yaml:"chunk_size"`
	// ColumnVariantsPath points at a YAML variant table that replaces the
	// embedded default.
	ColumnVariantsPath string `yaml:"column_variants_path"`
}

type VATOverride struct {
	Country    string  `yaml:"country"`
	Rate       float64 `yaml:"rate"`
	Refundable bool    `yaml:"refundable"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Port:              "8080",
		DBPath:            "fuelrecon.db",
		LogLevel:          "info",
		LogFormat:         "console",
		ReportingCurrency: "EUR",
		Rates: RatesConfig{
			BaseURL:     "https://www.bnr.ro",
			FeedBase:    "RON",
			Timeout:     10 * time.Second,
			LatestTTL:   time.Hour,
			YearsCached: 16,
		},
		Import: ImportConfig{
			ChunkSize: 100,
		},
		SeedVehiclesPath: "testdata/vehicles.json",
	}
}

// Load reads path (if non-empty) over the defaults and then applies env
// overrides. A missing file at the default location is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		case os.IsNotExist(err) && path == "config.yaml":
		default:
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("RATES_BASE_URL"); v != "" {
		cfg.Rates.BaseURL = v
	}
	if v := os.Getenv("IMPORT_CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Import.ChunkSize = n
		}
	}
}

func (c Config) Validate() error {
	if len(c.ReportingCurrency) != 3 {
		return fmt.Errorf("reporting_currency must be an ISO 4217 code, got %q", c.ReportingCurrency)
	}
	if c.LogFormat != "" && c.LogFormat != "console" && c.LogFormat != "json" {
		return fmt.Errorf("log_format must be console or json, got %q", c.LogFormat)
	}
	if c.Import.ChunkSize <= 0 {
		return fmt.Errorf("import.chunk_size must be positive")
	}
	if c.Rates.LatestTTL < 0 {
		return fmt.Errorf("rates.latest_ttl must not be negative")
	}
	return nil
}
