package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rustyeddy/tradelog/market"
	"gopkg.in/yaml.v3"
)

// Config represents the complete service configuration
type Config struct {
	Server      ServerConfig     `json:"server" yaml:"server"`
	Log         LogConfig        `json:"log" yaml:"log"`
	Accounts    []AccountConfig  `json:"accounts" yaml:"accounts"`
	Journal     JournalConfig    `json:"journal" yaml:"journal"`
	Screenshots ScreenshotConfig `json:"screenshots" yaml:"screenshots"`
	Stats       StatsConfig      `json:"stats" yaml:"stats"`
	Rates       RatesConfig      `json:"rates" yaml:"rates"`
}

// ServerConfig contains HTTP listener parameters
type ServerConfig struct {
	Addr           string   `json:"addr" yaml:"addr"`
	CORSOrigins    []string `json:"cors_origins,omitempty" yaml:"cors_origins,omitempty"`
	RequestTimeout string   `json:"request_timeout" yaml:"request_timeout"` // e.g. "30s"
}

// Timeout converts the request timeout string to time.Duration
func (s ServerConfig) Timeout() (time.Duration, error) {
	if s.RequestTimeout == "" {
		return 0, nil
	}
	return time.ParseDuration(s.RequestTimeout)
}

// LogConfig contains logger parameters
type LogConfig struct {
	Level  string `json:"level" yaml:"level"` // debug, info, warn, error
	Pretty bool   `json:"pretty" yaml:"pretty"`
}

// AccountConfig describes one trading account a user journals against
type AccountConfig struct {
	ID       string  `json:"id" yaml:"id"`
	Name     string  `json:"name,omitempty" yaml:"name,omitempty"`
	Currency string  `json:"currency" yaml:"currency"`
	Capital  float64 `json:"capital" yaml:"capital"`
}

// JournalConfig contains trade storage parameters
type JournalConfig struct {
	Type                   string `json:"type" yaml:"type"` // "sqlite", "postgres" or "memory"
	DBPath                 string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	DSN                    string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
	RequireAfterScreenshot bool   `json:"require_after_screenshot" yaml:"require_after_screenshot"`
}

// ScreenshotConfig contains object storage parameters. Credentials only come
// from the environment.
type ScreenshotConfig struct {
	Type          string `json:"type" yaml:"type"` // "dir", "s3" or "none"
	Dir           string `json:"dir,omitempty" yaml:"dir,omitempty"`
	PublicBaseURL string `json:"public_base_url,omitempty" yaml:"public_base_url,omitempty"`
	Bucket        string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	Region        string `json:"region,omitempty" yaml:"region,omitempty"`
	Endpoint      string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Prefix        string `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	AccessKeyID     string `json:"-" yaml:"-"`
	SecretAccessKey string `json:"-" yaml:"-"`
}

// StatsConfig contains aggregation parameters. A positive ReferenceCapital
// replaces account capital as the ROI baseline in every view.
type StatsConfig struct {
	ReferenceCapital float64 `json:"reference_capital" yaml:"reference_capital"`
}

// RatesConfig overrides the built-in exchange-rate snapshot.
type RatesConfig struct {
	Base   string             `json:"base,omitempty" yaml:"base,omitempty"`
	Values map[string]float64 `json:"values,omitempty" yaml:"values,omitempty"`
}

// LoadFromFile loads configuration from a file (YAML, falling back to JSON)
// on top of the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Load reads an optional .env file, the config file at path (defaults when
// empty) and then TRADELOG_* environment overrides.
func Load(path string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from TRADELOG_* variables read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) error {
		if v := getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = b
		}
		return nil
	}

	str("TRADELOG_ADDR", &c.Server.Addr)
	str("TRADELOG_REQUEST_TIMEOUT", &c.Server.RequestTimeout)
	if v := getenv("TRADELOG_CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}
	str("TRADELOG_LOG_LEVEL", &c.Log.Level)
	if err := boolean("TRADELOG_LOG_PRETTY", &c.Log.Pretty); err != nil {
		return err
	}

	str("TRADELOG_JOURNAL_TYPE", &c.Journal.Type)
	str("TRADELOG_DB_PATH", &c.Journal.DBPath)
	str("TRADELOG_DATABASE_URL", &c.Journal.DSN)
	if err := boolean("TRADELOG_REQUIRE_AFTER_SCREENSHOT", &c.Journal.RequireAfterScreenshot); err != nil {
		return err
	}

	str("TRADELOG_SCREENSHOTS_TYPE", &c.Screenshots.Type)
	str("TRADELOG_SCREENSHOTS_DIR", &c.Screenshots.Dir)
	str("TRADELOG_PUBLIC_BASE_URL", &c.Screenshots.PublicBaseURL)
	str("TRADELOG_S3_BUCKET", &c.Screenshots.Bucket)
	str("TRADELOG_S3_REGION", &c.Screenshots.Region)
	str("TRADELOG_S3_ENDPOINT", &c.Screenshots.Endpoint)
	str("TRADELOG_S3_ACCESS_KEY_ID", &c.Screenshots.AccessKeyID)
	str("TRADELOG_S3_SECRET_ACCESS_KEY", &c.Screenshots.SecretAccessKey)

	if v := getenv("TRADELOG_REFERENCE_CAPITAL"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("TRADELOG_REFERENCE_CAPITAL: %w", err)
		}
		c.Stats.ReferenceCapital = f
	}
	return nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	// Determine format by extension
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if _, err := c.Server.Timeout(); err != nil {
		return fmt.Errorf("server.request_timeout: %w", err)
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error", "off":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, off")
	}

	if len(c.Accounts) == 0 {
		return fmt.Errorf("accounts: at least one account is required")
	}
	seen := map[string]bool{}
	for i, a := range c.Accounts {
		if a.ID == "" {
			return fmt.Errorf("accounts[%d].id is required", i)
		}
		if seen[a.ID] {
			return fmt.Errorf("accounts[%d].id %q is duplicated", i, a.ID)
		}
		seen[a.ID] = true
		if a.Currency == "" {
			return fmt.Errorf("accounts[%d].currency is required", i)
		}
		if a.Capital < 0 {
			return fmt.Errorf("accounts[%d].capital must not be negative", i)
		}
	}

	switch c.Journal.Type {
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	case "postgres":
		if c.Journal.DSN == "" {
			return fmt.Errorf("journal dsn required for Postgres type")
		}
	case "memory":
	default:
		return fmt.Errorf("journal.type must be 'sqlite', 'postgres' or 'memory'")
	}

	switch c.Screenshots.Type {
	case "dir":
		if c.Screenshots.Dir == "" {
			return fmt.Errorf("screenshots.dir is required")
		}
		if c.Screenshots.PublicBaseURL == "" {
			return fmt.Errorf("screenshots.public_base_url is required")
		}
	case "s3":
		if c.Screenshots.Bucket == "" {
			return fmt.Errorf("screenshots.bucket is required")
		}
	case "", "none":
	default:
		return fmt.Errorf("screenshots.type must be 'dir', 's3' or 'none'")
	}

	if c.Stats.ReferenceCapital < 0 {
		return fmt.Errorf("stats.reference_capital must not be negative")
	}
	if _, err := c.ExchangeRates(); err != nil {
		return fmt.Errorf("rates: %w", err)
	}
	return nil
}

// Account returns the account with the given id.
func (c *Config) Account(id string) (AccountConfig, bool) {
	for _, a := range c.Accounts {
		if a.ID == id {
			return a, true
		}
	}
	return AccountConfig{}, false
}

// ExchangeRates builds the snapshot: the built-in rates with any configured
// values layered on top.
func (c *Config) ExchangeRates() (*market.ExchangeRates, error) {
	if c.Rates.Base == "" && len(c.Rates.Values) == 0 {
		return market.DefaultExchangeRates(), nil
	}
	base := c.Rates.Base
	if base == "" {
		base = "USD"
	}
	merged := map[string]float64{}
	if strings.EqualFold(base, "USD") {
		for k, v := range market.DefaultRates {
			merged[k] = v
		}
	}
	for k, v := range c.Rates.Values {
		merged[strings.ToUpper(k)] = v
	}
	return market.NewExchangeRates(base, merged)
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8080",
			CORSOrigins:    []string{"http://localhost:3000"},
			RequestTimeout: "30s",
		},
		Log: LogConfig{
			Level: "info",
		},
		Accounts: []AccountConfig{
			{ID: "main", Name: "Main account", Currency: "USD", Capital: 10000},
		},
		Journal: JournalConfig{
			Type:                   "sqlite",
			DBPath:                 "./tradelog.db",
			RequireAfterScreenshot: true,
		},
		Screenshots: ScreenshotConfig{
			Type:          "dir",
			Dir:           "./screenshots",
			PublicBaseURL: "http://localhost:8080/screenshots",
		},
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
