package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration.
type Config struct {
	Cache     CacheConfig     `toml:"cache"`
	Extract   ExtractConfig   `toml:"extract"`
	Generate  GenerateConfig  `toml:"generate"`
	Submit    SubmitConfig    `toml:"submit"`
	HTTP      HTTPConfig      `toml:"http"`
	Browser   BrowserConfig   `toml:"browser"`
	Server    ServerConfig    `toml:"server"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Logging   LogConfig       `toml:"logging"`
}

// CacheConfig holds structure cache configuration.
type CacheConfig struct {
	Dir       string   `envconfig:"FORMFILL_CACHE_DIR" toml:"dir"`
	Freshness Duration `envconfig:"FORMFILL_CACHE_FRESHNESS" toml:"freshness"`
	Compress  bool     `envconfig:"FORMFILL_CACHE_COMPRESS" toml:"compress"`
}

// ExtractConfig holds extraction configuration.
type ExtractConfig struct {
	Unknown string `envconfig:"FORMFILL_UNKNOWN_FIELDS" toml:"unknown"` // "skip" or "fail"
}

// GenerateConfig holds answer generation configuration.
type GenerateConfig struct {
	Seed                 int64   `envconfig:"FORMFILL_SEED" toml:"seed"` // negative = random
	FillOptional         float64 `envconfig:"FORMFILL_FILL_OPTIONAL" toml:"fill_optional"`
	CheckboxDistribution string  `envconfig:"FORMFILL_CHECKBOX_DISTRIBUTION" toml:"checkbox_distribution"`
	CheckboxMaxFraction  float64 `envconfig:"FORMFILL_CHECKBOX_MAX_FRACTION" toml:"checkbox_max_fraction"`
	CheckboxP            float64 `envconfig:"FORMFILL_CHECKBOX_P" toml:"checkbox_p"`
}

// SubmitConfig holds submission loop configuration.
type SubmitConfig struct {
	DryRun                 bool     `envconfig:"FORMFILL_DRY_RUN" toml:"dry_run"`
	DelayMin               Duration `envconfig:"FORMFILL_DELAY_MIN" toml:"delay_min"`
	DelayMax               Duration `envconfig:"FORMFILL_DELAY_MAX" toml:"delay_max"`
	Retries                int      `envconfig:"FORMFILL_RETRIES" toml:"retries"`
	RetryDelay             Duration `envconfig:"FORMFILL_RETRY_DELAY" toml:"retry_delay"`
	ConfirmPhrase          string   `envconfig:"FORMFILL_CONFIRM_PHRASE" toml:"confirm_phrase"`
	MaxConsecutiveFailures int      `envconfig:"FORMFILL_MAX_CONSECUTIVE_FAILURES" toml:"max_consecutive_failures"`
}

// HTTPConfig holds outbound HTTP client configuration.
type HTTPConfig struct {
	UserAgent string   `envconfig:"FORMFILL_USER_AGENT" toml:"user_agent"`
	Timeout   Duration `envconfig:"FORMFILL_HTTP_TIMEOUT" toml:"timeout"`
	Retries   int      `envconfig:"FORMFILL_HTTP_RETRIES" toml:"retries"`
	RateLimit float64  `envconfig:"FORMFILL_HTTP_RATE_LIMIT" toml:"rate_limit"` // requests per second, 0 = unlimited
}

// BrowserConfig holds headless browser configuration.
type BrowserConfig struct {
	Enabled  bool     `envconfig:"FORMFILL_BROWSER" toml:"enabled"`
	ExecPath string   `envconfig:"FORMFILL_BROWSER_PATH" toml:"exec_path"`
	Headless bool     `envconfig:"FORMFILL_BROWSER_HEADLESS" toml:"headless"`
	Timeout  Duration `envconfig:"FORMFILL_BROWSER_TIMEOUT" toml:"timeout"`
}

// ServerConfig holds HTTP API server configuration.
type ServerConfig struct {
	Port string `envconfig:"FORMFILL_PORT" toml:"port"`
	Host string `envconfig:"FORMFILL_HOST" toml:"host"`
}

// RateLimitConfig holds per-IP rate limiting for the HTTP API.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"FORMFILL_RATE_LIMIT_RPS" toml:"requests_per_second"`
	Burst             int  `envconfig:"FORMFILL_RATE_LIMIT_BURST" toml:"burst"`
	Enabled           bool `envconfig:"FORMFILL_RATE_LIMIT_ENABLED" toml:"enabled"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"FORMFILL_LOG_LEVEL" toml:"level"`
	Development bool   `envconfig:"FORMFILL_LOG_DEV" toml:"development"`
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Cache: CacheConfig{
			Dir:       ".formfill-cache",
			Freshness: Duration{24 * time.Hour},
		},
		Extract: ExtractConfig{
			Unknown: "skip",
		},
		Generate: GenerateConfig{
			Seed:                 -1,
			FillOptional:         1,
			CheckboxDistribution: "uniform",
			CheckboxMaxFraction:  0.5,
			CheckboxP:            0.5,
		},
		Submit: SubmitConfig{
			DelayMin:               Duration{300 * time.Millisecond},
			DelayMax:               Duration{1500 * time.Millisecond},
			Retries:                2,
			RetryDelay:             Duration{2 * time.Second},
			ConfirmPhrase:          "Your response has been recorded",
			MaxConsecutiveFailures: 5,
		},
		HTTP: HTTPConfig{
			UserAgent: "formfill/1.0",
			Timeout:   Duration{30 * time.Second},
			Retries:   3,
		},
		Browser: BrowserConfig{
			Headless: true,
			Timeout:  Duration{45 * time.Second},
		},
		Server: ServerConfig{
			Port: "8080",
			Host: "127.0.0.1",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 10,
			Burst:             20,
			Enabled:           true,
		},
		Logging: LogConfig{
			Level: "info",
		},
	}
}

// Load builds configuration from defaults, an optional TOML file and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.MergeFile(path); err != nil {
			return nil, err
		}
	}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from the environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load("")
	if err != nil {
		return Default()
	}
	return cfg
}

// MergeFile overlays the keys present in a TOML file onto cfg.
func (c *Config) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error
	switch c.Extract.Unknown {
	case "skip", "fail":
	default:
		errs = append(errs, fmt.Errorf("extract.unknown must be skip or fail, got %q", c.Extract.Unknown))
	}
	switch c.Generate.CheckboxDistribution {
	case "uniform", "binomial":
	default:
		errs = append(errs, fmt.Errorf("generate.checkbox_distribution must be uniform or binomial, got %q", c.Generate.CheckboxDistribution))
	}
	if c.Generate.FillOptional < 0 || c.Generate.FillOptional > 1 {
		errs = append(errs, fmt.Errorf("generate.fill_optional must be within [0,1], got %v", c.Generate.FillOptional))
	}
	if c.Generate.CheckboxMaxFraction <= 0 || c.Generate.CheckboxMaxFraction > 1 {
		errs = append(errs, fmt.Errorf("generate.checkbox_max_fraction must be within (0,1], got %v", c.Generate.CheckboxMaxFraction))
	}
	if c.Generate.CheckboxP <= 0 || c.Generate.CheckboxP > 1 {
		errs = append(errs, fmt.Errorf("generate.checkbox_p must be within (0,1], got %v", c.Generate.CheckboxP))
	}
	if c.Submit.DelayMin.Duration < 0 || c.Submit.DelayMax.Duration < c.Submit.DelayMin.Duration {
		errs = append(errs, fmt.Errorf("submit delay range %s..%s is invalid", c.Submit.DelayMin, c.Submit.DelayMax))
	}
	if c.Submit.Retries < 0 {
		errs = append(errs, fmt.Errorf("submit.retries must not be negative"))
	}
	if c.Cache.Freshness.Duration < 0 {
		errs = append(errs, fmt.Errorf("cache.freshness must not be negative"))
	}
	if c.Cache.Dir == "" {
		errs = append(errs, fmt.Errorf("cache.dir is required"))
	}
	return errors.Join(errs...)
}

// Duration is a time.Duration that decodes from strings like "1h30m" in
// both environment variables and TOML files.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// MarshalText renders the duration as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}
