package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"ercot-mcp/internal/ercot"
)

// Config is the on-disk configuration shape (YAML). Credentials are NOT part
// of it; they come from the environment (see LoadCredentials).
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	HTTP     HTTPConfig     `yaml:"http"`
	Forecast ForecastConfig `yaml:"forecast"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	Env  string `yaml:"env"`
}

type HTTPConfig struct {
	Timeout           time.Duration `yaml:"timeout"`
	RetryMaxAttempts  int           `yaml:"retry_max_attempts"`
	BackoffMin        time.Duration `yaml:"backoff_min"`
	BackoffMax        time.Duration `yaml:"backoff_max"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
}

type ForecastConfig struct {
	TrainingDays     int  `yaml:"training_days"`
	PolynomialDegree int  `yaml:"polynomial_degree"`
	ExpandingWindow  bool `yaml:"expanding_window"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Default returns the configuration used when no file is provided.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080", Env: "development"},
		HTTP: HTTPConfig{
			Timeout:           30 * time.Second,
			RetryMaxAttempts:  3,
			BackoffMin:        500 * time.Millisecond,
			BackoffMax:        8 * time.Second,
			RequestsPerSecond: 5,
			Burst:             2,
		},
		Forecast: ForecastConfig{
			TrainingDays:     15,
			PolynomialDegree: 3,
			ExpandingWindow:  true,
		},
		Logging: LoggingConfig{Level: "info", MaxSizeMB: 50, MaxBackups: 3, MaxAgeDays: 14},
	}
}

// Load reads a YAML config file, overlays it on the defaults, and validates.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.HTTP.Timeout <= 0 {
		return errors.New("http.timeout must be positive")
	}
	if c.HTTP.RetryMaxAttempts < 1 {
		return errors.New("http.retry_max_attempts must be at least 1")
	}
	if c.HTTP.BackoffMin <= 0 || c.HTTP.BackoffMax < c.HTTP.BackoffMin {
		return errors.New("http backoff window is invalid")
	}
	if c.HTTP.RequestsPerSecond <= 0 || c.HTTP.Burst < 1 {
		return errors.New("http rate limit is invalid")
	}
	if c.Forecast.TrainingDays < 1 {
		return errors.New("forecast.training_days must be at least 1")
	}
	if c.Forecast.PolynomialDegree < 1 {
		return errors.New("forecast.polynomial_degree must be at least 1")
	}
	return nil
}

// LoadCredentials reads ERCOT API credentials from the environment. A .env
// file in the working directory is honored for local development; missing
// files are ignored.
func LoadCredentials() (ercot.Credentials, error) {
	_ = godotenv.Load()

	creds := ercot.Credentials{
		Username:        os.Getenv("ERCOTUSER"),
		Password:        os.Getenv("ERCOTPASS"),
		SubscriptionKey: os.Getenv("ERCOTKEY"),
	}
	if creds.Username == "" || creds.Password == "" {
		return ercot.Credentials{}, errors.New(
			"ERCOT API credentials not found: set ERCOTUSER and ERCOTPASS environment variables or create a .env file")
	}
	if creds.SubscriptionKey == "" {
		return ercot.Credentials{}, errors.New(
			"ERCOT API subscription key not found: set the ERCOTKEY environment variable")
	}
	return creds, nil
}
