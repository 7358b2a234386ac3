package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Portal    PortalConfig    `yaml:"portal"`
	Fetcher   FetcherConfig   `yaml:"fetcher"`
	Stations  StationsConfig  `yaml:"stations"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Report    ReportConfig    `yaml:"report"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Timezone  string          `yaml:"timezone"`
}

// PortalConfig describes the listings portal being checked
type PortalConfig struct {
	BaseURL     string `yaml:"base_url"`
	Prefecture  string `yaml:"prefecture"`
	CompanyName string `yaml:"company_name"`
}

// FetcherConfig contains fetch boundary settings
type FetcherConfig struct {
	Mode                string `yaml:"mode"` // http, browser, collector
	UserAgent           string `yaml:"user_agent"`
	TimeoutSeconds      int    `yaml:"timeout_seconds"`
	MaxRetries          int    `yaml:"max_retries"`
	RetryDelaySeconds   int    `yaml:"retry_delay_seconds"`
	RequestDelaySeconds int    `yaml:"request_delay_seconds"`
	JitterMillis        int    `yaml:"jitter_ms"`
	ChromePath          string `yaml:"chrome_path"`
	BreakerThreshold    int    `yaml:"breaker_threshold"`
	BreakerResetMinutes int    `yaml:"breaker_reset_minutes"`

	// slow mode on a high recent failure rate
	Adaptive            bool    `yaml:"adaptive"`
	AdaptiveWindow      int     `yaml:"adaptive_window"`
	SlowThreshold       float64 `yaml:"slow_threshold"`
	SlowDelaySeconds    int     `yaml:"slow_delay_seconds"`
	SlowCooldownMinutes int     `yaml:"slow_cooldown_minutes"`
}

// StationsConfig points at an optional station code table
type StationsConfig struct {
	File string `yaml:"file"`
}

// RateLimitConfig contains API rate limiting settings
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	RequestsPerHour   int  `yaml:"requests_per_hour"`
	RequestsPerDay    int  `yaml:"requests_per_day"`
}

// SchedulerConfig contains repeated run settings
type SchedulerConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Cron         string `yaml:"cron"`
	DailyRunTime string `yaml:"daily_run_time"`
}

// ReportConfig contains targets/report file settings
type ReportConfig struct {
	TargetsPath     string `yaml:"targets_path"`
	OutputPath      string `yaml:"output_path"`
	TimestampFormat string `yaml:"timestamp_format"`
	MaxRuns         int    `yaml:"max_runs"`
	PruneDryRun     bool   `yaml:"prune_dry_run"`
}

// ServerConfig contains HTTP API settings
type ServerConfig struct {
	Port         string   `yaml:"port"`
	AllowOrigins []string `yaml:"allow_origins"`
	MaxBatchSize int      `yaml:"max_batch_size"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text, json
	Color  bool   `yaml:"color"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Portal: PortalConfig{
			BaseURL:     "https://suumo.jp",
			Prefecture:  "tokyo",
			CompanyName: "合同会社えほうまき",
		},
		Fetcher: FetcherConfig{
			Mode:                "http",
			UserAgent:           "Mozilla/5.0 (iPhone; CPU iPhone OS 15_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/15.0 Mobile/15E148 Safari/604.1",
			TimeoutSeconds:      30,
			MaxRetries:          0,
			RetryDelaySeconds:   2,
			RequestDelaySeconds: 2,
			JitterMillis:        1000,
			ChromePath:          "",
			BreakerThreshold:    5,
			BreakerResetMinutes: 30,
			Adaptive:            true,
			AdaptiveWindow:      20,
			SlowThreshold:       0.20,
			SlowDelaySeconds:    10,
			SlowCooldownMinutes: 30,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 10,
			RequestsPerHour:   200,
			RequestsPerDay:    1000,
		},
		Scheduler: SchedulerConfig{
			Enabled:      false,
			DailyRunTime: "09:00",
		},
		Report: ReportConfig{
			TargetsPath:     "targets.csv",
			OutputPath:      "report.csv",
			TimestampFormat: "01-02 15:04",
		},
		Server: ServerConfig{
			Port:         "8084",
			AllowOrigins: []string{"http://localhost:5176"},
			MaxBatchSize: 50,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Color:  true,
		},
		Timezone: "Asia/Tokyo",
	}
}

// LoadConfig loads configuration from a YAML file, then applies environment overrides.
// A missing file is not an error; defaults are used.
func LoadConfig(filepath string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, using process environment")
	}

	config := DefaultConfig()

	if _, err := os.Stat(filepath); err == nil {
		data, err := os.ReadFile(filepath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyEnv() {
	c.Portal.CompanyName = getEnv("COMPANY_NAME", c.Portal.CompanyName)
	c.Fetcher.Mode = getEnv("FETCH_MODE", c.Fetcher.Mode)
	c.Fetcher.ChromePath = getEnv("CHROME_BIN", c.Fetcher.ChromePath)
	c.Fetcher.MaxRetries = getEnvInt("FETCH_MAX_RETRIES", c.Fetcher.MaxRetries)
	c.Stations.File = getEnv("STATIONS_FILE", c.Stations.File)
	c.Report.TargetsPath = getEnv("TARGETS_PATH", c.Report.TargetsPath)
	c.Report.OutputPath = getEnv("REPORT_PATH", c.Report.OutputPath)
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
}

// Validate checks values that would otherwise fail late
func (c *Config) Validate() error {
	switch c.Fetcher.Mode {
	case "http", "browser", "collector":
	default:
		return fmt.Errorf("unknown fetcher mode %q", c.Fetcher.Mode)
	}
	if c.Portal.BaseURL == "" {
		return fmt.Errorf("portal.base_url is required")
	}
	if c.Portal.CompanyName == "" {
		return fmt.Errorf("portal.company_name is required")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// Location returns the configured time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GetRequestDelay returns the request delay as a duration
func (c *FetcherConfig) GetRequestDelay() time.Duration {
	return time.Duration(c.RequestDelaySeconds) * time.Second
}

// GetTimeout returns the timeout as a duration
func (c *FetcherConfig) GetTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GetRetryDelay returns the retry delay as a duration
func (c *FetcherConfig) GetRetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySeconds) * time.Second
}

// GetJitter returns the pacing jitter as a duration
func (c *FetcherConfig) GetJitter() time.Duration {
	return time.Duration(c.JitterMillis) * time.Millisecond
}

// GetBreakerReset returns the circuit breaker reset timeout
func (c *FetcherConfig) GetBreakerReset() time.Duration {
	return time.Duration(c.BreakerResetMinutes) * time.Minute
}

// GetSlowDelay returns the extra per-request delay in slow mode
func (c *FetcherConfig) GetSlowDelay() time.Duration {
	return time.Duration(c.SlowDelaySeconds) * time.Second
}

// GetSlowCooldown returns how long slow mode lasts
func (c *FetcherConfig) GetSlowCooldown() time.Duration {
	return time.Duration(c.SlowCooldownMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}
