// Package config loads harness and demo-shop configuration from environment
// variables, applying defaults and collecting validation problems before any
// browser process or server starts.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kuitang/shopflow/internal/ratelimit"
)

// Browser engines the harness knows how to launch.
const (
	BrowserChromium = "chromium"
	BrowserFirefox  = "firefox"
	BrowserWebKit   = "webkit"
)

// Config holds the test-harness configuration.
type Config struct {
	// Target site. Empty means the harness serves its own embedded shop.
	BaseURL string

	// Browser launch settings
	Browsers []string
	Headless bool
	SlowMoMS float64

	// Artifact directories
	DownloadDir string
	ReportDir   string
	LogDir      string

	// Credential hand-off file between the API phase and the UI phase
	CredentialsFile string

	// Timeouts in milliseconds, passed straight to the automation library
	DefaultTimeoutMS    float64
	NavigationTimeoutMS float64

	// Account API client
	APITimeout time.Duration
}

// ServerConfig holds the embedded demo-shop server configuration.
type ServerConfig struct {
	ListenAddr   string
	DatabasePath string // empty means in-memory
	RateLimit    ratelimit.Config
}

// ValidationError represents a configuration validation error with multiple issues.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Load reads harness configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.BaseURL = strings.TrimSpace(os.Getenv("BASE_URL"))

	cfg.Browsers = splitBrowserList(getEnvOrDefault("BROWSERS", "chromium,firefox"))
	cfg.Headless = parseBoolOrDefault("HEADLESS", true)
	cfg.SlowMoMS = parseFloat64OrDefault("SLOW_MO", 0)

	cfg.DownloadDir = getEnvOrDefault("DOWNLOAD_DIR", "downloads")
	cfg.ReportDir = getEnvOrDefault("REPORT_DIR", "reports")
	cfg.LogDir = getEnvOrDefault("LOG_DIR", "logs")

	cfg.CredentialsFile = getEnvOrDefault("CREDENTIALS_FILE", "user_credentials.json")

	cfg.DefaultTimeoutMS = parseFloat64OrDefault("DEFAULT_TIMEOUT", 30000)
	cfg.NavigationTimeoutMS = parseFloat64OrDefault("NAVIGATION_TIMEOUT", 30000)

	cfg.APITimeout = parseDurationOrDefault("API_TIMEOUT", 30*time.Second)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks harness configuration. An unsupported browser name fails
// here, before any launch is attempted.
func (c *Config) Validate() error {
	var errs []string

	if c.BaseURL != "" {
		parsed, err := url.Parse(c.BaseURL)
		if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			errs = append(errs, fmt.Sprintf("BASE_URL %q must be an absolute http(s) URL", c.BaseURL))
		}
	}

	if len(c.Browsers) == 0 {
		errs = append(errs, "BROWSERS must name at least one browser")
	}
	for _, name := range c.Browsers {
		switch name {
		case BrowserChromium, BrowserFirefox, BrowserWebKit:
		default:
			errs = append(errs, fmt.Sprintf("BROWSERS contains unsupported browser %q (supported: chromium, firefox, webkit)", name))
		}
	}

	if c.SlowMoMS < 0 {
		errs = append(errs, "SLOW_MO must not be negative")
	}
	if c.DefaultTimeoutMS <= 0 {
		errs = append(errs, "DEFAULT_TIMEOUT must be positive")
	}
	if c.NavigationTimeoutMS <= 0 {
		errs = append(errs, "NAVIGATION_TIMEOUT must be positive")
	}
	if c.APITimeout <= 0 {
		errs = append(errs, "API_TIMEOUT must be positive")
	}
	if c.CredentialsFile == "" {
		errs = append(errs, "CREDENTIALS_FILE must not be empty")
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// EnsureDirs creates the download, report, and log directories.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.DownloadDir, c.ReportDir, c.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// LoadServer reads demo-shop server configuration from environment variables.
func LoadServer() (*ServerConfig, error) {
	cfg := &ServerConfig{
		ListenAddr:   getEnvOrDefault("LISTEN_ADDR", ":8080"),
		DatabasePath: strings.TrimSpace(os.Getenv("SHOP_DB")),
		RateLimit: ratelimit.Config{
			RPS:             parseFloat64OrDefault("RATE_LIMIT_RPS", 25),
			Burst:           parseIntOrDefault("RATE_LIMIT_BURST", 50),
			CleanupInterval: parseDurationOrDefault("RATE_LIMIT_CLEANUP_INTERVAL", time.Hour),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks demo-shop server configuration.
func (c *ServerConfig) Validate() error {
	var errs []string

	if strings.TrimSpace(c.ListenAddr) == "" {
		errs = append(errs, "LISTEN_ADDR must not be empty")
	}
	if c.RateLimit.RPS <= 0 {
		errs = append(errs, "RATE_LIMIT_RPS must be positive")
	}
	if c.RateLimit.Burst <= 0 {
		errs = append(errs, "RATE_LIMIT_BURST must be positive")
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// Helper functions for parsing environment variables

func splitBrowserList(raw string) []string {
	parts := strings.Split(raw, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		name := strings.ToLower(strings.TrimSpace(p))
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	return names
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func parseIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(value)))
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// MustLoad loads harness configuration and panics if validation fails.
// Use this when the run should fail fast on bad config.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			panic(fmt.Sprintf("Configuration validation failed:\n  - %s", strings.Join(validationErr.Errors, "\n  - ")))
		}
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}
	return cfg
}
