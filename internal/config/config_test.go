package config

import (
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"
)

func validHarnessConfig() Config {
	return Config{
		BaseURL:             "",
		Browsers:            []string{BrowserChromium, BrowserFirefox},
		Headless:            true,
		SlowMoMS:            0,
		DownloadDir:         "downloads",
		ReportDir:           "reports",
		LogDir:              "logs",
		CredentialsFile:     "user_credentials.json",
		DefaultTimeoutMS:    30000,
		NavigationTimeoutMS: 30000,
		APITimeout:          30 * time.Second,
	}
}

func TestLoad_DefaultsWhenEnvUnset(t *testing.T) {
	for _, key := range []string{
		"BASE_URL", "BROWSERS", "HEADLESS", "SLOW_MO",
		"DOWNLOAD_DIR", "REPORT_DIR", "LOG_DIR", "CREDENTIALS_FILE",
		"DEFAULT_TIMEOUT", "NAVIGATION_TIMEOUT", "API_TIMEOUT",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load with defaults failed: %v", err)
	}
	if cfg.BaseURL != "" {
		t.Errorf("BaseURL default mismatch: got=%q want empty", cfg.BaseURL)
	}
	if len(cfg.Browsers) != 2 || cfg.Browsers[0] != BrowserChromium || cfg.Browsers[1] != BrowserFirefox {
		t.Errorf("Browsers default mismatch: got=%v", cfg.Browsers)
	}
	if !cfg.Headless {
		t.Error("Headless should default to true")
	}
	if cfg.CredentialsFile != "user_credentials.json" {
		t.Errorf("CredentialsFile default mismatch: got=%q", cfg.CredentialsFile)
	}
	if cfg.DefaultTimeoutMS != 30000 || cfg.NavigationTimeoutMS != 30000 {
		t.Errorf("timeout defaults mismatch: default=%v navigation=%v", cfg.DefaultTimeoutMS, cfg.NavigationTimeoutMS)
	}
	if cfg.APITimeout != 30*time.Second {
		t.Errorf("APITimeout default mismatch: got=%v", cfg.APITimeout)
	}
}

func TestLoad_OverridesFromEnv(t *testing.T) {
	t.Setenv("BASE_URL", "https://shop.example.test")
	t.Setenv("BROWSERS", " WebKit , chromium ")
	t.Setenv("HEADLESS", "false")
	t.Setenv("SLOW_MO", "125")
	t.Setenv("CREDENTIALS_FILE", "/tmp/creds-override.json")
	t.Setenv("DEFAULT_TIMEOUT", "5000")
	t.Setenv("NAVIGATION_TIMEOUT", "8000")
	t.Setenv("API_TIMEOUT", "10s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load with overrides failed: %v", err)
	}
	if cfg.BaseURL != "https://shop.example.test" {
		t.Errorf("BaseURL override mismatch: got=%q", cfg.BaseURL)
	}
	if len(cfg.Browsers) != 2 || cfg.Browsers[0] != BrowserWebKit || cfg.Browsers[1] != BrowserChromium {
		t.Errorf("Browsers should be trimmed and lower-cased: got=%v", cfg.Browsers)
	}
	if cfg.Headless {
		t.Error("HEADLESS=false should disable headless mode")
	}
	if cfg.SlowMoMS != 125 {
		t.Errorf("SlowMoMS override mismatch: got=%v", cfg.SlowMoMS)
	}
	if cfg.APITimeout != 10*time.Second {
		t.Errorf("APITimeout override mismatch: got=%v", cfg.APITimeout)
	}
}

func TestValidate_RejectsUnknownBrowser(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(rt *rapid.T) {
		name := rapid.StringMatching(`[a-z]{2,12}`).
			Filter(func(s string) bool {
				return s != BrowserChromium && s != BrowserFirefox && s != BrowserWebKit
			}).
			Draw(rt, "browser")

		cfg := validHarnessConfig()
		cfg.Browsers = []string{BrowserChromium, name}

		err := cfg.Validate()
		if err == nil {
			rt.Fatalf("expected validation error for browser %q", name)
		}
		if !strings.Contains(err.Error(), name) {
			rt.Fatalf("validation error should name the bad browser %q, got: %v", name, err)
		}
	})
}

func TestValidate_RejectsEmptyBrowserList(t *testing.T) {
	t.Parallel()
	cfg := validHarnessConfig()
	cfg.Browsers = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for empty browser list")
	}
}

func TestValidate_RejectsBadTimeoutsAndURL(t *testing.T) {
	t.Parallel()
	cfg := validHarnessConfig()
	cfg.BaseURL = "not a url"
	cfg.DefaultTimeoutMS = 0
	cfg.NavigationTimeoutMS = -1
	cfg.APITimeout = 0
	cfg.SlowMoMS = -5

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error for bad timeouts and URL")
	}
	msg := err.Error()
	for _, expected := range []string{"BASE_URL", "DEFAULT_TIMEOUT", "NAVIGATION_TIMEOUT", "API_TIMEOUT", "SLOW_MO"} {
		if !strings.Contains(msg, expected) {
			t.Errorf("expected validation error to mention %q, got: %v", expected, err)
		}
	}
}

func TestSplitBrowserList_DropsEmptyEntries(t *testing.T) {
	t.Parallel()
	got := splitBrowserList("chromium,, firefox ,")
	if len(got) != 2 || got[0] != "chromium" || got[1] != "firefox" {
		t.Fatalf("splitBrowserList mismatch: got=%v", got)
	}
}

func TestHelperParsers_DefaultOnBadInput(t *testing.T) {
	t.Setenv("CFG_TEST_INT", "not-an-int")
	t.Setenv("CFG_TEST_FLOAT", "not-a-float")
	t.Setenv("CFG_TEST_BOOL", "not-a-bool")
	t.Setenv("CFG_TEST_DUR", "not-a-duration")
	if got := parseIntOrDefault("CFG_TEST_INT", 7); got != 7 {
		t.Fatalf("parseIntOrDefault fallback mismatch: got=%d want=7", got)
	}
	if got := parseFloat64OrDefault("CFG_TEST_FLOAT", 3.5); got != 3.5 {
		t.Fatalf("parseFloat64OrDefault fallback mismatch: got=%v want=3.5", got)
	}
	if got := parseBoolOrDefault("CFG_TEST_BOOL", true); got != true {
		t.Fatalf("parseBoolOrDefault fallback mismatch: got=%v want=true", got)
	}
	if got := parseDurationOrDefault("CFG_TEST_DUR", 2*time.Minute); got != 2*time.Minute {
		t.Fatalf("parseDurationOrDefault fallback mismatch: got=%v want=%v", got, 2*time.Minute)
	}
}

func TestLoadServer_DefaultsAndValidation(t *testing.T) {
	for _, key := range []string{"LISTEN_ADDR", "SHOP_DB", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "RATE_LIMIT_CLEANUP_INTERVAL"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer with defaults failed: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr default mismatch: got=%q", cfg.ListenAddr)
	}
	if cfg.DatabasePath != "" {
		t.Errorf("DatabasePath should default to in-memory, got=%q", cfg.DatabasePath)
	}
	if cfg.RateLimit.RPS <= 0 || cfg.RateLimit.Burst <= 0 {
		t.Errorf("rate limit defaults must be positive: %+v", cfg.RateLimit)
	}

	cfg.RateLimit.RPS = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for zero RPS")
	}
}

func TestMustLoad_PanicsOnUnsupportedBrowser(t *testing.T) {
	t.Setenv("BROWSERS", "netscape")

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected MustLoad to panic on unsupported browser")
		}
		if !strings.Contains(r.(string), "netscape") {
			t.Fatalf("panic should name the unsupported browser, got: %v", r)
		}
	}()
	MustLoad()
}
