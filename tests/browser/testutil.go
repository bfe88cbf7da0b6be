// Package browsertest drives the shop UI end to end with Playwright. Every
// test goes through SetupEnv(t), which loads the harness configuration, spins
// up the embedded shop unless BASE_URL points at a deployment, and launches
// browsers on demand. Tests skip cleanly when Playwright is not installed.
package browsertest

import (
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/shopflow/internal/config"
	"github.com/kuitang/shopflow/internal/creds"
	"github.com/kuitang/shopflow/internal/identity"
	"github.com/kuitang/shopflow/internal/obs"
	"github.com/kuitang/shopflow/internal/pages"
	"github.com/kuitang/shopflow/internal/ratelimit"
	"github.com/kuitang/shopflow/internal/shop"
	"github.com/kuitang/shopflow/internal/shopapi"
	"github.com/kuitang/shopflow/internal/shopweb"
)

var fixtureMu sync.Mutex
var sharedEnv *Env

// Env is the shared harness fixture: configuration, the shop under test and
// one lazily launched browser per configured engine.
type Env struct {
	Cfg     *config.Config
	BaseURL string
	API     *shopapi.Client

	// Embedded shop, nil when BASE_URL targets a deployment.
	shopServer *httptest.Server
	shopWeb    *shopweb.Server
	shopStore  *shop.Store

	pw        *playwright.Playwright
	browsers  map[string]playwright.Browser
	browserMu sync.Mutex
}

// SetupEnv returns the shared fixture, building it on first use.
func SetupEnv(t *testing.T) *Env {
	t.Helper()

	fixtureMu.Lock()
	defer fixtureMu.Unlock()

	if sharedEnv != nil {
		return sharedEnv
	}

	// A missing .env is fine; the process environment still applies.
	_ = godotenv.Load(filepath.Join(repositoryRoot(), ".env"))
	obs.Init()

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Failed to load harness configuration: %v", err)
	}
	if err := cfg.EnsureDirs(); err != nil {
		t.Fatalf("Failed to create artifact directories: %v", err)
	}

	env := &Env{
		Cfg:      cfg,
		browsers: make(map[string]playwright.Browser),
	}

	if cfg.BaseURL != "" {
		env.BaseURL = cfg.BaseURL
		env.API = shopapi.NewClient(cfg.BaseURL, shopapi.WithTimeout(cfg.APITimeout))
	} else {
		store, err := shop.Open("")
		if err != nil {
			t.Fatalf("Failed to open embedded shop store: %v", err)
		}
		web, err := shopweb.New(store, ratelimit.Config{RPS: 10000, Burst: 10000, CleanupInterval: time.Hour})
		if err != nil {
			store.Close()
			t.Fatalf("Failed to build embedded shop server: %v", err)
		}
		server := httptest.NewServer(web.Handler())

		env.shopServer = server
		env.shopWeb = web
		env.shopStore = store
		env.BaseURL = server.URL
		env.API = shopapi.NewClient(server.URL, shopapi.WithRate(1000, 1000))
	}

	sharedEnv = env
	return env
}

func cleanupSharedEnv() {
	fixtureMu.Lock()
	defer fixtureMu.Unlock()

	if sharedEnv == nil {
		return
	}
	for _, browser := range sharedEnv.browsers {
		_ = browser.Close()
	}
	if sharedEnv.pw != nil {
		_ = sharedEnv.pw.Stop()
	}
	if sharedEnv.shopServer != nil {
		sharedEnv.shopServer.Close()
	}
	if sharedEnv.shopWeb != nil {
		sharedEnv.shopWeb.Close()
	}
	if sharedEnv.shopStore != nil {
		sharedEnv.shopStore.Close()
	}
	sharedEnv = nil
}

func TestMain(m *testing.M) {
	code := m.Run()
	cleanupSharedEnv()
	os.Exit(code)
}

func repositoryRoot() string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "."
	}
	return filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
}

// =============================================================================
// Browser lifecycle
// =============================================================================

// Browser returns the shared browser for the named engine, launching it on
// first use. Skips the test when Playwright or the engine is unavailable.
func (env *Env) Browser(t *testing.T, name string) playwright.Browser {
	t.Helper()

	env.browserMu.Lock()
	defer env.browserMu.Unlock()

	if browser, ok := env.browsers[name]; ok {
		return browser
	}

	if env.pw == nil {
		pw, err := playwright.Run()
		if err != nil {
			t.Skip("Playwright not available:", err)
		}
		env.pw = pw
	}

	var browserType playwright.BrowserType
	switch name {
	case config.BrowserChromium:
		browserType = env.pw.Chromium
	case config.BrowserFirefox:
		browserType = env.pw.Firefox
	case config.BrowserWebKit:
		browserType = env.pw.WebKit
	default:
		t.Fatalf("Unsupported browser %q; configuration validation should have caught this", name)
	}

	browser, err := browserType.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(env.Cfg.Headless),
		SlowMo:   playwright.Float(env.Cfg.SlowMoMS),
	})
	if err != nil {
		t.Skipf("Could not launch %s: %v", name, err)
	}

	env.browsers[name] = browser
	return browser
}

// NewPage opens a fresh browser context and page for one test: 1920x1080
// viewport, downloads accepted, timeouts from configuration. On failure the
// cleanup captures a screenshot and the page source before closing the
// context.
func (env *Env) NewPage(t *testing.T, browserName string) playwright.Page {
	t.Helper()

	browser := env.Browser(t, browserName)

	ctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport:        &playwright.Size{Width: 1920, Height: 1080},
		AcceptDownloads: playwright.Bool(true),
	})
	if err != nil {
		t.Fatalf("Failed to create browser context: %v", err)
	}
	ctx.SetDefaultTimeout(env.Cfg.DefaultTimeoutMS)
	ctx.SetDefaultNavigationTimeout(env.Cfg.NavigationTimeoutMS)

	page, err := ctx.NewPage()
	if err != nil {
		_ = ctx.Close()
		t.Fatalf("Failed to create page: %v", err)
	}

	t.Cleanup(func() {
		if t.Failed() {
			env.captureFailureArtifacts(t, page)
		}
		_ = ctx.Close()
	})
	return page
}

// ForEachBrowser runs fn as a subtest per configured browser engine.
func ForEachBrowser(t *testing.T, env *Env, fn func(t *testing.T, browserName string)) {
	for _, name := range env.Cfg.Browsers {
		t.Run(name, func(t *testing.T) {
			fn(t, name)
		})
	}
}

// DownloadDir returns a per-test directory under the configured download
// root. Saved files stay behind after the run for inspection.
func (env *Env) DownloadDir(t *testing.T) string {
	t.Helper()

	dir := filepath.Join(env.Cfg.DownloadDir, sanitizeName(t.Name()))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("Failed to create download directory %s: %v", dir, err)
	}
	return dir
}

// captureFailureArtifacts writes a screenshot and the page source into the
// report directory so a failed run leaves enough to diagnose.
func (env *Env) captureFailureArtifacts(t *testing.T, page playwright.Page) {
	stamp := time.Now().Format("20060102_150405")
	name := sanitizeName(t.Name())

	screenshotDir := filepath.Join(env.Cfg.ReportDir, "screenshots")
	sourceDir := filepath.Join(env.Cfg.ReportDir, "page_source")
	for _, dir := range []string{screenshotDir, sourceDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Logf("Could not create artifact directory %s: %v", dir, err)
			return
		}
	}

	screenshotPath := filepath.Join(screenshotDir, fmt.Sprintf("failure_%s_%s.png", name, stamp))
	if _, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(screenshotPath),
		FullPage: playwright.Bool(true),
	}); err != nil {
		t.Logf("Could not capture failure screenshot: %v", err)
	} else {
		t.Logf("Failure screenshot: %s", screenshotPath)
	}

	content, err := page.Content()
	if err != nil {
		t.Logf("Could not capture page source: %v", err)
		return
	}
	sourcePath := filepath.Join(sourceDir, fmt.Sprintf("source_%s_%s.html", name, stamp))
	if err := os.WriteFile(sourcePath, []byte(content), 0o644); err != nil {
		t.Logf("Could not write page source: %v", err)
		return
	}
	t.Logf("Failure page source: %s", sourcePath)
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

func sanitizeName(name string) string {
	return unsafeNameChars.ReplaceAllString(name, "_")
}

// =============================================================================
// Flow helpers
// =============================================================================

// dummyCard returns card details for the payment form. Nothing validates
// them beyond presence.
func dummyCard(nameOnCard string) pages.Card {
	return pages.Card{
		NameOnCard:  nameOnCard,
		Number:      "4242424242424242",
		CVC:         "311",
		ExpiryMonth: "12",
		ExpiryYear:  "2028",
	}
}

// registerViaAPI creates a fresh account over the account API and writes the
// hand-off record the UI phase will read. Returns the persona and the store
// holding its credentials.
func registerViaAPI(t *testing.T, env *Env, prefix string) (identity.Persona, *creds.Store) {
	t.Helper()

	persona := identity.NewPersona(prefix)
	if err := env.API.CreateAccount(context.Background(), persona); err != nil {
		t.Fatalf("Failed to create account via API: %v", err)
	}

	store := creds.NewStore(filepath.Join(t.TempDir(), env.Cfg.CredentialsFile))
	if err := store.Save(creds.Record{
		Email:    persona.Email,
		Name:     persona.Name,
		Password: persona.Password,
	}); err != nil {
		t.Fatalf("Failed to save credentials hand-off: %v", err)
	}
	return persona, store
}

// loginFromRecord loads the hand-off record and logs in through the UI,
// verifying the header greets the account by name.
func loginFromRecord(t *testing.T, env *Env, page playwright.Page, store *creds.Store) creds.Record {
	t.Helper()

	rec, err := store.Load()
	if err != nil {
		t.Fatalf("Failed to load credentials hand-off: %v", err)
	}

	login := pages.NewLogin(page)
	if err := login.Navigate(env.BaseURL + "/login"); err != nil {
		t.Fatalf("Failed to open login page: %v", err)
	}
	if err := login.Login(rec.Email, rec.Password); err != nil {
		t.Fatalf("Failed to submit login form: %v", err)
	}

	nav := pages.NewNav(page)
	name, err := nav.LoggedInName()
	if err != nil {
		t.Fatalf("Failed to read logged-in banner: %v", err)
	}
	if name != rec.Name {
		t.Fatalf("Logged in as %q, want %q", name, rec.Name)
	}
	return rec
}
