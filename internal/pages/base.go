// Package pages provides page objects for the shop UI. Each object wraps one
// screen's selectors around a playwright.Page; all actions flow through Base,
// which logs at debug and returns errors instead of failing the test itself.
package pages

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/shopflow/internal/obs"
)

// Base wraps a Playwright page with logged, error-returning helpers. Page
// objects embed it; they hold no state beyond the handle and the logger.
type Base struct {
	page playwright.Page
	log  *slog.Logger
}

// NewBase wraps a page.
func NewBase(page playwright.Page) Base {
	return Base{page: page, log: obs.Pkg("pages")}
}

// Page exposes the underlying Playwright page for fixture-level concerns
// such as failure screenshots.
func (b Base) Page() playwright.Page {
	return b.page
}

// Navigate loads the URL and waits for DOMContentLoaded.
func (b Base) Navigate(url string) error {
	b.log.Debug("navigate", "url", url)
	_, err := b.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

// Click clicks the first element matching selector.
func (b Base) Click(selector string) error {
	b.log.Debug("click", "selector", selector)
	if err := b.page.Locator(selector).First().Click(); err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	return nil
}

// Fill replaces the value of the first element matching selector. The value
// is never logged; it may be a password.
func (b Base) Fill(selector, value string) error {
	b.log.Debug("fill", "selector", selector)
	if err := b.page.Locator(selector).First().Fill(value); err != nil {
		return fmt.Errorf("fill %s: %w", selector, err)
	}
	return nil
}

// Text returns the trimmed text content of the first match.
func (b Base) Text(selector string) (string, error) {
	text, err := b.page.Locator(selector).First().TextContent()
	if err != nil {
		return "", fmt.Errorf("read text of %s: %w", selector, err)
	}
	return strings.TrimSpace(text), nil
}

// WaitVisible waits until the first match is visible.
func (b Base) WaitVisible(selector string) error {
	b.log.Debug("wait visible", "selector", selector)
	err := b.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State: playwright.WaitForSelectorStateVisible,
	})
	if err != nil {
		return fmt.Errorf("wait for %s: %w", selector, err)
	}
	return nil
}

// WaitHidden waits until selector matches nothing visible.
func (b Base) WaitHidden(selector string) error {
	b.log.Debug("wait hidden", "selector", selector)
	err := b.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State: playwright.WaitForSelectorStateHidden,
	})
	if err != nil {
		return fmt.Errorf("wait for %s to hide: %w", selector, err)
	}
	return nil
}

// WaitURL waits until the page URL matches the glob pattern.
func (b Base) WaitURL(pattern string) error {
	b.log.Debug("wait url", "pattern", pattern)
	if err := b.page.WaitForURL(pattern); err != nil {
		return fmt.Errorf("wait for url %s: %w", pattern, err)
	}
	return nil
}

// Count returns how many elements match selector.
func (b Base) Count(selector string) (int, error) {
	count, err := b.page.Locator(selector).Count()
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", selector, err)
	}
	return count, nil
}
