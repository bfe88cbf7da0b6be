package pages

import (
	"strings"

	"github.com/playwright-community/playwright-go"
)

// Header nav selectors, present on every screen.
const (
	SelectorNavHome          = "a[href='/']"
	SelectorNavProducts      = "a[href='/products']"
	SelectorNavCart          = "a[href='/view_cart']"
	SelectorNavLogin         = "a[href='/login']"
	SelectorNavLogout        = "a[href='/logout']"
	SelectorNavDeleteAccount = "a[href='/delete_account']"
	SelectorLoggedInAs       = "li#logged_in_as"

	SelectorAccountDeletedHeading = "h2[data-qa='account-deleted']"
)

// Nav drives the header shared by every page.
type Nav struct {
	Base
}

// NewNav wraps the page's header.
func NewNav(page playwright.Page) Nav {
	return Nav{Base: NewBase(page)}
}

func (n Nav) GoHome() error {
	return n.Click(SelectorNavHome)
}

func (n Nav) GoToProducts() error {
	return n.Click(SelectorNavProducts)
}

func (n Nav) GoToCart() error {
	return n.Click(SelectorNavCart)
}

func (n Nav) GoToLogin() error {
	return n.Click(SelectorNavLogin)
}

func (n Nav) Logout() error {
	return n.Click(SelectorNavLogout)
}

// DeleteAccount clicks the header link and waits for the deletion
// confirmation page.
func (n Nav) DeleteAccount() error {
	if err := n.Click(SelectorNavDeleteAccount); err != nil {
		return err
	}
	return n.WaitVisible(SelectorAccountDeletedHeading)
}

// AccountDeletedText returns the confirmation heading text.
func (n Nav) AccountDeletedText() (string, error) {
	return n.Text(SelectorAccountDeletedHeading)
}

// LoggedInName returns the account name from the "Logged in as" banner.
func (n Nav) LoggedInName() (string, error) {
	text, err := n.Text(SelectorLoggedInAs)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.TrimPrefix(text, "Logged in as")), nil
}

// IsLoggedIn reports whether the banner is present at all.
func (n Nav) IsLoggedIn() (bool, error) {
	count, err := n.Count(SelectorLoggedInAs)
	return count > 0, err
}
