package pages

import "github.com/playwright-community/playwright-go"

// Login page selectors.
const (
	SelectorLoginEmail    = "input[data-qa='login-email']"
	SelectorLoginPassword = "input[data-qa='login-password']"
	SelectorLoginButton   = "button[data-qa='login-button']"
	SelectorLoginError    = ".login-form p"
)

// Login is the combined login/signup page.
type Login struct {
	Base
}

func NewLogin(page playwright.Page) Login {
	return Login{Base: NewBase(page)}
}

// Login fills the credentials form and submits it.
func (l Login) Login(email, password string) error {
	if err := l.Fill(SelectorLoginEmail, email); err != nil {
		return err
	}
	if err := l.Fill(SelectorLoginPassword, password); err != nil {
		return err
	}
	return l.Click(SelectorLoginButton)
}

// ErrorText waits for and returns the failure paragraph under the login form.
func (l Login) ErrorText() (string, error) {
	if err := l.WaitVisible(SelectorLoginError); err != nil {
		return "", err
	}
	return l.Text(SelectorLoginError)
}
