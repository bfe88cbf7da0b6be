package browsertest

import (
	"testing"

	"github.com/kuitang/shopflow/internal/pages"
)

// TestLogin_WrongPasswordShowsError registers a real account, then logs in
// with the wrong password. The login page must show the shop's failure
// message and the header must stay logged out.
func TestLogin_WrongPasswordShowsError(t *testing.T) {
	env := SetupEnv(t)

	ForEachBrowser(t, env, func(t *testing.T, browserName string) {
		persona, _ := registerViaAPI(t, env, "badlogin")

		page := env.NewPage(t, browserName)
		login := pages.NewLogin(page)
		if err := login.Navigate(env.BaseURL + "/login"); err != nil {
			t.Fatalf("Failed to open login page: %v", err)
		}
		if err := login.Login(persona.Email, "not-the-password"); err != nil {
			t.Fatalf("Failed to submit login form: %v", err)
		}

		message, err := login.ErrorText()
		if err != nil {
			t.Fatalf("Failed to read login error message: %v", err)
		}
		if message != "Your email or password is incorrect!" {
			t.Errorf("Login error is %q, want the incorrect-credentials message", message)
		}

		nav := pages.NewNav(page)
		loggedIn, err := nav.IsLoggedIn()
		if err != nil {
			t.Fatalf("Failed to check the header state: %v", err)
		}
		if loggedIn {
			t.Error("Header shows a logged-in banner after a failed login")
		}
	})
}
