package shopweb

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/kuitang/shopflow/internal/ratelimit"
	"github.com/kuitang/shopflow/internal/shop"
)

func postAPIForm(t *testing.T, baseURL, path string, form url.Values) apiEnvelope {
	t.Helper()
	resp, err := http.PostForm(baseURL+path, form)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return decodeEnvelope(t, resp)
}

func deleteAPIForm(t *testing.T, baseURL, path string, form url.Values) apiEnvelope {
	t.Helper()
	req, err := http.NewRequest(http.MethodDelete, baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("build DELETE %s: %v", path, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE %s: %v", path, err)
	}
	return decodeEnvelope(t, resp)
}

// decodeEnvelope reads the application envelope. The API always answers with
// transport status 200; anything else is a routing or middleware bug.
func decodeEnvelope(t *testing.T, resp *http.Response) apiEnvelope {
	t.Helper()
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected transport status 200, got %d", resp.StatusCode)
	}
	var env apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func TestAPICreateAccount_CreatesUser(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	env := postAPIForm(t, ts.URL, "/api/createAccount", registrationForm("Tazeem", "tazeem@example.com", "Password123"))
	if env.ResponseCode != http.StatusCreated {
		t.Fatalf("expected responseCode 201, got %d (%s)", env.ResponseCode, env.Message)
	}
	if env.Message != "User created!" {
		t.Errorf("unexpected message %q", env.Message)
	}

	login := postAPIForm(t, ts.URL, "/api/verifyLogin", url.Values{
		"email":    {"tazeem@example.com"},
		"password": {"Password123"},
	})
	if login.ResponseCode != http.StatusOK {
		t.Errorf("created account should verify, got %d (%s)", login.ResponseCode, login.Message)
	}
}

func TestAPICreateAccount_DuplicateEmail(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	form := registrationForm("Tazeem", "dup@example.com", "Password123")
	if env := postAPIForm(t, ts.URL, "/api/createAccount", form); env.ResponseCode != http.StatusCreated {
		t.Fatalf("first create failed: %d (%s)", env.ResponseCode, env.Message)
	}

	env := postAPIForm(t, ts.URL, "/api/createAccount", form)
	if env.ResponseCode != http.StatusBadRequest {
		t.Fatalf("expected responseCode 400, got %d", env.ResponseCode)
	}
	if env.Message != "Email already exists!" {
		t.Errorf("unexpected message %q", env.Message)
	}
}

func TestAPICreateAccount_MissingParamNamesFieldAndMethod(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	form := registrationForm("Tazeem", "missing@example.com", "Password123")
	form.Del("password")

	env := postAPIForm(t, ts.URL, "/api/createAccount", form)
	if env.ResponseCode != http.StatusBadRequest {
		t.Fatalf("expected responseCode 400, got %d", env.ResponseCode)
	}
	if env.Message != "Bad request, password parameter is missing in POST request!" {
		t.Errorf("unexpected message %q", env.Message)
	}

	// With several fields missing, the first in declaration order is named.
	form2 := registrationForm("Tazeem", "missing2@example.com", "Password123")
	form2.Del("state")
	form2.Del("zipcode")
	if env := postAPIForm(t, ts.URL, "/api/createAccount", form2); !strings.Contains(env.Message, "zipcode parameter") {
		t.Errorf("expected zipcode to be reported first, got %q", env.Message)
	}
}

func TestAPIVerifyLogin_Envelope(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	postAPIForm(t, ts.URL, "/api/createAccount", registrationForm("Tazeem", "tazeem@example.com", "Password123"))

	t.Run("valid credentials", func(t *testing.T) {
		env := postAPIForm(t, ts.URL, "/api/verifyLogin", url.Values{
			"email":    {"tazeem@example.com"},
			"password": {"Password123"},
		})
		if env.ResponseCode != http.StatusOK || env.Message != "User exists!" {
			t.Errorf("got %d %q", env.ResponseCode, env.Message)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		env := postAPIForm(t, ts.URL, "/api/verifyLogin", url.Values{
			"email":    {"tazeem@example.com"},
			"password": {"nope"},
		})
		if env.ResponseCode != http.StatusNotFound || env.Message != "User not found!" {
			t.Errorf("got %d %q", env.ResponseCode, env.Message)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		env := postAPIForm(t, ts.URL, "/api/verifyLogin", url.Values{
			"email":    {"nobody@example.com"},
			"password": {"Password123"},
		})
		if env.ResponseCode != http.StatusNotFound {
			t.Errorf("got %d %q", env.ResponseCode, env.Message)
		}
	})

	t.Run("missing password parameter", func(t *testing.T) {
		env := postAPIForm(t, ts.URL, "/api/verifyLogin", url.Values{
			"email": {"tazeem@example.com"},
		})
		if env.ResponseCode != http.StatusBadRequest {
			t.Errorf("got %d %q", env.ResponseCode, env.Message)
		}
		if env.Message != "Bad request, password parameter is missing in POST request!" {
			t.Errorf("unexpected message %q", env.Message)
		}
	})
}

func TestAPIDeleteAccount_Envelope(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	postAPIForm(t, ts.URL, "/api/createAccount", registrationForm("Tazeem", "tazeem@example.com", "Password123"))

	creds := url.Values{
		"email":    {"tazeem@example.com"},
		"password": {"Password123"},
	}

	wrong := url.Values{
		"email":    {"tazeem@example.com"},
		"password": {"nope"},
	}
	if env := deleteAPIForm(t, ts.URL, "/api/deleteAccount", wrong); env.ResponseCode != http.StatusNotFound || env.Message != "Account not found!" {
		t.Errorf("wrong password: got %d %q", env.ResponseCode, env.Message)
	}

	if env := deleteAPIForm(t, ts.URL, "/api/deleteAccount", creds); env.ResponseCode != http.StatusOK || env.Message != "Account deleted!" {
		t.Errorf("delete: got %d %q", env.ResponseCode, env.Message)
	}

	// Idempotence check: the second delete no longer finds the account.
	if env := deleteAPIForm(t, ts.URL, "/api/deleteAccount", creds); env.ResponseCode != http.StatusNotFound {
		t.Errorf("second delete: got %d %q", env.ResponseCode, env.Message)
	}

	missing := url.Values{"email": {"tazeem@example.com"}}
	if env := deleteAPIForm(t, ts.URL, "/api/deleteAccount", missing); env.Message != "Bad request, password parameter is missing in DELETE request!" {
		t.Errorf("missing param: got %q", env.Message)
	}
}

func TestAPIProductsList_ReturnsSeededCatalog(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/productsList")
	if err != nil {
		t.Fatalf("GET productsList: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var payload productsEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode products: %v", err)
	}
	if payload.ResponseCode != http.StatusOK {
		t.Errorf("unexpected responseCode %d", payload.ResponseCode)
	}
	if len(payload.Products) != 8 {
		t.Fatalf("expected 8 seeded products, got %d", len(payload.Products))
	}
	first := payload.Products[0]
	if first.Name != "Blue Top" || first.Price != "Rs. 500" || first.Brand != "Polo" {
		t.Errorf("unexpected first product %+v", first)
	}
}

func TestAPIRateLimit_ThrottlesWithEnvelope(t *testing.T) {
	store, err := shop.Open("")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	// One token, effectively no refill within the test.
	server, err := New(store, ratelimit.Config{RPS: 0.001, Burst: 1, CleanupInterval: time.Hour})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(func() {
		ts.Close()
		server.Close()
		store.Close()
	})

	first, err := http.Get(ts.URL + "/api/productsList")
	if err != nil {
		t.Fatalf("first request: %v", err)
	}
	first.Body.Close()
	if first.StatusCode != http.StatusOK {
		t.Fatalf("first request should pass, got %d", first.StatusCode)
	}

	second, err := http.Get(ts.URL + "/api/productsList")
	if err != nil {
		t.Fatalf("second request: %v", err)
	}
	defer second.Body.Close()
	if second.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second request should throttle, got %d", second.StatusCode)
	}
	if second.Header.Get("Retry-After") == "" {
		t.Error("throttled response should carry Retry-After")
	}
	var env apiEnvelope
	if err := json.NewDecoder(second.Body).Decode(&env); err != nil {
		t.Fatalf("decode throttle envelope: %v", err)
	}
	if env.ResponseCode != http.StatusTooManyRequests || env.Message != "Too many requests!" {
		t.Errorf("unexpected throttle envelope %d %q", env.ResponseCode, env.Message)
	}

	// HTML pages are never throttled.
	page, err := http.Get(ts.URL + "/products")
	if err != nil {
		t.Fatalf("products page: %v", err)
	}
	page.Body.Close()
	if page.StatusCode != http.StatusOK {
		t.Errorf("HTML page should not throttle, got %d", page.StatusCode)
	}
}
