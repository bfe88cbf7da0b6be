// Package apitest exercises the account API through the shopapi client, the
// same way the browser suite's setup phase does. With BASE_URL unset the
// tests run against an embedded shop; point BASE_URL at a deployment to run
// them against that instead.
package apitest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuitang/shopflow/internal/creds"
	"github.com/kuitang/shopflow/internal/errs"
	"github.com/kuitang/shopflow/internal/identity"
	"github.com/kuitang/shopflow/internal/ratelimit"
	"github.com/kuitang/shopflow/internal/shop"
	"github.com/kuitang/shopflow/internal/shopapi"
	"github.com/kuitang/shopflow/internal/shopweb"
)

// shopTarget is one shop deployment under test, embedded or external.
type shopTarget struct {
	baseURL string
	client  *shopapi.Client
}

// newShopTarget returns a target for BASE_URL, or spins up an embedded shop
// when BASE_URL is unset. The embedded shop gets a rate limit high enough to
// never throttle and a client with no outbound pacing.
func newShopTarget(t *testing.T) *shopTarget {
	t.Helper()

	if base := strings.TrimSpace(os.Getenv("BASE_URL")); base != "" {
		return &shopTarget{
			baseURL: base,
			client:  shopapi.NewClient(base),
		}
	}

	store, err := shop.Open("")
	require.NoError(t, err, "open in-memory shop store")

	server, err := shopweb.New(store, ratelimit.Config{RPS: 10000, Burst: 10000, CleanupInterval: time.Hour})
	require.NoError(t, err, "build shop server")

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(func() {
		ts.Close()
		server.Close()
		store.Close()
	})

	return &shopTarget{
		baseURL: ts.URL,
		client:  shopapi.NewClient(ts.URL, shopapi.WithRate(1000, 1000)),
	}
}

func TestAccountAPI_Lifecycle(t *testing.T) {
	target := newShopTarget(t)
	ctx := context.Background()
	persona := identity.NewPersona("lifecycle")

	require.NoError(t, target.client.CreateAccount(ctx, persona), "createAccount should accept a full profile")
	require.NoError(t, target.client.VerifyLogin(ctx, persona.Email, persona.Password), "fresh account should verify")

	require.NoError(t, target.client.DeleteAccount(ctx, persona.Email, persona.Password))

	err := target.client.VerifyLogin(ctx, persona.Email, persona.Password)
	require.Error(t, err, "deleted account should no longer verify")
	assert.Equal(t, errs.NotFound, errs.CodeOf(err))

	err = target.client.DeleteAccount(ctx, persona.Email, persona.Password)
	require.Error(t, err, "second delete should report the account gone")
	assert.Equal(t, errs.NotFound, errs.CodeOf(err))
}

func TestAccountAPI_DuplicateEmailRejected(t *testing.T) {
	target := newShopTarget(t)
	ctx := context.Background()
	persona := identity.NewPersona("duplicate")

	require.NoError(t, target.client.CreateAccount(ctx, persona))

	err := target.client.CreateAccount(ctx, persona)
	require.Error(t, err, "reusing the email should be rejected")
	assert.Equal(t, errs.AlreadyExists, errs.CodeOf(err),
		"duplicate registration should be distinguishable from other rejections")
}

func TestAccountAPI_VerifyLoginRejections(t *testing.T) {
	target := newShopTarget(t)
	ctx := context.Background()
	persona := identity.NewPersona("verify")

	require.NoError(t, target.client.CreateAccount(ctx, persona))

	t.Run("wrong password", func(t *testing.T) {
		err := target.client.VerifyLogin(ctx, persona.Email, "not-the-password")
		require.Error(t, err)
		assert.Equal(t, errs.NotFound, errs.CodeOf(err))
	})

	t.Run("unknown email", func(t *testing.T) {
		err := target.client.VerifyLogin(ctx, identity.UniqueEmail("never-registered"), persona.Password)
		require.Error(t, err)
		assert.Equal(t, errs.NotFound, errs.CodeOf(err))
	})
}

// TestAccountAPI_CredentialsHandoff runs the exact setup sequence the browser
// suite depends on: register over the API, persist the record, then prove a
// cold reader of that file can log in with it.
func TestAccountAPI_CredentialsHandoff(t *testing.T) {
	target := newShopTarget(t)
	ctx := context.Background()
	persona := identity.NewPersona("handoff")

	require.NoError(t, target.client.CreateAccount(ctx, persona))

	store := creds.NewStore(filepath.Join(t.TempDir(), "user_credentials.json"))
	require.NoError(t, store.Save(creds.Record{
		Email:    persona.Email,
		Name:     persona.Name,
		Password: persona.Password,
	}))

	rec, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, persona.Email, rec.Email)
	assert.Equal(t, persona.Name, rec.Name)

	require.NoError(t, target.client.VerifyLogin(ctx, rec.Email, rec.Password),
		"credentials loaded from the hand-off file should authenticate")
}

// TestAccountAPI_MissingParameterEnvelope posts an incomplete form directly,
// bypassing the client because the client always sends the full profile. The
// envelope must name the missing field and the HTTP method.
func TestAccountAPI_MissingParameterEnvelope(t *testing.T) {
	target := newShopTarget(t)
	persona := identity.NewPersona("missing")

	form := persona.FormValues()
	form.Del("password")

	resp, err := http.PostForm(target.baseURL+"/api/createAccount", form)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode, "application errors ride on transport 200")

	var status shopapi.Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, http.StatusBadRequest, status.ResponseCode)
	assert.Equal(t, "Bad request, password parameter is missing in POST request!", status.Message)
}

// TestAccountAPI_DeleteRequiresMatchingPassword confirms delete is gated on
// the credential pair, not just the email.
func TestAccountAPI_DeleteRequiresMatchingPassword(t *testing.T) {
	target := newShopTarget(t)
	ctx := context.Background()
	persona := identity.NewPersona("deleteguard")

	require.NoError(t, target.client.CreateAccount(ctx, persona))

	err := target.client.DeleteAccount(ctx, persona.Email, "not-the-password")
	require.Error(t, err)
	assert.Equal(t, errs.NotFound, errs.CodeOf(err))

	require.NoError(t, target.client.VerifyLogin(ctx, persona.Email, persona.Password),
		"failed delete should leave the account intact")
}

// TestAccountAPI_ClientRejectsNonEnvelopeBody pins the client's behavior when
// pointed at something that is not the account API.
func TestAccountAPI_ClientRejectsNonEnvelopeBody(t *testing.T) {
	notTheAPI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>welcome</body></html>"))
	}))
	defer notTheAPI.Close()

	client := shopapi.NewClient(notTheAPI.URL, shopapi.WithRate(1000, 1000))
	err := client.VerifyLogin(context.Background(), "a@example.com", "pw")
	require.Error(t, err)
	assert.Equal(t, errs.Internal, errs.CodeOf(err))

	gone := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer gone.Close()

	client = shopapi.NewClient(gone.URL, shopapi.WithRate(1000, 1000))
	err = client.VerifyLogin(context.Background(), "a@example.com", "pw")
	require.Error(t, err)
	assert.Equal(t, errs.Unavailable, errs.CodeOf(err))
}

// TestAccountAPI_FormFieldOrderMatchesContract locks the canonical parameter
// list so a reordered or renamed field fails here rather than against a
// deployment.
func TestAccountAPI_FormFieldOrderMatchesContract(t *testing.T) {
	form := identity.NewPersona("contract").FormValues()

	expected := []string{
		"name", "email", "password", "title", "birth_date", "birth_month",
		"birth_year", "firstname", "lastname", "company", "address1",
		"address2", "country", "zipcode", "state", "city", "mobile_number",
	}
	for _, field := range expected {
		assert.True(t, form.Has(field), "form should carry %s", field)
		assert.NotEmpty(t, form.Get(field), "field %s should not be blank", field)
	}
	assert.Len(t, form, len(expected), "form should carry exactly the contract fields")
}
