// Package shopapi is the client for the shop's account API. It covers the
// three account endpoints the shop exposes: createAccount, verifyLogin and
// deleteAccount. The shop answers application errors with transport status
// 200 and a JSON envelope, so the envelope's responseCode is authoritative.
package shopapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kuitang/shopflow/internal/errs"
	"github.com/kuitang/shopflow/internal/identity"
	"github.com/kuitang/shopflow/internal/logutil"
	"github.com/kuitang/shopflow/internal/obs"
	"github.com/kuitang/shopflow/internal/urlutil"
)

const (
	// DefaultTimeout bounds each request including body read.
	DefaultTimeout = 30 * time.Second

	// DefaultRequestsPerSecond paces outbound calls so test runs stay polite
	// against a shared deployment.
	DefaultRequestsPerSecond = 5

	maxResponseBytes = 1 << 20
)

// Status is the application-level envelope every account endpoint returns.
type Status struct {
	ResponseCode int    `json:"responseCode"`
	Message      string `json:"message"`
}

// Client calls the account API of one shop deployment.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *slog.Logger
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client, e.g. an httptest server's client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithRate overrides the outbound pacing.
func WithRate(requestsPerSecond float64, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
}

// NewClient returns a client for the shop at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), 1),
		log:        obs.Pkg("shopapi"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateAccount registers the persona. The endpoint requires the full
// profile; a duplicate email maps to errs.AlreadyExists so callers can
// distinguish it from a rejected registration.
func (c *Client) CreateAccount(ctx context.Context, persona identity.Persona) error {
	status, err := c.do(ctx, http.MethodPost, "/api/createAccount", persona.FormValues())
	if err != nil {
		return err
	}

	switch {
	case status.ResponseCode == http.StatusCreated:
		c.log.Info("account created", "email", persona.Email)
		return nil
	case status.ResponseCode == http.StatusBadRequest && strings.Contains(status.Message, "already exists"):
		return errs.New(errs.AlreadyExists, status.Message)
	default:
		return errs.New(errs.InvalidArgument,
			fmt.Sprintf("createAccount rejected with responseCode %d: %s", status.ResponseCode, status.Message))
	}
}

// VerifyLogin checks that the credentials authenticate. Unknown credentials
// map to errs.NotFound, matching the endpoint's 404 envelope.
func (c *Client) VerifyLogin(ctx context.Context, email, password string) error {
	form := url.Values{
		"email":    {email},
		"password": {password},
	}
	status, err := c.do(ctx, http.MethodPost, "/api/verifyLogin", form)
	if err != nil {
		return err
	}

	switch status.ResponseCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return errs.New(errs.NotFound, status.Message)
	default:
		return errs.New(errs.InvalidArgument,
			fmt.Sprintf("verifyLogin rejected with responseCode %d: %s", status.ResponseCode, status.Message))
	}
}

// DeleteAccount removes the account identified by the credentials.
func (c *Client) DeleteAccount(ctx context.Context, email, password string) error {
	form := url.Values{
		"email":    {email},
		"password": {password},
	}
	status, err := c.do(ctx, http.MethodDelete, "/api/deleteAccount", form)
	if err != nil {
		return err
	}

	switch status.ResponseCode {
	case http.StatusOK:
		c.log.Info("account deleted", "email", email)
		return nil
	case http.StatusNotFound:
		return errs.New(errs.NotFound, status.Message)
	default:
		return errs.New(errs.InvalidArgument,
			fmt.Sprintf("deleteAccount rejected with responseCode %d: %s", status.ResponseCode, status.Message))
	}
}

// do sends one form-encoded request and decodes the JSON envelope. Transport
// failures and non-2xx statuses come back as errs.Unavailable; a body that
// does not carry the envelope is errs.Internal because the deployment is not
// the API we were pointed at.
func (c *Client) do(ctx context.Context, method, path string, form url.Values) (Status, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Status{}, errs.Wrap(errs.Unavailable, "wait for request slot", err)
	}

	endpoint := urlutil.BuildAbsolute(c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, method, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Status{}, errs.Wrap(errs.Internal, fmt.Sprintf("build %s request", path), err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	c.log.Debug("api request",
		"method", method,
		"path", path,
		"form", logutil.RedactFormForLog(form))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Status{}, errs.Wrap(errs.Unavailable, fmt.Sprintf("%s %s", method, endpoint), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Status{}, errs.Wrap(errs.Unavailable, fmt.Sprintf("read %s response", path), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Status{}, errs.New(errs.Unavailable,
			fmt.Sprintf("%s returned HTTP %d: %s", path, resp.StatusCode, logutil.TruncateForLog(string(body), 200)))
	}

	var status Status
	if err := json.Unmarshal(body, &status); err != nil {
		return Status{}, errs.Wrap(errs.Internal,
			fmt.Sprintf("%s returned a body that is not the expected envelope: %s",
				path, logutil.TruncateForLog(string(body), 200)), err)
	}
	if status.ResponseCode == 0 {
		return Status{}, errs.New(errs.Internal,
			fmt.Sprintf("%s response envelope lacks responseCode: %s",
				path, logutil.TruncateForLog(string(body), 200)))
	}

	c.log.Debug("api response",
		"path", path,
		"response_code", status.ResponseCode,
		"message", status.Message)
	return status, nil
}
