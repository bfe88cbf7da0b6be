// Package shopweb serves the demo shop: the HTML storefront plus the
// form-encoded JSON account API. The browser and API test suites run
// against this server when no external deployment is configured.
package shopweb

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/kuitang/shopflow/internal/obs"
	"github.com/kuitang/shopflow/internal/ratelimit"
	"github.com/kuitang/shopflow/internal/shop"
)

// SessionCookieName is the cookie that carries the shopper's session token.
const SessionCookieName = "sessionid"

// Server wires the shop store to HTTP handlers.
type Server struct {
	store    *shop.Store
	renderer *Renderer
	limiter  *ratelimit.RateLimiter
	log      *slog.Logger
}

// New creates a Server backed by the given store. The rate limit config
// applies to the /api routes only; HTML pages are never throttled. Zero
// fields in limitCfg fall back to ratelimit.DefaultConfig.
func New(store *shop.Store, limitCfg ratelimit.Config) (*Server, error) {
	if limitCfg.RPS <= 0 {
		limitCfg.RPS = ratelimit.DefaultConfig.RPS
	}
	if limitCfg.Burst <= 0 {
		limitCfg.Burst = ratelimit.DefaultConfig.Burst
	}
	if limitCfg.CleanupInterval <= 0 {
		limitCfg.CleanupInterval = ratelimit.DefaultConfig.CleanupInterval
	}

	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}
	return &Server{
		store:    store,
		renderer: renderer,
		limiter:  ratelimit.NewRateLimiter(limitCfg),
		log:      obs.Pkg("shopweb"),
	}, nil
}

// Handler returns the root handler with request-context and access-log
// middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	return obs.RequestContextMiddleware(obs.AccessLogMiddleware("shopweb", mux))
}

// Close stops the rate limiter's cleanup goroutine. The store is owned by
// the caller and is not closed here.
func (s *Server) Close() {
	s.limiter.Stop()
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	// Storefront pages
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /products", s.handleProducts)
	mux.HandleFunc("GET /add_to_cart/{id}", s.handleAddToCart)
	mux.HandleFunc("GET /view_cart", s.handleViewCart)
	mux.HandleFunc("GET /checkout", s.handleCheckout)
	mux.HandleFunc("GET /payment", s.handlePaymentPage)
	mux.HandleFunc("POST /payment", s.handlePayment)
	mux.HandleFunc("GET /payment_done/{reference}", s.handlePaymentDone)
	mux.HandleFunc("GET /download_invoice/{reference}", s.handleDownloadInvoice)

	// Account pages
	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /signup", s.handleSignup)
	mux.HandleFunc("GET /logout", s.handleLogout)
	mux.HandleFunc("GET /delete_account", s.handleDeleteAccount)

	// JSON API (rate limited per client IP)
	limited := ratelimit.Middleware(s.limiter, ratelimit.ClientIP)
	mux.Handle("POST /api/createAccount", limited(http.HandlerFunc(s.handleAPICreateAccount)))
	mux.Handle("POST /api/verifyLogin", limited(http.HandlerFunc(s.handleAPIVerifyLogin)))
	mux.Handle("DELETE /api/deleteAccount", limited(http.HandlerFunc(s.handleAPIDeleteAccount)))
	mux.Handle("GET /api/productsList", limited(http.HandlerFunc(s.handleAPIProductsList)))
}

// Cookie helpers

// setSessionCookie stores the session token on the response. Secure is off
// because the embedded shop serves plain HTTP inside the test harness.
func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie removes the session cookie.
func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// currentSession resolves the request's session cookie without creating
// anything. Returns empty token and nil account when there is no usable
// session.
func (s *Server) currentSession(r *http.Request) (string, *shop.Account) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", nil
	}
	account, err := s.store.SessionAccount(r.Context(), cookie.Value)
	if err != nil {
		return "", nil
	}
	return cookie.Value, account
}

// ensureSession resolves the session cookie, creating a fresh anonymous
// session (and setting the cookie) when the request has none or carries a
// stale token.
func (s *Server) ensureSession(w http.ResponseWriter, r *http.Request) (string, *shop.Account, error) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		account, err := s.store.SessionAccount(r.Context(), cookie.Value)
		if err == nil {
			return cookie.Value, account, nil
		}
		if !errors.Is(err, shop.ErrSessionNotFound) {
			return "", nil, err
		}
	}
	token, err := s.store.CreateSession(r.Context())
	if err != nil {
		return "", nil, err
	}
	setSessionCookie(w, token)
	return token, nil, nil
}
