package shopweb

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/kuitang/shopflow/internal/logutil"
	"github.com/kuitang/shopflow/internal/obs"
	"github.com/kuitang/shopflow/internal/shop"
)

// Storefront messages asserted on by the browser suite. Keep the wording
// stable, including the trailing punctuation.
const (
	loginFailedMessage   = "Your email or password is incorrect!"
	emailTakenMessage    = "Email Address already exist!"
	paymentFailedMessage = "Please fill in all payment details!"
)

// PageData carries the fields every page template needs.
type PageData struct {
	User  *shop.Account
	Error string
}

// LoginPageData is the data for login.html.
type LoginPageData struct {
	PageData
	Email string
}

// SignupPageData is the data for signup.html, the detail form shown after
// the short name+email signup step.
type SignupPageData struct {
	PageData
	Name  string
	Email string
}

// ProductsPageData is the data for products.html. AddedProduct, when set,
// renders the added-to-cart modal above the grid.
type ProductsPageData struct {
	PageData
	Products     []shop.Product
	AddedProduct *shop.Product
}

// CartPageData is the data for cart.html.
type CartPageData struct {
	PageData
	Items []shop.CartItem
}

// CheckoutPageData is the data for checkout.html.
type CheckoutPageData struct {
	PageData
	Account *shop.Account
	Items   []shop.CartItem
	Total   int64
}

// ConfirmationPageData is the data for payment_done.html.
type ConfirmationPageData struct {
	PageData
	Order *shop.Order
}

// handleHome handles GET / - the storefront landing page.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	_, account := s.currentSession(r)

	data := PageData{User: account}
	if err := s.renderer.Render(w, "home.html", data); err != nil {
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// handleProducts handles GET /products - the full catalog grid. The ?added
// query parameter selects a product for the added-to-cart modal.
func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	_, account := s.currentSession(r)

	products, err := s.store.Products(r.Context())
	if err != nil {
		obs.From(r.Context()).Error("list products", "error", err)
		s.renderer.RenderError(w, http.StatusInternalServerError, "Failed to load products")
		return
	}

	data := ProductsPageData{
		PageData: PageData{User: account},
		Products: products,
	}
	if raw := r.URL.Query().Get("added"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			if product, err := s.store.ProductByID(r.Context(), id); err == nil {
				data.AddedProduct = product
			}
		}
	}

	if err := s.renderer.Render(w, "products.html", data); err != nil {
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// handleAddToCart handles GET /add_to_cart/{id}. Adding the same product
// again bumps its quantity. Redirects back to the products page with the
// modal showing.
func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.renderer.RenderError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	token, _, err := s.ensureSession(w, r)
	if err != nil {
		obs.From(r.Context()).Error("ensure session", "error", err)
		s.renderer.RenderError(w, http.StatusInternalServerError, "Failed to start session")
		return
	}

	if err := s.store.AddToCart(r.Context(), token, id); err != nil {
		if errors.Is(err, shop.ErrProductNotFound) {
			s.renderer.RenderError(w, http.StatusNotFound, "Product not found")
			return
		}
		obs.From(r.Context()).Error("add to cart", "error", err, "product_id", id)
		s.renderer.RenderError(w, http.StatusInternalServerError, "Failed to add product")
		return
	}

	http.Redirect(w, r, "/products?added="+strconv.FormatInt(id, 10), http.StatusFound)
}

// handleViewCart handles GET /view_cart.
func (s *Server) handleViewCart(w http.ResponseWriter, r *http.Request) {
	token, account, err := s.ensureSession(w, r)
	if err != nil {
		obs.From(r.Context()).Error("ensure session", "error", err)
		s.renderer.RenderError(w, http.StatusInternalServerError, "Failed to start session")
		return
	}

	items, err := s.store.CartItems(r.Context(), token)
	if err != nil {
		obs.From(r.Context()).Error("load cart", "error", err)
		s.renderer.RenderError(w, http.StatusInternalServerError, "Failed to load cart")
		return
	}

	data := CartPageData{
		PageData: PageData{User: account},
		Items:    items,
	}
	if err := s.renderer.Render(w, "cart.html", data); err != nil {
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// handleCheckout handles GET /checkout. Guests are sent to the login page;
// an empty cart goes back to the cart page.
func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	token, account := s.currentSession(r)
	if account == nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	items, err := s.store.CartItems(r.Context(), token)
	if err != nil {
		obs.From(r.Context()).Error("load cart", "error", err)
		s.renderer.RenderError(w, http.StatusInternalServerError, "Failed to load cart")
		return
	}
	if len(items) == 0 {
		http.Redirect(w, r, "/view_cart", http.StatusFound)
		return
	}

	total, err := s.store.CartTotal(r.Context(), token)
	if err != nil {
		obs.From(r.Context()).Error("total cart", "error", err)
		s.renderer.RenderError(w, http.StatusInternalServerError, "Failed to load cart")
		return
	}

	data := CheckoutPageData{
		PageData: PageData{User: account},
		Account:  account,
		Items:    items,
		Total:    total,
	}
	if err := s.renderer.Render(w, "checkout.html", data); err != nil {
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// handlePaymentPage handles GET /payment - the card details form.
func (s *Server) handlePaymentPage(w http.ResponseWriter, r *http.Request) {
	_, account := s.currentSession(r)
	if account == nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	data := PageData{User: account}
	if err := s.renderer.Render(w, "payment.html", data); err != nil {
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// handlePayment handles POST /payment - places the order from the session's
// cart and redirects to the confirmation page.
func (s *Server) handlePayment(w http.ResponseWriter, r *http.Request) {
	token, account := s.currentSession(r)
	if account == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		s.renderer.RenderError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	payment := shop.Payment{
		NameOnCard:  strings.TrimSpace(r.PostFormValue("name_on_card")),
		CardNumber:  strings.TrimSpace(r.PostFormValue("card_number")),
		CVC:         strings.TrimSpace(r.PostFormValue("cvc")),
		ExpiryMonth: strings.TrimSpace(r.PostFormValue("expiry_month")),
		ExpiryYear:  strings.TrimSpace(r.PostFormValue("expiry_year")),
	}
	comment := strings.TrimSpace(r.PostFormValue("message"))
	obs.From(r.Context()).Debug("payment submitted", "form", logutil.RedactFormForLog(r.PostForm))

	order, err := s.store.PlaceOrder(r.Context(), token, comment, payment)
	if err != nil {
		switch {
		case errors.Is(err, shop.ErrLoginRequired):
			http.Redirect(w, r, "/login", http.StatusSeeOther)
		case errors.Is(err, shop.ErrEmptyCart):
			http.Redirect(w, r, "/view_cart", http.StatusSeeOther)
		case errors.Is(err, shop.ErrInvalidPayment):
			data := PageData{User: account, Error: paymentFailedMessage}
			if err := s.renderer.Render(w, "payment.html", data); err != nil {
				http.Error(w, "Failed to render page", http.StatusInternalServerError)
			}
		default:
			obs.From(r.Context()).Error("place order", "error", err)
			s.renderer.RenderError(w, http.StatusInternalServerError, "Failed to place order")
		}
		return
	}

	http.Redirect(w, r, "/payment_done/"+order.Reference, http.StatusSeeOther)
}

// handlePaymentDone handles GET /payment_done/{reference}.
func (s *Server) handlePaymentDone(w http.ResponseWriter, r *http.Request) {
	order, account, ok := s.orderForRequest(w, r)
	if !ok {
		return
	}

	data := ConfirmationPageData{
		PageData: PageData{User: account},
		Order:    order,
	}
	if err := s.renderer.Render(w, "payment_done.html", data); err != nil {
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// handleDownloadInvoice handles GET /download_invoice/{reference}. The
// invoice streams as a plain-text attachment.
func (s *Server) handleDownloadInvoice(w http.ResponseWriter, r *http.Request) {
	order, _, ok := s.orderForRequest(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=invoice_%s.txt", order.Reference))
	io.WriteString(w, order.InvoiceText())
}

// orderForRequest resolves the {reference} path value to an order owned by
// the session's account, writing the error response itself when it returns
// ok=false. Unknown references and other accounts' orders both answer 404,
// so references cannot be probed.
func (s *Server) orderForRequest(w http.ResponseWriter, r *http.Request) (*shop.Order, *shop.Account, bool) {
	_, account := s.currentSession(r)
	if account == nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return nil, nil, false
	}

	order, err := s.store.OrderByReference(r.Context(), r.PathValue("reference"))
	if err != nil {
		if errors.Is(err, shop.ErrOrderNotFound) {
			s.renderer.RenderError(w, http.StatusNotFound, "Order not found")
			return nil, nil, false
		}
		obs.From(r.Context()).Error("look up order", "error", err)
		s.renderer.RenderError(w, http.StatusInternalServerError, "Failed to load order")
		return nil, nil, false
	}
	if order.AccountID != account.ID {
		s.renderer.RenderError(w, http.StatusNotFound, "Order not found")
		return nil, nil, false
	}

	return order, account, true
}

// handleLoginPage handles GET /login - the combined login and signup page.
func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	_, account := s.currentSession(r)
	if account != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	data := LoginPageData{}
	if err := s.renderer.Render(w, "login.html", data); err != nil {
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// handleLogin handles POST /login. Bad credentials re-render the login page
// with the storefront's failure message; the email is kept so the shopper
// only retypes the password.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderer.RenderError(w, http.StatusBadRequest, "Invalid form data")
		return
	}
	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")

	account, err := s.store.Authenticate(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, shop.ErrInvalidCredentials) {
			data := LoginPageData{
				PageData: PageData{Error: loginFailedMessage},
				Email:    email,
			}
			if err := s.renderer.Render(w, "login.html", data); err != nil {
				http.Error(w, "Failed to render page", http.StatusInternalServerError)
			}
			return
		}
		obs.From(r.Context()).Error("login", "error", err)
		s.renderer.RenderError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	token, _, err := s.ensureSession(w, r)
	if err != nil {
		obs.From(r.Context()).Error("ensure session", "error", err)
		s.renderer.RenderError(w, http.StatusInternalServerError, "Failed to start session")
		return
	}
	if err := s.store.AttachAccount(r.Context(), token, account.ID); err != nil {
		obs.From(r.Context()).Error("attach account", "error", err)
		s.renderer.RenderError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleSignup handles POST /signup. The short form on the login page posts
// only name and email; that renders the detail form. Posting the detail form
// (password present) creates the account and logs it in.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderer.RenderError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	name := strings.TrimSpace(r.PostFormValue("name"))
	email := strings.TrimSpace(r.PostFormValue("email"))
	if name == "" || email == "" {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if r.PostFormValue("password") == "" {
		// Taken emails are rejected here, before the detail form shows.
		_, err := s.store.AccountByEmail(r.Context(), email)
		if err == nil {
			data := LoginPageData{
				PageData: PageData{Error: emailTakenMessage},
				Email:    email,
			}
			if err := s.renderer.Render(w, "login.html", data); err != nil {
				http.Error(w, "Failed to render page", http.StatusInternalServerError)
			}
			return
		}
		if !errors.Is(err, shop.ErrAccountNotFound) {
			obs.From(r.Context()).Error("look up email", "error", err)
			s.renderer.RenderError(w, http.StatusInternalServerError, "Failed to check email")
			return
		}

		data := SignupPageData{Name: name, Email: email}
		if err := s.renderer.Render(w, "signup.html", data); err != nil {
			http.Error(w, "Failed to render page", http.StatusInternalServerError)
		}
		return
	}

	reg := shop.Registration{
		Name:       name,
		Email:      email,
		Password:   r.PostFormValue("password"),
		Title:      r.PostFormValue("title"),
		BirthDate:  r.PostFormValue("birth_date"),
		BirthMonth: r.PostFormValue("birth_month"),
		BirthYear:  r.PostFormValue("birth_year"),
		FirstName:  r.PostFormValue("firstname"),
		LastName:   r.PostFormValue("lastname"),
		Company:    r.PostFormValue("company"),
		Address1:   r.PostFormValue("address1"),
		Address2:   r.PostFormValue("address2"),
		Country:    r.PostFormValue("country"),
		State:      r.PostFormValue("state"),
		City:       r.PostFormValue("city"),
		Zipcode:    r.PostFormValue("zipcode"),
		Mobile:     r.PostFormValue("mobile_number"),
	}

	account, err := s.store.RegisterAccount(r.Context(), reg)
	if err != nil {
		if errors.Is(err, shop.ErrAccountExists) {
			data := SignupPageData{
				PageData: PageData{Error: emailTakenMessage},
				Name:     name,
				Email:    email,
			}
			if err := s.renderer.Render(w, "signup.html", data); err != nil {
				http.Error(w, "Failed to render page", http.StatusInternalServerError)
			}
			return
		}
		obs.From(r.Context()).Error("register account", "error", err)
		s.renderer.RenderError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	token, _, err := s.ensureSession(w, r)
	if err != nil {
		obs.From(r.Context()).Error("ensure session", "error", err)
		s.renderer.RenderError(w, http.StatusInternalServerError, "Failed to start session")
		return
	}
	if err := s.store.AttachAccount(r.Context(), token, account.ID); err != nil {
		obs.From(r.Context()).Error("attach account", "error", err)
		s.renderer.RenderError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleLogout handles GET /logout. The session survives so the cart does
// too; only the account link is dropped.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		err := s.store.DetachAccount(r.Context(), cookie.Value)
		if err != nil && !errors.Is(err, shop.ErrSessionNotFound) {
			obs.From(r.Context()).Error("logout", "error", err)
		}
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

// handleDeleteAccount handles GET /delete_account. The account, its orders
// and its sessions all go; the response confirms with the account-deleted
// page.
func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	_, account := s.currentSession(r)
	if account == nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	if err := s.store.DeleteAccountByID(r.Context(), account.ID); err != nil {
		obs.From(r.Context()).Error("delete account", "error", err, "account_id", account.ID)
		s.renderer.RenderError(w, http.StatusInternalServerError, "Failed to delete account")
		return
	}
	// The session row cascades away with the account.
	clearSessionCookie(w)

	data := PageData{}
	if err := s.renderer.Render(w, "account_deleted.html", data); err != nil {
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}
