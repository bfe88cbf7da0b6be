package shopweb

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/kuitang/shopflow/internal/obs"
	"github.com/kuitang/shopflow/internal/shop"
)

// apiEnvelope is the JSON body every account endpoint answers with. The
// transport status is always 200; responseCode carries the outcome.
type apiEnvelope struct {
	ResponseCode int    `json:"responseCode"`
	Message      string `json:"message"`
}

// createAccountFields lists the parameters /api/createAccount requires, in
// the order missing-parameter errors report them.
var createAccountFields = []string{
	"name", "email", "password", "title",
	"birth_date", "birth_month", "birth_year",
	"firstname", "lastname", "company",
	"address1", "address2", "country", "zipcode", "state", "city", "mobile_number",
}

func writeEnvelope(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(apiEnvelope{ResponseCode: code, Message: message})
}

// formFromRequest parses the request's form parameters. DELETE requests
// carry the form in the body, which ParseForm does not read, so that body
// is parsed by hand.
func formFromRequest(r *http.Request) (url.Values, error) {
	if r.Method == http.MethodDelete {
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			return nil, err
		}
		return url.ParseQuery(string(body))
	}

	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	return r.PostForm, nil
}

// missingParam returns the first field absent from the form, or "". Presence
// is what counts; an empty value is still present.
func missingParam(form url.Values, fields ...string) string {
	for _, field := range fields {
		if !form.Has(field) {
			return field
		}
	}
	return ""
}

func missingParamMessage(field, method string) string {
	return fmt.Sprintf("Bad request, %s parameter is missing in %s request!", field, method)
}

// handleAPICreateAccount handles POST /api/createAccount. Requires the full
// 17-parameter profile.
func (s *Server) handleAPICreateAccount(w http.ResponseWriter, r *http.Request) {
	form, err := formFromRequest(r)
	if err != nil {
		writeEnvelope(w, http.StatusBadRequest, "Bad request, could not parse form!")
		return
	}
	if field := missingParam(form, createAccountFields...); field != "" {
		writeEnvelope(w, http.StatusBadRequest, missingParamMessage(field, r.Method))
		return
	}

	reg := shop.Registration{
		Name:       form.Get("name"),
		Email:      form.Get("email"),
		Password:   form.Get("password"),
		Title:      form.Get("title"),
		BirthDate:  form.Get("birth_date"),
		BirthMonth: form.Get("birth_month"),
		BirthYear:  form.Get("birth_year"),
		FirstName:  form.Get("firstname"),
		LastName:   form.Get("lastname"),
		Company:    form.Get("company"),
		Address1:   form.Get("address1"),
		Address2:   form.Get("address2"),
		Country:    form.Get("country"),
		State:      form.Get("state"),
		City:       form.Get("city"),
		Zipcode:    form.Get("zipcode"),
		Mobile:     form.Get("mobile_number"),
	}

	if _, err := s.store.RegisterAccount(r.Context(), reg); err != nil {
		if errors.Is(err, shop.ErrAccountExists) {
			writeEnvelope(w, http.StatusBadRequest, "Email already exists!")
			return
		}
		obs.From(r.Context()).Error("api create account", "error", err)
		writeEnvelope(w, http.StatusBadRequest, "Bad request, could not create account!")
		return
	}

	writeEnvelope(w, http.StatusCreated, "User created!")
}

// handleAPIVerifyLogin handles POST /api/verifyLogin. Unknown email and
// wrong password both answer 404; the envelope never says which.
func (s *Server) handleAPIVerifyLogin(w http.ResponseWriter, r *http.Request) {
	form, err := formFromRequest(r)
	if err != nil {
		writeEnvelope(w, http.StatusBadRequest, "Bad request, could not parse form!")
		return
	}
	if field := missingParam(form, "email", "password"); field != "" {
		writeEnvelope(w, http.StatusBadRequest, missingParamMessage(field, r.Method))
		return
	}

	_, err = s.store.Authenticate(r.Context(), form.Get("email"), form.Get("password"))
	switch {
	case err == nil:
		writeEnvelope(w, http.StatusOK, "User exists!")
	case errors.Is(err, shop.ErrInvalidCredentials):
		writeEnvelope(w, http.StatusNotFound, "User not found!")
	default:
		obs.From(r.Context()).Error("api verify login", "error", err)
		writeEnvelope(w, http.StatusInternalServerError, "Internal server error!")
	}
}

// handleAPIDeleteAccount handles DELETE /api/deleteAccount.
func (s *Server) handleAPIDeleteAccount(w http.ResponseWriter, r *http.Request) {
	form, err := formFromRequest(r)
	if err != nil {
		writeEnvelope(w, http.StatusBadRequest, "Bad request, could not parse form!")
		return
	}
	if field := missingParam(form, "email", "password"); field != "" {
		writeEnvelope(w, http.StatusBadRequest, missingParamMessage(field, r.Method))
		return
	}

	err = s.store.DeleteAccount(r.Context(), form.Get("email"), form.Get("password"))
	switch {
	case err == nil:
		writeEnvelope(w, http.StatusOK, "Account deleted!")
	case errors.Is(err, shop.ErrInvalidCredentials), errors.Is(err, shop.ErrAccountNotFound):
		writeEnvelope(w, http.StatusNotFound, "Account not found!")
	default:
		obs.From(r.Context()).Error("api delete account", "error", err)
		writeEnvelope(w, http.StatusInternalServerError, "Internal server error!")
	}
}

// productsEnvelope is the /api/productsList response body.
type productsEnvelope struct {
	ResponseCode int              `json:"responseCode"`
	Products     []productPayload `json:"products"`
}

type productPayload struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Brand    string `json:"brand"`
	Category string `json:"category"`
}

// handleAPIProductsList handles GET /api/productsList.
func (s *Server) handleAPIProductsList(w http.ResponseWriter, r *http.Request) {
	products, err := s.store.Products(r.Context())
	if err != nil {
		obs.From(r.Context()).Error("api products list", "error", err)
		writeEnvelope(w, http.StatusInternalServerError, "Internal server error!")
		return
	}

	payload := productsEnvelope{
		ResponseCode: http.StatusOK,
		Products:     make([]productPayload, 0, len(products)),
	}
	for _, p := range products {
		payload.Products = append(payload.Products, productPayload{
			ID:       p.ID,
			Name:     p.Name,
			Price:    p.DisplayPrice(),
			Brand:    p.Brand,
			Category: p.Category,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(payload)
}
