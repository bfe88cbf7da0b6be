// Package identity builds the account personas the registration endpoint
// requires. Every persona carries the full profile because the shop rejects
// partial registrations.
package identity

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"net/url"

	"github.com/google/uuid"
)

// DefaultEmailPrefix is used when the caller does not care about the prefix.
const DefaultEmailPrefix = "user"

// Persona is one registrable account profile.
type Persona struct {
	Name       string
	Email      string
	Password   string
	Title      string
	BirthDate  string
	BirthMonth string
	BirthYear  string
	FirstName  string
	LastName   string
	Company    string
	Address1   string
	Address2   string
	Country    string
	State      string
	City       string
	Zipcode    string
	Mobile     string
}

// UniqueEmail returns a disposable address that no prior call has produced.
// The local part is <prefix>_<8 hex chars of a fresh uuid>.
func UniqueEmail(prefix string) string {
	if prefix == "" {
		prefix = DefaultEmailPrefix
	}
	return fmt.Sprintf("%s_%s@yopmail.com", prefix, uuid.NewString()[:8])
}

// NewPersona returns the standard test profile with a unique email.
func NewPersona(prefix string) Persona {
	return Persona{
		Name:       "Tazeem",
		Email:      UniqueEmail(prefix),
		Password:   "Password123",
		Title:      "Mr",
		BirthDate:  "1",
		BirthMonth: "January",
		BirthYear:  "1990",
		FirstName:  "Tazeem",
		LastName:   "Hossain",
		Company:    "TestCorp",
		Address1:   "123 Main St",
		Address2:   "Suite 100",
		Country:    "Canada",
		State:      "Ontario",
		City:       "Toronto",
		Zipcode:    "12345",
		Mobile:     "1234567890",
	}
}

var (
	firstNames = []string{"Tazeem", "Amara", "Felix", "Priya", "Marcus", "Ines", "Kenji", "Leila"}
	lastNames  = []string{"Hossain", "Okafor", "Nguyen", "Silva", "Berg", "Kaur", "Tanaka", "Moretti"}
	titles     = []string{"Mr", "Mrs"}
	companies  = []string{"TestCorp", "Northwind Traders", "Acme Supplies", "Blue Harbor Ltd"}
	streets    = []string{"123 Main St", "45 Dockside Ave", "9 Elm Row", "880 Cedar Blvd"}
	months     = []string{"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"}
	regions    = []struct{ country, state, city string }{
		{"Canada", "Ontario", "Toronto"},
		{"United States", "California", "San Jose"},
		{"India", "Karnataka", "Bengaluru"},
		{"Australia", "Victoria", "Melbourne"},
		{"Singapore", "Central", "Singapore"},
		{"New Zealand", "Wellington", "Wellington"},
	}
)

// RandomPersona returns a profile drawn from small realistic pools, with a
// unique email. Useful when tests should not all register the same name.
func RandomPersona(prefix string) Persona {
	region := regions[randIndex(len(regions))]
	first := firstNames[randIndex(len(firstNames))]
	last := lastNames[randIndex(len(lastNames))]

	return Persona{
		Name:       first,
		Email:      UniqueEmail(prefix),
		Password:   fmt.Sprintf("Pw-%s", uuid.NewString()[:12]),
		Title:      titles[randIndex(len(titles))],
		BirthDate:  fmt.Sprintf("%d", 1+randIndex(28)),
		BirthMonth: months[randIndex(len(months))],
		BirthYear:  fmt.Sprintf("%d", 1970+randIndex(35)),
		FirstName:  first,
		LastName:   last,
		Company:    companies[randIndex(len(companies))],
		Address1:   streets[randIndex(len(streets))],
		Address2:   fmt.Sprintf("Suite %d", 100+randIndex(400)),
		Country:    region.country,
		State:      region.state,
		City:       region.city,
		Zipcode:    fmt.Sprintf("%05d", 10000+randIndex(80000)),
		Mobile:     fmt.Sprintf("1%09d", randIndex(1000000000)),
	}
}

// FormValues encodes the persona with the exact field names the registration
// endpoint expects.
func (p Persona) FormValues() url.Values {
	return url.Values{
		"name":          {p.Name},
		"email":         {p.Email},
		"password":      {p.Password},
		"title":         {p.Title},
		"birth_date":    {p.BirthDate},
		"birth_month":   {p.BirthMonth},
		"birth_year":    {p.BirthYear},
		"firstname":     {p.FirstName},
		"lastname":      {p.LastName},
		"company":       {p.Company},
		"address1":      {p.Address1},
		"address2":      {p.Address2},
		"country":       {p.Country},
		"zipcode":       {p.Zipcode},
		"state":         {p.State},
		"city":          {p.City},
		"mobile_number": {p.Mobile},
	}
}

func randIndex(n int) int {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		return 0
	}
	return int(binary.BigEndian.Uint64(buf[:]) % uint64(n))
}
