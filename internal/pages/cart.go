package pages

import "github.com/playwright-community/playwright-go"

// Cart page selectors.
const (
	SelectorCartRows        = "#cart_info_table tbody tr"
	SelectorProceedCheckout = ".btn-default.check_out"
)

// Cart is the shopping cart page.
type Cart struct {
	Base
}

func NewCart(page playwright.Page) Cart {
	return Cart{Base: NewBase(page)}
}

// ItemCount returns the number of cart line rows.
func (c Cart) ItemCount() (int, error) {
	return c.Count(SelectorCartRows)
}

// ProceedToCheckout clicks the checkout button. Guests land on the login
// page instead; the caller decides what it expects.
func (c Cart) ProceedToCheckout() error {
	return c.Click(SelectorProceedCheckout)
}
