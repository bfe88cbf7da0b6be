package pages

import "github.com/playwright-community/playwright-go"

// Checkout page selectors.
const (
	SelectorDeliveryAddress = "ul#address_delivery"
	SelectorOrderComment    = "textarea[name='message']"
	SelectorPlaceOrder      = "a[href*='payment']"
)

// Checkout is the address review and comment page.
type Checkout struct {
	Base
}

func NewCheckout(page playwright.Page) Checkout {
	return Checkout{Base: NewBase(page)}
}

// DeliveryAddress returns the rendered address block.
func (c Checkout) DeliveryAddress() (string, error) {
	return c.Text(SelectorDeliveryAddress)
}

// AddComment types the order note.
func (c Checkout) AddComment(comment string) error {
	return c.Fill(SelectorOrderComment, comment)
}

// PlaceOrder follows the payment link.
func (c Checkout) PlaceOrder() error {
	return c.Click(SelectorPlaceOrder)
}
