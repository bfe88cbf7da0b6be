package pages

import "github.com/playwright-community/playwright-go"

// Payment page selectors.
const (
	SelectorNameOnCard  = "input[name='name_on_card']"
	SelectorCardNumber  = "input[name='card_number']"
	SelectorCVC         = "input[name='cvc']"
	SelectorExpiryMonth = "input[name='expiry_month']"
	SelectorExpiryYear  = "input[name='expiry_year']"
	SelectorPayButton   = "button#submit"
)

// Card is the dummy card profile the payment form collects. No gateway sits
// behind the form; any non-empty values confirm the order.
type Card struct {
	NameOnCard  string
	Number      string
	CVC         string
	ExpiryMonth string
	ExpiryYear  string
}

// Payment is the card details page.
type Payment struct {
	Base
}

func NewPayment(page playwright.Page) Payment {
	return Payment{Base: NewBase(page)}
}

// SubmitPayment fills the card form and confirms the order.
func (p Payment) SubmitPayment(card Card) error {
	fills := []struct {
		selector string
		value    string
	}{
		{SelectorNameOnCard, card.NameOnCard},
		{SelectorCardNumber, card.Number},
		{SelectorCVC, card.CVC},
		{SelectorExpiryMonth, card.ExpiryMonth},
		{SelectorExpiryYear, card.ExpiryYear},
	}
	for _, f := range fills {
		if err := p.Fill(f.selector, f.value); err != nil {
			return err
		}
	}
	return p.Click(SelectorPayButton)
}
