package pages

import "github.com/playwright-community/playwright-go"

// Home is the landing page. Its actions are the header nav links.
type Home struct {
	Base
}

func NewHome(page playwright.Page) Home {
	return Home{Base: NewBase(page)}
}

func (h Home) GoToLogin() error {
	return h.Click(SelectorNavLogin)
}

func (h Home) GoToProducts() error {
	return h.Click(SelectorNavProducts)
}

func (h Home) GoToCart() error {
	return h.Click(SelectorNavCart)
}
