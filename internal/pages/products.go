package pages

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// Products page selectors.
const (
	SelectorProductCard   = ".product-image-wrapper"
	SelectorAddToCart     = "text=Add to cart"
	SelectorModalContinue = "button[data-dismiss='modal']"
	SelectorModalViewCart = "p.text-center a[href='/view_cart']"
)

// Products is the catalog grid.
type Products struct {
	Base
}

func NewProducts(page playwright.Page) Products {
	return Products{Base: NewBase(page)}
}

// ProductCount returns the number of catalog cards.
func (p Products) ProductCount() (int, error) {
	return p.Count(SelectorProductCard)
}

// AddToCartByIndex hovers card i, clicks its add-to-cart anchor and waits
// for the added-to-cart modal.
func (p Products) AddToCartByIndex(i int) error {
	p.log.Debug("add to cart", "index", i)

	card := p.page.Locator(SelectorProductCard).Nth(i)
	if err := card.Hover(); err != nil {
		return fmt.Errorf("hover product card %d: %w", i, err)
	}
	if err := card.Locator(SelectorAddToCart).First().Click(); err != nil {
		return fmt.Errorf("add product %d to cart: %w", i, err)
	}
	return p.WaitVisible(SelectorModalContinue)
}

// DismissModal clicks Continue Shopping and waits for the modal to go away.
func (p Products) DismissModal() error {
	if err := p.Click(SelectorModalContinue); err != nil {
		return err
	}
	return p.WaitHidden(SelectorModalContinue)
}

// ViewCartViaModal follows the modal's View Cart link.
func (p Products) ViewCartViaModal() error {
	return p.Click(SelectorModalViewCart)
}
