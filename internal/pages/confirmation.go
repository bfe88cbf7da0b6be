package pages

import (
	"fmt"
	"path/filepath"

	"github.com/playwright-community/playwright-go"
)

// Confirmation page selectors. The success banner matches one element, so
// reads never race a duplicate match.
const (
	SelectorSuccessMessage  = "div#success_message"
	SelectorOrderPlaced     = "h2[data-qa='order-placed']"
	SelectorOrderReference  = "span#order_reference"
	SelectorDownloadInvoice = "a[href*='download_invoice']"
)

// Confirmation is the order-placed page.
type Confirmation struct {
	Base
}

func NewConfirmation(page playwright.Page) Confirmation {
	return Confirmation{Base: NewBase(page)}
}

// SuccessMessage waits for the order-placed heading and returns the banner
// text.
func (c Confirmation) SuccessMessage() (string, error) {
	if err := c.WaitVisible(SelectorOrderPlaced); err != nil {
		return "", err
	}
	return c.Text(SelectorSuccessMessage)
}

// OrderReference returns the reference shown on the confirmation page.
func (c Confirmation) OrderReference() (string, error) {
	return c.Text(SelectorOrderReference)
}

// DownloadInvoice clicks the invoice link and saves the download into dir,
// returning the saved path.
func (c Confirmation) DownloadInvoice(dir string) (string, error) {
	c.log.Debug("download invoice", "dir", dir)

	download, err := c.page.ExpectDownload(func() error {
		return c.Click(SelectorDownloadInvoice)
	})
	if err != nil {
		return "", fmt.Errorf("download invoice: %w", err)
	}

	path := filepath.Join(dir, download.SuggestedFilename())
	if err := download.SaveAs(path); err != nil {
		return "", fmt.Errorf("save invoice to %s: %w", path, err)
	}
	c.log.Debug("invoice saved", "path", path)
	return path, nil
}
