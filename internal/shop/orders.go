package shop

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrLoginRequired is returned when an anonymous session tries to check out.
var ErrLoginRequired = errors.New("login required")

// Payment carries the card form fields. The shop never charges anything; it
// records the holder name and the last four digits for the invoice.
type Payment struct {
	NameOnCard  string
	CardNumber  string
	CVC         string
	ExpiryMonth string
	ExpiryYear  string
}

func (p Payment) validate() error {
	if p.NameOnCard == "" || p.CardNumber == "" || p.CVC == "" || p.ExpiryMonth == "" || p.ExpiryYear == "" {
		return ErrInvalidPayment
	}
	return nil
}

func (p Payment) last4() string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, p.CardNumber)
	if len(digits) < 4 {
		return digits
	}
	return digits[len(digits)-4:]
}

// OrderItem is one frozen order line. Name and price are copied at purchase
// time so later catalog edits do not rewrite history.
type OrderItem struct {
	ProductID   int64
	ProductName string
	UnitPrice   int64
	Quantity    int64
}

// Order is a placed order with its lines.
type Order struct {
	ID         int64
	Reference  string
	AccountID  int64
	NameOnCard string
	CardLast4  string
	Comment    string
	Total      int64
	CreatedAt  time.Time
	Items      []OrderItem
}

// PlaceOrder turns the session's cart into an order in one transaction: the
// cart must be non-empty, the session logged in, and the payment form
// complete. The cart is emptied on success.
func (s *Store) PlaceOrder(ctx context.Context, token, comment string, payment Payment) (*Order, error) {
	account, err := s.SessionAccount(ctx, token)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrLoginRequired
	}
	if err := payment.validate(); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin order transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT p.id, p.name, p.price, c.quantity
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.session_token = ?
		ORDER BY p.id
	`, token)
	if err != nil {
		return nil, fmt.Errorf("read cart for order: %w", err)
	}

	var items []OrderItem
	var total int64
	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.UnitPrice, &item.Quantity); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		total += item.UnitPrice * item.Quantity
		items = append(items, item)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart lines: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	now := time.Now()
	reference := newOrderReference(now)
	result, err := tx.ExecContext(ctx, `
		INSERT INTO orders (reference, account_id, name_on_card, card_last4, comment, total, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, reference, account.ID, payment.NameOnCard, payment.last4(), comment, total, now.Unix())
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}
	orderID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("read order id: %w", err)
	}

	for _, item := range items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, product_name, unit_price, quantity)
			VALUES (?, ?, ?, ?, ?)
		`, orderID, item.ProductID, item.ProductName, item.UnitPrice, item.Quantity)
		if err != nil {
			return nil, fmt.Errorf("insert order line: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE session_token = ?`, token); err != nil {
		return nil, fmt.Errorf("clear cart after order: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit order: %w", err)
	}

	s.log.Info("order placed",
		"reference", reference,
		"account_id", account.ID,
		"total", total,
		"lines", len(items))

	return &Order{
		ID:         orderID,
		Reference:  reference,
		AccountID:  account.ID,
		NameOnCard: payment.NameOnCard,
		CardLast4:  payment.last4(),
		Comment:    comment,
		Total:      total,
		CreatedAt:  now,
		Items:      items,
	}, nil
}

// OrderByReference loads an order and its lines, or ErrOrderNotFound.
func (s *Store) OrderByReference(ctx context.Context, reference string) (*Order, error) {
	var o Order
	var createdAt int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, reference, account_id, name_on_card, card_last4, comment, total, created_at
		FROM orders WHERE reference = ?
	`, reference).Scan(&o.ID, &o.Reference, &o.AccountID, &o.NameOnCard, &o.CardLast4, &o.Comment, &o.Total, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("look up order: %w", err)
	}
	o.CreatedAt = time.Unix(createdAt, 0)

	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, product_name, unit_price, quantity
		FROM order_items WHERE order_id = ?
		ORDER BY product_id
	`, o.ID)
	if err != nil {
		return nil, fmt.Errorf("list order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.UnitPrice, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		o.Items = append(o.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order lines: %w", err)
	}
	return &o, nil
}

// InvoiceText renders the downloadable plain-text invoice.
func (o *Order) InvoiceText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "INVOICE\n")
	fmt.Fprintf(&b, "Order reference: %s\n", o.Reference)
	fmt.Fprintf(&b, "Placed: %s\n", o.CreatedAt.Format("Jan 2, 2006 15:04"))
	fmt.Fprintf(&b, "Billed to: %s (card ending %s)\n", o.NameOnCard, o.CardLast4)
	if o.Comment != "" {
		fmt.Fprintf(&b, "Note: %s\n", o.Comment)
	}
	b.WriteString("\n")
	for _, item := range o.Items {
		fmt.Fprintf(&b, "%d x %s @ Rs. %d = Rs. %d\n",
			item.Quantity, item.ProductName, item.UnitPrice, item.Quantity*item.UnitPrice)
	}
	fmt.Fprintf(&b, "\nTotal: Rs. %d\n", o.Total)
	b.WriteString("Thank you for shopping with us!\n")
	return b.String()
}

func newOrderReference(now time.Time) string {
	return fmt.Sprintf("ORD-%d-%s", now.Unix(), uuid.NewString()[:6])
}
