package shop

import (
	"context"
	"fmt"
)

// CartItem is one cart line with its resolved product.
type CartItem struct {
	Product  Product
	Quantity int64
}

// LineTotal is unit price times quantity.
func (i CartItem) LineTotal() int64 {
	return i.Product.Price * i.Quantity
}

// AddToCart adds one unit of the product to the session's cart, incrementing
// the quantity when the product is already there.
func (s *Store) AddToCart(ctx context.Context, token string, productID int64) error {
	if _, err := s.SessionAccount(ctx, token); err != nil {
		return err
	}
	if _, err := s.ProductByID(ctx, productID); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cart_items (session_token, product_id, quantity)
		VALUES (?, ?, 1)
		ON CONFLICT(session_token, product_id)
		DO UPDATE SET quantity = quantity + 1
	`, token, productID)
	if err != nil {
		return fmt.Errorf("add to cart: %w", err)
	}

	s.log.Debug("cart item added", "session", token, "product_id", productID)
	return nil
}

// RemoveFromCart drops a product from the cart entirely.
func (s *Store) RemoveFromCart(ctx context.Context, token string, productID int64) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM cart_items WHERE session_token = ? AND product_id = ?
	`, token, productID)
	if err != nil {
		return fmt.Errorf("remove from cart: %w", err)
	}
	return nil
}

// CartItems returns the session's cart lines in product-id order.
func (s *Store) CartItems(ctx context.Context, token string) ([]CartItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.name, p.price, p.category, p.brand, p.description_md, c.quantity
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.session_token = ?
		ORDER BY p.id
	`, token)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()

	var items []CartItem
	for rows.Next() {
		var item CartItem
		if err := rows.Scan(
			&item.Product.ID, &item.Product.Name, &item.Product.Price,
			&item.Product.Category, &item.Product.Brand, &item.Product.DescriptionMD,
			&item.Quantity,
		); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart items: %w", err)
	}
	return items, nil
}

// CartTotal sums the cart's line totals.
func (s *Store) CartTotal(ctx context.Context, token string) (int64, error) {
	items, err := s.CartItems(ctx, token)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, item := range items {
		total += item.LineTotal()
	}
	return total, nil
}

// ClearCart empties the session's cart.
func (s *Store) ClearCart(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cart_items WHERE session_token = ?`, token)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
