package shop

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"html/template"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

// Product is one catalog entry. Prices are whole rupees.
type Product struct {
	ID            int64
	Name          string
	Price         int64
	Category      string
	Brand         string
	DescriptionMD string
}

// DisplayPrice formats the price the way the storefront shows it.
func (p Product) DisplayPrice() string {
	return fmt.Sprintf("Rs. %d", p.Price)
}

// DescriptionHTML renders the markdown description to sanitized HTML.
func (p Product) DescriptionHTML() template.HTML {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock
	doc := parser.NewWithExtensions(extensions).Parse([]byte(p.DescriptionMD))

	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags | mdhtml.HrefTargetBlank,
	})
	rendered := markdown.Render(doc, renderer)

	sanitized := bluemonday.UGCPolicy().SanitizeBytes(rendered)
	return template.HTML(sanitized)
}

// Products returns the catalog in id order.
func (s *Store) Products(ctx context.Context) ([]Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, price, category, brand, description_md
		FROM products ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Category, &p.Brand, &p.DescriptionMD); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

// ProductByID returns one product, or ErrProductNotFound.
func (s *Store) ProductByID(ctx context.Context, id int64) (*Product, error) {
	var p Product
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, price, category, brand, description_md
		FROM products WHERE id = ?
	`, id).Scan(&p.ID, &p.Name, &p.Price, &p.Category, &p.Brand, &p.DescriptionMD)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("look up product: %w", err)
	}
	return &p, nil
}
