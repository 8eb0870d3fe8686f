package service

import (
	"context"
	"fmt"

	"grove/internal/cart"
	"grove/internal/models"
	"grove/internal/repo"
)

type CartLine struct {
	Product       models.Product `json:"product"`
	Quantity      int            `json:"quantity"`
	SubtotalCents int64          `json:"subtotalCents"`
}

type CartView struct {
	Lines         []CartLine `json:"lines"`
	ItemCount     int        `json:"itemCount"`
	SubtotalCents int64      `json:"subtotalCents"`
}

type Carts struct {
	Products *repo.Products
}

// Resolve prices c against current products. Lines whose product no longer
// exists are dropped from c; pruned reports whether that happened.
func (s *Carts) Resolve(ctx context.Context, c cart.Cart) (v CartView, pruned bool, err error) {
	ps, err := s.Products.ByIDs(ctx, c.IDs())
	if err != nil {
		return v, false, err
	}
	v.Lines = make([]CartLine, 0, len(c))
	for _, id := range c.IDs() {
		p, ok := ps[id]
		if !ok {
			c.Remove(id)
			pruned = true
			continue
		}
		q := c[id]
		line := CartLine{Product: p, Quantity: q, SubtotalCents: p.PriceCents * int64(q)}
		v.Lines = append(v.Lines, line)
		v.ItemCount += q
		v.SubtotalCents += line.SubtotalCents
	}
	return v, pruned, nil
}

// Add puts qty units of a product into c. The product must exist and have
// stock.
func (s *Carts) Add(ctx context.Context, c cart.Cart, productID uint, qty int) error {
	p, err := s.Products.Get(ctx, productID)
	if err != nil {
		return fmt.Errorf("product %d: %w", productID, err)
	}
	if p.Quantity <= 0 {
		return fmt.Errorf("%s is out of stock: %w", p.Name, ErrConflict)
	}
	c.Add(productID, qty)
	return nil
}

// Items turns c into order item input.
func Items(c cart.Cart) []ItemInput {
	out := make([]ItemInput, 0, len(c))
	for _, id := range c.IDs() {
		out = append(out, ItemInput{ProductID: id, Quantity: c[id]})
	}
	return out
}
