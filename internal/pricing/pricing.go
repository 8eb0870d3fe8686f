// Package pricing computes checkout totals. Amounts are integer cents;
// intermediate arithmetic is decimal so tax never drifts on float error.
package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrUnknownDelivery = errors.New("unknown delivery option")
	ErrInvalidLine     = errors.New("invalid cart line")
)

// DefaultTaxRate is the flat 6.65% sales tax.
var DefaultTaxRate = decimal.RequireFromString("0.0665")

type DeliveryOption struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"priceCents"`
	Days       string `json:"days"`
}

var DeliveryOptions = []DeliveryOption{
	{ID: "standard", Name: "Standard Delivery", PriceCents: 0, Days: "5-7 business days"},
	{ID: "express", Name: "Express Delivery", PriceCents: 999, Days: "2-3 business days"},
	{ID: "overnight", Name: "Overnight Delivery", PriceCents: 1999, Days: "1 business day"},
}

func LookupDelivery(id string) (DeliveryOption, bool) {
	for _, d := range DeliveryOptions {
		if d.ID == id {
			return d, true
		}
	}
	return DeliveryOption{}, false
}

type Line struct {
	ProductID  uint  `json:"productId"`
	PriceCents int64 `json:"priceCents"`
	Quantity   int   `json:"quantity"`
}

type Quote struct {
	Delivery      DeliveryOption `json:"delivery"`
	TaxRate       string         `json:"taxRate"`
	ItemsCents    int64          `json:"itemsCents"`
	ShippingCents int64          `json:"shippingCents"`
	SubtotalCents int64          `json:"subtotalCents"`
	TaxCents      int64          `json:"taxCents"`
	TotalCents    int64          `json:"totalCents"`
}

// Compute prices lines for the given delivery option:
// subtotal = items + shipping, tax = subtotal * rate (half-up to the cent),
// total = subtotal + tax.
func Compute(lines []Line, deliveryID string, taxRate decimal.Decimal) (Quote, error) {
	if len(lines) == 0 {
		return Quote{}, ErrEmptyCart
	}
	d, ok := LookupDelivery(deliveryID)
	if !ok {
		return Quote{}, fmt.Errorf("%w: %q", ErrUnknownDelivery, deliveryID)
	}

	items := decimal.Zero
	for _, l := range lines {
		if l.Quantity <= 0 || l.PriceCents < 0 {
			return Quote{}, fmt.Errorf("%w: product %d", ErrInvalidLine, l.ProductID)
		}
		items = items.Add(decimal.NewFromInt(l.PriceCents).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	shipping := decimal.NewFromInt(d.PriceCents)
	subtotal := items.Add(shipping)
	tax := subtotal.Mul(taxRate).Round(0)

	return Quote{
		Delivery:      d,
		TaxRate:       taxRate.String(),
		ItemsCents:    items.IntPart(),
		ShippingCents: shipping.IntPart(),
		SubtotalCents: subtotal.IntPart(),
		TaxCents:      tax.IntPart(),
		TotalCents:    subtotal.Add(tax).IntPart(),
	}, nil
}

// ParseRate parses a tax rate such as "0.0665".
func ParseRate(s string) (decimal.Decimal, error) {
	r, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("tax rate %q: %w", s, err)
	}
	if r.IsNegative() || r.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("tax rate %q out of range", s)
	}
	return r, nil
}

// ToCents converts a dollar amount (as the client displays it) to cents.
func ToCents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

// Format renders cents as a plain dollar string, e.g. 1999 -> "19.99".
func Format(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// Within reports whether two cent amounts differ by at most tolerance.
func Within(a, b, tolerance int64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tolerance
}

// AverageRating is the arithmetic mean of ratings, 0 when there are none.
func AverageRating(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return float64(sum) / float64(len(ratings))
}
