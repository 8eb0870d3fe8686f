package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"grove/internal/cart"
	"grove/internal/models"
	"grove/internal/pricing"
	"grove/internal/repo"
)

type ItemInput struct {
	ProductID uint `json:"productId" validate:"required"`
	Quantity  int  `json:"quantity" validate:"min=1,max=10"`
}

type QuoteInput struct {
	Items          []ItemInput `json:"items" validate:"required,min=1,dive"`
	DeliveryOption string      `json:"deliveryOption" validate:"required"`
}

// CreateOrderInput is a checkout submission. The cent amounts are what the
// client displayed; when present they must match the server's quote.
type CreateOrderInput struct {
	Items           []ItemInput `json:"items" validate:"required,min=1,dive"`
	AddressID       uint        `json:"addressId" validate:"required"`
	PaymentMethodID uint        `json:"paymentMethodId" validate:"required"`
	DeliveryOption  string      `json:"deliveryOption" validate:"required"`
	ShippingCents   *int64      `json:"shippingCents"`
	TaxCents        *int64      `json:"taxCents"`
	TotalCents      *int64      `json:"totalCents"`
}

// totalsTolerance is how far, in cents, client totals may drift.
const totalsTolerance = 1

type Orders struct {
	Repo     *repo.Orders
	Products *Products
	Users    *repo.Users
	TaxRate  decimal.Decimal
	Log      zerolog.Logger
}

// merge folds duplicate product lines together. A folded line still has
// to fit the per-line cap.
func merge(items []ItemInput) ([]ItemInput, error) {
	idx := map[uint]int{}
	out := make([]ItemInput, 0, len(items))
	for _, it := range items {
		i, ok := idx[it.ProductID]
		if !ok {
			idx[it.ProductID] = len(out)
			out = append(out, it)
			continue
		}
		out[i].Quantity += it.Quantity
		if out[i].Quantity > cart.MaxQuantity {
			return nil, invalid("items: product %d quantity %d exceeds %d", it.ProductID, out[i].Quantity, cart.MaxQuantity)
		}
	}
	return out, nil
}

func (s *Orders) price(ctx context.Context, items []ItemInput, delivery string) (pricing.Quote, []pricing.Line, error) {
	items, err := merge(items)
	if err != nil {
		return pricing.Quote{}, nil, err
	}
	ids := make([]uint, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	ps, err := s.Products.Repo.ByIDs(ctx, ids)
	if err != nil {
		return pricing.Quote{}, nil, err
	}
	lines := make([]pricing.Line, 0, len(items))
	for _, it := range items {
		p, ok := ps[it.ProductID]
		if !ok {
			return pricing.Quote{}, nil, notFound("product", it.ProductID)
		}
		lines = append(lines, pricing.Line{ProductID: p.ID, PriceCents: p.PriceCents, Quantity: it.Quantity})
	}
	q, err := pricing.Compute(lines, delivery, s.TaxRate)
	if err != nil {
		return q, nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return q, lines, nil
}

// Quote previews the totals for items shipped with the given option.
func (s *Orders) Quote(ctx context.Context, in QuoteInput) (pricing.Quote, error) {
	if len(in.Items) == 0 {
		return pricing.Quote{}, fmt.Errorf("%w: %v", ErrValidation, pricing.ErrEmptyCart)
	}
	if err := Validate(in); err != nil {
		return pricing.Quote{}, err
	}
	q, _, err := s.price(ctx, in.Items, in.DeliveryOption)
	return q, err
}

func (s *Orders) checkOwnership(ctx context.Context, userID uint, in CreateOrderInput) error {
	a, err := s.Users.Address(ctx, in.AddressID)
	if err != nil {
		return fmt.Errorf("address %d: %w", in.AddressID, err)
	}
	if a.UserID != userID {
		return fmt.Errorf("address %d: %w", in.AddressID, ErrForbidden)
	}
	pm, err := s.Users.PaymentMethod(ctx, in.PaymentMethodID)
	if err != nil {
		return fmt.Errorf("payment method %d: %w", in.PaymentMethodID, err)
	}
	if pm.UserID != userID {
		return fmt.Errorf("payment method %d: %w", in.PaymentMethodID, ErrForbidden)
	}
	return nil
}

func matches(client *int64, server int64) bool {
	return client == nil || pricing.Within(*client, server, totalsTolerance)
}

// Create places an order for buyer. Prices come from the current product
// rows; stock is reserved in the same transaction.
func (s *Orders) Create(ctx context.Context, buyer *models.User, in CreateOrderInput) (models.Order, error) {
	if len(in.Items) == 0 {
		return models.Order{}, fmt.Errorf("%w: %v", ErrValidation, pricing.ErrEmptyCart)
	}
	if err := Validate(in); err != nil {
		return models.Order{}, err
	}
	if err := s.checkOwnership(ctx, buyer.ID, in); err != nil {
		return models.Order{}, err
	}
	q, lines, err := s.price(ctx, in.Items, in.DeliveryOption)
	if err != nil {
		return models.Order{}, err
	}
	if !matches(in.ShippingCents, q.ShippingCents) || !matches(in.TaxCents, q.TaxCents) || !matches(in.TotalCents, q.TotalCents) {
		return models.Order{}, &QuoteMismatchError{Quote: q}
	}

	addressID, paymentID := in.AddressID, in.PaymentMethodID
	o := models.Order{
		UserID:          buyer.ID,
		AddressID:       &addressID,
		PaymentMethodID: &paymentID,
		Status:          models.OrderPending,
		DeliveryOption:  q.Delivery.ID,
		ItemsCents:      q.ItemsCents,
		ShippingCents:   q.ShippingCents,
		TaxCents:        q.TaxCents,
		TotalCents:      q.TotalCents,
	}
	ids := make([]uint, 0, len(lines))
	for _, l := range lines {
		o.Items = append(o.Items, models.OrderItem{ProductID: l.ProductID, Quantity: l.Quantity, PriceCents: l.PriceCents})
		ids = append(ids, l.ProductID)
	}

	if err := s.Repo.Create(ctx, &o); err != nil {
		if errors.Is(err, repo.ErrOutOfStock) {
			return o, fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return o, err
	}
	s.Products.InvalidateIDs(ctx, ids...)
	s.Log.Info().Uint("order_id", o.ID).Uint("user_id", buyer.ID).
		Int64("total_cents", o.TotalCents).Msg("order placed")
	return s.Repo.Get(ctx, o.ID)
}

func (s *Orders) List(ctx context.Context, userID uint, archived bool) ([]models.Order, error) {
	return s.Repo.ListForUser(ctx, userID, archived)
}

// Get returns an order to its owner or an admin.
func (s *Orders) Get(ctx context.Context, actor *models.User, id uint) (models.Order, error) {
	o, err := s.Repo.Get(ctx, id)
	if err != nil {
		return o, fmt.Errorf("order %d: %w", id, err)
	}
	if o.UserID != actor.ID && !actor.IsAdmin() {
		return models.Order{}, fmt.Errorf("order %d: %w", id, ErrForbidden)
	}
	return o, nil
}

func (s *Orders) Items(ctx context.Context, actor *models.User, orderID uint) ([]models.OrderItem, error) {
	if _, err := s.Get(ctx, actor, orderID); err != nil {
		return nil, err
	}
	return s.Repo.Items(ctx, orderID)
}

func (s *Orders) UserItems(ctx context.Context, userID uint) ([]models.OrderItem, error) {
	return s.Repo.UserItems(ctx, userID)
}

// ToggleItem flips an item's archived flag. Only the buyer may.
func (s *Orders) ToggleItem(ctx context.Context, actor *models.User, itemID uint) (models.OrderItem, error) {
	_, owner, err := s.Repo.Item(ctx, itemID)
	if err != nil {
		return models.OrderItem{}, fmt.Errorf("order item %d: %w", itemID, err)
	}
	if owner != actor.ID {
		return models.OrderItem{}, fmt.Errorf("order item %d: %w", itemID, ErrForbidden)
	}
	return s.Repo.ToggleItemArchived(ctx, itemID)
}
