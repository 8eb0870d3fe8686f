package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"grove/internal/models"
	"grove/internal/repo"
)

// AdminProductInput extends a listing with the fields only admins set.
type AdminProductInput struct {
	ProductInput
	Rating float64 `json:"rating" validate:"min=0,max=5"`
}

type AdminProductQuery struct {
	Page       int             `form:"page" validate:"min=0"`
	PerPage    int             `form:"perPage" validate:"min=0,max=100"`
	Name       string          `form:"name"`
	PriceCents *int64          `form:"price"`
	Category   models.Category `form:"category" validate:"omitempty,category"`
	Rating     *float64        `form:"rating" validate:"omitempty,min=0,max=5"`
	SortBy     string          `form:"sortBy" validate:"omitempty,oneof=name category quantity price rating createdAt"`
	SortDesc   bool            `form:"sortDesc"`
}

type AdminUserQuery struct {
	Page     int         `form:"page" validate:"min=0"`
	PerPage  int         `form:"perPage" validate:"min=0,max=100"`
	Name     string      `form:"name"`
	Email    string      `form:"email"`
	Role     models.Role `form:"role" validate:"omitempty,oneof=USER ADMIN"`
	SortBy   string      `form:"sortBy" validate:"omitempty,oneof=name email role active createdAt"`
	SortDesc bool        `form:"sortDesc"`
}

type AdminOrderQuery struct {
	Page    int                `form:"page" validate:"min=0"`
	PerPage int                `form:"perPage" validate:"min=0,max=100"`
	Status  models.OrderStatus `form:"status" validate:"omitempty,orderstatus"`
}

type StatusInput struct {
	Status models.OrderStatus `json:"status" validate:"required,orderstatus"`
}

type ProductPage struct {
	Count    int64            `json:"count"`
	Products []models.Product `json:"products"`
}

type UserPage struct {
	Count int64         `json:"count"`
	Users []models.User `json:"users"`
}

type OrderPage struct {
	Count  int64          `json:"count"`
	Orders []models.Order `json:"orders"`
}

// Admin backs the dashboard. Callers are expected to be admins already.
type Admin struct {
	Products *Products
	Users    *repo.Users
	Orders   *repo.Orders
	Log      zerolog.Logger
}

func page(p, per int) repo.Page {
	if per == 0 {
		per = 10
	}
	return repo.Page{Page: p, PerPage: per}
}

func (s *Admin) ListProducts(ctx context.Context, q AdminProductQuery) (ProductPage, error) {
	if err := Validate(q); err != nil {
		return ProductPage{}, err
	}
	rows, count, err := s.Products.Repo.AdminList(ctx, repo.AdminProductQuery{
		Page:       page(q.Page, q.PerPage),
		Name:       q.Name,
		PriceCents: q.PriceCents,
		Category:   q.Category,
		Rating:     q.Rating,
		SortBy:     q.SortBy,
		SortDesc:   q.SortDesc,
	})
	if err != nil {
		return ProductPage{}, err
	}
	return ProductPage{Count: count, Products: rows}, nil
}

func (s *Admin) Product(ctx context.Context, id uint) (models.Product, error) {
	p, err := s.Products.Repo.Get(ctx, id)
	if err != nil {
		return p, fmt.Errorf("product %d: %w", id, err)
	}
	return p, nil
}

func (s *Admin) CreateProduct(ctx context.Context, admin *models.User, in AdminProductInput) (models.Product, error) {
	if err := Validate(in); err != nil {
		return models.Product{}, err
	}
	p, err := s.Products.Create(ctx, admin, in.ProductInput)
	if err != nil {
		return p, err
	}
	if in.Rating == 0 {
		return p, nil
	}
	p, err = s.Products.Repo.Update(ctx, p.ID, map[string]any{"rating": in.Rating})
	if err != nil {
		return p, err
	}
	s.Products.Invalidate(ctx, p)
	return p, nil
}

func (s *Admin) UpdateProduct(ctx context.Context, id uint, in AdminProductInput) (models.Product, error) {
	if err := Validate(in); err != nil {
		return models.Product{}, err
	}
	old, err := s.Product(ctx, id)
	if err != nil {
		return old, err
	}
	fields := in.fields()
	fields["rating"] = in.Rating
	p, err := s.Products.Repo.Update(ctx, id, fields)
	if err != nil {
		return p, err
	}
	s.Products.Invalidate(ctx, old, p)
	return p, nil
}

func (s *Admin) DeleteProduct(ctx context.Context, id uint) (models.Product, error) {
	p, err := s.Products.Repo.Delete(ctx, id)
	if err != nil {
		return p, fmt.Errorf("product %d: %w", id, err)
	}
	s.Products.Invalidate(ctx, p)
	s.Log.Info().Uint("product_id", id).Msg("product removed by admin")
	return p, nil
}

// PrevProduct and NextProduct step through products by id, wrapping around.
func (s *Admin) PrevProduct(ctx context.Context, id uint) (models.Product, error) {
	return s.neighbor(ctx, id, -1)
}

func (s *Admin) NextProduct(ctx context.Context, id uint) (models.Product, error) {
	return s.neighbor(ctx, id, 1)
}

func (s *Admin) neighbor(ctx context.Context, id uint, dir int) (models.Product, error) {
	p, err := s.Products.Repo.Neighbor(ctx, id, dir)
	if err != nil {
		return p, fmt.Errorf("product %d: %w", id, err)
	}
	return p, nil
}

func (s *Admin) ListUsers(ctx context.Context, q AdminUserQuery) (UserPage, error) {
	if err := Validate(q); err != nil {
		return UserPage{}, err
	}
	rows, count, err := s.Users.AdminList(ctx, repo.AdminUserQuery{
		Page:     page(q.Page, q.PerPage),
		Name:     q.Name,
		Email:    q.Email,
		Role:     q.Role,
		SortBy:   q.SortBy,
		SortDesc: q.SortDesc,
	})
	if err != nil {
		return UserPage{}, err
	}
	return UserPage{Count: count, Users: rows}, nil
}

func (s *Admin) ListOrders(ctx context.Context, q AdminOrderQuery) (OrderPage, error) {
	if err := Validate(q); err != nil {
		return OrderPage{}, err
	}
	rows, count, err := s.Orders.AdminList(ctx, repo.AdminOrderQuery{
		Page:   page(q.Page, q.PerPage),
		Status: q.Status,
	})
	if err != nil {
		return OrderPage{}, err
	}
	return OrderPage{Count: count, Orders: rows}, nil
}

func (s *Admin) UpdateOrderStatus(ctx context.Context, id uint, in StatusInput) (models.Order, error) {
	if err := Validate(in); err != nil {
		return models.Order{}, err
	}
	o, err := s.Orders.UpdateStatus(ctx, id, in.Status)
	if err != nil {
		return o, fmt.Errorf("order %d: %w", id, err)
	}
	s.Log.Info().Uint("order_id", id).Str("status", string(in.Status)).Msg("order status updated")
	return s.Orders.Get(ctx, id)
}
