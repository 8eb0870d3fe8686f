package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"grove/internal/cache"
	"grove/internal/models"
	"grove/internal/repo"
)

const (
	keyProductsAll = "products:all"
	keyCategories  = "products:categories"
	suggestLimit   = 5
)

func keyProduct(id uint) string { return fmt.Sprintf("product:%d", id) }
func keyCategory(c models.Category) string { return "products:category:" + string(c) }

type SellerRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// ProductView is a product as the storefront shows it.
type ProductView struct {
	models.Product
	Seller        *SellerRef `json:"seller,omitempty"`
	ReviewCount   int64      `json:"reviewCount"`
	AverageRating float64    `json:"averageRating"`
}

// ProductInput is what a seller submits for a listing.
type ProductInput struct {
	Name        string          `json:"name" validate:"required,min=3"`
	Description string          `json:"description" validate:"required,min=3"`
	PriceCents  int64           `json:"priceCents" validate:"min=0"`
	Category    models.Category `json:"category" validate:"category"`
	Image       string          `json:"image" validate:"required,http_url"`
	Quantity    int             `json:"quantity" validate:"min=0"`
}

func (in ProductInput) fields() map[string]any {
	return map[string]any{
		"name":        strings.TrimSpace(in.Name),
		"description": strings.TrimSpace(in.Description),
		"price_cents": in.PriceCents,
		"category":    in.Category,
		"image":       in.Image,
		"quantity":    in.Quantity,
	}
}

type Products struct {
	Repo  *repo.Products
	Cache *cache.Redis
	TTL   time.Duration
	Log   zerolog.Logger
}

func (s *Products) views(ctx context.Context, ps []models.Product) ([]ProductView, error) {
	ids := make([]uint, 0, len(ps))
	for _, p := range ps {
		ids = append(ids, p.ID)
	}
	stats, err := s.Repo.Stats(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]ProductView, 0, len(ps))
	for _, p := range ps {
		v := ProductView{Product: p}
		if p.Seller != nil {
			v.Seller = &SellerRef{ID: p.Seller.ID, Name: p.Seller.Name}
		}
		if st, ok := stats[p.ID]; ok {
			v.ReviewCount = st.ReviewCount
			v.AverageRating = st.AvgRating
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *Products) list(ctx context.Context, key string, f repo.ProductFilter) ([]ProductView, error) {
	return cache.Fetch(ctx, s.Cache, key, s.TTL, func(ctx context.Context) ([]ProductView, error) {
		ps, err := s.Repo.List(ctx, f)
		if err != nil {
			return nil, err
		}
		return s.views(ctx, ps)
	})
}

// List returns every product grouped by category.
func (s *Products) List(ctx context.Context) ([]ProductView, error) {
	return s.list(ctx, keyProductsAll, repo.ProductFilter{})
}

func (s *Products) ByCategory(ctx context.Context, c models.Category) ([]ProductView, error) {
	if !c.Valid() {
		return nil, invalid("unknown category %q", c)
	}
	return s.list(ctx, keyCategory(c), repo.ProductFilter{Category: c})
}

// Search matches name or description, case-insensitively. An empty query
// lists everything.
func (s *Products) Search(ctx context.Context, q string) ([]ProductView, error) {
	if strings.TrimSpace(q) == "" {
		return s.List(ctx)
	}
	ps, err := s.Repo.List(ctx, repo.ProductFilter{Query: q})
	if err != nil {
		return nil, err
	}
	return s.views(ctx, ps)
}

func (s *Products) Suggestions(ctx context.Context, q string) ([]repo.Suggestion, error) {
	if strings.TrimSpace(q) == "" {
		return []repo.Suggestion{}, nil
	}
	return s.Repo.Suggestions(ctx, q, suggestLimit)
}

func (s *Products) Categories(ctx context.Context) ([]models.Category, error) {
	return cache.Fetch(ctx, s.Cache, keyCategories, s.TTL, s.Repo.Categories)
}

func (s *Products) Get(ctx context.Context, id uint) (ProductView, error) {
	return cache.Fetch(ctx, s.Cache, keyProduct(id), s.TTL, func(ctx context.Context) (ProductView, error) {
		p, err := s.Repo.Get(ctx, id)
		if err != nil {
			return ProductView{}, fmt.Errorf("product %d: %w", id, err)
		}
		vs, err := s.views(ctx, []models.Product{p})
		if err != nil {
			return ProductView{}, err
		}
		return vs[0], nil
	})
}

// Create lists a new product sold by seller.
func (s *Products) Create(ctx context.Context, seller *models.User, in ProductInput) (models.Product, error) {
	if err := Validate(in); err != nil {
		return models.Product{}, err
	}
	p := models.Product{
		SellerID:    seller.ID,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		PriceCents:  in.PriceCents,
		Category:    in.Category,
		Image:       in.Image,
		Quantity:    in.Quantity,
	}
	if err := s.Repo.Create(ctx, &p); err != nil {
		return p, err
	}
	s.Invalidate(ctx, p)
	s.Log.Info().Uint("product_id", p.ID).Uint("seller_id", seller.ID).Msg("product listed")
	return p, nil
}

func (s *Products) Listings(ctx context.Context, sellerID uint) ([]ProductView, error) {
	ps, err := s.Repo.List(ctx, repo.ProductFilter{SellerID: sellerID})
	if err != nil {
		return nil, err
	}
	return s.views(ctx, ps)
}

func (s *Products) owned(ctx context.Context, actor *models.User, id uint) (models.Product, error) {
	p, err := s.Repo.Get(ctx, id)
	if err != nil {
		return p, fmt.Errorf("product %d: %w", id, err)
	}
	if p.SellerID != actor.ID {
		return p, fmt.Errorf("product %d belongs to another seller: %w", id, ErrForbidden)
	}
	return p, nil
}

// UpdateListing replaces a listing's details; only its seller may.
func (s *Products) UpdateListing(ctx context.Context, actor *models.User, id uint, in ProductInput) (models.Product, error) {
	if err := Validate(in); err != nil {
		return models.Product{}, err
	}
	old, err := s.owned(ctx, actor, id)
	if err != nil {
		return old, err
	}
	p, err := s.Repo.Update(ctx, id, in.fields())
	if err != nil {
		return p, err
	}
	s.Invalidate(ctx, old, p)
	return p, nil
}

func (s *Products) DeleteListing(ctx context.Context, actor *models.User, id uint) (models.Product, error) {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return models.Product{}, err
	}
	p, err := s.Repo.Delete(ctx, id)
	if err != nil {
		return p, err
	}
	s.Invalidate(ctx, p)
	s.Log.Info().Uint("product_id", id).Msg("product delisted")
	return p, nil
}

// Invalidate drops every cached read that can contain ps.
func (s *Products) Invalidate(ctx context.Context, ps ...models.Product) {
	keys := []string{keyProductsAll, keyCategories}
	for _, p := range ps {
		keys = append(keys, keyProduct(p.ID), keyCategory(p.Category))
	}
	cache.Invalidate(ctx, s.Cache, keys...)
}

// InvalidateIDs is Invalidate for callers that only know product ids.
func (s *Products) InvalidateIDs(ctx context.Context, ids ...uint) {
	keys := []string{keyProductsAll}
	for _, id := range ids {
		keys = append(keys, keyProduct(id))
	}
	for _, c := range models.Categories {
		keys = append(keys, keyCategory(c))
	}
	cache.Invalidate(ctx, s.Cache, keys...)
}
