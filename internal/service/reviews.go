package service

import (
	"context"
	"fmt"
	"strings"

	"grove/internal/models"
	"grove/internal/repo"
)

type ReviewInput struct {
	ProductID uint   `json:"productId" validate:"required"`
	Rating    int    `json:"rating" validate:"min=1,max=5"`
	Comment   string `json:"comment" validate:"max=2000"`
}

type UserRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// ReviewView is a review with its author's public name.
type ReviewView struct {
	models.Review
	User *UserRef `json:"user,omitempty"`
}

type Reviews struct {
	Repo     *repo.Reviews
	Products *Products
}

func (s *Reviews) Create(ctx context.Context, author *models.User, in ReviewInput) (models.Review, error) {
	if err := Validate(in); err != nil {
		return models.Review{}, err
	}
	rv := models.Review{
		ProductID: in.ProductID,
		UserID:    author.ID,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
	}
	if _, err := s.Repo.Create(ctx, &rv); err != nil {
		return rv, fmt.Errorf("review product %d: %w", in.ProductID, err)
	}
	s.Products.InvalidateIDs(ctx, in.ProductID)
	return rv, nil
}

func (s *Reviews) ForProduct(ctx context.Context, productID uint) ([]ReviewView, error) {
	rs, err := s.Repo.ForProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	out := make([]ReviewView, 0, len(rs))
	for _, r := range rs {
		v := ReviewView{Review: r}
		if r.User != nil {
			v.User = &UserRef{ID: r.User.ID, Name: r.User.Name}
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *Reviews) ForUser(ctx context.Context, userID uint) ([]models.Review, error) {
	return s.Repo.ForUser(ctx, userID)
}
