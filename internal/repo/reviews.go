package repo

import (
	"context"
	"strconv"

	"gorm.io/gorm"

	"grove/internal/events"
	"grove/internal/models"
	"grove/internal/pricing"
)

type Reviews struct {
	DB *gorm.DB
}

// Create stores the review, refreshes the product's mean rating and records
// a reviews.created event in one transaction. It returns the new mean.
func (r *Reviews) Create(ctx context.Context, rv *models.Review) (float64, error) {
	var avg float64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Product
		if err := tx.Select("id").First(&p, rv.ProductID).Error; err != nil {
			return translate(err)
		}
		if err := tx.Omit("Product", "User").Create(rv).Error; err != nil {
			return err
		}

		var ratings []int
		if err := tx.Model(&models.Review{}).Where("product_id = ?", rv.ProductID).
			Pluck("rating", &ratings).Error; err != nil {
			return err
		}
		avg = pricing.AverageRating(ratings)
		if err := tx.Model(&models.Product{}).Where("id = ?", rv.ProductID).
			UpdateColumn("rating", avg).Error; err != nil {
			return err
		}

		return enqueue(tx, events.New(events.TypeReviewCreated, strconv.FormatUint(uint64(rv.ProductID), 10),
			events.ReviewCreatedPayload{
				ProductID:     rv.ProductID,
				UserID:        rv.UserID,
				Rating:        rv.Rating,
				AverageRating: avg,
			}))
	})
	return avg, err
}

// ForProduct lists a product's reviews newest first with the author's name.
func (r *Reviews) ForProduct(ctx context.Context, productID uint) ([]models.Review, error) {
	var out []models.Review
	err := r.DB.WithContext(ctx).Where("product_id = ?", productID).
		Preload("User", func(db *gorm.DB) *gorm.DB { return db.Unscoped().Select("id", "name") }).
		Order("created_at desc").Order("id desc").
		Find(&out).Error
	return out, err
}

// ForUser lists a user's reviews newest first with the reviewed product.
func (r *Reviews) ForUser(ctx context.Context, userID uint) ([]models.Review, error) {
	var out []models.Review
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).
		Preload("Product", unscoped).
		Order("created_at desc").Order("id desc").
		Find(&out).Error
	return out, err
}
