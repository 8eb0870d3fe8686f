package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"grove/internal/models"
)

type Products struct {
	DB *gorm.DB
}

type ProductFilter struct {
	Category models.Category
	Query    string
	SellerID uint
}

// List returns products with their seller's id and name. Unfiltered lists
// are grouped by category; filtered ones are newest first.
func (r *Products) List(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	q := r.DB.WithContext(ctx).Preload("Seller", nameOnly)
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.SellerID != 0 {
		q = q.Where("seller_id = ?", f.SellerID)
	}
	if s := strings.TrimSpace(f.Query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)", like, like)
	}
	if f == (ProductFilter{}) {
		q = q.Order("category asc")
	}
	var out []models.Product
	err := q.Order("created_at desc").Order("id desc").Find(&out).Error
	return out, err
}

func (r *Products) Get(ctx context.Context, id uint) (models.Product, error) {
	var p models.Product
	err := r.DB.WithContext(ctx).Preload("Seller", nameOnly).First(&p, id).Error
	return p, translate(err)
}

// ByIDs loads live products keyed by id; missing ids are simply absent.
func (r *Products) ByIDs(ctx context.Context, ids []uint) (map[uint]models.Product, error) {
	out := make(map[uint]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

func (r *Products) Categories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	err := r.DB.WithContext(ctx).Model(&models.Product{}).
		Distinct().Order("category asc").Pluck("category", &out).Error
	return out, err
}

type Suggestion struct {
	Query    string          `json:"query"`
	Category models.Category `json:"category"`
}

func (r *Products) Suggestions(ctx context.Context, query string, limit int) ([]Suggestion, error) {
	like := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	var rows []models.Product
	err := r.DB.WithContext(ctx).Select("name", "category").
		Where("(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)", like, like).
		Limit(limit).Find(&rows).Error
	out := make([]Suggestion, 0, len(rows))
	for _, p := range rows {
		out = append(out, Suggestion{Query: p.Name, Category: p.Category})
	}
	return out, err
}

type ReviewStats struct {
	ProductID   uint
	ReviewCount int64
	AvgRating   float64
}

// Stats aggregates review counts and mean ratings per product.
func (r *Products) Stats(ctx context.Context, ids []uint) (map[uint]ReviewStats, error) {
	out := make(map[uint]ReviewStats, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []ReviewStats
	err := r.DB.WithContext(ctx).Model(&models.Review{}).
		Select("product_id, COUNT(*) AS review_count, CAST(AVG(rating) AS FLOAT) AS avg_rating").
		Where("product_id IN ?", ids).
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, s := range rows {
		out[s.ProductID] = s
	}
	return out, nil
}

func (r *Products) Create(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

// Update writes the given columns of product id.
func (r *Products) Update(ctx context.Context, id uint, fields map[string]any) (models.Product, error) {
	res := r.DB.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return models.Product{}, res.Error
	}
	if res.RowsAffected == 0 {
		return models.Product{}, ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *Products) Delete(ctx context.Context, id uint) (models.Product, error) {
	p, err := r.Get(ctx, id)
	if err != nil {
		return p, err
	}
	if err := r.DB.WithContext(ctx).Delete(&models.Product{}, id).Error; err != nil {
		return p, err
	}
	return p, nil
}

// Neighbor returns the product before (dir < 0) or after id, wrapping around
// at either end.
func (r *Products) Neighbor(ctx context.Context, id uint, dir int) (models.Product, error) {
	if _, err := r.Get(ctx, id); err != nil {
		return models.Product{}, err
	}
	cmp, order := "id > ?", "id asc"
	if dir < 0 {
		cmp, order = "id < ?", "id desc"
	}
	var p models.Product
	err := r.DB.WithContext(ctx).Where(cmp, id).Order(order).Take(&p).Error
	if err == nil {
		return p, nil
	}
	if err = translate(err); err != ErrNotFound {
		return p, err
	}
	err = r.DB.WithContext(ctx).Order(order).Take(&p).Error
	return p, translate(err)
}

type AdminProductQuery struct {
	Page
	Name       string
	PriceCents *int64
	Category   models.Category
	Rating     *float64
	SortBy     string
	SortDesc   bool
}

var productSortColumns = map[string]string{
	"name":      "name",
	"category":  "category",
	"quantity":  "quantity",
	"price":     "price_cents",
	"rating":    "rating",
	"createdAt": "created_at",
}

// AdminList is the paginated, filtered and sorted dashboard table.
func (r *Products) AdminList(ctx context.Context, q AdminProductQuery) ([]models.Product, int64, error) {
	filter := func(db *gorm.DB) *gorm.DB {
		if q.Name != "" {
			db = db.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q.Name)+"%")
		}
		if q.PriceCents != nil {
			db = db.Where("price_cents = ?", *q.PriceCents)
		}
		if q.Category != "" {
			db = db.Where("category = ?", q.Category)
		}
		if q.Rating != nil {
			db = db.Where("rating = ?", *q.Rating)
		}
		return db
	}

	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Scopes(filter).Count(&count).Error; err != nil {
		return nil, 0, err
	}

	find := r.DB.WithContext(ctx).Scopes(filter, q.Page.scope)
	if col, ok := productSortColumns[q.SortBy]; ok {
		find = find.Order(clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: q.SortDesc})
	}
	var out []models.Product
	err := find.Order("id asc").Find(&out).Error
	return out, count, err
}
