package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"grove/internal/models"
)

type Users struct {
	DB *gorm.DB
}

func (r *Users) Create(ctx context.Context, u *models.User) error {
	return r.DB.WithContext(ctx).Create(u).Error
}

func (r *Users) ByID(ctx context.Context, id uint) (models.User, error) {
	var u models.User
	err := r.DB.WithContext(ctx).First(&u, id).Error
	return u, translate(err)
}

func (r *Users) ByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := r.DB.WithContext(ctx).Where("LOWER(email) = ?", strings.ToLower(email)).First(&u).Error
	return u, translate(err)
}

// EmailTaken reports whether another account uses email. Deleted accounts
// keep their address reserved by the unique index.
func (r *Users) EmailTaken(ctx context.Context, email string, exceptID uint) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Unscoped().Model(&models.User{}).
		Where("LOWER(email) = ? AND id <> ?", strings.ToLower(email), exceptID).
		Count(&n).Error
	return n > 0, err
}

func (r *Users) List(ctx context.Context) ([]models.User, error) {
	var out []models.User
	err := r.DB.WithContext(ctx).Order("id asc").Find(&out).Error
	return out, err
}

func (r *Users) Update(ctx context.Context, id uint, fields map[string]any) (models.User, error) {
	res := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return models.User{}, res.Error
	}
	if res.RowsAffected == 0 {
		return models.User{}, ErrNotFound
	}
	return r.ByID(ctx, id)
}

// Delete soft-deletes the account; its orders and reviews stay.
func (r *Users) Delete(ctx context.Context, id uint) (models.User, error) {
	u, err := r.ByID(ctx, id)
	if err != nil {
		return u, err
	}
	return u, r.DB.WithContext(ctx).Delete(&models.User{}, id).Error
}

func (r *Users) Addresses(ctx context.Context, userID uint) ([]models.Address, error) {
	var out []models.Address
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).
		Order("is_default desc").Order("id asc").Find(&out).Error
	return out, err
}

func (r *Users) Address(ctx context.Context, id uint) (models.Address, error) {
	var a models.Address
	err := r.DB.WithContext(ctx).First(&a, id).Error
	return a, translate(err)
}

// AddAddress stores a; a new default clears the user's other defaults.
func (r *Users) AddAddress(ctx context.Context, a *models.Address) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if a.IsDefault {
			if err := tx.Model(&models.Address{}).Where("user_id = ?", a.UserID).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(a).Error
	})
}

func (r *Users) PaymentMethods(ctx context.Context, userID uint) ([]models.PaymentMethod, error) {
	var out []models.PaymentMethod
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).
		Order("is_default desc").Order("id asc").Find(&out).Error
	return out, err
}

func (r *Users) PaymentMethod(ctx context.Context, id uint) (models.PaymentMethod, error) {
	var p models.PaymentMethod
	err := r.DB.WithContext(ctx).First(&p, id).Error
	return p, translate(err)
}

func (r *Users) AddPaymentMethod(ctx context.Context, p *models.PaymentMethod) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if p.IsDefault {
			if err := tx.Model(&models.PaymentMethod{}).Where("user_id = ?", p.UserID).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(p).Error
	})
}

type AdminUserQuery struct {
	Page
	Name     string
	Email    string
	Role     models.Role
	SortBy   string
	SortDesc bool
}

var userSortColumns = map[string]string{
	"name":      "name",
	"email":     "email",
	"role":      "role",
	"active":    "active",
	"createdAt": "created_at",
}

func (r *Users) AdminList(ctx context.Context, q AdminUserQuery) ([]models.User, int64, error) {
	filter := func(db *gorm.DB) *gorm.DB {
		if q.Name != "" {
			db = db.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q.Name)+"%")
		}
		if q.Email != "" {
			db = db.Where("LOWER(email) LIKE ?", "%"+strings.ToLower(q.Email)+"%")
		}
		if q.Role != "" {
			db = db.Where("role = ?", q.Role)
		}
		return db
	}

	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).Scopes(filter).Count(&count).Error; err != nil {
		return nil, 0, err
	}
	find := r.DB.WithContext(ctx).Scopes(filter, q.Page.scope)
	if col, ok := userSortColumns[q.SortBy]; ok {
		find = find.Order(clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: q.SortDesc})
	}
	var out []models.User
	err := find.Order("id asc").Find(&out).Error
	return out, count, err
}
