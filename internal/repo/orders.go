package repo

import (
	"context"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"grove/internal/events"
	"grove/internal/models"
)

type Orders struct {
	DB *gorm.DB
}

// Create reserves stock, writes the order with its items and records an
// orders.created event, all in one transaction.
func (r *Orders) Create(ctx context.Context, o *models.Order) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, it := range o.Items {
			res := tx.Model(&models.Product{}).
				Where("id = ? AND quantity >= ?", it.ProductID, it.Quantity).
				UpdateColumn("quantity", gorm.Expr("quantity - ?", it.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrOutOfStock
			}
		}
		if err := tx.Create(o).Error; err != nil {
			return err
		}

		items := make([]events.OrderItemPayload, 0, len(o.Items))
		for _, it := range o.Items {
			items = append(items, events.OrderItemPayload{
				ProductID:  it.ProductID,
				Quantity:   it.Quantity,
				PriceCents: it.PriceCents,
			})
		}
		return enqueue(tx, events.New(events.TypeOrderCreated, strconv.FormatUint(uint64(o.ID), 10),
			events.OrderCreatedPayload{
				UserID:         o.UserID,
				DeliveryOption: o.DeliveryOption,
				TotalCents:     o.TotalCents,
				Items:          items,
			}))
	})
}

// itemsWithProduct preloads order items and their products, soft-deleted
// listings included.
func itemsWithProduct(archived bool) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("archived = ?", archived).Order("id asc").Preload("Product", unscoped)
	}
}

// ListForUser returns the caller's orders newest first; archived selects the
// archive view, which shows only archived items.
func (r *Orders) ListForUser(ctx context.Context, userID uint, archived bool) ([]models.Order, error) {
	var out []models.Order
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND archived = ?", userID, archived).
		Preload("Items", itemsWithProduct(archived)).
		Preload("Address").Preload("PaymentMethod").
		Order("created_at desc").Order("id desc").
		Find(&out).Error
	return out, err
}

func (r *Orders) Get(ctx context.Context, id uint) (models.Order, error) {
	var o models.Order
	err := r.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("id asc").Preload("Product", unscoped)
		}).
		Preload("Address").Preload("PaymentMethod").
		First(&o, id).Error
	return o, translate(err)
}

func (r *Orders) Items(ctx context.Context, orderID uint) ([]models.OrderItem, error) {
	var out []models.OrderItem
	err := r.DB.WithContext(ctx).Where("order_id = ?", orderID).
		Preload("Product", unscoped).Order("id asc").Find(&out).Error
	return out, err
}

// UserItems lists every item across the user's orders.
func (r *Orders) UserItems(ctx context.Context, userID uint) ([]models.OrderItem, error) {
	var out []models.OrderItem
	err := r.DB.WithContext(ctx).
		Where("order_id IN (?)", r.DB.Model(&models.Order{}).Select("id").Where("user_id = ?", userID)).
		Preload("Product", unscoped).
		Order("created_at desc").Order("id desc").
		Find(&out).Error
	return out, err
}

// Item loads an order item together with the id of the order's owner.
func (r *Orders) Item(ctx context.Context, id uint) (models.OrderItem, uint, error) {
	var it models.OrderItem
	if err := r.DB.WithContext(ctx).First(&it, id).Error; err != nil {
		return it, 0, translate(err)
	}
	var o models.Order
	if err := r.DB.WithContext(ctx).Select("id", "user_id").First(&o, it.OrderID).Error; err != nil {
		return it, 0, translate(err)
	}
	return it, o.UserID, nil
}

// ToggleItemArchived flips the item's archived flag and sets the order's flag
// to whether all its items are now archived.
func (r *Orders) ToggleItemArchived(ctx context.Context, itemID uint) (models.OrderItem, error) {
	var it models.OrderItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&it, itemID).Error; err != nil {
			return translate(err)
		}
		it.Archived = !it.Archived
		if err := tx.Model(&it).Update("archived", it.Archived).Error; err != nil {
			return err
		}
		var live int64
		if err := tx.Model(&models.OrderItem{}).
			Where("order_id = ? AND archived = ?", it.OrderID, false).
			Count(&live).Error; err != nil {
			return err
		}
		return tx.Model(&models.Order{}).Where("id = ?", it.OrderID).
			Update("archived", live == 0).Error
	})
	return it, err
}

type AdminOrderQuery struct {
	Page
	Status models.OrderStatus
}

// AdminList pages through all orders with their buyer, newest first.
func (r *Orders) AdminList(ctx context.Context, q AdminOrderQuery) ([]models.Order, int64, error) {
	filter := func(db *gorm.DB) *gorm.DB {
		if q.Status != "" {
			db = db.Where("status = ?", q.Status)
		}
		return db
	}
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.Order{}).Scopes(filter).Count(&count).Error; err != nil {
		return nil, 0, err
	}
	var out []models.Order
	err := r.DB.WithContext(ctx).Scopes(filter, q.Page.scope).
		Preload("User", func(db *gorm.DB) *gorm.DB { return db.Unscoped().Select("id", "name", "email") }).
		Preload("Items").
		Order("created_at desc").Order("id desc").
		Find(&out).Error
	return out, count, err
}

// UpdateStatus changes an order's status and records the transition.
func (r *Orders) UpdateStatus(ctx context.Context, id uint, status models.OrderStatus) (models.Order, error) {
	var o models.Order
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if isPostgres(tx) {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.First(&o, id).Error; err != nil {
			return translate(err)
		}
		from := o.Status
		if from == status {
			return nil
		}
		if err := tx.Model(&o).Update("status", status).Error; err != nil {
			return err
		}
		return enqueue(tx, events.New(events.TypeOrderStatusChanged, strconv.FormatUint(uint64(o.ID), 10),
			events.OrderStatusChangedPayload{From: string(from), To: string(status)}))
	})
	return o, err
}
