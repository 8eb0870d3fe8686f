package models

type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderShipped    OrderStatus = "SHIPPED"
	OrderDelivered  OrderStatus = "DELIVERED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// Order is the orders table. Money columns are cents.
type Order struct {
	Base
	UserID          uint           `gorm:"index;not null" json:"userId"`
	User            *User          `json:"user,omitempty"`
	AddressID       *uint          `json:"addressId"`
	Address         *Address       `json:"address,omitempty"`
	PaymentMethodID *uint          `json:"paymentMethodId"`
	PaymentMethod   *PaymentMethod `json:"paymentMethod,omitempty"`
	Status          OrderStatus    `gorm:"type:varchar(16);not null;default:'PENDING'" json:"status"`
	DeliveryOption  string         `gorm:"type:varchar(16);not null" json:"deliveryOption"`
	ItemsCents      int64          `gorm:"not null" json:"itemsCents"`
	ShippingCents   int64          `gorm:"not null" json:"shippingCents"`
	TaxCents        int64          `gorm:"not null" json:"taxCents"`
	TotalCents      int64          `gorm:"not null" json:"totalCents"`
	Archived        bool           `gorm:"not null;default:false;index" json:"archived"`
	Items           []OrderItem    `gorm:"constraint:OnDelete:CASCADE" json:"items"`
}

// OrderItem captures the unit price at checkout time.
type OrderItem struct {
	Base
	OrderID    uint     `gorm:"index;not null" json:"orderId"`
	ProductID  uint     `gorm:"index;not null" json:"productId"`
	Product    *Product `json:"product,omitempty"`
	Quantity   int      `gorm:"not null" json:"quantity"`
	PriceCents int64    `gorm:"not null" json:"priceCents"`
	Archived   bool     `gorm:"not null;default:false" json:"archived"`
}
