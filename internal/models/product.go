package models

import "gorm.io/gorm"

// Category is the fixed product taxonomy.
type Category string

const (
	CategoryDiagnosticEquipment         Category = "DIAGNOSTIC_EQUIPMENT"
	CategorySurgicalInstruments         Category = "SURGICAL_INSTRUMENTS"
	CategoryPersonalProtectiveEquipment Category = "PERSONAL_PROTECTIVE_EQUIPMENT"
	CategoryPatientCareEssentials       Category = "PATIENT_CARE_ESSENTIALS"
)

var Categories = []Category{
	CategoryDiagnosticEquipment,
	CategorySurgicalInstruments,
	CategoryPersonalProtectiveEquipment,
	CategoryPatientCareEssentials,
}

func (c Category) Valid() bool {
	for _, k := range Categories {
		if k == c {
			return true
		}
	}
	return false
}

// Product is the products table. Deleted listings are soft-deleted so
// order history keeps pointing at them.
type Product struct {
	Base
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	SellerID    uint           `gorm:"index;not null" json:"sellerId"`
	Seller      *User          `gorm:"foreignKey:SellerID" json:"-"`
	Name        string         `gorm:"not null;index" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	PriceCents  int64          `gorm:"not null" json:"priceCents"`
	Category    Category       `gorm:"type:varchar(64);not null;index" json:"category"`
	Image       string         `json:"image"` // hosted media URL
	Rating      float64        `gorm:"not null;default:0" json:"rating"`
	Quantity    int            `gorm:"not null;default:0" json:"quantity"`
}
