package models

import (
	"strings"

	json "github.com/goccy/go-json"
)

type Address struct {
	Base
	UserID    uint   `gorm:"index;not null" json:"userId"`
	Name      string `gorm:"not null" json:"name"`
	Street    string `gorm:"not null" json:"street"`
	City      string `gorm:"not null" json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
	Country   string `gorm:"not null" json:"country"`
	IsDefault bool   `gorm:"not null;default:false" json:"isDefault"`
}

type PaymentMethod struct {
	Base
	UserID         uint   `gorm:"index;not null" json:"userId"`
	Type           string `gorm:"not null" json:"type"`
	CardNumber     string `gorm:"not null" json:"cardNumber"`
	NameOnCard     string `gorm:"not null" json:"nameOnCard"`
	ExpirationDate string `gorm:"not null" json:"expirationDate"`
	IsDefault      bool   `gorm:"not null;default:false" json:"isDefault"`
}

// MarshalJSON never lets a full card number leave the service.
func (p PaymentMethod) MarshalJSON() ([]byte, error) {
	type plain PaymentMethod
	out := plain(p)
	out.CardNumber = MaskCard(p.CardNumber)
	return json.Marshal(out)
}

// MaskCard keeps the last four digits.
func MaskCard(n string) string {
	n = strings.ReplaceAll(n, " ", "")
	if len(n) <= 4 {
		return n
	}
	return strings.Repeat("*", len(n)-4) + n[len(n)-4:]
}
