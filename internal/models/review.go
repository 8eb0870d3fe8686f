package models

// Review is the reviews table.
type Review struct {
	Base
	ProductID uint     `gorm:"index;not null" json:"productId"`
	Product   *Product `json:"product,omitempty"`
	UserID    uint     `gorm:"index;not null" json:"userId"`
	User      *User    `json:"-"`
	Rating    int      `gorm:"not null" json:"rating"`
	Comment   string   `gorm:"type:text" json:"comment"`
}
