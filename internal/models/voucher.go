package models

import "time"

type Voucher struct {
	Base
	RetailerID     string    `gorm:"size:36;not null;index" json:"retailerId"`
	Title          string    `gorm:"size:255;not null" json:"title"`
	Description    string    `gorm:"type:text;not null" json:"description"`
	PointsRequired int       `gorm:"not null" json:"pointsRequired"`
	Quantity       int       `gorm:"not null" json:"quantity"`
	ExpiryDate     time.Time `gorm:"not null;index" json:"expiryDate"`
	ImageURL       string    `gorm:"size:512" json:"imageUrl"`

	Retailer    *Retailer    `gorm:"foreignKey:RetailerID" json:"retailer,omitempty"`
	Redemptions []Redemption `gorm:"foreignKey:VoucherID" json:"-"`
}

func (Voucher) TableName() string { return "vouchers" }
