package models

type Retailer struct {
	Base
	Email        string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	Name         string `gorm:"size:255;not null" json:"name"`
	Description  string `gorm:"size:1024" json:"description,omitempty"`
	Logo         string `gorm:"size:512" json:"logo,omitempty"`

	Vouchers []Voucher `gorm:"foreignKey:RetailerID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Retailer) TableName() string { return "retailers" }
