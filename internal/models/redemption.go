package models

import "time"

// Redemption records one successful spend of points on a voucher.
// PointsSpent is a snapshot; the voucher's cost may change afterwards.
type Redemption struct {
	Base
	CustomerID     string     `gorm:"size:36;not null;index" json:"userId"`
	VoucherID      string     `gorm:"size:36;not null;index" json:"voucherId"`
	Status         string     `gorm:"size:20;not null;default:'active';index" json:"status"`
	PointsSpent    int        `gorm:"not null" json:"pointsSpent"`
	RedemptionCode string     `gorm:"uniqueIndex;size:16;not null" json:"redemptionCode"`
	ExpiresAt      time.Time  `gorm:"not null;index" json:"expiresAt"`
	UsedAt         *time.Time `json:"usedAt,omitempty"`

	Voucher *Voucher `gorm:"foreignKey:VoucherID" json:"voucher,omitempty"`
}

func (Redemption) TableName() string { return "voucher_redemptions" }
