package models

import "loyaltytree/internal/domain"

type Customer struct {
	Base
	Email        string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	Name         string `gorm:"size:255;not null" json:"name"`
	Points       int    `gorm:"not null;default:0" json:"points"`
	Role         string `gorm:"size:20;not null;default:'user'" json:"role"` // user | admin

	TreeSubmissions []TreeSubmission `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"-"`
	Redemptions     []Redemption     `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Customer) TableName() string { return "customers" }

func (c *Customer) IsAdmin() bool { return c.Role == domain.RoleAdmin }
