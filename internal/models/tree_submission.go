package models

// TreeSubmission is a customer's photographic proof of a planted tree.
// PointsAwarded is set exactly once, when the submission leaves pending as approved.
type TreeSubmission struct {
	Base
	CustomerID      string  `gorm:"size:36;not null;index" json:"userId"`
	ImageURL        string  `gorm:"size:512;not null" json:"imageUrl"`
	Latitude        float64 `gorm:"not null" json:"latitude"`
	Longitude       float64 `gorm:"not null" json:"longitude"`
	Status          string  `gorm:"size:20;not null;default:'pending';index" json:"status"`
	RejectionReason string  `gorm:"size:512" json:"rejectionReason,omitempty"`
	PointsAwarded   int     `gorm:"not null;default:0" json:"pointsAwarded"`

	Customer *Customer `gorm:"foreignKey:CustomerID" json:"user,omitempty"`
}

func (TreeSubmission) TableName() string { return "tree_submissions" }
