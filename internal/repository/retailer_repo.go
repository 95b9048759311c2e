package repository

import (
	"context"

	"loyaltytree/internal/models"

	"gorm.io/gorm"
)

type RetailerRepository struct {
	db *gorm.DB
}

func NewRetailerRepository(db *gorm.DB) *RetailerRepository {
	return &RetailerRepository{db: db}
}

func (r *RetailerRepository) Create(ctx context.Context, rt *models.Retailer) error {
	return r.db.WithContext(ctx).Create(rt).Error
}

func (r *RetailerRepository) GetByID(ctx context.Context, id string) (*models.Retailer, error) {
	var rt models.Retailer
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rt).Error
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

func (r *RetailerRepository) GetByEmail(ctx context.Context, email string) (*models.Retailer, error) {
	var rt models.Retailer
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&rt).Error
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

func (r *RetailerRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Retailer{}).Where("email = ?", email).Count(&n).Error
	return n > 0, err
}

func (r *RetailerRepository) UpdateProfile(ctx context.Context, rt *models.Retailer) error {
	return r.db.WithContext(ctx).Model(rt).Select("name", "email", "description", "logo").Updates(rt).Error
}
