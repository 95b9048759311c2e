package repository

import (
	"context"
	"errors"

	"loyaltytree/internal/models"

	"gorm.io/gorm"
)

var ErrInsufficientPoints = errors.New("insufficient points")

type CustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *CustomerRepository) WithTx(tx *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: tx}
}

func (r *CustomerRepository) Create(ctx context.Context, c *models.Customer) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*models.Customer, error) {
	var c models.Customer
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CustomerRepository) GetByEmail(ctx context.Context, email string) (*models.Customer, error) {
	var c models.Customer
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CustomerRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Customer{}).Where("email = ?", email).Count(&n).Error
	return n > 0, err
}

// UpdateProfile writes name and email only; points are never touched here.
func (r *CustomerRepository) UpdateProfile(ctx context.Context, c *models.Customer) error {
	return r.db.WithContext(ctx).Model(c).Select("name", "email").Updates(c).Error
}

// Credit adds amount to the balance and returns the new balance.
func (r *CustomerRepository) Credit(ctx context.Context, id string, amount int) (int, error) {
	res := r.db.WithContext(ctx).Model(&models.Customer{}).
		Where("id = ?", id).
		UpdateColumn("points", gorm.Expr("points + ?", amount))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return r.Points(ctx, id)
}

// Debit subtracts amount only if the balance covers it, so the balance can never go negative.
func (r *CustomerRepository) Debit(ctx context.Context, id string, amount int) (int, error) {
	res := r.db.WithContext(ctx).Model(&models.Customer{}).
		Where("id = ? AND points >= ?", id, amount).
		UpdateColumn("points", gorm.Expr("points - ?", amount))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrInsufficientPoints
	}
	return r.Points(ctx, id)
}

func (r *CustomerRepository) Points(ctx context.Context, id string) (int, error) {
	var c models.Customer
	err := r.db.WithContext(ctx).Select("points").Where("id = ?", id).First(&c).Error
	return c.Points, err
}
