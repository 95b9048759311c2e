package repository

import (
	"context"
	"errors"
	"time"

	"loyaltytree/internal/models"

	"gorm.io/gorm"
)

var ErrOutOfStock = errors.New("voucher out of stock or expired")

type VoucherRepository struct {
	db *gorm.DB
}

func NewVoucherRepository(db *gorm.DB) *VoucherRepository {
	return &VoucherRepository{db: db}
}

func (r *VoucherRepository) WithTx(tx *gorm.DB) *VoucherRepository {
	return &VoucherRepository{db: tx}
}

func (r *VoucherRepository) Create(ctx context.Context, v *models.Voucher) error {
	return r.db.WithContext(ctx).Create(v).Error
}

// GetByID returns a voucher with its retailer preloaded.
func (r *VoucherRepository) GetByID(ctx context.Context, id string) (*models.Voucher, error) {
	var v models.Voucher
	err := r.db.WithContext(ctx).Preload("Retailer").Where("id = ?", id).First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// GetOwned returns the voucher only if retailerID owns it.
func (r *VoucherRepository) GetOwned(ctx context.Context, id, retailerID string) (*models.Voucher, error) {
	var v models.Voucher
	err := r.db.WithContext(ctx).Where("id = ? AND retailer_id = ?", id, retailerID).First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VoucherRepository) Update(ctx context.Context, v *models.Voucher) error {
	return r.db.WithContext(ctx).Model(v).
		Select("title", "description", "points_required", "quantity", "expiry_date", "image_url").
		Updates(v).Error
}

func (r *VoucherRepository) Delete(ctx context.Context, id, retailerID string) error {
	return r.db.WithContext(ctx).Where("id = ? AND retailer_id = ?", id, retailerID).Delete(&models.Voucher{}).Error
}

// ListAvailable returns in-stock, unexpired vouchers, cheapest first.
func (r *VoucherRepository) ListAvailable(ctx context.Context, now time.Time) ([]models.Voucher, error) {
	var list []models.Voucher
	err := r.db.WithContext(ctx).Preload("Retailer").
		Where("quantity > 0 AND expiry_date > ?", now).
		Order("points_required ASC").
		Find(&list).Error
	return list, err
}

// ListByRetailer returns all vouchers owned by retailerID, newest first.
func (r *VoucherRepository) ListByRetailer(ctx context.Context, retailerID string) ([]models.Voucher, error) {
	var list []models.Voucher
	err := r.db.WithContext(ctx).Preload("Retailer").
		Where("retailer_id = ?", retailerID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

// TakeOne decrements stock by one if the voucher is still in stock and unexpired at now.
func (r *VoucherRepository) TakeOne(ctx context.Context, id string, now time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.Voucher{}).
		Where("id = ? AND quantity > 0 AND expiry_date > ?", id, now).
		UpdateColumn("quantity", gorm.Expr("quantity - 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrOutOfStock
	}
	return nil
}

func (r *VoucherRepository) CountActiveByRetailer(ctx context.Context, retailerID string, now time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Voucher{}).
		Where("retailer_id = ? AND quantity > 0 AND expiry_date > ?", retailerID, now).
		Count(&n).Error
	return n, err
}
