package repository

import (
	"context"
	"time"

	"loyaltytree/internal/domain"
	"loyaltytree/internal/models"

	"gorm.io/gorm"
)

type RedemptionTotals struct {
	Count  int64
	Points int64
}

type RedemptionRepository struct {
	db *gorm.DB
}

func NewRedemptionRepository(db *gorm.DB) *RedemptionRepository {
	return &RedemptionRepository{db: db}
}

func (r *RedemptionRepository) WithTx(tx *gorm.DB) *RedemptionRepository {
	return &RedemptionRepository{db: tx}
}

func (r *RedemptionRepository) Create(ctx context.Context, rd *models.Redemption) error {
	return r.db.WithContext(ctx).Create(rd).Error
}

func (r *RedemptionRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Redemption{}).Where("redemption_code = ?", code).Count(&n).Error
	return n > 0, err
}

// GetByCode returns a redemption with its voucher and the voucher's retailer preloaded.
func (r *RedemptionRepository) GetByCode(ctx context.Context, code string) (*models.Redemption, error) {
	var rd models.Redemption
	err := r.db.WithContext(ctx).Preload("Voucher.Retailer").Where("redemption_code = ?", code).First(&rd).Error
	if err != nil {
		return nil, err
	}
	return &rd, nil
}

// ListByCustomer returns a customer's redemptions, newest first, with voucher and retailer joined in.
func (r *RedemptionRepository) ListByCustomer(ctx context.Context, customerID string) ([]models.Redemption, error) {
	var list []models.Redemption
	err := r.db.WithContext(ctx).Preload("Voucher.Retailer").
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *RedemptionRepository) CountByVoucher(ctx context.Context, voucherID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Redemption{}).Where("voucher_id = ?", voucherID).Count(&n).Error
	return n, err
}

// MarkUsed moves an active, unexpired redemption to used. It returns false if the row was not in that state.
func (r *RedemptionRepository) MarkUsed(ctx context.Context, id string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Redemption{}).
		Where("id = ? AND status = ? AND expires_at > ?", id, domain.RedemptionActive, now).
		Updates(map[string]interface{}{"status": domain.RedemptionUsed, "used_at": now})
	return res.RowsAffected > 0, res.Error
}

// ExpireStale moves every active redemption whose expiry has passed to expired.
// Scoped to one customer when customerID is non-empty.
func (r *RedemptionRepository) ExpireStale(ctx context.Context, now time.Time, customerID string) (int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Redemption{}).
		Where("status = ? AND expires_at <= ?", domain.RedemptionActive, now)
	if customerID != "" {
		q = q.Where("customer_id = ?", customerID)
	}
	res := q.Update("status", domain.RedemptionExpired)
	return res.RowsAffected, res.Error
}

// TotalsForRetailer counts and sums points over every redemption of the retailer's vouchers.
func (r *RedemptionRepository) TotalsForRetailer(ctx context.Context, retailerID string) (*RedemptionTotals, error) {
	var t RedemptionTotals
	err := r.db.WithContext(ctx).Model(&models.Redemption{}).
		Select("COUNT(*) AS count, COALESCE(SUM(voucher_redemptions.points_spent), 0) AS points").
		Joins("JOIN vouchers ON vouchers.id = voucher_redemptions.voucher_id").
		Where("vouchers.retailer_id = ?", retailerID).
		Scan(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}
