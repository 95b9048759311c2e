package repository

import (
	"context"

	"loyaltytree/internal/domain"
	"loyaltytree/internal/models"
	"loyaltytree/pkg/location"

	"gorm.io/gorm"
)

type TreeRepository struct {
	db *gorm.DB
}

func NewTreeRepository(db *gorm.DB) *TreeRepository {
	return &TreeRepository{db: db}
}

func (r *TreeRepository) WithTx(tx *gorm.DB) *TreeRepository {
	return &TreeRepository{db: tx}
}

func (r *TreeRepository) Create(ctx context.Context, t *models.TreeSubmission) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TreeRepository) GetByID(ctx context.Context, id string) (*models.TreeSubmission, error) {
	var t models.TreeSubmission
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListByCustomer returns a customer's submissions, newest first.
func (r *TreeRepository) ListByCustomer(ctx context.Context, customerID string) ([]models.TreeSubmission, error) {
	var list []models.TreeSubmission
	err := r.db.WithContext(ctx).Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

// ListPending returns submissions awaiting review, oldest first, with the submitter preloaded.
func (r *TreeRepository) ListPending(ctx context.Context) ([]models.TreeSubmission, error) {
	var list []models.TreeSubmission
	err := r.db.WithContext(ctx).Where("status = ?", domain.TreeStatusPending).
		Preload("Customer").
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

// LeavePending moves a pending submission to status. It returns false when the
// submission was not pending, which makes every review transition apply at most once.
func (r *TreeRepository) LeavePending(ctx context.Context, id, status, reason string, points int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.TreeSubmission{}).
		Where("id = ? AND status = ?", id, domain.TreeStatusPending).
		Updates(map[string]interface{}{
			"status":           status,
			"rejection_reason": reason,
			"points_awarded":   points,
		})
	return res.RowsAffected > 0, res.Error
}

// ListApprovedWithin returns approved submissions inside box, newest first.
func (r *TreeRepository) ListApprovedWithin(ctx context.Context, box location.Box, limit int) ([]models.TreeSubmission, error) {
	if limit <= 0 {
		limit = -1 // no limit
	}
	var list []models.TreeSubmission
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.TreeStatusApproved).
		Where("latitude BETWEEN ? AND ?", box.MinLat, box.MaxLat).
		Where("longitude BETWEEN ? AND ?", box.MinLng, box.MaxLng).
		Order("created_at DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *TreeRepository) ListRecentApproved(ctx context.Context, limit int) ([]models.TreeSubmission, error) {
	if limit <= 0 {
		limit = -1
	}
	var list []models.TreeSubmission
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.TreeStatusApproved).
		Order("created_at DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}
