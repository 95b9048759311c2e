package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"loyaltytree/internal/models"
	"loyaltytree/internal/repository"
	"loyaltytree/pkg/imagestore"

	"gorm.io/gorm"
)

type VoucherInput struct {
	Title          string
	Description    string
	PointsRequired int
	Quantity       int
	ExpiryDate     time.Time
	ImageURL       string
}

// VoucherPatch is a partial update; nil fields keep their stored values.
type VoucherPatch struct {
	Title          *string
	Description    *string
	PointsRequired *int
	Quantity       *int
	ExpiryDate     *time.Time
	ImageURL       *string
}

type RetailerStats struct {
	ActiveVouchers      int64 `json:"activeVouchers"`
	TotalRedemptions    int64 `json:"totalRedemptions"`
	TotalPointsRedeemed int64 `json:"totalPointsRedeemed"`
}

type VoucherService struct {
	vouchers    *repository.VoucherRepository
	redemptions *repository.RedemptionRepository
	images      imagestore.Store
	placeholder string
	now         func() time.Time
}

func NewVoucherService(vouchers *repository.VoucherRepository, redemptions *repository.RedemptionRepository,
	images imagestore.Store, placeholderBase string) *VoucherService {
	return &VoucherService{
		vouchers:    vouchers,
		redemptions: redemptions,
		images:      images,
		placeholder: strings.TrimRight(placeholderBase, "/"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// PlaceholderImage returns the stand-in artwork for a voucher without an image.
// It depends only on the voucher id, so repeated reads return the same URL.
func (s *VoucherService) PlaceholderImage(voucherID string) string {
	return fmt.Sprintf("%s/%s/300/200", s.placeholder, voucherID)
}

func (s *VoucherService) decorate(list []models.Voucher) []models.Voucher {
	for i := range list {
		if list[i].ImageURL == "" {
			list[i].ImageURL = s.PlaceholderImage(list[i].ID)
		}
	}
	return list
}

func (s *VoucherService) Create(ctx context.Context, retailerID string, in VoucherInput) (*models.Voucher, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if in.PointsRequired <= 0 {
		return nil, ErrInvalidPointCost
	}
	if in.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	v := &models.Voucher{
		RetailerID:     retailerID,
		Title:          title,
		Description:    in.Description,
		PointsRequired: in.PointsRequired,
		Quantity:       in.Quantity,
		ExpiryDate:     in.ExpiryDate.UTC(),
		ImageURL:       in.ImageURL,
	}
	if err := s.vouchers.Create(ctx, v); err != nil {
		return nil, fmt.Errorf("create voucher: %w", err)
	}
	return v, nil
}

func (s *VoucherService) owned(ctx context.Context, retailerID, id string) (*models.Voucher, error) {
	v, err := s.vouchers.GetOwned(ctx, id, retailerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVoucherNotFound
		}
		return nil, err
	}
	return v, nil
}

// Update applies patch to a voucher owned by retailerID. A voucher owned by someone
// else is reported as not found.
func (s *VoucherService) Update(ctx context.Context, retailerID, id string, patch VoucherPatch) (*models.Voucher, error) {
	v, err := s.owned(ctx, retailerID, id)
	if err != nil {
		return nil, err
	}
	oldImage := v.ImageURL
	if patch.Title != nil && strings.TrimSpace(*patch.Title) != "" {
		v.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		v.Description = *patch.Description
	}
	if patch.PointsRequired != nil {
		if *patch.PointsRequired <= 0 {
			return nil, ErrInvalidPointCost
		}
		v.PointsRequired = *patch.PointsRequired
	}
	if patch.Quantity != nil {
		if *patch.Quantity < 0 {
			return nil, ErrInvalidQuantity
		}
		v.Quantity = *patch.Quantity
	}
	if patch.ExpiryDate != nil {
		v.ExpiryDate = patch.ExpiryDate.UTC()
	}
	if patch.ImageURL != nil {
		v.ImageURL = *patch.ImageURL
	}
	if err := s.vouchers.Update(ctx, v); err != nil {
		return nil, fmt.Errorf("update voucher: %w", err)
	}
	if oldImage != "" && oldImage != v.ImageURL {
		s.dropImage(ctx, oldImage)
	}
	return v, nil
}

func (s *VoucherService) Delete(ctx context.Context, retailerID, id string) error {
	v, err := s.owned(ctx, retailerID, id)
	if err != nil {
		return err
	}
	n, err := s.redemptions.CountByVoucher(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrVoucherHasRedemptions
	}
	if err := s.vouchers.Delete(ctx, id, retailerID); err != nil {
		return fmt.Errorf("delete voucher: %w", err)
	}
	if v.ImageURL != "" {
		s.dropImage(ctx, v.ImageURL)
	}
	return nil
}

func (s *VoucherService) dropImage(ctx context.Context, url string) {
	if s.images == nil {
		return
	}
	if err := s.images.Delete(ctx, url); err != nil {
		log.Printf("[voucher] delete image %s: %v", url, err)
	}
}

// ListAvailable is the public catalogue: in stock, unexpired, cheapest first.
func (s *VoucherService) ListAvailable(ctx context.Context) ([]models.Voucher, error) {
	list, err := s.vouchers.ListAvailable(ctx, s.now())
	if err != nil {
		return nil, err
	}
	return s.decorate(list), nil
}

func (s *VoucherService) ListForRetailer(ctx context.Context, retailerID string) ([]models.Voucher, error) {
	list, err := s.vouchers.ListByRetailer(ctx, retailerID)
	if err != nil {
		return nil, err
	}
	return s.decorate(list), nil
}

func (s *VoucherService) Stats(ctx context.Context, retailerID string) (*RetailerStats, error) {
	active, err := s.vouchers.CountActiveByRetailer(ctx, retailerID, s.now())
	if err != nil {
		return nil, err
	}
	totals, err := s.redemptions.TotalsForRetailer(ctx, retailerID)
	if err != nil {
		return nil, err
	}
	return &RetailerStats{
		ActiveVouchers:      active,
		TotalRedemptions:    totals.Count,
		TotalPointsRedeemed: totals.Points,
	}, nil
}
