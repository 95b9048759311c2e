package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"loyaltytree/config"
	"loyaltytree/internal/domain"
	"loyaltytree/internal/models"
	"loyaltytree/internal/repository"
	"loyaltytree/pkg/redeemcode"

	"gorm.io/gorm"
)

const (
	// maxCodeAttempts bounds how often a redemption is retried after its code
	// collides on insert.
	maxCodeAttempts = 5
	// maxCodeProbes bounds the pre-insert existence checks for a single attempt.
	maxCodeProbes = 10
)

type RedeemResult struct {
	Redemption      *models.Redemption `json:"redemption"`
	RemainingPoints int                `json:"remainingPoints"`
}

// RedemptionService is the points ledger: it spends customer points on vouchers
// and tracks the resulting codes through active, used and expired.
type RedemptionService struct {
	db          *gorm.DB
	vouchers    *repository.VoucherRepository
	customers   *repository.CustomerRepository
	redemptions *repository.RedemptionRepository
	cfg         config.RedemptionConfig
	events      EventPublisher
	now         func() time.Time
	newCode     func() (string, error)
}

func NewRedemptionService(db *gorm.DB, vouchers *repository.VoucherRepository, customers *repository.CustomerRepository,
	redemptions *repository.RedemptionRepository, cfg config.RedemptionConfig, events EventPublisher) *RedemptionService {
	return &RedemptionService{
		db:          db,
		vouchers:    vouchers,
		customers:   customers,
		redemptions: redemptions,
		cfg:         cfg,
		events:      publisherOrNoop(events),
		now:         func() time.Time { return time.Now().UTC() },
		newCode:     redeemcode.New,
	}
}

// freeCode draws codes until one is not in use. The unique index on insert stays the final arbiter.
func (s *RedemptionService) freeCode(ctx context.Context) (string, error) {
	for i := 0; i < maxCodeProbes; i++ {
		code, err := s.newCode()
		if err != nil {
			return "", err
		}
		exists, err := s.redemptions.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", errors.New("could not find a free redemption code")
}

// Redeem spends the voucher's cost from the customer's balance. The stock decrement,
// the debit and the redemption row commit together or not at all.
func (s *RedemptionService) Redeem(ctx context.Context, customerID, voucherID string) (*RedeemResult, error) {
	now := s.now()
	v, err := s.vouchers.GetByID(ctx, voucherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVoucherNotFound
		}
		return nil, err
	}
	if v.Quantity <= 0 {
		return nil, ErrOutOfStock
	}
	if !now.Before(v.ExpiryDate) {
		return nil, ErrVoucherExpired
	}
	c, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	if c.Points < v.PointsRequired {
		return nil, ErrInsufficientPoints
	}

	expiresAt := now.Add(s.cfg.TTL)
	if v.ExpiryDate.Before(expiresAt) {
		expiresAt = v.ExpiryDate
	}

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := s.freeCode(ctx)
		if err != nil {
			return nil, err
		}
		rd := &models.Redemption{
			CustomerID:     customerID,
			VoucherID:      v.ID,
			Status:         domain.RedemptionActive,
			PointsSpent:    v.PointsRequired,
			RedemptionCode: code,
			ExpiresAt:      expiresAt,
		}
		var balance int
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := s.vouchers.WithTx(tx).TakeOne(ctx, v.ID, now); err != nil {
				return err
			}
			var err error
			balance, err = s.customers.WithTx(tx).Debit(ctx, customerID, v.PointsRequired)
			if err != nil {
				return err
			}
			return s.redemptions.WithTx(tx).Create(ctx, rd)
		})
		switch {
		case err == nil:
			v.Quantity--
			rd.Voucher = v
			s.events.PointsChanged(customerID, balance, -v.PointsRequired, domain.PointsReasonVoucherRedeemed)
			return &RedeemResult{Redemption: rd, RemainingPoints: balance}, nil
		case errors.Is(err, gorm.ErrDuplicatedKey):
			log.Printf("[redeem] code %s collided on insert (attempt %d)", code, attempt)
			continue
		case errors.Is(err, repository.ErrOutOfStock):
			// lost a race for the last unit, or the voucher expired meanwhile
			if !now.Before(v.ExpiryDate) {
				return nil, ErrVoucherExpired
			}
			return nil, ErrOutOfStock
		case errors.Is(err, repository.ErrInsufficientPoints):
			return nil, ErrInsufficientPoints
		default:
			return nil, fmt.Errorf("redeem voucher: %w", err)
		}
	}
	return nil, errors.New("redeem voucher: redemption code kept colliding")
}

// ListMine returns the customer's redemptions, newest first, after expiring any that lapsed.
func (s *RedemptionService) ListMine(ctx context.Context, customerID string) ([]models.Redemption, error) {
	if _, err := s.redemptions.ExpireStale(ctx, s.now(), customerID); err != nil {
		log.Printf("[redeem] expire stale for %s: %v", customerID, err)
	}
	return s.redemptions.ListByCustomer(ctx, customerID)
}

// MarkUsed is called by the retailer at the till. Codes for another retailer's
// vouchers are reported as not found.
func (s *RedemptionService) MarkUsed(ctx context.Context, retailerID, code string) (*models.Redemption, error) {
	if !redeemcode.Valid(code) {
		return nil, ErrRedemptionNotFound
	}
	rd, err := s.redemptions.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRedemptionNotFound
		}
		return nil, err
	}
	if rd.Voucher == nil || rd.Voucher.RetailerID != retailerID {
		return nil, ErrRedemptionNotFound
	}
	now := s.now()
	switch rd.Status {
	case domain.RedemptionUsed:
		return nil, ErrRedemptionUsed
	case domain.RedemptionExpired:
		return nil, ErrRedemptionExpired
	}
	if !now.Before(rd.ExpiresAt) {
		if _, err := s.redemptions.ExpireStale(ctx, now, rd.CustomerID); err != nil {
			log.Printf("[redeem] expire stale for %s: %v", rd.CustomerID, err)
		}
		return nil, ErrRedemptionExpired
	}
	ok, err := s.redemptions.MarkUsed(ctx, rd.ID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		// changed under us; report the state it moved to
		return nil, ErrRedemptionUsed
	}
	rd.Status = domain.RedemptionUsed
	rd.UsedAt = &now
	return rd, nil
}

// ExpireStale marks every lapsed active redemption as expired.
func (s *RedemptionService) ExpireStale(ctx context.Context) (int64, error) {
	return s.redemptions.ExpireStale(ctx, s.now(), "")
}

// RunSweeper calls ExpireStale every interval until ctx is cancelled.
func (s *RedemptionService) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			n, err := s.ExpireStale(ctx)
			if err != nil {
				log.Printf("[redeem] sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("[redeem] expired %d redemptions", n)
			}
		}
	}
}
