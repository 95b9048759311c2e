package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"loyaltytree/internal/domain"
	"loyaltytree/internal/models"
	"loyaltytree/pkg/redeemcode"

	"gorm.io/gorm"
)

func (e *testEnv) redemptionRows(t *testing.T) int64 {
	t.Helper()
	var n int64
	if err := e.db.Model(&models.Redemption{}).Count(&n).Error; err != nil {
		t.Fatalf("count redemptions: %v", err)
	}
	return n
}

func (e *testEnv) quantity(t *testing.T, voucherID string) int {
	t.Helper()
	v, err := e.vouchers.GetByID(context.Background(), voucherID)
	if err != nil {
		t.Fatalf("get voucher: %v", err)
	}
	return v.Quantity
}

// beforeTx runs fn once, after the pre-checks have passed and before the transaction opens.
func (e *testEnv) beforeTx(fn func()) {
	var once sync.Once
	e.ledger.newCode = func() (string, error) {
		once.Do(fn)
		return redeemcode.New()
	}
}

func TestRedeemRollsBackStockWhenDebitFails(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	r := e.retailer(t, "shop@example.com")
	c := e.customer(t, "c@example.com", 600)
	v := e.voucher(t, r.ID, 500, 3, time.Now().Add(24*time.Hour))

	// a concurrent spend lands between the balance check and the debit
	e.beforeTx(func() {
		if _, err := e.customers.Debit(ctx, c.ID, 300); err != nil {
			t.Fatalf("spend: %v", err)
		}
	})
	if _, err := e.ledger.Redeem(ctx, c.ID, v.ID); !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("err = %v, want ErrInsufficientPoints", err)
	}
	if got := e.quantity(t, v.ID); got != 3 {
		t.Errorf("quantity = %d, want 3 (decrement rolled back)", got)
	}
	if got := e.balance(t, c.ID); got != 300 {
		t.Errorf("balance = %d, want 300", got)
	}
	if n := e.redemptionRows(t); n != 0 {
		t.Errorf("redemptions = %d, want 0", n)
	}
	if len(e.events.points) != 0 {
		t.Errorf("events = %+v, want none", e.events.points)
	}
}

func TestRedeemLosesLastUnitInsideTransaction(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	r := e.retailer(t, "shop@example.com")
	c := e.customer(t, "c@example.com", 600)
	v := e.voucher(t, r.ID, 500, 1, time.Now().Add(24*time.Hour))

	e.beforeTx(func() {
		if err := e.vouchers.TakeOne(ctx, v.ID, time.Now().UTC()); err != nil {
			t.Fatalf("take last unit: %v", err)
		}
	})
	if _, err := e.ledger.Redeem(ctx, c.ID, v.ID); !errors.Is(err, ErrOutOfStock) {
		t.Fatalf("err = %v, want ErrOutOfStock", err)
	}
	if got := e.balance(t, c.ID); got != 600 {
		t.Errorf("balance = %d, want 600", got)
	}
	if n := e.redemptionRows(t); n != 0 {
		t.Errorf("redemptions = %d, want 0", n)
	}
}

func TestRedeemRetriesAfterCodeCollision(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	r := e.retailer(t, "shop@example.com")
	c := e.customer(t, "c@example.com", 600)
	v := e.voucher(t, r.ID, 500, 3, time.Now().Add(24*time.Hour))

	const first, second = "VR-COLLIDE1", "VR-FRESH001"
	codes := []string{first, second}
	calls := 0
	e.ledger.newCode = func() (string, error) {
		code := codes[calls]
		calls++
		return code, nil
	}

	// another redemption takes the first code after the existence check but before our insert
	stolen := false
	err := e.db.Callback().Create().Before("gorm:create").Register("test:take_code", func(tx *gorm.DB) {
		rd, ok := tx.Statement.Dest.(*models.Redemption)
		if !ok || stolen || rd.RedemptionCode != first {
			return
		}
		stolen = true
		dup := &models.Redemption{
			CustomerID:     rd.CustomerID,
			VoucherID:      rd.VoucherID,
			Status:         domain.RedemptionActive,
			PointsSpent:    1,
			RedemptionCode: first,
			ExpiresAt:      rd.ExpiresAt,
		}
		if err := tx.Session(&gorm.Session{NewDB: true}).Create(dup).Error; err != nil {
			tx.AddError(err)
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	res, err := e.ledger.Redeem(ctx, c.ID, v.ID)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if !stolen {
		t.Fatal("collision was never staged")
	}
	if calls != 2 {
		t.Errorf("codes drawn = %d, want 2", calls)
	}
	if res.Redemption.RedemptionCode != second {
		t.Errorf("code = %q, want %q", res.Redemption.RedemptionCode, second)
	}
	// the failed attempt rolled back, including the row that took its code
	if n := e.redemptionRows(t); n != 1 {
		t.Errorf("redemptions = %d, want 1", n)
	}
	if got := e.quantity(t, v.ID); got != 2 {
		t.Errorf("quantity = %d, want 2", got)
	}
	if got := e.balance(t, c.ID); got != 100 {
		t.Errorf("balance = %d, want 100", got)
	}
	if len(e.events.points) != 1 {
		t.Errorf("events = %d, want 1", len(e.events.points))
	}
}

// raceRedeem runs Redeem for every customer at once and returns the errors in order.
func raceRedeem(t *testing.T, e *testEnv, customerIDs []string, voucherID string) []error {
	t.Helper()
	// one connection keeps the shared in-memory database free of table-lock errors;
	// requests still interleave between their checks and their transactions
	sqlDB, err := e.db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	errs := make([]error, len(customerIDs))
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i, id := range customerIDs {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			<-start
			_, errs[i] = e.ledger.Redeem(context.Background(), id, voucherID)
		}(i, id)
	}
	close(start)
	wg.Wait()
	return errs
}

func TestConcurrentRedeemLastUnit(t *testing.T) {
	e := newTestEnv(t)
	r := e.retailer(t, "shop@example.com")
	v := e.voucher(t, r.ID, 500, 1, time.Now().Add(24*time.Hour))
	var ids []string
	for i := 0; i < 8; i++ {
		ids = append(ids, e.customer(t, "c"+string(rune('a'+i))+"@example.com", 500).ID)
	}

	ok := 0
	for i, err := range raceRedeem(t, e, ids, v.ID) {
		switch {
		case err == nil:
			ok++
		case !errors.Is(err, ErrOutOfStock):
			t.Errorf("customer %d: err = %v, want ErrOutOfStock", i, err)
		}
	}
	if ok != 1 {
		t.Fatalf("successful redeems = %d, want 1", ok)
	}
	if got := e.quantity(t, v.ID); got != 0 {
		t.Errorf("quantity = %d, want 0", got)
	}
	if n := e.redemptionRows(t); n != 1 {
		t.Errorf("redemptions = %d, want 1", n)
	}
	total := 0
	for _, id := range ids {
		total += e.balance(t, id)
	}
	if total != 8*500-500 {
		t.Errorf("total balance = %d, want %d", total, 8*500-500)
	}
}

func TestConcurrentRedeemSameCustomer(t *testing.T) {
	e := newTestEnv(t)
	r := e.retailer(t, "shop@example.com")
	c := e.customer(t, "c@example.com", 500)
	v := e.voucher(t, r.ID, 500, 10, time.Now().Add(24*time.Hour))
	ids := make([]string, 6)
	for i := range ids {
		ids[i] = c.ID
	}

	ok := 0
	for i, err := range raceRedeem(t, e, ids, v.ID) {
		switch {
		case err == nil:
			ok++
		case !errors.Is(err, ErrInsufficientPoints):
			t.Errorf("request %d: err = %v, want ErrInsufficientPoints", i, err)
		}
	}
	if ok != 1 {
		t.Fatalf("successful redeems = %d, want 1", ok)
	}
	if got := e.quantity(t, v.ID); got != 9 {
		t.Errorf("quantity = %d, want 9 (losing decrements rolled back)", got)
	}
	if n := e.redemptionRows(t); n != 1 {
		t.Errorf("redemptions = %d, want 1", n)
	}
	if got := e.balance(t, c.ID); got != 0 {
		t.Errorf("balance = %d, want 0", got)
	}
}
