package service

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCreateVoucherValidation(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	r := e.retailer(t, "shop@example.com")
	exp := time.Now().UTC().Add(24 * time.Hour)

	cases := []struct {
		name string
		in   VoucherInput
		want error
	}{
		{"no title", VoucherInput{Title: " ", PointsRequired: 10, Quantity: 1, ExpiryDate: exp}, ErrTitleRequired},
		{"zero cost", VoucherInput{Title: "x", PointsRequired: 0, Quantity: 1, ExpiryDate: exp}, ErrInvalidPointCost},
		{"negative quantity", VoucherInput{Title: "x", PointsRequired: 10, Quantity: -1, ExpiryDate: exp}, ErrInvalidQuantity},
		{"zero quantity", VoucherInput{Title: "x", PointsRequired: 10, Quantity: 0, ExpiryDate: exp}, ErrInvalidQuantity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := e.cat.Create(ctx, r.ID, tc.in); !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestCreateThenListForRetailer(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	r := e.retailer(t, "shop@example.com")
	other := e.retailer(t, "other@example.com")
	exp := time.Now().UTC().Add(30 * 24 * time.Hour).Truncate(time.Second)

	v, err := e.cat.Create(ctx, r.ID, VoucherInput{
		Title:          "Free Item",
		Description:    "Get a free item of your choice",
		PointsRequired: 1000,
		Quantity:       50,
		ExpiryDate:     exp,
		ImageURL:       "https://cdn.test/free.png",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	e.voucher(t, other.ID, 10, 1, exp)

	list, err := e.cat.ListForRetailer(ctx, r.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("len = %d, want 1", len(list))
	}
	got := list[0]
	if got.ID != v.ID || got.Title != "Free Item" || got.Description != "Get a free item of your choice" ||
		got.PointsRequired != 1000 || got.Quantity != 50 || got.ImageURL != "https://cdn.test/free.png" {
		t.Errorf("voucher = %+v", got)
	}
	if !got.ExpiryDate.Equal(exp) {
		t.Errorf("expiry = %v, want %v", got.ExpiryDate, exp)
	}
	if got.Retailer == nil || got.Retailer.Name != "Test Shop" {
		t.Error("expected retailer preloaded")
	}
}

func TestPlaceholderImageIsStable(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	r := e.retailer(t, "shop@example.com")
	v := e.voucher(t, r.ID, 500, 10, time.Now().UTC().Add(time.Hour))

	first, err := e.cat.ListAvailable(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	second, err := e.cat.ListAvailable(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := "https://img.test/seed/" + v.ID + "/300/200"
	if first[0].ImageURL != want || second[0].ImageURL != want {
		t.Errorf("image = %q / %q, want %q", first[0].ImageURL, second[0].ImageURL, want)
	}
}

func TestListAvailableFiltersAndSorts(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	r := e.retailer(t, "shop@example.com")
	now := time.Now().UTC()

	pricey := e.voucher(t, r.ID, 1000, 5, now.Add(time.Hour))
	cheap := e.voucher(t, r.ID, 200, 5, now.Add(time.Hour))
	expired := e.voucher(t, r.ID, 100, 5, now.Add(time.Hour))
	soldOut := e.voucher(t, r.ID, 50, 5, now.Add(time.Hour))

	past := now.Add(-time.Minute)
	if _, err := e.cat.Update(ctx, r.ID, expired.ID, VoucherPatch{ExpiryDate: &past}); err != nil {
		t.Fatalf("expire: %v", err)
	}
	zero := 0
	if _, err := e.cat.Update(ctx, r.ID, soldOut.ID, VoucherPatch{Quantity: &zero}); err != nil {
		t.Fatalf("sell out: %v", err)
	}

	list, err := e.cat.ListAvailable(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	if list[0].ID != cheap.ID || list[1].ID != pricey.ID {
		t.Errorf("order = [%d %d], want ascending cost", list[0].PointsRequired, list[1].PointsRequired)
	}
}

func TestUpdateVoucherOwnership(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	owner := e.retailer(t, "owner@example.com")
	intruder := e.retailer(t, "intruder@example.com")
	v := e.voucher(t, owner.ID, 500, 10, time.Now().UTC().Add(time.Hour))

	title := "Stolen"
	if _, err := e.cat.Update(ctx, intruder.ID, v.ID, VoucherPatch{Title: &title}); !errors.Is(err, ErrVoucherNotFound) {
		t.Errorf("err = %v, want ErrVoucherNotFound", err)
	}
	if err := e.cat.Delete(ctx, intruder.ID, v.ID); !errors.Is(err, ErrVoucherNotFound) {
		t.Errorf("delete err = %v, want ErrVoucherNotFound", err)
	}

	bad := 0
	if _, err := e.cat.Update(ctx, owner.ID, v.ID, VoucherPatch{PointsRequired: &bad}); !errors.Is(err, ErrInvalidPointCost) {
		t.Errorf("err = %v, want ErrInvalidPointCost", err)
	}

	title = "15% Off"
	cost := 750
	updated, err := e.cat.Update(ctx, owner.ID, v.ID, VoucherPatch{Title: &title, PointsRequired: &cost})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "15% Off" || updated.PointsRequired != 750 || updated.Quantity != 10 {
		t.Errorf("updated = %+v", updated)
	}
}

func TestDeleteVoucher(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	r := e.retailer(t, "shop@example.com")
	c := e.customer(t, "c@example.com", 1000)
	unused := e.voucher(t, r.ID, 100, 5, time.Now().UTC().Add(time.Hour))
	used := e.voucher(t, r.ID, 100, 5, time.Now().UTC().Add(time.Hour))

	if _, err := e.ledger.Redeem(ctx, c.ID, used.ID); err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if err := e.cat.Delete(ctx, r.ID, used.ID); !errors.Is(err, ErrVoucherHasRedemptions) {
		t.Errorf("err = %v, want ErrVoucherHasRedemptions", err)
	}
	if err := e.cat.Delete(ctx, r.ID, unused.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	list, err := e.cat.ListForRetailer(ctx, r.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != used.ID {
		t.Errorf("remaining = %d vouchers", len(list))
	}
}

func TestRetailerStats(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	r := e.retailer(t, "shop@example.com")
	other := e.retailer(t, "other@example.com")
	c := e.customer(t, "c@example.com", 5000)
	exp := time.Now().UTC().Add(24 * time.Hour)

	ten := e.voucher(t, r.ID, 500, 10, exp)
	free := e.voucher(t, r.ID, 1000, 1, exp)
	foreign := e.voucher(t, other.ID, 100, 10, exp)

	for i := 0; i < 3; i++ {
		if _, err := e.ledger.Redeem(ctx, c.ID, ten.ID); err != nil {
			t.Fatalf("redeem: %v", err)
		}
	}
	if _, err := e.ledger.Redeem(ctx, c.ID, free.ID); err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if _, err := e.ledger.Redeem(ctx, c.ID, foreign.ID); err != nil {
		t.Fatalf("redeem: %v", err)
	}

	stats, err := e.cat.Stats(ctx, r.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	// the free item sold its only unit and is no longer active
	if stats.ActiveVouchers != 1 {
		t.Errorf("activeVouchers = %d, want 1", stats.ActiveVouchers)
	}
	if stats.TotalRedemptions != 4 {
		t.Errorf("totalRedemptions = %d, want 4", stats.TotalRedemptions)
	}
	if stats.TotalPointsRedeemed != 2500 {
		t.Errorf("totalPointsRedeemed = %d, want 2500", stats.TotalPointsRedeemed)
	}

	empty, err := e.cat.Stats(ctx, e.retailer(t, "new@example.com").ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if *empty != (RetailerStats{}) {
		t.Errorf("empty stats = %+v", empty)
	}
}
