package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"loyaltytree/config"
	"loyaltytree/internal/database"
	"loyaltytree/internal/models"
	"loyaltytree/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type testEnv struct {
	db          *gorm.DB
	customers   *repository.CustomerRepository
	retailers   *repository.RetailerRepository
	trees       *repository.TreeRepository
	vouchers    *repository.VoucherRepository
	redemptions *repository.RedemptionRepository
	events      *recordingPublisher

	auth   *AuthService
	tree   *TreeService
	cat    *VoucherService
	ledger *RedemptionService
}

type pointsEvent struct {
	customerID string
	balance    int
	delta      int
	reason     string
}

type recordingPublisher struct {
	mu      sync.Mutex
	points  []pointsEvent
	markers []TreeMarker
}

func (p *recordingPublisher) PointsChanged(customerID string, balance, delta int, reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.points = append(p.points, pointsEvent{customerID, balance, delta, reason})
}

func (p *recordingPublisher) TreePlanted(m TreeMarker) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.markers = append(p.markers, m)
}

var testJWT = &config.JWTConfig{Secret: "test-secret", Expiry: time.Hour, Issuer: "test"}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.NewDB(&config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          "file:" + uuid.NewString() + "?mode=memory&cache=shared&_pragma=foreign_keys(1)",
		MaxIdleConns: 2,
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	e := &testEnv{
		db:          db,
		customers:   repository.NewCustomerRepository(db),
		retailers:   repository.NewRetailerRepository(db),
		trees:       repository.NewTreeRepository(db),
		vouchers:    repository.NewVoucherRepository(db),
		redemptions: repository.NewRedemptionRepository(db),
		events:      &recordingPublisher{},
	}
	e.auth = NewAuthService(testJWT, e.customers, e.retailers)
	e.tree = NewTreeService(db, e.trees, e.customers, config.PointsConfig{PerTree: 100},
		config.MapConfig{FuzzMeters: 0}, e.events)
	e.cat = NewVoucherService(e.vouchers, e.redemptions, nil, "https://img.test/seed")
	e.ledger = NewRedemptionService(db, e.vouchers, e.customers, e.redemptions,
		config.RedemptionConfig{TTL: 30 * 24 * time.Hour}, e.events)
	return e
}

func (e *testEnv) customer(t *testing.T, email string, points int) *models.Customer {
	t.Helper()
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	c := &models.Customer{Email: email, PasswordHash: string(hash), Name: "Test Customer", Points: points, Role: "user"}
	if err := e.customers.Create(context.Background(), c); err != nil {
		t.Fatalf("create customer: %v", err)
	}
	return c
}

func (e *testEnv) retailer(t *testing.T, email string) *models.Retailer {
	t.Helper()
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	r := &models.Retailer{Email: email, PasswordHash: string(hash), Name: "Test Shop"}
	if err := e.retailers.Create(context.Background(), r); err != nil {
		t.Fatalf("create retailer: %v", err)
	}
	return r
}

func (e *testEnv) voucher(t *testing.T, retailerID string, cost, qty int, expiry time.Time) *models.Voucher {
	t.Helper()
	v, err := e.cat.Create(context.Background(), retailerID, VoucherInput{
		Title:          "10% Off",
		Description:    "Get 10% off your next purchase",
		PointsRequired: cost,
		Quantity:       qty,
		ExpiryDate:     expiry,
	})
	if err != nil {
		t.Fatalf("create voucher: %v", err)
	}
	return v
}

func (e *testEnv) balance(t *testing.T, customerID string) int {
	t.Helper()
	p, err := e.customers.Points(context.Background(), customerID)
	if err != nil {
		t.Fatalf("read points: %v", err)
	}
	return p
}
