// Command seed loads demo accounts and vouchers into the configured database.
package main

import (
	"context"
	"errors"
	"log"
	"time"

	"loyaltytree/config"
	"loyaltytree/internal/database"
	"loyaltytree/internal/domain"
	"loyaltytree/internal/repository"
	"loyaltytree/internal/service"
)

type demoRetailer struct {
	email       string
	name        string
	description string
}

var retailers = []demoRetailer{
	{"green.coffee@example.com", "Green Coffee", "Eco-friendly coffee shop"},
	{"nature.basket@example.com", "Nature's Basket", "Organic grocery store"},
}

func main() {
	cfg := config.Load()
	if cfg.Admin.Email == "" {
		cfg.Admin.Email = "admin@loyaltytree.com"
	}
	if cfg.Admin.Password == "" {
		cfg.Admin.Password = "admin123"
	}

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	ctx := context.Background()
	if err := database.SeedAdmin(ctx, db, &cfg.Admin); err != nil {
		log.Fatalf("[seed] admin: %v", err)
	}

	customerRepo := repository.NewCustomerRepository(db)
	retailerRepo := repository.NewRetailerRepository(db)
	authSvc := service.NewAuthService(&cfg.JWT, customerRepo, retailerRepo)
	voucherSvc := service.NewVoucherService(repository.NewVoucherRepository(db), repository.NewRedemptionRepository(db), nil, cfg.Upload.Placeholder)

	now := time.Now().UTC()
	for _, r := range retailers {
		acc, _, err := authSvc.Register(ctx, service.RegisterInput{
			Email:       r.email,
			Password:    "retailer123",
			Name:        r.name,
			AccountType: domain.AccountRetailer,
		})
		if errors.Is(err, service.ErrEmailExists) {
			log.Printf("[seed] retailer %s exists, skipping", r.email)
			continue
		}
		if err != nil {
			log.Fatalf("[seed] retailer %s: %v", r.email, err)
		}
		desc := r.description
		if _, err := authSvc.UpdateProfile(ctx, acc, service.ProfileUpdate{Description: &desc}); err != nil {
			log.Fatalf("[seed] retailer %s profile: %v", r.email, err)
		}

		vouchers := []service.VoucherInput{
			{
				Title:          "10% Off",
				Description:    "Get 10% off your next purchase at " + r.name,
				PointsRequired: 500,
				Quantity:       100,
				ExpiryDate:     now.AddDate(0, 0, 30),
			},
			{
				Title:          "Free Item",
				Description:    "Get a free item of your choice at " + r.name,
				PointsRequired: 1000,
				Quantity:       50,
				ExpiryDate:     now.AddDate(0, 0, 60),
			},
		}
		for _, v := range vouchers {
			if _, err := voucherSvc.Create(ctx, acc.ID, v); err != nil {
				log.Fatalf("[seed] voucher %q for %s: %v", v.Title, r.name, err)
			}
		}
		log.Printf("[seed] retailer %s created with %d vouchers", r.name, len(vouchers))
	}
	log.Println("[seed] done")
}
