package service

import (
	"context"
	"errors"
	"testing"

	"loyaltytree/internal/domain"
)

func TestRegisterAndLogin(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	acc, token, err := e.auth.Register(ctx, RegisterInput{
		Email:       "  Jane@Example.com ",
		Password:    "password123",
		AccountType: domain.AccountCustomer,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if token == "" {
		t.Fatal("expected token")
	}
	p := acc.Profile()
	if p.Email != "jane@example.com" {
		t.Errorf("email = %q, want normalised", p.Email)
	}
	if p.Name != "jane" {
		t.Errorf("default name = %q, want %q", p.Name, "jane")
	}
	if p.Points == nil || *p.Points != 0 {
		t.Errorf("points = %v, want 0", p.Points)
	}
	if p.Role != domain.RoleUser {
		t.Errorf("role = %q, want %q", p.Role, domain.RoleUser)
	}

	got, _, err := e.auth.Login(ctx, "jane@example.com", "password123", domain.AccountCustomer)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got.ID != acc.ID {
		t.Errorf("login id = %s, want %s", got.ID, acc.ID)
	}

	if _, _, err := e.auth.Login(ctx, "jane@example.com", "wrong", domain.AccountCustomer); !errors.Is(err, ErrInvalidCreds) {
		t.Errorf("wrong password err = %v, want ErrInvalidCreds", err)
	}
	// credentials are checked against the named table only
	if _, _, err := e.auth.Login(ctx, "jane@example.com", "password123", domain.AccountRetailer); !errors.Is(err, ErrInvalidCreds) {
		t.Errorf("wrong table err = %v, want ErrInvalidCreds", err)
	}
	if _, _, err := e.auth.Login(ctx, "nobody@example.com", "x", domain.AccountCustomer); !errors.Is(err, ErrInvalidCreds) {
		t.Errorf("unknown email err = %v, want ErrInvalidCreds", err)
	}
}

func TestRegisterRejectsEmailAcrossTables(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	if _, _, err := e.auth.Register(ctx, RegisterInput{Email: "shop@example.com", Password: "pw123456", Name: "Shop", AccountType: domain.AccountRetailer}); err != nil {
		t.Fatalf("register retailer: %v", err)
	}
	_, _, err := e.auth.Register(ctx, RegisterInput{Email: "SHOP@example.com", Password: "pw123456", AccountType: domain.AccountCustomer})
	if !errors.Is(err, ErrEmailExists) {
		t.Fatalf("err = %v, want ErrEmailExists", err)
	}
	_, _, err = e.auth.Register(ctx, RegisterInput{Email: "shop@example.com", Password: "pw123456", AccountType: domain.AccountRetailer})
	if !errors.Is(err, ErrEmailExists) {
		t.Fatalf("same table err = %v, want ErrEmailExists", err)
	}
}

func TestRegisterInvalidAccountType(t *testing.T) {
	e := newTestEnv(t)
	_, _, err := e.auth.Register(context.Background(), RegisterInput{Email: "a@b.c", Password: "pw123456", AccountType: "admin"})
	if !errors.Is(err, ErrInvalidAccount) {
		t.Fatalf("err = %v, want ErrInvalidAccount", err)
	}
}

func TestVerifyToken(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	acc, token, err := e.auth.Register(ctx, RegisterInput{Email: "r@example.com", Password: "pw123456", Name: "Shop", AccountType: domain.AccountRetailer})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	got := e.auth.VerifyToken(ctx, token)
	if got == nil {
		t.Fatal("expected account for valid token")
	}
	if got.ID != acc.ID || !got.IsRetailer() || got.Role != domain.RoleRetailer {
		t.Errorf("account = %+v, want retailer %s", got, acc.ID)
	}
	if e.auth.VerifyToken(ctx, "garbage") != nil {
		t.Error("expected nil for malformed token")
	}
	if e.auth.VerifyToken(ctx, token+"x") != nil {
		t.Error("expected nil for tampered token")
	}

	// a token for an account that no longer exists is rejected
	if err := e.db.Exec("DELETE FROM retailers WHERE id = ?", acc.ID).Error; err != nil {
		t.Fatalf("delete: %v", err)
	}
	if e.auth.VerifyToken(ctx, token) != nil {
		t.Error("expected nil for deleted account")
	}
}

func TestUpdateProfile(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	e.retailer(t, "taken@example.com")
	acc, _, err := e.auth.Register(ctx, RegisterInput{Email: "me@example.com", Password: "pw123456", Name: "Me", AccountType: domain.AccountCustomer})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	taken := "taken@example.com"
	if _, err := e.auth.UpdateProfile(ctx, acc, ProfileUpdate{Email: &taken}); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("err = %v, want ErrEmailExists", err)
	}

	name, email := "New Name", "NEW@example.com"
	updated, err := e.auth.UpdateProfile(ctx, acc, ProfileUpdate{Name: &name, Email: &email})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	p := updated.Profile()
	if p.Name != "New Name" || p.Email != "new@example.com" {
		t.Errorf("profile = %+v", p)
	}

	// unchanged own email is not a conflict
	same := "new@example.com"
	if _, err := e.auth.UpdateProfile(ctx, updated, ProfileUpdate{Email: &same}); err != nil {
		t.Errorf("update with own email: %v", err)
	}
}

func TestResolveCustomerRole(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	admin := e.customer(t, "admin@example.com", 0)
	odd := e.customer(t, "odd@example.com", 0)
	if err := e.db.Model(admin).Update("role", domain.RoleAdmin).Error; err != nil {
		t.Fatalf("promote: %v", err)
	}
	if err := e.db.Model(odd).Update("role", "superuser").Error; err != nil {
		t.Fatalf("set role: %v", err)
	}

	for id, want := range map[string]string{admin.ID: domain.RoleAdmin, odd.ID: domain.RoleUser} {
		acc, err := e.auth.Resolve(ctx, id, domain.AccountCustomer)
		if err != nil {
			t.Fatalf("resolve %s: %v", id, err)
		}
		if acc.Role != want || !acc.IsCustomer() {
			t.Errorf("account %s: role = %q customer = %v, want %q", id, acc.Role, acc.IsCustomer(), want)
		}
	}
}
