package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"loyaltytree/config"
	"loyaltytree/internal/auth"
	"loyaltytree/internal/domain"
	"loyaltytree/internal/models"
	"loyaltytree/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Account is a resolved identity: exactly one of Customer or Retailer is set, matching Type.
type Account struct {
	ID       string
	Type     string
	Role     string
	Customer *models.Customer
	Retailer *models.Retailer
}

// Profile is the public view of an account; it never includes the password hash.
type Profile struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	Points      *int   `json:"points,omitempty"`
	Description string `json:"description,omitempty"`
	Logo        string `json:"logo,omitempty"`
}

func (a *Account) IsCustomer() bool { return a.Type == domain.AccountCustomer }
func (a *Account) IsRetailer() bool { return a.Type == domain.AccountRetailer }

func (a *Account) Profile() Profile {
	if a.IsCustomer() {
		points := a.Customer.Points
		return Profile{
			ID:     a.Customer.ID,
			Email:  a.Customer.Email,
			Name:   a.Customer.Name,
			Role:   a.Role,
			Points: &points,
		}
	}
	return Profile{
		ID:          a.Retailer.ID,
		Email:       a.Retailer.Email,
		Name:        a.Retailer.Name,
		Role:        a.Role,
		Description: a.Retailer.Description,
		Logo:        a.Retailer.Logo,
	}
}

func customerAccount(c *models.Customer) *Account {
	role := domain.RoleUser
	if c.IsAdmin() {
		role = domain.RoleAdmin
	}
	return &Account{ID: c.ID, Type: domain.AccountCustomer, Role: role, Customer: c}
}

func retailerAccount(r *models.Retailer) *Account {
	return &Account{ID: r.ID, Type: domain.AccountRetailer, Role: domain.RoleRetailer, Retailer: r}
}

type RegisterInput struct {
	Email       string
	Password    string
	Name        string
	AccountType string
}

// ProfileUpdate holds optional profile fields; nil leaves the stored value unchanged.
// Description and Logo apply to retailers only.
type ProfileUpdate struct {
	Name        *string
	Email       *string
	Description *string
	Logo        *string
}

type AuthService struct {
	cfg       *config.JWTConfig
	customers *repository.CustomerRepository
	retailers *repository.RetailerRepository
}

func NewAuthService(cfg *config.JWTConfig, customers *repository.CustomerRepository, retailers *repository.RetailerRepository) *AuthService {
	return &AuthService{cfg: cfg, customers: customers, retailers: retailers}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// emailTaken checks both account tables; an email belongs to at most one account of either type.
func (s *AuthService) emailTaken(ctx context.Context, email string) (bool, error) {
	taken, err := s.customers.EmailExists(ctx, email)
	if err != nil || taken {
		return taken, err
	}
	return s.retailers.EmailExists(ctx, email)
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Account, string, error) {
	if in.AccountType != domain.AccountCustomer && in.AccountType != domain.AccountRetailer {
		return nil, "", ErrInvalidAccount
	}
	email := normalizeEmail(in.Email)
	taken, err := s.emailTaken(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("check email: %w", err)
	}
	if taken {
		return nil, "", ErrEmailExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}

	var acc *Account
	if in.AccountType == domain.AccountCustomer {
		c := &models.Customer{Email: email, PasswordHash: string(hash), Name: name, Role: domain.RoleUser}
		err = s.customers.Create(ctx, c)
		acc = customerAccount(c)
	} else {
		r := &models.Retailer{Email: email, PasswordHash: string(hash), Name: name}
		err = s.retailers.Create(ctx, r)
		acc = retailerAccount(r)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, "", ErrEmailExists
		}
		return nil, "", fmt.Errorf("create account: %w", err)
	}
	token, err := auth.GenerateToken(s.cfg, acc.ID, acc.Type)
	if err != nil {
		return nil, "", err
	}
	return acc, token, nil
}

// Login checks credentials against the table named by accountType only.
func (s *AuthService) Login(ctx context.Context, email, password, accountType string) (*Account, string, error) {
	email = normalizeEmail(email)
	var (
		acc  *Account
		hash string
	)
	switch accountType {
	case domain.AccountCustomer:
		c, err := s.customers.GetByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, "", ErrInvalidCreds
			}
			return nil, "", err
		}
		acc, hash = customerAccount(c), c.PasswordHash
	case domain.AccountRetailer:
		r, err := s.retailers.GetByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, "", ErrInvalidCreds
			}
			return nil, "", err
		}
		acc, hash = retailerAccount(r), r.PasswordHash
	default:
		return nil, "", ErrInvalidAccount
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCreds
	}
	token, err := auth.GenerateToken(s.cfg, acc.ID, acc.Type)
	if err != nil {
		return nil, "", err
	}
	return acc, token, nil
}

// Resolve loads the account named by id and type.
func (s *AuthService) Resolve(ctx context.Context, id, accountType string) (*Account, error) {
	switch accountType {
	case domain.AccountCustomer:
		c, err := s.customers.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrAccountNotFound
			}
			return nil, err
		}
		return customerAccount(c), nil
	case domain.AccountRetailer:
		r, err := s.retailers.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrAccountNotFound
			}
			return nil, err
		}
		return retailerAccount(r), nil
	default:
		return nil, ErrInvalidAccount
	}
}

// VerifyToken returns the account behind a bearer token, or nil for any failure
// (bad signature, expiry, unknown account, database error). Callers treat nil as unauthenticated.
func (s *AuthService) VerifyToken(ctx context.Context, token string) *Account {
	claims, err := auth.ParseToken(s.cfg, token)
	if err != nil {
		return nil
	}
	acc, err := s.Resolve(ctx, claims.Subject, claims.Type)
	if err != nil {
		if !errors.Is(err, ErrAccountNotFound) && !errors.Is(err, ErrInvalidAccount) {
			log.Printf("[auth] resolve %s %s: %v", claims.Type, claims.Subject, err)
		}
		return nil
	}
	return acc
}

func (s *AuthService) UpdateProfile(ctx context.Context, acc *Account, in ProfileUpdate) (*Account, error) {
	var newEmail string
	if in.Email != nil {
		newEmail = normalizeEmail(*in.Email)
	}
	current := acc.Profile().Email
	if newEmail != "" && newEmail != current {
		taken, err := s.emailTaken(ctx, newEmail)
		if err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if taken {
			return nil, ErrEmailExists
		}
	}

	var err error
	if acc.IsCustomer() {
		c := *acc.Customer
		if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
			c.Name = strings.TrimSpace(*in.Name)
		}
		if newEmail != "" {
			c.Email = newEmail
		}
		err = s.customers.UpdateProfile(ctx, &c)
	} else {
		r := *acc.Retailer
		if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
			r.Name = strings.TrimSpace(*in.Name)
		}
		if newEmail != "" {
			r.Email = newEmail
		}
		if in.Description != nil {
			r.Description = *in.Description
		}
		if in.Logo != nil {
			r.Logo = *in.Logo
		}
		err = s.retailers.UpdateProfile(ctx, &r)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return s.Resolve(ctx, acc.ID, acc.Type)
}
