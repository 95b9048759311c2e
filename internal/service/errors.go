package service

import "errors"

var (
	ErrEmailExists     = errors.New("email already registered")
	ErrInvalidCreds    = errors.New("invalid email or password")
	ErrInvalidAccount  = errors.New("account type must be customer or retailer")
	ErrAccountNotFound = errors.New("account not found")

	ErrTreeNotFound     = errors.New("tree submission not found")
	ErrAlreadyReviewed  = errors.New("tree submission already reviewed")
	ErrInvalidDecision  = errors.New("review status must be approved or rejected")
	ErrInvalidLocation  = errors.New("latitude/longitude out of range")
	ErrInvalidPointCost = errors.New("points required must be a positive integer")
	ErrInvalidQuantity  = errors.New("quantity must be a positive integer")
	ErrTitleRequired    = errors.New("title is required")

	ErrVoucherNotFound       = errors.New("voucher not found")
	ErrVoucherHasRedemptions = errors.New("voucher has redemptions and cannot be deleted")
	ErrOutOfStock            = errors.New("voucher out of stock")
	ErrVoucherExpired        = errors.New("voucher has expired")
	ErrInsufficientPoints    = errors.New("insufficient points")

	ErrRedemptionNotFound = errors.New("redemption not found")
	ErrRedemptionUsed     = errors.New("redemption already used")
	ErrRedemptionExpired  = errors.New("redemption has expired")
)
