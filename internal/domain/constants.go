package domain

// Account types carried in tokens.
const (
	AccountCustomer = "customer"
	AccountRetailer = "retailer"
)

// Roles used by the authorization gate. Retailer records carry no role column;
// RoleRetailer is assigned when the account is resolved.
const (
	RoleUser     = "user"
	RoleAdmin    = "admin"
	RoleRetailer = "retailer"
)

const (
	TreeStatusPending  = "pending"
	TreeStatusApproved = "approved"
	TreeStatusRejected = "rejected"
)

const (
	RedemptionActive  = "active"
	RedemptionUsed    = "used"
	RedemptionExpired = "expired"
)

// Reasons attached to live balance events.
const (
	PointsReasonTreeApproved    = "tree_approved"
	PointsReasonVoucherRedeemed = "voucher_redeemed"
)

// Accepted image extensions for tree proofs and voucher artwork.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif"}
