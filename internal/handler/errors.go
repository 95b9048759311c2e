package handler

import (
	"errors"
	"log"
	"net/http"

	"loyaltytree/internal/service"

	"github.com/gin-gonic/gin"
)

type apiError struct {
	status int
	code   string
}

var (
	errImageRequired = errors.New("image file is required")
	errImageTooLarge = errors.New("image exceeds the upload size limit")
	errImageType     = errors.New("image must be a jpg, jpeg, png or gif file")
)

var errorTable = map[error]apiError{
	service.ErrEmailExists:     {http.StatusConflict, "email_exists"},
	service.ErrInvalidCreds:    {http.StatusUnauthorized, "invalid_credentials"},
	service.ErrInvalidAccount:  {http.StatusBadRequest, "invalid_account_type"},
	service.ErrAccountNotFound: {http.StatusNotFound, "account_not_found"},

	service.ErrTreeNotFound:     {http.StatusNotFound, "tree_not_found"},
	service.ErrAlreadyReviewed:  {http.StatusConflict, "already_reviewed"},
	service.ErrInvalidDecision:  {http.StatusBadRequest, "invalid_decision"},
	service.ErrInvalidLocation:  {http.StatusBadRequest, "invalid_location"},
	service.ErrInvalidPointCost: {http.StatusBadRequest, "invalid_points_required"},
	service.ErrInvalidQuantity:  {http.StatusBadRequest, "invalid_quantity"},
	service.ErrTitleRequired:    {http.StatusBadRequest, "title_required"},

	service.ErrVoucherNotFound:       {http.StatusNotFound, "voucher_not_found"},
	service.ErrVoucherHasRedemptions: {http.StatusConflict, "voucher_has_redemptions"},
	service.ErrOutOfStock:            {http.StatusBadRequest, "out_of_stock"},
	service.ErrVoucherExpired:        {http.StatusBadRequest, "voucher_expired"},
	service.ErrInsufficientPoints:    {http.StatusBadRequest, "insufficient_points"},

	service.ErrRedemptionNotFound: {http.StatusNotFound, "redemption_not_found"},
	service.ErrRedemptionUsed:     {http.StatusConflict, "redemption_used"},
	service.ErrRedemptionExpired:  {http.StatusConflict, "redemption_expired"},

	errImageRequired: {http.StatusBadRequest, "image_required"},
	errImageTooLarge: {http.StatusRequestEntityTooLarge, "image_too_large"},
	errImageType:     {http.StatusBadRequest, "invalid_image_type"},
}

// respondError writes the mapped status for a known error. Anything else is logged
// under tag and reported as "<op> failed" with status 500.
func respondError(c *gin.Context, tag, op string, err error) {
	for target, e := range errorTable {
		if errors.Is(err, target) {
			c.JSON(e.status, gin.H{"error": target.Error(), "code": e.code})
			return
		}
	}
	log.Printf("[%s] %s failed: %v", tag, op, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": op + " failed", "code": "internal"})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation_failed"})
}
