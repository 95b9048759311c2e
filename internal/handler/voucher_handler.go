package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"loyaltytree/internal/middleware"
	"loyaltytree/internal/service"

	"github.com/gin-gonic/gin"
)

type VoucherHandler struct {
	vouchers    *service.VoucherService
	redemptions *service.RedemptionService
	images      ImageUploader
}

func NewVoucherHandler(vouchers *service.VoucherService, redemptions *service.RedemptionService, uploader ImageUploader) *VoucherHandler {
	return &VoucherHandler{vouchers: vouchers, redemptions: redemptions, images: uploader}
}

// voucherRequest binds from JSON or multipart; an "image" file part overrides imageUrl.
type voucherRequest struct {
	Title          *string `json:"title" form:"title"`
	Description    *string `json:"description" form:"description"`
	PointsRequired *int    `json:"pointsRequired" form:"pointsRequired"`
	Quantity       *int    `json:"quantity" form:"quantity"`
	ExpiryDate     *string `json:"expiryDate" form:"expiryDate"`
	ImageURL       *string `json:"imageUrl" form:"imageUrl"`
}

type redeemRequest struct {
	VoucherID string `json:"voucherId" binding:"required"`
}

var errExpiryFormat = errors.New("expiryDate must be RFC 3339 or YYYY-MM-DD")

// parseExpiry accepts a full timestamp or a bare date. A bare date stays valid through the end of that day.
func parseExpiry(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if d, err := time.Parse("2006-01-02", s); err == nil {
		return d.Add(24 * time.Hour), nil
	}
	return time.Time{}, errExpiryFormat
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// bindVoucher binds the body and uploads an attached image, if any. uploaded is the
// stored URL of that image; callers discard it when the request fails afterwards.
func (h *VoucherHandler) bindVoucher(c *gin.Context) (req *voucherRequest, expiry *time.Time, uploaded string, ok bool) {
	req = &voucherRequest{}
	if err := c.ShouldBind(req); err != nil {
		badRequest(c, err)
		return nil, nil, "", false
	}
	if req.ExpiryDate != nil && *req.ExpiryDate != "" {
		t, err := parseExpiry(*req.ExpiryDate)
		if err != nil {
			badRequest(c, err)
			return nil, nil, "", false
		}
		expiry = &t
	}
	url, saved, err := h.images.save(c, "image", "vouchers/"+middleware.GetAccountID(c))
	if err != nil {
		respondError(c, "voucher", "image upload", err)
		return nil, nil, "", false
	}
	if saved {
		req.ImageURL = &url
		uploaded = url
	}
	return req, expiry, uploaded, true
}

func (h *VoucherHandler) Create(c *gin.Context) {
	req, expiry, uploaded, ok := h.bindVoucher(c)
	if !ok {
		return
	}
	if expiry == nil {
		h.images.discard(c, "voucher", uploaded)
		c.JSON(http.StatusBadRequest, gin.H{"error": "expiryDate is required", "code": "validation_failed"})
		return
	}
	v, err := h.vouchers.Create(c.Request.Context(), middleware.GetAccountID(c), service.VoucherInput{
		Title:          deref(req.Title),
		Description:    deref(req.Description),
		PointsRequired: deref(req.PointsRequired),
		Quantity:       deref(req.Quantity),
		ExpiryDate:     *expiry,
		ImageURL:       deref(req.ImageURL),
	})
	if err != nil {
		h.images.discard(c, "voucher", uploaded)
		respondError(c, "voucher", "voucher creation", err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (h *VoucherHandler) Update(c *gin.Context) {
	req, expiry, uploaded, ok := h.bindVoucher(c)
	if !ok {
		return
	}
	v, err := h.vouchers.Update(c.Request.Context(), middleware.GetAccountID(c), c.Param("id"), service.VoucherPatch{
		Title:          req.Title,
		Description:    req.Description,
		PointsRequired: req.PointsRequired,
		Quantity:       req.Quantity,
		ExpiryDate:     expiry,
		ImageURL:       req.ImageURL,
	})
	if err != nil {
		h.images.discard(c, "voucher", uploaded)
		respondError(c, "voucher", "voucher update", err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *VoucherHandler) Delete(c *gin.Context) {
	if err := h.vouchers.Delete(c.Request.Context(), middleware.GetAccountID(c), c.Param("id")); err != nil {
		respondError(c, "voucher", "voucher deletion", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Voucher deleted successfully"})
}

func (h *VoucherHandler) ListAvailable(c *gin.Context) {
	list, err := h.vouchers.ListAvailable(c.Request.Context())
	if err != nil {
		respondError(c, "voucher", "listing vouchers", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *VoucherHandler) ListMine(c *gin.Context) {
	list, err := h.vouchers.ListForRetailer(c.Request.Context(), middleware.GetAccountID(c))
	if err != nil {
		respondError(c, "voucher", "listing retailer vouchers", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *VoucherHandler) Stats(c *gin.Context) {
	stats, err := h.vouchers.Stats(c.Request.Context(), middleware.GetAccountID(c))
	if err != nil {
		respondError(c, "voucher", "retailer statistics", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *VoucherHandler) Redeem(c *gin.Context) {
	var req redeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.redemptions.Redeem(c.Request.Context(), middleware.GetAccountID(c), req.VoucherID)
	if err != nil {
		respondError(c, "redeem", "redemption", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *VoucherHandler) MyRedemptions(c *gin.Context) {
	list, err := h.redemptions.ListMine(c.Request.Context(), middleware.GetAccountID(c))
	if err != nil {
		respondError(c, "redeem", "listing redemptions", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// UseRedemption lets the issuing retailer confirm a code at the till.
func (h *VoucherHandler) UseRedemption(c *gin.Context) {
	rd, err := h.redemptions.MarkUsed(c.Request.Context(), middleware.GetAccountID(c), strings.ToUpper(c.Param("code")))
	if err != nil {
		respondError(c, "redeem", "marking redemption used", err)
		return
	}
	c.JSON(http.StatusOK, rd)
}
