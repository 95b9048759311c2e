package handler

import (
	"net/http"
	"strconv"

	"loyaltytree/internal/middleware"
	"loyaltytree/internal/service"

	"github.com/gin-gonic/gin"
)

type TreeHandler struct {
	svc    *service.TreeService
	images ImageUploader
}

func NewTreeHandler(svc *service.TreeService, uploader ImageUploader) *TreeHandler {
	return &TreeHandler{svc: svc, images: uploader}
}

type treeForm struct {
	Latitude  *float64 `form:"latitude" binding:"required"`
	Longitude *float64 `form:"longitude" binding:"required"`
}

type reviewRequest struct {
	Status          string `json:"status" binding:"required"`
	RejectionReason string `json:"rejectionReason" binding:"max=512"`
}

// Submit handles the multipart upload of a tree photo with its coordinates.
func (h *TreeHandler) Submit(c *gin.Context) {
	var form treeForm
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, err)
		return
	}
	customerID := middleware.GetAccountID(c)
	url, ok, err := h.images.save(c, "image", "trees/"+customerID)
	if err == nil && !ok {
		err = errImageRequired
	}
	if err != nil {
		respondError(c, "tree", "image upload", err)
		return
	}
	res, err := h.svc.Submit(c.Request.Context(), customerID, url, *form.Latitude, *form.Longitude)
	if err != nil {
		h.images.discard(c, "tree", url)
		respondError(c, "tree", "tree submission", err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *TreeHandler) ListMine(c *gin.Context) {
	list, err := h.svc.ListMine(c.Request.Context(), middleware.GetAccountID(c))
	if err != nil {
		respondError(c, "tree", "listing tree submissions", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *TreeHandler) ListPending(c *gin.Context) {
	list, err := h.svc.ListPending(c.Request.Context())
	if err != nil {
		respondError(c, "tree", "listing pending submissions", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *TreeHandler) Review(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sub, err := h.svc.Review(c.Request.Context(), c.Param("id"), req.Status, req.RejectionReason)
	if err != nil {
		respondError(c, "tree", "review", err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// Nearby lists fuzzed approved trees around lat/lng. radiusKm defaults to 10.
func (h *TreeHandler) Nearby(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng query parameters are required", "code": "validation_failed"})
		return
	}
	radius, err := strconv.ParseFloat(c.DefaultQuery("radiusKm", "10"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "radiusKm must be a number", "code": "validation_failed"})
		return
	}
	markers, err := h.svc.Nearby(c.Request.Context(), lat, lng, radius)
	if err != nil {
		respondError(c, "tree", "nearby search", err)
		return
	}
	c.JSON(http.StatusOK, markers)
}
