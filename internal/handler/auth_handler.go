package handler

import (
	"net/http"

	"loyaltytree/internal/middleware"
	"loyaltytree/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	svc *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"max=255"`
	Role     string `json:"role" binding:"required,oneof=customer retailer"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required,oneof=customer retailer"`
}

type ProfileRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=255"`
	Email       *string `json:"email" binding:"omitempty,email"`
	Description *string `json:"description"`
	Logo        *string `json:"logo"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	acc, token, err := h.svc.Register(c.Request.Context(), service.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		Name:        req.Name,
		AccountType: req.Role,
	})
	if err != nil {
		respondError(c, "auth", "registration", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": acc.Profile(), "token": token})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	acc, token, err := h.svc.Login(c.Request.Context(), req.Email, req.Password, req.Role)
	if err != nil {
		respondError(c, "auth", "login", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": acc.Profile(), "token": token})
}

func (h *AuthHandler) GetProfile(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.GetAccount(c).Profile())
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	acc, err := h.svc.UpdateProfile(c.Request.Context(), middleware.GetAccount(c), service.ProfileUpdate{
		Name:        req.Name,
		Email:       req.Email,
		Description: req.Description,
		Logo:        req.Logo,
	})
	if err != nil {
		respondError(c, "auth", "profile update", err)
		return
	}
	c.JSON(http.StatusOK, acc.Profile())
}
